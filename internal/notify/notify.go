// Package notify implements NotificationDispatcher (SPEC_FULL.md §4.9):
// a templated SMS fan-out with placeholder substitution, retry with
// capped backoff, and an audit trail. Grounded on the teacher's
// internal/service/notifications.Service (template substitution + best
// -effort goroutine fan-out) and internal/workers/redis_stream.go (the
// bounded worker-pool / ack loop shape), generalized from Telegram
// channel broadcast to per-(contest,phone) SMS delivery. All workers
// drain one shared queue, so with more than one worker two jobs for the
// same (contest, phone) can be sent in either order; delivery order is
// not guaranteed.
package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/open-builders/contestlet/internal/domain/audit"
	"github.com/open-builders/contestlet/internal/domain/contest"
	"github.com/open-builders/contestlet/internal/sms"
	"github.com/open-builders/contestlet/internal/store"
)

// defaultTemplates are the package-level fallback copy used when a
// contest has no SmsTemplate configured for a given type
// (SPEC_FULL.md §4.9a).
var defaultTemplates = map[contest.TemplateType]string{
	contest.TemplateEntryConfirmation:  "You're entered in {contest_name}! Good luck.",
	contest.TemplateWinnerNotification: "Congratulations! You won {prize_description} in {contest_name}. {claim_instructions}",
	contest.TemplateNonWinner:          "{contest_name} has ended. {consolation_offer}",
}

// Job is one unit of dispatch work.
type Job struct {
	UserID       *int64
	ContestID    *int64
	Phone        string
	TemplateType contest.TemplateType
	Variables    map[string]string
	// Suppressed marks a job that should be audited but never actually
	// sent, used by entrysvc.ManualEntry (SPEC_FULL.md §4.8 step 4).
	Suppressed bool
}

const maxSendAttempts = 3

// Dispatcher owns an in-process, bounded job queue and a small worker
// pool draining it; Enqueue blocks when the queue is full so producers
// feel backpressure instead of silently dropping work (spec.md §9).
type Dispatcher struct {
	store   store.Store
	gateway sms.Gateway
	jobs    chan jobWithID
	logger  zerolog.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

type jobWithID struct {
	Job
	id string
}

func New(st store.Store, gateway sms.Gateway, logger zerolog.Logger, queueSize int) *Dispatcher {
	return &Dispatcher{
		store:   st,
		gateway: gateway,
		jobs:    make(chan jobWithID, queueSize),
		logger:  logger,
	}
}

// Start launches the worker pool; call Stop to drain and shut down.
func (d *Dispatcher) Start(ctx context.Context, workerCount int) {
	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	for i := 0; i < workerCount; i++ {
		d.wg.Add(1)
		go d.worker(runCtx)
	}
}

func (d *Dispatcher) Stop() {
	close(d.jobs)
	d.wg.Wait()
	if d.cancel != nil {
		d.cancel()
	}
}

// Enqueue blocks until there is room in the queue or ctx is cancelled.
func (d *Dispatcher) Enqueue(ctx context.Context, job Job) error {
	select {
	case d.jobs <- jobWithID{Job: job, id: uuid.NewString()}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	for job := range d.jobs {
		d.process(ctx, job)
	}
}

func (d *Dispatcher) process(ctx context.Context, job jobWithID) {
	body := d.renderBody(ctx, job.Job)

	n := &audit.Notification{
		UserID:       job.UserID,
		ContestID:    job.ContestID,
		TemplateType: string(job.TemplateType),
		Phone:        job.Phone,
		Body:         body,
		Suppressed:   job.Suppressed,
	}

	if job.Suppressed {
		n.Success = false
		if err := d.store.InsertNotification(ctx, n); err != nil {
			d.logger.Error().Err(err).Str("job_id", job.id).Msg("notify: failed to record suppressed notification")
		}
		return
	}

	providerID, err := d.sendWithRetry(ctx, job.Phone, body)
	if err != nil {
		n.Success = false
		n.Error = err.Error()
	} else {
		n.Success = true
		n.ProviderMessageID = providerID
	}

	if insertErr := d.store.InsertNotification(ctx, n); insertErr != nil {
		d.logger.Error().Err(insertErr).Str("job_id", job.id).Msg("notify: failed to record notification")
	}
}

func (d *Dispatcher) sendWithRetry(ctx context.Context, phone, body string) (string, error) {
	var lastErr error
	backoff := 500 * time.Millisecond
	for attempt := 1; attempt <= maxSendAttempts; attempt++ {
		providerID, err := d.gateway.Send(ctx, phone, body)
		if err == nil {
			return providerID, nil
		}
		lastErr = err
		if attempt == maxSendAttempts {
			break
		}
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return "", ctx.Err()
		}
		backoff *= 2
	}
	return "", lastErr
}

func (d *Dispatcher) renderBody(ctx context.Context, job Job) string {
	body := defaultTemplates[job.TemplateType]
	if job.ContestID != nil {
		if tpl, err := d.store.GetSmsTemplate(ctx, *job.ContestID, job.TemplateType); err == nil {
			body = tpl.MessageContent
		}
	}
	for key, value := range job.Variables {
		body = strings.ReplaceAll(body, fmt.Sprintf("{%s}", key), value)
	}
	return body
}
