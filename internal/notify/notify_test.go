package notify

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-builders/contestlet/internal/domain/contest"
	"github.com/open-builders/contestlet/internal/sms"
	"github.com/open-builders/contestlet/internal/store/memstore"
)

// renderBody substitutes every placeholder by literal string replacement
// and falls back to the package default template when no contest-specific
// SmsTemplate is configured (spec.md §4.9).
func TestRenderBody_DefaultTemplateSubstitution(t *testing.T) {
	st := memstore.New()
	d := New(st, sms.NewMock(), zerolog.Nop(), 4)
	ctx := context.Background()

	contestID := int64(7)
	body := d.renderBody(ctx, Job{
		ContestID:    &contestID,
		TemplateType: contest.TemplateEntryConfirmation,
		Variables:    map[string]string{"contest_name": "Free Tacos"},
	})
	assert.Equal(t, "You're entered in Free Tacos! Good luck.", body)
}

func TestRenderBody_PrefersContestSpecificTemplate(t *testing.T) {
	st := memstore.New()
	d := New(st, sms.NewMock(), zerolog.Nop(), 4)
	ctx := context.Background()

	contestID := int64(7)
	require.NoError(t, st.UpsertSmsTemplate(ctx, &contest.SmsTemplate{
		ContestID:      contestID,
		TemplateType:   contest.TemplateWinnerNotification,
		MessageContent: "Congrats on {prize_description}, sponsored by {sponsor_name}!",
	}))

	body := d.renderBody(ctx, Job{
		ContestID:    &contestID,
		TemplateType: contest.TemplateWinnerNotification,
		Variables:    map[string]string{"prize_description": "a taco truck", "sponsor_name": "T/ACO"},
	})
	assert.Equal(t, "Congrats on a taco truck, sponsored by T/ACO!", body)
}

// A Suppressed job (the entrysvc.ManualEntry path) is never sent to the
// gateway.
func TestProcess_SuppressedJobNeverSends(t *testing.T) {
	st := memstore.New()
	gateway := sms.NewMock()
	d := New(st, gateway, zerolog.Nop(), 4)
	ctx := context.Background()

	userID, contestID := int64(1), int64(7)
	d.process(ctx, jobWithID{Job: Job{
		UserID: &userID, ContestID: &contestID, Phone: "+15550001111",
		TemplateType: contest.TemplateEntryConfirmation,
		Variables:    map[string]string{"contest_name": "Free Tacos"},
		Suppressed:   true,
	}, id: "job-1"})

	assert.Empty(t, gateway.Messages())
}

// A non-suppressed job sends its rendered body to the job's phone through
// the gateway.
func TestProcess_SendsRenderedBodyThroughGateway(t *testing.T) {
	st := memstore.New()
	gateway := sms.NewMock()
	d := New(st, gateway, zerolog.Nop(), 4)
	ctx := context.Background()

	userID, contestID := int64(1), int64(7)
	d.process(ctx, jobWithID{Job: Job{
		UserID: &userID, ContestID: &contestID, Phone: "+15550001111",
		TemplateType: contest.TemplateEntryConfirmation,
		Variables:    map[string]string{"contest_name": "Free Tacos"},
	}, id: "job-2"})

	messages := gateway.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "+15550001111", messages[0].Phone)
	assert.Equal(t, "You're entered in Free Tacos! Good luck.", messages[0].Body)
}

// Enqueue never blocks while the queue has capacity, and accepts jobs
// without a worker pool running (the service layer enqueues within its
// own transaction and does not wait for delivery).
func TestEnqueue_DoesNotBlockWhileQueueHasRoom(t *testing.T) {
	st := memstore.New()
	d := New(st, sms.NewMock(), zerolog.Nop(), 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		err := d.Enqueue(ctx, Job{Phone: "+15550001111", TemplateType: contest.TemplateEntryConfirmation})
		require.NoError(t, err)
	}
}
