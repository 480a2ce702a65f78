// Package approvalqueue implements the materialized view over
// awaiting_approval contests (SPEC_FULL.md §4.12). The teacher has no
// approval workflow of its own, so this is built directly against
// Store.ListByStatus; pagination and bucket shapes follow the same
// {page, size, total, total_pages, has_next, has_prev} envelope the
// teacher's list endpoints already return.
package approvalqueue

import (
	"context"
	"time"

	"github.com/open-builders/contestlet/internal/domain/contest"
	"github.com/open-builders/contestlet/internal/platform/clock"
	"github.com/open-builders/contestlet/internal/store"
)

// WaitingDayBucket classifies how long a contest has waited for
// approval decision (SPEC_FULL.md §4.12a).
type WaitingDayBucket int

const (
	BucketUnderOneDay WaitingDayBucket = iota
	BucketOneToThreeDays
	BucketThreeToSevenDays
	BucketSevenDaysPlus
)

func (b WaitingDayBucket) Label() string {
	switch b {
	case BucketUnderOneDay:
		return "<1d"
	case BucketOneToThreeDays:
		return "1-3d"
	case BucketThreeToSevenDays:
		return "3-7d"
	default:
		return "7d+"
	}
}

func bucketFor(waiting time.Duration) WaitingDayBucket {
	days := waiting.Hours() / 24
	switch {
	case days < 1:
		return BucketUnderOneDay
	case days < 3:
		return BucketOneToThreeDays
	case days < 7:
		return BucketThreeToSevenDays
	default:
		return BucketSevenDaysPlus
	}
}

// Entry is one row of the approval queue.
type Entry struct {
	ContestID   int64
	Name        string
	SponsorName string
	SubmittedAt time.Time
	WaitingDays float64
	Bucket      WaitingDayBucket
}

// Statistics summarizes recent approval activity (SPEC_FULL.md §4.12).
type Statistics struct {
	PendingCount           int
	SevenDayApprovalRate   float64
	SevenDayRejectionRate  float64
	AvgApprovalTimeSeconds float64
	OldestPendingAgeSeconds float64
}

type Queue struct {
	store store.Store
	clock clock.Clock
}

func New(st store.Store, clk clock.Clock) *Queue {
	return &Queue{store: st, clock: clk}
}

// List returns the awaiting_approval contests, optionally narrowed to a
// single waiting-day bucket and/or a name search term.
func (q *Queue) List(ctx context.Context, bucket *WaitingDayBucket, search string, page store.Page) ([]Entry, store.PageInfo, error) {
	contests, pageInfo, err := q.store.ListByStatus(ctx, store.ContestFilter{
		Statuses: []contest.Status{contest.StatusAwaitingApproval},
		Search:   search,
	}, page)
	if err != nil {
		return nil, store.PageInfo{}, err
	}

	now := q.clock.Now()
	entries := make([]Entry, 0, len(contests))
	for _, c := range contests {
		submittedAt := c.CreatedAt
		if c.SubmittedAt != nil {
			submittedAt = *c.SubmittedAt
		}
		waiting := now.Sub(submittedAt)
		b := bucketFor(waiting)
		if bucket != nil && *bucket != b {
			continue
		}

		sponsorName := ""
		if sp, err := q.store.GetSponsorProfileByID(ctx, c.SponsorProfileID); err == nil {
			sponsorName = sp.CompanyName
		}

		entries = append(entries, Entry{
			ContestID:   c.ID,
			Name:        c.Name,
			SponsorName: sponsorName,
			SubmittedAt: submittedAt,
			WaitingDays: waiting.Hours() / 24,
			Bucket:      b,
		})
	}
	return entries, pageInfo, nil
}

// Statistics computes the 7-day approval/rejection rate and related
// figures by scanning decided contests (approved_at/rejected_at set)
// over the trailing week, plus the current pending set.
func (q *Queue) Statistics(ctx context.Context) (Statistics, error) {
	now := q.clock.Now()
	windowStart := now.Add(-7 * 24 * time.Hour)

	pending, _, err := q.store.ListByStatus(ctx, store.ContestFilter{
		Statuses: []contest.Status{contest.StatusAwaitingApproval},
	}, store.Page{Number: 1, Size: 1000})
	if err != nil {
		return Statistics{}, err
	}

	decided, _, err := q.store.ListByStatus(ctx, store.ContestFilter{
		Statuses: []contest.Status{
			contest.StatusUpcoming, contest.StatusActive, contest.StatusEnded,
			contest.StatusComplete, contest.StatusCancelled, contest.StatusRejected,
		},
	}, store.Page{Number: 1, Size: 1000})
	if err != nil {
		return Statistics{}, err
	}

	var approved, rejected int
	var totalApprovalSeconds float64
	for _, c := range decided {
		switch {
		case c.ApprovedAt != nil && c.ApprovedAt.After(windowStart):
			approved++
			if c.SubmittedAt != nil {
				totalApprovalSeconds += c.ApprovedAt.Sub(*c.SubmittedAt).Seconds()
			}
		case c.RejectedAt != nil && c.RejectedAt.After(windowStart):
			rejected++
		}
	}

	stats := Statistics{PendingCount: len(pending)}
	decidedTotal := approved + rejected
	if decidedTotal > 0 {
		stats.SevenDayApprovalRate = float64(approved) / float64(decidedTotal)
		stats.SevenDayRejectionRate = float64(rejected) / float64(decidedTotal)
	}
	if approved > 0 {
		stats.AvgApprovalTimeSeconds = totalApprovalSeconds / float64(approved)
	}

	var oldest time.Time
	for _, c := range pending {
		submittedAt := c.CreatedAt
		if c.SubmittedAt != nil {
			submittedAt = *c.SubmittedAt
		}
		if oldest.IsZero() || submittedAt.Before(oldest) {
			oldest = submittedAt
		}
	}
	if !oldest.IsZero() {
		stats.OldestPendingAgeSeconds = now.Sub(oldest).Seconds()
	}
	return stats, nil
}
