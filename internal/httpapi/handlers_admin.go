package httpapi

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/open-builders/contestlet/internal/apperrors"
	"github.com/open-builders/contestlet/internal/approvalqueue"
	"github.com/open-builders/contestlet/internal/domain/contest"
	"github.com/open-builders/contestlet/internal/entrysvc"
)

type approvalActionRequest struct {
	Message string `json:"message"`
}

func (h *handlers) approveContest(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req approvalActionRequest
	_ = c.ShouldBindJSON(&req)
	updated, err := h.d.Contests.Approve(c.Request.Context(), actorFrom(c), id, req.Message)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(200, contestDTO(updated))
}

func (h *handlers) rejectContest(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req approvalActionRequest
	_ = c.ShouldBindJSON(&req)
	updated, err := h.d.Contests.Reject(c.Request.Context(), actorFrom(c), id, req.Message)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(200, contestDTO(updated))
}

type bulkApproveRequest struct {
	ContestIDs []int64 `json:"contest_ids"`
	Approved   bool    `json:"approved"`
	Reason     string  `json:"reason"`
}

func (h *handlers) bulkApprove(c *gin.Context) {
	var req bulkApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperrors.ValidationFailed(map[string]string{"contest_ids": "is required"}))
		return
	}
	results := h.d.Contests.BulkApprove(c.Request.Context(), actorFrom(c), req.ContestIDs, req.Approved, req.Reason)

	out := make([]gin.H, 0, len(results))
	for _, r := range results {
		entry := gin.H{"contest_id": r.ContestID}
		if r.Error != nil {
			entry["error"] = r.Error.Error()
		} else {
			entry["ok"] = true
		}
		out = append(out, entry)
	}
	c.JSON(200, gin.H{"results": out})
}

func (h *handlers) approvalQueueList(c *gin.Context) {
	var bucketFilter *approvalqueue.WaitingDayBucket
	if raw := c.Query("bucket"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.fail(c, apperrors.ValidationFailed(map[string]string{"bucket": "must be a numeric bucket id"}))
			return
		}
		b := approvalqueue.WaitingDayBucket(n)
		bucketFilter = &b
	}

	entries, pageInfo, err := h.d.ApprovalQueue.List(c.Request.Context(), bucketFilter, c.Query("search"), h.page(c))
	if err != nil {
		h.fail(c, apperrors.DependencyUnavailable("failed to list approval queue", err))
		return
	}

	dtos := make([]gin.H, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, gin.H{
			"contest_id":   e.ContestID,
			"name":         e.Name,
			"sponsor_name": e.SponsorName,
			"submitted_at": e.SubmittedAt,
			"waiting_days": e.WaitingDays,
			"bucket":       e.Bucket.Label(),
		})
	}
	c.JSON(200, gin.H{"queue": dtos, "page_info": pageInfoDTO(pageInfo)})
}

func (h *handlers) approvalQueueStats(c *gin.Context) {
	stats, err := h.d.ApprovalQueue.Statistics(c.Request.Context())
	if err != nil {
		h.fail(c, apperrors.DependencyUnavailable("failed to compute approval statistics", err))
		return
	}
	c.JSON(200, gin.H{
		"pending_count":              stats.PendingCount,
		"seven_day_approval_rate":    stats.SevenDayApprovalRate,
		"seven_day_rejection_rate":   stats.SevenDayRejectionRate,
		"avg_approval_time_seconds":  stats.AvgApprovalTimeSeconds,
		"oldest_pending_age_seconds": stats.OldestPendingAgeSeconds,
	})
}

type manualEntryRequest struct {
	Phone         string   `json:"phone"`
	Source        string   `json:"source"`
	Notes         string   `json:"notes"`
	AdminOverride bool     `json:"admin_override"`
	AgeYears      *int     `json:"age_years"`
	Address       string   `json:"address"`
	Lat           *float64 `json:"lat"`
	Lon           *float64 `json:"lon"`
}

func (h *handlers) manualEntry(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req manualEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperrors.ValidationFailed(map[string]string{"phone": "is required"}))
		return
	}

	entry, err := h.d.Entries.ManualEntry(c.Request.Context(), actorFrom(c), entrysvc.ManualEntryInput{
		ContestID:     id,
		Phone:         req.Phone,
		Source:        contest.EntrySource(req.Source),
		Notes:         req.Notes,
		AdminOverride: req.AdminOverride,
		AgeYears:      req.AgeYears,
		Location:      entrysvc.EntrantLocation{Address: req.Address, Lat: req.Lat, Lon: req.Lon},
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(201, entryDTO(entry))
}

type selectWinnersRequest struct {
	Count      int                `json:"count"`
	PrizeTiers []prizeTierRequest `json:"prize_tiers"`
}

func (h *handlers) selectWinners(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req selectWinnersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperrors.ValidationFailed(map[string]string{"count": "is required"}))
		return
	}
	tiers := make([]contest.PrizeTier, 0, len(req.PrizeTiers))
	for _, t := range req.PrizeTiers {
		tiers = append(tiers, contest.PrizeTier{Position: t.Position, Prize: t.Prize})
	}

	updated, winners, err := h.d.Contests.SelectWinners(c.Request.Context(), actorFrom(c), id, req.Count, tiers)
	if err != nil {
		h.fail(c, err)
		return
	}
	winnerDTOs := make([]gin.H, 0, len(winners))
	for i := range winners {
		winnerDTOs = append(winnerDTOs, winnerDTO(&winners[i]))
	}
	c.JSON(200, gin.H{"contest": contestDTO(updated), "winners": winnerDTOs})
}

func (h *handlers) reselectWinner(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	position, err := strconv.Atoi(c.Param("position"))
	if err != nil {
		h.fail(c, apperrors.ValidationFailed(map[string]string{"position": "must be numeric"}))
		return
	}

	winner, err := h.d.Contests.ReselectWinner(c.Request.Context(), actorFrom(c), id, position)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(200, winnerDTO(winner))
}

type notifyWinnersRequest struct {
	Test bool `json:"test"`
}

func (h *handlers) notifyWinners(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req notifyWinnersRequest
	_ = c.ShouldBindJSON(&req)

	count, err := h.d.Contests.NotifyWinners(c.Request.Context(), actorFrom(c), id, req.Test)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(200, gin.H{"notified": count})
}
