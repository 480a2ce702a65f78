package httpapi

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/open-builders/contestlet/internal/apperrors"
	"github.com/open-builders/contestlet/internal/domain/contest"
	"github.com/open-builders/contestlet/internal/domain/user"
	"github.com/open-builders/contestlet/internal/store"
)

// handlers holds every route handler; it is intentionally thin, leaning on
// Deps' services for all business logic (mirrors the teacher's
// internal/http/*_handlers.go, one receiver per feature group split across
// files in this package).
type handlers struct {
	d Deps
}

func (h *handlers) fail(c *gin.Context, err error) {
	_ = c.Error(err)
}

func (h *handlers) pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		h.fail(c, apperrors.ValidationFailed(map[string]string{name: "must be a numeric id"}))
		return 0, false
	}
	return id, true
}

func (h *handlers) page(c *gin.Context) store.Page {
	number, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("page_size"))
	if number < 1 {
		number = 1
	}
	if size < 1 {
		size = h.d.DefaultPageSize
	}
	if size > h.d.MaxPageSize {
		size = h.d.MaxPageSize
	}
	return store.Page{Number: number, Size: size}
}

func pageInfoDTO(p store.PageInfo) gin.H {
	return gin.H{
		"page": p.Page, "page_size": p.Size, "total": p.Total,
		"total_pages": p.TotalPages, "has_next": p.HasNext, "has_prev": p.HasPrev,
	}
}

func userDTO(u *user.User) gin.H {
	return gin.H{
		"id":          u.ID,
		"phone":       u.Phone,
		"role":        u.Role,
		"is_verified": u.IsVerified,
		"profile": gin.H{
			"full_name":            u.Profile.FullName,
			"email":                u.Profile.Email,
			"bio":                  u.Profile.Bio,
			"timezone":             u.Profile.Timezone,
			"timezone_auto_detect": u.Profile.TimezoneAutoDetect,
		},
		"created_at": u.CreatedAt,
	}
}

func contestDTO(c *contest.Contest) gin.H {
	return gin.H{
		"id":                      c.ID,
		"created_by_user_id":      c.CreatedByUserID,
		"sponsor_profile_id":      c.SponsorProfileID,
		"name":                    c.Name,
		"description":             c.Description,
		"prize_description":       c.PrizeDescription,
		"image_url":               c.ImageURL,
		"sponsor_url":             c.SponsorURL,
		"location":                c.Location,
		"tags":                    c.Tags,
		"promotion_channels":      c.PromotionChannels,
		"consolation_offer":       c.ConsolationOffer,
		"start_time":              c.StartTime,
		"end_time":                c.EndTime,
		"contest_type":            c.ContestType,
		"entry_method":            c.EntryMethod,
		"winner_selection_method": c.WinnerSelectionMethod,
		"minimum_age":             c.MinimumAge,
		"max_entries_per_person":  c.MaxEntriesPerPerson,
		"total_entry_limit":       c.TotalEntryLimit,
		"winner_count":            c.WinnerCount,
		"prize_tiers":             c.PrizeTiers,
		"location_type":           c.LocationType,
		"selected_states":         c.SelectedStates,
		"radius_address":          c.RadiusAddress,
		"radius_latitude":         c.RadiusLatitude,
		"radius_longitude":        c.RadiusLongitude,
		"radius_miles":            c.RadiusMiles,
		"status":                  c.Status,
		"submitted_at":            c.SubmittedAt,
		"approved_at":             c.ApprovedAt,
		"rejected_at":             c.RejectedAt,
		"rejection_reason":        c.RejectionReason,
		"approval_message":        c.ApprovalMessage,
		"winner_selected_at":      c.WinnerSelectedAt,
		"created_at":              c.CreatedAt,
		"updated_at":              c.UpdatedAt,
	}
}

func entryDTO(e *contest.Entry) gin.H {
	return gin.H{
		"id":                  e.ID,
		"contest_id":          e.ContestID,
		"user_id":             e.UserID,
		"created_at":          e.CreatedAt,
		"status":              e.Status,
		"source":              e.Source,
		"created_by_admin_id": e.CreatedByAdminID,
		"admin_notes":         e.AdminNotes,
	}
}

func winnerDTO(w *contest.Winner) gin.H {
	return gin.H{
		"id":                w.ID,
		"contest_id":        w.ContestID,
		"winner_position":   w.WinnerPosition,
		"entry_id":          w.EntryID,
		"selected_at":       w.SelectedAt,
		"notified_at":       w.NotifiedAt,
		"claimed_at":        w.ClaimedAt,
		"prize_description": w.PrizeDescription,
	}
}
