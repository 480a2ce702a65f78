package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/open-builders/contestlet/internal/apperrors"
	"github.com/open-builders/contestlet/internal/authz"
	"github.com/open-builders/contestlet/internal/contestsvc"
	"github.com/open-builders/contestlet/internal/domain/contest"
	"github.com/open-builders/contestlet/internal/entrysvc"
	"github.com/open-builders/contestlet/internal/statusengine"
)

// listPublicContests returns every contest whose effective status is
// publicly readable (upcoming/active/ended/complete), regardless of who is
// asking; an authenticated caller sees nothing additional here (their own
// drafts surface via listMyContests instead).
func (h *handlers) listPublicContests(c *gin.Context) {
	contests, pageInfo, err := h.d.Store.ListPublic(c.Request.Context(), h.page(c))
	if err != nil {
		h.fail(c, apperrors.DependencyUnavailable("failed to list contests", err))
		return
	}

	now := time.Now()
	visible := make([]gin.H, 0, len(contests))
	for i := range contests {
		if authz.IsPubliclyReadable(statusengine.EffectiveStatus(&contests[i], now)) {
			visible = append(visible, contestDTO(&contests[i]))
		}
	}
	c.JSON(200, gin.H{"contests": visible, "page_info": pageInfoDTO(pageInfo)})
}

func (h *handlers) getContest(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	ct, err := h.d.Store.GetContestByID(c.Request.Context(), id)
	if err != nil {
		h.fail(c, apperrors.NotFound("contest not found"))
		return
	}

	actor := actorFrom(c)
	effective := statusengine.EffectiveStatus(ct, time.Now())
	if !authz.IsPubliclyReadable(effective) {
		if err := authz.Decide(actor, ct, authz.ActionContestReadRestricted); err != nil {
			h.fail(c, err)
			return
		}
	}
	c.JSON(200, contestDTO(ct))
}

type prizeTierRequest struct {
	Position int    `json:"position"`
	Prize    string `json:"prize"`
}

type contestRequest struct {
	Name                  string             `json:"name"`
	Description           string             `json:"description"`
	PrizeDescription      string             `json:"prize_description"`
	ImageURL              string             `json:"image_url"`
	SponsorURL            string             `json:"sponsor_url"`
	Location              string             `json:"location"`
	Tags                  []string           `json:"tags"`
	PromotionChannels     []string           `json:"promotion_channels"`
	ConsolationOffer      string             `json:"consolation_offer"`
	StartTime             time.Time          `json:"start_time"`
	EndTime               time.Time          `json:"end_time"`
	ContestType           string             `json:"contest_type"`
	EntryMethod           string             `json:"entry_method"`
	WinnerSelectionMethod string             `json:"winner_selection_method"`
	MinimumAge            int                `json:"minimum_age"`
	MaxEntriesPerPerson   *int               `json:"max_entries_per_person"`
	TotalEntryLimit       *int               `json:"total_entry_limit"`
	WinnerCount           int                `json:"winner_count"`
	PrizeTiers            []prizeTierRequest `json:"prize_tiers"`
	LocationType          string             `json:"location_type"`
	SelectedStates        []string           `json:"selected_states"`
	RadiusAddress         string             `json:"radius_address"`
	RadiusLatitude        *float64           `json:"radius_latitude"`
	RadiusLongitude       *float64           `json:"radius_longitude"`
	RadiusMiles           *float64           `json:"radius_miles"`

	SponsorProfileID int64 `json:"sponsor_profile_id"`

	OfficialRules *officialRulesRequest `json:"official_rules"`
}

type officialRulesRequest struct {
	EligibilityText string  `json:"eligibility_text"`
	SponsorName     string  `json:"sponsor_name"`
	PrizeValueUSD   float64 `json:"prize_value_usd"`
	TermsURL        string  `json:"terms_url"`
	AdditionalTerms string  `json:"additional_terms"`
}

func (req contestRequest) toDomain() contest.Contest {
	tiers := make([]contest.PrizeTier, 0, len(req.PrizeTiers))
	for _, t := range req.PrizeTiers {
		tiers = append(tiers, contest.PrizeTier{Position: t.Position, Prize: t.Prize})
	}
	return contest.Contest{
		Name:                  req.Name,
		Description:           req.Description,
		PrizeDescription:      req.PrizeDescription,
		ImageURL:              req.ImageURL,
		SponsorURL:            req.SponsorURL,
		Location:              req.Location,
		Tags:                  req.Tags,
		PromotionChannels:     req.PromotionChannels,
		ConsolationOffer:      req.ConsolationOffer,
		StartTime:             req.StartTime,
		EndTime:               req.EndTime,
		ContestType:           contest.ContestType(req.ContestType),
		EntryMethod:           contest.EntryMethod(req.EntryMethod),
		WinnerSelectionMethod: contest.WinnerSelectionMethod(req.WinnerSelectionMethod),
		MinimumAge:            req.MinimumAge,
		MaxEntriesPerPerson:   req.MaxEntriesPerPerson,
		TotalEntryLimit:       req.TotalEntryLimit,
		WinnerCount:           req.WinnerCount,
		PrizeTiers:            tiers,
		LocationType:          contest.LocationType(req.LocationType),
		SelectedStates:        req.SelectedStates,
		RadiusAddress:         req.RadiusAddress,
		RadiusLatitude:        req.RadiusLatitude,
		RadiusLongitude:       req.RadiusLongitude,
		RadiusMiles:           req.RadiusMiles,
	}
}

func (h *handlers) createDraft(c *gin.Context) {
	var req contestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperrors.ValidationFailed(map[string]string{"body": "invalid JSON"}))
		return
	}

	var rules contest.OfficialRules
	if req.OfficialRules != nil {
		rules = contest.OfficialRules{
			EligibilityText: req.OfficialRules.EligibilityText,
			SponsorName:     req.OfficialRules.SponsorName,
			PrizeValueUSD:   req.OfficialRules.PrizeValueUSD,
			TermsURL:        req.OfficialRules.TermsURL,
			AdditionalTerms: req.OfficialRules.AdditionalTerms,
		}
	}

	created, err := h.d.Contests.CreateDraft(c.Request.Context(), actorFrom(c), contestsvc.CreateInput{
		SponsorProfileID: req.SponsorProfileID,
		Contest:          req.toDomain(),
		Rules:            rules,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(201, contestDTO(created))
}

func (h *handlers) updateDraft(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req contestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperrors.ValidationFailed(map[string]string{"body": "invalid JSON"}))
		return
	}

	var rules *contest.OfficialRules
	if req.OfficialRules != nil {
		rules = &contest.OfficialRules{
			EligibilityText: req.OfficialRules.EligibilityText,
			SponsorName:     req.OfficialRules.SponsorName,
			PrizeValueUSD:   req.OfficialRules.PrizeValueUSD,
			TermsURL:        req.OfficialRules.TermsURL,
			AdditionalTerms: req.OfficialRules.AdditionalTerms,
		}
	}

	updated, err := h.d.Contests.UpdateDraft(c.Request.Context(), actorFrom(c), id, req.toDomain(), rules)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(200, contestDTO(updated))
}

type submitRequest struct {
	Message string `json:"message"`
}

func (h *handlers) submitContest(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req submitRequest
	_ = c.ShouldBindJSON(&req)
	updated, err := h.d.Contests.Submit(c.Request.Context(), actorFrom(c), id, req.Message)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(200, contestDTO(updated))
}

func (h *handlers) withdrawContest(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	updated, err := h.d.Contests.Withdraw(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(200, contestDTO(updated))
}

func (h *handlers) deleteContest(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.d.Contests.Delete(c.Request.Context(), actorFrom(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(204)
}

type enterContestRequest struct {
	AgeYears *int    `json:"age_years"`
	Address  string  `json:"address"`
	Lat      *float64 `json:"lat"`
	Lon      *float64 `json:"lon"`
}

func (h *handlers) enterContest(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req enterContestRequest
	_ = c.ShouldBindJSON(&req)

	entry, err := h.d.Entries.EnterSelf(c.Request.Context(), actorFrom(c), entrysvc.SelfEntryInput{
		ContestID: id,
		AgeYears:  req.AgeYears,
		Location:  entrysvc.EntrantLocation{Address: req.Address, Lat: req.Lat, Lon: req.Lon},
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(201, entryDTO(entry))
}

func (h *handlers) listMyContests(c *gin.Context) {
	actor := actorFrom(c)
	contests, pageInfo, err := h.d.Store.ListByCreator(c.Request.Context(), actor.UserID, h.page(c))
	if err != nil {
		h.fail(c, apperrors.DependencyUnavailable("failed to list contests", err))
		return
	}
	dtos := make([]gin.H, 0, len(contests))
	for i := range contests {
		dtos = append(dtos, contestDTO(&contests[i]))
	}
	c.JSON(200, gin.H{"contests": dtos, "page_info": pageInfoDTO(pageInfo)})
}
