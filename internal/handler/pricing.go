package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"delivery/internal/domain"
	internalRedis "delivery/internal/redis"
	"delivery/internal/service"
)

// PricingHandler handles HTTP requests for the pricing configuration and
// standalone fee quotes.
type PricingHandler struct {
	pricingStore  *service.PricingStore
	feeCalculator *service.FeeCalculator
	cacheStore    *internalRedis.CacheStore
	clock         service.Clock
}

// NewPricingHandler creates a new PricingHandler.
func NewPricingHandler(
	pricingStore *service.PricingStore,
	feeCalculator *service.FeeCalculator,
	cacheStore *internalRedis.CacheStore,
	clock service.Clock,
) *PricingHandler {
	if clock == nil {
		clock = service.RealClock{}
	}
	return &PricingHandler{
		pricingStore:  pricingStore,
		feeCalculator: feeCalculator,
		cacheStore:    cacheStore,
		clock:         clock,
	}
}

// BaseConfigRequest is the HTTP request body for replacing the base config.
type BaseConfigRequest struct {
	BaseFee       float64 `json:"base_fee"`
	FeePerKm      float64 `json:"fee_per_km"`
	MinDistanceKm float64 `json:"min_distance_km"`
	MaxDistanceKm float64 `json:"max_distance_km"`
}

// TimeRangeRequest is the HTTP request body for adding a time range.
// Times are "HH:MM"; days are weekday names ("MONDAY".."SUNDAY").
type TimeRangeRequest struct {
	StartTime  string   `json:"start_time"`
	EndTime    string   `json:"end_time"`
	Multiplier float64  `json:"multiplier"`
	Days       []string `json:"days"`
}

// DistanceRangeRequest is the HTTP request body for adding a distance range.
type DistanceRangeRequest struct {
	MinDistanceKm float64 `json:"min_distance_km"`
	MaxDistanceKm float64 `json:"max_distance_km"`
	FeePerKm      float64 `json:"fee_per_km"`
}

// TimeRangeResponse is the HTTP representation of a time range.
type TimeRangeResponse struct {
	ID         string   `json:"id"`
	StartTime  string   `json:"start_time"`
	EndTime    string   `json:"end_time"`
	Multiplier float64  `json:"multiplier"`
	Days       []string `json:"days"`
}

// DistanceRangeResponse is the HTTP representation of a distance range.
type DistanceRangeResponse struct {
	ID            string  `json:"id"`
	MinDistanceKm float64 `json:"min_distance_km"`
	MaxDistanceKm float64 `json:"max_distance_km"`
	FeePerKm      float64 `json:"fee_per_km"`
}

// ConfigResponse is the full pricing configuration snapshot.
type ConfigResponse struct {
	BaseFee        float64                 `json:"base_fee"`
	FeePerKm       float64                 `json:"fee_per_km"`
	MinDistanceKm  float64                 `json:"min_distance_km"`
	MaxDistanceKm  float64                 `json:"max_distance_km"`
	TimeRanges     []TimeRangeResponse     `json:"time_ranges"`
	DistanceRanges []DistanceRangeResponse `json:"distance_ranges"`
}

// QuoteResponse is the HTTP response for a fee quote.
type QuoteResponse struct {
	Fee              float64        `json:"fee"`
	EstimatedMinutes int            `json:"estimated_minutes"`
	Breakdown        QuoteBreakdown `json:"breakdown"`
}

// QuoteBreakdown itemizes the quote.
type QuoteBreakdown struct {
	BaseFee            float64 `json:"base_fee"`
	DistanceKm         float64 `json:"distance_km"`
	EffectiveRatePerKm float64 `json:"effective_rate_per_km"`
	DistanceRangeID    string  `json:"distance_range_id,omitempty"`
	RawFee             float64 `json:"raw_fee"`
	Multiplier         float64 `json:"multiplier"`
	TimeRangeID        string  `json:"time_range_id,omitempty"`
}

// GetConfig handles GET /v1/pricing/config
func (h *PricingHandler) GetConfig(c *gin.Context) {
	snap := h.pricingStore.Snapshot()

	resp := ConfigResponse{
		BaseFee:        snap.Base.BaseFee,
		FeePerKm:       snap.Base.FeePerKm,
		MinDistanceKm:  snap.Base.MinDistanceKm,
		MaxDistanceKm:  snap.Base.MaxDistanceKm,
		TimeRanges:     make([]TimeRangeResponse, 0, len(snap.TimeRanges)),
		DistanceRanges: make([]DistanceRangeResponse, 0, len(snap.DistanceRanges)),
	}
	for _, tr := range snap.TimeRanges {
		resp.TimeRanges = append(resp.TimeRanges, toTimeRangeResponse(tr))
	}
	for _, dr := range snap.DistanceRanges {
		resp.DistanceRanges = append(resp.DistanceRanges, DistanceRangeResponse{
			ID:            dr.ID,
			MinDistanceKm: dr.MinDistanceKm,
			MaxDistanceKm: dr.MaxDistanceKm,
			FeePerKm:      dr.FeePerKm,
		})
	}

	respondJSON(c, http.StatusOK, resp)
}

// ReplaceBaseConfig handles PUT /v1/pricing/config
func (h *PricingHandler) ReplaceBaseConfig(c *gin.Context) {
	var req BaseConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	cfg := domain.BaseFeeConfig{
		BaseFee:       req.BaseFee,
		FeePerKm:      req.FeePerKm,
		MinDistanceKm: req.MinDistanceKm,
		MaxDistanceKm: req.MaxDistanceKm,
	}

	if err := h.pricingStore.ReplaceBaseConfig(c.Request.Context(), cfg); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, BaseConfigRequest(cfg))
}

// AddTimeRange handles POST /v1/pricing/time-ranges
func (h *PricingHandler) AddTimeRange(c *gin.Context) {
	var req TimeRangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	start, err := parseMinuteOfDay(req.StartTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	end, err := parseMinuteOfDay(req.EndTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	days, err := parseWeekdays(req.Days)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	tr, err := h.pricingStore.AddTimeRange(c.Request.Context(), domain.TimeRange{
		StartMinute: start,
		EndMinute:   end,
		Multiplier:  req.Multiplier,
		Days:        days,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toTimeRangeResponse(tr))
}

// RemoveTimeRange handles DELETE /v1/pricing/time-ranges/:id
func (h *PricingHandler) RemoveTimeRange(c *gin.Context) {
	if err := h.pricingStore.RemoveTimeRange(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddDistanceRange handles POST /v1/pricing/distance-ranges
func (h *PricingHandler) AddDistanceRange(c *gin.Context) {
	var req DistanceRangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	dr, err := h.pricingStore.AddDistanceRange(c.Request.Context(), domain.DistanceRange{
		MinDistanceKm: req.MinDistanceKm,
		MaxDistanceKm: req.MaxDistanceKm,
		FeePerKm:      req.FeePerKm,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, DistanceRangeResponse{
		ID:            dr.ID,
		MinDistanceKm: dr.MinDistanceKm,
		MaxDistanceKm: dr.MaxDistanceKm,
		FeePerKm:      dr.FeePerKm,
	})
}

// RemoveDistanceRange handles DELETE /v1/pricing/distance-ranges/:id
func (h *PricingHandler) RemoveDistanceRange(c *gin.Context) {
	if err := h.pricingStore.RemoveDistanceRange(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Quote handles GET /v1/pricing/quote?distance_km=
func (h *PricingHandler) Quote(c *gin.Context) {
	distance, err := strconv.ParseFloat(c.Query("distance_km"), 64)
	if err != nil || distance < 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "distance_km must be a non-negative number"})
		return
	}

	now := h.clock.Now()

	// Cached quotes are keyed by distance and minute-of-day; a pricing
	// change drops the whole quote cache.
	cacheKey := fmt.Sprintf("%.2f:%d:%d", distance, now.Weekday(), now.Hour()*60+now.Minute())
	if h.cacheStore != nil {
		if cached, err := h.cacheStore.GetQuote(c.Request.Context(), cacheKey); err == nil && cached != nil {
			respondJSON(c, http.StatusOK, QuoteResponse{
				Fee:              cached.Fee,
				EstimatedMinutes: cached.EstimatedMinutes,
				Breakdown: QuoteBreakdown{
					BaseFee:            cached.BaseFee,
					DistanceKm:         cached.DistanceKm,
					EffectiveRatePerKm: cached.EffectiveRatePerKm,
					DistanceRangeID:    cached.DistanceRangeID,
					RawFee:             cached.RawFee,
					Multiplier:         cached.Multiplier,
					TimeRangeID:        cached.TimeRangeID,
				},
			})
			return
		}
	}

	quote := h.feeCalculator.QuoteAt(distance, now)

	if h.cacheStore != nil {
		_ = h.cacheStore.SetQuote(c.Request.Context(), cacheKey, &internalRedis.CachedQuote{
			Fee:                quote.Fee,
			EstimatedMinutes:   quote.EstimatedMinutes,
			BaseFee:            quote.Breakdown.BaseFee,
			DistanceKm:         quote.Breakdown.DistanceKm,
			EffectiveRatePerKm: quote.Breakdown.EffectiveRatePerKm,
			DistanceRangeID:    quote.Breakdown.DistanceRangeID,
			RawFee:             quote.Breakdown.RawFee,
			Multiplier:         quote.Breakdown.Multiplier,
			TimeRangeID:        quote.Breakdown.TimeRangeID,
		})
	}

	respondJSON(c, http.StatusOK, toQuoteResponse(quote))
}

func toQuoteResponse(q service.FeeQuote) QuoteResponse {
	return QuoteResponse{
		Fee:              q.Fee,
		EstimatedMinutes: q.EstimatedMinutes,
		Breakdown: QuoteBreakdown{
			BaseFee:            q.Breakdown.BaseFee,
			DistanceKm:         q.Breakdown.DistanceKm,
			EffectiveRatePerKm: q.Breakdown.EffectiveRatePerKm,
			DistanceRangeID:    q.Breakdown.DistanceRangeID,
			RawFee:             q.Breakdown.RawFee,
			Multiplier:         q.Breakdown.Multiplier,
			TimeRangeID:        q.Breakdown.TimeRangeID,
		},
	}
}

func toTimeRangeResponse(tr domain.TimeRange) TimeRangeResponse {
	days := make([]string, 0, len(tr.Days))
	for _, d := range tr.Days {
		days = append(days, strings.ToUpper(d.String()))
	}
	return TimeRangeResponse{
		ID:         tr.ID,
		StartTime:  formatMinuteOfDay(tr.StartMinute),
		EndTime:    formatMinuteOfDay(tr.EndMinute),
		Multiplier: tr.Multiplier,
		Days:       days,
	}
}

func parseMinuteOfDay(s string) (int, error) {
	// "24:00" is a valid end bound (exclusive end of day).
	if s == "24:00" {
		return 24 * 60, nil
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func formatMinuteOfDay(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

var weekdayNames = map[string]time.Weekday{
	"SUNDAY":    time.Sunday,
	"MONDAY":    time.Monday,
	"TUESDAY":   time.Tuesday,
	"WEDNESDAY": time.Wednesday,
	"THURSDAY":  time.Thursday,
	"FRIDAY":    time.Friday,
	"SATURDAY":  time.Saturday,
}

func parseWeekdays(names []string) ([]time.Weekday, error) {
	days := make([]time.Weekday, 0, len(names))
	seen := make(map[time.Weekday]bool)
	for _, name := range names {
		day, ok := weekdayNames[strings.ToUpper(name)]
		if !ok {
			return nil, fmt.Errorf("invalid weekday %q", name)
		}
		if !seen[day] {
			seen[day] = true
			days = append(days, day)
		}
	}
	return days, nil
}
