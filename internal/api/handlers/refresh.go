package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"golang.org/x/time/rate"

	"github.com/wonny/retailpulse/internal/contracts"
	"github.com/wonny/retailpulse/pkg/logger"
)

// Refresher reruns the pipeline and publishes the result.
// reload drops cached input tables first.
type Refresher interface {
	Refresh(ctx context.Context, reload bool) (*contracts.RunResult, error)
}

// RefreshHandler triggers on-demand runs
type RefreshHandler struct {
	refresher Refresher
	limiter   *rate.Limiter
	logger    *logger.Logger
}

// NewRefreshHandler creates a refresh handler allowing perMinute runs per minute
func NewRefreshHandler(refresher Refresher, perMinute int, log *logger.Logger) *RefreshHandler {
	if perMinute <= 0 {
		perMinute = 1
	}
	return &RefreshHandler{
		refresher: refresher,
		limiter:   rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), perMinute),
		logger:    log,
	}
}

// RefreshRequest is the optional body of a refresh call
type RefreshRequest struct {
	Reload bool `json:"reload"`
}

// Refresh reruns the pipeline
// POST /api/v1/refresh?reload=true
func (h *RefreshHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if !h.limiter.Allow() {
		respondError(w, http.StatusTooManyRequests, "Refresh rate limit exceeded")
		return
	}

	var req RefreshRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}
	if s := r.URL.Query().Get("reload"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'reload' value")
			return
		}
		req.Reload = req.Reload || v
	}

	result, err := h.refresher.Refresh(r.Context(), req.Reload)
	if err != nil {
		var schemaErr *contracts.SchemaError
		if errors.As(err, &schemaErr) {
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.logger.WithError(err).Error("Refresh failed")
		respondError(w, http.StatusInternalServerError, "Refresh failed")
		return
	}

	respondData(w, Summarize(result))
}
