package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/retailpulse/internal/contracts"
	"github.com/wonny/retailpulse/pkg/logger"
)

// ResultsHandler serves the views of the latest run
// ⭐ SSOT: read endpoints for run output live here only
type ResultsHandler struct {
	store  *ResultStore
	logger *logger.Logger
}

// NewResultsHandler creates a new results handler
func NewResultsHandler(store *ResultStore, log *logger.Logger) *ResultsHandler {
	return &ResultsHandler{
		store:  store,
		logger: log,
	}
}

// RunSummary describes a run without its row-level output
type RunSummary struct {
	RunID         string                  `json:"runId"`
	ReferenceDate string                  `json:"referenceDate"`
	RulesHash     string                  `json:"rulesHash"`
	Metric        contracts.Metric        `json:"metric"`
	LedgerOrder   string                  `json:"ledgerOrder"`
	StartedAt     time.Time               `json:"startedAt"`
	DurationMs    int64                   `json:"durationMs"`
	CleanRate     float64                 `json:"cleanRate"`
	Counts        map[string]int          `json:"counts"`
	Stages        []contracts.StageResult `json:"stages"`
}

// Summarize builds the summary of r
func Summarize(r *contracts.RunResult) RunSummary {
	s := RunSummary{
		RunID:         r.RunID,
		ReferenceDate: r.ReferenceDate.Format("2006-01-02"),
		RulesHash:     r.RulesHash,
		Metric:        r.Metric,
		LedgerOrder:   r.LedgerOrder,
		StartedAt:     r.StartedAt,
		DurationMs:    r.Duration.Milliseconds(),
		CleanRate:     1.0,
		Counts: map[string]int{
			"promotionDaily": len(r.PromotionDaily),
			"promotionLift":  len(r.PromotionLift),
			"loyalty":        len(r.Loyalty),
			"funnel":         len(r.Funnel),
			"segments":       len(r.Segments),
			"events":         len(r.Events),
			"notifications":  len(r.Notifications),
			"inventory":      len(r.Inventory),
		},
		Stages: r.Stages,
	}
	if r.Quality != nil {
		s.CleanRate = r.Quality.CleanRate()
		s.Counts["cleanHeaders"] = len(r.Quality.CleanHeaders)
		s.Counts["rejectedHeaders"] = len(r.Quality.RejectedHeaders)
		s.Counts["cleanLines"] = len(r.Quality.CleanLines)
		s.Counts["rejectedLines"] = len(r.Quality.RejectedLines)
	}
	return s
}

// latest writes 503 and returns false when nothing has been published
func (h *ResultsHandler) latest(w http.ResponseWriter) (*contracts.RunResult, bool) {
	r, ok := h.store.Latest()
	if !ok {
		respondError(w, http.StatusServiceUnavailable, "No run has been published yet")
		return nil, false
	}
	return r, true
}

// GetRun returns the summary of the latest run
// GET /api/v1/run
func (h *ResultsHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	res, ok := h.latest(w)
	if !ok {
		return
	}
	respondData(w, Summarize(res))
}

// GetStages returns per-stage counts and durations
// GET /api/v1/stages
func (h *ResultsHandler) GetStages(w http.ResponseWriter, r *http.Request) {
	res, ok := h.latest(w)
	if !ok {
		return
	}
	respondList(w, res.RunID, res.Stages)
}

// GetQuality returns the quality report
// GET /api/v1/quality?view=summary
func (h *ResultsHandler) GetQuality(w http.ResponseWriter, r *http.Request) {
	res, ok := h.latest(w)
	if !ok {
		return
	}

	q := res.Quality
	if r.URL.Query().Get("view") == "summary" {
		respondData(w, map[string]interface{}{
			"runId":           res.RunID,
			"cleanRate":       q.CleanRate(),
			"cleanHeaders":    len(q.CleanHeaders),
			"rejectedHeaders": len(q.RejectedHeaders),
			"cleanLines":      len(q.CleanLines),
			"rejectedLines":   len(q.RejectedLines),
			"diagnostics":     q.Diagnostics,
		})
		return
	}
	respondData(w, q)
}

// GetPromotionDaily returns daily promotion metrics
// GET /api/v1/promotions/daily?promotion_id=&period=
func (h *ResultsHandler) GetPromotionDaily(w http.ResponseWriter, r *http.Request) {
	res, ok := h.latest(w)
	if !ok {
		return
	}

	promoID := r.URL.Query().Get("promotion_id")
	period := contracts.Period(r.URL.Query().Get("period"))
	items := filter(res.PromotionDaily, func(m contracts.PromotionDailyMetric) bool {
		return (promoID == "" || m.PromotionID == promoID) && (period == "" || m.Period == period)
	})
	respondList(w, res.RunID, items)
}

// GetPromotionLift returns category lift per promotion
// GET /api/v1/promotions/lift?category=
func (h *ResultsHandler) GetPromotionLift(w http.ResponseWriter, r *http.Request) {
	res, ok := h.latest(w)
	if !ok {
		return
	}

	category := r.URL.Query().Get("category")
	items := filter(res.PromotionLift, func(l contracts.PromotionLift) bool {
		return category == "" || l.Category == category
	})
	respondList(w, res.RunID, items)
}

// GetTopProducts returns the best selling products by revenue
// GET /api/v1/products/top?limit=
func (h *ResultsHandler) GetTopProducts(w http.ResponseWriter, r *http.Request) {
	res, ok := h.latest(w)
	if !ok {
		return
	}

	limit, valid := parseLimit(r, len(res.TopProducts))
	if !valid {
		respondError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}
	items := res.TopProducts
	if limit < len(items) {
		items = items[:limit]
	}
	respondList(w, res.RunID, items)
}

// GetLoyalty returns ledger results
// GET /api/v1/loyalty?customer_id=
func (h *ResultsHandler) GetLoyalty(w http.ResponseWriter, r *http.Request) {
	res, ok := h.latest(w)
	if !ok {
		return
	}

	customerID := r.URL.Query().Get("customer_id")
	items := filter(res.Loyalty, func(l contracts.LoyaltyResult) bool {
		return customerID == "" || l.CustomerID == customerID
	})
	respondList(w, res.RunID, items)
}

// GetFunnel returns the promotion funnel
// GET /api/v1/funnel
func (h *ResultsHandler) GetFunnel(w http.ResponseWriter, r *http.Request) {
	res, ok := h.latest(w)
	if !ok {
		return
	}
	respondList(w, res.RunID, res.Funnel)
}

// GetSegments returns RFM records
// GET /api/v1/segments?segment=
func (h *ResultsHandler) GetSegments(w http.ResponseWriter, r *http.Request) {
	res, ok := h.latest(w)
	if !ok {
		return
	}

	segment := r.URL.Query().Get("segment")
	items := filter(res.Segments, func(s contracts.RFMRecord) bool {
		return segment == "" || s.Segment == segment
	})
	respondList(w, res.RunID, items)
}

// GetCustomer returns everything the latest run knows about one customer
// GET /api/v1/customers/{id}
func (h *ResultsHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	res, ok := h.latest(w)
	if !ok {
		return
	}

	id := mux.Vars(r)["id"]
	var rfm *contracts.RFMRecord
	for i := range res.Segments {
		if res.Segments[i].CustomerID == id {
			rfm = &res.Segments[i]
			break
		}
	}
	if rfm == nil {
		respondError(w, http.StatusNotFound, "customer not found")
		return
	}

	respondData(w, map[string]interface{}{
		"runId":   res.RunID,
		"rfm":     rfm,
		"balance": res.ClosingBalances[id],
		"loyalty": filter(res.Loyalty, func(l contracts.LoyaltyResult) bool {
			return l.CustomerID == id
		}),
		"notifications": filter(res.Notifications, func(n contracts.Notification) bool {
			return n.CustomerID == id
		}),
	})
}

// GetEvents returns the event log
// GET /api/v1/events?type=&customer_id=
func (h *ResultsHandler) GetEvents(w http.ResponseWriter, r *http.Request) {
	res, ok := h.latest(w)
	if !ok {
		return
	}

	eventType := contracts.EventType(r.URL.Query().Get("type"))
	customerID := r.URL.Query().Get("customer_id")
	items := filter(res.Events, func(e contracts.Event) bool {
		return (eventType == "" || e.Type == eventType) && (customerID == "" || e.CustomerID == customerID)
	})
	respondList(w, res.RunID, items)
}

// GetNotifications returns selected notifications
// GET /api/v1/notifications?template=
func (h *ResultsHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	res, ok := h.latest(w)
	if !ok {
		return
	}

	template := r.URL.Query().Get("template")
	items := filter(res.Notifications, func(n contracts.Notification) bool {
		return template == "" || n.Template == template
	})
	respondList(w, res.RunID, items)
}

// GetInventory returns store × product risk records
// GET /api/v1/inventory?risk=&store_id=
func (h *ResultsHandler) GetInventory(w http.ResponseWriter, r *http.Request) {
	res, ok := h.latest(w)
	if !ok {
		return
	}

	risk := r.URL.Query().Get("risk")
	storeID := r.URL.Query().Get("store_id")
	items := filter(res.Inventory, func(rec contracts.InventoryRiskRecord) bool {
		return (risk == "" || rec.Risk == risk) && (storeID == "" || rec.StoreID == storeID)
	})
	respondList(w, res.RunID, items)
}

// GetRegionRisk returns risk counts per region
// GET /api/v1/inventory/regions
func (h *ResultsHandler) GetRegionRisk(w http.ResponseWriter, r *http.Request) {
	res, ok := h.latest(w)
	if !ok {
		return
	}
	respondList(w, res.RunID, res.RegionRisk)
}
