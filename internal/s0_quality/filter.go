package s0_quality

import (
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/wonny/retailpulse/internal/contracts"
	"github.com/wonny/retailpulse/pkg/logger"
)

// Filter splits raw headers and lines into clean and rejected partitions
// ⭐ SSOT: S0 data-quality rules live here only
type Filter struct {
	tolerance decimal.Decimal
	logger    *logger.Logger
}

// Config holds quality thresholds
type Config struct {
	TotalTolerance float64 // max |header total - Σ line amounts|, currency units
}

// DefaultConfig returns the reference tolerance of one cent
func DefaultConfig() Config {
	return Config{TotalTolerance: 0.01}
}

// NewFilter creates a new quality filter
func NewFilter(cfg Config, log *logger.Logger) *Filter {
	return &Filter{
		tolerance: decimal.NewFromFloat(cfg.TotalTolerance),
		logger:    log.WithStage(contracts.StageQuality.String()),
	}
}

// Run partitions the tables. Each record is judged on its own:
// a header failing reconciliation never drags its lines along.
// Products and stores feed diagnostics only.
func (f *Filter) Run(headers []contracts.RawHeader, lines []contracts.RawLine, products []contracts.Product, stores []contracts.Store) *contracts.QualityReport {
	report := &contracts.QualityReport{
		CleanHeaders:    make([]contracts.TransactionHeader, 0, len(headers)),
		CleanLines:      make([]contracts.LineItem, 0, len(lines)),
		RejectedHeaders: make([]contracts.RejectedHeader, 0),
		RejectedLines:   make([]contracts.RejectedLine, 0),
		Diagnostics: contracts.QualityDiagnostics{
			ReasonCounts: make(map[contracts.RejectReason]int),
		},
	}

	for _, l := range lines {
		clean, rejected := checkLine(l)
		if rejected != nil {
			report.RejectedLines = append(report.RejectedLines, *rejected)
			countReasons(report.Diagnostics.ReasonCounts, rejected.Reasons)
			continue
		}
		report.CleanLines = append(report.CleanLines, clean)
	}

	// headers reconcile against clean lines only, so a second pass over
	// the clean partition sees the same sums
	lineTotals := sumLines(report.CleanLines)
	hasLines := linePresence(lines)

	for _, h := range headers {
		clean, rejected := f.checkHeader(h, lineTotals)
		if rejected != nil {
			report.RejectedHeaders = append(report.RejectedHeaders, *rejected)
			countReasons(report.Diagnostics.ReasonCounts, rejected.Reasons)
			continue
		}
		report.CleanHeaders = append(report.CleanHeaders, clean)
	}

	f.diagnose(report, headers, lines, products, stores, hasLines)

	if f.logger.Enabled(zerolog.DebugLevel) {
		for _, r := range report.RejectedHeaders {
			f.logger.WithFields(map[string]interface{}{
				"transaction_id": deref(r.Record.TransactionID),
				"reasons":        r.Reasons,
			}).Debug("Header rejected")
		}
	}

	f.logger.WithFields(map[string]interface{}{
		"headers_clean":    len(report.CleanHeaders),
		"headers_rejected": len(report.RejectedHeaders),
		"lines_clean":      len(report.CleanLines),
		"lines_rejected":   len(report.RejectedLines),
	}).Info("Quality filter completed")

	return report
}

// sumLines totals clean line amounts per transaction id
func sumLines(lines []contracts.LineItem) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for _, l := range lines {
		totals[l.TransactionID] = totals[l.TransactionID].Add(l.Amount)
	}
	return totals
}

// linePresence marks transaction ids referenced by any raw line
func linePresence(lines []contracts.RawLine) map[string]bool {
	present := make(map[string]bool)
	for _, l := range lines {
		if l.TransactionID != nil {
			present[*l.TransactionID] = true
		}
	}
	return present
}

func (f *Filter) checkHeader(h contracts.RawHeader, lineTotals map[string]decimal.Decimal) (contracts.TransactionHeader, *contracts.RejectedHeader) {
	var nulls []string
	if h.TransactionID == nil {
		nulls = append(nulls, "transaction_id")
	}
	if h.CustomerID == nil {
		nulls = append(nulls, "customer_id")
	}
	if h.StoreID == nil {
		nulls = append(nulls, "store_id")
	}
	if h.TransactionDate == nil {
		nulls = append(nulls, "transaction_date")
	}
	if !h.TotalAmount.Valid {
		nulls = append(nulls, "total_amount")
	}

	var reasons []contracts.RejectReason
	if len(nulls) > 0 {
		reasons = append(reasons, contracts.ReasonNullField)
	}

	if h.TotalAmount.Valid {
		total := h.TotalAmount.Decimal
		if total.IsNegative() {
			reasons = append(reasons, contracts.ReasonNegativeAmount)
		}

		// a header without clean lines reconciles against zero;
		// one without an id has nothing to reconcile against
		if h.TransactionID != nil {
			lineSum := lineTotals[*h.TransactionID]
			if total.Sub(lineSum).Abs().GreaterThan(f.tolerance) {
				reasons = append(reasons, contracts.ReasonTotalMismatch)
			}
		}
	}

	if len(reasons) > 0 {
		return contracts.TransactionHeader{}, &contracts.RejectedHeader{
			Record:  h,
			Reasons: reasons,
			Fields:  nulls,
		}
	}

	return contracts.TransactionHeader{
		TransactionID:   *h.TransactionID,
		CustomerID:      *h.CustomerID,
		StoreID:         *h.StoreID,
		TransactionDate: *h.TransactionDate,
		TotalAmount:     h.TotalAmount.Decimal,
	}, nil
}

func checkLine(l contracts.RawLine) (contracts.LineItem, *contracts.RejectedLine) {
	var nulls []string
	if l.TransactionID == nil {
		nulls = append(nulls, "transaction_id")
	}
	if l.ProductID == nil {
		nulls = append(nulls, "product_id")
	}
	if l.Quantity == nil {
		nulls = append(nulls, "quantity")
	}
	if !l.Amount.Valid {
		nulls = append(nulls, "line_item_amount")
	}

	var reasons []contracts.RejectReason
	if len(nulls) > 0 {
		reasons = append(reasons, contracts.ReasonNullField)
	}
	if l.Amount.Valid && l.Amount.Decimal.IsNegative() {
		reasons = append(reasons, contracts.ReasonNegativeAmount)
	}

	if len(reasons) > 0 {
		return contracts.LineItem{}, &contracts.RejectedLine{
			Record:  l,
			Reasons: reasons,
			Fields:  nulls,
		}
	}

	clean := contracts.LineItem{
		LineItemID:    l.LineItemID,
		TransactionID: *l.TransactionID,
		ProductID:     *l.ProductID,
		Quantity:      *l.Quantity,
		Amount:        l.Amount.Decimal,
	}
	if l.PromotionID != nil {
		clean.PromotionID = *l.PromotionID
	}
	return clean, nil
}

func countReasons(counts map[contracts.RejectReason]int, reasons []contracts.RejectReason) {
	for _, r := range reasons {
		counts[r]++
	}
}

// diagnose fills the non-rejecting counters
func (f *Filter) diagnose(report *contracts.QualityReport, headers []contracts.RawHeader, lines []contracts.RawLine, products []contracts.Product, stores []contracts.Store, hasLines map[string]bool) {
	knownProducts := make(map[string]bool, len(products))
	for _, p := range products {
		knownProducts[p.ProductID] = true
	}
	knownStores := make(map[string]bool, len(stores))
	for _, s := range stores {
		knownStores[s.StoreID] = true
	}

	for _, l := range lines {
		if l.ProductID != nil && !knownProducts[*l.ProductID] {
			report.Diagnostics.UnknownProductRefs++
		}
	}

	for _, h := range headers {
		if h.StoreID != nil && !knownStores[*h.StoreID] {
			report.Diagnostics.UnknownStoreRefs++
		}
		if h.TransactionID != nil && !hasLines[*h.TransactionID] {
			report.Diagnostics.HeadersWithoutLine++
		}
	}

	if report.Diagnostics.UnknownStoreRefs > 0 || report.Diagnostics.UnknownProductRefs > 0 {
		f.logger.WithFields(map[string]interface{}{
			"unknown_store_refs":   report.Diagnostics.UnknownStoreRefs,
			"unknown_product_refs": report.Diagnostics.UnknownProductRefs,
		}).Warn("Dangling references in sales tables")
	}
}

func deref(s *string) string {
	if s == nil {
		return "<null>"
	}
	return *s
}
