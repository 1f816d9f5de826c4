package s1_promotion

import (
	"github.com/wonny/retailpulse/internal/contracts"
	"github.com/wonny/retailpulse/pkg/logger"
)

// FunnelBuilder counts customers per promotion at eligible, reacted and
// purchased stages
type FunnelBuilder struct {
	logger *logger.Logger
}

// NewFunnelBuilder creates a new funnel builder
func NewFunnelBuilder(log *logger.Logger) *FunnelBuilder {
	return &FunnelBuilder{logger: log.WithStage(contracts.StageFunnel.String())}
}

// Build returns one record per promotion in table order.
// Eligible customers transacted inside the window; reacted customers are the
// eligible ones who bought a line attributed to the promotion. Purchased
// equals reacted since the data has no separate checkout step.
func (b *FunnelBuilder) Build(headers []contracts.TransactionHeader, lines []contracts.LineItem, promotions []contracts.Promotion) []contracts.FunnelRecord {
	customerOf := make(map[string]string, len(headers))
	for _, h := range headers {
		customerOf[h.TransactionID] = h.CustomerID
	}

	// promotion_id → customers with an attributed line
	buyers := make(map[string]map[string]bool)
	for _, l := range lines {
		if !l.HasPromotion() {
			continue
		}
		c, ok := customerOf[l.TransactionID]
		if !ok {
			continue
		}
		if buyers[l.PromotionID] == nil {
			buyers[l.PromotionID] = make(map[string]bool)
		}
		buyers[l.PromotionID][c] = true
	}

	out := make([]contracts.FunnelRecord, 0, len(promotions))
	for _, p := range promotions {
		eligible := make(map[string]bool)
		for _, h := range headers {
			if Label(h.TransactionDate, p) == contracts.PeriodDuring {
				eligible[h.CustomerID] = true
			}
		}

		reacted := 0
		for c := range buyers[p.PromotionID] {
			if eligible[c] {
				reacted++
			}
		}

		rec := contracts.FunnelRecord{
			PromotionID:   p.PromotionID,
			PromotionName: p.Name,
			Eligible:      len(eligible),
			Reacted:       reacted,
			Purchased:     reacted,
		}
		rec.PctReacted = pct(rec.Reacted, rec.Eligible)
		rec.PctPurchased = pct(rec.Purchased, rec.Eligible)
		out = append(out, rec)
	}

	b.logger.WithField("promotions", len(out)).Info("Promotion funnel built")
	return out
}

// pct returns part/whole on a 0-100 scale, 0 when whole is 0
func pct(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
