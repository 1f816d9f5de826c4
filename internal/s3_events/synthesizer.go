package s3_events

import (
	"strconv"
	"time"

	"github.com/wonny/retailpulse/internal/contracts"
	"github.com/wonny/retailpulse/pkg/logger"
)

// Synthesizer projects stage outputs into a flat event log.
// It computes nothing new.
type Synthesizer struct {
	logger *logger.Logger
}

// NewSynthesizer creates a new event synthesizer
func NewSynthesizer(log *logger.Logger) *Synthesizer {
	return &Synthesizer{logger: log.WithStage(contracts.StageEvents.String())}
}

// Synthesize builds the log grouped by event type:
// transactions, promotion purchases, coin earnings, coin redemptions and
// inactivity crossings for customers newly classified At-Risk.
func (s *Synthesizer) Synthesize(headers []contracts.TransactionHeader, lines []contracts.LineItem, loyalty []contracts.LoyaltyResult, segments []contracts.RFMRecord) *EventLog {
	log := NewEventLog()

	byID := make(map[string]contracts.TransactionHeader, len(headers))
	for _, h := range headers {
		byID[h.TransactionID] = h
		log.Append(contracts.Event{
			Type:          contracts.EventTransaction,
			CustomerID:    h.CustomerID,
			TransactionID: h.TransactionID,
			OccurredAt:    timePtr(h.TransactionDate),
		}, h.TransactionID)
	}

	for i, l := range lines {
		if !l.HasPromotion() {
			continue
		}
		e := contracts.Event{
			Type:          contracts.EventPromotionPurchase,
			TransactionID: l.TransactionID,
			PromotionID:   l.PromotionID,
		}
		if h, ok := byID[l.TransactionID]; ok {
			e.CustomerID = h.CustomerID
			e.OccurredAt = timePtr(h.TransactionDate)
		}
		lineKey := l.LineItemID
		if lineKey == "" {
			// null line ids fall back to the line's position
			lineKey = "#" + strconv.Itoa(i)
		}
		log.Append(e, lineKey, l.TransactionID, l.PromotionID)
	}

	for _, r := range loyalty {
		if r.Earned <= 0 {
			continue
		}
		log.Append(contracts.Event{
			Type:          contracts.EventCoinsEarned,
			CustomerID:    r.CustomerID,
			TransactionID: r.TransactionID,
			Coins:         r.Earned,
			OccurredAt:    timePtr(r.TransactionDate),
		}, r.TransactionID)
	}

	for _, r := range loyalty {
		if r.Redeemed <= 0 {
			continue
		}
		log.Append(contracts.Event{
			Type:          contracts.EventCoinsRedeemed,
			CustomerID:    r.CustomerID,
			TransactionID: r.TransactionID,
			Coins:         r.Redeemed,
			OccurredAt:    timePtr(r.TransactionDate),
		}, r.TransactionID)
	}

	for _, rec := range segments {
		if !rec.NewlyAtRisk() {
			continue
		}
		log.Append(contracts.Event{
			Type:       contracts.EventInactivityThreshold,
			CustomerID: rec.CustomerID,
		}, rec.CustomerID)
	}

	counts := log.CountByType()
	s.logger.WithFields(map[string]interface{}{
		"events":       log.Len(),
		"transactions": counts[contracts.EventTransaction],
		"promotions":   counts[contracts.EventPromotionPurchase],
		"earned":       counts[contracts.EventCoinsEarned],
		"redeemed":     counts[contracts.EventCoinsRedeemed],
		"inactivity":   counts[contracts.EventInactivityThreshold],
	}).Info("Event log synthesized")

	return log
}

func timePtr(t time.Time) *time.Time {
	return &t
}
