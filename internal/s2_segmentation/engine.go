package s2_segmentation

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/retailpulse/internal/contracts"
	"github.com/wonny/retailpulse/pkg/logger"
)

// MaxRecencyDays stands in for the recency of a customer with no known purchase
const MaxRecencyDays = 1<<31 - 1

// Config holds segmentation thresholds
type Config struct {
	AtRiskDays int // recency strictly above this is inactive
}

// DefaultConfig returns the reference thresholds
func DefaultConfig() Config {
	return Config{AtRiskDays: 60}
}

// Engine scores customers by recency, frequency and monetary value
// ⭐ SSOT: segment precedence lives here only
type Engine struct {
	config Config
	logger *logger.Logger
}

// NewEngine creates a new segmentation engine
func NewEngine(cfg Config, log *logger.Logger) *Engine {
	return &Engine{
		config: cfg,
		logger: log.WithStage(contracts.StageSegmentation.String()),
	}
}

type activity struct {
	transactions map[string]bool
	monetary     decimal.Decimal
	latest       time.Time
}

// Run returns one record per customer in customer table order.
// balances is the ledger's closing snapshot; customers missing from it keep
// their table balance. ref is the reference date recency is measured from.
func (e *Engine) Run(customers []contracts.Customer, headers []contracts.TransactionHeader, balances contracts.Balances, ref time.Time) []contracts.RFMRecord {
	acts := make(map[string]*activity)
	for _, h := range headers {
		a, ok := acts[h.CustomerID]
		if !ok {
			a = &activity{transactions: make(map[string]bool)}
			acts[h.CustomerID] = a
		}
		a.transactions[h.TransactionID] = true
		a.monetary = a.monetary.Add(h.TotalAmount)
		if h.TransactionDate.After(a.latest) {
			a.latest = h.TransactionDate
		}
	}

	refDay := contracts.DateOnly(ref)
	out := make([]contracts.RFMRecord, len(customers))
	for i, c := range customers {
		rec := contracts.RFMRecord{
			CustomerID:      c.CustomerID,
			Name:            c.Name,
			Email:           c.Email,
			PreviousSegment: c.Segment,
			PointsBalance:   c.PointsBalance,
			RecencyDays:     MaxRecencyDays,
		}
		if b, ok := balances[c.CustomerID]; ok {
			rec.PointsBalance = b
		}

		a := acts[c.CustomerID]
		if a != nil {
			rec.Frequency = len(a.transactions)
			rec.Monetary = a.monetary
		}

		last := c.LastPurchaseDate
		if last == nil && a != nil {
			last = &a.latest
		}
		if last != nil {
			rec.RecencyDays = daysBetween(*last, refDay)
			rec.RecencyKnown = true
		}

		out[i] = rec
	}

	e.score(out)

	counts := make(map[string]int)
	for i := range out {
		out[i].Segment = e.segment(out[i])
		out[i].Reactivation = reactivation(out[i])
		counts[out[i].Segment]++
	}

	e.logger.WithFields(map[string]interface{}{
		"customers":     len(out),
		"high_spenders": counts[contracts.SegmentHighSpenders],
		"at_risk":       counts[contracts.SegmentAtRisk],
		"core":          counts[contracts.SegmentCore],
	}).Info("Segmentation completed")

	return out
}

// score fills the monetary decile and the R/F/M quartiles
func (e *Engine) score(recs []contracts.RFMRecord) {
	n := len(recs)

	deciles := Bins(n, 10, func(i, j int) bool {
		return recs[i].Monetary.LessThan(recs[j].Monetary)
	})
	recency := Bins(n, 4, func(i, j int) bool {
		return recs[i].RecencyDays < recs[j].RecencyDays
	})
	frequency := Bins(n, 4, func(i, j int) bool {
		return recs[i].Frequency < recs[j].Frequency
	})
	monetary := Bins(n, 4, func(i, j int) bool {
		return recs[i].Monetary.LessThan(recs[j].Monetary)
	})

	for i := range recs {
		recs[i].MonetaryDecile = deciles[i]
		// most recent scores highest
		recs[i].RScore = 5 - recency[i]
		recs[i].FScore = frequency[i]
		recs[i].MScore = monetary[i]
		recs[i].Score = fmt.Sprintf("%d%d%d", recs[i].RScore, recs[i].FScore, recs[i].MScore)
	}
}

// segment applies precedence: High Spenders, then At-Risk, then Core
func (e *Engine) segment(r contracts.RFMRecord) string {
	switch {
	case r.MonetaryDecile == 10:
		return contracts.SegmentHighSpenders
	case r.RecencyDays > e.config.AtRiskDays && r.PointsBalance > 0:
		return contracts.SegmentAtRisk
	default:
		return contracts.SegmentCore
	}
}

func reactivation(r contracts.RFMRecord) string {
	if r.Segment == contracts.SegmentAtRisk && r.PointsBalance > 0 {
		return contracts.ReactivationHigh
	}
	return contracts.ReactivationLow
}

// daysBetween counts calendar days from last to refDay
func daysBetween(last, refDay time.Time) int {
	return int(refDay.Sub(contracts.DateOnly(last)).Hours() / 24)
}
