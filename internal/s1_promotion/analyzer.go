package s1_promotion

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/retailpulse/internal/contracts"
	"github.com/wonny/retailpulse/pkg/logger"
)

// Analyzer computes promotion performance views over clean sales
// ⭐ SSOT: promotion window labelling lives here only
type Analyzer struct {
	metric contracts.Metric
	logger *logger.Logger
}

// NewAnalyzer creates a new analyzer exposing metric as the headline value
func NewAnalyzer(metric contracts.Metric, log *logger.Logger) *Analyzer {
	if metric == "" {
		metric = contracts.MetricUnits
	}
	return &Analyzer{
		metric: metric,
		logger: log.WithStage(contracts.StagePromotion.String()),
	}
}

// Label positions a sale date against an inclusive promotion window, by calendar day
func Label(d time.Time, p contracts.Promotion) contracts.Period {
	day := contracts.DateOnly(d)
	switch {
	case day.Before(contracts.DateOnly(p.StartDate)):
		return contracts.PeriodPre
	case day.After(contracts.DateOnly(p.EndDate)):
		return contracts.PeriodPost
	default:
		return contracts.PeriodDuring
	}
}

type dayKey struct {
	date   time.Time
	period contracts.Period
}

// Daily aggregates units and revenue per (date, period) for each promotion.
// Only lines attributed to the promotion by id count. Promotions without
// lines produce no rows; rows follow promotion table order, then date.
func (a *Analyzer) Daily(headers []contracts.TransactionHeader, lines []contracts.LineItem, promotions []contracts.Promotion) []contracts.PromotionDailyMetric {
	dates := headerDates(headers)

	byPromo := make(map[string][]contracts.LineItem)
	for _, l := range lines {
		if !l.HasPromotion() {
			continue
		}
		byPromo[l.PromotionID] = append(byPromo[l.PromotionID], l)
	}

	out := make([]contracts.PromotionDailyMetric, 0)
	for _, p := range promotions {
		agg := make(map[dayKey]*contracts.PromotionDailyMetric)
		keys := make([]dayKey, 0)

		for _, l := range byPromo[p.PromotionID] {
			ts, ok := dates[l.TransactionID]
			if !ok {
				continue
			}
			k := dayKey{date: contracts.DateOnly(ts), period: Label(ts, p)}
			m, exists := agg[k]
			if !exists {
				m = &contracts.PromotionDailyMetric{
					PromotionID:   p.PromotionID,
					PromotionName: p.Name,
					Date:          k.date,
					Period:        k.period,
				}
				agg[k] = m
				keys = append(keys, k)
			}
			m.UnitsSold += int64(l.Quantity)
			m.Revenue = m.Revenue.Add(l.Amount)
		}

		sort.Slice(keys, func(i, j int) bool {
			if !keys[i].date.Equal(keys[j].date) {
				return keys[i].date.Before(keys[j].date)
			}
			return keys[i].period < keys[j].period
		})

		for _, k := range keys {
			m := agg[k]
			m.Value = a.headline(m)
			out = append(out, *m)
		}
	}

	a.logger.WithFields(map[string]interface{}{
		"promotions": len(promotions),
		"rows":       len(out),
		"metric":     string(a.metric),
	}).Info("Promotion daily metrics computed")

	return out
}

func (a *Analyzer) headline(m *contracts.PromotionDailyMetric) decimal.Decimal {
	if a.metric == contracts.MetricRevenue {
		return m.Revenue
	}
	return decimal.NewFromInt(m.UnitsSold)
}

// headerDates indexes clean transaction timestamps by id
func headerDates(headers []contracts.TransactionHeader) map[string]time.Time {
	out := make(map[string]time.Time, len(headers))
	for _, h := range headers {
		out[h.TransactionID] = h.TransactionDate
	}
	return out
}
