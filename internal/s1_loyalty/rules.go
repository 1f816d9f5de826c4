package s1_loyalty

import (
	"sort"

	"github.com/wonny/retailpulse/internal/contracts"
)

// AccrueByRules scores each transaction against the loyalty rule table.
// The applicable rule is the one with the highest threshold not above the
// total; totals below every threshold fall back to the lowest rule.
// The result is informational and never touches balances.
func AccrueByRules(headers []contracts.TransactionHeader, rules []contracts.LoyaltyRule) []contracts.RuleAccrual {
	out := make([]contracts.RuleAccrual, 0, len(headers))
	if len(rules) == 0 {
		return out
	}

	sorted := make([]contracts.LoyaltyRule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MinSpendThreshold.LessThan(sorted[j].MinSpendThreshold)
	})

	for _, h := range headers {
		rule := sorted[0]
		for _, r := range sorted {
			if r.MinSpendThreshold.GreaterThan(h.TotalAmount) {
				break
			}
			rule = r
		}

		points := h.TotalAmount.Mul(rule.PointsPerSpend).Floor().IntPart() + rule.BonusPoints
		out = append(out, contracts.RuleAccrual{
			TransactionID: h.TransactionID,
			CustomerID:    h.CustomerID,
			RuleID:        rule.RuleID,
			Points:        points,
		})
	}

	return out
}
