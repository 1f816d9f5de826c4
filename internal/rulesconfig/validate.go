package rulesconfig

import "fmt"

// ValidationError is a rule constraint violation
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks all required constraints
func Validate(r *Rules) error {
	if r.Meta.RulesID == "" {
		return ValidationError{"meta.rules_id", "required"}
	}

	// === Quality ===
	if r.Quality.TotalTolerance < 0 {
		return ValidationError{"quality.total_tolerance", "must be >= 0"}
	}

	// === Loyalty ===
	if r.Loyalty.EarnRate <= 0 || r.Loyalty.EarnRate > 1 {
		return ValidationError{"loyalty.earn_rate", "must be in (0, 1]"}
	}
	if r.Loyalty.EarnCap <= 0 {
		return ValidationError{"loyalty.earn_cap", "must be > 0"}
	}
	if r.Loyalty.RedeemRate < 0 || r.Loyalty.RedeemRate > 1 {
		return ValidationError{"loyalty.redeem_rate", "must be in [0, 1]"}
	}
	if r.Loyalty.RewardMilestone <= 0 {
		return ValidationError{"loyalty.reward_milestone", "must be > 0"}
	}

	// === Segmentation ===
	if r.Segmentation.AtRiskDays <= 0 {
		return ValidationError{"segmentation.at_risk_days", "must be > 0"}
	}

	// === Inventory ===
	inv := r.Inventory
	if inv.CriticalDays <= 0 {
		return ValidationError{"inventory.critical_days", "must be > 0"}
	}
	if inv.WatchlistDays <= inv.CriticalDays {
		return ValidationError{"inventory.watchlist_days", "must be > critical_days"}
	}
	if inv.OverstockedDays <= inv.WatchlistDays {
		return ValidationError{"inventory.overstocked_days", "must be > watchlist_days"}
	}
	if inv.LostSalesDays < 0 {
		return ValidationError{"inventory.lost_sales_days", "must be >= 0"}
	}

	return nil
}
