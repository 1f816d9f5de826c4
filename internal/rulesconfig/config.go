package rulesconfig

// Rules holds the business constants of the analytics engine
type Rules struct {
	Meta         Meta         `yaml:"meta" json:"meta"`
	Quality      Quality      `yaml:"quality" json:"quality"`
	Loyalty      Loyalty      `yaml:"loyalty" json:"loyalty"`
	Segmentation Segmentation `yaml:"segmentation" json:"segmentation"`
	Inventory    Inventory    `yaml:"inventory" json:"inventory"`
}

// Meta identifies a rule set
type Meta struct {
	RulesID string `yaml:"rules_id" json:"rules_id"`
	Version string `yaml:"version" json:"version"`
}

// Quality S0: header/line reconciliation
type Quality struct {
	TotalTolerance float64 `yaml:"total_tolerance" json:"total_tolerance"` // currency units
}

// Loyalty S1: SuperCoin earn/redeem
type Loyalty struct {
	EarnRate        float64 `yaml:"earn_rate" json:"earn_rate"`               // share of spend
	EarnCap         int64   `yaml:"earn_cap" json:"earn_cap"`                 // per transaction
	RedeemRate      float64 `yaml:"redeem_rate" json:"redeem_rate"`           // share of opening balance
	RewardMilestone int64   `yaml:"reward_milestone" json:"reward_milestone"` // coins per reward
}

// Segmentation S2: RFM
type Segmentation struct {
	AtRiskDays int `yaml:"at_risk_days" json:"at_risk_days"`
}

// Inventory SX: days-of-inventory thresholds
type Inventory struct {
	CriticalDays    float64 `yaml:"critical_days" json:"critical_days"`
	WatchlistDays   float64 `yaml:"watchlist_days" json:"watchlist_days"`
	OverstockedDays float64 `yaml:"overstocked_days" json:"overstocked_days"`
	LostSalesDays   float64 `yaml:"lost_sales_days" json:"lost_sales_days"`
}

// Default returns the reference rule set
func Default() *Rules {
	return &Rules{
		Meta: Meta{
			RulesID: "supercoins_default",
			Version: "1",
		},
		Quality: Quality{
			TotalTolerance: 0.01,
		},
		Loyalty: Loyalty{
			EarnRate:        0.02,
			EarnCap:         100,
			RedeemRate:      0.10,
			RewardMilestone: 100,
		},
		Segmentation: Segmentation{
			AtRiskDays: 60,
		},
		Inventory: Inventory{
			CriticalDays:    2,
			WatchlistDays:   5,
			OverstockedDays: 20,
			LostSalesDays:   1,
		},
	}
}
