package contracts

import "time"

// Pipeline stages (SSOT)
// All logs and stage results use these constants.
//
// Flow:
//   S0 → {S1 promotion, S1 loyalty} → {S2 funnel, S2 segmentation} → {S3 events, S3 notifications}
//   SX inventory runs beside the chain on the raw tables

// Stage represents a pipeline stage
type Stage string

const (
	// StageQuality S0: clean/rejected split of headers and lines
	// Location: internal/s0_quality/
	StageQuality Stage = "S0_QUALITY"

	// StagePromotion S1: pre/during/post daily metrics, lift, top products
	// Location: internal/s1_promotion/
	StagePromotion Stage = "S1_PROMOTION"

	// StageLoyalty S1: SuperCoin ledger pass
	// Location: internal/s1_loyalty/
	StageLoyalty Stage = "S1_LOYALTY"

	// StageFunnel S2: eligible → reacted → purchased per promotion
	// Location: internal/s1_promotion/funnel.go
	StageFunnel Stage = "S2_FUNNEL"

	// StageSegmentation S2: RFM scoring and segments
	// Location: internal/s2_segmentation/
	StageSegmentation Stage = "S2_SEGMENTATION"

	// StageEvents S3: append-only event log
	// Location: internal/s3_events/
	StageEvents Stage = "S3_EVENTS"

	// StageNotifications S3: template selection per earning
	// Location: internal/s3_notify/
	StageNotifications Stage = "S3_NOTIFICATIONS"

	// StageInventory SX: replenishment risk from sales velocity
	// Location: internal/inventory/
	StageInventory Stage = "SX_INVENTORY"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// ShortName returns abbreviated stage name (e.g., "S0", "SX")
func (s Stage) ShortName() string {
	if len(s) < 2 {
		return "UNKNOWN"
	}
	if !IsValidStage(string(s)) {
		return "UNKNOWN"
	}
	return string(s[:2])
}

// Description returns a human readable description of the stage
func (s Stage) Description() string {
	switch s {
	case StageQuality:
		return "data quality filter"
	case StagePromotion:
		return "promotion performance"
	case StageLoyalty:
		return "loyalty ledger"
	case StageFunnel:
		return "promotion funnel"
	case StageSegmentation:
		return "RFM segmentation"
	case StageEvents:
		return "event log"
	case StageNotifications:
		return "notification selection"
	case StageInventory:
		return "inventory risk"
	default:
		return "unknown"
	}
}

// AllStages returns all pipeline stages in execution order
func AllStages() []Stage {
	return []Stage{
		StageQuality,
		StagePromotion,
		StageLoyalty,
		StageFunnel,
		StageSegmentation,
		StageEvents,
		StageNotifications,
		StageInventory,
	}
}

// IsValidStage checks if a stage string is valid
func IsValidStage(s string) bool {
	for _, stage := range AllStages() {
		if string(stage) == s {
			return true
		}
	}
	return false
}

// StageResult records the execution of a single stage
type StageResult struct {
	Stage       Stage         `json:"stage"`
	InputCount  int           `json:"input_count"`
	OutputCount int           `json:"output_count"`
	Duration    time.Duration `json:"duration_ns"`
}

// RunResult holds every view produced by one pipeline run.
// Consumers must treat it as read-only: later stages reference earlier outputs.
type RunResult struct {
	RunID         string        `json:"run_id"`
	ReferenceDate time.Time     `json:"reference_date"`
	RulesHash     string        `json:"rules_hash"`
	Metric        Metric        `json:"metric"`
	LedgerOrder   string        `json:"ledger_order"`
	StartedAt     time.Time     `json:"started_at"`
	Duration      time.Duration `json:"duration_ns"`

	Quality         *QualityReport         `json:"quality"`
	PromotionDaily  []PromotionDailyMetric `json:"promotion_daily"`
	PromotionLift   []PromotionLift        `json:"promotion_lift"`
	TopProducts     []ProductSales         `json:"top_products"`
	Loyalty         []LoyaltyResult        `json:"loyalty"`
	RuleAccruals    []RuleAccrual          `json:"rule_accruals"`
	OpeningBalances Balances               `json:"opening_balances"`
	ClosingBalances Balances               `json:"closing_balances"`
	Funnel          []FunnelRecord         `json:"funnel"`
	Segments        []RFMRecord            `json:"segments"`
	Events          []Event                `json:"events"`
	Notifications   []Notification         `json:"notifications"`
	Inventory       []InventoryRiskRecord  `json:"inventory"`
	RegionRisk      []RegionRiskSummary    `json:"region_risk"`

	Stages []StageResult `json:"stages"`
}

// FindStage returns the recorded result for a stage
func (r *RunResult) FindStage(stage Stage) (StageResult, bool) {
	for _, s := range r.Stages {
		if s.Stage == stage {
			return s, true
		}
	}
	return StageResult{}, false
}
