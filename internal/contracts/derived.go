package contracts

import (
	"time"

	"github.com/shopspring/decimal"
)

// RejectReason names a data-quality violation
type RejectReason string

const (
	ReasonNullField      RejectReason = "null_field"
	ReasonNegativeAmount RejectReason = "negative_amount"
	ReasonTotalMismatch  RejectReason = "total_mismatch"
)

// RejectedHeader is a header routed to the rejected partition with every reason it failed
type RejectedHeader struct {
	Record  RawHeader      `json:"record"`
	Reasons []RejectReason `json:"reasons"`
	Fields  []string       `json:"null_fields,omitempty"`
}

// RejectedLine is a line routed to the rejected partition
type RejectedLine struct {
	Record  RawLine        `json:"record"`
	Reasons []RejectReason `json:"reasons"`
	Fields  []string       `json:"null_fields,omitempty"`
}

// QualityReport is the S0 output: clean and rejected partitions plus diagnostics
type QualityReport struct {
	CleanHeaders    []TransactionHeader `json:"clean_headers"`
	CleanLines      []LineItem          `json:"clean_lines"`
	RejectedHeaders []RejectedHeader    `json:"rejected_headers"`
	RejectedLines   []RejectedLine      `json:"rejected_lines"`
	Diagnostics     QualityDiagnostics  `json:"diagnostics"`
}

// QualityDiagnostics are counters that describe the raw input without rejecting anything
type QualityDiagnostics struct {
	ReasonCounts       map[RejectReason]int `json:"reason_counts"`
	UnknownProductRefs int                  `json:"unknown_product_refs"`
	UnknownStoreRefs   int                  `json:"unknown_store_refs"`
	HeadersWithoutLine int                  `json:"headers_without_lines"`
}

// CleanRate returns the share of header records that passed (1.0 for an empty table)
func (q *QualityReport) CleanRate() float64 {
	total := len(q.CleanHeaders) + len(q.RejectedHeaders)
	if total == 0 {
		return 1.0
	}
	return float64(len(q.CleanHeaders)) / float64(total)
}

// Period is the position of a sale relative to a promotion window
type Period string

const (
	PeriodPre    Period = "pre"
	PeriodDuring Period = "during"
	PeriodPost   Period = "post"
)

// Metric selects the headline value of promotion metrics
type Metric string

const (
	MetricUnits   Metric = "units"
	MetricRevenue Metric = "revenue"
)

// ParseMetric validates a metric name
func ParseMetric(s string) (Metric, bool) {
	switch Metric(s) {
	case MetricUnits, MetricRevenue:
		return Metric(s), true
	default:
		return "", false
	}
}

type PromotionDailyMetric struct {
	PromotionID   string          `json:"promotion_id"`
	PromotionName string          `json:"promotion_name"`
	Date          time.Time       `json:"date"`
	Period        Period          `json:"period"`
	UnitsSold     int64           `json:"units_sold"`
	Revenue       decimal.Decimal `json:"revenue"`
	Value         decimal.Decimal `json:"value"`
}

// PromotionLift compares promoted sales of a category against its non-promoted baseline.
// PctIncrease is only meaningful when Defined is true.
type PromotionLift struct {
	Category      string          `json:"product_category"`
	PromotionID   string          `json:"promotion_id"`
	TotalSales    decimal.Decimal `json:"total_sales"`
	TotalQuantity int64           `json:"total_qty"`
	BaselineSales decimal.Decimal `json:"baseline_sales"`
	PctIncrease   float64         `json:"sales_pct_increase"`
	Defined       bool            `json:"defined"`
}

type ProductSales struct {
	ProductID     string          `json:"product_id"`
	Name          string          `json:"product_name"`
	TotalSales    decimal.Decimal `json:"total_sales"`
	TotalQuantity int64           `json:"total_qty"`
}

type FunnelRecord struct {
	PromotionID   string  `json:"promotion_id"`
	PromotionName string  `json:"promotion_name"`
	Eligible      int     `json:"eligible"`
	Reacted       int     `json:"reacted"`
	Purchased     int     `json:"purchased"`
	PctReacted    float64 `json:"pct_reacted"`
	PctPurchased  float64 `json:"pct_purchased"`
}

// LoyaltyResult is the ledger outcome of one transaction
type LoyaltyResult struct {
	TransactionID   string    `json:"transaction_id"`
	CustomerID      string    `json:"customer_id"`
	TransactionDate time.Time `json:"transaction_date"`
	OpeningBalance  int64     `json:"opening_balance"`
	Earned          int64     `json:"coins_earned"`
	Redeemed        int64     `json:"coins_redeemed"`
	NewBalance      int64     `json:"updated_balance"`
}

// RuleAccrual is the points a transaction accrues under the loyalty rule table
type RuleAccrual struct {
	TransactionID string `json:"transaction_id"`
	CustomerID    string `json:"customer_id"`
	RuleID        string `json:"rule_id"`
	Points        int64  `json:"accrued_points"`
}

// Segment labels
const (
	SegmentHighSpenders = "High Spenders"
	SegmentAtRisk       = "At-Risk"
	SegmentCore         = "Core"
)

// Reactivation potential labels
const (
	ReactivationHigh = "High"
	ReactivationLow  = "Low"
)

type RFMRecord struct {
	CustomerID      string          `json:"customer_id"`
	Name            string          `json:"first_name"`
	Email           string          `json:"email"`
	RecencyDays     int             `json:"recency"`
	RecencyKnown    bool            `json:"recency_known"`
	Frequency       int             `json:"frequency"`
	Monetary        decimal.Decimal `json:"monetary"`
	MonetaryDecile  int             `json:"m_decile"`
	RScore          int             `json:"r_score"`
	FScore          int             `json:"f_score"`
	MScore          int             `json:"m_score"`
	Score           string          `json:"rfm_score"`
	Segment         string          `json:"segment"`
	PreviousSegment string          `json:"previous_segment,omitempty"`
	Reactivation    string          `json:"reactivation_potential"`
	PointsBalance   int64           `json:"total_loyalty_points"`
}

// NewlyAtRisk reports whether this run moved the customer into At-Risk
func (r RFMRecord) NewlyAtRisk() bool {
	return r.Segment == SegmentAtRisk && r.PreviousSegment != SegmentAtRisk
}

// EventType names an event in the synthesized log
type EventType string

const (
	EventTransaction         EventType = "transaction"
	EventPromotionPurchase   EventType = "promotion_purchase"
	EventCoinsEarned         EventType = "coins_earned"
	EventCoinsRedeemed       EventType = "coins_redeemed"
	EventInactivityThreshold EventType = "inactivity_threshold"
)

type Event struct {
	ID            string     `json:"event_id"`
	Sequence      int        `json:"sequence"`
	Type          EventType  `json:"event"`
	CustomerID    string     `json:"customer_id,omitempty"`
	TransactionID string     `json:"transaction_id,omitempty"`
	PromotionID   string     `json:"promotion_id,omitempty"`
	Coins         int64      `json:"coins,omitempty"`
	OccurredAt    *time.Time `json:"date,omitempty"`
}

// Notification templates
const (
	TemplateVIPEarned         = "VIP_Earned"
	TemplateReactivationNudge = "Reactivation_Nudge"
	TemplateStandardEarned    = "Standard_Earned"
)

type Notification struct {
	CustomerID     string `json:"customer_id"`
	TransactionID  string `json:"transaction_id"`
	Email          string `json:"email"`
	Segment        string `json:"segment"`
	Template       string `json:"template_used"`
	PointsEarned   int64  `json:"points_earned"`
	TotalPoints    int64  `json:"total_points"`
	DistanceToNext int64  `json:"distance_to_next_reward"`
	CallToAction   string `json:"call_to_action"`
	Subject        string `json:"subject"`
	Body           string `json:"body"`
}

// Inventory risk classes
const (
	RiskUnknown     = "Unknown"
	RiskCritical    = "Critical"
	RiskWatchlist   = "Watchlist"
	RiskOverstocked = "Overstocked"
	RiskSafe        = "Safe"
)

// InventoryRiskRecord is one store × top-product pair.
// DaysOfInventoryLeft is nil when average daily sales are zero.
type InventoryRiskRecord struct {
	StoreID              string   `json:"store_id"`
	StoreCity            string   `json:"store_city"`
	StoreRegion          string   `json:"store_region"`
	ProductID            string   `json:"product_id"`
	TotalUnits           int64    `json:"total_units"`
	AvgDailySales        float64  `json:"avg_daily_sales"`
	CurrentStockLevel    int64    `json:"current_stock_level"`
	DaysOfInventoryLeft  *float64 `json:"days_of_inventory_left"`
	Risk                 string   `json:"risk"`
	PotentialLostUnits   float64  `json:"potential_lost_units"`
	PotentialLostRevenue float64  `json:"potential_lost_revenue"`
}

type RegionRiskSummary struct {
	Region             string         `json:"store_region"`
	Pairs              int            `json:"pairs"`
	RiskCounts         map[string]int `json:"risk_counts"`
	PotentialLostUnits float64        `json:"potential_lost_units"`
}
