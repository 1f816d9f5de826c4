package contracts

import (
	"time"

	"github.com/shopspring/decimal"
)

// Table names used for schema checks, logs and loader lookups
const (
	TableHeaders    = "store_sales_header"
	TableLines      = "store_sales_line_items"
	TableProducts   = "products"
	TableStores     = "stores"
	TableCustomers  = "customer_details"
	TablePromotions = "promotion_details"
	TableRules      = "loyalty_rules"
	TableInventory  = "inventory"
)

// RawHeader is a sales header as delivered by ingestion.
// Required fields are nullable so the quality stage can reject them.
type RawHeader struct {
	TransactionID   *string             `json:"transaction_id"`
	CustomerID      *string             `json:"customer_id"`
	StoreID         *string             `json:"store_id"`
	TransactionDate *time.Time          `json:"transaction_date"`
	TotalAmount     decimal.NullDecimal `json:"total_amount"`
}

// RawLine is a sales line item as delivered by ingestion
type RawLine struct {
	LineItemID    string              `json:"line_item_id"`
	TransactionID *string             `json:"transaction_id"`
	ProductID     *string             `json:"product_id"`
	PromotionID   *string             `json:"promotion_id"`
	Quantity      *int                `json:"quantity"`
	Amount        decimal.NullDecimal `json:"line_item_amount"`
}

// TransactionHeader is a header that passed the quality stage
type TransactionHeader struct {
	TransactionID   string          `json:"transaction_id"`
	CustomerID      string          `json:"customer_id"`
	StoreID         string          `json:"store_id"`
	TransactionDate time.Time       `json:"transaction_date"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
}

// LineItem is a line that passed the quality stage.
// PromotionID is empty when the line is not attributed to a promotion.
type LineItem struct {
	LineItemID    string          `json:"line_item_id"`
	TransactionID string          `json:"transaction_id"`
	ProductID     string          `json:"product_id"`
	PromotionID   string          `json:"promotion_id,omitempty"`
	Quantity      int             `json:"quantity"`
	Amount        decimal.Decimal `json:"line_item_amount"`
}

// HasPromotion reports whether the line is attributed to a promotion
func (l LineItem) HasPromotion() bool {
	return l.PromotionID != ""
}

type Product struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"product_name"`
	Category  string          `json:"product_category"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type Store struct {
	StoreID string `json:"store_id"`
	Name    string `json:"store_name"`
	City    string `json:"store_city"`
	Region  string `json:"store_region"`
}

// Customer is a row of the customer table.
// PointsBalance is the carried SuperCoin balance before a ledger pass.
type Customer struct {
	CustomerID       string     `json:"customer_id"`
	Name             string     `json:"first_name"`
	Email            string     `json:"email"`
	LoyaltyStatus    string     `json:"loyalty_status"`
	PointsBalance    int64      `json:"total_loyalty_points"`
	LastPurchaseDate *time.Time `json:"last_purchase_date,omitempty"`
	Segment          string     `json:"segment_id,omitempty"`
}

type Promotion struct {
	PromotionID        string          `json:"promotion_id"`
	Name               string          `json:"promotion_name"`
	StartDate          time.Time       `json:"start_date"`
	EndDate            time.Time       `json:"end_date"`
	DiscountPct        decimal.Decimal `json:"discount_percentage"`
	ApplicableCategory string          `json:"applicable_category"`
}

type LoyaltyRule struct {
	RuleID            string          `json:"rule_id"`
	Name              string          `json:"rule_name"`
	PointsPerSpend    decimal.Decimal `json:"points_per_unit_spend"`
	MinSpendThreshold decimal.Decimal `json:"min_spend_threshold"`
	BonusPoints       int64           `json:"bonus_points"`
}

type InventoryRecord struct {
	StoreID    string `json:"store_id"`
	ProductID  string `json:"product_id"`
	StockLevel int64  `json:"current_stock_level"`
}

// Dataset bundles the eight input tables of one run.
// Stages read it and never write to it.
type Dataset struct {
	Headers    []RawHeader       `json:"headers"`
	Lines      []RawLine         `json:"lines"`
	Products   []Product         `json:"products"`
	Stores     []Store           `json:"stores"`
	Customers  []Customer        `json:"customers"`
	Promotions []Promotion       `json:"promotions"`
	Rules      []LoyaltyRule     `json:"rules"`
	Inventory  []InventoryRecord `json:"inventory"`
}

// Balances maps customer_id to SuperCoin points
type Balances map[string]int64

// Clone returns an independent copy of the snapshot
func (b Balances) Clone() Balances {
	out := make(Balances, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// BalancesFromCustomers builds the opening snapshot from the customer table
func BalancesFromCustomers(customers []Customer) Balances {
	out := make(Balances, len(customers))
	for _, c := range customers {
		out[c.CustomerID] = c.PointsBalance
	}
	return out
}

// DateOnly returns the calendar day of t (in t's own location) as UTC midnight,
// so days taken from differently zoned timestamps compare directly
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
