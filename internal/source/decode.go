package source

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/wonny/retailpulse/internal/contracts"
)

// timeLayouts are tried in order for textual timestamps
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// record reads typed fields out of one row. Decoding stops at the first
// malformed value; nulls are not errors.
type record struct {
	table  string
	index  int
	values map[string]any
	err    error
}

func (r *record) fail(col string, v any, want string) {
	if r.err == nil {
		r.err = fmt.Errorf("%s row %d: column %s: cannot read %T %v as %s", r.table, r.index, col, v, v, want)
	}
}

// optString returns nil for a null or absent value
func (r *record) optString(col string) *string {
	switch v := r.values[col].(type) {
	case nil:
		return nil
	case string:
		return &v
	case json.Number:
		s := v.String()
		return &s
	case int32, int64, int, float64:
		s := fmt.Sprint(v)
		return &s
	default:
		r.fail(col, v, "string")
		return nil
	}
}

func (r *record) text(col string) string {
	if s := r.optString(col); s != nil {
		return *s
	}
	return ""
}

func (r *record) optDecimal(col string) decimal.NullDecimal {
	switch v := r.values[col].(type) {
	case nil:
		return decimal.NullDecimal{}
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			r.fail(col, v, "decimal")
		}
		return decimal.NewNullDecimal(d)
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			r.fail(col, v, "decimal")
		}
		return decimal.NewNullDecimal(d)
	case float64:
		return decimal.NewNullDecimal(decimal.NewFromFloat(v))
	case float32:
		return decimal.NewNullDecimal(decimal.NewFromFloat32(v))
	case int64:
		return decimal.NewNullDecimal(decimal.NewFromInt(v))
	case int32:
		return decimal.NewNullDecimal(decimal.NewFromInt32(v))
	case int:
		return decimal.NewNullDecimal(decimal.NewFromInt(int64(v)))
	case pgtype.Numeric:
		if !v.Valid {
			return decimal.NullDecimal{}
		}
		if v.NaN || v.InfinityModifier != pgtype.Finite || v.Int == nil {
			r.fail(col, v, "decimal")
			return decimal.NullDecimal{}
		}
		return decimal.NewNullDecimal(decimal.NewFromBigInt(v.Int, v.Exp))
	default:
		r.fail(col, v, "decimal")
		return decimal.NullDecimal{}
	}
}

func (r *record) dec(col string) decimal.Decimal {
	return r.optDecimal(col).Decimal
}

func (r *record) optInt(col string) *int64 {
	var n int64
	switch v := r.values[col].(type) {
	case nil:
		return nil
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			// tolerate integral floats such as 3.0
			f, ferr := v.Float64()
			if ferr != nil || f != float64(int64(f)) {
				r.fail(col, v, "integer")
				return nil
			}
			i = int64(f)
		}
		n = i
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			r.fail(col, v, "integer")
			return nil
		}
		n = i
	case float64:
		if v != float64(int64(v)) {
			r.fail(col, v, "integer")
			return nil
		}
		n = int64(v)
	case int64:
		n = v
	case int32:
		n = int64(v)
	case int16:
		n = int64(v)
	case int:
		n = int64(v)
	default:
		r.fail(col, v, "integer")
		return nil
	}
	return &n
}

func (r *record) integer(col string) int64 {
	if n := r.optInt(col); n != nil {
		return *n
	}
	return 0
}

func (r *record) optTime(col string) *time.Time {
	switch v := r.values[col].(type) {
	case nil:
		return nil
	case time.Time:
		return &v
	case pgtype.Date:
		if !v.Valid {
			return nil
		}
		return &v.Time
	case pgtype.Timestamp:
		if !v.Valid {
			return nil
		}
		return &v.Time
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return &t
			}
		}
		r.fail(col, v, "timestamp")
		return nil
	default:
		r.fail(col, v, "timestamp")
		return nil
	}
}

func (r *record) timestamp(col string) time.Time {
	if t := r.optTime(col); t != nil {
		return *t
	}
	return time.Time{}
}

// decodeTable applies fn to every row, stopping at the first malformed value
func decodeTable[T any](table string, rows []map[string]any, fn func(r *record) T) ([]T, error) {
	out := make([]T, 0, len(rows))
	for i, values := range rows {
		r := &record{table: table, index: i, values: values}
		v := fn(r)
		if r.err != nil {
			return nil, r.err
		}
		out = append(out, v)
	}
	return out, nil
}

// Decode turns raw rows keyed by table name into a dataset.
// Column presence must already have been checked.
func Decode(tables map[string][]map[string]any) (*contracts.Dataset, error) {
	ds := &contracts.Dataset{}
	var err error

	if ds.Headers, err = decodeTable(contracts.TableHeaders, tables[contracts.TableHeaders], func(r *record) contracts.RawHeader {
		return contracts.RawHeader{
			TransactionID:   r.optString("transaction_id"),
			CustomerID:      r.optString("customer_id"),
			StoreID:         r.optString("store_id"),
			TransactionDate: r.optTime("transaction_date"),
			TotalAmount:     r.optDecimal("total_amount"),
		}
	}); err != nil {
		return nil, err
	}

	if ds.Lines, err = decodeTable(contracts.TableLines, tables[contracts.TableLines], func(r *record) contracts.RawLine {
		l := contracts.RawLine{
			LineItemID:    r.text("line_item_id"),
			TransactionID: r.optString("transaction_id"),
			ProductID:     r.optString("product_id"),
			PromotionID:   r.optString("promotion_id"),
			Amount:        r.optDecimal("line_item_amount"),
		}
		if q := r.optInt("quantity"); q != nil {
			qty := int(*q)
			l.Quantity = &qty
		}
		// an empty promotion id means no promotion
		if l.PromotionID != nil && *l.PromotionID == "" {
			l.PromotionID = nil
		}
		return l
	}); err != nil {
		return nil, err
	}

	if ds.Products, err = decodeTable(contracts.TableProducts, tables[contracts.TableProducts], func(r *record) contracts.Product {
		return contracts.Product{
			ProductID: r.text("product_id"),
			Name:      r.text("product_name"),
			Category:  r.text("product_category"),
			UnitPrice: r.dec("unit_price"),
		}
	}); err != nil {
		return nil, err
	}

	if ds.Stores, err = decodeTable(contracts.TableStores, tables[contracts.TableStores], func(r *record) contracts.Store {
		return contracts.Store{
			StoreID: r.text("store_id"),
			Name:    r.text("store_name"),
			City:    r.text("store_city"),
			Region:  r.text("store_region"),
		}
	}); err != nil {
		return nil, err
	}

	if ds.Customers, err = decodeTable(contracts.TableCustomers, tables[contracts.TableCustomers], func(r *record) contracts.Customer {
		return contracts.Customer{
			CustomerID:       r.text("customer_id"),
			Name:             r.text("first_name"),
			Email:            r.text("email"),
			LoyaltyStatus:    r.text("loyalty_status"),
			PointsBalance:    r.integer("total_loyalty_points"),
			LastPurchaseDate: r.optTime("last_purchase_date"),
			Segment:          r.text("segment_id"),
		}
	}); err != nil {
		return nil, err
	}

	if ds.Promotions, err = decodeTable(contracts.TablePromotions, tables[contracts.TablePromotions], func(r *record) contracts.Promotion {
		return contracts.Promotion{
			PromotionID:        r.text("promotion_id"),
			Name:               r.text("promotion_name"),
			StartDate:          r.timestamp("start_date"),
			EndDate:            r.timestamp("end_date"),
			DiscountPct:        r.dec("discount_percentage"),
			ApplicableCategory: r.text("applicable_category"),
		}
	}); err != nil {
		return nil, err
	}

	if ds.Rules, err = decodeTable(contracts.TableRules, tables[contracts.TableRules], func(r *record) contracts.LoyaltyRule {
		return contracts.LoyaltyRule{
			RuleID:            r.text("rule_id"),
			Name:              r.text("rule_name"),
			PointsPerSpend:    r.dec("points_per_unit_spend"),
			MinSpendThreshold: r.dec("min_spend_threshold"),
			BonusPoints:       r.integer("bonus_points"),
		}
	}); err != nil {
		return nil, err
	}

	if ds.Inventory, err = decodeTable(contracts.TableInventory, tables[contracts.TableInventory], func(r *record) contracts.InventoryRecord {
		return contracts.InventoryRecord{
			StoreID:    r.text("store_id"),
			ProductID:  r.text("product_id"),
			StockLevel: r.integer("current_stock_level"),
		}
	}); err != nil {
		return nil, err
	}

	return ds, nil
}
