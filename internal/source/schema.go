package source

import (
	"errors"
	"sort"

	"github.com/wonny/retailpulse/internal/contracts"
)

// RequiredColumns lists the columns every input table must carry.
// Optional columns (customer last_purchase_date and segment_id, rule_name) are not listed.
var RequiredColumns = map[string][]string{
	contracts.TableHeaders:    {"transaction_id", "customer_id", "store_id", "transaction_date", "total_amount"},
	contracts.TableLines:      {"line_item_id", "transaction_id", "product_id", "promotion_id", "quantity", "line_item_amount"},
	contracts.TableProducts:   {"product_id", "product_name", "product_category", "unit_price"},
	contracts.TableStores:     {"store_id", "store_name", "store_city", "store_region"},
	contracts.TableCustomers:  {"customer_id", "first_name", "email", "loyalty_status", "total_loyalty_points"},
	contracts.TablePromotions: {"promotion_id", "promotion_name", "start_date", "end_date", "discount_percentage", "applicable_category"},
	contracts.TableRules:      {"rule_id", "points_per_unit_spend", "min_spend_threshold", "bonus_points"},
	contracts.TableInventory:  {"store_id", "product_id", "current_stock_level"},
}

// Tables returns the input table names in load order
func Tables() []string {
	return []string{
		contracts.TableHeaders,
		contracts.TableLines,
		contracts.TableProducts,
		contracts.TableStores,
		contracts.TableCustomers,
		contracts.TablePromotions,
		contracts.TableRules,
		contracts.TableInventory,
	}
}

// CheckColumns returns a *contracts.SchemaError naming every required
// column of table absent from cols, or nil
func CheckColumns(table string, cols []string) error {
	present := make(map[string]bool, len(cols))
	for _, c := range cols {
		present[c] = true
	}

	var missing []string
	for _, c := range RequiredColumns[table] {
		if !present[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	return &contracts.SchemaError{Table: table, Missing: missing}
}

// CheckTables runs CheckColumns over every table and joins all schema errors.
// A table absent from columns is missing every required column.
func CheckTables(columns map[string][]string) error {
	var errs []error
	for _, table := range Tables() {
		cols, ok := columns[table]
		if !ok {
			errs = append(errs, &contracts.SchemaError{Table: table, Missing: RequiredColumns[table]})
			continue
		}
		if err := CheckColumns(table, cols); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// columnsOf returns the union of keys across records, sorted
func columnsOf(records []map[string]any) []string {
	seen := make(map[string]bool)
	for _, r := range records {
		for k := range r {
			seen[k] = true
		}
	}

	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
