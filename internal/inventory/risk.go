package inventory

import (
	"sort"

	"github.com/wonny/retailpulse/internal/contracts"
	"github.com/wonny/retailpulse/pkg/logger"
)

// Config holds velocity window and risk thresholds (days of inventory)
type Config struct {
	WindowDays      int
	TopN            int
	CriticalDays    float64 // below: Critical
	WatchlistDays   float64 // below: Watchlist
	OverstockedDays float64 // above: Overstocked
	LostSalesDays   float64 // below: a day of sales is counted as lost
}

// DefaultConfig returns the reference thresholds
func DefaultConfig() Config {
	return Config{
		WindowDays:      7,
		TopN:            5,
		CriticalDays:    2,
		WatchlistDays:   5,
		OverstockedDays: 20,
		LostSalesDays:   1,
	}
}

// Analyzer classifies replenishment risk from raw sales velocity
// ⭐ SSOT: inventory risk classes live here only
type Analyzer struct {
	config Config
	logger *logger.Logger
}

// NewAnalyzer creates a new inventory risk analyzer
func NewAnalyzer(cfg Config, log *logger.Logger) *Analyzer {
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = 7
	}
	if cfg.TopN <= 0 {
		cfg.TopN = 5
	}
	return &Analyzer{
		config: cfg,
		logger: log.WithStage(contracts.StageInventory.String()),
	}
}

type pairKey struct {
	storeID   string
	productID string
}

// Analyze returns one record per store × top-N product, stores in table
// order and products by rank. It reads the raw sales tables and skips rows
// that cannot be attributed: lines need a product and quantity, store sales
// additionally need a header with a store.
func (a *Analyzer) Analyze(headers []contracts.RawHeader, lines []contracts.RawLine, inventory []contracts.InventoryRecord, stores []contracts.Store) []contracts.InventoryRiskRecord {
	storeOf := make(map[string]string, len(headers))
	for _, h := range headers {
		if h.TransactionID == nil || h.StoreID == nil {
			continue
		}
		if _, seen := storeOf[*h.TransactionID]; !seen {
			storeOf[*h.TransactionID] = *h.StoreID
		}
	}

	productUnits := make(map[string]int64)
	productOrder := make([]string, 0)
	pairUnits := make(map[pairKey]int64)
	skipped := 0

	for _, l := range lines {
		if l.ProductID == nil || l.Quantity == nil {
			skipped++
			continue
		}
		pid := *l.ProductID
		if _, ok := productUnits[pid]; !ok {
			productOrder = append(productOrder, pid)
		}
		productUnits[pid] += int64(*l.Quantity)

		if l.TransactionID == nil {
			continue
		}
		if sid, ok := storeOf[*l.TransactionID]; ok {
			pairUnits[pairKey{storeID: sid, productID: pid}] += int64(*l.Quantity)
		}
	}

	top := topProducts(productOrder, productUnits, a.config.TopN)

	stock := make(map[pairKey]int64, len(inventory))
	for _, inv := range inventory {
		k := pairKey{storeID: inv.StoreID, productID: inv.ProductID}
		if _, ok := stock[k]; !ok {
			stock[k] = inv.StockLevel
		}
	}

	out := make([]contracts.InventoryRiskRecord, 0, len(stores)*len(top))
	for _, s := range stores {
		for _, pid := range top {
			k := pairKey{storeID: s.StoreID, productID: pid}
			out = append(out, a.classify(s, pid, pairUnits[k], stock[k]))
		}
	}

	a.logger.WithFields(map[string]interface{}{
		"stores":       len(stores),
		"top_products": len(top),
		"pairs":        len(out),
		"skipped":      skipped,
	}).Info("Inventory risk analyzed")

	return out
}

func (a *Analyzer) classify(s contracts.Store, productID string, units, stockLevel int64) contracts.InventoryRiskRecord {
	rec := contracts.InventoryRiskRecord{
		StoreID:           s.StoreID,
		StoreCity:         s.City,
		StoreRegion:       s.Region,
		ProductID:         productID,
		TotalUnits:        units,
		AvgDailySales:     float64(units) / float64(a.config.WindowDays),
		CurrentStockLevel: stockLevel,
		Risk:              contracts.RiskUnknown,
	}

	if rec.AvgDailySales == 0 {
		return rec
	}

	days := float64(stockLevel) / rec.AvgDailySales
	rec.DaysOfInventoryLeft = &days
	rec.Risk = a.Risk(days)

	if days < a.config.LostSalesDays {
		rec.PotentialLostUnits = rec.AvgDailySales
	}
	// units × rate, not units × price; kept for compatibility with existing reports
	rec.PotentialLostRevenue = rec.PotentialLostUnits * rec.AvgDailySales

	return rec
}

// Risk classifies a defined days-of-inventory value
func (a *Analyzer) Risk(days float64) string {
	switch {
	case days < a.config.CriticalDays:
		return contracts.RiskCritical
	case days < a.config.WatchlistDays:
		return contracts.RiskWatchlist
	case days > a.config.OverstockedDays:
		return contracts.RiskOverstocked
	default:
		return contracts.RiskSafe
	}
}

// topProducts ranks by units descending, ties in first-appearance order
func topProducts(order []string, units map[string]int64, n int) []string {
	ranked := make([]string, len(order))
	copy(ranked, order)
	sort.SliceStable(ranked, func(i, j int) bool {
		return units[ranked[i]] > units[ranked[j]]
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
