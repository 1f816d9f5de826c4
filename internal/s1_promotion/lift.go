package s1_promotion

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/wonny/retailpulse/internal/contracts"
)

type liftKey struct {
	category    string
	promotionID string
}

// Lift compares each (category, promotion) against the category's
// non-promoted baseline. A missing or zero baseline leaves the increase
// undefined. Rows are ordered by increase descending, undefined last.
func (a *Analyzer) Lift(lines []contracts.LineItem, products []contracts.Product) []contracts.PromotionLift {
	categories := make(map[string]string, len(products))
	for _, p := range products {
		categories[p.ProductID] = p.Category
	}

	groups := make(map[liftKey]*contracts.PromotionLift)
	keys := make([]liftKey, 0)
	baseline := make(map[string]decimal.Decimal)

	for _, l := range lines {
		category := categories[l.ProductID]
		if !l.HasPromotion() {
			baseline[category] = baseline[category].Add(l.Amount)
			continue
		}

		k := liftKey{category: category, promotionID: l.PromotionID}
		g, ok := groups[k]
		if !ok {
			g = &contracts.PromotionLift{Category: category, PromotionID: l.PromotionID}
			groups[k] = g
			keys = append(keys, k)
		}
		g.TotalSales = g.TotalSales.Add(l.Amount)
		g.TotalQuantity += int64(l.Quantity)
	}

	hundred := decimal.NewFromInt(100)
	out := make([]contracts.PromotionLift, 0, len(keys))
	for _, k := range keys {
		g := groups[k]
		base, ok := baseline[k.category]
		if ok {
			g.BaselineSales = base
		}
		if ok && !base.IsZero() {
			g.PctIncrease = g.TotalSales.Sub(base).Div(base).Mul(hundred).InexactFloat64()
			g.Defined = true
		}
		out = append(out, *g)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Defined != out[j].Defined {
			return out[i].Defined
		}
		return out[i].PctIncrease > out[j].PctIncrease
	})

	return out
}

// TopProducts ranks products by revenue, ties kept in first-sale order
func (a *Analyzer) TopProducts(lines []contracts.LineItem, products []contracts.Product, n int) []contracts.ProductSales {
	names := make(map[string]string, len(products))
	for _, p := range products {
		names[p.ProductID] = p.Name
	}

	totals := make(map[string]*contracts.ProductSales)
	order := make([]string, 0)
	for _, l := range lines {
		ps, ok := totals[l.ProductID]
		if !ok {
			ps = &contracts.ProductSales{ProductID: l.ProductID, Name: names[l.ProductID]}
			totals[l.ProductID] = ps
			order = append(order, l.ProductID)
		}
		ps.TotalSales = ps.TotalSales.Add(l.Amount)
		ps.TotalQuantity += int64(l.Quantity)
	}

	out := make([]contracts.ProductSales, 0, len(order))
	for _, id := range order {
		out = append(out, *totals[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalSales.GreaterThan(out[j].TotalSales)
	})

	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
