package s1_loyalty

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/wonny/retailpulse/internal/contracts"
	"github.com/wonny/retailpulse/pkg/logger"
)

// Order selects the sequence in which a ledger pass visits transactions
type Order string

const (
	// OrderChronological sorts by timestamp, tie-break transaction id
	OrderChronological Order = "chronological"
	// OrderTable keeps the input table order
	OrderTable Order = "table"
)

// ParseOrder validates an order name
func ParseOrder(s string) (Order, error) {
	switch Order(s) {
	case OrderChronological, OrderTable:
		return Order(s), nil
	default:
		return "", fmt.Errorf("unknown ledger order %q (want chronological|table)", s)
	}
}

// Config holds SuperCoin rates
type Config struct {
	EarnRate   float64 // coins per currency unit of total
	EarnCap    int64   // max coins earned per transaction
	RedeemRate float64 // share of opening balance redeemable per transaction
	Order      Order
}

// DefaultConfig returns the reference SuperCoin program
func DefaultConfig() Config {
	return Config{
		EarnRate:   0.02,
		EarnCap:    100,
		RedeemRate: 0.10,
		Order:      OrderChronological,
	}
}

// Ledger runs earn/redeem passes over clean transactions
// ⭐ SSOT: SuperCoin balance arithmetic lives here only
type Ledger struct {
	earnRate   decimal.Decimal
	redeemRate decimal.Decimal
	earnCap    int64
	order      Order
	logger     *logger.Logger
}

// NewLedger creates a new ledger
func NewLedger(cfg Config, log *logger.Logger) *Ledger {
	order := cfg.Order
	if order == "" {
		order = OrderChronological
	}
	return &Ledger{
		earnRate:   decimal.NewFromFloat(cfg.EarnRate),
		redeemRate: decimal.NewFromFloat(cfg.RedeemRate),
		earnCap:    cfg.EarnCap,
		order:      order,
		logger:     log.WithStage(contracts.StageLoyalty.String()),
	}
}

// Run processes every header once and returns the per-transaction log
// together with the closing snapshot. opening is never modified.
// Customers absent from opening start at zero.
func (l *Ledger) Run(headers []contracts.TransactionHeader, opening contracts.Balances) ([]contracts.LoyaltyResult, contracts.Balances) {
	balances := opening.Clone()
	results := make([]contracts.LoyaltyResult, 0, len(headers))

	var earnedTotal, redeemedTotal int64
	for _, h := range l.sequence(headers) {
		r := l.apply(h, balances[h.CustomerID])
		balances[h.CustomerID] = r.NewBalance
		results = append(results, r)

		earnedTotal += r.Earned
		redeemedTotal += r.Redeemed
	}

	l.logger.WithFields(map[string]interface{}{
		"transactions": len(results),
		"customers":    len(balances),
		"earned":       earnedTotal,
		"redeemed":     redeemedTotal,
		"order":        string(l.order),
	}).Info("Ledger pass completed")

	return results, balances
}

// Earn returns the coins a transaction total earns
func (l *Ledger) Earn(total decimal.Decimal) int64 {
	earned := total.Mul(l.earnRate).Floor().IntPart()
	if earned < 0 {
		return 0
	}
	if earned > l.earnCap {
		return l.earnCap
	}
	return earned
}

// Redeem returns the coins redeemed against an opening balance given this transaction's earnings
func (l *Ledger) Redeem(balance, earned int64) int64 {
	if balance <= 0 {
		return 0
	}
	redeemable := decimal.NewFromInt(balance).Mul(l.redeemRate).Floor().IntPart()
	if redeemable > earned {
		return earned
	}
	return redeemable
}

func (l *Ledger) apply(h contracts.TransactionHeader, balance int64) contracts.LoyaltyResult {
	earned := l.Earn(h.TotalAmount)
	redeemed := l.Redeem(balance, earned)

	return contracts.LoyaltyResult{
		TransactionID:   h.TransactionID,
		CustomerID:      h.CustomerID,
		TransactionDate: h.TransactionDate,
		OpeningBalance:  balance,
		Earned:          earned,
		Redeemed:        redeemed,
		NewBalance:      balance + earned - redeemed,
	}
}

// sequence returns headers in processing order without touching the input slice
func (l *Ledger) sequence(headers []contracts.TransactionHeader) []contracts.TransactionHeader {
	out := make([]contracts.TransactionHeader, len(headers))
	copy(out, headers)

	if l.order == OrderTable {
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].TransactionDate.Equal(out[j].TransactionDate) {
			return out[i].TransactionDate.Before(out[j].TransactionDate)
		}
		return out[i].TransactionID < out[j].TransactionID
	})
	return out
}
