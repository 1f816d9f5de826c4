package s1_loyalty

import (
	"math/rand"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/retailpulse/internal/contracts"
	"github.com/wonny/retailpulse/pkg/logger"
)

var day0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func tx(id, customer, total string, offsetHours int) contracts.TransactionHeader {
	return contracts.TransactionHeader{
		TransactionID:   id,
		CustomerID:      customer,
		StoreID:         "S01",
		TransactionDate: day0.Add(time.Duration(offsetHours) * time.Hour),
		TotalAmount:     decimal.RequireFromString(total),
	}
}

func newLedger(order Order) *Ledger {
	cfg := DefaultConfig()
	cfg.Order = order
	return NewLedger(cfg, logger.Nop())
}

func TestLedger_NewCustomerEarns(t *testing.T) {
	results, closing := newLedger(OrderChronological).Run(
		[]contracts.TransactionHeader{tx("T1", "C001", "1000", 0)},
		contracts.Balances{"C001": 0},
	)

	require.Len(t, results, 1)
	assert.Equal(t, int64(20), results[0].Earned)
	assert.Equal(t, int64(0), results[0].Redeemed)
	assert.Equal(t, int64(20), results[0].NewBalance)
	assert.Equal(t, int64(20), closing["C001"])
}

func TestLedger_RedemptionBoundedByEarned(t *testing.T) {
	results, closing := newLedger(OrderChronological).Run(
		[]contracts.TransactionHeader{tx("T1", "C002", "50", 0)},
		contracts.Balances{"C002": 2000},
	)

	require.Len(t, results, 1)
	assert.Equal(t, int64(2000), results[0].OpeningBalance)
	assert.Equal(t, int64(1), results[0].Earned)
	assert.Equal(t, int64(1), results[0].Redeemed)
	assert.Equal(t, int64(2000), results[0].NewBalance)
	assert.Equal(t, int64(2000), closing["C002"])
}

func TestLedger_Earn(t *testing.T) {
	l := newLedger(OrderChronological)

	tests := []struct {
		total string
		want  int64
	}{
		{"0", 0},
		{"49.99", 0},
		{"50", 1},
		{"149.99", 2},
		{"5000", 100},
		{"99999", 100},
	}

	for _, tt := range tests {
		t.Run(tt.total, func(t *testing.T) {
			assert.Equal(t, tt.want, l.Earn(decimal.RequireFromString(tt.total)))
		})
	}
}

func TestLedger_ZeroEarningStillRecorded(t *testing.T) {
	results, _ := newLedger(OrderChronological).Run(
		[]contracts.TransactionHeader{tx("T1", "C001", "10", 0)},
		contracts.Balances{"C001": 500},
	)

	require.Len(t, results, 1)
	assert.Equal(t, int64(0), results[0].Earned)
	assert.Equal(t, int64(0), results[0].Redeemed)
	assert.Equal(t, int64(500), results[0].NewBalance)
}

func TestLedger_RunningBalanceCarriesForward(t *testing.T) {
	headers := []contracts.TransactionHeader{
		tx("T1", "C001", "1000", 0), // +20
		tx("T2", "C001", "1000", 1), // +20 -2
		tx("T3", "C001", "5000", 2), // +100 -3
	}

	results, closing := newLedger(OrderChronological).Run(headers, contracts.Balances{})

	require.Len(t, results, 3)
	assert.Equal(t, int64(0), results[0].OpeningBalance)
	assert.Equal(t, int64(20), results[1].OpeningBalance)
	assert.Equal(t, int64(2), results[1].Redeemed)
	assert.Equal(t, int64(38), results[2].OpeningBalance)
	assert.Equal(t, int64(3), results[2].Redeemed)
	assert.Equal(t, int64(135), closing["C001"])
}

func TestLedger_OpeningSnapshotUntouched(t *testing.T) {
	opening := contracts.Balances{"C001": 100}

	_, closing := newLedger(OrderChronological).Run(
		[]contracts.TransactionHeader{tx("T1", "C001", "1000", 0), tx("T2", "C009", "1000", 0)},
		opening,
	)

	assert.Equal(t, contracts.Balances{"C001": 100}, opening)
	assert.Equal(t, int64(110), closing["C001"])
	assert.Equal(t, int64(20), closing["C009"], "unknown customers start at zero")
}

func TestLedger_Order(t *testing.T) {
	// table order lists the later transaction first
	headers := []contracts.TransactionHeader{
		tx("T2", "C001", "5000", 5),
		tx("T1", "C001", "1000", 0),
	}
	opening := contracts.Balances{"C001": 300}

	chrono, chronoClosing := newLedger(OrderChronological).Run(headers, opening)
	table, tableClosing := newLedger(OrderTable).Run(headers, opening)

	assert.Equal(t, "T1", chrono[0].TransactionID)
	assert.Equal(t, "T2", table[0].TransactionID)

	// T1 then T2: 300 +20-20 = 300, then +100-30 = 370
	assert.Equal(t, int64(370), chronoClosing["C001"])
	// T2 then T1: 300 +100-30 = 370, then +20-20 = 370
	assert.Equal(t, int64(370), tableClosing["C001"])

	assert.Equal(t, int64(20), chrono[0].Redeemed)
	assert.Equal(t, int64(30), table[0].Redeemed)
}

func TestLedger_ChronologicalTieBreakByID(t *testing.T) {
	headers := []contracts.TransactionHeader{
		tx("T9", "C001", "100", 0),
		tx("T1", "C001", "100", 0),
	}

	results, _ := newLedger(OrderChronological).Run(headers, nil)

	assert.Equal(t, "T1", results[0].TransactionID)
	assert.Equal(t, "T9", results[1].TransactionID)
	assert.Equal(t, "T9", headers[0].TransactionID, "input slice is not reordered")
}

func TestLedger_BalanceNeverNegative(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	customers := []string{"C001", "C002", "C003", "C004"}

	headers := make([]contracts.TransactionHeader, 0, 500)
	for i := 0; i < 500; i++ {
		headers = append(headers, contracts.TransactionHeader{
			TransactionID:   "T" + strconv.Itoa(i),
			CustomerID:      customers[rng.Intn(len(customers))],
			TransactionDate: day0.Add(time.Duration(rng.Intn(1000)) * time.Minute),
			TotalAmount:     decimal.NewFromInt(int64(rng.Intn(8000))).Div(decimal.NewFromInt(100)),
		})
	}
	opening := contracts.Balances{"C001": 0, "C002": 2000, "C003": 7}

	for _, order := range []Order{OrderChronological, OrderTable} {
		results, closing := newLedger(order).Run(headers, opening)
		for _, r := range results {
			assert.GreaterOrEqual(t, r.NewBalance, int64(0))
			assert.LessOrEqual(t, r.Redeemed, r.Earned)
			assert.GreaterOrEqual(t, r.NewBalance, r.OpeningBalance)
		}
		for c, b := range closing {
			assert.GreaterOrEqual(t, b, int64(0), c)
		}
	}
}

func TestLedger_EmptyInput(t *testing.T) {
	results, closing := newLedger(OrderChronological).Run(nil, nil)

	assert.NotNil(t, results)
	assert.Empty(t, results)
	assert.NotNil(t, closing)
}

func TestParseOrder(t *testing.T) {
	o, err := ParseOrder("table")
	require.NoError(t, err)
	assert.Equal(t, OrderTable, o)

	_, err = ParseOrder("random")
	assert.Error(t, err)
}
