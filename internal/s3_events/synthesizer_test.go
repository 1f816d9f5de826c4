package s3_events

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/retailpulse/internal/contracts"
	"github.com/wonny/retailpulse/pkg/logger"
)

var ts = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func fixture() ([]contracts.TransactionHeader, []contracts.LineItem, []contracts.LoyaltyResult, []contracts.RFMRecord) {
	headers := []contracts.TransactionHeader{
		{TransactionID: "T1", CustomerID: "C1", TransactionDate: ts, TotalAmount: decimal.NewFromInt(1000)},
		{TransactionID: "T2", CustomerID: "C2", TransactionDate: ts, TotalAmount: decimal.NewFromInt(10)},
	}
	lines := []contracts.LineItem{
		{LineItemID: "L1", TransactionID: "T1", ProductID: "P1", PromotionID: "PR1", Quantity: 1},
		{LineItemID: "L2", TransactionID: "T1", ProductID: "P2", Quantity: 1},
		{LineItemID: "L3", TransactionID: "T8", ProductID: "P2", PromotionID: "PR2", Quantity: 1},
	}
	loyalty := []contracts.LoyaltyResult{
		{TransactionID: "T1", CustomerID: "C1", TransactionDate: ts, Earned: 20, Redeemed: 5, NewBalance: 65},
		{TransactionID: "T2", CustomerID: "C2", TransactionDate: ts, Earned: 0, Redeemed: 0},
	}
	segments := []contracts.RFMRecord{
		{CustomerID: "C1", Segment: contracts.SegmentAtRisk},
		{CustomerID: "C2", Segment: contracts.SegmentAtRisk, PreviousSegment: contracts.SegmentAtRisk},
		{CustomerID: "C3", Segment: contracts.SegmentCore},
	}
	return headers, lines, loyalty, segments
}

func TestSynthesizer_Projection(t *testing.T) {
	headers, lines, loyalty, segments := fixture()

	log := NewSynthesizer(logger.Nop()).Synthesize(headers, lines, loyalty, segments)

	counts := log.CountByType()
	assert.Equal(t, 2, counts[contracts.EventTransaction])
	assert.Equal(t, 2, counts[contracts.EventPromotionPurchase])
	assert.Equal(t, 1, counts[contracts.EventCoinsEarned])
	assert.Equal(t, 1, counts[contracts.EventCoinsRedeemed])
	assert.Equal(t, 1, counts[contracts.EventInactivityThreshold])
	assert.Equal(t, 7, log.Len())

	events := log.Events()
	for i, e := range events {
		assert.Equal(t, i, e.Sequence)
		assert.NotEmpty(t, e.ID)
	}

	promo := events[2]
	assert.Equal(t, contracts.EventPromotionPurchase, promo.Type)
	assert.Equal(t, "C1", promo.CustomerID, "customer resolved through the header")
	require.NotNil(t, promo.OccurredAt)

	orphan := events[3]
	assert.Equal(t, "PR2", orphan.PromotionID)
	assert.Empty(t, orphan.CustomerID)
	assert.Nil(t, orphan.OccurredAt)

	assert.Equal(t, int64(20), events[4].Coins)
	assert.Equal(t, int64(5), events[5].Coins)
	assert.Equal(t, "C1", events[6].CustomerID)
}

func TestSynthesizer_DeterministicIDs(t *testing.T) {
	headers, lines, loyalty, segments := fixture()
	s := NewSynthesizer(logger.Nop())

	a := s.Synthesize(headers, lines, loyalty, segments).Events()
	b := s.Synthesize(headers, lines, loyalty, segments).Events()

	require.Equal(t, len(a), len(b))
	ids := make(map[string]bool)
	for i := range a {
		assert.Equal(t, a[i].ID, b[i].ID)
		assert.False(t, ids[a[i].ID], "duplicate id %s", a[i].ID)
		ids[a[i].ID] = true
	}
}

func TestEventLog_AppendOnly(t *testing.T) {
	log := NewEventLog()
	at := ts
	first := log.Append(contracts.Event{Type: contracts.EventTransaction, OccurredAt: &at}, "T1")

	// mutating the caller's time or a returned copy leaves the log intact
	at = at.Add(time.Hour)
	snapshot := log.Events()
	snapshot[0].CustomerID = "tampered"

	log.Append(contracts.Event{Type: contracts.EventTransaction}, "T2")

	events := log.Events()
	require.Len(t, events, 2)
	assert.Equal(t, first.ID, events[0].ID)
	assert.Empty(t, events[0].CustomerID)
	assert.True(t, events[0].OccurredAt.Equal(ts))
	assert.Equal(t, 1, events[1].Sequence)
}

func TestEventID(t *testing.T) {
	assert.Equal(t, EventID(contracts.EventCoinsEarned, "T1"), EventID(contracts.EventCoinsEarned, "T1"))
	assert.NotEqual(t, EventID(contracts.EventCoinsEarned, "T1"), EventID(contracts.EventCoinsRedeemed, "T1"))
}

func TestSynthesizer_Empty(t *testing.T) {
	log := NewSynthesizer(logger.Nop()).Synthesize(nil, nil, nil, nil)
	assert.Equal(t, 0, log.Len())
	assert.NotNil(t, log.Events())
}

func TestSynthesizer_PromotionEventIDsUniqueWithoutLineIDs(t *testing.T) {
	headers := []contracts.TransactionHeader{
		{TransactionID: "T1", CustomerID: "C1", TransactionDate: ts, TotalAmount: decimal.NewFromInt(20)},
	}
	lines := []contracts.LineItem{
		{TransactionID: "T1", ProductID: "P1", PromotionID: "PR1", Quantity: 1},
		{TransactionID: "T1", ProductID: "P2", PromotionID: "PR1", Quantity: 1},
	}

	events := NewSynthesizer(logger.Nop()).Synthesize(headers, lines, nil, nil).Events()

	require.Len(t, events, 3)
	assert.Equal(t, contracts.EventPromotionPurchase, events[1].Type)
	assert.Equal(t, contracts.EventPromotionPurchase, events[2].Type)
	assert.NotEqual(t, events[1].ID, events[2].ID)

	again := NewSynthesizer(logger.Nop()).Synthesize(headers, lines, nil, nil).Events()
	assert.Equal(t, events[1].ID, again[1].ID, "ids stay deterministic")
}
