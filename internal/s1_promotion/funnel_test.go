package s1_promotion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/retailpulse/internal/contracts"
	"github.com/wonny/retailpulse/pkg/logger"
)

func TestFunnelBuilder_Build(t *testing.T) {
	headers := []contracts.TransactionHeader{
		hdr("T1", "C1", date(3, 9)),
		hdr("T2", "C1", date(5, 20)),
		hdr("T3", "C2", date(4, 9)),
		hdr("T4", "C3", date(4, 9)),
		hdr("T5", "C4", date(8, 9)),
		hdr("T6", "C5", date(4, 9)),
	}
	lines := []contracts.LineItem{
		ln("L1", "T1", "P1", "PR1", 1, "1.00"),
		ln("L2", "T3", "P1", "", 1, "1.00"),
		ln("L3", "T4", "P1", "PR1", 1, "1.00"),
		// C4 bought outside the window
		ln("L4", "T5", "P1", "PR1", 1, "1.00"),
		ln("L5", "T6", "P1", "PR9", 1, "1.00"),
	}
	empty := contracts.Promotion{PromotionID: "PR2", Name: "Winter", StartDate: date(20, 0), EndDate: date(21, 0)}

	rows := NewFunnelBuilder(logger.Nop()).Build(headers, lines, []contracts.Promotion{spring, empty})

	require.Len(t, rows, 2)

	assert.Equal(t, 4, rows[0].Eligible)
	assert.Equal(t, 2, rows[0].Reacted)
	assert.Equal(t, 2, rows[0].Purchased)
	assert.InDelta(t, 50.0, rows[0].PctReacted, 1e-9)
	assert.InDelta(t, 50.0, rows[0].PctPurchased, 1e-9)

	assert.Equal(t, "PR2", rows[1].PromotionID)
	assert.Equal(t, 0, rows[1].Eligible)
	assert.Equal(t, 0.0, rows[1].PctReacted)
}

func TestFunnelBuilder_StageOrdering(t *testing.T) {
	headers := []contracts.TransactionHeader{
		hdr("T1", "C1", date(1, 9)),
		hdr("T2", "C2", date(3, 9)),
		hdr("T3", "C3", date(4, 9)),
		hdr("T4", "C4", date(6, 9)),
	}
	lines := []contracts.LineItem{
		ln("L1", "T1", "P1", "PR1", 1, "1.00"),
		ln("L2", "T2", "P1", "PR1", 1, "1.00"),
		ln("L3", "T4", "P1", "PR1", 1, "1.00"),
	}

	rows := NewFunnelBuilder(logger.Nop()).Build(headers, lines, []contracts.Promotion{spring})

	for _, r := range rows {
		assert.GreaterOrEqual(t, r.Eligible, r.Reacted)
		assert.GreaterOrEqual(t, r.Reacted, r.Purchased)
		assert.Equal(t, r.Reacted, r.Purchased)
	}
}
