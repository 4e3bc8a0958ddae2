package highlights

import (
	"testing"

	"github.com/STTM-NSU/portfolio-alerts/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestCompute_Empty(t *testing.T) {
	h := Compute(model.NewTable(nil))
	assert.Empty(t, h.TopCapital)
	assert.Empty(t, h.TopProfit)
	assert.Empty(t, h.TopLoss)
	assert.NotNil(t, h.TopCapital)
}

func TestCompute_Rankings(t *testing.T) {
	table := model.NewTable([]model.Holding{
		{Instrument: "AAA", Invested: 1000, PnLAbs: 100, PnLPct: 10},
		{Instrument: "BBB", Invested: 5000, PnLAbs: -500, PnLPct: -10},
		{Instrument: "CCC", Invested: 3000, PnLAbs: 300, PnLPct: 10},
		{Instrument: "DDD", Invested: 3000, PnLAbs: -50, PnLPct: -1.67},
		{Instrument: "EEE", Invested: 200, PnLAbs: 0, PnLPct: 0},
		{Instrument: "FFF", Invested: 100, PnLAbs: 50, PnLPct: 50},
		{Instrument: "GGG", Invested: 400, PnLAbs: 20, PnLPct: 5},
	})

	h := Compute(table)
	assert.Equal(t, []string{
		"BBB | Invested ₹5000 | P&L -500 ( -10.00% )",
		"CCC | Invested ₹3000 | P&L 300 ( 10.00% )",
		"DDD | Invested ₹3000 | P&L -50 ( -1.67% )",
	}, h.TopCapital, "ties keep row order")
	assert.Equal(t, []string{
		"CCC | Invested ₹3000 | P&L 300 ( 10.00% )",
		"AAA | Invested ₹1000 | P&L 100 ( 10.00% )",
		"FFF | Invested ₹100 | P&L 50 ( 50.00% )",
	}, h.TopProfit)
	assert.Equal(t, []string{
		"BBB | Invested ₹5000 | P&L -500 ( -10.00% )",
		"DDD | Invested ₹3000 | P&L -50 ( -1.67% )",
	}, h.TopLoss)
}

func TestCompute_DoesNotReorderTable(t *testing.T) {
	table := model.NewTable([]model.Holding{
		{Instrument: "AAA", Invested: 1},
		{Instrument: "BBB", Invested: 2},
	})
	Compute(table)
	assert.Equal(t, []string{"AAA", "BBB"}, table.Instruments())
}
