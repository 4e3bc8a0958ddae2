// Package highlights ranks the largest positions, gains and losses of a
// portfolio.
package highlights

import (
	"fmt"
	"sort"

	"github.com/STTM-NSU/portfolio-alerts/internal/model"
	"github.com/STTM-NSU/portfolio-alerts/internal/tools"
)

const _top = 3

func Compute(t model.Table) model.Highlights {
	rows := t.Holdings()

	capital := top(rows, func(a, b model.Holding) bool { return a.Invested > b.Invested })

	profit := top(filter(rows, func(h model.Holding) bool { return h.PnLAbs > 0 }),
		func(a, b model.Holding) bool { return a.PnLAbs > b.PnLAbs })

	loss := top(filter(rows, func(h model.Holding) bool { return h.PnLAbs < 0 }),
		func(a, b model.Holding) bool { return a.PnLAbs < b.PnLAbs })

	return model.Highlights{
		TopCapital: format(capital),
		TopProfit:  format(profit),
		TopLoss:    format(loss),
	}
}

// Format renders one ranked row.
func Format(h model.Holding) string {
	return fmt.Sprintf("%s | Invested ₹%s | P&L %s ( %s%% )",
		h.Instrument,
		tools.FormatFixed(h.Invested, 0),
		tools.FormatFixed(h.PnLAbs, 0),
		tools.FormatFixed(h.PnLPct, 2),
	)
}

func filter(rows []model.Holding, keep func(model.Holding) bool) []model.Holding {
	out := make([]model.Holding, 0, len(rows))
	for _, h := range rows {
		if keep(h) {
			out = append(out, h)
		}
	}
	return out
}

// top sorts a copy of rows stably, so ties keep row order.
func top(rows []model.Holding, less func(a, b model.Holding) bool) []model.Holding {
	sorted := make([]model.Holding, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool { return less(sorted[i], sorted[j]) })
	if len(sorted) > _top {
		sorted = sorted[:_top]
	}
	return sorted
}

func format(rows []model.Holding) []string {
	out := make([]string, 0, len(rows))
	for _, h := range rows {
		out = append(out, Format(h))
	}
	return out
}
