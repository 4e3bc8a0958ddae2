package setalg

import (
	"github.com/STTM-NSU/portfolio-alerts/internal/model"
	"github.com/STTM-NSU/portfolio-alerts/internal/tools"
)

// Stocks lists every instrument of the valid portfolios with its holders and
// their pnl_pct. A non-empty filter keeps only instruments held by every
// filtered portfolio and limits pnl_pct and the average to those.
func Stocks(portfolios model.Portfolios, filter []string) []model.StockRow {
	valid := portfolios.Valid()
	names := valid.Names()

	all := NewSet()
	for _, name := range names {
		all = all.Union(InstrumentSet(valid[name]))
	}

	columns := names
	if len(filter) > 0 {
		columns = NewSet(filter...).Sorted()
	}

	rows := make([]model.StockRow, 0, len(all))
	for _, instr := range all.Sorted() {
		holders := make([]string, 0, len(names))
		for _, name := range names {
			if valid[name].Has(instr) {
				holders = append(holders, name)
			}
		}

		pct := make(map[string]float64, len(columns))
		var sum float64
		for _, name := range columns {
			h, ok := valid[name].Get(instr)
			if !ok {
				continue
			}
			pct[name] = h.PnLPct
			sum += h.PnLPct
		}

		if len(filter) > 0 && len(pct) != len(columns) {
			continue
		}

		rows = append(rows, model.StockRow{
			Instrument: instr,
			Portfolios: holders,
			AvgPnLPct:  tools.Round(sum/float64(len(pct)), 2),
			PnLPct:     pct,
		})
	}

	return rows
}
