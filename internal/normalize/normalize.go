// Package normalize maps broker specific holdings tables onto the canonical
// Holding shape.
package normalize

import (
	"math"
	"strconv"
	"strings"

	"github.com/STTM-NSU/portfolio-alerts/internal/model"
	"github.com/STTM-NSU/portfolio-alerts/internal/tools"
)

// Candidate source column names per canonical field, in priority order.
var (
	InstrumentColumns = []string{"instrument", "tradingsymbol", "trading_symbol", "symbol", "name"}
	QuantityColumns   = []string{"quantity", "qty", "QTY", "Quantity"}
	AvgPriceColumns   = []string{"avg_price", "average_price", "Average Price", "avgPrice", "Avg. cost", "avg_cost", "avg_cost_price"}
	LastPriceColumns  = []string{"ltp", "LTP", "last_price", "last_traded_price", "close_price"}
	InvestedColumns   = []string{"invested", "Invested"}
	PnLAbsColumns     = []string{"pnl_abs", "pl", "P&L"}
	PnLPctColumns     = []string{"pnl_pct"}
)

type columns struct {
	instrument, quantity, avgPrice, lastPrice string
	invested, pnlAbs, pnlPct                  string
}

func resolve(raw model.RawTable, candidates []string) string {
	for _, c := range candidates {
		if raw.HasColumn(c) {
			return c
		}
	}
	return ""
}

func resolveColumns(raw model.RawTable) columns {
	return columns{
		instrument: resolve(raw, InstrumentColumns),
		quantity:   resolve(raw, QuantityColumns),
		avgPrice:   resolve(raw, AvgPriceColumns),
		lastPrice:  resolve(raw, LastPriceColumns),
		invested:   resolve(raw, InvestedColumns),
		pnlAbs:     resolve(raw, PnLAbsColumns),
		pnlPct:     resolve(raw, PnLPctColumns),
	}
}

// Table normalizes raw into a canonical table. It never fails: a table
// without an instrument-like column yields an empty table and unresolvable
// numeric columns leave the derived fields at zero.
func Table(raw model.RawTable) model.Table {
	if raw.Empty() {
		return model.NewTable(nil)
	}

	cols := resolveColumns(raw)
	if cols.instrument == "" {
		return model.NewTable(nil)
	}

	holdings := make([]model.Holding, 0, len(raw.Rows))
	for _, row := range raw.Rows {
		holdings = append(holdings, holding(cols, row))
	}

	return model.NewTable(holdings)
}

// holding builds one row. Presence of a column decides derivation order; a
// present column holding zero is taken verbatim.
func holding(cols columns, row map[string]any) model.Holding {
	h := model.Holding{
		Instrument: Instrument(row[cols.instrument]),
	}

	if cols.quantity != "" {
		h.Quantity = Number(row[cols.quantity])
	}
	if cols.avgPrice != "" {
		h.AvgPrice = Number(row[cols.avgPrice])
	}
	if cols.lastPrice != "" {
		h.LastPrice = Number(row[cols.lastPrice])
	}

	switch {
	case cols.invested != "":
		h.Invested = Number(row[cols.invested])
	case cols.avgPrice != "" && cols.quantity != "":
		h.Invested = tools.Round(h.AvgPrice*h.Quantity, 2)
	}

	switch {
	case cols.pnlAbs != "":
		h.PnLAbs = Number(row[cols.pnlAbs])
	case cols.avgPrice != "" && cols.lastPrice != "" && cols.quantity != "":
		h.PnLAbs = tools.Round((h.LastPrice-h.AvgPrice)*h.Quantity, 2)
	}

	switch {
	case cols.pnlPct != "":
		h.PnLPct = Number(row[cols.pnlPct])
	case cols.avgPrice != "" && cols.lastPrice != "" && h.AvgPrice != 0:
		h.PnLPct = (h.LastPrice - h.AvgPrice) / h.AvgPrice * 100
	}
	h.PnLPct = tools.Round(h.PnLPct, 2)

	return h
}

// Instrument turns a cell into a join key: trimmed and upper-cased.
func Instrument(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.ToUpper(strings.TrimSpace(s))
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case interface{ String() string }:
		return strings.ToUpper(strings.TrimSpace(s.String()))
	default:
		return ""
	}
}

// Number coerces a cell to float64. Missing, empty, unparseable and
// non-finite values are 0.
func Number(v any) float64 {
	var f float64
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case interface{ Float64() (float64, error) }:
		parsed, err := n.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		s := strings.TrimSpace(n)
		s = strings.TrimPrefix(s, "₹")
		s = strings.ReplaceAll(s, ",", "")
		if s == "" {
			return 0
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
