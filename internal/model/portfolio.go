package model

import (
	"slices"
	"sort"
)

// Holding is one canonical row of a portfolio table.
type Holding struct {
	Instrument string  `json:"instrument" yaml:"instrument" db:"instrument"`
	Quantity   float64 `json:"quantity" yaml:"quantity" db:"quantity"`
	AvgPrice   float64 `json:"avg_price" yaml:"avg_price" db:"avg_price"`
	LastPrice  float64 `json:"last_price" yaml:"last_price" db:"last_price"`
	Invested   float64 `json:"invested" yaml:"invested" db:"invested"`
	PnLAbs     float64 `json:"pnl_abs" yaml:"pnl_abs" db:"pnl_abs"`
	PnLPct     float64 `json:"pnl_pct" yaml:"pnl_pct" db:"pnl_pct"`
}

// Table is a canonical portfolio table. It is immutable once built: callers
// get copies of the rows, never the backing slice.
type Table struct {
	holdings []Holding
	index    map[string]int
}

// NewTable keys holdings by instrument. Rows with an empty instrument are
// dropped and the first row wins when an instrument repeats.
func NewTable(holdings []Holding) Table {
	t := Table{
		holdings: make([]Holding, 0, len(holdings)),
		index:    make(map[string]int, len(holdings)),
	}
	for _, h := range holdings {
		if h.Instrument == "" {
			continue
		}
		if _, ok := t.index[h.Instrument]; ok {
			continue
		}
		t.index[h.Instrument] = len(t.holdings)
		t.holdings = append(t.holdings, h)
	}
	return t
}

func (t Table) Len() int {
	return len(t.holdings)
}

func (t Table) Empty() bool {
	return len(t.holdings) == 0
}

func (t Table) Get(instrument string) (Holding, bool) {
	i, ok := t.index[instrument]
	if !ok {
		return Holding{}, false
	}
	return t.holdings[i], true
}

func (t Table) Has(instrument string) bool {
	_, ok := t.index[instrument]
	return ok
}

// Holdings returns the rows in their original order.
func (t Table) Holdings() []Holding {
	return slices.Clone(t.holdings)
}

// Instruments returns the instrument keys in row order.
func (t Table) Instruments() []string {
	instruments := make([]string, 0, len(t.holdings))
	for _, h := range t.holdings {
		instruments = append(instruments, h.Instrument)
	}
	return instruments
}

func (t Table) TotalInvested() float64 {
	var total float64
	for _, h := range t.holdings {
		total += h.Invested
	}
	return total
}

// Portfolios maps a portfolio name (AngelOne, Zerodha, ...) to its table.
type Portfolios map[string]Table

// Valid keeps only the portfolios that have at least one holding.
func (p Portfolios) Valid() Portfolios {
	valid := make(Portfolios, len(p))
	for name, t := range p {
		if t.Empty() {
			continue
		}
		valid[name] = t
	}
	return valid
}

// Names returns portfolio names sorted, so iteration order never depends on
// map order.
func (p Portfolios) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
