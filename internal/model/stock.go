package model

// StockRow is one line of the stocks-across-portfolios view.
type StockRow struct {
	Instrument string             `json:"instrument"`
	Portfolios []string           `json:"portfolios"`
	AvgPnLPct  float64            `json:"avg_pnl_pct"`
	PnLPct     map[string]float64 `json:"pnl_pct"`
}
