package model

type Alert struct {
	Instrument string `json:"instrument"`
	Portfolio  string `json:"portfolio"`
	Rule       string `json:"rule"`
	Message    string `json:"message"`
}

type Highlights struct {
	TopCapital []string `json:"top_capital"`
	TopProfit  []string `json:"top_profit"`
	TopLoss    []string `json:"top_loss"`
}
