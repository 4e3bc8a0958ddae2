package model

import investapi "github.com/russianinvestments/invest-api-go-sdk/proto"

// Instrument is the T-Invest view of a security, used to turn FIGIs into the
// tickers other brokers report.
type Instrument struct {
	FIGI           string         `json:"figi" db:"id"`
	Ticker         string         `json:"ticker" db:"ticker"`
	ClassCode      string         `json:"class_code" db:"class_code"`
	UID            string         `json:"uid" db:"uid"`
	ISIN           string         `json:"isin" db:"isin"`
	Currency       string         `json:"currency" db:"currency"`
	InstrumentType InstrumentType `json:"instrument_type" db:"instrument_type"`
}

type InstrumentType string

const (
	Bond     InstrumentType = "bond"
	Share    InstrumentType = "share"
	Currency InstrumentType = "currency"
	Etf      InstrumentType = "etf"
)

func FromInvestAPIType(t investapi.InstrumentType) InstrumentType {
	switch t {
	case investapi.InstrumentType_INSTRUMENT_TYPE_BOND:
		return Bond
	case investapi.InstrumentType_INSTRUMENT_TYPE_SHARE:
		return Share
	case investapi.InstrumentType_INSTRUMENT_TYPE_CURRENCY:
		return Currency
	case investapi.InstrumentType_INSTRUMENT_TYPE_ETF:
		return Etf
	default:
		return ""
	}
}
