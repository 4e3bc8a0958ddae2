package model

import "strconv"

type Scope string

const (
	Unique Scope = "Unique"
	Common Scope = "Common"
)

type Direction string

const (
	Profit    Direction = "Profit"
	Loss      Direction = "Loss"
	Unchanged Direction = "Unchanged"
)

func (d Direction) Valid() bool {
	switch d {
	case Profit, Loss, Unchanged:
		return true
	default:
		return false
	}
}

type Comparator string

const (
	GreaterThan Comparator = "Greater Than"
	LessThan    Comparator = "Less Than"
	Range       Comparator = "Range"
)

func (c Comparator) Valid() bool {
	switch c {
	case GreaterThan, LessThan, Range:
		return true
	default:
		return false
	}
}

type InvestmentLevel string

const (
	PerStock     InvestmentLevel = "Per Stock"
	PerPortfolio InvestmentLevel = "Per Portfolio"
)

// Rule is a user authored alert filter. Thresholds are percents for P/L and
// currency for investment.
type Rule struct {
	ID              int64           `json:"id" yaml:"id" db:"id"`
	Name            string          `json:"name" yaml:"name" db:"name"`
	AppliedTo       []string        `json:"applied_to" yaml:"applied_to" db:"applied_to"` // empty means all portfolios
	Scope           Scope           `json:"scope" yaml:"scope" db:"scope"`
	CommonIn        []string        `json:"common_in" yaml:"common_in" db:"common_in"`
	Direction       Direction       `json:"direction" yaml:"direction" db:"direction"`
	PLComparator    Comparator      `json:"pl_comparator" yaml:"pl_comparator" db:"pl_comparator"`
	PLFrom          float64         `json:"pl_from" yaml:"pl_from" db:"pl_from"`
	PLTo            float64         `json:"pl_to" yaml:"pl_to" db:"pl_to"`
	InvestmentLevel InvestmentLevel `json:"investment_level" yaml:"investment_level" db:"investment_level"`
	InvComparator   Comparator      `json:"inv_comparator" yaml:"inv_comparator" db:"inv_comparator"`
	InvFrom         float64         `json:"inv_from" yaml:"inv_from" db:"inv_from"`
	InvTo           float64         `json:"inv_to" yaml:"inv_to" db:"inv_to"`
	Message         string          `json:"message" yaml:"message" db:"message"`
}

// Active reports whether the rule is fully configured. Drafts evaluate to
// nothing.
func (r Rule) Active() bool {
	if !r.Direction.Valid() || !r.InvComparator.Valid() {
		return false
	}
	return r.Direction == Unchanged || r.PLComparator.Valid()
}

func (r Rule) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return "Rule " + strconv.FormatInt(r.ID, 10)
}

func (r Rule) ScopeOrDefault() Scope {
	if r.Scope == Common {
		return Common
	}
	return Unique
}

func (r Rule) LevelOrDefault() InvestmentLevel {
	if r.InvestmentLevel == PerPortfolio {
		return PerPortfolio
	}
	return PerStock
}
