// Package alerts evaluates alert rules against portfolio snapshots.
package alerts

import (
	"slices"
	"sort"

	"github.com/STTM-NSU/portfolio-alerts/internal/model"
	"github.com/STTM-NSU/portfolio-alerts/internal/setalg"
)

// Evaluate runs every rule over the portfolios and returns the triggered
// alerts, deduplicated and sorted by portfolio then instrument. It only
// reads its inputs, so concurrent calls over the same tables are safe.
func Evaluate(portfolios model.Portfolios, rules []model.Rule) []model.Alert {
	valid := portfolios.Valid()
	if len(valid) == 0 || len(rules) == 0 {
		return []model.Alert{}
	}

	var alerts []model.Alert
	for _, r := range rules {
		alerts = append(alerts, EvaluateRule(valid, r)...)
	}

	return dedupAndSort(alerts)
}

// EvaluateRule returns the alerts of a single rule in portfolio, instrument
// order. portfolios must already be the valid set.
func EvaluateRule(portfolios model.Portfolios, r model.Rule) []model.Alert {
	if !r.Active() {
		return nil
	}

	applied := appliedPortfolios(portfolios, r)
	if len(applied) == 0 {
		return nil
	}

	if r.LevelOrDefault() == model.PerPortfolio {
		applied = gatePortfolios(portfolios, applied, r)
		if len(applied) == 0 {
			return nil
		}
	}

	candidates := scopeCandidates(portfolios, applied, r)

	var alerts []model.Alert
	for _, name := range sortedKeys(candidates) {
		table := portfolios[name]
		for _, instrument := range candidates[name].Sorted() {
			h, ok := table.Get(instrument)
			if !ok || !matchesHolding(r, h) {
				continue
			}
			alerts = append(alerts, model.Alert{
				Instrument: instrument,
				Portfolio:  name,
				Rule:       r.DisplayName(),
				Message:    r.Message,
			})
		}
	}
	return alerts
}

// appliedPortfolios resolves applied_to against the valid portfolios; an
// empty applied_to means all of them.
func appliedPortfolios(portfolios model.Portfolios, r model.Rule) []string {
	if len(r.AppliedTo) == 0 {
		return portfolios.Names()
	}
	return restrict(r.AppliedTo, portfolios.Names())
}

// gatePortfolios keeps the portfolios whose total invested amount passes the
// investment comparator.
func gatePortfolios(portfolios model.Portfolios, applied []string, r model.Rule) []string {
	passing := make([]string, 0, len(applied))
	for _, name := range applied {
		if Compare(r.InvComparator, portfolios[name].TotalInvested(), r.InvFrom, r.InvTo) {
			passing = append(passing, name)
		}
	}
	return passing
}

// scopeCandidates selects the instruments to check per portfolio.
func scopeCandidates(portfolios model.Portfolios, applied []string, r model.Rule) map[string]setalg.Set {
	if r.ScopeOrDefault() == model.Unique {
		return setalg.Unique(portfolios, applied)
	}

	subset := applied
	if len(r.CommonIn) > 0 {
		subset = restrict(r.CommonIn, applied)
	}
	if len(subset) == 0 {
		return nil
	}

	common := setalg.Common(portfolios, subset)
	candidates := make(map[string]setalg.Set, len(subset))
	for _, name := range subset {
		candidates[name] = common
	}
	return candidates
}

func matchesHolding(r model.Rule, h model.Holding) bool {
	if r.LevelOrDefault() == model.PerStock &&
		!Compare(r.InvComparator, h.Invested, r.InvFrom, r.InvTo) {
		return false
	}
	return matchesDirection(r, h.PnLPct)
}

// restrict returns the sorted, distinct names of wanted that are also in
// allowed.
func restrict(wanted, allowed []string) []string {
	out := make([]string, 0, len(wanted))
	for _, name := range wanted {
		if slices.Contains(allowed, name) && !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func sortedKeys(m map[string]setalg.Set) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// dedupAndSort drops repeated (instrument, portfolio, rule, message) tuples
// keeping the first, then orders by portfolio and instrument. Ties keep rule
// order.
func dedupAndSort(alerts []model.Alert) []model.Alert {
	seen := make(map[model.Alert]struct{}, len(alerts))
	out := make([]model.Alert, 0, len(alerts))
	for _, a := range alerts {
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Portfolio != out[j].Portfolio {
			return out[i].Portfolio < out[j].Portfolio
		}
		return out[i].Instrument < out[j].Instrument
	})
	return out
}
