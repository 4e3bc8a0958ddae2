// Package setalg computes common and unique instrument sets across portfolios.
package setalg

import (
	"sort"

	"github.com/STTM-NSU/portfolio-alerts/internal/model"
)

type Set map[string]struct{}

func NewSet(instruments ...string) Set {
	s := make(Set, len(instruments))
	for _, i := range instruments {
		s[i] = struct{}{}
	}
	return s
}

func InstrumentSet(t model.Table) Set {
	return NewSet(t.Instruments()...)
}

func (s Set) Has(instrument string) bool {
	_, ok := s[instrument]
	return ok
}

func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for i := range s {
		out = append(out, i)
	}
	sort.Strings(out)
	return out
}

func (s Set) Intersect(other Set) Set {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	out := make(Set, len(small))
	for i := range small {
		if large.Has(i) {
			out[i] = struct{}{}
		}
	}
	return out
}

func (s Set) Union(other Set) Set {
	out := make(Set, len(s)+len(other))
	for i := range s {
		out[i] = struct{}{}
	}
	for i := range other {
		out[i] = struct{}{}
	}
	return out
}

func (s Set) Difference(other Set) Set {
	out := make(Set, len(s))
	for i := range s {
		if !other.Has(i) {
			out[i] = struct{}{}
		}
	}
	return out
}

// Common intersects the instrument sets of the named portfolios. With a
// single name the result is that portfolio's full set; unknown names count
// as empty portfolios.
func Common(portfolios model.Portfolios, names []string) Set {
	if len(names) == 0 {
		return Set{}
	}

	common := InstrumentSet(portfolios[names[0]])
	for _, name := range names[1:] {
		common = common.Intersect(InstrumentSet(portfolios[name]))
	}
	return common
}

// Unique returns, for each named portfolio, its instruments minus the union
// of the other named portfolios. Uniqueness is local to names.
func Unique(portfolios model.Portfolios, names []string) map[string]Set {
	sets := make(map[string]Set, len(names))
	for _, name := range names {
		sets[name] = InstrumentSet(portfolios[name])
	}

	unique := make(map[string]Set, len(names))
	for _, name := range names {
		others := Set{}
		for _, other := range names {
			if other == name {
				continue
			}
			others = others.Union(sets[other])
		}
		unique[name] = sets[name].Difference(others)
	}
	return unique
}

type Result struct {
	Common []string            `json:"common"`
	Unique map[string][]string `json:"unique"`
}

// Compute runs the algebra over every valid portfolio.
func Compute(portfolios model.Portfolios) Result {
	valid := portfolios.Valid()
	names := valid.Names()

	res := Result{
		Common: Common(valid, names).Sorted(),
		Unique: make(map[string][]string, len(names)),
	}
	for name, set := range Unique(valid, names) {
		res.Unique[name] = set.Sorted()
	}
	return res
}
