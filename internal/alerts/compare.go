package alerts

import (
	"math"

	"github.com/STTM-NSU/portfolio-alerts/internal/model"
)

// UnchangedEpsilon is the largest |pnl_pct| still treated as no movement.
const UnchangedEpsilon = 0.0001

// Compare applies c to value. Range bounds are order independent. Unknown
// comparators never match.
func Compare(c model.Comparator, value, from, to float64) bool {
	switch c {
	case model.GreaterThan:
		return value >= from
	case model.LessThan:
		return value <= from
	case model.Range:
		lo, hi := math.Min(from, to), math.Max(from, to)
		return lo <= value && value <= hi
	default:
		return false
	}
}

// matchesDirection applies the direction and magnitude filter to one
// pnl_pct value. Loss thresholds are positive magnitudes.
func matchesDirection(r model.Rule, pnlPct float64) bool {
	switch r.Direction {
	case model.Unchanged:
		if math.Abs(pnlPct) > UnchangedEpsilon {
			return false
		}
		if !r.PLComparator.Valid() {
			return true
		}
		return Compare(r.PLComparator, math.Abs(pnlPct), r.PLFrom, r.PLTo)
	case model.Profit:
		return pnlPct > 0 && Compare(r.PLComparator, pnlPct, r.PLFrom, r.PLTo)
	case model.Loss:
		return pnlPct < 0 && Compare(r.PLComparator, math.Abs(pnlPct), r.PLFrom, r.PLTo)
	default:
		return false
	}
}
