package alerts

import (
	"testing"

	"github.com/STTM-NSU/portfolio-alerts/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name     string
		c        model.Comparator
		value    float64
		from, to float64
		want     bool
	}{
		{"greater than above", model.GreaterThan, 7, 5, 0, true},
		{"greater than inclusive", model.GreaterThan, 5, 5, 0, true},
		{"greater than below", model.GreaterThan, 3, 5, 0, false},
		{"less than below", model.LessThan, 3, 5, 0, true},
		{"less than inclusive", model.LessThan, 5, 5, 0, true},
		{"less than above", model.LessThan, 7, 5, 0, false},
		{"range inside", model.Range, 7, 5, 10, true},
		{"range bounds inclusive", model.Range, 10, 5, 10, true},
		{"range outside", model.Range, 11, 5, 10, false},
		{"unknown comparator", model.Comparator(""), 7, 5, 10, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compare(tt.c, tt.value, tt.from, tt.to))
		})
	}
}

func TestCompare_RangeOrderIndependent(t *testing.T) {
	for _, v := range []float64{4, 5, 7.5, 10, 11} {
		assert.Equal(t, Compare(model.Range, v, 5, 10), Compare(model.Range, v, 10, 5), "value %v", v)
	}
}

func TestMatchesDirection(t *testing.T) {
	lossOver5 := model.Rule{Direction: model.Loss, PLComparator: model.GreaterThan, PLFrom: 5}
	assert.True(t, matchesDirection(lossOver5, -7))
	assert.False(t, matchesDirection(lossOver5, -3))
	assert.False(t, matchesDirection(lossOver5, 7))

	profitUnder10 := model.Rule{Direction: model.Profit, PLComparator: model.LessThan, PLFrom: 10}
	assert.True(t, matchesDirection(profitUnder10, 4))
	assert.False(t, matchesDirection(profitUnder10, 0))
	assert.False(t, matchesDirection(profitUnder10, -4))

	unchanged := model.Rule{Direction: model.Unchanged}
	assert.True(t, matchesDirection(unchanged, 0))
	assert.True(t, matchesDirection(unchanged, -0.0001))
	assert.False(t, matchesDirection(unchanged, 0.01))

	unchangedWithComparator := model.Rule{Direction: model.Unchanged, PLComparator: model.GreaterThan, PLFrom: 1}
	assert.False(t, matchesDirection(unchangedWithComparator, 0))
}
