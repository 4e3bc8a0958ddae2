package rules

import (
	"context"
	"sync"
	"testing"

	"github.com/STTM-NSU/portfolio-alerts/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_CRUD(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	first, err := s.Add(ctx, model.Rule{ID: 42, Name: "first"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.ID, "ids are assigned, not taken from input")

	second, err := s.Add(ctx, model.Rule{Name: "second"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.ID)

	second.Name = "renamed"
	second.Direction = model.Loss
	second.AppliedTo = []string{"Zerodha"}
	require.NoError(t, s.Save(ctx, second))

	got, err := s.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, second, got)

	require.NoError(t, s.Delete(ctx, 1))
	_, err = s.Get(ctx, 1)
	assert.ErrorIs(t, err, NotFoundError)

	third, err := s.Add(ctx, model.Rule{Name: "third"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), third.ID, "ids never reuse deleted values")

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "renamed", list[0].Name)
	assert.Equal(t, "third", list[1].Name)
}

func TestMemoryStore_NotFound(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	assert.ErrorIs(t, s.Save(ctx, model.Rule{ID: 9}), NotFoundError)
	assert.ErrorIs(t, s.Delete(ctx, 9), NotFoundError)
	_, err := s.Get(ctx, 9)
	assert.ErrorIs(t, err, NotFoundError)
}

func TestMemoryStore_Reset(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_, _ = s.Add(ctx, model.Rule{Name: "a"})
	_, _ = s.Add(ctx, model.Rule{Name: "b"})

	require.NoError(t, s.Reset(ctx))
	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	r, err := s.Add(ctx, model.Rule{Name: "c"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), r.ID)
}

func TestMemoryStore_CopiesSlices(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	applied := []string{"AngelOne"}
	r, err := s.Add(ctx, model.Rule{AppliedTo: applied})
	require.NoError(t, err)
	applied[0] = "mutated"
	r.AppliedTo[0] = "mutated too"

	got, err := s.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"AngelOne"}, got.AppliedTo)
}

func TestMemoryStore_ConcurrentAdd(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Add(ctx, model.Rule{})
		}()
	}
	wg.Wait()

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 50)
	seen := make(map[int64]bool)
	for _, r := range list {
		assert.False(t, seen[r.ID])
		seen[r.ID] = true
	}
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seed := []model.Rule{{Name: "a"}, {Name: "b"}}

	n, err := Seed(ctx, s, seed)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = Seed(ctx, s, seed)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "a non-empty store is left alone")

	list, _ := s.List(ctx)
	assert.Len(t, list, 2)
}

func TestRuleRow_RoundTrip(t *testing.T) {
	r := model.Rule{
		ID:              5,
		Name:            "book profit",
		AppliedTo:       []string{"AngelOne", "Zerodha"},
		Scope:           model.Common,
		CommonIn:        []string{"Zerodha"},
		Direction:       model.Profit,
		PLComparator:    model.Range,
		PLFrom:          6,
		PLTo:            10,
		InvestmentLevel: model.PerStock,
		InvComparator:   model.LessThan,
		InvFrom:         100000,
		Message:         "book profit",
	}
	assert.Equal(t, r, toRow(r).toModel())

	empty := toRow(model.Rule{})
	assert.NotNil(t, empty.AppliedTo, "TEXT[] columns are NOT NULL")
	assert.NotNil(t, empty.CommonIn)
	assert.Nil(t, empty.toModel().AppliedTo)
}
