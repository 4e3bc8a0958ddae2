package rules

import (
	"context"
	"testing"

	"github.com/STTM-NSU/portfolio-alerts/internal/config"
	"github.com/STTM-NSU/portfolio-alerts/internal/logger"
	"github.com/STTM-NSU/portfolio-alerts/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_MemoryWithSeed(t *testing.T) {
	ctx := context.Background()
	store, closeFn, err := Open(ctx, config.RulesConfig{
		Storage: config.Memory,
		Seed:    []model.Rule{{Name: "a"}, {Name: "b"}},
	}, logger.NewNopLogger())
	require.NoError(t, err)
	defer closeFn()

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(2), list[1].ID)
}
