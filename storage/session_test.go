package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metacurate/config"
	"metacurate/table"
)

func TestNewSessionStoreFallsBackToMemory(t *testing.T) {
	store, err := NewSessionStore(&config.Config{})
	require.NoError(t, err)
	assert.IsType(t, &table.MemoryStore{}, store)
}

func TestRedisSessionStore(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis integration tests")
	}
	rdb, err := NewRedisClient(&config.Config{RedisAddr: addr})
	require.NoError(t, err)
	defer rdb.Close()

	store := NewRedisSessionStore(rdb, time.Minute)
	ctx := context.Background()
	projectID := uuid.NewString()

	st, err := table.LoadState(ctx, store, projectID)
	require.NoError(t, err)
	assert.Equal(t, table.DefaultState(), st)

	want := table.State{
		SelectedColumns: []string{"TaskExtractor.Modality"},
		ColumnFilters:   []table.ColumnFilter{{ID: "title", Kind: table.FilterText, Text: "pain"}},
		Sorting:         []table.SortState{{ID: "title", Desc: true}},
	}
	require.NoError(t, table.SaveState(ctx, store, projectID, want))
	defer store.Delete(ctx, table.StateKey(projectID))

	got, err := table.LoadState(ctx, store, projectID)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	ttl, err := rdb.TTL(ctx, table.StateKey(projectID)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
