package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clindocs/casenote-classifier/internal/config"
	"github.com/clindocs/casenote-classifier/internal/database"
)

func newTestRepo(t *testing.T) *database.HistoryRepository {
	t.Helper()
	cfg := config.Default().Database
	cfg.Driver = "sqlite3"
	cfg.DSN = ":memory:"
	cfg.MaxConnections = 1

	db, err := database.Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := database.NewHistoryRepository(db)
	require.NoError(t, repo.EnsureSchema(context.Background()))
	return repo
}

func TestHistoryRepository_RecordAndRecent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := &database.MatchRecord{
		EntryID:      "entry-1",
		Domain:       "risk",
		Labels:       []string{"Self-Harm", "Violence"},
		Suppressed:   1,
		Source:       "api",
		ProcessingMs: 0.8,
		MatchedAt:    time.Now().Add(-time.Minute).UTC(),
	}
	require.NoError(t, repo.Record(ctx, first))

	second := &database.MatchRecord{
		EntryID: "entry-2",
		Domain:  "behaviour",
		Labels:  []string{"Absconding"},
	}
	require.NoError(t, repo.Record(ctx, second))

	records, err := repo.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "entry-2", records[0].EntryID, "newest first")
	assert.Equal(t, []string{"Absconding"}, records[0].Labels)
	assert.Equal(t, []string{"Self-Harm", "Violence"}, records[1].Labels)
	assert.Equal(t, 1, records[1].Suppressed)
}

func TestHistoryRepository_RecentLimit(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for range 5 {
		require.NoError(t, repo.Record(ctx, &database.MatchRecord{
			EntryID: "entry",
			Domain:  "risk",
			Labels:  []string{"Violence"},
		}))
	}

	records, err := repo.Recent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestHistoryRepository_ByEntry(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Record(ctx, &database.MatchRecord{
		EntryID:   "entry-1",
		Domain:    "risk",
		Labels:    []string{"Ligature"},
		MatchedAt: time.Now().Add(-time.Hour).UTC(),
	}))
	require.NoError(t, repo.Record(ctx, &database.MatchRecord{
		EntryID: "entry-1",
		Domain:  "risk",
		Labels:  []string{"Ligature", "Suicide"},
	}))

	rec, err := repo.ByEntry(ctx, "entry-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Ligature", "Suicide"}, rec.Labels, "latest record wins")

	_, err = repo.ByEntry(ctx, "absent")
	require.Error(t, err)
}

func TestHistoryRepository_DomainStats(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, dom := range []string{"risk", "risk", "behaviour"} {
		require.NoError(t, repo.Record(ctx, &database.MatchRecord{
			EntryID: "e",
			Domain:  dom,
			Labels:  []string{"X"},
		}))
	}

	stats, err := repo.DomainStats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "risk", stats[0].Domain)
	assert.Equal(t, 2, stats[0].Count)
}

func TestConnect_RejectsUnknownDriver(t *testing.T) {
	cfg := config.Default().Database
	cfg.Driver = "oracle"

	_, err := database.Connect(cfg)
	require.Error(t, err)
}
