package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uiverse-scraper/internal/observability"
	"uiverse-scraper/internal/storage"
)

// Runs against a disposable database named by UIVERSE_TEST_POSTGRES_DSN.
func TestRepositoryRoundTrip(t *testing.T) {
	dsn := os.Getenv("UIVERSE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("UIVERSE_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	repo, err := NewRepository(ctx, dsn, 5*time.Second, observability.NewNop())
	require.NoError(t, err)
	defer repo.Close()

	require.NoError(t, repo.EnsureSchema(ctx))
	_, err = repo.pool.Exec(ctx, `DELETE FROM components WHERE id = $1`, "test-roundtrip-1")
	require.NoError(t, err)

	rec := &storage.ComponentRecord{
		ID:        "test-roundtrip-1",
		URL:       "https://uiverse.io/test/roundtrip-1",
		Author:    "test",
		HTML:      "<div class=\"a\"></div>",
		CSS:       ".a { color: red; }",
		Success:   true,
		CheckSum:  "first",
		ScrapedAt: time.Now().UTC(),
	}

	isNew, isUpdated, err := repo.UpsertItem(ctx, rec)
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.False(t, isUpdated)

	isNew, isUpdated, err = repo.UpsertItem(ctx, rec)
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.False(t, isUpdated)

	rec.CheckSum = "second"
	isNew, isUpdated, err = repo.UpsertItem(ctx, rec)
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.True(t, isUpdated)

	exists, err := repo.ExistsByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	n, err := repo.GetItemCount(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 1)
}
