package storage

import (
	"context"
	"os"
	"testing"

	"github.com/dkeye/Relay/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPostgres(t *testing.T) *Postgres {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("Skipping test: TEST_DATABASE_URL not set")
	}
	p, err := OpenPostgres(context.Background(), url)
	if err != nil {
		t.Skipf("Skipping test: database not available: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestPostgresUpsertKeepsNewest(t *testing.T) {
	ctx := context.Background()
	p := setupPostgres(t)
	uid := domain.UserID("test-" + uuid.NewString())
	t.Cleanup(func() {
		_, _ = p.pool.Exec(context.Background(), "DELETE FROM profiles WHERE user_id = $1", string(uid))
	})

	require.NoError(t, p.Upsert(ctx, uid, domain.ProfileRecord{DisplayName: "five", Rev: 5}))
	require.NoError(t, p.Upsert(ctx, uid, domain.ProfileRecord{DisplayName: "three", Rev: 3}))

	got, err := p.Load(ctx, []domain.UserID{uid, "missing-user"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "five", got[0].DisplayName)
	assert.Nil(t, got[0].RealName)

	require.NoError(t, p.Upsert(ctx, uid, domain.ProfileRecord{DisplayName: "six", RealName: strPtr("R"), Rev: 6}))
	got, err = p.Load(ctx, []domain.UserID{uid})
	require.NoError(t, err)
	assert.Equal(t, int64(6), got[0].Rev)
	require.NotNil(t, got[0].RealName)
	assert.Equal(t, "R", *got[0].RealName)
}
