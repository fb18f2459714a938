package postgres

import (
	"context"
	"os"
	"testing"

	"messenger/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDB connects to MESSENGER_TEST_POSTGRES_DSN and empties the
// snapshot table. Tests are skipped when the variable is unset.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("MESSENGER_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("MESSENGER_TEST_POSTGRES_DSN not set")
	}
	d, err := Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	_, err = d.sql.ExecContext(context.Background(), "DELETE FROM messenger_state")
	require.NoError(t, err)
	return d
}

func TestDB_LoadEmptyIsUnavailable(t *testing.T) {
	d := openTestDB(t)
	_, err := d.Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestDB_SaveReplacesSnapshot(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	s := domain.NewState()
	s.Users["a"] = &domain.User{ID: "a", Username: "alice"}
	require.NoError(t, d.Save(ctx, s))

	s.Users["b"] = &domain.User{ID: "b", Username: "bob"}
	require.NoError(t, d.Save(ctx, s))

	got, err := d.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got.Users, 2)

	var rows int
	require.NoError(t, d.sql.QueryRowContext(ctx, "SELECT COUNT(*) FROM messenger_state").Scan(&rows))
	assert.Equal(t, 1, rows)
}

func TestDB_LoadCorruptIsUnavailable(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	_, err := d.sql.ExecContext(ctx,
		"INSERT INTO messenger_state (id, doc, updated_at) VALUES (1, '{}', now())")
	require.NoError(t, err)

	_, err = d.Load(ctx)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}
