//go:build integration

package postgres

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"example.com/aggregator/internal/registry"
)

func TestClientRepositoryLifecycle(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t, ctx)

	repo := NewClientRepository(pool)

	id, err := repo.CreateClient(ctx, "sandwich", []byte("hash"))
	require.NoError(t, err)
	require.Greater(t, id, 0)

	_, err = repo.CreateClient(ctx, "sandwich", []byte("other"))
	require.ErrorIs(t, err, registry.ErrNameTaken)

	client, err := repo.ClientByName(ctx, "sandwich")
	require.NoError(t, err)
	require.NotNil(t, client)
	require.Equal(t, id, client.ID)
	require.Equal(t, []byte("hash"), client.PasswordHash)

	missing, err := repo.ClientByName(ctx, "nobody")
	require.NoError(t, err)
	require.Nil(t, missing)

	updated, err := repo.SetCallback(ctx, id, "https://example.com/hook")
	require.NoError(t, err)
	require.True(t, updated)

	client, err = repo.ClientByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, client)
	require.Equal(t, "https://example.com/hook", client.Callback)

	updated, err = repo.SetCallback(ctx, id+1000, "https://example.com/hook")
	require.NoError(t, err)
	require.False(t, updated)
}

func TestLinkRepositoryLinksForUser(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t, ctx)

	_, err := pool.Exec(ctx, `INSERT INTO app_user (id) VALUES (7)`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO provider_link (user_id, platform, access_token) VALUES
		(7, 'fitbit', 'tok-fitbit'),
		(7, 'strava', 'tok-strava')`)
	require.NoError(t, err)

	repo := NewLinkRepository(pool)

	links, err := repo.LinksForUser(ctx, 7)
	require.NoError(t, err)
	require.Len(t, links, 2)

	none, err := repo.LinksForUser(ctx, 99)
	require.NoError(t, err)
	require.Empty(t, none)
}

func newTestPool(t *testing.T, ctx context.Context) *pgxpool.Pool {
	t.Helper()

	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("aggregator"),
		postgrescontainer.WithUsername("aggregator"),
		postgrescontainer.WithPassword("aggregator"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, waitForDatabase(ctx, connStr))

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	runMigrations(t, ctx, pool)
	return pool
}

func runMigrations(t *testing.T, ctx context.Context, pool *pgxpool.Pool) {
	t.Helper()

	path := resolvePath(t, "../../../db/postgres/migrations/0001_init.up.sql")
	contents, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, string(contents))
	require.NoError(t, err)
}

func resolvePath(t *testing.T, rel string) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), rel)
}

func waitForDatabase(ctx context.Context, connStr string) error {
	deadline := time.Now().Add(30 * time.Second)
	for {
		pool, err := pgxpool.New(ctx, connStr)
		if err == nil {
			err = pool.Ping(ctx)
			pool.Close()
			if err == nil {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(time.Second)
	}
}
