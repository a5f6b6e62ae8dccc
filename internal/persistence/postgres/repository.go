// Package postgres provides pgx-backed implementations of the registry and
// link stores.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/aggregator/internal/domain"
	"example.com/aggregator/internal/registry"
)

// ClientRepository persists registered clients.
type ClientRepository struct {
	pool *pgxpool.Pool
}

// NewClientRepository constructs a ClientRepository.
func NewClientRepository(pool *pgxpool.Pool) *ClientRepository {
	return &ClientRepository{pool: pool}
}

// CreateClient inserts a new client. The insert and the name-uniqueness
// check are one statement, so concurrent signups with the same name resolve
// to exactly one winner.
func (r *ClientRepository) CreateClient(ctx context.Context, name string, passwordHash []byte) (int, error) {
	const stmt = `INSERT INTO client (name, password_hash) VALUES ($1, $2)
        ON CONFLICT (name) DO NOTHING RETURNING id`

	var id int
	if err := r.pool.QueryRow(ctx, stmt, name, passwordHash).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, registry.ErrNameTaken
		}
		return 0, err
	}
	return id, nil
}

// ClientByName implements registry.Store.
func (r *ClientRepository) ClientByName(ctx context.Context, name string) (*registry.Client, error) {
	const query = `SELECT id, name, password_hash, callback FROM client WHERE name = $1`
	return r.scanClient(r.pool.QueryRow(ctx, query, name))
}

// ClientByID implements registry.Store.
func (r *ClientRepository) ClientByID(ctx context.Context, id int) (*registry.Client, error) {
	const query = `SELECT id, name, password_hash, callback FROM client WHERE id = $1`
	return r.scanClient(r.pool.QueryRow(ctx, query, id))
}

func (r *ClientRepository) scanClient(row pgx.Row) (*registry.Client, error) {
	var client registry.Client
	if err := row.Scan(&client.ID, &client.Name, &client.PasswordHash, &client.Callback); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &client, nil
}

// SetCallback implements registry.Store.
func (r *ClientRepository) SetCallback(ctx context.Context, id int, callback string) (bool, error) {
	const stmt = `UPDATE client SET callback = $2 WHERE id = $1`

	tag, err := r.pool.Exec(ctx, stmt, id, callback)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// LinkRepository resolves provider links for users.
type LinkRepository struct {
	pool *pgxpool.Pool
}

// NewLinkRepository constructs a LinkRepository.
func NewLinkRepository(pool *pgxpool.Pool) *LinkRepository {
	return &LinkRepository{pool: pool}
}

// LinksForUser implements domain.LinkStore.
func (r *LinkRepository) LinksForUser(ctx context.Context, userID int) ([]domain.ProviderLink, error) {
	const query = `SELECT platform, access_token FROM provider_link WHERE user_id = $1`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []domain.ProviderLink
	for rows.Next() {
		var link domain.ProviderLink
		if err := rows.Scan(&link.Platform, &link.AccessToken); err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, rows.Err()
}
