package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ignite/edi-gateway/internal/domain"
)

// PlatformRepo reads tenants' connected downstream platforms.
type PlatformRepo struct{ db *sql.DB }

// NewPlatformRepo creates a Postgres-backed platform repository.
func NewPlatformRepo(db *sql.DB) *PlatformRepo { return &PlatformRepo{db: db} }

// FindActive returns the most recently connected active platform of the
// given type that has a real store domain. ErrNotFound means the
// transmitter should fall back to the globally configured destination.
func (r *PlatformRepo) FindActive(ctx context.Context, platform string) (*domain.ConnectedPlatform, error) {
	var p domain.ConnectedPlatform
	err := r.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, platform, store_domain, access_token, active, connected_at
		FROM connected_platforms
		WHERE platform = $1 AND active = true
		  AND store_domain IS NOT NULL AND store_domain <> '' AND store_domain <> 'local-stub'
		ORDER BY connected_at DESC
		LIMIT 1
	`, platform).Scan(&p.ID, &p.TenantID, &p.Platform, &p.StoreDomain,
		&p.AccessToken, &p.Active, &p.ConnectedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find active platform: %w", err)
	}
	return &p, nil
}
