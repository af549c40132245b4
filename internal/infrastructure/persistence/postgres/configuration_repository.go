package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/confhub/confhub/internal/application/ports"
	"github.com/confhub/confhub/internal/domain"
	domerrors "github.com/confhub/confhub/internal/domain/errors"
)

const (
	insertConfigurationSQL = `
INSERT INTO configurations (id, application_id, name, comments, config, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	selectConfigurationSQL = `
SELECT id, application_id, name, comments, config, created_at, updated_at
FROM configurations WHERE application_id = $1 AND id = $2`
	listConfigurationsSQL = `
SELECT id, application_id, name, comments, config, created_at, updated_at
FROM configurations WHERE application_id = $1 AND ($2 = '' OR name ILIKE '%' || $2 || '%')
ORDER BY name`
	listConfigurationSummariesSQL = `
SELECT id, application_id, name, comments, created_at, updated_at
FROM configurations WHERE application_id = $1 AND ($2 = '' OR name ILIKE '%' || $2 || '%')
ORDER BY name`
	updateConfigurationSQL = `
UPDATE configurations SET name = $3, comments = $4, config = $5, updated_at = NOW()
WHERE application_id = $1 AND id = $2`
	deleteConfigurationSQL = `
DELETE FROM configurations WHERE application_id = $1 AND id = $2`
)

type ConfigurationRepository struct {
	pool *pgxpool.Pool
}

func NewConfigurationRepository(pool *pgxpool.Pool) *ConfigurationRepository {
	return &ConfigurationRepository{pool: pool}
}

func (r *ConfigurationRepository) Create(ctx context.Context, cfg *domain.Configuration) error {
	_, err := r.pool.Exec(ctx, insertConfigurationSQL,
		cfg.ID, cfg.ApplicationID, cfg.Name, nullable(cfg.Comments), []byte(cfg.Config),
		cfg.CreatedAt, cfg.UpdatedAt)
	if isUniqueViolation(err) {
		return domerrors.ErrNameConflict
	}
	return err
}

func (r *ConfigurationRepository) GetByID(ctx context.Context, applicationID, cfgID string) (*domain.Configuration, error) {
	cfg, err := scanConfiguration(r.pool.QueryRow(ctx, selectConfigurationSQL, applicationID, cfgID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return cfg, nil
}

func (r *ConfigurationRepository) List(ctx context.Context, applicationID string, opts ports.ConfigurationListOptions) ([]*domain.Configuration, error) {
	query := listConfigurationsSQL
	if opts.Summary {
		query = listConfigurationSummariesSQL
	}
	rows, err := r.pool.Query(ctx, query, applicationID, opts.Search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Configuration
	for rows.Next() {
		var cfg *domain.Configuration
		var scanErr error
		if opts.Summary {
			cfg, scanErr = scanConfigurationSummary(rows)
		} else {
			cfg, scanErr = scanConfiguration(rows)
		}
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, cfg)
	}
	return out, rows.Err()
}

func (r *ConfigurationRepository) Update(ctx context.Context, cfg *domain.Configuration) error {
	tag, err := r.pool.Exec(ctx, updateConfigurationSQL,
		cfg.ApplicationID, cfg.ID, cfg.Name, nullable(cfg.Comments), []byte(cfg.Config))
	if isUniqueViolation(err) {
		return domerrors.ErrNameConflict
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domerrors.ErrNotFound
	}
	return nil
}

func (r *ConfigurationRepository) Delete(ctx context.Context, applicationID, cfgID string) error {
	tag, err := r.pool.Exec(ctx, deleteConfigurationSQL, applicationID, cfgID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domerrors.ErrNotFound
	}
	return nil
}

func scanConfiguration(row pgx.Row) (*domain.Configuration, error) {
	var cfg domain.Configuration
	var comments *string
	var raw []byte
	if err := row.Scan(&cfg.ID, &cfg.ApplicationID, &cfg.Name, &comments, &raw, &cfg.CreatedAt, &cfg.UpdatedAt); err != nil {
		return nil, err
	}
	if comments != nil {
		cfg.Comments = *comments
	}
	cfg.Config = raw
	return &cfg, nil
}

func scanConfigurationSummary(row pgx.Row) (*domain.Configuration, error) {
	var cfg domain.Configuration
	var comments *string
	if err := row.Scan(&cfg.ID, &cfg.ApplicationID, &cfg.Name, &comments, &cfg.CreatedAt, &cfg.UpdatedAt); err != nil {
		return nil, err
	}
	if comments != nil {
		cfg.Comments = *comments
	}
	return &cfg, nil
}

var _ ports.ConfigurationRepository = (*ConfigurationRepository)(nil)
