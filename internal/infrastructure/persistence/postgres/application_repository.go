// Package postgres implements the persistence ports on pgx.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/confhub/confhub/internal/application/ports"
	"github.com/confhub/confhub/internal/domain"
	domerrors "github.com/confhub/confhub/internal/domain/errors"
)

const uniqueViolation = "23505"

// isUniqueViolation reports whether err is a unique-constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

const (
	insertApplicationSQL = `
INSERT INTO applications (id, name, comments, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)`
	selectApplicationSQL = `
SELECT id, name, comments, created_at, updated_at FROM applications WHERE id = $1`
	listApplicationsSQL = `
SELECT id, name, comments, created_at, updated_at FROM applications ORDER BY name`
	updateApplicationSQL = `
UPDATE applications SET name = $2, comments = $3, updated_at = NOW() WHERE id = $1`
	deleteApplicationSQL      = `DELETE FROM applications WHERE id = $1`
	deleteApplicationsManySQL = `DELETE FROM applications WHERE id = ANY($1)`
)

type ApplicationRepository struct {
	pool *pgxpool.Pool
}

func NewApplicationRepository(pool *pgxpool.Pool) *ApplicationRepository {
	return &ApplicationRepository{pool: pool}
}

func (r *ApplicationRepository) Create(ctx context.Context, app *domain.Application) error {
	_, err := r.pool.Exec(ctx, insertApplicationSQL,
		app.ID, app.Name, nullable(app.Comments), app.CreatedAt, app.UpdatedAt)
	if isUniqueViolation(err) {
		return domerrors.ErrNameConflict
	}
	return err
}

func (r *ApplicationRepository) GetByID(ctx context.Context, appID string) (*domain.Application, error) {
	app, err := scanApplication(r.pool.QueryRow(ctx, selectApplicationSQL, appID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return app, nil
}

func (r *ApplicationRepository) List(ctx context.Context) ([]*domain.Application, error) {
	rows, err := r.pool.Query(ctx, listApplicationsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	return out, rows.Err()
}

func (r *ApplicationRepository) Update(ctx context.Context, app *domain.Application) error {
	tag, err := r.pool.Exec(ctx, updateApplicationSQL, app.ID, app.Name, nullable(app.Comments))
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

func (r *ApplicationRepository) Delete(ctx context.Context, appID string) error {
	tag, err := r.pool.Exec(ctx, deleteApplicationSQL, appID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domerrors.ErrNotFound
	}
	return nil
}

func (r *ApplicationRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	tag, err := r.pool.Exec(ctx, deleteApplicationsManySQL, ids)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanApplication(row pgx.Row) (*domain.Application, error) {
	var app domain.Application
	var comments *string
	if err := row.Scan(&app.ID, &app.Name, &comments, &app.CreatedAt, &app.UpdatedAt); err != nil {
		return nil, err
	}
	if comments != nil {
		app.Comments = *comments
	}
	return &app, nil
}

// nullable maps "" to NULL for optional text columns.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var _ ports.ApplicationRepository = (*ApplicationRepository)(nil)
