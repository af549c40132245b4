package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/confhub/confhub/internal/application/ports"
	"github.com/confhub/confhub/internal/domain"
)

const insertAuditEntrySQL = `
INSERT INTO audit_logs (id, user_id, action, resource, ip_address, user_agent, status_code, details, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

// AuditStore appends to the audit_logs table. Append-only: nothing reads it
// back through this interface and nothing deletes from it.
type AuditStore struct {
	pool *pgxpool.Pool
}

func NewAuditStore(pool *pgxpool.Pool) *AuditStore {
	return &AuditStore{pool: pool}
}

func (s *AuditStore) Insert(ctx context.Context, entry *domain.AuditEntry) error {
	_, err := s.pool.Exec(ctx, insertAuditEntrySQL,
		entry.ID, nullable(entry.UserID), entry.Action, entry.Resource,
		nullable(entry.IPAddress), nullable(entry.UserAgent),
		entry.StatusCode, nullable(entry.Details), entry.CreatedAt)
	return err
}

var _ ports.AuditStore = (*AuditStore)(nil)
