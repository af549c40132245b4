package ports

import (
	"context"

	"github.com/confhub/confhub/internal/domain"
)

// Enqueuer hands work to the async pipeline (audit writes).
type Enqueuer interface {
	EnqueueAuditRecord(ctx context.Context, entry domain.AuditEntry) error
}

// AuditRecorder records a security event. Implementations must be
// best-effort: failures are logged and swallowed, never returned.
type AuditRecorder interface {
	Record(ctx context.Context, entry domain.AuditEntry)
}
