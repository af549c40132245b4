// Package audit records security events. Recording is strictly best-effort:
// a failed write is logged and dropped, never surfaced to the operation that
// triggered it.
package audit

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/confhub/confhub/internal/application/ports"
	"github.com/confhub/confhub/internal/domain"
	"github.com/confhub/confhub/internal/domain/id"
)

// Emitter mirrors audit entries to an external endpoint (optional).
type Emitter interface {
	Emit(ctx context.Context, entry domain.AuditEntry) error
}

// Recorder writes audit entries through the async pipeline when available,
// falling back to a direct insert.
type Recorder struct {
	store    ports.AuditStore
	enqueuer ports.Enqueuer
	emitter  Emitter
	log      zerolog.Logger
}

// NewRecorder builds a recorder. enqueuer and emitter may be nil.
func NewRecorder(store ports.AuditStore, enqueuer ports.Enqueuer, emitter Emitter, log zerolog.Logger) *Recorder {
	return &Recorder{store: store, enqueuer: enqueuer, emitter: emitter, log: log}
}

// Record persists the entry. Never returns an error and never panics the
// caller's request.
func (r *Recorder) Record(ctx context.Context, entry domain.AuditEntry) {
	entry.ID = id.New()
	entry.CreatedAt = time.Now()

	ev := r.log.Info()
	if entry.StatusCode >= 400 {
		ev = r.log.Warn()
	}
	ev.Str("action", entry.Action).
		Str("resource", entry.Resource).
		Str("user_id", entry.UserID).
		Str("ip", entry.IPAddress).
		Int("status", entry.StatusCode).
		Msg("audit")

	if r.emitter != nil {
		if err := r.emitter.Emit(ctx, entry); err != nil {
			r.log.Warn().Err(err).Msg("audit webhook emit failed")
		}
	}

	if r.enqueuer != nil {
		if err := r.enqueuer.EnqueueAuditRecord(ctx, entry); err == nil {
			return
		}
		r.log.Warn().Str("action", entry.Action).Msg("audit enqueue failed; writing directly")
	}
	if r.store != nil {
		if err := r.store.Insert(ctx, &entry); err != nil {
			r.log.Warn().Err(err).Str("action", entry.Action).Msg("audit write failed")
		}
	}
}

var _ ports.AuditRecorder = (*Recorder)(nil)
