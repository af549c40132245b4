package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/confhub/confhub/internal/application/ports"
	"github.com/confhub/confhub/internal/domain"
)

// Worker drains the audit queue into the audit store.
type Worker struct {
	srv   *asynq.Server
	mux   *asynq.ServeMux
	store ports.AuditStore
	log   zerolog.Logger
}

// NewWorker creates the Asynq server and registers handlers. Call Run() to start.
func NewWorker(redisOpt asynq.RedisClientOpt, store ports.AuditStore, log zerolog.Logger) *Worker {
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 2,
		LogLevel:    asynq.InfoLevel,
	})
	mux := asynq.NewServeMux()
	w := &Worker{srv: srv, mux: mux, store: store, log: log}
	mux.HandleFunc(TypeAuditRecord, w.handleAuditRecord)
	return w
}

func (w *Worker) handleAuditRecord(ctx context.Context, t *asynq.Task) error {
	var p auditPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		w.log.Error().Err(err).Msg("audit task payload invalid")
		return err
	}
	entry := &domain.AuditEntry{
		ID:         p.ID,
		UserID:     p.UserID,
		Action:     p.Action,
		Resource:   p.Resource,
		IPAddress:  p.IPAddress,
		UserAgent:  p.UserAgent,
		StatusCode: p.StatusCode,
		Details:    p.Details,
		CreatedAt:  time.UnixMilli(p.CreatedAt),
	}
	if err := w.store.Insert(ctx, entry); err != nil {
		// Best-effort: log and drop rather than retrying forever.
		w.log.Warn().Err(err).Str("action", entry.Action).Msg("audit write from queue failed")
	}
	return nil
}

// Run blocks until shutdown. Use Shutdown for graceful stop.
func (w *Worker) Run() error {
	return w.srv.Run(w.mux)
}

// Shutdown stops the worker.
func (w *Worker) Shutdown() {
	w.srv.Shutdown()
}
