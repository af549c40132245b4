// Package queue runs the async audit pipeline on Asynq.
package queue

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/confhub/confhub/internal/application/ports"
	"github.com/confhub/confhub/internal/domain"
)

const TypeAuditRecord = "audit:record"

// auditPayload is the wire form of an audit entry on the queue.
type auditPayload struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id,omitempty"`
	Action     string `json:"action"`
	Resource   string `json:"resource"`
	IPAddress  string `json:"ip_address,omitempty"`
	UserAgent  string `json:"user_agent,omitempty"`
	StatusCode int    `json:"status_code"`
	Details    string `json:"details,omitempty"`
	CreatedAt  int64  `json:"created_at"`
}

func toPayload(e domain.AuditEntry) auditPayload {
	return auditPayload{
		ID:         e.ID,
		UserID:     e.UserID,
		Action:     e.Action,
		Resource:   e.Resource,
		IPAddress:  e.IPAddress,
		UserAgent:  e.UserAgent,
		StatusCode: e.StatusCode,
		Details:    e.Details,
		CreatedAt:  e.CreatedAt.UnixMilli(),
	}
}

// Enqueuer implements ports.Enqueuer on an Asynq client.
type Enqueuer struct {
	client *asynq.Client
	log    zerolog.Logger
}

func NewEnqueuer(redisOpt asynq.RedisClientOpt, log zerolog.Logger) *Enqueuer {
	return &Enqueuer{client: asynq.NewClient(redisOpt), log: log}
}

func (q *Enqueuer) Close() error {
	return q.client.Close()
}

func (q *Enqueuer) EnqueueAuditRecord(ctx context.Context, entry domain.AuditEntry) error {
	payload, _ := json.Marshal(toPayload(entry))
	task := asynq.NewTask(TypeAuditRecord, payload)
	_, err := q.client.EnqueueContext(ctx, task)
	if err != nil {
		q.log.Warn().Err(err).Str("action", entry.Action).Msg("enqueue audit record failed")
		return err
	}
	return nil
}

var _ ports.Enqueuer = (*Enqueuer)(nil)
