package audit

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confhub/confhub/internal/domain"
	"github.com/confhub/confhub/internal/domain/id"
)

type fakeAuditStore struct {
	entries []*domain.AuditEntry
	err     error
}

func (f *fakeAuditStore) Insert(ctx context.Context, entry *domain.AuditEntry) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, entry)
	return nil
}

type fakeEnqueuer struct {
	enqueued []domain.AuditEntry
	err      error
}

func (f *fakeEnqueuer) EnqueueAuditRecord(ctx context.Context, entry domain.AuditEntry) error {
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, entry)
	return nil
}

func TestRecordDirectWrite(t *testing.T) {
	store := &fakeAuditStore{}
	rec := NewRecorder(store, nil, nil, zerolog.Nop())

	rec.Record(context.Background(), domain.AuditEntry{Action: "auth.login", Resource: "auth", StatusCode: 200})

	require.Len(t, store.entries, 1)
	assert.True(t, id.Valid(store.entries[0].ID))
	assert.False(t, store.entries[0].CreatedAt.IsZero())
}

func TestRecordPrefersEnqueuer(t *testing.T) {
	store := &fakeAuditStore{}
	enq := &fakeEnqueuer{}
	rec := NewRecorder(store, enq, nil, zerolog.Nop())

	rec.Record(context.Background(), domain.AuditEntry{Action: "auth.refresh", Resource: "auth", StatusCode: 200})

	assert.Len(t, enq.enqueued, 1)
	assert.Empty(t, store.entries, "entry must not be double-written")
}

func TestRecordFallsBackWhenEnqueueFails(t *testing.T) {
	store := &fakeAuditStore{}
	enq := &fakeEnqueuer{err: fmt.Errorf("redis down")}
	rec := NewRecorder(store, enq, nil, zerolog.Nop())

	rec.Record(context.Background(), domain.AuditEntry{Action: "auth.logout", Resource: "auth", StatusCode: 204})

	assert.Len(t, store.entries, 1)
}

func TestRecordSwallowsStoreFailure(t *testing.T) {
	store := &fakeAuditStore{err: fmt.Errorf("db down")}
	rec := NewRecorder(store, nil, nil, zerolog.Nop())

	// Must not panic or propagate anything.
	rec.Record(context.Background(), domain.AuditEntry{Action: "auth.login", Resource: "auth", StatusCode: 401})
}
