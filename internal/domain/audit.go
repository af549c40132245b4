package domain

import "time"

// AuditEntry is a single security event. Writes are best-effort and
// append-only; a failed write never blocks the operation being audited.
type AuditEntry struct {
	ID         string
	UserID     string
	Action     string
	Resource   string
	IPAddress  string
	UserAgent  string
	StatusCode int
	Details    string
	CreatedAt  time.Time
}
