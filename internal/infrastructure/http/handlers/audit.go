package handlers

import (
	"net/http"
	"strings"

	"github.com/confhub/confhub/internal/application/ports"
	"github.com/confhub/confhub/internal/domain"
	"github.com/confhub/confhub/internal/infrastructure/http/middleware"
)

// recordAudit writes a best-effort audit entry for the request. The user id
// is taken from the authenticated context when present; userID overrides it
// for flows that authenticate mid-request (OAuth callback).
func recordAudit(recorder ports.AuditRecorder, r *http.Request, action, resource, userID string, statusCode int, details string) {
	if recorder == nil {
		return
	}
	if userID == "" {
		if u := middleware.UserFromContext(r.Context()); u != nil {
			userID = u.ID
		}
	}
	recorder.Record(r.Context(), domain.AuditEntry{
		UserID:     userID,
		Action:     action,
		Resource:   resource,
		IPAddress:  getClientIP(r),
		UserAgent:  r.UserAgent(),
		StatusCode: statusCode,
		Details:    details,
	})
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	return r.RemoteAddr
}
