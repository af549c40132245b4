package middleware

import (
	"net/http"
	"strings"

	"github.com/confhub/confhub/internal/application/ports"
	"github.com/confhub/confhub/internal/domain"
)

// AuthValidator validates the bearer JWT and loads the user from the database,
// setting it in the request context (see UserFromContext). The DB lookup means
// a deactivated user is rejected even while holding an unexpired token.
type AuthValidator struct {
	issuer ports.TokenIssuer
	users  ports.UserRepository
}

func NewAuthValidator(issuer ports.TokenIssuer, users ports.UserRepository) *AuthValidator {
	return &AuthValidator{issuer: issuer, users: users}
}

func (m *AuthValidator) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			writeAuthErr(w, http.StatusUnauthorized, "missing or invalid authorization")
			return
		}
		tokenString := strings.TrimPrefix(auth, "Bearer ")
		claims, err := m.issuer.ValidateAccessToken(tokenString)
		if err != nil {
			writeAuthErr(w, http.StatusUnauthorized, "invalid token")
			return
		}
		user, err := m.users.GetByID(r.Context(), claims.UserID)
		if err != nil || user == nil || !user.IsActive {
			writeAuthErr(w, http.StatusUnauthorized, "invalid token")
			return
		}
		ctx := WithUser(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole returns a middleware that rejects users without the given role.
// Must run after AuthValidator.
func RequireRole(role domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				writeAuthErr(w, http.StatusUnauthorized, "missing or invalid authorization")
				return
			}
			if user.Role != role {
				writeAuthErr(w, http.StatusForbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeAuthErr(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(`{"message":"` + message + `","code":"` + authErrCode(code) + `"}`))
}

func authErrCode(code int) string {
	if code == http.StatusForbidden {
		return "forbidden"
	}
	return "unauthorized"
}
