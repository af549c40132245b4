package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/confhub/confhub/internal/application/auth"
	"github.com/confhub/confhub/internal/application/ports"
	"github.com/confhub/confhub/internal/application/users"
	"github.com/confhub/confhub/internal/domain"
	domerrors "github.com/confhub/confhub/internal/domain/errors"
	"github.com/confhub/confhub/internal/domain/id"
	"github.com/confhub/confhub/internal/infrastructure/http/middleware"
)

// MaxRefreshToken bounds the refresh token field in request bodies.
const MaxRefreshToken = 1024

// AuthHandler handles /auth/*: provider discovery, the OAuth dance, token
// refresh, logout, and user endpoints.
type AuthHandler struct {
	gateway  ports.ProviderGateway
	begin    *auth.BeginOAuth
	complete *auth.CompleteOAuth
	refresh  *auth.Refresh
	logout   *auth.Logout
	users    *users.Service
	recorder ports.AuditRecorder
	validate *validator.Validate
	log      zerolog.Logger
}

func NewAuthHandler(gateway ports.ProviderGateway, begin *auth.BeginOAuth, complete *auth.CompleteOAuth, refresh *auth.Refresh, logout *auth.Logout, usersSvc *users.Service, recorder ports.AuditRecorder, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		gateway:  gateway,
		begin:    begin,
		complete: complete,
		refresh:  refresh,
		logout:   logout,
		users:    usersSvc,
		recorder: recorder,
		validate: validator.New(),
		log:      log,
	}
}

// ProviderResponse is the public JSON shape of an enabled provider.
type ProviderResponse struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Icon        string `json:"icon,omitempty"`
}

// UserResponse is the JSON shape for a user.
type UserResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Role        string    `json:"role"`
	Provider    string    `json:"provider"`
	CreatedAt   time.Time `json:"created_at"`
	LastLoginAt time.Time `json:"last_login_at"`
	IsActive    bool      `json:"is_active"`
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		AvatarURL:   u.AvatarURL,
		Role:        string(u.Role),
		Provider:    u.Provider,
		CreatedAt:   u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
		IsActive:    u.IsActive,
	}
}

// LoginResponseBody is the JSON shape for a successful login or refresh.
type LoginResponseBody struct {
	Token        string       `json:"token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresAt    time.Time    `json:"expires_at"`
	User         UserResponse `json:"user"`
}

func toLoginResponse(session *domain.LoginResponse) LoginResponseBody {
	return LoginResponseBody{
		Token:        session.Token,
		RefreshToken: session.RefreshToken,
		ExpiresAt:    session.ExpiresAt,
		User:         toUserResponse(session.User),
	}
}

// Providers lists the providers with credentials configured.
func (h *AuthHandler) Providers(w http.ResponseWriter, r *http.Request) {
	enabled := h.gateway.Enabled()
	items := make([]ProviderResponse, 0, len(enabled))
	for _, p := range enabled {
		items = append(items, ProviderResponse{
			Name:        p.Name,
			DisplayName: p.DisplayName,
			Icon:        p.Icon,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"providers": items})
}

// Authorize redirects the browser to the provider's authorization endpoint,
// persisting a single-use CSRF state first.
func (h *AuthHandler) Authorize(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	returnURL := r.URL.Query().Get("returnUrl")
	authURL, err := h.begin.Execute(r.Context(), provider, returnURL)
	if err != nil {
		switch {
		case errors.Is(err, domerrors.ErrUnknownProvider):
			writeErr(w, http.StatusNotFound, "", "unknown provider")
		case errors.Is(err, domerrors.ErrProviderDisabled):
			writeErr(w, http.StatusBadRequest, "", "provider not configured")
		case errors.Is(err, domerrors.ErrInvalidReturnURL):
			writeErr(w, http.StatusBadRequest, "", "returnUrl not allowed")
		default:
			h.log.Error().Err(err).Str("provider", provider).Msg("authorize failed")
			writeErr(w, http.StatusInternalServerError, "", "internal error")
		}
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

// Callback completes the OAuth flow. Providers call it with GET; Apple posts
// form-encoded (response_mode=form_post), so both methods are routed here.
// Every failure mode maps to 401 without detail.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	var code, state string
	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			writeErr(w, http.StatusUnauthorized, ErrCodeInvalidToken, "authentication failed")
			return
		}
		code = r.PostFormValue("code")
		state = r.PostFormValue("state")
	} else {
		code = r.URL.Query().Get("code")
		state = r.URL.Query().Get("state")
	}

	result, err := h.complete.Execute(r.Context(), code, state)
	if err != nil {
		recordAudit(h.recorder, r, "auth.login", "auth/callback", "", http.StatusUnauthorized, err.Error())
		middleware.RecordLoginAttempt("unknown", false)
		writeErr(w, http.StatusUnauthorized, ErrCodeInvalidToken, "authentication failed")
		return
	}
	session := result.Session
	recordAudit(h.recorder, r, "auth.login", "auth/callback", session.User.ID, http.StatusOK, session.User.Provider)
	middleware.RecordLoginAttempt(session.User.Provider, true)

	if result.ReturnURL != "" {
		// Tokens go in the fragment so they never reach the return URL's
		// server logs.
		http.Redirect(w, r, result.ReturnURL+"#token="+session.Token+"&refresh_token="+session.RefreshToken, http.StatusFound)
		return
	}
	writeJSON(w, http.StatusOK, toLoginResponse(session))
}

// Refresh rotates a refresh token for a new session.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refresh_token" validate:"required,max=1024"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid body")
		return
	}
	if err := h.validate.Struct(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", err.Error())
		return
	}
	session, err := h.refresh.Execute(r.Context(), body.RefreshToken)
	if err != nil {
		recordAudit(h.recorder, r, "auth.refresh", "auth/refresh", "", http.StatusUnauthorized, "")
		writeErr(w, http.StatusUnauthorized, ErrCodeInvalidToken, "authentication failed")
		return
	}
	recordAudit(h.recorder, r, "auth.refresh", "auth/refresh", session.User.ID, http.StatusOK, "")
	writeJSON(w, http.StatusOK, toLoginResponse(session))
}

// Logout revokes the presented refresh token. Always 204; revoking an
// unknown token is a no-op.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid body")
		return
	}
	if len(body.RefreshToken) > MaxRefreshToken {
		body.RefreshToken = body.RefreshToken[:MaxRefreshToken]
	}
	revoked, err := h.logout.Execute(r.Context(), body.RefreshToken)
	if err != nil {
		h.log.Error().Err(err).Msg("logout failed")
		writeErr(w, http.StatusInternalServerError, "", "internal error")
		return
	}
	if revoked {
		recordAudit(h.recorder, r, "auth.logout", "auth/logout", "", http.StatusNoContent, "")
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		writeErr(w, http.StatusUnauthorized, "", "missing or invalid authorization")
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// UpdateRole changes a user's role. Admin-only (enforced by route middleware).
func (h *AuthHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if !id.Valid(userID) {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidID, "invalid user id")
		return
	}
	var body struct {
		Role string `json:"role" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid body")
		return
	}
	if err := h.validate.Struct(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", err.Error())
		return
	}
	user, err := h.users.UpdateRole(r.Context(), userID, domain.Role(body.Role))
	if err != nil {
		switch {
		case errors.Is(err, domerrors.ErrInvalidRole):
			writeErr(w, http.StatusBadRequest, "", "invalid role")
		case errors.Is(err, domerrors.ErrUserNotFound):
			writeErr(w, http.StatusNotFound, "", "user not found")
		default:
			h.log.Error().Err(err).Msg("update role failed")
			writeErr(w, http.StatusInternalServerError, "", "internal error")
		}
		return
	}
	recordAudit(h.recorder, r, "user.role_update", "users/"+userID, "", http.StatusOK, body.Role)
	writeJSON(w, http.StatusOK, toUserResponse(user))
}
