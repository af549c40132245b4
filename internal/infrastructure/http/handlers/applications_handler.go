package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/confhub/confhub/internal/application/ports"
	"github.com/confhub/confhub/internal/domain"
	domerrors "github.com/confhub/confhub/internal/domain/errors"
	"github.com/confhub/confhub/internal/domain/id"
)

// ApplicationsHandler handles /applications/*. Requires JWT.
type ApplicationsHandler struct {
	repo     ports.ApplicationRepository
	recorder ports.AuditRecorder
	validate *validator.Validate
	log      zerolog.Logger
}

func NewApplicationsHandler(repo ports.ApplicationRepository, recorder ports.AuditRecorder, log zerolog.Logger) *ApplicationsHandler {
	return &ApplicationsHandler{
		repo:     repo,
		recorder: recorder,
		validate: validator.New(),
		log:      log,
	}
}

// ApplicationResponse is the JSON shape for an application.
type ApplicationResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Comments  string    `json:"comments,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toApplicationResponse(app *domain.Application) ApplicationResponse {
	return ApplicationResponse{
		ID:        app.ID,
		Name:      app.Name,
		Comments:  app.Comments,
		CreatedAt: app.CreatedAt,
		UpdatedAt: app.UpdatedAt,
	}
}

type applicationBody struct {
	Name     string `json:"name" validate:"required,min=1,max=256"`
	Comments string `json:"comments" validate:"max=1024"`
}

// List returns all applications.
func (h *ApplicationsHandler) List(w http.ResponseWriter, r *http.Request) {
	apps, err := h.repo.List(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("list applications failed")
		writeErr(w, http.StatusInternalServerError, "", "internal error")
		return
	}
	items := make([]ApplicationResponse, 0, len(apps))
	for _, app := range apps {
		items = append(items, toApplicationResponse(app))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"applications": items})
}

// Create creates a new application. Name must be unique system-wide.
func (h *ApplicationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body applicationBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid body")
		return
	}
	if err := h.validate.Struct(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", err.Error())
		return
	}
	now := time.Now()
	app := &domain.Application{
		ID:        id.New(),
		Name:      body.Name,
		Comments:  body.Comments,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.repo.Create(r.Context(), app); err != nil {
		if errors.Is(err, domerrors.ErrNameConflict) {
			writeErr(w, http.StatusConflict, "", "application name already in use")
			return
		}
		h.log.Error().Err(err).Msg("create application failed")
		writeErr(w, http.StatusInternalServerError, "", "internal error")
		return
	}
	recordAudit(h.recorder, r, "application.create", "applications/"+app.ID, "", http.StatusCreated, app.Name)
	writeJSON(w, http.StatusCreated, toApplicationResponse(app))
}

// Get returns one application by ID.
func (h *ApplicationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	appID := chi.URLParam(r, "appId")
	if !id.Valid(appID) {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidID, "invalid application id")
		return
	}
	app, err := h.repo.GetByID(r.Context(), appID)
	if err != nil {
		h.log.Error().Err(err).Msg("get application failed")
		writeErr(w, http.StatusInternalServerError, "", "internal error")
		return
	}
	if app == nil {
		writeErr(w, http.StatusNotFound, "", "application not found")
		return
	}
	writeJSON(w, http.StatusOK, toApplicationResponse(app))
}

// Update replaces an application's name and comments.
func (h *ApplicationsHandler) Update(w http.ResponseWriter, r *http.Request) {
	appID := chi.URLParam(r, "appId")
	if !id.Valid(appID) {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidID, "invalid application id")
		return
	}
	var body applicationBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid body")
		return
	}
	if err := h.validate.Struct(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", err.Error())
		return
	}
	app, err := h.repo.GetByID(r.Context(), appID)
	if err != nil {
		h.log.Error().Err(err).Msg("get application failed")
		writeErr(w, http.StatusInternalServerError, "", "internal error")
		return
	}
	if app == nil {
		writeErr(w, http.StatusNotFound, "", "application not found")
		return
	}
	app.Name = body.Name
	app.Comments = body.Comments
	app.UpdatedAt = time.Now()
	if err := h.repo.Update(r.Context(), app); err != nil {
		if errors.Is(err, domerrors.ErrNameConflict) {
			writeErr(w, http.StatusConflict, "", "application name already in use")
			return
		}
		if errors.Is(err, domerrors.ErrNotFound) {
			writeErr(w, http.StatusNotFound, "", "application not found")
			return
		}
		h.log.Error().Err(err).Msg("update application failed")
		writeErr(w, http.StatusInternalServerError, "", "internal error")
		return
	}
	recordAudit(h.recorder, r, "application.update", "applications/"+app.ID, "", http.StatusOK, app.Name)
	writeJSON(w, http.StatusOK, toApplicationResponse(app))
}

// Delete removes an application. Its configurations are removed by cascade.
func (h *ApplicationsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	appID := chi.URLParam(r, "appId")
	if !id.Valid(appID) {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidID, "invalid application id")
		return
	}
	if err := h.repo.Delete(r.Context(), appID); err != nil {
		if errors.Is(err, domerrors.ErrNotFound) {
			writeErr(w, http.StatusNotFound, "", "application not found")
			return
		}
		h.log.Error().Err(err).Msg("delete application failed")
		writeErr(w, http.StatusInternalServerError, "", "internal error")
		return
	}
	recordAudit(h.recorder, r, "application.delete", "applications/"+appID, "", http.StatusNoContent, "")
	w.WriteHeader(http.StatusNoContent)
}

// BulkDelete removes several applications at once. Every id must be a valid
// ULID or the whole request is rejected.
func (h *ApplicationsHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDs []string `json:"ids" validate:"required,min=1"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid body")
		return
	}
	if err := h.validate.Struct(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", err.Error())
		return
	}
	for _, appID := range body.IDs {
		if !id.Valid(appID) {
			writeErr(w, http.StatusBadRequest, ErrCodeInvalidID, "invalid application id: "+appID)
			return
		}
	}
	deleted, err := h.repo.DeleteMany(r.Context(), body.IDs)
	if err != nil {
		h.log.Error().Err(err).Msg("bulk delete applications failed")
		writeErr(w, http.StatusInternalServerError, "", "internal error")
		return
	}
	recordAudit(h.recorder, r, "application.bulk_delete", "applications", "", http.StatusOK, "")
	writeJSON(w, http.StatusOK, map[string]interface{}{"deleted": deleted})
}
