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

// ConfigurationsHandler handles /applications/{appId}/configurations/*.
// Requires JWT.
type ConfigurationsHandler struct {
	configs  ports.ConfigurationRepository
	apps     ports.ApplicationRepository
	recorder ports.AuditRecorder
	validate *validator.Validate
	log      zerolog.Logger
}

func NewConfigurationsHandler(configs ports.ConfigurationRepository, apps ports.ApplicationRepository, recorder ports.AuditRecorder, log zerolog.Logger) *ConfigurationsHandler {
	return &ConfigurationsHandler{
		configs:  configs,
		apps:     apps,
		recorder: recorder,
		validate: validator.New(),
		log:      log,
	}
}

// ConfigurationResponse is the JSON shape for a configuration. Config is
// omitted in summary listings.
type ConfigurationResponse struct {
	ID            string          `json:"id"`
	ApplicationID string          `json:"application_id"`
	Name          string          `json:"name"`
	Comments      string          `json:"comments,omitempty"`
	Config        json.RawMessage `json:"config,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func toConfigurationResponse(cfg *domain.Configuration) ConfigurationResponse {
	return ConfigurationResponse{
		ID:            cfg.ID,
		ApplicationID: cfg.ApplicationID,
		Name:          cfg.Name,
		Comments:      cfg.Comments,
		Config:        cfg.Config,
		CreatedAt:     cfg.CreatedAt,
		UpdatedAt:     cfg.UpdatedAt,
	}
}

type configurationBody struct {
	Name     string          `json:"name" validate:"required,min=1,max=256"`
	Comments string          `json:"comments" validate:"max=1024"`
	Config   json.RawMessage `json:"config" validate:"required"`
}

// appID extracts and validates the owning application, writing the error
// response itself on failure.
func (h *ConfigurationsHandler) appID(w http.ResponseWriter, r *http.Request) (string, bool) {
	appID := chi.URLParam(r, "appId")
	if !id.Valid(appID) {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidID, "invalid application id")
		return "", false
	}
	app, err := h.apps.GetByID(r.Context(), appID)
	if err != nil {
		h.log.Error().Err(err).Msg("get application failed")
		writeErr(w, http.StatusInternalServerError, "", "internal error")
		return "", false
	}
	if app == nil {
		writeErr(w, http.StatusNotFound, "", "application not found")
		return "", false
	}
	return appID, true
}

// List returns the application's configurations. Query params: summary=true
// drops config payloads, search filters by name substring.
func (h *ConfigurationsHandler) List(w http.ResponseWriter, r *http.Request) {
	appID, ok := h.appID(w, r)
	if !ok {
		return
	}
	opts := ports.ConfigurationListOptions{
		Summary: r.URL.Query().Get("summary") == "true",
		Search:  r.URL.Query().Get("search"),
	}
	cfgs, err := h.configs.List(r.Context(), appID, opts)
	if err != nil {
		h.log.Error().Err(err).Msg("list configurations failed")
		writeErr(w, http.StatusInternalServerError, "", "internal error")
		return
	}
	items := make([]ConfigurationResponse, 0, len(cfgs))
	for _, cfg := range cfgs {
		items = append(items, toConfigurationResponse(cfg))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"configurations": items})
}

// Create adds a configuration to the application. Name must be unique within
// the application.
func (h *ConfigurationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	appID, ok := h.appID(w, r)
	if !ok {
		return
	}
	var body configurationBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid body")
		return
	}
	if err := h.validate.Struct(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", err.Error())
		return
	}
	if !json.Valid(body.Config) {
		writeErr(w, http.StatusBadRequest, "", "config must be a valid JSON document")
		return
	}
	now := time.Now()
	cfg := &domain.Configuration{
		ID:            id.New(),
		ApplicationID: appID,
		Name:          body.Name,
		Comments:      body.Comments,
		Config:        body.Config,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := h.configs.Create(r.Context(), cfg); err != nil {
		if errors.Is(err, domerrors.ErrNameConflict) {
			writeErr(w, http.StatusConflict, "", "configuration name already in use for this application")
			return
		}
		h.log.Error().Err(err).Msg("create configuration failed")
		writeErr(w, http.StatusInternalServerError, "", "internal error")
		return
	}
	recordAudit(h.recorder, r, "configuration.create", "applications/"+appID+"/configurations/"+cfg.ID, "", http.StatusCreated, cfg.Name)
	writeJSON(w, http.StatusCreated, toConfigurationResponse(cfg))
}

// Get returns one configuration by ID, scoped to the application.
func (h *ConfigurationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	appID, ok := h.appID(w, r)
	if !ok {
		return
	}
	cfgID := chi.URLParam(r, "id")
	if !id.Valid(cfgID) {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidID, "invalid configuration id")
		return
	}
	cfg, err := h.configs.GetByID(r.Context(), appID, cfgID)
	if err != nil {
		h.log.Error().Err(err).Msg("get configuration failed")
		writeErr(w, http.StatusInternalServerError, "", "internal error")
		return
	}
	if cfg == nil {
		writeErr(w, http.StatusNotFound, "", "configuration not found")
		return
	}
	writeJSON(w, http.StatusOK, toConfigurationResponse(cfg))
}

// Update replaces a configuration's name, comments, and config document.
func (h *ConfigurationsHandler) Update(w http.ResponseWriter, r *http.Request) {
	appID, ok := h.appID(w, r)
	if !ok {
		return
	}
	cfgID := chi.URLParam(r, "id")
	if !id.Valid(cfgID) {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidID, "invalid configuration id")
		return
	}
	var body configurationBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid body")
		return
	}
	if err := h.validate.Struct(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", err.Error())
		return
	}
	if !json.Valid(body.Config) {
		writeErr(w, http.StatusBadRequest, "", "config must be a valid JSON document")
		return
	}
	cfg, err := h.configs.GetByID(r.Context(), appID, cfgID)
	if err != nil {
		h.log.Error().Err(err).Msg("get configuration failed")
		writeErr(w, http.StatusInternalServerError, "", "internal error")
		return
	}
	if cfg == nil {
		writeErr(w, http.StatusNotFound, "", "configuration not found")
		return
	}
	cfg.Name = body.Name
	cfg.Comments = body.Comments
	cfg.Config = body.Config
	cfg.UpdatedAt = time.Now()
	if err := h.configs.Update(r.Context(), cfg); err != nil {
		if errors.Is(err, domerrors.ErrNameConflict) {
			writeErr(w, http.StatusConflict, "", "configuration name already in use for this application")
			return
		}
		if errors.Is(err, domerrors.ErrNotFound) {
			writeErr(w, http.StatusNotFound, "", "configuration not found")
			return
		}
		h.log.Error().Err(err).Msg("update configuration failed")
		writeErr(w, http.StatusInternalServerError, "", "internal error")
		return
	}
	recordAudit(h.recorder, r, "configuration.update", "applications/"+appID+"/configurations/"+cfg.ID, "", http.StatusOK, cfg.Name)
	writeJSON(w, http.StatusOK, toConfigurationResponse(cfg))
}

// Delete removes a configuration.
func (h *ConfigurationsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	appID, ok := h.appID(w, r)
	if !ok {
		return
	}
	cfgID := chi.URLParam(r, "id")
	if !id.Valid(cfgID) {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidID, "invalid configuration id")
		return
	}
	if err := h.configs.Delete(r.Context(), appID, cfgID); err != nil {
		if errors.Is(err, domerrors.ErrNotFound) {
			writeErr(w, http.StatusNotFound, "", "configuration not found")
			return
		}
		h.log.Error().Err(err).Msg("delete configuration failed")
		writeErr(w, http.StatusInternalServerError, "", "internal error")
		return
	}
	recordAudit(h.recorder, r, "configuration.delete", "applications/"+appID+"/configurations/"+cfgID, "", http.StatusNoContent, "")
	w.WriteHeader(http.StatusNoContent)
}
