package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/damon-houk/currency-exchange-app/internal/application/service"
	"github.com/damon-houk/currency-exchange-app/internal/domain/entity"
	"github.com/damon-houk/currency-exchange-app/internal/infrastructure/logger"
	"github.com/damon-houk/currency-exchange-app/internal/infrastructure/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// ClientIDHeader identifies the client whose preferences are addressed
const ClientIDHeader = "X-Client-ID"

const maxPreferencesBody = 64 << 10

// PreferencesHandler handles HTTP requests for per-client preferences
type PreferencesHandler struct {
	service *service.PreferencesService
	logger  logger.Logger
}

// NewPreferencesHandler creates a new preferences handler
func NewPreferencesHandler(service *service.PreferencesService, log logger.Logger) *PreferencesHandler {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &PreferencesHandler{
		service: service,
		logger:  log,
	}
}

// clientID returns the caller's id, issuing a new one when the header is absent
func clientID(w http.ResponseWriter, r *http.Request) string {
	id := strings.TrimSpace(r.Header.Get(ClientIDHeader))
	if id == "" {
		id = uuid.New().String()
	}
	w.Header().Set(ClientIDHeader, id)
	return id
}

// GetPreferences handles reading the caller's preferences
func (h *PreferencesHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	id := clientID(w, r)

	prefs, err := h.service.GetPreferences(r.Context(), id)
	if err != nil {
		sendServiceError(w, h.logger, err, requestID)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, prefs)
}

// SavePreferences handles replacing the caller's preferences
func (h *PreferencesHandler) SavePreferences(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	id := clientID(w, r)

	var req entity.UserPreferences
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPreferencesBody)).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body", map[string]interface{}{
			"request_id": requestID,
			"error":      err.Error(),
		})
		sendErrorResponse(w, h.logger, "Invalid request body",
			"The request body could not be parsed as valid JSON", http.StatusBadRequest, requestID)
		return
	}

	prefs, err := h.service.SavePreferences(r.Context(), id, req)
	if err != nil {
		sendServiceError(w, h.logger, err, requestID)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, prefs)
}

// ResetPreferences handles restoring the caller's default preferences
func (h *PreferencesHandler) ResetPreferences(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	id := clientID(w, r)

	prefs, err := h.service.ResetPreferences(r.Context(), id)
	if err != nil {
		sendServiceError(w, h.logger, err, requestID)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, prefs)
}

// RegisterRoutes registers the preferences routes
func (h *PreferencesHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/preferences", h.GetPreferences).Methods(http.MethodGet)
	router.HandleFunc("/api/preferences", h.SavePreferences).Methods(http.MethodPut)
	router.HandleFunc("/api/preferences", h.ResetPreferences).Methods(http.MethodDelete)

	h.logger.Info("Preferences routes registered", map[string]interface{}{
		"routes": []string{
			"GET /api/preferences",
			"PUT /api/preferences",
			"DELETE /api/preferences",
		},
	})
}
