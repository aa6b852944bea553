package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/damon-houk/notion-rate-sync/internal/domain/entity"
	"github.com/damon-houk/notion-rate-sync/internal/domain/repository"
	"github.com/damon-houk/notion-rate-sync/internal/infrastructure/logger"
	"github.com/damon-houk/notion-rate-sync/internal/infrastructure/middleware"
	"github.com/gorilla/mux"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 200
)

// SyncTrigger requests an out-of-schedule sync cycle
type SyncTrigger interface {
	Trigger() bool
}

// RateSnapshotter exposes the contents of a rate cache
type RateSnapshotter interface {
	Name() string
	Snapshot() entity.RateSnapshot
}

// StatusHandler serves health, sync history, manual triggers and cached rates
type StatusHandler struct {
	runs    repository.SyncRunRepository
	trigger SyncTrigger
	caches  []RateSnapshotter
	logger  logger.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(runs repository.SyncRunRepository, trigger SyncTrigger, caches []RateSnapshotter, log logger.Logger) *StatusHandler {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &StatusHandler{
		runs:    runs,
		trigger: trigger,
		caches:  caches,
		logger:  log,
	}
}

// Health reports that the process is up
func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, HealthResponse{Status: "ok"})
}

// ListRuns returns the latest sync runs, newest first
func (h *StatusHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	limit := defaultRunsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			sendErrorResponse(w, h.logger, "Invalid limit",
				"limit must be a positive integer", http.StatusBadRequest, requestID)
			return
		}
		limit = min(n, maxRunsLimit)
	}

	runs, err := h.runs.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list sync runs", map[string]interface{}{
			"request_id": requestID,
			"error":      err.Error(),
		})
		sendErrorResponse(w, h.logger, "Internal server error",
			"An unexpected error occurred while listing sync runs", http.StatusInternalServerError, requestID)
		return
	}

	resp := RunsResponse{Runs: make([]RunResponse, 0, len(runs))}
	for _, run := range runs {
		resp.Runs = append(resp.Runs, newRunResponse(run))
	}

	writeJSON(w, h.logger, http.StatusOK, resp)
}

// GetRun returns one sync run by id
func (h *StatusHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	id := mux.Vars(r)["id"]

	run, err := h.runs.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, entity.ErrRunNotFound) {
			sendErrorResponse(w, h.logger, "Sync run not found",
				"The requested sync run could not be found", http.StatusNotFound, requestID)
			return
		}
		h.logger.Error("Failed to get sync run", map[string]interface{}{
			"request_id": requestID,
			"id":         id,
			"error":      err.Error(),
		})
		sendErrorResponse(w, h.logger, "Internal server error",
			"An unexpected error occurred while retrieving the sync run", http.StatusInternalServerError, requestID)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, newRunResponse(run))
}

// TriggerSync asks the scheduler for an immediate cycle
func (h *StatusHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	status := "accepted"
	if !h.trigger.Trigger() {
		status = "already_pending"
	}

	h.logger.Info("Manual sync requested", map[string]interface{}{
		"request_id": middleware.GetRequestID(r.Context()),
		"status":     status,
	})

	writeJSON(w, h.logger, http.StatusAccepted, TriggerResponse{Status: status})
}

// Rates returns the current contents of every rate cache
func (h *StatusHandler) Rates(w http.ResponseWriter, r *http.Request) {
	resp := RatesResponse{Caches: make([]CacheResponse, 0, len(h.caches))}
	for _, c := range h.caches {
		resp.Caches = append(resp.Caches, newCacheResponse(c.Name(), c.Snapshot()))
	}

	writeJSON(w, h.logger, http.StatusOK, resp)
}

// RegisterRoutes registers the status handler routes
func (h *StatusHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/healthz", h.Health).Methods("GET")
	router.HandleFunc("/runs", h.ListRuns).Methods("GET")
	router.HandleFunc("/runs/{id}", h.GetRun).Methods("GET")
	router.HandleFunc("/sync", h.TriggerSync).Methods("POST")
	router.HandleFunc("/rates", h.Rates).Methods("GET")

	h.logger.Info("Status routes registered", map[string]interface{}{
		"routes": []string{
			"GET /healthz",
			"GET /runs",
			"GET /runs/{id}",
			"POST /sync",
			"GET /rates",
		},
	})
}

func writeJSON(w http.ResponseWriter, log logger.Logger, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		// Headers are already sent, so the client only sees a truncated body
		log.Debug("Failed to encode response", map[string]interface{}{
			"status_code": statusCode,
			"error":       err.Error(),
		})
	}
}

// sendErrorResponse sends a standardized error response
func sendErrorResponse(w http.ResponseWriter, log logger.Logger, message, description string, statusCode int, requestID string) {
	resp := ErrorResponse{
		Error:       message,
		Status:      statusCode,
		Description: description,
		RequestID:   requestID,
	}

	log.Debug("Sending error response", map[string]interface{}{
		"request_id":  requestID,
		"status_code": statusCode,
		"message":     message,
	})

	writeJSON(w, log, statusCode, resp)
}
