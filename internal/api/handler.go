package api

import (
	"errors"
	"fmt"
	"net/http"

	"records-api/config"
	"records-api/internal/app"
	"records-api/internal/auth"
	"records-api/observability"

	"github.com/go-chi/chi/v5"
)

// Handler handles HTTP API requests
type Handler struct {
	app   *app.App
	cfg   *config.Config
	guard *auth.Guard
}

// NewHandler creates a new Handler guarding records with the configured API keys
func NewHandler(application *app.App, cfg *config.Config) *Handler {
	return &Handler{
		app:   application,
		cfg:   cfg,
		guard: auth.NewGuard(cfg.Auth.APIKeys),
	}
}

// HandleIndex serves the welcome payload describing the API
func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	resp := welcomeResponse{
		Message: "Welcome to the Records Training API",
		Endpoints: map[string]string{
			"GET /health":       "Service health and record count (no authentication)",
			"GET /records":      "Retrieve all business records",
			"GET /records/{id}": "Retrieve a specific record by ID",
			"POST /records":     "Create a new business record",
			"GET /summary":      "Summary statistics over all records",
		},
		Authentication: "Include an X-API-Key header or Authorization: Bearer <key> with your requests",
	}
	if h.cfg.Metrics.Enabled {
		resp.Endpoints["GET /metrics"] = "Prometheus metrics (no authentication)"
	}
	if h.cfg.Auth.AdvertiseKeys {
		resp.ValidAPIKeys = h.cfg.SortedAPIKeys()
	}

	jsonResponse(w, http.StatusOK, resp)
}

// HandleHealth reports liveness and the current record count
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	count, err := h.app.RecordCount(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	jsonResponse(w, http.StatusOK, healthResponse{
		Status:       "healthy",
		Timestamp:    h.app.Now().Format(timestampLayout),
		TotalRecords: count,
	})
}

// HandleListRecords returns every record in insertion order
func (h *Handler) HandleListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.app.ListRecords(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := make([]recordResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, toRecordResponse(rec))
	}
	jsonResponse(w, http.StatusOK, resp)
}

// HandleGetRecord returns a single record by id
func (h *Handler) HandleGetRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := h.app.GetRecord(r.Context(), id)
	if errors.Is(err, app.ErrNotFound) {
		jsonError(w, fmt.Sprintf("Record with ID '%s' not found", id), http.StatusNotFound)
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	jsonResponse(w, http.StatusOK, toRecordResponse(*rec))
}

// HandleCreateRecord validates the request body and appends a new record
func (h *Handler) HandleCreateRecord(w http.ResponseWriter, r *http.Request) {
	in, err := decodeCreateRecord(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.app.CreateRecord(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	identity, _ := auth.IdentityFromContext(r.Context())
	observability.WithContext(r.Context()).Info("record created via api",
		"identity", identity,
		"record_id", result.Record.ID,
	)

	w.Header().Set("Location", "/records/"+result.Record.ID)

	jsonResponse(w, http.StatusCreated, createRecordResponse{
		Success: result.Success,
		Message: result.Message,
		Record:  toRecordResponse(result.Record),
	})
}

// HandleSummary returns aggregate statistics over the current record set
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.app.Summary(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	jsonResponse(w, http.StatusOK, toSummaryResponse(*summary))
}

// HandleNotFound answers unknown paths
func (h *Handler) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	jsonError(w, "Not Found", http.StatusNotFound)
}

// HandleMethodNotAllowed answers known paths requested with the wrong verb
func (h *Handler) HandleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	jsonError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
}
