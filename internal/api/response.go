package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"records-api/internal/auth"
	"records-api/models"
	"records-api/observability"
)

const timestampLayout = time.RFC3339

type recordResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Status      string  `json:"status"`
	Value       float64 `json:"value"`
	CreatedDate string  `json:"created_date"`
	Owner       string  `json:"owner"`
	Description string  `json:"description"`
}

type createRecordResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Record  recordResponse `json:"record"`
}

type summaryResponse struct {
	TotalRecords       int             `json:"total_records"`
	TotalValue         float64         `json:"total_value"`
	AverageValue       float64         `json:"average_value"`
	StatusBreakdown    map[string]int  `json:"status_breakdown"`
	CategoryBreakdown  map[string]int  `json:"category_breakdown"`
	MostValuableRecord *recordResponse `json:"most_valuable_record"`
	LatestRecord       *recordResponse `json:"latest_record"`
}

type healthResponse struct {
	Status       string `json:"status"`
	Timestamp    string `json:"timestamp"`
	TotalRecords int    `json:"total_records"`
}

type welcomeResponse struct {
	Message        string            `json:"message"`
	Endpoints      map[string]string `json:"endpoints"`
	Authentication string            `json:"authentication"`
	ValidAPIKeys   []string          `json:"valid_api_keys,omitempty"`
}

type errorResponse struct {
	Detail string              `json:"detail"`
	Errors []models.FieldError `json:"errors,omitempty"`
}

func toRecordResponse(rec models.Record) recordResponse {
	return recordResponse{
		ID:          rec.ID,
		Name:        rec.Name,
		Category:    rec.Category,
		Status:      rec.Status,
		Value:       rec.Value.InexactFloat64(),
		CreatedDate: rec.CreatedDate,
		Owner:       rec.Owner,
		Description: rec.Description,
	}
}

func toRecordResponsePtr(rec *models.Record) *recordResponse {
	if rec == nil {
		return nil
	}
	resp := toRecordResponse(*rec)
	return &resp
}

func toSummaryResponse(s models.Summary) summaryResponse {
	return summaryResponse{
		TotalRecords:       s.TotalRecords,
		TotalValue:         s.TotalValue.InexactFloat64(),
		AverageValue:       s.AverageValue.InexactFloat64(),
		StatusBreakdown:    s.StatusBreakdown,
		CategoryBreakdown:  s.CategoryBreakdown,
		MostValuableRecord: toRecordResponsePtr(s.MostValuableRecord),
		LatestRecord:       toRecordResponsePtr(s.LatestRecord),
	}
}

func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		observability.WithError(err).Error("failed to encode response")
	}
}

func jsonError(w http.ResponseWriter, message string, status int) {
	jsonResponse(w, status, errorResponse{Detail: message})
}

// writeError maps a service or auth error to its HTTP status and error body
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		jsonResponse(w, http.StatusUnprocessableEntity, errorResponse{
			Detail: "Validation failed",
			Errors: verr.Fields,
		})
	case errors.Is(err, auth.ErrUnauthorized):
		w.Header().Set("WWW-Authenticate", "Bearer")
		jsonError(w, authDetail(err), http.StatusUnauthorized)
	case errors.Is(err, errBodyTooLarge):
		jsonError(w, "Request body too large", http.StatusRequestEntityTooLarge)
	default:
		observability.WithContext(r.Context()).Error("request failed",
			"path", r.URL.Path,
			"error", err,
		)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func authDetail(err error) string {
	switch {
	case errors.Is(err, auth.ErrMalformedAuthorization):
		return "Malformed Authorization header. Expected 'Bearer <key>'."
	case errors.Is(err, auth.ErrInvalidKey):
		return "Invalid API Key. Please check your X-API-Key header."
	default:
		return "Authentication required. Include an X-API-Key header or Authorization: Bearer <key>."
	}
}
