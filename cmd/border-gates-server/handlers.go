package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/rs/zerolog"

	"github.com/jojapi/border-gates/pkg/gates"
	"github.com/jojapi/border-gates/pkg/logging"
	"github.com/jojapi/border-gates/pkg/traffic"
)

const apiVersion = "2.0.0"

var dateParamPattern = regexp.MustCompile(`^\d{2}-\d{2}-\d{4}$`)

// server is the HTTP routing layer: it validates request parameters,
// invokes the pipeline with normalized inputs, and maps pipeline error
// codes onto transport statuses.
type server struct {
	svc      *traffic.Service
	cacheTTL time.Duration
	logger   zerolog.Logger
}

func newServer(svc *traffic.Service, cacheTTL time.Duration) *server {
	return &server{
		svc:      svc,
		cacheTTL: cacheTTL,
		logger:   logging.NewLogger("server"),
	}
}

// gatesResponse is the success envelope for /border-gates.
type gatesResponse struct {
	Success    bool              `json:"success"`
	Source     string            `json:"source"`
	TotalGates int               `json:"total_gates"`
	DateRange  map[string]string `json:"date_range"`
	Data       gates.Matrix      `json:"data"`
	Metadata   map[string]any    `json:"metadata"`
}

// errorResponse is the error envelope for all endpoints.
type errorResponse struct {
	Success   bool   `json:"success"`
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
}

func (s *server) handleBorderGates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is supported", "")
		return
	}

	q := r.URL.Query()
	startDate := q.Get("start_date")
	endDate := q.Get("end_date")
	gateNames := q["gates"]

	if !dateParamPattern.MatchString(startDate) {
		s.writeError(w, http.StatusBadRequest, "INVALID_START_DATE",
			"Invalid start date format. Use DD-MM-YYYY format.",
			fmt.Sprintf("Received: %s, Expected format: DD-MM-YYYY", startDate))
		return
	}
	if !dateParamPattern.MatchString(endDate) {
		s.writeError(w, http.StatusBadRequest, "INVALID_END_DATE",
			"Invalid end date format. Use DD-MM-YYYY format.",
			fmt.Sprintf("Received: %s, Expected format: DD-MM-YYYY", endDate))
		return
	}

	// Pattern matching alone admits impossible dates like 31-02-2024.
	start, err := gates.ParseDate(startDate)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_START_DATE",
			"Invalid start date value. Use DD-MM-YYYY format.", err.Error())
		return
	}
	end, err := gates.ParseDate(endDate)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_END_DATE",
			"Invalid end date value. Use DD-MM-YYYY format.", err.Error())
		return
	}

	dateRange := gates.DateRange{Start: start, End: end}
	if err := dateRange.Validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_DATE_RANGE",
			"Start date must be before or equal to end date",
			fmt.Sprintf("Start: %s, End: %s", startDate, endDate))
		return
	}

	result, err := s.svc.Get(r.Context(), dateRange, gateNames)
	if err != nil {
		s.writePipelineError(w, err)
		return
	}

	if len(result.Gates) == 0 {
		s.writeError(w, http.StatusNotFound, "NO_DATA_FOUND",
			"No border gate data found for the specified date range",
			fmt.Sprintf("Date range: %s to %s", startDate, endDate))
		return
	}

	metadata := map[string]any{
		"cache_duration": fmt.Sprintf("%d seconds", int(s.cacheTTL/time.Second)),
		"api_version":    apiVersion,
		"filtered_gates": orEmpty(gateNames),
	}
	if stats, statsErr := s.svc.Stats(r.Context()); statsErr == nil {
		metadata["cache_stats"] = stats
	}

	s.writeJSON(w, http.StatusOK, gatesResponse{
		Success:    true,
		Source:     result.Source,
		TotalGates: len(result.Gates),
		DateRange:  map[string]string{"start_date": startDate, "end_date": endDate},
		Data:       result.Gates,
		Metadata:   metadata,
	})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"service":   "Border Gates API",
		"version":   apiVersion,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (s *server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Stats(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Cache stats failed")
		s.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"Unable to read cache statistics", "")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"cache_statistics":      stats,
		"cache_timeout_seconds": int(s.cacheTTL / time.Second),
		"timestamp":             time.Now().Format(time.RFC3339),
	})
}

// writePipelineError maps pipeline error codes to HTTP statuses.
func (s *server) writePipelineError(w http.ResponseWriter, err error) {
	code := traffic.CodeOf(err)
	message := "Unexpected error occurred while fetching data"
	status := http.StatusInternalServerError

	switch code {
	case traffic.CodeDataSourceError:
		status = http.StatusServiceUnavailable
		message = "Unable to fetch data from source"
	case traffic.CodeNoDataFound:
		status = http.StatusNotFound
		message = "No border gate data found for the specified date range"
	case traffic.CodeInvalidDateRange:
		status = http.StatusBadRequest
		message = "Start date must be before or equal to end date"
	}

	s.logger.Error().Err(err).Str("error_code", string(code)).Msg("Pipeline request failed")
	s.writeError(w, status, string(code), message, err.Error())
}

func (s *server) writeError(w http.ResponseWriter, status int, code, message, details string) {
	s.writeJSON(w, status, errorResponse{
		Success:   false,
		ErrorCode: code,
		Message:   message,
		Details:   details,
	})
}

func (s *server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error().Err(err).Msg("Failed to write response")
	}
}

func orEmpty(names []string) []string {
	if names == nil {
		return []string{}
	}
	return names
}
