// Package httpapi exposes the verification core over REST. Caller identity
// arrives in the X-Caller-ID header; the domain performs all authorization.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	app "github.com/AgriSubsidy-Network/verification_layer/internal/app"
	"github.com/AgriSubsidy-Network/verification_layer/internal/app/domain/subsidy"
	"github.com/AgriSubsidy-Network/verification_layer/internal/app/metrics"
	"github.com/AgriSubsidy-Network/verification_layer/pkg/logger"
)

const callerHeader = "X-Caller-ID"

// Config controls the optional HTTP middleware.
type Config struct {
	// RatePerSecond enables per-caller rate limiting when positive.
	RatePerSecond int
	RateBurst     int

	// AccessLogPath appends one JSON line per request when set.
	AccessLogPath string
}

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app    *app.Application
	access *accessLog
}

// NewHandler returns the REST API handler with metrics, access logging and
// rate limiting applied.
func NewHandler(application *app.Application, cfg Config, log *logger.Logger) (http.Handler, error) {
	if log == nil {
		log = logger.NewDefault("httpapi")
	}

	sink, err := newFileAccessSink(cfg.AccessLogPath)
	if err != nil {
		return nil, fmt.Errorf("open access log: %w", err)
	}

	h := &handler{app: application, access: newAccessLog(0, sink)}

	mux := http.NewServeMux()
	mux.HandleFunc("/system/", h.system)
	mux.HandleFunc("/applications/", h.applicationResources)
	mux.HandleFunc("/audit", h.auditList)
	mux.HandleFunc("/audit/", h.auditEntry)
	mux.HandleFunc("/healthz", h.healthz)
	mux.Handle("/metrics", metrics.Handler())

	var wrapped http.Handler = h.withAccessLog(mux)
	if cfg.RatePerSecond > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = cfg.RatePerSecond
		}
		wrapped = newRateLimiter(cfg.RatePerSecond, burst, log).wrap(wrapped)
	}
	return metrics.InstrumentHandler(wrapped), nil
}

func caller(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(callerHeader))
}

// requireCaller extracts the caller identity, writing a 401 when the header is
// missing.
func requireCaller(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := caller(r)
	if id == "" {
		writeError(w, http.StatusUnauthorized, fmt.Errorf("%s header required", callerHeader))
		return "", false
	}
	return id, true
}

func (h *handler) healthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) system(w http.ResponseWriter, r *http.Request) {
	action := strings.Trim(strings.TrimPrefix(r.URL.Path, "/system"), "/")

	switch action {
	case "status":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		cfg, err := h.app.Admin.GetStatus(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, cfg)

	case "oracle":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		id, ok := requireCaller(w, r)
		if !ok {
			return
		}
		var payload struct {
			OracleID string `json:"oracle_id"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if strings.TrimSpace(payload.OracleID) == "" {
			writeError(w, http.StatusBadRequest, fmt.Errorf("oracle_id is required"))
			return
		}
		cfg, err := h.app.Admin.SetOracle(r.Context(), id, payload.OracleID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, cfg)

	case "pause", "unpause":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		id, ok := requireCaller(w, r)
		if !ok {
			return
		}
		var cfg subsidy.SystemConfig
		var err error
		if action == "pause" {
			cfg, err = h.app.Admin.Pause(r.Context(), id)
		} else {
			cfg, err = h.app.Admin.Unpause(r.Context(), id)
		}
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, cfg)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *handler) applicationResources(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.Trim(strings.TrimPrefix(r.URL.Path, "/applications"), "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) == 0 || parts[0] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	applicationID := parts[0]

	if len(parts) == 1 {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch parts[1] {
	case "verify":
		h.verify(w, r, applicationID, parts[2:])
	case "score":
		h.score(w, r, applicationID, parts[2:])
	case "qualified":
		h.qualified(w, r, applicationID, parts[2:])
	case "appeal":
		h.appeal(w, r, applicationID, parts[2:])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *handler) verify(w http.ResponseWriter, r *http.Request, applicationID string, rest []string) {
	if len(rest) != 0 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var payload struct {
		FarmerID string `json:"farmer_id"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(payload.FarmerID) == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("farmer_id is required"))
		return
	}

	entry, err := h.app.Verification.Verify(r.Context(), id, payload.FarmerID, applicationID)
	if err != nil {
		// Disqualification is a committed decision, not a request failure.
		if errors.Is(err, subsidy.ErrCriteriaNotMet) {
			recorded, ok, getErr := h.app.Verification.GetScore(r.Context(), applicationID)
			if getErr != nil || !ok {
				writeError(w, http.StatusInternalServerError, fmt.Errorf("load recorded score: %v", getErr))
				return
			}
			writeJSON(w, http.StatusOK, verifyResponse{Qualified: false, Entry: recorded})
			return
		}
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, verifyResponse{Qualified: true, Entry: entry})
}

type verifyResponse struct {
	Qualified bool               `json:"qualified"`
	Entry     subsidy.ScoreEntry `json:"score_entry"`
}

func (h *handler) score(w http.ResponseWriter, r *http.Request, applicationID string, rest []string) {
	if len(rest) != 0 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	entry, ok, err := h.app.Verification.GetScore(r.Context(), applicationID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("application %s has no score entry", applicationID))
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *handler) qualified(w http.ResponseWriter, r *http.Request, applicationID string, rest []string) {
	if len(rest) != 0 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	qualified, err := h.app.Verification.IsQualified(r.Context(), applicationID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"application_id": applicationID,
		"qualified":      qualified,
	})
}

func (h *handler) appeal(w http.ResponseWriter, r *http.Request, applicationID string, rest []string) {
	if len(rest) == 0 {
		switch r.Method {
		case http.MethodGet:
			appeal, ok, err := h.app.Appeals.Get(r.Context(), applicationID)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
			if !ok {
				writeError(w, http.StatusNotFound, fmt.Errorf("application %s has no appeal", applicationID))
				return
			}
			writeJSON(w, http.StatusOK, appeal)

		case http.MethodPost:
			id, ok := requireCaller(w, r)
			if !ok {
				return
			}
			var payload struct {
				Reason string `json:"reason"`
			}
			if err := decodeJSON(r.Body, &payload); err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			appeal, err := h.app.Appeals.Submit(r.Context(), id, applicationID, payload.Reason)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, appeal)

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	if len(rest) == 1 && rest[0] == "resolve" {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		id, ok := requireCaller(w, r)
		if !ok {
			return
		}
		var payload struct {
			Score int64 `json:"score"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		qualified, err := h.app.Appeals.Resolve(r.Context(), id, applicationID, payload.Score)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"application_id": applicationID,
			"qualified":      qualified,
		})
		return
	}

	w.WriteHeader(http.StatusNotFound)
}

func (h *handler) auditList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var after uint64
	if raw := strings.TrimSpace(r.URL.Query().Get("after")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("after must be a non-negative integer"))
			return
		}
		after = parsed
	}
	limit := 100
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	entries, err := h.app.Verification.ListAudit(r.Context(), after, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *handler) auditEntry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	raw := strings.Trim(strings.TrimPrefix(r.URL.Path, "/audit"), "/")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("verification id must be a positive integer"))
		return
	}

	entry, ok, err := h.app.Verification.GetAuditEntry(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("no audit entry %d", id))
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// writeDomainError maps domain error kinds onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, subsidy.ErrNotAuthorized):
		status = http.StatusForbidden
	case errors.Is(err, subsidy.ErrSystemPaused):
		status = http.StatusServiceUnavailable
	case errors.Is(err, subsidy.ErrInvalidApplication), errors.Is(err, subsidy.ErrNoAppeal):
		status = http.StatusNotFound
	case errors.Is(err, subsidy.ErrAppealExists):
		status = http.StatusConflict
	case errors.Is(err, subsidy.ErrInvalidScore),
		errors.Is(err, subsidy.ErrInvalidFarmer),
		errors.Is(err, subsidy.ErrInvalidData):
		status = http.StatusBadRequest
	case errors.Is(err, subsidy.ErrOracleFailure):
		status = http.StatusBadGateway
	}
	writeError(w, status, err)
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
