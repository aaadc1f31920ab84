package httpapi

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aurelio-voice/aurelio-server/internal/knowledge"
	"github.com/aurelio-voice/aurelio-server/internal/session"
)

// systemMessageRequest is the PUT /api/system-message body.
type systemMessageRequest struct {
	Message string `json:"message"`
}

// AdminHandler serves the operator-facing surface: reading/editing the
// knowledge file, a health probe, and Prometheus metrics. Every route but
// /healthz and /metrics is bearer-token gated when a token is configured.
type AdminHandler struct {
	Knowledge   *knowledge.TextFile
	Sessions    *session.Store
	BearerToken string
	Metrics     http.Handler
}

// NewAdminHandler builds an AdminHandler. bearerToken empty disables the
// gate (local/dev use).
func NewAdminHandler(know *knowledge.TextFile, sessions *session.Store, bearerToken string) *AdminHandler {
	return &AdminHandler{
		Knowledge:   know,
		Sessions:    sessions,
		BearerToken: bearerToken,
		Metrics:     promhttp.Handler(),
	}
}

// Register mounts the admin routes on mux.
func (h *AdminHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/system-message", h.authenticated(h.handleSystemMessage))
	mux.HandleFunc("/healthz", h.handleHealthz)
	mux.Handle("/metrics", h.Metrics)
}

func (h *AdminHandler) handleSystemMessage(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(h.Knowledge.Read()))
	case http.MethodPut:
		var req systemMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if err := h.Knowledge.Write(req.Message); err != nil {
			http.Error(w, "write failed", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *AdminHandler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if _, err := h.knowledgeReachable(); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// knowledgeReachable is a best-effort liveness check: Read never returns an
// error (a missing file is just empty text), so this only guards against a
// nil store, keeping /healthz meaningful even before full wiring lands.
func (h *AdminHandler) knowledgeReachable() (string, error) {
	if h.Knowledge == nil {
		return "", errNotConfigured
	}
	return h.Knowledge.Read(), nil
}

var errNotConfigured = httpError("knowledge store not configured")

type httpError string

func (e httpError) Error() string { return string(e) }

// authenticated wraps next with the bearer-token gate; a blank BearerToken
// disables the gate entirely.
func (h *AdminHandler) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.BearerToken == "" {
			next(w, r)
			return
		}
		const prefix = "Bearer "
		auth := r.Header.Get("Authorization")
		if len(auth) <= len(prefix) || auth[:len(prefix)] != prefix {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		provided := auth[len(prefix):]
		if subtle.ConstantTimeCompare([]byte(provided), []byte(h.BearerToken)) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}
