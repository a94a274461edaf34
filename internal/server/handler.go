// Package server is a stand-in for the boost ingestion service. It enforces
// the same body size limit and API key check so the prober can be run
// locally.
package server

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tmater/boostprobe/internal/proto"
)

// DefaultMaxBodyBytes matches the limit enforced by the real service.
const DefaultMaxBodyBytes = 100 << 10

// Config controls the mock endpoint.
type Config struct {
	MaxBodyBytes int64
	APIKeyHash   []byte // bcrypt hash; empty disables the key check
}

// Handler holds the dependencies for HTTP handlers.
type Handler struct {
	config Config
}

// HashKey returns the bcrypt hash of key for Config.APIKeyHash.
func HashKey(key string, cost int) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(key), cost)
}

// New creates a new Handler.
func New(cfg Config) *Handler {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return &Handler{config: cfg}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /boost", h.handleBoost)
	return h.requireAPIKey(mux)
}

// requireAPIKey is middleware that rejects requests missing a valid x-api-key header.
func (h *Handler) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(h.config.APIKeyHash) > 0 {
			if err := bcrypt.CompareHashAndPassword(h.config.APIKeyHash, []byte(r.Header.Get("x-api-key"))); err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// handleBoost accepts a boost if its body fits the size limit and its fields are sane.
func (h *Handler) handleBoost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.config.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			log.Printf("handler: rejected boost over limit=%d bytes", tooLarge.Limit)
			http.Error(w, "payload too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	var req proto.BoostRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if msg := validate(req); msg != "" {
		http.Error(w, msg, http.StatusUnprocessableEntity)
		return
	}

	id := uuid.NewString()
	log.Printf("handler: accepted boost id=%s bytes=%d message_len=%d", id, len(body), len(req.Message))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(map[string]string{"id": id}); err != nil {
		log.Printf("handler: failed to encode response: %s", err)
	}
}

func validate(req proto.BoostRequest) string {
	switch {
	case req.Action != proto.ActionBoost:
		return "unsupported action"
	case req.Split < 0 || req.Split > 1:
		return "split must be between 0 and 1"
	case req.ValueMsat < 0 || req.ValueMsatTotal < req.ValueMsat:
		return "value_msat_total must be at least value_msat"
	}
	return ""
}
