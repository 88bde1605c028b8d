package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"math/big"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/hexboard-backend/internal/engine"
	"github.com/DoyleJ11/hexboard-backend/internal/hub"
	"github.com/DoyleJ11/hexboard-backend/internal/ws"
)

const maxCodeAttempts = 16

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 6)
	for i := 0; i < 6; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

func CreateSession(h *hub.Hub, rules engine.Rules, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var code string
		for attempt := 0; code == "" && attempt < maxCodeAttempts; attempt++ {
			c, err := GenerateCode()
			if err != nil {
				http.Error(w, "failed to generate code", http.StatusInternalServerError)
				return
			}
			existing, err := h.Get(r.Context(), c)
			if err != nil {
				http.Error(w, "server shutting down", http.StatusServiceUnavailable)
				return
			}
			if existing == nil {
				code = c
				break
			}
			log.Debug("collision on code, regenerating", zap.String("code", c))
		}
		if code == "" {
			http.Error(w, "failed to generate code", http.StatusInternalServerError)
			return
		}

		s, err := h.Ensure(r.Context(), code, rules)
		if err != nil || s == nil {
			http.Error(w, "failed to create session", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, struct {
			Code string `json:"code"`
		}{Code: code})
	}
}

// GetSession answers the HTTP equivalent of an inquire.
func GetSession(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := h.Get(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			http.Error(w, "server shutting down", http.StatusServiceUnavailable)
			return
		}
		if s == nil {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}

		v, err := s.View(r.Context())
		if err != nil {
			http.Error(w, "session unavailable", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, ws.ToWire(v.Snapshot()))
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
