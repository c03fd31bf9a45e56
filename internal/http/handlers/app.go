package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"lina-server/internal/auth"
	"lina-server/internal/gate"
	"lina-server/internal/infra"
	"lina-server/internal/ledger"
	"lina-server/internal/metrics"
	"lina-server/internal/payments"
	"lina-server/internal/relay"
)

// App bundles the dependencies shared by all handlers.
type App struct {
	Logger    zerolog.Logger
	Cfg       *infra.Config
	Tokens    *auth.Tokens
	Store     ledger.Store
	Gate      *gate.Gate
	Relay     relay.Completer
	RelayName string
	// Payments is nil in sandbox mode; checkout then activates synchronously.
	Payments *payments.BoldClient
	Metrics  metrics.Recorder
	Now      func() time.Time
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]string{"error": code, "message": message})
}

// bearer extracts and verifies the request's access token, returning the
// authenticated identity. Failures have already been written to w.
func (a *App) bearer(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw, err := auth.FromAuthorizationHeader(r.Header.Get("Authorization"))
	if err != nil {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing or invalid credentials")
		return "", false
	}
	claims, err := a.Tokens.Verify(raw)
	if err != nil {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing or invalid credentials")
		return "", false
	}
	return claims.Identity(), true
}
