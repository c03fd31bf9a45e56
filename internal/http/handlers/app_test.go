package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"lina-server/internal/auth"
	"lina-server/internal/gate"
	"lina-server/internal/infra"
	"lina-server/internal/ledger"
	"lina-server/internal/metrics"
	"lina-server/internal/relay"
)

type fakeCompleter struct {
	complete func(context.Context, relay.Request) (string, error)
}

func (f fakeCompleter) Complete(ctx context.Context, req relay.Request) (string, error) {
	if f.complete != nil {
		return f.complete(ctx, req)
	}
	return "a reply", nil
}

func newTestApp(t *testing.T, quota int, completer relay.Completer) (*App, *ledger.MemoryStore) {
	t.Helper()
	if completer == nil {
		completer = fakeCompleter{}
	}
	cfg := &infra.Config{
		AppEnv:           "test",
		FreeQuota:        quota,
		SubscriptionDays: 30,
		RelayProvider:    "static",
		PaymentMode:      "sandbox",
	}
	tokens := auth.NewTokens("test-secret", time.Hour)
	store := ledger.NewMemoryStore(quota)
	app := &App{
		Logger:    zerolog.Nop(),
		Cfg:       cfg,
		Tokens:    tokens,
		Store:     store,
		Gate:      gate.New(tokens, store),
		Relay:     completer,
		RelayName: "static",
		Metrics:   metrics.NewCollector(prometheus.NewRegistry()),
		Now:       time.Now,
	}
	return app, store
}

func doJSON(t *testing.T, handler http.HandlerFunc, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("encode payload: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	return out
}

func registerUser(t *testing.T, app *App, email string) registerResponse {
	t.Helper()
	rec := doJSON(t, app.Register, http.MethodPost, "/v1/auth/register", "", registerRequest{Email: email})
	if rec.Code != http.StatusOK {
		t.Fatalf("register status = %d: %s", rec.Code, rec.Body.String())
	}
	return decodeBody[registerResponse](t, rec)
}

func webhookRequest(body string) (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/v1/payments/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req, httptest.NewRecorder()
}

var errBoom = errors.New("boom")
