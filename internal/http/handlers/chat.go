package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"lina-server/internal/auth"
	"lina-server/internal/domain"
	"lina-server/internal/metrics"
	"lina-server/internal/relay"
)

type chatRequest struct {
	Message string `json:"message"`
	Topic   string `json:"topic"`
}

type chatResponse struct {
	Reply      string `json:"reply"`
	Remaining  int    `json:"remaining"`
	Subscribed bool   `json:"subscribed"`
	Token      string `json:"token"`
}

// Chat is the protected completion endpoint. Input is validated before
// admission so malformed requests are never charged; a reserved trial slot is
// refunded when the relay fails, charging consumption on success only.
func (a *App) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid_input", "invalid payload")
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		a.error(w, http.StatusBadRequest, "invalid_input", "message must not be empty")
		return
	}
	message = relay.TruncateMessage(message)

	// An absent or malformed header yields an empty token, which the gate
	// rejects as unauthenticated.
	token, _ := auth.FromAuthorizationHeader(r.Header.Get("Authorization"))

	dec, err := a.Gate.Admit(token)
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		a.Metrics.RecordAdmission(metrics.OutcomeUnauthenticated)
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing or invalid credentials")
		return
	case errors.Is(err, domain.ErrQuotaExhausted):
		a.Metrics.RecordAdmission(metrics.OutcomeQuotaExhausted)
		a.error(w, http.StatusPaymentRequired, "quota_exhausted", "free questions used up, subscribe to continue")
		return
	case err != nil:
		a.Metrics.RecordAdmission(metrics.OutcomeUnauthenticated)
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing or invalid credentials")
		return
	}
	if dec.Metered {
		a.Metrics.RecordAdmission(metrics.OutcomeAllowedMetered)
	} else {
		a.Metrics.RecordAdmission(metrics.OutcomeAllowedUnmetered)
	}

	start := a.now()
	reply, err := a.Relay.Complete(r.Context(), relay.Request{
		System:  domain.TopicPrompt(req.Topic),
		Message: message,
		Topic:   req.Topic,
	})
	a.Metrics.RecordRelayLatency(a.now().Sub(start))
	if err != nil || strings.TrimSpace(reply) == "" {
		a.Metrics.RecordRelay(a.RelayName, false)
		if dec.Metered {
			a.Store.Refund(dec.Identity)
		}
		a.Logger.Error().Err(err).Str("identity", dec.Identity).Msg("completion relay failed")
		if errors.Is(err, domain.ErrUpstreamBusy) {
			a.error(w, http.StatusServiceUnavailable, "model_busy", "the model is busy right now, please try again in a moment")
			return
		}
		a.error(w, http.StatusBadGateway, "upstream_error", "LINA could not answer that right now, please try again")
		return
	}
	a.Metrics.RecordRelay(a.RelayName, true)

	rec, found := a.Store.Get(dec.Identity)
	if !found {
		rec = dec.Record
	}
	now := a.now()
	refreshed, err := a.Tokens.Issue(rec, now)
	if err != nil {
		a.Logger.Error().Err(err).Msg("sign refreshed token failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to issue token")
		return
	}

	a.json(w, http.StatusOK, chatResponse{
		Reply:      reply,
		Remaining:  rec.Remaining(),
		Subscribed: rec.Subscribed(now),
		Token:      refreshed,
	})
}
