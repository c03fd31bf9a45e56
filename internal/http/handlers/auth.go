package handlers

import (
	"encoding/json"
	"net/http"

	"lina-server/internal/auth"
)

type registerRequest struct {
	Email string `json:"email"`
}

type registerResponse struct {
	Identity   string `json:"identity"`
	Token      string `json:"token"`
	Remaining  int    `json:"remaining"`
	Quota      int    `json:"quota"`
	Subscribed bool   `json:"subscribed"`
}

// Register turns an email address into an identity plus a signed access
// token. Registering an already-known address returns the existing state
// untouched.
func (a *App) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid_input", "invalid payload")
		return
	}
	identity, err := auth.DeriveIdentity(req.Email)
	if err != nil {
		a.error(w, http.StatusBadRequest, "invalid_input", "a valid email address is required")
		return
	}

	rec := a.Store.Ensure(identity, auth.NormalizeEmail(req.Email))
	token, err := a.Tokens.Issue(rec, a.now())
	if err != nil {
		a.Logger.Error().Err(err).Msg("sign token failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to issue token")
		return
	}

	a.json(w, http.StatusOK, registerResponse{
		Identity:   rec.Identity,
		Token:      token,
		Remaining:  rec.Remaining(),
		Quota:      rec.FreeQuota,
		Subscribed: rec.Subscribed(a.now()),
	})
}

type meResponse struct {
	Identity   string `json:"identity"`
	Email      string `json:"email"`
	Plan       string `json:"plan"`
	Remaining  int    `json:"remaining"`
	Quota      int    `json:"quota"`
	Subscribed bool   `json:"subscribed"`
}

// Me returns the caller's current ledger state.
func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := a.bearer(w, r)
	if !ok {
		return
	}
	rec, found := a.Store.Get(identity)
	if !found {
		a.error(w, http.StatusUnauthorized, "unauthorized", "unknown identity, register again")
		return
	}
	now := a.now()
	a.json(w, http.StatusOK, meResponse{
		Identity:   rec.Identity,
		Email:      rec.Email,
		Plan:       string(rec.Plan(now)),
		Remaining:  rec.Remaining(),
		Quota:      rec.FreeQuota,
		Subscribed: rec.Subscribed(now),
	})
}
