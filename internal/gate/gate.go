// Package gate implements the per-request admission decision: verify the
// bearer token, consult the ledger, and either admit the call (reserving a
// trial slot when metered) or deny it with a distinct reason.
package gate

import (
	"errors"

	"lina-server/internal/auth"
	"lina-server/internal/domain"
	"lina-server/internal/ledger"
)

// Decision describes an admitted request.
type Decision struct {
	Identity string
	Record   domain.UserRecord
	// Metered is true when a trial slot was reserved for this request. The
	// caller must release it with the store's Refund if the downstream call
	// fails, so that consumption is only charged on success.
	Metered bool
}

// Gate authorizes protected requests. It never performs the downstream call
// itself.
type Gate struct {
	tokens *auth.Tokens
	store  ledger.Store
}

func New(tokens *auth.Tokens, store ledger.Store) *Gate {
	return &Gate{tokens: tokens, store: store}
}

// Admit evaluates the admission state machine for a bearer token, fail-closed:
//
//  1. missing/malformed/expired token -> ErrUnauthenticated
//  2. valid token, identity unknown to the ledger -> ErrUnauthenticated
//     (registration is the only creation path; stale tokens from before a
//     restart must not mint free quota)
//  3. active subscription -> admitted, unmetered
//  4. trial remaining -> admitted, metered (slot reserved atomically)
//  5. otherwise -> ErrQuotaExhausted
func (g *Gate) Admit(bearer string) (Decision, error) {
	claims, err := g.tokens.Verify(bearer)
	if err != nil {
		return Decision{}, domain.ErrUnauthenticated
	}

	rec, metered, err := g.store.ConsumeOne(claims.Identity())
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return Decision{}, domain.ErrUnauthenticated
	case errors.Is(err, domain.ErrQuotaExhausted):
		return Decision{}, domain.ErrQuotaExhausted
	case err != nil:
		return Decision{}, domain.ErrUnauthenticated
	}

	return Decision{Identity: claims.Identity(), Record: rec, Metered: metered}, nil
}
