package handlers

import (
	"net/http"
	"time"

	"lina-server/internal/payments"
)

type checkoutResponse struct {
	Status             string `json:"status"`
	Token              string `json:"token,omitempty"`
	SubscriptionExpiry int64  `json:"subscription_expiry,omitempty"`
	CheckoutURL        string `json:"checkout_url,omitempty"`
	Reference          string `json:"reference,omitempty"`
}

const (
	subscriptionAmountCents = 990
	subscriptionCurrency    = "USD"
)

// SubscriptionCheckout starts a subscription purchase. In sandbox mode the
// subscription is activated synchronously; in live mode a Bold checkout link
// is created and activation waits for the webhook.
func (a *App) SubscriptionCheckout(w http.ResponseWriter, r *http.Request) {
	identity, ok := a.bearer(w, r)
	if !ok {
		return
	}
	if _, found := a.Store.Get(identity); !found {
		a.error(w, http.StatusUnauthorized, "unauthorized", "unknown identity, register again")
		return
	}

	if a.Payments == nil {
		rec, err := a.Store.ActivateSubscription(identity, a.subscriptionDuration())
		if err != nil {
			a.error(w, http.StatusUnauthorized, "unauthorized", "unknown identity, register again")
			return
		}
		token, err := a.Tokens.Issue(rec, a.now())
		if err != nil {
			a.Logger.Error().Err(err).Msg("sign token failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to issue token")
			return
		}
		a.json(w, http.StatusOK, checkoutResponse{
			Status:             "active",
			Token:              token,
			SubscriptionExpiry: rec.SubscriptionExpiry.Unix(),
		})
		return
	}

	reference := payments.NewSubscriptionReference(identity)
	checkout, err := a.Payments.CreateCheckout(r.Context(), payments.CheckoutRequest{
		Reference:   reference,
		AmountCents: subscriptionAmountCents,
		Currency:    subscriptionCurrency,
		Description: "LINA monthly subscription",
	})
	if err != nil {
		a.Logger.Error().Err(err).Str("identity", identity).Msg("create checkout failed")
		a.error(w, http.StatusBadGateway, "upstream_error", "payment service is unavailable, please try again")
		return
	}
	a.json(w, http.StatusOK, checkoutResponse{
		Status:      "pending",
		CheckoutURL: checkout.URL,
		Reference:   checkout.Reference,
	})
}

// PaymentWebhook receives Bold notifications. Approved sales whose reference
// resolves to a known identity activate the subscription; everything else is
// acknowledged so the gateway stops retrying.
func (a *App) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	note, err := payments.ParseNotification(r.Body)
	if err != nil {
		a.error(w, http.StatusBadRequest, "invalid_input", "invalid notification payload")
		return
	}
	if !note.Approved() {
		a.Logger.Info().Str("type", note.Type).Str("reference", note.Reference).Msg("payment not approved, ignoring")
		a.json(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}
	identity, err := payments.IdentityFromReference(note.Reference)
	if err != nil {
		a.Logger.Warn().Str("reference", note.Reference).Msg("webhook reference is not a subscription checkout")
		a.json(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}
	if _, err := a.Store.ActivateSubscription(identity, a.subscriptionDuration()); err != nil {
		a.Logger.Warn().Str("identity", identity).Msg("webhook for unknown identity")
		a.json(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}
	a.Logger.Info().Str("identity", identity).Msg("subscription activated via webhook")
	a.json(w, http.StatusOK, map[string]string{"status": "activated"})
}

// PaymentMethods proxies the gateway's payment-method listing. Sandbox mode
// has no gateway, so a fixed sandbox entry is returned.
func (a *App) PaymentMethods(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.bearer(w, r); !ok {
		return
	}
	if a.Payments == nil {
		a.json(w, http.StatusOK, map[string]any{"payment_methods": []payments.PaymentMethod{
			{ID: "SANDBOX", Name: "Sandbox (instant activation)", Enabled: true},
		}})
		return
	}
	methods, err := a.Payments.ListPaymentMethods(r.Context())
	if err != nil {
		a.Logger.Error().Err(err).Msg("list payment methods failed")
		a.error(w, http.StatusBadGateway, "upstream_error", "payment service is unavailable, please try again")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"payment_methods": methods})
}

func (a *App) subscriptionDuration() time.Duration {
	days := a.Cfg.SubscriptionDays
	if days <= 0 {
		days = 30
	}
	return time.Duration(days) * 24 * time.Hour
}
