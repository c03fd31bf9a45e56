package handlers

import (
	"net/http"
	"strings"
	"testing"

	"lina-server/internal/payments"
)

func TestSandboxCheckoutActivatesImmediately(t *testing.T) {
	const quota = 1
	app, _ := newTestApp(t, quota, nil)
	res := registerUser(t, app, "user@example.com")

	// Exhaust the trial first.
	rec := doJSON(t, app.Chat, http.MethodPost, "/v1/chat", res.Token, chatRequest{Message: "hello"})
	if rec.Code != http.StatusOK {
		t.Fatalf("chat status = %d", rec.Code)
	}
	rec = doJSON(t, app.Chat, http.MethodPost, "/v1/chat", res.Token, chatRequest{Message: "hello"})
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("chat status = %d, want 402", rec.Code)
	}

	rec = doJSON(t, app.SubscriptionCheckout, http.MethodPost, "/v1/subscriptions/checkout", res.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("checkout status = %d: %s", rec.Code, rec.Body.String())
	}
	checkout := decodeBody[checkoutResponse](t, rec)
	if checkout.Status != "active" || checkout.Token == "" {
		t.Fatalf("checkout response = %+v", checkout)
	}

	// The very next request is admitted and unmetered, regardless of the
	// exhausted counter.
	rec = doJSON(t, app.Chat, http.MethodPost, "/v1/chat", checkout.Token, chatRequest{Message: "hello again"})
	if rec.Code != http.StatusOK {
		t.Fatalf("subscribed chat status = %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody[chatResponse](t, rec)
	if !body.Subscribed {
		t.Fatalf("subscribed flag = false after activation")
	}
	if body.Remaining != 0 {
		t.Fatalf("Remaining = %d, want 0 (historical count kept)", body.Remaining)
	}
}

func TestCheckoutRequiresAuthentication(t *testing.T) {
	app, _ := newTestApp(t, 5, nil)
	rec := doJSON(t, app.SubscriptionCheckout, http.MethodPost, "/v1/subscriptions/checkout", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestWebhookApprovedActivatesSubscription(t *testing.T) {
	app, store := newTestApp(t, 5, nil)
	res := registerUser(t, app, "user@example.com")

	reference := payments.NewSubscriptionReference(res.Identity)
	body := `{"type":"SALE_APPROVED","data":{"reference":"` + reference + `"}}`
	req, rec := webhookRequest(body)
	app.PaymentWebhook(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "activated") {
		t.Fatalf("body = %s", rec.Body.String())
	}
	ledgerRec, _ := store.Get(res.Identity)
	if !ledgerRec.Subscribed(app.now()) {
		t.Fatalf("identity not subscribed after approved webhook")
	}
}

func TestWebhookRejectedSaleIsIgnored(t *testing.T) {
	app, store := newTestApp(t, 5, nil)
	res := registerUser(t, app, "user@example.com")

	reference := payments.NewSubscriptionReference(res.Identity)
	body := `{"type":"SALE_REJECTED","data":{"reference":"` + reference + `"}}`
	req, rec := webhookRequest(body)
	app.PaymentWebhook(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	ledgerRec, _ := store.Get(res.Identity)
	if ledgerRec.Subscribed(app.now()) {
		t.Fatalf("rejected sale activated a subscription")
	}
}

func TestWebhookMalformedPayload(t *testing.T) {
	app, _ := newTestApp(t, 5, nil)
	req, rec := webhookRequest(`not json`)
	app.PaymentWebhook(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestWebhookForeignReferenceAcknowledged(t *testing.T) {
	app, _ := newTestApp(t, 5, nil)
	req, rec := webhookRequest(`{"type":"SALE_APPROVED","data":{"reference":"order:12345"}}`)
	app.PaymentWebhook(rec, req)
	// Acknowledged so the gateway stops retrying, but nothing is activated.
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ignored") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestWebhookUnknownIdentityAcknowledged(t *testing.T) {
	app, _ := newTestApp(t, 5, nil)
	reference := payments.NewSubscriptionReference("u_never_registered1")
	req, rec := webhookRequest(`{"type":"SALE_APPROVED","data":{"reference":"` + reference + `"}}`)
	app.PaymentWebhook(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ignored") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestPaymentMethodsSandbox(t *testing.T) {
	app, _ := newTestApp(t, 5, nil)
	res := registerUser(t, app, "user@example.com")

	rec := doJSON(t, app.PaymentMethods, http.MethodGet, "/v1/payments/methods", res.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "SANDBOX") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestHealthReportsModel(t *testing.T) {
	app, _ := newTestApp(t, 5, nil)
	rec := doJSON(t, app.Health, http.MethodGet, "/v1/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("body = %s", rec.Body.String())
	}
}
