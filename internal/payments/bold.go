// Package payments proxies the few Bold sandbox calls the service needs:
// payment-method listing, checkout-link creation, and webhook parsing.
package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"lina-server/internal/domain"
)

const (
	boldDefaultTimeout = 15 * time.Second
	boldDefaultBaseURL = "https://integrations.api.bold.co"

	// referencePrefix marks checkout references created for subscription
	// activation; the identity between prefix and suffix correlates the
	// webhook back to a ledger record.
	referencePrefix = "lina-sub"
)

type BoldOptions struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// BoldClient talks to the Bold integrations API.
type BoldClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// PaymentMethod is one entry of the gateway's payment-method listing.
type PaymentMethod struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// CheckoutRequest describes a subscription checkout to initiate.
type CheckoutRequest struct {
	Reference   string
	AmountCents int64
	Currency    string
	Description string
}

// Checkout is the created payment link.
type Checkout struct {
	URL       string `json:"url"`
	Reference string `json:"reference"`
}

func NewBoldClient(opts BoldOptions) (*BoldClient, error) {
	if opts.APIKey == "" {
		return nil, errors.New("bold api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = boldDefaultBaseURL
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: boldDefaultTimeout}
	}
	return &BoldClient{apiKey: opts.APIKey, baseURL: baseURL, client: client}, nil
}

// ListPaymentMethods proxies the gateway's payment-method listing.
func (b *BoldClient) ListPaymentMethods(ctx context.Context) ([]PaymentMethod, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/online/link/v1/payment_methods", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", domain.ErrUpstreamFailure, err)
	}
	b.setHeaders(httpReq)

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamFailure, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", domain.ErrUpstreamFailure, resp.StatusCode)
	}
	var out struct {
		PaymentMethods []PaymentMethod `json:"payment_methods"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrUpstreamFailure, err)
	}
	return out.PaymentMethods, nil
}

// CreateCheckout creates a payment link whose reference correlates the
// eventual webhook back to an identity.
func (b *BoldClient) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	payload := map[string]any{
		"amount_type": "CLOSE",
		"amount": map[string]any{
			"currency":     req.Currency,
			"total_amount": req.AmountCents,
		},
		"reference":   req.Reference,
		"description": req.Description,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", domain.ErrUpstreamFailure, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/online/link/v1", &buf)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", domain.ErrUpstreamFailure, err)
	}
	b.setHeaders(httpReq)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamFailure, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", domain.ErrUpstreamFailure, resp.StatusCode)
	}
	var out struct {
		Payload struct {
			URL string `json:"url"`
		} `json:"payload"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrUpstreamFailure, err)
	}
	if out.Payload.URL == "" {
		return nil, fmt.Errorf("%w: empty payment link", domain.ErrUpstreamFailure)
	}
	return &Checkout{URL: out.Payload.URL, Reference: req.Reference}, nil
}

func (b *BoldClient) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "x-api-key "+b.apiKey)
}

// NewSubscriptionReference mints a checkout reference for identity. The uuid
// suffix keeps retried checkouts distinct.
func NewSubscriptionReference(identity string) string {
	return fmt.Sprintf("%s:%s:%s", referencePrefix, identity, uuid.NewString())
}

// IdentityFromReference recovers the identity embedded in a subscription
// checkout reference.
func IdentityFromReference(reference string) (string, error) {
	parts := strings.Split(reference, ":")
	if len(parts) != 3 || parts[0] != referencePrefix || parts[1] == "" {
		return "", domain.ErrInvalidInput
	}
	return parts[1], nil
}

// Notification is the subset of a Bold webhook payload the service acts on.
type Notification struct {
	Type      string
	Reference string
}

// Approved reports whether the notification confirms a completed sale.
func (n Notification) Approved() bool {
	return strings.EqualFold(n.Type, "SALE_APPROVED")
}

// ParseNotification decodes a webhook body. The reference may arrive at the
// top level of data or nested under metadata, depending on the checkout type.
func ParseNotification(body io.Reader) (Notification, error) {
	var raw struct {
		Type string `json:"type"`
		Data struct {
			Reference string `json:"reference"`
			Metadata  struct {
				Reference string `json:"reference"`
			} `json:"metadata"`
		} `json:"data"`
	}
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return Notification{}, domain.ErrInvalidInput
	}
	reference := raw.Data.Reference
	if reference == "" {
		reference = raw.Data.Metadata.Reference
	}
	if raw.Type == "" || reference == "" {
		return Notification{}, domain.ErrInvalidInput
	}
	return Notification{Type: raw.Type, Reference: reference}, nil
}
