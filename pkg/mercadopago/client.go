package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Preapproval statuses as reported by the processor.
const (
	StatusPending    = "pending"
	StatusAuthorized = "authorized"
	StatusPaused     = "paused"
	StatusCancelled  = "cancelled"
)

// AutoRecurring describes the recurring charge of an agreement.
type AutoRecurring struct {
	Frequency         int     `json:"frequency"`
	FrequencyType     string  `json:"frequency_type"`
	TransactionAmount float64 `json:"transaction_amount"`
	CurrencyID        string  `json:"currency_id"`
}

// CreatePreapprovalRequest is the outbound payload for a new agreement.
type CreatePreapprovalRequest struct {
	Reason            string        `json:"reason"`
	PayerEmail        string        `json:"payer_email"`
	AutoRecurring     AutoRecurring `json:"auto_recurring"`
	BackURL           string        `json:"back_url"`
	ExternalReference string        `json:"external_reference"`
	NotificationURL   string        `json:"notification_url"`
	Status            string        `json:"status"`
}

// Preapproval is the processor's recurring-billing agreement record.
type Preapproval struct {
	ID                string        `json:"id"`
	Status            string        `json:"status"`
	ExternalReference string        `json:"external_reference"`
	InitPoint         string        `json:"init_point"`
	SandboxInitPoint  string        `json:"sandbox_init_point"`
	PayerEmail        string        `json:"payer_email"`
	Reason            string        `json:"reason"`
	AutoRecurring     AutoRecurring `json:"auto_recurring"`
}

// APIError carries a non-2xx processor response verbatim so callers can
// surface the upstream status and body for debugging. These calls are
// user-initiated and never retried automatically.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mercadopago: upstream status %d: %s", e.StatusCode, e.Body)
}

// Client talks to the preapproval API with bearer-token auth.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewClient creates a processor client. The access token is a hard
// precondition; the portal cannot run billing without it.
func NewClient(cfg Config) (*Client, error) {
	if cfg.AccessToken == "" {
		return nil, ErrMissingAccessToken
	}

	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.AccessToken,
	}, nil
}

// CreatePreapproval submits a new pending agreement and returns it with
// the processor-assigned id and hosted checkout URL.
func (c *Client) CreatePreapproval(ctx context.Context, req CreatePreapprovalRequest) (*Preapproval, error) {
	return c.do(ctx, http.MethodPost, "/preapproval", req)
}

// GetPreapproval reads the authoritative agreement record.
func (c *Client) GetPreapproval(ctx context.Context, id string) (*Preapproval, error) {
	return c.do(ctx, http.MethodGet, "/preapproval/"+id, nil)
}

// CancelPreapproval requests cancellation of an agreement. The processor
// treats cancelling an already-cancelled agreement as a no-op.
func (c *Client) CancelPreapproval(ctx context.Context, id string) (*Preapproval, error) {
	return c.do(ctx, http.MethodPut, "/preapproval/"+id, map[string]string{"status": StatusCancelled})
}

func (c *Client) do(ctx context.Context, method, path string, payload any) (*Preapproval, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("mercadopago: failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("mercadopago: failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mercadopago: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("mercadopago: failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var pa Preapproval
	if err := json.Unmarshal(respBody, &pa); err != nil {
		return nil, fmt.Errorf("mercadopago: failed to decode response: %w", err)
	}
	return &pa, nil
}
