package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/farmlinkgh/wallet-backend/internal/models"
	"github.com/shopspring/decimal"
)

// Request is the hand-off to the external payment network. Settlement comes
// back later through the webhook, never through this call's response.
type Request struct {
	Reference   string                 `json:"reference"`
	Provider    string                 `json:"provider"`
	Type        models.TransactionType `json:"type"`
	Amount      decimal.Decimal        `json:"amount"`
	Currency    string                 `json:"currency"`
	PhoneNumber string                 `json:"phone_number,omitempty"`
	AccountID   string                 `json:"account_id,omitempty"`
}

type Gateway interface {
	Submit(ctx context.Context, req Request) error
}

// HTTPGateway posts charge/payout requests to the payment network's collection
// API. A non-2xx response means the hand-off did not happen; the pending
// ledger row stays as the durable record either way.
type HTTPGateway struct {
	baseURL string
	secret  string
	client  *http.Client
}

func NewHTTPGateway(baseURL, secret string) *HTTPGateway {
	return &HTTPGateway{
		baseURL: baseURL,
		secret:  secret,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *HTTPGateway) Submit(ctx context.Context, req Request) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/charges", bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.secret)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gateway returned %d for %s", resp.StatusCode, req.Reference)
	}
	return nil
}
