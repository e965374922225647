package models

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrNoReference marks a webhook payload from which no idempotency key could be
// extracted. This is the only malformed-payload case; everything else parses
// into a canonical event.
var ErrNoReference = errors.New("settlement payload carries no reference")

// SettlementEvent is the canonical form every provider payload is normalized
// into at the boundary, whatever field names the provider used on the wire.
type SettlementEvent struct {
	Reference string
	Provider  string
	Amount    *decimal.Decimal
	RawStatus string
	Success   bool
}

// successTokens is the exhaustive allow-list of provider vocabulary accepted as
// a successful settlement. Unknown tokens are failures, never guessed at.
var successTokens = map[string]struct{}{
	"success":    {},
	"successful": {},
	"completed":  {},
	"paid":       {},
	"00":         {},
}

func SuccessToken(status string) bool {
	_, ok := successTokens[strings.ToLower(strings.TrimSpace(status))]
	return ok
}

// ParseSettlementEvent normalizes a provider webhook body. Providers disagree
// on field names, so the reference is taken from the first present of
// reference | external_id | provider_reference, and the amount from
// amount | final_amount. Amounts arrive as JSON numbers or strings.
func ParseSettlementEvent(body []byte) (SettlementEvent, error) {
	var raw struct {
		Reference         string           `json:"reference"`
		ExternalID        string           `json:"external_id"`
		ProviderReference string           `json:"provider_reference"`
		Amount            *decimal.Decimal `json:"amount"`
		FinalAmount       *decimal.Decimal `json:"final_amount"`
		Status            string           `json:"status"`
		Provider          string           `json:"provider"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return SettlementEvent{}, err
	}

	ref := firstNonEmpty(raw.Reference, raw.ExternalID, raw.ProviderReference)
	if ref == "" {
		return SettlementEvent{}, ErrNoReference
	}

	amount := raw.Amount
	if amount == nil {
		amount = raw.FinalAmount
	}

	return SettlementEvent{
		Reference: ref,
		Provider:  raw.Provider,
		Amount:    amount,
		RawStatus: raw.Status,
		Success:   SuccessToken(raw.Status),
	}, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
