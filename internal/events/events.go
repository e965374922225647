package events

import (
	"context"
	"time"

	"github.com/farmlinkgh/wallet-backend/internal/models"
)

// ChangeEvent announces that a user's ledger changed. It deliberately carries
// no amounts: consumers re-fetch balance and history from the ledger rather
// than applying deltas.
type ChangeEvent struct {
	UserID        string                   `json:"user_id"`
	TransactionID string                   `json:"transaction_id"`
	Status        models.TransactionStatus `json:"status"`
	OccurredAt    time.Time                `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, event ChangeEvent) error
}

// Noop satisfies Publisher where no broker is configured (dev, tests).
type Noop struct{}

func (Noop) Publish(ctx context.Context, event ChangeEvent) error { return nil }
