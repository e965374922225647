package repository

import (
	"context"
	"errors"

	"github.com/farmlinkgh/wallet-backend/internal/models"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("not found")

type Transactions interface {
	// Create inserts a pending row. A conflict on (provider, provider_reference)
	// means the attempt already exists; the existing row is returned instead of
	// an error.
	Create(ctx context.Context, tx models.Transaction) (models.Transaction, error)
	GetByID(ctx context.Context, id string) (models.Transaction, error)
	GetByReference(ctx context.Context, reference string) (models.Transaction, error)
	GetByClientRequestID(ctx context.Context, userID, requestID string) (models.Transaction, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Transaction, error)

	// Settle is the single guarded transition: an atomic conditional update that
	// moves the row with this provider reference out of pending. It reports
	// whether this call performed the transition; false with a nil error is the
	// idempotent already-terminal no-op. settledAmount, when non-nil, is recorded
	// alongside the immutable original amount.
	Settle(ctx context.Context, reference string, to models.TransactionStatus, settledAmount *decimal.Decimal) (models.Transaction, bool, error)

	// Refund moves a completed row to refunded under the same conditional-update
	// discipline.
	Refund(ctx context.Context, id string) (models.Transaction, bool, error)

	// Balance derives the user-visible balance from the ledger: completed
	// deposits minus completed withdrawals, payments and transfers. Never read
	// from a stored counter.
	Balance(ctx context.Context, userID string) (decimal.Decimal, error)
}

type LinkedAccounts interface {
	Create(ctx context.Context, a models.LinkedAccount) (models.LinkedAccount, error)
	GetByID(ctx context.Context, id string) (models.LinkedAccount, error)
	ListByUser(ctx context.Context, userID string) ([]models.LinkedAccount, error)
}

type AuditLogs interface {
	Create(ctx context.Context, l models.AuditLog) error
}
