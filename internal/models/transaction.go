package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TxnDeposit    TransactionType = "deposit"
	TxnWithdrawal TransactionType = "withdrawal"
	TxnPayment    TransactionType = "payment"
	TxnTransfer   TransactionType = "transfer"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TxnDeposit, TxnWithdrawal, TxnPayment, TxnTransfer:
		return true
	}
	return false
}

// Debits reports whether a completed transaction of this type reduces the balance.
func (t TransactionType) Debits() bool { return t != TxnDeposit }

type TransactionStatus string

const (
	TxnPending   TransactionStatus = "pending"
	TxnCompleted TransactionStatus = "completed"
	TxnFailed    TransactionStatus = "failed"
	TxnRefunded  TransactionStatus = "refunded"
)

func (s TransactionStatus) Terminal() bool { return s != TxnPending }

// CanTransition encodes the status machine: pending→completed, pending→failed,
// completed→refunded. A repeat of the current terminal state is handled as a
// no-op at the store, not here.
func (s TransactionStatus) CanTransition(to TransactionStatus) bool {
	switch s {
	case TxnPending:
		return to == TxnCompleted || to == TxnFailed
	case TxnCompleted:
		return to == TxnRefunded
	}
	return false
}

type Transaction struct {
	ID                string            `json:"id"`
	UserID            string            `json:"user_id"`
	Amount            decimal.Decimal   `json:"amount"`
	SettledAmount     *decimal.Decimal  `json:"settled_amount,omitempty"`
	Provider          string            `json:"provider"`
	ProviderReference string            `json:"provider_reference"`
	ClientRequestID   *string           `json:"client_request_id,omitempty"`
	Status            TransactionStatus `json:"status"`
	Type              TransactionType   `json:"type"`
	PhoneNumber       string            `json:"phone_number,omitempty"`
	Description       string            `json:"description,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	SettledAt         *time.Time        `json:"settled_at,omitempty"`
}

// EffectiveAmount is what the balance projection counts: the provider's final
// amount when settlement adjusted it, the original intent otherwise.
func (t Transaction) EffectiveAmount() decimal.Decimal {
	if t.SettledAmount != nil {
		return *t.SettledAmount
	}
	return t.Amount
}
