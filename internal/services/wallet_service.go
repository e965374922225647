package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/farmlinkgh/wallet-backend/internal/api/validate"
	"github.com/farmlinkgh/wallet-backend/internal/fees"
	"github.com/farmlinkgh/wallet-backend/internal/gateway"
	"github.com/farmlinkgh/wallet-backend/internal/metrics"
	"github.com/farmlinkgh/wallet-backend/internal/models"
	repo "github.com/farmlinkgh/wallet-backend/internal/repository"
	"github.com/farmlinkgh/wallet-backend/internal/worker"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type WalletService struct {
	trx      repo.Transactions
	accounts repo.LinkedAccounts
	audit    repo.AuditLogs
	gw       gateway.Gateway
	wp       *worker.Pool
	log      *slog.Logger
}

func NewWalletService(t repo.Transactions, a repo.LinkedAccounts, l repo.AuditLogs, gw gateway.Gateway, wp *worker.Pool, log *slog.Logger) *WalletService {
	return &WalletService{trx: t, accounts: a, audit: l, gw: gw, wp: wp, log: log}
}

type InitiateInput struct {
	Amount          decimal.Decimal        `json:"amount"`
	Provider        string                 `json:"provider"`
	Type            models.TransactionType `json:"type"`
	LinkedAccountID string                 `json:"linked_account_id,omitempty"`
	PhoneNumber     string                 `json:"phone_number,omitempty"`
	Description     string                 `json:"description,omitempty"`

	// RequestID is the caller's idempotency key. Optional; when present a
	// retried initiation returns the original attempt instead of creating a
	// second pending row.
	RequestID string `json:"-"`
}

// Initiate validates the request, writes exactly one pending ledger row, and
// hands off to the payment network asynchronously. The pending row is the
// durable commitment point: it exists even if the hand-off later fails, and
// settlement arrives only through the webhook path.
func (s *WalletService) Initiate(ctx context.Context, userID string, in InitiateInput) (models.Transaction, error) {
	var errs validate.Errs
	if !in.Type.Valid() {
		errs = append(errs, validate.ErrField{Field: "type", Msg: "must be deposit, withdrawal, payment or transfer"})
	}
	if ef := validate.Positive("amount", in.Amount); ef != nil {
		errs = append(errs, *ef)
	}
	if ef := validate.Required("provider", in.Provider); ef != nil {
		errs = append(errs, *ef)
	}
	switch in.Type {
	case models.TxnDeposit, models.TxnWithdrawal:
		if ef := validate.Required("linked_account_id", in.LinkedAccountID); ef != nil {
			errs = append(errs, *ef)
		}
	case models.TxnPayment, models.TxnTransfer:
		if ef := validate.Phone("phone_number", in.PhoneNumber); ef != nil {
			errs = append(errs, *ef)
		}
	}
	if len(errs) > 0 {
		return models.Transaction{}, &ValidationError{Msg: errs.Error(), Fields: errs}
	}

	if in.Type == models.TxnDeposit || in.Type == models.TxnWithdrawal {
		acct, err := s.accounts.GetByID(ctx, in.LinkedAccountID)
		if errors.Is(err, repo.ErrNotFound) {
			return models.Transaction{}, errValidation("unknown linked account")
		}
		if err != nil {
			return models.Transaction{}, err
		}
		if acct.UserID != userID {
			// do not leak whether the id exists for someone else
			return models.Transaction{}, errValidation("unknown linked account")
		}
	}

	if err := s.checkFunds(ctx, userID, in); err != nil {
		return models.Transaction{}, err
	}

	if in.RequestID != "" {
		if existing, err := s.trx.GetByClientRequestID(ctx, userID, in.RequestID); err == nil {
			return existing, nil
		} else if !errors.Is(err, repo.ErrNotFound) {
			return models.Transaction{}, err
		}
	}

	tx := models.Transaction{
		ID:                uuid.NewString(),
		UserID:            userID,
		Amount:            in.Amount,
		Provider:          in.Provider,
		ProviderReference: newReference(),
		Status:            models.TxnPending,
		Type:              in.Type,
		PhoneNumber:       in.PhoneNumber,
		Description:       in.Description,
	}
	if in.RequestID != "" {
		rid := in.RequestID
		tx.ClientRequestID = &rid
	}

	tx, err := s.trx.Create(ctx, tx)
	if err != nil {
		return models.Transaction{}, err
	}
	s.auditTxn(ctx, tx.ID, "created", fmt.Sprintf("%s initiated via %s", tx.Type, tx.Provider))
	metrics.TransactionsInitiated.WithLabelValues(string(tx.Type)).Inc()

	// Hand-off happens off the request path and never holds a lock. No retries
	// here: a caller retry is a new attempt with a new reference.
	req := gateway.Request{
		Reference:   tx.ProviderReference,
		Provider:    tx.Provider,
		Type:        tx.Type,
		Amount:      tx.Amount,
		Currency:    "GHS",
		PhoneNumber: tx.PhoneNumber,
		AccountID:   in.LinkedAccountID,
	}
	s.wp.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.gw.Submit(ctx, req); err != nil {
			// Row stays pending and inspectable; settlement or reconciliation
			// decides its fate.
			s.log.Error("gateway hand-off failed", "reference", req.Reference, "err", err)
			s.auditTxn(ctx, tx.ID, "handoff_failed", err.Error())
		}
	})

	return tx, nil
}

func (s *WalletService) checkFunds(ctx context.Context, userID string, in InitiateInput) error {
	var required decimal.Decimal
	switch in.Type {
	case models.TxnDeposit:
		return nil
	case models.TxnPayment:
		required = in.Amount
	default: // withdrawal, transfer carry fee + levy
		required = fees.Compute(in.Amount).Total
	}

	balance, err := s.trx.Balance(ctx, userID)
	if err != nil {
		return err
	}
	if required.GreaterThan(balance) {
		return errValidation("insufficient funds: need %s, have %s", required, balance)
	}
	return nil
}

// Balance is a projection over completed ledger rows, recomputed on demand.
// There is no stored counter to drift.
func (s *WalletService) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	return s.trx.Balance(ctx, userID)
}

func (s *WalletService) History(ctx context.Context, userID string, limit, offset int) ([]models.Transaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.trx.ListByUser(ctx, userID, limit, offset)
}

func (s *WalletService) GetTransaction(ctx context.Context, userID, id string) (models.Transaction, error) {
	tx, err := s.trx.GetByID(ctx, id)
	if err != nil {
		return models.Transaction{}, err
	}
	if tx.UserID != userID {
		return models.Transaction{}, repo.ErrNotFound
	}
	return tx, nil
}

func (s *WalletService) Quote(amount decimal.Decimal) (fees.Quote, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return fees.Quote{}, errValidation("amount must be greater than zero")
	}
	return fees.Compute(amount), nil
}

func (s *WalletService) AddAccount(ctx context.Context, userID string, a models.LinkedAccount) (models.LinkedAccount, error) {
	a.UserID = userID
	if err := a.Validate(); err != nil {
		return models.LinkedAccount{}, errValidation("%s", err)
	}
	return s.accounts.Create(ctx, a)
}

func (s *WalletService) Accounts(ctx context.Context, userID string) ([]models.LinkedAccount, error) {
	return s.accounts.ListByUser(ctx, userID)
}

func (s *WalletService) auditTxn(ctx context.Context, txID, action, details string) {
	var det map[string]any
	if details != "" {
		det = map[string]any{"message": details}
	}
	if err := s.audit.Create(ctx, models.AuditLog{
		EntityType: "transaction",
		EntityID:   &txID,
		Action:     action,
		Details:    det,
	}); err != nil {
		s.log.Error("audit write failed", "action", action, "err", err)
	}
}

func newReference() string {
	return "FLW-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:20])
}
