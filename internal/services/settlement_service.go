package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/farmlinkgh/wallet-backend/internal/events"
	"github.com/farmlinkgh/wallet-backend/internal/metrics"
	"github.com/farmlinkgh/wallet-backend/internal/models"
	"github.com/farmlinkgh/wallet-backend/internal/notify"
	repo "github.com/farmlinkgh/wallet-backend/internal/repository"
	"github.com/farmlinkgh/wallet-backend/internal/worker"
	"github.com/shopspring/decimal"
)

type SettleOutcome string

const (
	SettleCompleted SettleOutcome = "completed"
	SettleFailed    SettleOutcome = "failed"
	SettleRefunded  SettleOutcome = "refunded"
	SettleNoop      SettleOutcome = "noop"
)

type SettleResult struct {
	Outcome     SettleOutcome      `json:"outcome"`
	Transaction models.Transaction `json:"transaction"`
}

// SettlementService owns the only code path that moves a ledger row out of
// pending. Both the webhook handler and operator reconciliation go through
// Apply; neither has a write path of its own.
type SettlementService struct {
	trx   repo.Transactions
	audit repo.AuditLogs
	hub   *notify.Hub
	pub   events.Publisher
	wp    *worker.Pool
	log   *slog.Logger
}

func NewSettlementService(t repo.Transactions, a repo.AuditLogs, hub *notify.Hub, pub events.Publisher, wp *worker.Pool, log *slog.Logger) *SettlementService {
	return &SettlementService{trx: t, audit: a, hub: hub, pub: pub, wp: wp, log: log}
}

// Apply transitions the referenced row to its terminal state. Deliveries are
// at-least-once and may race: the store's conditional update decides a single
// winner, every loser observes the already-terminal row and reports a no-op.
// The change notification fires exactly once per transition, never per
// delivered event.
func (s *SettlementService) Apply(ctx context.Context, ev models.SettlementEvent) (SettleResult, error) {
	target := models.TxnFailed
	var settled *decimal.Decimal
	if ev.Success {
		target = models.TxnCompleted
		settled = ev.Amount
	}

	tx, transitioned, err := s.trx.Settle(ctx, ev.Reference, target, settled)
	if errors.Is(err, repo.ErrNotFound) {
		metrics.SettlementsTotal.WithLabelValues("orphan").Inc()
		s.log.Warn("orphan settlement event",
			"reference", ev.Reference, "provider", ev.Provider, "raw_status", ev.RawStatus)
		return SettleResult{}, fmt.Errorf("%w: %s", ErrOrphanReference, ev.Reference)
	}
	if err != nil {
		return SettleResult{}, err
	}

	if !transitioned {
		metrics.SettlementsTotal.WithLabelValues("noop").Inc()
		return SettleResult{Outcome: SettleNoop, Transaction: tx}, nil
	}

	s.recordTransition(ctx, tx, ev.RawStatus)

	outcome := SettleFailed
	if target == models.TxnCompleted {
		outcome = SettleCompleted
	}
	return SettleResult{Outcome: outcome, Transaction: tx}, nil
}

// Refund moves a completed transaction to refunded, under the same
// conditional-update discipline as Apply.
func (s *SettlementService) Refund(ctx context.Context, transactionID string) (SettleResult, error) {
	tx, transitioned, err := s.trx.Refund(ctx, transactionID)
	if err != nil {
		return SettleResult{}, err
	}
	if !transitioned {
		metrics.SettlementsTotal.WithLabelValues("noop").Inc()
		return SettleResult{Outcome: SettleNoop, Transaction: tx}, nil
	}
	s.recordTransition(ctx, tx, "refund")
	return SettleResult{Outcome: SettleRefunded, Transaction: tx}, nil
}

func (s *SettlementService) recordTransition(ctx context.Context, tx models.Transaction, reason string) {
	id := tx.ID
	if err := s.audit.Create(ctx, models.AuditLog{
		EntityType: "transaction",
		EntityID:   &id,
		Action:     "status_change",
		Details:    map[string]any{"status": tx.Status, "raw_status": reason},
	}); err != nil {
		s.log.Error("audit write failed", "transaction", tx.ID, "err", err)
	}
	metrics.SettlementsTotal.WithLabelValues(string(tx.Status)).Inc()

	// Notification is best-effort and decoupled from the commit: a dead client
	// or broker must never roll back a settlement.
	s.hub.Notify(tx.UserID)
	ev := events.ChangeEvent{
		UserID:        tx.UserID,
		TransactionID: tx.ID,
		Status:        tx.Status,
		OccurredAt:    time.Now(),
	}
	s.wp.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.pub.Publish(ctx, ev); err != nil {
			s.log.Error("change event publish failed", "transaction", ev.TransactionID, "err", err)
		}
	})
}
