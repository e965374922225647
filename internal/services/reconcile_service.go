package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/farmlinkgh/wallet-backend/internal/metrics"
	"github.com/farmlinkgh/wallet-backend/internal/models"
	"github.com/farmlinkgh/wallet-backend/internal/reconcile"
	repo "github.com/farmlinkgh/wallet-backend/internal/repository"
	"github.com/shopspring/decimal"
)

// Below this confidence an analysis is never presented as ready-to-execute.
const reviewThreshold = 0.8

type Analysis struct {
	Reference         string           `json:"reference"`
	Amount            *decimal.Decimal `json:"amount,omitempty"`
	Date              *time.Time       `json:"date,omitempty"`
	Sender            string           `json:"sender,omitempty"`
	Confidence        float64          `json:"confidence"`
	ProposedStatement string           `json:"proposed_statement,omitempty"`
	NeedsReview       bool             `json:"needs_review"`
	ReviewReason      string           `json:"review_reason,omitempty"`
}

// ReconcileService is the human-gated path for transactions whose settlement
// webhook never arrived. Analyze is purely advisory; Execute is the operator's
// explicit trigger and routes through the settlement service's guarded
// transition, so it can never flip state the webhook path could not.
type ReconcileService struct {
	trx         repo.Transactions
	audit       repo.AuditLogs
	settlements *SettlementService
	extractor   reconcile.Extractor
	fallback    reconcile.Extractor
	log         *slog.Logger
}

func NewReconcileService(t repo.Transactions, a repo.AuditLogs, st *SettlementService, ex reconcile.Extractor, log *slog.Logger) *ReconcileService {
	return &ReconcileService{
		trx:         t,
		audit:       a,
		settlements: st,
		extractor:   ex,
		fallback:    reconcile.RegexExtractor{},
		log:         log,
	}
}

// Analyze extracts a structured candidate from a forwarded confirmation
// message and proposes a correction scoped to the single row matching the
// extracted reference. It never writes to the ledger.
func (s *ReconcileService) Analyze(ctx context.Context, text string) (Analysis, error) {
	if strings.TrimSpace(text) == "" {
		return Analysis{}, errValidation("message text required")
	}

	cand, err := s.extractor.Extract(ctx, text)
	if err != nil {
		s.log.Warn("text extractor unavailable, using pattern fallback", "err", err)
		cand, err = s.fallback.Extract(ctx, text)
		if err != nil {
			return Analysis{}, err
		}
	}

	a := Analysis{
		Reference:  cand.Reference,
		Amount:     cand.Amount,
		Date:       cand.Date,
		Sender:     cand.Sender,
		Confidence: cand.Confidence,
	}

	switch {
	case a.Reference == "":
		a.flag("no reference could be extracted")
	case a.Confidence < reviewThreshold:
		a.flag("extraction confidence too low")
	case a.Amount == nil:
		a.flag("no amount could be extracted")
	default:
		tx, err := s.trx.GetByReference(ctx, a.Reference)
		switch {
		case errors.Is(err, repo.ErrNotFound):
			a.flag("no ledger row matches the reference")
		case err != nil:
			return Analysis{}, err
		case tx.Status != models.TxnPending:
			a.flag(fmt.Sprintf("transaction already %s", tx.Status))
		case !tx.Amount.Equal(*a.Amount):
			a.flag(fmt.Sprintf("extracted amount %s differs from ledger amount %s", a.Amount, tx.Amount))
		}
	}

	if a.Reference != "" {
		a.ProposedStatement = fmt.Sprintf(
			"UPDATE transactions SET status='completed' WHERE provider_reference='%s' AND status='pending'",
			a.Reference)
	}

	result := "ready"
	if a.NeedsReview {
		result = "needs_review"
	}
	metrics.ReconcileAnalyses.WithLabelValues(result).Inc()
	return a, nil
}

func (a *Analysis) flag(reason string) {
	a.NeedsReview = true
	if a.ReviewReason == "" {
		a.ReviewReason = reason
	}
}

// Execute performs the approved correction for a reference. It is the same
// pending-only transition the webhook handler uses; a webhook delivery racing
// this call is safe, the loser observes a no-op.
func (s *ReconcileService) Execute(ctx context.Context, operator, reference string) (SettleResult, error) {
	if strings.TrimSpace(reference) == "" {
		return SettleResult{}, errValidation("reference required")
	}

	res, err := s.settlements.Apply(ctx, models.SettlementEvent{
		Reference: reference,
		RawStatus: "manual_reconciliation",
		Success:   true,
	})
	if err != nil {
		return SettleResult{}, err
	}

	id := res.Transaction.ID
	if err := s.audit.Create(ctx, models.AuditLog{
		EntityType: "transaction",
		EntityID:   &id,
		Action:     "manual_reconciliation",
		Details:    map[string]any{"operator": operator, "outcome": res.Outcome},
	}); err != nil {
		s.log.Error("audit write failed", "transaction", id, "err", err)
	}
	metrics.ReconcileExecutions.Inc()
	return res, nil
}
