package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/farmlinkgh/wallet-backend/internal/models"
	"github.com/shopspring/decimal"
)

func seedPending(t *testing.T, e *env, userID, ref string, amount int64, typ models.TransactionType) models.Transaction {
	t.Helper()
	tx, err := e.store.Create(context.Background(), models.Transaction{
		UserID:            userID,
		Amount:            decimal.NewFromInt(amount),
		Provider:          "MTN",
		ProviderReference: ref,
		Status:            models.TxnPending,
		Type:              typ,
	})
	if err != nil {
		t.Fatal(err)
	}
	return tx
}

func seedCompleted(t *testing.T, e *env, userID, ref string, amount int64, typ models.TransactionType) models.Transaction {
	t.Helper()
	seedPending(t, e, userID, ref, amount, typ)
	tx, _, err := e.store.Settle(context.Background(), ref, models.TxnCompleted, nil)
	if err != nil {
		t.Fatal(err)
	}
	return tx
}

func TestApplyCompletesPendingDeposit(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seedPending(t, e, "u1", "REF-1", 500, models.TxnDeposit)

	res, err := e.settlements.Apply(ctx, models.SettlementEvent{
		Reference: "REF-1", RawStatus: "successful", Success: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != SettleCompleted {
		t.Fatalf("outcome = %s, want completed", res.Outcome)
	}

	b, err := e.store.Balance(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if !b.Equal(decimal.NewFromInt(500)) {
		t.Errorf("balance = %s, want 500", b)
	}
}

func TestApplyIdempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seedPending(t, e, "u1", "REF-1", 500, models.TxnDeposit)

	ev := models.SettlementEvent{Reference: "REF-1", RawStatus: "success", Success: true}

	first, err := e.settlements.Apply(ctx, ev)
	if err != nil {
		t.Fatal(err)
	}
	if first.Outcome != SettleCompleted {
		t.Fatalf("first outcome = %s, want completed", first.Outcome)
	}

	// At-least-once delivery: replays must be no-ops with identical end state.
	for i := 0; i < 3; i++ {
		res, err := e.settlements.Apply(ctx, ev)
		if err != nil {
			t.Fatal(err)
		}
		if res.Outcome != SettleNoop {
			t.Fatalf("replay outcome = %s, want noop", res.Outcome)
		}
	}

	b, _ := e.store.Balance(ctx, "u1")
	if !b.Equal(decimal.NewFromInt(500)) {
		t.Errorf("balance after replays = %s, want 500", b)
	}

	e.drain()
	if n := e.pub.n.Load(); n != 1 {
		t.Errorf("change events published = %d, want exactly 1", n)
	}
}

func TestApplyFailureVocabulary(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seedPending(t, e, "u1", "REF-1", 500, models.TxnDeposit)

	// Unknown vendor vocabulary is a failure, never a silent success.
	res, err := e.settlements.Apply(ctx, models.SettlementEvent{
		Reference: "REF-1", RawStatus: "REVERSED", Success: models.SuccessToken("REVERSED"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != SettleFailed {
		t.Fatalf("outcome = %s, want failed", res.Outcome)
	}
	if res.Transaction.Status != models.TxnFailed {
		t.Errorf("status = %s, want failed", res.Transaction.Status)
	}

	b, _ := e.store.Balance(ctx, "u1")
	if !b.IsZero() {
		t.Errorf("balance = %s, want 0 after failed deposit", b)
	}
}

func TestApplyOrphanReference(t *testing.T) {
	e := newEnv(t)

	_, err := e.settlements.Apply(context.Background(), models.SettlementEvent{
		Reference: "NEVER-SEEN", RawStatus: "success", Success: true,
	})
	if !errors.Is(err, ErrOrphanReference) {
		t.Fatalf("err = %v, want ErrOrphanReference", err)
	}

	// No row is fabricated from a webhook.
	if _, err := e.store.GetByReference(context.Background(), "NEVER-SEEN"); err == nil {
		t.Fatal("orphan event must not create a ledger row")
	}
}

func TestApplyRecordsSettledAmount(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seedPending(t, e, "u1", "REF-1", 500, models.TxnDeposit)

	final := decimal.NewFromInt(498)
	_, err := e.settlements.Apply(ctx, models.SettlementEvent{
		Reference: "REF-1", RawStatus: "success", Success: true, Amount: &final,
	})
	if err != nil {
		t.Fatal(err)
	}

	tx, _ := e.store.GetByReference(ctx, "REF-1")
	if !tx.Amount.Equal(decimal.NewFromInt(500)) {
		t.Errorf("original amount mutated to %s", tx.Amount)
	}
	if tx.SettledAmount == nil || !tx.SettledAmount.Equal(final) {
		t.Errorf("settled_amount = %v, want 498", tx.SettledAmount)
	}

	// Balance counts the provider's final amount, not the original intent.
	b, _ := e.store.Balance(ctx, "u1")
	if !b.Equal(final) {
		t.Errorf("balance = %s, want 498", b)
	}
}

func TestApplyConcurrentSameReference(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seedPending(t, e, "u1", "REF-1", 500, models.TxnDeposit)

	ev := models.SettlementEvent{Reference: "REF-1", RawStatus: "success", Success: true}

	const deliveries = 16
	var wg sync.WaitGroup
	outcomes := make(chan SettleOutcome, deliveries)
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := e.settlements.Apply(ctx, ev)
			if err != nil {
				t.Error(err)
				return
			}
			outcomes <- res.Outcome
		}()
	}
	wg.Wait()
	close(outcomes)

	var completed, noop int
	for o := range outcomes {
		switch o {
		case SettleCompleted:
			completed++
		case SettleNoop:
			noop++
		}
	}
	if completed != 1 {
		t.Errorf("completed transitions = %d, want exactly 1", completed)
	}
	if noop != deliveries-1 {
		t.Errorf("noops = %d, want %d", noop, deliveries-1)
	}

	e.drain()
	if n := e.pub.n.Load(); n != 1 {
		t.Errorf("change events published = %d, want exactly 1", n)
	}

	b, _ := e.store.Balance(ctx, "u1")
	if !b.Equal(decimal.NewFromInt(500)) {
		t.Errorf("balance = %s, want 500", b)
	}
}

func TestRefund(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tx := seedCompleted(t, e, "u1", "REF-1", 500, models.TxnDeposit)

	res, err := e.settlements.Refund(ctx, tx.ID)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != SettleRefunded {
		t.Fatalf("outcome = %s, want refunded", res.Outcome)
	}

	// Refunded rows leave the balance projection.
	b, _ := e.store.Balance(ctx, "u1")
	if !b.IsZero() {
		t.Errorf("balance = %s, want 0 after refund", b)
	}

	// Second refund is a no-op; a pending row cannot be refunded.
	res, err = e.settlements.Refund(ctx, tx.ID)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != SettleNoop {
		t.Errorf("second refund outcome = %s, want noop", res.Outcome)
	}

	pend := seedPending(t, e, "u1", "REF-2", 100, models.TxnDeposit)
	res, err = e.settlements.Refund(ctx, pend.ID)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != SettleNoop {
		t.Errorf("refund of pending row = %s, want noop", res.Outcome)
	}
}

func TestTransitionNotifiesSubscriber(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seedPending(t, e, "u1", "REF-1", 500, models.TxnDeposit)

	ch, cancel := e.hub.Subscribe("u1")
	defer cancel()

	if _, err := e.settlements.Apply(ctx, models.SettlementEvent{
		Reference: "REF-1", RawStatus: "paid", Success: true,
	}); err != nil {
		t.Fatal(err)
	}

	select {
	case <-ch:
	default:
		t.Fatal("subscriber did not receive a change tick")
	}
}
