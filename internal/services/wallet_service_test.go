package services

import (
	"context"
	"testing"
	"time"

	"github.com/farmlinkgh/wallet-backend/internal/models"
	"github.com/shopspring/decimal"
)

func seedAccount(t *testing.T, e *env, userID string) models.LinkedAccount {
	t.Helper()
	a, err := e.accounts.Create(context.Background(), models.LinkedAccount{
		UserID:        userID,
		Kind:          models.AccountMobileMoney,
		Provider:      "MTN",
		AccountNumber: "0244123456",
		AccountName:   "Akosua Farms",
	})
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestInitiateRejectsBeforeAnyWrite(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	acct := seedAccount(t, e, "u1")

	for _, amount := range []int64{-5, 0} {
		_, err := e.wallet.Initiate(ctx, "u1", InitiateInput{
			Amount:          decimal.NewFromInt(amount),
			Provider:        "MTN",
			Type:            models.TxnDeposit,
			LinkedAccountID: acct.ID,
		})
		if !IsValidation(err) {
			t.Fatalf("amount %d: err = %v, want validation error", amount, err)
		}
	}

	rows, err := e.store.ListByUser(ctx, "u1", 50, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Fatalf("ledger rows = %d, want 0 after rejected initiations", len(rows))
	}
}

func TestInitiateInsufficientFundsIncludingFees(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seedCompleted(t, e, "u1", "SEED-1", 101, models.TxnDeposit)

	// amount 100 carries fee 1 + levy 1 = total 102 > 101
	_, err := e.wallet.Initiate(ctx, "u1", InitiateInput{
		Amount:      decimal.NewFromInt(100),
		Provider:    "MTN",
		Type:        models.TxnTransfer,
		PhoneNumber: "0244123456",
	})
	if !IsValidation(err) {
		t.Fatalf("err = %v, want validation error", err)
	}

	rows, _ := e.store.ListByUser(ctx, "u1", 50, 0)
	if len(rows) != 1 {
		t.Fatalf("ledger rows = %d, want only the seed row", len(rows))
	}
}

func TestInitiatePaymentUsesBareAmount(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seedCompleted(t, e, "u1", "SEED-1", 100, models.TxnDeposit)

	// A payment of the full balance is allowed; fees apply to transfers and
	// withdrawals only.
	if _, err := e.wallet.Initiate(ctx, "u1", InitiateInput{
		Amount:      decimal.NewFromInt(100),
		Provider:    "MTN",
		Type:        models.TxnPayment,
		PhoneNumber: "0244123456",
	}); err != nil {
		t.Fatalf("payment rejected: %v", err)
	}
}

func TestInitiateRejectsForeignLinkedAccount(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	other := seedAccount(t, e, "u2")

	_, err := e.wallet.Initiate(ctx, "u1", InitiateInput{
		Amount:          decimal.NewFromInt(50),
		Provider:        "MTN",
		Type:            models.TxnDeposit,
		LinkedAccountID: other.ID,
	})
	if !IsValidation(err) {
		t.Fatalf("err = %v, want validation error for foreign account", err)
	}
}

func TestInitiateRejectsMalformedDestination(t *testing.T) {
	e := newEnv(t)
	seedCompleted(t, e, "u1", "SEED-1", 500, models.TxnDeposit)

	_, err := e.wallet.Initiate(context.Background(), "u1", InitiateInput{
		Amount:      decimal.NewFromInt(10),
		Provider:    "MTN",
		Type:        models.TxnTransfer,
		PhoneNumber: "not-a-number",
	})
	if !IsValidation(err) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestHappyPathDeposit(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	acct := seedAccount(t, e, "u1")

	tx, err := e.wallet.Initiate(ctx, "u1", InitiateInput{
		Amount:          decimal.NewFromInt(500),
		Provider:        "MTN",
		Type:            models.TxnDeposit,
		LinkedAccountID: acct.ID,
	})
	if err != nil {
		t.Fatal(err)
	}
	if tx.Status != models.TxnPending {
		t.Fatalf("status = %s, want pending", tx.Status)
	}
	if tx.ProviderReference == "" {
		t.Fatal("no provider reference generated")
	}

	// Balance does not move until settlement confirms.
	b, _ := e.wallet.Balance(ctx, "u1")
	if !b.IsZero() {
		t.Fatalf("balance = %s before settlement, want 0", b)
	}

	res, err := e.settlements.Apply(ctx, models.SettlementEvent{
		Reference: tx.ProviderReference, RawStatus: "successful", Success: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != SettleCompleted {
		t.Fatalf("outcome = %s, want completed", res.Outcome)
	}

	b, _ = e.wallet.Balance(ctx, "u1")
	if !b.Equal(decimal.NewFromInt(500)) {
		t.Errorf("balance = %s, want 500", b)
	}

	e.drain()
	subs := e.gw.submitted()
	if len(subs) != 1 || subs[0].Reference != tx.ProviderReference {
		t.Errorf("gateway hand-offs = %v, want one for %s", subs, tx.ProviderReference)
	}
}

func TestInitiateIdempotencyKey(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	acct := seedAccount(t, e, "u1")

	in := InitiateInput{
		Amount:          decimal.NewFromInt(50),
		Provider:        "MTN",
		Type:            models.TxnDeposit,
		LinkedAccountID: acct.ID,
		RequestID:       "req-abc",
	}

	first, err := e.wallet.Initiate(ctx, "u1", in)
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.wallet.Initiate(ctx, "u1", in)
	if err != nil {
		t.Fatal(err)
	}
	if first.ID != second.ID {
		t.Errorf("retried initiation created a new row: %s vs %s", first.ID, second.ID)
	}

	rows, _ := e.store.ListByUser(ctx, "u1", 50, 0)
	if len(rows) != 1 {
		t.Errorf("ledger rows = %d, want 1", len(rows))
	}
}

func TestHandoffFailureLeavesPendingRow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	acct := seedAccount(t, e, "u1")
	e.gw.err = context.DeadlineExceeded

	tx, err := e.wallet.Initiate(ctx, "u1", InitiateInput{
		Amount:          decimal.NewFromInt(20),
		Provider:        "MTN",
		Type:            models.TxnDeposit,
		LinkedAccountID: acct.ID,
	})
	if err != nil {
		t.Fatal(err)
	}
	e.drain()

	got, err := e.store.GetByID(ctx, tx.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.TxnPending {
		t.Errorf("status = %s, want pending after failed hand-off", got.Status)
	}
}

func TestHistoryMostRecentFirst(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i, ref := range []string{"R1", "R2", "R3"} {
		if _, err := e.store.Create(ctx, models.Transaction{
			UserID:            "u1",
			Amount:            decimal.NewFromInt(int64(10 * (i + 1))),
			Provider:          "MTN",
			ProviderReference: ref,
			Status:            models.TxnPending,
			Type:              models.TxnDeposit,
			CreatedAt:         base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatal(err)
		}
	}

	txs, err := e.wallet.History(ctx, "u1", 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(txs) != 3 {
		t.Fatalf("history length = %d, want 3", len(txs))
	}
	for i := 1; i < len(txs); i++ {
		if txs[i].CreatedAt.After(txs[i-1].CreatedAt) {
			t.Fatalf("history not ordered most recent first: %v", txs)
		}
	}
}

func TestQuote(t *testing.T) {
	e := newEnv(t)

	q, err := e.wallet.Quote(decimal.NewFromInt(100))
	if err != nil {
		t.Fatal(err)
	}
	if !q.Total.Equal(decimal.NewFromInt(102)) {
		t.Errorf("total = %s, want 102", q.Total)
	}

	if _, err := e.wallet.Quote(decimal.Zero); !IsValidation(err) {
		t.Errorf("err = %v, want validation error", err)
	}
}
