package models

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseSettlementEventFieldAliases(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		wantRef string
	}{
		{"reference", `{"reference":"R1","status":"success"}`, "R1"},
		{"external_id", `{"external_id":"R2","status":"success"}`, "R2"},
		{"provider_reference", `{"provider_reference":"R3","status":"success"}`, "R3"},
		{"reference wins", `{"reference":"R1","external_id":"R2","status":"success"}`, "R1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev, err := ParseSettlementEvent([]byte(tc.body))
			if err != nil {
				t.Fatal(err)
			}
			if ev.Reference != tc.wantRef {
				t.Errorf("reference = %q, want %q", ev.Reference, tc.wantRef)
			}
		})
	}
}

func TestParseSettlementEventAmount(t *testing.T) {
	ev, err := ParseSettlementEvent([]byte(`{"reference":"R1","amount":500,"status":"paid"}`))
	if err != nil {
		t.Fatal(err)
	}
	if ev.Amount == nil || !ev.Amount.Equal(decimal.NewFromInt(500)) {
		t.Errorf("amount = %v, want 500", ev.Amount)
	}

	// final_amount as a string, the other common provider shape
	ev, err = ParseSettlementEvent([]byte(`{"reference":"R1","final_amount":"498.50","status":"paid"}`))
	if err != nil {
		t.Fatal(err)
	}
	if ev.Amount == nil || !ev.Amount.Equal(decimal.RequireFromString("498.50")) {
		t.Errorf("amount = %v, want 498.50", ev.Amount)
	}
}

func TestParseSettlementEventStatusVocabulary(t *testing.T) {
	cases := []struct {
		status string
		want   bool
	}{
		{"success", true},
		{"SUCCESSFUL", true},
		{"Completed", true},
		{"paid", true},
		{"00", true},
		{"failed", false},
		{"REVERSED", false},
		{"successfullish", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := SuccessToken(tc.status); got != tc.want {
			t.Errorf("SuccessToken(%q) = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestParseSettlementEventMissingReference(t *testing.T) {
	_, err := ParseSettlementEvent([]byte(`{"amount":500,"status":"success"}`))
	if !errors.Is(err, ErrNoReference) {
		t.Fatalf("err = %v, want ErrNoReference", err)
	}
}

func TestStatusMachine(t *testing.T) {
	legal := map[TransactionStatus][]TransactionStatus{
		TxnPending:   {TxnCompleted, TxnFailed},
		TxnCompleted: {TxnRefunded},
	}
	all := []TransactionStatus{TxnPending, TxnCompleted, TxnFailed, TxnRefunded}
	for _, from := range all {
		for _, to := range all {
			want := false
			for _, l := range legal[from] {
				if l == to {
					want = true
				}
			}
			if got := from.CanTransition(to); got != want {
				t.Errorf("CanTransition(%s -> %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}
