package reconcile

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
)

func TestRegexExtractMomoSMS(t *testing.T) {
	text := "Payment received for GHS 500.00 from KWAME MENSAH on 2026-03-14. " +
		"Current Balance: GHS 742.10. Transaction ID: MP2603141422817."

	c, err := RegexExtractor{}.Extract(context.Background(), text)
	if err != nil {
		t.Fatal(err)
	}
	if c.Reference != "MP2603141422817" {
		t.Errorf("reference = %q, want MP2603141422817", c.Reference)
	}
	if c.Amount == nil || !c.Amount.Equal(decimal.RequireFromString("500.00")) {
		t.Errorf("amount = %v, want 500.00", c.Amount)
	}
	if c.Sender != "KWAME MENSAH" {
		t.Errorf("sender = %q, want KWAME MENSAH", c.Sender)
	}
	if c.Date == nil || c.Date.Format("2006-01-02") != "2026-03-14" {
		t.Errorf("date = %v, want 2026-03-14", c.Date)
	}
	if c.Confidence < 0.8 {
		t.Errorf("confidence = %v, want >= 0.8 with all fields present", c.Confidence)
	}
}

func TestRegexExtractAmbiguous(t *testing.T) {
	c, err := RegexExtractor{}.Extract(context.Background(), "thanks, money sent yesterday")
	if err != nil {
		t.Fatal(err)
	}
	if c.Reference != "" {
		t.Errorf("reference = %q, want empty", c.Reference)
	}
	if c.Confidence >= 0.5 {
		t.Errorf("confidence = %v, want < 0.5 for ambiguous text", c.Confidence)
	}
}

func TestRegexExtractCommaAmount(t *testing.T) {
	c, err := RegexExtractor{}.Extract(context.Background(),
		"You have received GHS 1,250.50 from AMA SERWAA. Ref: FLW-8821AB34CD.")
	if err != nil {
		t.Fatal(err)
	}
	if c.Amount == nil || !c.Amount.Equal(decimal.RequireFromString("1250.50")) {
		t.Errorf("amount = %v, want 1250.50", c.Amount)
	}
	if c.Reference != "FLW-8821AB34CD" {
		t.Errorf("reference = %q, want FLW-8821AB34CD", c.Reference)
	}
}
