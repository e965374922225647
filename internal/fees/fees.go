package fees

import "github.com/shopspring/decimal"

// Platform fee and statutory e-levy, both flat percentages of the amount.
var (
	feeRate  = decimal.NewFromFloat(0.01)
	levyRate = decimal.NewFromFloat(0.01)
)

type Quote struct {
	Amount decimal.Decimal `json:"amount"`
	Fee    decimal.Decimal `json:"fee"`
	Levy   decimal.Decimal `json:"levy"`
	Total  decimal.Decimal `json:"total"`
}

// Compute is pure: no I/O, no clock. Total is what the sender's balance must
// cover for a transfer or withdrawal to be accepted.
func Compute(amount decimal.Decimal) Quote {
	fee := amount.Mul(feeRate)
	levy := amount.Mul(levyRate)
	return Quote{
		Amount: amount,
		Fee:    fee,
		Levy:   levy,
		Total:  amount.Add(fee).Add(levy),
	}
}
