package models

import (
	"errors"
	"strings"
	"time"
)

type AccountKind string

const (
	AccountBank        AccountKind = "bank"
	AccountMobileMoney AccountKind = "momo"
)

// LinkedAccount is a payout/funding destination a user registered once and
// references by id when initiating deposits and withdrawals. The settlement
// path never touches it.
type LinkedAccount struct {
	ID            string      `json:"id"`
	UserID        string      `json:"user_id"`
	Kind          AccountKind `json:"kind"`
	Provider      string      `json:"provider"`
	AccountNumber string      `json:"account_number"`
	AccountName   string      `json:"account_name"`
	CreatedAt     time.Time   `json:"created_at"`
}

func (a *LinkedAccount) Validate() error {
	if a.Kind != AccountBank && a.Kind != AccountMobileMoney {
		return errors.New("kind must be bank or momo")
	}
	if strings.TrimSpace(a.Provider) == "" {
		return errors.New("provider required")
	}
	n := strings.TrimSpace(a.AccountNumber)
	if len(n) < 8 || len(n) > 20 {
		return errors.New("invalid account number")
	}
	for _, c := range n {
		if c < '0' || c > '9' {
			return errors.New("invalid account number")
		}
	}
	return nil
}
