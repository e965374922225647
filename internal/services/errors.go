package services

import (
	"errors"
	"fmt"

	"github.com/farmlinkgh/wallet-backend/internal/api/validate"
)

// ValidationError rejects a request before any ledger write. Handlers map it
// to a 400; everything else is a 5xx.
type ValidationError struct {
	Msg    string
	Fields validate.Errs
}

func (e *ValidationError) Error() string { return e.Msg }

func errValidation(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ErrOrphanReference marks a settlement event whose reference matches no
// ledger row. No row is ever fabricated from a webhook.
var ErrOrphanReference = errors.New("no transaction for reference")
