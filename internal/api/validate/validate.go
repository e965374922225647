package validate

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

type ErrField struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

type Errs []ErrField

func (e Errs) Error() string { // error interface
	var b strings.Builder
	for i, ef := range e {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(ef.Field + ": " + ef.Msg)
	}
	return b.String()
}

// Helpers
func Required(field, value string) *ErrField {
	if strings.TrimSpace(value) == "" {
		return &ErrField{Field: field, Msg: "required"}
	}
	return nil
}

func Positive(field string, v decimal.Decimal) *ErrField {
	if v.LessThanOrEqual(decimal.Zero) {
		return &ErrField{Field: field, Msg: "must be greater than zero"}
	}
	return nil
}

var phonePattern = regexp.MustCompile(`^\+?[0-9]{9,15}$`)

func Phone(field, value string) *ErrField {
	if !phonePattern.MatchString(value) {
		return &ErrField{Field: field, Msg: "malformed phone number"}
	}
	return nil
}
