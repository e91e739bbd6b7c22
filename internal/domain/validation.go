package domain

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrEmptyName      = errors.New("name is required")
	ErrMissingAmount  = errors.New("amount is required")
	ErrInvalidAmount  = errors.New("amount must be a number")
	ErrNegativeAmount = errors.New("amount must not be negative")
	ErrAmountTooLarge = errors.New("amount exceeds maximum allowed")
	ErrFieldTooLong   = errors.New("value is too long")
)

// Field names reported by ValidationError.
const (
	FieldName        = "name"
	FieldAffiliation = "affiliation"
	FieldAmount      = "amount"
	FieldNote        = "note"
)

// Validation constants
const (
	MaxFieldLength = 255
	MaxAmount      = "1000000000"
)

// ValidationError reports which input field was rejected and why.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ValidateName rejects blank or oversized names.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)

	if name == "" {
		return &ValidationError{Field: FieldName, Err: ErrEmptyName}
	}

	return ValidateText(FieldName, name)
}

// ValidateText enforces the length limit on a free-text field.
func ValidateText(field, value string) error {
	if utf8.RuneCountInString(strings.TrimSpace(value)) > MaxFieldLength {
		return &ValidationError{
			Field: field,
			Err:   fmt.Errorf("%w: exceeds %d characters", ErrFieldTooLong, MaxFieldLength),
		}
	}
	return nil
}

// ValidateAmount rejects negative or absurdly large amounts. Zero is allowed.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return &ValidationError{Field: FieldAmount, Err: ErrNegativeAmount}
	}

	maxAmount := decimal.RequireFromString(MaxAmount)
	if amount.GreaterThan(maxAmount) {
		return &ValidationError{
			Field: FieldAmount,
			Err:   fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxAmount),
		}
	}

	return nil
}

// ParseAmount converts user-entered text into an amount.
//
// Surrounding whitespace is ignored and a single decimal comma is accepted
// ("10,5" is read as 10.5).
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, &ValidationError{Field: FieldAmount, Err: ErrMissingAmount}
	}

	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}

	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &ValidationError{
			Field: FieldAmount,
			Err:   fmt.Errorf("%w: %q", ErrInvalidAmount, raw),
		}
	}

	if err := ValidateAmount(amount); err != nil {
		return decimal.Zero, err
	}

	return amount, nil
}
