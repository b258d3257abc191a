package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrAmountTooLarge = errors.New("amount exceeds maximum allowed")
	ErrInvalidEmail   = errors.New("invalid email format")
	ErrWeakPassword   = errors.New("password must be at least 8 characters")
)

// Validation constants
const (
	MaxTransactionAmount = "1000000000000" // per deposit
	MaxIdentifierLength  = 64
	MinPasswordLength    = 8
)

var (
	emailRegex      = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	identifierRegex = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// ValidateDepositAmount checks that a deposit is positive and within MaxTransactionAmount.
// Withdrawals are bounded by the account balance instead.
func ValidateDepositAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	maxAmount, _ := decimal.NewFromString(MaxTransactionAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxTransactionAmount)
	}

	return nil
}

// ValidateClientID validates a client identifier.
func ValidateClientID(id string) error {
	return validateIdentifier(id, ErrInvalidClientID)
}

// ValidateAccountID validates an account identifier.
func ValidateAccountID(id string) error {
	return validateIdentifier(id, ErrInvalidAccountID)
}

func validateIdentifier(id string, sentinel error) error {
	if strings.TrimSpace(id) == "" {
		return sentinel
	}

	if len(id) > MaxIdentifierLength {
		return fmt.Errorf("%w: exceeds %d characters", sentinel, MaxIdentifierLength)
	}

	if !identifierRegex.MatchString(id) {
		return fmt.Errorf("%w: contains forbidden characters", sentinel)
	}

	return nil
}

// ValidateEmail validates email format
func ValidateEmail(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}

	return nil
}

// ValidatePassword validates password strength
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrWeakPassword
	}
	return nil
}
