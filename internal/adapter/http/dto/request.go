package dto

import (
	"github.com/shopspring/decimal"

	"github.com/iho/clientledger/internal/usecase"
)

// AmountRequest is the body of deposit and withdraw requests.
// Amount accepts a JSON number or a decimal string.
type AmountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// RegisterClientRequest represents a request to register a client.
type RegisterClientRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ToUseCaseInput converts to use case input.
func (r *RegisterClientRequest) ToUseCaseInput() usecase.RegisterClientInput {
	return usecase.RegisterClientInput{
		Name:     r.Name,
		Email:    r.Email,
		Password: r.Password,
	}
}

// TokenRequest exchanges client credentials for an access token.
type TokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
