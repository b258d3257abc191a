package dto

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestAmountRequestAcceptsNumbersAndStrings(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"integer", `{"amount":100}`, "100"},
		{"fraction", `{"amount":0.1}`, "0.1"},
		{"string", `{"amount":"12.50"}`, "12.5"},
		{"negative", `{"amount":-5}`, "-5"},
		{"missing", `{}`, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req AmountRequest
			if err := json.Unmarshal([]byte(tt.body), &req); err != nil {
				t.Fatalf("unmarshal failed: %v", err)
			}
			if !req.Amount.Equal(decimal.RequireFromString(tt.want)) {
				t.Fatalf("expected %s, got %s", tt.want, req.Amount)
			}
		})
	}
}

func TestAmountRequestRejectsGarbage(t *testing.T) {
	var req AmountRequest
	if err := json.Unmarshal([]byte(`{"amount":"ten"}`), &req); err == nil {
		t.Fatalf("expected error for non-numeric amount")
	}
}

func TestRegisterClientRequestToUseCaseInput(t *testing.T) {
	req := RegisterClientRequest{Name: "Ada", Email: "ada@example.com", Password: "s3cret-pass"}

	input := req.ToUseCaseInput()
	if input.Name != "Ada" || input.Email != "ada@example.com" || input.Password != "s3cret-pass" {
		t.Fatalf("unexpected input: %+v", input)
	}
}
