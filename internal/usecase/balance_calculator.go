package usecase

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iho/clientledger/internal/domain"
)

// BalanceCalculator derives a client's balance from the event history.
type BalanceCalculator struct {
	events EventStore
}

// NewBalanceCalculator creates a new BalanceCalculator.
func NewBalanceCalculator(events EventStore) *BalanceCalculator {
	return &BalanceCalculator{events: events}
}

// ComputeBalance folds the client's events. A client without events has a zero balance.
func (c *BalanceCalculator) ComputeBalance(ctx context.Context, clientID string) (decimal.Decimal, error) {
	if strings.TrimSpace(clientID) == "" {
		return decimal.Zero, domain.ErrInvalidClientID
	}

	events, err := c.events.FindByAccount(ctx, clientID)
	if err != nil {
		return decimal.Zero, err
	}

	return domain.FoldBalance(events), nil
}
