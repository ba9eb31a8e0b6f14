package donation

import (
	"context"
	"fmt"
	"time"

	"github.com/AlexZinkM/sol-donate-bot/internal/model"

	"github.com/gagliardetto/solana-go"
)

// BalanceOracle reads spendable balances from the ledger
type BalanceOracle struct {
	ledger  Ledger
	timeout time.Duration
}

// NewBalanceOracle creates a BalanceOracle; every query is bounded by timeout
func NewBalanceOracle(ledger Ledger, timeout time.Duration) *BalanceOracle {
	return &BalanceOracle{ledger: ledger, timeout: timeout}
}

// Check returns the balance of owner or ErrBalanceUnavailable
func (o *BalanceOracle) Check(ctx context.Context, owner solana.PublicKey) (model.BalanceReading, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	lamports, err := o.ledger.GetBalance(ctx, owner)
	if err != nil {
		return model.BalanceReading{}, fmt.Errorf("%w: %w", ErrBalanceUnavailable, err)
	}
	return model.BalanceReading{Lamports: lamports}, nil
}
