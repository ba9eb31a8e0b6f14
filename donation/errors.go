package donation

import (
	"errors"
	"fmt"
	"time"

	"github.com/AlexZinkM/sol-donate-bot/internal/common"
	"github.com/AlexZinkM/sol-donate-bot/internal/model"
)

var (
	// ErrBalanceUnavailable means the ledger balance could not be read
	ErrBalanceUnavailable = errors.New("balance unavailable")
	// ErrBuildFailed means no valid unsigned transaction was obtained from the donation service
	ErrBuildFailed = errors.New("build failed")
	// ErrSignFailed means the transaction could not be signed with the registered key
	ErrSignFailed = errors.New("sign failed")
	// ErrSubmitFailed means the ledger did not accept the transaction
	ErrSubmitFailed = errors.New("submit failed")
	// ErrStatusUnknown means the transaction was broadcast but its outcome could not be confirmed
	ErrStatusUnknown = errors.New("transaction status unknown")
)

// InsufficientBalanceError is returned when the balance is below the donation amount
type InsufficientBalanceError struct {
	Balance  model.BalanceReading
	Required uint64 // lamports
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient funds: balance=%s, required=%s",
		common.FormatSOL(e.Balance.Lamports), common.FormatSOL(e.Required))
}

// CooldownError is returned when the chat donated too recently
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("cooldown active, please wait %v", e.Remaining.Round(time.Second))
}
