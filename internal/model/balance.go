package model

import "github.com/AlexZinkM/sol-donate-bot/internal/common"

// BalanceReading is a spendable balance as reported by the ledger
type BalanceReading struct {
	Lamports uint64
}

// SOL returns the balance in SOL. Display and threshold messages only.
func (b BalanceReading) SOL() float64 {
	return common.LamportsToFloat(b.Lamports)
}
