package donation

import (
	"context"

	"github.com/AlexZinkM/sol-donate-bot/internal/model"

	"github.com/gagliardetto/solana-go"
)

// Ledger is the part of the Solana RPC the donation flow uses.
// Implemented by client.SolanaClient.
type Ledger interface {
	GetBalance(ctx context.Context, owner solana.PublicKey) (uint64, error)
	GetLatestBlockhash(ctx context.Context) (solana.Hash, error)
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	GetSignatureStatus(ctx context.Context, sig solana.Signature) (model.TxStatus, error)
}

// DonateAPI returns unsigned donation transactions. Implemented by client.DonateClient.
type DonateAPI interface {
	RequestTransaction(ctx context.Context, req *model.TransactionRequest) (*model.TransactionResponse, error)
}

// PriceSource quotes SOL in USD. Implemented by client.CoinGeckoClient.
type PriceSource interface {
	GetSOLtoUSDRate(ctx context.Context) (float64, error)
}
