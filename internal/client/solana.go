package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlexZinkM/sol-donate-bot/internal/model"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
)

// ErrTransactionRejected means the node answered the broadcast with an error
// (failed preflight, expired blockhash, insufficient funds, ...). The transaction was not accepted.
var ErrTransactionRejected = errors.New("transaction rejected by node")

// SolanaClient is a client for working with Solana RPC
type SolanaClient struct {
	rpcClient  *rpc.Client
	rpcURL     string
	commitment rpc.CommitmentType
}

// NewSolanaClient creates a new Solana client for the given RPC endpoint.
func NewSolanaClient(rpcURL string) *SolanaClient {
	return &SolanaClient{
		rpcClient:  rpc.New(rpcURL),
		rpcURL:     rpcURL,
		commitment: rpc.CommitmentConfirmed,
	}
}

// GetBalance gets SOL balance in lamports for owner
func (c *SolanaClient) GetBalance(ctx context.Context, owner solana.PublicKey) (uint64, error) {
	balance, err := c.rpcClient.GetBalance(ctx, owner, c.commitment)
	if err != nil {
		return 0, fmt.Errorf("failed to get SOL balance: %w", err)
	}
	return balance.Value, nil
}

// GetLatestBlockhash gets the blockhash new transactions must reference
func (c *SolanaClient) GetLatestBlockhash(ctx context.Context) (solana.Hash, error) {
	recent, err := c.rpcClient.GetLatestBlockhash(ctx, c.commitment)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("failed to get latest blockhash: %w", err)
	}
	if recent == nil || recent.Value == nil {
		return solana.Hash{}, errors.New("failed to get latest blockhash: empty response")
	}
	return recent.Value.Blockhash, nil
}

// SendTransaction broadcasts a signed transaction.
// Node side rejections are wrapped with ErrTransactionRejected; any other error
// (timeout, connection reset) leaves the outcome unknown.
func (c *SolanaClient) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	sig, err := c.rpcClient.SendTransactionWithOpts(
		ctx,
		tx,
		rpc.TransactionOpts{
			SkipPreflight:       false, // Transaction validation before node
			PreflightCommitment: c.commitment,
		},
	)
	if err != nil {
		var rpcErr *jsonrpc.RPCError
		if errors.As(err, &rpcErr) {
			return solana.Signature{}, fmt.Errorf("%w: %s", ErrTransactionRejected, rpcErr.Message)
		}
		return solana.Signature{}, fmt.Errorf("failed to send transaction: %w", err)
	}
	return sig, nil
}

// GetSignatureStatus reports what the ledger knows about a broadcast transaction
func (c *SolanaClient) GetSignatureStatus(ctx context.Context, sig solana.Signature) (model.TxStatus, error) {
	out, err := c.rpcClient.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		return model.TxStatusUnknown, fmt.Errorf("failed to get signature status: %w", err)
	}
	if out == nil || len(out.Value) == 0 || out.Value[0] == nil {
		return model.TxStatusNotFound, nil
	}

	status := out.Value[0]
	if status.Err != nil {
		return model.TxStatusFailed, nil
	}
	switch status.ConfirmationStatus {
	case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
		return model.TxStatusConfirmed, nil
	default:
		return model.TxStatusPending, nil
	}
}
