package donation

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/AlexZinkM/sol-donate-bot/internal/model"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

// TransactionBuilder obtains unsigned donation transactions from the donation service
type TransactionBuilder struct {
	ledger     Ledger
	api        DonateAPI
	rpcTimeout time.Duration
	timeout    time.Duration
	log        *logrus.Logger
}

// NewTransactionBuilder creates a TransactionBuilder.
// rpcTimeout bounds the blockhash query, timeout bounds the donation service call.
func NewTransactionBuilder(ledger Ledger, api DonateAPI, rpcTimeout, timeout time.Duration, log *logrus.Logger) *TransactionBuilder {
	return &TransactionBuilder{
		ledger:     ledger,
		api:        api,
		rpcTimeout: rpcTimeout,
		timeout:    timeout,
		log:        log,
	}
}

// BuildUnsigned requests a donation transaction paid by account.
// The blockhash is fetched on every call: blockhashes expire after ~150 slots.
func (b *TransactionBuilder) BuildUnsigned(ctx context.Context, account solana.PublicKey) (*model.UnsignedTransaction, error) {
	hashCtx, cancel := context.WithTimeout(ctx, b.rpcTimeout)
	blockhash, err := b.ledger.GetLatestBlockhash(hashCtx)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildFailed, err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	resp, err := b.api.RequestTransaction(reqCtx, &model.TransactionRequest{
		Account:         account,
		LatestBlockhash: blockhash.String(),
		Type:            model.TransactionTypeDonation,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildFailed, err)
	}

	// The response is untrusted: it must decode before it goes anywhere near the key
	raw, err := base64.StdEncoding.DecodeString(resp.Transaction)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode base64 transaction: %w", ErrBuildFailed, err)
	}
	tx, err := decodeTransaction(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildFailed, err)
	}

	b.log.WithFields(logrus.Fields{
		"account":      account.String(),
		"blockhash":    blockhash.String(),
		"instructions": len(tx.Message.Instructions),
	}).Debug("donation transaction built")

	return &model.UnsignedTransaction{
		Raw:       raw,
		Blockhash: blockhash,
	}, nil
}

// decodeTransaction deserializes a wire transaction, rejecting trailing bytes
func decodeTransaction(raw []byte) (*solana.Transaction, error) {
	if len(raw) == 0 {
		return nil, errors.New("empty transaction")
	}

	decoder := bin.NewBinDecoder(raw)
	tx, err := solana.TransactionFromDecoder(decoder)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize transaction: %w", err)
	}
	if decoder.Remaining() != 0 {
		return nil, fmt.Errorf("failed to deserialize transaction: %d trailing bytes", decoder.Remaining())
	}
	if len(tx.Message.AccountKeys) == 0 {
		return nil, errors.New("transaction has no accounts")
	}
	return tx, nil
}
