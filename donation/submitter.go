package donation

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/AlexZinkM/sol-donate-bot/internal/client"
	"github.com/AlexZinkM/sol-donate-bot/internal/keystore"
	"github.com/AlexZinkM/sol-donate-bot/internal/model"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

const explorerTxURL = "https://explorer.solana.com/tx/%s"

// ExplorerURL returns the Solana Explorer link of a transaction on cluster
func ExplorerURL(txID, cluster string) string {
	link := fmt.Sprintf(explorerTxURL, url.PathEscape(txID))
	if cluster != "" && cluster != "mainnet-beta" {
		link += "?cluster=" + url.QueryEscape(cluster)
	}
	return link
}

// SubmitterConfig configures broadcast and confirmation
type SubmitterConfig struct {
	Cluster      string
	RPCTimeout   time.Duration // bounds the broadcast call
	Confirm      time.Duration // total time to wait for confirmation
	PollInterval time.Duration
}

// Submitter broadcasts signed transactions and waits for their confirmation
type Submitter struct {
	ledger Ledger
	cfg    SubmitterConfig
	log    *logrus.Logger
}

// NewSubmitter creates a Submitter
func NewSubmitter(ledger Ledger, cfg SubmitterConfig, log *logrus.Logger) *Submitter {
	return &Submitter{ledger: ledger, cfg: cfg, log: log}
}

// Submit broadcasts tx. No retries.
//
// ErrSubmitFailed: the node rejected the transaction or it failed on chain.
// ErrStatusUnknown: the transaction may have landed; the returned receipt is still valid.
func (s *Submitter) Submit(ctx context.Context, tx *solana.Transaction, record *keystore.KeyRecord) (*model.SubmissionReceipt, error) {
	if tx == nil || len(tx.Signatures) != 1 {
		return nil, fmt.Errorf("%w: transaction is not signed", ErrSubmitFailed)
	}

	// The first signature is the transaction id, known before the broadcast
	sig := tx.Signatures[0]
	log := s.log.WithFields(logrus.Fields{
		"account": record.PublicKey.String(),
		"tx":      sig.String(),
	})

	sendCtx, cancel := context.WithTimeout(ctx, s.cfg.RPCTimeout)
	sent, err := s.ledger.SendTransaction(sendCtx, tx)
	cancel()
	switch {
	case errors.Is(err, client.ErrTransactionRejected):
		return nil, fmt.Errorf("%w: %w", ErrSubmitFailed, err)
	case err != nil:
		// The node may have accepted it before the connection failed
		log.WithError(err).Warn("broadcast outcome unknown, checking status")
	case sent != sig:
		log.WithField("returned", sent.String()).Warn("node returned a different transaction id")
		sig = sent
	}

	receipt := &model.SubmissionReceipt{
		TxID:   sig.String(),
		URL:    ExplorerURL(sig.String(), s.cfg.Cluster),
		Status: s.awaitConfirmation(ctx, sig, log),
	}

	switch receipt.Status {
	case model.TxStatusConfirmed:
		return receipt, nil
	case model.TxStatusFailed:
		return receipt, fmt.Errorf("%w: transaction %s failed on chain", ErrSubmitFailed, receipt.TxID)
	default:
		receipt.Status = model.TxStatusUnknown
		return receipt, fmt.Errorf("%w: transaction %s not confirmed within %v", ErrStatusUnknown, receipt.TxID, s.cfg.Confirm)
	}
}

// awaitConfirmation polls the signature status until it is final or the confirm window ends
func (s *Submitter) awaitConfirmation(ctx context.Context, sig solana.Signature, log *logrus.Entry) model.TxStatus {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Confirm)
	defer cancel()

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	last := model.TxStatusUnknown
	for {
		status, err := s.ledger.GetSignatureStatus(ctx, sig)
		if err != nil {
			log.WithError(err).Debug("failed to read signature status")
		} else {
			last = status
			if status == model.TxStatusConfirmed || status == model.TxStatusFailed {
				return status
			}
		}

		select {
		case <-ctx.Done():
			return last
		case <-ticker.C:
		}
	}
}
