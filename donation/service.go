// Package donation implements the donate flow: key lookup, balance check,
// transaction build, signing and broadcast, plus the chat entry points built on it.
package donation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/AlexZinkM/sol-donate-bot/internal/common"
	"github.com/AlexZinkM/sol-donate-bot/internal/keystore"
	"github.com/AlexZinkM/sol-donate-bot/internal/model"

	"github.com/sirupsen/logrus"
)

// DonationLamports is the fixed donation amount: 1 SOL. The service encodes it server side.
const DonationLamports uint64 = common.LamportsPerSOL

// State is a step of the donate flow
type State int

const (
	StateNoKey State = iota
	StateKeyPresent
	StateBalanceSufficient
	StateBuilt
	StateSigned
	StateSubmitted
)

func (s State) String() string {
	switch s {
	case StateNoKey:
		return "no_key"
	case StateKeyPresent:
		return "key_present"
	case StateBalanceSufficient:
		return "balance_sufficient"
	case StateBuilt:
		return "built"
	case StateSigned:
		return "signed"
	case StateSubmitted:
		return "submitted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Outcome is the result of one donate flow.
// On failure State is the last state reached and Err the reason.
type Outcome struct {
	State   State
	Err     error
	Receipt *model.SubmissionReceipt // set once the transaction was broadcast
}

// Failed reports whether the flow stopped before completion
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// Config holds the collaborators of a Service
type Config struct {
	Keys   *keystore.Store
	Ledger Ledger
	Donate DonateAPI
	Prices PriceSource // optional, enables the USD estimate in Balance

	Cluster             string
	RPCTimeout          time.Duration
	BuilderTimeout      time.Duration
	ConfirmTimeout      time.Duration
	ConfirmPollInterval time.Duration
	Cooldown            time.Duration

	Logger *logrus.Logger
}

// Service runs donations for chats
type Service struct {
	keys      *keystore.Store
	oracle    *BalanceOracle
	builder   *TransactionBuilder
	signer    *Signer
	submitter *Submitter
	prices    PriceSource

	rpcTimeout time.Duration
	cooldown   time.Duration
	log        *logrus.Logger

	mu           sync.Mutex
	lastDonation map[int64]time.Time
	now          func() time.Time
}

// NewService wires the flow stages from cfg
func NewService(cfg Config) (*Service, error) {
	if cfg.Keys == nil || cfg.Ledger == nil || cfg.Donate == nil {
		return nil, errors.New("keys, ledger and donate API are required")
	}
	if cfg.RPCTimeout <= 0 || cfg.BuilderTimeout <= 0 || cfg.ConfirmTimeout <= 0 || cfg.ConfirmPollInterval <= 0 {
		return nil, errors.New("timeouts must be positive")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	return &Service{
		keys:      cfg.Keys,
		oracle:    NewBalanceOracle(cfg.Ledger, cfg.RPCTimeout),
		builder:   NewTransactionBuilder(cfg.Ledger, cfg.Donate, cfg.RPCTimeout, cfg.BuilderTimeout, cfg.Logger),
		signer:    NewSigner(DonationLamports),
		submitter: NewSubmitter(cfg.Ledger, SubmitterConfig{
			Cluster:      cfg.Cluster,
			RPCTimeout:   cfg.RPCTimeout,
			Confirm:      cfg.ConfirmTimeout,
			PollInterval: cfg.ConfirmPollInterval,
		}, cfg.Logger),
		prices:       cfg.Prices,
		rpcTimeout:   cfg.RPCTimeout,
		cooldown:     cfg.Cooldown,
		log:          cfg.Logger,
		lastDonation: make(map[int64]time.Time),
		now:          time.Now,
	}, nil
}

// Run executes the donate flow for chatID. Every stage runs only after its
// predecessor succeeded; the first failure ends the flow.
func (s *Service) Run(ctx context.Context, chatID int64) Outcome {
	out := Outcome{State: StateNoKey}

	out.Err = s.keys.WithKey(ctx, chatID, func(record *keystore.KeyRecord) error {
		out.State = StateKeyPresent

		if wait := s.cooldownRemaining(chatID); wait > 0 {
			return &CooldownError{Remaining: wait}
		}

		reading, err := s.oracle.Check(ctx, record.PublicKey)
		if err != nil {
			return err
		}
		if reading.Lamports < DonationLamports {
			return &InsufficientBalanceError{Balance: reading, Required: DonationLamports}
		}
		out.State = StateBalanceSufficient

		blob, err := s.builder.BuildUnsigned(ctx, record.PublicKey)
		if err != nil {
			return err
		}
		out.State = StateBuilt

		tx, err := s.signer.Sign(blob, record)
		if err != nil {
			return err
		}
		out.State = StateSigned

		// Broadcast is irreversible: caller cancellation no longer applies
		receipt, err := s.submitter.Submit(context.WithoutCancel(ctx), tx, record)
		if receipt != nil {
			out.Receipt = receipt
			s.markDonation(chatID)
		}
		if err != nil {
			return err
		}
		out.State = StateSubmitted
		return nil
	})

	entry := s.log.WithFields(logrus.Fields{
		"chat_id": chatID,
		"state":   out.State.String(),
	})
	if out.Receipt != nil {
		entry = entry.WithField("tx", out.Receipt.TxID)
	}
	if out.Err != nil {
		entry.WithError(out.Err).Warn("donation failed")
	} else {
		entry.Info("donation confirmed")
	}
	return out
}

// Donate runs the donate flow and returns the reply for the chat
func (s *Service) Donate(ctx context.Context, chatID int64) string {
	return outcomeMessage(s.Run(ctx, chatID))
}

// RegisterKey stores the base58 secret for chatID and returns the reply for the chat
func (s *Service) RegisterKey(chatID int64, base58Secret string) string {
	if err := s.keys.SetKey(chatID, base58Secret); err != nil {
		s.log.WithField("chat_id", chatID).WithError(err).Info("rejected private key")
		return msgInvalidKey
	}
	s.log.WithField("chat_id", chatID).Info("private key registered")
	return msgKeySet
}

// ClearKey forgets the chat's key
func (s *Service) ClearKey(chatID int64) string {
	if !s.keys.Delete(chatID) {
		return msgKeyNotSet
	}
	s.log.WithField("chat_id", chatID).Info("private key cleared")
	return msgKeyCleared
}

// Start returns the usage text
func (s *Service) Start() string {
	return msgWelcome
}

// Balance returns the balance of the chat's registered wallet
func (s *Service) Balance(ctx context.Context, chatID int64) string {
	record, err := s.keys.GetKey(chatID)
	if err != nil {
		return msgKeyNotSet
	}

	reading, err := s.oracle.Check(ctx, record.PublicKey)
	if err != nil {
		s.log.WithField("chat_id", chatID).WithError(err).Warn("balance query failed")
		return msgBalanceUnavailable
	}

	text := fmt.Sprintf(msgBalance, common.FormatSOL(reading.Lamports))
	if usd, ok := s.usdValue(ctx, reading); ok {
		text += fmt.Sprintf(" (~$%.2f)", usd)
	}
	return text
}

// usdValue converts reading to USD; display only
func (s *Service) usdValue(ctx context.Context, reading model.BalanceReading) (float64, bool) {
	if s.prices == nil {
		return 0, false
	}
	ctx, cancel := context.WithTimeout(ctx, s.rpcTimeout)
	defer cancel()

	rate, err := s.prices.GetSOLtoUSDRate(ctx)
	if err != nil {
		s.log.WithError(err).Debug("SOL price unavailable")
		return 0, false
	}
	return reading.SOL() * rate, true
}

func (s *Service) cooldownRemaining(chatID int64) time.Duration {
	if s.cooldown <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	last, ok := s.lastDonation[chatID]
	if !ok {
		return 0
	}
	return s.cooldown - s.now().Sub(last)
}

func (s *Service) markDonation(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastDonation[chatID] = s.now()
}
