package donation

import (
	"context"
	"encoding/base64"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/AlexZinkM/sol-donate-bot/internal/keystore"
	"github.com/AlexZinkM/sol-donate-bot/internal/model"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

const (
	testChat  int64 = 1001
	otherChat int64 = 2002
)

var testRecipient = solana.MustPublicKeyFromBase58("9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM")

// fakeLedger is an in-memory Ledger counting every call
type fakeLedger struct {
	mu sync.Mutex

	balances   map[solana.PublicKey]uint64
	balanceErr error
	blockhash  solana.Hash
	sendErr    error
	sendSig    *solana.Signature
	onSend     func()
	statuses   []model.TxStatus // consumed one per status call, last one repeats
	statusErr  error

	balanceCalls int
	hashCalls    int
	sendCalls    int
	statusCalls  int
	sent         []*solana.Transaction
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		balances:  make(map[solana.PublicKey]uint64),
		blockhash: solana.Hash{42},
		statuses:  []model.TxStatus{model.TxStatusConfirmed},
	}
}

func (l *fakeLedger) setBalance(owner solana.PublicKey, lamports uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[owner] = lamports
}

func (l *fakeLedger) GetBalance(ctx context.Context, owner solana.PublicKey) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balanceCalls++
	if l.balanceErr != nil {
		return 0, l.balanceErr
	}
	return l.balances[owner], nil
}

// GetLatestBlockhash returns a new hash on every call, like a live cluster
func (l *fakeLedger) GetLatestBlockhash(ctx context.Context) (solana.Hash, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hashCalls++
	l.blockhash[31] = byte(l.hashCalls)
	return l.blockhash, nil
}

func (l *fakeLedger) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	l.mu.Lock()
	l.sendCalls++
	l.sent = append(l.sent, tx)
	onSend := l.onSend
	l.mu.Unlock()

	if onSend != nil {
		onSend()
	}
	if err := ctx.Err(); err != nil {
		return solana.Signature{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sendErr != nil {
		return solana.Signature{}, l.sendErr
	}
	if l.sendSig != nil {
		return *l.sendSig, nil
	}
	return tx.Signatures[0], nil
}

func (l *fakeLedger) GetSignatureStatus(ctx context.Context, sig solana.Signature) (model.TxStatus, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.statusCalls++
	if l.statusErr != nil {
		return model.TxStatusUnknown, l.statusErr
	}
	status := l.statuses[0]
	if len(l.statuses) > 1 {
		l.statuses = l.statuses[1:]
	}
	return status, nil
}

func (l *fakeLedger) networkCalls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balanceCalls + l.hashCalls + l.sendCalls + l.statusCalls
}

// fakeDonateAPI answers with a transfer of lamports from the requesting account
type fakeDonateAPI struct {
	mu       sync.Mutex
	t        *testing.T
	lamports uint64
	respond  func(req *model.TransactionRequest) (*model.TransactionResponse, error)
	requests []model.TransactionRequest
}

func newFakeDonateAPI(t *testing.T) *fakeDonateAPI {
	return &fakeDonateAPI{t: t, lamports: DonationLamports}
}

func (a *fakeDonateAPI) RequestTransaction(ctx context.Context, req *model.TransactionRequest) (*model.TransactionResponse, error) {
	a.mu.Lock()
	a.requests = append(a.requests, *req)
	respond := a.respond
	lamports := a.lamports
	a.mu.Unlock()

	if respond != nil {
		return respond(req)
	}

	blockhash, err := solana.HashFromBase58(req.LatestBlockhash)
	require.NoError(a.t, err)
	return &model.TransactionResponse{
		Transaction: unsignedBlob(a.t, req.Account, req.Account, lamports, blockhash),
	}, nil
}

func (a *fakeDonateAPI) calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.requests)
}

// unsignedBlob builds a base64 transaction paid by payer moving lamports from `from`
// to testRecipient, serialized with zeroed signatures the way the donation service does.
func unsignedBlob(t *testing.T, payer, from solana.PublicKey, lamports uint64, blockhash solana.Hash) string {
	t.Helper()
	return base64.StdEncoding.EncodeToString(unsignedRaw(t, payer, from, lamports, blockhash))
}

func unsignedRaw(t *testing.T, payer, from solana.PublicKey, lamports uint64, blockhash solana.Hash) []byte {
	t.Helper()

	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewTransferInstruction(lamports, from, testRecipient).Build(),
		},
		blockhash,
		solana.TransactionPayer(payer),
	)
	require.NoError(t, err)

	tx.Signatures = make([]solana.Signature, tx.Message.Header.NumRequiredSignatures)
	raw, err := tx.MarshalBinary()
	require.NoError(t, err)
	return raw
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestService(t *testing.T, ledger *fakeLedger, api *fakeDonateAPI) (*Service, *keystore.Store) {
	t.Helper()

	keys := keystore.New(0)
	svc, err := NewService(Config{
		Keys:                keys,
		Ledger:              ledger,
		Donate:              api,
		Cluster:             "devnet",
		RPCTimeout:          time.Second,
		BuilderTimeout:      time.Second,
		ConfirmTimeout:      100 * time.Millisecond,
		ConfirmPollInterval: 5 * time.Millisecond,
		Logger:              quietLogger(),
	})
	require.NoError(t, err)
	return svc, keys
}

// registerWallet registers a fresh key for chatID and returns its wallet
func registerWallet(t *testing.T, keys *keystore.Store, chatID int64) *solana.Wallet {
	t.Helper()

	wallet := solana.NewWallet()
	require.NoError(t, keys.SetKey(chatID, wallet.PrivateKey.String()))
	return wallet
}
