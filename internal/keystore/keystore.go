// Package keystore holds one signing keypair per chat in process memory.
//
// Keys are never written to disk. A record is replaced as a whole on
// re-registration and the previous secret bytes are wiped. Operations that
// sign with a key run under the chat's lock (see WithKey) so a concurrent
// SetKey for the same chat cannot swap the key out from under them.
package keystore

import (
	"context"
	"crypto/ed25519"
	"crypto/subtle"
	"errors"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

var (
	// ErrInvalidKeyFormat is returned when a secret is not a base58 encoded 64-byte ed25519 key
	ErrInvalidKeyFormat = errors.New("invalid key format")
	// ErrKeyNotSet is returned when no key is registered for the chat
	ErrKeyNotSet = errors.New("key not set")
)

// KeyRecord is a registered keypair. The secret half never leaves this package.
type KeyRecord struct {
	PublicKey solana.PublicKey
	secret    solana.PrivateKey
	setAt     time.Time
}

// Sign signs payload with the record's secret key.
// Records returned by GetKey must not be used to sign after the chat's key
// has been replaced or cleared; sign inside WithKey instead.
func (r *KeyRecord) Sign(payload []byte) (solana.Signature, error) {
	if len(r.secret) != ed25519.PrivateKeySize {
		return solana.Signature{}, ErrKeyNotSet
	}
	return r.secret.Sign(payload)
}

func (r *KeyRecord) wipe() {
	clear(r.secret)
	r.secret = nil
}

// entry serializes everything that touches one chat's key
type entry struct {
	lock   chan struct{}
	record *KeyRecord
}

// Store is a concurrency safe chat ID -> KeyRecord map
type Store struct {
	mu      sync.Mutex
	entries map[int64]*entry
	ttl     time.Duration
	now     func() time.Time
}

// New creates an empty store. ttl <= 0 keeps keys until replaced or cleared.
func New(ttl time.Duration) *Store {
	return &Store{
		entries: make(map[int64]*entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// lockEntry locks the chat's entry, creating it first if create is set.
// It returns nil without locking when the chat has no entry and create is false,
// or when done is closed first; a nil done waits as long as it takes.
// An entry removed while waiting for its lock is not used: the lookup starts over.
func (s *Store) lockEntry(done <-chan struct{}, chatID int64, create bool) *entry {
	for {
		s.mu.Lock()
		e, ok := s.entries[chatID]
		if !ok && create {
			e = &entry{lock: make(chan struct{}, 1)}
			s.entries[chatID] = e
		}
		s.mu.Unlock()
		if e == nil {
			return nil
		}

		select {
		case e.lock <- struct{}{}:
		case <-done:
			return nil
		}

		s.mu.Lock()
		current := s.entries[chatID] == e
		s.mu.Unlock()
		if current {
			return e
		}
		<-e.lock
	}
}

// unlock releases e, removing it from the store once it holds no record.
// Must be called with e locked.
func (s *Store) unlock(chatID int64, e *entry) {
	s.mu.Lock()
	if e.record == nil && s.entries[chatID] == e {
		delete(s.entries, chatID)
	}
	s.mu.Unlock()
	<-e.lock
}

// ParseSecret decodes a base58 secret key and derives its keypair.
// The trailing 32 bytes must be the public key derived from the leading 32-byte seed.
func ParseSecret(base58Secret string) (solana.PrivateKey, error) {
	raw, err := base58.Decode(base58Secret)
	if err != nil {
		return nil, ErrInvalidKeyFormat
	}
	if len(raw) != ed25519.PrivateKeySize {
		clear(raw)
		return nil, ErrInvalidKeyFormat
	}

	derived := ed25519.NewKeyFromSeed(raw[:ed25519.SeedSize])
	defer clear(derived)
	if subtle.ConstantTimeCompare(derived[ed25519.SeedSize:], raw[ed25519.SeedSize:]) != 1 {
		clear(raw)
		return nil, ErrInvalidKeyFormat
	}

	return solana.PrivateKey(raw), nil
}

// SetKey registers the secret for chatID, replacing any previous record.
// On ErrInvalidKeyFormat the previous record is left untouched.
func (s *Store) SetKey(chatID int64, base58Secret string) error {
	secret, err := ParseSecret(base58Secret)
	if err != nil {
		return err
	}

	record := &KeyRecord{
		PublicKey: secret.PublicKey(),
		secret:    secret,
		setAt:     s.now(),
	}

	// Waits for an in-flight donation of this chat to finish
	e := s.lockEntry(nil, chatID, true)
	defer s.unlock(chatID, e)

	s.mu.Lock()
	old := e.record
	e.record = record
	s.mu.Unlock()

	if old != nil {
		old.wipe()
	}
	return nil
}

// GetKey returns the record for chatID or ErrKeyNotSet
func (s *Store) GetKey(chatID int64) (*KeyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[chatID]
	if !ok || e.record == nil {
		return nil, ErrKeyNotSet
	}
	if s.expired(e.record) {
		// Wiped by the next locked operation on this chat
		return nil, ErrKeyNotSet
	}
	return e.record, nil
}

// WithKey runs fn with the chat's record while holding the chat's lock.
// SetKey and Delete for the same chat block until fn returns.
func (s *Store) WithKey(ctx context.Context, chatID int64, fn func(*KeyRecord) error) error {
	e := s.lockEntry(ctx.Done(), chatID, false)
	if e == nil {
		if err := ctx.Err(); err != nil {
			return err
		}
		return ErrKeyNotSet
	}
	defer s.unlock(chatID, e)

	s.mu.Lock()
	record := e.record
	if record != nil && s.expired(record) {
		e.record = nil
		s.mu.Unlock()
		record.wipe()
		return ErrKeyNotSet
	}
	s.mu.Unlock()

	if record == nil {
		return ErrKeyNotSet
	}
	return fn(record)
}

// Delete clears the chat's key. Returns false if no key was registered.
func (s *Store) Delete(chatID int64) bool {
	e := s.lockEntry(nil, chatID, false)
	if e == nil {
		return false
	}

	s.mu.Lock()
	old := e.record
	e.record = nil
	s.mu.Unlock()
	s.unlock(chatID, e)

	if old == nil {
		return false
	}
	old.wipe()
	return true
}

// Purge wipes and removes expired keys of chats that are not in use.
// Returns the number of keys removed.
func (s *Store) Purge() int {
	if s.ttl <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var purged []*KeyRecord
	for chatID, e := range s.entries {
		select {
		case e.lock <- struct{}{}:
		default:
			continue // in use; handled by its holder
		}
		if e.record == nil || s.expired(e.record) {
			if e.record != nil {
				purged = append(purged, e.record)
			}
			e.record = nil
			delete(s.entries, chatID)
		}
		<-e.lock
	}

	for _, r := range purged {
		r.wipe()
	}
	return len(purged)
}

// Len returns the number of chats with an entry
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) expired(r *KeyRecord) bool {
	return s.ttl > 0 && s.now().Sub(r.setAt) >= s.ttl
}
