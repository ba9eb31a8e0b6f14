package donation

import (
	"errors"
	"fmt"
	"math"

	"github.com/AlexZinkM/sol-donate-bot/internal/common"
	"github.com/AlexZinkM/sol-donate-bot/internal/keystore"
	"github.com/AlexZinkM/sol-donate-bot/internal/model"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
)

// Signer signs donation transactions with a registered key
type Signer struct {
	maxSpendLamports uint64
}

// NewSigner creates a Signer refusing transactions that move more than
// maxSpendLamports out of the signer's account through the system program.
func NewSigner(maxSpendLamports uint64) *Signer {
	return &Signer{maxSpendLamports: maxSpendLamports}
}

// Sign deserializes blob and attaches the record's signature.
// The message is left untouched; the result carries exactly one signature.
func (s *Signer) Sign(blob *model.UnsignedTransaction, record *keystore.KeyRecord) (*solana.Transaction, error) {
	if blob == nil || record == nil {
		return nil, fmt.Errorf("%w: nothing to sign", ErrSignFailed)
	}

	tx, err := decodeTransaction(blob.Raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSignFailed, err)
	}

	// Single signer only: the fee payer, which must be the registered key
	if n := tx.Message.Header.NumRequiredSignatures; n != 1 {
		return nil, fmt.Errorf("%w: transaction requires %d signatures", ErrSignFailed, n)
	}
	if payer := tx.Message.AccountKeys[0]; !payer.Equals(record.PublicKey) {
		return nil, fmt.Errorf("%w: transaction signer %s does not match registered key", ErrSignFailed, payer)
	}

	// Bound to the blockhash fetched for this flow
	if tx.Message.RecentBlockhash != blob.Blockhash {
		return nil, fmt.Errorf("%w: transaction blockhash %s was not requested", ErrSignFailed, tx.Message.RecentBlockhash)
	}

	spent, err := systemSpend(tx, record.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSignFailed, err)
	}
	if spent > s.maxSpendLamports {
		return nil, fmt.Errorf("%w: transaction spends %s SOL, donation is %s SOL",
			ErrSignFailed, common.FormatSOL(spent), common.FormatSOL(s.maxSpendLamports))
	}

	message, err := tx.Message.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to serialize message: %w", ErrSignFailed, err)
	}
	sig, err := record.Sign(message)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSignFailed, err)
	}

	// Replaces the zeroed placeholder the service serializes for unsigned transactions
	tx.Signatures = []solana.Signature{sig}
	return tx, nil
}

// systemSpend sums the lamports tx moves out of owner.
// Only system Transfer and CreateAccount instructions are allowed; any other
// instruction could move funds in ways the sum does not see.
func systemSpend(tx *solana.Transaction, owner solana.PublicKey) (uint64, error) {
	keys := tx.Message.AccountKeys

	var total uint64
	for i, inst := range tx.Message.Instructions {
		if int(inst.ProgramIDIndex) >= len(keys) {
			return 0, fmt.Errorf("instruction %d: program index out of range", i)
		}
		if program := keys[inst.ProgramIDIndex]; !program.Equals(solana.SystemProgramID) {
			return 0, fmt.Errorf("instruction %d: program %s is not allowed", i, program)
		}

		lamports, from, err := decodeSystemDebit(inst, keys)
		if err != nil {
			return 0, fmt.Errorf("instruction %d: %w", i, err)
		}
		if !from.Equals(owner) {
			continue
		}
		if lamports > math.MaxUint64-total {
			return 0, errors.New("transfer amount overflow")
		}
		total += lamports
	}
	return total, nil
}

// decodeSystemDebit returns the lamports a Transfer or CreateAccount takes from its funding account
func decodeSystemDebit(inst solana.CompiledInstruction, keys solana.PublicKeySlice) (uint64, solana.PublicKey, error) {
	decoder := bin.NewBinDecoder(inst.Data)
	typeID, err := decoder.ReadUint32(bin.LE)
	if err != nil {
		return 0, solana.PublicKey{}, fmt.Errorf("failed to read system instruction type: %w", err)
	}

	switch typeID {
	case system.Instruction_Transfer, system.Instruction_CreateAccount:
	default:
		return 0, solana.PublicKey{}, fmt.Errorf("system instruction %s is not allowed", system.InstructionIDToName(typeID))
	}

	lamports, err := decoder.ReadUint64(bin.LE)
	if err != nil {
		return 0, solana.PublicKey{}, fmt.Errorf("failed to read lamports: %w", err)
	}
	if len(inst.Accounts) == 0 {
		return 0, solana.PublicKey{}, errors.New("system instruction without accounts")
	}

	// Funding account is the first account for both Transfer and CreateAccount.
	// Lookup table accounts cannot sign, so they cannot fund either.
	idx := int(inst.Accounts[0])
	if idx >= len(keys) {
		return 0, solana.PublicKey{}, errors.New("funding account out of range")
	}
	return lamports, keys[idx], nil
}
