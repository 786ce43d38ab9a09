package core

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/tolelom/drawchain/crypto"
)

// Transaction moves amount from From to To, authorized by From's
// signature. Timeslot doubles as the per-sender replay nonce: the
// ledger refuses a transaction whose timeslot does not strictly exceed
// the sender's last applied timeslot.
type Transaction struct {
	From      crypto.PublicKey
	To        crypto.PublicKey
	Amount    uint64
	Timeslot  uint64
	Signature string
}

// NewTransaction builds and signs a transaction from priv to to.
func NewTransaction(priv crypto.PrivateKey, to crypto.PublicKey, amount, timeslot uint64) *Transaction {
	tx := &Transaction{
		From:     priv.Public(),
		To:       to,
		Amount:   amount,
		Timeslot: timeslot,
	}
	tx.Signature = crypto.Sign(priv, tx.signingPayload())
	return tx
}

func (tx *Transaction) signingPayload() []byte {
	return transactionSigningPayload(tx.From, tx.To, tx.Amount, tx.Timeslot)
}

// Verify checks that Signature validates (From, To, Amount, Timeslot)
// under From's key. This is a pure function; it consults no ledger state.
func (tx *Transaction) Verify() error {
	if tx.From.IsZero() || tx.To.IsZero() {
		return errors.New("transaction missing from/to key")
	}
	if err := crypto.Verify(tx.From, tx.signingPayload(), tx.Signature); err != nil {
		return fmt.Errorf("transaction signature invalid: %w", err)
	}
	return nil
}

// Hash is a stable content hash over all five fields, used for mempool
// dedup and as the leaf hash in a block's signing payload.
func (tx *Transaction) Hash() []byte {
	sig, _ := hex.DecodeString(tx.Signature)
	payload := append(append([]byte{}, tx.signingPayload()...), sig...)
	return crypto.HashBytes(payload)
}

// HashHex is the hex-encoded form of Hash, used as a map key.
func (tx *Transaction) HashHex() string {
	return hex.EncodeToString(tx.Hash())
}

// Equal reports structural equality: all five fields match.
func (tx *Transaction) Equal(other *Transaction) bool {
	if other == nil {
		return false
	}
	return tx.From.Equal(other.From) &&
		tx.To.Equal(other.To) &&
		tx.Amount == other.Amount &&
		tx.Timeslot == other.Timeslot &&
		tx.Signature == other.Signature
}
