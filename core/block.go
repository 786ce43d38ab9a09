package core

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/tolelom/drawchain/crypto"
)

// Block is the unit the chain-state engine ingests: a parent link, a
// staking draw, an ordered transaction list, and a producer signature
// over all of it.
type Block struct {
	Timeslot     uint64
	PrevHash     [32]byte
	Depth        uint64
	Producer     crypto.PublicKey
	Transactions []*Transaction
	Draw         *Draw
	Signature    string
	Hash         [32]byte
}

// NewBlock assembles and signs a block. depth must be parent.Depth+1
// except for the genesis block, which callers construct with depth 0.
func NewBlock(priv crypto.PrivateKey, prevHash [32]byte, depth, timeslot uint64, txs []*Transaction, draw *Draw) *Block {
	b := &Block{
		Timeslot:     timeslot,
		PrevHash:     prevHash,
		Depth:        depth,
		Producer:     priv.Public(),
		Transactions: txs,
		Draw:         draw,
	}
	payload := b.signingPayload()
	copy(b.Hash[:], crypto.HashBytes(payload))
	b.Signature = crypto.Sign(priv, payload)
	return b
}

func (b *Block) signingPayload() []byte {
	return blockSigningPayload(b.Timeslot, b.PrevHash, b.Depth, b.Producer, b.Transactions, b.Draw)
}

func (b *Block) computeHash() [32]byte {
	var h [32]byte
	copy(h[:], crypto.HashBytes(b.signingPayload()))
	return h
}

// Verify performs full byte-level verification: the stored hash matches
// the recomputed one, the producer's signature validates, the embedded
// draw is internally consistent with this block, and every contained
// transaction verifies individually. It consults no ledger state.
func (b *Block) Verify() error {
	if computed := b.computeHash(); computed != b.Hash {
		return fmt.Errorf("block hash mismatch: stored %x computed %x", b.Hash, computed)
	}
	if err := crypto.Verify(b.Producer, b.signingPayload(), b.Signature); err != nil {
		return fmt.Errorf("block signature invalid: %w", err)
	}
	if b.Draw == nil {
		return errors.New("block missing draw")
	}
	if err := b.Draw.Verify(); err != nil {
		return fmt.Errorf("draw invalid: %w", err)
	}
	if !b.Draw.SignedBy.Equal(b.Producer) {
		return errors.New("draw signed_by does not match block producer")
	}
	if b.Draw.PrevHash != b.PrevHash {
		return errors.New("draw prev_hash does not match block prev_hash")
	}
	if b.Draw.Timeslot != b.Timeslot {
		return errors.New("draw timeslot does not match block timeslot")
	}
	for i, tx := range b.Transactions {
		if err := tx.Verify(); err != nil {
			return fmt.Errorf("transaction %d invalid: %w", i, err)
		}
	}
	return nil
}

// IsBetterThan is the strict total order used for tie-breaks at equal
// depth: higher draw value wins, lexicographically greater hash breaks
// an exact tie. It is anti-symmetric and transitive.
func (b *Block) IsBetterThan(other *Block) bool {
	if cmp := b.Draw.Value().Cmp(other.Draw.Value()); cmp != 0 {
		return cmp > 0
	}
	return bytes.Compare(b.Hash[:], other.Hash[:]) > 0
}
