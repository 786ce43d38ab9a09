package core

import (
	"testing"

	"github.com/tolelom/drawchain/crypto"
)

func buildBlock(t *testing.T, priv crypto.PrivateKey, prevHash [32]byte, depth, timeslot uint64, txs []*Transaction) *Block {
	t.Helper()
	d := NewDraw(priv, timeslot, prevHash)
	return NewBlock(priv, prevHash, depth, timeslot, txs, d)
}

func TestBlockSignVerify(t *testing.T) {
	privs, _ := rootSet(t, 1)
	b := buildBlock(t, privs[0], [32]byte{1}, 1, 1, nil)
	if err := b.Verify(); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestBlockVerifyRejectsTamperedDepth(t *testing.T) {
	privs, _ := rootSet(t, 1)
	b := buildBlock(t, privs[0], [32]byte{1}, 1, 1, nil)
	b.Depth = 5
	if err := b.Verify(); err == nil {
		t.Fatal("expected verify to reject a tampered depth")
	}
}

func TestBlockVerifyRejectsTamperedHash(t *testing.T) {
	privs, _ := rootSet(t, 1)
	b := buildBlock(t, privs[0], [32]byte{1}, 1, 1, nil)
	b.Hash[0] ^= 0xff
	if err := b.Verify(); err == nil {
		t.Fatal("expected verify to reject a stored hash that doesn't match the payload")
	}
}

func TestBlockVerifyRejectsMismatchedDrawProducer(t *testing.T) {
	privs, _ := rootSet(t, 2)
	prevHash := [32]byte{1}
	otherDraw := NewDraw(privs[1], 1, prevHash)
	b := NewBlock(privs[0], prevHash, 1, 1, nil, otherDraw)
	if err := b.Verify(); err == nil {
		t.Fatal("expected verify to reject a draw signed by a different key than the producer")
	}
}

func TestBlockVerifyRejectsTransactionWithBadSignature(t *testing.T) {
	privs, pubs := rootSet(t, 2)
	tx := NewTransaction(privs[0], pubs[1], 5, 1)
	tx.Amount = 999
	b := buildBlock(t, privs[0], [32]byte{1}, 1, 1, []*Transaction{tx})
	if err := b.Verify(); err == nil {
		t.Fatal("expected verify to reject a block containing an invalid transaction")
	}
}

func TestIsBetterThanPrefersHigherDrawValue(t *testing.T) {
	privs, _ := rootSet(t, 1)
	priv := privs[0]

	a := buildBlock(t, priv, [32]byte{1}, 1, 1, nil)
	b := buildBlock(t, priv, [32]byte{1}, 1, 1, nil)

	// Force a deterministic ordering on the draw value component so the
	// test doesn't depend on which randomized PSS signature happened to
	// hash higher.
	if a.Draw.Value().Cmp(b.Draw.Value()) == 0 {
		t.Skip("drew identical values, cannot exercise ordering")
	}
	higher, lower := a, b
	if b.Draw.Value().Cmp(a.Draw.Value()) > 0 {
		higher, lower = b, a
	}
	if !higher.IsBetterThan(lower) {
		t.Fatal("block with the higher draw value should be better")
	}
	if lower.IsBetterThan(higher) {
		t.Fatal("block with the lower draw value should not be better")
	}
}

func TestIsBetterThanBreaksTiesByHash(t *testing.T) {
	privs, _ := rootSet(t, 1)
	priv := privs[0]
	prevHash := [32]byte{1}
	d := NewDraw(priv, 1, prevHash)

	a := NewBlock(priv, prevHash, 1, 1, nil, d)
	b := NewBlock(priv, prevHash, 1, 1, []*Transaction{NewTransaction(priv, priv.Public(), 1, 1)}, d)
	// Same draw (same value); the block hash covers the transaction list
	// but not the block signature, so only the differing transaction list
	// makes the two hashes differ.
	if a.Hash == b.Hash {
		t.Skip("identical hashes, cannot exercise the tie-break")
	}
	higher, lower := a, b
	if string(b.Hash[:]) > string(a.Hash[:]) {
		higher, lower = b, a
	}
	if !higher.IsBetterThan(lower) {
		t.Fatal("equal draw value should fall back to lexicographically greater hash")
	}
}
