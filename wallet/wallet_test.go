package wallet

import (
	"testing"

	"github.com/tolelom/drawchain/crypto"
)

func TestGenerateProducesUsableWallet(t *testing.T) {
	w, err := Generate(crypto.TestBits)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if w.Address() == "" {
		t.Fatal("address should not be empty")
	}
}

func TestTransferIsSignedAndVerifiable(t *testing.T) {
	w, err := Generate(crypto.TestBits)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	other, err := Generate(crypto.TestBits)
	if err != nil {
		t.Fatalf("generate other: %v", err)
	}
	tx := w.Transfer(other.PubKey(), 10, 1)
	if err := tx.Verify(); err != nil {
		t.Fatalf("transfer should verify: %v", err)
	}
}

func TestStakeIsSignedAndVerifiable(t *testing.T) {
	w, err := Generate(crypto.TestBits)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	d := w.Stake([32]byte{1, 2, 3}, 5)
	if err := d.Verify(); err != nil {
		t.Fatalf("stake draw should verify: %v", err)
	}
}

func TestAddressMatchesPublicKeyHex(t *testing.T) {
	w, err := Generate(crypto.TestBits)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if w.Address() != w.PubKey().Hex() {
		t.Fatal("Address() should equal the public key's hex encoding")
	}
}
