package core

import (
	"testing"

	"github.com/tolelom/drawchain/crypto"
)

// findWinningDraw retries signing a fresh draw against prevHash/timeslot
// until wallet wins the lottery under ledger, or gives up. The aggregate
// win probability is calibrated to roughly 10% per attempt, so a few
// hundred attempts make failure to find one astronomically unlikely
// unless the lottery math itself is broken.
func findWinningDraw(t *testing.T, ledger *Ledger, priv crypto.PrivateKey, wallet crypto.PublicKey, timeslot uint64, prevHash [32]byte) *Draw {
	t.Helper()
	for i := 0; i < 2000; i++ {
		d := NewDraw(priv, timeslot, prevHash)
		if Wins(ledger, d, wallet) {
			return d
		}
	}
	t.Fatal("could not find a winning draw in 2000 attempts")
	return nil
}

func mustKeyPair(t *testing.T) (crypto.PrivateKey, crypto.PublicKey) {
	t.Helper()
	priv, pub, err := crypto.GenerateKeyPair(crypto.TestBits)
	if err != nil {
		t.Fatalf("generate key pair: %v", err)
	}
	return priv, pub
}

// rootSet builds n root-account key pairs and returns the private keys
// (index-aligned with their public keys) for signing in tests.
func rootSet(t *testing.T, n int) ([]crypto.PrivateKey, []crypto.PublicKey) {
	t.Helper()
	privs := make([]crypto.PrivateKey, n)
	pubs := make([]crypto.PublicKey, n)
	for i := 0; i < n; i++ {
		privs[i], pubs[i] = mustKeyPair(t)
	}
	return privs, pubs
}
