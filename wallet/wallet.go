// Package wallet is an in-memory signing convenience for tests and demo
// tooling. Persisting keys to disk is an out-of-scope external
// collaborator; nothing here touches a filesystem.
package wallet

import (
	"github.com/tolelom/drawchain/core"
	"github.com/tolelom/drawchain/crypto"
)

// Wallet holds a key pair and provides transaction-building helpers.
type Wallet struct {
	priv crypto.PrivateKey
	pub  crypto.PublicKey
}

// New creates a Wallet from an existing private key.
func New(priv crypto.PrivateKey) *Wallet {
	return &Wallet{priv: priv, pub: priv.Public()}
}

// Generate creates a Wallet with a freshly generated key pair of the
// given bit size (crypto.ProductionBits or crypto.TestBits).
func Generate(bits int) (*Wallet, error) {
	priv, _, err := crypto.GenerateKeyPair(bits)
	if err != nil {
		return nil, err
	}
	return New(priv), nil
}

// PrivKey returns the raw private key (handle with care).
func (w *Wallet) PrivKey() crypto.PrivateKey {
	return w.priv
}

// PubKey returns the wallet's public key.
func (w *Wallet) PubKey() crypto.PublicKey {
	return w.pub
}

// Address returns the hex-encoded canonical DER public key, used as the
// account identifier throughout the ledger.
func (w *Wallet) Address() string {
	return w.pub.Hex()
}

// Transfer creates a signed transfer transaction to to at timeslot.
func (w *Wallet) Transfer(to crypto.PublicKey, amount, timeslot uint64) *core.Transaction {
	return core.NewTransaction(w.priv, to, amount, timeslot)
}

// Stake signs a draw bound to prevHash and timeslot.
func (w *Wallet) Stake(prevHash [32]byte, timeslot uint64) *core.Draw {
	return core.NewDraw(w.priv, timeslot, prevHash)
}
