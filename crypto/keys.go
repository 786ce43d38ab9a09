// Package crypto wraps the RSA-PSS/SHA-256 primitives the chain state
// engine treats as a black box: key generation, canonical account
// identifiers, and signing/verification. spec.md §9 hard-wires this
// scheme into every hash in the system, so it is never abstracted behind
// an interface — swapping it would silently break cross-implementation
// hash agreement.
package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/hex"
	"fmt"
)

// ProductionBits is the key size used in production.
const ProductionBits = 2048

// TestBits is the minimum key size permitted for test fixtures.
const TestBits = 1024

// PrivateKey wraps an RSA private key.
type PrivateKey struct {
	key *rsa.PrivateKey
}

// PublicKey wraps an RSA public key. Equality and hashing throughout the
// engine are over PublicKey.DER(), its canonical serialized form.
type PublicKey struct {
	key *rsa.PublicKey
}

// GenerateKeyPair generates a new RSA key pair. bits must be at least
// TestBits; production nodes use ProductionBits.
func GenerateKeyPair(bits int) (PrivateKey, PublicKey, error) {
	if bits < TestBits {
		return PrivateKey{}, PublicKey{}, fmt.Errorf("key size %d below minimum %d", bits, TestBits)
	}
	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return PrivateKey{}, PublicKey{}, fmt.Errorf("generate rsa key: %w", err)
	}
	return PrivateKey{key: key}, PublicKey{key: &key.PublicKey}, nil
}

// Public derives the public key from priv.
func (priv PrivateKey) Public() PublicKey {
	return PublicKey{key: &priv.key.PublicKey}
}

// IsZero reports whether priv is the zero value.
func (priv PrivateKey) IsZero() bool { return priv.key == nil }

// IsZero reports whether pub is the zero value.
func (pub PublicKey) IsZero() bool { return pub.key == nil }

// DER returns the canonical PKIX DER encoding of the public key. This is
// the serialized form account identity, hashing, and signature
// verification all key off of (spec.md §3, §6).
func (pub PublicKey) DER() []byte {
	if pub.key == nil {
		return nil
	}
	der, err := x509.MarshalPKIXPublicKey(pub.key)
	if err != nil {
		// MarshalPKIXPublicKey only fails for key types it doesn't
		// support; an *rsa.PublicKey always succeeds.
		panic(fmt.Sprintf("marshal public key: %v", err))
	}
	return der
}

// Hex returns the hex-encoded canonical DER form, used as the map key
// for account identity throughout core.Ledger.
func (pub PublicKey) Hex() string {
	return hex.EncodeToString(pub.DER())
}

// Equal reports whether pub and other identify the same account.
func (pub PublicKey) Equal(other PublicKey) bool {
	return pub.Hex() == other.Hex()
}

// PublicKeyFromDER parses a canonical PKIX DER-encoded public key.
func PublicKeyFromDER(der []byte) (PublicKey, error) {
	pub, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return PublicKey{}, fmt.Errorf("parse public key der: %w", err)
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return PublicKey{}, fmt.Errorf("unsupported public key type %T", pub)
	}
	return PublicKey{key: rsaPub}, nil
}

// PublicKeyFromHex decodes a hex-encoded canonical DER public key.
func PublicKeyFromHex(s string) (PublicKey, error) {
	der, err := hex.DecodeString(s)
	if err != nil {
		return PublicKey{}, fmt.Errorf("invalid pubkey hex: %w", err)
	}
	return PublicKeyFromDER(der)
}
