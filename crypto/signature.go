package crypto

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Sign signs data with the private key under RSA-PSS/SHA-256 and returns
// a hex-encoded signature. Panics only on allocation failure in the rand
// source, the same failure mode as the key generation it pairs with.
func Sign(priv PrivateKey, data []byte) string {
	digest := sha256.Sum256(data)
	sig, err := rsa.SignPSS(rand.Reader, priv.key, crypto.SHA256, digest[:], nil)
	if err != nil {
		panic(fmt.Sprintf("rsa-pss sign: %v", err))
	}
	return hex.EncodeToString(sig)
}

// Verify checks a hex-encoded RSA-PSS/SHA-256 signature against data
// using the public key.
func Verify(pub PublicKey, data []byte, sigHex string) error {
	sig, err := hex.DecodeString(sigHex)
	if err != nil {
		return fmt.Errorf("invalid signature hex: %w", err)
	}
	digest := sha256.Sum256(data)
	if err := rsa.VerifyPSS(pub.key, crypto.SHA256, digest[:], sig, nil); err != nil {
		return fmt.Errorf("signature verification failed: %w", err)
	}
	return nil
}
