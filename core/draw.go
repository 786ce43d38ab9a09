package core

import (
	"bytes"
	"encoding/hex"
	"math/big"

	"github.com/tolelom/drawchain/crypto"
)

// Draw is a signed, timeslot-bound value whose hash is the input to the
// staking lottery. It binds a producer to a specific tip and timeslot so
// a draw computed for one fork cannot be replayed against another.
type Draw struct {
	Timeslot  uint64
	SignedBy  crypto.PublicKey
	PrevHash  [32]byte
	Signature string
}

// NewDraw produces a draw bound to prevHash and timeslot, signed by priv.
func NewDraw(priv crypto.PrivateKey, timeslot uint64, prevHash [32]byte) *Draw {
	d := &Draw{
		Timeslot: timeslot,
		SignedBy: priv.Public(),
		PrevHash: prevHash,
	}
	d.Signature = crypto.Sign(priv, d.signingPayload())
	return d
}

func (d *Draw) signingPayload() []byte {
	return drawSigningPayload(d.Timeslot, d.SignedBy, d.PrevHash)
}

// Verify checks the draw's own signature; it says nothing about whether
// the draw wins the lottery or matches a particular block.
func (d *Draw) Verify() error {
	return crypto.Verify(d.SignedBy, d.signingPayload(), d.Signature)
}

// Value is the draw's 256-bit unsigned value: SHA-256 of the signature
// bytes, interpreted big-endian.
func (d *Draw) Value() *big.Int {
	sig, err := hex.DecodeString(d.Signature)
	if err != nil {
		return new(big.Int)
	}
	digest := crypto.HashBytes(sig)
	return new(big.Int).SetBytes(digest)
}

// encode is the canonical encoding of all four draw fields, used when a
// draw is embedded inside a block's signing payload.
func (d *Draw) encode() []byte {
	var buf bytes.Buffer
	buf.Write(d.signingPayload())
	sig, _ := hex.DecodeString(d.Signature)
	writeLP(&buf, sig)
	return buf.Bytes()
}
