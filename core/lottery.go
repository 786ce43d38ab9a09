package core

import (
	"math/big"

	"github.com/tolelom/drawchain/crypto"
)

// Wins implements the stake-weighted admission test: the producer wins
// iff v·(H·T + b·(M−H)) > H·T·M, where v is the draw's value, T the
// ledger's total supply, b the claimed wallet's balance, M = 2^256, and
// H the fixed hardness constant. A zero-stake wallet has effectively
// zero win probability; the full-supply holder wins with probability
// approximately 1 − H/M. Must be evaluated in arbitrary precision:
// fixed-width overflow would corrupt fairness.
func Wins(ledger *Ledger, draw *Draw, wallet crypto.PublicKey) bool {
	if !draw.SignedBy.Equal(wallet) {
		return false
	}
	balance := new(big.Int).SetUint64(ledger.Balance(wallet))
	total := new(big.Int).SetUint64(ledger.TotalSupply())
	return winsInequality(draw.Value(), balance, total)
}

// winsInequality is the pure arithmetic core of the lottery, split out
// from Wins so it can be exercised directly with crafted big.Int inputs
// instead of needing a real signed draw for every boundary case.
func winsInequality(value, balance, total *big.Int) bool {
	weighted := new(big.Int).Mul(hardness, total)
	floor := new(big.Int).Mul(balance, new(big.Int).Sub(maxHash, hardness))
	weighted.Add(weighted, floor)

	lhs := new(big.Int).Mul(value, weighted)
	rhs := new(big.Int).Mul(new(big.Int).Mul(hardness, total), maxHash)

	return lhs.Cmp(rhs) > 0
}
