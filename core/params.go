package core

import "math/big"

// Protocol tuneables. These are compile-time constants, not runtime
// configuration: spec-level global configuration is immutable for the
// lifetime of an engine.
const (
	BlockReward    uint64 = 50
	RootAmount     uint64 = 300
	TransactionFee uint64 = 1
)

// hardness and maxHash are the fixed difficulty target and the draw's
// value space (2^256), calibrated so the aggregate network win
// probability per timeslot is roughly 10%.
var (
	hardness = new(big.Int).Mul(big.NewInt(10421), new(big.Int).Exp(big.NewInt(10), big.NewInt(73), nil))
	maxHash  = new(big.Int).Lsh(big.NewInt(1), 256)
)
