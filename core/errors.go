package core

import (
	"errors"
	"fmt"
)

// Rejection sentinels: input-local, recoverable, never mutate state.
// Parking is not reported through these: SubmitBlock returns a Parked
// outcome with a nil error, and ErrUnknownParent is not returned by it.
var (
	ErrHalted              = errors.New("engine halted after an invariant breach")
	ErrInvalidBlock        = errors.New("block failed byte-level verification")
	ErrInvalidTransaction  = errors.New("transaction failed verification")
	ErrStaleTimeslot       = errors.New("timeslot does not strictly exceed the reference point")
	ErrFutureTimeslot      = errors.New("timeslot is beyond the current timeslot")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrUnknownParent       = errors.New("parent block not present in the block tree")
	ErrNonWinningProducer  = errors.New("producer did not win the staking lottery against the ledger at the parent block")
)

// InvariantBreachError marks the fatal tier: a transaction that passed
// byte-level verification at submission failed to apply during replay,
// or the full-chain audit disagreed with the live ledger. These indicate
// a bug in the engine or a consensus divergence, never ordinary peer
// misbehavior, and the engine latches halted rather than continue.
type InvariantBreachError struct {
	Reason string
}

func (e *InvariantBreachError) Error() string {
	return fmt.Sprintf("invariant breach: %s", e.Reason)
}
