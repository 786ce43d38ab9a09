package core

import (
	"fmt"

	"github.com/tolelom/drawchain/crypto"
)

// highWaterEntry is one undo record for a sender's replay-nonce
// high-water mark, pushed on every successful apply and popped on
// rollback, restoring the prior mark exactly (including "had none yet").
type highWaterEntry struct {
	had   bool
	value uint64
}

// Ledger maps account identifiers (canonical DER hex) to balances, plus
// enough history to roll back any applied transaction or reward in LIFO
// order per sender.
type Ledger struct {
	balances  map[string]uint64
	highWater map[string]uint64
	undoStack map[string][]highWaterEntry
}

// NewLedger creates a ledger crediting every root account with amount.
func NewLedger(roots []crypto.PublicKey, amount uint64) *Ledger {
	l := &Ledger{
		balances:  make(map[string]uint64, len(roots)),
		highWater: make(map[string]uint64),
		undoStack: make(map[string][]highWaterEntry),
	}
	for _, r := range roots {
		l.balances[r.Hex()] += amount
	}
	return l
}

// Balance returns the account's balance; a missing entry is zero.
func (l *Ledger) Balance(account crypto.PublicKey) uint64 {
	return l.balances[account.Hex()]
}

// TotalSupply sums every account balance.
func (l *Ledger) TotalSupply() uint64 {
	var sum uint64
	for _, b := range l.balances {
		sum += b
	}
	return sum
}

// ApplyTransaction succeeds iff tx's signature is valid, the sender has
// at least amount+TransactionFee, and tx.Timeslot strictly exceeds the
// sender's last applied timeslot. On success the fee is burned: it is
// deducted from the sender but credited to no account.
func (l *Ledger) ApplyTransaction(tx *Transaction) error {
	if err := tx.Verify(); err != nil {
		return fmt.Errorf("apply transaction: %w", err)
	}
	fromKey := tx.From.Hex()
	toKey := tx.To.Hex()
	total := tx.Amount + TransactionFee
	if l.balances[fromKey] < total {
		return fmt.Errorf("apply transaction: %w", ErrInsufficientBalance)
	}
	prevHW, hadHW := l.highWater[fromKey]
	if hadHW && tx.Timeslot <= prevHW {
		return fmt.Errorf("apply transaction: %w", ErrStaleTimeslot)
	}

	l.balances[fromKey] -= total
	l.balances[toKey] += tx.Amount
	l.highWater[fromKey] = tx.Timeslot
	l.undoStack[fromKey] = append(l.undoStack[fromKey], highWaterEntry{had: hadHW, value: prevHW})
	return nil
}

// RollbackTransaction inverts a previously applied transaction. Callers
// must invoke this in LIFO order per sender; it does not re-verify the
// transaction since it must already have been applied successfully.
func (l *Ledger) RollbackTransaction(tx *Transaction) error {
	fromKey := tx.From.Hex()
	toKey := tx.To.Hex()
	stack := l.undoStack[fromKey]
	if len(stack) == 0 {
		return fmt.Errorf("rollback transaction: no matching apply recorded for %s", fromKey)
	}
	entry := stack[len(stack)-1]
	l.undoStack[fromKey] = stack[:len(stack)-1]

	total := tx.Amount + TransactionFee
	l.balances[fromKey] += total
	l.balances[toKey] -= tx.Amount
	if entry.had {
		l.highWater[fromKey] = entry.value
	} else {
		delete(l.highWater, fromKey)
	}
	return nil
}

// Reward unconditionally credits producer; no signature check applies.
func (l *Ledger) Reward(producer crypto.PublicKey, amount uint64) {
	l.balances[producer.Hex()] += amount
}

// RollbackReward is the inverse of Reward.
func (l *Ledger) RollbackReward(producer crypto.PublicKey, amount uint64) {
	l.balances[producer.Hex()] -= amount
}

// Clone deep-copies the ledger for speculative use (greedy mempool
// selection in BuildBlock, or a throwaway solvency probe in
// SubmitTransaction) without mutating the live state.
func (l *Ledger) Clone() *Ledger {
	balances := make(map[string]uint64, len(l.balances))
	for k, v := range l.balances {
		balances[k] = v
	}
	highWater := make(map[string]uint64, len(l.highWater))
	for k, v := range l.highWater {
		highWater[k] = v
	}
	undo := make(map[string][]highWaterEntry, len(l.undoStack))
	for k, v := range l.undoStack {
		cp := make([]highWaterEntry, len(v))
		copy(cp, v)
		undo[k] = cp
	}
	return &Ledger{balances: balances, highWater: highWater, undoStack: undo}
}

// Equal reports whether l and other hold identical balances for every
// account either has touched. Used by the full-chain audit to compare a
// from-genesis replay against the live ledger.
func (l *Ledger) Equal(other *Ledger) bool {
	seen := make(map[string]struct{}, len(l.balances)+len(other.balances))
	for k := range l.balances {
		seen[k] = struct{}{}
	}
	for k := range other.balances {
		seen[k] = struct{}{}
	}
	for k := range seen {
		if l.balances[k] != other.balances[k] {
			return false
		}
	}
	return true
}
