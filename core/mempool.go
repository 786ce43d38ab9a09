package core

import (
	"errors"
	"fmt"
	"sync"
)

const maxMempoolSize = 10_000

// Mempool is a deduplicated, insertion-ordered set of transactions not
// yet included in any ancestor of the current tip. Dedup key is the
// transaction's content hash, which is exactly the spec's "structural
// equality" (all five fields, signature included).
type Mempool struct {
	mu  sync.RWMutex
	txs map[string]*Transaction
	ord []string
}

// NewMempool creates an empty mempool.
func NewMempool() *Mempool {
	return &Mempool{txs: make(map[string]*Transaction)}
}

// Add validates the signature and inserts tx, rejecting duplicates and
// enforcing a capacity bound. Balance and replay-nonce applicability are
// the caller's concern (SubmitTransaction checks them against the live
// ledger before calling Add).
func (m *Mempool) Add(tx *Transaction) error {
	if err := tx.Verify(); err != nil {
		return fmt.Errorf("invalid tx signature: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := tx.HashHex()
	if _, exists := m.txs[key]; exists {
		return errors.New("tx already in pool")
	}
	if len(m.txs) >= maxMempoolSize {
		return errors.New("mempool full")
	}
	m.txs[key] = tx
	m.ord = append(m.ord, key)
	return nil
}

// Reinsert re-adds a transaction abandoned by a fork switch. Unlike Add
// it is best-effort: a transaction that is already back in the pool, or
// that the pool is too full to hold, is silently dropped, matching the
// spec's unconditional "returned to the mempool" wording rather than a
// second admission check.
func (m *Mempool) Reinsert(tx *Transaction) {
	_ = m.Add(tx)
}

func (m *Mempool) removeKey(key string) {
	if _, ok := m.txs[key]; !ok {
		return
	}
	delete(m.txs, key)
	for i, id := range m.ord {
		if id == key {
			m.ord = append(m.ord[:i], m.ord[i+1:]...)
			break
		}
	}
}

// Remove deletes a single transaction, used after it is individually
// confirmed elsewhere.
func (m *Mempool) Remove(tx *Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeKey(tx.HashHex())
}

// RemoveAll deletes every transaction in txs, called after a block
// containing them is admitted.
func (m *Mempool) RemoveAll(txs []*Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tx := range txs {
		m.removeKey(tx.HashHex())
	}
}

// Pending returns every pending transaction in insertion order. The
// spec declares this order unspecified and not meaningful across nodes;
// insertion order is used here only so tests are reproducible.
func (m *Mempool) Pending() []*Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*Transaction, 0, len(m.ord))
	for _, id := range m.ord {
		result = append(result, m.txs[id])
	}
	return result
}

// Contains reports whether an equal transaction is already pooled.
func (m *Mempool) Contains(tx *Transaction) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.txs[tx.HashHex()]
	return ok
}

// Size returns the number of pending transactions.
func (m *Mempool) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.txs)
}
