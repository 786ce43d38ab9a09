package core

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/tolelom/drawchain/crypto"
)

// SubmitResult is the coarse outcome of submitting a block.
type SubmitResult int

const (
	Rejected SubmitResult = iota
	Parked
	Accepted
)

func (r SubmitResult) String() string {
	switch r {
	case Parked:
		return "parked"
	case Accepted:
		return "accepted"
	default:
		return "rejected"
	}
}

// SubmitOutcome reports both whether a block was admitted and whether
// that admission changed the best-path tip.
type SubmitOutcome struct {
	Result     SubmitResult
	TipChanged bool
}

// Blockchain is the chain-state engine: a depth-indexed block tree, an
// orphan index keyed by missing-parent hash, the live ledger reflecting
// the best-path tip, and the mempool of transactions not yet on that
// path. It is specified as single-threaded cooperative; mu exists to
// give a concurrent caller the single read-write lock the spec says a
// parallel implementation needs around the engine as a whole.
type Blockchain struct {
	mu sync.RWMutex

	blocks  []map[[32]byte]*Block // blocks[depth][hash]
	orphans map[[32]byte][]*Block // orphans[missingParentHash]

	ledger       *Ledger
	mempool      *Mempool
	rootAccounts []crypto.PublicKey

	tipHash  [32]byte
	tipDepth uint64

	halted     bool
	haltReason string
}

// Start creates a fresh engine: builds and admits the genesis block over
// rootAccounts (deduplicated by key, sorted canonically) and credits each
// with RootAmount. genesisSigner need not be one of the root accounts —
// any signing key may sign the genesis block.
func Start(rootAccounts []crypto.PublicKey, genesisSigner crypto.PrivateKey) (*Blockchain, error) {
	if len(rootAccounts) == 0 {
		return nil, errors.New("start: at least one root account is required")
	}
	sorted := make([]crypto.PublicKey, 0, len(rootAccounts))
	seen := make(map[string]struct{}, len(rootAccounts))
	for _, r := range rootAccounts {
		if _, dup := seen[r.Hex()]; dup {
			continue
		}
		seen[r.Hex()] = struct{}{}
		sorted = append(sorted, r)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Hex() < sorted[j].Hex() })

	prevHash := computeGenesisPrevHash(sorted)
	draw := NewDraw(genesisSigner, 0, prevHash)
	genesis := NewBlock(genesisSigner, prevHash, 0, 0, nil, draw)

	bc := &Blockchain{
		blocks:       []map[[32]byte]*Block{{genesis.Hash: genesis}},
		orphans:      make(map[[32]byte][]*Block),
		ledger:       NewLedger(sorted, RootAmount),
		mempool:      NewMempool(),
		rootAccounts: sorted,
		tipHash:      genesis.Hash,
		tipDepth:     0,
	}
	return bc, nil
}

// computeGenesisPrevHash is SHA-256 over the concatenated canonical
// encodings of the (already sorted) root account public keys.
func computeGenesisPrevHash(sortedRoots []crypto.PublicKey) [32]byte {
	var buf bytes.Buffer
	for _, r := range sortedRoots {
		writeLP(&buf, r.DER())
	}
	var h [32]byte
	copy(h[:], crypto.HashBytes(buf.Bytes()))
	return h
}

// Halted reports whether a prior invariant breach has latched the
// engine; every mutating operation refuses once this is set.
func (bc *Blockchain) Halted() (bool, string) {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.halted, bc.haltReason
}

func (bc *Blockchain) invariantBreach(reason string) error {
	bc.halted = true
	bc.haltReason = reason
	log.Printf("invariant breach, halting engine: %s", reason)
	return &InvariantBreachError{Reason: reason}
}

func (bc *Blockchain) ensureDepth(depth uint64) {
	for uint64(len(bc.blocks)) <= depth {
		bc.blocks = append(bc.blocks, make(map[[32]byte]*Block))
	}
}

func (bc *Blockchain) applyBlock(b *Block) error {
	for _, tx := range b.Transactions {
		if err := bc.ledger.ApplyTransaction(tx); err != nil {
			return err
		}
	}
	bc.ledger.Reward(b.Producer, BlockReward)
	return nil
}

func (bc *Blockchain) undoBlock(b *Block) error {
	bc.ledger.RollbackReward(b.Producer, BlockReward)
	for i := len(b.Transactions) - 1; i >= 0; i-- {
		if err := bc.ledger.RollbackTransaction(b.Transactions[i]); err != nil {
			return fmt.Errorf("rollback transaction in block %x: %w", b.Hash, err)
		}
	}
	return nil
}

// ledgerAt reconstructs the ledger as of target by replaying the chain
// from genesis along target's ancestor chain. Used to evaluate the
// staking lottery against blocks that do not extend the live tip, whose
// state the incrementally-maintained ledger does not reflect.
func (bc *Blockchain) ledgerAt(target *Block) (*Ledger, error) {
	var path []*Block
	cur := target
	for {
		path = append(path, cur)
		if cur.Depth == 0 {
			break
		}
		parent, ok := bc.blocks[cur.Depth-1][cur.PrevHash]
		if !ok {
			return nil, fmt.Errorf("missing ancestor at depth %d while reconstructing ledger", cur.Depth-1)
		}
		cur = parent
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	ledger := NewLedger(bc.rootAccounts, RootAmount)
	for _, blk := range path {
		for _, tx := range blk.Transactions {
			if err := ledger.ApplyTransaction(tx); err != nil {
				return nil, fmt.Errorf("reconstruct ledger at %x: %w", target.Hash, err)
			}
		}
		if blk.Depth > 0 {
			ledger.Reward(blk.Producer, BlockReward)
		}
	}
	return ledger, nil
}

// SubmitBlock is the sole entry point for admitting a block. It drives
// the orphan cascade itself as an explicit FIFO work-list — admission of
// one block may unpark children, and their children in turn — bounding
// stack depth on long orphan chains instead of recursing.
func (bc *Blockchain) SubmitBlock(b *Block, currentTimeslot uint64) (SubmitOutcome, error) {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	if bc.halted {
		return SubmitOutcome{Result: Rejected}, ErrHalted
	}

	outcome, err := bc.admitBlock(b, currentTimeslot)
	if err != nil || outcome.Result != Accepted {
		return outcome, err
	}

	queue := []*Block{b}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		children := bc.orphans[cur.Hash]
		delete(bc.orphans, cur.Hash)
		for _, child := range children {
			childOutcome, err := bc.admitBlock(child, currentTimeslot)
			if err != nil {
				return outcome, err
			}
			if childOutcome.Result == Accepted {
				outcome.TipChanged = outcome.TipChanged || childOutcome.TipChanged
				queue = append(queue, child)
			}
		}
	}
	return outcome, nil
}

// admitBlock performs steps 1-6 of submit_block (verify, parent lookup
// or parking, timeslot check, insertion, mempool removal, fork choice)
// for a single block. Orphan cascading is the caller's responsibility.
func (bc *Blockchain) admitBlock(b *Block, currentTimeslot uint64) (SubmitOutcome, error) {
	if err := b.Verify(); err != nil {
		return SubmitOutcome{Result: Rejected}, fmt.Errorf("%w: %v", ErrInvalidBlock, err)
	}
	if b.Depth == 0 {
		return SubmitOutcome{Result: Rejected}, errors.New("genesis cannot be resubmitted")
	}

	var parent *Block
	ok := false
	if b.Depth-1 < uint64(len(bc.blocks)) {
		parent, ok = bc.blocks[b.Depth-1][b.PrevHash]
	}
	if !ok {
		bc.orphans[b.PrevHash] = append(bc.orphans[b.PrevHash], b)
		return SubmitOutcome{Result: Parked}, nil
	}

	if b.Timeslot <= parent.Timeslot {
		return SubmitOutcome{Result: Rejected}, ErrStaleTimeslot
	}
	if b.Timeslot > currentTimeslot {
		return SubmitOutcome{Result: Rejected}, ErrFutureTimeslot
	}

	parentLedger := bc.ledger
	if parent.Hash != bc.tipHash {
		reconstructed, err := bc.ledgerAt(parent)
		if err != nil {
			return SubmitOutcome{Result: Rejected}, bc.invariantBreach(err.Error())
		}
		parentLedger = reconstructed
	}
	if !Wins(parentLedger, b.Draw, b.Producer) {
		return SubmitOutcome{Result: Rejected}, ErrNonWinningProducer
	}

	bc.ensureDepth(b.Depth)
	bc.blocks[b.Depth][b.Hash] = b
	bc.mempool.RemoveAll(b.Transactions)

	tipChanged := false
	switch {
	case b.Depth > bc.tipDepth:
		if parent.Hash == bc.tipHash {
			if err := bc.applyBlock(b); err != nil {
				return SubmitOutcome{Result: Rejected}, bc.invariantBreach(
					fmt.Sprintf("malformed admitted block %x: %v", b.Hash, err))
			}
			bc.tipHash, bc.tipDepth = b.Hash, b.Depth
		} else if err := bc.rewindAndReplay(b); err != nil {
			return SubmitOutcome{Result: Rejected}, err
		}
		tipChanged = true
	case b.Depth == bc.tipDepth:
		tip := bc.blocks[bc.tipDepth][bc.tipHash]
		if b.IsBetterThan(tip) {
			if err := bc.rewindAndReplay(b); err != nil {
				return SubmitOutcome{Result: Rejected}, err
			}
			tipChanged = true
		}
	}

	return SubmitOutcome{Result: Accepted, TipChanged: tipChanged}, nil
}

// rewindAndReplay switches the tip from the current block to to via a
// lowest-common-ancestor walk: it undoes ledger effects back to the
// ancestor, then applies the new branch's blocks forward from there.
// Genesis is treated as an ordinary "pointers meet" stop condition, not
// special-cased at depth 1.
func (bc *Blockchain) rewindAndReplay(to *Block) error {
	fromBlock, ok := bc.blocks[bc.tipDepth][bc.tipHash]
	if !ok {
		return bc.invariantBreach("current tip missing from block tree")
	}
	fromDepth := bc.tipDepth

	var replayStack []*Block
	toCur := to
	for toCur.Depth > fromDepth {
		replayStack = append(replayStack, toCur)
		parent, ok := bc.blocks[toCur.Depth-1][toCur.PrevHash]
		if !ok {
			return bc.invariantBreach("missing ancestor descending the new branch to common depth")
		}
		toCur = parent
	}

	var abandoned []*Block
	fromCur := fromBlock
	for fromCur.Hash != toCur.Hash {
		if err := bc.undoBlock(fromCur); err != nil {
			return bc.invariantBreach(err.Error())
		}
		abandoned = append(abandoned, fromCur)
		replayStack = append(replayStack, toCur)

		if fromCur.Depth == 0 || toCur.Depth == 0 {
			return bc.invariantBreach("rewind reached genesis without a common ancestor")
		}
		nextFrom, ok := bc.blocks[fromCur.Depth-1][fromCur.PrevHash]
		if !ok {
			return bc.invariantBreach("missing abandoned-branch ancestor during rewind")
		}
		nextTo, ok := bc.blocks[toCur.Depth-1][toCur.PrevHash]
		if !ok {
			return bc.invariantBreach("missing new-branch ancestor during rewind")
		}
		fromCur, toCur = nextFrom, nextTo
	}

	for i := len(replayStack) - 1; i >= 0; i-- {
		blk := replayStack[i]
		if err := bc.applyBlock(blk); err != nil {
			return bc.invariantBreach(fmt.Sprintf("replay of block %x failed: %v", blk.Hash, err))
		}
		bc.mempool.RemoveAll(blk.Transactions)
	}

	for _, blk := range abandoned {
		for _, tx := range blk.Transactions {
			bc.mempool.Reinsert(tx)
		}
	}

	bc.tipHash, bc.tipDepth = to.Hash, to.Depth
	return nil
}

// SubmitTransaction rejects tx unless its signature is valid and it is
// currently applicable against the live ledger (checked via a throwaway
// clone, so the probe itself never mutates live state); otherwise it is
// inserted into the mempool.
func (bc *Blockchain) SubmitTransaction(tx *Transaction) error {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	if bc.halted {
		return ErrHalted
	}
	if err := tx.Verify(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTransaction, err)
	}
	probe := bc.ledger.Clone()
	if err := probe.ApplyTransaction(tx); err != nil {
		return err
	}
	return bc.mempool.Add(tx)
}

// CurrentDraw signs a fresh draw bound to the current tip and timeslot.
func (bc *Blockchain) CurrentDraw(priv crypto.PrivateKey, timeslot uint64) *Draw {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return NewDraw(priv, timeslot, bc.tipHash)
}

// TryStake evaluates the staking lottery for wallet against draw and the
// live ledger; wallet must equal draw.SignedBy.
func (bc *Blockchain) TryStake(draw *Draw, wallet crypto.PublicKey) bool {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return Wins(bc.ledger, draw, wallet)
}

// BuildBlock assembles a candidate block extending the current tip: a
// greedy prefix of the mempool under a speculative copy of the ledger,
// discarding any transaction that fails to apply against that copy.
// Mempool ordering prior to greedy selection is unspecified.
func (bc *Blockchain) BuildBlock(draw *Draw, priv crypto.PrivateKey, timeslot uint64) (*Block, error) {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	if bc.halted {
		return nil, ErrHalted
	}
	tip := bc.blocks[bc.tipDepth][bc.tipHash]
	if timeslot <= tip.Timeslot {
		return nil, ErrStaleTimeslot
	}
	if draw.PrevHash != bc.tipHash || draw.Timeslot != timeslot {
		return nil, errors.New("build block: draw is not bound to the current tip and timeslot")
	}

	speculative := bc.ledger.Clone()
	var selected []*Transaction
	for _, tx := range bc.mempool.Pending() {
		if err := speculative.ApplyTransaction(tx); err != nil {
			continue
		}
		selected = append(selected, tx)
	}

	return NewBlock(priv, bc.tipHash, bc.tipDepth+1, timeslot, selected, draw), nil
}

// Balance returns account's live balance.
func (bc *Blockchain) Balance(account crypto.PublicKey) uint64 {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.ledger.Balance(account)
}

// BestHash returns the current best-path tip's hash.
func (bc *Blockchain) BestHash() [32]byte {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.tipHash
}

// MempoolSize reports how many transactions are pending inclusion.
func (bc *Blockchain) MempoolSize() int {
	return bc.mempool.Size()
}

// Verify performs the full-chain audit: it reconstructs the ledger from
// genesis along the best-path spine and checks every invariant in
// isolation from the live, incrementally-maintained state. A replay that
// disagrees with the live ledger is an invariant breach and latches the
// engine halted.
func (bc *Blockchain) Verify() bool {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	genesisLevel := bc.blocks[0]
	if len(genesisLevel) != 1 {
		return false
	}
	var genesis *Block
	for _, b := range genesisLevel {
		genesis = b
	}
	if genesis.Depth != 0 || len(genesis.Transactions) != 0 {
		return false
	}
	if genesis.PrevHash != computeGenesisPrevHash(bc.rootAccounts) {
		return false
	}

	tip, ok := bc.blocks[bc.tipDepth][bc.tipHash]
	if !ok {
		return false
	}
	path := make([]*Block, bc.tipDepth+1)
	cur := tip
	for {
		path[cur.Depth] = cur
		if cur.Depth == 0 {
			break
		}
		parent, ok := bc.blocks[cur.Depth-1][cur.PrevHash]
		if !ok {
			return false
		}
		cur = parent
	}
	if path[0].Hash != genesis.Hash {
		return false
	}

	replay := NewLedger(bc.rootAccounts, RootAmount)
	var lastTimeslot uint64
	for depth, blk := range path {
		if err := blk.Verify(); err != nil {
			return false
		}
		if depth > 0 {
			if blk.Timeslot <= lastTimeslot {
				return false
			}
			if !Wins(replay, blk.Draw, blk.Producer) {
				return false
			}
		}
		for _, tx := range blk.Transactions {
			if err := replay.ApplyTransaction(tx); err != nil {
				return false
			}
		}
		if depth > 0 {
			replay.Reward(blk.Producer, BlockReward)
		}
		lastTimeslot = blk.Timeslot
	}

	if !replay.Equal(bc.ledger) {
		_ = bc.invariantBreach("audit: replayed ledger disagrees with the live ledger")
		return false
	}

	maxDepth := uint64(len(bc.blocks) - 1)
	var best *Block
	for _, b := range bc.blocks[maxDepth] {
		if best == nil || b.IsBetterThan(best) {
			best = b
		}
	}
	return best != nil && best.Hash == bc.tipHash
}
