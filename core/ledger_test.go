package core

import "testing"

func TestNewLedgerCreditsRoots(t *testing.T) {
	_, pubs := rootSet(t, 3)
	l := NewLedger(pubs, RootAmount)
	for _, p := range pubs {
		if got := l.Balance(p); got != RootAmount {
			t.Fatalf("root balance = %d, want %d", got, RootAmount)
		}
	}
	if got, want := l.TotalSupply(), RootAmount*3; got != want {
		t.Fatalf("total supply = %d, want %d", got, want)
	}
}

func TestApplyTransactionMovesBalanceAndBurnsFee(t *testing.T) {
	privs, pubs := rootSet(t, 2)
	l := NewLedger(pubs, RootAmount)

	tx := NewTransaction(privs[0], pubs[1], 10, 1)
	if err := l.ApplyTransaction(tx); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got, want := l.Balance(pubs[0]), RootAmount-10-TransactionFee; got != want {
		t.Fatalf("sender balance = %d, want %d", got, want)
	}
	if got, want := l.Balance(pubs[1]), RootAmount+10; got != want {
		t.Fatalf("recipient balance = %d, want %d", got, want)
	}
	if got, want := l.TotalSupply(), RootAmount*2-TransactionFee; got != want {
		t.Fatalf("total supply after fee burn = %d, want %d", got, want)
	}
}

func TestApplyTransactionRejectsInsufficientBalance(t *testing.T) {
	privs, pubs := rootSet(t, 2)
	l := NewLedger(pubs, RootAmount)

	tx := NewTransaction(privs[0], pubs[1], RootAmount, 1)
	if err := l.ApplyTransaction(tx); err == nil {
		t.Fatal("expected rejection: amount+fee exceeds balance")
	}
	if got, want := l.Balance(pubs[0]), RootAmount; got != want {
		t.Fatalf("balance mutated on rejected apply: got %d want %d", got, want)
	}
}

func TestApplyTransactionAllowsExactlySufficientBalance(t *testing.T) {
	privs, pubs := rootSet(t, 2)
	l := NewLedger(pubs, RootAmount)

	tx := NewTransaction(privs[0], pubs[1], RootAmount-TransactionFee, 1)
	if err := l.ApplyTransaction(tx); err != nil {
		t.Fatalf("expected exactly-sufficient balance to succeed: %v", err)
	}
	if got := l.Balance(pubs[0]); got != 0 {
		t.Fatalf("sender balance = %d, want 0", got)
	}
}

func TestApplyTransactionFirstTimeslotZeroSucceeds(t *testing.T) {
	privs, pubs := rootSet(t, 2)
	l := NewLedger(pubs, RootAmount)

	tx := NewTransaction(privs[0], pubs[1], 10, 0)
	if err := l.ApplyTransaction(tx); err != nil {
		t.Fatalf("first transaction at timeslot 0 should succeed: %v", err)
	}
}

func TestApplyTransactionRejectsReplayedTimeslot(t *testing.T) {
	privs, pubs := rootSet(t, 2)
	l := NewLedger(pubs, RootAmount)

	first := NewTransaction(privs[0], pubs[1], 10, 0)
	if err := l.ApplyTransaction(first); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	second := NewTransaction(privs[0], pubs[1], 10, 0)
	if err := l.ApplyTransaction(second); err == nil {
		t.Fatal("expected rejection: replayed timeslot equal to high-water mark")
	}
}

func TestApplyTransactionAcceptsStrictlyIncreasingTimeslot(t *testing.T) {
	privs, pubs := rootSet(t, 2)
	l := NewLedger(pubs, RootAmount)

	first := NewTransaction(privs[0], pubs[1], 10, 5)
	if err := l.ApplyTransaction(first); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	second := NewTransaction(privs[0], pubs[1], 10, 6)
	if err := l.ApplyTransaction(second); err != nil {
		t.Fatalf("strictly greater timeslot should be accepted: %v", err)
	}
}

func TestRollbackTransactionRestoresByteForByteState(t *testing.T) {
	privs, pubs := rootSet(t, 2)
	l := NewLedger(pubs, RootAmount)

	before := l.Clone()
	tx := NewTransaction(privs[0], pubs[1], 10, 3)
	if err := l.ApplyTransaction(tx); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := l.RollbackTransaction(tx); err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if !l.Equal(before) {
		t.Fatal("rollback did not restore the ledger's balances")
	}
	if _, had := l.highWater[pubs[0].Hex()]; had {
		t.Fatal("rollback did not restore the absence of a prior high-water mark")
	}
}

func TestRollbackRestoresPriorHighWaterMarkInLIFOOrder(t *testing.T) {
	privs, pubs := rootSet(t, 2)
	l := NewLedger(pubs, RootAmount)

	tx1 := NewTransaction(privs[0], pubs[1], 5, 1)
	tx2 := NewTransaction(privs[0], pubs[1], 5, 2)
	if err := l.ApplyTransaction(tx1); err != nil {
		t.Fatalf("apply tx1: %v", err)
	}
	if err := l.ApplyTransaction(tx2); err != nil {
		t.Fatalf("apply tx2: %v", err)
	}

	if err := l.RollbackTransaction(tx2); err != nil {
		t.Fatalf("rollback tx2: %v", err)
	}
	if got, want := l.highWater[pubs[0].Hex()], uint64(1); got != want {
		t.Fatalf("high water after rolling back tx2 = %d, want %d", got, want)
	}

	if err := l.RollbackTransaction(tx1); err != nil {
		t.Fatalf("rollback tx1: %v", err)
	}
	if _, had := l.highWater[pubs[0].Hex()]; had {
		t.Fatal("high water should be absent after rolling back every applied transaction")
	}
}

func TestRewardAndRollbackReward(t *testing.T) {
	_, pubs := rootSet(t, 1)
	l := NewLedger(pubs, RootAmount)

	l.Reward(pubs[0], BlockReward)
	if got, want := l.Balance(pubs[0]), RootAmount+BlockReward; got != want {
		t.Fatalf("balance after reward = %d, want %d", got, want)
	}
	l.RollbackReward(pubs[0], BlockReward)
	if got, want := l.Balance(pubs[0]), RootAmount; got != want {
		t.Fatalf("balance after rollback reward = %d, want %d", got, want)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	privs, pubs := rootSet(t, 2)
	l := NewLedger(pubs, RootAmount)
	clone := l.Clone()

	tx := NewTransaction(privs[0], pubs[1], 10, 1)
	if err := clone.ApplyTransaction(tx); err != nil {
		t.Fatalf("apply on clone: %v", err)
	}
	if got, want := l.Balance(pubs[0]), RootAmount; got != want {
		t.Fatalf("original ledger mutated by clone: got %d want %d", got, want)
	}
	if got, want := clone.Balance(pubs[0]), RootAmount-10-TransactionFee; got != want {
		t.Fatalf("clone balance = %d, want %d", got, want)
	}
}

func TestLedgerEqual(t *testing.T) {
	_, pubs := rootSet(t, 2)
	a := NewLedger(pubs, RootAmount)
	b := NewLedger(pubs, RootAmount)
	if !a.Equal(b) {
		t.Fatal("identically-constructed ledgers should be equal")
	}
	b.Reward(pubs[0], 1)
	if a.Equal(b) {
		t.Fatal("ledgers with diverging balances should not be equal")
	}
}
