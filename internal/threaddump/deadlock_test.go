package threaddump

import (
	"testing"

	"github.com/jvmlens/jvmlens/internal/testutil"
)

func ptr(id int64) *int64 { return &id }

func blockedThread(id int64, name string, owner int64) Thread {
	return Thread{
		ID:          id,
		Name:        name,
		State:       StateBlocked,
		LockOwnerID: ptr(owner),
		LockInfo:    &LockInfo{ClassName: "java.lang.Object", IdentityHashCode: id * 1000},
	}
}

func cycleIDs(cycles [][]Thread) [][]int64 {
	out := make([][]int64, 0, len(cycles))
	for _, cycle := range cycles {
		ids := make([]int64, 0, len(cycle))
		for _, t := range cycle {
			ids = append(ids, t.ID)
		}
		out = append(out, ids)
	}
	return out
}

func TestFindDeadlockedCyclesBaseline(t *testing.T) {
	if got := FindDeadlockedCycles(nil); got != nil {
		t.Fatalf("FindDeadlockedCycles(nil) = %v, want nil", got)
	}
	unblocked := []Thread{
		{ID: 1, Name: "a", State: StateRunnable},
		{ID: 2, Name: "b", State: StateWaiting},
	}
	if got := FindDeadlockedCycles(unblocked); got != nil {
		t.Fatalf("expected no cycles among unblocked threads, got %v", got)
	}
}

func TestFindDeadlockedCyclesSimpleCycle(t *testing.T) {
	threads := []Thread{
		blockedThread(1, "A", 2),
		blockedThread(2, "B", 1),
	}
	got := FindDeadlockedCycles(threads)
	want := [][]int64{{2, 1}}
	if diff := testutil.Diff(want, cycleIDs(got)); diff != "" {
		t.Fatalf("cycle mismatch: %s", diff)
	}
}

func TestFindDeadlockedCyclesChainNoCycle(t *testing.T) {
	threads := []Thread{
		blockedThread(1, "A", 2),
		blockedThread(2, "B", 3),
		{ID: 3, Name: "C", State: StateRunnable},
	}
	if got := FindDeadlockedCycles(threads); got != nil {
		t.Fatalf("expected no cycles for a terminal chain, got %v", cycleIDs(got))
	}
}

func TestFindDeadlockedCyclesDanglingOwner(t *testing.T) {
	// owner id points at a thread absent from the dump entirely
	threads := []Thread{
		blockedThread(1, "A", 99),
	}
	if got := FindDeadlockedCycles(threads); got != nil {
		t.Fatalf("expected no cycles for a dangling owner, got %v", cycleIDs(got))
	}
}

func TestFindDeadlockedCyclesMultipleDisjoint(t *testing.T) {
	threads := []Thread{
		blockedThread(4, "D", 5),
		blockedThread(5, "E", 4),
		blockedThread(8, "H", 9),
		blockedThread(9, "I", 8),
	}
	got := FindDeadlockedCycles(threads)
	want := [][]int64{{9, 8}, {5, 4}}
	if diff := testutil.Diff(want, cycleIDs(got)); diff != "" {
		t.Fatalf("disjoint cycles mismatch: %s", diff)
	}
}

func TestFindDeadlockedCyclesThreeWay(t *testing.T) {
	threads := []Thread{
		blockedThread(1, "A", 2),
		blockedThread(2, "B", 3),
		blockedThread(3, "C", 1),
	}
	got := FindDeadlockedCycles(threads)
	want := [][]int64{{3, 2, 1}}
	if diff := testutil.Diff(want, cycleIDs(got)); diff != "" {
		t.Fatalf("three-way cycle mismatch: %s", diff)
	}
	for _, cycle := range got {
		if len(cycle) < 2 {
			t.Fatalf("cycle of length %d violates the minimum", len(cycle))
		}
	}
}

func TestFindDeadlockedCyclesOrderIndependent(t *testing.T) {
	forward := []Thread{
		blockedThread(1, "A", 2),
		blockedThread(2, "B", 1),
		blockedThread(3, "C", 2), // blocked on the cycle but not part of it
	}
	backward := []Thread{forward[2], forward[1], forward[0]}

	a := cycleIDs(FindDeadlockedCycles(forward))
	b := cycleIDs(FindDeadlockedCycles(backward))
	if diff := testutil.Diff(a, b); diff != "" {
		t.Fatalf("result depends on input order: %s", diff)
	}
	want := [][]int64{{2, 1}}
	if diff := testutil.Diff(want, a); diff != "" {
		t.Fatalf("cycle mismatch: %s", diff)
	}
}
