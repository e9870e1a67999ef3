package occurrence

import (
	"testing"

	"github.com/jvmlens/jvmlens/internal/testutil"
	"github.com/jvmlens/jvmlens/internal/threaddump"
)

var testCycle = []threaddump.CycleThread{
	{
		Name:  "pool-1-thread-2",
		Desc1: "waiting to lock java.lang.Object@1f2e3d",
		Desc2: `which is held by "pool-1-thread-1"`,
	},
	{
		Name:  "pool-1-thread-1",
		Desc1: "waiting to lock java.lang.Object@4b5c6d",
		Desc2: `which is held by "pool-1-thread-2"`,
	},
}

func TestNewDeadlockOccurrence(t *testing.T) {
	event := Event{Environment: "production", ID: "dump-1"}
	o := NewDeadlockOccurrence(event, testCycle)

	if o.IssueTitle != DeadlockIssueTitle || o.Type != DeadlockType {
		t.Fatalf("unexpected issue metadata: %v %v", o.IssueTitle, o.Type)
	}
	if o.Subtitle != "2 threads deadlocked" {
		t.Fatalf("unexpected subtitle: %q", o.Subtitle)
	}

	expected := []Evidence{
		{
			Name:      EvidenceNameThread,
			Value:     `"pool-1-thread-2" waiting to lock java.lang.Object@1f2e3d, which is held by "pool-1-thread-1"`,
			Important: true,
		},
		{
			Name:  EvidenceNameThread,
			Value: `"pool-1-thread-1" waiting to lock java.lang.Object@4b5c6d, which is held by "pool-1-thread-2"`,
		},
	}
	if diff := testutil.Diff(o.EvidenceDisplay, expected); diff != "" {
		t.Fatalf("evidence mismatch: %v", diff)
	}
}

func TestFingerprintGroupsByCycleMembers(t *testing.T) {
	event := Event{Environment: "production", ID: "dump-1"}
	first := NewDeadlockOccurrence(event, testCycle)
	second := NewDeadlockOccurrence(Event{Environment: "production", ID: "dump-2"}, testCycle)
	if first.Fingerprint != second.Fingerprint {
		t.Fatal("repeated dumps of the same cycle should share a fingerprint")
	}
	if first.ID == second.ID {
		t.Fatal("occurrence ids should be unique")
	}

	other := NewDeadlockOccurrence(event, testCycle[:1])
	if first.Fingerprint == other.Fingerprint {
		t.Fatal("different cycles should not share a fingerprint")
	}
}

func TestFromDump(t *testing.T) {
	occurrences := FromDump(Event{ID: "dump-1"}, [][]threaddump.CycleThread{testCycle, testCycle[:1]})
	if len(occurrences) != 2 {
		t.Fatalf("expected one occurrence per cycle, got %d", len(occurrences))
	}

	messages, err := GenerateKafkaMessageBatch(occurrences)
	if err != nil {
		t.Fatal(err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected one message per occurrence, got %d", len(messages))
	}
}
