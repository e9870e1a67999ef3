package sampledtree

import (
	"testing"

	"github.com/jvmlens/jvmlens/internal/testutil"
)

func sampleTree() *Node {
	// Root observed in 10 samples: 6 ended in a JDBC query, 3 in the HTTP
	// request itself, 1 in an unattributed frame without metrics.
	return &Node{
		StackTraceElement: "java.lang.Thread.run",
		SampleCount:       10,
		ChildNodes: []*Node{
			{
				StackTraceElement: "org.example.Servlet.service",
				SampleCount:       9,
				LeafThreadState:   "RUNNABLE",
				MetricNames:       []string{"http request"},
				ChildNodes: []*Node{
					{
						StackTraceElement: "org.example.Dao.query",
						SampleCount:       6,
						LeafThreadState:   "WAITING",
						MetricNames:       []string{"http request", "jdbc query"},
					},
				},
			},
			{
				StackTraceElement: "org.example.Worker.idle",
				SampleCount:       1,
				LeafThreadState:   "TIMED_WAITING",
			},
		},
	}
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name string
		root *Node
		want map[string]int
	}{
		{
			name: "nil tree",
			root: nil,
			want: nil,
		},
		{
			name: "node without leaf state or children",
			root: &Node{StackTraceElement: "root", SampleCount: 0},
			want: map[string]int{},
		},
		{
			name: "single leaf",
			root: &Node{
				StackTraceElement: "root",
				SampleCount:       3,
				LeafThreadState:   "RUNNABLE",
				MetricNames:       []string{"http request"},
			},
			want: map[string]int{
				"http request":         3,
				"http request / other": 3,
			},
		},
		{
			name: "leaf state without metric names contributes nothing",
			root: &Node{
				StackTraceElement: "root",
				SampleCount:       4,
				LeafThreadState:   "RUNNABLE",
			},
			want: map[string]int{},
		},
		{
			name: "nested tree merges child counts",
			root: sampleTree(),
			want: map[string]int{
				"http request":                      15,
				"http request / other":              9,
				"http request / jdbc query":         6,
				"http request / jdbc query / other": 6,
			},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			agg := Aggregate(test.root)
			if test.want == nil {
				if agg != nil {
					t.Fatalf("expected nil aggregation, got %+v", agg)
				}
				return
			}
			if diff := testutil.Diff(test.want, agg.MetricPathCounts); diff != "" {
				t.Fatalf("metric path counts mismatch: %s", diff)
			}
		})
	}
}

func TestAggregatePreservesShape(t *testing.T) {
	root := sampleTree()
	agg := Aggregate(root)
	if agg.Node != root {
		t.Fatal("aggregated root not linked to snapshot root")
	}
	if len(agg.Children) != len(root.ChildNodes) {
		t.Fatalf("got %d children, want %d", len(agg.Children), len(root.ChildNodes))
	}
	for i, child := range agg.Children {
		if child.Node != root.ChildNodes[i] {
			t.Fatalf("child %d not linked to matching snapshot node", i)
		}
	}
}

func TestAggregateIdempotent(t *testing.T) {
	root := sampleTree()
	first := Aggregate(root)
	second := Aggregate(root)
	if diff := testutil.Diff(first.MetricPathCounts, second.MetricPathCounts); diff != "" {
		t.Fatalf("aggregation not idempotent: %s", diff)
	}
}

func TestAggregateOrderIndependent(t *testing.T) {
	root := sampleTree()
	reversed := sampleTree()
	reversed.ChildNodes[0], reversed.ChildNodes[1] = reversed.ChildNodes[1], reversed.ChildNodes[0]

	a := Aggregate(root)
	b := Aggregate(reversed)
	if diff := testutil.Diff(a.MetricPathCounts, b.MetricPathCounts); diff != "" {
		t.Fatalf("aggregation depends on child order: %s", diff)
	}
}

// The sum of sample counts over all leaf-state nodes carrying a metric path
// must equal the root count recorded under "<full path> / other".
func TestAggregateConservation(t *testing.T) {
	root := sampleTree()
	agg := Aggregate(root)

	leafTotals := make(map[string]int)
	var walk func(n *Node)
	walk = func(n *Node) {
		if n.LeafThreadState != "" && len(n.MetricNames) > 0 {
			leafTotals[joinForTest(n.MetricNames)] += n.SampleCount
		}
		for _, child := range n.ChildNodes {
			walk(child)
		}
	}
	walk(root)

	for path, total := range leafTotals {
		if got := agg.MetricPathCounts[path+" / other"]; got != total {
			t.Fatalf("other count for %q = %d, want %d", path, got, total)
		}
	}
}

func TestAggregateDeepTree(t *testing.T) {
	// A straight-line chain deep enough to break naive recursion.
	const depth = 200000
	root := &Node{StackTraceElement: "frame-0", SampleCount: 1}
	cur := root
	for i := 1; i < depth; i++ {
		child := &Node{StackTraceElement: "frame", SampleCount: 1}
		cur.ChildNodes = []*Node{child}
		cur = child
	}
	cur.LeafThreadState = "RUNNABLE"
	cur.MetricNames = []string{"deep"}

	agg := Aggregate(root)
	want := map[string]int{"deep": 1, "deep / other": 1}
	if diff := testutil.Diff(want, agg.MetricPathCounts); diff != "" {
		t.Fatalf("deep tree counts mismatch: %s", diff)
	}
}

func joinForTest(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += " / "
		}
		out += n
	}
	return out
}
