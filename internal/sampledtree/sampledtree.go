package sampledtree

import (
	"time"

	"github.com/jvmlens/jvmlens/internal/metricpath"
)

type (
	// Snapshot is the archived envelope around one sampled call tree.
	Snapshot struct {
		SnapshotID   string    `json:"snapshot_id"`
		AgentVersion string    `json:"agent_version"`
		CapturedAt   time.Time `json:"captured_at"`
		Root         *Node     `json:"root"`
	}

	// Node is one frame of a merged stack tree snapshot, as produced by the
	// sampling agent. A node can both terminate samples itself (non-empty
	// LeafThreadState) and carry deeper children captured by later samples.
	Node struct {
		StackTraceElement string   `json:"stack_trace_element"`
		SampleCount       int      `json:"sample_count"`
		LeafThreadState   string   `json:"leaf_thread_state,omitempty"`
		MetricNames       []string `json:"metric_names,omitempty"`
		ChildNodes        []*Node  `json:"child_nodes,omitempty"`
	}

	// AggregatedNode annotates a snapshot node with the merged per-metric-path
	// sample counts of its whole subtree. It references the snapshot node it
	// was derived from and never mutates it.
	AggregatedNode struct {
		Node             *Node
		MetricPathCounts map[string]int
		Children         []*AggregatedNode
	}
)

// Aggregate walks the snapshot tree bottom-up and produces a parallel tree of
// AggregatedNodes. Each leaf-state node contributes its sample count to every
// non-empty prefix of its metric path plus the synthetic "<path> / other"
// key; every node additionally merges the counts of all of its children.
//
// The traversal uses an explicit work stack so that pathologically deep
// snapshot trees cannot overflow the call stack.
func Aggregate(root *Node) *AggregatedNode {
	if root == nil {
		return nil
	}

	type workItem struct {
		node *Node
		agg  *AggregatedNode
		next int
	}

	stack := []workItem{{node: root, agg: newAggregatedNode(root)}}
	for {
		top := &stack[len(stack)-1]
		if top.next < len(top.node.ChildNodes) {
			child := top.node.ChildNodes[top.next]
			top.next++
			stack = append(stack, workItem{node: child, agg: newAggregatedNode(child)})
			continue
		}
		finished := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if len(stack) == 0 {
			return finished.agg
		}
		parent := &stack[len(stack)-1]
		parent.agg.Children = append(parent.agg.Children, finished.agg)
		mergeCounts(parent.agg.MetricPathCounts, finished.agg.MetricPathCounts)
	}
}

func newAggregatedNode(n *Node) *AggregatedNode {
	agg := &AggregatedNode{
		Node:             n,
		MetricPathCounts: make(map[string]int),
	}
	if n.LeafThreadState == "" || len(n.MetricNames) == 0 {
		return agg
	}
	prefixes := metricpath.Prefixes(n.MetricNames)
	for _, prefix := range prefixes {
		agg.MetricPathCounts[prefix] += n.SampleCount
	}
	full := prefixes[len(prefixes)-1]
	agg.MetricPathCounts[metricpath.Other(full)] += n.SampleCount
	return agg
}

func mergeCounts(dst, src map[string]int) {
	for path, count := range src {
		dst[path] += count
	}
}
