// Package profileview turns an aggregated merged-stack tree into the
// flattened, percentage-annotated rendering used for interactive display,
// optionally restricted to a single metric path.
package profileview

import (
	"math"

	"github.com/jvmlens/jvmlens/internal/sampledtree"
)

type (
	// RenderedNode is one on-screen line of the profile rendering.
	RenderedNode struct {
		Label           string  `json:"label"`
		Percentage      float64 `json:"percentage"`
		IndentLevel     int     `json:"indent_level"`
		LeafThreadState string  `json:"leaf_thread_state,omitempty"`
	}

	// RenderedTree is the full rendering of a profile: the single-child
	// "common base" prefix every sample shares, followed by the interesting
	// remainder of the tree.
	RenderedTree struct {
		CommonBase []RenderedNode `json:"common_base,omitempty"`
		Nodes      []RenderedNode `json:"nodes"`
	}

	// CatalogEntry is one selectable metric path and its sample count.
	CatalogEntry struct {
		MetricPath string `json:"metric_path"`
		Count      int    `json:"count"`
	}
)

// Render produces the complete rendering of an aggregated tree. When
// selectedMetricPath is non-empty, counts and percentages are taken from
// each node's count under that metric path instead of its raw sample count.
//
// Large profiles are better served by NewStream, which yields the same
// sequence incrementally.
func Render(root *sampledtree.AggregatedNode, selectedMetricPath string) RenderedTree {
	return RenderBatched(root, selectedMetricPath, DefaultBatchSize)
}

// RenderBatched is Render with a caller-chosen batch size bounding how much
// of the tree is expanded per pull.
func RenderBatched(root *sampledtree.AggregatedNode, selectedMetricPath string, batchSize int) RenderedTree {
	var tree RenderedTree
	s := NewStream(root, selectedMetricPath, batchSize)
	tree.CommonBase = s.commonBase()
	for {
		batch, more := s.Next()
		tree.Nodes = append(tree.Nodes, batch...)
		if !more {
			break
		}
	}
	return tree
}

// referenceTotal is the denominator for percentages: the whole-profile
// sample count, or the root's count under the selected metric path.
func referenceTotal(root *sampledtree.AggregatedNode, selectedMetricPath string) int {
	if selectedMetricPath == "" {
		return root.Node.SampleCount
	}
	return root.MetricPathCounts[selectedMetricPath]
}

// contributingCount is the count a node displays with: its own sample count,
// or its subtree count under the selected metric path.
func contributingCount(n *sampledtree.AggregatedNode, selectedMetricPath string) int {
	if selectedMetricPath == "" {
		return n.Node.SampleCount
	}
	return n.MetricPathCounts[selectedMetricPath]
}

// splitCommonBase walks the single-child prefix of the tree. A node belongs
// to the common base while it has exactly one child and that child is not
// itself a leaf-thread-state node; the first node breaking the chain is the
// root of the interesting remainder.
func splitCommonBase(root *sampledtree.AggregatedNode) (base []*sampledtree.AggregatedNode, interesting *sampledtree.AggregatedNode) {
	cur := root
	for len(cur.Children) == 1 && cur.Children[0].Node.LeafThreadState == "" {
		base = append(base, cur)
		cur = cur.Children[0]
	}
	return base, cur
}

func percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(100*10*float64(count)/float64(total)) / 10
}

func renderedNode(n *sampledtree.AggregatedNode, count, total, indent int) RenderedNode {
	return RenderedNode{
		Label:           n.Node.StackTraceElement,
		Percentage:      percentage(count, total),
		IndentLevel:     indent,
		LeafThreadState: n.Node.LeafThreadState,
	}
}
