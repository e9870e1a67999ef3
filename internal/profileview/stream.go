package profileview

import (
	"sort"

	"github.com/jvmlens/jvmlens/internal/sampledtree"
)

// DefaultBatchSize is the number of rendered nodes a Stream yields per call
// when the caller does not pick a size.
const DefaultBatchSize = 100

// Stream yields the rendering of an aggregated tree batch by batch, in the
// exact order Render would produce. It buffers at most one batch of output;
// the caller may stop consuming after any batch. A Stream is single-use and
// not safe for concurrent use, but independent Streams over the same
// aggregated tree never interfere.
type Stream struct {
	selectedMetricPath string
	batchSize          int
	refTotal           int

	pending []RenderedNode
	stack   []streamFrame
}

type streamFrame struct {
	node   *sampledtree.AggregatedNode
	count  int
	indent int
}

// NewStream prepares a batched rendering of the aggregated tree. A
// batchSize below 1 falls back to DefaultBatchSize.
func NewStream(root *sampledtree.AggregatedNode, selectedMetricPath string, batchSize int) *Stream {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	s := &Stream{
		selectedMetricPath: selectedMetricPath,
		batchSize:          batchSize,
	}
	if root == nil {
		return s
	}
	s.refTotal = referenceTotal(root, selectedMetricPath)
	if s.refTotal == 0 {
		return s
	}

	base, interesting := splitCommonBase(root)
	prevCount := -1
	indent := 0
	for _, n := range base {
		count := contributingCount(n, selectedMetricPath)
		if count == 0 {
			continue
		}
		if prevCount >= 0 && count < prevCount {
			indent++
		}
		s.pending = append(s.pending, renderedNode(n, count, s.refTotal, indent))
		prevCount = count
	}

	if count := contributingCount(interesting, selectedMetricPath); count > 0 {
		s.stack = append(s.stack, streamFrame{node: interesting, count: count})
	}
	return s
}

// commonBase hands out the buffered common-base block and removes it from
// the stream, so Render can report it separately from the main node list.
func (s *Stream) commonBase() []RenderedNode {
	base := s.pending
	s.pending = nil
	return base
}

// Next returns the next batch of rendered nodes and whether more remain.
// Returning an empty batch with more == false means the stream is drained.
func (s *Stream) Next() ([]RenderedNode, bool) {
	batch := make([]RenderedNode, 0, s.batchSize)

	for len(batch) < s.batchSize && len(s.pending) > 0 {
		batch = append(batch, s.pending[0])
		s.pending = s.pending[1:]
	}

	for len(batch) < s.batchSize && len(s.stack) > 0 {
		top := s.stack[len(s.stack)-1]
		s.stack = s.stack[:len(s.stack)-1]
		batch = append(batch, renderedNode(top.node, top.count, s.refTotal, top.indent))

		children := make([]streamFrame, 0, len(top.node.Children))
		for _, child := range top.node.Children {
			count := contributingCount(child, s.selectedMetricPath)
			if count == 0 {
				continue
			}
			indent := top.indent
			// The on-screen level only deepens where the path branches:
			// a child carrying its parent's full count stays level.
			if count < top.count {
				indent++
			}
			children = append(children, streamFrame{node: child, count: count, indent: indent})
		}
		sort.SliceStable(children, func(i, j int) bool {
			return children[i].count > children[j].count
		})
		for i := len(children) - 1; i >= 0; i-- {
			s.stack = append(s.stack, children[i])
		}
	}

	return batch, len(s.pending) > 0 || len(s.stack) > 0
}
