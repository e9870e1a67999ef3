package profileview

import (
	"sort"

	"github.com/jvmlens/jvmlens/internal/metricpath"
	"github.com/jvmlens/jvmlens/internal/sampledtree"
)

// Catalog builds the sorted list of selectable metric paths for a profile.
//
// Every "<path> / other" key of the root's counts spans a prefix trie; the
// trie is walked depth first, siblings ordered by descending count. A node
// whose only child is its own " / other" leaf keeps the leaf out of the
// catalog, since selecting it would be identical to selecting the node.
func Catalog(root *sampledtree.AggregatedNode) []CatalogEntry {
	if root == nil {
		return nil
	}

	trie := newCatalogTrie()
	for path := range root.MetricPathCounts {
		if metricpath.IsOther(path) {
			trie.insert(metricpath.Split(path))
		}
	}

	var entries []CatalogEntry
	trie.root.walk("", root.MetricPathCounts, &entries)
	return entries
}

type catalogTrie struct {
	root *catalogNode
}

type catalogNode struct {
	children map[string]*catalogNode
}

func newCatalogTrie() *catalogTrie {
	return &catalogTrie{root: &catalogNode{children: make(map[string]*catalogNode)}}
}

func (t *catalogTrie) insert(elements []string) {
	cur := t.root
	for _, element := range elements {
		child, ok := cur.children[element]
		if !ok {
			child = &catalogNode{children: make(map[string]*catalogNode)}
			cur.children[element] = child
		}
		cur = child
	}
}

func (n *catalogNode) walk(prefix string, counts map[string]int, entries *[]CatalogEntry) {
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		pi := childPath(prefix, names[i])
		pj := childPath(prefix, names[j])
		if counts[pi] != counts[pj] {
			return counts[pi] > counts[pj]
		}
		return pi < pj
	})

	for _, name := range names {
		path := childPath(prefix, name)
		child := n.children[name]
		*entries = append(*entries, CatalogEntry{MetricPath: path, Count: counts[path]})
		if skipRedundantOther(path, child) {
			continue
		}
		child.walk(path, counts, entries)
	}
}

// skipRedundantOther reports whether the node's subtree is a single
// " / other" leaf already represented by the node's own entry.
func skipRedundantOther(path string, n *catalogNode) bool {
	if len(n.children) != 1 {
		return false
	}
	for name := range n.children {
		if metricpath.IsOther(childPath(path, name)) {
			return true
		}
	}
	return false
}

func childPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + metricpath.Separator + name
}
