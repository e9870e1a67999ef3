// Package mbeantree assembles the domain-rooted MBean tree displayed for a
// JMX object-name dump. Object names look like
// "java.lang:type=MemoryPool,name=Metaspace"; all but the last property
// value become inner nodes under the domain, the last becomes a leaf.
package mbeantree

import (
	"sort"
	"strings"
)

type (
	// MBeanInfo is one dumped MBean: its object name plus, for expanded
	// beans, its attribute values.
	MBeanInfo struct {
		ObjectName string                 `json:"object_name"`
		Attributes map[string]interface{} `json:"attributes,omitempty"`
	}

	// Attribute is one attribute of an expanded leaf, name-sorted.
	Attribute struct {
		Name  string      `json:"name"`
		Value interface{} `json:"value"`
	}

	// Node is either an inner grouping node (ChildNodes set) or a leaf
	// (ObjectName set). Leaf names are not necessarily unique under a
	// parent, e.g. d:type=Foo,name=Bar and d:type=Foo,nonsense=Bar.
	Node struct {
		NodeName   string      `json:"node_name"`
		ChildNodes []*Node     `json:"child_nodes,omitempty"`
		ObjectName string      `json:"object_name,omitempty"`
		Expanded   bool        `json:"expanded,omitempty"`
		Attributes []Attribute `json:"attributes,omitempty"`
	}
)

// Build groups the dumped MBeans into one tree per domain, domains and
// siblings ordered case-insensitively. Object names the dump could not have
// produced (no domain separator, no properties) are skipped.
func Build(infos []MBeanInfo, expanded map[string]bool) []*Node {
	builders := make(map[string]*nodeBuilder)
	for _, info := range infos {
		domain, propertyValues := parseObjectName(info.ObjectName)
		if domain == "" || len(propertyValues) == 0 {
			continue
		}
		root, ok := builders[domain]
		if !ok {
			root = newNodeBuilder(domain)
			builders[domain] = root
		}
		cur := root
		for _, value := range propertyValues[:len(propertyValues)-1] {
			cur = cur.getOrCreate(value)
		}
		leaf := &Node{
			NodeName:   propertyValues[len(propertyValues)-1],
			ObjectName: info.ObjectName,
		}
		if expanded[info.ObjectName] {
			leaf.Expanded = true
			leaf.Attributes = sortedAttributes(info.Attributes)
		}
		cur.children = append(cur.children, leaf)
	}

	roots := make([]*Node, 0, len(builders))
	for _, b := range builders {
		roots = append(roots, b.finish())
	}
	sortNodes(roots)
	return roots
}

type nodeBuilder struct {
	name     string
	children []*Node
	inner    map[string]*nodeBuilder
}

func newNodeBuilder(name string) *nodeBuilder {
	return &nodeBuilder{name: name, inner: make(map[string]*nodeBuilder)}
}

func (b *nodeBuilder) getOrCreate(name string) *nodeBuilder {
	child, ok := b.inner[name]
	if !ok {
		child = newNodeBuilder(name)
		b.inner[name] = child
	}
	return child
}

func (b *nodeBuilder) finish() *Node {
	node := &Node{NodeName: b.name}
	node.ChildNodes = append(node.ChildNodes, b.children...)
	for _, inner := range b.inner {
		node.ChildNodes = append(node.ChildNodes, inner.finish())
	}
	sortNodes(node.ChildNodes)
	return node
}

func sortNodes(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return strings.ToLower(nodes[i].NodeName) < strings.ToLower(nodes[j].NodeName)
	})
}

func sortedAttributes(attrs map[string]interface{}) []Attribute {
	out := make([]Attribute, 0, len(attrs))
	for name, value := range attrs {
		out = append(out, Attribute{Name: name, Value: value})
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// parseObjectName splits "domain:key1=v1,key2=v2" into the domain and the
// property values in declaration order.
func parseObjectName(objectName string) (string, []string) {
	domain, properties, ok := strings.Cut(objectName, ":")
	if !ok || properties == "" {
		return "", nil
	}
	parts := strings.Split(properties, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		_, value, ok := strings.Cut(part, "=")
		if !ok {
			return "", nil
		}
		values = append(values, value)
	}
	return domain, values
}
