package model

import (
	"encoding/json"
	"fmt"
)

// BuildOptions controls which candidate nodes earn a label.
type BuildOptions struct {
	IncludeHidden   bool // keep zero-area / hidden nodes
	InteractiveOnly bool // keep only clickable/hoverable/selectable nodes
}

// Index is one snapshot's label → element mapping. Labels are assigned
// 0..N−1 in document order during construction and are meaningless outside
// the snapshot that produced them. An Index is immutable once built.
type Index struct {
	nodes []ElementNode
}

// ParseTree decodes the JSON tree emitted by the extraction script.
func ParseTree(data []byte) (*RawNode, error) {
	var root RawNode
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("decode element tree: %w", err)
	}
	resetLabels(&root)
	return &root, nil
}

func resetLabels(n *RawNode) {
	n.Label = -1
	for _, c := range n.Children {
		resetLabels(c)
	}
}

// BuildIndex walks the tree in document order, filters candidates per opts,
// and assigns dense labels starting at zero. The matching RawNode gets its
// Label field set so outline rendering can annotate the tree. A page with no
// qualifying elements yields an empty index, not an error.
func BuildIndex(root *RawNode, opts BuildOptions) *Index {
	ix := &Index{}
	if root != nil {
		ix.walk(root, opts)
	}
	return ix
}

func (ix *Index) walk(n *RawNode, opts BuildOptions) {
	if keep(n, opts) {
		n.Label = len(ix.nodes)
		attrs := n.Attrs
		if attrs != nil {
			// The raw tree is discarded after the build; copy so index
			// entries never alias mutable script output.
			attrs = make(map[string]string, len(n.Attrs))
			for k, v := range n.Attrs {
				attrs[k] = v
			}
		}
		ix.nodes = append(ix.nodes, ElementNode{
			Label:      n.Label,
			Tag:        n.Tag,
			Role:       n.Role,
			Text:       n.Text,
			Attrs:      attrs,
			Box:        n.Box,
			Visible:    n.Visible,
			Clickable:  n.Clickable,
			Hoverable:  n.Hoverable,
			Selectable: n.Selectable,
		})
	}
	for _, c := range n.Children {
		ix.walk(c, opts)
	}
}

func keep(n *RawNode, opts BuildOptions) bool {
	if n.Tag == "" {
		return false
	}
	if !opts.IncludeHidden && (!n.Visible || n.Box.Area() == 0) {
		return false
	}
	if opts.InteractiveOnly && !n.Clickable && !n.Hoverable && !n.Selectable {
		return false
	}
	return true
}

// Lookup returns the node for a label. The second return is false for labels
// this snapshot never assigned; distinguishing "stale" from "never valid" is
// the session's job, since only it knows the previous snapshot's extent.
func (ix *Index) Lookup(label int) (*ElementNode, bool) {
	if label < 0 || label >= len(ix.nodes) {
		return nil, false
	}
	return &ix.nodes[label], true
}

// Len returns the number of labeled elements.
func (ix *Index) Len() int {
	return len(ix.nodes)
}

// Nodes returns the labeled elements in label (= document) order. The slice
// is shared; callers must not mutate it.
func (ix *Index) Nodes() []ElementNode {
	return ix.nodes
}

// Interactive returns the labels of all interactive elements in order.
func (ix *Index) Interactive() []int {
	var labels []int
	for i := range ix.nodes {
		if ix.nodes[i].Interactive() {
			labels = append(labels, ix.nodes[i].Label)
		}
	}
	return labels
}
