package model

// BoundingBox is an element's position and size in CSS pixels, relative to
// the viewport at extraction time.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Area returns the box area in square pixels.
func (b BoundingBox) Area() float64 {
	return b.Width * b.Height
}

// Center returns the box's center point.
func (b BoundingBox) Center() (x, y float64) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// ElementNode is one addressable element captured in a snapshot. The Label is
// the caller-facing address: dense, zero-based, assigned in document order,
// valid only for the snapshot that produced it.
type ElementNode struct {
	Label      int               `yaml:"label"                json:"label"`
	Tag        string            `yaml:"tag"                  json:"tag"`
	Role       string            `yaml:"role,omitempty"       json:"role,omitempty"`
	Text       string            `yaml:"text,omitempty"       json:"text,omitempty"`
	Attrs      map[string]string `yaml:"attrs,omitempty"      json:"attrs,omitempty"`
	Box        BoundingBox       `yaml:"box"                  json:"box"`
	Visible    bool              `yaml:"visible"              json:"visible"`
	Clickable  bool              `yaml:"clickable,omitempty"  json:"clickable,omitempty"`
	Hoverable  bool              `yaml:"hoverable,omitempty"  json:"hoverable,omitempty"`
	Selectable bool              `yaml:"selectable,omitempty" json:"selectable,omitempty"`
}

// Interactive reports whether the element accepts any form of interaction.
func (n *ElementNode) Interactive() bool {
	return n.Clickable || n.Hoverable || n.Selectable
}

// Attr returns the named attribute, or "" when absent.
func (n *ElementNode) Attr(name string) string {
	if n.Attrs == nil {
		return ""
	}
	return n.Attrs[name]
}

// RawNode is the JSON shape produced by the in-page extraction script: a tree
// of candidate elements in document order. Label is filled in during index
// construction (-1 means the node was filtered out).
type RawNode struct {
	Tag        string            `json:"tag"`
	Role       string            `json:"role,omitempty"`
	Text       string            `json:"text,omitempty"`
	Attrs      map[string]string `json:"attrs,omitempty"`
	Box        BoundingBox       `json:"box"`
	Visible    bool              `json:"visible"`
	Clickable  bool              `json:"clickable,omitempty"`
	Hoverable  bool              `json:"hoverable,omitempty"`
	Selectable bool              `json:"selectable,omitempty"`
	Children   []*RawNode        `json:"children,omitempty"`

	Label int `json:"-"`
}
