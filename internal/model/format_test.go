package model

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestFormatClickable(t *testing.T) {
	ix := BuildIndex(fixtureTree(), BuildOptions{InteractiveOnly: true})
	got := FormatClickable(ix.Nodes())
	want := "[0]<button>One</button>\n[1]<button>Two</button>\n[2]<button>Three</button>"
	if got != want {
		t.Errorf("FormatClickable() = %q, want %q", got, want)
	}
}

func TestFormatClickableEmptyText(t *testing.T) {
	nodes := []ElementNode{
		{Label: 0, Tag: "input", Clickable: true},
	}
	if got := FormatClickable(nodes); got != "[0]<input>" {
		t.Errorf("FormatClickable() = %q", got)
	}
}

func TestFormatClickableEmpty(t *testing.T) {
	if got := FormatClickable(nil); got != "" {
		t.Errorf("FormatClickable(nil) = %q, want empty", got)
	}
}

func TestOutline(t *testing.T) {
	tree := fixtureTree()
	BuildIndex(tree, BuildOptions{InteractiveOnly: true})
	out := Outline(tree)

	for _, want := range []string{"# Fixture", "[0]One", "[1]Two", "[2]Three"} {
		if !strings.Contains(out, want) {
			t.Errorf("outline missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Hidden") {
		t.Errorf("outline includes hidden element:\n%s", out)
	}
}

func TestOutlineLink(t *testing.T) {
	tree := &RawNode{
		Tag: "body", Visible: true, Box: box(0, 0, 100, 100),
		Children: []*RawNode{
			{
				Tag: "a", Text: "Docs", Visible: true, Clickable: true,
				Attrs: map[string]string{"href": "/docs"},
				Box:   box(0, 0, 50, 20),
			},
		},
	}
	BuildIndex(tree, BuildOptions{InteractiveOnly: true})
	out := Outline(tree)
	if !strings.Contains(out, "[0]Docs (/docs)") {
		t.Errorf("outline = %q", out)
	}
}

func TestCollapse(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  hello   world ", "hello world"},
		{"line\none", "line one"},
		{"", ""},
		{strings.Repeat("a", 120), strings.Repeat("a", 97) + "..."},
	}
	for _, tt := range tests {
		if got := collapse(tt.in, maxTextLen); got != tt.want {
			t.Errorf("collapse(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCollapseRuneBoundary(t *testing.T) {
	// 'é' is two bytes; a byte-indexed cut at maxLen-3 would land inside
	// one and emit invalid UTF-8.
	in := strings.Repeat("é", maxTextLen)
	got := collapse(in, maxTextLen)

	if !utf8.ValidString(got) {
		t.Fatalf("truncation produced invalid UTF-8: %q", got)
	}
	if len(got) > maxTextLen {
		t.Errorf("len = %d, want <= %d", len(got), maxTextLen)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("missing ellipsis: %q", got)
	}
}
