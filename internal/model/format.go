package model

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const maxTextLen = 100

// FormatClickable renders interactive elements one per line in the
// agent-facing bracket form:
//
//	[0]<button>Submit</button>
//	[1]<a>Click here</a>
//	[2]<input>
func FormatClickable(nodes []ElementNode) string {
	var lines []string
	for i := range nodes {
		n := &nodes[i]
		if !n.Interactive() {
			continue
		}
		text := collapse(n.Text, maxTextLen)
		if text == "" {
			lines = append(lines, fmt.Sprintf("[%d]<%s>", n.Label, n.Tag))
		} else {
			lines = append(lines, fmt.Sprintf("[%d]<%s>%s</%s>", n.Label, n.Tag, text, n.Tag))
		}
	}
	return strings.Join(lines, "\n")
}

// Outline renders the extracted tree as a markdown-like page snapshot.
// Indexed elements carry their [label] so the agent can act on what it reads.
func Outline(root *RawNode) string {
	var b strings.Builder
	outlineNode(&b, root, 0)
	return strings.TrimRight(b.String(), "\n")
}

func outlineNode(b *strings.Builder, n *RawNode, depth int) {
	if n == nil {
		return
	}
	if !n.Visible && depth > 0 {
		return
	}

	switch n.Tag {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		level := int(n.Tag[1] - '0')
		writeLine(b, n, strings.Repeat("#", level)+" "+collapse(n.Text, maxTextLen))
	case "button":
		text := collapse(n.Text, maxTextLen)
		if text == "" {
			text = "<button>"
		}
		writeLine(b, n, text)
	case "a":
		text := collapse(n.Text, maxTextLen)
		href := attrOf(n, "href")
		switch {
		case text != "" && href != "":
			writeLine(b, n, fmt.Sprintf("%s (%s)", text, href))
		case text != "":
			writeLine(b, n, text)
		default:
			writeLine(b, n, fmt.Sprintf("<link %s>", href))
		}
	case "input":
		typ := attrOf(n, "type")
		if typ == "" {
			typ = "text"
		}
		desc := fmt.Sprintf("<input type=%s>", typ)
		if ph := attrOf(n, "placeholder"); ph != "" {
			desc = fmt.Sprintf("<input type=%s placeholder=%q>", typ, ph)
		}
		writeLine(b, n, desc)
	case "select":
		writeLine(b, n, "<select>")
	case "textarea":
		writeLine(b, n, "<textarea>")
	case "img":
		if alt := attrOf(n, "alt"); alt != "" {
			writeLine(b, n, fmt.Sprintf("![%s]", alt))
		}
	case "p", "li", "td", "th", "span", "label", "div":
		// Plain text only when the node itself was indexed or carries
		// direct text; deep containers are covered by their children.
		if n.Label >= 0 || (n.Text != "" && len(n.Children) == 0) {
			if text := collapse(n.Text, maxTextLen); text != "" {
				writeLine(b, n, text)
			}
		}
	}

	for _, c := range n.Children {
		outlineNode(b, c, depth+1)
	}
}

func writeLine(b *strings.Builder, n *RawNode, body string) {
	if body == "" {
		return
	}
	if n.Label >= 0 {
		fmt.Fprintf(b, "[%d]%s\n", n.Label, body)
	} else {
		b.WriteString(body + "\n")
	}
}

func attrOf(n *RawNode, name string) string {
	if n.Attrs == nil {
		return ""
	}
	return n.Attrs[name]
}

// collapse trims s, folds internal whitespace runs, and truncates to maxLen
// bytes, backing up to a rune boundary so the cut never emits invalid UTF-8.
func collapse(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > maxLen {
		cut := maxLen - 3
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut] + "..."
	}
	return s
}
