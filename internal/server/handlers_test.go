package server

import (
	"fmt"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mj1618/browser-cli/internal/browser"
	"github.com/mj1618/browser-cli/internal/model"
	"github.com/mj1618/browser-cli/internal/store"
)

func TestStringParam(t *testing.T) {
	params := map[string]interface{}{"url": "https://example.com", "count": 3.0}
	if got := stringParam(params, "url", ""); got != "https://example.com" {
		t.Errorf("stringParam = %q", got)
	}
	if got := stringParam(params, "missing", "fallback"); got != "fallback" {
		t.Errorf("default = %q", got)
	}
	// Numeric values coerce to their string form.
	if got := stringParam(params, "count", ""); got != "3" {
		t.Errorf("coerced = %q", got)
	}
}

func TestIntParam(t *testing.T) {
	// JSON decoding hands numbers over as float64.
	params := map[string]interface{}{"label": 7.0, "bad": "x"}
	if got := intParam(params, "label", -1); got != 7 {
		t.Errorf("intParam = %d", got)
	}
	if got := intParam(params, "bad", -1); got != -1 {
		t.Errorf("non-numeric should default, got %d", got)
	}
	if got := intParam(params, "missing", 42); got != 42 {
		t.Errorf("default = %d", got)
	}
}

func TestBoolAndFloatParam(t *testing.T) {
	params := map[string]interface{}{"clear": true, "scale": 0.5}
	if !boolParam(params, "clear", false) {
		t.Error("boolParam lost true")
	}
	if boolParam(params, "missing", false) {
		t.Error("boolParam default wrong")
	}
	if got := floatParam(params, "scale", 1.0); got != 0.5 {
		t.Errorf("floatParam = %v", got)
	}
	if got := floatParam(params, "missing", 1.0); got != 1.0 {
		t.Errorf("floatParam default = %v", got)
	}
}

func TestRequireInt(t *testing.T) {
	if _, fail := requireInt(map[string]interface{}{}, "label"); fail == nil {
		t.Fatal("missing required int should fail")
	}
	// Zero is a valid label and must not be treated as missing.
	v, fail := requireInt(map[string]interface{}{"label": 0.0}, "label")
	if fail != nil || v != 0 {
		t.Errorf("label 0: v=%d fail=%v", v, fail)
	}
}

func TestRequireTarget(t *testing.T) {
	if _, _, fail := requireTarget(map[string]interface{}{}); fail == nil {
		t.Fatal("no label and no selector should fail")
	}
	label, selector, fail := requireTarget(map[string]interface{}{"label": 0.0})
	if fail != nil || label != 0 || selector != "" {
		t.Errorf("label 0: label=%d selector=%q fail=%v", label, selector, fail)
	}
	_, selector, fail = requireTarget(map[string]interface{}{"selector": "#submit"})
	if fail != nil || selector != "#submit" {
		t.Errorf("selector: %q fail=%v", selector, fail)
	}
	// Selector wins when both are supplied.
	_, selector, fail = requireTarget(map[string]interface{}{"label": 3.0, "selector": ".cta"})
	if fail != nil || selector != ".cta" {
		t.Errorf("both: selector=%q fail=%v", selector, fail)
	}
}

func TestErrorResultCarriesKind(t *testing.T) {
	err := browser.Errorf(browser.KindStaleIndex, "element", "label 4 is from a previous snapshot")
	result := errorResult(err)
	if !result.IsError {
		t.Fatal("expected error result")
	}
	text := resultText(t, result)
	if !strings.Contains(text, "kind: stale_index") {
		t.Errorf("missing kind in payload:\n%s", text)
	}
	if !strings.Contains(text, "recoverable: true") {
		t.Errorf("stale index should be marked recoverable:\n%s", text)
	}
}

func TestOkResultYAML(t *testing.T) {
	result := okResult(actionResult{Action: "click", Element: "[3]<button>Go</button>"})
	if result.IsError {
		t.Fatal("unexpected error result")
	}
	text := resultText(t, result)
	for _, want := range []string{"ok: true", "action: click", "[3]<button>Go</button>"} {
		if !strings.Contains(text, want) {
			t.Errorf("payload missing %q:\n%s", want, text)
		}
	}
}

func TestDescribeElement(t *testing.T) {
	node := &model.ElementNode{Label: 2, Tag: "button", Text: "Submit"}
	if got := describeElement(node); got != "[2]<button>Submit</button>" {
		t.Errorf("describeElement = %q", got)
	}
	bare := &model.ElementNode{Label: 0, Tag: "input"}
	if got := describeElement(bare); got != "[0]<input>" {
		t.Errorf("describeElement bare = %q", got)
	}
	if got := describeElement(nil); got != "" {
		t.Errorf("nil = %q", got)
	}
}

func TestFilterConsole(t *testing.T) {
	// Alternating log/error lines; errors carry odd numbers.
	var entries []store.ConsoleEntry
	for i := 0; i < 10; i++ {
		level := "log"
		if i%2 == 1 {
			level = "error"
		}
		entries = append(entries, store.ConsoleEntry{Level: level, Text: fmt.Sprintf("line %d", i)})
	}

	// The level filter narrows first, so the tail counts matching entries,
	// not raw lines.
	got := filterConsole(entries, "error", 3)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, want := range []string{"line 5", "line 7", "line 9"} {
		if got[i].Text != want {
			t.Errorf("got[%d] = %q, want %q", i, got[i].Text, want)
		}
	}

	if got := filterConsole(entries, "", 4); len(got) != 4 || got[0].Text != "line 6" {
		t.Errorf("tail only: len=%d first=%q", len(got), got[0].Text)
	}
	if got := filterConsole(entries, "error", 0); len(got) != 5 {
		t.Errorf("level only: len = %d, want 5", len(got))
	}
	if got := filterConsole(entries, "warning", 3); len(got) != 0 {
		t.Errorf("no matches: len = %d", len(got))
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("empty result content")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", result.Content[0])
	}
	return tc.Text
}
