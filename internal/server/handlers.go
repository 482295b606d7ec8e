package server

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"gopkg.in/yaml.v3"

	"github.com/mj1618/browser-cli/internal/browser"
	"github.com/mj1618/browser-cli/internal/model"
	"github.com/mj1618/browser-cli/internal/store"
)

// actionResult is the YAML success payload of an action tool.
type actionResult struct {
	OK      bool   `yaml:"ok"`
	Action  string `yaml:"action"`
	Element string `yaml:"element,omitempty"`
	Detail  string `yaml:"detail,omitempty"`
	URL     string `yaml:"url,omitempty"`
	Title   string `yaml:"title,omitempty"`
	Warning string `yaml:"warning,omitempty"`
}

// failureResult is the YAML payload of a failed tool call. Kind is a stable
// string callers can branch on; recoverable tells them whether the session
// survived.
type failureResult struct {
	OK          bool   `yaml:"ok"`
	Kind        string `yaml:"kind"`
	Error       string `yaml:"error"`
	Recoverable bool   `yaml:"recoverable"`
}

func toYAML(v interface{}) string {
	b, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprintf("marshal error: %v", err)
	}
	return string(b)
}

func errorResult(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(toYAML(failureResult{
		Kind:        string(browser.KindOf(err)),
		Error:       err.Error(),
		Recoverable: browser.Recoverable(err),
	}))
}

func okResult(r actionResult) *mcp.CallToolResult {
	r.OK = true
	return mcp.NewToolResultText(toYAML(r))
}

// Parameter extraction helpers for tool argument maps.

func stringParam(params map[string]interface{}, key, defaultVal string) string {
	if v, ok := params[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprintf("%v", v)
	}
	return defaultVal
}

func intParam(params map[string]interface{}, key string, defaultVal int) int {
	if v, ok := params[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case float64:
			return int(n)
		case int64:
			return int(n)
		}
	}
	return defaultVal
}

func boolParam(params map[string]interface{}, key string, defaultVal bool) bool {
	if v, ok := params[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return defaultVal
}

func floatParam(params map[string]interface{}, key string, defaultVal float64) float64 {
	if v, ok := params[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		}
	}
	return defaultVal
}

func requireString(params map[string]interface{}, key string) (string, *mcp.CallToolResult) {
	v := stringParam(params, key, "")
	if v == "" {
		return "", mcp.NewToolResultError(toYAML(failureResult{
			Kind:        string(browser.KindInvalidArgument),
			Error:       fmt.Sprintf("%s parameter is required", key),
			Recoverable: true,
		}))
	}
	return v, nil
}

func requireInt(params map[string]interface{}, key string) (int, *mcp.CallToolResult) {
	if _, ok := params[key]; !ok {
		return 0, mcp.NewToolResultError(toYAML(failureResult{
			Kind:        string(browser.KindInvalidArgument),
			Error:       fmt.Sprintf("%s parameter is required", key),
			Recoverable: true,
		}))
	}
	return intParam(params, key, 0), nil
}

func describeElement(node *model.ElementNode) string {
	if node == nil {
		return ""
	}
	if node.Text != "" {
		return fmt.Sprintf("[%d]<%s>%s</%s>", node.Label, node.Tag, node.Text, node.Tag)
	}
	return fmt.Sprintf("[%d]<%s>", node.Label, node.Tag)
}

// navigation

func (s *Server) handleNavigate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	url, fail := requireString(params, "url")
	if fail != nil {
		return fail, nil
	}

	s.cache.Invalidate()
	var err error
	if boolParam(params, "wait_for_load", true) {
		err = s.session.Navigate(ctx, url)
	} else {
		err = s.session.NavigateNoWait(ctx, url)
	}
	return s.navigationResult("navigate", err)
}

func (s *Server) handleGoBack(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.cache.Invalidate()
	return s.navigationResult("go_back", s.session.GoBack(ctx))
}

func (s *Server) handleReload(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.cache.Invalidate()
	return s.navigationResult("reload", s.session.Reload(ctx))
}

// navigationResult maps a navigation outcome to a tool result. Timeouts are a
// soft warning: the page may have partially loaded, so current state is
// reported instead of a failure.
func (s *Server) navigationResult(action string, err error) (*mcp.CallToolResult, error) {
	result := actionResult{Action: action}
	if err != nil {
		if browser.KindOf(err) != browser.KindNavigationTimeout {
			return errorResult(err), nil
		}
		result.Warning = err.Error()
	}
	if info, infoErr := s.session.PageInfo(); infoErr == nil {
		result.URL = info.URL
		result.Title = info.Title
	}
	return okResult(result), nil
}

// snapshot and element discovery

func (s *Server) handleSnapshot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	hidden := boolParam(params, "include_hidden", false)

	tab := s.session.ActiveIndex()
	if text, ok := s.cache.Get(tab, hidden); ok {
		return mcp.NewToolResultText(text), nil
	}

	text, err := s.session.Snapshot(ctx, hidden)
	if err != nil {
		return errorResult(err), nil
	}
	s.cache.Put(tab, hidden, text)
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleClickableElements(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	nodes, err := s.session.ClickableElements(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	if len(nodes) == 0 {
		return mcp.NewToolResultText("no interactive elements on this page"), nil
	}
	return mcp.NewToolResultText(model.FormatClickable(nodes)), nil
}

func (s *Server) handleExtractContent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := s.session.ExtractContent(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(toYAML(content)), nil
}

// element actions

// requireTarget extracts the element address of a click/type call: either a
// numeric label from the last snapshot or a CSS selector.
func requireTarget(params map[string]interface{}) (label int, selector string, fail *mcp.CallToolResult) {
	if selector := stringParam(params, "selector", ""); selector != "" {
		return 0, selector, nil
	}
	if _, ok := params["label"]; !ok {
		return 0, "", mcp.NewToolResultError(toYAML(failureResult{
			Kind:        string(browser.KindInvalidArgument),
			Error:       "either label or selector is required",
			Recoverable: true,
		}))
	}
	return intParam(params, "label", 0), "", nil
}

func (s *Server) handleClick(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	label, selector, fail := requireTarget(params)
	if fail != nil {
		return fail, nil
	}

	if selector != "" {
		if err := s.session.ClickSelector(ctx, selector); err != nil {
			return errorResult(err), nil
		}
		s.cache.Invalidate()
		return okResult(actionResult{Action: "click", Element: selector}), nil
	}

	node, err := s.session.Click(ctx, label)
	if err != nil {
		return errorResult(err), nil
	}
	s.cache.Invalidate()
	return okResult(actionResult{Action: "click", Element: describeElement(node)}), nil
}

func (s *Server) handleType(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	label, selector, fail := requireTarget(params)
	if fail != nil {
		return fail, nil
	}
	text, fail := requireString(params, "text")
	if fail != nil {
		return fail, nil
	}
	clear := boolParam(params, "clear", false)

	detail := fmt.Sprintf("typed %d characters", len(text))
	if selector != "" {
		if err := s.session.TypeSelector(ctx, selector, text, clear); err != nil {
			return errorResult(err), nil
		}
		s.cache.Invalidate()
		return okResult(actionResult{Action: "type", Element: selector, Detail: detail}), nil
	}

	node, err := s.session.Type(ctx, label, text, clear)
	if err != nil {
		return errorResult(err), nil
	}
	s.cache.Invalidate()
	return okResult(actionResult{
		Action:  "type",
		Element: describeElement(node),
		Detail:  detail,
	}), nil
}

func (s *Server) handleHover(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	label, fail := requireInt(params, "label")
	if fail != nil {
		return fail, nil
	}

	node, err := s.session.Hover(ctx, label)
	if err != nil {
		return errorResult(err), nil
	}
	return okResult(actionResult{Action: "hover", Element: describeElement(node)}), nil
}

func (s *Server) handleSelect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	label, fail := requireInt(params, "label")
	if fail != nil {
		return fail, nil
	}

	raw, ok := params["options"].([]interface{})
	if !ok || len(raw) == 0 {
		return mcp.NewToolResultError(toYAML(failureResult{
			Kind:        string(browser.KindInvalidArgument),
			Error:       "options must be a non-empty array of strings",
			Recoverable: true,
		})), nil
	}
	options := make([]string, 0, len(raw))
	for _, item := range raw {
		options = append(options, fmt.Sprintf("%v", item))
	}

	node, err := s.session.SelectOptions(ctx, label, options)
	if err != nil {
		return errorResult(err), nil
	}
	s.cache.Invalidate()
	return okResult(actionResult{
		Action:  "select",
		Element: describeElement(node),
		Detail:  fmt.Sprintf("selected %d option(s)", len(options)),
	}), nil
}

func (s *Server) handlePressKey(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	key, fail := requireString(params, "key")
	if fail != nil {
		return fail, nil
	}

	if err := s.session.PressKey(ctx, key); err != nil {
		return errorResult(err), nil
	}
	s.cache.Invalidate()
	return okResult(actionResult{Action: "press_key", Detail: key}), nil
}

func (s *Server) handleScroll(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	direction, fail := requireString(params, "direction")
	if fail != nil {
		return fail, nil
	}
	amount := intParam(params, "amount", 0)

	if err := s.session.Scroll(ctx, direction, amount); err != nil {
		return errorResult(err), nil
	}
	s.cache.Invalidate()
	return okResult(actionResult{Action: "scroll", Detail: direction}), nil
}

// scripting and waiting

func (s *Server) handleEvaluate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	code, fail := requireString(params, "code")
	if fail != nil {
		return fail, nil
	}

	out, err := s.session.Evaluate(ctx, code)
	if err != nil {
		return errorResult(err), nil
	}
	s.cache.Invalidate()
	return mcp.NewToolResultText(out), nil
}

func (s *Server) handleWaitFor(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	selector, fail := requireString(params, "selector")
	if fail != nil {
		return fail, nil
	}
	timeout := time.Duration(floatParam(params, "timeout", 0) * float64(time.Second))
	gone := boolParam(params, "gone", false)

	if err := s.session.WaitFor(ctx, selector, timeout, gone); err != nil {
		return errorResult(err), nil
	}
	detail := selector
	if gone {
		detail = selector + " gone"
	}
	return okResult(actionResult{Action: "wait_for", Detail: detail}), nil
}

// screenshots

func (s *Server) handleScreenshot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	name := stringParam(params, "name", "latest")
	fullPage := boolParam(params, "full_page", false)
	scale := floatParam(params, "scale", 1.0)

	var label *int
	if _, ok := params["label"]; ok {
		l := intParam(params, "label", 0)
		label = &l
	}

	data, _, err := s.session.Screenshot(ctx, name, fullPage, label, scale)
	if err != nil {
		return errorResult(err), nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.ImageContent{
				Type:     "image",
				Data:     base64.StdEncoding.EncodeToString(data),
				MIMEType: "image/png",
			},
		},
	}, nil
}

// tabs

func (s *Server) handleTabList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(toYAML(s.session.Tabs())), nil
}

func (s *Server) handleTabNew(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	url := stringParam(params, "url", "")

	s.cache.Invalidate()
	idx, err := s.session.NewTab(url)
	if err != nil {
		if browser.KindOf(err) == browser.KindNavigationTimeout {
			return okResult(actionResult{
				Action:  "tab_new",
				Detail:  fmt.Sprintf("tab %d", idx),
				Warning: err.Error(),
			}), nil
		}
		return errorResult(err), nil
	}
	return okResult(actionResult{Action: "tab_new", Detail: fmt.Sprintf("tab %d", idx)}), nil
}

func (s *Server) handleTabSwitch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	index, fail := requireInt(params, "index")
	if fail != nil {
		return fail, nil
	}

	s.cache.Invalidate()
	if err := s.session.SwitchTab(index); err != nil {
		return errorResult(err), nil
	}
	return okResult(actionResult{Action: "tab_switch", Detail: fmt.Sprintf("tab %d", index)}), nil
}

func (s *Server) handleTabClose(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	index, fail := requireInt(params, "index")
	if fail != nil {
		return fail, nil
	}

	s.cache.Invalidate()
	if err := s.session.CloseTab(index); err != nil {
		return errorResult(err), nil
	}
	return okResult(actionResult{Action: "tab_close", Detail: fmt.Sprintf("tab %d", index)}), nil
}

// artifacts

func (s *Server) handleConsoleLogs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	tail := intParam(params, "tail", 0)
	level := stringParam(params, "level", "")

	entries := filterConsole(s.session.Console().Tail(0), level, tail)
	if len(entries) == 0 {
		return mcp.NewToolResultText("no console output captured"), nil
	}
	payload := struct {
		Dropped int64       `yaml:"dropped,omitempty"`
		Entries interface{} `yaml:"entries"`
	}{
		Dropped: s.session.Console().Dropped(),
		Entries: entries,
	}
	return mcp.NewToolResultText(toYAML(payload)), nil
}

// filterConsole narrows entries to one level, then keeps the most recent
// tail of the matches. Filtering runs first so "tail: 5, level: error"
// means the last five errors, not errors among the last five lines.
func filterConsole(entries []store.ConsoleEntry, level string, tail int) []store.ConsoleEntry {
	if level != "" {
		kept := entries[:0]
		for _, e := range entries {
			if e.Level == level {
				kept = append(kept, e)
			}
		}
		entries = kept
	}
	if tail > 0 && tail < len(entries) {
		entries = entries[len(entries)-tail:]
	}
	return entries
}

func (s *Server) handleDownloads(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	downloads := s.session.Downloads().List()
	if len(downloads) == 0 {
		return mcp.NewToolResultText("no downloads this session"), nil
	}
	return mcp.NewToolResultText(toYAML(downloads)), nil
}
