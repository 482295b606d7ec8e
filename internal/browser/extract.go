package browser

import (
	"context"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	readability "github.com/go-shiori/go-readability"

	"github.com/mj1618/browser-cli/internal/model"
)

// elementTreeJS walks the DOM and returns a JSON tree of candidate elements
// with tag, attributes, role, bounding box, and interactability flags. Labels
// are assigned later, on the Go side, in document order.
const elementTreeJS = `() => {
	const CLICKABLE = new Set(['a', 'button', 'input', 'summary', 'option']);
	const SELECTABLE = new Set(['select', 'option', 'input']);
	const SKIP = new Set(['script', 'style', 'noscript', 'template', 'head', 'meta', 'link']);
	const KEEP_ATTRS = ['id', 'name', 'class', 'href', 'src', 'type', 'value',
		'placeholder', 'alt', 'title', 'role', 'aria-label', 'for', 'action'];

	function ownText(el) {
		let t = '';
		for (const n of el.childNodes) {
			if (n.nodeType === Node.TEXT_NODE) t += n.textContent;
		}
		t = t.trim();
		if (!t && el.childElementCount === 0) t = (el.textContent || '').trim();
		if (!t && el.tagName === 'INPUT') t = el.value || '';
		return t.slice(0, 300);
	}

	function build(el) {
		const tag = el.tagName.toLowerCase();
		if (SKIP.has(tag)) return null;

		const style = window.getComputedStyle(el);
		const rect = el.getBoundingClientRect();
		const visible = style.display !== 'none' && style.visibility !== 'hidden' &&
			rect.width > 0 && rect.height > 0;

		const attrs = {};
		for (const name of KEEP_ATTRS) {
			const v = el.getAttribute(name);
			if (v !== null && v !== '') attrs[name] = v.slice(0, 200);
		}

		const role = el.getAttribute('role') || '';
		const clickable = CLICKABLE.has(tag) || role === 'button' || role === 'link' ||
			typeof el.onclick === 'function' || el.hasAttribute('onclick') ||
			style.cursor === 'pointer';
		const hoverable = clickable || el.hasAttribute('onmouseover') || tag === 'area';
		const selectable = SELECTABLE.has(tag) || tag === 'textarea' ||
			el.isContentEditable === true;

		const children = [];
		for (const child of el.children) {
			const node = build(child);
			if (node) children.push(node);
		}

		return {
			tag: tag,
			role: role,
			text: ownText(el),
			attrs: attrs,
			box: { x: rect.x, y: rect.y, width: rect.width, height: rect.height },
			visible: visible,
			clickable: clickable,
			hoverable: hoverable,
			selectable: selectable,
			children: children,
		};
	}

	return build(document.body) || { tag: 'body', attrs: {}, box: {x:0,y:0,width:0,height:0}, children: [] };
}`

// locateJS re-finds the element a snapshot descriptor points at. Identity
// attributes win outright; otherwise the candidate sharing the most
// attributes closest to the recorded position is chosen, within a distance
// bound so we never act on an unrelated element.
const locateJS = `(tag, attrs, cx, cy) => {
	const candidates = document.getElementsByTagName(tag);
	if (attrs.id) {
		const byId = document.getElementById(attrs.id);
		if (byId && byId.tagName.toLowerCase() === tag) return byId;
	}

	let best = null, bestScore = -Infinity;
	for (const el of candidates) {
		const rect = el.getBoundingClientRect();
		const ex = rect.x + rect.width / 2, ey = rect.y + rect.height / 2;
		const dist = Math.hypot(ex - cx, ey - cy);
		if (dist > 150) continue;

		let score = -dist;
		for (const [k, v] of Object.entries(attrs)) {
			if (el.getAttribute(k) === v) score += 100;
		}
		if (score > bestScore) { bestScore = score; best = el; }
	}
	return best;
}`

// rebuildLocked snapshots the active tab's DOM and atomically replaces the
// element index. Returns the raw tree too, labeled, for outline rendering.
// Caller must hold the write lock.
func (s *Session) rebuildLocked(ctx context.Context, opts model.BuildOptions) (*model.Index, *model.RawNode, error) {
	page, err := s.activePageLocked()
	if err != nil {
		return nil, nil, err
	}

	result, err := page.Context(ctx).Timeout(s.timeout).Eval(elementTreeJS)
	if err != nil {
		if timedOut(err) {
			return nil, nil, newErr(KindNavigationTimeout, "build index", "snapshot script did not finish within %s", s.timeout)
		}
		return nil, nil, wrapErr(KindProtocol, "build index", err)
	}
	data, err := result.Value.MarshalJSON()
	if err != nil {
		return nil, nil, wrapErr(KindProtocol, "build index", err)
	}
	root, err := model.ParseTree(data)
	if err != nil {
		return nil, nil, wrapErr(KindProtocol, "build index", err)
	}

	if s.index != nil {
		s.priorExtent = s.index.Len()
	}
	s.index = model.BuildIndex(root, opts)
	s.indexValid = true
	log.Debug("browser: index rebuilt", "elements", s.index.Len())
	return s.index, root, nil
}

// RebuildIndex replaces the element index with a fresh snapshot of the active
// tab. Readers observe either the old or the new index in full, never a mix.
func (s *Session) RebuildIndex(ctx context.Context, opts model.BuildOptions) (*model.Index, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ix, _, err := s.rebuildLocked(ctx, opts)
	return ix, err
}

// ClickableElements rebuilds the index and returns the interactive elements,
// labeled for follow-up click/type/hover calls. The build is a full one, so
// the labels here match what a full snapshot of the same page would assign.
func (s *Session) ClickableElements(ctx context.Context) ([]model.ElementNode, error) {
	ix, err := s.RebuildIndex(ctx, model.BuildOptions{})
	if err != nil {
		return nil, err
	}
	var out []model.ElementNode
	for _, label := range ix.Interactive() {
		if node, ok := ix.Lookup(label); ok {
			out = append(out, *node)
		}
	}
	return out, nil
}

// ExtractedContent is the readable-article view of a page.
type ExtractedContent struct {
	Title   string `json:"title" yaml:"title"`
	URL     string `json:"url" yaml:"url"`
	Byline  string `json:"byline,omitempty" yaml:"byline,omitempty"`
	Excerpt string `json:"excerpt,omitempty" yaml:"excerpt,omitempty"`
	Text    string `json:"text" yaml:"text"`
}

// ExtractContent runs readability over the active tab's rendered HTML and
// returns the main article text, stripped of navigation and boilerplate.
func (s *Session) ExtractContent(ctx context.Context) (*ExtractedContent, error) {
	page, err := s.ActivePage()
	if err != nil {
		return nil, err
	}

	info, err := page.Info()
	if err != nil {
		return nil, wrapErr(KindProtocol, "extract content", err)
	}
	html, err := page.Context(ctx).Timeout(s.timeout).HTML()
	if err != nil {
		return nil, wrapErr(KindProtocol, "extract content", err)
	}

	pageURL, err := url.Parse(info.URL)
	if err != nil {
		pageURL = &url.URL{}
	}
	article, err := readability.FromReader(strings.NewReader(html), pageURL)
	if err != nil {
		return nil, wrapErr(KindProtocol, "extract content", err)
	}

	content := &ExtractedContent{
		Title:   article.Title,
		URL:     info.URL,
		Byline:  article.Byline,
		Excerpt: article.Excerpt,
		Text:    strings.TrimSpace(article.TextContent),
	}
	if content.Title == "" {
		content.Title = info.Title
	}
	return content, nil
}

// Snapshot rebuilds the element index and renders the page outline with
// element labels inline, ready for label-addressed follow-up actions.
func (s *Session) Snapshot(ctx context.Context, includeHidden bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, root, err := s.rebuildLocked(ctx, model.BuildOptions{IncludeHidden: includeHidden})
	if err != nil {
		return "", err
	}
	return model.Outline(root), nil
}
