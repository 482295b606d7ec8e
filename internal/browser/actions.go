package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"

	"github.com/mj1618/browser-cli/internal/model"
	"github.com/mj1618/browser-cli/internal/store"
)

// PageInfo describes the active page after a navigation-style operation.
type PageInfo struct {
	URL      string `json:"url" yaml:"url"`
	Title    string `json:"title" yaml:"title"`
	TimedOut bool   `json:"timedOut,omitempty" yaml:"timedOut,omitempty"`
}

// Navigate drives the active tab to url and waits for the page to settle.
// A load timeout is reported as a soft navigation_timeout error: the page may
// have partially loaded and remains queryable.
func (s *Session) Navigate(ctx context.Context, url string) error {
	return s.navigate(ctx, url, true)
}

// NavigateNoWait starts a navigation without waiting for the load event.
func (s *Session) NavigateNoWait(ctx context.Context, url string) error {
	return s.navigate(ctx, url, false)
}

func (s *Session) navigate(ctx context.Context, url string, waitLoad bool) error {
	page, err := s.ActivePage()
	if err != nil {
		return err
	}
	defer s.invalidateIndex()

	p := page.Context(ctx).Timeout(s.timeout)
	start := time.Now()
	if err := p.Navigate(url); err != nil {
		if timedOut(err) {
			return newErr(KindNavigationTimeout, "navigate", "navigation to %s timed out after %s", url, s.timeout)
		}
		return wrapErr(KindProtocol, fmt.Sprintf("navigate to %s", url), err)
	}
	if !waitLoad {
		log.Debug("browser: navigation started", "url", url)
		return nil
	}

	if err := p.WaitLoad(); err != nil {
		log.Warn("browser: load wait timed out", "url", url, "took", time.Since(start))
		return newErr(KindNavigationTimeout, "navigate", "load of %s timed out after %s", url, s.timeout)
	}

	// Brief stability wait catches post-load rendering without blocking
	// forever on pages that never go quiet.
	if err := page.Timeout(3 * time.Second).WaitStable(500 * time.Millisecond); err != nil {
		log.Debug("browser: page never went stable", "url", url)
	}
	log.Debug("browser: navigated", "url", url, "took", time.Since(start))
	return nil
}

// GoBack navigates the active tab one entry back in its history.
func (s *Session) GoBack(ctx context.Context) error {
	page, err := s.ActivePage()
	if err != nil {
		return err
	}
	defer s.invalidateIndex()

	p := page.Context(ctx).Timeout(s.timeout)
	if err := p.NavigateBack(); err != nil {
		return wrapErr(KindProtocol, "go back", err)
	}
	if err := p.WaitLoad(); err != nil {
		return newErr(KindNavigationTimeout, "go back", "load timed out after %s", s.timeout)
	}
	return nil
}

// Reload reloads the active tab.
func (s *Session) Reload(ctx context.Context) error {
	page, err := s.ActivePage()
	if err != nil {
		return err
	}
	defer s.invalidateIndex()

	p := page.Context(ctx).Timeout(s.timeout)
	if err := p.Reload(); err != nil {
		return wrapErr(KindProtocol, "reload", err)
	}
	if err := p.WaitLoad(); err != nil {
		return newErr(KindNavigationTimeout, "reload", "load timed out after %s", s.timeout)
	}
	return nil
}

// PageInfo reports the active tab's current URL and title.
func (s *Session) PageInfo() (PageInfo, error) {
	page, err := s.ActivePage()
	if err != nil {
		return PageInfo{}, err
	}
	info, err := page.Info()
	if err != nil {
		return PageInfo{}, wrapErr(KindProtocol, "page info", err)
	}
	return PageInfo{URL: info.URL, Title: info.Title}, nil
}

// withElement resolves a label to a live element handle and runs fn while
// holding the read lock, so no rebuild or tab switch can slide in between
// label resolution and the action itself.
func (s *Session) withElement(label int, fn func(page *rod.Page, node *model.ElementNode, el *rod.Element) error) (*model.ElementNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	page, err := s.activePageLocked()
	if err != nil {
		return nil, err
	}
	node, err := s.resolveLocked(label)
	if err != nil {
		return nil, err
	}
	el, err := s.locate(page, node)
	if err != nil {
		return nil, err
	}
	return node, fn(page, node, el)
}

// locate re-resolves a descriptor against the live DOM. The DOM may have
// changed since the snapshot, so matching uses the stored tag, attributes,
// and approximate position; no match means the element is gone.
func (s *Session) locate(page *rod.Page, node *model.ElementNode) (*rod.Element, error) {
	cx, cy := node.Box.Center()
	el, err := page.Timeout(s.timeout).ElementByJS(rod.Eval(locateJS, node.Tag, node.Attrs, cx, cy))
	if err != nil {
		return nil, newErr(KindElementGone, "locate",
			"element %d <%s> is no longer present on the page", node.Label, node.Tag)
	}
	return el, nil
}

// Click clicks the element addressed by label and waits briefly for the page
// to settle. The click may mutate the DOM, so the index is invalidated.
func (s *Session) Click(ctx context.Context, label int) (*model.ElementNode, error) {
	node, err := s.withElement(label, func(page *rod.Page, node *model.ElementNode, el *rod.Element) error {
		if err := el.ScrollIntoView(); err != nil {
			log.Debug("browser: scroll into view failed", "label", label, "error", err)
		}
		if err := el.Context(ctx).Click(proto.InputMouseButtonLeft, 1); err != nil {
			return wrapErr(KindProtocol, fmt.Sprintf("click element %d", label), err)
		}
		page.Timeout(time.Second).WaitStable(300 * time.Millisecond)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidateIndex()
	return node, nil
}

// Type focuses the element addressed by label and types text into it.
// When clear is set the existing value is selected and replaced.
func (s *Session) Type(ctx context.Context, label int, text string, clear bool) (*model.ElementNode, error) {
	node, err := s.withElement(label, func(page *rod.Page, node *model.ElementNode, el *rod.Element) error {
		el = el.Context(ctx)
		if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
			return wrapErr(KindProtocol, fmt.Sprintf("focus element %d", label), err)
		}
		if clear {
			if err := el.SelectAllText(); err != nil {
				return wrapErr(KindProtocol, fmt.Sprintf("select text in element %d", label), err)
			}
		}
		if err := el.Input(text); err != nil {
			return wrapErr(KindProtocol, fmt.Sprintf("type into element %d", label), err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidateIndex()
	return node, nil
}

// withSelector resolves a CSS selector on the active tab and runs fn.
// Selector addressing bypasses the label index, so no staleness applies;
// a selector with no match is element_not_found.
func (s *Session) withSelector(selector string, fn func(page *rod.Page, el *rod.Element) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	page, err := s.activePageLocked()
	if err != nil {
		return err
	}
	el, err := page.Timeout(s.timeout).Element(selector)
	if err != nil {
		return newErr(KindElementNotFound, "locate", "no element matches selector %q", selector)
	}
	return fn(page, el)
}

// ClickSelector clicks the first element matching a CSS selector.
func (s *Session) ClickSelector(ctx context.Context, selector string) error {
	err := s.withSelector(selector, func(page *rod.Page, el *rod.Element) error {
		if err := el.ScrollIntoView(); err != nil {
			log.Debug("browser: scroll into view failed", "selector", selector, "error", err)
		}
		if err := el.Context(ctx).Click(proto.InputMouseButtonLeft, 1); err != nil {
			return wrapErr(KindProtocol, fmt.Sprintf("click %s", selector), err)
		}
		page.Timeout(time.Second).WaitStable(300 * time.Millisecond)
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidateIndex()
	return nil
}

// TypeSelector types text into the first element matching a CSS selector.
func (s *Session) TypeSelector(ctx context.Context, selector, text string, clear bool) error {
	err := s.withSelector(selector, func(page *rod.Page, el *rod.Element) error {
		el = el.Context(ctx)
		if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
			return wrapErr(KindProtocol, fmt.Sprintf("focus %s", selector), err)
		}
		if clear {
			if err := el.SelectAllText(); err != nil {
				return wrapErr(KindProtocol, fmt.Sprintf("select text in %s", selector), err)
			}
		}
		if err := el.Input(text); err != nil {
			return wrapErr(KindProtocol, fmt.Sprintf("type into %s", selector), err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidateIndex()
	return nil
}

// Hover moves the mouse over the element addressed by label.
func (s *Session) Hover(ctx context.Context, label int) (*model.ElementNode, error) {
	return s.withElement(label, func(page *rod.Page, node *model.ElementNode, el *rod.Element) error {
		if err := el.Context(ctx).Hover(); err != nil {
			return wrapErr(KindProtocol, fmt.Sprintf("hover element %d", label), err)
		}
		return nil
	})
}

// SelectOptions selects the dropdown options whose visible text matches.
// On a failed match the error lists the options the element actually has.
func (s *Session) SelectOptions(ctx context.Context, label int, options []string) (*model.ElementNode, error) {
	node, err := s.withElement(label, func(page *rod.Page, node *model.ElementNode, el *rod.Element) error {
		if err := el.Context(ctx).Select(options, true, rod.SelectorTypeText); err != nil {
			if avail := listOptions(el); avail != "" {
				return newErr(KindProtocol, "select",
					"no option matching %v in element %d; available: %s", options, label, avail)
			}
			return wrapErr(KindProtocol, fmt.Sprintf("select in element %d", label), err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidateIndex()
	return node, nil
}

// listOptions reads the visible text of a select element's options.
func listOptions(el *rod.Element) string {
	result, err := el.Eval(`() => Array.from(this.options || []).map(o => o.text).join(", ")`)
	if err != nil || result == nil || result.Value.Nil() {
		return ""
	}
	return result.Value.String()
}

var namedKeys = map[string]input.Key{
	"Enter":      input.Enter,
	"Tab":        input.Tab,
	"Escape":     input.Escape,
	"Backspace":  input.Backspace,
	"Delete":     input.Delete,
	"ArrowUp":    input.ArrowUp,
	"ArrowDown":  input.ArrowDown,
	"ArrowLeft":  input.ArrowLeft,
	"ArrowRight": input.ArrowRight,
	"Home":       input.Home,
	"End":        input.End,
	"PageUp":     input.PageUp,
	"PageDown":   input.PageDown,
	"Space":      input.Space,
}

// PressKey sends a key press to the active tab. Named keys (Enter, Tab, ...)
// and single characters are accepted.
func (s *Session) PressKey(ctx context.Context, key string) error {
	page, err := s.ActivePage()
	if err != nil {
		return err
	}
	defer s.invalidateIndex()

	k, ok := namedKeys[key]
	if !ok {
		if len(key) != 1 {
			return newErr(KindInvalidArgument, "press key", "unknown key %q", key)
		}
		k = input.Key(rune(key[0]))
	}
	if err := page.Context(ctx).Keyboard.Type(k); err != nil {
		return wrapErr(KindProtocol, fmt.Sprintf("press %s", key), err)
	}
	return nil
}

// Scroll scrolls the active tab. Direction is up, down, top, or bottom;
// amount is in pixels and only applies to up/down (0 uses a default step).
func (s *Session) Scroll(ctx context.Context, direction string, amount int) error {
	page, err := s.ActivePage()
	if err != nil {
		return err
	}

	if amount <= 0 {
		amount = 500
	}
	var js string
	switch direction {
	case "down":
		js = fmt.Sprintf("() => window.scrollBy(0, %d)", amount)
	case "up":
		js = fmt.Sprintf("() => window.scrollBy(0, -%d)", amount)
	case "bottom":
		js = "() => window.scrollTo(0, document.body.scrollHeight)"
	case "top":
		js = "() => window.scrollTo(0, 0)"
	default:
		return newErr(KindInvalidArgument, "scroll", "direction must be up, down, top, or bottom, got %q", direction)
	}

	if _, err := page.Context(ctx).Eval(js); err != nil {
		return wrapErr(KindProtocol, "scroll", err)
	}
	return nil
}

// Evaluate runs JavaScript in the active tab and returns the result encoded
// as JSON. Long-running scripts are cut off at the session timeout.
func (s *Session) Evaluate(ctx context.Context, code string) (string, error) {
	page, err := s.ActivePage()
	if err != nil {
		return "", err
	}

	result, err := page.Context(ctx).Timeout(s.timeout).Eval(code)
	if err != nil {
		if timedOut(err) {
			return "", newErr(KindNavigationTimeout, "evaluate", "script did not finish within %s", s.timeout)
		}
		return "", wrapErr(KindProtocol, "evaluate", err)
	}
	if result == nil || result.Value.Nil() {
		return "null", nil
	}
	data, err := result.Value.MarshalJSON()
	if err != nil {
		return "", wrapErr(KindInternal, "evaluate", err)
	}
	return string(data), nil
}

// WaitFor blocks until an element matching selector appears on the active
// tab, or the timeout elapses. With gone set the condition is inverted: it
// waits for the last matching element to disappear.
func (s *Session) WaitFor(ctx context.Context, selector string, timeout time.Duration, gone bool) error {
	page, err := s.ActivePage()
	if err != nil {
		return err
	}
	if timeout <= 0 {
		timeout = s.timeout
	}

	if gone {
		deadline := time.Now().Add(timeout)
		for {
			has, _, err := page.Context(ctx).Has(selector)
			if err != nil {
				return wrapErr(KindProtocol, fmt.Sprintf("wait for %s gone", selector), err)
			}
			if !has {
				return nil
			}
			if time.Now().After(deadline) {
				return newErr(KindNavigationTimeout, "wait for",
					"element matching %q still present after %s", selector, timeout)
			}
			select {
			case <-ctx.Done():
				return wrapErr(KindNavigationTimeout, "wait for", ctx.Err())
			case <-time.After(100 * time.Millisecond):
			}
		}
	}

	if _, err := page.Context(ctx).Timeout(timeout).Element(selector); err != nil {
		return newErr(KindNavigationTimeout, "wait for",
			"no element matching %q appeared within %s", selector, timeout)
	}
	return nil
}

// Screenshot captures the viewport, full page, or one element, stores the
// bytes under name, and returns the capture plus its metadata. Scale below 1
// downsamples the image before storing.
func (s *Session) Screenshot(ctx context.Context, name string, fullPage bool, label *int, scale float64) ([]byte, store.ScreenshotMeta, error) {
	var data []byte
	var src store.ScreenshotSource
	var err error

	switch {
	case label != nil:
		src = store.SourceElement
		_, err = s.withElement(*label, func(page *rod.Page, node *model.ElementNode, el *rod.Element) error {
			data, err = el.Context(ctx).Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
			return err
		})
	case fullPage:
		src = store.SourceFullPage
		var page *rod.Page
		page, err = s.ActivePage()
		if err == nil {
			data, err = page.Context(ctx).Screenshot(true, &proto.PageCaptureScreenshot{
				Format: proto.PageCaptureScreenshotFormatPng,
			})
		}
	default:
		src = store.SourceViewport
		var page *rod.Page
		page, err = s.ActivePage()
		if err == nil {
			data, err = page.Context(ctx).Screenshot(false, nil)
		}
	}
	if err != nil {
		var serr *Error
		if errors.As(err, &serr) {
			return nil, store.ScreenshotMeta{}, err
		}
		return nil, store.ScreenshotMeta{}, wrapErr(KindProtocol, "screenshot", err)
	}

	data, w, h, err := scalePNG(data, scale)
	if err != nil {
		return nil, store.ScreenshotMeta{}, wrapErr(KindInternal, "screenshot", err)
	}

	meta := store.ScreenshotMeta{
		Name:       name,
		Width:      w,
		Height:     h,
		CapturedAt: time.Now(),
		Source:     src,
	}
	s.shots.Put(data, meta)
	meta.Bytes = len(data)
	return data, meta, nil
}

func timedOut(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) ||
		strings.Contains(err.Error(), "context deadline exceeded")
}
