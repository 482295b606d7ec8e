package browser

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/mj1618/browser-cli/internal/model"
	"github.com/mj1618/browser-cli/internal/store"
)

// Tab pairs a rod page with its CDP target identifier.
type Tab struct {
	page     *rod.Page
	targetID proto.TargetTargetID
}

// TabInfo is the caller-facing description of one open tab.
type TabInfo struct {
	Index  int    `json:"index" yaml:"index"`
	URL    string `json:"url" yaml:"url"`
	Title  string `json:"title" yaml:"title"`
	Active bool   `json:"active" yaml:"active"`
}

// Session owns one browser connection, its tabs, the element index for the
// active tab, and the artifact stores.
//
// Locking discipline: mu guards the tab list, the active-tab pointer, and the
// element index. Label-addressed actions hold the read lock for their whole
// duration, so a tab switch or index rebuild (write lock) can never interleave
// with an action resolving labels from the previous snapshot. The artifact
// stores carry their own locks and may be read concurrently with any action.
type Session struct {
	cfg     Config
	timeout time.Duration

	browser  *rod.Browser
	launcher *launcher.Launcher // nil when attached to an external browser

	downloadDir string

	mu          sync.RWMutex
	tabs        []*Tab
	active      int
	index       *model.Index
	indexValid  bool
	priorExtent int // label range of the last snapshot callers may still hold

	shots     *store.Screenshots
	downloads *store.Downloads
	console   *store.ConsoleLog

	// evtCtx bounds the lifetime of the reconciler and console watcher
	// goroutines; Close cancels it so they stop even in attach mode, where
	// the browser connection outlives the session.
	evtCtx    context.Context
	evtCancel context.CancelFunc

	closeOnce sync.Once
	closeErr  error
}

// Launch validates cfg, then either launches a browser process or attaches to
// a running one, opens the initial tab, and starts the event reconciler.
func Launch(cfg Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Session{
		cfg:       cfg,
		timeout:   cfg.ResolveTimeout(),
		active:    -1,
		shots:     store.NewScreenshots(cfg.ScreenshotBudget),
		downloads: store.NewDownloads(),
		console:   store.NewConsoleLog(cfg.ConsoleCap),
	}

	if cfg.Attach() {
		log.Debug("browser: attaching", "endpoint", cfg.CDPEndpoint)
		b := rod.New().ControlURL(cfg.CDPEndpoint)
		if err := b.Connect(); err != nil {
			return nil, wrapErr(KindConnection, "connect", err)
		}
		s.browser = b
	} else {
		l := launcher.New().
			Headless(cfg.Headless).
			Set("disable-dev-shm-usage")
		if cfg.ExecPath != "" {
			l = l.Bin(cfg.ExecPath)
		}
		if cfg.UserDataDir != "" {
			l = l.UserDataDir(cfg.UserDataDir)
		}
		if !cfg.Headless {
			// Chrome opens a tiny window by default in headed mode.
			l = l.Set("window-size", "1920,1080").Set("start-maximized")
		}
		if cfg.Stealth {
			l = l.Set("disable-blink-features", "AutomationControlled")
		}
		if cfg.NoSandbox {
			l = l.Set("no-sandbox")
		}
		if cfg.ProxyServer != "" {
			l = l.Proxy(cfg.ProxyServer)
		}

		controlURL, err := l.Launch()
		if err != nil {
			return nil, wrapErr(KindConnection, "launch", err)
		}
		b := rod.New().ControlURL(controlURL)
		if err := b.Connect(); err != nil {
			return nil, wrapErr(KindConnection, "connect", err)
		}
		b.DefaultDevice(cfg.ResolveDevice())
		s.browser = b
		s.launcher = l
		log.Debug("browser: launched", "controlURL", controlURL, "headless", cfg.Headless)
	}

	s.evtCtx, s.evtCancel = context.WithCancel(context.Background())

	if err := s.setupDownloads(); err != nil {
		s.abortLaunch()
		return nil, err
	}
	s.startReconciler()

	page, err := s.newPage()
	if err != nil {
		s.abortLaunch()
		return nil, wrapErr(KindConnection, "open initial tab", err)
	}
	s.adoptPage(page, true)

	return s, nil
}

// abortLaunch tears down a partially constructed session. It releases the
// same resources the normal Close path does: the browser process, the
// launcher's throwaway profile directory, and the temp download dir.
func (s *Session) abortLaunch() {
	s.evtCancel()
	if s.browser != nil && !s.cfg.Attach() {
		s.browser.Close()
	}
	if s.launcher != nil && s.cfg.UserDataDir == "" {
		s.launcher.Cleanup()
	}
	if s.cfg.OutputDir == "" && s.downloadDir != "" {
		os.RemoveAll(s.downloadDir)
	}
}

// newPage opens a fresh page, with stealth evasions when configured, and
// applies viewport, user agent, and console capture.
func (s *Session) newPage() (*rod.Page, error) {
	var page *rod.Page
	var err error
	if s.cfg.Stealth && !s.cfg.Attach() {
		page, err = stealth.Page(s.browser)
	} else {
		page, err = s.browser.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		return nil, err
	}
	if err := s.preparePage(page); err != nil {
		page.Close()
		return nil, err
	}
	return page, nil
}

func (s *Session) preparePage(page *rod.Page) error {
	if s.cfg.ViewportWidth > 0 {
		err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             s.cfg.ViewportWidth,
			Height:            s.cfg.ViewportHeight,
			DeviceScaleFactor: 1,
		})
		if err != nil {
			return wrapErr(KindProtocol, "set viewport", err)
		}
	}
	if s.cfg.UserAgent != "" {
		err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: s.cfg.UserAgent})
		if err != nil {
			return wrapErr(KindProtocol, "set user agent", err)
		}
	}
	s.watchConsole(page)
	return nil
}

// adoptPage registers a page we created ourselves. The reconciler may have
// already seen its target-created event, so registration is keyed by target.
func (s *Session) adoptPage(page *rod.Page, activate bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.findTargetLocked(page.TargetID)
	if idx < 0 {
		s.tabs = append(s.tabs, &Tab{page: page, targetID: page.TargetID})
		idx = len(s.tabs) - 1
	} else {
		s.tabs[idx].page = page
	}
	if activate {
		s.active = idx
		s.invalidateIndexLocked()
	}
	return idx
}

func (s *Session) findTargetLocked(id proto.TargetTargetID) int {
	for i, t := range s.tabs {
		if t.targetID == id {
			return i
		}
	}
	return -1
}

// invalidateIndexLocked marks the element snapshot unusable. Labels handed
// out before this point must fail with a stale-index error, never resolve
// against a later snapshot.
func (s *Session) invalidateIndexLocked() {
	if s.index != nil {
		s.priorExtent = s.index.Len()
	}
	s.indexValid = false
}

func (s *Session) invalidateIndex() {
	s.mu.Lock()
	s.invalidateIndexLocked()
	s.mu.Unlock()
}

// resolveLocked maps a label to its element descriptor, discriminating stale
// labels from labels that never existed.
func (s *Session) resolveLocked(label int) (*model.ElementNode, error) {
	if !s.indexValid || s.index == nil {
		return nil, newErr(KindStaleIndex, "element",
			"no current element snapshot; rebuild the index first")
	}
	if node, ok := s.index.Lookup(label); ok {
		return node, nil
	}
	if label >= 0 && label < s.priorExtent {
		return nil, newErr(KindStaleIndex, "element",
			"label %d is from a previous snapshot; rebuild the index", label)
	}
	return nil, newErr(KindElementNotFound, "element",
		"no element with label %d (index has %d elements)", label, s.index.Len())
}

func (s *Session) activePageLocked() (*rod.Page, error) {
	if s.active < 0 || s.active >= len(s.tabs) {
		return nil, newErr(KindTabNotFound, "active tab", "no active tab")
	}
	return s.tabs[s.active].page, nil
}

// ActivePage returns the page of the active tab.
func (s *Session) ActivePage() (*rod.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activePageLocked()
}

// ActiveIndex returns the index of the active tab, -1 when none exists.
func (s *Session) ActiveIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Tabs lists all open tabs with live URL and title.
func (s *Session) Tabs() []TabInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]TabInfo, 0, len(s.tabs))
	for i, t := range s.tabs {
		info := TabInfo{Index: i, Active: i == s.active}
		if pi, err := t.page.Info(); err == nil {
			info.URL = pi.URL
			info.Title = pi.Title
		}
		infos = append(infos, info)
	}
	return infos
}

// SwitchTab makes the tab at index active and invalidates the element index,
// which is specific to the previously active tab.
func (s *Session) SwitchTab(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.tabs) {
		return newErr(KindTabNotFound, "switch tab", "no tab at index %d (%d open)", index, len(s.tabs))
	}
	s.active = index
	s.invalidateIndexLocked()

	if _, err := s.tabs[index].page.Activate(); err != nil {
		log.Debug("browser: tab activate failed", "index", index, "error", err)
	}
	return nil
}

// NewTab opens a tab, optionally navigating it, and makes it active.
func (s *Session) NewTab(url string) (int, error) {
	page, err := s.newPage()
	if err != nil {
		return 0, wrapErr(KindConnection, "new tab", err)
	}
	idx := s.adoptPage(page, true)

	if url != "" {
		if err := s.Navigate(page.GetContext(), url); err != nil {
			return idx, err
		}
	}
	return idx, nil
}

// CloseTab closes the tab at index. The last remaining tab cannot be closed;
// a session always has at least one tab.
func (s *Session) CloseTab(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.tabs) {
		return newErr(KindTabNotFound, "close tab", "no tab at index %d (%d open)", index, len(s.tabs))
	}
	if len(s.tabs) == 1 {
		return newErr(KindLastTab, "close tab", "cannot close the last remaining tab")
	}

	page := s.tabs[index].page
	s.tabs = append(s.tabs[:index], s.tabs[index+1:]...)
	switch {
	case s.active == index:
		s.active = 0
		s.invalidateIndexLocked()
	case s.active > index:
		s.active--
	}

	if err := page.Close(); err != nil {
		log.Debug("browser: tab close reported error", "index", index, "error", err)
	}
	return nil
}

// Screenshots exposes the screenshot store.
func (s *Session) Screenshots() *store.Screenshots { return s.shots }

// Downloads exposes the download store.
func (s *Session) Downloads() *store.Downloads { return s.downloads }

// Console exposes the console log store.
func (s *Session) Console() *store.ConsoleLog { return s.console }

// setupDownloads routes browser downloads to a directory the reconciler can
// read completed files from, named by download GUID.
func (s *Session) setupDownloads() error {
	dir := s.cfg.OutputDir
	if dir == "" {
		d, err := os.MkdirTemp("", "browser-cli-downloads-")
		if err != nil {
			return wrapErr(KindConnection, "download dir", err)
		}
		dir = d
	}
	s.downloadDir = dir

	err := proto.BrowserSetDownloadBehavior{
		Behavior:      proto.BrowserSetDownloadBehaviorBehaviorAllowAndName,
		DownloadPath:  dir,
		EventsEnabled: true,
	}.Call(s.browser)
	if err != nil {
		return wrapErr(KindProtocol, "set download behavior", err)
	}
	return nil
}

// Close shuts the session down. Safe to call more than once; the browser
// connection is released exactly once. An attached external browser is left
// running, only the tabs this session opened are closed.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.evtCancel()

		s.mu.Lock()
		tabs := s.tabs
		s.tabs = nil
		s.active = -1
		s.indexValid = false
		s.mu.Unlock()

		for _, t := range tabs {
			if t.page != nil {
				t.page.Close()
			}
		}

		if s.cfg.Attach() {
			log.Debug("browser: detached from external browser")
			return
		}
		if s.browser != nil {
			s.closeErr = s.browser.Close()
		}
		if s.launcher != nil && s.cfg.UserDataDir == "" {
			s.launcher.Cleanup()
		}
		if s.cfg.OutputDir == "" && s.downloadDir != "" {
			os.RemoveAll(s.downloadDir)
		}
		log.Debug("browser: session closed")
	})
	return s.closeErr
}
