package browser

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/google/uuid"
)

// startReconciler subscribes to browser-originated events and applies them to
// session state. It is the sole event-driven writer; tool calls and events
// meet only at the session mutex. Malformed or out-of-order events are logged
// and dropped, never fatal. The goroutine exits when the session closes.
func (s *Session) startReconciler() {
	go s.browser.Context(s.evtCtx).EachEvent(
		func(e *proto.TargetTargetCreated) {
			if e.TargetInfo.Type != proto.TargetTargetInfoTypePage {
				return
			}
			s.registerTarget(e.TargetInfo)
		},
		func(e *proto.TargetTargetDestroyed) {
			s.removeTarget(e.TargetID)
		},
		func(e *proto.BrowserDownloadWillBegin) {
			if err := s.downloads.Begin(e.GUID, e.URL, e.SuggestedFilename); err != nil {
				log.Warn("browser: dropping download event", "guid", e.GUID, "error", err)
			}
		},
		func(e *proto.BrowserDownloadProgress) {
			s.applyDownloadProgress(e)
		},
	)()
}

// registerTarget adds a tab for a target the browser opened on its own, such
// as a popup. The new tab is tracked but never auto-focused; callers switch
// to it explicitly via the tab tools.
func (s *Session) registerTarget(info *proto.TargetTargetInfo) {
	s.mu.Lock()
	if s.findTargetLocked(info.TargetID) >= 0 {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	// PageFromTarget is a browser round trip; attach before taking the lock.
	page, err := s.browser.PageFromTarget(info.TargetID)
	if err != nil {
		log.Warn("browser: cannot attach to new target", "targetID", info.TargetID, "error", err)
		return
	}
	s.watchConsole(page)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findTargetLocked(info.TargetID) >= 0 {
		// A tool call adopted it while we were attaching.
		return
	}
	s.tabs = append(s.tabs, &Tab{page: page, targetID: info.TargetID})
	log.Debug("browser: popup registered", "targetID", info.TargetID, "url", info.URL, "tabs", len(s.tabs))
}

// removeTarget drops the tab for a target the browser reports gone. If it was
// the active tab, activation falls back to the first remaining tab and the
// element index is invalidated.
func (s *Session) removeTarget(id proto.TargetTargetID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.findTargetLocked(id)
	if idx < 0 {
		return
	}
	s.tabs = append(s.tabs[:idx], s.tabs[idx+1:]...)
	switch {
	case len(s.tabs) == 0:
		s.active = -1
		s.invalidateIndexLocked()
	case s.active == idx:
		s.active = 0
		s.invalidateIndexLocked()
	case s.active > idx:
		s.active--
	}
	log.Debug("browser: target gone", "targetID", id, "tabs", len(s.tabs))
}

func (s *Session) applyDownloadProgress(e *proto.BrowserDownloadProgress) {
	switch e.State {
	case proto.BrowserDownloadProgressStateInProgress:
		if err := s.downloads.Progress(e.GUID, int64(e.ReceivedBytes), int64(e.TotalBytes)); err != nil {
			log.Warn("browser: dropping download progress", "guid", e.GUID, "error", err)
		}
	case proto.BrowserDownloadProgressStateCompleted:
		s.completeDownload(e.GUID)
	case proto.BrowserDownloadProgressStateCanceled:
		if err := s.downloads.Cancel(e.GUID); err != nil {
			log.Warn("browser: dropping download cancel", "guid", e.GUID, "error", err)
		}
	}
}

// completeDownload reads the finished file, written under its GUID by the
// download behavior we configured, and persists the bytes under a stable key.
func (s *Session) completeDownload(guid string) {
	path := filepath.Join(s.downloadDir, guid)

	// The completion event can race the final write; retry briefly.
	var data []byte
	var err error
	for i := 0; i < 10; i++ {
		data, err = os.ReadFile(path)
		if err == nil {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if err != nil {
		log.Warn("browser: completed download unreadable", "guid", guid, "path", path, "error", err)
		if cerr := s.downloads.Cancel(guid); cerr != nil {
			log.Warn("browser: dropping download cancel", "guid", guid, "error", cerr)
		}
		return
	}

	dl, ok := s.downloads.Get(guid)
	key := s.downloadKey(dl.SuggestedFilename, ok)
	if err := s.downloads.Complete(guid, key, data); err != nil {
		log.Warn("browser: dropping download completion", "guid", guid, "error", err)
		return
	}
	os.Remove(path)
	log.Debug("browser: download completed", "guid", guid, "key", key, "bytes", len(data))
}

// downloadKey derives a stable byte-store key from the suggested filename,
// suffixed randomly when the name is taken or missing.
func (s *Session) downloadKey(suggested string, known bool) string {
	name := strings.TrimSpace(suggested)
	if !known || name == "" {
		name = "download"
	}
	if _, taken := s.downloads.ByKey(name); !taken {
		if name != "download" {
			return name
		}
	}
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return base + "_" + uuid.NewString()[:8] + ext
}

// watchConsole appends the page's console output to the bounded session log
// until the page or the session goes away.
func (s *Session) watchConsole(page *rod.Page) {
	go page.Context(s.evtCtx).EachEvent(func(e *proto.RuntimeConsoleAPICalled) {
		s.console.Append(string(e.Type), formatConsoleArgs(e.Args))
	})()
}

func formatConsoleArgs(args []*proto.RuntimeRemoteObject) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		if arg == nil {
			continue
		}
		if arg.Value.Nil() {
			parts = append(parts, arg.Description)
			continue
		}
		parts = append(parts, arg.Value.String())
	}
	return strings.Join(parts, " ")
}
