package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/mj1618/browser-cli/internal/model"
	"github.com/mj1618/browser-cli/internal/store"
)

// testSession builds a session with fake tabs and no browser connection, for
// exercising the bookkeeping that never leaves the process.
func testSession(tabCount int) *Session {
	s := &Session{
		active:    -1,
		shots:     store.NewScreenshots(0),
		downloads: store.NewDownloads(),
		console:   store.NewConsoleLog(0),
	}
	s.evtCtx, s.evtCancel = context.WithCancel(context.Background())
	for i := 0; i < tabCount; i++ {
		id := proto.TargetTargetID(fmt.Sprintf("target-%d", i))
		s.tabs = append(s.tabs, &Tab{page: &rod.Page{TargetID: id}, targetID: id})
	}
	if tabCount > 0 {
		s.active = 0
	}
	return s
}

func testIndex(t *testing.T, n int) *model.Index {
	t.Helper()
	children := make([]map[string]any, n)
	for i := range children {
		children[i] = map[string]any{
			"tag": "button", "text": "btn", "clickable": true, "visible": true,
			"box": map[string]float64{"x": 0, "y": float64(i * 20), "width": 50, "height": 18},
		}
	}
	raw, err := json.Marshal(map[string]any{
		"tag": "body", "visible": true,
		"box":      map[string]float64{"x": 0, "y": 0, "width": 800, "height": 600},
		"children": children,
	})
	if err != nil {
		t.Fatal(err)
	}
	root, err := model.ParseTree(raw)
	if err != nil {
		t.Fatal(err)
	}
	return model.BuildIndex(root, model.BuildOptions{})
}

func TestResolveWithoutSnapshot(t *testing.T) {
	s := testSession(1)
	_, err := s.resolveLocked(0)
	if KindOf(err) != KindStaleIndex {
		t.Errorf("resolve before any build: kind = %s, want %s", KindOf(err), KindStaleIndex)
	}
}

func TestResolveStaleVersusNotFound(t *testing.T) {
	s := testSession(1)

	// First snapshot: body + 5 buttons.
	s.index = testIndex(t, 5)
	s.indexValid = true

	if _, err := s.resolveLocked(3); err != nil {
		t.Fatalf("valid label rejected: %v", err)
	}

	// Rebuild onto a smaller page: body + 2 buttons.
	s.priorExtent = s.index.Len()
	s.index = testIndex(t, 2)

	// Label 4 existed in the previous snapshot: stale, not missing.
	if _, err := s.resolveLocked(4); KindOf(err) != KindStaleIndex {
		t.Errorf("prior-range label: kind = %s, want %s", KindOf(err), KindStaleIndex)
	}
	// Label 50 never existed in either snapshot.
	if _, err := s.resolveLocked(50); KindOf(err) != KindElementNotFound {
		t.Errorf("out-of-range label: kind = %s, want %s", KindOf(err), KindElementNotFound)
	}
}

func TestResolveAfterInvalidation(t *testing.T) {
	s := testSession(2)
	s.index = testIndex(t, 3)
	s.indexValid = true

	// A tab switch invalidates the snapshot; every label is stale until the
	// caller rebuilds, even ones that were just valid.
	s.invalidateIndexLocked()
	if _, err := s.resolveLocked(0); KindOf(err) != KindStaleIndex {
		t.Errorf("post-invalidation: kind = %s, want %s", KindOf(err), KindStaleIndex)
	}
}

func TestCloseTabValidation(t *testing.T) {
	s := testSession(1)

	if err := s.CloseTab(5); KindOf(err) != KindTabNotFound {
		t.Errorf("bad index: kind = %s, want %s", KindOf(err), KindTabNotFound)
	}
	if err := s.CloseTab(0); KindOf(err) != KindLastTab {
		t.Errorf("last tab: kind = %s, want %s", KindOf(err), KindLastTab)
	}
	if got := len(s.tabs); got != 1 {
		t.Errorf("tab count after rejected close = %d, want 1", got)
	}
}

func TestSwitchTabValidation(t *testing.T) {
	s := testSession(2)
	if err := s.SwitchTab(7); KindOf(err) != KindTabNotFound {
		t.Errorf("kind = %s, want %s", KindOf(err), KindTabNotFound)
	}
}

func TestRemoveTargetBookkeeping(t *testing.T) {
	s := testSession(3)
	s.active = 1
	s.index = testIndex(t, 2)
	s.indexValid = true

	// Removing a tab before the active one shifts the pointer down.
	s.removeTarget(s.tabs[0].targetID)
	if s.active != 0 || len(s.tabs) != 2 {
		t.Fatalf("active = %d, tabs = %d", s.active, len(s.tabs))
	}
	if !s.indexValid {
		t.Error("removing an inactive tab should not invalidate the index")
	}

	// Removing the active tab falls back to tab 0 and invalidates.
	s.removeTarget(s.tabs[0].targetID)
	if s.active != 0 || len(s.tabs) != 1 {
		t.Fatalf("active = %d, tabs = %d", s.active, len(s.tabs))
	}
	if s.indexValid {
		t.Error("removing the active tab must invalidate the index")
	}

	// Unknown targets are ignored.
	s.removeTarget(proto.TargetTargetID("zzz"))
	if len(s.tabs) != 1 {
		t.Errorf("tabs = %d after unknown target", len(s.tabs))
	}
}

func TestAdoptPageDeduplicates(t *testing.T) {
	s := testSession(1)
	page := &rod.Page{TargetID: proto.TargetTargetID("popup-1")}

	idx := s.adoptPage(page, false)
	if idx != 1 || len(s.tabs) != 2 {
		t.Fatalf("idx = %d, tabs = %d", idx, len(s.tabs))
	}

	// Adopting the same target again reuses the slot.
	again := s.adoptPage(page, true)
	if again != 1 || len(s.tabs) != 2 {
		t.Fatalf("again = %d, tabs = %d", again, len(s.tabs))
	}
	if s.active != 1 {
		t.Errorf("active = %d after activate adopt", s.active)
	}
}

func TestDownloadKey(t *testing.T) {
	s := testSession(1)

	if key := s.downloadKey("report.pdf", true); key != "report.pdf" {
		t.Errorf("fresh key = %q", key)
	}

	// Occupy the key, then a second download with the same name must not
	// collide.
	s.downloads.Begin("g1", "u", "report.pdf")
	s.downloads.Complete("g1", "report.pdf", []byte("x"))
	key := s.downloadKey("report.pdf", true)
	if key == "report.pdf" {
		t.Error("collision not avoided")
	}
	if ext := key[len(key)-4:]; ext != ".pdf" {
		t.Errorf("extension lost: %q", key)
	}

	if key := s.downloadKey("", false); key == "" {
		t.Error("unknown download should still get a key")
	}
}

func TestCloseIdempotent(t *testing.T) {
	s := testSession(0)
	s.cfg.CDPEndpoint = "ws://localhost:9222" // attach mode: no browser to kill

	if err := s.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	// The event goroutines are bounded by this context; even when the
	// browser connection stays open, Close must stop them.
	if s.evtCtx.Err() == nil {
		t.Error("close did not cancel the event context")
	}
}

func TestAbortLaunchReleasesResources(t *testing.T) {
	s := testSession(0)
	dir, err := os.MkdirTemp("", "browser-cli-test-")
	if err != nil {
		t.Fatal(err)
	}
	s.downloadDir = dir
	if err := os.WriteFile(filepath.Join(dir, "guid"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	s.abortLaunch()

	if s.evtCtx.Err() == nil {
		t.Error("abort did not cancel the event context")
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("temp download dir survived the abort: %v", err)
	}
}

func TestAbortLaunchKeepsCallerOutputDir(t *testing.T) {
	s := testSession(0)
	dir := t.TempDir()
	s.cfg.OutputDir = dir
	s.downloadDir = dir

	s.abortLaunch()

	if _, err := os.Stat(dir); err != nil {
		t.Errorf("caller-owned output dir removed: %v", err)
	}
}
