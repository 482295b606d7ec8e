package store

import (
	"fmt"
	"testing"
	"time"
)

func TestScreenshotsPutGet(t *testing.T) {
	s := NewScreenshots(0)
	s.Put([]byte("png-bytes"), ScreenshotMeta{
		Name: "home", Width: 1280, Height: 720,
		CapturedAt: time.Now(), Source: SourceViewport,
	})

	data, meta, ok := s.Get("home")
	if !ok {
		t.Fatal("Get(home) missing")
	}
	if string(data) != "png-bytes" {
		t.Errorf("data = %q", data)
	}
	if meta.Bytes != len("png-bytes") || meta.Width != 1280 {
		t.Errorf("meta = %+v", meta)
	}

	if _, _, ok := s.Get("nope"); ok {
		t.Error("Get(nope) should miss")
	}
}

func TestScreenshotsLRUEviction(t *testing.T) {
	// Budget fits two 4-byte blobs; the third insert evicts the least
	// recently used.
	s := NewScreenshots(8)
	s.Put([]byte("aaaa"), ScreenshotMeta{Name: "a"})
	s.Put([]byte("bbbb"), ScreenshotMeta{Name: "b"})

	// Touch "a" so "b" is the eviction candidate.
	s.Get("a")
	s.Put([]byte("cccc"), ScreenshotMeta{Name: "c"})

	if _, _, ok := s.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	for _, name := range []string{"a", "c"} {
		if _, _, ok := s.Get(name); !ok {
			t.Errorf("%s should survive", name)
		}
	}
}

func TestScreenshotsOversizeSingleEntry(t *testing.T) {
	s := NewScreenshots(4)
	s.Put([]byte("way-over-budget"), ScreenshotMeta{Name: "big"})
	if _, _, ok := s.Get("big"); !ok {
		t.Error("sole entry must survive even over budget")
	}
}

func TestDownloadLifecycle(t *testing.T) {
	d := NewDownloads()
	if err := d.Begin("g1", "https://example.com/f.zip", "f.zip"); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	dl, _ := d.Get("g1")
	if dl.State != DownloadPending {
		t.Errorf("state after Begin = %s", dl.State)
	}

	if err := d.Progress("g1", 512, 1024); err != nil {
		t.Fatalf("Progress: %v", err)
	}
	dl, _ = d.Get("g1")
	if dl.State != DownloadInProgress || dl.ReceivedBytes != 512 || dl.TotalBytes != 1024 {
		t.Errorf("after progress: %+v", dl)
	}

	if err := d.Complete("g1", "f.zip", []byte("zip-bytes")); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	dl, _ = d.Get("g1")
	if dl.State != DownloadCompleted {
		t.Errorf("state = %s, want completed", dl.State)
	}
	if dl.Key == "" {
		t.Error("completed download must have a store key")
	}
	if data, ok := d.Blob("f.zip"); !ok || string(data) != "zip-bytes" {
		t.Errorf("Blob = %q, %v", data, ok)
	}
}

func TestDownloadUnknownGUID(t *testing.T) {
	d := NewDownloads()
	if err := d.Progress("ghost", 1, 2); err == nil {
		t.Error("Progress(unknown) should error")
	}
	if err := d.Complete("ghost", "k", nil); err == nil {
		t.Error("Complete(unknown) should error")
	}
	if err := d.Cancel("ghost"); err == nil {
		t.Error("Cancel(unknown) should error")
	}
}

func TestDownloadNoTransitionAfterTerminal(t *testing.T) {
	d := NewDownloads()
	d.Begin("g1", "u", "f")
	d.Progress("g1", 1, 1)
	d.Complete("g1", "f", []byte("x"))

	if err := d.Progress("g1", 2, 2); err == nil {
		t.Error("progress after completion should error")
	}
	if err := d.Cancel("g1"); err == nil {
		t.Error("cancel after completion should error")
	}
	dl, _ := d.Get("g1")
	if dl.State != DownloadCompleted {
		t.Errorf("terminal state mutated: %s", dl.State)
	}
}

func TestDownloadCompleteRequiresKey(t *testing.T) {
	d := NewDownloads()
	d.Begin("g1", "u", "f")
	if err := d.Complete("g1", "", []byte("x")); err == nil {
		t.Error("empty key must be rejected")
	}
}

func TestDownloadDuplicateBegin(t *testing.T) {
	d := NewDownloads()
	d.Begin("g1", "u", "f")
	if err := d.Begin("g1", "u2", "f2"); err == nil {
		t.Error("duplicate Begin should error")
	}
}

func TestDownloadListOrder(t *testing.T) {
	d := NewDownloads()
	for i := 0; i < 3; i++ {
		d.Begin(fmt.Sprintf("g%d", i), "u", fmt.Sprintf("f%d", i))
	}
	list := d.List()
	if len(list) != 3 {
		t.Fatalf("List() len = %d", len(list))
	}
	for i, dl := range list {
		if dl.GUID != fmt.Sprintf("g%d", i) {
			t.Errorf("List()[%d] = %s", i, dl.GUID)
		}
	}
}

func TestConsoleRetention(t *testing.T) {
	c := NewConsoleLog(5)
	for i := 0; i < 8; i++ {
		c.Append("log", fmt.Sprintf("line %d", i))
	}

	if c.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", c.Len())
	}
	if c.Dropped() != 3 {
		t.Errorf("Dropped() = %d, want 3", c.Dropped())
	}

	tail := c.Tail(0)
	if tail[0].Text != "line 3" || tail[len(tail)-1].Text != "line 7" {
		t.Errorf("tail = %v", tail)
	}
}

func TestConsoleTailN(t *testing.T) {
	c := NewConsoleLog(0)
	for i := 0; i < 10; i++ {
		c.Append("warn", fmt.Sprintf("w%d", i))
	}
	tail := c.Tail(3)
	if len(tail) != 3 || tail[0].Text != "w7" || tail[2].Text != "w9" {
		t.Errorf("Tail(3) = %v", tail)
	}
	// Asking for more than retained returns everything.
	if got := c.Tail(50); len(got) != 10 {
		t.Errorf("Tail(50) len = %d", len(got))
	}
}
