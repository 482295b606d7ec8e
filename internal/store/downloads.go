package store

import (
	"fmt"
	"sync"
	"time"
)

// DownloadState is a download's lifecycle position. Transitions only move
// forward: Pending → InProgress → Completed or Canceled.
type DownloadState string

const (
	DownloadPending    DownloadState = "pending"
	DownloadInProgress DownloadState = "in_progress"
	DownloadCompleted  DownloadState = "completed"
	DownloadCanceled   DownloadState = "canceled"
)

// Download is one tracked file transfer. It belongs to the session, not the
// tab that triggered it: the tab may close while bytes are still arriving.
type Download struct {
	GUID              string        `yaml:"guid"               json:"guid"`
	URL               string        `yaml:"url"                json:"url"`
	SuggestedFilename string        `yaml:"suggested_filename" json:"suggested_filename"`
	State             DownloadState `yaml:"state"              json:"state"`
	ReceivedBytes     int64         `yaml:"received_bytes"     json:"received_bytes"`
	TotalBytes        int64         `yaml:"total_bytes"        json:"total_bytes"`
	Key               string        `yaml:"key,omitempty"      json:"key,omitempty"`
	StartedAt         time.Time     `yaml:"started_at"         json:"started_at"`
}

// Downloads tracks transfers by the GUID the browser assigns and keeps the
// bytes of completed ones.
type Downloads struct {
	mu     sync.Mutex
	byGUID map[string]*Download
	blobs  map[string][]byte // key → completed bytes
	order  []string          // GUIDs in begin order
}

// NewDownloads creates an empty tracker.
func NewDownloads() *Downloads {
	return &Downloads{
		byGUID: make(map[string]*Download),
		blobs:  make(map[string][]byte),
	}
}

// Begin registers a new Pending download. Re-announcing a known GUID is an
// event-stream inconsistency and reported as an error.
func (d *Downloads) Begin(guid, url, filename string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.byGUID[guid]; ok {
		return fmt.Errorf("download %s already tracked", guid)
	}
	d.byGUID[guid] = &Download{
		GUID:              guid,
		URL:               url,
		SuggestedFilename: filename,
		State:             DownloadPending,
		StartedAt:         time.Now(),
	}
	d.order = append(d.order, guid)
	return nil
}

// Progress records received/total bytes and moves a Pending download to
// InProgress. Progress for an unknown GUID or a finished download is an
// inconsistency the caller logs and drops.
func (d *Downloads) Progress(guid string, received, total int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	dl, ok := d.byGUID[guid]
	if !ok {
		return fmt.Errorf("progress for unknown download %s", guid)
	}
	if dl.State == DownloadCompleted || dl.State == DownloadCanceled {
		return fmt.Errorf("progress for finished download %s (state %s)", guid, dl.State)
	}
	dl.State = DownloadInProgress
	dl.ReceivedBytes = received
	dl.TotalBytes = total
	return nil
}

// Complete finalizes a download: the bytes are kept under key and the state
// becomes Completed. A completed download always has a non-empty key.
func (d *Downloads) Complete(guid, key string, data []byte) error {
	if key == "" {
		return fmt.Errorf("complete download %s: empty store key", guid)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	dl, ok := d.byGUID[guid]
	if !ok {
		return fmt.Errorf("complete for unknown download %s", guid)
	}
	if dl.State == DownloadCompleted || dl.State == DownloadCanceled {
		return fmt.Errorf("complete for finished download %s (state %s)", guid, dl.State)
	}
	dl.State = DownloadCompleted
	dl.Key = key
	dl.ReceivedBytes = int64(len(data))
	if dl.TotalBytes == 0 {
		dl.TotalBytes = int64(len(data))
	}
	d.blobs[key] = data
	return nil
}

// Cancel marks a download Canceled.
func (d *Downloads) Cancel(guid string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	dl, ok := d.byGUID[guid]
	if !ok {
		return fmt.Errorf("cancel for unknown download %s", guid)
	}
	if dl.State == DownloadCompleted || dl.State == DownloadCanceled {
		return fmt.Errorf("cancel for finished download %s (state %s)", guid, dl.State)
	}
	dl.State = DownloadCanceled
	return nil
}

// Get returns a copy of the record for guid.
func (d *Downloads) Get(guid string) (Download, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	dl, ok := d.byGUID[guid]
	if !ok {
		return Download{}, false
	}
	return *dl, true
}

// Blob returns the bytes of a completed download by store key.
func (d *Downloads) Blob(key string) ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	data, ok := d.blobs[key]
	return data, ok
}

// ByKey finds a download record by its store key.
func (d *Downloads) ByKey(key string) (Download, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, dl := range d.byGUID {
		if dl.Key == key {
			return *dl, true
		}
	}
	return Download{}, false
}

// List returns all tracked downloads in begin order.
func (d *Downloads) List() []Download {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]Download, 0, len(d.order))
	for _, guid := range d.order {
		out = append(out, *d.byGUID[guid])
	}
	return out
}
