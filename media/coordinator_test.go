package media

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotoshake/imagecanvas-sub005/errors"
)

type stubUploader struct {
	mu        sync.Mutex
	failUntil int
	calls     int32
}

func (s *stubUploader) Upload(hash, filename string, data []byte) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if int(s.calls) <= s.failUntil {
		return "", "", errors.Mark(errors.New("stub upload failure"), errors.ErrUpload)
	}
	return "/m/" + hash + ".png", hash + ".png", nil
}

type recordingDispatcher struct {
	mu   sync.Mutex
	seen []map[string]interface{}
}

func (d *recordingDispatcher) Dispatch(typeName string, params map[string]interface{}) (interface{}, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen = append(d.seen, params)
	return nil, nil
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

// TestUploadCompleteFanout_Scenario3 reproduces the literal upload-complete
// fanout scenario at the coordinator level: success upgrades the cache and
// broadcasts image_upload_complete exactly once.
func TestUploadCompleteFanout_Scenario3(t *testing.T) {
	cache := NewCache()
	cache.Retain("abc", "data:image/png;base64,xxx")

	uploader := &stubUploader{}
	dispatcher := &recordingDispatcher{}
	co := New(cache, uploader, dispatcher, []time.Duration{time.Millisecond}, 3, time.Minute, time.Millisecond)

	co.StartUpload("abc", "img.png", []byte("bytes"))

	// Poll briefly for the async upload to complete rather than sleeping a
	// fixed duration, since the stub resolves near-instantly.
	var ranDispatch int32
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if dispatcher.count() > 0 {
			atomic.StoreInt32(&ranDispatch, 1)
			break
		}
		time.Sleep(time.Millisecond)
	}
	if atomic.LoadInt32(&ranDispatch) == 0 {
		t.Fatal("expected image_upload_complete to be dispatched")
	}

	entry := cache.Get("abc")
	if entry == nil || entry.IsLocal {
		t.Fatalf("expected cache entry upgraded to server, got %+v", entry)
	}
	if dispatcher.count() != 1 {
		t.Fatalf("expected exactly one broadcast, got %d", dispatcher.count())
	}
}

func TestStartUpload_RetriesThenSucceeds(t *testing.T) {
	cache := NewCache()
	uploader := &stubUploader{failUntil: 2}
	dispatcher := &recordingDispatcher{}
	co := New(cache, uploader, dispatcher, []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond}, 3, time.Minute, time.Millisecond)

	co.StartUpload("hash1", "a.png", []byte("x"))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if e := cache.Get("hash1"); e != nil && !e.IsLocal {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("expected upload to eventually succeed after retries")
}

func TestStartUpload_MarksFailedAfterMaxRetries(t *testing.T) {
	cache := NewCache()
	uploader := &stubUploader{failUntil: 1000}
	dispatcher := &recordingDispatcher{}
	co := New(cache, uploader, dispatcher, []time.Duration{time.Millisecond}, 2, time.Minute, time.Millisecond)

	co.StartUpload("hash2", "a.png", []byte("x"))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if !co.IsInFlight("hash2") {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("expected upload to be marked failed (no longer in flight) after exhausting retries")
}

func TestEvictStale_MarksOldPendingAsFailed(t *testing.T) {
	cache := NewCache()
	uploader := &stubUploader{failUntil: 1000000}
	co := New(cache, uploader, nil, []time.Duration{time.Hour}, 10, time.Millisecond, time.Millisecond)

	co.StartUpload("stalehash", "a.png", []byte("x"))
	time.Sleep(5 * time.Millisecond)

	evicted := co.EvictStale()
	if len(evicted) != 1 || evicted[0] != "stalehash" {
		t.Fatalf("expected stalehash evicted, got %+v", evicted)
	}
	if co.IsInFlight("stalehash") {
		t.Fatal("expected evicted upload to no longer be in flight")
	}
}
