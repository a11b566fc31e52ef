package media

import (
	"sync"
	"time"

	"github.com/rotoshake/imagecanvas-sub005/logger"
)

// Uploader sends image bytes to the server and returns the assigned
// server-relative URL and filename. The production implementation posts
// multipart form data over HTTP; tests substitute a stub.
type Uploader interface {
	Upload(hash, filename string, data []byte) (url, serverFilename string, err error)
}

// pendingUpload tracks one hash's in-flight upload attempt bookkeeping.
type pendingUpload struct {
	hash        string
	attempts    int
	lastAttempt time.Time
	failed      bool
}

// Dispatcher is the subset of pipeline.Pipeline the coordinator needs to
// broadcast image_upload_complete and request a full sync.
type Dispatcher interface {
	Dispatch(typeName string, params map[string]interface{}) (interface{}, error)
}

// Coordinator drives the upload lifecycle for image nodes: at most one
// in-flight upload per content hash, retry with exponential backoff, stale
// pending eviction, and a delayed post-upload verification sync.
type Coordinator struct {
	mu sync.Mutex

	cache    *Cache
	uploader Uploader
	dispatch Dispatcher

	backoff         []time.Duration
	maxRetries      int
	staleThreshold  time.Duration
	postUploadDelay time.Duration

	pending map[string]*pendingUpload

	// RequestFullSync is invoked when a post-upload verification still finds
	// broken images; callers wire this to statesync.Manager.RequestFullSync.
	RequestFullSync func(reason string)

	// VerifyLoaded, when set, reports whether every node referencing hash
	// has successfully loaded its image after upload. Nil skips the
	// post-upload verification step entirely (no rendering feedback wired).
	VerifyLoaded func(hash string) bool
}

// New creates a Coordinator. backoff, maxRetries, staleThreshold, and
// postUploadDelay are normally sourced from config.UploadConfig.
func New(cache *Cache, uploader Uploader, dispatch Dispatcher, backoff []time.Duration, maxRetries int, staleThreshold, postUploadDelay time.Duration) *Coordinator {
	return &Coordinator{
		cache:           cache,
		uploader:        uploader,
		dispatch:        dispatch,
		backoff:         backoff,
		maxRetries:      maxRetries,
		staleThreshold:  staleThreshold,
		postUploadDelay: postUploadDelay,
		pending:         make(map[string]*pendingUpload),
	}
}

// IsInFlight reports whether an upload for hash is currently pending.
func (co *Coordinator) IsInFlight(hash string) bool {
	co.mu.Lock()
	defer co.mu.Unlock()
	p, ok := co.pending[hash]
	return ok && !p.failed
}

// StartUpload begins (or attaches an observer to) the upload of data for
// hash/filename. Only one upload per hash runs at a time; a second call for
// a hash already in flight is a no-op, matching "observers attach on
// collision" — callers that need completion notification should watch the
// cache entry's IsLocal flag flip instead of blocking on this call.
func (co *Coordinator) StartUpload(hash, filename string, data []byte) {
	co.mu.Lock()
	if p, ok := co.pending[hash]; ok && !p.failed {
		co.mu.Unlock()
		return
	}
	co.pending[hash] = &pendingUpload{hash: hash}
	co.mu.Unlock()

	go co.attempt(hash, filename, data, 0)
}

func (co *Coordinator) attempt(hash, filename string, data []byte, attemptIndex int) {
	co.mu.Lock()
	p, ok := co.pending[hash]
	if !ok {
		co.mu.Unlock()
		return
	}
	p.attempts++
	p.lastAttempt = time.Now()
	co.mu.Unlock()

	url, serverFilename, err := co.uploader.Upload(hash, filename, data)
	if err != nil {
		co.handleFailure(hash, filename, data, attemptIndex, err)
		return
	}
	co.handleSuccess(hash, url, serverFilename)
}

func (co *Coordinator) handleFailure(hash, filename string, data []byte, attemptIndex int, uploadErr error) {
	logger.UploadWarnw("image upload attempt failed", logger.FieldHash, hash, logger.FieldRetry, attemptIndex, logger.FieldError, uploadErr)

	if attemptIndex >= co.maxRetries-1 {
		co.mu.Lock()
		if p, ok := co.pending[hash]; ok {
			p.failed = true
		}
		co.mu.Unlock()
		logger.UploadWarnw("image upload exhausted retries, marked failed", logger.FieldHash, hash, logger.FieldCount, co.maxRetries)
		return
	}

	delay := co.backoffFor(attemptIndex)
	time.AfterFunc(delay, func() {
		co.attempt(hash, filename, data, attemptIndex+1)
	})
}

func (co *Coordinator) backoffFor(attemptIndex int) time.Duration {
	if attemptIndex < 0 || attemptIndex >= len(co.backoff) {
		if len(co.backoff) == 0 {
			return 2 * time.Second
		}
		return co.backoff[len(co.backoff)-1]
	}
	return co.backoff[attemptIndex]
}

// handleSuccess upgrades the cache entry, broadcasts image_upload_complete
// through the pipeline so every peer converges, removes the pending entry,
// and schedules a delayed verification sync.
func (co *Coordinator) handleSuccess(hash, url, serverFilename string) {
	co.cache.UpgradeToServer(hash, url, serverFilename)

	co.mu.Lock()
	delete(co.pending, hash)
	co.mu.Unlock()

	logger.UploadInfow("image upload succeeded", logger.FieldHash, hash)

	if co.dispatch != nil {
		if _, err := co.dispatch.Dispatch("image_upload_complete", map[string]interface{}{
			"hash": hash, "serverUrl": url, "serverFilename": serverFilename,
		}); err != nil {
			logger.UploadWarnw("failed to broadcast image_upload_complete", logger.FieldHash, hash, logger.FieldError, err)
		}
	}

	time.AfterFunc(co.postUploadDelay, func() {
		co.verifyAfterUpload(hash)
	})
}

// EvictStale marks as failed any pending upload whose last attempt is older
// than the configured stale threshold (no retry scheduled within 5 minutes,
// e.g. because the process was asleep or a timer was lost). Callers run
// this periodically; it is not self-scheduling.
func (co *Coordinator) EvictStale() []string {
	co.mu.Lock()
	defer co.mu.Unlock()
	var evicted []string
	now := time.Now()
	for hash, p := range co.pending {
		if p.failed {
			continue
		}
		if now.Sub(p.lastAttempt) > co.staleThreshold {
			p.failed = true
			evicted = append(evicted, hash)
		}
	}
	if len(evicted) > 0 {
		logger.UploadWarnw("evicted stale pending uploads", logger.FieldCount, len(evicted))
	}
	return evicted
}

// verifyAfterUpload is the ≈1s post-upload check: if the renderer reports
// the hash's nodes are still not visibly loaded, a full sync is requested
// (itself bounded by the state-sync cooldown).
func (co *Coordinator) verifyAfterUpload(hash string) {
	if co.VerifyLoaded == nil {
		return
	}
	if !co.VerifyLoaded(hash) && co.RequestFullSync != nil {
		co.RequestFullSync("post-upload verification found unloaded image for hash " + hash)
	}
}
