package cache

import (
	"time"

	"github.com/crossplane/crossplane-runtime/pkg/logging"
	"github.com/radovskyb/watcher"
)

// CacheWatcher polls the AST and index shard directories for files
// written by another process (e.g. a build tool populating the cache
// ahead of the server starting) and reloads Store's in-memory digests
// when it sees a change. Grounded on the teacher's watchCache, which
// polls a local OCI cache directory with radovskyb/watcher rather than
// fsnotify, since shard directories are written to by short-lived
// external processes that may come and go while cjls is running.
type CacheWatcher struct {
	store    *Store
	w        *watcher.Watcher
	interval time.Duration
	log      logging.Logger
}

// NewCacheWatcher constructs a watcher over store's AST and index
// directories. Call Start to begin polling and Stop to release
// resources.
func NewCacheWatcher(store *Store, interval time.Duration, log logging.Logger) *CacheWatcher {
	if log == nil {
		log = logging.NewNopLogger()
	}
	w := watcher.New()
	w.SetMaxEvents(0)
	w.FilterOps(watcher.Create, watcher.Write, watcher.Remove, watcher.Rename)

	return &CacheWatcher{store: store, w: w, interval: interval, log: log}
}

// Start adds the store's shard directories and begins polling in a
// background goroutine. It returns once the watcher has been armed;
// callers should call Stop during shutdown.
func (c *CacheWatcher) Start() error {
	if err := c.w.Add(c.store.astDir); err != nil {
		return err
	}
	if err := c.w.Add(c.store.idxDir); err != nil {
		return err
	}

	go func() {
		for {
			select {
			case event, ok := <-c.w.Event:
				if !ok {
					return
				}
				c.handle(event)
			case err, ok := <-c.w.Error:
				if !ok {
					return
				}
				c.log.Debug("cache watcher error", "error", err)
			case <-c.w.Closed:
				return
			}
		}
	}()

	go func() {
		if err := c.w.Start(c.interval); err != nil {
			c.log.Debug("cache watcher stopped", "error", err)
		}
	}()

	return nil
}

// handle reconciles a single filesystem event against the store's
// digest maps. Rather than parse the event path itself, it re-scans the
// owning directory: shard writes are rare enough (a handful per
// recompile) that a full rescan is cheaper than tracking partial state
// correctly across renames.
func (c *CacheWatcher) handle(event watcher.Event) {
	c.store.mu.Lock()
	c.store.astDigests = scanDir(c.store.fs, c.store.astDir, astExt)
	c.store.indexDigests = scanDir(c.store.fs, c.store.idxDir, indexExt)
	c.store.mu.Unlock()

	c.log.Debug("cache directory changed, digests rescanned", "path", event.Path, "op", event.Op.String())
}

// Stop halts polling and releases the underlying watcher.
func (c *CacheWatcher) Stop() {
	c.w.Close()
}
