package project

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/crossplane/crossplane-runtime/pkg/errors"
	"github.com/crossplane/crossplane-runtime/pkg/logging"
)

const errCreateWatcher = "failed to create workspace watcher"

// WorkspaceWatcher watches every source root under a Project for changes
// made outside the editor (another tool running `cjpm build`, a VCS
// checkout, a file manager) and feeds them into the same
// OnFileChange/IncrementForFileDelete path a `workspace/didChangeWatchedFiles`
// notification would take (spec §4.B). This is a distinct concern, and a
// distinct library, from the cache-directory poll in internal/cache: a
// source tree is edited by processes that support inotify, so fsnotify's
// event-driven model fits, whereas shard directories come and go with
// short-lived external tools better served by polling.
type WorkspaceWatcher struct {
	project *Project
	watcher *fsnotify.Watcher
	log     logging.Logger
}

// NewWorkspaceWatcher constructs a watcher over project's discovered
// source roots.
func NewWorkspaceWatcher(project *Project, log logging.Logger) (*WorkspaceWatcher, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, errCreateWatcher)
	}

	project.mu.RLock()
	roots := project.manifest.SourceRoots()
	project.mu.RUnlock()

	for _, root := range roots {
		dir := filepath.Join(project.root, root)
		_ = w.Add(dir) // a missing source root is not fatal; it may be created later
	}
	if err := w.Add(project.root); err != nil {
		w.Close()
		return nil, errors.Wrap(err, errCreateWatcher)
	}

	return &WorkspaceWatcher{project: project, watcher: w, log: log}, nil
}

// Run drains events until ctx is cancelled or Stop is called. Intended to
// run in its own goroutine.
func (w *WorkspaceWatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(ctx, event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Debug("workspace watcher error", "error", err)
		}
	}
}

func (w *WorkspaceWatcher) handle(ctx context.Context, event fsnotify.Event) {
	if w.project.IsManifestPath(event.Name) {
		if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
			if err := w.project.ReloadManifest(); err != nil {
				w.log.Info("failed to reload manifest", "error", err)
			}
		}
		return
	}
	if filepath.Ext(event.Name) != ".cj" {
		return
	}

	var kind ChangeKind
	switch {
	case event.Op&fsnotify.Remove != 0, event.Op&fsnotify.Rename != 0:
		kind = ChangeDeleted
	case event.Op&fsnotify.Create != 0:
		kind = ChangeCreated
	case event.Op&fsnotify.Write != 0:
		kind = ChangeModified
	default:
		return
	}

	if err := w.project.OnFileChange(ctx, event.Name, kind); err != nil {
		w.log.Info("failed to apply workspace change", "path", event.Name, "error", err)
	}
}

// Stop releases the underlying fsnotify watcher.
func (w *WorkspaceWatcher) Stop() error {
	return w.watcher.Close()
}
