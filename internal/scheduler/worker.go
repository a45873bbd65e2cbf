package scheduler

import (
	"context"
	"sync"

	"cjls/internal/ast"
)

// runTask is a posted RunWithAST/RunWithASTCache/RunWithASTCancellable
// task. version is the file version known to the worker at the moment
// the task was enqueued, used to detect a newer Update racing ahead of
// it (spec §4.C(i)).
type runTask struct {
	name     string
	useCache bool
	reqID    string
	version  int64
	ctx      context.Context
	cancel   context.CancelFunc
	action   ResultFunc
}

// queuedItem is one entry in a fileWorker's FIFO queue: either a pending
// rebuild request or a task to run against the resulting AST.
type queuedItem struct {
	generation int64
	update     *ast.ParseInputs
	task       *runTask
}

// fileWorker is the single goroutine handling every Update/RunWithAST
// posted for one file, processing its queue strictly in order (spec
// §4.C: "within a worker the queue is FIFO; across workers execution is
// parallel").
type fileWorker struct {
	file string
	s    *Scheduler

	mu         sync.Mutex
	cond       *sync.Cond
	queue      []queuedItem
	generation int64
	version    int64 // latest document version observed via Update
	current    *runTask
	closed     bool
	stopped    chan struct{}
}

func newFileWorker(file string, s *Scheduler) *fileWorker {
	w := &fileWorker{file: file, s: s, stopped: make(chan struct{})}
	w.cond = sync.NewCond(&w.mu)
	return w
}

// postUpdate enqueues a rebuild, dropping any update already waiting in
// the queue (only the most recent version survives coalescing). A
// strictly newer version also cancels every run task already queued or
// currently executing against an older version: spec §4.C(i) requires
// that "a newer version cancels all in-queue tasks against the older
// version and marks the currently-running task's reply discarded,"
// since a task's result would otherwise race an edit it never saw.
func (w *fileWorker) postUpdate(inputs ast.ParseInputs) {
	w.mu.Lock()
	w.generation++
	gen := w.generation

	if inputs.Version > w.version {
		w.version = inputs.Version
		for _, it := range w.queue {
			if it.task != nil && it.task.version < w.version {
				it.task.cancel()
			}
		}
		if w.current != nil && w.current.version < w.version {
			w.current.cancel()
		}
	}

	filtered := w.queue[:0:0]
	for _, it := range w.queue {
		if it.update != nil {
			continue
		}
		filtered = append(filtered, it)
	}
	inputsCopy := inputs
	w.queue = append(filtered, queuedItem{generation: gen, update: &inputsCopy})
	w.mu.Unlock()
	w.cond.Signal()
}

func (w *fileWorker) postTask(t *runTask) {
	w.mu.Lock()
	gen := w.generation
	t.version = w.version
	w.queue = append(w.queue, queuedItem{generation: gen, task: t})
	w.mu.Unlock()
	w.cond.Signal()
}

// close lets the worker drain any tasks already queued, then blocks
// until its goroutine has actually exited, so Scheduler.Shutdown never
// returns while a worker goroutine is still live.
func (w *fileWorker) close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	w.cond.Signal()
	<-w.stopped
}

func (w *fileWorker) run() {
	defer close(w.stopped)
	for {
		w.mu.Lock()
		for len(w.queue) == 0 && !w.closed {
			w.cond.Wait()
		}
		if len(w.queue) == 0 && w.closed {
			w.mu.Unlock()
			return
		}
		item := w.queue[0]
		w.queue = w.queue[1:]
		w.mu.Unlock()

		if item.update != nil {
			w.handleUpdate(*item.update)
			continue
		}

		w.mu.Lock()
		w.current = item.task
		w.mu.Unlock()

		w.handleTask(item.task)

		w.mu.Lock()
		w.current = nil
		w.mu.Unlock()
	}
}

// handleUpdate performs the actual rebuild trigger for a coalesced
// Update. The compile itself happens lazily, the next time a task calls
// Builder.BuildFile — except when the scheduler has a diagnostics
// publisher registered, in which case handleUpdate forces the rebuild
// immediately so the fresh ArkAST's diagnostics can be published after
// every successfully completed Update task (SPEC_FULL §6).
func (w *fileWorker) handleUpdate(inputs ast.ParseInputs) {
	if err := w.s.builder.Update(context.Background(), inputs); err != nil {
		// A failed update still leaves a schedulable file: the next
		// RunWithAST call will simply see whatever AST the last
		// successful build produced (spec §4.B partial-failure policy).
		return
	}
	if w.s.diag == nil {
		return
	}
	a, err := w.s.builder.BuildFile(context.Background(), inputs.Path)
	w.s.diag(inputs.Path, a, err)
}

func (w *fileWorker) handleTask(t *runTask) {
	defer func() {
		if t.reqID != "" {
			w.s.cancelMu.Lock()
			delete(w.s.cancels, t.reqID)
			w.s.cancelMu.Unlock()
		}
	}()

	if t.ctx.Err() != nil {
		t.action(t.ctx, nil, t.ctx.Err())
		return
	}

	var a *ast.ArkAST
	var err error
	if t.useCache {
		a, err = w.s.builder.ParseOnlyAST(w.file)
	} else {
		a, err = w.s.builder.BuildFile(t.ctx, w.file)
	}
	if t.ctx.Err() != nil {
		// A newer Update raced ahead of this task while it ran: discard
		// the reply rather than act on a result against a stale version.
		t.action(t.ctx, nil, t.ctx.Err())
		return
	}
	t.action(t.ctx, a, err)
}
