// Package scheduler implements the per-file worker scheduler (component
// C): one worker goroutine per tracked file, a FIFO queue within a
// worker, and parallel execution across files (spec §4.C).
package scheduler

import (
	"context"
	"sync"

	"github.com/crossplane/crossplane-runtime/pkg/logging"

	"cjls/internal/ast"
)

// Kind labels which of the three independent scheduler instances this
// is, purely for logging — spec §4.C requires three instances
// (`arkScheduler`, `arkSchedulerOfComplete`, `arkSchedulerOfSignature`)
// side by side, not three different implementations.
type Kind int

// Scheduler kinds.
const (
	General Kind = iota
	Completion
	SignatureHelp
)

func (k Kind) String() string {
	switch k {
	case Completion:
		return "completion"
	case SignatureHelp:
		return "signatureHelp"
	default:
		return "general"
	}
}

// Builder is the project-model seam a Scheduler drives: BuildFile
// performs a (possibly cache-hit, possibly blocking) full rebuild of
// file's owning package; ParseOnlyAST returns the cheap parse-only view
// without waiting on any in-progress rebuild.
type Builder interface {
	BuildFile(ctx context.Context, file string) (*ast.ArkAST, error)
	ParseOnlyAST(file string) (*ast.ArkAST, error)
	Update(ctx context.Context, inputs ast.ParseInputs) error
}

// ResultFunc is a task's reply callback, invoked on the file's worker
// goroutine once a, err are available. It must not block: the usual body
// is "format a response and post it to the transport", exactly as the
// teacher's handler goroutines do after a blocking dependency resolve.
type ResultFunc func(ctx context.Context, a *ast.ArkAST, err error)

// DiagFunc is invoked once per successfully completed Update task, with
// the freshly rebuilt ArkAST (whose Diagnostics field carries whatever
// the compile produced) or the build error if the rebuild itself failed.
type DiagFunc func(file string, a *ast.ArkAST, err error)

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger task failures are reported to.
func WithLogger(l logging.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

// WithDiagnostics registers fn to run after every Update task completes
// its forced rebuild, per SPEC_FULL §6's "publish diagnostics after
// every successfully completed Update task" policy. Only the general
// scheduler needs this wired: completion and signature help never
// receive Update calls.
func WithDiagnostics(fn DiagFunc) Option {
	return func(s *Scheduler) { s.diag = fn }
}

// Scheduler is one of the three per-file worker pools spec §4.C
// describes. Task() calls never block the caller; they enqueue work on
// the named file's worker and return.
type Scheduler struct {
	kind    Kind
	builder Builder
	log     logging.Logger
	diag    DiagFunc

	mu      sync.Mutex
	workers map[string]*fileWorker

	cancelMu sync.Mutex
	cancels  map[string]context.CancelFunc // request id -> cancel
}

// New constructs a Scheduler of the given kind backed by builder.
func New(kind Kind, builder Builder, opts ...Option) *Scheduler {
	s := &Scheduler{
		kind:    kind,
		builder: builder,
		log:     logging.NewNopLogger(),
		workers: make(map[string]*fileWorker),
		cancels: make(map[string]context.CancelFunc),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Kind reports which of the three scheduler roles this instance plays.
func (s *Scheduler) Kind() Kind { return s.kind }

func (s *Scheduler) worker(file string) *fileWorker {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.workers[file]
	if !ok {
		w = newFileWorker(file, s)
		s.workers[file] = w
		go w.run()
	}
	return w
}

// Update enqueues a rebuild of file, coalescing with any update still
// waiting in the queue (spec §4.C: "coalesce consecutive updates on the
// same file by dropping older superseded updates and keeping the latest
// version").
func (s *Scheduler) Update(inputs ast.ParseInputs) {
	s.worker(inputs.Path).postUpdate(inputs)
}

// RunWithAST enqueues action on file's worker. When action runs, a is
// the latest fully-built (semantic) AST for file, blocking the worker
// (not the caller) on an in-progress rebuild if necessary.
func (s *Scheduler) RunWithAST(taskName, file string, action ResultFunc) {
	s.runTask(taskName, file, false, action, "")
}

// RunWithASTCache is RunWithAST's parse-only counterpart, for completion
// and signature help, where a stale semantic AST (reachable via the
// parse-only AST's SemaCache) is preferable to blocking on a recompile.
func (s *Scheduler) RunWithASTCache(taskName, file string, action ResultFunc) {
	s.runTask(taskName, file, true, action, "")
}

// RunWithASTCancellable is RunWithAST with an explicit request id a
// client can later cancel via Cancel.
func (s *Scheduler) RunWithASTCancellable(taskName, file, reqID string, action ResultFunc) {
	s.runTask(taskName, file, false, action, reqID)
}

func (s *Scheduler) runTask(taskName, file string, useCache bool, action ResultFunc, reqID string) {
	ctx, cancel := context.WithCancel(context.Background())
	if reqID != "" {
		s.cancelMu.Lock()
		s.cancels[reqID] = cancel
		s.cancelMu.Unlock()
	}
	s.worker(file).postTask(&runTask{
		name:     taskName,
		useCache: useCache,
		reqID:    reqID,
		ctx:      ctx,
		cancel:   cancel,
		action:   action,
	})
}

// Cancel cancels the in-flight or queued task registered under reqID,
// per spec §4.C's "explicit client cancellation message referencing the
// request id". Cancellation is cooperative: a task already past its last
// ctx check completes normally, but its reply is expected to be
// discarded by the caller.
func (s *Scheduler) Cancel(reqID string) {
	s.cancelMu.Lock()
	cancel, ok := s.cancels[reqID]
	delete(s.cancels, reqID)
	s.cancelMu.Unlock()
	if ok {
		cancel()
	}
}

// Shutdown signals every worker to drain its queue and exit, then waits
// for them to stop. Safe to call once; no further Update/RunWithAST
// calls should be made afterward.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	workers := make([]*fileWorker, 0, len(s.workers))
	for _, w := range s.workers {
		workers = append(workers, w)
	}
	s.mu.Unlock()

	var wg sync.WaitGroup
	for _, w := range workers {
		wg.Add(1)
		go func(w *fileWorker) {
			defer wg.Done()
			w.close()
		}(w)
	}
	wg.Wait()
}
