// Package session runs transaction cycles on a dedicated worker goroutine so
// that callers never block on the package database.
package session

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/cperrin88/kman/internal/logger"
	"github.com/cperrin88/kman/pkg/alpm"
	"github.com/cperrin88/kman/pkg/coordinator"
	pkgerrors "github.com/cperrin88/kman/pkg/errors"
	"github.com/cperrin88/kman/pkg/kernel"
)

// Sink receives what a session has to say while it works.
type Sink interface {
	// Status is a line of user-facing text.
	Status(msg string)
	// Progress reports per-package progress of a commit.
	Progress(p alpm.Progress)
	// Download reports sync database downloads.
	Download(filename string, ev alpm.DownloadEvent)
	// Done is called once per cycle after it finished.
	Done(rep coordinator.Report, err error)
}

// Callbacks routes database callbacks to sink.
func Callbacks(sink Sink) alpm.Callbacks {
	return alpm.Callbacks{
		Event: func(ev alpm.Event) {
			if s := ev.String(); s != "" {
				sink.Status(s)
			}
		},
		Progress: sink.Progress,
		Download: sink.Download,
		Log: func(level alpm.LogLevel, msg string) {
			switch level {
			case alpm.LogError:
				logger.Error(msg)
				sink.Status("error: " + msg)
			case alpm.LogWarning:
				logger.Warn(msg)
				sink.Status("warning: " + msg)
			default:
				logger.Debug(msg)
			}
		},
	}
}

type updater interface {
	UpdateDBs(ctx context.Context, dl alpm.Downloader, force bool) error
}

// Session owns a coordinator and the worker goroutine that drives it.
type Session struct {
	coord *coordinator.Coordinator
	sink  Sink

	mu        sync.Mutex
	cond      *sync.Cond
	selection coordinator.Selection
	queued    bool
	idle      chan struct{}
	last      coordinator.Report
	lastErr   error

	running       atomic.Bool
	threadRunning atomic.Bool
	exited        chan struct{}
}

// New starts the worker for coord. Close must be called to stop it.
func New(coord *coordinator.Coordinator, sink Sink) *Session {
	s := &Session{
		coord:  coord,
		sink:   sink,
		idle:   closedChan(),
		exited: make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	s.threadRunning.Store(true)
	go s.loop()
	return s
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

func (s *Session) loop() {
	defer close(s.exited)
	for {
		s.mu.Lock()
		for !s.queued && s.threadRunning.Load() {
			s.cond.Wait()
		}
		if !s.queued {
			s.mu.Unlock()
			return
		}
		s.queued = false
		sel, idle := s.selection, s.idle
		s.mu.Unlock()

		logger.Debug("starting cycle", logger.Fields{"install": sel.Install, "remove": sel.Remove})
		rep, err := s.coord.Apply(context.Background(), sel)

		s.mu.Lock()
		s.last, s.lastErr = rep, err
		s.running.Store(false)
		close(idle)
		s.mu.Unlock()

		s.sink.Done(rep, err)
	}
}

// Execute starts a cycle for sel and returns immediately. While a cycle is
// in flight it does nothing and returns ErrCycleInProgress.
func (s *Session) Execute(sel coordinator.Selection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// threadRunning only changes under mu.
	if !s.threadRunning.Load() {
		return pkgerrors.ErrSessionClosed
	}
	if !s.running.CompareAndSwap(false, true) {
		return pkgerrors.ErrCycleInProgress
	}
	s.selection = sel
	s.queued = true
	s.idle = make(chan struct{})
	s.cond.Signal()
	return nil
}

// Running reports whether a cycle is in flight.
func (s *Session) Running() bool {
	return s.running.Load()
}

// Wait blocks until no cycle is in flight and returns the outcome of the
// last one.
func (s *Session) Wait(ctx context.Context) (coordinator.Report, error) {
	s.mu.Lock()
	idle := s.idle
	s.mu.Unlock()

	select {
	case <-idle:
	case <-ctx.Done():
		return coordinator.Report{}, ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.lastErr
}

// Run executes sel and waits for it.
func (s *Session) Run(ctx context.Context, sel coordinator.Selection) (coordinator.Report, error) {
	if err := s.Execute(sel); err != nil {
		return coordinator.Report{}, err
	}
	return s.Wait(ctx)
}

// Sync downloads the sync databases and rebuilds the catalog. It is refused
// while a cycle is in flight.
func (s *Session) Sync(ctx context.Context, dl alpm.Downloader, force bool) error {
	if !s.threadRunning.Load() {
		return pkgerrors.ErrSessionClosed
	}
	if !s.running.CompareAndSwap(false, true) {
		return pkgerrors.ErrCycleInProgress
	}
	defer s.running.Store(false)

	u, ok := s.coord.Database().(updater)
	if !ok {
		return pkgerrors.Wrap(pkgerrors.ErrDownloadFailed, "database cannot be refreshed")
	}
	if err := u.UpdateDBs(ctx, dl, force); err != nil {
		return err
	}
	return s.coord.Refresh(ctx)
}

// Catalog returns the current catalog.
func (s *Session) Catalog() *kernel.Catalog {
	return s.coord.Catalog()
}

// Kernels returns the kernels of the current catalog.
func (s *Session) Kernels() []*kernel.Kernel {
	if c := s.coord.Catalog(); c != nil {
		return c.Kernels()
	}
	return nil
}

// Coordinator returns the coordinator driven by the session.
func (s *Session) Coordinator() *coordinator.Coordinator { return s.coord }

// Close stops the worker after any in-flight cycle and closes the database.
func (s *Session) Close() error {
	s.mu.Lock()
	if !s.threadRunning.CompareAndSwap(true, false) {
		s.mu.Unlock()
		<-s.exited
		return nil
	}
	s.cond.Signal()
	s.mu.Unlock()
	<-s.exited

	if db := s.coord.Database(); db != nil {
		return db.Close()
	}
	return nil
}
