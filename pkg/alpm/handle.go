// Package alpm is a pure Go package database gateway modelled on libalpm.
//
// A Handle reads pacman.conf, registers the sync repositories it names and
// exposes the local and sync databases together with the transaction
// protocol: TransInit, AddPkg/RemovePkg, TransPrepare, TransCommit and
// TransRelease. Databases are read from the standard pacman layout below
// the configured database path; the actual package changes are applied by
// a Committer, by default the pacman binary.
package alpm

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/cperrin88/kman/pkg/fsutil"
	"github.com/cperrin88/kman/pkg/pacmanconf"
	"github.com/cperrin88/kman/pkg/platform"
	"github.com/cperrin88/kman/pkg/vercmp"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

// DefaultStagingRepo is the repository section skipped unless configured otherwise.
const DefaultStagingRepo = "cachyos-staging"

// Handle owns the databases and at most one open transaction.
type Handle struct {
	root       string
	dbPath     string
	lockFile   string
	configFile string
	cacheDirs  []string
	arch       string

	parallelism int
	committer   Committer

	local *DB

	syncMu sync.RWMutex
	syncs  []*DB

	errMu sync.Mutex
	errno Errno

	cbMu sync.RWMutex
	cb   Callbacks

	mu    sync.Mutex
	trans *Trans
}

type options struct {
	configFile  string
	stagingRepo string
	skipConfig  bool
	parallelism int
	committer   Committer
	callbacks   Callbacks
}

// Option configures Open.
type Option func(*options)

// WithConfigFile reads pacman.conf from path instead of <root>/etc/pacman.conf.
func WithConfigFile(path string) Option {
	return func(o *options) { o.configFile = path }
}

// WithStagingRepo names the repository that is never registered.
func WithStagingRepo(name string) Option {
	return func(o *options) { o.stagingRepo = name }
}

// WithoutConfig skips reading pacman.conf; repositories are registered by hand.
func WithoutConfig() Option {
	return func(o *options) { o.skipConfig = true }
}

// WithParallelism bounds how many databases or entries are parsed at once.
func WithParallelism(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.parallelism = n
		}
	}
}

// WithCommitter replaces the pacman binary used by TransCommit.
func WithCommitter(c Committer) Option {
	return func(o *options) { o.committer = c }
}

// WithCallbacks installs callbacks before the configuration is read, so
// configuration warnings reach the Log callback.
func WithCallbacks(cb Callbacks) Option {
	return func(o *options) { o.callbacks = cb }
}

// Open initializes a handle for root and dbPath and registers every sync
// repository from pacman.conf. Only a missing root directory is fatal:
// configuration problems are logged and the affected repositories skipped.
func Open(root, dbPath string, opts ...Option) (*Handle, error) {
	o := options{
		stagingRepo: DefaultStagingRepo,
		parallelism: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if !fsutil.IsDir(root) {
		return nil, newError(ErrnoNotADir, "initialize", stderrors.New(root))
	}
	if dbPath == "" {
		return nil, newError(ErrnoWrongArgs, "initialize", stderrors.New("empty database path"))
	}

	h := &Handle{
		root:        filepath.Clean(root),
		dbPath:      filepath.Clean(dbPath),
		lockFile:    filepath.Join(dbPath, "db.lck"),
		cacheDirs:   []string{filepath.Join(root, "var", "cache", "pacman", "pkg") + "/"},
		parallelism: o.parallelism,
		committer:   o.committer,
		cb:          o.callbacks,
	}
	h.local = newDB(h, LocalDBName, true, SigLevelUseDefault)
	if h.committer == nil {
		h.committer = &PacmanCommitter{}
	}

	if o.skipConfig {
		h.arch = platform.Machine()
		return h, nil
	}

	h.configFile = o.configFile
	if h.configFile == "" {
		h.configFile = filepath.Join(h.root, "etc", "pacman.conf")
	}

	conf, err := pacmanconf.Load(h.configFile,
		pacmanconf.WithStagingRepo(o.stagingRepo),
		pacmanconf.WithRoot(h.root))
	if err != nil {
		var merr *multierror.Error
		if stderrors.As(err, &merr) {
			for _, e := range merr.Errors {
				h.logf(LogWarning, "config: %v", e)
			}
		} else {
			h.logf(LogWarning, "config: %v", err)
		}
	}
	h.arch = conf.Arch()

	for _, repo := range conf.Repositories {
		db, err := h.RegisterSyncDB(repo.Name, ParseSigLevel(repo.SigLevel))
		if err != nil {
			h.logf(LogWarning, "could not register '%s' database: %v", repo.Name, err)
			continue
		}
		db.SetServers(repo.Servers)
	}

	return h, nil
}

// Close releases the handle and drops the lock of any open transaction.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.trans == nil {
		return nil
	}
	h.trans = nil
	if err := h.unlock(); err != nil {
		return h.fail(newError(ErrnoSystem, "release", err))
	}
	return nil
}

// Errno returns the code of the last failure.
func (h *Handle) Errno() Errno {
	h.errMu.Lock()
	defer h.errMu.Unlock()
	return h.errno
}

// Strerror renders the last failure as text.
func (h *Handle) Strerror() string {
	return Strerror(h.Errno())
}

// fail records err's code as the last error and returns err unchanged.
func (h *Handle) fail(err error) error {
	if err == nil {
		return nil
	}
	h.errMu.Lock()
	h.errno = ErrnoOf(err)
	h.errMu.Unlock()
	return err
}

// Root returns the installation root.
func (h *Handle) Root() string { return h.root }

// DBPath returns the database directory.
func (h *Handle) DBPath() string { return h.dbPath }

// ConfigFile returns the pacman.conf that was read, if any.
func (h *Handle) ConfigFile() string { return h.configFile }

// CacheDirs returns the package cache directories.
func (h *Handle) CacheDirs() []string { return append([]string(nil), h.cacheDirs...) }

// Arch returns the architecture used for $arch expansion.
func (h *Handle) Arch() string { return h.arch }

// LocalDB returns the installed-package database.
func (h *Handle) LocalDB() *DB { return h.local }

// SyncDBs returns the registered sync databases in registration order.
func (h *Handle) SyncDBs() []*DB {
	h.syncMu.RLock()
	defer h.syncMu.RUnlock()
	return append([]*DB(nil), h.syncs...)
}

// SyncDB returns the named sync database, or nil.
func (h *Handle) SyncDB(name string) *DB {
	h.syncMu.RLock()
	defer h.syncMu.RUnlock()
	for _, db := range h.syncs {
		if db.name == name {
			return db
		}
	}
	return nil
}

// RegisterSyncDB adds a sync repository.
func (h *Handle) RegisterSyncDB(name string, level SigLevel) (*DB, error) {
	if name == "" || name == LocalDBName {
		return nil, h.fail(newError(ErrnoWrongArgs, "register_syncdb", stderrors.New(name)))
	}
	h.syncMu.Lock()
	defer h.syncMu.Unlock()
	for _, db := range h.syncs {
		if db.name == name {
			return nil, h.fail(newError(ErrnoDBNotNull, "register_syncdb", stderrors.New(name)))
		}
	}
	db := newDB(h, name, false, level)
	h.syncs = append(h.syncs, db)
	return db, nil
}

// LoadSyncDBs reads every sync database concurrently. Databases that fail to
// load stay empty; their errors are logged and the first one is returned.
func (h *Handle) LoadSyncDBs(ctx context.Context) error {
	dbs := h.SyncDBs()
	errs := make([]error, len(dbs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.parallelism)
	for i, db := range dbs {
		g.Go(func() error {
			h.progress(Progress{Type: ProgressLoadStart, Package: db.name, HowMany: len(dbs), Current: i + 1})
			if err := db.Load(gctx); err != nil {
				if ErrnoOf(err) == ErrnoDBNotFound {
					h.emit(Event{Type: EventDatabaseMissing, Message: db.name})
				}
				h.logf(LogWarning, "could not load database '%s': %v", db.name, err)
				errs[i] = err
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// Vercmp compares two pacman version strings.
func (h *Handle) Vercmp(a, b string) int {
	return vercmp.Compare(a, b)
}

// Origin names the sync repository an installed package most likely came
// from: the first repository carrying the same version, else the first
// carrying the name, else "local".
func (h *Handle) Origin(installed *Package) string {
	if installed == nil {
		return ""
	}
	fallback := ""
	for _, db := range h.SyncDBs() {
		p := db.Pkg(installed.name)
		if p == nil {
			continue
		}
		if p.version == installed.version {
			return db.name
		}
		if fallback == "" {
			fallback = db.name
		}
	}
	if fallback != "" {
		return fallback
	}
	return LocalDBName
}
