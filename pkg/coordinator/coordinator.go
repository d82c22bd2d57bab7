// Package coordinator turns a kernel selection into package database
// transactions and keeps the catalog in step with what got applied.
package coordinator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/cperrin88/kman/internal/logger"
	"github.com/cperrin88/kman/pkg/alpm"
	pkgerrors "github.com/cperrin88/kman/pkg/errors"
	"github.com/cperrin88/kman/pkg/hook"
	"github.com/cperrin88/kman/pkg/kernel"
	"github.com/cperrin88/kman/pkg/platform"
	"github.com/cperrin88/kman/pkg/shell"
)

const (
	installFlags = alpm.TransFlagAllDeps | alpm.TransFlagAllExplicit
	removeFlags  = alpm.TransFlagAllDeps

	defaultPacman = "pacman"
)

// Result describes one install or remove transaction.
type Result struct {
	// Applied lists the targets committed through the database.
	Applied []string
	// Skipped lists queued targets left for the elevated runner because the
	// process lacks the privileges to commit them itself.
	Skipped []string
	// Missing holds the unsatisfied dependencies of a failed prepare.
	Missing []alpm.DepMissing
	// NothingToDo is set when no target reached the transaction.
	NothingToDo bool
}

// Cycle is what one commit cycle touched. It is handed to Resync.
type Cycle struct {
	// Pending is what CommitTransaction dispatched to the runner and helper.
	Pending kernel.Pending
	// Applied lists names committed through the database earlier in the cycle.
	Applied []string

	baseline map[string]bool
}

// Names lists every package name the cycle may have changed.
func (c Cycle) Names() []string {
	return append(append([]string(nil), c.Applied...), c.Pending.Names()...)
}

// Coordinator drives install, remove and commit cycles against one Database.
// It is not safe for concurrent cycles; the session worker serializes them.
type Coordinator struct {
	mu      sync.Mutex
	db      Database
	catalog *kernel.Catalog

	queue       *kernel.PendingChanges
	runner      shell.Runner
	external    ExternalInstaller
	hooks       hook.HookManager
	open        Opener
	status      func(string)
	callbacks   *alpm.Callbacks
	isRoot      func() bool
	pacman      string
	root        string
	catalogOpts []kernel.CatalogOption

	applied  []string
	baseline map[string]bool
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithQueue sets the pending-change queues. The process-wide queues are used otherwise.
func WithQueue(q *kernel.PendingChanges) Option {
	return func(c *Coordinator) { c.queue = q }
}

// WithRunner sets the runner used for the elevated pacman commands.
func WithRunner(r shell.Runner) Option {
	return func(c *Coordinator) { c.runner = r }
}

// WithExternalInstaller sets how external packages are installed.
func WithExternalInstaller(e ExternalInstaller) Option {
	return func(c *Coordinator) { c.external = e }
}

// WithHooks sets the hook manager run around commit cycles.
func WithHooks(m hook.HookManager) Option {
	return func(c *Coordinator) { c.hooks = m }
}

// WithOpener sets how Resync opens a fresh Database.
func WithOpener(o Opener) Option {
	return func(c *Coordinator) { c.open = o }
}

// WithStatus sets the sink for user-facing status lines.
func WithStatus(fn func(string)) Option {
	return func(c *Coordinator) { c.status = fn }
}

// WithCallbacks sets callbacks installed on every Database opened by Resync.
func WithCallbacks(cb alpm.Callbacks) Option {
	return func(c *Coordinator) { c.callbacks = &cb }
}

// WithPrivilegeCheck overrides how the coordinator decides whether it may
// commit transactions itself.
func WithPrivilegeCheck(fn func() bool) Option {
	return func(c *Coordinator) { c.isRoot = fn }
}

// WithPacmanCommand sets the pacman invocation used for queued changes,
// e.g. "pacman --root /mnt".
func WithPacmanCommand(cmd string) Option {
	return func(c *Coordinator) { c.pacman = cmd }
}

// WithRoot sets the root passed to hooks.
func WithRoot(root string) Option {
	return func(c *Coordinator) { c.root = root }
}

// WithCatalogOptions sets the options used when Resync rebuilds the catalog.
func WithCatalogOptions(opts ...kernel.CatalogOption) Option {
	return func(c *Coordinator) { c.catalogOpts = opts }
}

// New returns a coordinator for db and its catalog.
func New(db Database, catalog *kernel.Catalog, opts ...Option) *Coordinator {
	c := &Coordinator{
		db:       db,
		catalog:  catalog,
		queue:    kernel.Default(),
		isRoot:   platform.IsRoot,
		pacman:   defaultPacman,
		status:   func(string) {},
		baseline: map[string]bool{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Catalog returns the current catalog. It changes after a successful Resync.
func (c *Coordinator) Catalog() *kernel.Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.catalog
}

// Database returns the current database.
func (c *Coordinator) Database() Database {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db
}

// Queue returns the pending-change queues.
func (c *Coordinator) Queue() *kernel.PendingChanges { return c.queue }

func (c *Coordinator) report(msg string) {
	c.status(msg)
}

// remember records the installed state of names the first time they enter
// the cycle, so Resync can tell whether anything changed.
func (c *Coordinator) remember(names []string) {
	local := c.db.LocalDB()
	for _, n := range names {
		if _, ok := c.baseline[n]; ok {
			continue
		}
		c.baseline[n] = local != nil && local.Pkg(n) != nil
	}
}

// InstallSelected queues every selected kernel that is missing or has an
// update and commits the repository targets in one transaction.
func (c *Coordinator) InstallSelected(ctx context.Context, selected []string) (Result, error) {
	found, unknown := c.Catalog().Resolve(selected)
	for _, raw := range unknown {
		logger.Warn("ignoring unknown kernel", logger.Fields{"kernel": raw})
	}
	repoOf := map[string]string{}
	for _, k := range found {
		if k.IsInstalled() && !k.RefreshUpdateFlag() {
			continue
		}
		ch := k.InstallChange()
		c.queue.Apply(ch)
		c.remember(ch.Names)
		for _, n := range ch.Names {
			repoOf[n] = k.Repo()
		}
	}

	targets := c.queue.InstallList()
	if len(targets) == 0 {
		return Result{NothingToDo: true}, nil
	}
	if !c.isRoot() {
		logger.Debug("not privileged, leaving install targets queued", logger.Fields{"targets": targets})
		return Result{Skipped: targets, NothingToDo: true}, nil
	}

	return c.run(ctx, installFlags, "install", targets, func(name string) error {
		pkg := c.findSync(name, repoOf[name])
		if pkg == nil {
			return fmt.Errorf("target not found: %s", name)
		}
		return c.db.AddPkg(pkg)
	}, c.queue.DropInstall)
}

// RemoveSelected queues every selected kernel that is installed and commits
// the removals in one transaction.
func (c *Coordinator) RemoveSelected(ctx context.Context, selected []string) (Result, error) {
	found, unknown := c.Catalog().Resolve(selected)
	for _, raw := range unknown {
		logger.Warn("ignoring unknown kernel", logger.Fields{"kernel": raw})
	}
	for _, k := range found {
		ch, ok := k.RemoveChange()
		if !ok {
			continue
		}
		c.queue.Apply(ch)
		c.remember(ch.Names)
	}

	targets := c.queue.RemovalList()
	if len(targets) == 0 {
		return Result{NothingToDo: true}, nil
	}
	if !c.isRoot() {
		logger.Debug("not privileged, leaving removal targets queued", logger.Fields{"targets": targets})
		return Result{Skipped: targets, NothingToDo: true}, nil
	}

	local := c.db.LocalDB()
	return c.run(ctx, removeFlags, "remove", targets, func(name string) error {
		pkg := local.Pkg(name)
		if pkg == nil {
			return fmt.Errorf("target not found: %s", name)
		}
		return c.db.RemovePkg(pkg)
	}, c.queue.DropRemoval)
}

// run performs init, add, prepare, commit and release. The transaction is
// released exactly once on every path after a successful init. Targets that
// reached the transaction are dropped from their queue whatever the outcome.
func (c *Coordinator) run(ctx context.Context, flags alpm.TransFlag, op string, targets []string,
	add func(name string) error, drop func(...string)) (Result, error) {
	var res Result

	if err := c.db.TransInit(flags); err != nil {
		return res, c.fail("failed to init transaction", err)
	}
	defer func() {
		if err := c.db.TransRelease(); err != nil {
			logger.Warn("failed to release transaction", logger.Fields{"error": c.db.Strerror()})
		}
	}()

	var added []string
	for _, name := range targets {
		if err := add(name); err != nil {
			logger.Warn("skipping target", logger.Fields{"target": name, "error": err})
			continue
		}
		added = append(added, name)
	}
	if len(added) == 0 {
		res.NothingToDo = true
		return res, nil
	}
	defer drop(added...)

	logger.Debug("preparing transaction", logger.Fields{"operation": op, "targets": added})
	missing, err := c.db.TransPrepare()
	if err != nil {
		res.Missing = missing
		ferr := c.fail("failed to prepare transaction", err)
		for _, m := range missing {
			line := ":: " + m.String()
			c.report(line)
			logger.Error(line)
		}
		return res, ferr
	}

	if err := c.db.TransCommit(ctx); err != nil {
		return res, c.fail("failed to commit transaction", err)
	}

	res.Applied = added
	c.applied = append(c.applied, added...)
	logger.Success(op+" transaction committed", logger.Fields{"targets": added})
	return res, nil
}

func (c *Coordinator) fail(what string, err error) error {
	msg := fmt.Sprintf("%s (%s)", what, c.db.Strerror())
	c.report(msg)
	logger.Error(msg)
	return pkgerrors.Wrap(pkgerrors.ErrTransaction, fmt.Sprintf("%s: %v", what, err))
}

// findSync looks name up in the sync databases, preferring repo.
func (c *Coordinator) findSync(name, repo string) *alpm.Package {
	var first *alpm.Package
	for _, db := range c.db.SyncDBs() {
		pkg := db.Pkg(name)
		if pkg == nil {
			continue
		}
		if db.Name() == repo {
			return pkg
		}
		if first == nil {
			first = pkg
		}
	}
	return first
}

// UnselectedInstalled lists installed kernels that are not in selection and
// whose installed copy came from the repository the entry is offered by.
// Apply removes these.
func (c *Coordinator) UnselectedInstalled(selection []string) []string {
	keep := map[string]bool{}
	for _, raw := range selection {
		keep[raw] = true
	}
	var out []string
	for _, k := range c.Catalog().Installed() {
		if keep[k.Raw()] || k.IsExternal() || k.RepoMismatch() {
			continue
		}
		out = append(out, k.Raw())
	}
	return out
}

// CommitTransaction hands whatever is still queued to the external helper
// and the elevated runner, then clears the queues whatever happened. There
// is no retry and no rollback.
func (c *Coordinator) CommitTransaction(ctx context.Context) (Cycle, error) {
	p := c.queue.Drain()
	cycle := Cycle{Pending: p, Applied: c.applied, baseline: c.baseline}
	c.applied = nil
	c.baseline = map[string]bool{}

	var merr *multierror.Error
	if len(p.External) > 0 {
		if c.external == nil {
			merr = multierror.Append(merr, pkgerrors.ErrExternalHelper)
		} else if err := c.external.Install(ctx, p.External); err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	if len(p.Install) > 0 {
		merr = multierror.Append(merr, c.elevated(ctx, c.pacman+" -S --needed "+strings.Join(p.Install, " ")))
	}
	if len(p.Removal) > 0 {
		merr = multierror.Append(merr, c.elevated(ctx, c.pacman+" -R "+strings.Join(p.Removal, " ")))
	}

	err := merr.ErrorOrNil()
	if err != nil {
		c.report(err.Error())
		logger.Error("commit failed", logger.Fields{"error": err})
	}
	return cycle, err
}

func (c *Coordinator) elevated(ctx context.Context, cmd string) error {
	if c.runner == nil {
		return pkgerrors.Wrapf(pkgerrors.ErrInsufficientPrivs, "%s", cmd)
	}
	logger.Debug("running elevated command", logger.Fields{"command": cmd})
	code, err := c.runner.Run(ctx, cmd)
	if err != nil {
		return pkgerrors.Wrapf(err, "%s", cmd)
	}
	if code != 0 {
		return pkgerrors.Wrapf(pkgerrors.ErrCommandFailed, "%s (exit %d)", cmd, code)
	}
	return nil
}

// NeedsResync reports whether any package the cycle touched changed its
// installed state in fresh. Names with no recorded state count as changed.
func NeedsResync(cycle Cycle, fresh *alpm.DB) bool {
	for _, n := range cycle.Names() {
		now := fresh != nil && fresh.Pkg(n) != nil
		before, ok := cycle.baseline[n]
		if !ok || before != now {
			return true
		}
	}
	return false
}

// Resync opens a fresh database and, when the cycle changed the system,
// rebuilds the catalog from it and replaces the old database. When the open
// fails the stale database stays in use.
func (c *Coordinator) Resync(ctx context.Context, cycle Cycle) (bool, error) {
	if c.open == nil {
		return false, nil
	}
	fresh, err := c.open()
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.ErrResync, err.Error())
	}
	if c.callbacks != nil {
		fresh.SetCallbacks(*c.callbacks)
	}

	if !NeedsResync(cycle, fresh.LocalDB()) {
		_ = fresh.Close()
		return false, nil
	}

	catalog, err := kernel.BuildCatalog(ctx, fresh, c.catalogOpts...)
	if err != nil && catalog == nil {
		_ = fresh.Close()
		return false, pkgerrors.Wrap(pkgerrors.ErrResync, err.Error())
	}
	if err != nil {
		logger.Warn("rebuilt catalog is empty", logger.Fields{"error": err})
	}

	c.mu.Lock()
	old := c.db
	c.db, c.catalog = fresh, catalog
	c.mu.Unlock()

	if old != nil {
		if err := old.Close(); err != nil {
			logger.Debug("closing previous database", logger.Fields{"error": err})
		}
	}
	logger.Info("catalog rebuilt", logger.Fields{"kernels": catalog.Len()})
	return true, nil
}

// Refresh rebuilds the catalog from the current database, e.g. after the
// sync databases were downloaded again.
func (c *Coordinator) Refresh(ctx context.Context) error {
	catalog, err := kernel.BuildCatalog(ctx, c.Database(), c.catalogOpts...)
	if catalog != nil {
		c.mu.Lock()
		c.catalog = catalog
		c.mu.Unlock()
	}
	return err
}

// Selection is what an apply cycle should do.
type Selection struct {
	Install []string
	Remove  []string
}

// Report is the outcome of one apply cycle.
type Report struct {
	Install  Result
	Remove   Result
	Cycle    Cycle
	Resynced bool
	Aborted  bool
}

// Apply runs one full cycle: pre-transaction hook, install, remove, commit,
// post-transaction hook and resync. Failures of one step are reported and
// the cycle carries on, except a pre-transaction hook asking to abort.
func (c *Coordinator) Apply(ctx context.Context, sel Selection) (Report, error) {
	var rep Report
	var merr *multierror.Error

	targets := append(append([]string(nil), sel.Install...), sel.Remove...)
	if c.hooks != nil {
		res, err := c.hooks.Execute(hook.PreTransaction, hook.HookContext{
			Operation: "commit",
			Targets:   targets,
			Root:      c.root,
		})
		if err != nil {
			logger.Warn("pre-transaction hook failed", logger.Fields{"error": err})
		}
		if res.Abort {
			c.report(pkgerrors.ErrHookAborted.Error())
			rep.Aborted = true
			return rep, pkgerrors.ErrHookAborted
		}
	}

	var err error
	if len(sel.Install) > 0 {
		if rep.Install, err = c.InstallSelected(ctx, sel.Install); err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	if len(sel.Remove) > 0 {
		if rep.Remove, err = c.RemoveSelected(ctx, sel.Remove); err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	if rep.Cycle, err = c.CommitTransaction(ctx); err != nil {
		merr = multierror.Append(merr, err)
	}

	if c.hooks != nil {
		if _, err := c.hooks.Execute(hook.PostTransaction, hook.HookContext{
			Operation: "commit",
			Targets:   rep.Cycle.Names(),
			Root:      c.root,
			Success:   merr.ErrorOrNil() == nil,
		}); err != nil {
			logger.Warn("post-transaction hook failed", logger.Fields{"error": err})
		}
	}

	if rep.Resynced, err = c.Resync(ctx, rep.Cycle); err != nil {
		c.report(err.Error())
		merr = multierror.Append(merr, err)
	}
	return rep, merr.ErrorOrNil()
}
