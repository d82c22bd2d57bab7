package session

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/cperrin88/kman/internal/logger"
	"github.com/cperrin88/kman/pkg/alpm"
	"github.com/cperrin88/kman/pkg/config"
	"github.com/cperrin88/kman/pkg/coordinator"
	pkgerrors "github.com/cperrin88/kman/pkg/errors"
	"github.com/cperrin88/kman/pkg/hook"
	"github.com/cperrin88/kman/pkg/kernel"
	"github.com/cperrin88/kman/pkg/platform"
	"github.com/cperrin88/kman/pkg/shell"
)

// Options carries the pieces Open would otherwise build from the configuration.
type Options struct {
	Queue  *kernel.PendingChanges
	Runner shell.Runner
	// HelperRunner runs the AUR helper; it defaults to HelperRunner(cfg.Settings).
	HelperRunner shell.Runner
	External     kernel.ExternalSource
	Installer    coordinator.ExternalInstaller
	Hooks        hook.HookManager
	Committer    alpm.Committer
	// Privileged overrides the euid check.
	Privileged func() bool
}

// Open reads the package database described by cfg, builds the catalog and
// starts a session. An empty catalog is not fatal: the session is returned
// together with ErrEmptyCatalog.
func Open(ctx context.Context, cfg *config.Config, sink Sink, opts Options) (*Session, error) {
	st := cfg.Settings
	cb := Callbacks(sink)

	open := func() (coordinator.Database, error) {
		hopts := []alpm.Option{
			alpm.WithConfigFile(cfg.PacmanConfPath()),
			alpm.WithStagingRepo(st.StagingRepo),
			alpm.WithCallbacks(cb),
		}
		if st.MaxConcurrent > 0 {
			hopts = append(hopts, alpm.WithParallelism(st.MaxConcurrent))
		}
		if opts.Committer != nil {
			hopts = append(hopts, alpm.WithCommitter(opts.Committer))
		}
		h, err := alpm.Open(st.RootDir, st.DBPath, hopts...)
		if err != nil {
			return nil, err
		}
		return h, nil
	}

	db, err := open()
	if err != nil {
		return nil, err
	}

	runner := opts.Runner
	if runner == nil {
		runner = shell.NewElevatedRunner(st.Escalation, st.Terminal)
	}
	external := opts.External
	if external == nil && st.AURHelper != "" {
		external = kernel.NewAURHelper(st.AURHelper)
	}
	installer := opts.Installer
	if installer == nil && st.AURHelper != "" {
		helperRunner := opts.HelperRunner
		if helperRunner == nil {
			helperRunner = HelperRunner(st)
		}
		installer = &coordinator.HelperInstaller{Helper: st.AURHelper, Runner: helperRunner}
	}
	hooks := opts.Hooks
	if hooks == nil {
		m := hook.NewHookManager()
		if err := hook.LoadHooksFromDir(m, st.HooksDir); err != nil {
			logger.Warn("failed to load hooks", logger.Fields{"dir": st.HooksDir, "error": err})
		}
		hooks = m
	}
	queue := opts.Queue
	if queue == nil {
		queue = kernel.Default()
	}

	root := st.RootDir
	catalogOpts := []kernel.CatalogOption{
		kernel.WithZFSProbe(func() bool { return platform.RootIsZFS(root) }),
	}
	if external != nil {
		catalogOpts = append(catalogOpts, kernel.WithExternal(external))
	}

	catalog, cerr := kernel.BuildCatalog(ctx, db, catalogOpts...)
	if cerr != nil && !errors.Is(cerr, pkgerrors.ErrEmptyCatalog) {
		_ = db.Close()
		return nil, cerr
	}

	copts := []coordinator.Option{
		coordinator.WithQueue(queue),
		coordinator.WithRunner(runner),
		coordinator.WithHooks(hooks),
		coordinator.WithOpener(open),
		coordinator.WithStatus(sink.Status),
		coordinator.WithCallbacks(cb),
		coordinator.WithPacmanCommand(PacmanCommand(cfg)),
		coordinator.WithRoot(st.RootDir),
		coordinator.WithCatalogOptions(catalogOpts...),
	}
	if installer != nil {
		copts = append(copts, coordinator.WithExternalInstaller(installer))
	}
	if opts.Privileged != nil {
		copts = append(copts, coordinator.WithPrivilegeCheck(opts.Privileged))
	}

	logger.Debug("session opened", logger.Fields{"root": st.RootDir, "kernels": catalog.Len()})
	return New(coordinator.New(db, catalog, copts...), sink), cerr
}

// HelperRunner runs AUR helper commands as the invoking user. Helpers such as
// paru and yay refuse to build as root and call sudo themselves.
func HelperRunner(st config.Settings) *shell.ElevatedRunner {
	return shell.NewElevatedRunner("", st.Terminal)
}

// PacmanCommand is the pacman invocation for queued changes, pointed at the
// configured root, database and pacman.conf when they differ from the system ones.
func PacmanCommand(cfg *config.Config) string {
	st := cfg.Settings
	parts := []string{"pacman"}
	if filepath.Clean(st.RootDir) != filepath.Clean(config.DefaultRootDir) {
		parts = append(parts, "--root", shell.Quote(st.RootDir))
	}
	if filepath.Clean(st.DBPath) != filepath.Clean(config.DefaultDBPath) {
		parts = append(parts, "--dbpath", shell.Quote(st.DBPath))
	}
	if conf := cfg.PacmanConfPath(); filepath.Clean(conf) != filepath.Clean(config.DefaultPacmanConf) {
		parts = append(parts, "--config", shell.Quote(conf))
	}
	return strings.Join(parts, " ")
}
