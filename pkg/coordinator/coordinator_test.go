package coordinator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/cperrin88/kman/pkg/alpm"
	"github.com/cperrin88/kman/pkg/coordinator/mocks"
	pkgerrors "github.com/cperrin88/kman/pkg/errors"
	"github.com/cperrin88/kman/pkg/hook"
	hookmocks "github.com/cperrin88/kman/pkg/hook/mocks"
	"github.com/cperrin88/kman/pkg/kernel"
	shellmocks "github.com/cperrin88/kman/pkg/shell/mocks"
	"github.com/cperrin88/kman/test/testutil"
)

const (
	bore        = "linux-cachyos-bore"
	boreHeaders = "linux-cachyos-bore-headers"
	boreRaw     = "core/linux-cachyos-bore"
)

type pkgNamed string

func (n pkgNamed) Matches(x any) bool {
	p, ok := x.(*alpm.Package)
	return ok && p.Name() == string(n)
}

func (n pkgNamed) String() string { return "package named " + string(n) }

type statusLog struct {
	mu    sync.Mutex
	lines []string
}

func (s *statusLog) add(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, line)
}

func (s *statusLog) all() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}

func borePkgs() []testutil.Pkg {
	return []testutil.Pkg{
		{Name: bore, Version: "6.6.2-1", Desc: "Linux BORE scheduler kernel"},
		{Name: boreHeaders, Version: "6.6.2-1", Desc: "Headers for " + bore},
	}
}

func openHandle(t *testing.T, r *testutil.Root, opts ...alpm.Option) *alpm.Handle {
	t.Helper()
	r.WriteConf("https://mirror.example.org")
	opts = append([]alpm.Option{
		alpm.WithConfigFile(r.ConfPath()),
		alpm.WithCallbacks(alpm.Callbacks{Log: func(alpm.LogLevel, string) {}}),
	}, opts...)
	h, err := alpm.Open(r.Dir, r.DBPath, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func buildCatalog(t *testing.T, src kernel.Source) *kernel.Catalog {
	t.Helper()
	c, err := kernel.BuildCatalog(context.Background(), src)
	require.NoError(t, err)
	return c
}

func privileged() bool { return true }

// backed wires a mock database onto the real databases of h so that catalog
// lookups work while the transaction protocol stays under test control.
func backed(ctrl *gomock.Controller, h *alpm.Handle) *mocks.MockDatabase {
	db := mocks.NewMockDatabase(ctrl)
	db.EXPECT().LocalDB().Return(h.LocalDB()).AnyTimes()
	db.EXPECT().SyncDBs().Return(h.SyncDBs()).AnyTimes()
	return db
}

func TestInstallSelected_AddsKernelAndHeaders(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := testutil.NewRoot(t)
	r.Repo("core", borePkgs()...)
	r.Install(testutil.Pkg{Name: "coreutils", Version: "9.4-3"})
	h := openHandle(t, r)
	catalog := buildCatalog(t, h)

	db := backed(ctrl, h)
	gomock.InOrder(
		db.EXPECT().TransInit(alpm.TransFlagAllDeps|alpm.TransFlagAllExplicit).Return(nil),
		db.EXPECT().AddPkg(pkgNamed(bore)).Return(nil),
		db.EXPECT().AddPkg(pkgNamed(boreHeaders)).Return(nil),
		db.EXPECT().TransPrepare().Return(nil, nil),
		db.EXPECT().TransCommit(gomock.Any()).Return(nil),
		db.EXPECT().TransRelease().Return(nil).Times(1),
	)

	q := kernel.NewPendingChanges()
	c := New(db, catalog, WithQueue(q), WithPrivilegeCheck(privileged))

	res, err := c.InstallSelected(context.Background(), []string{boreRaw})
	require.NoError(t, err)
	assert.Equal(t, []string{bore, boreHeaders}, res.Applied)
	assert.False(t, res.NothingToDo)
	assert.Empty(t, q.InstallList())
	assert.Empty(t, q.RemovalList())
}

func TestScenario_InstallThenResync(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := testutil.NewRoot(t)
	r.Repo("core", borePkgs()...)
	h := openHandle(t, r)
	catalog := buildCatalog(t, h)
	require.False(t, catalog.Find(boreRaw).IsInstalled())

	db := backed(ctrl, h)
	db.EXPECT().TransInit(gomock.Any()).Return(nil)
	db.EXPECT().AddPkg(gomock.Any()).Return(nil).Times(2)
	db.EXPECT().TransPrepare().Return(nil, nil)
	db.EXPECT().TransCommit(gomock.Any()).DoAndReturn(func(context.Context) error {
		r.Install(borePkgs()...)
		return nil
	})
	db.EXPECT().TransRelease().Return(nil).Times(1)
	db.EXPECT().Close().Return(nil).Times(1)

	runner := shellmocks.NewMockRunner(ctrl)
	q := kernel.NewPendingChanges()
	c := New(db, catalog,
		WithQueue(q),
		WithRunner(runner),
		WithPrivilegeCheck(privileged),
		WithOpener(func() (Database, error) { return openHandle(t, r), nil }),
	)

	rep, err := c.Apply(context.Background(), Selection{Install: []string{boreRaw}})
	require.NoError(t, err)
	assert.Equal(t, []string{bore, boreHeaders}, rep.Install.Applied)
	assert.True(t, rep.Cycle.Pending.Empty())
	assert.True(t, rep.Resynced)
	assert.True(t, q.Snapshot().Empty())

	rebuilt := c.Catalog()
	assert.NotSame(t, catalog, rebuilt)
	k := rebuilt.Find(boreRaw)
	require.NotNil(t, k)
	assert.True(t, k.IsInstalled())
	assert.NotSame(t, db, c.Database())
}

func TestScenario_RemoveBreaksDependency(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := testutil.NewRoot(t)
	r.Repo("core", borePkgs()...)
	r.Install(borePkgs()...)
	h := openHandle(t, r)
	catalog := buildCatalog(t, h)

	missing := []alpm.DepMissing{{
		Target:     "nvidia-cachyos",
		Depend:     alpm.ParseDepend(bore),
		CausingPkg: bore,
		Operation:  alpm.OperationRemove,
	}}
	db := backed(ctrl, h)
	gomock.InOrder(
		db.EXPECT().TransInit(alpm.TransFlagAllDeps).Return(nil),
		db.EXPECT().RemovePkg(pkgNamed(bore)).Return(nil),
		db.EXPECT().RemovePkg(pkgNamed(boreHeaders)).Return(nil),
		db.EXPECT().TransPrepare().Return(missing, &alpm.Error{Code: alpm.ErrnoUnsatisfiedDeps, Op: "trans_prepare"}),
		db.EXPECT().TransRelease().Return(nil).Times(1),
	)
	db.EXPECT().Strerror().Return("could not satisfy dependencies").AnyTimes()

	status := &statusLog{}
	q := kernel.NewPendingChanges()
	c := New(db, catalog, WithQueue(q), WithPrivilegeCheck(privileged), WithStatus(status.add))

	res, err := c.RemoveSelected(context.Background(), []string{boreRaw})
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgerrors.ErrTransaction)
	assert.Equal(t, missing, res.Missing)
	assert.Empty(t, res.Applied)
	assert.Equal(t, []string{
		"failed to prepare transaction (could not satisfy dependencies)",
		":: removing linux-cachyos-bore breaks dependency 'linux-cachyos-bore' required by nvidia-cachyos",
	}, status.all())
	assert.Empty(t, q.RemovalList())
}

func TestScenario_InstallUnsatisfiedDependency(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := testutil.NewRoot(t)
	r.Repo("core", borePkgs()...)
	h := openHandle(t, r)
	catalog := buildCatalog(t, h)

	missing := []alpm.DepMissing{{
		Target: bore,
		Depend: alpm.ParseDepend("bore-firmware>=20240101"),
	}}
	db := backed(ctrl, h)
	gomock.InOrder(
		db.EXPECT().TransInit(alpm.TransFlagAllDeps|alpm.TransFlagAllExplicit).Return(nil),
		db.EXPECT().AddPkg(pkgNamed(bore)).Return(nil),
		db.EXPECT().AddPkg(pkgNamed(boreHeaders)).Return(nil),
		db.EXPECT().TransPrepare().Return(missing, &alpm.Error{Code: alpm.ErrnoUnsatisfiedDeps, Op: "trans_prepare"}),
		db.EXPECT().TransRelease().Return(nil).Times(1),
	)
	db.EXPECT().Strerror().Return("could not satisfy dependencies").AnyTimes()

	status := &statusLog{}
	q := kernel.NewPendingChanges()
	c := New(db, catalog, WithQueue(q), WithPrivilegeCheck(privileged), WithStatus(status.add))

	res, err := c.InstallSelected(context.Background(), []string{boreRaw})
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgerrors.ErrTransaction)
	assert.Equal(t, missing, res.Missing)
	assert.Empty(t, res.Applied)
	assert.Equal(t, []string{
		"failed to prepare transaction (could not satisfy dependencies)",
		":: unable to satisfy dependency 'bore-firmware>=20240101' required by linux-cachyos-bore",
	}, status.all())
	assert.Empty(t, q.InstallList())
}

func TestRemoveSelected_RealDatabaseReportsBrokenDependency(t *testing.T) {
	r := testutil.NewRoot(t)
	pkgs := append(borePkgs(), testutil.Pkg{Name: "nvidia-cachyos", Version: "550.67-1", Depends: []string{bore}})
	r.Repo("core", pkgs...)
	r.Install(pkgs...)
	h := openHandle(t, r)
	catalog := buildCatalog(t, h)

	status := &statusLog{}
	c := New(h, catalog, WithQueue(kernel.NewPendingChanges()), WithPrivilegeCheck(privileged), WithStatus(status.add))

	res, err := c.RemoveSelected(context.Background(), []string{boreRaw})
	require.Error(t, err)
	require.Len(t, res.Missing, 1)
	assert.Equal(t, "nvidia-cachyos", res.Missing[0].Target)
	assert.Equal(t, bore, res.Missing[0].CausingPkg)

	lines := status.all()
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "failed to prepare transaction")
	assert.Contains(t, lines[1], "removing linux-cachyos-bore breaks dependency 'linux-cachyos-bore' required by nvidia-cachyos")

	_, statErr := os.Stat(filepath.Join(r.DBPath, "db.lck"))
	assert.True(t, os.IsNotExist(statErr), "lock must be released")
}

func TestInstallSelected_InitFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := testutil.NewRoot(t)
	r.Repo("core", borePkgs()...)
	h := openHandle(t, r)

	db := backed(ctrl, h)
	db.EXPECT().TransInit(gomock.Any()).Return(&alpm.Error{Code: alpm.ErrnoHandleLock, Op: "trans_init"})
	db.EXPECT().Strerror().Return("unable to lock database")

	status := &statusLog{}
	q := kernel.NewPendingChanges()
	c := New(db, buildCatalog(t, h), WithQueue(q), WithPrivilegeCheck(privileged), WithStatus(status.add))

	_, err := c.InstallSelected(context.Background(), []string{boreRaw})
	require.Error(t, err)
	assert.Equal(t, []string{"failed to init transaction (unable to lock database)"}, status.all())
	// nothing reached a transaction, so the runner gets it
	assert.Equal(t, []string{bore, boreHeaders}, q.InstallList())
}

func TestInstallSelected_CommitFailureReleasesOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := testutil.NewRoot(t)
	r.Repo("core", borePkgs()...)
	h := openHandle(t, r)

	db := backed(ctrl, h)
	db.EXPECT().TransInit(gomock.Any()).Return(nil)
	db.EXPECT().AddPkg(gomock.Any()).Return(nil).Times(2)
	db.EXPECT().TransPrepare().Return(nil, nil)
	db.EXPECT().TransCommit(gomock.Any()).Return(&alpm.Error{Code: alpm.ErrnoExternalCommand, Op: "trans_commit"})
	db.EXPECT().Strerror().Return("external command failed")
	db.EXPECT().TransRelease().Return(nil).Times(1)

	status := &statusLog{}
	q := kernel.NewPendingChanges()
	c := New(db, buildCatalog(t, h), WithQueue(q), WithPrivilegeCheck(privileged), WithStatus(status.add))

	res, err := c.InstallSelected(context.Background(), []string{boreRaw})
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgerrors.ErrTransaction)
	assert.Empty(t, res.Applied)
	assert.Equal(t, []string{"failed to commit transaction (external command failed)"}, status.all())
	assert.Empty(t, q.InstallList())
}

func TestInstallSelected_UnprivilegedSkipsTransaction(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := testutil.NewRoot(t)
	r.Repo("core", borePkgs()...)
	h := openHandle(t, r)

	db := backed(ctrl, h)
	q := kernel.NewPendingChanges()
	c := New(db, buildCatalog(t, h), WithQueue(q), WithPrivilegeCheck(func() bool { return false }))

	res, err := c.InstallSelected(context.Background(), []string{boreRaw})
	require.NoError(t, err)
	assert.True(t, res.NothingToDo)
	assert.Equal(t, []string{bore, boreHeaders}, res.Skipped)
	assert.Equal(t, []string{bore, boreHeaders}, q.InstallList())
}

func TestInstallSelected_NothingToDo(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := testutil.NewRoot(t)
	r.Repo("core", borePkgs()...)
	r.Install(borePkgs()...)
	h := openHandle(t, r)

	db := backed(ctrl, h)
	c := New(db, buildCatalog(t, h), WithQueue(kernel.NewPendingChanges()), WithPrivilegeCheck(privileged))

	res, err := c.InstallSelected(context.Background(), []string{boreRaw, "core/linux-unknown"})
	require.NoError(t, err)
	assert.True(t, res.NothingToDo)
}

func TestInstallSelected_AllTargetsRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := testutil.NewRoot(t)
	r.Repo("core", borePkgs()...)
	h := openHandle(t, r)

	db := backed(ctrl, h)
	db.EXPECT().TransInit(gomock.Any()).Return(nil)
	db.EXPECT().AddPkg(gomock.Any()).Return(&alpm.Error{Code: alpm.ErrnoTransDupTarget, Op: "add_pkg"}).Times(2)
	db.EXPECT().TransRelease().Return(nil).Times(1)

	c := New(db, buildCatalog(t, h), WithQueue(kernel.NewPendingChanges()), WithPrivilegeCheck(privileged))

	res, err := c.InstallSelected(context.Background(), []string{boreRaw})
	require.NoError(t, err)
	assert.True(t, res.NothingToDo)
}

func TestCommitTransaction_DrainsQueues(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := shellmocks.NewMockRunner(ctrl)
	external := mocks.NewMockExternalInstaller(ctrl)

	q := kernel.NewPendingChanges()
	q.AppendInstall("linux-zen", "linux-zen-headers")
	q.AppendRemoval("linux-lts")
	q.AppendExternal("linux-tkg")

	external.EXPECT().Install(gomock.Any(), []string{"linux-tkg"}).Return(nil)
	runner.EXPECT().Run(gomock.Any(), "pacman -S --needed linux-zen linux-zen-headers").Return(0, nil)
	runner.EXPECT().Run(gomock.Any(), "pacman -R linux-lts").Return(1, nil)

	status := &statusLog{}
	c := New(nil, nil, WithQueue(q), WithRunner(runner), WithExternalInstaller(external), WithStatus(status.add))

	cycle, err := c.CommitTransaction(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgerrors.ErrCommandFailed)
	assert.Equal(t, kernel.Pending{
		Install:  []string{"linux-zen", "linux-zen-headers"},
		Removal:  []string{"linux-lts"},
		External: []string{"linux-tkg"},
	}, cycle.Pending)
	assert.True(t, q.Snapshot().Empty())
	assert.Len(t, status.all(), 1)

	cycle, err = c.CommitTransaction(context.Background())
	require.NoError(t, err)
	assert.True(t, cycle.Pending.Empty())
}

func TestCommitTransaction_CustomPacmanAndMissingHelper(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := shellmocks.NewMockRunner(ctrl)
	runner.EXPECT().Run(gomock.Any(), "pacman --root /mnt -S --needed linux").Return(0, nil)

	q := kernel.NewPendingChanges()
	q.AppendInstall("linux")
	q.AppendExternal("linux-tkg")

	c := New(nil, nil, WithQueue(q), WithRunner(runner), WithPacmanCommand("pacman --root /mnt"))
	_, err := c.CommitTransaction(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgerrors.ErrExternalHelper)
	assert.True(t, q.Snapshot().Empty())
}

func TestNeedsResync(t *testing.T) {
	r := testutil.NewRoot(t)
	r.Repo("core", borePkgs()...)
	r.Install(testutil.Pkg{Name: bore, Version: "6.6.2-1"})
	h := openHandle(t, r)

	tests := []struct {
		name  string
		cycle Cycle
		want  bool
	}{
		{name: "empty cycle", cycle: Cycle{}, want: false},
		{
			name:  "installed as expected before",
			cycle: Cycle{Applied: []string{bore}, baseline: map[string]bool{bore: true}},
			want:  false,
		},
		{
			name:  "newly installed",
			cycle: Cycle{Applied: []string{bore}, baseline: map[string]bool{bore: false}},
			want:  true,
		},
		{
			name:  "removal did not happen",
			cycle: Cycle{Pending: kernel.Pending{Removal: []string{boreHeaders}}, baseline: map[string]bool{boreHeaders: false}},
			want:  false,
		},
		{
			name:  "unknown baseline",
			cycle: Cycle{Pending: kernel.Pending{Install: []string{boreHeaders}}},
			want:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NeedsResync(tt.cycle, h.LocalDB()))
		})
	}
}

func TestResync_OpenFailureKeepsDatabase(t *testing.T) {
	ctrl := gomock.NewController(t)
	db := mocks.NewMockDatabase(ctrl)
	c := New(db, nil, WithOpener(func() (Database, error) {
		return nil, &alpm.Error{Code: alpm.ErrnoDBNotFound, Op: "open"}
	}))

	changed, err := c.Resync(context.Background(), Cycle{Applied: []string{bore}})
	require.Error(t, err)
	assert.False(t, changed)
	assert.ErrorIs(t, err, pkgerrors.ErrResync)
	assert.Contains(t, err.Error(), alpm.Strerror(alpm.ErrnoDBNotFound))
	assert.Same(t, db, c.Database())
}

func TestResync_NoChangeClosesFresh(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := testutil.NewRoot(t)
	r.Repo("core", borePkgs()...)
	h := openHandle(t, r)
	catalog := buildCatalog(t, h)

	fresh := backed(ctrl, h)
	fresh.EXPECT().SetCallbacks(gomock.Any())
	fresh.EXPECT().Close().Return(nil)

	c := New(h, catalog,
		WithOpener(func() (Database, error) { return fresh, nil }),
		WithCallbacks(alpm.Callbacks{}),
	)
	changed, err := c.Resync(context.Background(), Cycle{Applied: []string{bore}, baseline: map[string]bool{bore: false}})
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Same(t, catalog, c.Catalog())
}

func TestUnselectedInstalled(t *testing.T) {
	r := testutil.NewRoot(t)
	r.Repo("core",
		testutil.Pkg{Name: "linux", Version: "6.7.1-1"},
		testutil.Pkg{Name: "linux-headers", Version: "6.7.1-1"},
		testutil.Pkg{Name: "linux-lts", Version: "6.6.12-1"},
		testutil.Pkg{Name: "linux-lts-headers", Version: "6.6.12-1"},
	)
	r.Repo("cachyos", testutil.Pkg{Name: "linux-zen", Version: "6.7.1-1"}, testutil.Pkg{Name: "linux-zen-headers", Version: "6.7.1-1"})
	r.Repo("extra", testutil.Pkg{Name: "linux-zen", Version: "6.7.0-1"}, testutil.Pkg{Name: "linux-zen-headers", Version: "6.7.0-1"})
	r.Install(
		testutil.Pkg{Name: "linux", Version: "6.7.1-1"},
		testutil.Pkg{Name: "linux-lts", Version: "6.6.12-1"},
		testutil.Pkg{Name: "linux-zen", Version: "6.7.0-1"},
	)
	h := openHandle(t, r)

	c := New(h, buildCatalog(t, h))
	// linux-zen came from extra, so the cachyos entry must not remove it
	assert.Equal(t, []string{"core/linux-lts", "extra/linux-zen"}, c.UnselectedInstalled([]string{"core/linux"}))
}

func TestApply_PreHookAbort(t *testing.T) {
	ctrl := gomock.NewController(t)
	db := mocks.NewMockDatabase(ctrl)

	hooks := hook.NewHookManager()
	require.NoError(t, hooks.AddHook(hook.Hook{Type: hook.PreTransaction, Content: `abort = len(targets) > 0`}))

	status := &statusLog{}
	c := New(db, nil, WithHooks(hooks), WithStatus(status.add), WithQueue(kernel.NewPendingChanges()))
	rep, err := c.Apply(context.Background(), Selection{Install: []string{boreRaw}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, pkgerrors.ErrHookAborted))
	assert.True(t, rep.Aborted)
	assert.Equal(t, []string{pkgerrors.ErrHookAborted.Error()}, status.all())
}

func TestApply_RunsHooksAroundCycle(t *testing.T) {
	ctrl := gomock.NewController(t)
	hooks := hookmocks.NewMockHookManager(ctrl)
	runner := shellmocks.NewMockRunner(ctrl)

	q := kernel.NewPendingChanges()
	q.AppendRemoval("linux-lts")

	gomock.InOrder(
		hooks.EXPECT().Execute(hook.PreTransaction, gomock.Any()).Return(hook.Result{}, nil),
		runner.EXPECT().Run(gomock.Any(), "pacman -R linux-lts").Return(0, nil),
		hooks.EXPECT().Execute(hook.PostTransaction, hook.HookContext{
			Operation: "commit",
			Targets:   []string{"linux-lts"},
			Root:      "/",
			Success:   true,
		}).Return(hook.Result{}, errors.New("post hook blew up")),
	)

	c := New(nil, nil, WithHooks(hooks), WithRunner(runner), WithQueue(q), WithRoot("/"))
	rep, err := c.Apply(context.Background(), Selection{})
	require.NoError(t, err)
	assert.Equal(t, []string{"linux-lts"}, rep.Cycle.Pending.Removal)
	assert.False(t, rep.Resynced)
}

func TestHelperInstaller(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := shellmocks.NewMockRunner(ctrl)

	runner.EXPECT().Run(gomock.Any(), "paru -S --needed linux-tkg linux-tkg-headers").Return(0, nil)
	h := &HelperInstaller{Helper: "paru", Runner: runner}
	require.NoError(t, h.Install(context.Background(), []string{"linux-tkg", "linux-tkg-headers"}))
	require.NoError(t, h.Install(context.Background(), nil))

	runner.EXPECT().Run(gomock.Any(), "paru -S --needed linux-tkg").Return(2, nil)
	err := h.Install(context.Background(), []string{"linux-tkg"})
	assert.ErrorIs(t, err, pkgerrors.ErrCommandFailed)

	err = (&HelperInstaller{Runner: runner}).Install(context.Background(), []string{"linux-tkg"})
	assert.ErrorIs(t, err, pkgerrors.ErrExternalHelper)
}
