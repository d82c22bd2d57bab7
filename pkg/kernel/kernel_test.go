package kernel

import (
	"context"
	"errors"
	"testing"

	"github.com/cperrin88/kman/pkg/alpm"
	pkgerrors "github.com/cperrin88/kman/pkg/errors"
	"github.com/cperrin88/kman/test/testutil"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExternal struct {
	available bool
	names     []string
	err       error
}

func (f *fakeExternal) Available() bool { return f.available }

func (f *fakeExternal) KernelHeaders(context.Context) ([]string, error) { return f.names, f.err }

func pkg(name, ver string) testutil.Pkg {
	return testutil.Pkg{Name: name, Version: ver}
}

func openHandle(t *testing.T, r *testutil.Root) *alpm.Handle {
	t.Helper()
	r.WriteConf("https://mirror.example.org")
	h, err := alpm.Open(r.Dir, r.DBPath, alpm.WithConfigFile(r.ConfPath()),
		alpm.WithCallbacks(alpm.Callbacks{Log: func(alpm.LogLevel, string) {}}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func build(t *testing.T, h *alpm.Handle, opts ...CatalogOption) *Catalog {
	t.Helper()
	c, err := BuildCatalog(context.Background(), h, opts...)
	require.NoError(t, err)
	return c
}

func TestScenario_UpdateAvailable(t *testing.T) {
	r := testutil.NewRoot(t)
	r.Repo("core", pkg("linux-cachyos", "6.2.0"), pkg("linux-cachyos-headers", "6.2.0"))
	r.Install(pkg("linux-cachyos", "6.1.0"))
	h := openHandle(t, r)

	c := build(t, h)
	require.Equal(t, 1, c.Len())
	k := c.Find("core/linux-cachyos")
	require.NotNil(t, k)

	assert.True(t, k.IsInstalled())
	assert.False(t, k.UpdateAvailable())
	assert.Equal(t, "∧6.2.0", k.Version())
	assert.True(t, k.UpdateAvailable())
	assert.Equal(t, "core", k.InstalledDB())
	assert.Equal(t, "stable", k.Category())
	assert.Equal(t, "6.2", k.Series())
}

func TestCatalog_Idempotent(t *testing.T) {
	r := testutil.NewRoot(t)
	r.Repo("core", pkg("linux", "6.6.1.arch1-1"), pkg("linux-headers", "6.6.1.arch1-1"),
		pkg("linux-lts", "6.1.60-1"), pkg("linux-lts-headers", "6.1.60-1"))
	r.Repo("cachyos", pkg("linux-cachyos", "6.6.2-1"), pkg("linux-cachyos-headers", "6.6.2-1"),
		pkg("linux-cachyos-zfs", "6.6.2-1"))
	r.Install(pkg("linux", "6.6.1.arch1-1"), pkg("linux-headers", "6.6.1.arch1-1"))
	h := openHandle(t, r)

	first := build(t, h).Snapshot()
	second := build(t, h).Snapshot()
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("catalog changed between builds (-first +second):\n%s", diff)
	}

	want := []Entry{
		{Raw: "core/linux", Repo: "core", Installed: true, HeadersPresent: true},
		{Raw: "core/linux-lts", Repo: "core", HeadersPresent: true},
		{Raw: "cachyos/linux-cachyos", Repo: "cachyos", HeadersPresent: true},
	}
	assert.Empty(t, cmp.Diff(want, first))
}

func TestCatalog_HeadersWithoutBase(t *testing.T) {
	r := testutil.NewRoot(t)
	r.Repo("core", pkg("linux-foo-headers", "1.0-1"), pkg("linux-api-headers", "6.4-1"),
		pkg("linux", "6.6.1.arch1-1"), pkg("linux-headers", "6.6.1.arch1-1"))
	h := openHandle(t, r)

	c := build(t, h)
	assert.Nil(t, c.Find("core/linux-foo"))
	assert.Nil(t, c.FindName("linux-api"))
	assert.Equal(t, 1, c.Len())
}

func TestCatalog_Empty(t *testing.T) {
	r := testutil.NewRoot(t)
	r.Repo("core", pkg("linux-foo-headers", "1.0-1"))
	h := openHandle(t, r)

	c, err := BuildCatalog(context.Background(), h)
	assert.ErrorIs(t, err, pkgerrors.ErrEmptyCatalog)
	require.NotNil(t, c)
	assert.Zero(t, c.Len())
}

func TestCatalog_External(t *testing.T) {
	r := testutil.NewRoot(t)
	r.Repo("core", pkg("linux", "6.6.1.arch1-1"), pkg("linux-headers", "6.6.1.arch1-1"))
	r.Install(pkg("linux-xanmod", "6.6.3-1"))
	h := openHandle(t, r)

	ext := &fakeExternal{available: true, names: []string{"linux-headers", "linux-xanmod-headers", "linux-api-headers", "linux-tkg-headers"}}
	c := build(t, h, WithExternal(ext))

	assert.Equal(t, []string{"core/linux", "aur/linux-xanmod", "aur/linux-tkg"}, raws(c.Kernels()))
	x := c.Find("aur/linux-xanmod")
	require.NotNil(t, x)
	assert.True(t, x.IsExternal())
	assert.Equal(t, ExternalVersion, x.Version())
	assert.Equal(t, "local", x.InstalledDB())
	assert.Equal(t, "", x.Series())
	assert.Equal(t, Change{Kind: ChangeExternalInstall, Names: []string{"linux-xanmod"}}, x.InstallChange())

	// unavailable or failing helpers leave the sync kernels alone
	assert.Equal(t, 1, build(t, h, WithExternal(&fakeExternal{names: []string{"linux-tkg-headers"}})).Len())
	assert.Equal(t, 1, build(t, h, WithExternal(&fakeExternal{available: true, err: errors.New("boom")})).Len())
}

func TestCatalog_Origin(t *testing.T) {
	r := testutil.NewRoot(t)
	r.Repo("core", pkg("linux-cachyos", "6.6.2-1"), pkg("linux-cachyos-headers", "6.6.2-1"))
	r.Repo("cachyos-v3", pkg("linux-cachyos", "6.6.3-1"), pkg("linux-cachyos-headers", "6.6.3-1"))
	r.Install(pkg("linux-cachyos", "6.6.3-1"))
	h := openHandle(t, r)

	c := build(t, h)
	core := c.Find("core/linux-cachyos")
	v3 := c.Find("cachyos-v3/linux-cachyos")
	require.NotNil(t, core)
	require.NotNil(t, v3)

	assert.Equal(t, "cachyos-v3", core.InstalledDB())
	assert.True(t, core.RepoMismatch())
	assert.False(t, v3.RepoMismatch())
	assert.Equal(t, core, c.FindName("linux-cachyos"))
	assert.Equal(t, "∨6.6.3-1", core.Version())
	assert.False(t, core.UpdateAvailable())
}

func TestVersionMarkers(t *testing.T) {
	pairs := [][2]string{
		{"6.1.0", "6.2.0"},
		{"6.6.1.arch1-1", "6.6.1.arch2-1"},
		{"6.6.9-1", "6.6.10-1"},
		{"6.6-1", "1:5.0-1"},
		{"6.7rc1-1", "6.7-1"},
	}
	for _, p := range pairs {
		older, newer := p[0], p[1]
		t.Run(older+"<"+newer, func(t *testing.T) {
			r := testutil.NewRoot(t)
			r.Repo("core", pkg("linux-zen", newer), pkg("linux-zen-headers", newer))
			r.Install(pkg("linux-zen", older))
			k := build(t, openHandle(t, r)).Find("core/linux-zen")
			require.NotNil(t, k)
			assert.Equal(t, -1, k.CompareVersions())
			assert.False(t, k.UpdateAvailable())
			assert.Equal(t, MarkerUpdate+newer, k.Version())
			assert.True(t, k.UpdateAvailable())

			r = testutil.NewRoot(t)
			r.Repo("core", pkg("linux-zen", older), pkg("linux-zen-headers", older))
			r.Install(pkg("linux-zen", newer))
			k = build(t, openHandle(t, r)).Find("core/linux-zen")
			require.NotNil(t, k)
			assert.Equal(t, MarkerAhead+newer, k.Version())
			assert.False(t, k.UpdateAvailable())
			assert.False(t, k.RefreshUpdateFlag())
		})
	}
}

func TestVersion_NotInstalledAndEqual(t *testing.T) {
	r := testutil.NewRoot(t)
	r.Repo("core", pkg("linux", "6.6.1.arch1-1"), pkg("linux-headers", "6.6.1.arch1-1"),
		pkg("linux-lts", "6.1.60-1"), pkg("linux-lts-headers", "6.1.60-1"))
	r.Install(pkg("linux", "6.6.1.arch1-1"))
	c := build(t, openHandle(t, r))

	assert.Equal(t, "6.6.1.arch1-1", c.Find("core/linux").Version())
	assert.Equal(t, 0, c.Find("core/linux").CompareVersions())
	assert.Equal(t, "6.1.60-1", c.Find("core/linux-lts").Version())
	assert.Equal(t, "", c.Find("core/linux-lts").InstalledVersion())
	assert.False(t, c.Find("core/linux-lts").RefreshUpdateFlag())
}

func TestCategory(t *testing.T) {
	tests := map[string]string{
		"linux":                   "stable",
		"linux-cachyos-lto":       "lto optimized",
		"linux-lts":               "longterm",
		"linux-lts-lto":           "lto optimized",
		"linux-zen":               "zen-kernel",
		"linux-hardened":          "hardened-kernel",
		"linux-next-git":          "next release",
		"linux-mainline":          "mainline branch",
		"linux-git":               "master branch",
		"linux-cachyos-bore":      "stable",
		"linux-cachyos-rc":        "stable",
		"linux-cachyos-hardened":  "hardened-kernel",
		"linux-cachyos-zen-lts":   "longterm",
		"linux-mainline-lts-next": "longterm",
	}
	for name, want := range tests {
		t.Run(name, func(t *testing.T) {
			k := &Kernel{name: name}
			assert.Equal(t, want, k.Category())
		})
	}
}

func TestInstall(t *testing.T) {
	r := testutil.NewRoot(t)
	r.Repo("cachyos",
		pkg("linux-cachyos", "6.6.2-1"), pkg("linux-cachyos-headers", "6.6.2-1"), pkg("linux-cachyos-zfs", "6.6.2-1"),
		pkg("linux-cachyos-bore", "6.6.2-1"), pkg("linux-cachyos-bore-headers", "6.6.2-1"))
	h := openHandle(t, r)

	t.Run("kernel and headers", func(t *testing.T) {
		q := NewPendingChanges()
		k := build(t, h).Find("cachyos/linux-cachyos-bore")
		require.NotNil(t, k)
		assert.True(t, k.Install(q))
		assert.Equal(t, []string{"linux-cachyos-bore", "linux-cachyos-bore-headers"}, q.InstallList())
		assert.Empty(t, q.RemovalList())
		assert.Nil(t, k.Module())
	})

	t.Run("zfs module first on zfs root", func(t *testing.T) {
		q := NewPendingChanges()
		k := build(t, h, WithZFSProbe(func() bool { return true })).Find("cachyos/linux-cachyos")
		require.NotNil(t, k.Module())
		assert.True(t, k.Install(q))
		assert.Equal(t, []string{"linux-cachyos-zfs", "linux-cachyos", "linux-cachyos-headers"}, q.InstallList())
	})

	t.Run("module ignored elsewhere", func(t *testing.T) {
		q := NewPendingChanges()
		k := build(t, h, WithZFSProbe(func() bool { return false })).Find("cachyos/linux-cachyos")
		assert.True(t, k.Install(q))
		assert.Equal(t, []string{"linux-cachyos", "linux-cachyos-headers"}, q.InstallList())
	})
}

func TestRemove(t *testing.T) {
	r := testutil.NewRoot(t)
	r.Repo("core", pkg("linux", "6.6.1.arch1-1"), pkg("linux-headers", "6.6.1.arch1-1"),
		pkg("linux-lts", "6.1.60-1"), pkg("linux-lts-headers", "6.1.60-1"),
		pkg("linux-zen", "6.6.1.zen1-1"), pkg("linux-zen-headers", "6.6.1.zen1-1"))
	r.Install(pkg("linux", "6.6.1.arch1-1"), pkg("linux-headers", "6.6.1.arch1-1"), pkg("linux-zen", "6.6.1.zen1-1"))
	c := build(t, openHandle(t, r))

	t.Run("not installed leaves queues alone", func(t *testing.T) {
		q := NewPendingChanges()
		q.AppendInstall("linux-zen")
		before := q.Snapshot()

		k := c.Find("core/linux-lts")
		assert.False(t, k.IsInstalled())
		assert.False(t, k.Remove(q))
		assert.Equal(t, before, q.Snapshot())
		_, ok := k.RemoveChange()
		assert.False(t, ok)
	})

	t.Run("installed headers go along", func(t *testing.T) {
		q := NewPendingChanges()
		assert.True(t, c.Find("core/linux").Remove(q))
		assert.Equal(t, []string{"linux", "linux-headers"}, q.RemovalList())
	})

	t.Run("headers never installed stay", func(t *testing.T) {
		q := NewPendingChanges()
		assert.True(t, c.Find("core/linux-zen").Remove(q))
		assert.Equal(t, []string{"linux-zen"}, q.RemovalList())
	})
}

func TestCatalog_QueriesAndOrdering(t *testing.T) {
	r := testutil.NewRoot(t)
	r.Repo("core",
		pkg("linux", "6.6.1.arch1-1"), pkg("linux-headers", "6.6.1.arch1-1"),
		pkg("linux-lts", "6.1.60-1"), pkg("linux-lts-headers", "6.1.60-1"),
		pkg("linux-mainline", "6.7rc2-1"), pkg("linux-mainline-headers", "6.7rc2-1"),
		pkg("linux-rt", "1:6.6.1-1"), pkg("linux-rt-headers", "1:6.6.1-1"))
	r.Install(pkg("linux-lts", "6.1.60-1"))
	c := build(t, openHandle(t, r), WithExternal(&fakeExternal{available: true, names: []string{"linux-tkg-headers"}}))

	assert.Equal(t, []string{"core/linux-lts"}, raws(c.Installed()))
	assert.Equal(t, []string{"core/linux-mainline", "core/linux", "core/linux-rt", "core/linux-lts", "aur/linux-tkg"}, raws(c.BySeries()))

	found, unknown := c.Resolve([]string{"core/linux", "extra/linux", "aur/linux-tkg"})
	assert.Equal(t, []string{"core/linux", "aur/linux-tkg"}, raws(found))
	assert.Equal(t, []string{"extra/linux"}, unknown)
}

func raws(ks []*Kernel) []string {
	out := make([]string, 0, len(ks))
	for _, k := range ks {
		out = append(out, k.Raw())
	}
	return out
}
