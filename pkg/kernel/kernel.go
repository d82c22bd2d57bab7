// Package kernel models the kernel variants offered by the configured
// repositories: the catalog built from the package databases, the Kernel
// entity with its version and category logic, and the pending-change
// queues that stage install and removal intents until a commit cycle.
package kernel

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/cperrin88/kman/pkg/alpm"
	"github.com/hashicorp/go-version"
)

const (
	// ExternalRepo is the repository name of kernels offered by the AUR helper.
	ExternalRepo = "aur"
	// ExternalVersion stands in for the version of an external kernel, which
	// is only known once it is built.
	ExternalVersion = "unknown"

	// MarkerUpdate prefixes the available version when an update is pending.
	MarkerUpdate = "∧"
	// MarkerAhead prefixes the installed version when it is newer than the
	// repository's.
	MarkerAhead = "∨"

	// HeadersSuffix turns a kernel package name into its headers package name.
	HeadersSuffix = "-headers"
	// ModuleSuffix names the zfs module package of a kernel.
	ModuleSuffix = "-zfs"
)

// Source is the package database view kernels are built from and queried
// against. *alpm.Handle implements it.
type Source interface {
	SyncDBs() []*alpm.DB
	LocalDB() *alpm.DB
	Origin(installed *alpm.Package) string
	Vercmp(a, b string) int
}

var categories = []struct {
	marker string
	name   string
}{
	{"lto", "lto optimized"},
	{"lts", "longterm"},
	{"zen", "zen-kernel"},
	{"hardened", "hardened-kernel"},
	{"next", "next release"},
	{"mainline", "mainline branch"},
	{"git", "master branch"},
}

// Kernel is one kernel variant. Identity fields never change after
// construction; the update flag and installed origin do.
type Kernel struct {
	src  Source
	name string
	repo string
	raw  string

	pkg     *alpm.Package
	headers *alpm.Package
	module  *alpm.Package

	zfs func() bool

	mu              sync.Mutex
	updateAvailable bool
	installedDB     string
}

func newKernel(src Source, pkg, headers *alpm.Package, repo, raw string) *Kernel {
	return &Kernel{src: src, name: pkg.Name(), repo: repo, raw: raw, pkg: pkg, headers: headers}
}

func newExternal(src Source, name string) *Kernel {
	return &Kernel{src: src, name: name, repo: ExternalRepo, raw: ExternalRepo + "/" + name}
}

// Name is the bare package name.
func (k *Kernel) Name() string { return k.name }

// Repo is the offering repository, or ExternalRepo.
func (k *Kernel) Repo() string { return k.repo }

// Raw is the "repo/name" identifier used for selections.
func (k *Kernel) Raw() string { return k.raw }

// IsExternal reports whether the kernel comes from the AUR helper.
func (k *Kernel) IsExternal() bool { return k.repo == ExternalRepo }

// Package returns the sync package, nil for external kernels.
func (k *Kernel) Package() *alpm.Package { return k.pkg }

// Headers returns the headers package, if the repository has one.
func (k *Kernel) Headers() *alpm.Package { return k.headers }

// Module returns the attached zfs module package, if any.
func (k *Kernel) Module() *alpm.Package { return k.module }

func (k *Kernel) String() string { return k.raw }

// Category classifies the kernel by the first marker found in its name.
func (k *Kernel) Category() string {
	for _, c := range categories {
		if strings.Contains(k.name, c.marker) {
			return c.name
		}
	}
	return "stable"
}

// AvailableVersion is the repository version, or ExternalVersion.
func (k *Kernel) AvailableVersion() string {
	if k.pkg == nil {
		return ExternalVersion
	}
	return k.pkg.Version()
}

// InstalledVersion is the version in the local database, empty when not installed.
func (k *Kernel) InstalledVersion() string {
	if lp := k.local(); lp != nil {
		return lp.Version()
	}
	return ""
}

// IsInstalled reports whether a package of this name is in the local database.
func (k *Kernel) IsInstalled() bool {
	return k.local() != nil
}

func (k *Kernel) local() *alpm.Package {
	if k.src == nil {
		return nil
	}
	return k.src.LocalDB().Pkg(k.name)
}

// CompareVersions compares the installed version against the available one
// without side effects. It is 0 for external or uninstalled kernels.
func (k *Kernel) CompareVersions() int {
	if k.IsExternal() || k.pkg == nil {
		return 0
	}
	lp := k.local()
	if lp == nil {
		return 0
	}
	return k.src.Vercmp(lp.Version(), k.pkg.Version())
}

// RefreshUpdateFlag sets the update flag when the installed copy is older
// than the repository's and returns the flag. It never clears it.
func (k *Kernel) RefreshUpdateFlag() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.CompareVersions() < 0 {
		k.updateAvailable = true
	}
	return k.updateAvailable
}

// Version renders the version column. Installed kernels show the installed
// version marked with MarkerAhead when it is newer than the repository's,
// or the available version marked with MarkerUpdate when it is older; the
// latter also sets the update flag.
func (k *Kernel) Version() string {
	if k.IsExternal() {
		return ExternalVersion
	}
	lp := k.local()
	if lp == nil {
		return k.AvailableVersion()
	}
	switch cmp := k.src.Vercmp(lp.Version(), k.pkg.Version()); {
	case cmp > 0:
		return MarkerAhead + lp.Version()
	case cmp < 0:
		k.mu.Lock()
		k.updateAvailable = true
		k.mu.Unlock()
		return MarkerUpdate + k.pkg.Version()
	default:
		return lp.Version()
	}
}

// UpdateAvailable returns the flag as last computed by Version or RefreshUpdateFlag.
func (k *Kernel) UpdateAvailable() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.updateAvailable
}

// InstalledDB names the repository the installed copy came from; empty when
// the kernel is not installed.
func (k *Kernel) InstalledDB() string {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.installedDB
}

func (k *Kernel) setInstalledDB(db string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.installedDB = db
}

// RepoMismatch reports whether the installed copy came from another
// repository than the one offering this entry.
func (k *Kernel) RepoMismatch() bool {
	db := k.InstalledDB()
	return db != "" && db != k.repo
}

var seriesPrefix = regexp.MustCompile(`^[0-9]+(\.[0-9]+)*`)

// Series is the upstream major.minor of the available version, e.g. "6.2"
// for 6.2.0.arch1-1. It is empty when the version is unknown.
func (k *Kernel) Series() string {
	v := k.seriesVersion()
	if v == nil {
		return ""
	}
	seg := v.Segments()
	return fmt.Sprintf("%d.%d", seg[0], seg[1])
}

func (k *Kernel) seriesVersion() *version.Version {
	if k.pkg == nil {
		return nil
	}
	ver := k.pkg.Version()
	if i := strings.IndexByte(ver, ':'); i >= 0 {
		ver = ver[i+1:]
	}
	m := seriesPrefix.FindString(ver)
	if m == "" {
		return nil
	}
	v, err := version.NewVersion(m)
	if err != nil {
		return nil
	}
	return v
}

// InstallChange describes what Install would queue. Externally sourced
// kernels go to the external queue by name. Otherwise the kernel and its
// headers are queued, preceded by the zfs module when the root filesystem
// is zfs and the repository ships one.
func (k *Kernel) InstallChange() Change {
	if k.IsExternal() {
		return Change{Kind: ChangeExternalInstall, Names: []string{k.name}}
	}
	var names []string
	if k.module != nil && k.zfs != nil && k.zfs() {
		names = append(names, k.module.Name())
	}
	names = append(names, k.name)
	if k.headers != nil {
		names = append(names, k.headers.Name())
	}
	return Change{Kind: ChangeInstall, Names: names}
}

// RemoveChange describes what Remove would queue; ok is false when the
// kernel is not installed.
func (k *Kernel) RemoveChange() (Change, bool) {
	if !k.IsInstalled() {
		return Change{}, false
	}
	names := []string{k.name}
	if k.headers != nil && k.src.LocalDB().Pkg(k.headers.Name()) != nil {
		names = append(names, k.headers.Name())
	}
	return Change{Kind: ChangeRemove, Names: names}, true
}

// Install queues the kernel for installation. It always succeeds; failures
// surface when the queue is committed.
func (k *Kernel) Install(q *PendingChanges) bool {
	q.Apply(k.InstallChange())
	return true
}

// Remove queues the kernel and its installed headers for removal. It
// returns false and leaves q alone when the kernel is not installed.
func (k *Kernel) Remove(q *PendingChanges) bool {
	c, ok := k.RemoveChange()
	if !ok {
		return false
	}
	q.Apply(c)
	return true
}
