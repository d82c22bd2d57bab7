package alpm

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/mholt/archives"
	"golang.org/x/sync/errgroup"
)

// LocalDBName is the name of the installed-package database.
const LocalDBName = "local"

// SigLevel is the signature verification policy of a sync database.
type SigLevel int

// Signature levels.
const (
	SigLevelUseDefault SigLevel = iota
	SigLevelRequired
	SigLevelOptional
	SigLevelNever
)

// ParseSigLevel maps pacman.conf SigLevel tokens onto a SigLevel.
func ParseSigLevel(tokens []string) SigLevel {
	level := SigLevelUseDefault
	for _, t := range tokens {
		switch strings.TrimPrefix(strings.TrimPrefix(t, "Package"), "Database") {
		case "Required":
			level = SigLevelRequired
		case "Optional":
			level = SigLevelOptional
		case "Never":
			level = SigLevelNever
		}
	}
	return level
}

// DB is a package database: the local one or a registered sync repository.
// Its contents are read lazily on first access and can be dropped with
// Invalidate to force a reload.
type DB struct {
	handle   *Handle
	name     string
	local    bool
	sigLevel SigLevel
	servers  []string

	mu     sync.RWMutex
	loaded bool
	pkgs   map[string]*Package
	sorted []*Package
}

func newDB(h *Handle, name string, local bool, level SigLevel) *DB {
	return &DB{handle: h, name: name, local: local, sigLevel: level}
}

// Name returns the repository name, or "local".
func (db *DB) Name() string { return db.name }

// IsLocal reports whether db is the installed-package database.
func (db *DB) IsLocal() bool { return db.local }

// SigLevel returns the signature policy the database was registered with.
func (db *DB) SigLevel() SigLevel { return db.sigLevel }

// Servers returns the mirror URLs of a sync database.
func (db *DB) Servers() []string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return append([]string(nil), db.servers...)
}

// SetServers replaces the mirror list.
func (db *DB) SetServers(servers []string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.servers = append([]string(nil), servers...)
}

// Path returns the on-disk location: the sync archive or the local directory.
func (db *DB) Path() string {
	if db.local {
		return filepath.Join(db.handle.dbPath, "local")
	}
	return filepath.Join(db.handle.dbPath, "sync", db.name+".db")
}

// Pkg looks up a package by exact name.
func (db *DB) Pkg(name string) *Package {
	db.ensureLoaded()
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.pkgs[name]
}

// Packages returns every package, sorted by name.
func (db *DB) Packages() []*Package {
	db.ensureLoaded()
	db.mu.RLock()
	defer db.mu.RUnlock()
	return append([]*Package(nil), db.sorted...)
}

// Search returns the packages matching every pattern. Patterns are
// case-insensitive regular expressions tried against the name, the
// description and the provided names.
func (db *DB) Search(patterns ...string) ([]*Package, error) {
	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, db.handle.fail(newError(ErrnoInvalidRegex, "db_search", err))
		}
		res = append(res, re)
	}

	var out []*Package
	for _, pkg := range db.Packages() {
		if matchesAll(pkg, res) {
			out = append(out, pkg)
		}
	}
	return out, nil
}

func matchesAll(pkg *Package, res []*regexp.Regexp) bool {
	for _, re := range res {
		if !matchesOne(pkg, re) {
			return false
		}
	}
	return true
}

func matchesOne(pkg *Package, re *regexp.Regexp) bool {
	if re.MatchString(pkg.name) || re.MatchString(pkg.desc) {
		return true
	}
	for _, p := range pkg.provides {
		if re.MatchString(p.Name) {
			return true
		}
	}
	return false
}

// Invalidate drops the cached contents; the next access rereads them.
func (db *DB) Invalidate() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.loaded = false
	db.pkgs = nil
	db.sorted = nil
}

func (db *DB) ensureLoaded() {
	db.mu.RLock()
	loaded := db.loaded
	db.mu.RUnlock()
	if loaded {
		return
	}
	if err := db.Load(context.Background()); err != nil {
		db.handle.logf(LogWarning, "could not load database '%s': %v", db.name, err)
	}
}

// Load reads the database from disk. A missing database loads as empty and
// is reported through the returned error.
func (db *DB) Load(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.loaded {
		return nil
	}

	var (
		pkgs []*Package
		err  error
	)
	if db.local {
		pkgs, err = db.readLocal(ctx)
	} else {
		pkgs, err = db.readSync(ctx)
	}

	db.pkgs = make(map[string]*Package, len(pkgs))
	for _, p := range pkgs {
		db.pkgs[p.name] = p
	}
	db.sorted = pkgs
	sort.Slice(db.sorted, func(i, j int) bool { return db.sorted[i].name < db.sorted[j].name })
	db.loaded = true

	if err != nil {
		return db.handle.fail(err)
	}
	return nil
}

// readLocal parses local/<name>-<version>/desc entries concurrently.
func (db *DB) readLocal(ctx context.Context) ([]*Package, error) {
	dir := db.Path()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, newError(ErrnoDBOpen, "db_load local", err)
	}

	results := make([]*Package, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(db.handle.parallelism)

	for i, e := range entries {
		if !e.IsDir() {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f, err := os.Open(filepath.Join(dir, e.Name(), "desc"))
			if err != nil {
				db.handle.logf(LogWarning, "could not read local entry %s: %v", e.Name(), err)
				return nil
			}
			defer func() { _ = f.Close() }()

			pkg := &Package{db: db}
			if err := parseDesc(f, pkg); err != nil {
				return newError(ErrnoDBInvalid, "db_load local", err)
			}
			if pkg.name == "" || pkg.version == "" {
				db.handle.logf(LogWarning, "invalid local entry %s", e.Name())
				return nil
			}
			results[i] = pkg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	pkgs := results[:0]
	for _, p := range results {
		if p != nil {
			pkgs = append(pkgs, p)
		}
	}
	return pkgs, nil
}

// readSync streams a repository archive (tar, optionally gz/zst/xz compressed)
// and collects the desc and depends files of every entry.
func (db *DB) readSync(ctx context.Context) ([]*Package, error) {
	p := db.Path()
	f, err := os.Open(p)
	if os.IsNotExist(err) {
		return nil, newError(ErrnoDBNotFound, "db_load "+db.name, err)
	}
	if err != nil {
		return nil, newError(ErrnoDBOpen, "db_load "+db.name, err)
	}
	defer func() { _ = f.Close() }()

	format, stream, err := archives.Identify(ctx, filepath.Base(p), f)
	if err != nil {
		return nil, newError(ErrnoDBInvalid, "db_load "+db.name, err)
	}
	extractor, ok := format.(archives.Extractor)
	if !ok {
		return nil, newError(ErrnoDBInvalid, "db_load "+db.name, nil)
	}

	byDir := make(map[string]*Package)
	var order []string
	err = extractor.Extract(ctx, stream, func(_ context.Context, fi archives.FileInfo) error {
		if fi.IsDir() {
			return nil
		}
		dir, file := path.Split(strings.TrimPrefix(fi.NameInArchive, "./"))
		if dir == "" || (file != "desc" && file != "depends") {
			return nil
		}

		rc, err := fi.Open()
		if err != nil {
			return err
		}
		defer func() { _ = rc.Close() }()

		pkg, ok := byDir[dir]
		if !ok {
			pkg = &Package{db: db}
			byDir[dir] = pkg
			order = append(order, dir)
		}
		return parseDesc(rc, pkg)
	})
	if err != nil {
		return nil, newError(ErrnoDBInvalid, "db_load "+db.name, err)
	}

	pkgs := make([]*Package, 0, len(order))
	for _, dir := range order {
		pkg := byDir[dir]
		if pkg.name == "" || pkg.version == "" {
			db.handle.logf(LogWarning, "%s: skipping invalid entry %s", db.name, dir)
			continue
		}
		pkgs = append(pkgs, pkg)
	}
	return pkgs, nil
}
