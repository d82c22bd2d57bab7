// Package testutil builds throwaway pacman installations for tests: a root
// directory with a local database, sync database archives and a pacman.conf.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mholt/archives"
)

// Pkg describes a package entry written to a database.
type Pkg struct {
	Name      string
	Version   string
	Base      string
	Desc      string
	Arch      string
	Depends   []string
	Provides  []string
	Conflicts []string
	// AsDep marks a local entry as installed as a dependency.
	AsDep bool
}

// Root is a fake installation rooted in a temporary directory.
type Root struct {
	t      *testing.T
	Dir    string
	DBPath string
	repos  []string
}

// NewRoot creates an empty installation with local and sync database directories.
func NewRoot(t *testing.T) *Root {
	t.Helper()
	dir := t.TempDir()
	r := &Root{t: t, Dir: dir, DBPath: filepath.Join(dir, "var", "lib", "pacman")}
	r.mkdir(filepath.Join(r.DBPath, "local"))
	r.mkdir(filepath.Join(r.DBPath, "sync"))
	r.write(filepath.Join(r.DBPath, "local", "ALPM_DB_VERSION"), "9\n")
	return r
}

// ConfPath is where WriteConf puts pacman.conf.
func (r *Root) ConfPath() string {
	return filepath.Join(r.Dir, "etc", "pacman.conf")
}

// Install writes local database entries.
func (r *Root) Install(pkgs ...Pkg) {
	r.t.Helper()
	for _, p := range pkgs {
		entry := filepath.Join(r.DBPath, "local", p.Name+"-"+p.Version)
		r.mkdir(entry)
		r.write(filepath.Join(entry, "desc"), Desc(p, true))
		r.write(filepath.Join(entry, "files"), "%FILES%\n\n")
	}
}

// Uninstall drops local entries by name, the way the package manager would.
func (r *Root) Uninstall(names ...string) {
	r.t.Helper()
	entries, err := os.ReadDir(filepath.Join(r.DBPath, "local"))
	if err != nil {
		r.t.Fatalf("reading local database: %v", err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(r.DBPath, "local", e.Name())
		desc, err := os.ReadFile(filepath.Join(dir, "desc"))
		if err != nil {
			continue
		}
		for _, name := range names {
			if strings.Contains(string(desc), "%NAME%\n"+name+"\n") {
				if err := os.RemoveAll(dir); err != nil {
					r.t.Fatalf("removing %s: %v", dir, err)
				}
				break
			}
		}
	}
}

// Repo writes sync/<name>.db as a gzipped tar holding one desc per package.
// Repositories are listed in pacman.conf in the order they are first written.
func (r *Root) Repo(name string, pkgs ...Pkg) string {
	r.t.Helper()
	dest := filepath.Join(r.DBPath, "sync", name+".db")
	if err := BuildRepoDB(context.Background(), dest, pkgs...); err != nil {
		r.t.Fatalf("building %s: %v", dest, err)
	}
	for _, existing := range r.repos {
		if existing == name {
			return dest
		}
	}
	r.repos = append(r.repos, name)
	return dest
}

// WriteConf writes a pacman.conf listing every repository created so far,
// each served from server/<repo>.
func (r *Root) WriteConf(server string, extra ...string) string {
	r.t.Helper()
	var b strings.Builder
	b.WriteString("[options]\nArchitecture = x86_64\nParallelDownloads = 2\n")
	for _, line := range extra {
		b.WriteString(line + "\n")
	}
	for _, repo := range r.repos {
		fmt.Fprintf(&b, "\n[%s]\nServer = %s/$repo\n", repo, server)
	}
	r.mkdir(filepath.Dir(r.ConfPath()))
	r.write(r.ConfPath(), b.String())
	return r.ConfPath()
}

// BuildRepoDB writes a repository archive in the layout repo-add produces.
func BuildRepoDB(ctx context.Context, dest string, pkgs ...Pkg) error {
	src, err := os.MkdirTemp("", "repo-db-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.RemoveAll(src) }()

	for _, p := range pkgs {
		entry := filepath.Join(src, p.Name+"-"+p.Version)
		if err := os.MkdirAll(entry, 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(entry, "desc"), []byte(Desc(p, false)), 0o644); err != nil {
			return err
		}
	}

	files, err := archives.FilesFromDisk(ctx, nil, map[string]string{
		src + string(os.PathSeparator): "",
	})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	format := archives.CompressedArchive{
		Compression: archives.Gz{},
		Archival:    archives.Tar{},
	}
	return format.Archive(ctx, out, files)
}

// Desc renders a desc file. Local entries carry a REASON and install date.
func Desc(p Pkg, local bool) string {
	var b strings.Builder
	field := func(name string, values ...string) {
		if len(values) == 0 || (len(values) == 1 && values[0] == "") {
			return
		}
		fmt.Fprintf(&b, "%%%s%%\n%s\n\n", name, strings.Join(values, "\n"))
	}

	arch := p.Arch
	if arch == "" {
		arch = "x86_64"
	}
	field("FILENAME", p.Name+"-"+p.Version+"-"+arch+".pkg.tar.zst")
	field("NAME", p.Name)
	field("BASE", p.Base)
	field("VERSION", p.Version)
	field("DESC", p.Desc)
	field("ARCH", arch)
	field("BUILDDATE", "1700000000")
	if local {
		field("INSTALLDATE", "1700000100")
		if p.AsDep {
			field("REASON", "1")
		}
	}
	field("DEPENDS", p.Depends...)
	field("CONFLICTS", p.Conflicts...)
	field("PROVIDES", p.Provides...)
	return b.String()
}

func (r *Root) mkdir(dir string) {
	r.t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		r.t.Fatalf("mkdir %s: %v", dir, err)
	}
}

func (r *Root) write(path, content string) {
	r.t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		r.t.Fatalf("write %s: %v", path, err)
	}
}
