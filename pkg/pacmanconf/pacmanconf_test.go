package pacmanconf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cperrin88/kman/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mirrorlist = `## Worldwide
Server = https://geo.mirror.pkgbuild.com/$repo/os/$arch
# Server = https://disabled.example.org/$repo/os/$arch
Server = https://mirror.example.org/archlinux/$repo/os/$arch
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	ml := writeFile(t, dir, "mirrorlist", mirrorlist)

	conf := writeFile(t, dir, "pacman.conf", `#
# /etc/pacman.conf
#
[options]
HoldPkg     = pacman glibc
Architecture = x86_64 x86_64_v3
CheckSpace
Color
ParallelDownloads = 5
IgnorePkg = linux-lts
IgnorePkg = nvidia

; staging must never show up
[cachyos-staging]
Include = `+ml+`

[core]   # official
Include = `+ml+`

[extra]
SigLevel = Optional TrustAll
Server = https://cdn.example.org/$arch/$repo
Include = `+ml+`
`)

	cfg, err := Load(conf, WithStagingRepo("cachyos-staging"))
	require.NoError(t, err)

	assert.Equal(t, []string{"x86_64", "x86_64_v3"}, cfg.Options.Architectures)
	assert.Equal(t, []string{"pacman", "glibc"}, cfg.Options.HoldPkgs)
	assert.Equal(t, []string{"linux-lts", "nvidia"}, cfg.Options.IgnorePkgs)
	assert.Equal(t, 5, cfg.Options.ParallelDownloads)
	assert.Equal(t, []string{"true"}, cfg.Options.Raw["color"])
	assert.Equal(t, "x86_64", cfg.Arch())

	require.Len(t, cfg.Repositories, 2)
	assert.Equal(t, "core", cfg.Repositories[0].Name)
	assert.Equal(t, []string{
		"https://geo.mirror.pkgbuild.com/core/os/x86_64",
		"https://mirror.example.org/archlinux/core/os/x86_64",
	}, cfg.Repositories[0].Servers)

	extra, ok := cfg.Repository("extra")
	require.True(t, ok)
	assert.Equal(t, []string{"Optional", "TrustAll"}, extra.SigLevel)
	require.Len(t, extra.Servers, 3)
	assert.Equal(t, "https://cdn.example.org/x86_64/extra", extra.Servers[0])

	_, ok = cfg.Repository("cachyos-staging")
	assert.False(t, ok)
}

func TestLoadAutoArchitecture(t *testing.T) {
	dir := t.TempDir()
	conf := writeFile(t, dir, "pacman.conf", "[options]\nArchitecture = auto\n\n[core]\nServer = https://example.org/$arch\n")

	cfg, err := Load(conf)
	require.NoError(t, err)
	require.Len(t, cfg.Options.Architectures, 1)
	assert.NotEqual(t, "auto", cfg.Options.Architectures[0])
	assert.Equal(t, "https://example.org/"+cfg.Arch(), cfg.Repositories[0].Servers[0])
}

func TestLoadCollectsNonFatalErrors(t *testing.T) {
	dir := t.TempDir()
	conf := writeFile(t, dir, "pacman.conf", `[options]
Architecture = x86_64

[core]
Include = /definitely/not/here/mirrorlist

[extra]
Server = https://example.org/$repo/os/$arch
`)

	cfg, err := Load(conf)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrPacmanConf)
	assert.ErrorIs(t, err, errors.ErrRepositoryNoURL)

	// both sections are still registered
	require.Len(t, cfg.Repositories, 2)
	assert.Empty(t, cfg.Repositories[0].Servers)
	assert.Equal(t, []string{"https://example.org/extra/os/x86_64"}, cfg.Repositories[1].Servers)
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "pacman.conf"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrPacmanConf)
	require.NotNil(t, cfg)
	assert.Empty(t, cfg.Repositories)
}

func TestLoadIncludeBelowRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "etc", "pacman.d"), 0o755))
	writeFile(t, filepath.Join(root, "etc", "pacman.d"), "mirrorlist", mirrorlist)
	conf := writeFile(t, filepath.Join(root, "etc"), "pacman.conf", "[options]\nArchitecture = aarch64\n[core]\nInclude = /etc/pacman.d/mirrorlist\n")

	cfg, err := Load(conf, WithRoot(root))
	require.NoError(t, err)
	require.Len(t, cfg.Repositories, 1)
	assert.Equal(t, "https://geo.mirror.pkgbuild.com/core/os/aarch64", cfg.Repositories[0].Servers[0])
}
