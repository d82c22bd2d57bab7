// Package pacmanconf reads pacman.conf and the mirror lists it includes.
//
// Problems with individual sections or included files never abort loading:
// they are collected and returned next to the partially filled Config so the
// caller can log them and carry on with whatever repositories did resolve.
package pacmanconf

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cperrin88/kman/pkg/errors"
	"github.com/cperrin88/kman/pkg/platform"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/ini.v1"
)

const (
	optionsSection = "options"

	keyServer       = "server"
	keyInclude      = "include"
	keySigLevel     = "siglevel"
	keyUsage        = "usage"
	keyArchitecture = "architecture"
)

var loadOptions = ini.LoadOptions{
	AllowBooleanKeys:          true,
	AllowShadows:              true,
	InsensitiveKeys:           true,
	SpaceBeforeInlineComment:  true,
	UnescapeValueDoubleQuotes: true,
}

// Repository is one sync database section.
type Repository struct {
	Name     string
	Servers  []string
	SigLevel []string
	Usage    []string
}

// Options holds the directives of the [options] section kman cares about.
type Options struct {
	RootDir           string
	DBPath            string
	CacheDirs         []string
	Architectures     []string
	IgnorePkgs        []string
	HoldPkgs          []string
	ParallelDownloads int
	// Raw keeps every directive, lowercased, for anything not modelled above.
	Raw map[string][]string
}

// Config is a parsed pacman.conf.
type Config struct {
	Options      Options
	Repositories []Repository
}

// Repository returns the named repository section, if any.
func (c *Config) Repository(name string) (Repository, bool) {
	for _, r := range c.Repositories {
		if r.Name == name {
			return r, true
		}
	}
	return Repository{}, false
}

// Arch returns the architecture used for $arch substitution.
func (c *Config) Arch() string {
	if len(c.Options.Architectures) == 0 {
		return platform.Machine()
	}
	return c.Options.Architectures[0]
}

type loader struct {
	stagingRepo string
	root        string
}

// Option configures Load.
type Option func(*loader)

// WithStagingRepo names the repository section that is always skipped.
func WithStagingRepo(name string) Option {
	return func(l *loader) { l.stagingRepo = name }
}

// WithRoot resolves Include paths below root instead of /.
func WithRoot(root string) Option {
	return func(l *loader) { l.root = root }
}

// Load parses the pacman.conf at path. The returned Config is never nil; the
// error, when set, is a *multierror.Error listing everything that was skipped.
func Load(path string, opts ...Option) (*Config, error) {
	l := &loader{root: "/"}
	for _, o := range opts {
		o(l)
	}

	cfg := &Config{Options: Options{Raw: map[string][]string{}}}

	f, err := ini.LoadSources(loadOptions, path)
	if err != nil {
		return cfg, multierror.Append(nil, errors.Wrapf(errors.ErrPacmanConf, "%s: %v", path, err))
	}

	var result *multierror.Error

	if sec, err := f.GetSection(optionsSection); err == nil {
		cfg.Options = parseOptions(sec)
	}
	cfg.Options.Architectures = platform.ResolveArchitectures(cfg.Options.Architectures)
	arch := cfg.Arch()

	for _, sec := range f.Sections() {
		name := sec.Name()
		switch {
		case name == ini.DefaultSection, name == optionsSection:
			continue
		case l.stagingRepo != "" && name == l.stagingRepo:
			continue
		}

		repo := Repository{
			Name:     name,
			SigLevel: fieldValues(sec, keySigLevel),
			Usage:    fieldValues(sec, keyUsage),
		}

		servers := shadowValues(sec, keyServer)
		for _, inc := range shadowValues(sec, keyInclude) {
			included, err := l.readInclude(inc)
			if err != nil {
				result = multierror.Append(result, errors.Wrapf(errors.ErrPacmanConf, "[%s] include %s: %v", name, inc, err))
				continue
			}
			servers = append(servers, included...)
		}

		for _, s := range servers {
			repo.Servers = append(repo.Servers, expandServer(s, name, arch))
		}
		if len(repo.Servers) == 0 {
			result = multierror.Append(result, errors.Wrapf(errors.ErrRepositoryNoURL, "[%s]", name))
		}

		cfg.Repositories = append(cfg.Repositories, repo)
	}

	return cfg, result.ErrorOrNil()
}

func (l *loader) readInclude(path string) ([]string, error) {
	if l.root != "" && l.root != "/" {
		rooted := filepath.Join(l.root, path)
		if _, err := os.Stat(rooted); err == nil {
			path = rooted
		}
	}
	f, err := ini.LoadSources(loadOptions, path)
	if err != nil {
		return nil, err
	}

	var servers []string
	for _, sec := range f.Sections() {
		servers = append(servers, shadowValues(sec, keyServer)...)
	}
	return servers, nil
}

func parseOptions(sec *ini.Section) Options {
	opts := Options{Raw: map[string][]string{}}
	for _, key := range sec.Keys() {
		opts.Raw[key.Name()] = key.ValueWithShadows()
	}

	opts.RootDir = sec.Key("rootdir").String()
	opts.DBPath = sec.Key("dbpath").String()
	opts.CacheDirs = shadowValues(sec, "cachedir")
	opts.Architectures = fieldValues(sec, keyArchitecture)
	opts.IgnorePkgs = fieldValues(sec, "ignorepkg")
	opts.HoldPkgs = fieldValues(sec, "holdpkg")
	if n, err := strconv.Atoi(sec.Key("paralleldownloads").String()); err == nil {
		opts.ParallelDownloads = n
	}
	return opts
}

func shadowValues(sec *ini.Section, key string) []string {
	if !sec.HasKey(key) {
		return nil
	}
	var out []string
	for _, v := range sec.Key(key).ValueWithShadows() {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// fieldValues splits every occurrence of a list directive on whitespace.
func fieldValues(sec *ini.Section, key string) []string {
	var out []string
	for _, v := range shadowValues(sec, key) {
		out = append(out, strings.Fields(v)...)
	}
	return out
}

func expandServer(server, repo, arch string) string {
	server = strings.ReplaceAll(server, "$repo", repo)
	return strings.ReplaceAll(server, "$arch", arch)
}
