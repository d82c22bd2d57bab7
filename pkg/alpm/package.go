package alpm

import (
	"strings"
	"time"
)

// Reason records why a local package was installed.
type Reason int

// Install reasons, as stored in the local database.
const (
	ReasonExplicit Reason = 0
	ReasonDepend   Reason = 1
)

// Package is an immutable package record owned by the database it was read
// from. Records are replaced, never modified, when a database is reloaded.
type Package struct {
	name        string
	version     string
	base        string
	desc        string
	arch        string
	url         string
	packager    string
	filename    string
	buildDate   time.Time
	installDate time.Time
	size        int64
	isize       int64
	reason      Reason
	licenses    []string
	groups      []string
	depends     []Depend
	optDepends  []Depend
	provides    []Depend
	conflicts   []Depend
	replaces    []Depend
	db          *DB
}

func (p *Package) Name() string              { return p.name }
func (p *Package) Version() string           { return p.version }
func (p *Package) Description() string       { return p.desc }
func (p *Package) Arch() string              { return p.arch }
func (p *Package) URL() string               { return p.url }
func (p *Package) Packager() string          { return p.packager }
func (p *Package) Filename() string          { return p.filename }
func (p *Package) BuildDate() time.Time      { return p.buildDate }
func (p *Package) InstallDate() time.Time    { return p.installDate }
func (p *Package) Size() int64               { return p.size }
func (p *Package) ISize() int64              { return p.isize }
func (p *Package) Reason() Reason            { return p.reason }
func (p *Package) Licenses() []string        { return p.licenses }
func (p *Package) Groups() []string          { return p.groups }
func (p *Package) Depends() []Depend         { return p.depends }
func (p *Package) OptionalDepends() []Depend { return p.optDepends }
func (p *Package) Provides() []Depend        { return p.provides }
func (p *Package) Conflicts() []Depend       { return p.conflicts }
func (p *Package) Replaces() []Depend        { return p.replaces }

// Base returns the pkgbase, falling back to the package name.
func (p *Package) Base() string {
	if p.base == "" {
		return p.name
	}
	return p.base
}

// DB returns the database the record belongs to.
func (p *Package) DB() *DB { return p.db }

// String renders "repo/name version".
func (p *Package) String() string {
	var sb strings.Builder
	if p.db != nil {
		sb.WriteString(p.db.name)
		sb.WriteByte('/')
	}
	sb.WriteString(p.name)
	sb.WriteByte(' ')
	sb.WriteString(p.version)
	return sb.String()
}
