package alpm

import (
	"fmt"
	"strings"

	"github.com/cperrin88/kman/pkg/vercmp"
)

// DepMod is the version comparison attached to a dependency.
type DepMod int

// Dependency modifiers.
const (
	DepModAny DepMod = iota
	DepModEQ
	DepModGE
	DepModLE
	DepModGT
	DepModLT
)

var depModText = map[DepMod]string{
	DepModEQ: "=",
	DepModGE: ">=",
	DepModLE: "<=",
	DepModGT: ">",
	DepModLT: "<",
}

// Depend is a parsed dependency string such as "linux-api-headers>=6.1".
type Depend struct {
	Name    string
	Version string
	Mod     DepMod
	// Desc is the optional-dependency description after ": ".
	Desc string
}

// ParseDepend parses "name[op version][: description]".
func ParseDepend(s string) Depend {
	var d Depend
	if i := strings.Index(s, ": "); i >= 0 {
		d.Desc = strings.TrimSpace(s[i+2:])
		s = s[:i]
	}
	s = strings.TrimSpace(s)

	// two-character operators first
	for _, op := range []struct {
		text string
		mod  DepMod
	}{
		{">=", DepModGE},
		{"<=", DepModLE},
		{"=", DepModEQ},
		{">", DepModGT},
		{"<", DepModLT},
	} {
		if i := strings.Index(s, op.text); i > 0 {
			d.Name = s[:i]
			d.Version = s[i+len(op.text):]
			d.Mod = op.mod
			return d
		}
	}
	d.Name = s
	return d
}

// String renders the dependency the way pacman prints it.
func (d Depend) String() string {
	if d.Mod == DepModAny {
		return d.Name
	}
	return d.Name + depModText[d.Mod] + d.Version
}

func (d Depend) versionMatches(version string) bool {
	if d.Mod == DepModAny {
		return true
	}
	// A provision without version only satisfies unversioned dependencies.
	if version == "" {
		return false
	}
	cmp := vercmp.Compare(version, d.Version)
	switch d.Mod {
	case DepModEQ:
		return cmp == 0
	case DepModGE:
		return cmp >= 0
	case DepModLE:
		return cmp <= 0
	case DepModGT:
		return cmp > 0
	case DepModLT:
		return cmp < 0
	default:
		return false
	}
}

// SatisfiedBy reports whether pkg fulfils d, by name or through its provides.
func (d Depend) SatisfiedBy(pkg *Package) bool {
	if pkg == nil {
		return false
	}
	if pkg.name == d.Name && d.versionMatches(pkg.version) {
		return true
	}
	for _, prov := range pkg.provides {
		if prov.Name != d.Name {
			continue
		}
		if d.Mod == DepModAny || (prov.Mod == DepModEQ && d.versionMatches(prov.Version)) {
			return true
		}
	}
	return false
}

// DepMissing describes a dependency a transaction would leave unsatisfied.
type DepMissing struct {
	// Target is the package whose dependency is broken.
	Target string
	Depend Depend
	// CausingPkg is the package whose removal or replacement breaks it;
	// empty when a new package lacks a dependency.
	CausingPkg string
	// Operation is what happens to CausingPkg.
	Operation PackageOperation
	// CausingVersion is the incoming version when CausingPkg is replaced.
	CausingVersion string
}

func (m DepMissing) String() string {
	switch {
	case m.CausingPkg == "":
		return fmt.Sprintf("unable to satisfy dependency '%s' required by %s", m.Depend, m.Target)
	case m.Operation == OperationRemove:
		return fmt.Sprintf("removing %s breaks dependency '%s' required by %s", m.CausingPkg, m.Depend, m.Target)
	default:
		return fmt.Sprintf("installing %s (%s) breaks dependency '%s' required by %s", m.CausingPkg, m.CausingVersion, m.Depend, m.Target)
	}
}

func satisfier(dep Depend, pkgs []*Package) *Package {
	for _, p := range pkgs {
		if dep.SatisfiedBy(p) {
			return p
		}
	}
	return nil
}

func parseDepends(list []string) []Depend {
	if len(list) == 0 {
		return nil
	}
	out := make([]Depend, 0, len(list))
	for _, s := range list {
		out = append(out, ParseDepend(s))
	}
	return out
}
