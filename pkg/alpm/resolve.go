package alpm

import (
	"fmt"

	"github.com/cperrin88/kman/pkg/vercmp"
)

func vercmpEqual(a, b string) bool {
	return vercmp.Compare(a, b) == 0
}

// prepareAdd walks the dependencies of every install target. With AllDeps,
// missing dependencies are pulled from the sync databases and walked in turn.
// It also checks that upgrading a package keeps installed dependents happy.
func (h *Handle) prepareAdd(t *Trans) []DepMissing {
	installed := h.local.Packages()

	planned := make(map[string]*Package, len(t.add))
	for _, p := range t.add {
		planned[p.name] = p
	}
	plannedList := func() []*Package {
		out := make([]*Package, 0, len(planned))
		for _, p := range planned {
			out = append(out, p)
		}
		return out
	}

	var missing []DepMissing

	if t.flags&TransFlagAllDeps != 0 {
		h.emit(Event{Type: EventResolveDepsStart})
	}
	queue := append([]*Package(nil), t.add...)
	for i := 0; i < len(queue); i++ {
		pkg := queue[i]
		for _, dep := range pkg.depends {
			if satisfier(dep, plannedList()) != nil {
				continue
			}
			if lp := satisfier(dep, installed); lp != nil && planned[lp.name] == nil {
				continue
			}
			if t.flags&TransFlagAllDeps != 0 {
				if sp := h.findSatisfier(dep); sp != nil && planned[sp.name] == nil {
					planned[sp.name] = sp
					t.deps = append(t.deps, sp)
					queue = append(queue, sp)
					continue
				}
			}
			missing = append(missing, DepMissing{Target: pkg.name, Depend: dep})
		}
	}
	if t.flags&TransFlagAllDeps != 0 {
		h.emit(Event{Type: EventResolveDepsDone})
	}

	h.emit(Event{Type: EventCheckDepsStart})
	// installed packages whose dependencies were met by a package being replaced
	after := make([]*Package, 0, len(installed)+len(planned))
	for _, lp := range installed {
		if planned[lp.name] == nil {
			after = append(after, lp)
		}
	}
	after = append(after, plannedList()...)
	for _, lp := range installed {
		if planned[lp.name] != nil {
			continue
		}
		for _, dep := range lp.depends {
			if satisfier(dep, after) != nil {
				continue
			}
			if old := satisfier(dep, installed); old != nil && planned[old.name] != nil {
				next := planned[old.name]
				missing = append(missing, DepMissing{
					Target:         lp.name,
					Depend:         dep,
					CausingPkg:     old.name,
					Operation:      h.operationFor(next),
					CausingVersion: next.version,
				})
			}
		}
	}
	h.emit(Event{Type: EventCheckDepsDone})

	return missing
}

// prepareRemove makes sure no remaining package depends on a removal target.
// With AllDeps, dependencies installed only for the targets are removed too.
func (h *Handle) prepareRemove(t *Trans) []DepMissing {
	installed := h.local.Packages()
	removing := make(map[string]*Package, len(t.remove))
	for _, p := range t.remove {
		removing[p.name] = p
	}

	remaining := func() []*Package {
		out := make([]*Package, 0, len(installed))
		for _, lp := range installed {
			if removing[lp.name] == nil {
				out = append(out, lp)
			}
		}
		return out
	}

	if t.flags&TransFlagAllDeps != 0 {
		h.emit(Event{Type: EventResolveDepsStart})
		for changed := true; changed; {
			changed = false
			for _, p := range t.remove {
				for _, dep := range p.depends {
					lp := satisfier(dep, installed)
					if lp == nil || lp.reason != ReasonDepend || removing[lp.name] != nil {
						continue
					}
					if requiredBy(lp, remaining()) {
						continue
					}
					removing[lp.name] = lp
					t.remove = append(t.remove, lp)
					changed = true
				}
			}
		}
		h.emit(Event{Type: EventResolveDepsDone})
	}

	h.emit(Event{Type: EventCheckDepsStart})
	var missing []DepMissing
	left := remaining()
	for _, lp := range left {
		for _, dep := range lp.depends {
			if satisfier(dep, left) != nil {
				continue
			}
			for _, p := range t.remove {
				if dep.SatisfiedBy(p) {
					missing = append(missing, DepMissing{Target: lp.name, Depend: dep, CausingPkg: p.name, Operation: OperationRemove})
					break
				}
			}
		}
	}
	h.emit(Event{Type: EventCheckDepsDone})
	return missing
}

// requiredBy reports whether any of pkgs depends on p.
func requiredBy(p *Package, pkgs []*Package) bool {
	for _, q := range pkgs {
		if q == p {
			continue
		}
		for _, dep := range q.depends {
			if dep.SatisfiedBy(p) {
				return true
			}
		}
	}
	return false
}

// findSatisfier looks for dep in the sync databases: an exact name match
// first, then any provider, in repository order.
func (h *Handle) findSatisfier(dep Depend) *Package {
	syncs := h.SyncDBs()
	for _, db := range syncs {
		if p := db.Pkg(dep.Name); p != nil && dep.SatisfiedBy(p) {
			return p
		}
	}
	for _, db := range syncs {
		for _, p := range db.Packages() {
			if dep.SatisfiedBy(p) {
				return p
			}
		}
	}
	return nil
}

func (h *Handle) checkInterConflicts(t *Trans) error {
	h.emit(Event{Type: EventInterConflictsStart})
	defer h.emit(Event{Type: EventInterConflictsDone})

	all := append(append([]*Package(nil), t.add...), t.deps...)
	for _, a := range all {
		for _, c := range a.conflicts {
			for _, b := range all {
				if a == b || a.name == b.name {
					continue
				}
				if c.SatisfiedBy(b) {
					h.logf(LogError, "%s and %s are in conflict", a.name, b.name)
					return h.fail(newError(ErrnoConflictingDeps, "trans_prepare",
						fmt.Errorf("%s conflicts with %s", a.name, b.name)))
				}
			}
		}
	}
	return nil
}

// sortByDeps orders pkgs so every package follows the ones it depends on.
func sortByDeps(pkgs []*Package) []*Package {
	order := make([]*Package, 0, len(pkgs))
	seen := make(map[*Package]bool, len(pkgs))
	var visit func(p *Package)
	visit = func(p *Package) {
		if seen[p] {
			return
		}
		seen[p] = true
		for _, dep := range p.depends {
			if q := satisfier(dep, pkgs); q != nil {
				visit(q)
			}
		}
		order = append(order, p)
	}
	for _, p := range pkgs {
		visit(p)
	}
	return order
}
