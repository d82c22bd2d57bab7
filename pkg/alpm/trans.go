package alpm

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"strconv"
)

// TransFlag modifies how a transaction resolves and applies its targets.
type TransFlag uint32

// Transaction flags. Bit positions match libalpm.
const (
	// TransFlagNoDeps skips dependency checks entirely.
	TransFlagNoDeps TransFlag = 1 << 0
	// TransFlagAllDeps lets the transaction follow the dependency closure:
	// installs pull unsatisfied dependencies from the sync databases, removals
	// take along dependencies nothing else needs any more. libalpm uses this
	// bit to mark every package as a dependency instead.
	TransFlagAllDeps TransFlag = 1 << 8
	// TransFlagNeeded skips install targets that are already up to date.
	TransFlagNeeded TransFlag = 1 << 13
	// TransFlagAllExplicit records install targets as explicitly installed.
	TransFlagAllExplicit TransFlag = 1 << 14
)

type transState int

const (
	transInitialized transState = iota
	transPrepared
	transCommitting
	transCommitted
	transInterrupted
)

// Trans is the single open transaction of a Handle. It is never reused:
// every TransInit starts a fresh one and TransRelease drops it.
type Trans struct {
	flags  TransFlag
	state  transState
	add    []*Package
	deps   []*Package
	remove []*Package
}

// TransInit opens a transaction and takes the database lock.
func (h *Handle) TransInit(flags TransFlag) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.trans != nil {
		return h.fail(newError(ErrnoTransNotNull, "trans_init", nil))
	}
	if err := h.lock(); err != nil {
		return h.fail(newError(ErrnoHandleLock, "trans_init", err))
	}
	h.trans = &Trans{flags: flags, state: transInitialized}
	return nil
}

// TransFlags returns the flags of the open transaction.
func (h *Handle) TransFlags() (TransFlag, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.trans == nil {
		return 0, h.fail(newError(ErrnoTransNull, "trans_get_flags", nil))
	}
	return h.trans.flags, nil
}

// AddPkg adds a sync package as an install target.
func (h *Handle) AddPkg(pkg *Package) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	t, err := h.openTrans("add_pkg")
	if err != nil {
		return err
	}
	if pkg == nil || pkg.db == nil || pkg.db.local {
		return h.fail(newError(ErrnoWrongArgs, "add_pkg", stderrors.New("target must come from a sync database")))
	}
	if len(t.remove) > 0 {
		return h.fail(newError(ErrnoTransType, "add_pkg", nil))
	}
	for _, p := range t.add {
		if p.name == pkg.name {
			return h.fail(newError(ErrnoTransDupTarget, "add_pkg", stderrors.New(pkg.name)))
		}
	}
	if t.flags&TransFlagNeeded != 0 {
		if lp := h.local.Pkg(pkg.name); lp != nil && vercmpEqual(lp.version, pkg.version) {
			h.logf(LogWarning, "%s-%s is up to date -- skipping", pkg.name, pkg.version)
			return nil
		}
	}
	t.add = append(t.add, pkg)
	return nil
}

// RemovePkg adds an installed package as a removal target.
func (h *Handle) RemovePkg(pkg *Package) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	t, err := h.openTrans("remove_pkg")
	if err != nil {
		return err
	}
	if pkg == nil || pkg.db == nil || !pkg.db.local {
		return h.fail(newError(ErrnoWrongArgs, "remove_pkg", stderrors.New("target must come from the local database")))
	}
	if len(t.add) > 0 {
		return h.fail(newError(ErrnoTransType, "remove_pkg", nil))
	}
	for _, p := range t.remove {
		if p.name == pkg.name {
			return h.fail(newError(ErrnoTransDupTarget, "remove_pkg", stderrors.New(pkg.name)))
		}
	}
	t.remove = append(t.remove, pkg)
	return nil
}

func (h *Handle) openTrans(op string) (*Trans, error) {
	if h.trans == nil {
		return nil, h.fail(newError(ErrnoTransNull, op, nil))
	}
	if h.trans.state != transInitialized {
		return nil, h.fail(newError(ErrnoTransNotInitialized, op, nil))
	}
	return h.trans, nil
}

// TransPrepare resolves and checks the targets. When dependencies would be
// left unsatisfied it fails with ErrnoUnsatisfiedDeps and returns one
// DepMissing per broken dependency.
func (h *Handle) TransPrepare() ([]DepMissing, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	t, err := h.openTrans("trans_prepare")
	if err != nil {
		return nil, err
	}
	if len(t.add) == 0 && len(t.remove) == 0 {
		t.state = transPrepared
		return nil, nil
	}

	var missing []DepMissing
	if t.flags&TransFlagNoDeps == 0 {
		if len(t.add) > 0 {
			missing = h.prepareAdd(t)
		} else {
			missing = h.prepareRemove(t)
		}
	}
	if len(missing) > 0 {
		return missing, h.fail(newError(ErrnoUnsatisfiedDeps, "trans_prepare", nil))
	}

	if len(t.add) > 0 {
		if err := h.checkInterConflicts(t); err != nil {
			return nil, err
		}
	}

	t.state = transPrepared
	return nil, nil
}

// TransAdd lists the packages the prepared transaction installs, dependencies first.
func (h *Handle) TransAdd() []*Package {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.trans == nil {
		return nil
	}
	return sortByDeps(append(append([]*Package(nil), h.trans.deps...), h.trans.add...))
}

// TransRemove lists the packages the prepared transaction removes.
func (h *Handle) TransRemove() []*Package {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.trans == nil {
		return nil
	}
	return append([]*Package(nil), h.trans.remove...)
}

// TransCommit applies a prepared transaction through the Committer. The
// database lock is handed to the committing process for the duration.
// Callbacks run while the handle is busy and must not call back into it.
func (h *Handle) TransCommit(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	t := h.trans
	if t == nil {
		return h.fail(newError(ErrnoTransNull, "trans_commit", nil))
	}
	if t.state != transPrepared {
		return h.fail(newError(ErrnoTransNotPrepared, "trans_commit", nil))
	}
	if _, err := os.Stat(h.lockFile); err != nil {
		return h.fail(newError(ErrnoTransNotLocked, "trans_commit", nil))
	}
	if len(t.add) == 0 && len(t.remove) == 0 {
		t.state = transCommitted
		return nil
	}

	type step struct {
		pkg string
		op  PackageOperation
	}
	var steps []step
	req := CommitRequest{
		Root:       h.root,
		DBPath:     h.dbPath,
		ConfigFile: h.configFile,
		CacheDirs:  h.cacheDirs,
		AsExplicit: t.flags&TransFlagAllExplicit != 0,
		Needed:     t.flags&TransFlagNeeded != 0,
	}
	if len(t.add) > 0 {
		for _, p := range sortByDeps(append(append([]*Package(nil), t.deps...), t.add...)) {
			steps = append(steps, step{pkg: p.name, op: h.operationFor(p)})
		}
		for _, p := range t.add {
			req.Install = append(req.Install, p.db.name+"/"+p.name)
		}
	} else {
		for _, p := range t.remove {
			steps = append(steps, step{pkg: p.name, op: OperationRemove})
			req.Remove = append(req.Remove, p.name)
		}
	}

	h.emit(Event{Type: EventTransactionStart})
	for i, s := range steps {
		h.emit(Event{Type: EventPackageOperationStart, Operation: s.op, Package: s.pkg})
		h.progress(Progress{Type: progressFor(s.op), Package: s.pkg, Percent: 0, HowMany: len(steps), Current: i + 1})
	}

	t.state = transCommitting
	h.unlock()

	err := h.committer.Commit(ctx, req, func(line string) {
		h.emit(Event{Type: EventScriptletInfo, Message: line})
	})
	// whatever happened, the local database changed underneath us
	h.local.Invalidate()

	if err != nil {
		t.state = transInterrupted
		return h.fail(newError(ErrnoExternalCommand, "trans_commit", err))
	}

	for i, s := range steps {
		h.progress(Progress{Type: progressFor(s.op), Package: s.pkg, Percent: 100, HowMany: len(steps), Current: i + 1})
		h.emit(Event{Type: EventPackageOperationDone, Operation: s.op, Package: s.pkg})
	}
	t.state = transCommitted
	h.emit(Event{Type: EventTransactionDone})
	return nil
}

// TransRelease drops the transaction and the database lock. It is safe to
// call after any outcome of prepare or commit.
func (h *Handle) TransRelease() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.trans == nil {
		return h.fail(newError(ErrnoTransNull, "trans_release", nil))
	}
	h.trans = nil
	if err := h.unlock(); err != nil {
		h.logf(LogWarning, "could not remove lock file %s", h.lockFile)
		return h.fail(newError(ErrnoSystem, "trans_release", err))
	}
	return nil
}

func (h *Handle) lock() error {
	f, err := os.OpenFile(h.lockFile, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	_, werr := fmt.Fprintln(f, strconv.Itoa(os.Getpid()))
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	return werr
}

func (h *Handle) unlock() error {
	if err := os.Remove(h.lockFile); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (h *Handle) operationFor(p *Package) PackageOperation {
	lp := h.local.Pkg(p.name)
	if lp == nil {
		return OperationInstall
	}
	switch cmp := h.Vercmp(p.version, lp.version); {
	case cmp > 0:
		return OperationUpgrade
	case cmp < 0:
		return OperationDowngrade
	default:
		return OperationReinstall
	}
}
