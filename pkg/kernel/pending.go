package kernel

import (
	"slices"
	"sync"
)

// ChangeKind says which queue a Change goes to.
type ChangeKind int

// Change kinds.
const (
	ChangeInstall ChangeKind = iota + 1
	ChangeRemove
	ChangeExternalInstall
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeInstall:
		return "install"
	case ChangeRemove:
		return "remove"
	case ChangeExternalInstall:
		return "external install"
	default:
		return "none"
	}
}

// Change is a batch of package names headed for one queue, in order.
type Change struct {
	Kind  ChangeKind
	Names []string
}

// Empty reports whether the change carries no names.
func (c Change) Empty() bool { return len(c.Names) == 0 }

// Pending is a captured copy of the three queues.
type Pending struct {
	Install  []string
	Removal  []string
	External []string
}

// Empty reports whether nothing was queued.
func (p Pending) Empty() bool {
	return len(p.Install) == 0 && len(p.Removal) == 0 && len(p.External) == 0
}

// Names returns every queued name, installs first.
func (p Pending) Names() []string {
	out := make([]string, 0, len(p.Install)+len(p.Removal)+len(p.External))
	out = append(out, p.Install...)
	out = append(out, p.Removal...)
	return append(out, p.External...)
}

// PendingChanges stages install and removal intents until a commit cycle
// drains them. All methods are safe for concurrent use.
type PendingChanges struct {
	mu       sync.Mutex
	install  []string
	removal  []string
	external []string
}

// NewPendingChanges returns empty queues.
func NewPendingChanges() *PendingChanges {
	return &PendingChanges{}
}

var defaultPending = NewPendingChanges()

// Default returns the process-wide queues.
func Default() *PendingChanges { return defaultPending }

// Apply appends c to its queue.
func (q *PendingChanges) Apply(c Change) {
	switch c.Kind {
	case ChangeInstall:
		q.AppendInstall(c.Names...)
	case ChangeRemove:
		q.AppendRemoval(c.Names...)
	case ChangeExternalInstall:
		q.AppendExternal(c.Names...)
	}
}

// AppendInstall queues repository packages for installation.
func (q *PendingChanges) AppendInstall(names ...string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.install = append(q.install, names...)
}

// AppendRemoval queues installed packages for removal.
func (q *PendingChanges) AppendRemoval(names ...string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.removal = append(q.removal, names...)
}

// AppendExternal queues externally sourced packages for installation.
func (q *PendingChanges) AppendExternal(names ...string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.external = append(q.external, names...)
}

// InstallList returns a copy of the install queue.
func (q *PendingChanges) InstallList() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.install)
}

// RemovalList returns a copy of the removal queue.
func (q *PendingChanges) RemovalList() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.removal)
}

// ExternalList returns a copy of the external install queue.
func (q *PendingChanges) ExternalList() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.external)
}

// Snapshot copies all queues without clearing them.
func (q *PendingChanges) Snapshot() Pending {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Pending{
		Install:  slices.Clone(q.install),
		Removal:  slices.Clone(q.removal),
		External: slices.Clone(q.external),
	}
}

// Drain captures and clears all queues in one step.
func (q *PendingChanges) Drain() Pending {
	q.mu.Lock()
	defer q.mu.Unlock()
	p := Pending{Install: q.install, Removal: q.removal, External: q.external}
	q.install, q.removal, q.external = nil, nil, nil
	return p
}

// DropInstall removes names from the install queue, e.g. once a transaction
// applied them directly.
func (q *PendingChanges) DropInstall(names ...string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.install = without(q.install, names)
}

// DropRemoval removes names from the removal queue.
func (q *PendingChanges) DropRemoval(names ...string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.removal = without(q.removal, names)
}

// Clear empties all queues.
func (q *PendingChanges) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.install, q.removal, q.external = nil, nil, nil
}

func without(list, drop []string) []string {
	if len(list) == 0 {
		return nil
	}
	out := list[:0]
	for _, n := range list {
		if !slices.Contains(drop, n) {
			out = append(out, n)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
