package alpm

import (
	"fmt"

	"github.com/cperrin88/kman/internal/logger"
)

// EventType identifies a transaction event.
type EventType int

// Events emitted while preparing and committing a transaction or refreshing
// sync databases.
const (
	EventCheckDepsStart EventType = iota + 1
	EventCheckDepsDone
	EventResolveDepsStart
	EventResolveDepsDone
	EventInterConflictsStart
	EventInterConflictsDone
	EventTransactionStart
	EventTransactionDone
	EventPackageOperationStart
	EventPackageOperationDone
	EventIntegrityStart
	EventIntegrityDone
	EventKeyringStart
	EventKeyringDone
	EventDiskSpaceStart
	EventDiskSpaceDone
	EventHookStart
	EventHookDone
	EventHookRunStart
	EventHookRunDone
	EventRetrieveStart
	EventRetrieveDone
	EventRetrieveFailed
	EventDatabaseMissing
	EventScriptletInfo
)

var eventText = map[EventType]string{
	EventCheckDepsStart:      "checking dependencies...",
	EventResolveDepsStart:    "resolving dependencies...",
	EventInterConflictsStart: "looking for conflicting packages...",
	EventTransactionStart:    "Processing package changes...",
	EventTransactionDone:     "transaction completed",
	EventIntegrityStart:      "checking package integrity...",
	EventKeyringStart:        "checking keyring...",
	EventDiskSpaceStart:      "checking available disk space...",
	EventHookStart:           "Running hooks...",
	EventRetrieveStart:       "Retrieving packages...",
	EventRetrieveDone:        "Packages retrieved",
	EventRetrieveFailed:      "failed to retrieve some files",
	EventDatabaseMissing:     "database file does not exist",
}

// PackageOperation is the kind of change applied to one package.
type PackageOperation int

// Package operations.
const (
	OperationInstall PackageOperation = iota + 1
	OperationUpgrade
	OperationReinstall
	OperationDowngrade
	OperationRemove
)

func (o PackageOperation) String() string {
	switch o {
	case OperationInstall:
		return "installing"
	case OperationUpgrade:
		return "upgrading"
	case OperationReinstall:
		return "reinstalling"
	case OperationDowngrade:
		return "downgrading"
	case OperationRemove:
		return "removing"
	default:
		return "processing"
	}
}

// Event is passed to the event callback.
type Event struct {
	Type      EventType
	Operation PackageOperation
	// Package is set for per-package events.
	Package string
	// Message carries scriptlet output, database names and failure details.
	Message string
}

// String renders the event as a status line.
func (e Event) String() string {
	switch e.Type {
	case EventPackageOperationStart:
		return fmt.Sprintf("%s %s...", e.Operation, e.Package)
	case EventDatabaseMissing:
		return fmt.Sprintf("database file for '%s' does not exist", e.Message)
	case EventScriptletInfo:
		return e.Message
	}
	if s, ok := eventText[e.Type]; ok {
		if e.Message != "" {
			return s + " " + e.Message
		}
		return s
	}
	return e.Message
}

// ProgressType identifies what a progress callback reports on.
type ProgressType int

// Progress kinds.
const (
	ProgressAddStart ProgressType = iota
	ProgressUpgradeStart
	ProgressDowngradeStart
	ProgressReinstallStart
	ProgressRemoveStart
	ProgressConflictsStart
	ProgressDiskSpaceStart
	ProgressIntegrityStart
	ProgressLoadStart
	ProgressKeyringStart
)

func progressFor(op PackageOperation) ProgressType {
	switch op {
	case OperationUpgrade:
		return ProgressUpgradeStart
	case OperationDowngrade:
		return ProgressDowngradeStart
	case OperationReinstall:
		return ProgressReinstallStart
	case OperationRemove:
		return ProgressRemoveStart
	default:
		return ProgressAddStart
	}
}

// Progress is passed to the progress callback.
type Progress struct {
	Type    ProgressType
	Package string
	Percent int
	// HowMany is the number of packages in the operation, Current the 1-based position.
	HowMany int
	Current int
}

// DownloadEventType identifies a download callback invocation.
type DownloadEventType int

// Download events.
const (
	DownloadInit DownloadEventType = iota
	DownloadProgress
	DownloadRetry
	DownloadCompleted
)

// DownloadEvent is passed to the download callback.
type DownloadEvent struct {
	Type DownloadEventType
	// Downloaded and Total are byte counts; Total is 0 when unknown.
	Downloaded int64
	Total      int64
	// Result is 0 on success, 1 when the file was already up to date and -1 on failure.
	Result int
}

// LogLevel is the severity passed to the log callback.
type LogLevel int

// Log levels.
const (
	LogError LogLevel = 1 << iota
	LogWarning
	LogDebug
	LogFunction
)

// Callbacks receive progress from the handle. Nil members are skipped; without
// a Log callback messages go to the process logger.
type Callbacks struct {
	Event    func(Event)
	Progress func(Progress)
	Download func(filename string, ev DownloadEvent)
	Log      func(level LogLevel, msg string)
}

// SetCallbacks installs the callback set used from now on.
func (h *Handle) SetCallbacks(cb Callbacks) {
	h.cbMu.Lock()
	defer h.cbMu.Unlock()
	h.cb = cb
}

func (h *Handle) callbacks() Callbacks {
	h.cbMu.RLock()
	defer h.cbMu.RUnlock()
	return h.cb
}

func (h *Handle) emit(ev Event) {
	if cb := h.callbacks().Event; cb != nil {
		cb(ev)
	}
}

func (h *Handle) progress(p Progress) {
	if cb := h.callbacks().Progress; cb != nil {
		cb(p)
	}
}

func (h *Handle) download(filename string, ev DownloadEvent) {
	if cb := h.callbacks().Download; cb != nil {
		cb(filename, ev)
	}
}

func (h *Handle) logf(level LogLevel, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if cb := h.callbacks().Log; cb != nil {
		cb(level, msg)
		return
	}
	switch level {
	case LogError:
		logger.Error(msg)
	case LogWarning:
		logger.Warn(msg)
	default:
		logger.Debug(msg)
	}
}
