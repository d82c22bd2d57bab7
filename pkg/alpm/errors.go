package alpm

import (
	"errors"
	"fmt"
)

// Errno is a package database error code.
type Errno int

// Error codes. The set and their wording follow libalpm so messages read the
// same as pacman's.
const (
	ErrnoOK Errno = iota
	ErrnoMemory
	ErrnoSystem
	ErrnoBadPerms
	ErrnoNotAFile
	ErrnoNotADir
	ErrnoWrongArgs
	ErrnoDiskSpace
	ErrnoHandleNull
	ErrnoHandleNotNull
	ErrnoHandleLock
	ErrnoDBOpen
	ErrnoDBCreate
	ErrnoDBNull
	ErrnoDBNotNull
	ErrnoDBNotFound
	ErrnoDBInvalid
	ErrnoDBVersion
	ErrnoDBWrite
	ErrnoDBRemove
	ErrnoServerBadURL
	ErrnoServerNone
	ErrnoTransNotNull
	ErrnoTransNull
	ErrnoTransDupTarget
	ErrnoTransNotInitialized
	ErrnoTransNotPrepared
	ErrnoTransAbort
	ErrnoTransType
	ErrnoTransNotLocked
	ErrnoTransHookFailed
	ErrnoPkgNotFound
	ErrnoPkgIgnored
	ErrnoPkgInvalid
	ErrnoPkgInvalidArch
	ErrnoInvalidRegex
	ErrnoUnsatisfiedDeps
	ErrnoConflictingDeps
	ErrnoFileConflicts
	ErrnoRetrieve
	ErrnoExternalCommand
)

var errnoText = map[Errno]string{
	ErrnoOK:                  "no error",
	ErrnoMemory:              "out of memory!",
	ErrnoSystem:              "unexpected system error",
	ErrnoBadPerms:            "permission denied",
	ErrnoNotAFile:            "could not find or read file",
	ErrnoNotADir:             "could not find or read directory",
	ErrnoWrongArgs:           "wrong or NULL argument passed",
	ErrnoDiskSpace:           "not enough free disk space",
	ErrnoHandleNull:          "library not initialized",
	ErrnoHandleNotNull:       "library already initialized",
	ErrnoHandleLock:          "unable to lock database",
	ErrnoDBOpen:              "could not open database",
	ErrnoDBCreate:            "could not create database",
	ErrnoDBNull:              "database not initialized",
	ErrnoDBNotNull:           "database already registered",
	ErrnoDBNotFound:          "could not find database",
	ErrnoDBInvalid:           "invalid or corrupted database",
	ErrnoDBVersion:           "database is incorrect version",
	ErrnoDBWrite:             "could not update database",
	ErrnoDBRemove:            "could not remove database entry",
	ErrnoServerBadURL:        "invalid url for server",
	ErrnoServerNone:          "no servers configured for repository",
	ErrnoTransNotNull:        "transaction already initialized",
	ErrnoTransNull:           "transaction not initialized",
	ErrnoTransDupTarget:      "duplicate target",
	ErrnoTransNotInitialized: "transaction not initialized",
	ErrnoTransNotPrepared:    "transaction not prepared",
	ErrnoTransAbort:          "transaction aborted",
	ErrnoTransType:           "operation not compatible with the transaction type",
	ErrnoTransNotLocked:      "transaction commit attempt when database is not locked",
	ErrnoTransHookFailed:     "failed to run transaction hooks",
	ErrnoPkgNotFound:         "could not find or read package",
	ErrnoPkgIgnored:          "operation cancelled due to ignorepkg",
	ErrnoPkgInvalid:          "invalid or corrupted package",
	ErrnoPkgInvalidArch:      "package architecture is not valid",
	ErrnoInvalidRegex:        "invalid regular expression",
	ErrnoUnsatisfiedDeps:     "could not satisfy dependencies",
	ErrnoConflictingDeps:     "conflicting dependencies",
	ErrnoFileConflicts:       "conflicting files",
	ErrnoRetrieve:            "failed to retrieve some files",
	ErrnoExternalCommand:     "error invoking the package manager",
}

// Strerror renders an error code as text.
func Strerror(code Errno) string {
	if s, ok := errnoText[code]; ok {
		return s
	}
	return "unexpected error"
}

// String implements fmt.Stringer.
func (e Errno) String() string {
	return Strerror(e)
}

// Error is returned by every fallible Handle operation.
type Error struct {
	Code Errno
	// Op names the failing call, e.g. "trans_init".
	Op string
	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	msg := Strerror(e.Code)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += fmt.Sprintf(" (%v)", e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// ErrnoOf extracts the error code carried by err, ErrnoOK for nil and
// ErrnoSystem for foreign errors.
func ErrnoOf(err error) Errno {
	if err == nil {
		return ErrnoOK
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ErrnoSystem
}

func newError(code Errno, op string, cause error) *Error {
	return &Error{Code: code, Op: op, Err: cause}
}
