package coordinator

import (
	"context"

	"github.com/cperrin88/kman/pkg/alpm"
	"github.com/cperrin88/kman/pkg/kernel"
)

// Database is the package database a coordinator drives: the catalog view
// plus the transaction protocol. *alpm.Handle implements it.
//
//go:generate mockgen -destination=./mocks/database.go -package=mocks . Database
type Database interface {
	kernel.Source

	TransInit(flags alpm.TransFlag) error
	AddPkg(pkg *alpm.Package) error
	RemovePkg(pkg *alpm.Package) error
	TransPrepare() ([]alpm.DepMissing, error)
	TransCommit(ctx context.Context) error
	TransRelease() error

	// Strerror renders the last failure recorded by the database.
	Strerror() string
	SetCallbacks(cb alpm.Callbacks)
	Close() error
}

// Opener opens a fresh Database, used to look at the system after a commit.
type Opener func() (Database, error)

// ExternalInstaller installs packages that no sync repository offers.
//
//go:generate mockgen -destination=./mocks/external.go -package=mocks . ExternalInstaller
type ExternalInstaller interface {
	Install(ctx context.Context, names []string) error
}

var _ Database = (*alpm.Handle)(nil)
