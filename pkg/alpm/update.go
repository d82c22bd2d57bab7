package alpm

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

// DownloadRequest asks a Downloader to fetch one file from the first
// mirror that serves it.
type DownloadRequest struct {
	// Filename is the remote and local base name, e.g. "core.db".
	Filename string
	// URLs are tried in order.
	URLs []string
	// Dest is the directory the file is written to.
	Dest string
	// Force skips the freshness check against the local copy.
	Force bool
	// Progress receives byte counts while the body is copied.
	Progress func(downloaded, total int64)
	// Retry is called before falling back to the next URL.
	Retry func(url string, err error)
}

// Downloader fetches remote files for the handle.
type Downloader interface {
	// Download writes the file to req.Dest. It reports false when the local
	// copy was already current.
	Download(ctx context.Context, req DownloadRequest) (bool, error)
}

// UpdateDBs refreshes every sync database that has servers while holding
// the database lock. Databases are fetched concurrently; every failure is collected and the caches of all
// refreshed databases are dropped. With force set the local copies are
// always replaced.
func (h *Handle) UpdateDBs(ctx context.Context, dl Downloader, force bool) error {
	if dl == nil {
		return h.fail(newError(ErrnoWrongArgs, "db_update", nil))
	}

	var targets []*DB
	for _, db := range h.SyncDBs() {
		if len(db.Servers()) == 0 {
			h.logf(LogWarning, "no servers configured for repository: %s", db.name)
			continue
		}
		targets = append(targets, db)
	}
	if len(targets) == 0 {
		return h.fail(newError(ErrnoServerNone, "db_update", nil))
	}

	if err := h.lock(); err != nil {
		return h.fail(newError(ErrnoHandleLock, "db_update", err))
	}
	defer func() {
		if err := h.unlock(); err != nil {
			h.logf(LogWarning, "could not remove lock file %s", h.lockFile)
		}
	}()

	dest := filepath.Join(h.dbPath, "sync")
	errs := make([]error, len(targets))

	h.emit(Event{Type: EventRetrieveStart})
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.parallelism)
	for i, db := range targets {
		g.Go(func() error {
			filename := db.name + ".db"
			urls := make([]string, 0, len(db.Servers()))
			for _, s := range db.Servers() {
				urls = append(urls, strings.TrimRight(s, "/")+"/"+filename)
			}

			h.download(filename, DownloadEvent{Type: DownloadInit})
			updated, err := dl.Download(gctx, DownloadRequest{
				Filename: filename,
				URLs:     urls,
				Dest:     dest,
				Force:    force,
				Progress: func(downloaded, total int64) {
					h.download(filename, DownloadEvent{Type: DownloadProgress, Downloaded: downloaded, Total: total})
				},
				Retry: func(url string, err error) {
					h.logf(LogWarning, "failed retrieving file '%s' from %s : %v", filename, url, err)
					h.download(filename, DownloadEvent{Type: DownloadRetry})
				},
			})
			if err != nil {
				h.download(filename, DownloadEvent{Type: DownloadCompleted, Result: -1})
				errs[i] = fmt.Errorf("%s: %w", db.name, err)
				return nil
			}

			result := 1
			if updated {
				result = 0
			}
			h.download(filename, DownloadEvent{Type: DownloadCompleted, Result: result})
			db.Invalidate()
			return nil
		})
	}
	_ = g.Wait()

	var merr *multierror.Error
	for _, err := range errs {
		if err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	if err := merr.ErrorOrNil(); err != nil {
		h.emit(Event{Type: EventRetrieveFailed})
		return h.fail(newError(ErrnoRetrieve, "db_update", err))
	}
	h.emit(Event{Type: EventRetrieveDone})
	return nil
}
