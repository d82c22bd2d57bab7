// Package download implements the HTTP side of database refreshes: mirror
// fallback, conditional requests and atomic replacement of local copies.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cperrin88/kman/internal/logger"
	"github.com/cperrin88/kman/pkg/alpm"
	pkgerrors "github.com/cperrin88/kman/pkg/errors"
	"github.com/cperrin88/kman/pkg/fsutil"
	"github.com/hashicorp/go-multierror"
)

// DefaultUserAgent is sent when none is configured.
const DefaultUserAgent = "kman/1.0"

// ManagerImpl downloads over HTTP with one client shared by all requests.
type ManagerImpl struct {
	client    *http.Client
	userAgent string
}

// NewManager creates a new download manager with the given timeout and user agent.
func NewManager(timeout time.Duration, userAgent string) *ManagerImpl {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &ManagerImpl{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Download implements alpm.Downloader. Unless req.Force is set, the
// modification time of the existing file is sent as If-Modified-Since and a
// 304 answer leaves the file alone.
func (m *ManagerImpl) Download(ctx context.Context, req alpm.DownloadRequest) (bool, error) {
	if req.Filename == "" || req.Dest == "" || !filepath.IsAbs(req.Dest) {
		return false, fmt.Errorf("download dest must be absolute: %w: %q", pkgerrors.ErrInvalidPath, req.Dest)
	}
	if len(req.URLs) == 0 {
		return false, fmt.Errorf("%s: no mirrors: %w", req.Filename, pkgerrors.ErrDownloadFailed)
	}
	if err := fsutil.EnsureDir(req.Dest); err != nil {
		return false, pkgerrors.Wrap(err, "could not create download dir")
	}

	absPath := filepath.Join(req.Dest, req.Filename)
	var since time.Time
	if !req.Force {
		if st, err := os.Stat(absPath); err == nil && st.Size() > 0 {
			since = st.ModTime()
		}
	}

	var errs *multierror.Error
	for _, u := range req.URLs {
		updated, err := m.fetchOne(ctx, u, absPath, since, req.Progress)
		if err == nil {
			return updated, nil
		}
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		logger.Debug("mirror failed", logger.Fields{"url": u, "error": err})
		errs = multierror.Append(errs, fmt.Errorf("%s: %w", u, err))
		if req.Retry != nil {
			req.Retry(u, err)
		}
	}
	return false, fmt.Errorf("%s: %w: %w", req.Filename, pkgerrors.ErrDownloadFailed, errs.ErrorOrNil())
}

func (m *ManagerImpl) fetchOne(ctx context.Context, url, absPath string, since time.Time, progress func(int64, int64)) (bool, error) {
	resp, err := m.doRequest(ctx, url, since)
	if err != nil {
		return false, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotModified {
		return false, nil
	}

	tmpPath, err := writeBodyToTemp(resp, absPath, progress)
	if err != nil {
		return false, err
	}
	if err := finalizeFile(tmpPath, absPath, resp.Header.Get("Last-Modified")); err != nil {
		_ = os.Remove(tmpPath)
		return false, err
	}
	return true, nil
}

func (m *ManagerImpl) doRequest(ctx context.Context, url string, since time.Time) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", m.userAgent)
	if !since.IsZero() {
		req.Header.Set("If-Modified-Since", since.UTC().Format(http.TimeFormat))
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "download failed")
	}
	switch resp.StatusCode {
	case http.StatusOK, http.StatusNotModified:
		return resp, nil
	default:
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d: %w", resp.StatusCode, pkgerrors.ErrDownloadFailed)
	}
}

// progressReader reports the running byte count after every read.
type progressReader struct {
	r     io.Reader
	n     int64
	total int64
	fn    func(int64, int64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.n += int64(n)
	if n > 0 {
		p.fn(p.n, p.total)
	}
	return n, err
}

func writeBodyToTemp(resp *http.Response, absPath string, progress func(int64, int64)) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(absPath), "dl-*.part")
	if err != nil {
		return "", pkgerrors.Wrap(err, "could not create temp file")
	}
	tmpPath := tmp.Name()

	var body io.Reader = resp.Body
	if progress != nil {
		total := resp.ContentLength
		if total < 0 {
			total = 0
		}
		body = &progressReader{r: resp.Body, total: total, fn: progress}
	}

	if _, err := io.Copy(tmp, body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", pkgerrors.Wrap(err, "could not write file")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", pkgerrors.Wrap(err, "could not sync file")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", pkgerrors.Wrap(err, "could not close file")
	}
	return tmpPath, nil
}

func finalizeFile(tmpPath, absPath, lastModified string) error {
	if err := os.Chmod(tmpPath, fsutil.FileModeDefault); err != nil {
		return pkgerrors.Wrap(err, "could not set permissions")
	}
	if lastModified != "" {
		if t, err := http.ParseTime(lastModified); err == nil {
			_ = os.Chtimes(tmpPath, t, t)
		}
	}
	if err := fsutil.Move(tmpPath, absPath); err != nil {
		return pkgerrors.Wrap(err, "could not finalize file")
	}
	return nil
}
