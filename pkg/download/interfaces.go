package download

import (
	"context"

	"github.com/cperrin88/kman/pkg/alpm"
)

// Manager fetches sync databases and other repository files from a mirror list.
type Manager interface {
	// Download tries every URL of req in order and writes the first good
	// response to req.Dest. It reports false when the local copy is still
	// current and nothing was written.
	Download(ctx context.Context, req alpm.DownloadRequest) (bool, error)
}

var _ alpm.Downloader = (*ManagerImpl)(nil)
