package kernel

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/cperrin88/kman/internal/logger"
	"github.com/cperrin88/kman/pkg/alpm"
	pkgerrors "github.com/cperrin88/kman/pkg/errors"
)

const (
	// HeadersPattern finds kernel headers packages in a repository.
	HeadersPattern = `^linux.*-headers$`
	// APIHeaders matches HeadersPattern but is the userspace API package.
	APIHeaders = "linux-api-headers"
	// CachyOSPrefix marks kernels that ship a matching zfs module package.
	CachyOSPrefix = "linux-cachyos"
)

var headersRE = regexp.MustCompile(HeadersPattern)

func isKernelHeaders(name string) bool {
	return name != APIHeaders && headersRE.MatchString(name)
}

// Entry is the identity of a catalog kernel, used to compare catalogs.
type Entry struct {
	Raw            string
	Repo           string
	Installed      bool
	HeadersPresent bool
}

// Catalog is the set of kernels of one database snapshot, in repository order.
type Catalog struct {
	kernels []*Kernel
	byRaw   map[string]*Kernel
	byName  map[string]*Kernel
}

type catalogOptions struct {
	external ExternalSource
	zfs      func() bool
}

// CatalogOption configures BuildCatalog.
type CatalogOption func(*catalogOptions)

// WithExternal merges kernels offered by an external source such as an AUR helper.
func WithExternal(src ExternalSource) CatalogOption {
	return func(o *catalogOptions) { o.external = src }
}

// WithZFSProbe sets how kernels find out whether the root filesystem is zfs.
func WithZFSProbe(fn func() bool) CatalogOption {
	return func(o *catalogOptions) { o.zfs = fn }
}

// BuildCatalog collects every kernel with a headers package from the sync
// databases of src, records the origin of installed copies and, when
// configured, appends external kernels not already offered by a
// repository. An empty result is returned together with ErrEmptyCatalog.
func BuildCatalog(ctx context.Context, src Source, opts ...CatalogOption) (*Catalog, error) {
	o := catalogOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Catalog{byRaw: map[string]*Kernel{}, byName: map[string]*Kernel{}}
	local := src.LocalDB()

	for _, db := range src.SyncDBs() {
		matches, err := db.Search(HeadersPattern)
		if err != nil {
			logger.Warn("searching repository failed", logger.Fields{"repo": db.Name(), "error": err})
			continue
		}
		for _, headers := range matches {
			if !isKernelHeaders(headers.Name()) {
				continue
			}
			base := strings.TrimSuffix(headers.Name(), HeadersSuffix)
			pkg := db.Pkg(base)
			if pkg == nil {
				logger.Debug("headers without kernel", logger.Fields{"repo": db.Name(), "headers": headers.Name()})
				continue
			}

			k := newKernel(src, pkg, headers, db.Name(), db.Name()+"/"+base)
			k.zfs = o.zfs
			if lp := local.Pkg(base); lp != nil {
				k.setInstalledDB(src.Origin(lp))
			}
			if strings.HasPrefix(base, CachyOSPrefix) {
				k.module = db.Pkg(base + ModuleSuffix)
			}
			c.add(k)
		}
	}

	if o.external != nil && o.external.Available() {
		c.mergeExternal(ctx, src, o.external)
	}

	if c.Len() == 0 {
		return c, pkgerrors.ErrEmptyCatalog
	}
	logger.Debug("catalog built", logger.Fields{"kernels": c.Len()})
	return c, nil
}

func (c *Catalog) mergeExternal(ctx context.Context, src Source, ext ExternalSource) {
	names, err := ext.KernelHeaders(ctx)
	if err != nil {
		logger.Warn("external kernels unavailable", logger.Fields{"error": err})
		return
	}
	for _, headers := range names {
		if !isKernelHeaders(headers) {
			continue
		}
		base := strings.TrimSuffix(headers, HeadersSuffix)
		if _, ok := c.byName[base]; ok {
			continue
		}
		k := newExternal(src, base)
		if lp := src.LocalDB().Pkg(base); lp != nil {
			k.setInstalledDB(src.Origin(lp))
		}
		c.add(k)
	}
}

func (c *Catalog) add(k *Kernel) {
	if _, ok := c.byRaw[k.raw]; ok {
		return
	}
	c.kernels = append(c.kernels, k)
	c.byRaw[k.raw] = k
	if _, ok := c.byName[k.name]; !ok {
		c.byName[k.name] = k
	}
}

// Len is the number of kernels.
func (c *Catalog) Len() int { return len(c.kernels) }

// Kernels returns the kernels in catalog order.
func (c *Catalog) Kernels() []*Kernel {
	return append([]*Kernel(nil), c.kernels...)
}

// Find returns the kernel with the given "repo/name" identifier.
func (c *Catalog) Find(raw string) *Kernel {
	return c.byRaw[raw]
}

// FindName returns the first kernel with the given package name.
func (c *Catalog) FindName(name string) *Kernel {
	return c.byName[name]
}

// Installed returns the installed kernels in catalog order.
func (c *Catalog) Installed() []*Kernel {
	var out []*Kernel
	for _, k := range c.kernels {
		if k.IsInstalled() {
			out = append(out, k)
		}
	}
	return out
}

// Snapshot returns the identity of every kernel in catalog order.
func (c *Catalog) Snapshot() []Entry {
	out := make([]Entry, 0, len(c.kernels))
	for _, k := range c.kernels {
		out = append(out, Entry{
			Raw:            k.raw,
			Repo:           k.repo,
			Installed:      k.IsInstalled(),
			HeadersPresent: k.headers != nil,
		})
	}
	return out
}

// BySeries returns the kernels ordered by upstream series, newest first.
// Kernels of the same series keep catalog order; unknown versions go last.
func (c *Catalog) BySeries() []*Kernel {
	out := c.Kernels()
	sort.SliceStable(out, func(i, j int) bool {
		vi, vj := out[i].seriesVersion(), out[j].seriesVersion()
		switch {
		case vi == nil:
			return false
		case vj == nil:
			return true
		}
		si, sj := vi.Segments(), vj.Segments()
		if si[0] != sj[0] {
			return si[0] > sj[0]
		}
		return si[1] > sj[1]
	})
	return out
}

// Resolve maps raw identifiers onto catalog kernels. Unknown identifiers
// are returned separately.
func (c *Catalog) Resolve(raws []string) (found []*Kernel, unknown []string) {
	for _, raw := range raws {
		if k := c.Find(raw); k != nil {
			found = append(found, k)
			continue
		}
		unknown = append(unknown, raw)
	}
	return found, unknown
}

var _ Source = (*alpm.Handle)(nil)
