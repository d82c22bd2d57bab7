package platform

import "golang.org/x/sys/unix"

// FSType is a filesystem name as reported by the kernel superblock magic.
type FSType string

// Filesystems distinguished by the kernel manager.
const (
	FSUnknown  FSType = "unknown"
	FSExt4     FSType = "ext4"
	FSBtrfs    FSType = "btrfs"
	FSXFS      FSType = "xfs"
	FSZFS      FSType = "zfs"
	FSTmpfs    FSType = "tmpfs"
	FSF2FS     FSType = "f2fs"
	FSBcachefs FSType = "bcachefs"
)

// Superblock magics from linux/magic.h; zfs and bcachefs are out of tree.
const (
	magicExt4     = 0xef53
	magicBtrfs    = 0x9123683e
	magicXFS      = 0x58465342
	magicZFS      = 0x2fc12fc1
	magicTmpfs    = 0x01021994
	magicF2FS     = 0xf2f52010
	magicBcachefs = 0xca451a4e
)

var magics = map[int64]FSType{
	magicExt4:     FSExt4,
	magicBtrfs:    FSBtrfs,
	magicXFS:      FSXFS,
	magicZFS:      FSZFS,
	magicTmpfs:    FSTmpfs,
	magicF2FS:     FSF2FS,
	magicBcachefs: FSBcachefs,
}

// Filesystem returns the type of the filesystem mounted at path.
func Filesystem(path string) (FSType, error) {
	var st unix.Statfs_t
	if err := statfs(path, &st); err != nil {
		return FSUnknown, err
	}
	if t, ok := magics[int64(st.Type)]; ok { //nolint:unconvert // Type width differs per arch
		return t, nil
	}
	return FSUnknown, nil
}

// RootIsZFS reports whether root is on zfs. Probe errors count as "no".
func RootIsZFS(root string) bool {
	t, err := Filesystem(root)
	return err == nil && t == FSZFS
}
