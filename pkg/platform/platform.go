// Package platform probes the running system: machine architecture in pacman
// naming, the filesystem type backing a path, and process privileges.
package platform

import (
	"strings"

	"golang.org/x/sys/unix"
)

// ArchAuto is the pacman.conf Architecture value resolved from the running machine.
const ArchAuto = "auto"

// Overridable in tests.
var (
	uname   = unix.Uname
	statfs  = unix.Statfs
	geteuid = unix.Geteuid
)

// Machine returns the kernel's machine name (uname -m), normalized to pacman's
// architecture naming.
func Machine() string {
	var uts unix.Utsname
	if err := uname(&uts); err != nil {
		return "unknown"
	}
	return NormalizeArch(unix.ByteSliceToString(uts.Machine[:]))
}

// NormalizeArch maps Go and uname architecture spellings onto the names used in
// pacman repositories and mirror URLs.
func NormalizeArch(arch string) string {
	arch = strings.ToLower(strings.TrimSpace(arch))
	switch arch {
	case "amd64", "x64", "x86-64":
		return "x86_64"
	case "386", "x86", "i386", "i586":
		return "i686"
	case "arm64":
		return "aarch64"
	case "arm":
		return "armv7h"
	default:
		return arch
	}
}

// ResolveArchitectures replaces every "auto" entry with the running machine's
// architecture and removes duplicates while keeping order.
func ResolveArchitectures(archs []string) []string {
	out := make([]string, 0, len(archs))
	seen := make(map[string]struct{}, len(archs))
	for _, a := range archs {
		if strings.EqualFold(a, ArchAuto) {
			a = Machine()
		}
		if a == "" {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	if len(out) == 0 {
		out = append(out, Machine())
	}
	return out
}

// IsRoot reports whether the process runs with an effective uid of 0.
func IsRoot() bool {
	return geteuid() == 0
}
