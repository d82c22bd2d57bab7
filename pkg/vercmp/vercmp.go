// Package vercmp implements pacman's package version ordering.
//
// Versions have the form [epoch:]pkgver[-pkgrel]. Epochs compare first, then
// pkgver, then pkgrel when both sides carry one. Each part is compared segment
// by segment with the rpm algorithm: runs of digits compare numerically, runs
// of letters lexically, and a numeric segment always beats an alphabetic one.
package vercmp

import "strings"

// Compare returns -1 if a is older than b, 0 if they are equal and 1 if a is newer.
func Compare(a, b string) int {
	if a == b {
		return 0
	}
	e1, v1, r1 := parseEVR(a)
	e2, v2, r2 := parseEVR(b)

	ret := rpmvercmp(e1, e2)
	if ret == 0 {
		ret = rpmvercmp(v1, v2)
		if ret == 0 && r1 != "" && r2 != "" {
			ret = rpmvercmp(r1, r2)
		}
	}
	return ret
}

// Newer reports whether a sorts strictly after b.
func Newer(a, b string) bool {
	return Compare(a, b) > 0
}

// parseEVR splits "epoch:version-release". A missing epoch is "0"; a missing
// release is "".
func parseEVR(evr string) (epoch, version, release string) {
	i := 0
	for i < len(evr) && isDigit(evr[i]) {
		i++
	}
	rest := evr
	epoch = "0"
	if i < len(evr) && evr[i] == ':' {
		if i > 0 {
			epoch = evr[:i]
		}
		rest = evr[i+1:]
	}
	version = rest
	if dash := strings.LastIndexByte(rest, '-'); dash >= 0 {
		version = rest[:dash]
		release = rest[dash+1:]
	}
	return epoch, version, release
}

func rpmvercmp(a, b string) int {
	if a == b {
		return 0
	}

	one, two := 0, 0
	ptr1, ptr2 := 0, 0
	isnum := false

	for one < len(a) && two < len(b) {
		for one < len(a) && !isAlnum(a[one]) {
			one++
		}
		for two < len(b) && !isAlnum(b[two]) {
			two++
		}
		if one >= len(a) || two >= len(b) {
			break
		}

		// Differing separator lengths decide the comparison.
		if one-ptr1 != two-ptr2 {
			if one-ptr1 < two-ptr2 {
				return -1
			}
			return 1
		}

		ptr1, ptr2 = one, two
		if isDigit(a[ptr1]) {
			for ptr1 < len(a) && isDigit(a[ptr1]) {
				ptr1++
			}
			for ptr2 < len(b) && isDigit(b[ptr2]) {
				ptr2++
			}
			isnum = true
		} else {
			for ptr1 < len(a) && isAlpha(a[ptr1]) {
				ptr1++
			}
			for ptr2 < len(b) && isAlpha(b[ptr2]) {
				ptr2++
			}
			isnum = false
		}

		seg1, seg2 := a[one:ptr1], b[two:ptr2]
		if seg1 == "" {
			return -1
		}
		if seg2 == "" {
			if isnum {
				return 1
			}
			return -1
		}

		if isnum {
			seg1 = strings.TrimLeft(seg1, "0")
			seg2 = strings.TrimLeft(seg2, "0")
			if len(seg1) > len(seg2) {
				return 1
			}
			if len(seg2) > len(seg1) {
				return -1
			}
		}

		if c := strings.Compare(seg1, seg2); c != 0 {
			return c
		}

		one, two = ptr1, ptr2
	}

	if one >= len(a) && two >= len(b) {
		return 0
	}

	// A leftover alpha segment never beats an empty string.
	if (one >= len(a) && !isAlpha(b[two])) || (one < len(a) && isAlpha(a[one])) {
		return -1
	}
	return 1
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlpha(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

func isAlnum(c byte) bool { return isDigit(c) || isAlpha(c) }
