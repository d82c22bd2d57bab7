package alpm

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"
)

// parseDesc reads the %FIELD% blocks of a desc (or legacy depends) file into pkg.
// Unknown fields are ignored.
func parseDesc(r io.Reader, pkg *Package) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var field string
	var values []string

	flush := func() {
		if field != "" {
			applyField(pkg, field, values)
		}
		field, values = "", nil
	}

	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		switch {
		case line == "":
			flush()
		case field == "" && len(line) > 2 && line[0] == '%' && line[len(line)-1] == '%':
			field = line[1 : len(line)-1]
		case field != "":
			values = append(values, line)
		}
	}
	flush()
	return sc.Err()
}

func applyField(pkg *Package, field string, values []string) {
	first := ""
	if len(values) > 0 {
		first = values[0]
	}

	switch field {
	case "NAME":
		pkg.name = first
	case "VERSION":
		pkg.version = first
	case "BASE":
		pkg.base = first
	case "DESC":
		pkg.desc = first
	case "ARCH":
		pkg.arch = first
	case "URL":
		pkg.url = first
	case "PACKAGER":
		pkg.packager = first
	case "FILENAME":
		pkg.filename = first
	case "BUILDDATE":
		pkg.buildDate = parseEpoch(first)
	case "INSTALLDATE":
		pkg.installDate = parseEpoch(first)
	case "CSIZE":
		pkg.size, _ = strconv.ParseInt(first, 10, 64)
	case "ISIZE", "SIZE":
		pkg.isize, _ = strconv.ParseInt(first, 10, 64)
	case "REASON":
		if first == "1" {
			pkg.reason = ReasonDepend
		}
	case "LICENSE":
		pkg.licenses = values
	case "GROUPS":
		pkg.groups = values
	case "DEPENDS":
		pkg.depends = parseDepends(values)
	case "OPTDEPENDS":
		pkg.optDepends = parseDepends(values)
	case "PROVIDES":
		pkg.provides = parseDepends(values)
	case "CONFLICTS":
		pkg.conflicts = parseDepends(values)
	case "REPLACES":
		pkg.replaces = parseDepends(values)
	}
}

func parseEpoch(s string) time.Time {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return time.Time{}
	}
	return time.Unix(n, 0)
}
