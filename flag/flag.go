package flag

import (
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/bobuhiro11/gopci/resource"
)

// ParseWindow parses one window spec as type:start-end[:offset], numbers
// in any base strconv accepts (0x... for hex). The offset is optional and
// defaults to 0.
func ParseWindow(s string) (*resource.Window, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return nil, fmt.Errorf("%q: can't parse as type:start-end[:offset]:%w", s, strconv.ErrSyntax)
	}

	typ, err := resource.ParseType(parts[0])
	if err != nil {
		return nil, err
	}

	bounds := strings.SplitN(parts[1], "-", 2)
	if len(bounds) != 2 {
		return nil, fmt.Errorf("%q: can't parse as start-end:%w", parts[1], strconv.ErrSyntax)
	}

	start, err := strconv.ParseUint(bounds[0], 0, 64)
	if err != nil {
		return nil, err
	}

	end, err := strconv.ParseUint(bounds[1], 0, 64)
	if err != nil {
		return nil, err
	}

	r, err := resource.NewRange(start, end)
	if err != nil {
		return nil, err
	}

	offset := int64(0)

	if len(parts) == 3 {
		if offset, err = strconv.ParseInt(parts[2], 0, 64); err != nil {
			return nil, err
		}
	}

	return &resource.Window{Type: typ, Range: r, Offset: offset}, nil
}

// ParseWindows parses a comma-separated list of window specs.
func ParseWindows(s string) (resource.List, error) {
	var list resource.List

	if s == "" {
		return list, nil
	}

	for _, spec := range strings.Split(s, ",") {
		w, err := ParseWindow(spec)
		if err != nil {
			return nil, err
		}

		list.Append(w)
	}

	return list, nil
}

// ParseArgs calls flag.Parse and returns the domain number, the first bus
// number, and the discovered windows for the demo bridge.
func ParseArgs(args []string) (domainNr, bus int, windows resource.List, err error) {
	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)

	fs.IntVar(&domainNr, "d", 0, "pci domain number")
	fs.IntVar(&bus, "b", 0, "first bus number the bridge is responsible for")

	w := fs.String("w", "mem:0xe0000000-0xefffffff:0x20000000",
		"windows: comma-separated type:start-end[:offset], types mem/io/prefmem/busn")

	if err = fs.Parse(args[1:]); err != nil {
		return domainNr, bus, nil, err
	}

	if windows, err = ParseWindows(*w); err != nil {
		return domainNr, bus, nil, err
	}

	return domainNr, bus, windows, nil
}
