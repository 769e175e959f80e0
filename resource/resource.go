package resource

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRange = errors.New("resource: range start is above range end")
	ErrUnknownType  = errors.New("resource: unknown type")
)

// Type is the kind of address space a window maps.
type Type int

const (
	MEM Type = iota
	IO
	PREFETCHMEM
	BUSN
)

func (t Type) String() string {
	switch t {
	case MEM:
		return "mem"
	case IO:
		return "io"
	case PREFETCHMEM:
		return "prefmem"
	case BUSN:
		return "busn"
	}

	return fmt.Sprintf("type(%d)", int(t))
}

// ParseType is the inverse of Type.String.
func ParseType(s string) (Type, error) {
	switch s {
	case "mem":
		return MEM, nil
	case "io":
		return IO, nil
	case "prefmem":
		return PREFETCHMEM, nil
	case "busn":
		return BUSN, nil
	}

	return 0, fmt.Errorf("unknown resource type %q: %w", s, ErrUnknownType)
}

// Range is an inclusive [Start, End] span of addresses or bus numbers.
type Range struct {
	Start uint64
	End   uint64
}

func NewRange(start, end uint64) (Range, error) {
	if start > end {
		return Range{}, fmt.Errorf("%w: [%#x, %#x]", ErrInvalidRange, start, end)
	}

	return Range{Start: start, End: end}, nil
}

// Contains reports whether r fully covers other.
func (r Range) Contains(other Range) bool {
	return r.Start <= other.Start && r.End >= other.End
}

// Overlaps reports whether r and other share at least one address.
func (r Range) Overlaps(other Range) bool {
	return r.Start <= other.End && other.Start <= r.End
}

func (r Range) Size() uint64 {
	return r.End - r.Start + 1
}

func (r Range) String() string {
	return fmt.Sprintf("[%#x-%#x]", r.Start, r.End)
}

// Window maps a CPU-visible address range onto a bus-relative one:
//
//	bus address = cpu address - Offset
//
// A BUSN window carries the bus numbers the owning bridge is responsible
// for; its Offset is always 0.
type Window struct {
	Type   Type
	Range  Range
	Offset int64
}

// BusStart is the bus-relative address of the window's first byte.
func (w *Window) BusStart() uint64 {
	return w.Range.Start - uint64(w.Offset)
}

// BusEnd is the bus-relative address of the window's last byte.
func (w *Window) BusEnd() uint64 {
	return w.Range.End - uint64(w.Offset)
}

func (w *Window) String() string {
	return fmt.Sprintf("%s %s offset %#x", w.Type, w.Range, w.Offset)
}

// List is the window store of one host bridge. Scans run front to back and
// the first match wins, so insertion order is part of the contract: with
// overlapping same-type windows the one registered first decides.
type List []*Window

func (l *List) Append(w *Window) {
	*l = append(*l, w)
}

// Find returns the first window of the requested type, or nil.
func (l List) Find(t Type) *Window {
	for _, w := range l {
		if w.Type == t {
			return w
		}
	}

	return nil
}

// MoveTo appends every window to dst and empties l. Ownership of the
// windows transfers with them.
func (l *List) MoveTo(dst *List) {
	*dst = append(*dst, *l...)
	*l = (*l)[:0]
}

// Release drops every window from the store.
func (l *List) Release() {
	*l = nil
}
