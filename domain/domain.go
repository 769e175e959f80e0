package domain

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/bobuhiro11/gopci/platform"
)

// ErrInconsistent is returned when the platform mixes declared domain
// numbers with counter-assigned ones. Once either method has been used,
// the other is refused for the rest of the process lifetime.
var ErrInconsistent = errors.New("domain: inconsistent pci-domain property")

// Mode selects how domain numbers are produced. It is fixed per target at
// startup.
type Mode int

const (
	// Explicit takes the caller's requested domain verbatim.
	Explicit Mode = iota
	// Generic reads the parent's platform description, falling back to a
	// process-wide counter when no domain is declared.
	Generic
)

const (
	methodUnknown  int8 = -1
	methodCounter  int8 = 0
	methodDeclared int8 = 1
)

// Allocator hands out domain numbers for new host bridges.
type Allocator struct {
	mode Mode

	// counter holds the last counter-assigned domain, starting below zero
	// so the first assignment yields 0. Never decremented, never reused.
	counter atomic.Int64

	mu     sync.Mutex
	method int8
}

func NewAllocator(mode Mode) *Allocator {
	a := &Allocator{mode: mode, method: methodUnknown}
	a.counter.Store(-1)

	return a
}

func (a *Allocator) Mode() Mode {
	return a.mode
}

// Next returns a fresh counter-assigned domain number. Values start at 0
// and increase strictly across the process lifetime. Drawing from the
// counter commits the allocator to counter-assigned ids, unless a
// declared id has already been accepted.
func (a *Allocator) Next() int {
	a.mu.Lock()

	if a.method != methodDeclared {
		a.method = methodCounter
	}
	a.mu.Unlock()

	return a.draw()
}

func (a *Allocator) draw() int {
	return int(a.counter.Add(1))
}

// Assign settles the domain number for a new bridge. In Explicit mode the
// requested value wins. In Generic mode the parent's declared domain is
// used if present, otherwise a counter-assigned one; interleaving the two
// methods fails with ErrInconsistent and assigns nothing.
func (a *Allocator) Assign(requested int, parent *platform.Node) (int, error) {
	if a.mode == Explicit {
		return requested, nil
	}

	declared, ok := parent.PCIDomain()

	a.mu.Lock()
	defer a.mu.Unlock()

	switch {
	case ok && a.method != methodCounter:
		a.method = methodDeclared

		return declared, nil
	case !ok && a.method != methodDeclared:
		a.method = methodCounter

		return a.draw(), nil
	default:
		return -1, ErrInconsistent
	}
}
