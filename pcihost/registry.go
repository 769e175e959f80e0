package pcihost

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/bobuhiro11/gopci/device"
	"github.com/bobuhiro11/gopci/domain"
	"github.com/bobuhiro11/gopci/platform"
	"github.com/bobuhiro11/gopci/resource"
)

// BusProber reports whether a bus number is in active use within a domain.
// The conflict-resolution narrowing check consults it before shrinking an
// existing bridge's bus-number window.
type BusProber interface {
	BusInUse(domainNr, bus int) bool
}

// Config describes a host bridge to create.
type Config struct {
	// Parent is the platform-description node the bridge hangs off. Only
	// consulted in Generic domain mode.
	Parent *platform.Node

	// Domain is the requested domain number. Only honored in Explicit
	// domain mode.
	Domain int

	// Bus is the first bus number the bridge must be responsible for.
	Bus int

	// Sysdata is opaque caller data stored on the bridge.
	Sysdata any

	// Resources are the discovered address windows. Ownership transfers to
	// the bridge; the list is emptied whether creation succeeds or fails.
	Resources *resource.List

	Ops *Ops
}

// Registry is the process-wide collection of live host bridges. A single
// mutex serializes list mutation and the conflict scan; external calls
// (prepare hook, device publication) run outside it.
type Registry struct {
	alloc   *domain.Allocator
	devices device.Registrar
	prober  BusProber
	logger  *slog.Logger

	mu      sync.Mutex
	bridges []*HostBridge
}

// NewRegistry builds a registry. prober may be nil, in which case the
// narrowing check assumes no bus is in use. logger may be nil.
func NewRegistry(alloc *domain.Allocator, devices device.Registrar, prober BusProber, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}

	return &Registry{
		alloc:   alloc,
		devices: devices,
		prober:  prober,
		logger:  logger,
	}
}

// Create admits a new host bridge: normalize the bus-number window, take
// ownership of the windows, settle the domain, resolve conflicts with
// bridges already in the domain, then publish. Any failure leaves the
// registry untouched and releases everything the bridge held.
func (r *Registry) Create(cfg Config) (*HostBridge, error) {
	br := &HostBridge{ops: cfg.Ops, sysdata: cfg.Sysdata}

	if cfg.Resources == nil {
		cfg.Resources = &resource.List{}
	}

	if cfg.Bus < 0 || cfg.Bus > MaxBusNumber {
		cfg.Resources.Release()

		return nil, fmt.Errorf("%w: %d", ErrInvalidBusNumber, cfg.Bus)
	}

	br.updateBusnRes(cfg.Bus, cfg.Resources, r.logger)
	cfg.Resources.MoveTo(&br.windows)
	br.BusOrigin = int(br.busnWindow().Range.Start)

	dom, err := r.alloc.Assign(cfg.Domain, cfg.Parent)
	if err != nil {
		br.Release()

		return nil, err
	}

	br.Domain = dom
	br.name = fmt.Sprintf("%04x:%02x", br.Domain, br.BusOrigin)

	r.mu.Lock()

	for _, old := range r.bridges {
		if old.Domain != br.Domain || !old.BusnRange().Overlaps(br.BusnRange()) {
			continue
		}

		if err := r.resolveBusnConflict(br, old); err != nil {
			r.mu.Unlock()
			br.Release()

			return nil, err
		}
	}

	r.bridges = append(r.bridges, br)
	r.mu.Unlock()

	if br.ops != nil && br.ops.Prepare != nil {
		if err := br.ops.Prepare(br); err != nil {
			r.remove(br)
			br.Release()

			return nil, fmt.Errorf("prepare host bridge %s: %w", br.name, err)
		}
	}

	if err := r.devices.Register(br.name, br); err != nil {
		r.remove(br)
		br.Release()

		return nil, fmt.Errorf("register host bridge %s: %w", br.name, err)
	}

	return br, nil
}

// resolveBusnConflict narrows the bus-number windows of two bridges in the
// same domain whose spans overlap. Firmware-reported spans are unreliable,
// so overlap alone is not fatal: the later-registered range yields its
// tail, except that two bridges may never claim the same first bus number
// and narrowing may never evict a bus already in use. Called with r.mu
// held; the prober takes only its own lock.
func (r *Registry) resolveBusnConflict(newBr, oldBr *HostBridge) error {
	nw := newBr.busnWindow()
	ow := oldBr.busnWindow()

	switch {
	case nw.Range.Start == ow.Range.Start:
		return fmt.Errorf("%w: %s and %s both claim bus %02x",
			ErrBusNumberConflict, newBr.name, oldBr.name, nw.Range.Start)
	case nw.Range.Start < ow.Range.Start:
		nw.Range.End = ow.Range.Start - 1
	default:
		for bus := nw.Range.Start; bus <= ow.Range.End; bus++ {
			if r.prober != nil && r.prober.BusInUse(newBr.Domain, int(bus)) {
				return fmt.Errorf("%w: bus %02x in domain %04x is in use",
					ErrBusNumberConflict, bus, newBr.Domain)
			}
		}

		ow.Range.End = nw.Range.Start - 1
	}

	r.logger.Warn("narrowed overlapping busn windows",
		"new", nw.Range.String(), "old", ow.Range.String(), "domain", newBr.Domain)

	return nil
}

func (r *Registry) remove(br *HostBridge) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, b := range r.bridges {
		if b == br {
			r.bridges = append(r.bridges[:i], r.bridges[i+1:]...)

			return
		}
	}
}

// Free removes the bridge from the registry and tears it down. Once
// delisted the bridge is no longer discoverable, even while the device
// framework is still draining the unregistration. Teardown is best effort
// then forced: a framework refusal is logged and the bridge is released
// anyway.
func (r *Registry) Free(br *HostBridge) {
	r.remove(br)

	if err := r.devices.Unregister(br.name); err != nil {
		r.logger.Error("unregister host bridge", "name", br.name, "err", err)
		br.Release()
	}
}

// Bridges returns a snapshot of the live bridges in registration order.
func (r *Registry) Bridges() []*HostBridge {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]*HostBridge(nil), r.bridges...)
}
