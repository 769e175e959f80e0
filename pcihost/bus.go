package pcihost

import "sync"

// Bus is one node of the bus topology forest. The parent link is fixed at
// construction and a bus is attached exactly once, so walking to the root
// needs no locking.
type Bus struct {
	Nr     int
	parent *Bus
	bridge *HostBridge
}

func (b *Bus) Parent() *Bus {
	return b.parent
}

// Root walks the parent chain to the topology root.
func (b *Bus) Root() *Bus {
	for b.parent != nil {
		b = b.parent
	}

	return b
}

// HostBridgeOf returns the bridge owning the segment the bus belongs to.
func HostBridgeOf(bus *Bus) *HostBridge {
	return bus.Root().bridge
}

// DomainNr returns the domain of the segment the bus belongs to.
func DomainNr(bus *Bus) int {
	return HostBridgeOf(bus).Domain
}

// Topology tracks the live buses of every domain and implements
// BusProber for the registry's conflict narrowing.
type Topology struct {
	mu   sync.RWMutex
	live map[int]map[int]*Bus
}

func NewTopology() *Topology {
	return &Topology{live: map[int]map[int]*Bus{}}
}

// NewRootBus attaches the root bus of a bridge's segment, numbered by the
// bridge's bus origin.
func (t *Topology) NewRootBus(br *HostBridge) (*Bus, error) {
	b := &Bus{Nr: br.BusOrigin, bridge: br}

	if err := t.attach(br.Domain, b); err != nil {
		return nil, err
	}

	return b, nil
}

// NewChildBus attaches a secondary bus beneath parent.
func (t *Topology) NewChildBus(parent *Bus, nr int) (*Bus, error) {
	b := &Bus{Nr: nr, parent: parent}

	if err := t.attach(DomainNr(parent), b); err != nil {
		return nil, err
	}

	return b, nil
}

func (t *Topology) attach(domainNr int, b *Bus) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	buses := t.live[domainNr]
	if buses == nil {
		buses = map[int]*Bus{}
		t.live[domainNr] = buses
	}

	if _, ok := buses[b.Nr]; ok {
		return ErrBusAttached
	}

	buses[b.Nr] = b

	return nil
}

// Remove detaches a bus, making its number reusable within the domain.
func (t *Topology) Remove(b *Bus) {
	domainNr := DomainNr(b)

	t.mu.Lock()
	defer t.mu.Unlock()

	if buses := t.live[domainNr]; buses != nil && buses[b.Nr] == b {
		delete(buses, b.Nr)
	}
}

// BusInUse reports whether bus nr is live in the domain.
func (t *Topology) BusInUse(domainNr, nr int) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	_, ok := t.live[domainNr][nr]

	return ok
}
