package device

import (
	"errors"
	"sync"
)

var (
	// ErrNameTaken indicates the name is already bound to a live device.
	ErrNameTaken = errors.New("device: name already registered")
	// ErrNotRegistered indicates an unregister for an unknown name.
	ErrNotRegistered = errors.New("device: name not registered")
)

// Device is anything that can be published to the device framework.
// Release runs exactly once, after the device is no longer discoverable.
type Device interface {
	Release()
}

// Registrar is the registration contract the PCI core expects from the
// device framework.
type Registrar interface {
	Register(name string, dev Device) error
	Unregister(name string) error
}

// Tree is an in-memory Registrar keyed by device name.
type Tree struct {
	mu      sync.Mutex
	devices map[string]Device
}

func NewTree() *Tree {
	return &Tree{devices: map[string]Device{}}
}

func (t *Tree) Register(name string, dev Device) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.devices[name]; ok {
		return ErrNameTaken
	}

	t.devices[name] = dev

	return nil
}

// Unregister removes the device and then runs its Release. The release
// runs outside the tree lock so a device may re-enter the tree from its
// own teardown.
func (t *Tree) Unregister(name string) error {
	t.mu.Lock()
	dev, ok := t.devices[name]

	if ok {
		delete(t.devices, name)
	}
	t.mu.Unlock()

	if !ok {
		return ErrNotRegistered
	}

	dev.Release()

	return nil
}

func (t *Tree) Lookup(name string) (Device, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	dev, ok := t.devices[name]

	return dev, ok
}
