package pcihost

import (
	"log/slog"
	"sync"

	"github.com/bobuhiro11/gopci/resource"
)

// MaxBusNumber is the highest bus number a single-byte bus field can hold.
const MaxBusNumber = 255

// Ops are optional caller hooks run during bridge creation.
type Ops struct {
	// Prepare runs after the bridge is admitted to the registry and before
	// it is published. A non-nil error aborts creation.
	Prepare func(*HostBridge) error
}

// HostBridge is the root device of one PCI segment, bridging the CPU
// address space to a bus-numbered peripheral topology. All fields are
// settled by Registry.Create and read-only afterwards, so lookups and
// translations need no locking.
type HostBridge struct {
	// Domain identifies the independent bus-number space this bridge
	// belongs to.
	Domain int

	// BusOrigin is the first bus number the bridge is responsible for,
	// taken from its bus-number window.
	BusOrigin int

	windows resource.List

	// busnRes backs a synthesized bus-number window when the caller's
	// resource list carried none.
	busnRes     resource.Window
	dynamicBusn bool

	name    string
	sysdata any
	ops     *Ops

	releaseOnce sync.Once
	releaseFn   func(*HostBridge)
	releaseData any
}

// Name is the published device name, "<domain>:<bus>" in 4+2 hex digits.
func (br *HostBridge) Name() string {
	return br.name
}

// Windows returns the bridge's window store. Callers must treat it as
// read-only; it is scanned front to back, first match wins.
func (br *HostBridge) Windows() []*resource.Window {
	return br.windows
}

// BusnRange is the span of bus numbers the bridge is responsible for.
func (br *HostBridge) BusnRange() resource.Range {
	return br.busnWindow().Range
}

// DynamicBusn reports whether the bus-number window was synthesized
// rather than supplied by the caller.
func (br *HostBridge) DynamicBusn() bool {
	return br.dynamicBusn
}

// Sysdata returns the opaque caller data supplied at creation.
func (br *HostBridge) Sysdata() any {
	return br.sysdata
}

// SetReleaseFn installs a teardown hook. It runs exactly once, before the
// windows are released.
func (br *HostBridge) SetReleaseFn(fn func(*HostBridge), data any) {
	br.releaseFn = fn
	br.releaseData = data
}

// ReleaseData returns the opaque context supplied with SetReleaseFn.
func (br *HostBridge) ReleaseData() any {
	return br.releaseData
}

// Release tears the bridge down: release hook first, then the windows,
// then the synthesized bus-number storage. It must only run once the
// bridge is no longer discoverable; repeated calls are no-ops.
func (br *HostBridge) Release() {
	br.releaseOnce.Do(func() {
		if br.releaseFn != nil {
			br.releaseFn(br)
		}

		br.windows.Release()

		if br.dynamicBusn {
			br.busnRes = resource.Window{}
			br.dynamicBusn = false
		}
	})
}

func (br *HostBridge) busnWindow() *resource.Window {
	return br.windows.Find(resource.BUSN)
}

// updateBusnRes normalizes the bus-number window of a caller's resource
// list. A declared window never starts below the requested bus; when no
// window is declared at all, one covering [bus, MaxBusNumber] is
// synthesized and appended, backed by the bridge itself.
func (br *HostBridge) updateBusnRes(bus int, resources *resource.List, logger *slog.Logger) {
	if w := resources.Find(resource.BUSN); w != nil {
		if uint64(bus) > w.Range.Start {
			w.Range.Start = uint64(bus)
		}

		return
	}

	logger.Info("no busn resource found, claiming the remaining bus space",
		"bus", bus, "end", MaxBusNumber)

	br.busnRes = resource.Window{
		Type:  resource.BUSN,
		Range: resource.Range{Start: uint64(bus), End: MaxBusNumber},
	}
	br.dynamicBusn = true
	resources.Append(&br.busnRes)
}
