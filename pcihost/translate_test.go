package pcihost_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobuhiro11/gopci/pcihost"
	"github.com/bobuhiro11/gopci/resource"
)

// translateFixture publishes one bridge with the given windows and returns
// its root bus.
func translateFixture(t *testing.T, windows ...*resource.Window) *pcihost.Bus {
	t.Helper()

	r, _, topo := newTestRegistry(t)

	resources := &resource.List{}
	for _, w := range windows {
		resources.Append(w)
	}

	br, err := r.Create(pcihost.Config{Resources: resources})
	require.NoError(t, err)

	root, err := topo.NewRootBus(br)
	require.NoError(t, err)

	return root
}

func TestResourceToRegion(t *testing.T) {
	t.Parallel()

	bus := translateFixture(t, &resource.Window{
		Type:   resource.MEM,
		Range:  resource.Range{Start: 0xe0000000, End: 0xefffffff},
		Offset: 0x20000000,
	})

	region := pcihost.ResourceToRegion(bus, resource.Range{Start: 0xe0001000, End: 0xe0001fff})
	assert.Equal(t, pcihost.Region{Start: 0xc0001000, End: 0xc0001fff}, region)
}

func TestResourceToRegionPassthrough(t *testing.T) {
	t.Parallel()

	bus := translateFixture(t, &resource.Window{
		Type:   resource.MEM,
		Range:  resource.Range{Start: 0xe0000000, End: 0xefffffff},
		Offset: 0x20000000,
	})

	// Outside every window: identity translation.
	region := pcihost.ResourceToRegion(bus, resource.Range{Start: 0x1000, End: 0x1fff})
	assert.Equal(t, pcihost.Region{Start: 0x1000, End: 0x1fff}, region)
}

func TestRegionToResource(t *testing.T) {
	t.Parallel()

	bus := translateFixture(t,
		&resource.Window{
			Type:   resource.IO,
			Range:  resource.Range{Start: 0x10000, End: 0x1ffff},
			Offset: 0x10000,
		},
		&resource.Window{
			Type:   resource.MEM,
			Range:  resource.Range{Start: 0xe0000000, End: 0xefffffff},
			Offset: 0x20000000,
		},
	)

	// The IO window's bus span is [0x0, 0xffff]; a same-span MEM lookup
	// must skip it and stay untranslated.
	res := pcihost.RegionToResource(bus, pcihost.Region{Start: 0x100, End: 0x1ff}, resource.IO)
	assert.Equal(t, resource.Range{Start: 0x10100, End: 0x101ff}, res)

	res = pcihost.RegionToResource(bus, pcihost.Region{Start: 0x100, End: 0x1ff}, resource.MEM)
	assert.Equal(t, resource.Range{Start: 0x100, End: 0x1ff}, res)
}

func TestTranslationRoundTrip(t *testing.T) {
	t.Parallel()

	bus := translateFixture(t, &resource.Window{
		Type:   resource.MEM,
		Range:  resource.Range{Start: 0xe0000000, End: 0xefffffff},
		Offset: 0x20000000,
	})

	res := resource.Range{Start: 0xe4000000, End: 0xe4ffffff}
	region := pcihost.ResourceToRegion(bus, res)
	back := pcihost.RegionToResource(bus, region, resource.MEM)
	assert.Equal(t, res, back)
}

func TestTranslationFirstMatchWins(t *testing.T) {
	t.Parallel()

	// Two overlapping MEM windows with different offsets; the one
	// registered first decides.
	bus := translateFixture(t,
		&resource.Window{
			Type:   resource.MEM,
			Range:  resource.Range{Start: 0x1000, End: 0x1fff},
			Offset: 0x100,
		},
		&resource.Window{
			Type:   resource.MEM,
			Range:  resource.Range{Start: 0x1000, End: 0x2fff},
			Offset: 0x200,
		},
	)

	region := pcihost.ResourceToRegion(bus, resource.Range{Start: 0x1800, End: 0x18ff})
	assert.Equal(t, pcihost.Region{Start: 0x1700, End: 0x17ff}, region)
}

func TestNegativeOffset(t *testing.T) {
	t.Parallel()

	bus := translateFixture(t, &resource.Window{
		Type:   resource.MEM,
		Range:  resource.Range{Start: 0x8000, End: 0x8fff},
		Offset: -0x1000,
	})

	region := pcihost.ResourceToRegion(bus, resource.Range{Start: 0x8000, End: 0x80ff})
	assert.Equal(t, pcihost.Region{Start: 0x9000, End: 0x90ff}, region)

	back := pcihost.RegionToResource(bus, region, resource.MEM)
	assert.Equal(t, resource.Range{Start: 0x8000, End: 0x80ff}, back)
}
