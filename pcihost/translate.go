package pcihost

import "github.com/bobuhiro11/gopci/resource"

// Region is a bus-relative address range, as opposed to a CPU-visible
// resource.Range.
type Region struct {
	Start uint64
	End   uint64
}

func (reg Region) contains(other Region) bool {
	return reg.Start <= other.Start && reg.End >= other.End
}

// ResourceToRegion converts a CPU-visible resource range into the
// bus-relative coordinates of the segment the bus belongs to. The first
// window fully containing the range decides the offset; an unmapped range
// passes through untranslated.
func ResourceToRegion(bus *Bus, res resource.Range) Region {
	br := HostBridgeOf(bus)

	var offset int64

	for _, w := range br.Windows() {
		if w.Range.Contains(res) {
			offset = w.Offset

			break
		}
	}

	return Region{
		Start: res.Start - uint64(offset),
		End:   res.End - uint64(offset),
	}
}

// RegionToResource converts a bus-relative region of the given resource
// type back into CPU-visible coordinates. The first window of that type
// whose bus-relative span fully contains the region decides the offset;
// an unmapped region passes through untranslated.
func RegionToResource(bus *Bus, region Region, typ resource.Type) resource.Range {
	br := HostBridgeOf(bus)

	var offset int64

	for _, w := range br.Windows() {
		if w.Type != typ {
			continue
		}

		span := Region{Start: w.BusStart(), End: w.BusEnd()}

		if span.contains(region) {
			offset = w.Offset

			break
		}
	}

	return resource.Range{
		Start: region.Start + uint64(offset),
		End:   region.End + uint64(offset),
	}
}
