package acpi_test

import (
	"encoding/binary"
	"io"
	"log/slog"
	"testing"

	"github.com/bobuhiro11/gopci/acpi"
	"github.com/bobuhiro11/gopci/device"
	"github.com/bobuhiro11/gopci/domain"
	"github.com/bobuhiro11/gopci/pcihost"
	"github.com/bobuhiro11/gopci/resource"
)

func TestMCFGToBytes(t *testing.T) {
	t.Parallel()

	m := acpi.NewMCFG("GOPCI ", "GOPCIMCF")
	m.AddSegment(acpi.PCISegment{
		BaseAddress: 0xb0000000,
		Segment:     1,
		Start:       0,
		End:         255,
	})

	data, err := m.ToBytes()
	if err != nil {
		t.Fatal(err)
	}

	if len(data) != 36+8+16 {
		t.Fatalf("table length %d", len(data))
	}

	if string(data[:4]) != "MCFG" {
		t.Fatalf("signature %q", data[:4])
	}

	if got := binary.LittleEndian.Uint32(data[4:8]); got != uint32(len(data)) {
		t.Fatalf("header length %d, table length %d", got, len(data))
	}

	sum := uint8(0)
	for _, b := range data {
		sum += b
	}

	if sum != 0 {
		t.Fatalf("table bytes sum to %d, want 0", sum)
	}

	entry := data[44:]
	if base := binary.LittleEndian.Uint64(entry[:8]); base != 0xb0000000 {
		t.Fatalf("base address %#x", base)
	}

	if seg := binary.LittleEndian.Uint16(entry[8:10]); seg != 1 {
		t.Fatalf("segment %d", seg)
	}

	if entry[10] != 0 || entry[11] != 255 {
		t.Fatalf("bus range [%d, %d]", entry[10], entry[11])
	}
}

func TestMCFGAddBridge(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := pcihost.NewRegistry(domain.NewAllocator(domain.Explicit), device.NewTree(), nil, logger)

	resources := &resource.List{}
	resources.Append(&resource.Window{
		Type:  resource.MEM,
		Range: resource.Range{Start: 0xe0000000, End: 0xefffffff},
	})

	br, err := r.Create(pcihost.Config{Domain: 2, Bus: 4, Resources: resources})
	if err != nil {
		t.Fatal(err)
	}

	m := acpi.NewMCFG("GOPCI ", "GOPCIMCF")
	m.AddBridge(br)

	if len(m.Segments) != 1 {
		t.Fatalf("segments %d", len(m.Segments))
	}

	seg := m.Segments[0]
	if seg.Segment != 2 || seg.Start != 4 || seg.End != 255 {
		t.Fatalf("unexpected segment %+v", seg)
	}

	if seg.BaseAddress != 0xe0000000 {
		t.Fatalf("base address %#x", seg.BaseAddress)
	}
}
