package acpi

import (
	"bytes"
	"encoding/binary"

	"github.com/bobuhiro11/gopci/pcihost"
	"github.com/bobuhiro11/gopci/resource"
)

const (
	headerSize  = 36
	segmentSize = 16
)

// PCISegment is one MCFG allocation entry: the configuration base address
// and the bus-number range of one host-bridge segment.
type PCISegment struct {
	BaseAddress uint64
	Segment     uint16
	Start       uint8
	End         uint8
	_           uint32
}

func (p *PCISegment) ToBytes() ([]byte, error) {
	var buf bytes.Buffer

	if err := binary.Write(&buf, binary.LittleEndian, p); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

type MCFG struct {
	Header
	Segments []PCISegment
}

func NewMCFG(oemid, oemtableid string) MCFG {
	h := newHeader(SigMCFG, headerSize, 1, oemid, oemtableid)

	return MCFG{Header: h}
}

func (m *MCFG) AddSegment(seg PCISegment) {
	m.Segments = append(m.Segments, seg)
}

// AddBridge appends the segment entry describing a live host bridge: the
// segment number is the bridge's domain, the bus range its bus-number
// window, and the base address the start of its first memory window.
func (m *MCFG) AddBridge(br *pcihost.HostBridge) {
	busn := br.BusnRange()

	base := uint64(0)
	if w := resource.List(br.Windows()).Find(resource.MEM); w != nil {
		base = w.Range.Start
	}

	m.AddSegment(PCISegment{
		BaseAddress: base,
		Segment:     uint16(br.Domain),
		Start:       uint8(busn.Start),
		End:         uint8(busn.End),
	})
}

// ToBytes serializes the table: header, 8 reserved bytes, then the
// segment entries, with Length and Checksum settled.
func (m *MCFG) ToBytes() ([]byte, error) {
	m.Header.Length = uint32(headerSize + 8 + segmentSize*len(m.Segments))
	m.Header.Checksum = 0

	var buf bytes.Buffer

	if err := binary.Write(&buf, binary.LittleEndian, m.Header); err != nil {
		return nil, err
	}

	if _, err := buf.Write(make([]byte, 8)); err != nil {
		return nil, err
	}

	for _, seg := range m.Segments {
		data, err := seg.ToBytes()
		if err != nil {
			return nil, err
		}

		if _, err := buf.Write(data); err != nil {
			return nil, err
		}
	}

	data := buf.Bytes()
	data[9] = tableChecksum(data)

	return data, nil
}
