package protocol

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

// sACN (E1.31) data packet framing: ACN root layer, E1.31 framing layer and
// a DMP layer carrying the start code plus channel data.
const (
	sacnPort        = 5568
	sacnMaxSlot     = 512
	sacnMaxUniverse = 63999

	sacnRootVector    = 0x00000004 // VECTOR_ROOT_E131_DATA
	sacnFramingVector = 0x00000002 // VECTOR_E131_DATA_PACKET
	sacnDMPVector     = 0x02       // VECTOR_DMP_SET_PROPERTY
	sacnPriority      = 100
)

var acnPacketID = []byte{'A', 'S', 'C', '-', 'E', '1', '.', '1', '7', 0x00, 0x00, 0x00}

type sacnCodec struct {
	cid        uuid.UUID
	sourceName [64]byte
}

func newSACNCodec(sourceName string) *sacnCodec {
	c := &sacnCodec{cid: uuid.New()}
	copy(c.sourceName[:63], sourceName) // NUL terminated per E1.31
	return c
}

func (s *sacnCodec) Name() string     { return "sacn" }
func (s *sacnCodec) DefaultPort() int { return sacnPort }

func (s *sacnCodec) ValidateUniverse(universe uint16) error {
	if universe < 1 || universe > sacnMaxUniverse {
		return fmt.Errorf("universe %d outside the E1.31 range 1-%d", universe, sacnMaxUniverse)
	}
	return nil
}

func flagsAndLength(length int) (uint8, uint8) {
	return 0x70 | uint8(length>>8), uint8(length)
}

func (s *sacnCodec) Encode(data []byte, universe uint16, seq uint32) ([]byte, error) {
	if len(data) > sacnMaxSlot {
		return nil, &EncodingError{
			Protocol: s.Name(),
			Reason:   fmt.Sprintf("%d channels exceed the %d slot limit", len(data), sacnMaxSlot),
		}
	}
	if err := s.ValidateUniverse(universe); err != nil {
		return nil, &EncodingError{Protocol: s.Name(), Reason: err.Error()}
	}

	total := 126 + len(data)
	pkt := make([]byte, total)

	// Root layer.
	binary.BigEndian.PutUint16(pkt[0:], 0x0010) // preamble size
	binary.BigEndian.PutUint16(pkt[2:], 0x0000) // postamble size
	copy(pkt[4:], acnPacketID)
	pkt[16], pkt[17] = flagsAndLength(total - 16)
	binary.BigEndian.PutUint32(pkt[18:], sacnRootVector)
	copy(pkt[22:], s.cid[:])

	// Framing layer.
	pkt[38], pkt[39] = flagsAndLength(total - 38)
	binary.BigEndian.PutUint32(pkt[40:], sacnFramingVector)
	copy(pkt[44:], s.sourceName[:])
	pkt[108] = sacnPriority
	binary.BigEndian.PutUint16(pkt[109:], 0x0000) // sync address
	pkt[111] = uint8(seq)
	pkt[112] = 0x00 // options bits
	binary.BigEndian.PutUint16(pkt[113:], universe)

	// DMP layer.
	pkt[115], pkt[116] = flagsAndLength(total - 115)
	pkt[117] = sacnDMPVector
	pkt[118] = 0xa1                               // address type & data type
	binary.BigEndian.PutUint16(pkt[119:], 0x0000) // first property address
	binary.BigEndian.PutUint16(pkt[121:], 0x0001) // address increment
	binary.BigEndian.PutUint16(pkt[123:], uint16(1+len(data)))
	pkt[125] = 0x00 // DMX start code
	copy(pkt[126:], data)
	return pkt, nil
}
