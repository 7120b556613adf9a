package protocol

import (
	"encoding/binary"
	"fmt"
)

// KiNet v1 DMXOUT framing as spoken by Color Kinetics power supplies.
const (
	kinetPort    = 6038
	kinetMaxSlot = 512

	kinetMagic   = 0x0401dc4a
	kinetVersion = 0x0100
	kinetDMXOut  = 0x0101
)

type kinetCodec struct{}

func (k *kinetCodec) Name() string     { return "kinet" }
func (k *kinetCodec) DefaultPort() int { return kinetPort }

func (k *kinetCodec) ValidateUniverse(universe uint16) error {
	if universe > 0xff {
		return fmt.Errorf("universe %d exceeds the single byte KiNet address space", universe)
	}
	return nil
}

func (k *kinetCodec) Encode(data []byte, universe uint16, seq uint32) ([]byte, error) {
	if len(data) > kinetMaxSlot {
		return nil, &EncodingError{
			Protocol: k.Name(),
			Reason:   fmt.Sprintf("%d channels exceed the %d slot limit", len(data), kinetMaxSlot),
		}
	}
	if err := k.ValidateUniverse(universe); err != nil {
		return nil, &EncodingError{Protocol: k.Name(), Reason: err.Error()}
	}

	// The header goes out in network byte order: 04 01 dc 4a 01 00 01 01.
	pkt := make([]byte, 21, 21+len(data))
	binary.BigEndian.PutUint32(pkt[0:], kinetMagic)
	binary.BigEndian.PutUint16(pkt[4:], kinetVersion)
	binary.BigEndian.PutUint16(pkt[6:], kinetDMXOut)
	binary.BigEndian.PutUint32(pkt[8:], seq)
	pkt[12] = 0x00                                   // port
	pkt[13] = 0x00                                   // padding
	binary.BigEndian.PutUint16(pkt[14:], 0x0000)     // flags
	binary.BigEndian.PutUint32(pkt[16:], 0xffffffff) // timer
	pkt[20] = uint8(universe)
	pkt = append(pkt, data...)
	return pkt, nil
}
