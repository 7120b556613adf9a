package protocol

import "fmt"

// Art-Net II ArtDMX framing. The 15-bit port address is split into a Net
// byte (high 7 bits) and a SubUni byte (subnet + universe nibbles).
const (
	artnetPort        = 6454
	artnetMaxSlot     = 512
	artnetProtVer     = 14
	artnetMaxPortAddr = 0x7fff
)

var artnetID = []byte{'A', 'r', 't', '-', 'N', 'e', 't', 0x00}

type artnetCodec struct{}

func (a *artnetCodec) Name() string     { return "artnet" }
func (a *artnetCodec) DefaultPort() int { return artnetPort }

func (a *artnetCodec) ValidateUniverse(universe uint16) error {
	if universe > artnetMaxPortAddr {
		return fmt.Errorf("universe %d outside the 15 bit port address space", universe)
	}
	return nil
}

func (a *artnetCodec) Encode(data []byte, universe uint16, seq uint32) ([]byte, error) {
	if len(data) > artnetMaxSlot {
		return nil, &EncodingError{
			Protocol: a.Name(),
			Reason:   fmt.Sprintf("%d channels exceed the %d slot limit", len(data), artnetMaxSlot),
		}
	}
	if err := a.ValidateUniverse(universe); err != nil {
		return nil, &EncodingError{Protocol: a.Name(), Reason: err.Error()}
	}

	pkt := make([]byte, 0, 18+len(data))
	pkt = append(pkt, artnetID...)
	pkt = append(pkt, 0x00, 0x50) // OpDmx, little endian
	pkt = append(pkt, 0x00, artnetProtVer)
	pkt = append(pkt, uint8(seq)) // 0 disables gateway resequencing
	pkt = append(pkt, 0x00)       // physical input port
	pkt = append(pkt, uint8(universe), uint8(universe>>8))
	pkt = append(pkt, uint8(len(data)>>8), uint8(len(data)))
	pkt = append(pkt, data...)
	return pkt, nil
}
