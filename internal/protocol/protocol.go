// Package protocol frames universe snapshots into the datagram formats
// understood by DMX-over-IP gateways. Each codec owns its header layout;
// everything upstream only sees the Codec capability.
package protocol

import (
	"fmt"
	"sync"
)

// Codec wraps one universe snapshot into a single wire datagram.
type Codec interface {
	// Encode frames the channel data for the given universe. seq is the
	// per-universe frame counter; codecs truncate it to their own sequence
	// width.
	Encode(data []byte, universe uint16, seq uint32) ([]byte, error)
	// ValidateUniverse reports whether the universe id fits the protocol's
	// address space. Checked at wiring time so misconfiguration fails on
	// startup rather than dropping every frame.
	ValidateUniverse(universe uint16) error
	// DefaultPort is the well-known UDP port of the protocol.
	DefaultPort() int
	// Name identifies the protocol in logs.
	Name() string
}

// EncodingError reports a snapshot the selected protocol cannot frame.
// The affected frame is dropped; the scheduler is not touched.
type EncodingError struct {
	Protocol string
	Reason   string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("%s: cannot encode frame: %s", e.Protocol, e.Reason)
}

// New returns the codec for the configured protocol name.
func New(name string, opts ...Option) (Codec, error) {
	o := options{sourceName: "mqtt2dmx"}
	for _, opt := range opts {
		opt(&o)
	}
	switch name {
	case "artnet", "artnet-direct":
		return &artnetCodec{}, nil
	case "kinet":
		return &kinetCodec{}, nil
	case "sacn":
		return newSACNCodec(o.sourceName), nil
	default:
		return nil, fmt.Errorf("unknown protocol %q", name)
	}
}

type options struct {
	sourceName string
}

// Option adjusts codec construction.
type Option func(*options)

// WithSourceName sets the source name advertised in protocols that carry
// one (sACN).
func WithSourceName(name string) Option {
	return func(o *options) { o.sourceName = name }
}

// Sequence is the per-universe monotonically increasing frame counter.
// Safe for concurrent use.
type Sequence struct {
	mu sync.Mutex
	n  uint32
}

// Next returns the next counter value, starting at 1.
func (s *Sequence) Next() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return s.n
}
