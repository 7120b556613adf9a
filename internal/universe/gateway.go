// Package universe owns the channel state of one DMX universe: the byte
// buffer, the transition scheduler advancing active fades at a fixed 40 Hz
// cadence, and the driver composing and emitting one frame per tick.
package universe

import (
	"context"
	"sync"
	"time"

	"mqtt2dmx/internal/logger"
	"mqtt2dmx/internal/protocol"
	"mqtt2dmx/internal/transport"
)

// TickInterval is the fixed frame cadence: fast enough to look continuous,
// slow enough to bound CPU and network load.
const TickInterval = 25 * time.Millisecond // 40 Hz

// Gateway drives one universe. Universes are fully independent; the host
// composes one Gateway per configured universe.
type Gateway struct {
	log      logger.Logger
	codec    protocol.Codec
	sender   transport.Sender
	universe uint16
	seq      protocol.Sequence

	mu    sync.Mutex
	buf   *Buffer
	anims map[string]*animation
	dirty bool

	wake chan struct{}
}

// NewGateway wires a universe buffer to a protocol codec and a transport.
func NewGateway(log logger.Logger, codec protocol.Codec, sender transport.Sender, universeID uint16, buf *Buffer) *Gateway {
	return &Gateway{
		log:      log,
		codec:    codec,
		sender:   sender,
		universe: universeID,
		buf:      buf,
		anims:    map[string]*animation{},
		wake:     make(chan struct{}, 1),
	}
}

// Preload writes initial values without scheduling a frame. Used while
// fixtures install their configured defaults before the driver starts.
func (g *Gateway) Preload(offsets []int, values []uint8) {
	g.mu.Lock()
	for i, off := range offsets {
		g.buf.Write(off, values[i])
	}
	g.mu.Unlock()
}

// Value returns the current buffer value at the 0-based offset.
func (g *Gateway) Value(offset int) uint8 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.buf.Read(offset)
}

// Values returns the current buffer values at the given offsets.
func (g *Gateway) Values(offsets []int) []uint8 {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]uint8, len(offsets))
	for i, off := range offsets {
		out[i] = g.buf.Read(off)
	}
	return out
}

// FadeTo registers or replaces the animation for one role group. A group
// holds at most one animation; the new fade starts from the group's current
// buffer values, never from a stale start or target, so a command issued
// mid-fade never jumps. A zero duration applies the target immediately and
// retains no animation.
func (g *Gateway) FadeTo(group string, offsets []int, target []uint8, d time.Duration) {
	g.mu.Lock()
	if d <= 0 {
		delete(g.anims, group)
		for i, off := range offsets {
			g.buf.Write(off, target[i])
		}
		g.dirty = true
	} else {
		start := make([]float64, len(offsets))
		for i, off := range offsets {
			start[i] = float64(g.buf.Read(off))
		}
		g.anims[group] = &animation{
			offsets:   append([]int(nil), offsets...),
			start:     start,
			target:    append([]uint8(nil), target...),
			startedAt: time.Now(),
			duration:  d,
		}
	}
	g.mu.Unlock()
	g.notify()
}

// Animating reports whether any role group has an active fade.
func (g *Gateway) Animating() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.anims) > 0
}

func (g *Gateway) notify() {
	select {
	case g.wake <- struct{}{}:
	default:
	}
}

// Start launches the periodic driver. The driver blocks while no role group
// is animating and nothing is pending, and resumes within one tick of a new
// request. If sendOnStartup is set, one frame of the preloaded defaults goes
// out before the driver first idles.
func (g *Gateway) Start(ctx context.Context, sendOnStartup bool) {
	if sendOnStartup {
		g.mu.Lock()
		g.dirty = true
		g.mu.Unlock()
	}
	go g.run(ctx)
}

func (g *Gateway) run(ctx context.Context) {
	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()

	for {
		g.mu.Lock()
		idle := len(g.anims) == 0 && !g.dirty
		g.mu.Unlock()

		if idle {
			select {
			case <-ctx.Done():
				return
			case <-g.wake:
			}
		}

		g.Tick(time.Now())

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Tick advances every active animation to now, writes the interpolated
// bytes, removes completed animations with their targets pinned exactly,
// then composes and emits one frame. Exposed for the driver and for tests;
// production ticks come from Start's loop.
func (g *Gateway) Tick(now time.Time) {
	g.mu.Lock()
	for group, a := range g.anims {
		p := a.progress(now)
		for i, off := range a.offsets {
			g.buf.Write(off, a.valueAt(i, p))
		}
		if p >= 1 {
			delete(g.anims, group)
		}
	}
	g.dirty = false
	snap := g.buf.Snapshot()
	g.mu.Unlock()

	// Framing and network I/O happen outside the lock.
	g.emit(snap)
}

func (g *Gateway) emit(snap []byte) {
	pkt, err := g.codec.Encode(snap, g.universe, g.seq.Next())
	if err != nil {
		// Fatal for this frame only; the next tick proceeds normally.
		g.log.With(logger.Fields{"module": "universe", "universe": g.universe}).Errorf("frame dropped: %v", err)
		return
	}
	if err := g.sender.Send(pkt); err != nil {
		// Best effort: the next periodic frame corrects any loss.
		g.log.With(logger.Fields{"module": "universe", "universe": g.universe}).Debugf("send failed: %v", err)
	}
}
