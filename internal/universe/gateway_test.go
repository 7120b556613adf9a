package universe

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mqtt2dmx/internal/config"
	"mqtt2dmx/internal/logger"
	"mqtt2dmx/internal/protocol"
)

// rawCodec passes channel data through unframed so tests can inspect it.
type rawCodec struct{}

func (rawCodec) Name() string                  { return "raw" }
func (rawCodec) DefaultPort() int              { return 0 }
func (rawCodec) ValidateUniverse(uint16) error { return nil }
func (rawCodec) Encode(data []byte, _ uint16, _ uint32) ([]byte, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// failCodec rejects every frame.
type failCodec struct{}

func (failCodec) Name() string                  { return "fail" }
func (failCodec) DefaultPort() int              { return 0 }
func (failCodec) ValidateUniverse(uint16) error { return nil }
func (failCodec) Encode([]byte, uint16, uint32) ([]byte, error) {
	return nil, &protocol.EncodingError{Protocol: "fail", Reason: "always"}
}

// fakeSender captures every frame handed to the transport.
type fakeSender struct {
	mu     sync.Mutex
	frames [][]byte
}

func (f *fakeSender) Send(pkt []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]byte, len(pkt))
	copy(cp, pkt)
	f.frames = append(f.frames, cp)
	return nil
}

func (f *fakeSender) Close() error { return nil }

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func (f *fakeSender) last() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.frames) == 0 {
		return nil
	}
	return f.frames[len(f.frames)-1]
}

func newTestLogger(t *testing.T) logger.Logger {
	t.Helper()
	log, err := logger.NewLogger(config.LogConf{Level: "error"})
	require.NoError(t, err)
	return log
}

func newTestGateway(t *testing.T, size int, codec protocol.Codec) (*Gateway, *fakeSender) {
	t.Helper()
	sender := &fakeSender{}
	buf := NewBuffer(size, 0)
	return NewGateway(newTestLogger(t), codec, sender, 1, buf), sender
}

func TestBuffer(t *testing.T) {
	t.Parallel()

	b := NewBuffer(8, 42)
	assert.Equal(t, 8, b.Len())
	assert.Equal(t, uint8(42), b.Read(5))

	b.Write(5, 7)
	assert.Equal(t, uint8(7), b.Read(5))

	snap := b.Snapshot()
	b.Write(5, 99)
	assert.Equal(t, uint8(7), snap[5], "snapshot is an independent copy")
}

func TestImmediateSet(t *testing.T) {
	t.Parallel()

	g, sender := newTestGateway(t, 10, rawCodec{})
	g.FadeTo("lamp/level", []int{4}, []uint8{128}, 0)

	assert.Equal(t, uint8(128), g.Value(4), "target applied without waiting for a tick")
	assert.False(t, g.Animating(), "no animation retained for a zero duration set")

	g.Tick(time.Now())
	frame := sender.last()
	require.Len(t, frame, 10, "frames always cover the full universe")
	assert.Equal(t, uint8(128), frame[4])
}

func TestAnimationInterpolation(t *testing.T) {
	t.Parallel()

	t.Run("linear with clamping", func(t *testing.T) {
		t.Parallel()
		started := time.Now()
		a := &animation{
			offsets:   []int{0},
			start:     []float64{0},
			target:    []uint8{200},
			startedAt: started,
			duration:  time.Second,
		}
		assert.Equal(t, uint8(0), a.valueAt(0, a.progress(started)))
		assert.Equal(t, uint8(50), a.valueAt(0, a.progress(started.Add(250*time.Millisecond))))
		assert.Equal(t, uint8(100), a.valueAt(0, a.progress(started.Add(500*time.Millisecond))))
		assert.Equal(t, uint8(200), a.valueAt(0, a.progress(started.Add(time.Second))))
	})

	t.Run("exact target at completion, no rounding drift", func(t *testing.T) {
		t.Parallel()
		started := time.Now()
		a := &animation{
			offsets:   []int{0},
			start:     []float64{13.7},
			target:    []uint8{251},
			startedAt: started,
			duration:  3 * time.Second,
		}
		assert.Equal(t, uint8(251), a.valueAt(0, a.progress(started.Add(time.Minute))))
	})

	t.Run("progress clamped to [0,1]", func(t *testing.T) {
		t.Parallel()
		started := time.Now()
		a := &animation{startedAt: started, duration: time.Second}
		assert.Equal(t, 0.0, a.progress(started.Add(-time.Second)))
		assert.Equal(t, 1.0, a.progress(started.Add(time.Hour)))
	})
}

func TestTickCompletesAnimation(t *testing.T) {
	t.Parallel()

	g, sender := newTestGateway(t, 4, rawCodec{})
	g.FadeTo("lamp/level", []int{0}, []uint8{200}, 50*time.Millisecond)
	require.True(t, g.Animating())

	// Tick well past the end of the fade.
	g.Tick(time.Now().Add(time.Second))
	assert.Equal(t, uint8(200), g.Value(0), "final value pinned exactly to target")
	assert.False(t, g.Animating(), "completed animation removed")
	assert.Equal(t, uint8(200), sender.last()[0])
}

func TestReplacementContinuity(t *testing.T) {
	t.Parallel()

	g, _ := newTestGateway(t, 4, rawCodec{})
	g.FadeTo("lamp/level", []int{0}, []uint8{200}, time.Second)

	// Advance roughly half way, then replace with a fade back to zero.
	g.mu.Lock()
	g.anims["lamp/level"].startedAt = time.Now().Add(-500 * time.Millisecond)
	g.mu.Unlock()
	g.Tick(time.Now())
	mid := g.Value(0)
	assert.InDelta(t, 100, int(mid), 2)

	g.FadeTo("lamp/level", []int{0}, []uint8{0}, time.Second)

	g.mu.Lock()
	a := g.anims["lamp/level"]
	g.mu.Unlock()
	require.NotNil(t, a)
	assert.Equal(t, float64(mid), a.start[0], "replacement starts from the value currently on the wire")

	// The first tick of the replacement does not jump.
	g.Tick(time.Now())
	assert.InDelta(t, int(mid), int(g.Value(0)), 2)
}

func TestEncodingErrorSkipsFrameOnly(t *testing.T) {
	t.Parallel()

	g, sender := newTestGateway(t, 4, failCodec{})
	g.FadeTo("lamp/level", []int{0}, []uint8{9}, 0)

	g.Tick(time.Now())
	assert.Equal(t, 0, sender.count(), "frame dropped on encoding error")
	assert.Equal(t, uint8(9), g.Value(0), "scheduler state unaffected")

	// The next tick proceeds normally.
	g.Tick(time.Now())
	assert.Equal(t, 0, sender.count())
	var encErr *protocol.EncodingError
	_, err := failCodec{}.Encode(nil, 0, 0)
	require.True(t, errors.As(err, &encErr))
}

func TestDriverIdlesAndResumes(t *testing.T) {
	g, sender := newTestGateway(t, 4, rawCodec{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g.Start(ctx, false)

	// No activity yet, nothing is sent.
	time.Sleep(4 * TickInterval)
	assert.Equal(t, 0, sender.count())

	// A short fade wakes the driver.
	g.FadeTo("lamp/level", []int{0}, []uint8{100}, 4*TickInterval)
	time.Sleep(10 * TickInterval)
	afterFade := sender.count()
	assert.Greater(t, afterFade, 1, "driver ticks while animating")
	assert.Equal(t, uint8(100), g.Value(0))

	// Once idle again the frames stop.
	time.Sleep(6 * TickInterval)
	assert.Equal(t, afterFade, sender.count(), "no frames while idle")

	// An immediate set resumes within a tick.
	g.FadeTo("lamp/level", []int{0}, []uint8{0}, 0)
	time.Sleep(4 * TickInterval)
	assert.Greater(t, sender.count(), afterFade)
}

func TestStartupFrame(t *testing.T) {
	g, sender := newTestGateway(t, 6, rawCodec{})
	g.Preload([]int{0, 1, 2}, []uint8{10, 20, 30})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g.Start(ctx, true)

	time.Sleep(4 * TickInterval)
	require.GreaterOrEqual(t, sender.count(), 1, "one frame of defaults on startup")
	frame := sender.last()
	require.Len(t, frame, 6)
	assert.Equal(t, []byte{10, 20, 30, 0, 0, 0}, frame)
}
