package light

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mqtt2dmx/internal/controlmqtt"
	"mqtt2dmx/internal/fixture"
)

type fakePublisher struct {
	mu     sync.Mutex
	states map[string]controlmqtt.StatePayload
}

func (f *fakePublisher) PublishState(universeID uint16, lightName string, state controlmqtt.StatePayload) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.states == nil {
		f.states = map[string]controlmqtt.StatePayload{}
	}
	f.states[lightName] = state
}

func (f *fakePublisher) get(name string) (controlmqtt.StatePayload, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.states[name]
	return s, ok
}

func TestDispatcher(t *testing.T) {
	t.Parallel()

	t.Run("turn on command reaches the buffer and publishes state", func(t *testing.T) {
		t.Parallel()
		l, gw := newTestLight(t, fixture.TypeDimmer, 1, "", Options{})
		pub := &fakePublisher{}
		d := NewDispatcher(newTestLogger(t), pub)
		d.Add(1, l)

		br := uint8(128)
		tr := 0.0
		d.apply(controlmqtt.Command{
			Universe: 1,
			Light:    "lamp",
			Payload:  controlmqtt.CommandPayload{Brightness: &br, Transition: &tr},
		})

		assert.Equal(t, uint8(128), gw.Value(0))
		state, ok := pub.get("lamp")
		require.True(t, ok)
		assert.Equal(t, "ON", state.State)
		assert.Equal(t, uint8(128), state.Brightness)
	})

	t.Run("off command", func(t *testing.T) {
		t.Parallel()
		l, gw := newTestLight(t, fixture.TypeDimmer, 1, "", Options{DefaultLevel: 255})
		pub := &fakePublisher{}
		d := NewDispatcher(newTestLogger(t), pub)
		d.Add(1, l)

		off := "OFF"
		tr := 0.0
		d.apply(controlmqtt.Command{
			Universe: 1,
			Light:    "lamp",
			Payload:  controlmqtt.CommandPayload{State: &off, Transition: &tr},
		})

		assert.Equal(t, uint8(0), gw.Value(0))
		state, ok := pub.get("lamp")
		require.True(t, ok)
		assert.Equal(t, "OFF", state.State)
	})

	t.Run("rejected command publishes nothing", func(t *testing.T) {
		t.Parallel()
		l, _ := newTestLight(t, fixture.TypeDimmer, 1, "", Options{})
		pub := &fakePublisher{}
		d := NewDispatcher(newTestLogger(t), pub)
		d.Add(1, l)

		tr := 0.0
		d.apply(controlmqtt.Command{
			Universe: 1,
			Light:    "lamp",
			Payload:  controlmqtt.CommandPayload{Color: &controlmqtt.RGB{R: 1}, Transition: &tr},
		})

		_, ok := pub.get("lamp")
		assert.False(t, ok)
	})

	t.Run("unknown light ignored", func(t *testing.T) {
		t.Parallel()
		pub := &fakePublisher{}
		d := NewDispatcher(newTestLogger(t), pub)
		d.apply(controlmqtt.Command{Universe: 9, Light: "ghost"})
		_, ok := pub.get("ghost")
		assert.False(t, ok)
	})

	t.Run("state payload carries capability fields only", func(t *testing.T) {
		t.Parallel()
		l, _ := newTestLight(t, fixture.TypeRGBW, 1, "", Options{DefaultLevel: 255, WhiteValue: 40})
		pub := &fakePublisher{}
		d := NewDispatcher(newTestLogger(t), pub)
		d.Add(1, l)
		d.PublishAll()

		state, ok := pub.get("lamp")
		require.True(t, ok)
		require.NotNil(t, state.Color)
		require.NotNil(t, state.WhiteValue)
		assert.Equal(t, uint8(40), *state.WhiteValue)
		assert.Nil(t, state.ColorTemp)
	})
}
