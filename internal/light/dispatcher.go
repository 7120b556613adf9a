package light

import (
	"context"
	"time"

	"mqtt2dmx/internal/controlmqtt"
	"mqtt2dmx/internal/fixture"
	"mqtt2dmx/internal/logger"
)

// StatePublisher is the outbound side of the control plane.
type StatePublisher interface {
	PublishState(universeID uint16, lightName string, state controlmqtt.StatePayload)
}

type lightKey struct {
	universe uint16
	name     string
}

// Dispatcher routes parsed control commands to the addressed light and
// publishes the resulting state.
type Dispatcher struct {
	log    logger.Logger
	pub    StatePublisher
	lights map[lightKey]*Light
}

func NewDispatcher(log logger.Logger, pub StatePublisher) *Dispatcher {
	return &Dispatcher{
		log:    log,
		pub:    pub,
		lights: map[lightKey]*Light{},
	}
}

// Add registers a light under its universe. Called during wiring, before Run.
func (d *Dispatcher) Add(universeID uint16, l *Light) {
	d.lights[lightKey{universe: universeID, name: l.Name()}] = l
}

// PublishAll pushes the current state of every light, so the retained state
// topics exist from startup.
func (d *Dispatcher) PublishAll() {
	for key, l := range d.lights {
		d.publish(key.universe, l)
	}
}

// Run consumes commands until the context is canceled.
func (d *Dispatcher) Run(ctx context.Context, cmds <-chan controlmqtt.Command) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-cmds:
			d.apply(cmd)
		}
	}
}

func (d *Dispatcher) apply(cmd controlmqtt.Command) {
	l, ok := d.lights[lightKey{universe: cmd.Universe, name: cmd.Light}]
	if !ok {
		d.log.With(logger.Fields{"module": "light"}).Errorf("command for unknown light %q in universe %d", cmd.Light, cmd.Universe)
		return
	}

	var transition *time.Duration
	if cmd.Payload.Transition != nil {
		t := time.Duration(*cmd.Payload.Transition * float64(time.Second))
		transition = &t
	}

	var err error
	if cmd.Payload.State != nil && *cmd.Payload.State == "OFF" {
		err = l.TurnOff(transition)
	} else {
		u := Update{
			Brightness: cmd.Payload.Brightness,
			White:      cmd.Payload.WhiteValue,
			ColorTemp:  cmd.Payload.ColorTemp,
			Transition: transition,
		}
		if cmd.Payload.Color != nil {
			u.Color = &[3]uint8{cmd.Payload.Color.R, cmd.Payload.Color.G, cmd.Payload.Color.B}
		}
		err = l.TurnOn(u)
	}
	if err != nil {
		d.log.With(logger.Fields{"module": "light"}).Errorf("command rejected: %v", err)
		return
	}

	d.publish(cmd.Universe, l)
}

func (d *Dispatcher) publish(universeID uint16, l *Light) {
	if d.pub == nil {
		return
	}

	s := l.State()
	state := controlmqtt.StatePayload{
		State:      "OFF",
		Brightness: s.Brightness,
	}
	if s.On {
		state.State = "ON"
	}
	if l.fx.Supports(fixture.CapColor) {
		state.Color = &controlmqtt.RGB{R: s.RGB[0], G: s.RGB[1], B: s.RGB[2]}
	}
	if l.fx.Supports(fixture.CapWhite) {
		w := s.White
		state.WhiteValue = &w
	}
	if l.fx.Supports(fixture.CapColorTemp) {
		ct := s.ColorTemp
		state.ColorTemp = &ct
	}
	d.pub.PublishState(universeID, l.Name(), state)
}
