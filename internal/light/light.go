// Package light is the public control surface: one Light per configured
// fixture, validating requests against the fixture's capabilities and
// registering the resulting transitions with the universe gateway.
package light

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"mqtt2dmx/internal/fixture"
	"mqtt2dmx/internal/logger"
	"mqtt2dmx/internal/universe"
)

// ErrUnsupported marks a request the fixture type cannot satisfy. The
// request is rejected at this boundary; no state mutates.
var ErrUnsupported = errors.New("unsupported operation")

// Colour temperature bounds in mireds, matching the range Philips Hue
// established and most controllers assume.
const (
	MinMireds = 192
	MaxMireds = 448
)

// Options carry the per-fixture configuration defaults.
type Options struct {
	DefaultLevel uint8
	DefaultRGB   *[3]uint8
	WhiteValue   uint8
	FadeTime     time.Duration
}

// Update is a turn-on request; nil fields keep their current value.
type Update struct {
	Brightness *uint8
	Color      *[3]uint8
	White      *uint8
	ColorTemp  *int // mireds
	Transition *time.Duration
}

// State is a read-only copy of the light's desired state.
type State struct {
	On         bool
	Brightness uint8
	RGB        [3]uint8
	White      uint8
	ColorTemp  int
	FadeTime   time.Duration
}

// Light holds the desired state of one fixture and translates it into
// channel targets for the transition scheduler.
type Light struct {
	log logger.Logger
	fx  *fixture.Fixture
	gw  *universe.Gateway

	mu         sync.Mutex
	on         bool
	brightness uint8
	rgb        [3]uint8
	white      uint8
	colorTemp  int // mireds
	fadeTime   time.Duration
}

// NewLight builds the light and preloads its configured defaults into the
// universe buffer so the first frame already carries them.
func NewLight(log logger.Logger, fx *fixture.Fixture, gw *universe.Gateway, opts Options) *Light {
	l := &Light{
		log:        log,
		fx:         fx,
		gw:         gw,
		brightness: opts.DefaultLevel,
		white:      opts.WhiteValue,
		colorTemp:  (MinMireds + MaxMireds) / 2,
		fadeTime:   opts.FadeTime,
	}
	if c, ok := fx.DefaultColor(); ok {
		l.rgb = c
	}
	if opts.DefaultRGB != nil {
		l.rgb = *opts.DefaultRGB
	}
	if fx.Supports(fixture.CapColor) {
		// The configured level scales the brightest colour component.
		m := l.rgb[0]
		if l.rgb[1] > m {
			m = l.rgb[1]
		}
		if l.rgb[2] > m {
			m = l.rgb[2]
		}
		l.brightness = fixture.ClampByte(float64(m) * float64(l.brightness) / 255)
	}
	l.on = l.brightness > 0 || l.white > 0

	gw.Preload(fx.Offsets(), l.dmxValues())
	log.With(logger.Fields{"module": "light"}).Debugf("initialized light %q (%s) on channel %d", fx.Name(), fx.Type(), fx.Channel())
	return l
}

func (l *Light) Name() string              { return l.fx.Name() }
func (l *Light) Fixture() *fixture.Fixture { return l.fx }

// State returns a copy of the current desired state.
func (l *Light) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return State{
		On:         l.on,
		Brightness: l.brightness,
		RGB:        l.rgb,
		White:      l.white,
		ColorTemp:  l.colorTemp,
		FadeTime:   l.fadeTime,
	}
}

// TurnOn applies the update and fades every role group of the fixture to
// the resulting channel values.
func (l *Light) TurnOn(u Update) error {
	if err := l.validate(u); err != nil {
		return err
	}

	l.mu.Lock()
	l.on = true
	if u.Brightness != nil {
		l.brightness = *u.Brightness
	}
	if l.brightness == 0 {
		l.brightness = 255
	}
	if u.Color != nil {
		l.rgb = *u.Color
	}
	if u.White != nil {
		l.white = *u.White
	}
	if u.ColorTemp != nil {
		l.colorTemp = clampMireds(*u.ColorTemp)
	}
	d := l.fadeTime
	if u.Transition != nil {
		d = *u.Transition
	}
	values := l.dmxValues()
	l.mu.Unlock()

	l.register(l.groups(), values, d)
	return nil
}

// TurnOff fades every channel of the fixture to zero. The desired colour
// and level are kept for the next turn-on.
func (l *Light) TurnOff(transition *time.Duration) error {
	l.mu.Lock()
	l.on = false
	d := l.fadeTime
	if transition != nil {
		d = *transition
	}
	l.mu.Unlock()

	l.register(l.groups(), make([]uint8, l.fx.Span()), d)
	return nil
}

// SetLevel fades the fixture's brightness. On layouts with a dedicated
// dimmer slot only that slot animates; colour fades in flight are left
// alone.
func (l *Light) SetLevel(level uint8, transition *time.Duration) error {
	if !l.fx.Supports(fixture.CapBrightness) {
		return l.unsupported("level")
	}

	l.mu.Lock()
	l.brightness = level
	l.on = level > 0
	d := l.fadeTime
	if transition != nil {
		d = *transition
	}
	values := l.dmxValues()
	l.mu.Unlock()

	l.register(pickGroup(l.groups(), "level"), values, d)
	return nil
}

// SetColor fades the fixture's colour channels, and the white slot when a
// white value is supplied.
func (l *Light) SetColor(rgb [3]uint8, white *uint8, transition *time.Duration) error {
	if !l.fx.Supports(fixture.CapColor) {
		return l.unsupported("color")
	}
	if white != nil && !l.fx.Supports(fixture.CapWhite) {
		return l.unsupported("white value")
	}

	l.mu.Lock()
	l.on = true
	l.rgb = rgb
	if white != nil {
		l.white = *white
	}
	d := l.fadeTime
	if transition != nil {
		d = *transition
	}
	values := l.dmxValues()
	l.mu.Unlock()

	l.register(pickGroup(l.groups(), "color"), values, d)
	return nil
}

// SetTemperature fades a tunable white fixture along its warm/cool balance.
// balance 0 is fully warm, 255 fully cold.
func (l *Light) SetTemperature(balance uint8, transition *time.Duration) error {
	if !l.fx.Supports(fixture.CapColorTemp) {
		return l.unsupported("color temperature")
	}

	l.mu.Lock()
	l.on = true
	l.colorTemp = balanceToMireds(balance)
	d := l.fadeTime
	if transition != nil {
		d = *transition
	}
	values := l.dmxValues()
	l.mu.Unlock()

	l.register(l.groups(), values, d)
	return nil
}

func (l *Light) validate(u Update) error {
	if u.Brightness != nil && !l.fx.Supports(fixture.CapBrightness) {
		return l.unsupported("brightness")
	}
	if u.Color != nil && !l.fx.Supports(fixture.CapColor) {
		return l.unsupported("color")
	}
	if u.White != nil && !l.fx.Supports(fixture.CapWhite) {
		return l.unsupported("white value")
	}
	if u.ColorTemp != nil && !l.fx.Supports(fixture.CapColorTemp) {
		return l.unsupported("color temperature")
	}
	return nil
}

func (l *Light) unsupported(what string) error {
	return fmt.Errorf("light %q (%s) does not support %s: %w", l.fx.Name(), l.fx.Type(), what, ErrUnsupported)
}

// group is a disjoint subset of the fixture's slots that animates as one
// unit with a shared progress.
type group struct {
	name string
	idx  []int // indices into the fixture's role layout
}

// groups splits the layout into the role groups the scheduler keys
// animations by. Layouts with a dedicated dimmer slot get a separate level
// group so brightness and colour fades replace independently; entangled
// layouts (scaled RGB, auto white, tunable white) animate as one group.
func (l *Light) groups() []group {
	switch l.fx.Type() {
	case fixture.TypeDimmer, fixture.TypeSwitch:
		return []group{{"level", []int{0}}}
	case fixture.TypeDRGB:
		return []group{{"level", []int{0}}, {"color", []int{1, 2, 3}}}
	case fixture.TypeRGBD:
		return []group{{"color", []int{0, 1, 2}}, {"level", []int{3}}}
	case fixture.TypeDRGBW:
		return []group{{"level", []int{0}}, {"color", []int{1, 2, 3, 4}}}
	case fixture.TypeRGBWD:
		return []group{{"color", []int{0, 1, 2, 3}}, {"level", []int{4}}}
	default:
		idx := make([]int, l.fx.Span())
		for i := range idx {
			idx[i] = i
		}
		return []group{{"color", idx}}
	}
}

// pickGroup narrows to the named group when the layout has it; otherwise
// every group is affected.
func pickGroup(groups []group, name string) []group {
	for _, g := range groups {
		if g.name == name {
			return []group{g}
		}
	}
	return groups
}

func (l *Light) register(groups []group, values []uint8, d time.Duration) {
	base := l.fx.Channel() - 1
	for _, grp := range groups {
		offsets := make([]int, len(grp.idx))
		target := make([]uint8, len(grp.idx))
		for i, idx := range grp.idx {
			offsets[i] = base + idx
			target[i] = values[idx]
		}
		l.gw.FadeTo(l.fx.Name()+"/"+grp.name, offsets, target, d)
	}
}

func clampMireds(ct int) int {
	if ct < MinMireds {
		return MinMireds
	}
	if ct > MaxMireds {
		return MaxMireds
	}
	return ct
}

func balanceToMireds(balance uint8) int {
	return MaxMireds - int(math.Round(float64(balance)/255*(MaxMireds-MinMireds)))
}
