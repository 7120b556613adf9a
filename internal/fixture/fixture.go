package fixture

import (
	"fmt"
)

// Type identifies the channel layout of a fixture.
type Type string

const (
	TypeDimmer      Type = "dimmer"
	TypeSwitch      Type = "switch"
	TypeRGB         Type = "rgb"
	TypeRGBA        Type = "rgba"
	TypeRGBAW       Type = "rgbaw"
	TypeRGBW        Type = "rgbw"
	TypeRGBWAuto    Type = "rgbw_auto"
	TypeDRGB        Type = "drgb"
	TypeRGBD        Type = "rgbd"
	TypeDRGBW       Type = "drgbw"
	TypeRGBWD       Type = "rgbwd"
	TypeCustomWhite Type = "custom_white"
)

// Role is the semantic meaning of one channel slot within a fixture.
// The custom_white role letters map directly onto these values.
type Role byte

const (
	RoleDimmer   Role = 'd'
	RoleRed      Role = 'R'
	RoleGreen    Role = 'G'
	RoleBlue     Role = 'B'
	RoleWhite    Role = 'W'
	RoleAmber    Role = 'A'
	RoleTempAsc  Role = 't' // 0 = warm, 255 = cold
	RoleTempDesc Role = 'T' // 255 = warm, 0 = cold
	RoleWarm     Role = 'h' // warm white scaled by brightness
	RoleCool     Role = 'c' // cool white scaled by brightness
	RoleWarmFull Role = 'H' // warm white, not brightness scaled
	RoleCoolFull Role = 'C' // cool white, not brightness scaled
)

// Capability flags what the control API may request from a fixture type.
type Capability uint8

const (
	CapBrightness Capability = 1 << iota
	CapColor
	CapWhite
	CapColorTemp
)

var layouts = map[Type][]Role{
	TypeDimmer:   {RoleDimmer},
	TypeSwitch:   {RoleDimmer},
	TypeRGB:      {RoleRed, RoleGreen, RoleBlue},
	TypeRGBA:     {RoleRed, RoleGreen, RoleBlue, RoleAmber},
	TypeRGBAW:    {RoleRed, RoleGreen, RoleBlue, RoleAmber, RoleWhite},
	TypeRGBW:     {RoleRed, RoleGreen, RoleBlue, RoleWhite},
	TypeRGBWAuto: {RoleRed, RoleGreen, RoleBlue, RoleWhite},
	TypeDRGB:     {RoleDimmer, RoleRed, RoleGreen, RoleBlue},
	TypeRGBD:     {RoleRed, RoleGreen, RoleBlue, RoleDimmer},
	TypeDRGBW:    {RoleDimmer, RoleRed, RoleGreen, RoleBlue, RoleWhite},
	TypeRGBWD:    {RoleRed, RoleGreen, RoleBlue, RoleWhite, RoleDimmer},
}

var features = map[Type]Capability{
	TypeDimmer:      CapBrightness,
	TypeSwitch:      0,
	TypeRGB:         CapBrightness | CapColor,
	TypeRGBA:        CapBrightness | CapColor,
	TypeRGBAW:       CapBrightness | CapColor | CapWhite,
	TypeRGBW:        CapBrightness | CapColor | CapWhite,
	TypeRGBWAuto:    CapBrightness | CapColor,
	TypeDRGB:        CapBrightness | CapColor,
	TypeRGBD:        CapBrightness | CapColor,
	TypeDRGBW:       CapBrightness | CapColor | CapWhite,
	TypeRGBWD:       CapBrightness | CapColor | CapWhite,
	TypeCustomWhite: CapBrightness | CapColorTemp,
}

// defaultColors holds the per-type default RGB when none is configured.
var defaultColors = map[Type][3]uint8{
	TypeRGB:      {255, 255, 255},
	TypeRGBA:     {255, 255, 255},
	TypeRGBAW:    {255, 255, 255},
	TypeRGBW:     {255, 255, 255},
	TypeRGBWAuto: {255, 255, 255},
	TypeDRGB:     {255, 255, 255},
	TypeRGBD:     {255, 255, 255},
	TypeDRGBW:    {255, 255, 255},
	TypeRGBWD:    {255, 255, 255},
}

// ConfigError reports an invalid fixture or universe layout. It is fatal at
// startup; nothing is partially registered.
type ConfigError struct {
	Fixture string
	Reason  string
}

func (e *ConfigError) Error() string {
	if e.Fixture == "" {
		return fmt.Sprintf("invalid configuration: %s", e.Reason)
	}
	return fmt.Sprintf("fixture %q: %s", e.Fixture, e.Reason)
}

// Fixture maps one logical light onto a contiguous channel range.
// Immutable after construction.
type Fixture struct {
	name    string
	channel int // 1-based DMX channel of the first slot
	typ     Type
	roles   []Role
}

// New validates the type and (for custom_white) the role-order string and
// returns the fixture layout.
func New(name string, channel int, typ Type, channelSetup string) (*Fixture, error) {
	if channel < 1 {
		return nil, &ConfigError{Fixture: name, Reason: fmt.Sprintf("channel %d out of range", channel)}
	}

	var roles []Role
	if typ == TypeCustomWhite {
		if channelSetup == "" {
			return nil, &ConfigError{Fixture: name, Reason: "custom_white requires a channel-setup string"}
		}
		for _, r := range []byte(channelSetup) {
			switch Role(r) {
			case RoleDimmer, RoleTempAsc, RoleTempDesc, RoleWarm, RoleCool, RoleWarmFull, RoleCoolFull:
				roles = append(roles, Role(r))
			default:
				return nil, &ConfigError{Fixture: name, Reason: fmt.Sprintf("unknown channel-setup symbol %q", string(r))}
			}
		}
	} else {
		layout, ok := layouts[typ]
		if !ok {
			return nil, &ConfigError{Fixture: name, Reason: fmt.Sprintf("unknown fixture type %q", typ)}
		}
		roles = layout
	}

	return &Fixture{name: name, channel: channel, typ: typ, roles: roles}, nil
}

func (f *Fixture) Name() string  { return f.name }
func (f *Fixture) Channel() int  { return f.channel }
func (f *Fixture) Type() Type    { return f.typ }
func (f *Fixture) Roles() []Role { return f.roles }

// Span is the number of channel slots the fixture occupies.
func (f *Fixture) Span() int { return len(f.roles) }

// Offsets returns the 0-based universe offsets the fixture occupies, in
// role order.
func (f *Fixture) Offsets() []int {
	offsets := make([]int, len(f.roles))
	for i := range f.roles {
		offsets[i] = f.channel - 1 + i
	}
	return offsets
}

// DimIndex returns the index of the dimmer role within the layout, or -1.
func (f *Fixture) DimIndex() int {
	for i, r := range f.roles {
		if r == RoleDimmer {
			return i
		}
	}
	return -1
}

// Supports reports whether the fixture type carries the capability.
func (f *Fixture) Supports(c Capability) bool {
	return features[f.typ]&c == c
}

// DefaultColor returns the per-type default RGB, or nil for white-only types.
func (f *Fixture) DefaultColor() ([3]uint8, bool) {
	c, ok := defaultColors[f.typ]
	return c, ok
}

// Map is the construction-time registry of fixtures within one universe.
// It rejects layouts that overflow the universe or overlap each other.
type Map struct {
	size     int
	owner    map[int]string // offset -> fixture name
	fixtures []*Fixture
	byName   map[string]*Fixture
}

// NewMap builds an empty registry for a universe of the given channel count.
func NewMap(size int) (*Map, error) {
	if size < 2 || size > 512 {
		return nil, &ConfigError{Reason: fmt.Sprintf("universe size %d out of range 2-512", size)}
	}
	// DMX payloads must carry an even number of slots.
	if size%2 != 0 {
		size++
	}
	return &Map{
		size:   size,
		owner:  map[int]string{},
		byName: map[string]*Fixture{},
	}, nil
}

// Size is the universe channel count.
func (m *Map) Size() int { return m.size }

// Register adds a fixture after checking its range against the universe and
// the already registered fixtures.
func (m *Map) Register(f *Fixture) error {
	if _, ok := m.byName[f.name]; ok {
		return &ConfigError{Fixture: f.name, Reason: "duplicate fixture name"}
	}
	if f.channel-1+f.Span() > m.size {
		return &ConfigError{
			Fixture: f.name,
			Reason:  fmt.Sprintf("channels %d-%d exceed universe size %d", f.channel, f.channel-1+f.Span(), m.size),
		}
	}
	for _, off := range f.Offsets() {
		if other, ok := m.owner[off]; ok {
			return &ConfigError{
				Fixture: f.name,
				Reason:  fmt.Sprintf("channel %d already used by %q", off+1, other),
			}
		}
	}
	for _, off := range f.Offsets() {
		m.owner[off] = f.name
	}
	m.fixtures = append(m.fixtures, f)
	m.byName[f.name] = f
	return nil
}

// Fixtures returns the registered fixtures in registration order.
func (m *Map) Fixtures() []*Fixture { return m.fixtures }

// Get looks a fixture up by name.
func (m *Map) Get(name string) (*Fixture, bool) {
	f, ok := m.byName[name]
	return f, ok
}
