package light

import (
	"math"

	"mqtt2dmx/internal/fixture"
)

// dmxValues computes the full-span channel targets for the current desired
// state. Callers hold l.mu.
func (l *Light) dmxValues() []uint8 {
	switch l.fx.Type() {
	case fixture.TypeSwitch:
		if l.on {
			return []uint8{255}
		}
		return []uint8{0}

	case fixture.TypeRGB:
		rgb := fixture.ScaleRGB(l.rgb, l.brightness)
		return rgb[:]

	case fixture.TypeRGBA:
		rgb, amber := fixture.ExtractAmber(fixture.ScaleRGB(l.rgb, l.brightness))
		return append(rgb[:], amber)

	case fixture.TypeRGBAW:
		rgb, amber := fixture.ExtractAmber(fixture.ScaleRGB(l.rgb, l.brightness))
		return append(rgb[:], amber, l.scaledWhite())

	case fixture.TypeRGBW:
		rgb := fixture.ScaleRGB(l.rgb, l.brightness)
		return append(rgb[:], l.scaledWhite())

	case fixture.TypeRGBWAuto:
		// White is derived from the target colour once, here, so it is a
		// pure function of the final RGB and never animates on its own.
		rgbw := fixture.RGBToRGBW(fixture.ScaleRGB(l.rgb, l.brightness))
		return rgbw[:]

	case fixture.TypeDRGB:
		return []uint8{l.brightness, l.rgb[0], l.rgb[1], l.rgb[2]}

	case fixture.TypeRGBD:
		return []uint8{l.rgb[0], l.rgb[1], l.rgb[2], l.brightness}

	case fixture.TypeDRGBW:
		return []uint8{l.brightness, l.rgb[0], l.rgb[1], l.rgb[2], l.white}

	case fixture.TypeRGBWD:
		return []uint8{l.rgb[0], l.rgb[1], l.rgb[2], l.white, l.brightness}

	case fixture.TypeCustomWhite:
		return l.customWhiteValues()

	default: // dimmer
		return []uint8{l.brightness}
	}
}

func (l *Light) scaledWhite() uint8 {
	return fixture.ClampByte(float64(l.white) * float64(l.brightness) / 255)
}

func (l *Light) customWhiteValues() []uint8 {
	wwFraction := float64(l.colorTemp-MinMireds) / float64(MaxMireds-MinMireds)
	cwFraction := 1 - wwFraction
	maxFraction := math.Max(wwFraction, cwFraction)
	onFactor := 0.0
	if l.on {
		onFactor = 1
	}

	brightness := float64(l.brightness)
	// Without a dimmer slot of their own, the scaled outputs render the raw
	// warm/cool balance at full level.
	if l.fx.DimIndex() == -1 && l.brightness == 0 {
		brightness = 255
	}

	values := make([]uint8, 0, l.fx.Span())
	for _, role := range l.fx.Roles() {
		var v float64
		switch role {
		case fixture.RoleDimmer:
			v = float64(l.brightness)
		case fixture.RoleTempAsc:
			v = 255 - wwFraction*255
		case fixture.RoleTempDesc:
			v = wwFraction * 255
		case fixture.RoleWarm:
			v = onFactor * brightness * wwFraction / maxFraction
		case fixture.RoleCool:
			v = onFactor * brightness * cwFraction / maxFraction
		case fixture.RoleWarmFull:
			v = onFactor * 255 * wwFraction / maxFraction
		case fixture.RoleCoolFull:
			v = onFactor * 255 * cwFraction / maxFraction
		}
		values = append(values, fixture.ClampByte(v))
	}
	return values
}
