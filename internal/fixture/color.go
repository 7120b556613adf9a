package fixture

import "math"

// ClampByte rounds to the nearest integer and clamps into [0,255].
func ClampByte(v float64) uint8 {
	r := math.Round(v)
	if r < 0 {
		return 0
	}
	if r > 255 {
		return 255
	}
	return uint8(r)
}

// ScaleRGB scales each colour component by brightness/255.
func ScaleRGB(rgb [3]uint8, brightness uint8) [3]uint8 {
	scale := float64(brightness) / 255
	return [3]uint8{
		ClampByte(float64(rgb[0]) * scale),
		ClampByte(float64(rgb[1]) * scale),
		ClampByte(float64(rgb[2]) * scale),
	}
}

// RGBToRGBW splits the gray portion of an RGB colour out as a dedicated
// white channel: w = min(r,g,b), subtracted from each component.
func RGBToRGBW(rgb [3]uint8) [4]uint8 {
	w := rgb[0]
	if rgb[1] < w {
		w = rgb[1]
	}
	if rgb[2] < w {
		w = rgb[2]
	}
	return [4]uint8{rgb[0] - w, rgb[1] - w, rgb[2] - w, w}
}

// ExtractAmber splits an amber component out of an RGB colour. Amber is
// capped at twice the green component so pure reds stay red.
func ExtractAmber(rgb [3]uint8) ([3]uint8, uint8) {
	amber := int(rgb[0])
	if amber > int(rgb[1])*2 {
		amber = int(rgb[1]) * 2
	}
	out := [3]uint8{
		uint8(int(rgb[0]) - amber),
		ClampByte(float64(rgb[1]) - float64(amber)/2),
		rgb[2],
	}
	return out, uint8(amber)
}
