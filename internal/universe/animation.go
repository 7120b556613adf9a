package universe

import (
	"time"

	"mqtt2dmx/internal/fixture"
)

// animation is one in-flight transition for a fixture role group. Start
// values are captured from the buffer at registration time so a replacement
// mid-fade continues from whatever is currently on the wire.
type animation struct {
	offsets   []int
	start     []float64
	target    []uint8
	startedAt time.Time
	duration  time.Duration
}

func (a *animation) progress(now time.Time) float64 {
	p := float64(now.Sub(a.startedAt)) / float64(a.duration)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// valueAt interpolates channel i linearly. At progress 1 the target byte is
// returned as-is so completed fades carry no rounding residue.
func (a *animation) valueAt(i int, p float64) uint8 {
	if p >= 1 {
		return a.target[i]
	}
	return fixture.ClampByte(a.start[i] + (float64(a.target[i])-a.start[i])*p)
}
