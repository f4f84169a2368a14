package imageio

import (
	"fmt"
)

// A rational, the way EXIF stores shutter speeds: {1, 500} is 1/500s.
type rat64 [2]int64

// An ExposureValue captures how a photograph was exposed. From the
// ISO / aperture / shutter-speed triple we derive the EV number -
// https://en.wikipedia.org/wiki/Exposure_value - and from that the
// physical illuminance (lux) that saturates a sensor channel. That
// lux figure is what lets a 16-bit TIFF sample be mapped back onto
// a scene-referred scale.
//
// The triple gets rounded to the nearest "whole" stops; EXIF values
// are close enough to those for any real camera.
type ExposureValue struct {
	ISO          int64 // 100, 800, etc.
	ApertureX10  int64 // f/5.6 is the integer 56
	ShutterSpeed rat64 // 1/500, 1/1000, etc.
	EV           int

	// How many lux generate a channel sample of 0xFFFF.
	IlluminanceAtMax float64
}

var (
	// The sequence of "whole" f-stops from f/1.0 to f/32, as x10 ints.
	apertureX10FStops = []int64{10, 14, 20, 28, 40, 56, 80, 110, 160, 220, 320}

	// This sequence isn't quite mathematical
	shutterSpeeds = []rat64{
		{1, 4000},
		{1, 2000},
		{1, 1000},
		{1, 500},
		{1, 250},
		{1, 125},
		{1, 60},
		{1, 30},
		{1, 15},
		{1, 8},
		{1, 4},
		{1, 2},
		{1, 1},
		{2, 1},
		{4, 1},
		{8, 1},
		{16, 1},
		{32, 1},
		{64, 1}, // Surely no exposure will be longer than 64 seconds ...
	}

	// https://en.wikipedia.org/wiki/Exposure_value#EV_as_a_measure_of_luminance_and_illuminance
	// EV to max incident illuminance at the sensor, in lux. The table
	// runs down to EV -1 because the ISO adjustment below can knock up
	// to 7 stops off a base EV of 6.
	illuminanceLookup = map[int]float64{
		-1: 1.25,
		0:  2.5,
		1:  5.0,
		2:  10.0,
		3:  20.0,
		4:  40.0,
		5:  80.0,
		6:  160.0,
		7:  320.0,
		8:  640.0,
		9:  1280.0,
		10: 2560.0,
		11: 5120.0,
		12: 10240.0,
		13: 20480.0,
		14: 40960.0,
		15: 81920.0,
		16: 163840.0,
		17: 327680.0,
		18: 655360.0,
	}
)

// An index into the stop ladder means nothing by itself, but the
// distance between two indices is a number of stops.
func closestApertureIndex(apertureX10 int64) int {
	ret := 0
	for i, fstop := range apertureX10FStops {
		if fstop <= apertureX10 {
			ret = i
		}
	}
	return ret
}

func closestShutterSpeedIndex(in rat64) int {
	ret := 0
	for i, ss := range shutterSpeeds {
		if in[0] >= ss[0] && ss[1] >= in[1] {
			ret = i
		}
	}
	return ret
}

func (ev ExposureValue) String() string {
	s := fmt.Sprintf("f/%.1f", float32(ev.ApertureX10)/10.0)
	if ev.ShutterSpeed[1] != 1 {
		s += fmt.Sprintf(", %d/%d", ev.ShutterSpeed[0], ev.ShutterSpeed[1])
	} else {
		s += fmt.Sprintf(", %ds", ev.ShutterSpeed[0])
	}
	return s + fmt.Sprintf(", ISO%d, EV %d (%.0f lux)", ev.ISO, ev.EV, ev.IlluminanceAtMax)
}

// Validate derives EV and IlluminanceAtMax, and rejects triples that
// land outside the lookup tables - which in practice means the EXIF
// was nonsense.
func (ev *ExposureValue) Validate() error {
	// f/5.6 at 1/4000 is EV 17; count how many stops we differ.
	// Wider apertures and slower shutters both let in more light,
	// lowering the EV.
	apAdj := closestApertureIndex(56) - closestApertureIndex(ev.ApertureX10)
	ssAdj := closestShutterSpeedIndex(rat64{1, 4000}) - closestShutterSpeedIndex(ev.ShutterSpeed)

	base := 17 - apAdj + ssAdj
	if base < 6 || base > 18 {
		return fmt.Errorf("exposure info looks suspicious, base EV=%d: %v", base, ev)
	}

	// The higher the ISO, the less physical light needed to expose.
	switch ev.ISO {
	case 100: // do nothing
	case 200:
		base -= 1
	case 400:
		base -= 2
	case 800:
		base -= 3
	case 1600:
		base -= 4
	case 3200:
		base -= 5
	case 6400:
		base -= 6
	case 12800:
		base -= 7
	default:
		return fmt.Errorf("(%s) had unhandled ISO", ev)
	}

	lux, ok := illuminanceLookup[base]
	if !ok {
		return fmt.Errorf("(%s) EV %d fell off the lookup table", ev, base)
	}
	ev.EV = base
	ev.IlluminanceAtMax = lux
	return nil
}
