package exr

import "math"

// halfToFloat expands an IEEE 754 binary16 value to float32,
// handling subnormals, infinities and NaNs. Files store HALF
// samples; in memory we only ever deal in float32.
func halfToFloat(h uint16) float32 {
	sign := uint32(h>>15) & 0x1
	exp := int32(h>>10) & 0x1F
	mant := int32(h & 0x03FF)

	if exp == 0 {
		if mant == 0 {
			return math.Float32frombits(sign << 31)
		}
		// Subnormal: renormalize.
		for mant&0x0400 == 0 {
			mant <<= 1
			exp--
		}
		exp++
		mant &= 0x03FF
	} else if exp == 31 {
		if mant == 0 {
			return math.Float32frombits((sign << 31) | 0x7F800000)
		}
		return math.Float32frombits((sign << 31) | 0x7F800000 | (uint32(mant) << 13))
	}

	exp = exp + (127 - 15)
	mant <<= 13
	return math.Float32frombits((sign << 31) | (uint32(exp) << 23) | uint32(mant))
}
