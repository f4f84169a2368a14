// Package exr reads and writes a useful subset of OpenEXR: single
// part scanline files, INCREASING_Y line order, with NONE, ZIPS or
// ZIP compression. That subset covers everything a renderer or a
// denoiser normally hands us, without dragging in the whole of
// Ilm's format zoo (tiles, deep data, mipmaps, B44, DWA, ...).
//
// The model mirrors the reference library: build a Header, attach a
// FrameBuffer describing where each channel's samples live in
// memory, then ReadPixels/WritePixels a range of scanlines. Slices
// address float32 buffers directly, so no unsafe pointer games; the
// file's HALF and UINT samples are converted on the way in, and we
// always write FLOAT.
package exr

import "errors"

const (
	// First four bytes of every OpenEXR file, little-endian.
	MagicNumber = 20000630

	versionNumber = 2
	versionTiled  = 0x200
)

// Compression identifies the per-block codec. Only the three
// zlib-or-nothing schemes are supported; the numeric values are the
// wire values.
type Compression uint8

const (
	CompressionNone Compression = 0
	CompressionZIPS Compression = 2 // zlib, one scanline per block
	CompressionZIP  Compression = 3 // zlib, sixteen scanlines per block
)

// BlockLines returns how many scanlines one compressed block holds.
func (c Compression) BlockLines() int {
	if c == CompressionZIP {
		return 16
	}
	return 1
}

func (c Compression) valid() bool {
	switch c {
	case CompressionNone, CompressionZIPS, CompressionZIP:
		return true
	}
	return false
}

// PixelType is a channel's sample encoding. The numeric values are
// the wire values.
type PixelType int32

const (
	PixelTypeUint  PixelType = 0
	PixelTypeHalf  PixelType = 1
	PixelTypeFloat PixelType = 2
)

// Size returns the number of bytes one sample occupies in the file.
func (t PixelType) Size() int {
	if t == PixelTypeHalf {
		return 2
	}
	return 4
}

func (t PixelType) valid() bool {
	switch t {
	case PixelTypeUint, PixelTypeHalf, PixelTypeFloat:
		return true
	}
	return false
}

var (
	ErrBadMagic    = errors.New("exr: not an OpenEXR file")
	ErrUnsupported = errors.New("exr: unsupported OpenEXR feature")
	ErrCorrupt     = errors.New("exr: corrupt OpenEXR file")
)
