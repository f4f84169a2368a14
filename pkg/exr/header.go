package exr

import (
	"fmt"
	"sort"
)

// Box2i is an inclusive integer rectangle, as used by the data and
// display windows. A 640x480 image spans (0,0)-(639,479).
type Box2i struct {
	XMin, YMin, XMax, YMax int32
}

func (b Box2i) Width() int  { return int(b.XMax-b.XMin) + 1 }
func (b Box2i) Height() int { return int(b.YMax-b.YMin) + 1 }

func (b Box2i) empty() bool { return b.XMax < b.XMin || b.YMax < b.YMin }

// V2f is a 2-vector of float32s (screen window center, mostly).
type V2f struct {
	X, Y float32
}

// Channel describes one named plane of samples.
type Channel struct {
	Name      string
	Type      PixelType
	PLinear   bool
	XSampling int32
	YSampling int32
}

// Header carries the attributes of a scanline part. Every field here
// is written out; on read, unknown attributes in the file are
// skipped.
type Header struct {
	Channels          []Channel // kept sorted by name
	Compression       Compression
	DataWindow        Box2i
	DisplayWindow     Box2i
	PixelAspectRatio  float32
	ScreenWindowCtr   V2f
	ScreenWindowWidth float32
}

// NewHeader builds a header for a width x height image with both
// windows at origin and the usual defaults.
func NewHeader(width, height int, compression Compression) *Header {
	box := Box2i{0, 0, int32(width) - 1, int32(height) - 1}
	return &Header{
		Compression:       compression,
		DataWindow:        box,
		DisplayWindow:     box,
		PixelAspectRatio:  1,
		ScreenWindowWidth: 1,
	}
}

// AddChannel inserts a channel, keeping the list sorted by name the
// way the file format wants it. Re-adding a name replaces it.
func (h *Header) AddChannel(name string, t PixelType) {
	for i := range h.Channels {
		if h.Channels[i].Name == name {
			h.Channels[i].Type = t
			return
		}
	}
	h.Channels = append(h.Channels, Channel{Name: name, Type: t, XSampling: 1, YSampling: 1})
	sort.Slice(h.Channels, func(i, j int) bool { return h.Channels[i].Name < h.Channels[j].Name })
}

// FindChannel returns the named channel, or nil.
func (h *Header) FindChannel(name string) *Channel {
	for i := range h.Channels {
		if h.Channels[i].Name == name {
			return &h.Channels[i]
		}
	}
	return nil
}

func (h *Header) validate() error {
	if len(h.Channels) == 0 {
		return fmt.Errorf("%w: header has no channels", ErrCorrupt)
	}
	if h.DataWindow.empty() {
		return fmt.Errorf("%w: empty data window", ErrCorrupt)
	}
	if !h.Compression.valid() {
		return fmt.Errorf("%w: compression %d", ErrUnsupported, h.Compression)
	}
	for _, c := range h.Channels {
		if !c.Type.valid() {
			return fmt.Errorf("%w: pixel type %d", ErrUnsupported, c.Type)
		}
		if c.XSampling != 1 || c.YSampling != 1 {
			return fmt.Errorf("%w: subsampled channel '%s'", ErrUnsupported, c.Name)
		}
	}
	return nil
}

// blockCount is how many compressed blocks cover the data window.
func (h *Header) blockCount() int {
	n := h.Compression.BlockLines()
	return (h.DataWindow.Height() + n - 1) / n
}

// bytesPerScanline is the uncompressed size of one scanline across
// all channels.
func (h *Header) bytesPerScanline() int {
	total := 0
	for _, c := range h.Channels {
		total += h.DataWindow.Width() * c.Type.Size()
	}
	return total
}
