package exr

// A Slice tells the reader/writer where one channel's samples live
// inside a []float32. Strides and the offset are in float32
// elements, not bytes, and pixel (x, y) means x columns and y rows
// from the data window's top-left corner - there's no pointer-to-
// before-the-buffer trick here, just index arithmetic:
//
//	index = Offset + y*YStride + x*XStride
//
// For channel c of an interleaved height x width x channels buffer
// that's Slice{Data: buf, Offset: c, XStride: channels, YStride:
// width * channels}.
type Slice struct {
	Data    []float32
	Offset  int
	XStride int
	YStride int
}

func (s Slice) index(x, y int) int { return s.Offset + y*s.YStride + x*s.XStride }

// A FrameBuffer maps channel names to slices. Channels present in a
// file but absent here are skipped on read; header channels absent
// here are written as zeroes.
type FrameBuffer map[string]Slice

// Insert adds or replaces the slice for a channel.
func (fb FrameBuffer) Insert(name string, s Slice) {
	fb[name] = s
}
