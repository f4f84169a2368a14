package exr

import (
	"bytes"
	"fmt"
	"io"
)

// A Writer encodes one scanline image. Compressed blocks accumulate
// in memory and the file is assembled in a single pass at Close, so
// the destination only needs to be an io.Writer - no seeking back to
// patch the offset table.
//
// Only FLOAT channels are written. Feed it scanlines top to bottom
// via WritePixels until the data window is full, then Close.
type Writer struct {
	w      io.Writer
	header *Header
	fb     FrameBuffer

	blocks  [][]byte // compressed payloads, in order
	pending []byte   // raw bytes of the block being filled
	row     int      // next scanline to take, relative to the window top
	closed  bool
}

func NewWriter(w io.Writer, h *Header) (*Writer, error) {
	if err := h.validate(); err != nil {
		return nil, err
	}
	for _, c := range h.Channels {
		if c.Type != PixelTypeFloat {
			return nil, fmt.Errorf("%w: writing %v channel '%s' (only FLOAT)", ErrUnsupported, c.Type, c.Name)
		}
	}
	return &Writer{w: w, header: h}, nil
}

// SetFrameBuffer registers the source slices. A header channel with
// no slice writes out as all zeroes.
func (w *Writer) SetFrameBuffer(fb FrameBuffer) {
	w.fb = fb
}

// WritePixels consumes the next numLines scanlines from the frame
// buffer. Calling it once with the full image height is the common
// case.
func (w *Writer) WritePixels(numLines int) error {
	if w.fb == nil {
		return fmt.Errorf("exr: WritePixels without a frame buffer")
	}
	height := w.header.DataWindow.Height()
	if w.row+numLines > height {
		return fmt.Errorf("exr: %d scanlines overflow a %d-line data window", w.row+numLines, height)
	}
	for n := 0; n < numLines; n++ {
		w.appendScanline(w.row)
		w.row++
		if w.row%w.header.Compression.BlockLines() == 0 || w.row == height {
			if err := w.flushBlock(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close assembles and emits the whole file. The data window must be
// completely written by now.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if w.row != w.header.DataWindow.Height() {
		return fmt.Errorf("exr: only %d of %d scanlines written", w.row, w.header.DataWindow.Height())
	}

	var buf bytes.Buffer
	putU32(&buf, MagicNumber)
	putU32(&buf, versionNumber)
	writeAttributes(&buf, w.header)

	// The offset table points just past itself at the first block.
	pos := uint64(buf.Len() + 8*len(w.blocks))
	blockLines := w.header.Compression.BlockLines()
	for _, b := range w.blocks {
		putU64(&buf, pos)
		pos += 4 + 4 + uint64(len(b))
	}
	for i, b := range w.blocks {
		putI32(&buf, w.header.DataWindow.YMin+int32(i*blockLines))
		putI32(&buf, int32(len(b)))
		buf.Write(b)
	}

	_, err := w.w.Write(buf.Bytes())
	return err
}

// appendScanline gathers one scanline, all channels in chlist order,
// onto the pending block.
func (w *Writer) appendScanline(y int) {
	width := w.header.DataWindow.Width()
	for _, ch := range w.header.Channels {
		s, ok := w.fb[ch.Name]
		if !ok {
			// Checked lazily so SetFrameBuffer stays infallible; an
			// absent channel writes as zeroes.
			w.pending = append(w.pending, make([]byte, width*4)...)
			continue
		}
		var buf [4]byte
		for x := 0; x < width; x++ {
			putF32bytes(buf[:], s.Data[s.index(x, y)])
			w.pending = append(w.pending, buf[:]...)
		}
	}
}

func (w *Writer) flushBlock() error {
	payload, err := compressBlock(w.header.Compression, w.pending)
	if err != nil {
		return err
	}
	// compressBlock may alias pending (raw fallback), so copy.
	w.blocks = append(w.blocks, append([]byte(nil), payload...))
	w.pending = w.pending[:0]
	return nil
}

func writeAttributes(buf *bytes.Buffer, h *Header) {
	var chlist bytes.Buffer
	for _, c := range h.Channels {
		putString(&chlist, c.Name)
		putI32(&chlist, int32(c.Type))
		if c.PLinear {
			chlist.WriteByte(1)
		} else {
			chlist.WriteByte(0)
		}
		chlist.Write([]byte{0, 0, 0})
		putI32(&chlist, c.XSampling)
		putI32(&chlist, c.YSampling)
	}
	chlist.WriteByte(0)
	writeAttr(buf, "channels", "chlist", chlist.Bytes())

	writeAttr(buf, "compression", "compression", []byte{byte(h.Compression)})

	var box bytes.Buffer
	putBox2i(&box, h.DataWindow)
	writeAttr(buf, "dataWindow", "box2i", box.Bytes())
	box.Reset()
	putBox2i(&box, h.DisplayWindow)
	writeAttr(buf, "displayWindow", "box2i", box.Bytes())

	writeAttr(buf, "lineOrder", "lineOrder", []byte{0})

	var f bytes.Buffer
	putF32(&f, h.PixelAspectRatio)
	writeAttr(buf, "pixelAspectRatio", "float", f.Bytes())

	var v2 bytes.Buffer
	putF32(&v2, h.ScreenWindowCtr.X)
	putF32(&v2, h.ScreenWindowCtr.Y)
	writeAttr(buf, "screenWindowCenter", "v2f", v2.Bytes())

	f.Reset()
	putF32(&f, h.ScreenWindowWidth)
	writeAttr(buf, "screenWindowWidth", "float", f.Bytes())

	buf.WriteByte(0) // end of header
}

func writeAttr(buf *bytes.Buffer, name, typ string, payload []byte) {
	putString(buf, name)
	putString(buf, typ)
	putI32(buf, int32(len(payload)))
	buf.Write(payload)
}

func putBox2i(buf *bytes.Buffer, b Box2i) {
	putI32(buf, b.XMin)
	putI32(buf, b.YMin)
	putI32(buf, b.XMax)
	putI32(buf, b.YMax)
}
