package exr

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// A Reader decodes one scanline image. NewReader slurps and parses
// the header and block offset table up front; SetFrameBuffer then
// ReadPixels pull scanlines into the caller's buffers.
type Reader struct {
	data    *bytes.Reader
	header  *Header
	offsets []uint64
	fb      FrameBuffer
}

func NewReader(r io.Reader) (*Reader, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	br := bytes.NewReader(raw)

	magic, err := readU32(br)
	if err != nil || magic != MagicNumber {
		return nil, ErrBadMagic
	}
	version, err := readU32(br)
	if err != nil {
		return nil, fmt.Errorf("%w: truncated version field", ErrCorrupt)
	}
	if version&0xFF != versionNumber {
		return nil, fmt.Errorf("%w: version %d", ErrUnsupported, version&0xFF)
	}
	if version&versionTiled != 0 {
		return nil, fmt.Errorf("%w: tiled image", ErrUnsupported)
	}
	if version&^uint32(versionNumber) != 0 {
		// Long names, deep data, multipart - none of which we read.
		return nil, fmt.Errorf("%w: version flags %#x", ErrUnsupported, version)
	}

	h, err := readHeader(br)
	if err != nil {
		return nil, err
	}

	offsets := make([]uint64, h.blockCount())
	for i := range offsets {
		if offsets[i], err = readU64(br); err != nil {
			return nil, fmt.Errorf("%w: truncated offset table", ErrCorrupt)
		}
	}
	return &Reader{data: br, header: h, offsets: offsets}, nil
}

func (r *Reader) Header() *Header { return r.header }

// SetFrameBuffer registers the destination slices for subsequent
// ReadPixels calls. File channels with no slice are skipped.
func (r *Reader) SetFrameBuffer(fb FrameBuffer) {
	r.fb = fb
}

// ReadPixels decodes scanlines y1 through y2 inclusive, in absolute
// data window coordinates, into the frame buffer.
func (r *Reader) ReadPixels(y1, y2 int) error {
	if r.fb == nil {
		return fmt.Errorf("%w: ReadPixels without a frame buffer", ErrCorrupt)
	}
	dw := r.header.DataWindow
	if y1 > y2 || y1 < int(dw.YMin) || y2 > int(dw.YMax) {
		return fmt.Errorf("%w: scanline range %d-%d outside data window", ErrCorrupt, y1, y2)
	}

	blockLines := r.header.Compression.BlockLines()
	first := (y1 - int(dw.YMin)) / blockLines
	last := (y2 - int(dw.YMin)) / blockLines
	for b := first; b <= last; b++ {
		if err := r.readBlock(b, y1, y2); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reader) readBlock(b, y1, y2 int) error {
	if _, err := r.data.Seek(int64(r.offsets[b]), io.SeekStart); err != nil {
		return fmt.Errorf("%w: block %d offset %d", ErrCorrupt, b, r.offsets[b])
	}
	blockY, err1 := readI32(r.data)
	dataSize, err2 := readI32(r.data)
	if err1 != nil || err2 != nil || dataSize < 0 {
		return fmt.Errorf("%w: block %d header", ErrCorrupt, b)
	}
	payload := make([]byte, dataSize)
	if _, err := io.ReadFull(r.data, payload); err != nil {
		return fmt.Errorf("%w: block %d truncated", ErrCorrupt, b)
	}

	dw := r.header.DataWindow
	startRel := int(blockY) - int(dw.YMin)
	if startRel < 0 || startRel >= dw.Height() {
		return fmt.Errorf("%w: block %d starts at scanline %d", ErrCorrupt, b, blockY)
	}
	lines := r.header.Compression.BlockLines()
	if startRel+lines > dw.Height() {
		lines = dw.Height() - startRel
	}

	raw, err := decompressBlock(r.header.Compression, payload, lines*r.header.bytesPerScanline())
	if err != nil {
		return err
	}

	width := dw.Width()
	offset := 0
	for row := 0; row < lines; row++ {
		yAbs := int(blockY) + row
		for _, ch := range r.header.Channels {
			lineBytes := width * ch.Type.Size()
			line := raw[offset : offset+lineBytes]
			offset += lineBytes
			if yAbs < y1 || yAbs > y2 {
				continue
			}
			if s, ok := r.fb[ch.Name]; ok {
				decodeLine(s, ch.Type, yAbs-int(dw.YMin), width, line)
			}
		}
	}
	return nil
}

func decodeLine(s Slice, t PixelType, y, width int, line []byte) {
	for x := 0; x < width; x++ {
		var v float32
		switch t {
		case PixelTypeHalf:
			v = halfToFloat(binary.LittleEndian.Uint16(line[x*2:]))
		case PixelTypeFloat:
			v = float32frombytes(line[x*4:])
		case PixelTypeUint:
			v = float32(binary.LittleEndian.Uint32(line[x*4:]))
		}
		s.Data[s.index(x, y)] = v
	}
}

func readHeader(br *bytes.Reader) (*Header, error) {
	h := &Header{PixelAspectRatio: 1, ScreenWindowWidth: 1}
	sawChannels, sawDataWindow := false, false
	for {
		name, err := readString(br)
		if err != nil {
			return nil, fmt.Errorf("%w: truncated header", ErrCorrupt)
		}
		if name == "" {
			break
		}
		typ, err := readString(br)
		if err != nil {
			return nil, fmt.Errorf("%w: truncated header", ErrCorrupt)
		}
		size, err := readI32(br)
		if err != nil || size < 0 {
			return nil, fmt.Errorf("%w: attribute '%s' size", ErrCorrupt, name)
		}
		payload := make([]byte, size)
		if _, err := io.ReadFull(br, payload); err != nil {
			return nil, fmt.Errorf("%w: attribute '%s' truncated", ErrCorrupt, name)
		}

		switch name {
		case "channels":
			if typ != "chlist" {
				return nil, fmt.Errorf("%w: channels attribute has type '%s'", ErrCorrupt, typ)
			}
			if h.Channels, err = parseChannels(payload); err != nil {
				return nil, err
			}
			sawChannels = true
		case "compression":
			if len(payload) < 1 {
				return nil, fmt.Errorf("%w: compression attribute", ErrCorrupt)
			}
			h.Compression = Compression(payload[0])
		case "dataWindow", "displayWindow":
			if len(payload) != 16 {
				return nil, fmt.Errorf("%w: %s attribute", ErrCorrupt, name)
			}
			box := Box2i{
				XMin: int32(binary.LittleEndian.Uint32(payload[0:])),
				YMin: int32(binary.LittleEndian.Uint32(payload[4:])),
				XMax: int32(binary.LittleEndian.Uint32(payload[8:])),
				YMax: int32(binary.LittleEndian.Uint32(payload[12:])),
			}
			if name == "dataWindow" {
				h.DataWindow = box
				sawDataWindow = true
			} else {
				h.DisplayWindow = box
			}
		case "lineOrder":
			if len(payload) < 1 || payload[0] != 0 {
				return nil, fmt.Errorf("%w: line order", ErrUnsupported)
			}
		case "pixelAspectRatio":
			if len(payload) == 4 {
				h.PixelAspectRatio = float32frombytes(payload)
			}
		case "screenWindowCenter":
			if len(payload) == 8 {
				h.ScreenWindowCtr = V2f{float32frombytes(payload), float32frombytes(payload[4:])}
			}
		case "screenWindowWidth":
			if len(payload) == 4 {
				h.ScreenWindowWidth = float32frombytes(payload)
			}
		case "tiles":
			return nil, fmt.Errorf("%w: tiled image", ErrUnsupported)
		}
	}
	if !sawChannels {
		return nil, fmt.Errorf("%w: no channels attribute", ErrCorrupt)
	}
	if !sawDataWindow {
		return nil, fmt.Errorf("%w: no dataWindow attribute", ErrCorrupt)
	}
	return h, h.validate()
}

func parseChannels(payload []byte) ([]Channel, error) {
	br := bytes.NewReader(payload)
	var channels []Channel
	for {
		name, err := readString(br)
		if err != nil {
			return nil, fmt.Errorf("%w: channel list", ErrCorrupt)
		}
		if name == "" {
			return channels, nil
		}
		var fixed struct {
			Type      int32
			PLinear   uint8
			Reserved  [3]byte
			XSampling int32
			YSampling int32
		}
		if err := binary.Read(br, binary.LittleEndian, &fixed); err != nil {
			return nil, fmt.Errorf("%w: channel '%s'", ErrCorrupt, name)
		}
		channels = append(channels, Channel{
			Name:      name,
			Type:      PixelType(fixed.Type),
			PLinear:   fixed.PLinear != 0,
			XSampling: fixed.XSampling,
			YSampling: fixed.YSampling,
		})
	}
}
