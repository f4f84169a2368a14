package imageio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/abworrall/hdr-expose/pkg/tensor"
)

// Portable FloatMap. The header is three whitespace-separated text
// fields (magic, dimensions, scale) followed by raw 32-bit floats;
// rows are stored bottom-up, and the sign of the scale field encodes
// byte order. We only speak little-endian.
//
//	PF\n
//	640 480\n
//	-1.0\n
//	<480 rows of 640*3 LE float32, last image row first>

// LoadPFM reads a PFM file into an hwc tensor (3 channels for "PF",
// 1 for "Pf"), applying the scale factor to every sample.
func LoadPFM(filename string) (*tensor.Tensor, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot open file '%s': %v", ErrIO, filename, err)
	}
	defer f.Close()
	return readPFM(bufio.NewReader(f))
}

// SavePFM writes a 3-channel hwc tensor as a little-endian PF file.
// Samples go out verbatim; the scale written is always -1.0.
func SavePFM(img *tensor.Tensor, filename string) error {
	if !img.IsRGB() {
		return fmt.Errorf("%w: image must have 3 channels", ErrInvalidArgument)
	}
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("%w: cannot open file: '%s': %v", ErrIO, filename, err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	writePFM(w, img)
	if err := w.Flush(); err != nil {
		return fmt.Errorf("%w: write '%s': %v", ErrIO, filename, err)
	}
	return nil
}

func readPFM(r *bufio.Reader) (*tensor.Tensor, error) {
	badHeader := func() (*tensor.Tensor, error) {
		return nil, fmt.Errorf("%w: invalid PFM image", ErrInvalidFormat)
	}

	id, err := pfmToken(r)
	if err != nil {
		return badHeader()
	}
	var nch int
	switch id {
	case "PF":
		nch = 3
	case "Pf":
		nch = 1
	default:
		return badHeader()
	}

	widthTok, err1 := pfmToken(r)
	heightTok, err2 := pfmToken(r)
	scaleTok, err3 := pfmToken(r)
	if err1 != nil || err2 != nil || err3 != nil {
		return badHeader()
	}
	w, err1 := strconv.Atoi(widthTok)
	h, err2 := strconv.Atoi(heightTok)
	scale, err3 := strconv.ParseFloat(scaleTok, 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return badHeader()
	}
	if w <= 0 || h <= 0 {
		return badHeader()
	}
	// Exactly one separator byte sits between the scale field and the
	// pixel data. More than one would shift the floats; we take one.
	if _, err := r.ReadByte(); err != nil {
		return badHeader()
	}

	if scale >= 0 {
		return nil, fmt.Errorf("%w: big-endian PFM images are not supported", ErrUnsupportedFormat)
	}
	scale = -scale

	img := tensor.New([3]int{h, w, nch}, tensor.FormatHWC)
	row := make([]byte, w*nch*4)
	for y := 0; y < h; y++ {
		if _, err := io.ReadFull(r, row); err != nil {
			return nil, fmt.Errorf("%w: invalid PFM image: %v", ErrInvalidFormat, err)
		}
		// PFM rows run bottom-to-top, tensors top-to-bottom.
		base := (h - 1 - y) * w * nch
		for i := 0; i < w*nch; i++ {
			bits := binary.LittleEndian.Uint32(row[i*4:])
			img.Values[base+i] = math.Float32frombits(bits) * float32(scale)
		}
	}
	return img, nil
}

func writePFM(w *bufio.Writer, img *tensor.Tensor) {
	height, width, nch := img.Height(), img.Width(), img.Channels()
	fmt.Fprintf(w, "PF\n%d %d\n-1.0\n", width, height)
	var buf [4]byte
	for y := height - 1; y >= 0; y-- {
		base := y * width * nch
		for i := 0; i < width*nch; i++ {
			binary.LittleEndian.PutUint32(buf[:], math.Float32bits(img.Values[base+i]))
			w.Write(buf[:])
		}
	}
}

// pfmToken scans the next whitespace-delimited header field, leaving
// the terminating separator unread so the scale/data boundary rule
// above can count it.
func pfmToken(r *bufio.Reader) (string, error) {
	var b byte
	var err error
	for {
		b, err = r.ReadByte()
		if err != nil {
			return "", err
		}
		if !pfmSpace(b) {
			break
		}
	}
	tok := []byte{b}
	for {
		b, err = r.ReadByte()
		if err == io.EOF {
			return string(tok), nil
		}
		if err != nil {
			return "", err
		}
		if pfmSpace(b) {
			r.UnreadByte()
			return string(tok), nil
		}
		tok = append(tok, b)
	}
}

func pfmSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
