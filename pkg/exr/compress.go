package exr

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// The ZIP/ZIPS block codec, per the reference implementation: split
// the block into even and odd byte halves, delta-encode, deflate.
// If deflate doesn't actually shrink the block, the raw bytes are
// stored instead - the reader detects that case by size alone.

func compressBlock(c Compression, raw []byte) ([]byte, error) {
	if c == CompressionNone {
		return raw, nil
	}
	shuffled := interleave(raw)
	applyPredictor(shuffled)
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(shuffled); err != nil {
		zw.Close()
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	if buf.Len() >= len(raw) {
		return raw, nil
	}
	return buf.Bytes(), nil
}

func decompressBlock(c Compression, data []byte, expected int) ([]byte, error) {
	if c == CompressionNone || len(data) == expected {
		if len(data) != expected {
			return nil, fmt.Errorf("%w: block is %d bytes, want %d", ErrCorrupt, len(data), expected)
		}
		return data, nil
	}
	if len(data) > expected {
		return nil, fmt.Errorf("%w: block is %d bytes, want <= %d", ErrCorrupt, len(data), expected)
	}
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	defer zr.Close()
	out := make([]byte, expected)
	if _, err := io.ReadFull(zr, out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	undoPredictor(out)
	return deinterleave(out), nil
}

// applyPredictor delta-encodes in place: each byte becomes its
// difference from the previous original byte, biased by 128.
func applyPredictor(data []byte) {
	if len(data) == 0 {
		return
	}
	prev := int(data[0])
	for i := 1; i < len(data); i++ {
		cur := int(data[i])
		data[i] = byte(cur - prev + 128)
		prev = cur
	}
}

func undoPredictor(data []byte) {
	for i := 1; i < len(data); i++ {
		data[i] = byte(int(data[i]) + int(data[i-1]) - 128)
	}
}

// interleave splits src into its even-indexed bytes followed by its
// odd-indexed bytes, which groups the similar high/low bytes of
// 16-bit-ish pixel data and helps deflate along.
func interleave(src []byte) []byte {
	n := len(src)
	dst := make([]byte, n)
	half := (n + 1) / 2
	for i := 0; i < half; i++ {
		dst[i] = src[i*2]
	}
	for i := 0; i < n-half; i++ {
		dst[half+i] = src[i*2+1]
	}
	return dst
}

func deinterleave(src []byte) []byte {
	n := len(src)
	dst := make([]byte, n)
	half := (n + 1) / 2
	for i := 0; i < half; i++ {
		dst[i*2] = src[i]
	}
	for i := 0; i < n-half; i++ {
		dst[i*2+1] = src[half+i]
	}
	return dst
}
