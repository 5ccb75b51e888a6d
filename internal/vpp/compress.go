package vpp

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// DefaultCompressionLevel is used when the caller does not pick a level.
const DefaultCompressionLevel = zlib.DefaultCompression

// Compress deflates raw into a zlib stream at the given level.
func Compress(raw []byte, level int) ([]byte, error) {
	var buf bytes.Buffer

	w, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("create zlib writer: %w", err)
	}

	if _, err := w.Write(raw); err != nil {
		return nil, fmt.Errorf("zlib write: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("zlib close: %w", err)
	}

	return buf.Bytes(), nil
}

// Decompress inflates a zlib stream and returns exactly expectedSize bytes.
// Streams that end early or fail to decode are reported as ErrCorruptPayload.
func Decompress(compressed []byte, expectedSize uint32) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptPayload, err)
	}
	defer r.Close()

	out := make([]byte, expectedSize)
	n, err := io.ReadFull(r, out)
	if err != nil {
		return nil, fmt.Errorf("%w: inflated %d of %d bytes: %w", ErrCorruptPayload, n, expectedSize, err)
	}

	return out, nil
}
