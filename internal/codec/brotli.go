package codec

import (
	"bytes"
	"io"

	"github.com/andybalholm/brotli"
)

// brotliCodec implements the high-ratio codec. Brotli streams have no
// self-describing magic number, so mediagit prefixes its own 4-byte
// marker (see brotliMagic) ahead of the raw brotli stream — this is the
// on-disk framing, not part of the brotli format itself.
type brotliCodec struct{}

func (brotliCodec) Algorithm() Algorithm { return Brotli }

func (brotliCodec) Compress(level int, src []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(brotliMagic)
	w := brotli.NewWriterLevel(&buf, brotliLevel(level))
	if _, err := w.Write(src); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (brotliCodec) Decompress(src []byte) ([]byte, error) {
	body := bytes.TrimPrefix(src, brotliMagic)
	r := brotli.NewReader(bytes.NewReader(body))
	return io.ReadAll(r)
}

func brotliLevel(level int) int {
	switch {
	case level <= 0:
		return brotli.DefaultCompression
	case level > brotli.BestCompression:
		return brotli.BestCompression
	default:
		return level
	}
}
