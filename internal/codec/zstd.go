package codec

import (
	"bytes"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// zstd encoder/decoder pooling, mirroring the teacher's
// modules/streamio/zstd.go sync.Pool wrapper.
var (
	zstdEncoders sync.Pool
	zstdDecoders sync.Pool
)

func getZstdEncoder(level zstd.EncoderLevel) *zstd.Encoder {
	if v := zstdEncoders.Get(); v != nil {
		enc := v.(*zstd.Encoder)
		enc.Reset(nil)
		return enc
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
	return enc
}

func putZstdEncoder(enc *zstd.Encoder) {
	zstdEncoders.Put(enc)
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoders.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoders.Put(dec)
}

type zstdCodec struct{}

func (zstdCodec) Algorithm() Algorithm { return Zstd }

func (zstdCodec) Compress(level int, src []byte) ([]byte, error) {
	enc := getZstdEncoder(levelFor(level))
	defer putZstdEncoder(enc)
	var buf bytes.Buffer
	enc.Reset(&buf)
	if _, err := enc.Write(src); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (zstdCodec) Decompress(src []byte) ([]byte, error) {
	dec := getZstdDecoder()
	defer putZstdDecoder(dec)
	return dec.DecodeAll(src, nil)
}

func levelFor(level int) zstd.EncoderLevel {
	switch {
	case level <= 1:
		return zstd.SpeedFastest
	case level <= 3:
		return zstd.SpeedDefault
	case level <= 6:
		return zstd.SpeedBetterCompression
	default:
		return zstd.SpeedBestCompression
	}
}
