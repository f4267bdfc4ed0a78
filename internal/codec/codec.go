// Package codec implements the compression codecs (C3): zstd and brotli,
// with magic-byte algorithm auto-detection on decode.
package codec

import "bytes"

// Algorithm identifies a compression codec by its on-disk magic prefix.
type Algorithm byte

const (
	// None indicates the bytes are stored uncompressed (unrecognised
	// prefix on decode, or a smart-policy decision not to compress).
	None Algorithm = iota
	Zstd
	Brotli
)

var (
	zstdMagic   = []byte{0x28, 0xb5, 0x2f, 0xfd}
	brotliMagic = []byte{0x6d, 0x67, 0x42, 0x52} // "mgBR": brotli has no self-describing magic, so mediagit frames it.
)

// Detect inspects the first bytes of b and returns which algorithm
// produced it. Unrecognised prefixes are reported as None (treated as
// uncompressed), matching the spec's decode contract.
func Detect(b []byte) Algorithm {
	if bytes.HasPrefix(b, zstdMagic) {
		return Zstd
	}
	if bytes.HasPrefix(b, brotliMagic) {
		return Brotli
	}
	return None
}

// Codec compresses and decompresses byte slices for one algorithm.
type Codec interface {
	Algorithm() Algorithm
	Compress(level int, src []byte) ([]byte, error)
	Decompress(src []byte) ([]byte, error)
}

// ForAlgorithm returns the Codec implementing algo, or nil for None.
func ForAlgorithm(algo Algorithm) Codec {
	switch algo {
	case Zstd:
		return zstdCodec{}
	case Brotli:
		return brotliCodec{}
	default:
		return nil
	}
}

// DecompressAuto detects the algorithm from b's prefix and decompresses
// accordingly; None-detected input is returned unchanged.
func DecompressAuto(b []byte) ([]byte, error) {
	algo := Detect(b)
	c := ForAlgorithm(algo)
	if c == nil {
		return b, nil
	}
	return c.Decompress(b)
}
