package odb

import (
	"bytes"
	"math"
)

func byteReader(b []byte) *bytes.Reader {
	return bytes.NewReader(b)
}

// magic prefixes of formats that are already compressed; smart compression
// skips recompressing these since it reliably nets a loss.
var compressedMagics = [][]byte{
	{0x89, 'P', 'N', 'G'},    // PNG
	{0xff, 0xd8, 0xff},       // JPEG
	{'G', 'I', 'F', '8'},     // GIF
	{'P', 'K', 0x03, 0x04},   // ZIP (also used by many container formats)
	{0x1f, 0x8b},             // gzip
	{0x28, 0xb5, 0x2f, 0xfd}, // zstd
	{0x42, 0x5a, 'h'},        // bzip2
}

func isLikelyCompressed(b []byte) bool {
	for _, magic := range compressedMagics {
		if bytes.HasPrefix(b, magic) {
			return true
		}
	}
	if len(b) >= 12 && bytes.Equal(b[4:8], []byte("ftyp")) {
		return true // MP4/MOV family
	}
	if len(b) >= 12 && bytes.Equal(b[0:4], []byte("RIFF")) && bytes.Equal(b[8:12], []byte("WEBP")) {
		return true
	}
	return false
}

// entropySampleCap bounds the entropy scan to a leading window so the
// check stays cheap on multi-megabyte objects.
const entropySampleCap = 64 * 1024

// highEntropyThreshold is bits-per-byte above which content is treated as
// already compressed/encrypted (the theoretical max is 8).
const highEntropyThreshold = 7.5

// shannonEntropy returns the Shannon entropy, in bits per byte, of a
// leading sample of b.
func shannonEntropy(b []byte) float64 {
	if len(b) == 0 {
		return 0
	}
	if len(b) > entropySampleCap {
		b = b[:entropySampleCap]
	}
	var freq [256]int
	for _, c := range b {
		freq[c]++
	}
	n := float64(len(b))
	var entropy float64
	for _, count := range freq {
		if count == 0 {
			continue
		}
		p := float64(count) / n
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// shouldCompress implements the smart compression policy (SPEC_FULL.md
// §4.7.1): skip framing overhead on tiny objects, skip recompressing
// content that is already compressed — by known magic or by high
// entropy. raw must be the object's original content, not a tag-prefixed
// or delta-framed form, since the magic/entropy signals only hold for
// the content itself.
func shouldCompress(raw []byte) bool {
	if len(raw) < smallObjectThreshold {
		return false
	}
	if isLikelyCompressed(raw) {
		return false
	}
	return shannonEntropy(raw) < highEntropyThreshold
}
