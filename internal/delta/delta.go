// Package delta implements the copy/insert delta codec (C6): encoding one
// byte sequence as a sequence of instructions against a base, and
// decoding it back.
//
// The on-wire opcode format is grounded on go-git's
// plumbing/format/packfile/{diff_delta,patch_delta}.go: a 1-byte opcode
// whose high bit selects Copy (followed by up to 4 offset bytes and up
// to 3 size bytes, each present only if its bit in the opcode is set) vs
// Insert (low 7 bits encode the literal length, followed by that many
// raw bytes). The hash-indexed base-matching algorithm and the
// min-match-length/window-size parameters are the specification's own
// (C6 in SPEC_FULL.md), since no corpus example implements whole-object
// similarity-based delta encoding.
package delta

import (
	"encoding/binary"
	"errors"
)

const (
	// MinMatchLength is the shortest run of bytes considered for a Copy
	// instruction; shorter runs are always emitted as Insert literals.
	MinMatchLength = 4
	// WindowSize bounds how far a Copy instruction may span from its
	// start offset in the base.
	WindowSize = 32 * 1024
)

var (
	// ErrCopyPastBase is returned when decoding a Copy instruction whose
	// offset+length exceeds the base's length.
	ErrCopyPastBase = errors.New("delta: copy instruction reaches past base")
	// ErrSizeMismatch is returned when the decoded result's length does
	// not match the size recorded in the delta stream's header.
	ErrSizeMismatch = errors.New("delta: result size mismatch")
	// ErrTruncated is returned when the delta stream ends mid-instruction.
	ErrTruncated = errors.New("delta: truncated instruction stream")
)

// Encode builds a delta that, when applied to base via Decode, reproduces
// target exactly.
func Encode(base, target []byte) []byte {
	index := buildIndex(base)

	out := make([]byte, 0, len(target)/2+16)
	out = appendUvarint(out, uint64(len(base)))
	out = appendUvarint(out, uint64(len(target)))

	var literal []byte
	flushLiteral := func() {
		for len(literal) > 0 {
			chunk := literal
			if len(chunk) > 127 {
				chunk = chunk[:127]
			}
			out = append(out, byte(len(chunk)))
			out = append(out, chunk...)
			literal = literal[len(chunk):]
		}
	}

	pos := 0
	for pos < len(target) {
		offset, length := index.bestMatch(target, pos)
		if length >= MinMatchLength {
			flushLiteral()
			out = appendCopy(out, offset, length)
			pos += length
			continue
		}
		literal = append(literal, target[pos])
		pos++
	}
	flushLiteral()
	return out
}

// Decode applies a delta produced by Encode to base, reproducing the
// original target bytes.
func Decode(base, d []byte) ([]byte, error) {
	baseLen, n := binary.Uvarint(d)
	if n <= 0 {
		return nil, ErrTruncated
	}
	d = d[n:]
	if int(baseLen) != len(base) {
		return nil, ErrSizeMismatch
	}
	resultLen, n := binary.Uvarint(d)
	if n <= 0 {
		return nil, ErrTruncated
	}
	d = d[n:]

	out := make([]byte, 0, resultLen)
	for len(d) > 0 {
		opcode := d[0]
		d = d[1:]
		if opcode&0x80 != 0 {
			offset, length, rest, err := decodeCopy(opcode, d)
			if err != nil {
				return nil, err
			}
			d = rest
			if offset < 0 || length < 0 || offset+length > len(base) {
				return nil, ErrCopyPastBase
			}
			out = append(out, base[offset:offset+length]...)
			continue
		}
		length := int(opcode)
		if length == 0 || len(d) < length {
			return nil, ErrTruncated
		}
		out = append(out, d[:length]...)
		d = d[length:]
	}
	if len(out) != int(resultLen) {
		return nil, ErrSizeMismatch
	}
	return out, nil
}

// appendCopy encodes a Copy{offset, length} instruction using the
// go-git-style bitmask opcode: bit 0x80 marks the opcode as Copy; bits
// 0-3 indicate which of the 4 offset bytes are present (little-endian,
// omitting every zero byte); bits 4-6 indicate which of the 3 size
// bytes are present, again omitting every zero byte. The decoder reads
// an all-absent size field as 0x10000; this encoder never relies on that.
func appendCopy(out []byte, offset, length int) []byte {
	opcode := byte(0x80)
	var bytesBuf [7]byte
	n := 0

	o := uint32(offset)
	for i := 0; i < 4; i++ {
		b := byte(o >> (8 * i))
		if b != 0 {
			opcode |= 1 << i
			bytesBuf[n] = b
			n++
		}
	}
	l := uint32(length)
	for i := 0; i < 3; i++ {
		b := byte(l >> (8 * i))
		if b != 0 {
			opcode |= 1 << (4 + i)
			bytesBuf[n] = b
			n++
		}
	}
	out = append(out, opcode)
	out = append(out, bytesBuf[:n]...)
	return out
}

func decodeCopy(opcode byte, d []byte) (offset, length int, rest []byte, err error) {
	var o, l uint32
	for i := 0; i < 4; i++ {
		if opcode&(1<<i) != 0 {
			if len(d) == 0 {
				return 0, 0, nil, ErrTruncated
			}
			o |= uint32(d[0]) << (8 * i)
			d = d[1:]
		}
	}
	for i := 0; i < 3; i++ {
		if opcode&(1<<(4+i)) != 0 {
			if len(d) == 0 {
				return 0, 0, nil, ErrTruncated
			}
			l |= uint32(d[0]) << (8 * i)
			d = d[1:]
		}
	}
	if l == 0 {
		l = 0x10000
	}
	return int(o), int(l), d, nil
}

func appendUvarint(b []byte, v uint64) []byte {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], v)
	return append(b, buf[:n]...)
}

// index is a hash table of MinMatchLength-byte windows over the base,
// used to find the longest match at each target position in O(1)
// average lookup time.
type index struct {
	base    []byte
	buckets map[uint32][]int
}

func buildIndex(base []byte) *index {
	idx := &index{base: base, buckets: make(map[uint32][]int)}
	if len(base) < MinMatchLength {
		return idx
	}
	for i := 0; i+MinMatchLength <= len(base); i++ {
		h := hashWindow(base[i : i+MinMatchLength])
		idx.buckets[h] = append(idx.buckets[h], i)
	}
	return idx
}

func hashWindow(w []byte) uint32 {
	var h uint32 = 2166136261
	for _, b := range w {
		h ^= uint32(b)
		h *= 16777619
	}
	return h
}

// bestMatch returns the offset and length of the longest match in the
// base for target[pos:], bounded by WindowSize, or length 0 if no
// MinMatchLength-byte match exists.
func (idx *index) bestMatch(target []byte, pos int) (offset, length int) {
	if pos+MinMatchLength > len(target) {
		return 0, 0
	}
	h := hashWindow(target[pos : pos+MinMatchLength])
	candidates := idx.buckets[h]
	bestLen := 0
	bestOff := 0
	for _, cOff := range candidates {
		l := matchLength(idx.base, cOff, target, pos)
		if l > bestLen {
			bestLen = l
			bestOff = cOff
		}
	}
	return bestOff, bestLen
}

func matchLength(base []byte, baseOff int, target []byte, targetOff int) int {
	max := len(base) - baseOff
	if m := len(target) - targetOff; m < max {
		max = m
	}
	if max > WindowSize {
		max = WindowSize
	}
	n := 0
	for n < max && base[baseOff+n] == target[targetOff+n] {
		n++
	}
	return n
}
