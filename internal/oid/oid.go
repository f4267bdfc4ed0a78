// Package oid implements the content address used throughout mediagit: a
// 256-bit SHA-256 digest of an object's canonical decoded bytes.
package oid

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// Size is the length in bytes of an OID.
const Size = sha256.Size

// ErrInvalidHex is returned when parsing a string that is not exactly
// 2*Size hex characters, or contains non-hex bytes.
var ErrInvalidHex = errors.New("oid: invalid hex encoding")

// Zero is the all-zero OID, used as a sentinel for "no object" (e.g. the
// old side of a ref creation).
var Zero OID

// OID is a 256-bit object identifier: the SHA-256 of an object's decoded
// bytes. The zero value is the all-zero OID and is never a valid content
// hash of any object written through the ODB.
type OID [Size]byte

// FromBytes hashes a single byte slice.
func FromBytes(b []byte) OID {
	return OID(sha256.Sum256(b))
}

// FromReader hashes a stream in fixed-size chunks so memory use is
// independent of the stream's length, suitable for multi-GiB files.
func FromReader(r io.Reader) (OID, error) {
	h := sha256.New()
	buf := make([]byte, 64*1024)
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return OID{}, err
	}
	var out OID
	copy(out[:], h.Sum(nil))
	return out, nil
}

// Hasher incrementally computes an OID, mirroring hash.Hash but returning
// OID directly from Sum.
type Hasher struct {
	h interface {
		io.Writer
		Sum([]byte) []byte
		Reset()
	}
}

// NewHasher returns a ready-to-use incremental hasher.
func NewHasher() *Hasher {
	return &Hasher{h: sha256.New()}
}

func (h *Hasher) Write(p []byte) (int, error) { return h.h.Write(p) }

// Sum returns the OID of everything written so far.
func (h *Hasher) Sum() OID {
	var out OID
	copy(out[:], h.h.Sum(nil))
	return out
}

// Reset allows the Hasher to be reused.
func (h *Hasher) Reset() { h.h.Reset() }

// Parse decodes a 64-character lowercase hex string into an OID.
func Parse(s string) (OID, error) {
	if len(s) != Size*2 {
		return OID{}, ErrInvalidHex
	}
	var out OID
	if _, err := hex.Decode(out[:], []byte(s)); err != nil {
		return OID{}, ErrInvalidHex
	}
	return out, nil
}

// String renders the OID as 64 lowercase hex characters.
func (o OID) String() string {
	return hex.EncodeToString(o[:])
}

// IsZero reports whether o is the all-zero OID.
func (o OID) IsZero() bool {
	return o == Zero
}

// Short returns the first n hex characters (n clamped to [0, 64]).
func (o OID) Short(n int) string {
	s := o.String()
	if n < 0 {
		n = 0
	}
	if n > len(s) {
		n = len(s)
	}
	return s[:n]
}

// Compare implements a total byte-lexicographic order, matching the
// data model's "total ordering by byte-lex" invariant.
func (o OID) Compare(other OID) int {
	return bytes.Compare(o[:], other[:])
}

// Less reports whether o sorts before other.
func (o OID) Less(other OID) bool {
	return o.Compare(other) < 0
}

// ShardedPath returns the two-level sharded on-disk path form: the first
// byte as a 2-char hex directory, the remaining 31 bytes as the file name.
func (o OID) ShardedPath() string {
	full := o.String()
	return fmt.Sprintf("%s/%s", full[:2], full[2:])
}

// MarshalText implements encoding.TextMarshaler.
func (o OID) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *OID) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// Slice is a sortable slice of OIDs, ascending by byte-lex order.
type Slice []OID

func (s Slice) Len() int           { return len(s) }
func (s Slice) Less(i, j int) bool { return s[i].Less(s[j]) }
func (s Slice) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }
