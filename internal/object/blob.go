package object

// Blob is an opaque byte sequence with no internal structure. Its
// canonical serialized form, for OID purposes, is simply its raw bytes
// (the ODB prefixes the 1-byte type tag separately, see
// internal/odb/write.go).
type Blob struct {
	Contents []byte
}

// NewBlob wraps raw bytes as a Blob.
func NewBlob(contents []byte) *Blob {
	return &Blob{Contents: contents}
}

// Size returns the blob's length in bytes.
func (b *Blob) Size() int64 {
	return int64(len(b.Contents))
}
