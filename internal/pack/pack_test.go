package pack

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/winnyboy5/mediagit-core-sub002/internal/delta"
	"github.com/winnyboy5/mediagit-core-sub002/internal/object"
	"github.com/winnyboy5/mediagit-core-sub002/internal/oid"
)

type fixture struct {
	id  oid.OID
	typ object.Type
	raw []byte
}

func buildPack(t *testing.T, fixtures []fixture) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := NewWriter(&buf, uint32(len(fixtures)))
	require.NoError(t, err)
	for _, f := range fixtures {
		require.NoError(t, w.WriteObject(f.id, f.typ, f.raw))
	}
	_, err = w.Finish()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestWriteReadRoundTrip(t *testing.T) {
	fixtures := []fixture{
		{oid.FromBytes([]byte("one")), object.TypeBlob, []byte("one payload")},
		{oid.FromBytes([]byte("two")), object.TypeTree, []byte("two payload, a bit longer")},
		{oid.FromBytes([]byte("three")), object.TypeCommit, []byte("x")},
	}
	data := buildPack(t, fixtures)

	r, err := Open(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Equal(t, Version, r.Version)
	require.Equal(t, uint32(len(fixtures)), r.Count)
	require.NoError(t, r.VerifyChecksum())

	for _, f := range fixtures {
		typ, raw, err := r.Object(f.id)
		require.NoError(t, err)
		require.Equal(t, f.typ, typ)
		require.Equal(t, f.raw, raw)
	}
}

func TestOIDsAreAscending(t *testing.T) {
	fixtures := []fixture{
		{oid.FromBytes([]byte("z")), object.TypeBlob, []byte("z")},
		{oid.FromBytes([]byte("a")), object.TypeBlob, []byte("a")},
		{oid.FromBytes([]byte("m")), object.TypeBlob, []byte("m")},
	}
	data := buildPack(t, fixtures)
	r, err := Open(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	ids := r.OIDs()
	for i := 1; i < len(ids); i++ {
		require.True(t, ids[i-1].Less(ids[i]))
	}
}

func TestFindMissingReturnsNotFound(t *testing.T) {
	data := buildPack(t, []fixture{{oid.FromBytes([]byte("present")), object.TypeBlob, []byte("present")}})
	r, err := Open(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	_, err = r.Find(oid.FromBytes([]byte("absent")))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestEmptyPackRoundTrip(t *testing.T) {
	data := buildPack(t, nil)
	r, err := Open(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Equal(t, uint32(0), r.Count)
	require.NoError(t, r.VerifyChecksum())
	require.Empty(t, r.OIDs())
}

func TestChecksumMismatchDetected(t *testing.T) {
	data := buildPack(t, []fixture{{oid.FromBytes([]byte("a")), object.TypeBlob, []byte("a payload")}})
	corrupted := append([]byte(nil), data...)
	corrupted[headerSize] ^= 0xff // flip a byte inside the first object header

	r, err := Open(bytes.NewReader(corrupted), int64(len(corrupted)))
	require.NoError(t, err)
	require.ErrorIs(t, r.VerifyChecksum(), ErrChecksumMismatch)
}

func TestBadMagicRejected(t *testing.T) {
	data := buildPack(t, []fixture{{oid.FromBytes([]byte("a")), object.TypeBlob, []byte("a")}})
	corrupted := append([]byte(nil), data...)
	corrupted[0] = 'X'

	_, err := Open(bytes.NewReader(corrupted), int64(len(corrupted)))
	require.ErrorIs(t, err, ErrBadMagic)
}

func TestWriteObjectCountMismatchRejected(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, 2)
	require.NoError(t, err)
	require.NoError(t, w.WriteObject(oid.FromBytes([]byte("only one")), object.TypeBlob, []byte("only one")))
	_, err = w.Finish()
	require.Error(t, err)
}

func TestObjectRecordHasNoInlineOID(t *testing.T) {
	raw := []byte("a payload long enough to find the prefix")
	fixtures := []fixture{{oid.FromBytes(raw), object.TypeBlob, raw}}
	data := buildPack(t, fixtures)

	// Immediately after the header comes the first (and only) record:
	// type_tag(1) + size(u32 LE) + payload, with no 32-byte OID.
	got := data[headerSize : headerSize+objectHeaderSize+len(raw)]
	require.Equal(t, byte(object.TypeBlob), got[0])
	require.Equal(t, uint32(len(raw)), uint32(got[1])|uint32(got[2])<<8|uint32(got[3])<<16|uint32(got[4])<<24)
	require.Equal(t, raw, got[objectHeaderSize:])
}

func TestIndexHasEntryCountAndSizeField(t *testing.T) {
	fixtures := []fixture{
		{oid.FromBytes([]byte("one")), object.TypeBlob, []byte("one payload")},
		{oid.FromBytes([]byte("two")), object.TypeTree, []byte("two payload, a bit longer")},
	}
	data := buildPack(t, fixtures)

	r, err := Open(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Equal(t, uint32(len(fixtures)), r.Count)
	require.Len(t, r.index, len(fixtures))
	for _, e := range r.index {
		require.NotZero(t, e.Size)
	}
}

func TestStreamReaderYieldsObjectsInWriteOrder(t *testing.T) {
	fixtures := []fixture{
		{oid.FromBytes([]byte("one")), object.TypeBlob, []byte("one payload")},
		{oid.FromBytes([]byte("two")), object.TypeTree, []byte("two payload, a bit longer")},
		{oid.FromBytes([]byte("three")), object.TypeCommit, []byte("x")},
	}
	data := buildPack(t, fixtures)

	sr, err := NewStreamReader(bytes.NewReader(data), nil)
	require.NoError(t, err)
	require.Equal(t, Version, sr.Version)
	require.Equal(t, uint32(len(fixtures)), sr.Count)

	for _, f := range fixtures {
		id, typ, raw, err := sr.Next()
		require.NoError(t, err)
		require.Equal(t, f.id, id)
		require.Equal(t, f.typ, typ)
		require.Equal(t, f.raw, raw)
	}

	_, _, _, err = sr.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestStreamReaderResolvesDeltaPayloadViaBaseResolver(t *testing.T) {
	base := []byte("the quick brown fox jumps over the lazy dog, many times over")
	target := []byte("the quick brown fox jumps over the lazy hound, many times over")
	baseID := oid.FromBytes(base)

	deltaBytes := delta.Encode(base, target)
	payload := make([]byte, 0, deltaHeaderSize+len(deltaBytes))
	payload = append(payload, packDeltaMarker)
	payload = append(payload, baseID[:]...)
	payload = append(payload, deltaBytes...)

	var buf bytes.Buffer
	var header [headerSize]byte
	copy(header[0:4], magic[:])
	binary.LittleEndian.PutUint32(header[4:8], Version)
	binary.LittleEndian.PutUint32(header[8:12], 1)
	buf.Write(header[:])

	var hdr [objectHeaderSize]byte
	hdr[0] = byte(object.TypeBlob)
	binary.LittleEndian.PutUint32(hdr[1:], uint32(len(payload)))
	buf.Write(hdr[:])
	buf.Write(payload)

	resolver := func(id oid.OID) ([]byte, error) {
		require.Equal(t, baseID, id)
		return base, nil
	}
	sr, err := NewStreamReader(&buf, resolver)
	require.NoError(t, err)

	id, typ, raw, err := sr.Next()
	require.NoError(t, err)
	require.Equal(t, object.TypeBlob, typ)
	require.Equal(t, target, raw)
	require.Equal(t, oid.FromBytes(target), id)
}

func TestStreamReaderRequiresResolverForDeltaPayload(t *testing.T) {
	baseID := oid.FromBytes([]byte("base"))
	payload := append([]byte{packDeltaMarker}, baseID[:]...)
	payload = append(payload, 0x00, 0x00) // minimal delta header, never decoded

	var buf bytes.Buffer
	var header [headerSize]byte
	copy(header[0:4], magic[:])
	binary.LittleEndian.PutUint32(header[4:8], Version)
	binary.LittleEndian.PutUint32(header[8:12], 1)
	buf.Write(header[:])

	var hdr [objectHeaderSize]byte
	hdr[0] = byte(object.TypeBlob)
	binary.LittleEndian.PutUint32(hdr[1:], uint32(len(payload)))
	buf.Write(hdr[:])
	buf.Write(payload)

	sr, err := NewStreamReader(&buf, nil)
	require.NoError(t, err)
	_, _, _, err = sr.Next()
	require.ErrorIs(t, err, ErrBaseResolverRequired)
}

func TestStreamReaderRejectsUnknownTypeTag(t *testing.T) {
	var buf bytes.Buffer
	var header [headerSize]byte
	copy(header[0:4], magic[:])
	binary.LittleEndian.PutUint32(header[4:8], Version)
	binary.LittleEndian.PutUint32(header[8:12], 1)
	buf.Write(header[:])

	var hdr [objectHeaderSize]byte
	hdr[0] = 0x7f // not a known object.Type
	binary.LittleEndian.PutUint32(hdr[1:], 0)
	buf.Write(hdr[:])

	sr, err := NewStreamReader(&buf, nil)
	require.NoError(t, err)
	_, _, _, err = sr.Next()
	require.ErrorIs(t, err, ErrUnknownType)
}

func TestOpenRejectsIndexCountMismatch(t *testing.T) {
	data := buildPack(t, []fixture{{oid.FromBytes([]byte("a")), object.TypeBlob, []byte("a")}})
	corrupted := append([]byte(nil), data...)

	indexOffset := int64(binary.LittleEndian.Uint32(corrupted[len(corrupted)-trailerSize : len(corrupted)-trailerSize+4]))
	binary.LittleEndian.PutUint32(corrupted[indexOffset:indexOffset+4], 99)

	_, err := Open(bytes.NewReader(corrupted), int64(len(corrupted)))
	require.ErrorIs(t, err, ErrInvalidPack)
}
