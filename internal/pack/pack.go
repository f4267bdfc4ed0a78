// Package pack implements the streaming pack format (C8): a single file
// holding a header, a stream of self-describing objects, an index of
// ascending-OID→offset/size entries, and a trailer giving the index's
// location plus a whole-file checksum.
//
// Grounded on modules/zeta/backend/pack/{encode,packfile}.go for the
// streaming-writer (incremental hash via io.MultiWriter, offset bookkeeping)
// and ReaderAt-based random-access reader idiom. One thing is deliberately
// changed from the teacher to match the specification: the index lives
// inline in the pack stream rather than in a sidecar .idx file (see
// DESIGN.md's Open Question decision on this). Every integer on the wire is
// little-endian, and the per-object record and index entry layouts are
// bit-exact to SPEC_FULL.md §4.8.
package pack

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/winnyboy5/mediagit-core-sub002/internal/delta"
	"github.com/winnyboy5/mediagit-core-sub002/internal/object"
	"github.com/winnyboy5/mediagit-core-sub002/internal/oid"
)

// Version is the only pack format version this package writes.
const Version uint32 = 1

// headerSize is magic(4) + version(4) + object_count(4).
const headerSize = 12

// trailerSize is index_offset(4) + sha256(32).
const trailerSize = 4 + sha256.Size

// indexEntrySize is oid(32) + offset(8) + size(4).
const indexEntrySize = oid.Size + 8 + 4

// indexCountSize is the entry_count(4) field prefixing the index.
const indexCountSize = 4

// objectHeaderSize is type_tag(1) + size(4), preceding each object's
// payload in the object stream. There is no inline OID: a non-delta
// payload's OID is the hash of the payload itself, and a delta payload's
// OID is the hash of the bytes it reconstructs, so the record never
// needs to carry one.
const objectHeaderSize = 1 + 4

// packDeltaMarker flags a payload as delta-encoded against a base object
// resolved out-of-pack via a BaseResolver. It is local to this package:
// the pack's delta framing is its own wire convention, distinct from the
// ODB's on-disk one, since the per-record type_tag already carries the
// type and need not be repeated inside the payload.
const packDeltaMarker = 0xff

// deltaHeaderSize is packDeltaMarker(1) + base oid(32), preceding the
// delta instruction stream in a delta-encoded payload.
const deltaHeaderSize = 1 + oid.Size

var magic = [4]byte{'P', 'A', 'C', 'K'}

var (
	// ErrBadMagic is returned when a stream does not start with the pack
	// magic bytes.
	ErrBadMagic = errors.New("pack: bad magic")
	// ErrChecksumMismatch is returned when a pack's trailing sha256 does
	// not match its recomputed content hash.
	ErrChecksumMismatch = errors.New("pack: checksum mismatch")
	// ErrNotFound is returned by Find/Object when an OID is absent from
	// the pack's index.
	ErrNotFound = errors.New("pack: object not found")
	// ErrTruncated is returned when a pack ends before its header promises.
	ErrTruncated = errors.New("pack: truncated")
	// ErrInvalidPack is returned when the index's own entry count
	// disagrees with the header's declared object count.
	ErrInvalidPack = errors.New("pack: declared object count does not match index")
	// ErrUnknownType is returned when an object record's type tag is not
	// one of the known object.Type values.
	ErrUnknownType = errors.New("pack: unknown object type tag")
	// ErrBaseResolverRequired is returned by StreamReader.Next when a
	// delta-encoded payload is encountered and no BaseResolver was given.
	ErrBaseResolverRequired = errors.New("pack: delta payload requires a base resolver")
)

type indexEntry struct {
	OID    oid.OID
	Offset uint64
	Size   uint32
}

// Writer streams objects into a pack file. Call WriteObject for each
// object in any order, then Finish exactly once.
type Writer struct {
	w       io.Writer
	hasher  *oid.Hasher
	mw      io.Writer
	offset  uint64
	count   uint32
	written uint32
	entries []indexEntry
	done    bool
}

// NewWriter writes the 12-byte header (count objects expected) and returns
// a Writer ready to accept that many WriteObject calls.
func NewWriter(w io.Writer, count uint32) (*Writer, error) {
	pw := &Writer{w: w, hasher: oid.NewHasher(), count: count, entries: make([]indexEntry, 0, count)}
	pw.mw = io.MultiWriter(pw.w, pw.hasher)

	var header [headerSize]byte
	copy(header[0:4], magic[:])
	binary.LittleEndian.PutUint32(header[4:8], Version)
	binary.LittleEndian.PutUint32(header[8:12], count)
	if _, err := pw.mw.Write(header[:]); err != nil {
		return nil, err
	}
	pw.offset = headerSize
	return pw, nil
}

// WriteObject appends one object record: type_tag(1) + size(u32 LE) +
// raw. id must equal oid.FromBytes(raw); callers pass the ODB's
// already-verified values, and id is kept only for the index (it is not
// written into the object stream itself). This writer always stores raw
// verbatim rather than delta-encoding against another pack entry (see
// DESIGN.md); StreamReader's delta support exists for interoperability
// with packs built elsewhere.
func (pw *Writer) WriteObject(id oid.OID, typ object.Type, raw []byte) error {
	if pw.done {
		return errors.New("pack: WriteObject after Finish")
	}
	var hdr [objectHeaderSize]byte
	hdr[0] = byte(typ)
	binary.LittleEndian.PutUint32(hdr[1:], uint32(len(raw)))

	if _, err := pw.mw.Write(hdr[:]); err != nil {
		return err
	}
	if _, err := pw.mw.Write(raw); err != nil {
		return err
	}

	pw.entries = append(pw.entries, indexEntry{OID: id, Offset: pw.offset, Size: uint32(len(raw))})
	pw.offset += uint64(objectHeaderSize + len(raw))
	pw.written++
	return nil
}

// Finish writes the index (entry_count prefix, then entries sorted
// ascending by OID) and the trailer, returning the pack's whole-file
// sha256 checksum.
func (pw *Writer) Finish() ([sha256.Size]byte, error) {
	if pw.done {
		return [sha256.Size]byte{}, errors.New("pack: Finish called twice")
	}
	pw.done = true
	if pw.written != pw.count {
		return [sha256.Size]byte{}, fmt.Errorf("pack: wrote %d objects, header promised %d", pw.written, pw.count)
	}

	sort.Slice(pw.entries, func(i, j int) bool { return pw.entries[i].OID.Less(pw.entries[j].OID) })

	indexOffset := pw.offset

	var countField [indexCountSize]byte
	binary.LittleEndian.PutUint32(countField[:], uint32(len(pw.entries)))
	if _, err := pw.mw.Write(countField[:]); err != nil {
		return [sha256.Size]byte{}, err
	}

	for _, e := range pw.entries {
		var buf [indexEntrySize]byte
		copy(buf[0:oid.Size], e.OID[:])
		binary.LittleEndian.PutUint64(buf[oid.Size:oid.Size+8], e.Offset)
		binary.LittleEndian.PutUint32(buf[oid.Size+8:], e.Size)
		if _, err := pw.mw.Write(buf[:]); err != nil {
			return [sha256.Size]byte{}, err
		}
	}

	var offsetField [4]byte
	binary.LittleEndian.PutUint32(offsetField[:], uint32(indexOffset))
	if _, err := pw.mw.Write(offsetField[:]); err != nil {
		return [sha256.Size]byte{}, err
	}

	sum := pw.hasher.Sum()
	if _, err := pw.w.Write(sum[:]); err != nil {
		return [sha256.Size]byte{}, err
	}
	return [sha256.Size]byte(sum), nil
}

// Reader provides random access into a pack previously built by Writer,
// via its pre-read index. Use StreamReader instead for sequential access
// or when payloads may be delta-encoded against an out-of-pack base.
type Reader struct {
	r       io.ReaderAt
	size    int64
	Version uint32
	Count   uint32
	index   []indexEntry
}

// Open parses a pack's header and index. It does not verify the
// checksum; call VerifyChecksum for that.
func Open(r io.ReaderAt, size int64) (*Reader, error) {
	if size < headerSize+trailerSize {
		return nil, ErrTruncated
	}
	var header [headerSize]byte
	if _, err := r.ReadAt(header[:], 0); err != nil {
		return nil, err
	}
	if !bytes.Equal(header[0:4], magic[:]) {
		return nil, ErrBadMagic
	}
	version := binary.LittleEndian.Uint32(header[4:8])
	count := binary.LittleEndian.Uint32(header[8:12])

	var trailer [trailerSize]byte
	if _, err := r.ReadAt(trailer[:], size-trailerSize); err != nil {
		return nil, err
	}
	indexOffset := int64(binary.LittleEndian.Uint32(trailer[0:4]))

	if indexOffset < headerSize || indexOffset+indexCountSize > size-trailerSize {
		return nil, ErrTruncated
	}
	var countField [indexCountSize]byte
	if _, err := r.ReadAt(countField[:], indexOffset); err != nil {
		return nil, err
	}
	entryCount := binary.LittleEndian.Uint32(countField[:])
	if entryCount != count {
		return nil, ErrInvalidPack
	}

	entriesOffset := indexOffset + indexCountSize
	indexLen := int64(entryCount) * indexEntrySize
	if entriesOffset+indexLen > size-trailerSize {
		return nil, ErrTruncated
	}
	indexBytes := make([]byte, indexLen)
	if _, err := r.ReadAt(indexBytes, entriesOffset); err != nil {
		return nil, err
	}

	index := make([]indexEntry, entryCount)
	for i := range index {
		off := i * indexEntrySize
		copy(index[i].OID[:], indexBytes[off:off+oid.Size])
		index[i].Offset = binary.LittleEndian.Uint64(indexBytes[off+oid.Size : off+oid.Size+8])
		index[i].Size = binary.LittleEndian.Uint32(indexBytes[off+oid.Size+8 : off+indexEntrySize])
	}

	return &Reader{r: r, size: size, Version: version, Count: count, index: index}, nil
}

// VerifyChecksum recomputes the sha256 over every byte preceding the
// trailer's own sum field and compares it against the stored value.
func (rd *Reader) VerifyChecksum() error {
	h := oid.NewHasher()
	section := io.NewSectionReader(rd.r, 0, rd.size-sha256.Size)
	if _, err := io.Copy(h, section); err != nil {
		return err
	}
	got := h.Sum()

	var want [sha256.Size]byte
	if _, err := rd.r.ReadAt(want[:], rd.size-sha256.Size); err != nil {
		return err
	}
	if !bytes.Equal(got[:], want[:]) {
		return ErrChecksumMismatch
	}
	return nil
}

// Find returns the byte offset of id's object record within the pack, or
// ErrNotFound.
func (rd *Reader) Find(id oid.OID) (uint64, error) {
	i := sort.Search(len(rd.index), func(i int) bool { return !rd.index[i].OID.Less(id) })
	if i < len(rd.index) && rd.index[i].OID == id {
		return rd.index[i].Offset, nil
	}
	return 0, ErrNotFound
}

// ReadAt reads the object record at offset (as returned by Find) and
// returns its type and raw payload as stored on the wire. This pack's
// own Writer never stores a delta-marked payload, so this low-level
// accessor does not resolve deltas; use StreamReader for packs that may
// contain them.
func (rd *Reader) ReadAt(offset uint64) (object.Type, []byte, error) {
	var hdr [objectHeaderSize]byte
	if _, err := rd.r.ReadAt(hdr[:], int64(offset)); err != nil {
		return 0, nil, err
	}
	typ := object.Type(hdr[0])
	size := binary.LittleEndian.Uint32(hdr[1:])

	raw := make([]byte, size)
	if _, err := rd.r.ReadAt(raw, int64(offset)+objectHeaderSize); err != nil {
		return 0, nil, err
	}
	return typ, raw, nil
}

// Object looks up id and returns its decoded object, or ErrNotFound.
func (rd *Reader) Object(id oid.OID) (object.Type, []byte, error) {
	offset, err := rd.Find(id)
	if err != nil {
		return 0, nil, err
	}
	return rd.ReadAt(offset)
}

// OIDs returns every object OID in the pack, ascending.
func (rd *Reader) OIDs() []oid.OID {
	out := make([]oid.OID, len(rd.index))
	for i, e := range rd.index {
		out[i] = e.OID
	}
	return out
}

// BaseResolver returns the raw bytes of a previously-known object,
// identified by OID, so a StreamReader can reconstruct a delta-encoded
// payload that references it. A pack consumer typically backs this with
// the ODB the objects are being unpacked into or read out of.
type BaseResolver func(id oid.OID) ([]byte, error)

// StreamReader reads a pack's object stream sequentially, in the order
// objects were written, without pre-reading the index. This is the
// surface SPEC_FULL.md §4.8 describes: it "reads objects one at a time,
// yielding (oid, type, bytes)", resolving delta payloads through a
// caller-supplied base resolver.
type StreamReader struct {
	r         io.Reader
	resolve   BaseResolver
	Version   uint32
	Count     uint32
	remaining uint32
}

// NewStreamReader parses the pack header from r and returns a reader
// ready to yield objects via Next. resolve may be nil if the caller
// knows the pack contains no delta payloads; Next returns
// ErrBaseResolverRequired if a delta payload is encountered without one.
func NewStreamReader(r io.Reader, resolve BaseResolver) (*StreamReader, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, ErrTruncated
		}
		return nil, err
	}
	if !bytes.Equal(header[0:4], magic[:]) {
		return nil, ErrBadMagic
	}
	version := binary.LittleEndian.Uint32(header[4:8])
	count := binary.LittleEndian.Uint32(header[8:12])

	return &StreamReader{r: r, resolve: resolve, Version: version, Count: count, remaining: count}, nil
}

// Next yields the next object in the stream as (oid, type, bytes), with
// delta payloads already resolved to their final reconstructed content.
// It returns io.EOF once every object the header promised has been
// yielded.
func (sr *StreamReader) Next() (oid.OID, object.Type, []byte, error) {
	if sr.remaining == 0 {
		return oid.OID{}, 0, nil, io.EOF
	}

	var hdr [objectHeaderSize]byte
	if _, err := io.ReadFull(sr.r, hdr[:]); err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return oid.OID{}, 0, nil, ErrTruncated
		}
		return oid.OID{}, 0, nil, err
	}
	typ := object.Type(hdr[0])
	switch typ {
	case object.TypeBlob, object.TypeTree, object.TypeCommit:
	default:
		return oid.OID{}, 0, nil, ErrUnknownType
	}
	size := binary.LittleEndian.Uint32(hdr[1:])

	payload := make([]byte, size)
	if _, err := io.ReadFull(sr.r, payload); err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return oid.OID{}, 0, nil, ErrTruncated
		}
		return oid.OID{}, 0, nil, err
	}
	sr.remaining--

	raw, err := sr.resolvePayload(payload)
	if err != nil {
		return oid.OID{}, 0, nil, err
	}
	return oid.FromBytes(raw), typ, raw, nil
}

// resolvePayload returns payload's final content, decoding it through
// the base resolver first if it is delta-marked.
func (sr *StreamReader) resolvePayload(payload []byte) ([]byte, error) {
	if len(payload) == 0 || payload[0] != packDeltaMarker {
		return payload, nil
	}
	if len(payload) < deltaHeaderSize {
		return nil, ErrTruncated
	}
	if sr.resolve == nil {
		return nil, ErrBaseResolverRequired
	}
	var baseID oid.OID
	copy(baseID[:], payload[1:deltaHeaderSize])
	base, err := sr.resolve(baseID)
	if err != nil {
		return nil, fmt.Errorf("pack: resolving delta base %s: %w", baseID, err)
	}
	return delta.Decode(base, payload[deltaHeaderSize:])
}
