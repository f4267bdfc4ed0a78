package reflog

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/winnyboy5/mediagit-core-sub002/internal/object"
	"github.com/winnyboy5/mediagit-core-sub002/internal/oid"
	"github.com/winnyboy5/mediagit-core-sub002/internal/refs"
)

func testSig() object.Signature {
	return object.Signature{Name: "A", Email: "a@example.com", When: time.Unix(1700000000, 0).UTC()}
}

func TestReadMissingReturnsEmptyLog(t *testing.T) {
	db := NewDB(t.TempDir())
	log, err := db.Read(refs.Branch("main"))
	require.NoError(t, err)
	require.True(t, log.Empty())
	require.False(t, db.Exists(refs.Branch("main")))
}

func TestPushOrdersNewestFirst(t *testing.T) {
	log := &Log{}
	log.Push(oid.FromBytes([]byte("1")), testSig(), "first")
	log.Push(oid.FromBytes([]byte("2")), testSig(), "second")

	require.Len(t, log.Entries, 2)
	require.Equal(t, oid.FromBytes([]byte("2")), log.Entries[0].New)
	require.Equal(t, oid.FromBytes([]byte("1")), log.Entries[0].Old)
	require.Equal(t, oid.FromBytes([]byte("1")), log.Entries[1].New)
}

func TestWriteReadRoundTrip(t *testing.T) {
	db := NewDB(t.TempDir())
	log := &Log{name: refs.Branch("main")}
	log.Push(oid.FromBytes([]byte("1")), testSig(), "initial commit")
	log.Push(oid.FromBytes([]byte("2")), testSig(), "second commit\nwith a body")

	require.NoError(t, db.Write(log))
	require.True(t, db.Exists(refs.Branch("main")))

	got, err := db.Read(refs.Branch("main"))
	require.NoError(t, err)
	require.Len(t, got.Entries, 2)
	require.Equal(t, log.Entries[0].New, got.Entries[0].New)
	require.Equal(t, log.Entries[0].Old, got.Entries[0].Old)
	require.Equal(t, "second commit with a body", got.Entries[0].Message)
	require.Equal(t, log.Entries[1].New, got.Entries[1].New)
}

func TestParseSkipsUnparsableLines(t *testing.T) {
	entries, err := parse(strings.NewReader("not a valid line\n" +
		oid.FromBytes([]byte("1")).String() + " " + oid.FromBytes([]byte("2")).String() + " A <a@example.com> 1700000000 +0000\tok\n"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "ok", entries[0].Message)
}

func TestDeleteIsIdempotent(t *testing.T) {
	db := NewDB(t.TempDir())
	require.NoError(t, db.Delete(refs.Branch("never-existed")))

	log := &Log{name: refs.Branch("main")}
	log.Push(oid.FromBytes([]byte("1")), testSig(), "x")
	require.NoError(t, db.Write(log))
	require.NoError(t, db.Delete(refs.Branch("main")))
	require.False(t, db.Exists(refs.Branch("main")))
}
