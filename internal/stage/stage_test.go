package stage

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/winnyboy5/mediagit-core-sub002/internal/object"
	"github.com/winnyboy5/mediagit-core-sub002/internal/oid"
)

func TestAddKeepsSortedOrder(t *testing.T) {
	s := New()
	s.Add(Entry{Path: "z.txt", OID: oid.FromBytes([]byte("z"))})
	s.Add(Entry{Path: "a.txt", OID: oid.FromBytes([]byte("a"))})
	s.Add(Entry{Path: "m.txt", OID: oid.FromBytes([]byte("m"))})

	entries := s.Entries()
	require.Len(t, entries, 3)
	require.Equal(t, "a.txt", entries[0].Path)
	require.Equal(t, "m.txt", entries[1].Path)
	require.Equal(t, "z.txt", entries[2].Path)
}

func TestAddReplacesExistingPath(t *testing.T) {
	s := New()
	id1 := oid.FromBytes([]byte("v1"))
	id2 := oid.FromBytes([]byte("v2"))
	s.Add(Entry{Path: "file.txt", OID: id1})
	s.Add(Entry{Path: "file.txt", OID: id2})

	require.Equal(t, 1, s.Len())
	e, ok := s.Get("file.txt")
	require.True(t, ok)
	require.Equal(t, id2, e.OID)
}

func TestRemove(t *testing.T) {
	s := New()
	s.Add(Entry{Path: "a.txt", OID: oid.FromBytes([]byte("a"))})
	s.Remove("a.txt")
	require.Equal(t, 0, s.Len())
	_, ok := s.Get("a.txt")
	require.False(t, ok)
}

func TestConflicts(t *testing.T) {
	s := New()
	s.Add(Entry{Path: "ok.txt", OID: oid.FromBytes([]byte("ok"))})
	s.Add(Entry{Path: "bad.txt", OID: oid.FromBytes([]byte("bad")), Flags: FlagConflict})

	conflicts := s.Conflicts()
	require.Len(t, conflicts, 1)
	require.Equal(t, "bad.txt", conflicts[0].Path)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	s := New()
	s.Add(Entry{Path: "a.txt", OID: oid.FromBytes([]byte("a")), Mode: object.ModeRegular})
	s.Add(Entry{Path: "b/exec.sh", OID: oid.FromBytes([]byte("b")), Mode: object.ModeExecutable, Flags: FlagConflict})

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, s))

	out, err := Decode(&buf)
	require.NoError(t, err)
	require.Equal(t, s.Entries(), out.Entries())
}

func TestLoadMissingReturnsEmptyStage(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "stage"))
	require.NoError(t, err)
	require.Equal(t, 0, s.Len())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stage")
	s := New()
	s.Add(Entry{Path: "a.txt", OID: oid.FromBytes([]byte("a")), Mode: object.ModeRegular})

	require.NoError(t, Save(path, s))
	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, s.Entries(), got.Entries())
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("not a stage file at all......")))
	require.ErrorIs(t, err, ErrBadMagic)
}
