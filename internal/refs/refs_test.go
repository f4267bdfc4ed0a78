package refs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/winnyboy5/mediagit-core-sub002/internal/oid"
)

func TestUpdateGetRoundTrip(t *testing.T) {
	fs := NewFilesystem(t.TempDir())
	id := oid.FromBytes([]byte("commit one"))

	require.NoError(t, fs.Update(NewDirect(Branch("main"), id), &Reference{}))

	ref, err := fs.Get(Branch("main"))
	require.NoError(t, err)
	require.Equal(t, Direct, ref.Kind())
	require.Equal(t, id, ref.OID())
}

func TestUpdateRejectsOnMismatchedOld(t *testing.T) {
	fs := NewFilesystem(t.TempDir())
	id1 := oid.FromBytes([]byte("one"))
	id2 := oid.FromBytes([]byte("two"))
	wrongOld := oid.FromBytes([]byte("not the current value"))

	require.NoError(t, fs.Update(NewDirect(Branch("main"), id1), &Reference{}))

	err := fs.Update(NewDirect(Branch("main"), id2), &Reference{kind: Direct, target: wrongOld})
	require.ErrorIs(t, err, ErrChanged)

	current, err := fs.Get(Branch("main"))
	require.NoError(t, err)
	require.Equal(t, id1, current.OID())
}

func TestUpdateRejectsCreateWhenAlreadyExists(t *testing.T) {
	fs := NewFilesystem(t.TempDir())
	id := oid.FromBytes([]byte("one"))
	require.NoError(t, fs.Update(NewDirect(Branch("main"), id), &Reference{}))

	err := fs.Update(NewDirect(Branch("main"), oid.FromBytes([]byte("two"))), &Reference{})
	require.ErrorIs(t, err, ErrChanged)
}

func TestSymbolicResolve(t *testing.T) {
	fs := NewFilesystem(t.TempDir())
	id := oid.FromBytes([]byte("target commit"))
	require.NoError(t, fs.Update(NewDirect(Branch("main"), id), &Reference{}))
	require.NoError(t, fs.Update(NewSymbolic(HEAD, Branch("main")), nil))

	resolved, err := fs.Resolve(HEAD)
	require.NoError(t, err)
	require.Equal(t, Direct, resolved.Kind())
	require.Equal(t, id, resolved.OID())
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	fs := NewFilesystem(t.TempDir())
	_, err := fs.Get(Branch("nope"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteIsIdempotent(t *testing.T) {
	fs := NewFilesystem(t.TempDir())
	require.NoError(t, fs.Delete(Branch("never-existed")))

	id := oid.FromBytes([]byte("x"))
	require.NoError(t, fs.Update(NewDirect(Branch("main"), id), &Reference{}))
	require.NoError(t, fs.Delete(Branch("main")))
	require.NoError(t, fs.Delete(Branch("main")))

	_, err := fs.Get(Branch("main"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListSortedByPrefix(t *testing.T) {
	fs := NewFilesystem(t.TempDir())
	require.NoError(t, fs.Update(NewDirect(Branch("zeta"), oid.FromBytes([]byte("z"))), &Reference{}))
	require.NoError(t, fs.Update(NewDirect(Branch("alpha"), oid.FromBytes([]byte("a"))), &Reference{}))
	require.NoError(t, fs.Update(NewDirect(Tag("v1"), oid.FromBytes([]byte("t"))), &Reference{}))

	branches, err := fs.List("refs/heads")
	require.NoError(t, err)
	require.Len(t, branches, 2)
	require.Equal(t, Branch("alpha"), branches[0].Name())
	require.Equal(t, Branch("zeta"), branches[1].Name())
}

func TestParseRejectsMalformedContent(t *testing.T) {
	_, err := Parse(Branch("main"), "not-hex-and-not-a-symref")
	require.ErrorIs(t, err, ErrBadFormat)
}

func TestContentRoundTrip(t *testing.T) {
	id := oid.FromBytes([]byte("a"))
	direct := NewDirect(Branch("main"), id)
	parsedDirect, err := Parse(Branch("main"), direct.Content())
	require.NoError(t, err)
	require.Equal(t, direct, parsedDirect)

	sym := NewSymbolic(HEAD, Branch("main"))
	parsedSym, err := Parse(HEAD, sym.Content())
	require.NoError(t, err)
	require.Equal(t, sym, parsedSym)
}

func TestFilesystemPathUsesSlashSeparatedNames(t *testing.T) {
	dir := t.TempDir()
	fs := NewFilesystem(dir)
	id := oid.FromBytes([]byte("a"))
	require.NoError(t, fs.Update(NewDirect(Branch("feature/x"), id), &Reference{}))

	_, err := os.Stat(filepath.Join(dir, "refs", "heads", "feature", "x"))
	require.NoError(t, err)
}
