package object

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/winnyboy5/mediagit-core-sub002/internal/oid"
)

func TestTreeOrderInsensitiveSerialization(t *testing.T) {
	oidA := oid.FromBytes([]byte("a"))
	oidB := oid.FromBytes([]byte("b"))

	t1 := &Tree{}
	require.NoError(t, t1.Add(TreeEntry{Name: "a.txt", Mode: ModeRegular, OID: oidA}))
	require.NoError(t, t1.Add(TreeEntry{Name: "b.txt", Mode: ModeRegular, OID: oidB}))

	t2 := &Tree{}
	require.NoError(t, t2.Add(TreeEntry{Name: "b.txt", Mode: ModeRegular, OID: oidB}))
	require.NoError(t, t2.Add(TreeEntry{Name: "a.txt", Mode: ModeRegular, OID: oidA}))

	require.Equal(t, t1.Bytes(), t2.Bytes())
	require.Equal(t, oid.FromBytes(t1.Bytes()), oid.FromBytes(t2.Bytes()))
}

func TestTreeDirectoriesSortWithTrailingSlash(t *testing.T) {
	tr := &Tree{}
	require.NoError(t, tr.Add(TreeEntry{Name: "b", Mode: ModeRegular, OID: oid.FromBytes([]byte("1"))}))
	require.NoError(t, tr.Add(TreeEntry{Name: "a", Mode: ModeDir, OID: oid.FromBytes([]byte("2"))}))
	require.NoError(t, tr.Add(TreeEntry{Name: "a.txt", Mode: ModeRegular, OID: oid.FromBytes([]byte("3"))}))

	// Directory "a" sorts as "a/", which is after "a.txt" but before "b".
	require.Equal(t, "a.txt", tr.Entries[0].Name)
	require.Equal(t, "a", tr.Entries[1].Name)
	require.Equal(t, "b", tr.Entries[2].Name)
}

func TestTreeEncodeDecodeRoundTrip(t *testing.T) {
	tr := &Tree{}
	require.NoError(t, tr.Add(TreeEntry{Name: "x", Mode: ModeExecutable, OID: oid.FromBytes([]byte("x"))}))
	require.NoError(t, tr.Add(TreeEntry{Name: "y", Mode: ModeSymlink, OID: oid.FromBytes([]byte("y"))}))

	var buf bytes.Buffer
	require.NoError(t, tr.Encode(&buf))

	var out Tree
	require.NoError(t, out.Decode(&buf))
	require.Equal(t, tr.Entries, out.Entries)
}

func TestEmptyTreeRoundTrip(t *testing.T) {
	tr := &Tree{}
	var out Tree
	require.NoError(t, out.Decode(bytes.NewReader(tr.Bytes())))
	require.Empty(t, out.Entries)
}

func TestSignatureEncodeDecode(t *testing.T) {
	when := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("", -7*3600))
	sig := Signature{Name: "Ada Lovelace", Email: "ada@example.com", When: when}
	var out Signature
	out.Decode([]byte(sig.String()))
	require.Equal(t, sig.Name, out.Name)
	require.Equal(t, sig.Email, out.Email)
	require.Equal(t, sig.When.Unix(), out.When.Unix())
}

func TestCommitEncodeDecodeRoundTrip(t *testing.T) {
	when := time.Unix(1700000000, 0).UTC()
	sig := Signature{Name: "A", Email: "a@example.com", When: when}
	c := &Commit{
		Tree:      oid.FromBytes([]byte("tree")),
		Parents:   []oid.OID{oid.FromBytes([]byte("p1")), oid.FromBytes([]byte("p2"))},
		Author:    sig,
		Committer: sig,
		Message:   "Initial commit\n\nLonger body.\n",
	}
	var buf bytes.Buffer
	require.NoError(t, c.Encode(&buf))

	var out Commit
	require.NoError(t, out.Decode(&buf))
	require.Equal(t, c.Tree, out.Tree)
	require.Equal(t, c.Parents, out.Parents)
	require.Equal(t, c.Message, out.Message)
	require.True(t, out.IsMerge())
	require.Equal(t, "Initial commit", out.Summary())
}

func TestCommitIsInitial(t *testing.T) {
	c := &Commit{}
	require.True(t, c.IsInitial())
	require.False(t, c.IsMerge())
}
