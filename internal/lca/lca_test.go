package lca

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/winnyboy5/mediagit-core-sub002/internal/object"
	"github.com/winnyboy5/mediagit-core-sub002/internal/oid"
)

var errUnknownCommit = errors.New("lca: unknown test commit")

// fakeReader is a map-backed CommitReader for building DAG fixtures
// without going through the ODB.
type fakeReader map[oid.OID]*object.Commit

func (f fakeReader) DecodeCommit(_ context.Context, id oid.OID) (*object.Commit, error) {
	c, ok := f[id]
	if !ok {
		return nil, errUnknownCommit
	}
	return c, nil
}

func node(name string, parents ...oid.OID) (oid.OID, *object.Commit) {
	id := oid.FromBytes([]byte(name))
	return id, &object.Commit{Parents: parents, Message: name}
}

func TestFindReturnsSelfWhenCommitsEqual(t *testing.T) {
	ctx := context.Background()
	a, ca := node("a")
	r := fakeReader{a: ca}

	got, err := Find(ctx, r, a, a)
	require.NoError(t, err)
	require.Equal(t, []oid.OID{a}, got)
}

func TestFindLinearHistory(t *testing.T) {
	// root -> a -> b -> c (c and a share root as common ancestor, but a
	// is itself an ancestor of c, so the LCA of a and c is a).
	ctx := context.Background()
	root, croot := node("root")
	a, ca := node("a", root)
	b, cb := node("b", a)
	c, cc := node("c", b)
	r := fakeReader{root: croot, a: ca, b: cb, c: cc}

	got, err := Find(ctx, r, a, c)
	require.NoError(t, err)
	require.Equal(t, []oid.OID{a}, got)
}

func TestFindDiamond(t *testing.T) {
	//     root
	//    /    \
	//   left  right
	//    \    /
	//     merge
	ctx := context.Background()
	root, croot := node("root")
	left, cleft := node("left", root)
	right, cright := node("right", root)
	merge, cmerge := node("merge", left, right)
	r := fakeReader{root: croot, left: cleft, right: cright, merge: cmerge}

	got, err := Find(ctx, r, left, right)
	require.NoError(t, err)
	require.Equal(t, []oid.OID{root}, got)

	// merge's LCA with left is left itself.
	got, err = Find(ctx, r, merge, left)
	require.NoError(t, err)
	require.Equal(t, []oid.OID{left}, got)
}

func TestFindMultipleCandidatesPrunedToMinimal(t *testing.T) {
	// Two independent merge bases exist (x and y), but y descends from x,
	// so only y should survive pruning.
	ctx := context.Background()
	x, cx := node("x")
	y, cy := node("y", x)
	a, ca := node("a", y)
	b, cb := node("b", y)
	r := fakeReader{x: cx, y: cy, a: ca, b: cb}

	got, err := Find(ctx, r, a, b)
	require.NoError(t, err)
	require.Equal(t, []oid.OID{y}, got)
}

func TestFindUnrelatedHistoriesReturnsEmpty(t *testing.T) {
	ctx := context.Background()
	a, ca := node("a")
	b, cb := node("b")
	r := fakeReader{a: ca, b: cb}

	got, err := Find(ctx, r, a, b)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestIsAncestor(t *testing.T) {
	ctx := context.Background()
	root, croot := node("root")
	mid, cmid := node("mid", root)
	tip, ctip := node("tip", mid)
	r := fakeReader{root: croot, mid: cmid, tip: ctip}

	ok, err := IsAncestor(ctx, r, root, tip)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = IsAncestor(ctx, r, tip, root)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = IsAncestor(ctx, r, tip, tip)
	require.NoError(t, err)
	require.True(t, ok)
}
