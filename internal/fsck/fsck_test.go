package fsck

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/winnyboy5/mediagit-core-sub002/internal/object"
	"github.com/winnyboy5/mediagit-core-sub002/internal/odb"
	"github.com/winnyboy5/mediagit-core-sub002/internal/oid"
	"github.com/winnyboy5/mediagit-core-sub002/internal/refs"
	"github.com/winnyboy5/mediagit-core-sub002/internal/storagebackend"
)

type fixture struct {
	o       *odb.ODB
	backend *storagebackend.Memory
	refs    refs.Store
	checker *Checker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend := storagebackend.NewMemory()
	o, err := odb.New(backend)
	require.NoError(t, err)
	t.Cleanup(o.Close)
	rs := refs.NewFilesystem(t.TempDir())
	return &fixture{o: o, backend: backend, refs: rs, checker: New(o, backend, rs)}
}

func (f *fixture) putBlob(t *testing.T, ctx context.Context, content string) oid.OID {
	t.Helper()
	id, err := f.o.Write(ctx, object.TypeBlob, []byte(content), "")
	require.NoError(t, err)
	return id
}

func (f *fixture) putTree(t *testing.T, ctx context.Context, files map[string]string) oid.OID {
	t.Helper()
	tree := &object.Tree{}
	for name, content := range files {
		id := f.putBlob(t, ctx, content)
		require.NoError(t, tree.Add(object.TreeEntry{Name: name, Mode: object.ModeRegular, OID: id}))
	}
	id, err := f.o.Write(ctx, object.TypeTree, tree.Bytes(), "")
	require.NoError(t, err)
	return id
}

func (f *fixture) putCommit(t *testing.T, ctx context.Context, tree oid.OID, msg string, parents ...oid.OID) oid.OID {
	t.Helper()
	sig := object.Signature{Name: "A", Email: "a@example.com", When: time.Unix(1700000000, 0).UTC()}
	c := &object.Commit{Tree: tree, Parents: parents, Author: sig, Committer: sig, Message: msg}
	id, err := f.o.Write(ctx, object.TypeCommit, c.Bytes(), "")
	require.NoError(t, err)
	return id
}

func TestCheckObjectsCleanStoreHasNoIssues(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tree := f.putTree(t, ctx, map[string]string{"a": "1"})
	f.putCommit(t, ctx, tree, "init")

	issues, err := f.checker.CheckObjects(ctx)
	require.NoError(t, err)
	require.Empty(t, issues)
}

func TestCheckObjectsDetectsCorruption(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.putBlob(t, ctx, "hello")
	require.NoError(t, f.backend.Put(ctx, id.ShardedPath(), []byte{byte(object.TypeBlob)}))

	issues, err := f.checker.CheckObjects(ctx)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	require.Equal(t, CorruptObject, issues[0].Kind)
	require.Equal(t, id, issues[0].OID)
}

func TestCheckRefsDetectsBrokenSymbolicRef(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.refs.Update(refs.NewSymbolic(refs.HEAD, refs.Branch("main")), nil))

	issues, err := f.checker.CheckRefs(ctx)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	require.Equal(t, BrokenRef, issues[0].Kind)
	require.Equal(t, refs.HEAD, issues[0].Ref)
}

func TestCheckRefsCleanWhenAllResolve(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tree := f.putTree(t, ctx, map[string]string{"a": "1"})
	commit := f.putCommit(t, ctx, tree, "init")
	branch := refs.Branch("main")
	require.NoError(t, f.refs.Update(refs.NewDirect(branch, commit), nil))
	require.NoError(t, f.refs.Update(refs.NewSymbolic(refs.HEAD, branch), nil))

	issues, err := f.checker.CheckRefs(ctx)
	require.NoError(t, err)
	require.Empty(t, issues)
}

func TestCheckConnectivityFindsDanglingAndMissingReachable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	reachableTree := f.putTree(t, ctx, map[string]string{"a": "1"})
	reachableCommit := f.putCommit(t, ctx, reachableTree, "init")
	branch := refs.Branch("main")
	require.NoError(t, f.refs.Update(refs.NewDirect(branch, reachableCommit), nil))

	// Dangling: written but not reachable from any ref.
	danglingBlob := f.putBlob(t, ctx, "orphan")

	// Missing-reachable: blob referenced by the tree but removed from the backend.
	missingBlob := f.putBlob(t, ctx, "will vanish")
	brokenTree := &object.Tree{}
	require.NoError(t, brokenTree.Add(object.TreeEntry{Name: "gone", Mode: object.ModeRegular, OID: missingBlob}))
	brokenTreeID, err := f.o.Write(ctx, object.TypeTree, brokenTree.Bytes(), "")
	require.NoError(t, err)
	brokenCommit := f.putCommit(t, ctx, brokenTreeID, "broken", reachableCommit)
	require.NoError(t, f.refs.Update(refs.NewDirect(branch, brokenCommit), nil))
	require.NoError(t, f.backend.Delete(ctx, missingBlob.ShardedPath()))

	report, err := f.checker.CheckConnectivity(ctx)
	require.NoError(t, err)

	var sawDangling, sawMissing bool
	for _, iss := range report.Issues {
		if iss.Kind == Dangling && iss.OID == danglingBlob {
			sawDangling = true
		}
		if iss.Kind == MissingReachable && iss.OID == missingBlob {
			sawMissing = true
		}
	}
	require.True(t, sawDangling, "expected dangling object to be reported")
	require.True(t, sawMissing, "expected missing-reachable object to be reported")
	require.True(t, report.Reachable[reachableCommit])
}

func TestRepairRemovesBrokenRefs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.refs.Update(refs.NewSymbolic(refs.HEAD, refs.Branch("main")), nil))

	issues, err := f.checker.CheckRefs(ctx)
	require.NoError(t, err)
	require.Len(t, issues, 1)

	removed, err := f.checker.Repair(ctx, issues)
	require.NoError(t, err)
	require.Equal(t, []refs.Name{refs.HEAD}, removed)

	_, err = f.refs.Get(refs.HEAD)
	require.ErrorIs(t, err, refs.ErrNotFound)
}
