package repo

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/winnyboy5/mediagit-core-sub002/internal/object"
	"github.com/winnyboy5/mediagit-core-sub002/internal/refs"
)

func testCommitter() object.Signature {
	return object.Signature{Name: "Test", Email: "test@example.com", When: time.Unix(1700000000, 0).UTC()}
}

func TestInitCreatesLayoutAndUnbornHead(t *testing.T) {
	dir := t.TempDir()
	r, err := Init(dir, testCommitter())
	require.NoError(t, err)
	defer r.Close()

	require.DirExists(t, filepath.Join(r.GitDir, "objects"))
	require.DirExists(t, filepath.Join(r.GitDir, "refs", "heads"))
	require.FileExists(t, filepath.Join(r.GitDir, "HEAD"))
	require.FileExists(t, filepath.Join(r.GitDir, "config"))

	branch, onBranch := r.CurrentBranch()
	require.Equal(t, refs.Branch("main"), branch)
	require.True(t, onBranch)

	head, err := r.HeadCommit()
	require.NoError(t, err)
	require.True(t, head.IsZero())
}

func TestInitRefusesToReinitializeOverExistingHead(t *testing.T) {
	dir := t.TempDir()
	r, err := Init(dir, testCommitter())
	require.NoError(t, err)
	r.Close()

	_, err = Init(dir, testCommitter())
	require.Error(t, err)
}

func TestOpenFailsOutsideARepository(t *testing.T) {
	_, err := Open(t.TempDir(), testCommitter())
	require.Error(t, err)
}

func TestCommitAndCheckoutRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	r, err := Init(dir, testCommitter())
	require.NoError(t, err)
	defer r.Close()

	blobID, err := r.ODB.Write(ctx, object.TypeBlob, []byte("hello world"), "readme.txt")
	require.NoError(t, err)

	tree := &object.Tree{}
	require.NoError(t, tree.Add(object.TreeEntry{Name: "readme.txt", Mode: object.ModeRegular, OID: blobID}))
	treeID, err := r.ODB.Write(ctx, object.TypeTree, tree.Bytes(), "")
	require.NoError(t, err)

	commit := &object.Commit{Tree: treeID, Author: r.Committer, Committer: r.Committer, Message: "initial commit"}
	commitID, err := r.ODB.Write(ctx, object.TypeCommit, commit.Bytes(), "")
	require.NoError(t, err)

	branch, _ := r.CurrentBranch()
	require.NoError(t, r.Refs.Update(refs.NewDirect(branch, commitID), nil))
	r.AppendReflog(refs.HEAD, commitID, "commit: initial commit")

	require.NoError(t, r.Checkout.Full(ctx, treeID))
	got, err := os.ReadFile(filepath.Join(r.WorkDir, "readme.txt"))
	require.NoError(t, err)
	require.Equal(t, "hello world", string(got))

	head, err := r.HeadCommit()
	require.NoError(t, err)
	require.Equal(t, commitID, head)

	log, err := r.Reflog.Read(refs.HEAD)
	require.NoError(t, err)
	require.Len(t, log.Entries, 1)
	require.Equal(t, commitID, log.Entries[0].New)

	issues, err := r.Fsck.CheckObjects(ctx)
	require.NoError(t, err)
	require.Empty(t, issues)
}

func TestOpenPersistsConfiguredCompressionAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	r, err := Init(dir, testCommitter())
	require.NoError(t, err)
	r.Close()

	r2, err := Open(dir, testCommitter())
	require.NoError(t, err)
	defer r2.Close()
	require.Equal(t, "zstd", r2.Storage.Compression)
}
