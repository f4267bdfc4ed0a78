package checkout

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/winnyboy5/mediagit-core-sub002/internal/object"
	"github.com/winnyboy5/mediagit-core-sub002/internal/odb"
	"github.com/winnyboy5/mediagit-core-sub002/internal/oid"
	"github.com/winnyboy5/mediagit-core-sub002/internal/storagebackend"
)

func newTestODB(t *testing.T) *odb.ODB {
	t.Helper()
	o, err := odb.New(storagebackend.NewMemory())
	require.NoError(t, err)
	t.Cleanup(o.Close)
	return o
}

func putBlob(t *testing.T, ctx context.Context, o *odb.ODB, content string) oid.OID {
	t.Helper()
	id, err := o.Write(ctx, object.TypeBlob, []byte(content), "")
	require.NoError(t, err)
	return id
}

func putTree(t *testing.T, ctx context.Context, o *odb.ODB, tree *object.Tree) oid.OID {
	t.Helper()
	raw := tree.Bytes()
	id, err := o.Write(ctx, object.TypeTree, raw, "")
	require.NoError(t, err)
	return id
}

func TestFullCheckoutMaterializesNestedTree(t *testing.T) {
	ctx := context.Background()
	o := newTestODB(t)

	readmeID := putBlob(t, ctx, o, "hello\n")
	scriptID := putBlob(t, ctx, o, "#!/bin/sh\necho hi\n")

	inner := &object.Tree{}
	require.NoError(t, inner.Add(object.TreeEntry{Name: "run.sh", Mode: object.ModeExecutable, OID: scriptID}))
	innerID := putTree(t, ctx, o, inner)

	root := &object.Tree{}
	require.NoError(t, root.Add(object.TreeEntry{Name: "README.md", Mode: object.ModeRegular, OID: readmeID}))
	require.NoError(t, root.Add(object.TreeEntry{Name: "bin", Mode: object.ModeDir, OID: innerID}))
	rootID := putTree(t, ctx, o, root)

	dir := t.TempDir()
	m := New(dir, o)
	require.NoError(t, m.Full(ctx, rootID))

	got, err := os.ReadFile(filepath.Join(dir, "README.md"))
	require.NoError(t, err)
	require.Equal(t, "hello\n", string(got))

	got, err = os.ReadFile(filepath.Join(dir, "bin", "run.sh"))
	require.NoError(t, err)
	require.Equal(t, "#!/bin/sh\necho hi\n", string(got))

	info, err := os.Stat(filepath.Join(dir, "bin", "run.sh"))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}

func TestFullCheckoutRemovesStaleFiles(t *testing.T) {
	ctx := context.Background()
	o := newTestODB(t)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stale.txt"), []byte("old"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "stale-dir"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stale-dir", "x.txt"), []byte("old"), 0o644))

	blobID := putBlob(t, ctx, o, "new content")
	tree := &object.Tree{}
	require.NoError(t, tree.Add(object.TreeEntry{Name: "fresh.txt", Mode: object.ModeRegular, OID: blobID}))
	treeID := putTree(t, ctx, o, tree)

	m := New(dir, o)
	require.NoError(t, m.Full(ctx, treeID))

	_, err := os.Stat(filepath.Join(dir, "stale.txt"))
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "stale-dir"))
	require.True(t, os.IsNotExist(err))

	got, err := os.ReadFile(filepath.Join(dir, "fresh.txt"))
	require.NoError(t, err)
	require.Equal(t, "new content", string(got))
}

func TestOverlayLeavesUntrackedFilesAlone(t *testing.T) {
	ctx := context.Background()
	o := newTestODB(t)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.txt"), []byte("untouched"), 0o644))

	blobID := putBlob(t, ctx, o, "overlay content")
	tree := &object.Tree{}
	require.NoError(t, tree.Add(object.TreeEntry{Name: "overlay.txt", Mode: object.ModeRegular, OID: blobID}))
	treeID := putTree(t, ctx, o, tree)

	m := New(dir, o)
	require.NoError(t, m.Overlay(ctx, treeID))

	got, err := os.ReadFile(filepath.Join(dir, "keep.txt"))
	require.NoError(t, err)
	require.Equal(t, "untouched", string(got))

	got, err = os.ReadFile(filepath.Join(dir, "overlay.txt"))
	require.NoError(t, err)
	require.Equal(t, "overlay content", string(got))
}

func TestFullCheckoutWritesSymlink(t *testing.T) {
	ctx := context.Background()
	o := newTestODB(t)

	targetID := putBlob(t, ctx, o, "target.txt")
	tree := &object.Tree{}
	require.NoError(t, tree.Add(object.TreeEntry{Name: "target.txt", Mode: object.ModeRegular, OID: targetID}))

	linkID := putBlob(t, ctx, o, "target.txt")
	require.NoError(t, tree.Add(object.TreeEntry{Name: "link", Mode: object.ModeSymlink, OID: linkID}))
	treeID := putTree(t, ctx, o, tree)

	dir := t.TempDir()
	m := New(dir, o)
	require.NoError(t, m.Full(ctx, treeID))

	resolved, err := os.Readlink(filepath.Join(dir, "link"))
	require.NoError(t, err)
	require.Equal(t, "target.txt", resolved)
}

func TestFullCheckoutPrunesEmptyDirectories(t *testing.T) {
	ctx := context.Background()
	o := newTestODB(t)

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "empty", "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty", "nested", "gone.txt"), []byte("x"), 0o644))

	blobID := putBlob(t, ctx, o, "content")
	tree := &object.Tree{}
	require.NoError(t, tree.Add(object.TreeEntry{Name: "keep.txt", Mode: object.ModeRegular, OID: blobID}))
	treeID := putTree(t, ctx, o, tree)

	m := New(dir, o)
	require.NoError(t, m.Full(ctx, treeID))

	_, err := os.Stat(filepath.Join(dir, "empty"))
	require.True(t, os.IsNotExist(err))
}
