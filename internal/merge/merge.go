package merge

import (
	"context"
	"fmt"

	"github.com/winnyboy5/mediagit-core-sub002/internal/lca"
	"github.com/winnyboy5/mediagit-core-sub002/internal/object"
	"github.com/winnyboy5/mediagit-core-sub002/internal/oid"
)

// Store is everything the merge engine needs from the object database:
// decoding commits (for parent walks and tree lookup), decoding trees
// (for flattening), and writing the freshly built merge-result subtrees.
type Store interface {
	lca.CommitReader
	TreeWriter
}

// Merge resolves our and their commits under strategy, first checking
// for a fast-forward and otherwise performing a three-way merge against
// their lowest common ancestor.
func Merge(ctx context.Context, store Store, our, their oid.OID, strategy Strategy) (*Result, error) {
	if our == their {
		ourCommit, err := store.DecodeCommit(ctx, our)
		if err != nil {
			return nil, fmt.Errorf("merge: reading %s: %w", our, err)
		}
		tree := ourCommit.Tree
		return &Result{TreeOID: &tree, Strategy: strategy}, nil
	}

	theirIsDescendant, err := lca.IsAncestor(ctx, store, our, their)
	if err != nil {
		return nil, err
	}
	if theirIsDescendant {
		return &Result{FastForward: &FastForward{From: our, To: their, IsFF: true}, Strategy: strategy}, nil
	}
	ourIsDescendant, err := lca.IsAncestor(ctx, store, their, our)
	if err != nil {
		return nil, err
	}
	if ourIsDescendant {
		return &Result{FastForward: &FastForward{From: their, To: our, IsFF: true}, Strategy: strategy}, nil
	}

	bases, err := lca.Find(ctx, store, our, their)
	if err != nil {
		return nil, err
	}
	var baseTree oid.OID
	if len(bases) > 0 {
		baseCommit, err := store.DecodeCommit(ctx, bases[0])
		if err != nil {
			return nil, fmt.Errorf("merge: reading merge base %s: %w", bases[0], err)
		}
		baseTree = baseCommit.Tree
	}

	ourCommit, err := store.DecodeCommit(ctx, our)
	if err != nil {
		return nil, fmt.Errorf("merge: reading %s: %w", our, err)
	}
	theirCommit, err := store.DecodeCommit(ctx, their)
	if err != nil {
		return nil, fmt.Errorf("merge: reading %s: %w", their, err)
	}

	return MergeTrees(ctx, store, baseTree, ourCommit.Tree, theirCommit.Tree, strategy)
}

// MergeTrees performs the three-way tree merge described in the
// specification's outcome table directly, independent of any commit
// context — callers driving the sequencer (rebase, cherry-pick, revert)
// call this directly with synthetic base/our/their trees (e.g. a single
// commit's parent tree, the current HEAD tree, and the commit's own
// tree).
func MergeTrees(ctx context.Context, store Store, base, our, their oid.OID, strategy Strategy) (*Result, error) {
	baseFlat, err := flatten(ctx, store, base)
	if err != nil {
		return nil, err
	}
	ourFlat, err := flatten(ctx, store, our)
	if err != nil {
		return nil, err
	}
	theirFlat, err := flatten(ctx, store, their)
	if err != nil {
		return nil, err
	}

	baseDirs := dirsOf(baseFlat)
	ourDirs := dirsOf(ourFlat)
	theirDirs := dirsOf(theirFlat)

	result := map[string]object.TreeEntry{}
	var conflicts []Conflict

	for _, path := range sortedPaths(baseFlat, ourFlat, theirFlat) {
		b, bOK := baseFlat[path]
		o, oOK := ourFlat[path]
		t, tOK := theirFlat[path]

		if fileDirConflict(path, bOK, oOK, tOK, baseDirs, ourDirs, theirDirs) {
			conflicts = append(conflicts, Conflict{
				Path: path, Kind: FileDirectory,
				Base: sideOf(bOK, b), Ours: sideOf(oOK, o), Theirs: sideOf(tOK, t),
			})
			continue
		}

		entry, conflict, keep := resolvePath(path, bOK, b, oOK, o, tOK, t, strategy)
		if conflict != nil {
			conflicts = append(conflicts, *conflict)
			continue
		}
		if keep {
			result[path] = entry
		}
	}

	if strategy == Recursive && len(conflicts) > 0 {
		return &Result{Conflicts: conflicts, Strategy: strategy}, nil
	}

	treeOID, err := buildTree(ctx, store, result)
	if err != nil {
		return nil, err
	}
	return &Result{TreeOID: &treeOID, Conflicts: conflicts, Strategy: strategy}, nil
}

func sideOf(ok bool, e object.TreeEntry) *Side {
	if !ok {
		return nil
	}
	return &Side{Mode: e.Mode, OID: e.OID}
}

// fileDirConflict reports whether path is a file on one side but implied
// to be a directory (an ancestor of some other file) on another side.
func fileDirConflict(path string, bOK, oOK, tOK bool, baseDirs, ourDirs, theirDirs map[string]bool) bool {
	isFile := bOK || oOK || tOK
	if !isFile {
		return false
	}
	return baseDirs[path] || ourDirs[path] || theirDirs[path]
}

// resolvePath applies the specification's outcome table for a single
// path. It returns (entry, nil, true) to keep entry, (zero, nil, false)
// to omit the path (deletion), or (zero, conflict, false) when the three
// sides cannot be reconciled automatically under strategy.
func resolvePath(path string, bOK bool, b object.TreeEntry, oOK bool, o object.TreeEntry, tOK bool, t object.TreeEntry, strategy Strategy) (object.TreeEntry, *Conflict, bool) {
	baseEqualsOur := bOK == oOK && (!bOK || entriesEqual(b, o))
	baseEqualsTheir := bOK == tOK && (!bOK || entriesEqual(b, t))
	ourEqualsTheir := oOK == tOK && (!oOK || entriesEqual(o, t))

	switch {
	case !bOK && !oOK && !tOK:
		return object.TreeEntry{}, nil, false

	case baseEqualsOur && baseEqualsTheir:
		// X X X: unchanged (including "- - -", already handled above).
		if oOK {
			return o, nil, true
		}
		return object.TreeEntry{}, nil, false

	case baseEqualsOur && !baseEqualsTheir:
		// X X Y / X X — : take their side (modification or deletion).
		if tOK {
			return t, nil, true
		}
		return object.TreeEntry{}, nil, false

	case baseEqualsTheir && !baseEqualsOur:
		// X Y X / X — X: take our side.
		if oOK {
			return o, nil, true
		}
		return object.TreeEntry{}, nil, false

	case ourEqualsTheir:
		// X Y Y / - Y Y: both sides agree, whether add or same edit.
		if oOK {
			return o, nil, true
		}
		return object.TreeEntry{}, nil, false

	case bOK && !oOK && tOK:
		// X — Y: deleted by us, modified by them.
		return resolveConflict(path, DeletedByUs, &b, nil, &t, o, t, strategy, false)

	case bOK && oOK && !tOK:
		// X Y —: modified by us, deleted by them.
		return resolveConflict(path, DeletedByThem, &b, &o, nil, o, t, strategy, true)

	case !bOK && oOK && tOK:
		// — Y Z: both added, different content.
		return resolveConflict(path, AddAddDifferent, nil, &o, &t, o, t, strategy, false)

	default:
		// X Y Z: both modified, differently.
		return resolveConflict(path, BothModified, &b, &o, &t, o, t, strategy, false)
	}
}

func entriesEqual(a, b object.TreeEntry) bool {
	return a.Mode == b.Mode && a.OID == b.OID
}

// resolveConflict applies strategy to a path the table marks as a
// conflict. Ours always means "keep our state", whatever that is (present
// or absent), and Theirs likewise keeps theirs; ourSideIsDeletion is not
// consulted.
func resolveConflict(path string, kind ConflictKind, base, our, their *Side, oEntry, tEntry object.TreeEntry, strategy Strategy, ourSideIsDeletion bool) (object.TreeEntry, *Conflict, bool) {
	switch strategy {
	case Ours:
		if our == nil {
			return object.TreeEntry{}, nil, false
		}
		return oEntry, nil, true
	case Theirs:
		if their == nil {
			return object.TreeEntry{}, nil, false
		}
		return tEntry, nil, true
	default:
		return object.TreeEntry{}, &Conflict{Path: path, Kind: kind, Base: base, Ours: our, Theirs: their}, false
	}
}
