package sequencer

import (
	"context"
	"fmt"

	"github.com/winnyboy5/mediagit-core-sub002/internal/checkout"
	"github.com/winnyboy5/mediagit-core-sub002/internal/lca"
	"github.com/winnyboy5/mediagit-core-sub002/internal/merge"
	"github.com/winnyboy5/mediagit-core-sub002/internal/object"
	"github.com/winnyboy5/mediagit-core-sub002/internal/oid"
	"github.com/winnyboy5/mediagit-core-sub002/internal/refs"
	"github.com/winnyboy5/mediagit-core-sub002/internal/stage"
)

// ObjectStore is everything the sequencer needs from the object
// database: merge.Store's decode/write surface, plus Read for pulling
// raw blob bytes when rendering a conflict marker.
type ObjectStore interface {
	merge.Store
	Read(ctx context.Context, id oid.OID) (object.Type, []byte, error)
}

// Engine drives the four multi-step operations over a shared set of
// repository collaborators.
type Engine struct {
	root      string
	store     ObjectStore
	refs      refs.Store
	checkout  *checkout.Manager
	committer object.Signature
}

// New returns an Engine rooted at root (the repository metadata
// directory, the same root passed to refs.NewFilesystem/checkout.New),
// using committer as the identity recorded on every synthetic commit
// the sequencer creates (the rebased/cherry-picked/reverted commits'
// "committer" line). Rebased and cherry-picked commits copy their
// "author" line from the original commit; a revert commit records
// committer as its author too.
func New(root string, store ObjectStore, refStore refs.Store, wt *checkout.Manager, committer object.Signature) *Engine {
	return &Engine{root: root, store: store, refs: refStore, checkout: wt, committer: committer}
}

// firstParentPath returns the commits strictly between base (exclusive)
// and tip (inclusive), ordered oldest-first, by walking tip's
// first-parent chain. It stops if it reaches a commit with no parents
// before reaching base (disjoint histories), returning what it found.
func firstParentPath(ctx context.Context, cr lca.CommitReader, tip, base oid.OID) ([]oid.OID, error) {
	var reversed []oid.OID
	cur := tip
	for cur != base {
		commit, err := cr.DecodeCommit(ctx, cur)
		if err != nil {
			return nil, fmt.Errorf("sequencer: reading %s: %w", cur, err)
		}
		reversed = append(reversed, cur)
		if len(commit.Parents) == 0 {
			break
		}
		cur = commit.Parents[0]
	}
	out := make([]oid.OID, len(reversed))
	for i, id := range reversed {
		out[len(reversed)-1-i] = id
	}
	return out, nil
}

// applyOne performs the three-way merge of (parent(commitID), onto,
// commitID) and, on success, writes a new commit with the merged tree,
// commitID's author and message, e.committer as committer, and onto as
// the sole parent.
func (e *Engine) applyOne(ctx context.Context, onto, commitID oid.OID, strategy merge.Strategy) (oid.OID, *merge.Result, error) {
	commit, err := e.store.DecodeCommit(ctx, commitID)
	if err != nil {
		return oid.OID{}, nil, fmt.Errorf("sequencer: reading %s: %w", commitID, err)
	}
	var baseTree oid.OID
	if len(commit.Parents) > 0 {
		parent, err := e.store.DecodeCommit(ctx, commit.Parents[0])
		if err != nil {
			return oid.OID{}, nil, fmt.Errorf("sequencer: reading parent of %s: %w", commitID, err)
		}
		baseTree = parent.Tree
	}
	ontoCommit, err := e.store.DecodeCommit(ctx, onto)
	if err != nil {
		return oid.OID{}, nil, fmt.Errorf("sequencer: reading %s: %w", onto, err)
	}

	result, err := merge.MergeTrees(ctx, e.store, baseTree, ontoCommit.Tree, commit.Tree, strategy)
	if err != nil {
		return oid.OID{}, nil, err
	}
	if result.Conflicted() {
		return oid.OID{}, result, nil
	}

	newCommit := &object.Commit{
		Tree:      *result.TreeOID,
		Parents:   []oid.OID{onto},
		Author:    commit.Author,
		Committer: e.committer,
		Message:   commit.Message,
	}
	newCommit.Committer.When = now()
	id, err := e.store.Write(ctx, object.TypeCommit, newCommit.Bytes(), "")
	if err != nil {
		return oid.OID{}, nil, fmt.Errorf("sequencer: writing replayed commit for %s: %w", commitID, err)
	}
	return id, result, nil
}

// applyInverse performs the three-way merge needed to revert commitID:
// merging (commitID's tree as base, onto as ours, commitID's parent
// tree as theirs) — i.e. applying commitID's diff in reverse.
func (e *Engine) applyInverse(ctx context.Context, onto, commitID oid.OID, strategy merge.Strategy) (oid.OID, *merge.Result, error) {
	commit, err := e.store.DecodeCommit(ctx, commitID)
	if err != nil {
		return oid.OID{}, nil, fmt.Errorf("sequencer: reading %s: %w", commitID, err)
	}
	var parentTree oid.OID
	if len(commit.Parents) > 0 {
		parent, err := e.store.DecodeCommit(ctx, commit.Parents[0])
		if err != nil {
			return oid.OID{}, nil, fmt.Errorf("sequencer: reading parent of %s: %w", commitID, err)
		}
		parentTree = parent.Tree
	}
	ontoCommit, err := e.store.DecodeCommit(ctx, onto)
	if err != nil {
		return oid.OID{}, nil, fmt.Errorf("sequencer: reading %s: %w", onto, err)
	}

	result, err := merge.MergeTrees(ctx, e.store, commit.Tree, ontoCommit.Tree, parentTree, strategy)
	if err != nil {
		return oid.OID{}, nil, err
	}
	if result.Conflicted() {
		return oid.OID{}, result, nil
	}

	newCommit := &object.Commit{
		Tree:      *result.TreeOID,
		Parents:   []oid.OID{onto},
		Author:    e.committer,
		Committer: e.committer,
		Message:   "Revert \"" + commit.Summary() + "\"",
	}
	newCommit.Author.When = now()
	newCommit.Committer.When = newCommit.Author.When
	id, err := e.store.Write(ctx, object.TypeCommit, newCommit.Bytes(), "")
	if err != nil {
		return oid.OID{}, nil, fmt.Errorf("sequencer: writing revert commit for %s: %w", commitID, err)
	}
	return id, result, nil
}

// markConflicts checks out onto's tree (via the commit that HEAD
// currently names) with conflicted paths overlaid as textual markers,
// and stages each conflicted path with stage.FlagConflict so a caller
// can detect "continue fails if conflicts remain" per the specification.
func (e *Engine) markConflicts(ctx context.Context, headCommit oid.OID, result *merge.Result, stg *stage.Stage) error {
	commit, err := e.store.DecodeCommit(ctx, headCommit)
	if err != nil {
		return err
	}
	if err := e.checkout.Full(ctx, commit.Tree); err != nil {
		return err
	}
	for _, c := range result.Conflicts {
		entry := stage.Entry{Path: c.Path, Flags: stage.FlagConflict}
		if c.Ours != nil {
			entry.OID, entry.Mode = c.Ours.OID, c.Ours.Mode
		} else if c.Theirs != nil {
			entry.OID, entry.Mode = c.Theirs.OID, c.Theirs.Mode
		}
		stg.Add(entry)
		if err := e.writeConflictMarker(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

// writeConflictMarker writes path in the working directory as a textual
// conflict marker when both sides' blobs look like text (no NUL byte),
// or as our side's raw bytes with a short binary-conflict notice
// otherwise — resolving the specification's Open Question in favor of
// embedded bytes for text and a plain marker for binary content.
func (e *Engine) writeConflictMarker(ctx context.Context, c merge.Conflict) error {
	var ours, theirs []byte
	if c.Ours != nil {
		if _, raw, err := e.store.Read(ctx, c.Ours.OID); err == nil {
			ours = raw
		}
	}
	if c.Theirs != nil {
		if _, raw, err := e.store.Read(ctx, c.Theirs.OID); err == nil {
			theirs = raw
		}
	}

	var body []byte
	if looksLikeText(ours) && looksLikeText(theirs) {
		body = append(body, "<<<<<<< ours\n"...)
		body = append(body, ours...)
		body = append(body, "=======\n"...)
		body = append(body, theirs...)
		body = append(body, ">>>>>>> theirs\n"...)
	} else {
		body = append([]byte("Binary files differ; keeping our version.\n"), ours...)
	}

	mode := object.ModeRegular
	if c.Ours != nil {
		mode = c.Ours.Mode
	} else if c.Theirs != nil {
		mode = c.Theirs.Mode
	}
	return e.checkout.WriteRaw(c.Path, body, mode)
}

func looksLikeText(b []byte) bool {
	for _, c := range b {
		if c == 0 {
			return false
		}
	}
	return true
}
