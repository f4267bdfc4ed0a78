package sequencer

import (
	"context"
	"fmt"

	"github.com/winnyboy5/mediagit-core-sub002/internal/lca"
	"github.com/winnyboy5/mediagit-core-sub002/internal/merge"
	"github.com/winnyboy5/mediagit-core-sub002/internal/oid"
	"github.com/winnyboy5/mediagit-core-sub002/internal/refs"
	"github.com/winnyboy5/mediagit-core-sub002/internal/stage"
)

// RebaseOutcome reports what StartRebase/ContinueRebase did.
type RebaseOutcome struct {
	// NoOp is true when upstream was already an ancestor of HEAD.
	NoOp bool
	// FastForward is true when HEAD was an ancestor of upstream: the
	// branch ref was moved directly, no commits were replayed.
	FastForward bool
	// Done is true when every commit replayed successfully and the
	// branch/HEAD were updated; false if conflicts stopped progress.
	Done bool
	// Head is the resulting HEAD commit after this call.
	Head oid.OID
	// Conflicts is non-empty when Done is false.
	Conflicts []merge.Conflict
}

// StartRebase begins replaying headBranch's commits (currently at head)
// onto upstream, per §4.16: find the merge base, detect the no-op and
// fast-forward special cases, otherwise collect the first-parent commits
// unique to head, persist state, and begin replaying.
func (e *Engine) StartRebase(ctx context.Context, headBranch refs.Name, head, upstream oid.OID, strategy merge.Strategy, stg *stage.Stage) (*RebaseOutcome, error) {
	if err := checkStart(e.root, KindRebase); err != nil {
		return nil, err
	}

	upstreamIsAncestor, err := lca.IsAncestor(ctx, e.store, upstream, head)
	if err != nil {
		return nil, err
	}
	if upstreamIsAncestor {
		return &RebaseOutcome{NoOp: true, Head: head}, nil
	}
	headIsAncestor, err := lca.IsAncestor(ctx, e.store, head, upstream)
	if err != nil {
		return nil, err
	}
	if headIsAncestor {
		if err := moveRef(e.refs, headBranch, upstream, nil); err != nil {
			return nil, err
		}
		tree, err := treeOf(ctx, e.store, upstream)
		if err != nil {
			return nil, err
		}
		if err := e.checkout.Full(ctx, tree); err != nil {
			return nil, err
		}
		return &RebaseOutcome{FastForward: true, Head: upstream}, nil
	}

	bases, err := lca.Find(ctx, e.store, head, upstream)
	if err != nil {
		return nil, err
	}
	var base oid.OID
	if len(bases) > 0 {
		base = bases[0]
	}
	remaining, err := firstParentPath(ctx, e.store, head, base)
	if err != nil {
		return nil, err
	}

	s := &State{
		Operation:      KindRebase,
		OriginalHead:   head,
		OriginalBranch: string(headBranch),
		Upstream:       upstream,
		Remaining:      remaining,
		Current:        upstream,
	}
	if err := save(e.root, s); err != nil {
		return nil, err
	}
	if err := moveRef(e.refs, refs.HEAD, upstream, nil); err != nil {
		return nil, err
	}

	return e.ContinueRebase(ctx, strategy, stg)
}

// ContinueRebase replays as many of the remaining commits as it can,
// stopping at the first conflict (which it persists and surfaces) or
// once the list is exhausted (at which point it fast-forwards the
// original branch to the new HEAD and clears state).
func (e *Engine) ContinueRebase(ctx context.Context, strategy merge.Strategy, stg *stage.Stage) (*RebaseOutcome, error) {
	s, err := load(e.root, KindRebase)
	if err != nil {
		return nil, err
	}
	if stg != nil && len(stg.Conflicts()) > 0 {
		return nil, ErrConflicted
	}

	onto := s.Current
	for len(s.Remaining) > 0 {
		next := s.Remaining[0]
		newCommit, result, err := e.applyOne(ctx, onto, next, strategy)
		if err != nil {
			return nil, err
		}
		if result.Conflicted() {
			s.Current = onto
			if err := save(e.root, s); err != nil {
				return nil, err
			}
			if err := e.markConflicts(ctx, onto, result, stg); err != nil {
				return nil, err
			}
			return &RebaseOutcome{Head: onto, Conflicts: result.Conflicts}, nil
		}
		onto = newCommit
		s.Remaining = s.Remaining[1:]
		s.Current = onto
	}

	if err := moveRef(e.refs, refs.Name(s.OriginalBranch), onto, nil); err != nil {
		return nil, err
	}
	if err := moveRef(e.refs, refs.HEAD, onto, nil); err != nil {
		return nil, err
	}
	tree, err := treeOf(ctx, e.store, onto)
	if err != nil {
		return nil, err
	}
	if err := e.checkout.Full(ctx, tree); err != nil {
		return nil, err
	}
	if err := clear(e.root, KindRebase); err != nil {
		return nil, err
	}
	return &RebaseOutcome{Done: true, Head: onto}, nil
}

// SkipRebase discards the current (conflicting) commit and resumes with
// the rest of the list.
func (e *Engine) SkipRebase(ctx context.Context, strategy merge.Strategy, stg *stage.Stage) (*RebaseOutcome, error) {
	s, err := load(e.root, KindRebase)
	if err != nil {
		return nil, err
	}
	if len(s.Remaining) == 0 {
		return nil, fmt.Errorf("sequencer: no commit to skip")
	}
	s.Remaining = s.Remaining[1:]
	if stg != nil {
		for _, c := range stg.Conflicts() {
			stg.Remove(c.Path)
		}
	}
	if err := save(e.root, s); err != nil {
		return nil, err
	}
	return e.ContinueRebase(ctx, strategy, stg)
}

// AbortRebase restores HEAD (and the original branch) to their pre-
// rebase state and clears the state file.
func (e *Engine) AbortRebase(ctx context.Context) error {
	s, err := load(e.root, KindRebase)
	if err != nil {
		return err
	}
	if err := moveRef(e.refs, refs.Name(s.OriginalBranch), s.OriginalHead, nil); err != nil {
		return err
	}
	if err := moveRef(e.refs, refs.HEAD, s.OriginalHead, nil); err != nil {
		return err
	}
	tree, err := treeOf(ctx, e.store, s.OriginalHead)
	if err != nil {
		return err
	}
	if err := e.checkout.Full(ctx, tree); err != nil {
		return err
	}
	return clear(e.root, KindRebase)
}

// treeOf resolves a commit's tree OID, used by every operation that
// needs to materialize HEAD back onto the working directory.
func treeOf(ctx context.Context, store ObjectStore, commitID oid.OID) (oid.OID, error) {
	commit, err := store.DecodeCommit(ctx, commitID)
	if err != nil {
		return oid.OID{}, fmt.Errorf("sequencer: reading %s: %w", commitID, err)
	}
	return commit.Tree, nil
}
