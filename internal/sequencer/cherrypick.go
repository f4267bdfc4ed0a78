package sequencer

import (
	"context"

	"github.com/winnyboy5/mediagit-core-sub002/internal/merge"
	"github.com/winnyboy5/mediagit-core-sub002/internal/oid"
	"github.com/winnyboy5/mediagit-core-sub002/internal/refs"
	"github.com/winnyboy5/mediagit-core-sub002/internal/stage"
)

// PickOutcome reports what a cherry-pick or revert step did.
type PickOutcome struct {
	Done      bool
	Head      oid.OID
	Conflicts []merge.Conflict
}

// StartCherryPick applies commitID onto head (HEAD's current commit),
// persisting state so a conflict can be continued, skipped, or aborted
// in a later process.
func (e *Engine) StartCherryPick(ctx context.Context, headRef refs.Name, head, commitID oid.OID, strategy merge.Strategy, stg *stage.Stage) (*PickOutcome, error) {
	if err := checkStart(e.root, KindCherryPick); err != nil {
		return nil, err
	}
	s := &State{
		Operation:      KindCherryPick,
		OriginalHead:   head,
		OriginalBranch: string(headRef),
		Remaining:      []oid.OID{commitID},
		Current:        head,
	}
	if err := save(e.root, s); err != nil {
		return nil, err
	}
	return e.continuePick(ctx, KindCherryPick, headRef, strategy, stg, e.applyOne)
}

// ContinueCherryPick resumes a cherry-pick after its conflict was
// resolved in the working tree (the stage must carry no remaining
// FlagConflict entries).
func (e *Engine) ContinueCherryPick(ctx context.Context, headRef refs.Name, strategy merge.Strategy, stg *stage.Stage) (*PickOutcome, error) {
	return e.continuePick(ctx, KindCherryPick, headRef, strategy, stg, e.applyOne)
}

// AbortCherryPick restores HEAD to its pre-pick value and clears state.
func (e *Engine) AbortCherryPick(ctx context.Context) error {
	return e.abortPick(ctx, KindCherryPick)
}

// SkipCherryPick discards the in-progress pick without touching HEAD
// (nothing was committed yet) and clears state.
func (e *Engine) SkipCherryPick(stg *stage.Stage) error {
	return e.skipPick(KindCherryPick, stg)
}

// SkipRevert discards the in-progress revert without touching HEAD and
// clears state.
func (e *Engine) SkipRevert(stg *stage.Stage) error {
	return e.skipPick(KindRevert, stg)
}

func (e *Engine) skipPick(kind Kind, stg *stage.Stage) error {
	if _, err := load(e.root, kind); err != nil {
		return err
	}
	if stg != nil {
		for _, c := range stg.Conflicts() {
			stg.Remove(c.Path)
		}
	}
	return clear(e.root, kind)
}

// StartRevert applies the inverse of commitID onto head.
func (e *Engine) StartRevert(ctx context.Context, headRef refs.Name, head, commitID oid.OID, strategy merge.Strategy, stg *stage.Stage) (*PickOutcome, error) {
	if err := checkStart(e.root, KindRevert); err != nil {
		return nil, err
	}
	s := &State{
		Operation:      KindRevert,
		OriginalHead:   head,
		OriginalBranch: string(headRef),
		Remaining:      []oid.OID{commitID},
		Current:        head,
	}
	if err := save(e.root, s); err != nil {
		return nil, err
	}
	return e.continuePick(ctx, KindRevert, headRef, strategy, stg, e.applyInverse)
}

// ContinueRevert resumes a revert after its conflict was resolved.
func (e *Engine) ContinueRevert(ctx context.Context, headRef refs.Name, strategy merge.Strategy, stg *stage.Stage) (*PickOutcome, error) {
	return e.continuePick(ctx, KindRevert, headRef, strategy, stg, e.applyInverse)
}

// AbortRevert restores HEAD to its pre-revert value and clears state.
func (e *Engine) AbortRevert(ctx context.Context) error {
	return e.abortPick(ctx, KindRevert)
}

type applyFn func(ctx context.Context, onto, commitID oid.OID, strategy merge.Strategy) (oid.OID, *merge.Result, error)

// continuePick is the shared body of cherry-pick and revert: both are a
// single commit applied (or applied-inverse) onto HEAD, differing only
// in which applyFn produces the replacement commit.
func (e *Engine) continuePick(ctx context.Context, kind Kind, headRef refs.Name, strategy merge.Strategy, stg *stage.Stage, apply applyFn) (*PickOutcome, error) {
	s, err := load(e.root, kind)
	if err != nil {
		return nil, err
	}
	if stg != nil && len(stg.Conflicts()) > 0 {
		return nil, ErrConflicted
	}
	if len(s.Remaining) == 0 {
		return nil, ErrNotInProgress
	}

	commitID := s.Remaining[0]
	newCommit, result, err := apply(ctx, s.Current, commitID, strategy)
	if err != nil {
		return nil, err
	}
	if result.Conflicted() {
		if err := save(e.root, s); err != nil {
			return nil, err
		}
		if err := e.markConflicts(ctx, s.Current, result, stg); err != nil {
			return nil, err
		}
		return &PickOutcome{Head: s.Current, Conflicts: result.Conflicts}, nil
	}

	if err := moveRef(e.refs, headRef, newCommit, nil); err != nil {
		return nil, err
	}
	if err := moveRef(e.refs, refs.HEAD, newCommit, nil); err != nil {
		return nil, err
	}
	tree, err := treeOf(ctx, e.store, newCommit)
	if err != nil {
		return nil, err
	}
	if err := e.checkout.Full(ctx, tree); err != nil {
		return nil, err
	}
	if err := clear(e.root, kind); err != nil {
		return nil, err
	}
	return &PickOutcome{Done: true, Head: newCommit}, nil
}

func (e *Engine) abortPick(ctx context.Context, kind Kind) error {
	s, err := load(e.root, kind)
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
	return clear(e.root, kind)
}
