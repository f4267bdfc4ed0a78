package sequencer

import (
	"context"
	"fmt"

	"github.com/winnyboy5/mediagit-core-sub002/internal/oid"
	"github.com/winnyboy5/mediagit-core-sub002/internal/refs"
)

// ResetMode selects how much of the working state a reset touches.
type ResetMode int

const (
	// Soft moves HEAD/branch only; the index and working tree are
	// untouched.
	Soft ResetMode = iota
	// Mixed moves HEAD/branch and resets the index to match, leaving the
	// working tree untouched.
	Mixed
	// Hard moves HEAD/branch, resets the index, and overwrites the
	// working tree to match target.
	Hard
)

// Reset moves headRef from its current value to target. Every reset, in
// any mode, persists a pre-operation state file solely so Abort can restore
// the prior HEAD; unlike the other three operations, Reset never
// conflicts, so there is no Continue/Skip for it — the single call
// performs the whole operation and clears its own state on success.
func (e *Engine) Reset(ctx context.Context, headRef refs.Name, current, target oid.OID, mode ResetMode) error {
	if err := checkStart(e.root, KindReset); err != nil {
		return err
	}
	s := &State{Operation: KindReset, OriginalBranch: string(headRef), PreResetHead: current}
	if err := save(e.root, s); err != nil {
		return err
	}

	if err := moveRef(e.refs, headRef, target, nil); err != nil {
		return err
	}
	if err := moveRef(e.refs, refs.HEAD, target, nil); err != nil {
		return err
	}

	if mode == Hard {
		tree, err := treeOf(ctx, e.store, target)
		if err != nil {
			return err
		}
		if err := e.checkout.Full(ctx, tree); err != nil {
			return err
		}
	}

	return clear(e.root, KindReset)
}

// AbortReset restores headRef (and HEAD) to the value recorded before
// the last Reset call, should it need undoing before its own state file
// was cleared (e.g. the process crashed between moving the ref and the
// final clear). Mirrors rebaseAbort's restore-then-clear shape.
func (e *Engine) AbortReset(ctx context.Context) error {
	s, err := load(e.root, KindReset)
	if err != nil {
		return err
	}
	if s.PreResetHead.IsZero() {
		return fmt.Errorf("sequencer: reset state has no recorded prior HEAD")
	}
	if err := moveRef(e.refs, refs.Name(s.OriginalBranch), s.PreResetHead, nil); err != nil {
		return err
	}
	if err := moveRef(e.refs, refs.HEAD, s.PreResetHead, nil); err != nil {
		return err
	}
	tree, err := treeOf(ctx, e.store, s.PreResetHead)
	if err != nil {
		return err
	}
	if err := e.checkout.Full(ctx, tree); err != nil {
		return err
	}
	return clear(e.root, KindReset)
}
