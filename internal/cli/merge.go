package cli

import (
	"bytes"
	"context"
	"fmt"

	"github.com/winnyboy5/mediagit-core-sub002/internal/merge"
	"github.com/winnyboy5/mediagit-core-sub002/internal/object"
	"github.com/winnyboy5/mediagit-core-sub002/internal/oid"
	"github.com/winnyboy5/mediagit-core-sub002/internal/refs"
	"github.com/winnyboy5/mediagit-core-sub002/internal/repo"
	"github.com/winnyboy5/mediagit-core-sub002/internal/stage"
)

type Merge struct {
	Branch string `arg:"" name:"branch" help:"Branch, tag, or commit to merge into HEAD"`
	Theirs bool   `name:"theirs" help:"Resolve content conflicts in favor of their side"`
	Ours   bool   `name:"ours" help:"Resolve content conflicts in favor of our side"`
}

func (m *Merge) Run(g *Globals) error {
	r, err := openRepo(g)
	if err != nil {
		die("merge: %v", err)
		return err
	}
	defer r.Close()

	strategy := merge.Recursive
	switch {
	case m.Theirs:
		strategy = merge.Theirs
	case m.Ours:
		strategy = merge.Ours
	}

	ctx := context.Background()
	head, err := r.HeadCommit()
	if err != nil {
		die("merge: %v", err)
		return err
	}
	their, err := resolveCommitish(r, m.Branch)
	if err != nil {
		die("merge: %v", err)
		return err
	}

	result, err := merge.Merge(ctx, r.ODB, head, their, strategy)
	if err != nil {
		die("merge: %v", err)
		return err
	}

	branch, ok := r.CurrentBranch()
	if !ok {
		err := fmt.Errorf("merge: HEAD is detached")
		die("%v", err)
		return err
	}

	if result.FastForward != nil {
		target := result.FastForward.To
		if err := moveToCommit(ctx, r, branch, head, target); err != nil {
			die("merge: %v", err)
			return err
		}
		r.AppendReflog(refs.HEAD, target, "merge: fast-forward to "+m.Branch)
		return nil
	}

	if result.Conflicted() {
		stg, err := r.LoadStage()
		if err != nil {
			die("merge: %v", err)
			return err
		}
		if err := applyConflicts(ctx, r, head, result, stg); err != nil {
			die("merge: %v", err)
			return err
		}
		if err := r.SaveStage(stg); err != nil {
			die("merge: %v", err)
			return err
		}
		fmt.Printf("merge: %d conflicting path(s), resolve and commit\n", len(result.Conflicts))
		return nil
	}

	commit := &object.Commit{
		Tree:      *result.TreeOID,
		Parents:   []oid.OID{head, their},
		Author:    r.Committer,
		Committer: r.Committer,
		Message:   "merge: " + m.Branch,
	}
	commitID, err := r.ODB.Write(ctx, object.TypeCommit, commit.Bytes(), "")
	if err != nil {
		die("merge: %v", err)
		return err
	}
	if err := moveToCommit(ctx, r, branch, head, commitID); err != nil {
		die("merge: %v", err)
		return err
	}
	r.AppendReflog(refs.HEAD, commitID, "merge: "+m.Branch)
	fmt.Println(commitID.String())
	return nil
}

func moveToCommit(ctx context.Context, r *repo.Repository, branch refs.Name, oldHead, target oid.OID) error {
	old := &refs.Reference{}
	if !oldHead.IsZero() {
		cur := refs.NewDirect(branch, oldHead)
		old = &cur
	}
	if err := r.Refs.Update(refs.NewDirect(branch, target), old); err != nil {
		return err
	}
	commit, err := r.ODB.DecodeCommit(ctx, target)
	if err != nil {
		return err
	}
	return r.Checkout.Full(ctx, commit.Tree)
}

// applyConflicts checks HEAD's tree out, overlays conflict markers for
// every unresolved path, and stages each one with stage.FlagConflict —
// the same discipline internal/sequencer applies after a failed rebase/
// cherry-pick/revert step, reimplemented here for the CLI's plain merge
// verb since that path never runs through the sequencer's state machine.
func applyConflicts(ctx context.Context, r *repo.Repository, head oid.OID, result *merge.Result, stg *stage.Stage) error {
	commit, err := r.ODB.DecodeCommit(ctx, head)
	if err != nil {
		return err
	}
	if err := r.Checkout.Full(ctx, commit.Tree); err != nil {
		return err
	}
	for _, c := range result.Conflicts {
		entry := stage.Entry{Path: c.Path, Flags: stage.FlagConflict}
		var ours, theirs []byte
		if c.Ours != nil {
			entry.OID, entry.Mode = c.Ours.OID, c.Ours.Mode
			if _, raw, err := r.ODB.Read(ctx, c.Ours.OID); err == nil {
				ours = raw
			}
		}
		if c.Theirs != nil {
			if entry.OID.IsZero() {
				entry.OID, entry.Mode = c.Theirs.OID, c.Theirs.Mode
			}
			if _, raw, err := r.ODB.Read(ctx, c.Theirs.OID); err == nil {
				theirs = raw
			}
		}
		stg.Add(entry)

		var body []byte
		if bytes.IndexByte(ours, 0) < 0 && bytes.IndexByte(theirs, 0) < 0 {
			body = append([]byte("<<<<<<< ours\n"), ours...)
			body = append(body, "=======\n"...)
			body = append(body, theirs...)
			body = append(body, ">>>>>>> theirs\n"...)
		} else {
			body = append([]byte("Binary files differ; keeping our version.\n"), ours...)
		}
		if err := r.Checkout.WriteRaw(c.Path, body, entry.Mode); err != nil {
			return err
		}
	}
	return nil
}
