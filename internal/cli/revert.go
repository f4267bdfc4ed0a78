package cli

import (
	"context"
	"fmt"

	"github.com/winnyboy5/mediagit-core-sub002/internal/merge"
)

type Revert struct {
	Commit   string `arg:"" optional:"" name:"commit" help:"Commit whose changes to undo"`
	Continue bool   `name:"continue" help:"Continue an in-progress revert"`
	Abort    bool   `name:"abort" help:"Abort an in-progress revert"`
}

func (r *Revert) Run(g *Globals) error {
	rep, err := openRepo(g)
	if err != nil {
		die("revert: %v", err)
		return err
	}
	defer rep.Close()
	ctx := context.Background()

	if r.Abort {
		if err := rep.Sequencer.AbortRevert(ctx); err != nil {
			die("revert: %v", err)
			return err
		}
		return nil
	}

	stg, err := rep.LoadStage()
	if err != nil {
		die("revert: %v", err)
		return err
	}

	branch, ok := rep.CurrentBranch()
	if !ok {
		err := fmt.Errorf("revert: HEAD is detached")
		die("%v", err)
		return err
	}

	if r.Continue {
		res, err := rep.Sequencer.ContinueRevert(ctx, branch, merge.Recursive, stg)
		if err != nil {
			die("revert: %v", err)
			return err
		}
		return reportPick(rep, stg, "revert", res)
	}

	head, err := rep.HeadCommit()
	if err != nil {
		die("revert: %v", err)
		return err
	}
	target, err := resolveCommitish(rep, r.Commit)
	if err != nil {
		die("revert: %v", err)
		return err
	}
	res, err := rep.Sequencer.StartRevert(ctx, branch, head, target, merge.Recursive, stg)
	if err != nil {
		die("revert: %v", err)
		return err
	}
	return reportPick(rep, stg, "revert", res)
}
