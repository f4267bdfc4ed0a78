package cli

import (
	"context"
	"fmt"

	"github.com/winnyboy5/mediagit-core-sub002/internal/merge"
	"github.com/winnyboy5/mediagit-core-sub002/internal/repo"
	"github.com/winnyboy5/mediagit-core-sub002/internal/sequencer"
	"github.com/winnyboy5/mediagit-core-sub002/internal/stage"
)

type Rebase struct {
	Upstream string `arg:"" optional:"" name:"upstream" help:"Upstream commit-ish to replay onto"`
	Continue bool   `name:"continue" help:"Continue an in-progress rebase"`
	Abort    bool   `name:"abort" help:"Abort an in-progress rebase, restoring HEAD"`
}

func (r *Rebase) Run(g *Globals) error {
	rep, err := openRepo(g)
	if err != nil {
		die("rebase: %v", err)
		return err
	}
	defer rep.Close()
	ctx := context.Background()

	if r.Abort {
		if err := rep.Sequencer.AbortRebase(ctx); err != nil {
			die("rebase: %v", err)
			return err
		}
		return nil
	}

	stg, err := rep.LoadStage()
	if err != nil {
		die("rebase: %v", err)
		return err
	}

	if r.Continue {
		res, err := rep.Sequencer.ContinueRebase(ctx, merge.Recursive, stg)
		if err != nil {
			die("rebase: %v", err)
			return err
		}
		return reportRebase(rep, stg, res)
	}

	branch, ok := rep.CurrentBranch()
	if !ok {
		err := fmt.Errorf("rebase: HEAD is detached")
		die("%v", err)
		return err
	}
	head, err := rep.HeadCommit()
	if err != nil {
		die("rebase: %v", err)
		return err
	}
	upstream, err := resolveCommitish(rep, r.Upstream)
	if err != nil {
		die("rebase: %v", err)
		return err
	}
	res, err := rep.Sequencer.StartRebase(ctx, branch, head, upstream, merge.Recursive, stg)
	if err != nil {
		die("rebase: %v", err)
		return err
	}
	return reportRebase(rep, stg, res)
}

func reportRebase(rep *repo.Repository, stg *stage.Stage, res *sequencer.RebaseOutcome) error {
	if err := rep.SaveStage(stg); err != nil {
		die("rebase: %v", err)
		return err
	}
	switch {
	case res.NoOp:
		fmt.Println("rebase: already up to date")
	case res.Done:
		fmt.Println(res.Head.String())
	default:
		fmt.Printf("rebase: %d conflicting path(s), resolve and run --continue\n", len(res.Conflicts))
	}
	return nil
}
