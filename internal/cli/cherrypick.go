package cli

import (
	"context"
	"fmt"

	"github.com/winnyboy5/mediagit-core-sub002/internal/merge"
	"github.com/winnyboy5/mediagit-core-sub002/internal/repo"
	"github.com/winnyboy5/mediagit-core-sub002/internal/sequencer"
	"github.com/winnyboy5/mediagit-core-sub002/internal/stage"
)

type CherryPick struct {
	Commit   string `arg:"" optional:"" name:"commit" help:"Commit to apply onto HEAD"`
	Continue bool   `name:"continue" help:"Continue an in-progress cherry-pick"`
	Abort    bool   `name:"abort" help:"Abort an in-progress cherry-pick"`
}

func (c *CherryPick) Run(g *Globals) error {
	rep, err := openRepo(g)
	if err != nil {
		die("cherry-pick: %v", err)
		return err
	}
	defer rep.Close()
	ctx := context.Background()

	if c.Abort {
		if err := rep.Sequencer.AbortCherryPick(ctx); err != nil {
			die("cherry-pick: %v", err)
			return err
		}
		return nil
	}

	stg, err := rep.LoadStage()
	if err != nil {
		die("cherry-pick: %v", err)
		return err
	}

	branch, ok := rep.CurrentBranch()
	if !ok {
		err := fmt.Errorf("cherry-pick: HEAD is detached")
		die("%v", err)
		return err
	}

	if c.Continue {
		res, err := rep.Sequencer.ContinueCherryPick(ctx, branch, merge.Recursive, stg)
		if err != nil {
			die("cherry-pick: %v", err)
			return err
		}
		return reportPick(rep, stg, "cherry-pick", res)
	}

	head, err := rep.HeadCommit()
	if err != nil {
		die("cherry-pick: %v", err)
		return err
	}
	target, err := resolveCommitish(rep, c.Commit)
	if err != nil {
		die("cherry-pick: %v", err)
		return err
	}
	res, err := rep.Sequencer.StartCherryPick(ctx, branch, head, target, merge.Recursive, stg)
	if err != nil {
		die("cherry-pick: %v", err)
		return err
	}
	return reportPick(rep, stg, "cherry-pick", res)
}

func reportPick(rep *repo.Repository, stg *stage.Stage, verb string, res *sequencer.PickOutcome) error {
	if err := rep.SaveStage(stg); err != nil {
		die("%s: %v", verb, err)
		return err
	}
	if res.Done {
		fmt.Println(res.Head.String())
		return nil
	}
	fmt.Printf("%s: %d conflicting path(s), resolve and run --continue\n", verb, len(res.Conflicts))
	return nil
}
