package cli

import (
	"context"
	"fmt"

	"github.com/winnyboy5/mediagit-core-sub002/internal/refs"
	"github.com/winnyboy5/mediagit-core-sub002/internal/sequencer"
	"github.com/winnyboy5/mediagit-core-sub002/internal/stage"
)

type Reset struct {
	Commit string `arg:"" optional:"" name:"commit" default:"HEAD" help:"Commit-ish to reset to"`
	Soft   bool   `name:"soft" help:"Move HEAD only"`
	Mixed  bool   `name:"mixed" help:"Move HEAD and reset the index (default)"`
	Hard   bool   `name:"hard" help:"Move HEAD, reset the index, and overwrite the working tree"`
	Abort  bool   `name:"abort" help:"Restore the HEAD recorded by an interrupted reset"`
}

func (r *Reset) Run(g *Globals) error {
	rep, err := openRepo(g)
	if err != nil {
		die("reset: %v", err)
		return err
	}
	defer rep.Close()
	ctx := context.Background()

	if r.Abort {
		if err := rep.Sequencer.AbortReset(ctx); err != nil {
			die("reset: %v", err)
			return err
		}
		return nil
	}

	mode := sequencer.Mixed
	switch {
	case r.Soft:
		mode = sequencer.Soft
	case r.Hard:
		mode = sequencer.Hard
	}

	headRef := refs.HEAD
	if branch, ok := rep.CurrentBranch(); ok {
		headRef = branch
	}

	current, err := rep.HeadCommit()
	if err != nil {
		die("reset: %v", err)
		return err
	}
	target := current
	if r.Commit != "HEAD" && r.Commit != "" {
		target, err = resolveCommitish(rep, r.Commit)
		if err != nil {
			die("reset: %v", err)
			return err
		}
	}

	if err := rep.Sequencer.Reset(ctx, headRef, current, target, mode); err != nil {
		die("reset: %v", err)
		return err
	}

	if mode != sequencer.Soft {
		stg, err := rep.LoadStage()
		if err != nil {
			die("reset: %v", err)
			return err
		}
		flat, err := flattenCommit(ctx, rep.ODB, target)
		if err != nil {
			die("reset: %v", err)
			return err
		}
		stg.Clear()
		for path, e := range flat {
			stg.Add(stage.Entry{Path: path, OID: e.OID, Mode: e.Mode})
		}
		if err := rep.SaveStage(stg); err != nil {
			die("reset: %v", err)
			return err
		}
	}

	rep.AppendReflog(refs.HEAD, target, fmt.Sprintf("reset: moving to %s", r.Commit))
	return nil
}
