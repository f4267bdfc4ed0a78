package cli

import (
	"context"
	"fmt"

	"github.com/winnyboy5/mediagit-core-sub002/internal/refs"
	"github.com/winnyboy5/mediagit-core-sub002/internal/repo"
)

type Checkout struct {
	Branch string `arg:"" name:"branch" help:"Branch, tag, or commit to check out"`
}

func (c *Checkout) Run(g *Globals) error {
	r, err := openRepo(g)
	if err != nil {
		die("checkout: %v", err)
		return err
	}
	defer r.Close()
	return switchTo(r, c.Branch)
}

func switchTo(r *repo.Repository, name string) error {
	target, err := resolveCommitish(r, name)
	if err != nil {
		die("checkout: %v", err)
		return err
	}
	ctx := context.Background()
	commit, err := r.ODB.DecodeCommit(ctx, target)
	if err != nil {
		die("checkout: %v", err)
		return err
	}
	if err := r.Checkout.Full(ctx, commit.Tree); err != nil {
		die("checkout: %v", err)
		return err
	}

	branch := refs.Branch(name)
	if _, err := r.Refs.Resolve(branch); err == nil {
		if err := r.Refs.Update(refs.NewSymbolic(refs.HEAD, branch), nil); err != nil {
			die("checkout: %v", err)
			return err
		}
	} else {
		if err := r.Refs.Update(refs.NewDirect(refs.HEAD, target), nil); err != nil {
			die("checkout: %v", err)
			return err
		}
	}
	r.AppendReflog(refs.HEAD, target, fmt.Sprintf("checkout: moving to %s", name))
	return nil
}
