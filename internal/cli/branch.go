package cli

import (
	"fmt"

	"github.com/winnyboy5/mediagit-core-sub002/internal/refs"
)

type Branch struct {
	Delete bool     `name:"delete" short:"d" help:"Delete the named branch"`
	Args   []string `arg:"" optional:"" name:"args" help:"[<branch>] or nothing to list"`
}

func (b *Branch) Run(g *Globals) error {
	r, err := openRepo(g)
	if err != nil {
		die("branch: %v", err)
		return err
	}
	defer r.Close()

	if b.Delete {
		if len(b.Args) != 1 {
			err := fmt.Errorf("branch: --delete requires exactly one branch name")
			die("%v", err)
			return err
		}
		if err := r.Refs.Delete(refs.Branch(b.Args[0])); err != nil {
			die("branch: %v", err)
			return err
		}
		return nil
	}

	if len(b.Args) == 1 {
		head, err := r.HeadCommit()
		if err != nil {
			die("branch: %v", err)
			return err
		}
		if err := r.Refs.Update(refs.NewDirect(refs.Branch(b.Args[0]), head), &refs.Reference{}); err != nil {
			die("branch: %v", err)
			return err
		}
		return nil
	}

	list, err := r.Refs.List("refs/heads/")
	if err != nil {
		die("branch: %v", err)
		return err
	}
	current, _ := r.CurrentBranch()
	for _, ref := range list {
		marker := "  "
		if ref.Name() == current {
			marker = "* "
		}
		fmt.Printf("%s%s\n", marker, ref.Name().Short())
	}
	return nil
}
