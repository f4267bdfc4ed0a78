package cli

import (
	"fmt"

	"github.com/winnyboy5/mediagit-core-sub002/internal/refs"
)

type Tag struct {
	Delete bool     `name:"delete" short:"d" help:"Delete the named tag"`
	Args   []string `arg:"" optional:"" name:"args" help:"[<tag>] or nothing to list"`
}

func (t *Tag) Run(g *Globals) error {
	r, err := openRepo(g)
	if err != nil {
		die("tag: %v", err)
		return err
	}
	defer r.Close()

	if t.Delete {
		if len(t.Args) != 1 {
			err := fmt.Errorf("tag: --delete requires exactly one tag name")
			die("%v", err)
			return err
		}
		if err := r.Refs.Delete(refs.Tag(t.Args[0])); err != nil {
			die("tag: %v", err)
			return err
		}
		return nil
	}

	if len(t.Args) == 1 {
		head, err := r.HeadCommit()
		if err != nil {
			die("tag: %v", err)
			return err
		}
		if head.IsZero() {
			err := fmt.Errorf("tag: HEAD has no commit yet")
			die("%v", err)
			return err
		}
		if err := r.Refs.Update(refs.NewDirect(refs.Tag(t.Args[0]), head), &refs.Reference{}); err != nil {
			die("tag: %v", err)
			return err
		}
		return nil
	}

	list, err := r.Refs.List("refs/tags/")
	if err != nil {
		die("tag: %v", err)
		return err
	}
	for _, ref := range list {
		fmt.Println(ref.Name().Short())
	}
	return nil
}
