package cli

import (
	"context"
	"fmt"

	"github.com/winnyboy5/mediagit-core-sub002/internal/lca"
)

type MergeBase struct {
	A string `arg:"" name:"a" help:"First commit-ish"`
	B string `arg:"" name:"b" help:"Second commit-ish"`
}

func (m *MergeBase) Run(g *Globals) error {
	r, err := openRepo(g)
	if err != nil {
		die("merge-base: %v", err)
		return err
	}
	defer r.Close()

	ctx := context.Background()
	a, err := resolveCommitish(r, m.A)
	if err != nil {
		die("merge-base: %v", err)
		return err
	}
	b, err := resolveCommitish(r, m.B)
	if err != nil {
		die("merge-base: %v", err)
		return err
	}
	bases, err := lca.Find(ctx, r.ODB, a, b)
	if err != nil {
		die("merge-base: %v", err)
		return err
	}
	for _, base := range bases {
		fmt.Println(base.String())
	}
	return nil
}
