package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/winnyboy5/mediagit-core-sub002/internal/merge"
	"github.com/winnyboy5/mediagit-core-sub002/internal/object"
	"github.com/winnyboy5/mediagit-core-sub002/internal/odb"
	"github.com/winnyboy5/mediagit-core-sub002/internal/oid"
)

// Diff reports the structural, path-level difference between two trees:
// which paths were added, removed, or changed mode/content. It never
// inspects blob bytes line-by-line; large binary media has no
// meaningful textual diff, so the comparison stops at the object id.
type Diff struct {
	From string `arg:"" name:"from" help:"Commit-ish to diff from"`
	To   string `arg:"" name:"to" help:"Commit-ish to diff to"`
}

func (d *Diff) Run(g *Globals) error {
	r, err := openRepo(g)
	if err != nil {
		die("diff: %v", err)
		return err
	}
	defer r.Close()
	ctx := context.Background()

	from, err := resolveCommitish(r, d.From)
	if err != nil {
		die("diff: %v", err)
		return err
	}
	to, err := resolveCommitish(r, d.To)
	if err != nil {
		die("diff: %v", err)
		return err
	}

	fromFlat, err := flattenCommit(ctx, r.ODB, from)
	if err != nil {
		die("diff: %v", err)
		return err
	}
	toFlat, err := flattenCommit(ctx, r.ODB, to)
	if err != nil {
		die("diff: %v", err)
		return err
	}

	paths := map[string]bool{}
	for p := range fromFlat {
		paths[p] = true
	}
	for p := range toFlat {
		paths[p] = true
	}
	sorted := make([]string, 0, len(paths))
	for p := range paths {
		sorted = append(sorted, p)
	}
	sort.Strings(sorted)

	for _, p := range sorted {
		before, hadBefore := fromFlat[p]
		after, hasAfter := toFlat[p]
		switch {
		case !hadBefore && hasAfter:
			fmt.Printf("A\t%s\n", p)
		case hadBefore && !hasAfter:
			fmt.Printf("D\t%s\n", p)
		case before.OID != after.OID || before.Mode != after.Mode:
			fmt.Printf("M\t%s\n", p)
		}
	}
	return nil
}

// flattenCommit decodes id's commit and returns its tree's flat
// path -> entry view, or an empty map for the zero (unborn-branch) id.
func flattenCommit(ctx context.Context, store *odb.ODB, id oid.OID) (map[string]object.TreeEntry, error) {
	if id.IsZero() {
		return map[string]object.TreeEntry{}, nil
	}
	commit, err := store.DecodeCommit(ctx, id)
	if err != nil {
		return nil, err
	}
	return merge.Flatten(ctx, store, commit.Tree)
}
