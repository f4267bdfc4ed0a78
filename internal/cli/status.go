package cli

import (
	"context"
	"fmt"
	"sort"
)

type Status struct{}

func (s *Status) Run(g *Globals) error {
	r, err := openRepo(g)
	if err != nil {
		die("status: %v", err)
		return err
	}
	defer r.Close()
	ctx := context.Background()

	if branch, ok := r.CurrentBranch(); ok {
		fmt.Printf("On branch %s\n", branch.Short())
	} else {
		fmt.Println("HEAD detached")
	}

	head, err := r.HeadCommit()
	if err != nil {
		die("status: %v", err)
		return err
	}

	flat, err := flattenCommit(ctx, r.ODB, head)
	if err != nil {
		die("status: %v", err)
		return err
	}
	committed := map[string]string{}
	for path, e := range flat {
		committed[path] = e.OID.String()
	}

	stg, err := r.LoadStage()
	if err != nil {
		die("status: %v", err)
		return err
	}

	var added, modified, deleted, conflicted []string
	staged := map[string]bool{}
	for _, e := range stg.Entries() {
		staged[e.Path] = true
		if e.HasConflict() {
			conflicted = append(conflicted, e.Path)
			continue
		}
		prior, ok := committed[e.Path]
		switch {
		case !ok:
			added = append(added, e.Path)
		case prior != e.OID.String():
			modified = append(modified, e.Path)
		}
	}
	for path := range committed {
		if !staged[path] {
			deleted = append(deleted, path)
		}
	}

	printSection("Conflicted", conflicted)
	printSection("Added", added)
	printSection("Modified", modified)
	printSection("Deleted", deleted)
	if len(added)+len(modified)+len(deleted)+len(conflicted) == 0 {
		fmt.Println("nothing to commit, working tree clean")
	}
	return nil
}

func printSection(title string, paths []string) {
	if len(paths) == 0 {
		return
	}
	sort.Strings(paths)
	fmt.Printf("%s:\n", title)
	for _, p := range paths {
		fmt.Printf("\t%s\n", p)
	}
}
