package cli

import (
	"context"
	"fmt"

	"github.com/winnyboy5/mediagit-core-sub002/internal/oid"
)

type Log struct {
	Commit string `arg:"" optional:"" default:"HEAD" name:"commit" help:"Commit-ish to start history from"`
}

func (l *Log) Run(g *Globals) error {
	r, err := openRepo(g)
	if err != nil {
		die("log: %v", err)
		return err
	}
	defer r.Close()
	ctx := context.Background()

	var start oid.OID
	if l.Commit == "HEAD" || l.Commit == "" {
		start, err = r.HeadCommit()
	} else {
		start, err = resolveCommitish(r, l.Commit)
	}
	if err != nil {
		die("log: %v", err)
		return err
	}
	if start.IsZero() {
		return nil
	}

	seen := map[oid.OID]bool{}
	queue := []oid.OID{start}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if seen[id] || id.IsZero() {
			continue
		}
		seen[id] = true

		commit, err := r.ODB.DecodeCommit(ctx, id)
		if err != nil {
			die("log: %v", err)
			return err
		}
		fmt.Printf("commit %s\n", id)
		if commit.IsMerge() {
			parents := make([]string, len(commit.Parents))
			for i, p := range commit.Parents {
				parents[i] = p.String()
			}
			fmt.Printf("merge:  %v\n", parents)
		}
		fmt.Printf("Author: %s <%s>\n", commit.Author.Name, commit.Author.Email)
		fmt.Printf("Date:   %s\n\n", commit.Committer.When.Format("Mon Jan 2 15:04:05 2006 -0700"))
		fmt.Printf("    %s\n\n", commit.Summary())

		queue = append(queue, commit.Parents...)
	}
	return nil
}
