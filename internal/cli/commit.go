package cli

import (
	"context"
	"fmt"

	"github.com/winnyboy5/mediagit-core-sub002/internal/merge"
	"github.com/winnyboy5/mediagit-core-sub002/internal/object"
	"github.com/winnyboy5/mediagit-core-sub002/internal/refs"
)

type Commit struct {
	Message string `name:"message" short:"m" help:"Commit message" required:""`
}

func (c *Commit) Run(g *Globals) error {
	r, err := openRepo(g)
	if err != nil {
		die("commit: %v", err)
		return err
	}
	defer r.Close()

	stg, err := r.LoadStage()
	if err != nil {
		die("commit: %v", err)
		return err
	}
	if len(stg.Conflicts()) > 0 {
		err := fmt.Errorf("commit: unresolved conflicts remain in the index")
		die("%v", err)
		return err
	}

	ctx := context.Background()
	flat := map[string]object.TreeEntry{}
	for _, e := range stg.Entries() {
		flat[e.Path] = object.TreeEntry{Name: e.Path, Mode: e.Mode, OID: e.OID}
	}
	treeID, err := merge.BuildTree(ctx, r.ODB, flat)
	if err != nil {
		die("commit: %v", err)
		return err
	}

	head, err := r.HeadCommit()
	if err != nil {
		die("commit: %v", err)
		return err
	}
	commit := &object.Commit{Tree: treeID, Author: r.Committer, Committer: r.Committer, Message: c.Message}
	if !head.IsZero() {
		commit.Parents = append(commit.Parents, head)
	}
	commitID, err := r.ODB.Write(ctx, object.TypeCommit, commit.Bytes(), "")
	if err != nil {
		die("commit: %v", err)
		return err
	}

	branch, ok := r.CurrentBranch()
	if !ok {
		err := fmt.Errorf("commit: HEAD is detached")
		die("%v", err)
		return err
	}
	old := &refs.Reference{}
	if !head.IsZero() {
		cur := refs.NewDirect(branch, head)
		old = &cur
	}
	if err := r.Refs.Update(refs.NewDirect(branch, commitID), old); err != nil {
		die("commit: %v", err)
		return err
	}
	r.AppendReflog(refs.HEAD, commitID, "commit: "+c.Message)
	stg.Clear()
	if err := r.SaveStage(stg); err != nil {
		die("commit: %v", err)
		return err
	}
	fmt.Println(commitID.String())
	return nil
}
