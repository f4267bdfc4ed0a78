// Command mediagit is the command-line front-end over internal/cli, wiring
// one kong subcommand per verb the way cmd/zeta/main.go wires one
// subcommand per pkg/command struct.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"github.com/winnyboy5/mediagit-core-sub002/internal/cli"
)

type App struct {
	cli.Globals
	Init       cli.Init       `cmd:"init" help:"Create an empty repository"`
	Add        cli.Add        `cmd:"add" help:"Add file contents to the index"`
	Commit     cli.Commit     `cmd:"commit" help:"Record staged changes as a new commit"`
	Branch     cli.Branch     `cmd:"branch" help:"List, create, or delete branches"`
	Tag        cli.Tag        `cmd:"tag" help:"List, create, or delete tags"`
	Checkout   cli.Checkout   `cmd:"checkout" help:"Switch branches or restore the working tree"`
	Switch     cli.Switch     `cmd:"switch" help:"Switch branches"`
	Merge      cli.Merge      `cmd:"merge" help:"Join two development histories together"`
	MergeBase  cli.MergeBase  `cmd:"merge-base" help:"Find the best common ancestors for a merge"`
	Rebase     cli.Rebase     `cmd:"rebase" help:"Reapply commits on top of another base tip"`
	CherryPick cli.CherryPick `cmd:"cherry-pick" help:"Apply the changes of an existing commit onto HEAD"`
	Revert     cli.Revert     `cmd:"revert" help:"Undo the changes of an existing commit"`
	Reset      cli.Reset      `cmd:"reset" help:"Reset current HEAD to the specified state"`
	Log        cli.Log        `cmd:"log" help:"Show commit history"`
	Status     cli.Status     `cmd:"status" help:"Show the working tree status"`
	Diff       cli.Diff       `cmd:"diff" help:"Show the structural difference between two commits"`
	Fsck       cli.Fsck       `cmd:"fsck" help:"Verify object and reference integrity"`
	CatFile    cli.CatFile    `cmd:"cat-file" help:"Provide content or details of a repository object"`
	HashObject cli.HashObject `cmd:"hash-object" help:"Compute an object id, optionally writing the object"`
	Pack       cli.Pack       `cmd:"pack" help:"Pack a commit's reachable objects into a single file"`
	Unpack     cli.Unpack     `cmd:"unpack" help:"Unpack a pack file's objects into the object database"`
}

func main() {
	var app App
	parser := kong.Must(&app,
		kong.Name("mediagit"),
		kong.Description("mediagit - a content-addressed version control engine for large binary media"),
		kong.UsageOnError(),
	)
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	start := time.Now()
	runErr := ctx.Run(&app.Globals)
	if app.Verbose {
		fmt.Fprintf(os.Stderr, "mediagit: time spent: %v\n", time.Since(start))
	}
	if runErr != nil {
		os.Exit(1)
	}
}
