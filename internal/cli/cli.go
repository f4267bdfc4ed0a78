// Package cli implements the mediagit command-line front-end: one
// exported command struct per verb, matching cmd/zeta/main.go's
// `cmd:"name" help:"..."` struct-tag convention and its Globals/Run
// shape. Every Run method here only calls exported internal/repo (and
// the packages it wires) operations — no engine logic lives in this
// package or in cmd/mediagit.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/winnyboy5/mediagit-core-sub002/internal/object"
	"github.com/winnyboy5/mediagit-core-sub002/internal/repo"
)

// Globals holds the flags shared by every subcommand.
type Globals struct {
	Verbose bool   `short:"V" name:"verbose" help:"Enable verbose/debug output"`
	CWD     string `name:"cwd" help:"Path to the repository working tree" default:"."`
}

func die(format string, a ...any) {
	fmt.Fprintf(os.Stderr, "mediagit: "+format+"\n", a...)
}

// committer builds the signature used for commit/reflog authorship from
// the environment, matching the teacher's reliance on user.name/
// user.email configuration for identity.
func committer() object.Signature {
	name := os.Getenv("MEDIAGIT_AUTHOR_NAME")
	if name == "" {
		name = "unknown"
	}
	email := os.Getenv("MEDIAGIT_AUTHOR_EMAIL")
	if email == "" {
		email = "unknown@localhost"
	}
	return object.Signature{Name: name, Email: email, When: time.Now().UTC()}
}

func openRepo(g *Globals) (*repo.Repository, error) {
	return repo.Open(g.CWD, committer())
}

func repoInit(dir string) (*repo.Repository, error) {
	return repo.Init(dir, committer())
}
