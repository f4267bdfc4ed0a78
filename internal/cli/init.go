package cli

import "fmt"

type Init struct {
	Directory string `arg:"" optional:"" name:"directory" help:"Directory to initialize" default:"."`
}

func (c *Init) Run(g *Globals) error {
	r, err := repoInit(c.Directory)
	if err != nil {
		die("init: %v", err)
		return err
	}
	defer r.Close()
	fmt.Printf("Initialized empty mediagit repository in %s\n", r.GitDir)
	return nil
}
