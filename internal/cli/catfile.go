package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/winnyboy5/mediagit-core-sub002/internal/oid"
)

type CatFile struct {
	Type   bool   `name:"type" short:"t" help:"Print the object's type only"`
	Size   bool   `name:"size" short:"s" help:"Print the object's size only"`
	Object string `arg:"" name:"object" help:"Object id to inspect"`
}

func (c *CatFile) Run(g *Globals) error {
	r, err := openRepo(g)
	if err != nil {
		die("cat-file: %v", err)
		return err
	}
	defer r.Close()

	id, err := oid.Parse(c.Object)
	if err != nil {
		die("cat-file: %v", err)
		return err
	}

	typ, raw, err := r.ODB.Read(context.Background(), id)
	if err != nil {
		die("cat-file: %v", err)
		return err
	}

	switch {
	case c.Type:
		fmt.Println(typ.String())
	case c.Size:
		fmt.Println(len(raw))
	default:
		os.Stdout.Write(raw)
	}
	return nil
}
