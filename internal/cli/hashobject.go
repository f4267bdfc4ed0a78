package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/winnyboy5/mediagit-core-sub002/internal/object"
	"github.com/winnyboy5/mediagit-core-sub002/internal/oid"
)

type HashObject struct {
	Write bool   `name:"write" short:"w" help:"Write the object into the store instead of only hashing it"`
	Path  string `arg:"" name:"path" help:"File to hash"`
}

func (h *HashObject) Run(g *Globals) error {
	r, err := openRepo(g)
	if err != nil {
		die("hash-object: %v", err)
		return err
	}
	defer r.Close()

	raw, err := os.ReadFile(h.Path)
	if err != nil {
		die("hash-object: %v", err)
		return err
	}

	if !h.Write {
		fmt.Println(oid.FromBytes(raw).String())
		return nil
	}

	id, err := r.ODB.Write(context.Background(), object.TypeBlob, raw, h.Path)
	if err != nil {
		die("hash-object: %v", err)
		return err
	}
	fmt.Println(id.String())
	return nil
}
