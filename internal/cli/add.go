package cli

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/winnyboy5/mediagit-core-sub002/internal/object"
	"github.com/winnyboy5/mediagit-core-sub002/internal/repo"
	"github.com/winnyboy5/mediagit-core-sub002/internal/stage"
)

type Add struct {
	Paths []string `arg:"" name:"pathspec" help:"Files or directories to add to the index"`
}

func (c *Add) Run(g *Globals) error {
	r, err := openRepo(g)
	if err != nil {
		die("add: %v", err)
		return err
	}
	defer r.Close()

	stg, err := r.LoadStage()
	if err != nil {
		die("add: %v", err)
		return err
	}

	ctx := context.Background()
	for _, p := range c.Paths {
		if err := addPath(ctx, r, stg, p); err != nil {
			die("add: %v", err)
			return err
		}
	}
	if err := r.SaveStage(stg); err != nil {
		die("add: %v", err)
		return err
	}
	return nil
}

func addPath(ctx context.Context, r *repo.Repository, stg *stage.Stage, root string) error {
	abs := filepath.Join(r.WorkDir, root)
	return filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(r.WorkDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		info, err := d.Info()
		if err != nil {
			return err
		}
		mode := object.ModeRegular
		if info.Mode()&os.ModeSymlink != 0 {
			mode = object.ModeSymlink
		} else if info.Mode()&0o111 != 0 {
			mode = object.ModeExecutable
		}

		var raw []byte
		if mode == object.ModeSymlink {
			target, err := os.Readlink(path)
			if err != nil {
				return err
			}
			raw = []byte(target)
		} else {
			raw, err = os.ReadFile(path)
			if err != nil {
				return err
			}
		}

		id, err := r.ODB.Write(ctx, object.TypeBlob, raw, rel)
		if err != nil {
			return err
		}
		stg.Add(stage.Entry{Path: rel, OID: id, Mode: mode})
		return nil
	})
}
