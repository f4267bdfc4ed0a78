package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/winnyboy5/mediagit-core-sub002/internal/odb"
	"github.com/winnyboy5/mediagit-core-sub002/internal/oid"
	"github.com/winnyboy5/mediagit-core-sub002/internal/pack"
)

type Pack struct {
	Commit string `arg:"" optional:"" default:"HEAD" name:"commit" help:"Commit-ish whose history to pack"`
	Output string `arg:"" name:"output" help:"Path of the pack file to write"`
}

func (p *Pack) Run(g *Globals) error {
	r, err := openRepo(g)
	if err != nil {
		die("pack: %v", err)
		return err
	}
	defer r.Close()
	ctx := context.Background()

	var start oid.OID
	if p.Commit == "HEAD" || p.Commit == "" {
		start, err = r.HeadCommit()
	} else {
		start, err = resolveCommitish(r, p.Commit)
	}
	if err != nil {
		die("pack: %v", err)
		return err
	}

	ids, err := reachable(ctx, r.ODB, start)
	if err != nil {
		die("pack: %v", err)
		return err
	}

	f, err := os.Create(p.Output)
	if err != nil {
		die("pack: %v", err)
		return err
	}
	defer f.Close()

	pw, err := pack.NewWriter(f, uint32(len(ids)))
	if err != nil {
		die("pack: %v", err)
		return err
	}
	for _, id := range ids {
		typ, raw, err := r.ODB.Read(ctx, id)
		if err != nil {
			die("pack: %v", err)
			return err
		}
		if err := pw.WriteObject(id, typ, raw); err != nil {
			die("pack: %v", err)
			return err
		}
	}
	sum, err := pw.Finish()
	if err != nil {
		die("pack: %v", err)
		return err
	}
	fmt.Printf("%d objects packed, checksum %x\n", len(ids), sum)
	return nil
}

// reachable walks start's ancestry, collecting every commit, tree, and
// blob OID reachable from it, the same traversal fsck.CheckConnectivity
// performs but returning the id set instead of a report.
func reachable(ctx context.Context, store *odb.ODB, start oid.OID) ([]oid.OID, error) {
	var ids []oid.OID
	seen := map[oid.OID]bool{}

	var walkTree func(id oid.OID) error
	walkTree = func(id oid.OID) error {
		if seen[id] || id.IsZero() {
			return nil
		}
		seen[id] = true
		ids = append(ids, id)
		tree, err := store.DecodeTree(ctx, id)
		if err != nil {
			return err
		}
		for _, e := range tree.Entries {
			if e.Mode.IsDir() {
				if err := walkTree(e.OID); err != nil {
					return err
				}
				continue
			}
			if seen[e.OID] {
				continue
			}
			seen[e.OID] = true
			ids = append(ids, e.OID)
		}
		return nil
	}

	var walkCommit func(id oid.OID) error
	walkCommit = func(id oid.OID) error {
		if seen[id] || id.IsZero() {
			return nil
		}
		seen[id] = true
		ids = append(ids, id)
		commit, err := store.DecodeCommit(ctx, id)
		if err != nil {
			return err
		}
		if err := walkTree(commit.Tree); err != nil {
			return err
		}
		for _, parent := range commit.Parents {
			if err := walkCommit(parent); err != nil {
				return err
			}
		}
		return nil
	}

	if !start.IsZero() {
		if err := walkCommit(start); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

type Unpack struct {
	Input string `arg:"" name:"input" help:"Pack file to read"`
}

func (u *Unpack) Run(g *Globals) error {
	r, err := openRepo(g)
	if err != nil {
		die("unpack: %v", err)
		return err
	}
	defer r.Close()
	ctx := context.Background()

	f, err := os.Open(u.Input)
	if err != nil {
		die("unpack: %v", err)
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		die("unpack: %v", err)
		return err
	}

	rd, err := pack.Open(f, info.Size())
	if err != nil {
		die("unpack: %v", err)
		return err
	}
	if err := rd.VerifyChecksum(); err != nil {
		die("unpack: %v", err)
		return err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		die("unpack: %v", err)
		return err
	}

	// Resolve delta bases out of the ODB: any base an incoming pack
	// references must already have been unpacked (or must already live
	// in this repository), since the stream is read in write order.
	resolve := func(id oid.OID) ([]byte, error) {
		_, raw, err := r.ODB.Read(ctx, id)
		return raw, err
	}
	sr, err := pack.NewStreamReader(f, resolve)
	if err != nil {
		die("unpack: %v", err)
		return err
	}

	var count int
	for {
		_, typ, raw, err := sr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			die("unpack: %v", err)
			return err
		}
		if _, err := r.ODB.Write(ctx, typ, raw, ""); err != nil {
			die("unpack: %v", err)
			return err
		}
		count++
	}
	fmt.Printf("%d objects unpacked\n", count)
	return nil
}
