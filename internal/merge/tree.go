package merge

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/winnyboy5/mediagit-core-sub002/internal/object"
	"github.com/winnyboy5/mediagit-core-sub002/internal/oid"
)

// TreeReader is the subset of *odb.ODB a tree flatten/rebuild needs.
type TreeReader interface {
	DecodeTree(ctx context.Context, id oid.OID) (*object.Tree, error)
}

// TreeWriter additionally allows writing the freshly built subtrees a
// merge produces.
type TreeWriter interface {
	TreeReader
	Write(ctx context.Context, typ object.Type, raw []byte, filename string) (oid.OID, error)
}

// flatten walks treeOID depth-first, returning a map from full slash-path
// to its leaf entry (blobs and symlinks only; directories are implicit).
// A zero treeOID (the "absent" sentinel) flattens to an empty map.
func flatten(ctx context.Context, r TreeReader, treeOID oid.OID) (map[string]object.TreeEntry, error) {
	out := map[string]object.TreeEntry{}
	if treeOID.IsZero() {
		return out, nil
	}
	if err := flattenInto(ctx, r, "", treeOID, out); err != nil {
		return nil, err
	}
	return out, nil
}

func flattenInto(ctx context.Context, r TreeReader, prefix string, treeOID oid.OID, out map[string]object.TreeEntry) error {
	tree, err := r.DecodeTree(ctx, treeOID)
	if err != nil {
		return fmt.Errorf("merge: reading tree %s: %w", treeOID, err)
	}
	for _, e := range tree.Entries {
		p := e.Name
		if prefix != "" {
			p = prefix + "/" + e.Name
		}
		if e.Mode.IsDir() {
			if err := flattenInto(ctx, r, p, e.OID, out); err != nil {
				return err
			}
			continue
		}
		out[p] = object.TreeEntry{Name: p, Mode: e.Mode, OID: e.OID}
	}
	return nil
}

// dirsOf returns the set of directory paths implied by a flattened path
// map (every proper ancestor directory of every file path).
func dirsOf(flat map[string]object.TreeEntry) map[string]bool {
	dirs := map[string]bool{}
	for p := range flat {
		for {
			i := strings.LastIndexByte(p, '/')
			if i < 0 {
				break
			}
			p = p[:i]
			if dirs[p] {
				break
			}
			dirs[p] = true
		}
	}
	return dirs
}

// buildTree reconstructs a nested Tree from a flattened (full-path ->
// entry) map, writing every subtree it creates via w and returning the
// OID of the root. An empty flat map yields an empty tree's OID.
func buildTree(ctx context.Context, w TreeWriter, flat map[string]object.TreeEntry) (oid.OID, error) {
	return buildSubtree(ctx, w, "", flat)
}

func buildSubtree(ctx context.Context, w TreeWriter, prefix string, flat map[string]object.TreeEntry) (oid.OID, error) {
	children := map[string]object.TreeEntry{}   // direct file children, keyed by name
	subdirs := map[string]map[string]object.TreeEntry{} // direct dir children, keyed by name, re-prefixed

	for p, e := range flat {
		rel := p
		if prefix != "" {
			if !strings.HasPrefix(p, prefix+"/") {
				continue
			}
			rel = p[len(prefix)+1:]
		}
		if i := strings.IndexByte(rel, '/'); i >= 0 {
			name := rel[:i]
			childPath := rel[i+1:]
			fullChildPath := name
			if prefix != "" {
				fullChildPath = prefix + "/" + name
			}
			if subdirs[name] == nil {
				subdirs[name] = map[string]object.TreeEntry{}
			}
			subdirs[name][joinPrefixed(fullChildPath, childPath)] = e
			continue
		}
		children[rel] = e
	}

	tree := &object.Tree{}
	for name, e := range children {
		if err := tree.Add(object.TreeEntry{Name: name, Mode: e.Mode, OID: e.OID}); err != nil {
			return oid.OID{}, err
		}
	}
	for name, subFlat := range subdirs {
		fullChildPath := name
		if prefix != "" {
			fullChildPath = prefix + "/" + name
		}
		sub, err := buildSubtree(ctx, w, fullChildPath, reindex(subFlat))
		if err != nil {
			return oid.OID{}, err
		}
		if err := tree.Add(object.TreeEntry{Name: name, Mode: object.ModeDir, OID: sub}); err != nil {
			return oid.OID{}, err
		}
	}

	raw := tree.Bytes()
	id, err := w.Write(ctx, object.TypeTree, raw, "")
	if err != nil {
		return oid.OID{}, fmt.Errorf("merge: writing tree under %q: %w", prefix, err)
	}
	return id, nil
}

// Flatten exposes flatten for callers outside this package that need a
// full-path -> entry view of a tree, e.g. the CLI's status/diff commands.
func Flatten(ctx context.Context, r TreeReader, treeOID oid.OID) (map[string]object.TreeEntry, error) {
	return flatten(ctx, r, treeOID)
}

// BuildTree exposes buildTree for callers outside this package that need
// to construct a tree object from a flat path -> entry map, e.g. the
// CLI's commit command building a tree from the staging area.
func BuildTree(ctx context.Context, w TreeWriter, flat map[string]object.TreeEntry) (oid.OID, error) {
	return buildTree(ctx, w, flat)
}

// joinPrefixed reconstructs the full path for an entry one level below
// where it was keyed, so buildSubtree's recursive call sees full paths
// again (flat maps are always keyed by full path from the root).
func joinPrefixed(fullChildDir, rest string) string {
	if rest == "" {
		return fullChildDir
	}
	return fullChildDir + "/" + rest
}

func reindex(m map[string]object.TreeEntry) map[string]object.TreeEntry {
	return m
}

// sortedPaths returns keys sorted ascending, for deterministic iteration
// order when building the union of paths across three flattened trees.
func sortedPaths(sets ...map[string]object.TreeEntry) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range sets {
		for p := range s {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	sort.Strings(out)
	return out
}
