// Package checkout implements the working-tree manager (C13): materializing
// an object.Tree onto the filesystem, in full (replacing whatever was
// there) or as an overlay (applying on top without removing untouched
// paths).
//
// Grounded on pkg/zeta/worktree.go's checkoutFile/checkoutSymlink: the
// mode-to-OS-mode translation and the symlink special case (read the
// blob, treat its content as the link target) come straight from there.
// The write discipline does not: checkoutFile truncates the destination
// in place and only removes it on error, which can leave a half-written
// file visible to a concurrent reader if the process dies mid-write. This
// package writes every regular file through a temp-file-then-rename swap
// instead, matching the atomic-write convention already used by
// internal/refs, internal/reflog, and internal/stage in this module.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/winnyboy5/mediagit-core-sub002/internal/object"
	"github.com/winnyboy5/mediagit-core-sub002/internal/oid"
)

// ObjectReader is the subset of *odb.ODB a checkout needs: fetching a
// blob or tree's decoded bytes by OID.
type ObjectReader interface {
	Read(ctx context.Context, id oid.OID) (object.Type, []byte, error)
}

// Manager materializes trees onto a working directory rooted at Root.
type Manager struct {
	root string
	odb  ObjectReader
}

// New returns a Manager that writes under root, reading blobs and
// subtrees from odb.
func New(root string, odb ObjectReader) *Manager {
	return &Manager{root: root, odb: odb}
}

// planEntry is one resolved (relative path -> blob) mapping produced by
// walking a tree depth-first.
type planEntry struct {
	path string
	mode object.FileMode
	oid  oid.OID
}

// walk depth-first resolves root's subtrees into a flat list of blob/
// symlink entries, in tree order (directories are not emitted, only the
// leaves they contain).
func (m *Manager) walk(ctx context.Context, prefix string, treeOID oid.OID, out *[]planEntry) error {
	typ, raw, err := m.odb.Read(ctx, treeOID)
	if err != nil {
		return fmt.Errorf("checkout: reading tree %s: %w", treeOID, err)
	}
	if typ != object.TypeTree {
		return fmt.Errorf("checkout: %s is not a tree (type %s)", treeOID, typ)
	}
	var tree object.Tree
	if err := tree.Decode(byteReader(raw)); err != nil {
		return fmt.Errorf("checkout: decoding tree %s: %w", treeOID, err)
	}
	for _, e := range tree.Entries {
		p := e.Name
		if prefix != "" {
			p = prefix + "/" + e.Name
		}
		if e.Mode.IsDir() {
			if err := m.walk(ctx, p, e.OID, out); err != nil {
				return err
			}
			continue
		}
		*out = append(*out, planEntry{path: p, mode: e.Mode, oid: e.OID})
	}
	return nil
}

// Full materializes treeOID onto the working directory, removing any
// regular file or symlink present on disk that treeOID does not name,
// except paths beginning with "." (such as the repository metadata
// directory). Empty directories outside those paths are then pruned.
func (m *Manager) Full(ctx context.Context, treeOID oid.OID) error {
	var entries []planEntry
	if err := m.walk(ctx, "", treeOID, &entries); err != nil {
		return err
	}

	wanted := make(map[string]bool, len(entries))
	for _, e := range entries {
		wanted[filepath.FromSlash(e.path)] = true
	}
	if err := m.removeUnwanted(wanted); err != nil {
		return err
	}
	for _, e := range entries {
		if err := m.writeEntry(ctx, e); err != nil {
			return err
		}
	}
	return m.pruneEmptyDirs()
}

// Overlay applies treeOID on top of the working directory: every path it
// names is written (or overwritten), but paths it does not name are left
// untouched.
func (m *Manager) Overlay(ctx context.Context, treeOID oid.OID) error {
	var entries []planEntry
	if err := m.walk(ctx, "", treeOID, &entries); err != nil {
		return err
	}
	for _, e := range entries {
		if err := m.writeEntry(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// WriteRaw installs content directly at path (relative to Root) without
// consulting the ODB, through the same temp-file-then-rename write used
// for ordinary blobs. It exists for callers — the sequencer's conflict-
// marker writer, most notably — that need to materialize bytes that
// were synthesized in memory rather than decoded from an object.
func (m *Manager) WriteRaw(path string, content []byte, mode object.FileMode) error {
	dest := filepath.Join(m.root, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("checkout: creating parent of %s: %w", path, err)
	}
	return writeRegular(dest, content, osPerm(mode))
}

// removeUnwanted deletes every regular file/symlink under m.root not
// present in wanted (keyed by OS-native relative path).
func (m *Manager) removeUnwanted(wanted map[string]bool) error {
	return filepath.WalkDir(m.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if path == m.root || d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(m.root, path)
		if err != nil {
			return err
		}
		if strings.HasPrefix(rel, ".") {
			return nil
		}
		if !wanted[rel] {
			return os.Remove(path)
		}
		return nil
	})
}

// pruneEmptyDirs removes every empty directory under m.root, deepest
// first, skipping dot-prefixed paths just as removeUnwanted does.
func (m *Manager) pruneEmptyDirs() error {
	var dirs []string
	err := filepath.WalkDir(m.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() && path != m.root {
			rel, err := filepath.Rel(m.root, path)
			if err != nil {
				return err
			}
			if strings.HasPrefix(rel, ".") {
				return filepath.SkipDir
			}
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		return err
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dirs)))
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
		if len(entries) == 0 {
			if err := os.Remove(dir); err != nil {
				return err
			}
		}
	}
	return nil
}
