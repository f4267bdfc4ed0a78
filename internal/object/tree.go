package object

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/winnyboy5/mediagit-core-sub002/internal/oid"
)

// FileMode enumerates the kinds of directory entry a Tree can hold.
type FileMode uint32

const (
	ModeRegular    FileMode = 0o100644
	ModeExecutable FileMode = 0o100755
	ModeSymlink    FileMode = 0o120000
	ModeDir        FileMode = 0o040000
)

// IsDir reports whether m names a subtree.
func (m FileMode) IsDir() bool { return m == ModeDir }

// TreeEntry is one (name → {mode, child OID}) mapping within a Tree.
type TreeEntry struct {
	Name string
	Mode FileMode
	OID  oid.OID
}

// ErrEmptyName is returned when a tree entry's name is empty or contains
// a path separator.
var ErrEmptyName = errors.New("object: tree entry name must be non-empty and contain no '/'")

// ErrEntryNotFound is returned when looking up a name not present in the
// tree.
var ErrEntryNotFound = errors.New("object: tree entry not found")

// Tree is a directory snapshot: entries are always kept in ascending
// "subtree order" — the same order git uses, where directory names sort
// as though they had a trailing '/', so two semantically equal trees
// serialize (and therefore hash) identically regardless of insertion
// order.
type Tree struct {
	Entries []TreeEntry
}

// sortKey returns the name used for ordering comparisons: directories
// get a trailing separator appended so "foo" (a blob) sorts before
// "foo/" (treated as if it were "foo/bar" for ordering purposes), mirroring
// git's subtree ordering rule.
func sortKey(e TreeEntry) string {
	if e.Mode.IsDir() {
		return e.Name + "/"
	}
	return e.Name
}

// Add inserts or replaces an entry, keeping Entries in canonical order.
func (t *Tree) Add(e TreeEntry) error {
	if e.Name == "" || strings.ContainsRune(e.Name, '/') {
		return ErrEmptyName
	}
	key := sortKey(e)
	i := sort.Search(len(t.Entries), func(i int) bool {
		return sortKey(t.Entries[i]) >= key
	})
	if i < len(t.Entries) && t.Entries[i].Name == e.Name {
		t.Entries[i] = e
		return nil
	}
	t.Entries = append(t.Entries, TreeEntry{})
	copy(t.Entries[i+1:], t.Entries[i:])
	t.Entries[i] = e
	return nil
}

// Find returns the entry named name, or ErrEntryNotFound.
func (t *Tree) Find(name string) (TreeEntry, error) {
	for _, e := range t.Entries {
		if e.Name == name {
			return e, nil
		}
	}
	return TreeEntry{}, ErrEntryNotFound
}

// Encode writes the tree's canonical serialized form: one line per entry,
// "<mode-octal> <name>\0<oid-bytes>", entries kept sorted by Add.
func (t *Tree) Encode(w io.Writer) error {
	for _, e := range t.Entries {
		if _, err := fmt.Fprintf(w, "%o %s\x00", uint32(e.Mode), e.Name); err != nil {
			return err
		}
		if _, err := w.Write(e.OID[:]); err != nil {
			return err
		}
	}
	return nil
}

// Decode reads a tree previously written by Encode.
func (t *Tree) Decode(r io.Reader) error {
	br := bufio.NewReader(r)
	t.Entries = nil
	for {
		modeField, err := br.ReadString(' ')
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		modeField = strings.TrimSuffix(modeField, " ")
		mode, err := strconv.ParseUint(modeField, 8, 32)
		if err != nil {
			return fmt.Errorf("object: bad tree mode %q: %w", modeField, err)
		}
		name, err := br.ReadString(0)
		if err != nil {
			return err
		}
		name = strings.TrimSuffix(name, "\x00")
		var id oid.OID
		if _, err := io.ReadFull(br, id[:]); err != nil {
			return err
		}
		t.Entries = append(t.Entries, TreeEntry{Name: name, Mode: FileMode(mode), OID: id})
	}
}

// Bytes returns the tree's canonical serialized form.
func (t *Tree) Bytes() []byte {
	var buf bytes.Buffer
	_ = t.Encode(&buf)
	return buf.Bytes()
}

// Clone returns a deep copy of t.
func (t *Tree) Clone() *Tree {
	out := &Tree{Entries: make([]TreeEntry, len(t.Entries))}
	copy(out.Entries, t.Entries)
	return out
}
