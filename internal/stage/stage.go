// Package stage implements the staging area / index (C12): the sorted
// set of (path, oid, mode, flags) tuples describing what the next commit
// will contain, independent of both HEAD and the working tree.
//
// Grounded on modules/plumbing/format/index (only its tests were
// retrieved, giving the shape of an Entry carrying a name, hash, mode and
// per-entry stage/flags value) and pkg/zeta/odb/index.go's
// load-or-default / encode-via-bufio-writer wrapper. The on-disk framing
// here is the specification's own flat binary layout rather than the
// teacher's richer multi-version index format (timestamps, dev/inode,
// cache tree): C12 only requires path/oid/mode/flags.
package stage

import (
	"fmt"
	"sort"

	"github.com/winnyboy5/mediagit-core-sub002/internal/object"
	"github.com/winnyboy5/mediagit-core-sub002/internal/oid"
)

// Flag is an opaque per-entry bitset.
type Flag uint32

const (
	// FlagConflict marks a path left with unresolved merge conflict
	// content; the sequencer and merge engine set and clear this.
	FlagConflict Flag = 1 << iota
)

// Entry is one staged path.
type Entry struct {
	Path  string
	OID   oid.OID
	Mode  object.FileMode
	Flags Flag
}

// HasConflict reports whether e is marked as an unresolved conflict.
func (e Entry) HasConflict() bool { return e.Flags&FlagConflict != 0 }

// Stage is the sorted set of staged entries, always kept ordered
// ascending by Path so serialization is deterministic.
type Stage struct {
	entries []Entry
}

// New returns an empty Stage.
func New() *Stage {
	return &Stage{}
}

// Add inserts or replaces the entry for e.Path.
func (s *Stage) Add(e Entry) {
	i := sort.Search(len(s.entries), func(i int) bool { return s.entries[i].Path >= e.Path })
	if i < len(s.entries) && s.entries[i].Path == e.Path {
		s.entries[i] = e
		return
	}
	s.entries = append(s.entries, Entry{})
	copy(s.entries[i+1:], s.entries[i:])
	s.entries[i] = e
}

// Remove deletes the entry for path, if present.
func (s *Stage) Remove(path string) {
	i := sort.Search(len(s.entries), func(i int) bool { return s.entries[i].Path >= path })
	if i < len(s.entries) && s.entries[i].Path == path {
		s.entries = append(s.entries[:i], s.entries[i+1:]...)
	}
}

// Get returns the entry for path, if present.
func (s *Stage) Get(path string) (Entry, bool) {
	i := sort.Search(len(s.entries), func(i int) bool { return s.entries[i].Path >= path })
	if i < len(s.entries) && s.entries[i].Path == path {
		return s.entries[i], true
	}
	return Entry{}, false
}

// Entries returns every staged entry, ascending by path.
func (s *Stage) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Conflicts returns every entry with FlagConflict set.
func (s *Stage) Conflicts() []Entry {
	var out []Entry
	for _, e := range s.entries {
		if e.HasConflict() {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of staged entries.
func (s *Stage) Len() int { return len(s.entries) }

// Clear empties the stage, as happens after a commit absorbs it.
func (s *Stage) Clear() {
	s.entries = s.entries[:0]
}

// String is a debugging aid, not used for persistence.
func (s *Stage) String() string {
	return fmt.Sprintf("stage(%d entries)", len(s.entries))
}
