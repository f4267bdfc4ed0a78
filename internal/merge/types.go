// Package merge implements the merge engine (C15): fast-forward
// detection and a three-way tree merge over the outcome table in the
// specification, plus Recursive/Ours/Theirs conflict-resolution
// strategies.
//
// Grounded on pkg/zeta/odb/merge.go's shape — ConflictEntry{Path, Mode,
// Hash}, a Conflict record carrying ancestor/our/their sides plus a
// kind, and a ChangeEntry.hasConflict rule of
// "!(ancestor==our || ancestor==their || our==their)" — but not its
// line-for-line content: the teacher's version is built on an unported
// merkletrie diff-tree/noder engine and adds rename detection and
// directory-rename heuristics that the specification explicitly leaves
// out of scope for this engine. This package instead flattens trees to
// path maps directly via internal/object.Tree and rebuilds the merged
// tree bottom-up, keeping only the conflict kinds the spec's outcome
// table names.
package merge

import (
	"github.com/winnyboy5/mediagit-core-sub002/internal/object"
	"github.com/winnyboy5/mediagit-core-sub002/internal/oid"
)

// Strategy selects how content conflicts are resolved.
type Strategy int

const (
	// Recursive surfaces every conflict in the outcome table.
	Recursive Strategy = iota
	// Ours silently resolves every content conflict to our side.
	Ours
	// Theirs silently resolves every content conflict to their side.
	Theirs
)

// ConflictKind discriminates why a path could not be merged
// automatically.
type ConflictKind int

const (
	// BothModified: base, our, and their all differ from one another.
	BothModified ConflictKind = iota
	// DeletedByUs: their side modified a path we deleted.
	DeletedByUs
	// DeletedByThem: our side modified a path they deleted.
	DeletedByThem
	// AddAddDifferent: both sides added the path with different content.
	AddAddDifferent
	// ModeConflict: content agrees but file mode diverges irreconcilably.
	ModeConflict
	// FileDirectory: one side has a file where the other has a directory
	// at the same path.
	FileDirectory
)

func (k ConflictKind) String() string {
	switch k {
	case BothModified:
		return "both-modified"
	case DeletedByUs:
		return "deleted-by-us"
	case DeletedByThem:
		return "deleted-by-them"
	case AddAddDifferent:
		return "add-add-different"
	case ModeConflict:
		return "mode-conflict"
	case FileDirectory:
		return "file-directory"
	default:
		return "unknown"
	}
}

// Side is a snapshot of one path's state on one side of the merge (base,
// ours, or theirs). A nil *Side means the path is absent on that side.
type Side struct {
	Mode object.FileMode
	OID  oid.OID
}

// Conflict describes one path the engine could not resolve
// automatically.
type Conflict struct {
	Path   string
	Kind   ConflictKind
	Base   *Side
	Ours   *Side
	Theirs *Side
}

// FastForward describes a merge resolved without a three-way diff
// because one side is already an ancestor of the other.
type FastForward struct {
	From oid.OID
	To   oid.OID
	IsFF bool
}

// Result is the outcome of a merge attempt. Exactly one of FastForward
// or (TreeOID, Conflicts) is meaningful: a fast-forward result has no
// tree or conflicts of its own.
type Result struct {
	FastForward *FastForward
	TreeOID     *oid.OID
	Conflicts   []Conflict
	Strategy    Strategy
}

// Conflicted reports whether r represents a failed (non-fast-forward)
// merge.
func (r *Result) Conflicted() bool {
	return r.FastForward == nil && len(r.Conflicts) > 0
}
