// Package refs implements the reference database (C10): named pointers
// to commits (direct references) or to other references (symbolic
// references, most importantly HEAD), backed by one file per reference
// under the repository's refs/ tree.
//
// Grounded on modules/zeta/refs/{references,filesystem}.go: the same
// direct/symbolic split, the same "ref: <target>\n" symbolic-reference
// file format, and the same lock-file (O_CREATE|O_EXCL) + atomic-rename
// CAS update discipline. Packed-refs support is dropped: the
// specification's on-disk layout is one file per reference, with no
// compaction format.
package refs

import (
	"errors"
	"fmt"
	"strings"

	"github.com/winnyboy5/mediagit-core-sub002/internal/oid"
)

const symrefPrefix = "ref: "

// Name identifies a reference by its full path, e.g. "refs/heads/main".
type Name string

// HEAD is the name of the reference that tracks the current checkout.
const HEAD Name = "HEAD"

const (
	headsPrefix   = "refs/heads/"
	tagsPrefix    = "refs/tags/"
	remotesPrefix = "refs/remotes/"
)

// Branch returns the reference name for a branch's short name.
func Branch(short string) Name { return Name(headsPrefix + short) }

// Tag returns the reference name for a tag's short name.
func Tag(short string) Name { return Name(tagsPrefix + short) }

// RemoteBranch returns the reference name for a remote-tracking branch.
func RemoteBranch(remote, short string) Name { return Name(remotesPrefix + remote + "/" + short) }

// IsBranch reports whether n names a local branch.
func (n Name) IsBranch() bool { return strings.HasPrefix(string(n), headsPrefix) }

// IsTag reports whether n names a tag.
func (n Name) IsTag() bool { return strings.HasPrefix(string(n), tagsPrefix) }

// IsRemote reports whether n names a remote-tracking branch.
func (n Name) IsRemote() bool { return strings.HasPrefix(string(n), remotesPrefix) }

// Short strips the well-known prefix (refs/heads/, refs/tags/,
// refs/remotes/) from n, or returns n unchanged if none matches.
func (n Name) Short() string {
	switch {
	case n.IsBranch():
		return strings.TrimPrefix(string(n), headsPrefix)
	case n.IsTag():
		return strings.TrimPrefix(string(n), tagsPrefix)
	case n.IsRemote():
		return strings.TrimPrefix(string(n), remotesPrefix)
	default:
		return string(n)
	}
}

func (n Name) String() string { return string(n) }

// Kind distinguishes the two forms a Reference can take.
type Kind int8

const (
	// Direct references point straight at an object OID.
	Direct Kind = iota + 1
	// Symbolic references point at another reference by name.
	Symbolic
)

// ErrNotFound is returned when a reference does not exist.
var ErrNotFound = errors.New("refs: reference not found")

// ErrChanged is returned by Update when the reference's current value did
// not match the expected old value (compare-and-swap failure).
var ErrChanged = errors.New("refs: reference changed concurrently")

// ErrBadFormat is returned when a reference file's content can't be
// parsed as either a hex OID or a "ref: <name>" symref line.
var ErrBadFormat = errors.New("refs: malformed reference content")

// Reference is a named pointer: either directly at an OID, or
// symbolically at another reference name.
type Reference struct {
	kind   Kind
	name   Name
	target oid.OID
	ref    Name
}

// NewDirect returns a Reference named name pointing directly at target.
func NewDirect(name Name, target oid.OID) Reference {
	return Reference{kind: Direct, name: name, target: target}
}

// NewSymbolic returns a Reference named name pointing at another
// reference named target.
func NewSymbolic(name, target Name) Reference {
	return Reference{kind: Symbolic, name: name, ref: target}
}

// Parse decodes a reference file's trimmed content for the reference
// named name.
func Parse(name Name, content string) (Reference, error) {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, symrefPrefix) {
		return NewSymbolic(name, Name(content[len(symrefPrefix):])), nil
	}
	id, err := oid.Parse(content)
	if err != nil {
		return Reference{}, fmt.Errorf("%w: %q", ErrBadFormat, content)
	}
	return NewDirect(name, id), nil
}

// Kind returns whether r is Direct or Symbolic.
func (r Reference) Kind() Kind { return r.kind }

// Name returns r's own name.
func (r Reference) Name() Name { return r.name }

// OID returns the target OID of a Direct reference; it is the zero OID
// for a Symbolic one.
func (r Reference) OID() oid.OID { return r.target }

// Target returns the target reference name of a Symbolic reference; it is
// empty for a Direct one.
func (r Reference) Target() Name { return r.ref }

// Content renders r's on-disk file body (without the reference's own name).
func (r Reference) Content() string {
	switch r.kind {
	case Symbolic:
		return symrefPrefix + string(r.ref) + "\n"
	default:
		return r.target.String() + "\n"
	}
}
