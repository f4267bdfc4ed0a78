package cli

import (
	"errors"
	"fmt"

	"github.com/winnyboy5/mediagit-core-sub002/internal/oid"
	"github.com/winnyboy5/mediagit-core-sub002/internal/refs"
	"github.com/winnyboy5/mediagit-core-sub002/internal/repo"
)

// resolveCommitish resolves name as a branch, then a tag, then a raw
// object id, matching the order git's own revision-parsing machinery
// tries local refs before falling back to a literal hash.
func resolveCommitish(r *repo.Repository, name string) (oid.OID, error) {
	if ref, err := r.Refs.Resolve(refs.Branch(name)); err == nil {
		return ref.OID(), nil
	}
	if ref, err := r.Refs.Resolve(refs.Tag(name)); err == nil {
		return ref.OID(), nil
	}
	if id, err := oid.Parse(name); err == nil {
		return id, nil
	}
	return oid.OID{}, fmt.Errorf("mediagit: %q does not resolve to a branch, tag, or object id", name)
}

var errDetachedHead = errors.New("mediagit: HEAD is detached")
