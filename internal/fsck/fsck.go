// Package fsck implements the integrity checker (C17): an object-hash
// verification walk, a ref-resolution walk, and an optional connectivity
// pass that classifies objects as reachable, reachable-but-missing, or
// dangling.
//
// No single file in the corpus implements this outright; it is built by
// composing the read paths internal/odb, internal/refs, and
// internal/object already provide, the same way the teacher's own `zeta
// fsck` command (referenced only in passing, at
// modules/zeta/object/tree.go's fsck.c link) is a thin driver over its
// object/ref layers rather than a standalone algorithm.
package fsck

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/winnyboy5/mediagit-core-sub002/internal/object"
	"github.com/winnyboy5/mediagit-core-sub002/internal/oid"
	"github.com/winnyboy5/mediagit-core-sub002/internal/refs"
)

// Kind classifies one fsck finding.
type Kind int

const (
	// CorruptObject is stored bytes that do not hash to their key.
	CorruptObject Kind = iota
	// UnreadableObject is a key that exists but could not be decoded at all.
	UnreadableObject
	// BrokenRef is a reference whose resolution chain fails.
	BrokenRef
	// MissingReachable is an object reachable from some ref that is not
	// present in the store — always an error.
	MissingReachable
	// Dangling is a present object unreachable from any ref — informational,
	// since pruning it is out of scope.
	Dangling
)

func (k Kind) String() string {
	switch k {
	case CorruptObject:
		return "corrupt-object"
	case UnreadableObject:
		return "unreadable-object"
	case BrokenRef:
		return "broken-ref"
	case MissingReachable:
		return "missing-reachable"
	case Dangling:
		return "dangling"
	default:
		return "unknown"
	}
}

// Issue is one fsck finding.
type Issue struct {
	Kind   Kind
	OID    oid.OID
	Ref    refs.Name
	Detail string
}

func (i Issue) String() string {
	switch {
	case i.Ref != "":
		return fmt.Sprintf("%s: %s: %s", i.Kind, i.Ref, i.Detail)
	default:
		return fmt.Sprintf("%s: %s: %s", i.Kind, i.OID, i.Detail)
	}
}

// ObjectStore is the read surface fsck needs from the object database.
type ObjectStore interface {
	Exists(ctx context.Context, id oid.OID) (bool, error)
	Read(ctx context.Context, id oid.OID) (object.Type, []byte, error)
	DecodeCommit(ctx context.Context, id oid.OID) (*object.Commit, error)
	DecodeTree(ctx context.Context, id oid.OID) (*object.Tree, error)
}

// Lister is the backend capability fsck needs to enumerate every stored
// object key directly (bypassing the ODB's cache/delta reconstruction, so
// a corrupt on-disk file is actually exercised).
type Lister interface {
	List(ctx context.Context, prefix string) ([]string, error)
}

// Checker runs integrity checks against one repository's object store and
// reference database.
type Checker struct {
	store   ObjectStore
	backend Lister
	refs    refs.Store
}

// New returns a Checker over store (for decoding/hash-verifying objects),
// backend (for enumerating every stored key independent of the ODB's
// cache), and refStore (for walking and resolving references).
func New(store ObjectStore, backend Lister, refStore refs.Store) *Checker {
	return &Checker{store: store, backend: backend, refs: refStore}
}

// keyToOID reverses oid.OID.ShardedPath: "aa/bbbb..." -> the full hex OID.
func keyToOID(key string) (oid.OID, error) {
	return oid.Parse(strings.ReplaceAll(key, "/", ""))
}

// CheckObjects walks every stored object key and verifies that reading it
// through the ODB yields bytes whose content hash equals the key.
func (c *Checker) CheckObjects(ctx context.Context) ([]Issue, error) {
	keys, err := c.backend.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("fsck: listing objects: %w", err)
	}
	var issues []Issue
	for _, key := range keys {
		if strings.HasSuffix(key, ".lock") || strings.Contains(filepathBase(key), ".tmp-") {
			continue
		}
		id, err := keyToOID(key)
		if err != nil {
			issues = append(issues, Issue{Kind: UnreadableObject, Detail: fmt.Sprintf("key %q is not a valid object path: %v", key, err)})
			continue
		}
		_, raw, err := c.store.Read(ctx, id)
		if err != nil {
			issues = append(issues, Issue{Kind: UnreadableObject, OID: id, Detail: err.Error()})
			continue
		}
		if got := oid.FromBytes(raw); got != id {
			issues = append(issues, Issue{Kind: CorruptObject, OID: id, Detail: fmt.Sprintf("payload hashes to %s", got)})
		}
	}
	return issues, nil
}

func filepathBase(key string) string {
	if i := strings.LastIndexByte(key, '/'); i >= 0 {
		return key[i+1:]
	}
	return key
}

// CheckRefs walks every reference (all of refs/ plus HEAD) and verifies
// its resolution chain terminates at a Direct reference.
func (c *Checker) CheckRefs(ctx context.Context) ([]Issue, error) {
	var issues []Issue
	names, err := c.refNames()
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		if _, err := c.refs.Resolve(name); err != nil {
			issues = append(issues, Issue{Kind: BrokenRef, Ref: name, Detail: err.Error()})
		}
	}
	return issues, nil
}

func (c *Checker) refNames() ([]refs.Name, error) {
	var names []refs.Name
	if _, err := c.refs.Get(refs.HEAD); err == nil {
		names = append(names, refs.HEAD)
	} else if !errors.Is(err, refs.ErrNotFound) {
		return nil, err
	}
	list, err := c.refs.List("refs")
	if err != nil {
		return nil, fmt.Errorf("fsck: listing refs: %w", err)
	}
	for _, r := range list {
		names = append(names, r.Name())
	}
	return names, nil
}

// ConnectivityReport is the result of CheckConnectivity.
type ConnectivityReport struct {
	Issues    []Issue
	Reachable map[oid.OID]bool
}

// CheckConnectivity traverses, from every resolvable ref tip, commit ->
// parents and commit -> tree -> entries, recording every reached OID.
// Objects reachable but missing from the store are reported as errors;
// stored objects never reached from any ref are reported as Dangling
// (informational only — pruning them is out of scope).
func (c *Checker) CheckConnectivity(ctx context.Context) (*ConnectivityReport, error) {
	report := &ConnectivityReport{Reachable: map[oid.OID]bool{}}
	names, err := c.refNames()
	if err != nil {
		return nil, err
	}

	visitedCommits := map[oid.OID]bool{}
	for _, name := range names {
		ref, err := c.refs.Resolve(name)
		if err != nil {
			continue // already reported by CheckRefs
		}
		if err := c.walkCommit(ctx, ref.OID(), visitedCommits, report); err != nil {
			return nil, err
		}
	}

	keys, err := c.backend.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("fsck: listing objects: %w", err)
	}
	present := make(map[oid.OID]bool, len(keys))
	for _, key := range keys {
		id, err := keyToOID(key)
		if err != nil {
			continue
		}
		present[id] = true
		if !report.Reachable[id] {
			report.Issues = append(report.Issues, Issue{Kind: Dangling, OID: id, Detail: "not reachable from any ref"})
		}
	}
	reported := map[oid.OID]bool{}
	for _, issue := range report.Issues {
		if issue.Kind == MissingReachable {
			reported[issue.OID] = true
		}
	}
	for id := range report.Reachable {
		if !present[id] && !reported[id] {
			report.Issues = append(report.Issues, Issue{Kind: MissingReachable, OID: id, Detail: "reachable object missing from store"})
		}
	}
	sort.Slice(report.Issues, func(i, j int) bool { return report.Issues[i].OID.Less(report.Issues[j].OID) })
	return report, nil
}

func (c *Checker) walkCommit(ctx context.Context, id oid.OID, visited map[oid.OID]bool, report *ConnectivityReport) error {
	if visited[id] {
		return nil
	}
	visited[id] = true
	report.Reachable[id] = true

	commit, err := c.store.DecodeCommit(ctx, id)
	if err != nil {
		report.Issues = append(report.Issues, Issue{Kind: MissingReachable, OID: id, Detail: fmt.Sprintf("reachable commit unreadable: %v", err)})
		return nil
	}
	if err := c.walkTree(ctx, commit.Tree, report); err != nil {
		return err
	}
	for _, parent := range commit.Parents {
		if err := c.walkCommit(ctx, parent, visited, report); err != nil {
			return err
		}
	}
	return nil
}

func (c *Checker) walkTree(ctx context.Context, id oid.OID, report *ConnectivityReport) error {
	if report.Reachable[id] {
		return nil
	}
	report.Reachable[id] = true

	tree, err := c.store.DecodeTree(ctx, id)
	if err != nil {
		report.Issues = append(report.Issues, Issue{Kind: MissingReachable, OID: id, Detail: fmt.Sprintf("reachable tree unreadable: %v", err)})
		return nil
	}
	for _, entry := range tree.Entries {
		if entry.Mode.IsDir() {
			if err := c.walkTree(ctx, entry.OID, report); err != nil {
				return err
			}
			continue
		}
		if report.Reachable[entry.OID] {
			continue
		}
		report.Reachable[entry.OID] = true
		if exists, err := c.store.Exists(ctx, entry.OID); err != nil {
			return err
		} else if !exists {
			report.Issues = append(report.Issues, Issue{Kind: MissingReachable, OID: entry.OID, Detail: "reachable blob missing from store"})
		}
	}
	return nil
}

// Repair removes every broken reference found in issues, returning the
// names actually removed. Pruning dangling objects is explicitly out of
// scope per the specification.
func (c *Checker) Repair(ctx context.Context, issues []Issue) ([]refs.Name, error) {
	var removed []refs.Name
	for _, issue := range issues {
		if issue.Kind != BrokenRef {
			continue
		}
		if err := c.refs.Delete(issue.Ref); err != nil {
			return removed, fmt.Errorf("fsck: removing broken ref %s: %w", issue.Ref, err)
		}
		removed = append(removed, issue.Ref)
	}
	return removed, nil
}
