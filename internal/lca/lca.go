// Package lca finds lowest common ancestors in a commit DAG (C14).
//
// No example repo in the retrieval pack implements this directly, so the
// algorithm is built fresh from the specification: bidirectional BFS
// from both commits, marking which side(s) have reached a node, with a
// node becoming an LCA candidate the moment both sides have reached it.
// Candidates that are themselves ancestors of another candidate are then
// pruned, leaving the minimal set. Commit parent traversal follows the
// same shape as object.Commit's own parent-list walk
// (IsInitial/IsMerge), just walked one generation at a time via a
// CommitReader instead of recursively.
package lca

import (
	"context"
	"fmt"

	"github.com/winnyboy5/mediagit-core-sub002/internal/object"
	"github.com/winnyboy5/mediagit-core-sub002/internal/oid"
)

// CommitReader is the subset of *odb.ODB an LCA search needs: decoding a
// commit to reach its parents.
type CommitReader interface {
	DecodeCommit(ctx context.Context, id oid.OID) (*object.Commit, error)
}

const (
	sideA = 1 << 0
	sideB = 1 << 1
)

// Find returns the minimal set of lowest common ancestors of a and b. If
// a == b, the result is {a}. An empty result means the commits share no
// ancestor (unrelated histories).
func Find(ctx context.Context, cr CommitReader, a, b oid.OID) ([]oid.OID, error) {
	if a == b {
		return []oid.OID{a}, nil
	}

	seen := map[oid.OID]int{}
	var candidates []oid.OID

	queueA := []oid.OID{a}
	queueB := []oid.OID{b}
	seen[a] = sideA
	seen[b] |= sideB

	for len(queueA) > 0 || len(queueB) > 0 {
		var err error
		queueA, err = stepFrom(ctx, cr, queueA, sideA, seen, &candidates)
		if err != nil {
			return nil, err
		}
		queueB, err = stepFrom(ctx, cr, queueB, sideB, seen, &candidates)
		if err != nil {
			return nil, err
		}
	}

	return pruneDescendants(ctx, cr, candidates)
}

// stepFrom advances one BFS generation for a single side, marking newly
// reached nodes and recording any node reached from both sides as a
// candidate.
func stepFrom(ctx context.Context, cr CommitReader, frontier []oid.OID, side int, seen map[oid.OID]int, candidates *[]oid.OID) ([]oid.OID, error) {
	var next []oid.OID
	for _, id := range frontier {
		commit, err := cr.DecodeCommit(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("lca: reading %s: %w", id, err)
		}
		for _, parent := range commit.Parents {
			before := seen[parent]
			if before&side != 0 {
				continue
			}
			after := before | side
			seen[parent] = after
			if after == (sideA | sideB) && before != (sideA|sideB) {
				*candidates = append(*candidates, parent)
			}
			next = append(next, parent)
		}
	}
	return next, nil
}

// pruneDescendants removes any candidate that is itself an ancestor of
// another candidate, leaving only the minimal (most recent) LCAs.
func pruneDescendants(ctx context.Context, cr CommitReader, candidates []oid.OID) ([]oid.OID, error) {
	if len(candidates) <= 1 {
		return candidates, nil
	}
	minimal := make([]oid.OID, 0, len(candidates))
	for i, c := range candidates {
		isAncestorOfAnother := false
		for j, other := range candidates {
			if i == j {
				continue
			}
			ok, err := IsAncestor(ctx, cr, c, other)
			if err != nil {
				return nil, err
			}
			if ok {
				isAncestorOfAnother = true
				break
			}
		}
		if !isAncestorOfAnother {
			minimal = append(minimal, c)
		}
	}
	return dedupe(minimal), nil
}

func dedupe(ids []oid.OID) []oid.OID {
	seen := make(map[oid.OID]bool, len(ids))
	out := make([]oid.OID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// IsAncestor reports whether a is an ancestor of (or equal to) b, by
// walking b's parents.
func IsAncestor(ctx context.Context, cr CommitReader, a, b oid.OID) (bool, error) {
	if a == b {
		return true, nil
	}
	visited := map[oid.OID]bool{b: true}
	frontier := []oid.OID{b}
	for len(frontier) > 0 {
		var next []oid.OID
		for _, id := range frontier {
			commit, err := cr.DecodeCommit(ctx, id)
			if err != nil {
				return false, fmt.Errorf("lca: reading %s: %w", id, err)
			}
			for _, parent := range commit.Parents {
				if parent == a {
					return true, nil
				}
				if !visited[parent] {
					visited[parent] = true
					next = append(next, parent)
				}
			}
		}
		frontier = next
	}
	return false, nil
}
