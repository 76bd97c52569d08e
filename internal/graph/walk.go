// Package graph provides walks over commit-like directed acyclic graphs.
//
// The walkers only need a node identity and the ordered parents of a node, so
// they work the same against a go-git object store, an in-memory fixture or
// any other source that can answer Parents.
package graph

import "context"

// Graph answers parent lookups for a node.
type Graph[ID comparable] interface {
	Parents(ctx context.Context, id ID) ([]ID, error)
}

// Set is a set of node ids.
type Set[ID comparable] map[ID]struct{}

// Has reports whether id is in the set.
func (s Set[ID]) Has(id ID) bool {
	_, ok := s[id]
	return ok
}

// Reachable returns every node reachable from roots, roots included.
func Reachable[ID comparable](ctx context.Context, g Graph[ID], roots []ID) (Set[ID], error) {
	seen := make(Set[ID])
	queue := make([]ID, 0, len(roots))
	for _, r := range roots {
		if !seen.Has(r) {
			seen[r] = struct{}{}
			queue = append(queue, r)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		parents, err := g.Parents(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, p := range parents {
			if !seen.Has(p) {
				seen[p] = struct{}{}
				queue = append(queue, p)
			}
		}
	}
	return seen, nil
}

// Walk returns the nodes reachable from start that are not reachable from any
// uninteresting node, in breadth-first discovery order. It is the equivalent
// of `git rev-list start --not uninteresting`.
func Walk[ID comparable](ctx context.Context, g Graph[ID], start, uninteresting []ID) ([]ID, error) {
	excluded, err := Reachable(ctx, g, uninteresting)
	if err != nil {
		return nil, err
	}
	return WalkExcluding(ctx, g, start, excluded)
}

// WalkExcluding is Walk with the uninteresting closure already computed,
// for callers that walk many times against the same boundary.
func WalkExcluding[ID comparable](ctx context.Context, g Graph[ID], start []ID, excluded Set[ID]) ([]ID, error) {
	var out []ID
	seen := make(Set[ID])
	queue := make([]ID, 0, len(start))
	for _, s := range start {
		if !excluded.Has(s) && !seen.Has(s) {
			seen[s] = struct{}{}
			queue = append(queue, s)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		out = append(out, id)
		parents, err := g.Parents(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, p := range parents {
			if excluded.Has(p) || seen.Has(p) {
				continue
			}
			seen[p] = struct{}{}
			queue = append(queue, p)
		}
	}
	return out, nil
}

// IsAncestor reports whether ancestor is descendant itself or reachable from
// it through parent links.
func IsAncestor[ID comparable](ctx context.Context, g Graph[ID], ancestor, descendant ID) (bool, error) {
	if ancestor == descendant {
		return true, nil
	}
	seen := Set[ID]{descendant: {}}
	queue := []ID{descendant}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		parents, err := g.Parents(ctx, id)
		if err != nil {
			return false, err
		}
		for _, p := range parents {
			if p == ancestor {
				return true, nil
			}
			if !seen.Has(p) {
				seen[p] = struct{}{}
				queue = append(queue, p)
			}
		}
	}
	return false, nil
}

// Heads returns the members of candidates that are not a strict ancestor of
// another candidate. Ancestry is only followed until it reaches a node
// reachable from boundary. The result keeps the order of candidates.
func Heads[ID comparable](ctx context.Context, g Graph[ID], candidates, boundary []ID) ([]ID, error) {
	excluded, err := Reachable(ctx, g, boundary)
	if err != nil {
		return nil, err
	}
	return HeadsExcluding(ctx, g, candidates, excluded)
}

// HeadsExcluding is Heads with the boundary closure already computed.
func HeadsExcluding[ID comparable](ctx context.Context, g Graph[ID], candidates []ID, excluded Set[ID]) ([]ID, error) {
	// Everything reachable from a candidate's parents is covered by that
	// candidate, so start one step below each of them.
	var below []ID
	for _, c := range candidates {
		parents, err := g.Parents(ctx, c)
		if err != nil {
			return nil, err
		}
		below = append(below, parents...)
	}
	covered, err := WalkExcluding(ctx, g, below, excluded)
	if err != nil {
		return nil, err
	}
	coveredSet := make(Set[ID], len(covered))
	for _, id := range covered {
		coveredSet[id] = struct{}{}
	}

	var heads []ID
	seen := make(Set[ID])
	for _, c := range candidates {
		if coveredSet.Has(c) || seen.Has(c) {
			continue
		}
		seen[c] = struct{}{}
		heads = append(heads, c)
	}
	return heads, nil
}
