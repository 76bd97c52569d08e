package submit

import (
	"context"

	"github.com/go-git/go-git/v5/plumbing"

	"submitq.dev/submitq/internal/git"
	"submitq.dev/submitq/internal/graph"
)

// commitGraph caches the commits a run has looked at. Commits are immutable,
// so the cache never needs invalidating within a run.
type commitGraph struct {
	objects ObjectStore
	nodes   map[plumbing.Hash]*git.CommitNode
}

var _ graph.Graph[plumbing.Hash] = (*commitGraph)(nil)

func newCommitGraph(objects ObjectStore) *commitGraph {
	return &commitGraph{
		objects: objects,
		nodes:   make(map[plumbing.Hash]*git.CommitNode),
	}
}

// node resolves a commit, peeling tags. The returned node's ID may differ
// from id when id names a tag.
func (g *commitGraph) node(ctx context.Context, id plumbing.Hash) (*git.CommitNode, error) {
	if n, ok := g.nodes[id]; ok {
		return n, nil
	}
	n, err := g.objects.ResolveCommit(ctx, id)
	if err != nil {
		return nil, err
	}
	g.nodes[id] = n
	g.nodes[n.ID] = n
	return n, nil
}

// add records a commit the run wrote itself
func (g *commitGraph) add(n *git.CommitNode) {
	g.nodes[n.ID] = n
}

// Parents implements graph.Graph
func (g *commitGraph) Parents(ctx context.Context, id plumbing.Hash) ([]plumbing.Hash, error) {
	n, err := g.node(ctx, id)
	if err != nil {
		return nil, err
	}
	return n.Parents, nil
}

func (g *commitGraph) isAncestor(ctx context.Context, ancestor, descendant plumbing.Hash) (bool, error) {
	return graph.IsAncestor[plumbing.Hash](ctx, g, ancestor, descendant)
}
