// Package graph implements the DAG invariant over the subgraph induced by
// blocking edges (blocks, parent_child). Related edges are exempt and never
// passed to these functions.
package graph

import (
	"context"

	"github.com/engram-dev/engram/internal/cacheindex"
)

// WouldCycle reports whether adding an edge from f to t would create a
// cycle in the blocking subgraph. It runs a depth-first traversal starting
// at t, following outgoing blocks/parent_child edges, and succeeds (no
// cycle) iff f is not reached.
func WouldCycle(ctx context.Context, idx *cacheindex.Index, f, t string) (bool, error) {
	if f == t {
		return true, nil
	}

	adjacency, err := loadAdjacency(ctx, idx)
	if err != nil {
		return false, err
	}

	visited := make(map[string]bool)
	var visit func(node string) (bool, error)
	visit = func(node string) (bool, error) {
		if node == f {
			return true, nil
		}
		if visited[node] {
			return false, nil
		}
		visited[node] = true
		for _, next := range adjacency[node] {
			found, err := visit(next)
			if err != nil {
				return false, err
			}
			if found {
				return true, nil
			}
		}
		return false, nil
	}

	return visit(t)
}

// loadAdjacency builds an outgoing-edge adjacency list over every
// non-deleted blocks/parent_child edge currently in the cache.
func loadAdjacency(ctx context.Context, idx *cacheindex.Index) (map[string][]string, error) {
	edges, err := idx.AllBlockingEdges(ctx)
	if err != nil {
		return nil, err
	}
	adj := make(map[string][]string, len(edges))
	for _, e := range edges {
		adj[e.FromID] = append(adj[e.FromID], e.ToID)
	}
	return adj, nil
}
