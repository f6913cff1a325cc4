// Package hierarchy computes closures over the region and specialty forests.
//
// Both forests store edges as "child points at parent". The resolver walks
// the inverted edges breadth-first, starting from the node itself, so that
// "everything under this region" queries can be scoped with a single ID set.
package hierarchy

import (
	"context"

	"afya/pkg/platform/sentinel"
)

// ChildSource yields the direct children of a node. Implementations are
// read-only and safe for concurrent use.
type ChildSource[ID comparable] interface {
	Exists(ctx context.Context, id ID) (bool, error)
	Children(ctx context.Context, id ID) ([]ID, error)
}

// Descendants returns the reflexive-transitive closure of root: root itself
// plus every node reachable by following child edges. Unknown roots fail with
// sentinel.ErrNotFound.
//
// The visited set doubles as a cycle guard: a corrupt parent chain terminates
// with a finite result instead of looping.
func Descendants[ID comparable](ctx context.Context, src ChildSource[ID], root ID) (map[ID]struct{}, error) {
	ok, err := src.Exists(ctx, root)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, sentinel.ErrNotFound
	}

	visited := map[ID]struct{}{root: {}}
	queue := []ID{root}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		children, err := src.Children(ctx, node)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			if _, seen := visited[child]; seen {
				continue
			}
			visited[child] = struct{}{}
			queue = append(queue, child)
		}
	}
	return visited, nil
}
