package graph

import W "github.com/cs-au-dk/fixpoint/utils/worklist"

type traversalFunc[T any] func(node T) (stop bool)

// Performs a breadth-first search from the provided start nodes, calling the
// provided function (f) for every reachable node, stopping early if f returns
// true.
// Returns whether the search stopped early (as a result of f returning true).
func (G Graph[T]) BFSV(f traversalFunc[T], starts ...T) bool {
	visited := make(map[T]struct{}, len(starts))
	for _, start := range starts {
		visited[start] = struct{}{}
	}

	done := false
	W.StartV(starts, func(node T, add func(T)) {
		if done || f(node) {
			done = true
			return
		}

		for _, next := range G.Edges(node) {
			if _, found := visited[next]; !found {
				visited[next] = struct{}{}
				add(next)
			}
		}
	})

	return done
}

// Performs a breadth-first search from the provided start node, calling the
// provided function (f) for every reachable node, stopping early if f returns
// true.
// Returns whether the search stopped early (as a result of f returning true).
func (G Graph[T]) BFS(start T, f traversalFunc[T]) bool {
	return G.BFSV(f, start)
}

// Reachable returns every node reachable from the start nodes in BFS order.
func (G Graph[T]) Reachable(starts ...T) (ret []T) {
	G.BFSV(func(node T) bool {
		ret = append(ret, node)
		return false
	}, starts...)
	return
}

// ReversePostorder numbers the nodes reachable from the start nodes by their
// position in a reverse postorder of a depth-first traversal. Successors are
// explored in edge order, so the numbering is deterministic for a
// deterministic edge relation. In the absence of back edges, every node is
// numbered before its successors.
func (G Graph[T]) ReversePostorder(starts ...T) map[T]int {
	type frame struct {
		node T
		next int
	}

	visited := make(map[T]struct{})
	post := make([]T, 0)

	// Iterative to avoid blowing the stack on long straight-line code.
	for _, start := range starts {
		if _, seen := visited[start]; seen {
			continue
		}
		visited[start] = struct{}{}
		stack := []frame{{start, 0}}

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			edges := G.Edges(top.node)
			if top.next < len(edges) {
				succ := edges[top.next]
				top.next++
				if _, seen := visited[succ]; !seen {
					visited[succ] = struct{}{}
					stack = append(stack, frame{succ, 0})
				}
				continue
			}

			post = append(post, top.node)
			stack = stack[:len(stack)-1]
		}
	}

	order := make(map[T]int, len(post))
	for i, node := range post {
		order[node] = len(post) - 1 - i
	}
	return order
}
