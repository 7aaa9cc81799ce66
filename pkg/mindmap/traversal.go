package mindmap

import (
	"maps"
	"slices"
)

type idSet map[NodeID]struct{}

func (s idSet) has(id NodeID) bool {
	_, ok := s[id]
	return ok
}

func (s idSet) sorted() []NodeID {
	return slices.Sorted(maps.Keys(s))
}

// Descendants returns the IDs of every node reachable from id by following
// parent→child edges, excluding id itself. Each descendant appears once even
// when several paths reach it. The result is sorted ascending and is empty
// when id has no children or does not exist.
func (g *Graph) Descendants(id NodeID) []NodeID {
	return g.descendantSet(id).sorted()
}

// Ancestors returns the IDs of every node from which id is reachable,
// excluding id itself, sorted ascending.
func (g *Graph) Ancestors(id NodeID) []NodeID {
	return g.ancestorSet(id).sorted()
}

// NodesBetween returns the IDs of the nodes lying on some path from start to
// end, excluding both endpoints. The search walks incoming edges backward
// from end and does not continue past start. The result is empty when start
// is not an ancestor of end.
func (g *Graph) NodesBetween(start, end NodeID) []NodeID {
	return g.betweenSet(start, end).sorted()
}

func (g *Graph) descendantSet(id NodeID) idSet {
	seen := g.reach(id, g.outgoing, noStop)
	delete(seen, id)
	return seen
}

func (g *Graph) ancestorSet(id NodeID) idSet {
	seen := g.reach(id, g.incoming, noStop)
	delete(seen, id)
	return seen
}

func (g *Graph) betweenSet(start, end NodeID) idSet {
	if start == end || !g.HasNode(start) || !g.HasNode(end) {
		return idSet{}
	}
	back := g.reach(end, g.incoming, func(id NodeID) bool { return id == start })
	if !back.has(start) {
		return idSet{}
	}
	// Backward reach also finds ancestors of end that are not below start.
	forward := g.descendantSet(start)
	between := make(idSet)
	for id := range back {
		if id != start && id != end && forward.has(id) {
			between[id] = struct{}{}
		}
	}
	return between
}

func noStop(NodeID) bool { return false }

// reach runs a breadth-first search from start over adj and returns the set of
// visited IDs, start included. Neighbors of a node for which stop returns true
// are not expanded.
func (g *Graph) reach(start NodeID, adj map[NodeID][]NodeID, stop func(NodeID) bool) idSet {
	visited := make(idSet)
	if !g.HasNode(start) {
		return visited
	}
	queue := []NodeID{start}
	visited[start] = struct{}{}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if id != start && stop(id) {
			continue
		}
		for _, next := range adj[id] {
			if visited.has(next) {
				continue
			}
			visited[next] = struct{}{}
			queue = append(queue, next)
		}
	}
	return visited
}
