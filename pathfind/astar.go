package pathfind

import (
	"container/heap"
)

// AStar finds a least-cost path from start to the first node satisfying
// success. heuristic must not overestimate the remaining cost for the result
// to be optimal. The returned path includes start and the goal.
//
// Ties on f are broken by lower heuristic and then by discovery order, so the
// same inputs always produce the same path.
func AStar[N comparable](
	start N,
	successors func(N) []Edge[N],
	heuristic func(N) int,
	success func(N) bool,
) ([]N, int, bool) {
	type record struct {
		parent N
		g      int
		root   bool
		closed bool
	}

	records := map[N]*record{start: {g: 0, root: true}}
	open := &frontier[N]{}
	seq := 0
	heap.Push(open, &item[N]{node: start, f: heuristic(start), h: heuristic(start), seq: seq})

	for open.Len() > 0 {
		cur := heap.Pop(open).(*item[N])
		rec := records[cur.node]
		if rec.closed || cur.g > rec.g {
			continue
		}
		rec.closed = true

		if success(cur.node) {
			path := []N{cur.node}
			for r := rec; !r.root; r = records[r.parent] {
				path = append(path, r.parent)
			}
			for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
				path[i], path[j] = path[j], path[i]
			}
			return path, rec.g, true
		}

		for _, e := range successors(cur.node) {
			g := rec.g + e.Cost
			next, seen := records[e.To]
			if seen && (next.closed || g >= next.g) {
				continue
			}
			if !seen {
				next = &record{}
				records[e.To] = next
			}
			next.parent = cur.node
			next.g = g
			next.root = false
			seq++
			h := heuristic(e.To)
			heap.Push(open, &item[N]{node: e.To, g: g, f: g + h, h: h, seq: seq})
		}
	}

	return nil, 0, false
}

type item[N comparable] struct {
	node N
	g    int
	f    int
	h    int
	seq  int
}

// frontier is a min-heap on (f, h, seq). Stale entries are skipped on pop
// rather than decreased in place.
type frontier[N comparable] []*item[N]

func (q frontier[N]) Len() int { return len(q) }

func (q frontier[N]) Less(i, j int) bool {
	if q[i].f != q[j].f {
		return q[i].f < q[j].f
	}
	if q[i].h != q[j].h {
		return q[i].h < q[j].h
	}
	return q[i].seq < q[j].seq
}

func (q frontier[N]) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *frontier[N]) Push(x any) { *q = append(*q, x.(*item[N])) }

func (q *frontier[N]) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return it
}
