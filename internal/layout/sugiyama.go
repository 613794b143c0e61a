package layout

import (
	"cmp"
	"slices"

	"tablescope/internal/models"
)

type edge struct {
	from, to int
}

// vertex is a node of the layered graph. Dummy vertices (node < 0) carry
// edges that span more than one rank.
type vertex struct {
	node   int
	width  float64
	height float64
	rank   int
}

// Layout assigns every node a rank and a center position. Nodes keep their
// input order in the result; ties during ordering also keep input order, so
// an unchanged schema always lays out the same way.
//
// Each weakly connected component is layered on its own and components are
// placed left to right. The input slices are not modified.
func Layout(nodes []models.GraphNode, edges []models.GraphEdge, opts Options) []models.GraphNode {
	out := make([]models.GraphNode, len(nodes))
	copy(out, nodes)
	if len(out) == 0 {
		return out
	}

	index := make(map[string]int, len(out))
	for i, n := range out {
		if _, dup := index[n.ID]; !dup {
			index[n.ID] = i
		}
	}

	var links []edge
	for _, e := range edges {
		from, okFrom := index[e.Source]
		to, okTo := index[e.Target]
		// self references do not affect layering
		if !okFrom || !okTo || from == to {
			continue
		}
		links = append(links, edge{from: from, to: to})
	}

	offsetX := 0.0
	for _, comp := range components(len(out), links) {
		width := layoutComponent(out, comp, links, opts, offsetX)
		offsetX += width + opts.ComponentSep
	}
	return out
}

// components groups node indices by weak connectivity. Components are ordered
// by their first node and list members in input order.
func components(n int, links []edge) [][]int {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	find := func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	for _, l := range links {
		a, b := find(l.from), find(l.to)
		if a != b {
			if a < b {
				parent[b] = a
			} else {
				parent[a] = b
			}
		}
	}

	slot := make(map[int]int)
	var comps [][]int
	for i := 0; i < n; i++ {
		root := find(i)
		s, ok := slot[root]
		if !ok {
			s = len(comps)
			slot[root] = s
			comps = append(comps, nil)
		}
		comps[s] = append(comps[s], i)
	}
	return comps
}

// layoutComponent positions one component starting at offsetX and returns
// its width.
func layoutComponent(out []models.GraphNode, members []int, links []edge, opts Options, offsetX float64) float64 {
	local := make(map[int]int, len(members))
	for i, m := range members {
		local[m] = i
	}
	var compLinks []edge
	for _, l := range links {
		from, ok := local[l.from]
		if !ok {
			continue
		}
		compLinks = append(compLinks, edge{from: from, to: local[l.to]})
	}

	n := len(members)
	dag := removeCycles(n, compLinks)
	ranks := longestPathRanks(n, dag)

	vertices := make([]vertex, n)
	for i, m := range members {
		w, h := out[m].Width, out[m].Height
		if w <= 0 {
			w = opts.NodeWidth
		}
		if h <= 0 {
			h = opts.HeaderHeight
		}
		vertices[i] = vertex{node: m, width: w, height: h, rank: ranks[i]}
	}

	// split long edges so every segment joins adjacent ranks
	var segments []edge
	for _, e := range dag {
		prev := e.from
		for r := ranks[e.from] + 1; r < ranks[e.to]; r++ {
			vertices = append(vertices, vertex{node: -1, rank: r})
			dummy := len(vertices) - 1
			segments = append(segments, edge{from: prev, to: dummy})
			prev = dummy
		}
		segments = append(segments, edge{from: prev, to: e.to})
	}

	layers := orderLayers(vertices, segments, opts.Passes)
	return assignCoordinates(out, vertices, layers, opts, offsetX)
}

// removeCycles reverses DFS back edges. The search starts from sources so that
// edges already pointing downward keep their direction.
func removeCycles(n int, links []edge) []edge {
	outgoing := make([][]int, n)
	indegree := make([]int, n)
	for i, l := range links {
		outgoing[l.from] = append(outgoing[l.from], i)
		indegree[l.to]++
	}

	const (
		unvisited = iota
		onStack
		done
	)
	state := make([]int, n)
	reversed := make([]bool, len(links))

	var visit func(v int)
	visit = func(v int) {
		state[v] = onStack
		for _, li := range outgoing[v] {
			w := links[li].to
			switch state[w] {
			case unvisited:
				visit(w)
			case onStack:
				reversed[li] = true
			}
		}
		state[v] = done
	}

	for v := 0; v < n; v++ {
		if indegree[v] == 0 && state[v] == unvisited {
			visit(v)
		}
	}
	for v := 0; v < n; v++ {
		if state[v] == unvisited {
			visit(v)
		}
	}

	dag := make([]edge, len(links))
	for i, l := range links {
		if reversed[i] {
			dag[i] = edge{from: l.to, to: l.from}
		} else {
			dag[i] = l
		}
	}
	return dag
}

// longestPathRanks puts every source on rank 0 and every other node one rank
// below its deepest predecessor.
func longestPathRanks(n int, dag []edge) []int {
	outgoing := make([][]int, n)
	indegree := make([]int, n)
	for _, e := range dag {
		outgoing[e.from] = append(outgoing[e.from], e.to)
		indegree[e.to]++
	}

	ranks := make([]int, n)
	queue := make([]int, 0, n)
	for v := 0; v < n; v++ {
		if indegree[v] == 0 {
			queue = append(queue, v)
		}
	}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for _, w := range outgoing[v] {
			if ranks[v]+1 > ranks[w] {
				ranks[w] = ranks[v] + 1
			}
			indegree[w]--
			if indegree[w] == 0 {
				queue = append(queue, w)
			}
		}
	}
	return ranks
}

// orderLayers groups vertices by rank and reorders each rank with alternating
// down and up barycenter sweeps, keeping the ordering with fewest crossings.
func orderLayers(vertices []vertex, segments []edge, passes int) [][]int {
	maxRank := 0
	for _, v := range vertices {
		maxRank = max(maxRank, v.rank)
	}
	layers := make([][]int, maxRank+1)
	for i, v := range vertices {
		layers[v.rank] = append(layers[v.rank], i)
	}

	preds := make([][]int, len(vertices))
	succs := make([][]int, len(vertices))
	for _, s := range segments {
		succs[s.from] = append(succs[s.from], s.to)
		preds[s.to] = append(preds[s.to], s.from)
	}

	pos := make([]int, len(vertices))
	syncPositions(layers, pos)

	best := cloneLayers(layers)
	bestCrossings := countCrossings(layers, succs, pos)

	for pass := 0; pass < passes && bestCrossings > 0; pass++ {
		if pass%2 == 0 {
			for r := 1; r < len(layers); r++ {
				reorder(layers[r], preds, pos)
			}
		} else {
			for r := len(layers) - 2; r >= 0; r-- {
				reorder(layers[r], succs, pos)
			}
		}

		if c := countCrossings(layers, succs, pos); c < bestCrossings {
			bestCrossings = c
			best = cloneLayers(layers)
		}
	}

	return best
}

// reorder sorts a layer by the mean position of each vertex's neighbours in
// the fixed layer. Vertices without neighbours keep their own position.
func reorder(layer []int, neighbours [][]int, pos []int) {
	bary := make(map[int]float64, len(layer))
	for _, v := range layer {
		if len(neighbours[v]) == 0 {
			bary[v] = float64(pos[v])
			continue
		}
		sum := 0
		for _, n := range neighbours[v] {
			sum += pos[n]
		}
		bary[v] = float64(sum) / float64(len(neighbours[v]))
	}

	slices.SortStableFunc(layer, func(a, b int) int {
		return cmp.Compare(bary[a], bary[b])
	})
	for i, v := range layer {
		pos[v] = i
	}
}

func countCrossings(layers [][]int, succs [][]int, pos []int) int {
	total := 0
	for r := 0; r+1 < len(layers); r++ {
		var segs [][2]int
		for _, u := range layers[r] {
			for _, w := range succs[u] {
				segs = append(segs, [2]int{pos[u], pos[w]})
			}
		}
		for i := 0; i < len(segs); i++ {
			for j := i + 1; j < len(segs); j++ {
				a, b := segs[i], segs[j]
				if (a[0] < b[0] && a[1] > b[1]) || (a[0] > b[0] && a[1] < b[1]) {
					total++
				}
			}
		}
	}
	return total
}

func syncPositions(layers [][]int, pos []int) {
	for _, layer := range layers {
		for i, v := range layer {
			pos[v] = i
		}
	}
}

func cloneLayers(layers [][]int) [][]int {
	c := make([][]int, len(layers))
	for i, l := range layers {
		c[i] = slices.Clone(l)
	}
	return c
}

// assignCoordinates stacks ranks top to bottom, each as tall as its tallest
// node, and centers every rank within the widest one.
func assignCoordinates(out []models.GraphNode, vertices []vertex, layers [][]int, opts Options, offsetX float64) float64 {
	rankHeight := make([]float64, len(layers))
	rankWidth := make([]float64, len(layers))
	for r, layer := range layers {
		for i, v := range layer {
			rankHeight[r] = max(rankHeight[r], vertices[v].height)
			rankWidth[r] += vertices[v].width
			if i > 0 {
				rankWidth[r] += separation(vertices[layer[i-1]], vertices[v], opts)
			}
		}
	}
	width := slices.Max(rankWidth)

	top := 0.0
	for r, layer := range layers {
		centerY := top + rankHeight[r]/2
		top += rankHeight[r] + opts.RankSep

		cursor := offsetX + (width-rankWidth[r])/2
		order := 0
		for i, v := range layer {
			vx := vertices[v]
			if i > 0 {
				cursor += separation(vertices[layer[i-1]], vx, opts)
			}
			if vx.node >= 0 {
				node := &out[vx.node]
				node.Width = vx.width
				node.Height = vx.height
				node.X = cursor + vx.width/2
				node.Y = centerY
				node.Rank = vx.rank
				node.Order = order
				order++
			}
			cursor += vx.width
		}
	}
	return width
}

func separation(a, b vertex, opts Options) float64 {
	if a.node >= 0 && b.node >= 0 {
		return opts.NodeSep
	}
	return opts.EdgeSep
}
