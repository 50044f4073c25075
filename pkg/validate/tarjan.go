package validate

import "sort"

// tarjanState holds the DFS bookkeeping for one run of tarjanSCC.
type tarjanState struct {
	index   int
	indexOf map[string]int
	lowlink map[string]int
	onStack map[string]bool
	stack   []string
	sccs    [][]string
	edges   map[string][]string
}

// tarjanSCC finds every strongly connected component of a directed
// graph given as a node set plus an adjacency list, in linear time.
func tarjanSCC(nodes map[string]bool, edges map[string][]string) [][]string {
	st := &tarjanState{
		indexOf: make(map[string]int),
		lowlink: make(map[string]int),
		onStack: make(map[string]bool),
		edges:   edges,
	}
	ordered := make([]string, 0, len(nodes))
	for n := range nodes {
		ordered = append(ordered, n)
	}
	sort.Strings(ordered) // deterministic visit order
	for _, n := range ordered {
		if _, visited := st.indexOf[n]; !visited {
			strongConnect(st, n)
		}
	}
	return st.sccs
}

func strongConnect(st *tarjanState, v string) {
	st.indexOf[v] = st.index
	st.lowlink[v] = st.index
	st.index++
	st.stack = append(st.stack, v)
	st.onStack[v] = true

	for _, w := range st.edges[v] {
		if _, visited := st.indexOf[w]; !visited {
			strongConnect(st, w)
			if st.lowlink[w] < st.lowlink[v] {
				st.lowlink[v] = st.lowlink[w]
			}
		} else if st.onStack[w] {
			if st.indexOf[w] < st.lowlink[v] {
				st.lowlink[v] = st.indexOf[w]
			}
		}
	}

	if st.lowlink[v] == st.indexOf[v] {
		var scc []string
		for {
			n := len(st.stack) - 1
			w := st.stack[n]
			st.stack = st.stack[:n]
			st.onStack[w] = false
			scc = append(scc, w)
			if w == v {
				break
			}
		}
		st.sccs = append(st.sccs, scc)
	}
}
