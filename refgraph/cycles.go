package refgraph

import (
	"sort"
	"strings"
)

// Cycles detects cycles in the dependsOn subgraph using DFS with a
// recursion stack. Each back-edge yields the cycle currently on the stack.
// Cycles are normalized to their lexicographically smallest rotation and
// deduplicated, so identical input always reports identical cycles.
// Detection never aborts the run; cyclic tasks are reported, not rejected.
func (g *Graph) Cycles() [][]string {
	const (
		white = 0 // unvisited
		gray  = 1 // on the recursion stack
		black = 2 // fully explored
	)

	color := make(map[string]int)
	var stack []string
	found := make(map[string][]string)

	var visit func(id string)
	visit = func(id string) {
		color[id] = gray
		stack = append(stack, id)

		targets := append([]string(nil), g.dependsOn[id]...)
		sort.Strings(targets)
		for _, next := range targets {
			switch color[next] {
			case white:
				visit(next)
			case gray:
				// Back-edge: the cycle is the stack segment from next to id
				for i, n := range stack {
					if n == next {
						cycle := normalizeCycle(stack[i:])
						found[strings.Join(cycle, ",")] = cycle
						break
					}
				}
			}
		}

		stack = stack[:len(stack)-1]
		color[id] = black
	}

	for _, id := range g.Nodes() {
		if color[id] == white {
			visit(id)
		}
	}

	keys := make([]string, 0, len(found))
	for k := range found {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cycles := make([][]string, 0, len(keys))
	for _, k := range keys {
		cycles = append(cycles, found[k])
	}
	return cycles
}

// normalizeCycle rotates a cycle so it starts at the position producing the
// lexicographically smallest id sequence.
func normalizeCycle(cycle []string) []string {
	n := len(cycle)
	if n == 0 {
		return nil
	}

	best := 0
	for start := 1; start < n; start++ {
		for i := 0; i < n; i++ {
			a := cycle[(start+i)%n]
			b := cycle[(best+i)%n]
			if a < b {
				best = start
				break
			}
			if a > b {
				break
			}
		}
	}

	rotated := make([]string, n)
	for i := 0; i < n; i++ {
		rotated[i] = cycle[(best+i)%n]
	}
	return rotated
}
