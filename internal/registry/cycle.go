package registry

import (
	"slices"

	"github.com/roach88/quantq/internal/ir"
)

// referenceGraph maps a definition name to the names its arguments reference.
type referenceGraph map[string][]string

// buildReferenceGraph resolves arguments against defs the way the registry
// does (exact name, then case-folded), so ordering and cycle checks agree
// with registration. Arguments naming nothing in defs are kept as written.
func buildReferenceGraph(defs []ir.Definition) referenceGraph {
	byName := make(map[string]ir.Definition, len(defs))
	names := make([]string, 0, len(defs))
	for _, def := range defs {
		byName[def.DefName()] = def
		names = append(names, def.DefName())
	}

	graph := make(referenceGraph, len(defs))
	for _, def := range defs {
		name := def.DefName()
		if graph[name] == nil {
			graph[name] = []string{}
		}
		c, ok := def.(ir.CompoundPredicate)
		if !ok {
			continue
		}
		for _, arg := range c.Args {
			if canonical, found := resolveIn(byName, names, arg); found {
				arg = canonical
			}
			graph[name] = append(graph[name], arg)
		}
	}
	return graph
}

// FindCycles returns every reference cycle among defs. Each cycle is a path
// that starts and ends at the same name, e.g. ["A", "B", "A"]. Self
// references are reported as ["A", "A"]. Names are visited in input order so
// the result is deterministic.
func FindCycles(defs []ir.Definition) [][]string {
	graph := buildReferenceGraph(defs)
	order := make([]string, 0, len(defs))
	for _, def := range defs {
		order = append(order, def.DefName())
	}

	var cycles [][]string
	for _, scc := range tarjanSCC(graph, order) {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			cycles = append(cycles, cyclePath(scc, graph))
		}
	}
	return cycles
}

// Order returns defs sorted so that every compound follows the entries it
// references, matching references as Register does (exact, then
// case-folded). Relative input order is kept wherever dependencies allow.
// References to names outside defs are assumed to exist already. A cycle
// fails with REFERENCE_CYCLE.
func Order(defs []ir.Definition) ([]ir.Definition, error) {
	if cycles := FindCycles(defs); len(cycles) > 0 {
		return nil, ir.NewReferenceCycleError(cycles[0])
	}

	graph := buildReferenceGraph(defs)
	byName := make(map[string]ir.Definition, len(defs))
	for _, def := range defs {
		byName[def.DefName()] = def
	}

	placed := make(map[string]bool, len(defs))
	ordered := make([]ir.Definition, 0, len(defs))
	var visit func(name string)
	visit = func(name string) {
		def, local := byName[name]
		if !local || placed[name] {
			return
		}
		placed[name] = true
		for _, ref := range graph[name] {
			visit(ref)
		}
		ordered = append(ordered, def)
	}
	for _, def := range defs {
		visit(def.DefName())
	}
	return ordered, nil
}

func hasSelfLoop(node string, graph referenceGraph) bool {
	return slices.Contains(graph[node], node)
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Roots are visited in the given order.
func tarjanSCC(graph referenceGraph, roots []string) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, known := graph[w]; !known {
				continue // reference outside the analysed set
			}
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range roots {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

// cyclePath walks edges inside an SCC from its last-popped member back to
// itself.
func cyclePath(scc []string, graph referenceGraph) []string {
	if len(scc) == 1 {
		return []string{scc[0], scc[0]}
	}

	members := make(map[string]bool, len(scc))
	for _, n := range scc {
		members[n] = true
	}

	start := scc[len(scc)-1]
	path := []string{start}
	visited := map[string]bool{start: true}
	current := start
	for {
		next := ""
		for _, w := range graph[current] {
			if members[w] && (!visited[w] || w == start) {
				next = w
				break
			}
		}
		if next == "" {
			break
		}
		path = append(path, next)
		if next == start {
			break
		}
		visited[next] = true
		current = next
	}
	return path
}
