package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/decon/internal/ir"
)

// RecordCycle is a set of records that contain each other.
//
// Such records have no finite values: an absent optional still carries a
// default payload, so optional<Self> does not break the cycle. Only map
// fields do, because a map's default is empty.
type RecordCycle struct {
	Path    []string `json:"path"`    // Cycle path: ["Album", "Track", "Album"]
	Message string   `json:"message"` // Human-readable description
}

// AnalyzeRecordCycles finds records that contain themselves.
//
// The algorithm:
//  1. Build record → record containment graph from field types
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 or self-loops as a cycle
//
// Records are visited in declaration order so results are deterministic.
func AnalyzeRecordCycles(set *ir.SpecSet) []RecordCycle {
	if len(set.Records) == 0 {
		return nil
	}

	order := make([]string, len(set.Records))
	for i, r := range set.Records {
		order[i] = r.Name
	}
	graph := buildContainmentGraph(set)

	var cycles []RecordCycle
	for _, scc := range tarjanSCC(order, graph) {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			cycles = append(cycles, sccToCycle(scc, graph))
		}
	}
	return cycles
}

// containmentGraph maps record → records its values always contain.
type containmentGraph map[string][]string

func buildContainmentGraph(set *ir.SpecSet) containmentGraph {
	graph := make(containmentGraph)
	for _, rec := range set.Records {
		edges := []string{}
		for _, f := range rec.Fields {
			edges = containedRecords(f.Type, edges)
		}
		graph[rec.Name] = edges
	}
	return graph
}

// containedRecords appends records reachable from t without passing
// through a map.
func containedRecords(t ir.Type, dst []string) []string {
	switch t.Kind {
	case ir.KindRecord:
		if !slices.Contains(dst, t.Name) {
			dst = append(dst, t.Name)
		}
	case ir.KindMap:
		return dst
	}
	for _, a := range t.Args {
		dst = containedRecords(a, dst)
	}
	return dst
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph containmentGraph) bool {
	return slices.Contains(graph[node], node)
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Single-node SCCs without self-loops are NOT cycles.
func tarjanSCC(order []string, graph containmentGraph) [][]string {
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
				// Undeclared record, reported as E103
				continue
			}
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// If v is a root node, pop the stack and create an SCC
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
			slices.Reverse(scc)
			sccs = append(sccs, scc)
		}
	}

	for _, node := range order {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

func sccToCycle(scc []string, graph containmentGraph) RecordCycle {
	path := reconstructCyclePath(scc, graph)
	return RecordCycle{
		Path:    path,
		Message: fmt.Sprintf("recursive record: %s", strings.Join(path, " -> ")),
	}
}

// reconstructCyclePath builds a cycle path from an SCC.
//
// Strategy: Start at first node in SCC, follow edges to other SCC members,
// continue until we return to start node.
func reconstructCyclePath(scc []string, graph containmentGraph) []string {
	inSCC := make(map[string]bool, len(scc))
	for _, node := range scc {
		inSCC[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if inSCC[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
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
		current = next
	}

	return path
}
