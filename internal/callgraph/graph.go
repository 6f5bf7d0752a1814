// Package callgraph builds the graph of calls between the functions of a
// checked source. It reports recursion, orders functions so callees come
// before their callers and finds the functions asserts depend on.
package callgraph

import (
	"fmt"
	"slices"
	"sort"

	"github.com/leapstack-labs/tern/pkg/typed"
)

// Node is a function of the graph.
type Node struct {
	Name string
	Fn   *typed.Function
}

// Graph is a directed graph from callers to callees. Unlike a dependency
// graph it may contain cycles: recursion is legal.
type Graph struct {
	nodes   map[string]*Node
	callees map[string][]string // caller -> callees
	callers map[string][]string // callee -> callers

	// asserted are the functions called directly by top-level asserts.
	asserted []string
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:   make(map[string]*Node),
		callees: make(map[string][]string),
		callers: make(map[string][]string),
	}
}

// Build returns the call graph of checked items. Calls to names that are not
// functions of items, such as builtins, are not edges.
func Build(items []typed.Item) *Graph {
	g := NewGraph()
	fns := typed.Functions(items)
	for _, fn := range fns {
		g.AddNode(fn.Name, fn)
	}
	for _, fn := range fns {
		for _, callee := range calls(fn.Body) {
			_ = g.AddEdge(fn.Name, callee)
		}
	}

	var asserts []typed.Item
	for _, item := range items {
		if a, ok := item.(*typed.Assert); ok {
			asserts = append(asserts, a)
		}
	}
	for _, callee := range calls(asserts) {
		if _, ok := g.nodes[callee]; ok {
			g.asserted = append(g.asserted, callee)
		}
	}
	sort.Strings(g.asserted)
	return g
}

// AddNode adds a function to the graph, replacing the function of an
// existing node.
func (g *Graph) AddNode(name string, fn *typed.Function) {
	if n, exists := g.nodes[name]; exists {
		n.Fn = fn
		return
	}
	g.nodes[name] = &Node{Name: name, Fn: fn}
	g.callees[name] = []string{}
	g.callers[name] = []string{}
}

// AddEdge records that caller calls callee. Self edges are direct recursion.
func (g *Graph) AddEdge(caller, callee string) error {
	if _, exists := g.nodes[caller]; !exists {
		return fmt.Errorf("caller %q is not a function", caller)
	}
	if _, exists := g.nodes[callee]; !exists {
		return fmt.Errorf("callee %q is not a function", callee)
	}
	if !slices.Contains(g.callees[caller], callee) {
		g.callees[caller] = append(g.callees[caller], callee)
	}
	if !slices.Contains(g.callers[callee], caller) {
		g.callers[callee] = append(g.callers[callee], caller)
	}
	return nil
}

// Node returns a node by name.
func (g *Graph) Node(name string) (*Node, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// Callees returns the functions name calls, sorted.
func (g *Graph) Callees(name string) []string {
	return sorted(g.callees[name])
}

// Callers returns the functions calling name, sorted.
func (g *Graph) Callers(name string) []string {
	return sorted(g.callers[name])
}

// Nodes returns all nodes sorted by name.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].Name < nodes[j].Name
	})
	return nodes
}

// NodeCount returns the number of functions in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of distinct caller/callee pairs.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, callees := range g.callees {
		count += len(callees)
	}
	return count
}

// Cycle returns a call cycle starting and ending at the same function, or
// nil when no function is recursive.
func (g *Graph) Cycle() []string {
	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	parent := make(map[string]string)

	var cycle []string
	var dfs func(name string) bool
	dfs = func(name string) bool {
		visited[name] = true
		onStack[name] = true
		for _, callee := range g.Callees(name) {
			if !visited[callee] {
				parent[callee] = name
				if dfs(callee) {
					return true
				}
			} else if onStack[callee] {
				cycle = []string{callee}
				for cur := name; cur != callee; cur = parent[cur] {
					cycle = append([]string{cur}, cycle...)
				}
				cycle = append([]string{callee}, cycle...)
				return true
			}
		}
		onStack[name] = false
		return false
	}

	for _, n := range g.Nodes() {
		if !visited[n.Name] && dfs(n.Name) {
			return cycle
		}
	}
	return nil
}

// Recursive returns the functions that can call themselves, directly or
// through other functions.
func (g *Graph) Recursive() []string {
	var out []string
	for _, n := range g.Nodes() {
		if slices.Contains(g.reach(g.callees[n.Name], g.callees), n.Name) {
			out = append(out, n.Name)
		}
	}
	return out
}

// Levels groups functions so that every function's callees are in earlier
// levels. Level 0 holds functions that call nothing. It fails when the
// graph has a cycle.
func (g *Graph) Levels() ([][]string, error) {
	if cycle := g.Cycle(); cycle != nil {
		return nil, fmt.Errorf("recursive calls: %v", cycle)
	}

	assigned := make(map[string]int)
	var level func(name string) int
	level = func(name string) int {
		if l, ok := assigned[name]; ok {
			return l
		}
		l := 0
		for _, callee := range g.callees[name] {
			l = max(l, level(callee)+1)
		}
		assigned[name] = l
		return l
	}

	maxLevel := -1
	for name := range g.nodes {
		maxLevel = max(maxLevel, level(name))
	}
	levels := make([][]string, maxLevel+1)
	for name, l := range assigned {
		levels[l] = append(levels[l], name)
	}
	for i := range levels {
		sort.Strings(levels[i])
	}
	return levels, nil
}

// Reachable returns the functions the given functions call, transitively.
// The given functions are included only when they are reached again.
func (g *Graph) Reachable(names ...string) []string {
	var start []string
	for _, name := range names {
		start = append(start, g.callees[name]...)
	}
	return g.reach(start, g.callees)
}

// Affected returns the given functions and every function that calls one of
// them, transitively: the functions whose behavior a change to names can alter.
func (g *Graph) Affected(names ...string) []string {
	var start []string
	for _, name := range names {
		if _, ok := g.nodes[name]; ok {
			start = append(start, name)
		}
	}
	return g.reach(start, g.callers)
}

// Asserted returns the functions called directly by asserts.
func (g *Graph) Asserted() []string {
	return g.asserted
}

// Tested returns every function an assert can reach.
func (g *Graph) Tested() []string {
	return sorted(append(g.Reachable(g.asserted...), g.asserted...))
}

// Untested returns the non-extern functions no assert can reach.
func (g *Graph) Untested() []string {
	tested := g.Tested()
	var out []string
	for _, n := range g.Nodes() {
		if n.Fn != nil && n.Fn.Extern {
			continue
		}
		if !slices.Contains(tested, n.Name) {
			out = append(out, n.Name)
		}
	}
	return out
}

// Roots returns the functions no other function calls. A function calling
// only itself is still a root.
func (g *Graph) Roots() []string {
	var roots []string
	for name := range g.nodes {
		callers := g.callers[name]
		if len(callers) == 0 || (len(callers) == 1 && callers[0] == name) {
			roots = append(roots, name)
		}
	}
	sort.Strings(roots)
	return roots
}

// Leaves returns the functions that call no other function.
func (g *Graph) Leaves() []string {
	var leaves []string
	for name := range g.nodes {
		if len(g.callees[name]) == 0 {
			leaves = append(leaves, name)
		}
	}
	sort.Strings(leaves)
	return leaves
}

// reach returns the sorted closure of start over edges.
func (g *Graph) reach(start []string, edges map[string][]string) []string {
	seen := make(map[string]bool)
	var visit func(name string)
	visit = func(name string) {
		if seen[name] {
			return
		}
		seen[name] = true
		for _, next := range edges[name] {
			visit(next)
		}
	}
	for _, name := range start {
		visit(name)
	}

	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func sorted(names []string) []string {
	out := slices.Clone(names)
	sort.Strings(out)
	return slices.Compact(out)
}
