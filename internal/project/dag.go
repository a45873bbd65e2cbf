package project

import (
	"sort"
	"sync"

	"github.com/crossplane/crossplane-runtime/pkg/errors"

	"cjls/internal/cache"
)

const errCycle = "package dependency graph contains a cycle"

// Node is one package in the project's dependency DAG.
type Node struct {
	Name   string
	Files  []string // source file paths, sorted
	Deps   []string // names of packages this package imports
	Digest cache.Digest
	Stale  bool
}

// Graph is the project's package dependency DAG: nodes keyed by package
// name, edges pointing from a package to the packages it depends on.
// Guarded by a single mutex since the whole structure is replaced
// node-by-node on recompiles, never read concurrently with a multi-node
// mutation (spec §5 implementation note: per-package build locks make
// whole-snapshot replacement unnecessary, but the node map itself still
// needs a lock against concurrent Upsert/MarkStale calls from different
// workers).
type Graph struct {
	mu    sync.RWMutex
	nodes map[string]*Node
}

// NewGraph returns an empty dependency graph.
func NewGraph() *Graph {
	return &Graph{nodes: make(map[string]*Node)}
}

// Upsert records or replaces a package's file list and dependency edges.
func (g *Graph) Upsert(name string, files, deps []string) {
	sortedFiles := append([]string(nil), files...)
	sort.Strings(sortedFiles)

	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[name]
	if !ok {
		n = &Node{Name: name}
		g.nodes[name] = n
	}
	n.Files = sortedFiles
	n.Deps = append([]string(nil), deps...)
}

// Remove deletes a package node entirely (spec §4.B IncrementForFileDelete,
// when a deletion empties a package of all files).
func (g *Graph) Remove(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.nodes, name)
}

// Node returns a copy of the named package's node.
func (g *Graph) Node(name string) (Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[name]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// SetDigest records pkg's freshly computed digest and clears its stale
// flag; callers set Stale again via MarkStale if a dependent changes
// afterward.
func (g *Graph) SetDigest(name string, d cache.Digest) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if n, ok := g.nodes[name]; ok {
		n.Digest = d
		n.Stale = false
	}
}

// MarkStale flags name and every package that transitively depends on it
// as stale (spec §4.B: "a package is recompiled when its digest changes
// or when any transitively-dependent package becomes stale").
func (g *Graph) MarkStale(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	rdeps := g.reverseEdgesLocked()
	queue := []string{name}
	seen := map[string]bool{name: true}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if n, ok := g.nodes[cur]; ok {
			n.Stale = true
		}
		for _, dependent := range rdeps[cur] {
			if !seen[dependent] {
				seen[dependent] = true
				queue = append(queue, dependent)
			}
		}
	}
}

func (g *Graph) reverseEdgesLocked() map[string][]string {
	rdeps := make(map[string][]string)
	for name, n := range g.nodes {
		for _, dep := range n.Deps {
			rdeps[dep] = append(rdeps[dep], name)
		}
	}
	return rdeps
}

// DepDigests returns the current digest of each of pkg's direct
// dependencies, keyed by dependency name, for ComputeDigest's XOR fold.
func (g *Graph) DepDigests(pkg string) map[string]cache.Digest {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[pkg]
	if !ok {
		return nil
	}
	out := make(map[string]cache.Digest, len(n.Deps))
	for _, dep := range n.Deps {
		if d, ok := g.nodes[dep]; ok {
			out[dep] = d.Digest
		}
	}
	return out
}

// TopoOrder returns every package name in an order where each package
// follows all of its dependencies, using Kahn's algorithm (spec §4.B:
// "compilation proceeds in topological order"). Ties are broken
// alphabetically for deterministic output. Returns an error if the graph
// contains a cycle.
func (g *Graph) TopoOrder() ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	indegree := make(map[string]int, len(g.nodes))
	for name := range g.nodes {
		indegree[name] = 0
	}
	for _, n := range g.nodes {
		for _, dep := range n.Deps {
			if _, ok := g.nodes[dep]; ok {
				indegree[n.Name]++
			}
		}
	}
	rdeps := g.reverseEdgesLocked()

	var ready []string
	for name, deg := range indegree {
		if deg == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	var order []string
	for len(ready) > 0 {
		sort.Strings(ready)
		cur := ready[0]
		ready = ready[1:]
		order = append(order, cur)

		var newlyReady []string
		for _, dependent := range rdeps[cur] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				newlyReady = append(newlyReady, dependent)
			}
		}
		sort.Strings(newlyReady)
		ready = append(ready, newlyReady...)
	}

	if len(order) != len(g.nodes) {
		return nil, errors.New(errCycle)
	}
	return order, nil
}

// CompileBatches groups TopoOrder's result into waves of packages with no
// remaining uncompiled dependency within the wave, so independent
// packages within a wave may compile in parallel while preserving the
// DAG's ordering across waves.
func (g *Graph) CompileBatches() ([][]string, error) {
	g.mu.RLock()
	nodes := make(map[string]*Node, len(g.nodes))
	for k, v := range g.nodes {
		nodes[k] = v
	}
	g.mu.RUnlock()

	indegree := make(map[string]int, len(nodes))
	for name := range nodes {
		indegree[name] = 0
	}
	for _, n := range nodes {
		for _, dep := range n.Deps {
			if _, ok := nodes[dep]; ok {
				indegree[n.Name]++
			}
		}
	}
	rdeps := make(map[string][]string)
	for name, n := range nodes {
		for _, dep := range n.Deps {
			if _, ok := nodes[dep]; ok {
				rdeps[dep] = append(rdeps[dep], name)
			}
		}
	}

	var batches [][]string
	remaining := len(nodes)
	for remaining > 0 {
		var wave []string
		for name, deg := range indegree {
			if deg == 0 {
				wave = append(wave, name)
			}
		}
		if len(wave) == 0 {
			return nil, errors.New(errCycle)
		}
		sort.Strings(wave)
		for _, name := range wave {
			delete(indegree, name)
			remaining--
			for _, dependent := range rdeps[name] {
				indegree[dependent]--
			}
		}
		batches = append(batches, wave)
	}
	return batches, nil
}
