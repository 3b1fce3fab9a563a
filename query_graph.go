package girbind

import (
	"fmt"
	"sort"

	"github.com/jward/girbind/internal/store"
)

// NamespaceGraph is the namespace-to-namespace dependency graph of the
// index. Edges come from external type references.
type NamespaceGraph struct {
	Namespaces []*NamespaceNode
	Edges      []*DependencyEdge
}

// NamespaceNode is one indexed namespace with summary counts.
type NamespaceNode struct {
	Name          string
	Version       string
	SymbolCount   int
	CallableCount int
	Includes      []string // declared includes, "Name-Version"
}

// DependencyEdge is a dependency of one namespace on another.
type DependencyEdge struct {
	From       string
	To         string
	References int // external references from From into To
}

// NamespaceGraph returns every indexed namespace and the dependency edges
// between them. Edges into namespaces that are not indexed are kept.
func (q *QueryBuilder) NamespaceGraph() (*NamespaceGraph, error) {
	rows, err := q.store.DB().Query(
		`SELECT n.id, n.name, n.version,
			(SELECT COUNT(*) FROM symbols s WHERE s.namespace_id = n.id),
			(SELECT COUNT(*) FROM callables c WHERE c.namespace_id = n.id)
		 FROM namespaces n
		 ORDER BY n.name`,
	)
	if err != nil {
		return nil, fmt.Errorf("namespace graph: query namespaces: %w", err)
	}
	defer rows.Close()

	type row struct {
		id   int64
		node *NamespaceNode
	}
	var nodes []row
	for rows.Next() {
		r := row{node: &NamespaceNode{Includes: []string{}}}
		if err := rows.Scan(&r.id, &r.node.Name, &r.node.Version, &r.node.SymbolCount, &r.node.CallableCount); err != nil {
			return nil, fmt.Errorf("namespace graph: scan namespace: %w", err)
		}
		nodes = append(nodes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("namespace graph: namespace rows: %w", err)
	}

	graph := &NamespaceGraph{Namespaces: []*NamespaceNode{}, Edges: []*DependencyEdge{}}
	for _, r := range nodes {
		incs, err := q.store.IncludesByNamespace(r.id)
		if err != nil {
			return nil, fmt.Errorf("namespace graph: %w", err)
		}
		for _, inc := range incs {
			r.node.Includes = append(r.node.Includes, inc.Name+"-"+inc.Version)
		}
		graph.Namespaces = append(graph.Namespaces, r.node)
	}

	deps, err := q.store.Dependencies()
	if err != nil {
		return nil, fmt.Errorf("namespace graph: %w", err)
	}
	for _, d := range deps {
		graph.Edges = append(graph.Edges, &DependencyEdge{From: d.From, To: d.To, References: d.References})
	}
	return graph, nil
}

// Dependents returns the indexed namespaces that reference the named
// namespace.
func (q *QueryBuilder) Dependents(namespace string) ([]string, error) {
	names, err := q.store.DependentNamespaces(namespace)
	if err != nil {
		return nil, fmt.Errorf("dependents: %w", err)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// Impact returns the namespaces whose external references are bound to the
// symbol named name in namespace. Those namespaces carry stale decisions
// when the symbol changes.
func (q *QueryBuilder) Impact(namespace, name string) ([]string, error) {
	sym, err := q.store.SymbolByQualifiedName(namespace, name)
	if err != nil {
		return nil, fmt.Errorf("impact: %w", err)
	}
	if sym == nil {
		return []string{}, nil
	}
	names, err := q.store.NamespacesReferencingSymbols([]int64{sym.ID})
	if err != nil {
		return nil, fmt.Errorf("impact: %w", err)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// ReferencesTo returns every linked type reference targeting the symbol
// named name in namespace.
func (q *QueryBuilder) ReferencesTo(namespace, name string) ([]*store.TypeReference, error) {
	sym, err := q.store.SymbolByQualifiedName(namespace, name)
	if err != nil {
		return nil, fmt.Errorf("references to: %w", err)
	}
	if sym == nil {
		return []*store.TypeReference{}, nil
	}
	refs, err := q.store.ReferencesToSymbol(sym.ID)
	if err != nil {
		return nil, fmt.Errorf("references to: %w", err)
	}
	if refs == nil {
		refs = []*store.TypeReference{}
	}
	return refs, nil
}

// CircularDependencies detects cycles in the namespace dependency graph
// using Tarjan's strongly connected components algorithm.
// Returns a list of cycles, each represented as a list of namespace names
// (first element repeated at end for clarity).
// Returns empty list (not nil) for acyclic graphs.
func (q *QueryBuilder) CircularDependencies() ([][]string, error) {
	graph, err := q.NamespaceGraph()
	if err != nil {
		return nil, fmt.Errorf("circular dependencies: %w", err)
	}

	adj := map[string][]string{}
	selfLoops := map[string]bool{}
	for _, edge := range graph.Edges {
		if edge.From == edge.To {
			selfLoops[edge.From] = true
		}
		adj[edge.From] = append(adj[edge.From], edge.To)
	}

	// Tarjan's SCC algorithm.
	type nodeInfo struct {
		index   int
		lowlink int
		onStack bool
	}
	info := map[string]*nodeInfo{}
	index := 0
	var stack []string
	var result [][]string

	var strongconnect func(v string)
	strongconnect = func(v string) {
		ni := &nodeInfo{index: index, lowlink: index, onStack: true}
		info[v] = ni
		index++
		stack = append(stack, v)

		for _, w := range adj[v] {
			wInfo, visited := info[w]
			if !visited {
				strongconnect(w)
				wInfo = info[w]
				if wInfo.lowlink < ni.lowlink {
					ni.lowlink = wInfo.lowlink
				}
			} else if wInfo.onStack {
				if wInfo.index < ni.lowlink {
					ni.lowlink = wInfo.index
				}
			}
		}

		if ni.lowlink == ni.index {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				info[w].onStack = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			// Only report SCCs with size > 1 (actual cycles) or self-loops.
			if len(scc) > 1 || selfLoops[scc[0]] {
				// Tarjan pops in reverse.
				for i, j := 0, len(scc)-1; i < j; i, j = i+1, j-1 {
					scc[i], scc[j] = scc[j], scc[i]
				}
				scc = append(scc, scc[0])
				result = append(result, scc)
			}
		}
	}

	// Edge targets that are not indexed are visited through adj.
	for _, ns := range graph.Namespaces {
		if _, visited := info[ns.Name]; !visited {
			strongconnect(ns.Name)
		}
	}

	if result == nil {
		result = [][]string{}
	}

	// Sort for deterministic output.
	sort.Slice(result, func(i, j int) bool {
		return result[i][0] < result[j][0]
	})

	return result, nil
}
