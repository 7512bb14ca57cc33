package graph

import (
	"regexp"
	"strings"
)

// DefaultRelation labels edges whose relation is blank.
const DefaultRelation = "related_to"

const (
	maxMatchedNodes = 5
	maxEdgesPerNode = 10
	maxEdgesTotal   = 20
	maxPathTargets  = 50
	maxPaths        = 5
)

// Edge is a directed, labeled edge between two named entities.
type Edge struct {
	Source   string `json:"source"`
	Relation string `json:"relation"`
	Target   string `json:"target"`
}

// Result is the evidence set for one query: matched entities, their outgoing
// edges, and short undirected paths between matched entities and the rest of
// the graph.
type Result struct {
	MatchedNodes []string   `json:"matched_nodes"`
	Edges        []Edge     `json:"edges"`
	Paths        [][]string `json:"paths"`
}

// Graph is an in-memory directed multigraph. Parallel edges between the same
// node pair are kept when their relations differ; duplicates collapse on a
// normalized (source, relation, target) key. Nodes keep insertion order so
// query results are deterministic.
type Graph struct {
	nodes   []string
	nodeIdx map[string]int
	out     [][]Edge  // outgoing edges per node, insertion order
	und     [][]int   // undirected adjacency (node indices), insertion order
	undSeen []map[int]bool
	seen    map[string]bool // normalized edge keys
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodeIdx: make(map[string]int),
		seen:    make(map[string]bool),
	}
}

var spaceRe = regexp.MustCompile(`\s+`)

// normalize lowercases, trims, and collapses internal whitespace. Used for
// matching and dedup keys only; stored names keep their original form.
func normalize(s string) string {
	return spaceRe.ReplaceAllString(strings.TrimSpace(strings.ToLower(s)), " ")
}

// node interns a node by its exact name. Node identity is the raw string;
// normalization applies to matching and edge dedup only.
func (g *Graph) node(name string) int {
	if i, ok := g.nodeIdx[name]; ok {
		return i
	}
	i := len(g.nodes)
	g.nodeIdx[name] = i
	g.nodes = append(g.nodes, name)
	g.out = append(g.out, nil)
	g.und = append(g.und, nil)
	g.undSeen = append(g.undSeen, make(map[int]bool))
	return i
}

// AddEdge inserts a directed edge. Blank relations get DefaultRelation;
// self-loops are permitted; exact duplicates (by normalized key) are dropped.
func (g *Graph) AddEdge(e Edge) {
	if e.Source == "" || e.Target == "" {
		return
	}
	if e.Relation == "" {
		e.Relation = DefaultRelation
	}
	key := normalize(e.Source) + "\x00" + normalize(e.Relation) + "\x00" + normalize(e.Target)
	if g.seen[key] {
		return
	}
	g.seen[key] = true

	s := g.node(e.Source)
	t := g.node(e.Target)
	g.out[s] = append(g.out[s], e)

	if !g.undSeen[s][t] {
		g.undSeen[s][t] = true
		g.und[s] = append(g.und[s], t)
	}
	if s != t && !g.undSeen[t][s] {
		g.undSeen[t][s] = true
		g.und[t] = append(g.und[t], s)
	}
}

// Build inserts a batch of edges.
func (g *Graph) Build(edges []Edge) {
	for _, e := range edges {
		g.AddEdge(e)
	}
}

// NodeCount returns the number of distinct nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of distinct edges.
func (g *Graph) EdgeCount() int { return len(g.seen) }

// queryTokens lowercases the query, strips surrounding punctuation from each
// word, and discards tokens of length <= 2.
func queryTokens(text string) []string {
	var tokens []string
	for _, w := range strings.Fields(strings.ToLower(text)) {
		t := strings.Trim(w, ".,!?;:()[]{}")
		if len(t) > 2 {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// Query matches nodes by token substring and collects evidence around them.
// Matching is a deliberate heuristic: a short token can over-match and an
// entity phrased differently can under-match; callers treat results as
// best-effort evidence, not exact reasoning.
func (g *Graph) Query(text string, maxHops int) Result {
	res := Result{MatchedNodes: []string{}, Edges: []Edge{}, Paths: [][]string{}}
	tokens := queryTokens(text)
	if len(tokens) == 0 || len(g.nodes) == 0 {
		return res
	}

	var matched []int
	for i, name := range g.nodes {
		lower := strings.ToLower(name)
		for _, t := range tokens {
			if strings.Contains(lower, t) {
				matched = append(matched, i)
				res.MatchedNodes = append(res.MatchedNodes, name)
				break
			}
		}
		if len(matched) >= maxMatchedNodes {
			break
		}
	}

	for _, i := range matched {
		edges := g.out[i]
		if len(edges) > maxEdgesPerNode {
			edges = edges[:maxEdgesPerNode]
		}
		for _, e := range edges {
			if len(res.Edges) >= maxEdgesTotal {
				break
			}
			res.Edges = append(res.Edges, e)
		}
	}

	// Shortest paths on the undirected view, kept when the node count lies in
	// [2, maxHops+1]. Targets are the first maxPathTargets nodes in insertion
	// order; the search stops once maxPaths paths are found.
	for _, s := range matched {
		parents := g.bfs(s)
		limit := len(g.nodes)
		if limit > maxPathTargets {
			limit = maxPathTargets
		}
		for t := 0; t < limit; t++ {
			if t == s {
				continue
			}
			path := reconstruct(parents, s, t)
			if path == nil {
				continue
			}
			if len(path) >= 2 && len(path) <= maxHops+1 {
				names := make([]string, len(path))
				for i, n := range path {
					names[i] = g.nodes[n]
				}
				res.Paths = append(res.Paths, names)
			}
		}
		if len(res.Paths) >= maxPaths {
			break
		}
	}
	if len(res.Paths) > maxPaths {
		res.Paths = res.Paths[:maxPaths]
	}
	return res
}

// bfs returns the BFS parent of every node reachable from start on the
// undirected view (-1 for unreachable, start maps to itself).
func (g *Graph) bfs(start int) []int {
	parents := make([]int, len(g.nodes))
	for i := range parents {
		parents[i] = -1
	}
	parents[start] = start
	queue := []int{start}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, nbr := range g.und[n] {
			if parents[nbr] == -1 {
				parents[nbr] = n
				queue = append(queue, nbr)
			}
		}
	}
	return parents
}

// reconstruct walks parents from target back to start. Returns nil when the
// target is unreachable.
func reconstruct(parents []int, start, target int) []int {
	if parents[target] == -1 {
		return nil
	}
	var rev []int
	for n := target; n != start; n = parents[n] {
		rev = append(rev, n)
	}
	rev = append(rev, start)
	path := make([]int, len(rev))
	for i, n := range rev {
		path[len(rev)-1-i] = n
	}
	return path
}
