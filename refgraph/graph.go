// Package refgraph builds the cross-reference graph linking requirements,
// user stories, tasks, and principles. The graph is built once per analysis
// run from the complete entity universe and is read-only afterwards.
package refgraph

import (
	"regexp"
	"sort"

	"github.com/c360studio/specgate/artifact"
)

// Relation classifies a cross-reference edge.
type Relation string

const (
	// RelationSatisfies links a task (or story) to the requirement it covers.
	RelationSatisfies Relation = "satisfies"
	// RelationDependsOn links a task to a task that must complete first.
	RelationDependsOn Relation = "dependsOn"
	// RelationViolates links an entity to a principle it conflicts with.
	RelationViolates Relation = "violates"
)

// Edge is a cross-reference between two entity ids.
type Edge struct {
	From     string   `json:"from"`
	To       string   `json:"to"`
	Relation Relation `json:"relation"`
}

// Dangling records a reference whose target id is unknown. Dangling
// references are findings, never fatal.
type Dangling struct {
	// FromID is the entity holding the reference
	FromID string `json:"from"`

	// Label is the id that failed to resolve
	Label string `json:"label"`

	// Relation is the edge kind that would have been created
	Relation Relation `json:"relation"`

	// Location is where the reference appears
	Location artifact.Location `json:"location"`
}

var frIDRe = regexp.MustCompile(`\bFR-\d+\b`)

// Graph is the navigable cross-reference graph.
type Graph struct {
	nodes     map[string]bool
	edges     []Edge
	satisfies map[string][]string
	dependsOn map[string][]string
	inDegree  map[string]int

	// Dangling lists references that did not resolve, in source order.
	Dangling []Dangling
}

// Build constructs the graph from the extracted entity universe. Edges are
// inferred from explicit in-text markers only: bracketed requirement
// references on tasks, "depends on Tnnn" clauses, and FR ids named in user
// story text.
func Build(set *artifact.EntitySet) *Graph {
	g := &Graph{
		nodes:     make(map[string]bool),
		satisfies: make(map[string][]string),
		dependsOn: make(map[string][]string),
		inDegree:  make(map[string]int),
	}

	for _, r := range set.Requirements {
		g.nodes[r.ID] = true
	}
	for _, t := range set.Tasks {
		g.nodes[t.ID] = true
	}
	for _, p := range set.Principles {
		g.nodes[p.ID] = true
	}

	// Task → requirement/story satisfies edges
	for _, t := range set.Tasks {
		for _, ref := range t.Refs {
			if !g.nodes[ref] {
				g.Dangling = append(g.Dangling, Dangling{
					FromID:   t.ID,
					Label:    ref,
					Relation: RelationSatisfies,
					Location: t.Location,
				})
				continue
			}
			g.addEdge(t.ID, ref, RelationSatisfies)
		}

		for _, dep := range t.DependsOn {
			if !g.nodes[dep] {
				g.Dangling = append(g.Dangling, Dangling{
					FromID:   t.ID,
					Label:    dep,
					Relation: RelationDependsOn,
					Location: t.Location,
				})
				continue
			}
			g.addEdge(t.ID, dep, RelationDependsOn)
		}
	}

	// Story → requirement satisfies edges, so coverage flows through
	// stories transitively (T001 → US1 → FR-1 covers FR-1).
	for _, r := range set.Requirements {
		if !r.IsStory() {
			continue
		}
		text := r.Text
		for _, c := range r.AcceptanceCriteria {
			text += " " + c
		}
		seen := make(map[string]bool)
		for _, fr := range frIDRe.FindAllString(text, -1) {
			if seen[fr] {
				continue
			}
			seen[fr] = true
			if !g.nodes[fr] {
				g.Dangling = append(g.Dangling, Dangling{
					FromID:   r.ID,
					Label:    fr,
					Relation: RelationSatisfies,
					Location: r.Location,
				})
				continue
			}
			g.addEdge(r.ID, fr, RelationSatisfies)
		}
	}

	return g
}

func (g *Graph) addEdge(from, to string, relation Relation) {
	g.edges = append(g.edges, Edge{From: from, To: to, Relation: relation})
	switch relation {
	case RelationSatisfies:
		g.satisfies[from] = append(g.satisfies[from], to)
		g.inDegree[to]++
	case RelationDependsOn:
		g.dependsOn[from] = append(g.dependsOn[from], to)
	}
}

// Nodes returns all node ids in sorted order.
func (g *Graph) Nodes() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []Edge {
	return g.edges
}

// HasNode returns true if the id is a known entity.
func (g *Graph) HasNode(id string) bool {
	return g.nodes[id]
}

// Satisfies returns the satisfies targets of an entity.
func (g *Graph) Satisfies(id string) []string {
	return g.satisfies[id]
}

// SatisfiesInDegree returns how many satisfies edges point at an entity.
// A requirement with in-degree 0 is an orphan for coverage purposes.
func (g *Graph) SatisfiesInDegree(id string) int {
	return g.inDegree[id]
}

// IsMapped returns true if the entity has at least one outgoing satisfies
// edge (a task that maps to some requirement or story).
func (g *Graph) IsMapped(id string) bool {
	return len(g.satisfies[id]) > 0
}

// Reachable returns every node reachable from the given starting nodes via
// satisfies edges. Used for coverage: a requirement is covered when it is
// reachable from at least one task.
func (g *Graph) Reachable(from []string) map[string]bool {
	visited := make(map[string]bool)
	var visit func(id string)
	visit = func(id string) {
		for _, next := range g.satisfies[id] {
			if !visited[next] {
				visited[next] = true
				visit(next)
			}
		}
	}
	for _, id := range from {
		visit(id)
	}
	return visited
}
