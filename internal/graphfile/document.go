package graphfile

import "slices"

// Declare is one declared attribute with its default value.
type Declare struct {
	Class   string `yaml:"class"`
	Key     string `yaml:"key"`
	Default string `yaml:"default"`
}

// Node is a node and the attribute values set on it.
type Node struct {
	Name  string            `yaml:"name"`
	Attrs map[string]string `yaml:"attrs,omitempty"`
}

// Edge is an edge between two named nodes.
type Edge struct {
	Name  string            `yaml:"name,omitempty"`
	Tail  string            `yaml:"tail"`
	Head  string            `yaml:"head"`
	Attrs map[string]string `yaml:"attrs,omitempty"`
}

// Subgraph lists the members of a subgraph. Nodes are referenced by name and
// edges by their position in Document.Edges.
type Subgraph struct {
	Name         string            `yaml:"name"`
	Attrs        map[string]string `yaml:"attrs,omitempty"`
	NodeDefaults map[string]string `yaml:"node_defaults,omitempty"`
	EdgeDefaults map[string]string `yaml:"edge_defaults,omitempty"`
	Nodes        []string          `yaml:"nodes,omitempty"`
	Edges        []int             `yaml:"edges,omitempty"`
	Subgraphs    []Subgraph        `yaml:"subgraphs,omitempty"`
}

// Document describes one root graph.
type Document struct {
	Name      string            `yaml:"name"`
	Kind      string            `yaml:"kind"`
	Attrs     map[string]string `yaml:"attrs,omitempty"`
	Declares  []Declare         `yaml:"declares,omitempty"`
	Nodes     []Node            `yaml:"nodes,omitempty"`
	Edges     []Edge            `yaml:"edges,omitempty"`
	Subgraphs []Subgraph        `yaml:"subgraphs,omitempty"`
}

// Stats summarizes a document.
type Stats struct {
	Nodes     int
	Edges     int
	Subgraphs int
	Declares  int
}

// Stats counts the entities described by d, nested subgraphs included.
func (d *Document) Stats() Stats {
	s := Stats{Nodes: len(d.Nodes), Edges: len(d.Edges), Declares: len(d.Declares)}
	var walk func([]Subgraph)
	walk = func(subs []Subgraph) {
		for _, sg := range subs {
			s.Subgraphs++
			walk(sg.Subgraphs)
		}
	}
	walk(d.Subgraphs)
	return s
}

// sortedKeys returns the keys of m in sorted order.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
