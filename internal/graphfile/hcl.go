package graphfile

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
)

// hclFile is the root of a graph file:
//
//	graph "G" {
//	  kind  = "directed"
//	  attrs = { rankdir = "LR" }
//	  declare "node" "shape" { default = "ellipse" }
//	  node "a" { attrs = { shape = "box" } }
//	  edge "a" "b" { name = "e1" }
//	  subgraph "cluster" { nodes = ["a"] edges = [0] }
//	}
type hclFile struct {
	Graph hclGraph `hcl:"graph,block"`
}

type hclGraph struct {
	Name      string            `hcl:"name,label"`
	Kind      string            `hcl:"kind,optional"`
	Attrs     map[string]string `hcl:"attrs,optional"`
	Declares  []hclDeclare      `hcl:"declare,block"`
	Nodes     []hclNode         `hcl:"node,block"`
	Edges     []hclEdge         `hcl:"edge,block"`
	Subgraphs []hclSubgraph     `hcl:"subgraph,block"`
}

type hclDeclare struct {
	Class   string `hcl:"class,label"`
	Key     string `hcl:"key,label"`
	Default string `hcl:"default,optional"`
}

type hclNode struct {
	Name  string            `hcl:"name,label"`
	Attrs map[string]string `hcl:"attrs,optional"`
}

type hclEdge struct {
	Tail  string            `hcl:"tail,label"`
	Head  string            `hcl:"head,label"`
	Name  string            `hcl:"name,optional"`
	Attrs map[string]string `hcl:"attrs,optional"`
}

type hclSubgraph struct {
	Name         string            `hcl:"name,label"`
	Attrs        map[string]string `hcl:"attrs,optional"`
	NodeDefaults map[string]string `hcl:"node_defaults,optional"`
	EdgeDefaults map[string]string `hcl:"edge_defaults,optional"`
	Nodes        []string          `hcl:"nodes,optional"`
	Edges        []int             `hcl:"edges,optional"`
	Subgraphs    []hclSubgraph     `hcl:"subgraph,block"`
}

func decodeHCL(src []byte, name string) (*Document, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, name)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", name, diags)
	}
	var root hclFile
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", name, diags)
	}

	g := root.Graph
	doc := &Document{Name: g.Name, Kind: g.Kind, Attrs: g.Attrs}
	for _, d := range g.Declares {
		doc.Declares = append(doc.Declares, Declare(d))
	}
	for _, n := range g.Nodes {
		doc.Nodes = append(doc.Nodes, Node(n))
	}
	for _, e := range g.Edges {
		doc.Edges = append(doc.Edges, Edge{Name: e.Name, Tail: e.Tail, Head: e.Head, Attrs: e.Attrs})
	}
	doc.Subgraphs = fromHCLSubgraphs(g.Subgraphs)
	return doc, nil
}

func fromHCLSubgraphs(in []hclSubgraph) []Subgraph {
	var out []Subgraph
	for _, s := range in {
		out = append(out, Subgraph{
			Name:         s.Name,
			Attrs:        s.Attrs,
			NodeDefaults: s.NodeDefaults,
			EdgeDefaults: s.EdgeDefaults,
			Nodes:        s.Nodes,
			Edges:        s.Edges,
			Subgraphs:    fromHCLSubgraphs(s.Subgraphs),
		})
	}
	return out
}

func encodeHCL(doc *Document) ([]byte, error) {
	f := hclwrite.NewEmptyFile()
	gb := f.Body().AppendNewBlock("graph", []string{doc.Name}).Body()
	gb.SetAttributeValue("kind", cty.StringVal(doc.Kind))
	setStringMap(gb, "attrs", doc.Attrs)

	for _, d := range doc.Declares {
		gb.AppendNewline()
		db := gb.AppendNewBlock("declare", []string{d.Class, d.Key}).Body()
		db.SetAttributeValue("default", cty.StringVal(d.Default))
	}
	for _, n := range doc.Nodes {
		gb.AppendNewline()
		nb := gb.AppendNewBlock("node", []string{n.Name}).Body()
		setStringMap(nb, "attrs", n.Attrs)
	}
	for _, e := range doc.Edges {
		gb.AppendNewline()
		eb := gb.AppendNewBlock("edge", []string{e.Tail, e.Head}).Body()
		if e.Name != "" {
			eb.SetAttributeValue("name", cty.StringVal(e.Name))
		}
		setStringMap(eb, "attrs", e.Attrs)
	}
	for _, s := range doc.Subgraphs {
		gb.AppendNewline()
		if err := appendHCLSubgraph(gb, s, len(doc.Edges)); err != nil {
			return nil, err
		}
	}
	return f.Bytes(), nil
}

func appendHCLSubgraph(parent *hclwrite.Body, s Subgraph, edgeCount int) error {
	b := parent.AppendNewBlock("subgraph", []string{s.Name}).Body()
	setStringMap(b, "attrs", s.Attrs)
	setStringMap(b, "node_defaults", s.NodeDefaults)
	setStringMap(b, "edge_defaults", s.EdgeDefaults)
	if len(s.Nodes) > 0 {
		names := make([]cty.Value, len(s.Nodes))
		for i, n := range s.Nodes {
			names[i] = cty.StringVal(n)
		}
		b.SetAttributeValue("nodes", cty.ListVal(names))
	}
	if len(s.Edges) > 0 {
		refs := make([]cty.Value, len(s.Edges))
		for i, e := range s.Edges {
			if e < 0 || e >= edgeCount {
				return fmt.Errorf("subgraph %q references edge %d of %d", s.Name, e, edgeCount)
			}
			refs[i] = cty.NumberIntVal(int64(e))
		}
		b.SetAttributeValue("edges", cty.ListVal(refs))
	}
	for _, child := range s.Subgraphs {
		if err := appendHCLSubgraph(b, child, edgeCount); err != nil {
			return err
		}
	}
	return nil
}

func setStringMap(b *hclwrite.Body, name string, m map[string]string) {
	if len(m) == 0 {
		return
	}
	vals := make(map[string]cty.Value, len(m))
	for _, k := range sortedKeys(m) {
		vals[k] = cty.StringVal(m[k])
	}
	b.SetAttributeValue(name, cty.MapVal(vals))
}
