package graphfile

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/specialistvlad/proxygraph/internal/entity"
)

// encodeDOT renders doc in the Graphviz DOT language. Edge names are emitted
// as the "key" attribute; defaults with an empty value are omitted.
func encodeDOT(doc *Document) ([]byte, error) {
	desc, err := entity.ParseDesc(doc.Kind)
	if err != nil {
		return nil, err
	}
	var b bytes.Buffer
	if desc.Strict {
		b.WriteString("strict ")
	}
	op := "--"
	if desc.Directed {
		b.WriteString("digraph ")
		op = "->"
	} else {
		b.WriteString("graph ")
	}
	fmt.Fprintf(&b, "%s {\n", quoteID(doc.Name))

	defaults := map[string]map[string]string{}
	for _, d := range doc.Declares {
		if d.Default == "" {
			continue
		}
		if defaults[d.Class] == nil {
			defaults[d.Class] = map[string]string{}
		}
		defaults[d.Class][d.Key] = d.Default
	}
	writeAttrStmt(&b, "\t", "graph", mergeAttrs(defaults["graph"], doc.Attrs))
	writeAttrStmt(&b, "\t", "node", defaults["node"])
	writeAttrStmt(&b, "\t", "edge", defaults["edge"])

	for _, s := range doc.Subgraphs {
		if err := writeSubgraph(&b, "\t", s, doc.Edges, op); err != nil {
			return nil, err
		}
	}
	for _, n := range doc.Nodes {
		fmt.Fprintf(&b, "\t%s%s;\n", quoteID(n.Name), attrList(n.Attrs))
	}
	for _, e := range doc.Edges {
		writeEdge(&b, "\t", e, op)
	}
	b.WriteString("}\n")
	return b.Bytes(), nil
}

func writeSubgraph(b *bytes.Buffer, indent string, s Subgraph, edges []Edge, op string) error {
	fmt.Fprintf(b, "%ssubgraph %s {\n", indent, quoteID(s.Name))
	inner := indent + "\t"
	writeAttrStmt(b, inner, "graph", s.Attrs)
	writeAttrStmt(b, inner, "node", s.NodeDefaults)
	writeAttrStmt(b, inner, "edge", s.EdgeDefaults)
	for _, child := range s.Subgraphs {
		if err := writeSubgraph(b, inner, child, edges, op); err != nil {
			return err
		}
	}
	for _, n := range s.Nodes {
		fmt.Fprintf(b, "%s%s;\n", inner, quoteID(n))
	}
	for _, i := range s.Edges {
		if i < 0 || i >= len(edges) {
			return fmt.Errorf("subgraph %q references edge %d of %d", s.Name, i, len(edges))
		}
		writeEdge(b, inner, edges[i], op)
	}
	fmt.Fprintf(b, "%s}\n", indent)
	return nil
}

func writeEdge(b *bytes.Buffer, indent string, e Edge, op string) {
	attrs := e.Attrs
	if e.Name != "" {
		attrs = mergeAttrs(attrs, map[string]string{"key": e.Name})
	}
	fmt.Fprintf(b, "%s%s %s %s%s;\n", indent, quoteID(e.Tail), op, quoteID(e.Head), attrList(attrs))
}

func writeAttrStmt(b *bytes.Buffer, indent, kind string, attrs map[string]string) {
	if len(attrs) == 0 {
		return
	}
	fmt.Fprintf(b, "%s%s%s;\n", indent, kind, attrList(attrs))
}

func attrList(attrs map[string]string) string {
	if len(attrs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(attrs))
	for _, k := range sortedKeys(attrs) {
		parts = append(parts, quoteID(k)+"="+quoteID(attrs[k]))
	}
	return " [" + strings.Join(parts, ", ") + "]"
}

func mergeAttrs(base, over map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

func quoteID(s string) string {
	return `"` + dotEscaper.Replace(s) + `"`
}
