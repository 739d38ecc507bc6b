// Package graphfile reads and writes graphs in textual form.
//
// The package works on Document, a neutral description of one root graph
// (declarations, nodes, edges, nested subgraphs). The graph façade converts
// between live graphs and documents; this package only moves documents in
// and out of bytes:
//   - HCL, read and write, through hclparse/gohcl and hclwrite.
//   - YAML, read and write, through gopkg.in/yaml.v3.
//   - DOT, write only, for handing a graph to Graphviz.
//
// A ".zst" suffix on a file name adds zstd framing around any of them. The
// names "stdin" and "stdout" select the process streams.
package graphfile
