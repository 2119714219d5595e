// Package render writes built graphs to output sinks.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/callviz-dev/callviz/internal/graph"
)

// WriteText dumps the graph in a line-per-element form, nodes before edges,
// both deterministically ordered.
func WriteText(w io.Writer, g *graph.Graph) error {
	for _, node := range graph.SortedNodes(g.Nodes()) {
		_, err := fmt.Fprintf(w, "node %s %s %s:%d (%.3f, %.3f)\n",
			node.Method.Name, node.Method.Kind, node.Method.File, node.Method.Line, node.X, node.Y)
		if err != nil {
			return err
		}
	}
	for _, edge := range sortedEdges(g) {
		if _, err := fmt.Fprintf(w, "edge %s -> %s\n", edge.Source.Method.Name, edge.Target.Method.Name); err != nil {
			return err
		}
	}
	return nil
}

type jsonNode struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Kind string  `json:"kind"`
	File string  `json:"file"`
	Line int     `json:"line"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type jsonEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

type jsonGraph struct {
	Nodes []jsonNode `json:"nodes"`
	Edges []jsonEdge `json:"edges"`
}

// WriteJSON emits the graph as a JSON document with stable ordering.
func WriteJSON(w io.Writer, g *graph.Graph) error {
	doc := jsonGraph{
		Nodes: make([]jsonNode, 0, len(g.Nodes())),
		Edges: make([]jsonEdge, 0, len(g.Edges())),
	}
	for _, node := range graph.SortedNodes(g.Nodes()) {
		doc.Nodes = append(doc.Nodes, jsonNode{
			ID:   node.ID,
			Name: node.Method.Name,
			Kind: node.Method.Kind,
			File: node.Method.File,
			Line: node.Method.Line,
			X:    node.X,
			Y:    node.Y,
		})
	}
	for _, edge := range sortedEdges(g) {
		doc.Edges = append(doc.Edges, jsonEdge{Source: edge.Source.ID, Target: edge.Target.ID})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func sortedEdges(g *graph.Graph) []*graph.Edge {
	edges := g.Edges()
	sort.Slice(edges, func(i, j int) bool { return edges[i].ID < edges[j].ID })
	return edges
}
