package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/callviz-dev/callviz/internal/resolver"
)

// ErrNodeNotFound is returned when a node ID has no node in the graph.
var ErrNodeNotFound = errors.New("node not found")

// Node wraps exactly one method. Coordinates stay zero until layout runs.
type Node struct {
	ID            string
	Method        resolver.Method
	X             float64
	Y             float64
	LeavingEdges  map[string]*Edge // edge ID -> edge where this node is the source
	EnteringEdges map[string]*Edge // edge ID -> edge where this node is the target
}

// SetCoordinate assigns the node's normalized canvas position.
func (n *Node) SetCoordinate(x, y float64) {
	n.X = x
	n.Y = y
}

// Edge is a directed call relation: the source method calls the target.
type Edge struct {
	ID     string
	Source *Node
	Target *Node
}

// Graph owns the nodes and edges of one analysis run. It is the sole
// authority for node and edge creation and is not safe for concurrent
// mutation; a single owner populates it after traversal completes.
type Graph struct {
	nodes map[string]*Node
	edges map[string]*Edge
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
		edges: make(map[string]*Edge),
	}
}

// AddNode registers a node for the method, reusing an existing node when
// the method was already added.
func (g *Graph) AddNode(method resolver.Method) *Node {
	if node, ok := g.nodes[method.ID]; ok {
		return node
	}
	node := &Node{
		ID:            method.ID,
		Method:        method,
		LeavingEdges:  make(map[string]*Edge),
		EnteringEdges: make(map[string]*Edge),
	}
	g.nodes[method.ID] = node
	return node
}

// AddEdge registers the directed edge source->target, adding missing
// endpoint nodes first. Duplicate pairs collapse to one edge.
func (g *Graph) AddEdge(source, target resolver.Method) {
	sourceNode := g.AddNode(source)
	targetNode := g.AddNode(target)

	edgeID := edgeID(sourceNode.ID, targetNode.ID)
	if _, ok := g.edges[edgeID]; ok {
		return
	}
	edge := &Edge{ID: edgeID, Source: sourceNode, Target: targetNode}
	g.edges[edgeID] = edge
	sourceNode.LeavingEdges[edgeID] = edge
	targetNode.EnteringEdges[edgeID] = edge
}

// GetNode looks a node up by its identifier.
func (g *Graph) GetNode(id string) (*Node, error) {
	node, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	return node, nil
}

// Nodes returns all nodes in unspecified order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.nodes))
	for _, node := range g.nodes {
		out = append(out, node)
	}
	return out
}

// Edges returns all edges in unspecified order.
func (g *Graph) Edges() []*Edge {
	out := make([]*Edge, 0, len(g.edges))
	for _, edge := range g.edges {
		out = append(out, edge)
	}
	return out
}

// SortedNodes returns nodes ordered by method display name, ties broken by
// node ID, so downstream serialization is reproducible.
func SortedNodes(nodes []*Node) []*Node {
	out := make([]*Node, len(nodes))
	copy(out, nodes)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Method.Name == out[j].Method.Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Method.Name < out[j].Method.Name
	})
	return out
}

func edgeID(sourceID, targetID string) string {
	return sourceID + "->" + targetID
}
