// Package layout positions graph nodes on a normalized canvas by delegating
// to an external layout engine and rescaling its output.
package layout

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/callviz-dev/callviz/internal/graph"
)

// ErrMalformedLayout is returned when engine output cannot be interpreted.
var ErrMalformedLayout = errors.New("malformed layout output")

// Engine computes a layout for a graph description and returns the result
// in Graphviz plain text format.
type Engine interface {
	Layout(ctx context.Context, desc string) (string, error)
}

// Grid scales normalized coordinates onto the target canvas.
type Grid struct {
	X float64
	Y float64
}

// DefaultGrid matches the rendering canvas ratio: twice as much vertical
// spread as horizontal.
var DefaultGrid = Grid{X: 1.0, Y: 2.0}

// Normalizer runs an engine over a graph and writes normalized coordinates
// back onto its nodes.
type Normalizer struct {
	engine Engine
	grid   Grid
}

// NewNormalizer creates a normalizer with the given engine and grid.
func NewNormalizer(engine Engine, grid Grid) *Normalizer {
	return &Normalizer{engine: engine, grid: grid}
}

// Apply lays out the graph and assigns each node its normalized position.
// Nodes absent from the engine output keep their previous coordinates;
// engine nodes absent from the graph are an error.
func (n *Normalizer) Apply(ctx context.Context, g *graph.Graph) error {
	if len(g.Nodes()) == 0 {
		return nil
	}

	out, err := n.engine.Layout(ctx, Serialize(g))
	if err != nil {
		return err
	}

	positions, err := parsePlain(out)
	if err != nil {
		return err
	}
	for id, pos := range positions {
		node, err := g.GetNode(id)
		if err != nil {
			return fmt.Errorf("layout produced unknown node: %w", err)
		}
		node.SetCoordinate(n.grid.X*pos.x, n.grid.Y*pos.y)
	}
	return nil
}

// Serialize renders the graph as a DOT digraph. Output is deterministic:
// nodes ordered by display name then ID, neighbor lists deduplicated and
// sorted. Node IDs carry separator characters, so every ID is quoted.
func Serialize(g *graph.Graph) string {
	var b strings.Builder
	b.WriteString("digraph G {\n")
	b.WriteString("  rankdir=LR;\n")

	for _, node := range graph.SortedNodes(g.Nodes()) {
		fmt.Fprintf(&b, "  %s;\n", quote(node.ID))

		targets := make([]string, 0, len(node.LeavingEdges))
		for _, edge := range node.LeavingEdges {
			targets = append(targets, edge.Target.ID)
		}
		sort.Strings(targets)
		for _, target := range targets {
			fmt.Fprintf(&b, "  %s -> %s;\n", quote(node.ID), quote(target))
		}
	}
	b.WriteString("}\n")
	return b.String()
}

type position struct {
	x float64
	y float64
}

// parsePlain extracts node positions from Graphviz plain output and divides
// them by the drawing size, yielding coordinates in [0,1]. Lines other than
// graph and node records are ignored.
func parsePlain(out string) (map[string]position, error) {
	var width, height float64
	raw := make(map[string]position)

	for _, line := range strings.Split(out, "\n") {
		tokens := plainTokens(line)
		if len(tokens) == 0 {
			continue
		}
		switch tokens[0] {
		case "graph":
			if len(tokens) < 4 {
				return nil, fmt.Errorf("%w: short graph line %q", ErrMalformedLayout, line)
			}
			var err error
			if width, err = strconv.ParseFloat(tokens[2], 64); err != nil {
				return nil, fmt.Errorf("%w: graph width %q", ErrMalformedLayout, tokens[2])
			}
			if height, err = strconv.ParseFloat(tokens[3], 64); err != nil {
				return nil, fmt.Errorf("%w: graph height %q", ErrMalformedLayout, tokens[3])
			}
		case "node":
			if len(tokens) < 4 {
				return nil, fmt.Errorf("%w: short node line %q", ErrMalformedLayout, line)
			}
			id := unquote(tokens[1])
			x, err := strconv.ParseFloat(tokens[2], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: node x %q", ErrMalformedLayout, tokens[2])
			}
			y, err := strconv.ParseFloat(tokens[3], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: node y %q", ErrMalformedLayout, tokens[3])
			}
			raw[id] = position{x: x, y: y}
		}
	}

	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: missing or degenerate graph dimensions", ErrMalformedLayout)
	}
	for id, pos := range raw {
		raw[id] = position{x: pos.x / width, y: pos.y / height}
	}
	return raw, nil
}

// plainTokens splits a plain-format line on whitespace, keeping quoted
// fields intact. Node IDs carry file paths, which may contain spaces that
// Graphviz preserves inside quotes.
func plainTokens(line string) []string {
	var tokens []string
	var b strings.Builder
	inQuote := false
	escaped := false
	for _, r := range line {
		switch {
		case escaped:
			b.WriteRune(r)
			escaped = false
		case inQuote && r == '\\':
			b.WriteRune(r)
			escaped = true
		case r == '"':
			inQuote = !inQuote
			b.WriteRune(r)
		case !inQuote && (r == ' ' || r == '\t' || r == '\r'):
			if b.Len() > 0 {
				tokens = append(tokens, b.String())
				b.Reset()
			}
		default:
			b.WriteRune(r)
		}
	}
	if b.Len() > 0 {
		tokens = append(tokens, b.String())
	}
	return tokens
}

func quote(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `\"`) + `"`
}

func unquote(id string) string {
	if len(id) >= 2 && strings.HasPrefix(id, `"`) && strings.HasSuffix(id, `"`) {
		id = id[1 : len(id)-1]
	}
	return strings.ReplaceAll(id, `\"`, `"`)
}
