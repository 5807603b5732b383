// Package graph renders one diagram per flow for the CLI's -graph mode.
// Grounded in the teacher's pkg/visualization: a small Renderer interface
// with a Mermaid and an ASCII implementation. The pack carries no Graphviz
// binding, so "svg" here means a Mermaid flowchart written to a .mmd
// file — Mermaid renders to SVG through its own CLI/web tooling, which
// is the same division of labor the teacher's own CLI -output flag
// leaves to the caller.
package graph

import (
	"fmt"
	"strings"

	"flowc/pkg/model"
)

// Renderer converts a flow into a diagram source string.
type Renderer interface {
	Render(flow *model.Flow) (string, error)
	Format() string
}

// Resolve picks a Renderer by the -graph-format name. "svg" is accepted
// as an alias for "mermaid" since that is the closest format this
// package can actually emit.
func Resolve(format string) (Renderer, error) {
	switch strings.ToLower(format) {
	case "", "svg", "mermaid":
		return &MermaidRenderer{}, nil
	case "ascii":
		return &ASCIIRenderer{}, nil
	default:
		return nil, fmt.Errorf("unsupported graph format %q", format)
	}
}

// MermaidRenderer renders a flow as a Mermaid flowchart.
type MermaidRenderer struct{}

func (r *MermaidRenderer) Format() string { return "mermaid" }

func (r *MermaidRenderer) Render(flow *model.Flow) (string, error) {
	if flow == nil {
		return "", fmt.Errorf("flow is nil")
	}

	var sb strings.Builder
	sb.WriteString("flowchart TB\n")

	for i, edge := range flow.Edges {
		from := edgeLabel(edge.NodesFrom, "start")
		to := edgeLabel(edge.NodesTo, fmt.Sprintf("sink%d", i))
		if edge.Predicate != nil && edge.Predicate.Kind != model.PredicateAlwaysTrue {
			sb.WriteString(fmt.Sprintf("    %s -->|%s| %s\n", from, edge.Predicate.ToSource(), to))
		} else {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", from, to))
		}
	}

	return sb.String(), nil
}

// ASCIIRenderer renders a flow as its name followed by one indented line
// per edge, in edge order; edges are not grouped by source node.
type ASCIIRenderer struct{}

func (r *ASCIIRenderer) Format() string { return "ascii" }

func (r *ASCIIRenderer) Render(flow *model.Flow) (string, error) {
	if flow == nil {
		return "", fmt.Errorf("flow is nil")
	}

	var sb strings.Builder
	sb.WriteString(flow.Name)
	sb.WriteString("\n")
	for _, edge := range flow.Edges {
		from := edgeLabel(edge.NodesFrom, "(start)")
		to := edgeLabel(edge.NodesTo, "(none)")
		sb.WriteString(fmt.Sprintf("  %s => %s\n", from, to))
	}
	return sb.String(), nil
}

func edgeLabel(nodes []model.Node, empty string) string {
	if len(nodes) == 0 {
		return empty
	}
	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = n.NodeName()
	}
	return strings.Join(names, "&")
}
