package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sushrusha/sushrusha/internal/adapters/evaluator"
)

// GraphOverlay contains dynamic state data to visualize on the graph.
type GraphOverlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// GenerateMermaid produces a Mermaid flowchart of a scenario dialogue graph.
// It applies semantic styling:
// - Start: ((Circle))
// - End: ([Stadium])
// - Node with a critical checklist item: {{Hexagon}}
// - Default: [Rectangle]
// It also applies overlay styles (Visited/Current) if provided.
func GenerateMermaid(s *evaluator.Scenario, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	endReferenced := false
	for _, key := range nodeOrder(s) {
		node := s.Nodes[key]
		safeID := sanitizeMermaidID(key)

		// Node Shape based on role
		opener, closer := "[", "]"
		critical := 0
		for _, item := range node.ExpectedChecklist {
			if item.Critical() {
				critical++
			}
		}
		switch {
		case key == evaluator.StartNodeKey:
			opener, closer = "((", "))" // Circle
		case critical > 0:
			opener, closer = "{{", "}}" // Hexagon
		}

		label := key
		if n := len(node.ExpectedChecklist); n > 0 {
			label = fmt.Sprintf("%s <br/> %d items", key, n)
			if critical > 0 {
				label = fmt.Sprintf("%s, %d critical", label, critical)
			}
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, label, closer)

		// Transitions
		for _, t := range node.Transitions {
			if t.NextNodeKey == evaluator.EndNodeKey {
				endReferenced = true
			}
			safeTo := sanitizeMermaidID(t.NextNodeKey)

			arrow := "-->"
			if t.Condition != "" && t.Condition != "default" {
				// Escape double quotes in condition for Mermaid label
				safeCondition := strings.ReplaceAll(t.Condition, "\"", "'")
				arrow = fmt.Sprintf("-- \"%s\" -->", safeCondition)
			}
			fmt.Fprintf(&sb, "    %s %s %s\n", safeID, arrow, safeTo)
		}
	}
	if endReferenced {
		fmt.Fprintf(&sb, "    %s([\"end\"])\n", sanitizeMermaidID(evaluator.EndNodeKey))
	}

	// Apply Overlay Styles
	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] && safeID != "" {
				visitedSet[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}

		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

// nodeOrder lists the start node first and the rest by key.
func nodeOrder(s *evaluator.Scenario) []string {
	keys := make([]string, 0, len(s.Nodes))
	for key := range s.Nodes {
		if key != evaluator.StartNodeKey {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	if _, ok := s.Nodes[evaluator.StartNodeKey]; ok {
		keys = append([]string{evaluator.StartNodeKey}, keys...)
	}
	return keys
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
