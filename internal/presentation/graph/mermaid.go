package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/durafsm/pkg/domain"
)

// Overlay marks an actor's position on the rendered machine.
type Overlay struct {
	CurrentState string
}

// GenerateMermaid produces a Mermaid flowchart of the definition.
// It applies semantic styling:
// - Initial: ((Circle))
// - Entry state: [[Subroutine]]
// - Terminal state: ([Stadium])
// - Default: [Rectangle]
// Event transitions are labelled with the event name; onError routes are dotted.
func GenerateMermaid[C any](def *domain.Definition[C], overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, state := range def.States() {
		node, _ := def.Node(state)
		safeID := sanitizeMermaidID(state)

		opener, closer := "[", "]"
		switch {
		case state == def.Initial():
			opener, closer = "((", "))"
		case node.HasEntry():
			opener, closer = "[[", "]]"
		case len(node.On) == 0:
			opener, closer = "([", "])"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, escape(state), closer)

		for _, event := range def.Events() {
			target, ok := node.On[event]
			if !ok {
				continue
			}
			fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", safeID, escape(event), sanitizeMermaidID(target))
		}
		if node.OnSuccess != "" {
			fmt.Fprintf(&sb, "    %s -- \"onSuccess\" --> %s\n", safeID, sanitizeMermaidID(node.OnSuccess))
		}
		if node.OnError != "" {
			fmt.Fprintf(&sb, "    %s -. \"onError\" .-> %s\n", safeID, sanitizeMermaidID(node.OnError))
		}
	}

	if overlay != nil && overlay.CurrentState != "" {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high contrast regardless of theme
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentState))
	}

	return sb.String()
}

func escape(label string) string {
	return strings.ReplaceAll(label, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_", ":", "_")
	return r.Replace(id)
}
