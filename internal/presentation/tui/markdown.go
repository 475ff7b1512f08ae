package tui

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/stash/pkg/registry"
)

// SessionList formats session IDs as a markdown list.
func SessionList(ids []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Sessions (%d)\n\n", len(ids))
	if len(ids) == 0 {
		b.WriteString("_No stored sessions._\n")
		return b.String()
	}
	for _, id := range ids {
		fmt.Fprintf(&b, "- `%s`\n", id)
	}
	return b.String()
}

// SessionReport formats the namespaces of a session as markdown, one table per namespace.
func SessionReport(sessionID string, infos []registry.NamespaceInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Session `%s`\n\n", sessionID)
	if len(infos) == 0 {
		b.WriteString("_No namespaces._\n")
		return b.String()
	}

	for _, info := range infos {
		state := "unlocked"
		if info.Locked {
			state = "**locked**"
		}
		fmt.Fprintf(&b, "## %s (%s)\n\n", info.Name, state)

		if !info.Exists {
			b.WriteString("_Destroyed._\n\n")
			continue
		}
		if len(info.Data) == 0 {
			b.WriteString("_Empty._\n\n")
			continue
		}

		keys := make([]string, 0, len(info.Data))
		for k := range info.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString("| key | value |\n|---|---|\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "| %s | %s |\n", escapeCell(k), escapeCell(formatValue(info.Data[k])))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatValue(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return "`" + string(raw) + "`"
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
