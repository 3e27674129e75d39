package main

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/addons-ops/blocktool/pkg/blocklist"
	f "github.com/addons-ops/blocktool/pkg/functional"
)

type OutputFormat string

const (
	FormatDefault OutputFormat = "default"
	FormatOneLine OutputFormat = "one-line"
	FormatJSON    OutputFormat = "json"
)

var allowedFormats = []string{string(FormatDefault), string(FormatOneLine), string(FormatJSON)}

func validateFormat(format string) (OutputFormat, error) {
	if !slices.Contains(allowedFormats, format) {
		return "", fmt.Errorf("invalid format %s. Must be one of %s", format, strings.Join(allowedFormats, ", "))
	}
	return OutputFormat(format), nil
}

func describeMatch(m blocklist.Match) string {
	var flags []string
	if id, ok := m.Entry.BugID(); ok {
		flags = append(flags, fmt.Sprintf("bug %d", id))
	}
	if len(m.Entry.VersionRanges) > 0 {
		flags = append(flags, m.Entry.VersionRanges[0].Severity.String())
	}
	if !m.Entry.Enabled {
		flags = append(flags, "disabled")
	}
	line := m.Guid
	if len(flags) > 0 {
		line += " (" + strings.Join(flags, ", ") + ")"
	}
	if m.Entry.IsRegex() {
		line += " <- " + m.Entry.GuidPattern
	}
	return line
}

func formatClassification(result blocklist.Classification, format OutputFormat) (string, error) {
	switch format {
	case FormatOneLine:
		return fmt.Sprintf("existing: %s | new: %s",
			strings.Join(f.Map(result.Existing, func(m blocklist.Match) string { return m.Guid }), " "),
			strings.Join(result.New, " "),
		), nil
	case FormatJSON:
		out := struct {
			Existing map[string]string `json:"existing"`
			New      []string          `json:"new"`
		}{
			Existing: make(map[string]string, len(result.Existing)),
			New:      result.New,
		}
		for _, m := range result.Existing {
			out.Existing[m.Guid] = m.Entry.GuidPattern
		}
		encoded, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return "", err
		}
		return string(encoded), nil
	default:
		var b strings.Builder
		fmt.Fprintf(&b, "Already blocked (%d):\n", len(result.Existing))
		for _, m := range result.Existing {
			fmt.Fprintf(&b, "  %s\n", describeMatch(m))
		}
		fmt.Fprintf(&b, "New (%d):\n", len(result.New))
		for _, guid := range result.New {
			fmt.Fprintf(&b, "  %s\n", guid)
		}
		return strings.TrimRight(b.String(), "\n"), nil
	}
}
