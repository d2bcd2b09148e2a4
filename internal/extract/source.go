package extract

import "strings"

// FieldSource resolves a semantic field from an ordered alias list.
// The alias list is a priority list: the first alias with a non-empty value
// wins. Implementations return "" when no alias matches.
type FieldSource interface {
	Resolve(aliases []string) string
}

// MappingSource resolves aliases against a flattened payload.
// Lookup is case-insensitive; stored values keep their original casing.
type MappingSource struct {
	lowered map[string]string
}

// NewMappingSource flattens the payload and indexes it by lower-cased key.
func NewMappingSource(v Value) MappingSource {
	flat := Flatten(v)
	lowered := make(map[string]string, len(flat))
	for k, val := range flat {
		lowered[strings.ToLower(k)] = val
	}
	return MappingSource{lowered: lowered}
}

// Resolve returns the first alias whose value is non-empty after trimming.
func (m MappingSource) Resolve(aliases []string) string {
	for _, alias := range aliases {
		if v, ok := m.lowered[strings.ToLower(alias)]; ok {
			if trimmed := strings.TrimSpace(v); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

// TabularSource resolves aliases against one header row of a bulk export,
// mapping them to column positions.
type TabularSource struct {
	header []string
	lookup map[string]int
}

// NewTabularSource indexes a header row by lower-cased trimmed cell text.
// Blank header cells are not indexed.
func NewTabularSource(header []string) TabularSource {
	lookup := make(map[string]int, len(header))
	for i, cell := range header {
		c := strings.TrimSpace(cell)
		if c == "" {
			continue
		}
		lookup[strings.ToLower(c)] = i
	}
	return TabularSource{header: header, lookup: lookup}
}

// Column returns the position of the first alias present in the header,
// or -1 when no alias matches. A -1 is "column missing", which callers must
// keep distinct from "column present but cell empty".
func (t TabularSource) Column(aliases []string) int {
	for _, alias := range aliases {
		if idx, ok := t.lookup[strings.ToLower(alias)]; ok {
			return idx
		}
	}
	return -1
}

// Resolve returns the header cell text for the first matching alias column.
func (t TabularSource) Resolve(aliases []string) string {
	idx := t.Column(aliases)
	if idx < 0 || idx >= len(t.header) {
		return ""
	}
	return strings.TrimSpace(t.header[idx])
}
