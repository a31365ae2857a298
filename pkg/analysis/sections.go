package analysis

import (
	"strconv"
	"strings"
)

// Sections is the decoded view of a metric-row sequence: section name ->
// ordered rows, each row a column -> value map.
type Sections map[string][]map[string]string

// ParseSections decodes metric rows into per-section row maps.
//
// Two key encodings exist:
//   - "row<N>:<column>" keys (query policies) place the value at row N
//   - any other key lands on row 0, keeping scalar sections addressable as
//     a single row
func ParseSections(rows []MetricRow) Sections {
	sections := make(Sections)
	for _, r := range rows {
		if r.Section == "" {
			continue
		}
		secRows := sections[r.Section]

		idx := 0
		column := r.Key
		if strings.HasPrefix(r.Key, "row") {
			if prefix, col, ok := strings.Cut(r.Key, ":"); ok {
				if n, err := strconv.Atoi(prefix[3:]); err == nil {
					idx = n
					column = col
				}
			}
		}

		for len(secRows) <= idx {
			secRows = append(secRows, map[string]string{})
		}
		secRows[idx][column] = r.Value
		sections[r.Section] = secRows
	}
	return sections
}

// FirstRow returns the first row of a section, or nil when absent.
func (s Sections) FirstRow(section string) map[string]string {
	rows := s[section]
	if len(rows) == 0 {
		return nil
	}
	return rows[0]
}

// FirstValue returns a column from the first row of a section.
func (s Sections) FirstValue(section, column string) (string, bool) {
	row := s.FirstRow(section)
	if row == nil {
		return "", false
	}
	v, ok := row[column]
	return v, ok
}

// Number returns a column from the first row of a section parsed as a
// float64. The second return is false when the section, column, or a
// parseable number is absent.
func (s Sections) Number(section, column string) (float64, bool) {
	v, ok := s.FirstValue(section, column)
	if !ok {
		return 0, false
	}
	return ToNumber(v)
}

// ToNumber parses a metric-row value as a float64.
func ToNumber(value string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
