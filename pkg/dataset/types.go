package dataset

import "strings"

// TableName is the fixed table every ingested dataset lands in.
const TableName = "data"

// Schema describes an ingested dataset's relation: the table name and its
// column names in declaration order. Policies derive everything they compute
// from this plus their own role tables; they never see row-level data.
type Schema struct {
	Table   string
	Columns []string
}

// HasColumn reports whether the schema contains the named column,
// case-insensitively, and returns the actual column name.
func (s Schema) HasColumn(name string) (string, bool) {
	lower := strings.ToLower(name)
	for _, c := range s.Columns {
		if strings.ToLower(c) == lower {
			return c, true
		}
	}
	return "", false
}

// Roles carries user-provided role hints: logical role name -> candidate
// column names, tried in order before a policy falls back to its own
// synonym table.
type Roles map[string][]string
