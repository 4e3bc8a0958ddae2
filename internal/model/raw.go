package model

import (
	"slices"
	"sort"
)

// RawTable is a holdings table as a source delivers it: broker specific
// column names and loosely typed cells.
type RawTable struct {
	Columns []string
	Rows    []map[string]any
}

// NewRawTable collects the union of row keys as columns. Keys first seen in
// the same row are ordered alphabetically.
func NewRawTable(rows []map[string]any) RawTable {
	seen := make(map[string]struct{})
	columns := make([]string, 0)
	for _, row := range rows {
		keys := make([]string, 0, len(row))
		for k := range row {
			if _, ok := seen[k]; ok {
				continue
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			seen[k] = struct{}{}
		}
		columns = append(columns, keys...)
	}

	return RawTable{Columns: columns, Rows: rows}
}

func (t RawTable) Empty() bool {
	return len(t.Rows) == 0
}

func (t RawTable) HasColumn(name string) bool {
	return slices.Contains(t.Columns, name)
}
