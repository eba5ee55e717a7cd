// Package funcid defines the coarse identity of an instrumented call site.
package funcid

import (
	"fmt"
	"path/filepath"
	"sort"
)

// ID identifies one instrumented call site by source file basename, function
// name, and definition line. Two call sites with the same triple are the same
// function for aggregation purposes; this is deliberately coarse identity,
// not per-invocation identity.
type ID struct {
	File string `json:"file"`
	Name string `json:"name"`
	Line int    `json:"line"`
}

// New builds an ID from an absolute or relative file path, reducing the path
// to its basename.
func New(file, name string, line int) ID {
	return ID{
		File: filepath.Base(file),
		Name: name,
		Line: line,
	}
}

// String renders the ID in file:name:line form.
func (id ID) String() string {
	return fmt.Sprintf("%s:%s:%d", id.File, id.Name, id.Line)
}

// Less orders IDs by file, then name, then line.
func (id ID) Less(other ID) bool {
	if id.File != other.File {
		return id.File < other.File
	}
	if id.Name != other.Name {
		return id.Name < other.Name
	}
	return id.Line < other.Line
}

// Sort orders a slice of IDs in place using Less.
func Sort(ids []ID) {
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].Less(ids[j])
	})
}

// Names returns just the function names, in order. Used by tick-line
// presentation, which mirrors the compact per-second view.
func Names(ids []ID) []string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = id.Name
	}
	return names
}
