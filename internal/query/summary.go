package query

import (
	"fmt"
	"sort"
	"strings"

	"melechmcp/internal/index"
)

// Summary describes a loaded index for the index_stats tool.
type Summary struct {
	Name    string
	Path    string
	State   index.State
	Records int
	// Counts groups records by domain, module or role.
	Counts map[string]int
	// Err is the load error of an Empty index.
	Err error
}

// CountBy groups records by key.
func CountBy[T any](records []T, key func(T) string) map[string]int {
	counts := make(map[string]int)
	for _, r := range records {
		counts[key(r)]++
	}
	return counts
}

// SummarizeDSP groups DSP records by processing domain.
func SummarizeDSP(s *index.Snapshot[index.FileRecord]) Summary {
	records := s.Records()
	return newSummary(index.DSPIndexFile, s.Path(), s.State(), s.Err(), len(records),
		CountBy(records, func(r index.FileRecord) string { return r.ProcessingDomain }))
}

// SummarizeJUCE groups class records by module.
func SummarizeJUCE(s *index.Snapshot[index.ClassRecord]) Summary {
	records := s.Records()
	return newSummary(index.JUCEIndexFile, s.Path(), s.State(), s.Err(), len(records),
		CountBy(records, func(r index.ClassRecord) string { return r.Module }))
}

// SummarizeProjects groups project files by role.
func SummarizeProjects(s *index.Snapshot[index.ProjectFileRecord]) Summary {
	records := s.Records()
	return newSummary(index.ProjectIndexFile, s.Path(), s.State(), s.Err(), len(records),
		CountBy(records, func(r index.ProjectFileRecord) string { return r.FileRole }))
}

func newSummary(name, path string, state index.State, err error, n int, counts map[string]int) Summary {
	return Summary{Name: name, Path: path, State: state, Records: n, Counts: counts, Err: err}
}

// String renders the summary with groups sorted by descending count.
func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Index: %s\nState: %s\nRecords: %d", s.Name, s.State, s.Records)
	if s.Path != "" {
		fmt.Fprintf(&b, "\nPath: %s", s.Path)
	}
	if s.Err != nil {
		fmt.Fprintf(&b, "\nLoad error: %v", s.Err)
	}

	keys := make([]string, 0, len(s.Counts))
	for k := range s.Counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if s.Counts[keys[i]] != s.Counts[keys[j]] {
			return s.Counts[keys[i]] > s.Counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	for _, k := range keys {
		fmt.Fprintf(&b, "\n  %s: %d", k, s.Counts[k])
	}
	return b.String()
}
