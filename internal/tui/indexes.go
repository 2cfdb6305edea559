package tui

import (
	"strings"

	"melechmcp/internal/index"
	"melechmcp/internal/ingest"
	"melechmcp/internal/query"
)

// indexes holds one snapshot per index kind.
type indexes struct {
	dsp      *index.Snapshot[index.FileRecord]
	juce     *index.Snapshot[index.ClassRecord]
	projects *index.Snapshot[index.ProjectFileRecord]
}

func openIndexes(paths map[ingest.Kind]string) indexes {
	return indexes{
		dsp:      index.Open[index.FileRecord](paths[ingest.KindDSP]),
		juce:     index.Open[index.ClassRecord](paths[ingest.KindJUCE]),
		projects: index.Open[index.ProjectFileRecord](paths[ingest.KindProjects]),
	}
}

func (ix indexes) summary(k ingest.Kind) query.Summary {
	switch k {
	case ingest.KindDSP:
		return query.SummarizeDSP(ix.dsp)
	case ingest.KindJUCE:
		return query.SummarizeJUCE(ix.juce)
	default:
		return query.SummarizeProjects(ix.projects)
	}
}

func (ix indexes) reload(k ingest.Kind) error {
	switch k {
	case ingest.KindDSP:
		return ix.dsp.Reload()
	case ingest.KindJUCE:
		return ix.juce.Reload()
	default:
		return ix.projects.Reload()
	}
}

// empty reports whether k has nothing to search yet.
func (ix indexes) empty(k ingest.Kind) bool {
	s := ix.summary(k)
	return s.State != index.StateLoaded || s.Records == 0
}

// lookup runs the query tool of k. Project lookups take "project [role]".
func (ix indexes) lookup(k ingest.Kind, input string) string {
	switch k {
	case ingest.KindDSP:
		return query.SearchAlgorithms(ix.dsp.Records(), input, "", false)
	case ingest.KindJUCE:
		return query.ClassLookup(ix.juce.Records(), input)
	default:
		project, role := splitProjectQuery(input)
		return query.FindProjectFiles(ix.projects.Records(), project, role)
	}
}

func splitProjectQuery(input string) (project, role string) {
	fields := strings.Fields(input)
	switch len(fields) {
	case 0:
		return "", ""
	case 1:
		return fields[0], ""
	default:
		return fields[0], strings.Join(fields[1:], " ")
	}
}

func kindTitle(k ingest.Kind) string {
	switch k {
	case ingest.KindDSP:
		return "DSP algorithms"
	case ingest.KindJUCE:
		return "JUCE classes"
	default:
		return "Project files"
	}
}

func kindPrompt(k ingest.Kind) string {
	switch k {
	case ingest.KindDSP:
		return "Algorithm name, e.g. gain or fft..."
	case ingest.KindJUCE:
		return "JUCE class name, e.g. AudioBuffer..."
	default:
		return "project [role], e.g. AnalyzerPro Editor..."
	}
}
