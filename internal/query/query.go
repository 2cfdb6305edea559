// Package query answers lookups against loaded index records. Every
// function is a linear scan that keeps the order of the records it is
// given; matching is case-insensitive substring containment.
package query

import (
	"fmt"
	"strings"

	"melechmcp/internal/index"
)

const (
	// MaxClassResults caps the blocks returned by ClassLookup.
	MaxClassResults = 2
	// FieldChars bounds any single field embedded in an answer.
	FieldChars = 800

	// Separator is the horizontal rule between result blocks.
	Separator = "\n---\n"
)

// MsgEmptyClassName is returned when ClassLookup gets a blank name.
const MsgEmptyClassName = "Please provide a JUCE class name."

func contains(field, needle string) bool {
	return strings.Contains(strings.ToLower(field), strings.ToLower(needle))
}

// ClassLookup returns up to MaxClassResults classes whose name contains name.
func ClassLookup(records []index.ClassRecord, name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return MsgEmptyClassName
	}

	var blocks []string
	for _, r := range records {
		if !contains(r.ClassName, name) {
			continue
		}
		blocks = append(blocks, formatClass(r))
		if len(blocks) == MaxClassResults {
			break
		}
	}
	if len(blocks) == 0 {
		return fmt.Sprintf("No JUCE class found matching %q.", name)
	}
	return strings.Join(blocks, Separator)
}

func formatClass(r index.ClassRecord) string {
	return fmt.Sprintf("Class: %s\nModule: %s\nInherits: %s\nSignature:\n%s",
		r.ClassName, r.Module, r.Inheritance, index.Truncate(r.APISignature, FieldChars))
}

// FindProjectFiles lists every file whose project and role contain the given
// fragments, one entry per file joined by Separator. A blank fragment
// matches everything, but at least one must be given.
func FindProjectFiles(records []index.ProjectFileRecord, project, role string) string {
	project = strings.TrimSpace(project)
	role = strings.TrimSpace(role)
	if project == "" && role == "" {
		return "Please provide a project name or a file role."
	}

	var blocks []string
	for _, r := range records {
		if project != "" && !contains(r.ProjectName, project) {
			continue
		}
		if role != "" && !contains(r.FileRole, role) {
			continue
		}
		blocks = append(blocks, fmt.Sprintf("[%s] %s: %s", r.FileRole, r.ProjectName, r.FilePath))
	}
	if len(blocks) == 0 {
		return fmt.Sprintf("No project files found for project %q and role %q.", project, role)
	}
	return strings.Join(blocks, Separator)
}

// SearchAlgorithms lists DSP files whose algorithm name contains q. A
// non-empty domain must match processing_domain the same way; simdOnly
// keeps SIMD-optimized files only.
func SearchAlgorithms(records []index.FileRecord, q, domain string, simdOnly bool) string {
	q = strings.TrimSpace(q)
	domain = strings.TrimSpace(domain)

	var blocks []string
	for _, r := range records {
		if !contains(r.AlgorithmName, q) {
			continue
		}
		if domain != "" && !contains(r.ProcessingDomain, domain) {
			continue
		}
		if simdOnly && !r.SIMDOptimized {
			continue
		}
		blocks = append(blocks, formatAlgorithm(r))
	}
	if len(blocks) == 0 {
		return fmt.Sprintf("No DSP algorithms found matching %q.", q)
	}
	return strings.Join(blocks, Separator)
}

func formatAlgorithm(r index.FileRecord) string {
	simd := "no"
	if r.SIMDOptimized {
		simd = "yes"
	}
	return fmt.Sprintf("Algorithm: %s\nDomain: %s\nSIMD: %s\nLatency: %d samples\nCode:\n%s",
		r.AlgorithmName, r.ProcessingDomain, simd, r.LatencySamples,
		index.Truncate(r.CodeSnippet, FieldChars))
}
