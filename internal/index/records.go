// Package index holds the record shapes written by the ingestors, the pure
// classification rules that produce them, and the JSON file they are
// persisted in.
package index

// Output file names, one per ingestor.
const (
	DSPIndexFile     = "dsp_index.json"
	JUCEIndexFile    = "juce_docs.json"
	ProjectIndexFile = "project_structure.json"
)

// Processing domains reported for a DSP source file.
const (
	FrequencyDomain = "FrequencyDomain"
	TimeDomain      = "TimeDomain"
	ControlRate     = "ControlRate"
)

// File roles reported for a project source file.
const (
	RoleProcessor = "Processor"
	RoleEditor    = "Editor"
	RoleConfig    = "Config"
	RoleService   = "Service"
)

const (
	// CodeSnippetChars bounds FileRecord.CodeSnippet.
	CodeSnippetChars = 2000
	// SignatureChars bounds ClassRecord.APISignature.
	SignatureChars = 1500

	// NoInheritance is stored when a class has no base list.
	NoInheritance = "None"
	// UnknownModule is stored when no path segment names a library module.
	UnknownModule = "unknown_module"
	// DefaultModulePrefix marks a JUCE module directory.
	DefaultModulePrefix = "juce_"
	// ClassNamespace prefixes every extracted class name.
	ClassNamespace = "juce::"
)

// FileRecord describes one DSP source file.
type FileRecord struct {
	AlgorithmName    string `json:"algorithm_name"`
	ProcessingDomain string `json:"processing_domain"`
	// LatencySamples is reserved; nothing computes it yet.
	LatencySamples int    `json:"latency_samples"`
	SIMDOptimized  bool   `json:"simd_optimized"`
	CodeSnippet    string `json:"code_snippet"`
}

// ClassRecord describes one class declaration found in a JUCE header.
// A class matched twice produces two records.
type ClassRecord struct {
	ClassName    string `json:"class_name"`
	Module       string `json:"module"`
	Inheritance  string `json:"inheritance"`
	APISignature string `json:"api_signature"`
}

// ProjectFileRecord describes one file of a scanned project.
type ProjectFileRecord struct {
	ProjectName string `json:"project_name"`
	FileRole    string `json:"file_role"`
	FilePath    string `json:"file_path"`
	// Dependencies is reserved and always empty.
	Dependencies []string `json:"dependencies"`
}
