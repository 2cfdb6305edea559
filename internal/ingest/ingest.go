// Package ingest walks source trees and builds the three JSON indexes.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"melechmcp/internal/index"
	"melechmcp/internal/walker"
)

// ErrMissingRoot is returned when a scan root does not exist. Callers treat
// it as a reported, non-fatal condition.
var ErrMissingRoot = errors.New("scan root does not exist")

var errInvalidUTF8 = errors.New("not valid UTF-8")

// Kind names one of the three indexes.
type Kind string

const (
	KindDSP      Kind = "dsp"
	KindJUCE     Kind = "juce"
	KindProjects Kind = "projects"
)

// Kinds lists every index in a stable order.
var Kinds = []Kind{KindDSP, KindJUCE, KindProjects}

// FileName is the index file written for k.
func (k Kind) FileName() string {
	switch k {
	case KindDSP:
		return index.DSPIndexFile
	case KindJUCE:
		return index.JUCEIndexFile
	case KindProjects:
		return index.ProjectIndexFile
	}
	return ""
}

// ParseKind accepts "dsp", "juce" or "projects".
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown index %q (want dsp, juce or projects)", s)
}

// Stats reports one ingest run.
type Stats struct {
	FilesTotal   int
	FilesIndexed int
	FilesSkipped int
	Records      int
}

// ProgressFunc is called after each visited file.
type ProgressFunc func(message string, current, total int)

// Sources are the scan roots for every index.
type Sources struct {
	DSPRoot      string
	JUCERoot     string
	ModulePrefix string
	ProjectRoots []string
}

// Scanner runs ingest walks. The zero value is not usable; call New.
type Scanner struct {
	log        *zap.Logger
	onProgress ProgressFunc
}

// New returns a Scanner logging to log.
func New(log *zap.Logger) *Scanner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scanner{log: log}
}

// WithProgress sets a callback invoked for every visited file.
func (s *Scanner) WithProgress(fn ProgressFunc) *Scanner {
	s.onProgress = fn
	return s
}

// Build scans the sources for kind and overwrites outPath with the result.
// On ErrMissingRoot nothing is written.
func (s *Scanner) Build(ctx context.Context, kind Kind, src Sources, outPath string) (Stats, error) {
	switch kind {
	case KindDSP:
		records, stats, err := s.ScanDSP(ctx, src.DSPRoot)
		if err != nil {
			return stats, err
		}
		return stats, save(outPath, records)
	case KindJUCE:
		records, stats, err := s.ScanJUCE(ctx, src.JUCERoot, src.ModulePrefix)
		if err != nil {
			return stats, err
		}
		return stats, save(outPath, records)
	case KindProjects:
		records, stats, err := s.ScanProjects(ctx, src.ProjectRoots)
		if err != nil {
			return stats, err
		}
		return stats, save(outPath, records)
	}
	return Stats{}, fmt.Errorf("unknown index %q", kind)
}

func save[T any](path string, records []T) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create index dir: %w", err)
		}
	}
	if err := index.Save(path, records); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}

// ScanDSP builds one FileRecord per .h, .cpp or .hpp file under root.
// Files that are not valid UTF-8 are skipped.
func (s *Scanner) ScanDSP(ctx context.Context, root string) ([]index.FileRecord, Stats, error) {
	var records []index.FileRecord
	opts := walker.Options{Match: walker.HasSuffix(".h", ".cpp", ".hpp")}

	stats, err := s.scan(ctx, root, opts, func(fi walker.FileInfo) (int, error) {
		data, err := os.ReadFile(fi.Path)
		if err != nil {
			return 0, err
		}
		if !utf8.Valid(data) {
			return 0, errInvalidUTF8
		}
		content := index.NormalizeNewlines(string(data))
		records = append(records, index.FileRecord{
			AlgorithmName:    index.AlgorithmName(fi.Name),
			ProcessingDomain: index.DetectDomain(content),
			LatencySamples:   0,
			SIMDOptimized:    index.IsSIMDOptimized(content),
			CodeSnippet:      index.Truncate(content, index.CodeSnippetChars),
		})
		return 1, nil
	})
	return records, stats, err
}

// ScanJUCE builds one ClassRecord per class declaration in the .h files
// under root, skipping any path containing "native" or "detail". Invalid
// UTF-8 bytes are dropped. Line endings are normalized to LF in both scans.
func (s *Scanner) ScanJUCE(ctx context.Context, root, prefix string) ([]index.ClassRecord, Stats, error) {
	if prefix == "" {
		prefix = index.DefaultModulePrefix
	}
	var records []index.ClassRecord
	opts := walker.Options{
		Match: walker.HasSuffix(".h"),
		Skip:  walker.PathContainsAny("native", "detail"),
	}

	stats, err := s.scan(ctx, root, opts, func(fi walker.FileInfo) (int, error) {
		data, err := os.ReadFile(fi.Path)
		if err != nil {
			return 0, err
		}
		content := index.NormalizeNewlines(strings.ToValidUTF8(string(data), ""))
		module := index.ModuleName(fi.Path, prefix)
		found := index.ExtractClasses(content)
		for _, c := range found {
			records = append(records, index.ClassRecord{
				ClassName:    index.ClassNamespace + c.Name,
				Module:       module,
				Inheritance:  c.Inheritance,
				APISignature: c.Signature,
			})
		}
		return len(found), nil
	})
	return records, stats, err
}

// ScanProjects builds one ProjectFileRecord per .h, .cpp, .mm or
// CMakeLists.txt file under each root. Directories whose path contains
// "build" or ".git" are pruned. Missing roots are logged and skipped.
func (s *Scanner) ScanProjects(ctx context.Context, roots []string) ([]index.ProjectFileRecord, Stats, error) {
	var records []index.ProjectFileRecord
	var total Stats
	opts := walker.Options{
		Match: walker.HasSuffix(".h", ".cpp", ".mm", "CMakeLists.txt"),
		Prune: walker.ExcludeBuildAndGit,
	}

	for _, root := range roots {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			absRoot = root
		}
		project := filepath.Base(absRoot)

		stats, err := s.scan(ctx, absRoot, opts, func(fi walker.FileInfo) (int, error) {
			records = append(records, index.ProjectFileRecord{
				ProjectName:  project,
				FileRole:     index.DetectRole(fi.Name),
				FilePath:     fi.Path,
				Dependencies: []string{},
			})
			return 1, nil
		})
		if errors.Is(err, ErrMissingRoot) {
			s.log.Warn("Skipping missing path", zap.String("path", root))
			continue
		}
		total.FilesTotal += stats.FilesTotal
		total.FilesIndexed += stats.FilesIndexed
		total.FilesSkipped += stats.FilesSkipped
		total.Records += stats.Records
		if err != nil {
			return records, total, err
		}
	}
	return records, total, nil
}

// scan walks root and calls visit for every matching file. A visit error
// skips that file only.
func (s *Scanner) scan(ctx context.Context, root string, opts walker.Options, visit func(walker.FileInfo) (int, error)) (Stats, error) {
	var stats Stats
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return stats, fmt.Errorf("%w: %s", ErrMissingRoot, root)
	}

	files, walkErrs := walker.Walk(ctx, root, opts)
	for fi := range files {
		stats.FilesTotal++
		n, err := visit(fi)
		if err != nil {
			stats.FilesSkipped++
			s.log.Warn("skipping file", zap.String("file", fi.Name), zap.String("path", fi.Path), zap.Error(err))
			continue
		}
		stats.FilesIndexed++
		stats.Records += n
		if s.onProgress != nil {
			s.onProgress("Scanning "+fi.RelPath, stats.FilesTotal, 0)
		}
	}
	if err := <-walkErrs; err != nil {
		return stats, fmt.Errorf("walk %s: %w", root, err)
	}
	return stats, nil
}
