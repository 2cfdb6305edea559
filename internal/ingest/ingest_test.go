package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"melechmcp/internal/index"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newScanner(t *testing.T) *Scanner {
	return New(zaptest.NewLogger(t))
}

func TestScanDSPClassifiesDomains(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Gain.cpp"), "void Gain::processBlock(float* data, int n) {}\n")
	writeFile(t, filepath.Join(root, "FFTAnalyzer.h"), "// Spectral analysis\nclass Analyzer {};\n")
	writeFile(t, filepath.Join(root, "README.md"), "processBlock FFT")

	records, stats, err := newScanner(t).ScanDSP(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, records, 2)

	byName := map[string]index.FileRecord{}
	for _, r := range records {
		byName[r.AlgorithmName] = r
	}
	assert.Equal(t, index.TimeDomain, byName["Gain"].ProcessingDomain)
	assert.Equal(t, index.FrequencyDomain, byName["FFTAnalyzer"].ProcessingDomain)
	assert.Equal(t, 0, byName["Gain"].LatencySamples)
	assert.Equal(t, Stats{FilesTotal: 2, FilesIndexed: 2, Records: 2}, stats)
}

func TestScanDSPSnippetAndSIMD(t *testing.T) {
	root := t.TempDir()
	body := "#include <immintrin.h>\n__m128 v;\n"
	for len(body) < 3000 {
		body += "// filler line\n"
	}
	writeFile(t, filepath.Join(root, "dsp", "Mixer.v2.hpp"), body)

	records, _, err := newScanner(t).ScanDSP(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Mixer", records[0].AlgorithmName)
	assert.True(t, records[0].SIMDOptimized)
	assert.Equal(t, index.ControlRate, records[0].ProcessingDomain)
	assert.Equal(t, index.CodeSnippetChars, utf8.RuneCountInString(records[0].CodeSnippet))
}

func TestScanDSPSkipsInvalidUTF8(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Good.h"), "processBlock")
	writeFile(t, filepath.Join(root, "Bad.h"), "processBlock \xff\xfe")

	records, stats, err := newScanner(t).ScanDSP(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Good", records[0].AlgorithmName)
	assert.Equal(t, 2, stats.FilesTotal)
	assert.Equal(t, 1, stats.FilesSkipped)
}

func TestScanMissingRoot(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	s := newScanner(t)

	_, _, err := s.ScanDSP(context.Background(), missing)
	assert.ErrorIs(t, err, ErrMissingRoot)

	_, _, err = s.ScanJUCE(context.Background(), missing, "")
	assert.ErrorIs(t, err, ErrMissingRoot)
}

func TestScanJUCE(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "juce_audio_basics", "buffers", "juce_AudioBuffer.h"),
		"namespace juce {\ntemplate <typename Type>\nclass AudioBuffer\n{\npublic:\n};\n}\n")
	writeFile(t, filepath.Join(root, "juce_core", "native", "juce_Native.h"), "class Hidden {};")
	writeFile(t, filepath.Join(root, "juce_core", "detail", "juce_Detail.h"), "class AlsoHidden {};")
	writeFile(t, filepath.Join(root, "juce_core", "juce_Impl.cpp"), "class NotAHeader {};")
	writeFile(t, filepath.Join(root, "misc", "Lonely.h"),
		"class JUCE_API Lonely : public Base,\n    private Other\n{\n};\n\xff")

	records, stats, err := newScanner(t).ScanJUCE(context.Background(), root, "")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 2, stats.FilesIndexed)

	assert.Equal(t, "juce::AudioBuffer", records[0].ClassName)
	assert.Equal(t, "juce_audio_basics", records[0].Module)
	assert.Equal(t, index.NoInheritance, records[0].Inheritance)
	assert.Contains(t, records[0].APISignature, "class AudioBuffer")

	assert.Equal(t, "juce::Lonely", records[1].ClassName)
	assert.Equal(t, index.UnknownModule, records[1].Module)
	assert.Contains(t, records[1].Inheritance, "public Base")
	assert.NotContains(t, records[1].APISignature, "\xff")
}

func TestScanJUCENormalizesCRLF(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "juce_gui_basics", "juce_Widget.h"),
		"class JUCE_API Widget : public Component,\r\n    private Timer\r\n{\r\n};\r\n")

	records, _, err := newScanner(t).ScanJUCE(context.Background(), root, "")
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "public Component,     private Timer", records[0].Inheritance)
	assert.NotContains(t, records[0].APISignature, "\r")
	assert.Equal(t, "class JUCE_API Widget : public Component,\n    private Timer\n{\n};\n", records[0].APISignature)
}

func TestScanDSPNormalizesCRLF(t *testing.T) {
	root := t.TempDir()
	// Raw, the file is longer than the snippet budget; normalized, it fits.
	writeFile(t, filepath.Join(root, "Gain.cpp"), strings.Repeat("x\r\n", 990)+"old\rmac")

	records, _, err := newScanner(t).ScanDSP(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, records, 1)

	want := strings.Repeat("x\n", 990) + "old\nmac"
	assert.Equal(t, want, records[0].CodeSnippet)
}

func TestScanProjects(t *testing.T) {
	base := t.TempDir()
	analyzer := filepath.Join(base, "AnalyzerPro")
	writeFile(t, filepath.Join(analyzer, "Source", "PluginProcessor.cpp"), "")
	writeFile(t, filepath.Join(analyzer, "Source", "PluginEditor.h"), "")
	writeFile(t, filepath.Join(analyzer, "Source", "Bridge.mm"), "")
	writeFile(t, filepath.Join(analyzer, "CMakeLists.txt"), "")
	writeFile(t, filepath.Join(analyzer, "notes.txt"), "")
	writeFile(t, filepath.Join(analyzer, "Build", "Generated.cpp"), "")
	writeFile(t, filepath.Join(analyzer, ".git", "hooks", "hook.h"), "")

	records, stats, err := newScanner(t).ScanProjects(context.Background(),
		[]string{analyzer, filepath.Join(base, "Missing")})
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Records)

	roles := map[string]string{}
	for _, r := range records {
		assert.Equal(t, "AnalyzerPro", r.ProjectName)
		assert.True(t, filepath.IsAbs(r.FilePath))
		assert.NotNil(t, r.Dependencies)
		assert.Empty(t, r.Dependencies)
		roles[filepath.Base(r.FilePath)] = r.FileRole
	}
	assert.Equal(t, map[string]string{
		"PluginProcessor.cpp": index.RoleProcessor,
		"PluginEditor.h":      index.RoleEditor,
		"Bridge.mm":           index.RoleService,
		"CMakeLists.txt":      index.RoleConfig,
	}, roles)
}

func TestReingestProducesSameRecords(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "Gain.cpp"), "processBlock")
	writeFile(t, filepath.Join(root, "b", "Spectrum.h"), "FFT vDSP")
	writeFile(t, filepath.Join(root, "Delay.hpp"), "delay line")

	s := newScanner(t)
	first, _, err := s.ScanDSP(context.Background(), root)
	require.NoError(t, err)
	second, _, err := s.ScanDSP(context.Background(), root)
	require.NoError(t, err)
	assert.ElementsMatch(t, first, second)
}

func TestBuildWritesIndex(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Gain.cpp"), "processBlock")
	out := filepath.Join(t.TempDir(), "indexes", index.DSPIndexFile)

	var calls int
	s := newScanner(t).WithProgress(func(string, int, int) { calls++ })
	stats, err := s.Build(context.Background(), KindDSP, Sources{DSPRoot: root}, out)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Records)
	assert.Equal(t, 1, calls)

	loaded, err := index.Load[index.FileRecord](out)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "Gain", loaded[0].AlgorithmName)
}

func TestBuildMissingRootWritesNothing(t *testing.T) {
	out := filepath.Join(t.TempDir(), index.JUCEIndexFile)
	_, err := newScanner(t).Build(context.Background(), KindJUCE,
		Sources{JUCERoot: filepath.Join(t.TempDir(), "missing")}, out)
	assert.ErrorIs(t, err, ErrMissingRoot)
	assert.NoFileExists(t, out)
}

func TestBuildEmptyProjectsWritesEmptyArray(t *testing.T) {
	out := filepath.Join(t.TempDir(), index.ProjectIndexFile)
	_, err := newScanner(t).Build(context.Background(), KindProjects, Sources{}, out)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))
}

func TestScanCancelled(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"A.h", "B.h", "C.h"} {
		writeFile(t, filepath.Join(root, name), "x")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := newScanner(t).ScanDSP(ctx, root)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("juce")
	require.NoError(t, err)
	assert.Equal(t, KindJUCE, k)
	assert.Equal(t, index.JUCEIndexFile, k.FileName())

	_, err = ParseKind("docs")
	assert.Error(t, err)
}
