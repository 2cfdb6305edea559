package index

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveWritesIndentedArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), ProjectIndexFile)
	records := []ProjectFileRecord{{
		ProjectName:  "AnalyzerPro",
		FileRole:     RoleProcessor,
		FilePath:     "/src/AnalyzerPro/PluginProcessor.cpp",
		Dependencies: []string{},
	}}
	require.NoError(t, Save(path, records))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.HasPrefix(text, "[\n  {\n    \"project_name\": \"AnalyzerPro\""))
	assert.Contains(t, text, `"file_role": "Processor"`)
	assert.Contains(t, text, `"dependencies": []`)
}

func TestSaveNilWritesEmptyArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), DSPIndexFile)
	require.NoError(t, Save[FileRecord](path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestSaveKeepsCodeReadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), DSPIndexFile)
	require.NoError(t, Save(path, []FileRecord{{CodeSnippet: "a < b && c > d"}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "a < b && c > d")
}

func TestSaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), JUCEIndexFile)
	require.NoError(t, Save(path, []ClassRecord{{ClassName: "juce::A"}, {ClassName: "juce::B"}}))
	require.NoError(t, Save(path, []ClassRecord{{ClassName: "juce::C"}}))

	got, err := Load[ClassRecord](path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "juce::C", got[0].ClassName)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestSaveUnwritableDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", DSPIndexFile)
	assert.Error(t, Save(path, []FileRecord{}))
}

func TestLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), DSPIndexFile)
	want := []FileRecord{{
		AlgorithmName:    "Gain",
		ProcessingDomain: TimeDomain,
		SIMDOptimized:    true,
		CodeSnippet:      "void processBlock();",
	}}
	require.NoError(t, Save(path, want))

	got, err := Load[FileRecord](path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadFailures(t *testing.T) {
	dir := t.TempDir()

	_, err := Load[ClassRecord](filepath.Join(dir, "absent.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	_, err = Load[ClassRecord](bad)
	assert.Error(t, err)

	object := filepath.Join(dir, "object.json")
	require.NoError(t, os.WriteFile(object, []byte(`{"class_name": "juce::A"}`), 0o644))
	_, err = Load[ClassRecord](object)
	assert.Error(t, err)

	null := filepath.Join(dir, "null.json")
	require.NoError(t, os.WriteFile(null, []byte("null\n"), 0o644))
	_, err = Load[ClassRecord](null)
	assert.ErrorContains(t, err, "null")
}

func TestLoadEmptyArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0o644))

	records, err := Load[ClassRecord](path)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}
