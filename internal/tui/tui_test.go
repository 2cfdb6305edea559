package tui

import (
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"melechmcp/internal/index"
	"melechmcp/internal/ingest"
)

func testPaths(t *testing.T) map[ingest.Kind]string {
	dir := t.TempDir()
	paths := make(map[ingest.Kind]string)
	for _, k := range ingest.Kinds {
		paths[k] = filepath.Join(dir, k.FileName())
	}
	return paths
}

func TestSplitProjectQuery(t *testing.T) {
	p, r := splitProjectQuery("  AnalyzerPro  Editor ")
	assert.Equal(t, "AnalyzerPro", p)
	assert.Equal(t, "Editor", r)

	p, r = splitProjectQuery("AnalyzerPro")
	assert.Equal(t, "AnalyzerPro", p)
	assert.Empty(t, r)

	p, r = splitProjectQuery("")
	assert.Empty(t, p)
	assert.Empty(t, r)
}

func TestIndexesLookup(t *testing.T) {
	paths := testPaths(t)
	require.NoError(t, index.Save(paths[ingest.KindJUCE], []index.ClassRecord{
		{ClassName: "juce::AudioBuffer", Module: "audio_basics", Inheritance: index.NoInheritance, APISignature: "class AudioBuffer"},
	}))
	require.NoError(t, index.Save(paths[ingest.KindProjects], []index.ProjectFileRecord{
		{ProjectName: "AnalyzerPro", FileRole: index.RoleEditor, FilePath: "/p/AnalyzerPro/PluginEditor.cpp"},
	}))

	ix := openIndexes(paths)
	assert.Contains(t, ix.lookup(ingest.KindJUCE, "audiobuffer"), "Class: juce::AudioBuffer")
	assert.Equal(t, "[Editor] AnalyzerPro: /p/AnalyzerPro/PluginEditor.cpp", ix.lookup(ingest.KindProjects, "analyzer editor"))
	assert.Equal(t, `No DSP algorithms found matching "gain".`, ix.lookup(ingest.KindDSP, "gain"))

	assert.True(t, ix.empty(ingest.KindDSP))
	assert.False(t, ix.empty(ingest.KindJUCE))
}

func TestIndexesReload(t *testing.T) {
	paths := testPaths(t)
	ix := openIndexes(paths)
	assert.True(t, ix.empty(ingest.KindDSP))

	require.NoError(t, index.Save(paths[ingest.KindDSP], []index.FileRecord{{AlgorithmName: "Gain", ProcessingDomain: index.TimeDomain}}))
	require.NoError(t, ix.reload(ingest.KindDSP))
	assert.False(t, ix.empty(ingest.KindDSP))
	assert.Equal(t, 1, ix.summary(ingest.KindDSP).Records)
}

func TestWelcomeToPickerToIngest(t *testing.T) {
	paths := testPaths(t)
	m := New(Config{Paths: paths, Sources: ingest.Sources{DSPRoot: filepath.Join(t.TempDir(), "missing")}})

	next, _ := m.Update(loadIndexesMsg{ix: openIndexes(paths)})
	m = next.(Model)
	assert.True(t, m.welcome.ready)
	assert.Contains(t, m.View(), "DSP algorithms")

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	assert.Equal(t, ViewPicker, m.state)

	// The DSP index is empty, so selecting it starts an ingest run.
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	assert.Equal(t, ViewIndexing, m.state)
	assert.Equal(t, ingest.KindDSP, m.indexing.kind)
	assert.NotNil(t, cmd)

	next, _ = m.Update(indexDoneMsg{err: ingest.ErrMissingRoot})
	m = next.(Model)
	assert.True(t, m.indexing.done)
	assert.Contains(t, m.View(), "scan root does not exist")
}

func TestRunIngestBuildsAndReloads(t *testing.T) {
	paths := testPaths(t)
	src := t.TempDir()
	require.NoError(t, writeFile(filepath.Join(src, "Gain.cpp"), "float gain = 1.0f;"))

	ix := openIndexes(paths)
	msg := runIngest(Config{Paths: paths, Sources: ingest.Sources{DSPRoot: src}}, ingest.KindDSP, ix)()

	done, ok := msg.(indexDoneMsg)
	require.True(t, ok)
	require.NoError(t, done.err)
	assert.Equal(t, 1, done.stats.Records)
	assert.Contains(t, ix.lookup(ingest.KindDSP, "gain"), "Algorithm: Gain")
}

func TestPickerSkipsIngestForLoadedIndex(t *testing.T) {
	paths := testPaths(t)
	require.NoError(t, index.Save(paths[ingest.KindDSP], []index.FileRecord{{AlgorithmName: "Gain"}}))

	m := New(Config{Paths: paths})
	next, _ := m.Update(loadIndexesMsg{ix: openIndexes(paths)})
	m = next.(Model)
	m.state = ViewPicker

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	assert.Equal(t, ViewLookup, m.state)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(Model)
	assert.Equal(t, ViewPicker, m.state)
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

func TestCodeFence(t *testing.T) {
	assert.Equal(t, "```", codeFence("float gain = 1.0f;"))
	assert.Equal(t, "```", codeFence("a `b` c"))
	assert.Equal(t, "````", codeFence("/** Example:\n```\nbuffer.clear();\n```\n*/"))
	assert.Equal(t, "``````", codeFence("x `````"))
}

func TestLookupMarkdownKeepsResultFenced(t *testing.T) {
	result := "Class: juce::AudioBuffer\nSignature:\n/** ```cpp\nAudioBuffer<float> b;\n``` */"
	md := lookupEntry{query: "AudioBuffer", result: result}.markdown()

	assert.Equal(t, "### AudioBuffer\n\n````\n"+result+"\n````\n", md)
}
