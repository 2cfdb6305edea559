package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"MELECH_INDEX_DIR", "MELECH_LOG_LEVEL", "DSP_SOURCE_DIR", "JUCE_MODULES_PATH",
		"MELECH_PROJECT_PATHS", "JUCE_RAG_URL", "JUCE_RAG_SEARCH_URL", "JUCE_RAG_HTTP_HOST",
		"JUCE_RAG_HTTP_PORT", "JUCE_RAG_LOCAL_DIR", "JUCE_RAG_DB_PATH", "OLLAMA_HOST",
		"MELECH_LLM_PROVIDER", "GEMINI_API_KEY",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Empty(t, cfg.Source)
	assert.Equal(t, filepath.Join(home, "JUCE", "modules"), cfg.JUCE.ModulesDir)
	assert.Equal(t, "juce_", cfg.JUCE.ModulePrefix)
	assert.Len(t, cfg.Projects.Paths, 2)
	assert.Equal(t, "http://127.0.0.1:8000/search", cfg.RAG.URL)
	assert.Equal(t, 8000, cfg.RAG.Port)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "local_paths.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
index_dir = "/var/melech"

[dsp]
source_dir = "/src/melechdsp-hq"

[projects]
paths = ["/src/AnalyzerPro"]

[rag]
port = 9000
`), 0o644))

	t.Setenv("JUCE_RAG_URL", "http://rag.local:9000/search")
	t.Setenv("MELECH_PROJECT_PATHS", "/a"+string(os.PathListSeparator)+"/b")
	t.Setenv("GEMINI_API_KEY", "secret")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.Source)
	assert.Equal(t, "/var/melech", cfg.IndexDir)
	assert.Equal(t, "/src/melechdsp-hq", cfg.DSP.SourceDir)
	assert.Equal(t, []string{"/a", "/b"}, cfg.Projects.Paths)
	assert.Equal(t, 9000, cfg.RAG.Port)
	assert.Equal(t, "http://rag.local:9000/search", cfg.RAG.URL)
	assert.Equal(t, "GEMINI_API_KEY=YES", cfg.SecretsSummary())
}

func TestLoadSearchesDefaultLocations(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "tools", "mcp", "config"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "tools", "mcp", "config", "local_paths.toml"),
		[]byte("[juce]\nmodules_dir = \"/opt/JUCE/modules\"\n"), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("tools", "mcp", "config", "local_paths.toml"), cfg.Source)
	assert.Equal(t, "/opt/JUCE/modules", cfg.JUCE.ModulesDir)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("index_dir = ["), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)

	t.Setenv("JUCE_RAG_HTTP_PORT", "eighty")
	_, err = Load("")
	assert.ErrorContains(t, err, "rag.port")
}

func TestValidateProvider(t *testing.T) {
	cfg := Default()
	cfg.LLM.Provider = "openai"
	assert.ErrorContains(t, cfg.Validate(), "llm.provider")
}

func TestIndexPaths(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "dsp_index.json", cfg.WriteIndexPath("dsp_index.json"))

	cfg.IndexDir = "/var/melech"
	assert.Equal(t, filepath.Join("/var/melech", "dsp_index.json"), cfg.WriteIndexPath("dsp_index.json"))
	assert.Equal(t, filepath.Join("/var/melech", "dsp_index.json"), cfg.ReadIndexPath("dsp_index.json"))

	cfg.IndexDir = ""
	assert.Equal(t, "no_such_index.json", cfg.ReadIndexPath("no_such_index.json"))
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	assert.Equal(t, filepath.Join(home, "JUCE"), ExpandHome("~/JUCE"))
	assert.Equal(t, home, ExpandHome("~"))
	assert.Equal(t, "/abs/path", ExpandHome("/abs/path"))
	assert.Equal(t, "~user/x", ExpandHome("~user/x"))
}

func TestRAGStorePath(t *testing.T) {
	cfg := Default()
	assert.Equal(t, filepath.Join(".melech", "rag.db"), cfg.RAGStorePath())

	cfg.RAG.LocalDir = "/data/juce-rag"
	assert.Equal(t, filepath.Join("/data/juce-rag", "rag.db"), cfg.RAGStorePath())
}
