// Package config resolves the paths, endpoints and model settings shared by
// every melechmcp command.
//
// Sources, later ones winning:
//   - built-in defaults
//   - a TOML file (--config, or config/local_paths.toml, or
//     tools/mcp/config/local_paths.toml under the working directory)
//   - a .env file in the working directory (never overrides the real environment)
//   - environment variables
//
// Command-line flags are applied on top by the cmd package.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config is the complete melechmcp configuration.
type Config struct {
	// IndexDir holds the JSON indexes. Empty means the working directory
	// for ingestors and the executable's directory for query servers.
	IndexDir string `toml:"index_dir"`
	LogLevel string `toml:"log_level"`

	DSP      DSPConfig      `toml:"dsp"`
	JUCE     JUCEConfig     `toml:"juce"`
	Projects ProjectsConfig `toml:"projects"`
	RAG      RAGConfig      `toml:"rag"`
	Ollama   OllamaConfig   `toml:"ollama"`
	LLM      LLMConfig      `toml:"llm"`

	// Source is the TOML file that was applied, empty if none.
	Source string `toml:"-"`
}

type DSPConfig struct {
	SourceDir string `toml:"source_dir"`
}

type JUCEConfig struct {
	ModulesDir   string `toml:"modules_dir"`
	ModulePrefix string `toml:"module_prefix"`
}

type ProjectsConfig struct {
	Paths []string `toml:"paths"`
}

// RAGConfig covers both sides of the /search endpoint: the URL clients call
// and the listener and local store of the server.
type RAGConfig struct {
	URL         string  `toml:"url"`
	Host        string  `toml:"host"`
	Port        int     `toml:"port"`
	LocalDir    string  `toml:"local_dir"`
	DBPath      string  `toml:"db_path"`
	RateLimit   float64 `toml:"rate_limit"`
	Burst       int     `toml:"burst"`
	TimeoutSecs int     `toml:"timeout_secs"`
}

type OllamaConfig struct {
	URL        string `toml:"url"`
	EmbedModel string `toml:"embed_model"`
	ChatModel  string `toml:"chat_model"`
}

type LLMConfig struct {
	// Provider is "ollama" or "gemini".
	Provider    string `toml:"provider"`
	GeminiModel string `toml:"gemini_model"`
	// GeminiAPIKey only ever comes from the environment.
	GeminiAPIKey string `toml:"-"`
}

// DefaultSearchFiles are the TOML locations tried when no --config is given.
var DefaultSearchFiles = []string{
	filepath.Join("config", "local_paths.toml"),
	filepath.Join("tools", "mcp", "config", "local_paths.toml"),
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		DSP: DSPConfig{
			SourceDir: "~/DEV/GitHubRepo/MelechDSP/melechdsp-hq",
		},
		JUCE: JUCEConfig{
			ModulesDir:   "~/JUCE/modules",
			ModulePrefix: "juce_",
		},
		Projects: ProjectsConfig{
			Paths: []string{
				"~/DEV/GitHubRepo/AnalyzerPro",
				"~/DEV/GitHubRepo/MelechDSP/melechdsp-hq",
			},
		},
		RAG: RAGConfig{
			URL:         "http://127.0.0.1:8000/search",
			Host:        "127.0.0.1",
			Port:        8000,
			DBPath:      filepath.Join(".melech", "rag.db"),
			RateLimit:   10,
			Burst:       20,
			TimeoutSecs: 15,
		},
		Ollama: OllamaConfig{
			URL:        "http://localhost:11434",
			EmbedModel: "nomic-embed-text",
			ChatModel:  "qwen3:8b",
		},
		LLM: LLMConfig{
			Provider:    "ollama",
			GeminiModel: "gemini-2.5-flash",
		},
	}
}

// Load builds the configuration. An explicit path must exist; the default
// search locations are optional.
func Load(path string) (*Config, error) {
	cfg := Default()

	// .env is a convenience; its absence is not an error.
	_ = godotenv.Load()

	file, err := findFile(path)
	if err != nil {
		return nil, err
	}
	if file != "" {
		if _, err := toml.DecodeFile(file, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		cfg.Source = file
	}

	cfg.applyEnv()
	cfg.expandPaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findFile(path string) (string, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("config file: %w", err)
		}
		return path, nil
	}
	for _, candidate := range DefaultSearchFiles {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", nil
}

func (c *Config) applyEnv() {
	setString(&c.IndexDir, "MELECH_INDEX_DIR")
	setString(&c.LogLevel, "MELECH_LOG_LEVEL")
	setString(&c.DSP.SourceDir, "DSP_SOURCE_DIR")
	setString(&c.JUCE.ModulesDir, "JUCE_MODULES_PATH")
	if v := env("MELECH_PROJECT_PATHS"); v != "" {
		c.Projects.Paths = filepath.SplitList(v)
	}

	// The bridge reads JUCE_RAG_URL, the agent JUCE_RAG_SEARCH_URL.
	setString(&c.RAG.URL, "JUCE_RAG_SEARCH_URL")
	setString(&c.RAG.URL, "JUCE_RAG_URL")
	setString(&c.RAG.Host, "JUCE_RAG_HTTP_HOST")
	if v := env("JUCE_RAG_HTTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.RAG.Port = port
		} else {
			c.RAG.Port = -1
		}
	}
	setString(&c.RAG.LocalDir, "JUCE_RAG_LOCAL_DIR")
	setString(&c.RAG.DBPath, "JUCE_RAG_DB_PATH")

	setString(&c.Ollama.URL, "OLLAMA_HOST")
	setString(&c.LLM.Provider, "MELECH_LLM_PROVIDER")
	setString(&c.LLM.GeminiAPIKey, "GEMINI_API_KEY")
}

func (c *Config) expandPaths() {
	c.IndexDir = ExpandHome(c.IndexDir)
	c.DSP.SourceDir = ExpandHome(c.DSP.SourceDir)
	c.JUCE.ModulesDir = ExpandHome(c.JUCE.ModulesDir)
	for i, p := range c.Projects.Paths {
		c.Projects.Paths[i] = ExpandHome(p)
	}
	c.RAG.LocalDir = ExpandHome(c.RAG.LocalDir)
	c.RAG.DBPath = ExpandHome(c.RAG.DBPath)
}

// Validate rejects settings no command can run with.
func (c *Config) Validate() error {
	var errs []error
	if c.RAG.Port < 1 || c.RAG.Port > 65535 {
		errs = append(errs, fmt.Errorf("rag.port must be between 1 and 65535, got %d", c.RAG.Port))
	}
	switch c.LLM.Provider {
	case "ollama", "gemini":
	default:
		errs = append(errs, fmt.Errorf("llm.provider must be \"ollama\" or \"gemini\", got %q", c.LLM.Provider))
	}
	if c.RAG.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("rag.rate_limit must not be negative"))
	}
	return errors.Join(errs...)
}

// WriteIndexPath is where an ingestor writes the index named name.
func (c *Config) WriteIndexPath(name string) string {
	if c.IndexDir != "" {
		return filepath.Join(c.IndexDir, name)
	}
	return name
}

// ReadIndexPath is where a query server looks for the index named name:
// IndexDir when set, else next to the executable, else the working
// directory.
func (c *Config) ReadIndexPath(name string) string {
	if c.IndexDir != "" {
		return filepath.Join(c.IndexDir, name)
	}
	if exe, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		candidate := filepath.Join(filepath.Dir(exe), name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return name
}

// RAGStorePath is the SQLite file of the local RAG backend. A configured
// LocalDir holds rag.db; otherwise DBPath is used as given.
func (c *Config) RAGStorePath() string {
	if c.RAG.LocalDir != "" {
		return filepath.Join(c.RAG.LocalDir, "rag.db")
	}
	return c.RAG.DBPath
}

// SecretsSummary reports which secrets are present without their values.
func (c *Config) SecretsSummary() string {
	present := "NO"
	if c.LLM.GeminiAPIKey != "" {
		present = "YES"
	}
	return "GEMINI_API_KEY=" + present
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func setString(dst *string, key string) {
	if v := env(key); v != "" {
		*dst = v
	}
}
