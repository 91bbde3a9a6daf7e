package envconfig

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

// Config is the layout of the optional TOML configuration file. Every
// field mirrors a BPE_* environment variable; the environment wins.
type Config struct {
	Training struct {
		NumMerges     *int     `toml:"num_merges"`
		SpecialTokens []string `toml:"special_tokens"`
	} `toml:"training"`

	Corpus struct {
		Dir        string   `toml:"dir"`
		Limit      *int     `toml:"limit"`
		Readers    int      `toml:"readers"`
		Extensions []string `toml:"extensions"`
	} `toml:"corpus"`

	Output struct {
		Path string `toml:"path"`
	} `toml:"output"`

	Logging struct {
		Debug int `toml:"debug"`
	} `toml:"logging"`
}

var (
	configOnce sync.Once
	config     *Config
	configPath string
)

// GetConfigPaths returns the candidate configuration files in the order
// they are tried.
func GetConfigPaths() []string {
	if path := clean("BPE_CONFIG"); path != "" {
		return []string{path}
	}

	paths := []string{"bpe.toml"}
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		paths = append(paths, filepath.Join(xdgConfig, "bpe", "config.toml"))
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "bpe", "config.toml"))
	}

	return paths
}

// loadConfigFile loads the first configuration file that exists
func loadConfigFile() (*Config, string, error) {
	for _, path := range GetConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			var cfg Config
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return nil, "", fmt.Errorf("error parsing config file %s: %w", path, err)
			}
			return &cfg, path, nil
		}
	}
	return nil, "", nil
}

func readConfigFile() {
	configOnce.Do(func() {
		var err error
		config, configPath, err = loadConfigFile()
		if err != nil {
			slog.Warn("failed to load config file", "error", err)
		} else if config != nil {
			slog.Debug("loaded config file", "path", configPath)
		}
	})
}

// ConfigFile returns the path of the loaded configuration file, if any.
func ConfigFile() string {
	readConfigFile()
	return configPath
}

// GetConfigValue returns the configuration file value standing for the
// environment variable key, or "" when unset.
func GetConfigValue(key string) string {
	readConfigFile()
	if config == nil {
		return ""
	}

	switch key {
	case "BPE_DEBUG":
		if config.Logging.Debug > 0 {
			return strconv.Itoa(config.Logging.Debug)
		}
	case "BPE_NUM_MERGES":
		if config.Training.NumMerges != nil {
			return strconv.Itoa(*config.Training.NumMerges)
		}
	case "BPE_SPECIAL_TOKENS":
		return strings.Join(config.Training.SpecialTokens, ",")
	case "BPE_CORPUS_DIR":
		return config.Corpus.Dir
	case "BPE_CORPUS_LIMIT":
		if config.Corpus.Limit != nil {
			return strconv.Itoa(*config.Corpus.Limit)
		}
	case "BPE_CORPUS_READERS":
		if config.Corpus.Readers > 0 {
			return strconv.Itoa(config.Corpus.Readers)
		}
	case "BPE_CORPUS_EXTENSIONS":
		return strings.Join(config.Corpus.Extensions, ",")
	case "BPE_OUTPUT":
		return config.Output.Path
	}

	return ""
}

// resetConfigFile forgets the loaded configuration file so the next
// lookup reads it again.
func resetConfigFile() {
	configOnce = sync.Once{}
	config, configPath = nil, ""
}

// GenerateExampleConfig returns a commented example TOML configuration
func GenerateExampleConfig() string {
	return `# bpe configuration file
# Environment variables (BPE_*) take precedence over these values.

[training]
# Maximum number of merge rounds (default: 100)
num_merges = 100
# Reserved tokens placed right after the 256 byte symbols
special_tokens = ["<unk>", "<|endoftext|>"]

[corpus]
# Directory holding the training documents (default: "./data")
dir = "./data"
# Maximum number of documents, 0 for all (default: 1000)
limit = 1000
# Number of files read concurrently (default: 4)
readers = 4
# File extensions to read, empty for all files (default: [])
extensions = []

[output]
# Where trained tokenizers are written (default: "tokenizer_hi.bpe")
path = "tokenizer_hi.bpe"

[logging]
# 1 for debug, 2 for trace (default: 0)
debug = 0
`
}

// Reload rereads the configuration file and the environment, for callers
// that change either after startup.
func Reload() {
	resetConfigFile()
	LoadConfig()
}
