package envconfig

import (
	"fmt"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/tokenizer-hi/bpe/logutil"
)

var (
	// Set via BPE_DEBUG in the environment; 2 or more enables trace logging
	Debug int
	// Set via BPE_NUM_MERGES in the environment
	NumMerges int
	// Set via BPE_SPECIAL_TOKENS in the environment
	SpecialTokens []string
	// Set via BPE_CORPUS_DIR in the environment
	CorpusDir string
	// Set via BPE_CORPUS_LIMIT in the environment
	CorpusLimit int
	// Set via BPE_CORPUS_READERS in the environment
	CorpusReaders int
	// Set via BPE_CORPUS_EXTENSIONS in the environment
	CorpusExtensions []string
	// Set via BPE_OUTPUT in the environment
	Output string
)

const (
	defaultNumMerges     = 100
	defaultCorpusDir     = "./data"
	defaultCorpusLimit   = 1000
	defaultCorpusReaders = 4
	defaultOutput        = "tokenizer_hi.bpe"
)

type EnvVar struct {
	Name        string
	Value       any
	Description string
}

func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"BPE_CONFIG":            {"BPE_CONFIG", ConfigFile(), "Path to a TOML configuration file"},
		"BPE_DEBUG":             {"BPE_DEBUG", Debug, "Show additional debug information (e.g. BPE_DEBUG=1, 2 for trace)"},
		"BPE_NUM_MERGES":        {"BPE_NUM_MERGES", NumMerges, fmt.Sprintf("Maximum number of merge rounds (default %d)", defaultNumMerges)},
		"BPE_SPECIAL_TOKENS":    {"BPE_SPECIAL_TOKENS", SpecialTokens, "A comma separated list of reserved tokens (default \"<unk>,<|endoftext|>\")"},
		"BPE_CORPUS_DIR":        {"BPE_CORPUS_DIR", CorpusDir, fmt.Sprintf("Directory holding the training corpus (default %q)", defaultCorpusDir)},
		"BPE_CORPUS_LIMIT":      {"BPE_CORPUS_LIMIT", CorpusLimit, fmt.Sprintf("Maximum number of corpus documents, 0 for all (default %d)", defaultCorpusLimit)},
		"BPE_CORPUS_READERS":    {"BPE_CORPUS_READERS", CorpusReaders, fmt.Sprintf("Number of files read concurrently (default %d)", defaultCorpusReaders)},
		"BPE_CORPUS_EXTENSIONS": {"BPE_CORPUS_EXTENSIONS", CorpusExtensions, "A comma separated list of file extensions to read, e.g. \".txt\" (default all files)"},
		"BPE_OUTPUT":            {"BPE_OUTPUT", Output, fmt.Sprintf("Where trained tokenizers are written (default %q)", defaultOutput)},
	}
}

// Names returns the variable names of AsMap in sorted order.
func Names() []string {
	return slices.Sorted(maps.Keys(AsMap()))
}

func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}

// LogLevel maps Debug to a slog level.
func LogLevel() slog.Level {
	switch {
	case Debug >= 2:
		return logutil.LevelTrace
	case Debug == 1:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// Clean quotes and spaces from the value
func clean(key string) string {
	return strings.Trim(os.Getenv(key), "\"' ")
}

// lookup prefers the environment over the configuration file.
func lookup(key string) string {
	if s := clean(key); s != "" {
		return s
	}

	return GetConfigValue(key)
}

// list splits a comma separated value, dropping empty fields.
func list(s string) []string {
	var values []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

func init() {
	LoadConfig()
}

func LoadConfig() {
	Debug = 0
	if debug := lookup("BPE_DEBUG"); debug != "" {
		if n, err := strconv.Atoi(debug); err == nil {
			Debug = max(n, 0)
		} else if b, err := strconv.ParseBool(debug); err == nil {
			if b {
				Debug = 1
			}
		} else {
			Debug = 1
		}
	}

	NumMerges = defaultNumMerges
	if s := lookup("BPE_NUM_MERGES"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			slog.Error("invalid setting must be zero or greater", "BPE_NUM_MERGES", s, "error", err)
		} else {
			NumMerges = n
		}
	}

	SpecialTokens = list(lookup("BPE_SPECIAL_TOKENS"))

	CorpusDir = defaultCorpusDir
	if s := lookup("BPE_CORPUS_DIR"); s != "" {
		CorpusDir = s
	}

	CorpusLimit = defaultCorpusLimit
	if s := lookup("BPE_CORPUS_LIMIT"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			slog.Error("invalid setting must be zero or greater", "BPE_CORPUS_LIMIT", s, "error", err)
		} else {
			CorpusLimit = n
		}
	}

	CorpusReaders = defaultCorpusReaders
	if s := lookup("BPE_CORPUS_READERS"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			slog.Error("invalid setting must be greater than zero", "BPE_CORPUS_READERS", s, "error", err)
		} else {
			CorpusReaders = n
		}
	}

	CorpusExtensions = nil
	for _, ext := range list(lookup("BPE_CORPUS_EXTENSIONS")) {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		CorpusExtensions = append(CorpusExtensions, ext)
	}

	Output = defaultOutput
	if s := lookup("BPE_OUTPUT"); s != "" {
		Output = s
	}
}
