package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/tokenizer-hi/bpe/envconfig"
)

// DotEnvPaths lists the .env files LoadDotEnv reads, most specific first.
func DotEnvPaths() []string {
	paths := []string{".env"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "bpe", ".env"))
	}
	return paths
}

// LoadDotEnv loads variables from the .env files that exist. Variables
// already in the environment are kept, as are values from an earlier file.
// The configuration is reloaded afterwards.
func LoadDotEnv() error {
	for _, path := range DotEnvPaths() {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		} else if err != nil {
			return fmt.Errorf("failed to check if .env file exists: %w", err)
		}

		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("could not load %s: %w", path, err)
		}
	}

	envconfig.Reload()
	return nil
}
