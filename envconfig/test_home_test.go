package envconfig

import (
	"os"
	"path/filepath"
	"testing"
)

// setTestHome isolates the configuration lookup from the machine running
// the tests. A non-empty contents is written as the configuration file.
func setTestHome(t *testing.T, contents string) {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("BPE_CONFIG", "")

	if contents != "" {
		path := filepath.Join(home, "bpe.toml")
		if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
			t.Fatal(err)
		}
		t.Setenv("BPE_CONFIG", path)
	}

	resetConfigFile()
	t.Cleanup(resetConfigFile)
}
