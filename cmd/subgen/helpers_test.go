package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"subgen/internal/testsupport"
)

type cliTestEnv struct {
	baseDir     string
	configPath  string
	historyPath string
}

// setupCLITestEnv writes a config whose worker command does not exist.
func setupCLITestEnv(t *testing.T, historyEnabled bool) *cliTestEnv {
	t.Helper()
	t.Setenv("SUBGEN_ENGINE_COMMAND", "")

	base := t.TempDir()
	env := &cliTestEnv{
		baseDir:     base,
		configPath:  filepath.Join(base, "config.toml"),
		historyPath: filepath.Join(base, "data", "history.db"),
	}
	content := fmt.Sprintf(`[engine]
command = %q
probe_timeout_seconds = 5

[logging]
format = "json"
level = "info"

[history]
enabled = %t
path = %q
`, filepath.Join(base, "missing-worker"), historyEnabled, env.historyPath)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func (e *cliTestEnv) input(t *testing.T) string {
	t.Helper()
	path := filepath.Join(e.baseDir, "media", "episode.mkv")
	testsupport.WriteMedia(t, path, 1024)
	return path
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
