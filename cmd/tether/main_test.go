package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// testEnv holds the temp-backed configuration one CLI test runs against.
type testEnv struct {
	configPath string
	dataRoot   string
	outputDir  string
	workDir    string
}

func setupCLITestEnv(t *testing.T) *testEnv {
	t.Helper()

	base := t.TempDir()
	env := &testEnv{
		configPath: filepath.Join(base, "config.toml"),
		dataRoot:   filepath.Join(base, "data"),
		outputDir:  filepath.Join(base, "output"),
		workDir:    filepath.Join(base, "work"),
	}
	if err := os.MkdirAll(env.dataRoot, 0o755); err != nil {
		t.Fatalf("mkdir data root: %v", err)
	}

	content := fmt.Sprintf(
		"[paths]\ndata_root = %q\noutput_dir = %q\nwork_dir = %q\nlog_dir = %q\n",
		env.dataRoot,
		env.outputDir,
		env.workDir,
		filepath.Join(base, "logs"),
	)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, want string) {
	t.Helper()
	if !bytes.Contains([]byte(output), []byte(want)) {
		t.Fatalf("output missing %q:\n%s", want, output)
	}
}
