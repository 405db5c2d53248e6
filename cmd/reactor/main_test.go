package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// execute runs the root command with args and returns what it wrote to
// stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

// writeConfig writes a reactor.json whose archive lives in the test's temp
// directory and returns the config directory.
func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	archiveDir := filepath.Join(dir, "archive")
	data := `{"logLevel": "warn", "archive": {"dir": "` + filepath.ToSlash(archiveDir) + `"}}`
	if err := os.WriteFile(filepath.Join(dir, "reactor.json"), []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestVersionShort(t *testing.T) {
	out, err := execute(t, "--config", t.TempDir(), "version", "--short")
	if err != nil {
		t.Fatal(err)
	}
	if out != version+"\n" {
		t.Errorf("got %q, want %q", out, version+"\n")
	}
}

func TestVersionLong(t *testing.T) {
	out, err := execute(t, "--config", t.TempDir(), "version")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Version:", "Commit:", "Protocol:", "OS/Arch:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDemoSteps(t *testing.T) {
	out, err := execute(t, "--config", t.TempDir(), "demo", "--steps", "2")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"step 1: add three", "step 2: toggle first", "2 steps applied"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "step 3:") {
		t.Errorf("ran more than two steps:\n%s", out)
	}
}

func TestDemoAllSteps(t *testing.T) {
	out, err := execute(t, "--config", t.TempDir(), "demo")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "9 steps applied") {
		t.Errorf("output:\n%s", out)
	}
}

func TestConfigWrite(t *testing.T) {
	dir := t.TempDir()
	if _, err := execute(t, "--config", dir, "config", "--write"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "reactor.json")); err != nil {
		t.Fatalf("reactor.json not written: %v", err)
	}

	out, err := execute(t, "--config", dir, "config")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"addr": ":8080"`) {
		t.Errorf("config output missing default addr:\n%s", out)
	}
}

func TestInvalidLogLevel(t *testing.T) {
	_, err := execute(t, "--config", t.TempDir(), "--log-level", "loud", "version")
	if err == nil {
		t.Fatal("want error for unknown log level")
	}
	if !strings.Contains(err.Error(), "X001") {
		t.Errorf("got %v, want X001", err)
	}
}

func TestArchiveList(t *testing.T) {
	dir := writeConfig(t)
	out, err := execute(t, "--config", dir, "archive", "list")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "No frame logs") {
		t.Errorf("output:\n%s", out)
	}
}

func TestArchiveGetMissing(t *testing.T) {
	dir := writeConfig(t)
	if _, err := execute(t, "--config", dir, "archive", "get", "nope"); err == nil {
		t.Fatal("want error for missing log")
	}
}

func TestReplayMissingFile(t *testing.T) {
	if _, err := execute(t, "--config", t.TempDir(), "replay", filepath.Join(t.TempDir(), "none.frames")); err == nil {
		t.Fatal("want error for missing file")
	}
}
