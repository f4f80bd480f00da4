package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	charmLog "github.com/charmbracelet/log"

	"github.com/evanschultz/taskboard/internal/app"
	"github.com/evanschultz/taskboard/internal/config"
	"github.com/evanschultz/taskboard/internal/tui"
)

// TestMain sets deterministic environment defaults for CLI tests.
func TestMain(m *testing.M) {
	_ = os.Setenv("TASKBOARD_DEV_MODE", "false")
	os.Exit(m.Run())
}

const testSeed = `
clients:
  - id: c1
    name: Acme Corp
  - id: c2
    name: Northwind
tasks:
  - id: t1
    title: Alpha launch
    status: todo
    priority: high
    client_id: c1
    due_date: "2026-03-01"
  - id: t2
    title: Beta report
    status: done
    priority: low
    client_id: c2
`

// fakeProgram records the model it was started with.
type fakeProgram struct {
	model  *tea.Model
	runErr error
}

func (f fakeProgram) Run() (tea.Model, error) {
	return *f.model, f.runErr
}

// isolateHome points every per-user path at a temp dir.
func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(home, "data"))
	t.Setenv("TASKBOARD_CONFIG", "")
	t.Setenv("TASKBOARD_SEED", "")
	return home
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func TestRunVersion(t *testing.T) {
	isolateHome(t)
	var out strings.Builder
	if err := run(context.Background(), []string{"--version"}, &out, io.Discard); err != nil {
		t.Fatalf("run(version) error = %v", err)
	}
	if !strings.Contains(out.String(), version) {
		t.Fatalf("expected version output, got %q", out.String())
	}
}

func TestRunStartsProgram(t *testing.T) {
	isolateHome(t)
	origFactory := programFactory
	t.Cleanup(func() { programFactory = origFactory })

	var started tea.Model
	programFactory = func(m tea.Model) program {
		started = m
		return fakeProgram{model: &started}
	}

	if err := run(context.Background(), nil, io.Discard, io.Discard); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if _, ok := started.(tui.Model); !ok {
		t.Fatalf("started model = %T, want tui.Model", started)
	}
}

func TestRunUnknownCommand(t *testing.T) {
	isolateHome(t)
	if err := run(context.Background(), []string{"bogus"}, io.Discard, io.Discard); err == nil {
		t.Fatal("expected unknown command error")
	}
	if err := run(context.Background(), []string{"--nope"}, io.Discard, io.Discard); err == nil {
		t.Fatal("expected invalid flag error")
	}
}

func TestRunListCommandFilters(t *testing.T) {
	isolateHome(t)
	seedPath := filepath.Join(t.TempDir(), "seed.yaml")
	writeFile(t, seedPath, testSeed)

	var out bytes.Buffer
	if err := run(context.Background(), []string{"list", "--seed", seedPath, "--status", "todo"}, &out, io.Discard); err != nil {
		t.Fatalf("run(list) error = %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "Alpha launch") || !strings.Contains(got, "Acme Corp") || !strings.Contains(got, "2026-03-01") {
		t.Fatalf("list output missing todo task: %q", got)
	}
	if strings.Contains(got, "Beta report") {
		t.Fatalf("list output should not include done task: %q", got)
	}

	out.Reset()
	if err := run(context.Background(), []string{"list", "--seed", seedPath, "-q", "NORTHWIND"}, &out, io.Discard); err != nil {
		t.Fatalf("run(list -q) error = %v", err)
	}
	if !strings.Contains(out.String(), "Beta report") {
		t.Fatalf("client-name search missed task: %q", out.String())
	}

	out.Reset()
	if err := run(context.Background(), []string{"list", "--seed", seedPath, "--priority", "urgent"}, &out, io.Discard); err != nil {
		t.Fatalf("run(list urgent) error = %v", err)
	}
	if strings.TrimSpace(out.String()) != "no tasks" {
		t.Fatalf("list output = %q, want no tasks", out.String())
	}

	if err := run(context.Background(), []string{"list", "--seed", seedPath, "--status", "blocked"}, io.Discard, io.Discard); err == nil {
		t.Fatal("expected invalid filter error")
	}
}

func TestRunStatsCommandUsesBuiltInSeed(t *testing.T) {
	isolateHome(t)
	var out bytes.Buffer
	if err := run(context.Background(), []string{"stats"}, &out, io.Discard); err != nil {
		t.Fatalf("run(stats) error = %v", err)
	}
	for _, want := range []string{"total: 5", "todo: 2", "in_progress: 2", "done: 1", "completion: 20%"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("stats output missing %q: %q", want, out.String())
		}
	}
}

func TestRunSeedAndConfigEnvOverrides(t *testing.T) {
	home := isolateHome(t)
	seedPath := filepath.Join(home, "env-seed.yaml")
	writeFile(t, seedPath, testSeed)
	cfgPath := filepath.Join(home, "env-config.toml")
	writeFile(t, cfgPath, "[storage]\nbackend = \"sqlite\"\n\n[ids]\ngenerator = \"uuid\"\n")
	t.Setenv("TASKBOARD_SEED", seedPath)
	t.Setenv("TASKBOARD_CONFIG", cfgPath)

	var out bytes.Buffer
	if err := run(context.Background(), []string{"stats"}, &out, io.Discard); err != nil {
		t.Fatalf("run(stats) error = %v", err)
	}
	if !strings.Contains(out.String(), "total: 2") || !strings.Contains(out.String(), "completion: 50%") {
		t.Fatalf("stats output = %q, want env seed over sqlite", out.String())
	}
}

func TestRunExportCommandWritesSnapshot(t *testing.T) {
	isolateHome(t)
	seedPath := filepath.Join(t.TempDir(), "seed.yaml")
	writeFile(t, seedPath, testSeed)
	outPath := filepath.Join(t.TempDir(), "nested", "snapshot.json")

	if err := run(context.Background(), []string{"export", "--seed", seedPath, "--out", outPath}, io.Discard, io.Discard); err != nil {
		t.Fatalf("run(export) error = %v", err)
	}
	content, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	var snap app.Snapshot
	if err := json.Unmarshal(content, &snap); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if snap.Version != app.SnapshotVersion || len(snap.Clients) != 2 || len(snap.Tasks) != 2 {
		t.Fatalf("unexpected snapshot %#v", snap)
	}
	if snap.Tasks[1].ClientName != "Northwind" || snap.Statistics.Done != 1 {
		t.Fatalf("unexpected snapshot contents %#v", snap)
	}

	var stdout bytes.Buffer
	if err := run(context.Background(), []string{"export", "--seed", seedPath}, &stdout, io.Discard); err != nil {
		t.Fatalf("run(export stdout) error = %v", err)
	}
	if !strings.Contains(stdout.String(), `"version": "taskboard.snapshot.v1"`) {
		t.Fatalf("stdout export = %q", stdout.String())
	}
}

func TestRunRejectsBadSeedAndConfig(t *testing.T) {
	home := isolateHome(t)
	if err := run(context.Background(), []string{"stats", "--seed", filepath.Join(home, "missing.yaml")}, io.Discard, io.Discard); err == nil {
		t.Fatal("expected missing seed error")
	}

	cfgPath := filepath.Join(home, "config.toml")
	writeFile(t, cfgPath, "[logging]\nlevel = \"verbose\"\n")
	if err := run(context.Background(), []string{"stats", "--config", cfgPath}, io.Discard, io.Discard); err == nil {
		t.Fatal("expected invalid logging level error")
	}
}

func TestRunPathsCommand(t *testing.T) {
	home := isolateHome(t)
	var out bytes.Buffer
	if err := run(context.Background(), []string{"paths", "--app", "tb", "--dev"}, &out, io.Discard); err != nil {
		t.Fatalf("run(paths) error = %v", err)
	}
	got := out.String()
	for _, want := range []string{
		"app: tb",
		"dev_mode: true",
		"config: " + filepath.Join(home, "config", "tb-dev", "config.toml"),
		"seed: " + filepath.Join(home, "config", "tb-dev", "seed.yaml"),
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("paths output missing %q: %q", want, got)
		}
	}
}

func TestRunServeStopsOnCancel(t *testing.T) {
	isolateHome(t)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if err := run(ctx, []string{"serve", "--bind", "127.0.0.1:0"}, io.Discard, io.Discard); err != nil {
		t.Fatalf("run(serve) error = %v", err)
	}
}

func TestRunDevModeWritesLogFile(t *testing.T) {
	home := isolateHome(t)
	logDir := filepath.Join(home, "logs")
	cfgPath := filepath.Join(home, "config.toml")
	writeFile(t, cfgPath, "[logging]\nlevel = \"debug\"\n\n[logging.dev_file]\nenabled = true\ndir = \""+filepath.ToSlash(logDir)+"\"\n")

	if err := run(context.Background(), []string{"stats", "--dev", "--config", cfgPath}, io.Discard, io.Discard); err != nil {
		t.Fatalf("run(stats --dev) error = %v", err)
	}
	entries, err := os.ReadDir(logDir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("ReadDir() = %v, %v, want one log file", entries, err)
	}
	content, err := os.ReadFile(filepath.Join(logDir, entries[0].Name()))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(content), "seed data loaded") {
		t.Fatalf("dev log missing startup events: %q", content)
	}
}

func TestRuntimeLoggerCanMuteConsoleSink(t *testing.T) {
	var console bytes.Buffer
	logger, err := newRuntimeLogger(&console, "taskboard", false, config.LoggingConfig{Level: "info"}, nil)
	if err != nil {
		t.Fatalf("newRuntimeLogger() error = %v", err)
	}
	logger.Info("visible")
	logger.SetConsoleEnabled(false)
	logger.Info("hidden")
	if logger.Primary() != nil {
		t.Fatal("muted console without a dev file should have no primary sink")
	}
	if !strings.Contains(console.String(), "visible") || strings.Contains(console.String(), "hidden") {
		t.Fatalf("console output = %q", console.String())
	}

	if _, err := newRuntimeLogger(io.Discard, "taskboard", false, config.LoggingConfig{Level: "loud"}, nil); err == nil {
		t.Fatal("expected level parse error")
	}
}

func TestRuntimeLoggerPrimaryPrefersDevFile(t *testing.T) {
	dir := t.TempDir()
	now := func() time.Time { return time.Date(2026, 2, 21, 9, 0, 0, 0, time.UTC) }
	logger, err := newRuntimeLogger(io.Discard, "task board", true, config.LoggingConfig{
		Level:   "debug",
		DevFile: config.DevFileConfig{Enabled: true, Dir: dir},
	}, now)
	if err != nil {
		t.Fatalf("newRuntimeLogger() error = %v", err)
	}
	t.Cleanup(func() { _ = logger.Close() })

	want := filepath.Join(dir, "task-board-20260221.log")
	if logger.DevLogPath() != want {
		t.Fatalf("DevLogPath() = %q, want %q", logger.DevLogPath(), want)
	}
	if logger.Primary() == nil || logger.Primary() == logger.consoleSink {
		t.Fatal("expected the dev file sink as primary")
	}
	if logger.Primary().GetLevel() != charmLog.DebugLevel {
		t.Fatalf("level = %v, want debug", logger.Primary().GetLevel())
	}
}

func TestParseBoolEnv(t *testing.T) {
	t.Setenv("TASKBOARD_TEST_BOOL", "yes")
	if _, ok := parseBoolEnv("TASKBOARD_TEST_BOOL"); ok {
		t.Fatal("expected malformed bool to be ignored")
	}
	t.Setenv("TASKBOARD_TEST_BOOL", "true")
	if v, ok := parseBoolEnv("TASKBOARD_TEST_BOOL"); !ok || !v {
		t.Fatalf("parseBoolEnv() = (%t, %t), want (true, true)", v, ok)
	}
}

func TestSanitizeLogFileStem(t *testing.T) {
	cases := map[string]string{
		"taskboard":  "taskboard",
		" a/b:c ":    "a-b-c",
		"///":        "taskboard",
		"":           "taskboard",
		"team board": "team-board",
	}
	for in, want := range cases {
		if got := sanitizeLogFileStem(in); got != want {
			t.Fatalf("sanitizeLogFileStem(%q) = %q, want %q", in, got, want)
		}
	}
}
