package platform

import (
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestPathsForLinuxWithXDG(t *testing.T) {
	p, err := PathsFor("linux", map[string]string{
		"XDG_CONFIG_HOME": "/xdg/config",
		"XDG_DATA_HOME":   "/xdg/data",
	}, "/fallback/config", "/fallback/data", "taskboard")
	if err != nil {
		t.Fatalf("PathsFor() error = %v", err)
	}
	if want := filepath.Join("/xdg/config", "taskboard", "config.toml"); p.ConfigPath != want {
		t.Fatalf("unexpected config path %q", p.ConfigPath)
	}
	if want := filepath.Join("/xdg/config", "taskboard", "seed.yaml"); p.SeedPath != want {
		t.Fatalf("unexpected seed path %q", p.SeedPath)
	}
	if want := filepath.Join("/xdg/data", "taskboard", "logs"); p.LogDir != want {
		t.Fatalf("unexpected log dir %q", p.LogDir)
	}
}

func TestPathsForWindowsUsesAppData(t *testing.T) {
	p, err := PathsFor("windows", map[string]string{
		"APPDATA":      `C:\Users\me\AppData\Roaming`,
		"LOCALAPPDATA": `C:\Users\me\AppData\Local`,
	}, `C:\fallback\config`, `C:\fallback\data`, "taskboard")
	if err != nil {
		t.Fatalf("PathsFor() error = %v", err)
	}
	if want := filepath.Join(`C:\Users\me\AppData\Roaming`, "taskboard", "config.toml"); p.ConfigPath != want {
		t.Fatalf("unexpected config path %q", p.ConfigPath)
	}
	if want := filepath.Join(`C:\Users\me\AppData\Local`, "taskboard"); p.DataDir != want {
		t.Fatalf("unexpected data dir %q", p.DataDir)
	}
}

func TestPathsForDarwinIgnoresXDG(t *testing.T) {
	p, err := PathsFor("darwin", map[string]string{
		"XDG_CONFIG_HOME": "/ignored",
		"XDG_DATA_HOME":   "/ignored",
	}, "/Users/me/Library/Application Support", "/Users/me/Library/Application Support", "taskboard")
	if err != nil {
		t.Fatalf("PathsFor() error = %v", err)
	}
	if strings.HasPrefix(p.ConfigPath, "/ignored") || strings.HasPrefix(p.DataDir, "/ignored") {
		t.Fatalf("expected XDG to be ignored on darwin, got %#v", p)
	}
}

func TestPathsForRejectsEmptyInputs(t *testing.T) {
	if _, err := PathsFor("darwin", nil, "", "/tmp/data", "taskboard"); err == nil {
		t.Fatal("expected error for empty dirs")
	}
	if _, err := PathsFor("linux", nil, "/c", "/d", "  "); err == nil {
		t.Fatal("expected error for empty app name")
	}
}

func TestAppName(t *testing.T) {
	cases := []struct {
		opts Options
		want string
	}{
		{opts: Options{}, want: "taskboard"},
		{opts: Options{DevMode: true}, want: "taskboard-dev"},
		{opts: Options{AppName: "  tb "}, want: "tb"},
		{opts: Options{AppName: "tb", DevMode: true}, want: "tb-dev"},
	}
	for _, tt := range cases {
		if got := AppName(tt.opts); got != tt.want {
			t.Fatalf("AppName(%#v) = %q, want %q", tt.opts, got, tt.want)
		}
	}
}

func TestDefaultPathsWithOptionsUsesXDG(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG resolution applies to linux")
	}
	base := t.TempDir()
	t.Setenv("HOME", base)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(base, "cfg"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(base, "data"))

	p, err := DefaultPathsWithOptions(Options{DevMode: true})
	if err != nil {
		t.Fatalf("DefaultPathsWithOptions() error = %v", err)
	}
	if want := filepath.Join(base, "cfg", "taskboard-dev", "config.toml"); p.ConfigPath != want {
		t.Fatalf("ConfigPath = %q, want %q", p.ConfigPath, want)
	}
	if want := filepath.Join(base, "data", "taskboard-dev", "logs"); p.LogDir != want {
		t.Fatalf("LogDir = %q, want %q", p.LogDir, want)
	}
}
