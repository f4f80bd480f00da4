package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const defaultAppName = "taskboard"

// Paths holds the per-user locations the board reads and writes.
type Paths struct {
	ConfigPath string
	SeedPath   string
	DataDir    string
	LogDir     string
}

// Options selects the app directory name.
type Options struct {
	AppName string
	DevMode bool
}

// baseOverrides lists, per GOOS, the env vars that replace the config and data bases.
var baseOverrides = map[string]struct{ config, data string }{
	"linux":   {config: "XDG_CONFIG_HOME", data: "XDG_DATA_HOME"},
	"windows": {config: "APPDATA", data: "LOCALAPPDATA"},
}

// DefaultPaths returns the paths for the default app name.
func DefaultPaths() (Paths, error) {
	return DefaultPathsWithOptions(Options{})
}

// DefaultPathsWithOptions resolves paths for the current user and OS.
func DefaultPathsWithOptions(opts Options) (Paths, error) {
	configBase, err := os.UserConfigDir()
	if err != nil {
		return Paths{}, fmt.Errorf("user config dir: %w", err)
	}
	dataBase, err := defaultDataBase(runtime.GOOS, configBase)
	if err != nil {
		return Paths{}, err
	}

	env := map[string]string{}
	if names, ok := baseOverrides[runtime.GOOS]; ok {
		env[names.config] = os.Getenv(names.config)
		env[names.data] = os.Getenv(names.data)
	}
	return PathsFor(runtime.GOOS, env, configBase, dataBase, AppName(opts))
}

// AppName returns the directory name for opts. Dev mode gets its own tree.
func AppName(opts Options) string {
	name := strings.TrimSpace(opts.AppName)
	if name == "" {
		name = defaultAppName
	}
	if opts.DevMode {
		name += "-dev"
	}
	return name
}

// defaultDataBase picks the per-user data base directory before env overrides.
func defaultDataBase(goos, configBase string) (string, error) {
	switch goos {
	case "linux":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("user home dir: %w", err)
		}
		return filepath.Join(home, ".local", "share"), nil
	case "windows":
		if v := strings.TrimSpace(os.Getenv("LOCALAPPDATA")); v != "" {
			return v, nil
		}
	}
	return configBase, nil
}

// PathsFor resolves paths for goos from explicit env and base dirs.
func PathsFor(goos string, env map[string]string, configBase, dataBase, appName string) (Paths, error) {
	appName = strings.TrimSpace(appName)
	switch {
	case configBase == "" || dataBase == "":
		return Paths{}, errors.New("empty base dirs")
	case appName == "":
		return Paths{}, errors.New("empty app name")
	}
	if names, ok := baseOverrides[goos]; ok {
		if v := env[names.config]; v != "" {
			configBase = v
		}
		if v := env[names.data]; v != "" {
			dataBase = v
		}
	}

	configRoot := filepath.Join(configBase, appName)
	dataRoot := filepath.Join(dataBase, appName)
	return Paths{
		ConfigPath: filepath.Join(configRoot, "config.toml"),
		SeedPath:   filepath.Join(configRoot, "seed.yaml"),
		DataDir:    dataRoot,
		LogDir:     filepath.Join(dataRoot, "logs"),
	}, nil
}
