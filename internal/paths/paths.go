// Package paths resolves the configuration and data directories of the brep
// CLI.
//
// Directory precedence is flag, then config.yaml (data only), then
// environment, then default. The config default is the platform config
// directory; the data default is .brep-data under the working directory, so
// each project keeps its own models.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName is the per-user directory name under the platform directories.
const AppName = "brep"

// DefaultDataDirName is the data directory created under the working
// directory when nothing else names one.
const DefaultDataDirName = ".brep-data"

// Environment variables that override the defaults.
const (
	EnvConfigDir = "BREP_CONFIG_DIR"
	EnvDataDir   = "BREP_DATA_DIR"
)

// Overridden in tests.
var (
	userHomeDir   = os.UserHomeDir
	userConfigDir = os.UserConfigDir
	getwd         = os.Getwd
)

// DefaultConfigDir returns the platform configuration directory for brep:
// $XDG_CONFIG_HOME/brep or ~/.config/brep on Linux, os.UserConfigDir()/brep
// elsewhere.
func DefaultConfigDir() (string, error) {
	return platformDir("XDG_CONFIG_HOME", ".config")
}

// DefaultUserDataDir returns the platform data directory for brep:
// $XDG_DATA_HOME/brep or ~/.local/share/brep on Linux,
// os.UserConfigDir()/brep elsewhere.
func DefaultUserDataDir() (string, error) {
	return platformDir("XDG_DATA_HOME", ".local", "share")
}

func platformDir(xdgVar string, homeRel ...string) (string, error) {
	if runtime.GOOS != "linux" {
		dir, err := userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, AppName), nil
	}
	if xdg := os.Getenv(xdgVar); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	home, err := userHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append(append([]string{home}, homeRel...), AppName)...), nil
}

// ResolveConfigDir returns the absolute configuration directory: flag, then
// $BREP_CONFIG_DIR, then DefaultConfigDir.
func ResolveConfigDir(flag string) (string, error) {
	if dir := first(flag, os.Getenv(EnvConfigDir)); dir != "" {
		return filepath.Abs(dir)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the absolute data directory: flag, then the
// data_dir value from config.yaml, then $BREP_DATA_DIR, then
// DefaultDataDirName under the working directory.
func ResolveDataDir(flag, configValue string) (string, error) {
	if dir := first(flag, configValue, os.Getenv(EnvDataDir)); dir != "" {
		return filepath.Abs(dir)
	}
	cwd, err := getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}

func first(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
