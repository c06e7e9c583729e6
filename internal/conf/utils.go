// conf/utils.go configuration file resolution helpers
package conf

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"

	"github.com/kiki442002/go-bpm-analyzer/internal/errors"
)

const osWindows = "windows"

// GetDefaultConfigPaths returns a list of default configuration paths for the
// current operating system, based on standard conventions for storing
// application configuration files. If a config.yaml file is found in any of
// the paths, that path alone is returned.
func GetDefaultConfigPaths() ([]string, error) {
	var configPaths []string

	exePath, err := os.Executable()
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategorySystem).
			Context("operation", "get-executable-path").
			Build()
	}
	exeDir := filepath.Dir(exePath)

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategorySystem).
			Context("operation", "get-home-directory").
			Build()
	}

	switch runtime.GOOS {
	case osWindows:
		configPaths = []string{
			exeDir,
			filepath.Join(homeDir, "AppData", "Roaming", "bpm-analyzer"),
		}
	default:
		configPaths = []string{
			filepath.Join(homeDir, ".config", "bpm-analyzer"),
			"/etc/bpm-analyzer",
		}
	}

	for _, path := range configPaths {
		configFile := filepath.Join(path, "config.yaml")
		if _, err := os.Stat(configFile); err == nil {
			return []string{path}, nil
		}
	}

	return configPaths, nil
}

// PatternCacheDir resolves the directory used for cached template grids.
// An explicit override from settings wins; otherwise a patterns/ subdirectory
// of the first config path is used. The directory is created when missing.
func PatternCacheDir(settings *Settings) (string, error) {
	dir := settings.Tempo.PatternPath
	if dir == "" {
		configPaths, err := GetDefaultConfigPaths()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(configPaths[0], "patterns")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.New(err).
			Component("conf").
			Category(errors.CategoryFileIO).
			Context("operation", "create-pattern-dir").
			Context("path", dir).
			Build()
	}

	return dir, nil
}

// initViper wires defaults, config paths and the config file into viper.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return err
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return errors.New(err).
				Component("conf").
				Category(errors.CategoryConfiguration).
				Context("operation", "read-config-file").
				Build()
		}
		// No config file is fine, defaults and flags apply.
	}

	return nil
}
