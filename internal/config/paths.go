// Package config provides configuration loading and path management.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName is the directory name used under the XDG base directories.
const AppName = "actingweb"

// GlobalDir returns the global config directory, ~/.config/actingweb
// unless XDG_CONFIG_HOME says otherwise.
func GlobalDir() string {
	return filepath.Join(getEnvOrDefault("XDG_CONFIG_HOME", defaultConfigHome()), AppName)
}

// getEnvOrDefault returns the environment variable value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func defaultConfigHome() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("APPDATA")
	}
	return filepath.Join(os.Getenv("HOME"), ".config")
}

// GlobalConfigPath returns the path to the global config file.
func GlobalConfigPath() string {
	return filepath.Join(GlobalDir(), "hooks.json")
}

// ProjectConfigPath returns the path to the project config file.
func ProjectConfigPath(directory string) string {
	return filepath.Join(directory, ".actingweb", "hooks.json")
}

// Candidates returns every file Load looks at for directory, in load
// order. Later files override earlier ones.
func Candidates(directory string) []string {
	var files []string
	global := GlobalDir()
	for _, name := range []string{"hooks.json", "hooks.jsonc", "hooks.yaml", "hooks.yml"} {
		files = append(files, filepath.Join(global, name))
	}
	if directory != "" {
		for _, name := range []string{"actingweb.json", "actingweb.jsonc", "actingweb.yaml", "actingweb.yml"} {
			files = append(files, filepath.Join(directory, name))
		}
		projectDir := filepath.Join(directory, ".actingweb")
		for _, name := range []string{"hooks.json", "hooks.jsonc", "hooks.yaml", "hooks.yml"} {
			files = append(files, filepath.Join(projectDir, name))
		}
	}
	if path := os.Getenv("ACTINGWEB_CONFIG"); path != "" {
		files = append(files, path)
	}
	return files
}
