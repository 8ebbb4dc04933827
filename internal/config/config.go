package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/actingweb/actingweb-sub001/pkg/types"
)

var (
	envPattern  = regexp.MustCompile(`\{env:([^}]+)\}`)
	filePattern = regexp.MustCompile(`\{file:([^}]+)\}`)
)

// Load loads configuration from the OS file system. See LoadFS.
func Load(directory string) (*types.Config, error) {
	return LoadFS(afero.NewOsFs(), directory)
}

// LoadFS loads configuration from multiple sources (priority order):
// 1. Global config ($XDG_CONFIG_HOME/actingweb/hooks.{json,jsonc,yaml,yml})
// 2. Project config (<dir>/actingweb.* and <dir>/.actingweb/hooks.*)
// 3. ACTINGWEB_CONFIG file
// 4. ACTINGWEB_CONFIG_CONTENT inline JSON(C)
// 5. Environment variables
//
// Missing files are skipped. A file that exists but does not parse is an
// error.
func LoadFS(fs afero.Fs, directory string) (*types.Config, error) {
	config := &types.Config{}

	// Track loaded files to avoid duplicates
	loaded := make(map[string]bool)

	for _, path := range Candidates(directory) {
		absPath, err := filepath.Abs(path)
		if err != nil || loaded[absPath] {
			continue
		}
		ok, err := loadConfigFile(fs, path, config)
		if err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
		if ok {
			loaded[absPath] = true
		}
	}

	if content := os.Getenv("ACTINGWEB_CONFIG_CONTENT"); content != "" {
		var inline types.Config
		data := interpolate(fs, jsonc.ToJSON([]byte(content)), "", true)
		if err := json.Unmarshal(data, &inline); err != nil {
			return nil, fmt.Errorf("ACTINGWEB_CONFIG_CONTENT: %w", err)
		}
		mergeConfig(config, &inline)
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}
	return config, nil
}

// Parse decodes one config document. YAML is selected by the .yaml or
// .yml extension of name, everything else is read as JSONC.
func Parse(name string, data []byte) (*types.Config, error) {
	var cfg types.Config
	if isYAML(name) {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
		return &cfg, nil
	}
	if err := json.Unmarshal(jsonc.ToJSON(data), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadConfigFile merges path into config. It reports false for a file
// that does not exist.
func loadConfigFile(fs afero.Fs, path string, config *types.Config) (bool, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	yamlFile := isYAML(path)
	if !yamlFile {
		data = jsonc.ToJSON(data)
	}
	data = interpolate(fs, data, filepath.Dir(path), !yamlFile)

	fileConfig, err := Parse(path, data)
	if err != nil {
		return false, err
	}
	mergeConfig(config, fileConfig)
	return true, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// interpolate processes {env:VAR} and {file:path} placeholders. File
// contents are escaped for use inside a JSON string when escape is set.
func interpolate(fs afero.Fs, data []byte, baseDir string, escape bool) []byte {
	str := envPattern.ReplaceAllStringFunc(string(data), func(match string) string {
		return os.Getenv(envPattern.FindStringSubmatch(match)[1])
	})

	str = filePattern.ReplaceAllStringFunc(str, func(match string) string {
		filePath := filePattern.FindStringSubmatch(match)[1]

		if strings.HasPrefix(filePath, "~/") {
			filePath = filepath.Join(os.Getenv("HOME"), filePath[2:])
		} else if !filepath.IsAbs(filePath) {
			filePath = filepath.Join(baseDir, filePath)
		}

		content, err := afero.ReadFile(fs, filePath)
		if err != nil {
			return match // Keep original if file not found
		}
		text := strings.TrimRight(string(content), "\r\n")
		if !escape {
			return text
		}
		quoted, _ := json.Marshal(text)
		return string(quoted[1 : len(quoted)-1])
	})

	return []byte(str)
}

// mergeConfig merges source config into target. Scalars override,
// hooks accumulate and the permission block is replaced as a whole.
func mergeConfig(target, source *types.Config) {
	if source.Schema != "" {
		target.Schema = source.Schema
	}

	if source.Server != nil {
		if target.Server == nil {
			target.Server = &types.ServerConfig{}
		}
		if source.Server.Port != 0 {
			target.Server.Port = source.Server.Port
		}
		if source.Server.Hostname != "" {
			target.Server.Hostname = source.Server.Hostname
		}
		if source.Server.CORS != nil {
			target.Server.CORS = source.Server.CORS
		}
	}

	if source.Dispatch != nil {
		if target.Dispatch == nil {
			target.Dispatch = &types.DispatchConfig{}
		}
		if source.Dispatch.Mode != "" {
			target.Dispatch.Mode = source.Dispatch.Mode
		}
		if source.Dispatch.Timeout != "" {
			target.Dispatch.Timeout = source.Dispatch.Timeout
		}
	}

	if source.Permission != nil {
		target.Permission = source.Permission
	}

	if source.Log != nil {
		target.Log = source.Log
	}

	if len(source.Hooks) > 0 {
		target.Hooks = append(target.Hooks, source.Hooks...)
	}
}

// applyEnvOverrides applies environment variable overrides.
func applyEnvOverrides(config *types.Config) error {
	if port := os.Getenv("ACTINGWEB_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("ACTINGWEB_PORT: %w", err)
		}
		server(config).Port = p
	}
	if host := os.Getenv("ACTINGWEB_HOSTNAME"); host != "" {
		server(config).Hostname = host
	}

	if mode := os.Getenv("ACTINGWEB_DISPATCH_MODE"); mode != "" {
		dispatch(config).Mode = mode
	}
	if timeout := os.Getenv("ACTINGWEB_DISPATCH_TIMEOUT"); timeout != "" {
		dispatch(config).Timeout = timeout
	}

	// Permission override (JSON)
	if permJSON := os.Getenv("ACTINGWEB_PERMISSION"); permJSON != "" {
		var perm types.PermissionConfig
		if err := json.Unmarshal([]byte(permJSON), &perm); err != nil {
			return fmt.Errorf("ACTINGWEB_PERMISSION: %w", err)
		}
		config.Permission = &perm
	}
	return nil
}

func server(c *types.Config) *types.ServerConfig {
	if c.Server == nil {
		c.Server = &types.ServerConfig{}
	}
	return c.Server
}

func dispatch(c *types.Config) *types.DispatchConfig {
	if c.Dispatch == nil {
		c.Dispatch = &types.DispatchConfig{}
	}
	return c.Dispatch
}

// Save writes the configuration to path as indented JSON, or as YAML for
// a .yaml/.yml path.
func Save(fs afero.Fs, config *types.Config, path string) error {
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(config)
	} else {
		data, err = json.MarshalIndent(config, "", "  ")
	}
	if err != nil {
		return err
	}
	return afero.WriteFile(fs, path, data, 0644)
}
