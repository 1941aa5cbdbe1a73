package diary

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
	"go.uber.org/zap/zapcore"
)

// AppConfig holds all configuration options for the diary binary.
type AppConfig struct {
	// From config files (serialized)
	DataFile  string `json:"data_file"`
	Listen    string `json:"listen,omitempty"`
	LogLevel  string `json:"log_level,omitempty"`
	LogFormat string `json:"log_format,omitempty"`

	// WriteRateLimit caps API writes per second per client. Negative disables.
	WriteRateLimit float64 `json:"write_rate_limit,omitempty"`

	// Resolved values (computed, not serialized)
	EffectiveCwd string `json:"-"` // Absolute working directory (from -C flag or os.Getwd)
	DataFileAbs  string `json:"-"` // Absolute path to the data file

	// Sources tracks which config files were loaded (for diagnostics)
	Sources ConfigSources `json:"-"`
}

// ConfigSources tracks which config files were loaded.
type ConfigSources struct {
	Global  string // Path to global config if loaded, empty otherwise
	Project string // Path to project config if loaded, empty otherwise
}

// Log formats.
const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

// DefaultAppConfig returns the default configuration.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		DataFile:  filepath.Join("data", "diary.tsv"),
		Listen:    ":3000",
		LogLevel:  "info",
		LogFormat: LogFormatConsole,

		WriteRateLimit: 20,
	}
}

// ConfigFileName is the default project config file name.
const ConfigFileName = ".diary.json"

// getGlobalConfigPath returns the path to the global config file.
// Uses $XDG_CONFIG_HOME/diary/config.json if set, otherwise ~/.config/diary/config.json.
// Returns empty string if home directory cannot be determined.
func getGlobalConfigPath(env map[string]string) string {
	if xdgConfig := env["XDG_CONFIG_HOME"]; xdgConfig != "" {
		return filepath.Join(xdgConfig, "diary", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "diary", "config.json")
	}

	return ""
}

// LoadConfigInput holds the inputs for LoadConfig.
type LoadConfigInput struct {
	WorkDirOverride  string            // -C/--cwd flag value; if empty, os.Getwd() is used
	ConfigPath       string            // -c/--config flag value
	DataFileOverride *string           // --data-file flag value; nil means no override
	Env              map[string]string // environment variables
}

// LoadConfig loads configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Global user config (~/.config/diary/config.json or $XDG_CONFIG_HOME/diary/config.json)
// 3. Project config file at default location (.diary.json, if exists)
// 4. Explicit config file via ConfigPath (if non-empty, replaces 3)
// 5. CLI overrides.
//
// DataFileAbs in the returned config is always absolute.
func LoadConfig(input LoadConfigInput) (AppConfig, error) {
	workDir := input.WorkDirOverride
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return AppConfig{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	}

	workDir, err := filepath.Abs(workDir)
	if err != nil {
		return AppConfig{}, fmt.Errorf("resolve working directory: %w", err)
	}

	cfg := DefaultAppConfig()

	globalCfg, globalPath, err := loadGlobalConfig(input.Env)
	if err != nil {
		return AppConfig{}, err
	}

	cfg.Sources.Global = globalPath
	cfg = mergeConfig(cfg, globalCfg)

	projectCfg, projectPath, err := loadProjectConfig(workDir, input.ConfigPath)
	if err != nil {
		return AppConfig{}, err
	}

	cfg.Sources.Project = projectPath
	cfg = mergeConfig(cfg, projectCfg)

	if input.DataFileOverride != nil {
		cfg.DataFile = *input.DataFileOverride
	}

	validateErr := validateConfig(cfg)
	if validateErr != nil {
		return AppConfig{}, validateErr
	}

	cfg.EffectiveCwd = workDir

	if filepath.IsAbs(cfg.DataFile) {
		cfg.DataFileAbs = filepath.Clean(cfg.DataFile)
	} else {
		cfg.DataFileAbs = filepath.Join(workDir, cfg.DataFile)
	}

	return cfg, nil
}

func loadGlobalConfig(env map[string]string) (AppConfig, string, error) {
	globalCfgPath := getGlobalConfigPath(env)
	if globalCfgPath == "" {
		return AppConfig{}, "", nil
	}

	return loadConfigFile(globalCfgPath, false)
}

// loadProjectConfig loads the project config file (.diary.json) or an explicit config file.
func loadProjectConfig(workDir, configPath string) (AppConfig, string, error) {
	if configPath == "" {
		return loadConfigFile(filepath.Join(workDir, ConfigFileName), false)
	}

	cfgFile := configPath
	if !filepath.IsAbs(cfgFile) {
		cfgFile = filepath.Join(workDir, cfgFile)
	}

	_, statErr := os.Stat(cfgFile)
	if statErr != nil {
		return AppConfig{}, "", fmt.Errorf("%w: %s", ErrConfigFileNotFound, configPath)
	}

	return loadConfigFile(cfgFile, true)
}

// loadConfigFile loads a config file. If mustExist is false, a missing file
// yields a zero config and an empty path.
func loadConfigFile(path string, mustExist bool) (AppConfig, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !mustExist {
			return AppConfig{}, "", nil
		}

		return AppConfig{}, "", fmt.Errorf("%w: %s: %w", ErrConfigFileRead, path, err)
	}

	cfg, explicitEmpty, parseErr := parseConfig(data)
	if parseErr != nil {
		return AppConfig{}, "", fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, parseErr)
	}

	if explicitEmpty {
		return AppConfig{}, "", fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, ErrDataFileEmpty)
	}

	return cfg, path, nil
}

// parseConfig decodes JSONC. explicitEmpty reports whether data_file was
// present and set to "".
func parseConfig(data []byte) (AppConfig, bool, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return AppConfig{}, false, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg AppConfig

	unmarshalErr := json.Unmarshal(standardized, &cfg)
	if unmarshalErr != nil {
		return AppConfig{}, false, fmt.Errorf("invalid JSON: %w", unmarshalErr)
	}

	var raw map[string]any

	_ = json.Unmarshal(standardized, &raw)

	val, exists := raw["data_file"]
	str, isString := val.(string)

	return cfg, exists && isString && str == "", nil
}

func mergeConfig(base, overlay AppConfig) AppConfig {
	if overlay.DataFile != "" {
		base.DataFile = overlay.DataFile
	}

	if overlay.Listen != "" {
		base.Listen = overlay.Listen
	}

	if overlay.LogLevel != "" {
		base.LogLevel = overlay.LogLevel
	}

	if overlay.LogFormat != "" {
		base.LogFormat = overlay.LogFormat
	}

	if overlay.WriteRateLimit != 0 {
		base.WriteRateLimit = overlay.WriteRateLimit
	}

	return base
}

func validateConfig(cfg AppConfig) error {
	if cfg.DataFile == "" {
		return ErrDataFileEmpty
	}

	if cfg.LogFormat != LogFormatConsole && cfg.LogFormat != LogFormatJSON {
		return fmt.Errorf("%w, got %q", ErrLogFormatInvalid, cfg.LogFormat)
	}

	_, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLogLevelInvalid, err)
	}

	return nil
}

// FormatConfig renders cfg as indented JSON, as it would appear in a config file.
func FormatConfig(cfg AppConfig) (string, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("format config: %w", err)
	}

	return string(data), nil
}
