// Package config handles configuration loading using viper.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ErrConfigInvalid is wrapped by every validation failure.
var ErrConfigInvalid = errors.New("vrt: invalid configuration")

// maxScanPorts bounds the BPF prefilter; each port costs one instruction
// and jump offsets are 8-bit.
const maxScanPorts = 64

const maxPort = 0xFFFF

// Config represents the top-level configuration.
// Maps to the `vita49:` root key in YAML.
type Config struct {
	Log    LogConfig    `mapstructure:"log"`
	Output OutputConfig `mapstructure:"output"`
	Scan   ScanConfig   `mapstructure:"scan"`
}

// ─── Log ───

// LogConfig contains logging settings.
type LogConfig struct {
	Level      string           `mapstructure:"level"`       // debug / info / warn / error
	Pattern    string           `mapstructure:"pattern"`     // %time %level %field %msg %caller %n
	TimeFormat string           `mapstructure:"time_format"` // Go reference layout
	Console    bool             `mapstructure:"console"`
	File       FileOutputConfig `mapstructure:"file"`
}

// FileOutputConfig configures file log output.
type FileOutputConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Path     string         `mapstructure:"path"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	MaxBackups int  `mapstructure:"max_backups"`
	Compress   bool `mapstructure:"compress"`
}

// ─── Output ───

// OutputConfig controls how CLI results are rendered.
type OutputConfig struct {
	Format string `mapstructure:"format"` // table / json / yaml
	Color  bool   `mapstructure:"color"`
}

// ─── Scan ───

// ScanConfig configures the capture file scanner.
type ScanConfig struct {
	// Ports are held as int so that out-of-range values reach Validate
	// instead of wrapping during unmarshal.
	Ports           []int `mapstructure:"ports"`       // UDP destination ports, empty = every UDP datagram
	MaxPackets      int   `mapstructure:"max_packets"` // 0 = unlimited
	SkipErrors      bool  `mapstructure:"skip_errors"`
	CheckContinuity bool  `mapstructure:"check_continuity"`
}

// ─── Loading ───

// configRoot is the top-level wrapper matching the YAML structure `vita49: ...`.
type configRoot struct {
	Vita49 Config `mapstructure:"vita49"`
}

// Load loads configuration from path. An empty path yields the defaults,
// still subject to environment overrides (e.g. VITA49_LOG_LEVEL).
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Key "vita49.log.level" maps to env "VITA49_LOG_LEVEL".
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg := root.Vita49

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default values. All keys carry the "vita49." prefix.
func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("vita49.log.level", "info")
	v.SetDefault("vita49.log.pattern", "%time [%level] %field %msg%n")
	v.SetDefault("vita49.log.time_format", "2006-01-02 15:04:05")
	v.SetDefault("vita49.log.console", true)
	v.SetDefault("vita49.log.file.enabled", false)
	v.SetDefault("vita49.log.file.path", "/var/log/vita49/vrt.log")
	v.SetDefault("vita49.log.file.rotation.max_size_mb", 100)
	v.SetDefault("vita49.log.file.rotation.max_age_days", 30)
	v.SetDefault("vita49.log.file.rotation.max_backups", 5)
	v.SetDefault("vita49.log.file.rotation.compress", true)

	// Output defaults
	v.SetDefault("vita49.output.format", "table")
	v.SetDefault("vita49.output.color", false)

	// Scan defaults
	v.SetDefault("vita49.scan.ports", []int{})
	v.SetDefault("vita49.scan.max_packets", 0)
	v.SetDefault("vita49.scan.skip_errors", true)
	v.SetDefault("vita49.scan.check_continuity", true)
}

// Validate checks values that viper cannot type-check.
func (cfg *Config) Validate() error {
	// ── Log validation ──
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Log.Level)] {
		return fmt.Errorf("%w: log level %q (must be debug/info/warn/error)", ErrConfigInvalid, cfg.Log.Level)
	}
	if cfg.Log.File.Enabled && cfg.Log.File.Path == "" {
		return fmt.Errorf("%w: log.file.path is required when log.file.enabled=true", ErrConfigInvalid)
	}

	// ── Output validation ──
	switch strings.ToLower(cfg.Output.Format) {
	case "table", "json", "yaml", "yml":
	default:
		return fmt.Errorf("%w: output format %q (must be table/json/yaml)", ErrConfigInvalid, cfg.Output.Format)
	}

	// ── Scan validation ──
	if len(cfg.Scan.Ports) > maxScanPorts {
		return fmt.Errorf("%w: %d scan ports configured (max %d)", ErrConfigInvalid, len(cfg.Scan.Ports), maxScanPorts)
	}
	for _, p := range cfg.Scan.Ports {
		if p < 1 || p > maxPort {
			return fmt.Errorf("%w: scan port %d outside 1..%d", ErrConfigInvalid, p, maxPort)
		}
	}
	if cfg.Scan.MaxPackets < 0 {
		return fmt.Errorf("%w: scan.max_packets must be >= 0", ErrConfigInvalid)
	}

	return nil
}
