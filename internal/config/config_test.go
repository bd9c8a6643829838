package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Log.Console)
	assert.False(t, cfg.Log.File.Enabled)
	assert.Equal(t, 100, cfg.Log.File.Rotation.MaxSizeMB)
	assert.Equal(t, "table", cfg.Output.Format)
	assert.Empty(t, cfg.Scan.Ports)
	assert.Equal(t, 0, cfg.Scan.MaxPackets)
	assert.True(t, cfg.Scan.SkipErrors)
	assert.True(t, cfg.Scan.CheckContinuity)
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, `
vita49:
  log:
    level: debug
    file:
      enabled: true
      path: /tmp/vrt-test.log
      rotation:
        max_size_mb: 10
  output:
    format: yaml
  scan:
    ports: [4991, 50000]
    max_packets: 25
    skip_errors: false
    check_continuity: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.File.Enabled)
	assert.Equal(t, "/tmp/vrt-test.log", cfg.Log.File.Path)
	assert.Equal(t, 10, cfg.Log.File.Rotation.MaxSizeMB)
	assert.Equal(t, 30, cfg.Log.File.Rotation.MaxAgeDays, "unset keys keep their default")
	assert.Equal(t, "yaml", cfg.Output.Format)
	assert.Equal(t, []int{4991, 50000}, cfg.Scan.Ports)
	assert.Equal(t, 25, cfg.Scan.MaxPackets)
	assert.False(t, cfg.Scan.SkipErrors)
	assert.False(t, cfg.Scan.CheckContinuity)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("VITA49_LOG_LEVEL", "warn")
	t.Setenv("VITA49_OUTPUT_FORMAT", "json")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Output.Format)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "log level",
			content: "vita49:\n  log:\n    level: verbose\n",
			want:    "log level",
		},
		{
			name:    "output format",
			content: "vita49:\n  output:\n    format: xml\n",
			want:    "output format",
		},
		{
			name:    "port zero",
			content: "vita49:\n  scan:\n    ports: [0]\n",
			want:    "port 0",
		},
		{
			name:    "port above 16 bits",
			content: "vita49:\n  scan:\n    ports: [4991, 70000]\n",
			want:    "port 70000",
		},
		{
			name:    "negative port",
			content: "vita49:\n  scan:\n    ports: [-1]\n",
			want:    "port -1",
		},
		{
			name:    "port 65536",
			content: "vita49:\n  scan:\n    ports: [65536]\n",
			want:    "port 65536",
		},
		{
			name:    "negative max packets",
			content: "vita49:\n  scan:\n    max_packets: -1\n",
			want:    "max_packets",
		},
		{
			name:    "file output without path",
			content: "vita49:\n  log:\n    file:\n      enabled: true\n      path: \"\"\n",
			want:    "log.file.path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConfigInvalid)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateTooManyPorts(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	for i := 1; i <= maxScanPorts+1; i++ {
		cfg.Scan.Ports = append(cfg.Scan.Ports, 4000+i)
	}
	assert.ErrorIs(t, cfg.Validate(), ErrConfigInvalid)
}
