package config

import (
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "bottom-right", cfg.Position)
	assert.Equal(t, "image", cfg.WatermarkType)
	assert.Equal(t, 30, cfg.FontSize)
	assert.Equal(t, 128, cfg.Opacity)
	assert.Equal(t, "gomono", cfg.FontFallback)
	assert.Equal(t, "default", cfg.Compression)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoadDefaultsAndPositionals(t *testing.T) {
	cfg, args, err := Load(NewFlagSet("test"), []string{"in.png", "out.png", "mark.png"})
	require.NoError(t, err)

	assert.Equal(t, []string{"in.png", "out.png", "mark.png"}, args)
	assert.Equal(t, Default(), *cfg)
}

func TestLoadFlagsAnywhere(t *testing.T) {
	cfg, args, err := Load(NewFlagSet("test"), []string{
		"in.png", "--position", "center", "out.png",
		"--watermark_type=text", "Sample Watermark",
		"--font_size", "42", "--opacity", "0", "--log_level", "debug",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"in.png", "out.png", "Sample Watermark"}, args)
	assert.Equal(t, "center", cfg.Position)
	assert.Equal(t, "text", cfg.WatermarkType)
	assert.Equal(t, 42, cfg.FontSize)
	assert.Equal(t, 0, cfg.Opacity)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "opacity high", args: []string{"--opacity", "256"}, want: "opacity"},
		{name: "opacity negative", args: []string{"--opacity=-1"}, want: "opacity"},
		{name: "position", args: []string{"--position", "middle"}, want: "position"},
		{name: "type", args: []string{"--watermark_type", "svg"}, want: "watermark_type"},
		{name: "font size", args: []string{"--font_size", "0"}, want: "font_size"},
		{name: "fallback", args: []string{"--font_fallback", "arial"}, want: "font_fallback"},
		{name: "log level", args: []string{"--log_level", "loud"}, want: "log.level"},
		{name: "unknown flag", args: []string{"--colour", "red"}, want: "colour"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Load(NewFlagSet("test"), tt.args)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid), "error %v should wrap ErrInvalid", err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadHelp(t *testing.T) {
	fs := NewFlagSet("test")
	fs.SetOutput(new(nopWriter))

	_, _, err := Load(fs, []string{"--help"})
	assert.ErrorIs(t, err, pflag.ErrHelp)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inked.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
position: top-left
opacity: 200
font_fallback: basic
compression: best-compression
log:
  level: info
  format: json
`), 0o644))

	cfg, _, err := Load(NewFlagSet("test"), []string{"--config", path, "--opacity", "64"})
	require.NoError(t, err)

	assert.Equal(t, "top-left", cfg.Position)
	assert.Equal(t, 64, cfg.Opacity, "flags override the config file")
	assert.Equal(t, "basic", cfg.FontFallback)
	assert.Equal(t, png.BestCompression, cfg.PNGCompression())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 30, cfg.FontSize)
}

func TestLoadConfigFileIgnoresCase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inked.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
position: CENTER
watermark_type: Text
log:
  level: INFO
  format: JSON
`), 0o644))

	cfg, _, err := Load(NewFlagSet("test"), []string{"--config", path, "--compression", "Best-Speed"})
	require.NoError(t, err)

	assert.Equal(t, "center", cfg.Position)
	assert.Equal(t, "text", cfg.WatermarkType)
	assert.Equal(t, png.BestSpeed, cfg.PNGCompression())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadConfigFileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")

	_, _, err := Load(NewFlagSet("test"), []string{"--config", path})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadConfigFileInvalidValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inked.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"opacity": 300}`), 0o644))

	_, _, err := Load(NewFlagSet("test"), []string{"--config", path})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestPNGCompression(t *testing.T) {
	tests := map[string]png.CompressionLevel{
		"default":          png.DefaultCompression,
		"none":             png.NoCompression,
		"best-speed":       png.BestSpeed,
		"best-compression": png.BestCompression,
	}
	for name, want := range tests {
		cfg := Config{Compression: name}
		assert.Equal(t, want, cfg.PNGCompression(), name)
	}
}

func TestEngineOptions(t *testing.T) {
	cfg := Default()
	assert.Len(t, cfg.EngineOptions(), 3)
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
