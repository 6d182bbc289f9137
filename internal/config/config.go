// Package config loads add-watermark settings from flags and an optional
// config file.
package config

import (
	"errors"
	"fmt"
	"image/png"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	watermark "github.com/inkedtools/inked"
	"github.com/inkedtools/inked/internal/logging"
)

// ErrInvalid is wrapped by every error caused by unusable settings.
var ErrInvalid = errors.New("invalid configuration")

// Config holds every setting of the command line tool.
type Config struct {
	Position      string         `mapstructure:"position" default:"bottom-right" validate:"oneof=top-left center bottom-right"`
	WatermarkType string         `mapstructure:"watermark_type" default:"image" validate:"oneof=image text"`
	FontSize      int            `mapstructure:"font_size" default:"30" validate:"gt=0"`
	Opacity       int            `mapstructure:"opacity" default:"128" validate:"gte=0,lte=255"`
	FontPath      string         `mapstructure:"font_path"`
	FontFallback  string         `mapstructure:"font_fallback" default:"gomono" validate:"oneof=gomono basic"`
	Compression   string         `mapstructure:"compression" default:"default" validate:"oneof=default none best-speed best-compression"`
	JSON          bool           `mapstructure:"json"`
	Log           logging.Config `mapstructure:"log"`
}

// Default returns the built-in settings.
func Default() Config {
	var c Config
	// Only fails for malformed default tags.
	if err := defaults.Set(&c); err != nil {
		panic(err)
	}
	return c
}

// flagKeys maps flag names to configuration keys.
var flagKeys = map[string]string{
	"position":       "position",
	"watermark_type": "watermark_type",
	"font_size":      "font_size",
	"opacity":        "opacity",
	"font_path":      "font_path",
	"font_fallback":  "font_fallback",
	"compression":    "compression",
	"json":           "json",
	"log_level":      "log.level",
	"log_file":       "log.file",
}

// NewFlagSet registers the command line flags with their default values.
func NewFlagSet(name string) *pflag.FlagSet {
	d := Default()

	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SortFlags = false
	fs.String("position", d.Position, "Position of the watermark: top-left, center or bottom-right.")
	fs.String("watermark_type", d.WatermarkType, "Type of watermark: image or text.")
	fs.Int("font_size", d.FontSize, "Font size in pixels for text watermarks.")
	fs.Int("opacity", d.Opacity, "Opacity of the watermark, 0 to 255.")
	fs.String("font_path", d.FontPath, "Preferred TrueType/OpenType font for text watermarks.")
	fs.String("font_fallback", d.FontFallback, "Built-in font used when the preferred font is unavailable: gomono or basic.")
	fs.String("compression", d.Compression, "PNG compression: default, none, best-speed or best-compression.")
	fs.Bool("json", d.JSON, "Print the result as JSON.")
	fs.String("log_level", d.Log.Level, "Log level: debug, info, warn or error.")
	fs.String("log_file", d.Log.File, "Also write logs to this rotating file.")
	fs.String("config", "", "Optional config file (yaml, json or toml).")
	return fs
}

// Load parses args with fs, merges the optional config file and returns the
// validated settings together with the positional arguments.
func Load(fs *pflag.FlagSet, args []string) (*Config, []string, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	v := viper.New()
	for name, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return nil, nil, err
		}
	}

	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	cfg.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return &cfg, fs.Args(), nil
}

// Normalize lowercases every enumerated setting so names match case
// insensitively.
func (c *Config) Normalize() {
	for _, s := range []*string{&c.Position, &c.WatermarkType, &c.FontFallback, &c.Compression} {
		*s = strings.ToLower(strings.TrimSpace(*s))
	}
	c.Log.Normalize()
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		return name
	})
	return v
}

// Validate checks every setting against its allowed range.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s=%v fails %s", fieldPath(fe), fe.Value(), rule(fe)))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

func fieldPath(fe validator.FieldError) string {
	// Drop the root struct name.
	_, path, _ := strings.Cut(fe.Namespace(), ".")
	return path
}

func rule(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

// EngineOptions converts the settings into compositor options.
func (c *Config) EngineOptions() []watermark.Option {
	return []watermark.Option{
		watermark.WithFontPath(c.FontPath),
		watermark.WithFontFallback(watermark.FontFallback(c.FontFallback)),
		watermark.WithCompression(c.PNGCompression()),
	}
}

// PNGCompression maps the compression name to a png level.
func (c *Config) PNGCompression() png.CompressionLevel {
	switch c.Compression {
	case "none":
		return png.NoCompression
	case "best-speed":
		return png.BestSpeed
	case "best-compression":
		return png.BestCompression
	default:
		return png.DefaultCompression
	}
}
