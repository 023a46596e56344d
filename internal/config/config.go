// Package config loads the settings shared by the CLI and the HTTP server.
//
// Values come from an optional YAML file, then a .env file and SPARKEN_*
// environment variables, in increasing precedence. Anything left unset gets
// the defaults below.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigParse    = errors.New("failed to parse config")
	ErrInvalidConfig  = errors.New("invalid config")
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Defaults.
const (
	DefaultPort            = "3000"
	DefaultMaxUploadBytes  = 10 << 20
	DefaultBrandName       = "Sparken"
	DefaultMarker          = "sparken"
	DefaultTagline         = "SCIENCE-POWERED CREATIVE STUDIO"
	DefaultSubtitle        = "Prepared by Sparken Solutions"
	DefaultMarkdownEngine  = "gomarkdown"
	DefaultDelegateCommand = "python3"
	DefaultDelegateTimeout = 60 // seconds
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Upload   UploadConfig   `yaml:"upload"`
	Brand    BrandConfig    `yaml:"brand"`
	Markdown MarkdownConfig `yaml:"markdown"`
	Delegate DelegateConfig `yaml:"delegate"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Port        string `yaml:"port" validate:"required,numeric"`
	Environment string `yaml:"environment" validate:"oneof=development production"`
}

type UploadConfig struct {
	MaxBytes int `yaml:"maxBytes" validate:"gt=0"`
}

// BrandConfig describes the brand identity. Palette entries override single
// colors of the theme file, or of the built-in palette when no file is set.
type BrandConfig struct {
	Name            string            `yaml:"name" validate:"required"`
	Marker          string            `yaml:"marker" validate:"required,alphanum"`
	Tagline         string            `yaml:"tagline"`
	DefaultSubtitle string            `yaml:"defaultSubtitle"`
	ThemeFile       string            `yaml:"themeFile"`
	Palette         map[string]string `yaml:"palette" validate:"dive,keys,oneof=primary accent lime gray text band onAccent,endkeys,hexcolor"`
	HeaderLogo      string            `yaml:"headerLogo"`
	Watermark       string            `yaml:"watermark"`
	CoverLogo       string            `yaml:"coverLogo"`
}

type MarkdownConfig struct {
	Engine string `yaml:"engine" validate:"oneof=gomarkdown goldmark"`
}

type DelegateConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Command        string `yaml:"command" validate:"required"`
	Script         string `yaml:"script" validate:"required_if=Enabled true"`
	Dir            string `yaml:"dir"`
	TimeoutSeconds int    `yaml:"timeoutSeconds" validate:"gt=0"`
}

type LogConfig struct {
	File  string `yaml:"file"`
	Debug bool   `yaml:"debug"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	setDefault(&c.Server.Port, DefaultPort)
	setDefault(&c.Server.Environment, EnvDevelopment)
	if c.Upload.MaxBytes == 0 {
		c.Upload.MaxBytes = DefaultMaxUploadBytes
	}
	setDefault(&c.Brand.Name, DefaultBrandName)
	setDefault(&c.Brand.Marker, DefaultMarker)
	setDefault(&c.Brand.Tagline, DefaultTagline)
	setDefault(&c.Brand.DefaultSubtitle, DefaultSubtitle)
	setDefault(&c.Markdown.Engine, DefaultMarkdownEngine)
	setDefault(&c.Delegate.Command, DefaultDelegateCommand)
	if c.Delegate.TimeoutSeconds == 0 {
		c.Delegate.TimeoutSeconds = DefaultDelegateTimeout
	}
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

// IsProduction reports whether error details must be hidden from clients.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == EnvProduction
}

// Load reads the YAML file at path (skipped when empty), the .env file in the
// working directory if there is one, and the environment.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
			}
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.UnmarshalWithOptions(data, cfg, yaml.Strict()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv("SPARKEN_PORT", c.Server.Port)
	c.Server.Environment = getEnv("SPARKEN_ENV", c.Server.Environment)
	c.Upload.MaxBytes = getEnvAsInt("SPARKEN_MAX_UPLOAD_BYTES", c.Upload.MaxBytes)

	c.Brand.Name = getEnv("SPARKEN_BRAND_NAME", c.Brand.Name)
	c.Brand.ThemeFile = getEnv("SPARKEN_THEME_FILE", c.Brand.ThemeFile)
	c.Brand.HeaderLogo = getEnv("SPARKEN_HEADER_LOGO", c.Brand.HeaderLogo)
	c.Brand.Watermark = getEnv("SPARKEN_WATERMARK", c.Brand.Watermark)
	c.Brand.CoverLogo = getEnv("SPARKEN_COVER_LOGO", c.Brand.CoverLogo)

	c.Markdown.Engine = getEnv("SPARKEN_MARKDOWN_ENGINE", c.Markdown.Engine)

	c.Delegate.Enabled = getEnvAsBool("SPARKEN_DELEGATE_ENABLED", c.Delegate.Enabled)
	c.Delegate.Command = getEnv("SPARKEN_DELEGATE_COMMAND", c.Delegate.Command)
	c.Delegate.Script = getEnv("SPARKEN_DELEGATE_SCRIPT", c.Delegate.Script)
	c.Delegate.TimeoutSeconds = getEnvAsInt("SPARKEN_DELEGATE_TIMEOUT", c.Delegate.TimeoutSeconds)

	c.Log.File = getEnv("SPARKEN_LOG_FILE", c.Log.File)
	c.Log.Debug = getEnvAsBool("SPARKEN_DEBUG", c.Log.Debug)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every field. The error lists the offending fields by
// their YAML path.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fieldPath(fe.Namespace()), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, ", "))
}

// fieldPath turns "Config.Delegate.TimeoutSeconds" into "delegate.timeoutSeconds".
func fieldPath(ns string) string {
	parts := strings.Split(ns, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToLower(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, ".")
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
