package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Tools    ToolsConfig
	Render   RenderConfig
	OCR      OCRConfig
	Log      LogConfig
	Disabled []string // "candidate" or "capability/candidate"
}

// ToolsConfig holds binary names or absolute paths of external tools
type ToolsConfig struct {
	Pdfinfo     string
	Pdftoppm    string
	Pdftotext   string
	Magick      string
	Mutool      string
	Tesseract   string
	HeifConvert string
	Sips        string
}

// RenderConfig holds page rendering configuration
type RenderConfig struct {
	DPI         int
	Workers     int
	PageTimeout time.Duration
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Lang        string
	TessdataDir string
	PSM         int
}

// LogConfig holds diagnostics output configuration
type LogConfig struct {
	Format string // text | json
}

// DefaultDPI matches the resolution the page tools have always rendered at.
const DefaultDPI = 400

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Tools: ToolsConfig{
			Pdfinfo:     getEnv("PDFPAGES_PDFINFO", "pdfinfo"),
			Pdftoppm:    getEnv("PDFPAGES_PDFTOPPM", "pdftoppm"),
			Pdftotext:   getEnv("PDFPAGES_PDFTOTEXT", "pdftotext"),
			Magick:      getEnv("PDFPAGES_MAGICK", "magick"),
			Mutool:      getEnv("PDFPAGES_MUTOOL", "mutool"),
			Tesseract:   getEnv("PDFPAGES_TESSERACT", "tesseract"),
			HeifConvert: getEnv("PDFPAGES_HEIF_CONVERT", "heif-convert"),
			Sips:        getEnv("PDFPAGES_SIPS", "sips"),
		},
		Render: RenderConfig{
			DPI:         getEnvAsInt("PDFPAGES_DPI", DefaultDPI),
			Workers:     getEnvAsInt("PDFPAGES_WORKERS", 1),
			PageTimeout: getEnvAsDuration("PDFPAGES_PAGE_TIMEOUT", 2*time.Minute),
		},
		OCR: OCRConfig{
			Lang:        getEnv("TESSERACT_LANG", "eng"),
			TessdataDir: getEnv("TESSDATA_PREFIX", ""),
			PSM:         getEnvAsInt("TESSERACT_PSM", 0),
		},
		Log: LogConfig{
			Format: getEnv("PDFPAGES_LOG_FORMAT", "text"),
		},
		Disabled: getEnvAsList("PDFPAGES_DISABLE"),
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// IsDisabled reports whether a candidate was switched off, either by bare
// name or qualified with its capability.
func (c *Config) IsDisabled(capability, candidate string) bool {
	for _, d := range c.Disabled {
		if d == candidate || d == capability+"/"+candidate {
			return true
		}
	}
	return false
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Render.DPI <= 0 {
		return NewAppError(CodeConfig, "dpi must be positive", ErrInvalidInput)
	}
	if c.Render.Workers <= 0 {
		return NewAppError(CodeConfig, "workers must be positive", ErrInvalidInput)
	}
	if c.Render.PageTimeout < 0 {
		return NewAppError(CodeConfig, "page timeout must not be negative", ErrInvalidInput)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return NewAppError(CodeConfig, "log format must be text or json", ErrInvalidInput)
	}
	if c.OCR.Lang == "" {
		return NewAppError(CodeConfig, "TESSERACT_LANG is required", ErrInvalidInput)
	}
	return nil
}
