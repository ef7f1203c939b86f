package common

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// configSchema constrains the YAML config file. Unknown keys are rejected so
// a typo in a tool name does not silently fall back to the default binary.
const configSchema = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "tools": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "pdfinfo":      {"type": "string", "minLength": 1},
        "pdftoppm":     {"type": "string", "minLength": 1},
        "pdftotext":    {"type": "string", "minLength": 1},
        "magick":       {"type": "string", "minLength": 1},
        "mutool":       {"type": "string", "minLength": 1},
        "tesseract":    {"type": "string", "minLength": 1},
        "heif_convert": {"type": "string", "minLength": 1},
        "sips":         {"type": "string", "minLength": 1}
      }
    },
    "render": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "dpi":          {"type": "integer", "minimum": 1, "maximum": 2400},
        "workers":      {"type": "integer", "minimum": 1, "maximum": 64},
        "page_timeout": {"type": "string", "pattern": "^[0-9]+(\\.[0-9]+)?(ns|us|ms|s|m|h)([0-9]+(\\.[0-9]+)?(ns|us|ms|s|m|h))*$"}
      }
    },
    "ocr": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "lang":         {"type": "string", "minLength": 1},
        "tessdata_dir": {"type": "string"},
        "psm":          {"type": "integer", "minimum": 0, "maximum": 13}
      }
    },
    "log": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "format": {"enum": ["text", "json"]}
      }
    },
    "disable": {
      "type": "array",
      "items": {"type": "string", "pattern": "^[a-z0-9-]+(/[a-z0-9-]+)?$"}
    }
  }
}`

type fileConfig struct {
	Tools struct {
		Pdfinfo     string `yaml:"pdfinfo"`
		Pdftoppm    string `yaml:"pdftoppm"`
		Pdftotext   string `yaml:"pdftotext"`
		Magick      string `yaml:"magick"`
		Mutool      string `yaml:"mutool"`
		Tesseract   string `yaml:"tesseract"`
		HeifConvert string `yaml:"heif_convert"`
		Sips        string `yaml:"sips"`
	} `yaml:"tools"`
	Render struct {
		DPI         int    `yaml:"dpi"`
		Workers     int    `yaml:"workers"`
		PageTimeout string `yaml:"page_timeout"`
	} `yaml:"render"`
	OCR struct {
		Lang        string `yaml:"lang"`
		TessdataDir string `yaml:"tessdata_dir"`
		PSM         *int   `yaml:"psm"`
	} `yaml:"ocr"`
	Log struct {
		Format string `yaml:"format"`
	} `yaml:"log"`
	Disable []string `yaml:"disable"`
}

var compiledConfigSchema = func() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("config.schema.json", bytes.NewReader([]byte(configSchema))); err != nil {
		panic(err)
	}
	return c.MustCompile("config.schema.json")
}()

// LoadFile reads a YAML config file and overlays its values onto cfg.
// Fields absent from the file keep their current (env or default) value.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return NewAppError(CodeConfig, "read config file", err)
	}
	return applyFile(data, cfg)
}

func applyFile(data []byte, cfg *Config) error {
	if err := validateConfigDocument(data); err != nil {
		return NewAppError(CodeConfig, "invalid config file", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return NewAppError(CodeConfig, "decode config file", err)
	}

	setString(&cfg.Tools.Pdfinfo, fc.Tools.Pdfinfo)
	setString(&cfg.Tools.Pdftoppm, fc.Tools.Pdftoppm)
	setString(&cfg.Tools.Pdftotext, fc.Tools.Pdftotext)
	setString(&cfg.Tools.Magick, fc.Tools.Magick)
	setString(&cfg.Tools.Mutool, fc.Tools.Mutool)
	setString(&cfg.Tools.Tesseract, fc.Tools.Tesseract)
	setString(&cfg.Tools.HeifConvert, fc.Tools.HeifConvert)
	setString(&cfg.Tools.Sips, fc.Tools.Sips)

	if fc.Render.DPI > 0 {
		cfg.Render.DPI = fc.Render.DPI
	}
	if fc.Render.Workers > 0 {
		cfg.Render.Workers = fc.Render.Workers
	}
	if fc.Render.PageTimeout != "" {
		d, err := time.ParseDuration(fc.Render.PageTimeout)
		if err != nil {
			return NewAppError(CodeConfig, "render.page_timeout", err)
		}
		cfg.Render.PageTimeout = d
	}

	setString(&cfg.OCR.Lang, fc.OCR.Lang)
	setString(&cfg.OCR.TessdataDir, fc.OCR.TessdataDir)
	if fc.OCR.PSM != nil {
		cfg.OCR.PSM = *fc.OCR.PSM
	}
	setString(&cfg.Log.Format, fc.Log.Format)
	cfg.Disabled = append(cfg.Disabled, fc.Disable...)
	return nil
}

// validateConfigDocument converts the YAML document to JSON and checks it
// against configSchema.
func validateConfigDocument(data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	js, err := yaml.YAMLToJSON(data)
	if err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	var doc any
	if err := json.Unmarshal(js, &doc); err != nil {
		return fmt.Errorf("parse json: %w", err)
	}
	if doc == nil {
		return nil
	}
	return compiledConfigSchema.Validate(doc)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
