package main

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-pulpoforms/pkg/i18n"
)

// Config is the host configuration file.
type Config struct {
	Listen     string `yaml:"listen"`
	SchemaDir  string `yaml:"schemaDir"`
	Locale     string `yaml:"locale"`
	CatalogDir string `yaml:"catalogDir"`
	Watch      bool   `yaml:"watch"`
	LogLevel   string `yaml:"logLevel"`
}

// DefaultConfig is used for every key the file and flags leave empty.
func DefaultConfig() Config {
	return Config{
		Listen:    ":8080",
		SchemaDir: "schemas",
		Locale:    i18n.DefaultLocale,
		LogLevel:  "info",
	}
}

// LoadConfig reads a YAML config file. An empty path yields the defaults.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Unmarshal(content)
}

// Unmarshal decodes conf over the defaults.
func Unmarshal(conf []byte) (Config, error) {
	out := DefaultConfig()
	if err := yaml.Unmarshal(conf, &out); err != nil {
		return Config{}, err
	}
	return out, nil
}
