package gitversion

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is looked up in the source directory when no explicit
// configuration file is given
const ConfigFileName = ".gitversion.yaml"

// FileConfig is the on-disk form of the resolution options. Every field is
// optional; command line flags take precedence over it.
type FileConfig struct {
	DefaultVersion string   `yaml:"defaultVersion"`
	Prefix         string   `yaml:"prefix"`
	HashLength     int      `yaml:"hashLength"`
	FailOnMismatch bool     `yaml:"failOnMismatch"`
	Outputs        []string `yaml:"outputs"`
}

// LoadConfig reads a configuration file. Unknown keys are rejected so
// misspelt options do not pass silently.
func LoadConfig(path string) (*FileConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	defer f.Close()

	return decodeConfig(f, path)
}

// FindConfig loads ConfigFileName from dir. A missing file yields an empty
// configuration.
func FindConfig(dir string) (*FileConfig, error) {
	path := filepath.Join(dir, ConfigFileName)
	cfg, err := LoadConfig(path)
	if errors.Is(err, os.ErrNotExist) {
		return &FileConfig{}, nil
	}
	return cfg, err
}

func decodeConfig(r io.Reader, name string) (*FileConfig, error) {
	var cfg FileConfig

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config %s: %w", name, err)
	}

	return &cfg, nil
}

// Options converts the file form into resolution options
func (c *FileConfig) Options() (Options, error) {
	outputs, err := ParseOutputs(c.Outputs)
	if err != nil {
		return Options{}, fmt.Errorf("config outputs: %w", err)
	}

	return Options{
		Outputs:        outputs,
		DefaultVersion: c.DefaultVersion,
		Prefix:         c.Prefix,
		HashLength:     c.HashLength,
		FailOnMismatch: c.FailOnMismatch,
	}, nil
}
