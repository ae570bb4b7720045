package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"

	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var rawDefaults []byte

var defaults Config

var (
	ErrInvalidConfig = errors.New("invalid configuration")
	identifier       = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

type Config struct {
	VarsetType     string   `yaml:"varsetType"`
	HexThreshold   int64    `yaml:"hexThreshold"`
	ExtraTypes     []string `yaml:"extraTypes"`
	IgnoreElements []string `yaml:"ignoreElements"`
	Validate       bool     `yaml:"validate"`
}

// Default returns a copy of the builtin configuration.
func Default() Config {
	c := defaults
	c.ExtraTypes = slices.Clone(defaults.ExtraTypes)
	c.IgnoreElements = slices.Clone(defaults.IgnoreElements)
	return c
}

// Load reads the configuration file at path on top of the defaults. Keys
// missing from the file keep their default value.
func Load(path string) (Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	c, err := parse(buf)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func parse(buf []byte) (Config, error) {
	c := Default()

	dec := yaml.NewDecoder(bytes.NewReader(buf))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}

	if err := c.Check(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Check reports whether the configuration can be used to generate a header.
func (c Config) Check() error {
	if !identifier.MatchString(c.VarsetType) {
		return fmt.Errorf("%w: varsetType %q is not a C identifier", ErrInvalidConfig, c.VarsetType)
	}
	if c.HexThreshold < 0 {
		return fmt.Errorf("%w: hexThreshold must not be negative", ErrInvalidConfig)
	}
	for _, typ := range c.ExtraTypes {
		if !identifier.MatchString(typ) {
			return fmt.Errorf("%w: extra type %q is not a C identifier", ErrInvalidConfig, typ)
		}
	}
	return nil
}

func (c Config) Ignored(element string) bool {
	return slices.Contains(c.IgnoreElements, element)
}

func init() {
	if err := yaml.Unmarshal(rawDefaults, &defaults); err != nil {
		panic(err)
	}
}
