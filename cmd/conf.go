package main

import (
	"fmt"
	"os"
	"slices"

	"github.com/goccy/go-yaml"
	"github.com/scitags/nlcodec/api"
	"github.com/scitags/nlcodec/families"
	"github.com/scitags/nlcodec/netlink"
)

type Config struct {
	Codec netlink.Config `yaml:"codec"`
	Api   api.Config     `yaml:"api"`

	// Families to register with the codec. All of them when empty.
	Families []string `yaml:"families"`

	// Metrics enables the Prometheus metrics exposed by the API.
	Metrics bool `yaml:"metrics"`
}

var DefaultConfig = Config{
	Codec:    netlink.DefaultConfig,
	Api:      api.DefaultConfig,
	Families: families.Names(),
	Metrics:  true,
}

func (c Config) String() string {
	m, err := yaml.MarshalWithOptions(c, yaml.Indent(2), yaml.IndentSequence(true))
	if err != nil {
		return "marshalling error..."
	}
	return string(m)
}

func (c *Config) UnmarshalYAML(b []byte) error {
	// Needed to break recursive calls into UnmarshalYAML
	type config Config

	def := config(DefaultConfig)
	def.Families = slices.Clone(DefaultConfig.Families)

	if err := yaml.Unmarshal(b, &def); err != nil {
		return err
	}

	*c = Config(def)

	return nil
}

func ReadConf(path string) (*Config, error) {
	r, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading the configuration file: %w", err)
	}

	conf := DefaultConfig
	conf.Families = slices.Clone(DefaultConfig.Families)
	if err := yaml.Unmarshal(r, &conf); err != nil {
		return nil, fmt.Errorf("error unmarshaling the configuration: %w", err)
	}

	return &conf, nil
}
