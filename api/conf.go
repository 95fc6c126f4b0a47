package api

import (
	"github.com/goccy/go-yaml"
)

type Config struct {
	BindAddress string `yaml:"bindAddress"`
	BindPort    uint16 `yaml:"bindPort"`

	// Verbosity is handed to bodies supporting several JSON views (i.e.
	// conntrack entries). Leave it empty for everything.
	Verbosity string `yaml:"verbosity"`
}

var DefaultConfig = Config{
	BindAddress: "127.0.0.1",
	BindPort:    7777,
}

func (c *Config) UnmarshalYAML(b []byte) error {
	// Needed to break recursive calls into UnmarshalYAML
	type config Config

	def := config(DefaultConfig)

	if err := yaml.Unmarshal(b, &def); err != nil {
		return err
	}

	*c = Config(def)

	return nil
}
