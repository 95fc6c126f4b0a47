package netlink

import (
	"github.com/goccy/go-yaml"
)

type Config struct {
	// Log enables the codec's own (rather chatty) logging.
	Log bool `yaml:"log"`

	// Strict makes data messages without a registered family an error
	// instead of decoding them as Opaque bodies.
	Strict bool `yaml:"strict"`
}

var DefaultConfig = Config{
	Log:    false,
	Strict: false,
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
