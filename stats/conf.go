//go:build linux

package stats

import (
	"github.com/goccy/go-yaml"
)

type Config struct {
	Log bool `yaml:"log"`

	// NetnsID scopes the scrape to a peer namespace; a negative value
	// means our own.
	NetnsID int32 `yaml:"netnsID"`
}

func (c *Config) UnmarshalYAML(b []byte) error {
	// Needed to break recursive calls into UnmarshalYAML
	type config Config

	def := &config{
		Log:     true,
		NetnsID: -1,
	}

	if err := yaml.Unmarshal(b, def); err != nil {
		return err
	}

	*c = Config(*def)

	return nil
}
