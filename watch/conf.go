//go:build linux

package watch

import (
	"github.com/goccy/go-yaml"
)

type Config struct {
	// Dir is the directory whose bind mounts name the namespaces,
	// iproute2 style.
	Dir string `yaml:"dir"`

	// Backlog buffers filesystem notifications so a burst of namespace
	// churn doesn't drop events.
	Backlog int `yaml:"backlog"`

	// Enumerate resolves every appearing namespace and attaches its
	// interface list to the event.
	Enumerate bool `yaml:"enumerate"`
}

func (c *Config) UnmarshalYAML(b []byte) error {
	// Needed to break recursive calls into UnmarshalYAML
	type config Config

	def := &config{
		Dir:       "/run/netns",
		Backlog:   16,
		Enumerate: true,
	}

	if err := yaml.Unmarshal(b, def); err != nil {
		return err
	}

	*c = Config(*def)

	return nil
}
