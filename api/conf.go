//go:build linux

package api

import (
	"github.com/goccy/go-yaml"
)

type Config struct {
	BindAddress string `yaml:"bindAddress"`
	BindPort    int    `yaml:"bindPort"`

	// NetnsDir is where named-namespace requests look for bind mounts.
	NetnsDir string `yaml:"netnsDir"`
}

func (c *Config) UnmarshalYAML(b []byte) error {
	// Needed to break recursive calls into UnmarshalYAML
	type config Config

	def := &config{
		BindAddress: "127.0.0.1",
		BindPort:    7777,
		NetnsDir:    "/run/netns",
	}

	if err := yaml.Unmarshal(b, def); err != nil {
		return err
	}

	*c = Config(*def)

	return nil
}
