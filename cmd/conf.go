//go:build linux

package main

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/kelpdock/nsnet/api"
	"github.com/kelpdock/nsnet/stats"
	"github.com/kelpdock/nsnet/watch"
)

type Config struct {
	PidPath string `yaml:"pidPath"`

	Api   *api.Config   `yaml:"api"`
	Stats *stats.Config `yaml:"stats"`
	Watch *watch.Config `yaml:"watch"`
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

	def := &config{
		PidPath: "/var/run/nsnet.pid",
	}

	if err := yaml.Unmarshal(b, def); err != nil {
		return err
	}

	*c = Config(*def)

	return nil
}

func ReadConf(path string) (*Config, error) {
	r, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading the configuration file: %w", err)
	}

	conf := Config{}
	if err := yaml.Unmarshal(r, &conf); err != nil {
		return nil, fmt.Errorf("error unmarshaling the configuration: %w", err)
	}

	return &conf, nil
}
