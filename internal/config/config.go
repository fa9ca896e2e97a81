package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults is the optional YAML file of run defaults.
// Pointer fields distinguish "unset" from a zero value.
type Defaults struct {
	BaseURL     *string `yaml:"base_url"`
	OutDir      *string `yaml:"out_dir"`
	Store       *bool   `yaml:"store"`
	Pretty      *bool   `yaml:"pretty"`
	ShowRequest *bool   `yaml:"show_request"`
	HeaderFile  *string `yaml:"header_file"`
	Timeout     *string `yaml:"timeout"`
	Fail        *bool   `yaml:"fail"`
	LogJSON     *bool   `yaml:"log_json"`
}

func Load(path string) (*Defaults, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Defaults, error) {
	var d Defaults
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &d, nil
}
