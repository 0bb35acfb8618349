// Package cli implements the upload command: it registers local files
// with the upload orchestrator, drives them through the handshake and
// prints the resulting values object.
package cli

import (
	"encoding/json"
	"flag"
	"os"
)

// Config holds settings for one run of the upload command.
type Config struct {
	ServerURL     string
	Field         string
	Multiple      bool
	Status        string
	Manual        bool
	MaxConcurrent int
	Token         string
}

// LoadDefaults populates Config with defaults for local development.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://localhost:8080"
	c.Field = "files"
	c.Multiple = true
	c.Status = "temp"
}

// JsonConfig is the DTO for JSON configuration files. Pointer fields
// distinguish "absent" from "false".
type JsonConfig struct {
	ServerURL     string `json:"server_url"`
	Field         string `json:"field"`
	Multiple      *bool  `json:"multiple"`
	Status        string `json:"status"`
	Manual        *bool  `json:"manual"`
	MaxConcurrent int    `json:"max_concurrent"`
	Token         string `json:"token"`
}

func (c *Config) applyJSON(path string) error {
	file, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	j := &JsonConfig{}
	if err := json.Unmarshal(file, j); err != nil {
		return err
	}

	if j.ServerURL != "" {
		c.ServerURL = j.ServerURL
	}
	if j.Field != "" {
		c.Field = j.Field
	}
	if j.Multiple != nil {
		c.Multiple = *j.Multiple
	}
	if j.Status != "" {
		c.Status = j.Status
	}
	if j.Manual != nil {
		c.Manual = *j.Manual
	}
	if j.MaxConcurrent != 0 {
		c.MaxConcurrent = j.MaxConcurrent
	}
	if j.Token != "" {
		c.Token = j.Token
	}
	return nil
}

func registerFlags(fs *flag.FlagSet, cfg *Config, configFile *string) {
	fs.StringVar(configFile, "config", *configFile, "path to config file")
	fs.StringVar(configFile, "c", *configFile, "path to config file (short)")

	fs.StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "media server base URL")
	fs.StringVar(&cfg.Field, "field", cfg.Field, "target field name")
	fs.BoolVar(&cfg.Multiple, "multiple", cfg.Multiple, "field accepts multiple values")
	fs.StringVar(&cfg.Status, "status", cfg.Status, "status requested at finalization: temp or active")
	fs.BoolVar(&cfg.Manual, "manual", cfg.Manual, "register files only, then trigger the upload explicitly")
	fs.IntVar(&cfg.MaxConcurrent, "concurrency", cfg.MaxConcurrent, "max simultaneous uploads, 0 for unbounded")
	fs.StringVar(&cfg.Token, "token", cfg.Token, "bearer token (prompted for when empty)")
}

// LoadConfig builds a Config from defaults, an optional JSON file and
// command-line flags, and returns the remaining positional arguments
// (the file paths to upload). Flags win over the file, which wins over
// the defaults.
func LoadConfig(args []string) (*Config, []string, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	var configFile string
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	registerFlags(fs, cfg, &configFile)
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	if configFile != "" {
		cfg = &Config{}
		cfg.LoadDefaults()
		if err := cfg.applyJSON(configFile); err != nil {
			return nil, nil, err
		}
		// reparse so explicit flags win over the file
		fs = flag.NewFlagSet("upload", flag.ContinueOnError)
		registerFlags(fs, cfg, &configFile)
		if err := fs.Parse(args); err != nil {
			return nil, nil, err
		}
	}

	return cfg, fs.Args(), nil
}
