// internal/config/config.go
//
// This package loads the shared config.json used by both tools.
// The file is decoded with yaml.v3, so either JSON or YAML works.
//
//	{
//	  "canvas": {"access_token": "...", "host": "canvas.example.edu"},
//	  "viewer": {"command": ["xreader", "-p", "1", "-l", "Preamble"]}
//	}

package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/canvas-grader/internal/exception"
)

const (
	// DefaultPath is the config file both tools look for in the working directory.
	DefaultPath = "config.json"

	envAccessToken = "CANVAS_ACCESS_TOKEN"
	envHost        = "CANVAS_HOST"
)

// Canvas holds the credentials for the Canvas REST API.
type Canvas struct {
	AccessToken string `yaml:"access_token"`
	Host        string `yaml:"host"`
}

// Viewer configures the PDF viewer used while grading.
type Viewer struct {
	Command []string `yaml:"command,omitempty"`
}

// Config models config.json.
type Config struct {
	Canvas Canvas `yaml:"canvas"`
	Viewer Viewer `yaml:"viewer"`
}

// Load reads path and applies environment overrides.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &exception.FileAccessError{Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, &exception.FileAccessError{Path: path, Err: fmt.Errorf("is a directory, expected a file")}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &exception.FileAccessError{Path: path, Err: err}
	}
	cfg := &Config{}
	if len(strings.TrimSpace(string(data))) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, &exception.FormatError{Path: path, Reason: "parse config", Err: err}
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

// Default returns an empty configuration with environment overrides applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyEnv()
	return cfg
}

func (c *Config) applyEnv() {
	if token := strings.TrimSpace(os.Getenv(envAccessToken)); token != "" {
		c.Canvas.AccessToken = token
	}
	if host := strings.TrimSpace(os.Getenv(envHost)); host != "" {
		c.Canvas.Host = host
	}
}

// ValidateCanvas makes sure the upload credentials are present.
func (c *Config) ValidateCanvas(path string) error {
	var missing []string
	if strings.TrimSpace(c.Canvas.AccessToken) == "" {
		missing = append(missing, "canvas.access_token")
	}
	if strings.TrimSpace(c.Canvas.Host) == "" {
		missing = append(missing, "canvas.host")
	}
	if len(missing) > 0 {
		return &exception.FormatError{Path: path, Reason: "missing " + strings.Join(missing, ", ")}
	}
	return nil
}

// BaseURL is the Canvas root URL. A bare hostname is served over https.
func (c *Config) BaseURL() string {
	host := strings.TrimRight(strings.TrimSpace(c.Canvas.Host), "/")
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return host
	}
	return "https://" + host
}
