package jsonstore

import (
	"fmt"
	"os"
	"path/filepath"
)

// Config holds JSON file store location parameters.
type Config struct {
	BasePath string `toml:"base_path"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	BasePath string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
}

// DocumentsPath returns the directory holding document metadata and files.
func (c *Config) DocumentsPath() string {
	return filepath.Join(c.BasePath, "docs")
}

// ProjectsPath returns the directory holding consolidated project records.
func (c *Config) ProjectsPath() string {
	return filepath.Join(c.BasePath, "projects")
}

// RunsPath returns the directory holding workflow run checkpoints.
func (c *Config) RunsPath() string {
	return filepath.Join(c.BasePath, "runs")
}

func (c *Config) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "./data"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.BasePath != "" {
		if v := os.Getenv(env.BasePath); v != "" {
			c.BasePath = v
		}
	}
}

func (c *Config) validate() error {
	if c.BasePath == "" {
		return fmt.Errorf("base_path required")
	}
	return nil
}
