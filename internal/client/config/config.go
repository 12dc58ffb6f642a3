// Package config holds runtime settings for the bulletin terminal client.
// Values come from defaults, then environment variables, then command-line
// flags, later sources winning.
package config

import (
	"flag"
	"os"
	"path/filepath"
	"strconv"
)

type Config struct {
	// ServerURL is the base URL of the bulletin API server.
	ServerURL string

	// DataDir is where client-side state (saved drafts) lives.
	DataDir string

	// PageSize is the number of posts fetched per list page.
	PageSize int
}

func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.DataDir = defaultDataDir()
	c.PageSize = 10
}

func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	cfg.loadEnv()
	if err := cfg.parseFlags(args); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadEnv() {
	if v := os.Getenv("BULLETIN_SERVER_URL"); v != "" {
		c.ServerURL = v
	}
	if v := os.Getenv("BULLETIN_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("BULLETIN_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.PageSize = n
		}
	}
}

func (c *Config) parseFlags(args []string) error {
	fs := flag.NewFlagSet("board", flag.ContinueOnError)
	fs.StringVar(&c.ServerURL, "server", c.ServerURL, "base URL of the bulletin API server")
	fs.StringVar(&c.DataDir, "data-dir", c.DataDir, "directory for client state such as drafts")
	fs.IntVar(&c.PageSize, "page-size", c.PageSize, "posts per list page")
	return fs.Parse(args)
}

func defaultDataDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ".bulletin"
	}
	return filepath.Join(base, "bulletin")
}
