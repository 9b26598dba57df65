package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ClientConfig is the trackerctl configuration file
type ClientConfig struct {
	APIURL      string `yaml:"api_url"`
	RedisAddr   string `yaml:"redis_addr"`
	RedisPass   string `yaml:"redis_pass"`
	RedisDB     int    `yaml:"redis_db"`
	SessionFile string `yaml:"session_file"`
}

// ClientFlags are command line overrides for ClientConfig
type ClientFlags struct {
	APIURL      string
	RedisAddr   string
	SessionFile string
}

// LoadClient reads a trackerctl YAML file, expanding $VARS in its values
func LoadClient(path string) (*ClientConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg ClientConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.APIURL = os.ExpandEnv(cfg.APIURL)
	cfg.RedisAddr = os.ExpandEnv(cfg.RedisAddr)
	cfg.RedisPass = os.ExpandEnv(cfg.RedisPass)
	cfg.SessionFile = os.ExpandEnv(cfg.SessionFile)

	return &cfg, nil
}

func (c *ClientConfig) GetAPIURL(flags *ClientFlags) string {
	if flags != nil && flags.APIURL != "" {
		return flags.APIURL
	}
	if c.APIURL != "" {
		return c.APIURL
	}
	return "http://localhost:5000"
}

func (c *ClientConfig) GetRedisAddr(flags *ClientFlags) string {
	if flags != nil && flags.RedisAddr != "" {
		return flags.RedisAddr
	}
	if c.RedisAddr != "" {
		return c.RedisAddr
	}
	return "localhost:6379"
}

func (c *ClientConfig) GetSessionFile(flags *ClientFlags) string {
	if flags != nil && flags.SessionFile != "" {
		return flags.SessionFile
	}
	if c.SessionFile != "" {
		return c.SessionFile
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "trackerctl", "session.yaml")
	}
	return ".trackerctl-session.yaml"
}
