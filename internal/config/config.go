package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// HTTP boundary
	Addr           string   `mapstructure:"addr" yaml:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	MaxUploadMB    int      `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`

	// Dataset limits
	MaxRows int `mapstructure:"max_rows" yaml:"max_rows"`

	// Logging
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`

	// CLI output
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`
	BatchJobs int    `mapstructure:"batch_jobs" yaml:"batch_jobs"`
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".segloom"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.segloom/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := configDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("SEGLOOM")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("addr", ":5000")
	v.SetDefault("allowed_origins", []string{"*"})
	v.SetDefault("max_upload_mb", 16)
	v.SetDefault("max_rows", 100000)
	v.SetDefault("log_level", "info")
	v.SetDefault("output_dir", "segloom-out")
	v.SetDefault("batch_jobs", 4)

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := configDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.BatchJobs < 1 {
		c.BatchJobs = 1
	}
	if c.MaxUploadMB <= 0 {
		c.MaxUploadMB = 16
	}
	return &c, nil
}
