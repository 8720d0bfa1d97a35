package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load loads the configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Check current directory first
		v.AddConfigPath(".")

		// Check home directory
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".qbt-janitor"))
		}

		// Check /etc
		v.AddConfigPath("/etc/qbt-janitor/")
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil, fmt.Errorf("config file not found: %w", err)
		}
		return nil, fmt.Errorf("error reading config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// qBittorrent defaults
	v.SetDefault("qbittorrent.url", "http://localhost:8080")

	// Cleanup defaults: pause rather than delete until told otherwise
	v.SetDefault("cleanup.delete_tasks", false)
	v.SetDefault("cleanup.delete_files", false)
	v.SetDefault("cleanup.preserve_shared_files", true)

	// RSS defaults
	v.SetDefault("rss.history_file", defaultHistoryFile())

	// Safety defaults
	v.SetDefault("safety.dry_run", false)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

func defaultHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "download-history.json"
	}
	return filepath.Join(home, ".qbt-janitor", "download-history.json")
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.Qbittorrent.URL == "" {
		return fmt.Errorf("qbittorrent.url is required")
	}

	for i, t := range cfg.Trackers {
		if t.Tracker == "" {
			return fmt.Errorf("trackers[%d].tracker must be a match pattern or '*'", i)
		}
		if t.MaxDaysToKeep < -1 {
			return fmt.Errorf("trackers[%d].max_days_to_keep must be -1 or a day count, got %d", i, t.MaxDaysToKeep)
		}
	}

	for i, f := range cfg.RSS.Feeds {
		if !strings.HasPrefix(f.URL, "http://") && !strings.HasPrefix(f.URL, "https://") {
			return fmt.Errorf("rss.feeds[%d].url must be an http(s) URL", i)
		}
	}

	if cfg.Email != nil {
		if cfg.Email.Host == "" {
			return fmt.Errorf("email.host is required when email is configured")
		}
		if cfg.Email.From == "" || len(cfg.Email.To) == 0 {
			return fmt.Errorf("email.from and email.to are required when email is configured")
		}
	}

	// Validate logging level
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	return nil
}
