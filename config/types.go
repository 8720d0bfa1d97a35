package config

// Config represents the complete configuration structure
type Config struct {
	Qbittorrent QbitConfig      `mapstructure:"qbittorrent"`
	Cleanup     CleanupConfig   `mapstructure:"cleanup"`
	Trackers    []TrackerPolicy `mapstructure:"trackers"`
	RSS         RSSConfig       `mapstructure:"rss"`
	Email       *EmailConfig    `mapstructure:"email"`
	Safety      SafetyConfig    `mapstructure:"safety"`
	Logging     LoggingConfig   `mapstructure:"logging"`
}

// QbitConfig holds qBittorrent Web API connection details
type QbitConfig struct {
	URL      string `mapstructure:"url"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// CleanupConfig holds the global flags that drive the action classifier.
type CleanupConfig struct {
	// DeleteTasks enables removal of expired tasks; when false they are
	// paused instead.
	DeleteTasks bool `mapstructure:"delete_tasks"`
	// DeleteFiles enables removal of files on disk along with the task.
	DeleteFiles bool `mapstructure:"delete_files"`
	// TaskOnlyCategories lists categories whose torrents never lose their
	// files; the task alone is removed.
	TaskOnlyCategories []string `mapstructure:"task_only_categories"`
	// TaskOnlyTags works like TaskOnlyCategories but matches any tag.
	TaskOnlyTags []string `mapstructure:"task_only_tags"`
	// PreserveSharedFiles downgrades a file deletion to a task-only
	// deletion when another torrent references the same hash or the same
	// file set.
	PreserveSharedFiles bool `mapstructure:"preserve_shared_files"`
}

// TrackerPolicy binds retention and limit rules to a tracker match pattern.
// The pattern is a case-insensitive substring, or "*" to match everything.
type TrackerPolicy struct {
	Tracker string `mapstructure:"tracker"`
	// MaxDaysToKeep ages out finished torrents; -1 means never.
	MaxDaysToKeep int `mapstructure:"max_days_to_keep"`
	// DeleteMessages lists tracker messages that make a torrent deletable
	// regardless of age (case-insensitive exact match).
	DeleteMessages []string `mapstructure:"delete_messages"`
	// UpLimit is the target upload limit in KB/s; nil leaves it alone.
	UpLimit *int64 `mapstructure:"up_limit"`
	// MaxRatio is the target share ratio limit; nil leaves it alone.
	MaxRatio *float64 `mapstructure:"max_ratio"`
	// MaxSeedingTime is the target seeding time limit in minutes; nil
	// leaves it alone.
	MaxSeedingTime *int64 `mapstructure:"max_seeding_time"`
	// KeepExpression is an optional expr filter; torrents it matches are
	// never deleted by this policy.
	KeepExpression string `mapstructure:"keep_expression"`
}

// Wildcard reports whether the policy matches every tracker.
func (p *TrackerPolicy) Wildcard() bool {
	return p.Tracker == "*"
}

// RSSConfig holds the feed list and the download history location.
type RSSConfig struct {
	Feeds       []FeedConfig `mapstructure:"feeds"`
	HistoryFile string       `mapstructure:"history_file"`
}

// FeedConfig describes one RSS feed to ingest.
type FeedConfig struct {
	URL      string `mapstructure:"url"`
	Category string `mapstructure:"category"`
}

// EmailConfig holds SMTP settings for the action alert mail.
type EmailConfig struct {
	Host     string   `mapstructure:"host"`
	Port     int      `mapstructure:"port"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	From     string   `mapstructure:"from"`
	To       []string `mapstructure:"to"`
	Subject  string   `mapstructure:"subject"`
}

// SafetyConfig contains safety-related settings
type SafetyConfig struct {
	DryRun bool `mapstructure:"dry_run"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
