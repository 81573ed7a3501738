// Package config loads and validates the capture pipeline's
// configuration via viper, layering defaults, an optional config file,
// and CLI flag overrides.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds every recognized configuration option from the external
// interfaces table: network ingress, journal rotation, and pipeline
// reporting cadence.
type Config struct {
	Network  NetworkConfig  `yaml:"network"  mapstructure:"network"`
	Journal  JournalConfig  `yaml:"journal"  mapstructure:"journal"`
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	Logging  LoggingConfig  `yaml:"logging"  mapstructure:"logging"`
	Stats    StatsConfig    `yaml:"stats"    mapstructure:"stats"`
}

type NetworkConfig struct {
	MulticastGroup string `yaml:"multicast_group" mapstructure:"multicast_group"`
	Port1          int    `yaml:"port1"           mapstructure:"port1"`
	Port2          int    `yaml:"port2"           mapstructure:"port2"`
}

type JournalConfig struct {
	Dir            string `yaml:"dir"              mapstructure:"dir"`
	FilePrefix     string `yaml:"file_prefix"      mapstructure:"file_prefix"`
	LogFileSize    int64  `yaml:"log_file_size"    mapstructure:"log_file_size"`
	LogFileCount   int    `yaml:"log_file_count"   mapstructure:"log_file_count"`
	AsyncQueueSize int    `yaml:"async_queue_size" mapstructure:"async_queue_size"`
	AsyncThreads   int    `yaml:"async_threads"    mapstructure:"async_threads"`
}

type PipelineConfig struct {
	SkipHeartbeats bool `yaml:"skip_heartbeats" mapstructure:"skip_heartbeats"`
	MaxBuf         int  `yaml:"max_buf"         mapstructure:"max_buf"`
	StatsInterval  int  `yaml:"stats_interval"  mapstructure:"stats_interval"`
	FlushInterval  int  `yaml:"flush_interval"  mapstructure:"flush_interval"`
}

type LoggingConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
}

type StatsConfig struct {
	ReportIntervalSec int    `yaml:"report_interval_sec" mapstructure:"report_interval_sec"`
	ExportFile        string `yaml:"export_file"         mapstructure:"export_file"`
}

// SetDefaults configures default values matching the source's Config
// namespace: the CBOE production multicast group and ports, 500MB/50
// file rotation, a 1M-entry queue with 4 writer threads, and 100K/1M
// packet reporting and flush cadences.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("network.multicast_group", "233.218.133.80")
	v.SetDefault("network.port1", 30501)
	v.SetDefault("network.port2", 30502)

	v.SetDefault("journal.dir", ".")
	v.SetDefault("journal.file_prefix", "packets_binary.log")
	v.SetDefault("journal.log_file_size", 500*1024*1024)
	v.SetDefault("journal.log_file_count", 50)
	v.SetDefault("journal.async_queue_size", 1024*1024)
	v.SetDefault("journal.async_threads", 4)

	v.SetDefault("pipeline.skip_heartbeats", true)
	v.SetDefault("pipeline.max_buf", 2048)
	v.SetDefault("pipeline.stats_interval", 100_000)
	v.SetDefault("pipeline.flush_interval", 1_000_000)

	v.SetDefault("logging.level", "info")

	v.SetDefault("stats.report_interval_sec", 10)
}

// Load reads configuration from a YAML file, falling back to defaults
// when configFile is empty.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	return LoadWithViper(v)
}

// LoadWithViper unmarshals configuration from an existing viper instance,
// used by the CLI launcher after binding flag overrides.
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Summary returns a human-readable startup banner describing the active
// configuration, matching the original tool's print_startup_info.
func (c *Config) Summary() string {
	var sb strings.Builder
	sb.WriteString("Configuration:\n")
	sb.WriteString(fmt.Sprintf("  Multicast group: %s\n", c.Network.MulticastGroup))
	sb.WriteString(fmt.Sprintf("  Ports:           %d, %d\n", c.Network.Port1, c.Network.Port2))
	sb.WriteString(fmt.Sprintf("  Heartbeat skip:  %v\n", c.Pipeline.SkipHeartbeats))
	sb.WriteString(fmt.Sprintf("  Log file size:   %dMB\n", c.Journal.LogFileSize/(1024*1024)))
	sb.WriteString(fmt.Sprintf("  Log file count:  %d (%.1fGB total)\n",
		c.Journal.LogFileCount,
		float64(c.Journal.LogFileSize)*float64(c.Journal.LogFileCount)/(1024*1024*1024)))
	sb.WriteString(fmt.Sprintf("  Async queue:     %dK entries, %d writer threads\n",
		c.Journal.AsyncQueueSize/1024, c.Journal.AsyncThreads))
	sb.WriteString(fmt.Sprintf("  Stats interval:  every %d packets\n", c.Pipeline.StatsInterval))
	sb.WriteString(fmt.Sprintf("  Flush interval:  every %d packets\n", c.Pipeline.FlushInterval))
	return sb.String()
}
