package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pitch-capture/internal/config"
	"pitch-capture/internal/ingress"
	"pitch-capture/internal/journal"
	"pitch-capture/internal/pipeline"
	"pitch-capture/internal/stats"

	"github.com/spf13/afero"
)

var (
	version string = "1.0.0"
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pitch-capture",
		Short: "CBOE PITCH Capture - Receive and journal sequenced multicast market data",
		Long: `A Go-based tool that joins two multicast PITCH feeds, validates and
classifies each packet, tracks per-channel sequencing, and journals every
packet to a rotating binary log.`,
		Version: version,
		RunE:    run,
	}

	rootCmd.Flags().StringVar(&cfgFile, "config", "", "Configuration file path (default: config.yaml)")

	rootCmd.Flags().String("multicast-group", "", "Multicast group address")
	rootCmd.Flags().Int("port1", 0, "First multicast port")
	rootCmd.Flags().Int("port2", 0, "Second multicast port")
	rootCmd.Flags().Bool("skip-heartbeats", true, "Skip journaling heartbeat packets")
	rootCmd.Flags().String("log-dir", "", "Journal output directory")
	rootCmd.Flags().Int64("log-file-size", 0, "Journal rotation size threshold in bytes")
	rootCmd.Flags().Int("log-file-count", 0, "Number of rotated journal files to retain")
	rootCmd.Flags().Int("async-queue-size", 0, "Journal queue capacity")
	rootCmd.Flags().Int("async-threads", 0, "Journal writer pool size")
	rootCmd.Flags().Int("max-buf", 0, "Maximum accepted packet size")
	rootCmd.Flags().String("log-level", "", "Log level (debug|info|warn|error)")
	rootCmd.Flags().String("stats-export", "", "Final statistics JSON export path")

	v := viper.New()
	bindFlag(v, rootCmd, "multicast-group", "network.multicast_group")
	bindFlag(v, rootCmd, "port1", "network.port1")
	bindFlag(v, rootCmd, "port2", "network.port2")
	bindFlag(v, rootCmd, "skip-heartbeats", "pipeline.skip_heartbeats")
	bindFlag(v, rootCmd, "log-dir", "journal.dir")
	bindFlag(v, rootCmd, "log-file-size", "journal.log_file_size")
	bindFlag(v, rootCmd, "log-file-count", "journal.log_file_count")
	bindFlag(v, rootCmd, "async-queue-size", "journal.async_queue_size")
	bindFlag(v, rootCmd, "async-threads", "journal.async_threads")
	bindFlag(v, rootCmd, "max-buf", "pipeline.max_buf")
	bindFlag(v, rootCmd, "log-level", "logging.level")
	bindFlag(v, rootCmd, "stats-export", "stats.export_file")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func bindFlag(v *viper.Viper, cmd *cobra.Command, flagName, configKey string) {
	_ = v.BindPFlag(configKey, cmd.Flags().Lookup(flagName))
}

func run(cmd *cobra.Command, args []string) error {
	v := viper.New()
	config.SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if cfgFile != "" {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		log.Debug("no config file found, using defaults and CLI flags")
	}

	bindViperFlags(v, cmd)

	cfg, err := config.LoadWithViper(v)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	setupLogging(cfg)

	fmt.Printf("PITCH Capture v%s\n", version)
	fmt.Println("==============================")
	fmt.Print(cfg.Summary())
	fmt.Println()

	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.WithField("signal", sig).Info("received shutdown signal")
		cancel()
	}()

	receiver, err := ingress.New(ingress.Config{
		MulticastGroup: cfg.Network.MulticastGroup,
		Port1:          uint16(cfg.Network.Port1),
		Port2:          uint16(cfg.Network.Port2),
		MaxBuf:         cfg.Pipeline.MaxBuf,
	})
	if err != nil {
		return fmt.Errorf("failed to join multicast feeds: %w", err)
	}
	receiver.Start(ctx)
	defer receiver.Close()

	log.WithFields(log.Fields{
		"group": cfg.Network.MulticastGroup,
		"port1": cfg.Network.Port1,
		"port2": cfg.Network.Port2,
	}).Info("joined multicast feeds")

	j, err := journal.New(journal.Config{
		Dir:         cfg.Journal.Dir,
		FilePrefix:  cfg.Journal.FilePrefix,
		MaxFileSize: cfg.Journal.LogFileSize,
		Retention:   cfg.Journal.LogFileCount,
		QueueSize:   cfg.Journal.AsyncQueueSize,
		Writers:     cfg.Journal.AsyncThreads,
	}, afero.NewOsFs())
	if err != nil {
		return fmt.Errorf("failed to start journal: %w", err)
	}
	defer j.Close()

	collector := stats.New()
	reporter := stats.NewReporter(collector, cfg.Stats.ExportFile)

	driver := pipeline.New(pipeline.Config{
		MaxBuf:         cfg.Pipeline.MaxBuf,
		SkipHeartbeats: cfg.Pipeline.SkipHeartbeats,
		StatsInterval:  uint64(cfg.Pipeline.StatsInterval),
		FlushInterval:  uint64(cfg.Pipeline.FlushInterval),
	}, receiver, j, collector, reporter)

	fmt.Println("Capturing...")
	runErr := driver.Run(ctx)

	j.Drain()
	reporter.PrintFinalReport()
	if err := reporter.ExportJSON(); err != nil {
		log.WithError(err).Warn("failed to export statistics")
	}

	if runErr != nil {
		return runErr
	}
	return nil
}

func setupLogging(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
}

func bindViperFlags(v *viper.Viper, cmd *cobra.Command) {
	if cmd.Flags().Changed("multicast-group") {
		val, _ := cmd.Flags().GetString("multicast-group")
		v.Set("network.multicast_group", val)
	}
	if cmd.Flags().Changed("port1") {
		val, _ := cmd.Flags().GetInt("port1")
		v.Set("network.port1", val)
	}
	if cmd.Flags().Changed("port2") {
		val, _ := cmd.Flags().GetInt("port2")
		v.Set("network.port2", val)
	}
	if cmd.Flags().Changed("skip-heartbeats") {
		val, _ := cmd.Flags().GetBool("skip-heartbeats")
		v.Set("pipeline.skip_heartbeats", val)
	}
	if cmd.Flags().Changed("log-dir") {
		val, _ := cmd.Flags().GetString("log-dir")
		v.Set("journal.dir", val)
	}
	if cmd.Flags().Changed("log-file-size") {
		val, _ := cmd.Flags().GetInt64("log-file-size")
		v.Set("journal.log_file_size", val)
	}
	if cmd.Flags().Changed("log-file-count") {
		val, _ := cmd.Flags().GetInt("log-file-count")
		v.Set("journal.log_file_count", val)
	}
	if cmd.Flags().Changed("async-queue-size") {
		val, _ := cmd.Flags().GetInt("async-queue-size")
		v.Set("journal.async_queue_size", val)
	}
	if cmd.Flags().Changed("async-threads") {
		val, _ := cmd.Flags().GetInt("async-threads")
		v.Set("journal.async_threads", val)
	}
	if cmd.Flags().Changed("max-buf") {
		val, _ := cmd.Flags().GetInt("max-buf")
		v.Set("pipeline.max_buf", val)
	}
	if cmd.Flags().Changed("log-level") {
		val, _ := cmd.Flags().GetString("log-level")
		v.Set("logging.level", val)
	}
	if cmd.Flags().Changed("stats-export") {
		val, _ := cmd.Flags().GetString("stats-export")
		v.Set("stats.export_file", val)
	}
}
