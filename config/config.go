package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "MATCHBOOK"

type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Journal  JournalConfig  `mapstructure:"journal"`
	Outbox   OutboxConfig   `mapstructure:"outbox"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	GRPC     GRPCConfig     `mapstructure:"grpc"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// JournalConfig controls the append-only command journal.
type JournalConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Dir             string `mapstructure:"dir"`
	SegmentSize     int64  `mapstructure:"segment_size"`
	SyncEveryAppend bool   `mapstructure:"sync_every_append"`
}

// OutboxConfig controls the pebble trade outbox.
type OutboxConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

type KafkaConfig struct {
	Brokers       []string      `mapstructure:"brokers"`
	TradeTopic    string        `mapstructure:"trade_topic"`
	SnapshotTopic string        `mapstructure:"snapshot_topic"`
	DrainInterval time.Duration `mapstructure:"drain_interval"`
	DrainBatch    int           `mapstructure:"drain_batch"`
}

type GRPCConfig struct {
	Addr string `mapstructure:"addr"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// SnapshotConfig names a directory for the end-of-run snapshot file;
// empty disables it.
type SnapshotConfig struct {
	Dir string `mapstructure:"dir"`
}

// Default leaves every persistence and broker feature off.
func Default() Config {
	return Config{
		Log: LogConfig{Level: "info"},
		Journal: JournalConfig{
			Dir:         "data/journal",
			SegmentSize: 64 << 20,
		},
		Outbox: OutboxConfig{Dir: "data/outbox"},
		Kafka: KafkaConfig{
			TradeTopic:    "matchbook.trades",
			SnapshotTopic: "matchbook.snapshots",
			DrainInterval: 250 * time.Millisecond,
			DrainBatch:    512,
		},
		GRPC:    GRPCConfig{Addr: ":50051"},
		Metrics: MetricsConfig{Addr: ":9102"},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("journal.enabled", d.Journal.Enabled)
	v.SetDefault("journal.dir", d.Journal.Dir)
	v.SetDefault("journal.segment_size", d.Journal.SegmentSize)
	v.SetDefault("journal.sync_every_append", d.Journal.SyncEveryAppend)
	v.SetDefault("outbox.enabled", d.Outbox.Enabled)
	v.SetDefault("outbox.dir", d.Outbox.Dir)
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.trade_topic", d.Kafka.TradeTopic)
	v.SetDefault("kafka.snapshot_topic", d.Kafka.SnapshotTopic)
	v.SetDefault("kafka.drain_interval", d.Kafka.DrainInterval)
	v.SetDefault("kafka.drain_batch", d.Kafka.DrainBatch)
	v.SetDefault("grpc.addr", d.GRPC.Addr)
	v.SetDefault("metrics.addr", d.Metrics.Addr)
	v.SetDefault("snapshot.dir", d.Snapshot.Dir)
}

// Load resolves configuration with priority
// ENV (MATCHBOOK_*) > .env file > config file > defaults.
// path may be empty; a missing .env is not an error.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// KafkaEnabled reports whether any broker is configured.
func (c Config) KafkaEnabled() bool {
	return len(c.Kafka.Brokers) > 0
}

func (c Config) Validate() error {
	if c.Journal.Enabled && c.Journal.Dir == "" {
		return errors.New("config: journal.enabled requires journal.dir")
	}
	if c.Outbox.Enabled && c.Outbox.Dir == "" {
		return errors.New("config: outbox.enabled requires outbox.dir")
	}
	if c.KafkaEnabled() && c.Kafka.TradeTopic == "" && c.Kafka.SnapshotTopic == "" {
		return errors.New("config: kafka.brokers set but no topic configured")
	}
	return nil
}
