// Package config loads service configuration from an optional YAML file and the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Configuration is the full service configuration.
type Configuration struct {
	Service       Service       `yaml:"service"`
	Relay         Relay         `yaml:"relay"`
	Analysis      Analysis      `yaml:"analysis"`
	Kafka         Kafka         `yaml:"kafka"`
	Archive       Archive       `yaml:"archive"`
	Observability Observability `yaml:"observability"`
}

type Service struct {
	Name      string `yaml:"name"`
	Principal string `yaml:"principal"`
	HTTPPort  string `yaml:"httpPort"`
	GRPCPort  string `yaml:"grpcPort"`
}

// Relay configures channel membership and per-connection delivery.
type Relay struct {
	Channels        []string      `yaml:"channels"`
	SpeechChannel   string        `yaml:"speechChannel"`
	InsightsChannel string        `yaml:"insightsChannel"`
	SendQueueSize   int           `yaml:"sendQueueSize"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	PingInterval    time.Duration `yaml:"pingInterval"`
	MaxMessageBytes int64         `yaml:"maxMessageBytes"`
}

// Analysis selects and configures the external key-phrase/sentiment collaborator.
type Analysis struct {
	Provider string        `yaml:"provider"` // mock, textanalytics, openai
	Endpoint string        `yaml:"endpoint"`
	APIKey   string        `yaml:"apiKey"`
	Model    string        `yaml:"model"`
	BaseURL  string        `yaml:"baseUrl"`
	Language string        `yaml:"language"`
	Timeout  time.Duration `yaml:"timeout"`
}

type Kafka struct {
	Enabled      bool     `yaml:"enabled"`
	Brokers      []string `yaml:"brokers"`
	TopicUpdates string   `yaml:"topicUpdates"`
	TopicClosed  string   `yaml:"topicClosed"`
	Principal    string   `yaml:"principal"`
}

// Archive configures the closed-segment archive. An empty Path disables it.
type Archive struct {
	Path string `yaml:"path"`
}

type Observability struct {
	LogLevel      string `yaml:"logLevel"`
	LogFormat     string `yaml:"logFormat"`
	LogFile       string `yaml:"logFile"`
	LogMaxSizeMB  int    `yaml:"logMaxSizeMb"`
	LogMaxBackups int    `yaml:"logMaxBackups"`
	LogMaxAgeDays int    `yaml:"logMaxAgeDays"`
	MetricsPort   string `yaml:"metricsPort"`
	PruneSchedule string `yaml:"pruneSchedule"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Configuration {
	return &Configuration{
		Service: Service{
			Name:      "live-transcript-service",
			Principal: "svc-live-transcript",
			HTTPPort:  "8080",
			GRPCPort:  "50051",
		},
		Relay: Relay{
			Channels:        []string{"speech", "insights"},
			SpeechChannel:   "speech",
			InsightsChannel: "insights",
			SendQueueSize:   64,
			WriteTimeout:    10 * time.Second,
			PingInterval:    30 * time.Second,
			MaxMessageBytes: 64 * 1024,
		},
		Analysis: Analysis{
			Provider: "mock",
			Model:    "gpt-4o-mini",
			Language: "en",
			Timeout:  5 * time.Second,
		},
		Kafka: Kafka{
			TopicUpdates: "call.transcript.segment.updated",
			TopicClosed:  "call.transcript.segment.closed",
		},
		Observability: Observability{
			LogLevel:      "info",
			LogFormat:     "json",
			LogMaxSizeMB:  100,
			LogMaxBackups: 3,
			LogMaxAgeDays: 28,
			MetricsPort:   "9090",
			PruneSchedule: "@every 1m",
		},
	}
}

// Load builds the configuration from defaults, then CONFIG_FILE (if set), then the environment.
// A missing or unparsable config file is ignored and the remaining layers still apply.
func Load() *Configuration {
	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		_ = cfg.applyFile(path)
	}
	cfg.applyEnv()
	return cfg
}

// LoadFromFile is Load with an explicit YAML file; unlike Load it reports file errors.
func LoadFromFile(path string) (*Configuration, error) {
	cfg := Defaults()
	if err := cfg.applyFile(path); err != nil {
		return nil, err
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Configuration) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Configuration) applyEnv() {
	c.Service.Name = envOrDefault("SERVICE_NAME", c.Service.Name)
	c.Service.Principal = envOrDefault("SERVICE_PRINCIPAL", c.Service.Principal)
	c.Service.HTTPPort = envOrDefault("HTTP_PORT", c.Service.HTTPPort)
	c.Service.GRPCPort = envOrDefault("GRPC_PORT", c.Service.GRPCPort)

	c.Relay.Channels = envOrDefaultList("RELAY_CHANNELS", c.Relay.Channels)
	c.Relay.SpeechChannel = envOrDefault("RELAY_SPEECH_CHANNEL", c.Relay.SpeechChannel)
	c.Relay.InsightsChannel = envOrDefault("RELAY_INSIGHTS_CHANNEL", c.Relay.InsightsChannel)
	c.Relay.SendQueueSize = envOrDefaultInt("RELAY_SEND_QUEUE", c.Relay.SendQueueSize)
	c.Relay.WriteTimeout = envOrDefaultDuration("RELAY_WRITE_TIMEOUT", c.Relay.WriteTimeout)
	c.Relay.PingInterval = envOrDefaultDuration("RELAY_PING_INTERVAL", c.Relay.PingInterval)
	c.Relay.MaxMessageBytes = int64(envOrDefaultInt("RELAY_MAX_MESSAGE_BYTES", int(c.Relay.MaxMessageBytes)))

	c.Analysis.Provider = envOrDefault("ANALYSIS_PROVIDER", c.Analysis.Provider)
	c.Analysis.Endpoint = envOrDefault("ANALYSIS_ENDPOINT", c.Analysis.Endpoint)
	c.Analysis.APIKey = envOrDefault("ANALYSIS_API_KEY", c.Analysis.APIKey)
	c.Analysis.Model = envOrDefault("ANALYSIS_MODEL", c.Analysis.Model)
	c.Analysis.BaseURL = envOrDefault("ANALYSIS_BASE_URL", c.Analysis.BaseURL)
	c.Analysis.Language = envOrDefault("ANALYSIS_LANGUAGE", c.Analysis.Language)
	c.Analysis.Timeout = envOrDefaultDuration("ANALYSIS_TIMEOUT", c.Analysis.Timeout)

	c.Kafka.Enabled = envOrDefaultBool("KAFKA_ENABLED", c.Kafka.Enabled)
	c.Kafka.Brokers = envOrDefaultList("KAFKA_BROKERS", c.Kafka.Brokers)
	c.Kafka.TopicUpdates = envOrDefault("KAFKA_TOPIC_UPDATES", c.Kafka.TopicUpdates)
	c.Kafka.TopicClosed = envOrDefault("KAFKA_TOPIC_CLOSED", c.Kafka.TopicClosed)
	c.Kafka.Principal = envOrDefault("KAFKA_PRINCIPAL", c.Kafka.Principal)
	if c.Kafka.Principal == "" {
		c.Kafka.Principal = c.Service.Principal
	}

	c.Archive.Path = envOrDefault("ARCHIVE_PATH", c.Archive.Path)

	c.Observability.LogLevel = envOrDefault("LOG_LEVEL", c.Observability.LogLevel)
	c.Observability.LogFormat = envOrDefault("LOG_FORMAT", c.Observability.LogFormat)
	c.Observability.LogFile = envOrDefault("LOG_FILE", c.Observability.LogFile)
	c.Observability.LogMaxSizeMB = envOrDefaultInt("LOG_MAX_SIZE_MB", c.Observability.LogMaxSizeMB)
	c.Observability.LogMaxBackups = envOrDefaultInt("LOG_MAX_BACKUPS", c.Observability.LogMaxBackups)
	c.Observability.LogMaxAgeDays = envOrDefaultInt("LOG_MAX_AGE_DAYS", c.Observability.LogMaxAgeDays)
	c.Observability.MetricsPort = envOrDefault("METRICS_PORT", c.Observability.MetricsPort)
	c.Observability.PruneSchedule = envOrDefault("PRUNE_SCHEDULE", c.Observability.PruneSchedule)
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envOrDefaultBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// envOrDefaultList splits a comma-separated value, dropping empty items.
func envOrDefaultList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
