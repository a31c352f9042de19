package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var allEnvVars = []string{
	"CONFIG_FILE", "SERVICE_NAME", "SERVICE_PRINCIPAL", "HTTP_PORT", "GRPC_PORT",
	"RELAY_CHANNELS", "RELAY_SPEECH_CHANNEL", "RELAY_INSIGHTS_CHANNEL", "RELAY_SEND_QUEUE",
	"RELAY_WRITE_TIMEOUT", "RELAY_PING_INTERVAL", "RELAY_MAX_MESSAGE_BYTES",
	"ANALYSIS_PROVIDER", "ANALYSIS_ENDPOINT", "ANALYSIS_API_KEY", "ANALYSIS_MODEL",
	"ANALYSIS_BASE_URL", "ANALYSIS_LANGUAGE", "ANALYSIS_TIMEOUT",
	"KAFKA_ENABLED", "KAFKA_BROKERS", "KAFKA_TOPIC_UPDATES", "KAFKA_TOPIC_CLOSED", "KAFKA_PRINCIPAL",
	"ARCHIVE_PATH", "LOG_LEVEL", "LOG_FORMAT", "LOG_FILE", "METRICS_PORT", "PRUNE_SCHEDULE",
}

func clearEnv() {
	for _, v := range allEnvVars {
		os.Unsetenv(v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv()

	cfg := Load()

	if cfg.Service.Principal != "svc-live-transcript" {
		t.Errorf("expected default principal 'svc-live-transcript', got %s", cfg.Service.Principal)
	}
	if cfg.Service.HTTPPort != "8080" {
		t.Errorf("expected default http port '8080', got %s", cfg.Service.HTTPPort)
	}
	if cfg.Service.GRPCPort != "50051" {
		t.Errorf("expected default grpc port '50051', got %s", cfg.Service.GRPCPort)
	}

	if len(cfg.Relay.Channels) != 2 || cfg.Relay.Channels[0] != "speech" || cfg.Relay.Channels[1] != "insights" {
		t.Errorf("expected default channels [speech insights], got %v", cfg.Relay.Channels)
	}
	if cfg.Relay.SendQueueSize != 64 {
		t.Errorf("expected default send queue 64, got %d", cfg.Relay.SendQueueSize)
	}
	if cfg.Relay.WriteTimeout != 10*time.Second {
		t.Errorf("expected default write timeout 10s, got %v", cfg.Relay.WriteTimeout)
	}
	if cfg.Relay.MaxMessageBytes != 64*1024 {
		t.Errorf("expected default max message bytes 64KiB, got %d", cfg.Relay.MaxMessageBytes)
	}

	if cfg.Analysis.Provider != "mock" {
		t.Errorf("expected default analysis provider 'mock', got %s", cfg.Analysis.Provider)
	}
	if cfg.Analysis.Timeout != 5*time.Second {
		t.Errorf("expected default analysis timeout 5s, got %v", cfg.Analysis.Timeout)
	}

	if cfg.Kafka.Enabled {
		t.Error("expected Kafka disabled by default")
	}
	if cfg.Kafka.Principal != "svc-live-transcript" {
		t.Errorf("expected Kafka principal to default to service principal, got %s", cfg.Kafka.Principal)
	}

	if cfg.Archive.Path != "" {
		t.Errorf("expected archive disabled by default, got %s", cfg.Archive.Path)
	}

	if cfg.Observability.LogLevel != "info" {
		t.Errorf("expected default log level 'info', got %s", cfg.Observability.LogLevel)
	}
	if cfg.Observability.PruneSchedule != "@every 1m" {
		t.Errorf("expected default prune schedule '@every 1m', got %s", cfg.Observability.PruneSchedule)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv()
	os.Setenv("SERVICE_PRINCIPAL", "custom-principal")
	os.Setenv("HTTP_PORT", "9999")
	os.Setenv("RELAY_CHANNELS", "speech, insights ,ops")
	os.Setenv("RELAY_SEND_QUEUE", "8")
	os.Setenv("RELAY_WRITE_TIMEOUT", "2s")
	os.Setenv("ANALYSIS_PROVIDER", "openai")
	os.Setenv("ANALYSIS_TIMEOUT", "750ms")
	os.Setenv("KAFKA_ENABLED", "true")
	os.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	os.Setenv("LOG_LEVEL", "debug")
	defer clearEnv()

	cfg := Load()

	if cfg.Service.Principal != "custom-principal" {
		t.Errorf("expected principal 'custom-principal', got %s", cfg.Service.Principal)
	}
	if cfg.Service.HTTPPort != "9999" {
		t.Errorf("expected port '9999', got %s", cfg.Service.HTTPPort)
	}
	if len(cfg.Relay.Channels) != 3 || cfg.Relay.Channels[2] != "ops" {
		t.Errorf("expected trimmed channel list with 'ops', got %v", cfg.Relay.Channels)
	}
	if cfg.Relay.SendQueueSize != 8 {
		t.Errorf("expected send queue 8, got %d", cfg.Relay.SendQueueSize)
	}
	if cfg.Relay.WriteTimeout != 2*time.Second {
		t.Errorf("expected write timeout 2s, got %v", cfg.Relay.WriteTimeout)
	}
	if cfg.Analysis.Provider != "openai" {
		t.Errorf("expected provider 'openai', got %s", cfg.Analysis.Provider)
	}
	if cfg.Analysis.Timeout != 750*time.Millisecond {
		t.Errorf("expected analysis timeout 750ms, got %v", cfg.Analysis.Timeout)
	}
	if !cfg.Kafka.Enabled {
		t.Error("expected Kafka enabled")
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Errorf("expected two brokers, got %v", cfg.Kafka.Brokers)
	}
	if cfg.Kafka.Principal != "custom-principal" {
		t.Errorf("expected Kafka principal to fall back to service principal, got %s", cfg.Kafka.Principal)
	}
	if cfg.Observability.LogLevel != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Observability.LogLevel)
	}
}

func TestLoad_InvalidValues_FallbackToDefaults(t *testing.T) {
	clearEnv()
	os.Setenv("RELAY_SEND_QUEUE", "not-a-number")
	os.Setenv("RELAY_WRITE_TIMEOUT", "invalid")
	os.Setenv("KAFKA_ENABLED", "invalid")
	os.Setenv("RELAY_CHANNELS", " , ,")
	defer clearEnv()

	cfg := Load()

	if cfg.Relay.SendQueueSize != 64 {
		t.Errorf("expected default send queue on invalid input, got %d", cfg.Relay.SendQueueSize)
	}
	if cfg.Relay.WriteTimeout != 10*time.Second {
		t.Errorf("expected default write timeout on invalid input, got %v", cfg.Relay.WriteTimeout)
	}
	if cfg.Kafka.Enabled {
		t.Error("expected default Kafka enabled=false on invalid input")
	}
	if len(cfg.Relay.Channels) != 2 {
		t.Errorf("expected default channels on empty list, got %v", cfg.Relay.Channels)
	}
}

func TestLoadFromFile_EnvOverridesFile(t *testing.T) {
	clearEnv()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte(`
service:
  httpPort: "7000"
relay:
  channels: [calls]
  speechChannel: calls
  writeTimeout: 3s
kafka:
  principal: file-principal
archive:
  path: /tmp/archive.db
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	os.Setenv("HTTP_PORT", "7100")
	defer clearEnv()

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Service.HTTPPort != "7100" {
		t.Errorf("expected env to override file port, got %s", cfg.Service.HTTPPort)
	}
	if cfg.Relay.SpeechChannel != "calls" || len(cfg.Relay.Channels) != 1 {
		t.Errorf("expected channel 'calls' from file, got %s %v", cfg.Relay.SpeechChannel, cfg.Relay.Channels)
	}
	if cfg.Relay.WriteTimeout != 3*time.Second {
		t.Errorf("expected write timeout 3s from file, got %v", cfg.Relay.WriteTimeout)
	}
	if cfg.Relay.SendQueueSize != 64 {
		t.Errorf("expected default send queue to survive file overlay, got %d", cfg.Relay.SendQueueSize)
	}
	if cfg.Kafka.Principal != "file-principal" {
		t.Errorf("expected Kafka principal from file, got %s", cfg.Kafka.Principal)
	}
	if cfg.Archive.Path != "/tmp/archive.db" {
		t.Errorf("expected archive path from file, got %s", cfg.Archive.Path)
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestEnvOrDefaultBool(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		def      bool
		expected bool
	}{
		{"true string", "true", false, true},
		{"false string", "false", true, false},
		{"1", "1", false, true},
		{"0", "0", true, false},
		{"TRUE uppercase", "TRUE", false, true},
		{"invalid", "invalid", true, true},
		{"empty", "", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "TEST_BOOL_VAR"
			if tt.envValue != "" {
				os.Setenv(key, tt.envValue)
			} else {
				os.Unsetenv(key)
			}
			defer os.Unsetenv(key)

			got := envOrDefaultBool(key, tt.def)
			if got != tt.expected {
				t.Errorf("envOrDefaultBool(%s, %v) = %v, want %v", tt.envValue, tt.def, got, tt.expected)
			}
		})
	}
}
