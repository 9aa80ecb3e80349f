package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// PolicyStructured surfaces every failure as a JSON error envelope.
	PolicyStructured = "structured"
	// PolicyFallback masks server-side failures behind a friendly reply.
	PolicyFallback = "fallback"

	// NoPersona disables the default persona priming pair.
	NoPersona = "none"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server  ServerConfig
	AI      AIConfig
	Relay   RelayConfig
	Log     LogConfig
	Metrics MetricsConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	relay, err := loadRelayConfig()
	if err != nil {
		return nil, err
	}

	metricsEnabled, err := parseBoolEnv("METRICS_ENABLED", true)
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: server,
		AI:     ai,
		Relay:  relay,
		Log: LogConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "console"),
		},
		Metrics: MetricsConfig{Enabled: metricsEnabled},
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig 描述 Gemini 上游相关配置。
type AIConfig struct {
	APIKey         string
	Model          string
	BaseURL        string
	Timeout        time.Duration
	SafetySettings bool
}

// HasCredential reports whether the provider key is configured.
func (c AIConfig) HasCredential() bool {
	return c.APIKey != ""
}

func loadAIConfig() (AIConfig, error) {
	timeout, err := parseDurationEnv("GEMINI_TIMEOUT", 20*time.Second)
	if err != nil {
		return AIConfig{}, err
	}

	safety, err := parseBoolEnv("GEMINI_SAFETY_SETTINGS", true)
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:         strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		Model:          getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		BaseURL:        strings.TrimRight(getEnvOrDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"), "/"),
		Timeout:        timeout,
		SafetySettings: safety,
	}, nil
}

// RelayConfig 描述请求整形与错误策略。
type RelayConfig struct {
	DefaultPersona string
	PersonaFile    string
	ErrorPolicy    string
	MaxBodyBytes   int64
}

func loadRelayConfig() (RelayConfig, error) {
	policy := strings.ToLower(getEnvOrDefault("RELAY_ERROR_POLICY", PolicyStructured))
	if policy != PolicyStructured && policy != PolicyFallback {
		return RelayConfig{}, fmt.Errorf("invalid RELAY_ERROR_POLICY value %q: want %q or %q", policy, PolicyStructured, PolicyFallback)
	}

	maxBody := int64(64 << 10)
	if override, err := parseOptionalIntEnv("MAX_BODY_BYTES"); err != nil {
		return RelayConfig{}, err
	} else if override != nil {
		if *override <= 0 {
			return RelayConfig{}, fmt.Errorf("invalid MAX_BODY_BYTES value %d: must be positive", *override)
		}
		maxBody = int64(*override)
	}

	return RelayConfig{
		DefaultPersona: getEnvOrDefault("DEFAULT_PERSONA", "caffeine-barista"),
		PersonaFile:    getEnvOrDefault("PERSONA_FILE", ""),
		ErrorPolicy:    policy,
		MaxBodyBytes:   maxBody,
	}, nil
}

// LogConfig 描述日志输出。
type LogConfig struct {
	Level  string
	Format string
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

// parseDurationEnv accepts a Go duration ("15s") or a bare number of seconds.
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	if secs, err := strconv.Atoi(raw); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("invalid %s value %q: must be positive", key, raw)
		}
		return time.Duration(secs) * time.Second, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if val <= 0 {
		return 0, fmt.Errorf("invalid %s value %q: must be positive", key, raw)
	}
	return val, nil
}
