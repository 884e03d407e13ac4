package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env          string
	Server       ServerConfig
	Redis        RedisConfig
	Lfg          LfgConfig
	JWT          JWTConfig
	Log          LogConfig
	Kafka        KafkaConfig
	Microservice MicroserviceConfig
}

type ServerConfig struct {
	GRpcPort     int
	HTTPPort     int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	MaxRetries   int
	PoolSize     int
	MinIdleConns int
	Enabled      bool
	TicketTTL    time.Duration
}

type LfgConfig struct {
	CatalogPath      string
	RoleCheckTimeout time.Duration
	ProposalTimeout  time.Duration
	BindTimeout      time.Duration
	BindRetryDelay   time.Duration
	ScanInterval     time.Duration
	MaxQueueTime     time.Duration
	MaxScanSteps     int
	MaxPartySize     int
	ShutdownTimeout  time.Duration
	EventBuffer      int
	StreamBuffer     int
}

type KafkaConfig struct {
	Brokers              []string
	ProducerRetryMax     int
	ProducerRequiredAcks int
	Enabled              bool
	ConsumerGroupID      string
}

type MicroserviceConfig struct {
	InstanceBinder string
}

type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

type LogConfig struct {
	Level    string
	Mode     string
	Encoding string
}

func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	cfg := &Config{
		Env: getEnv("ENV", "development"),
		Server: ServerConfig{
			GRpcPort:     getEnvAsInt("SERVER_GRPC_PORT", 50060),
			HTTPPort:     getEnvAsInt("SERVER_HTTP_PORT", 8080),
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Redis: RedisConfig{
			Addr:         getEnv("REDIS_ADDR", "localhost:6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			MaxRetries:   getEnvAsInt("REDIS_MAX_RETRIES", 3),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", 5),
			Enabled:      getEnvAsBool("REDIS_ENABLED", true),
			TicketTTL:    getEnvAsDuration("REDIS_TICKET_TTL", 2*time.Hour),
		},
		Lfg: LfgConfig{
			CatalogPath:      getEnv("LFG_CATALOG_PATH", ""),
			RoleCheckTimeout: getEnvAsDuration("LFG_ROLE_CHECK_TIMEOUT", 2*time.Minute),
			ProposalTimeout:  getEnvAsDuration("LFG_PROPOSAL_TIMEOUT", 45*time.Second),
			BindTimeout:      getEnvAsDuration("LFG_BIND_TIMEOUT", 15*time.Second),
			BindRetryDelay:   getEnvAsDuration("LFG_BIND_RETRY_DELAY", 2*time.Second),
			ScanInterval:     getEnvAsDuration("LFG_SCAN_INTERVAL", 1*time.Second),
			MaxQueueTime:     getEnvAsDuration("LFG_MAX_QUEUE_TIME", 1*time.Hour),
			MaxScanSteps:     getEnvAsInt("LFG_MAX_SCAN_STEPS", 5000),
			MaxPartySize:     getEnvAsInt("LFG_MAX_PARTY_SIZE", 40),
			ShutdownTimeout:  getEnvAsDuration("LFG_SHUTDOWN_TIMEOUT", 10*time.Second),
			EventBuffer:      getEnvAsInt("LFG_EVENT_BUFFER", 4096),
			StreamBuffer:     getEnvAsInt("LFG_STREAM_BUFFER", 64),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "jwt-secret"),
			Expiry: getEnvAsDuration("JWT_EXPIRY", 15*time.Minute),
		},
		Log: LogConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			Mode:     getEnv("LOG_MODE", "development"),
			Encoding: getEnv("LOG_ENCODING", "console"),
		},
		Kafka: KafkaConfig{
			Brokers:              getEnvAsSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			ProducerRetryMax:     getEnvAsInt("KAFKA_PRODUCER_RETRY_MAX", 3),
			ProducerRequiredAcks: getEnvAsInt("KAFKA_PRODUCER_REQUIRED_ACKS", 1),
			Enabled:              getEnvAsBool("KAFKA_ENABLED", true),
			ConsumerGroupID:      getEnv("KAFKA_CONSUMER_GROUP_ID", "lfg-service"),
		},
		Microservice: MicroserviceConfig{
			InstanceBinder: getEnv("INSTANCE_BINDER_ADDR", "localhost:50070"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.GRpcPort <= 0 || c.Server.GRpcPort > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.GRpcPort)
	}

	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid http port: %d", c.Server.HTTPPort)
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required")
	}

	if c.Microservice.InstanceBinder == "" {
		return fmt.Errorf("instance binder address is required")
	}

	if c.Lfg.RoleCheckTimeout <= 0 || c.Lfg.ProposalTimeout <= 0 || c.Lfg.BindTimeout <= 0 {
		return fmt.Errorf("lfg timeouts must be positive")
	}

	if c.Lfg.ScanInterval <= 0 {
		return fmt.Errorf("invalid scan interval: %s", c.Lfg.ScanInterval)
	}

	if c.Lfg.MaxScanSteps <= 0 {
		return fmt.Errorf("invalid matcher step budget: %d", c.Lfg.MaxScanSteps)
	}

	if c.JWT.Secret == "" || c.JWT.Secret == "jwt-secret" {
		if c.Env == "production" {
			return fmt.Errorf("JWT secret must be set in production")
		}
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	// Split by comma
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}

	return result
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
