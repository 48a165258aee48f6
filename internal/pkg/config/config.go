package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments and have no safe fallback
// - default: Values common across all environments (timeouts, schedules, etc.)
// - optional integrations (Redis, Kafka, RabbitMQ, Twilio) are disabled while their address is empty
// -----------------------------------------------------------------------------

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	DB       DBConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	RabbitMQ RabbitMQConfig
	Twilio   TwilioConfig
	Workflow WorkflowConfig
	Gateway  GatewayConfig
	Catalog  CatalogConfig
	CORS     CORSConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type StorageConfig struct {
	Driver   string `envconfig:"STORAGE_DRIVER" default:"memory"`
	BoltPath string `envconfig:"BOLT_PATH" default:"data/ledger.db"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER"`
	Password string `envconfig:"DB_PASSWORD"`
	DBName   string `envconfig:"DB_NAME"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
	TimeZone string `envconfig:"DB_TIMEZONE" default:"Africa/Nairobi"`
}

type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

type KafkaConfig struct {
	Brokers []string `envconfig:"KAFKA_BROKERS"`
	Topic   string   `envconfig:"KAFKA_BOOKING_TOPIC" default:"parking.bookings"`
}

type RabbitMQConfig struct {
	URL      string `envconfig:"RABBITMQ_URL"`
	Exchange string `envconfig:"RABBITMQ_EXCHANGE" default:"payments"`
	Queue    string `envconfig:"RABBITMQ_QUEUE" default:"parking.payment-callbacks"`
}

type TwilioConfig struct {
	AccountSID string `envconfig:"TWILIO_ACCOUNT_SID"`
	AuthToken  string `envconfig:"TWILIO_AUTH_TOKEN"`
	FromNumber string `envconfig:"TWILIO_FROM_NUMBER"`
}

type WorkflowConfig struct {
	HoldTTL            time.Duration `envconfig:"HOLD_TTL" default:"5m"`
	PaymentTimeout     time.Duration `envconfig:"PAYMENT_TIMEOUT" default:"30s"`
	MaxPaymentAttempts int           `envconfig:"MAX_PAYMENT_ATTEMPTS" default:"3"`
	SweepSchedule      string        `envconfig:"SWEEP_SCHEDULE" default:"@every 30s"`
	SweepTimeout       time.Duration `envconfig:"SWEEP_TIMEOUT" default:"20s"`
	SessionRetention   time.Duration `envconfig:"SESSION_RETENTION" default:"24h"`
	Currency           string        `envconfig:"CURRENCY" default:"Ksh"`
}

type GatewayConfig struct {
	Delay  time.Duration `envconfig:"GATEWAY_DELAY" default:"3s"`
	NodeID int64         `envconfig:"GATEWAY_NODE_ID" default:"1"`
}

type CatalogConfig struct {
	// empty means the embedded seed catalog
	Path string `envconfig:"CATALOG_PATH"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level          string `envconfig:"LOG_LEVEL" default:"info"`
	TimeZone       string `envconfig:"LOG_TIMEZONE" default:"Africa/Nairobi"`
	TimeFormat     string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
	TimeZoneOffset int    `envconfig:"LOG_TIMEZONE_OFFSET" default:"10800"` // 3*60*60
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&timezone=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.TimeZone,
	)
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageMemory:
	case StoragePostgres:
		if c.DB.User == "" || c.DB.DBName == "" {
			return fmt.Errorf("DB_USER and DB_NAME are required when STORAGE_DRIVER=%s", StoragePostgres)
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}
	if c.Workflow.MaxPaymentAttempts < 1 {
		return fmt.Errorf("MAX_PAYMENT_ATTEMPTS must be at least 1, got %d", c.Workflow.MaxPaymentAttempts)
	}
	if c.Workflow.HoldTTL <= 0 || c.Workflow.PaymentTimeout <= 0 {
		return fmt.Errorf("HOLD_TTL and PAYMENT_TIMEOUT must be positive")
	}
	return nil
}

func LoadConfig() (Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889", // Test port
		},
		Storage: StorageConfig{
			Driver: StorageMemory,
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433", // Test DB port
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
			TimeZone: "Africa/Nairobi",
		},
		Workflow: WorkflowConfig{
			HoldTTL:            5 * time.Minute,
			PaymentTimeout:     2 * time.Second,
			MaxPaymentAttempts: 3,
			SweepSchedule:      "@every 30s",
			SweepTimeout:       5 * time.Second,
			SessionRetention:   time.Hour,
			Currency:           "Ksh",
		},
		Gateway: GatewayConfig{
			Delay:  0,
			NodeID: 1,
		},
		CORS: CORSConfig{
			AllowOrigins:     []string{"http://localhost:3000"},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			AllowCredentials: true,
			MaxAge:           time.Hour,
		},
		Log: LogConfig{
			Level:          "error", // Error level only for tests
			TimeZone:       "Africa/Nairobi",
			TimeFormat:     "2006-01-02 15:04:05.000",
			TimeZoneOffset: 10800,
		},
	}
}
