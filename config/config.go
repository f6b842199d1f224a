package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Env      string         `yaml:"env" env:"ENV" env-default:"prod"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Session  SessionConfig  `yaml:"session"`
	Auth     AuthConfig     `yaml:"auth"`
	Storage  StorageConfig  `yaml:"storage"`
	MQ       MQConfig       `yaml:"mq"`
	Redis    RedisConfig    `yaml:"redis"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host" env:"SERVER_HOST" env-default:"0.0.0.0"`
	Port int    `yaml:"port" env:"SERVER_PORT" env-default:"81"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver" env:"DB_DRIVER" env-default:"sqlite3"`
	Path     string `yaml:"path" env:"DB_PATH" env-default:"dictionary.db"`
	Host     string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"DB_USER" env-default:"dictionary"`
	Password string `yaml:"password" env:"DB_PASSWORD" env-default:"password"`
	DBName   string `yaml:"name" env:"DB_NAME" env-default:"dictionary"`
	UseSSL   bool   `yaml:"use_ssl" env:"DB_USE_SSL" env-default:"false"`
}

type SessionConfig struct {
	Secret     string        `yaml:"secret" env:"SESSION_SECRET"`
	CookieName string        `yaml:"cookie_name" env:"SESSION_COOKIE" env-default:"dictionary_session"`
	TTL        time.Duration `yaml:"ttl" env:"SESSION_TTL" env-default:"24h"`
	Secure     bool          `yaml:"secure" env:"SESSION_SECURE" env-default:"false"`
}

type AuthConfig struct {
	// StudentMarker classifies any signup email containing it as a student.
	StudentMarker string `yaml:"student_marker" env:"STUDENT_EMAIL_MARKER" env-default:"student"`
}

type StorageConfig struct {
	Backend  string      `yaml:"backend" env:"STORAGE_BACKEND" env-default:"local"`
	LocalDir string      `yaml:"local_dir" env:"STORAGE_LOCAL_DIR" env-default:"static/images"`
	Minio    MinioConfig `yaml:"minio"`
	GCS      GCSConfig   `yaml:"gcs"`
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint" env:"MINIO_ENDPOINT" env-default:"localhost:9000"`
	AccessKey string `yaml:"access_key" env:"MINIO_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"MINIO_SECRET_KEY"`
	Bucket    string `yaml:"bucket" env:"MINIO_BUCKET" env-default:"dictionary"`
	UseSSL    bool   `yaml:"use_ssl" env:"MINIO_USE_SSL" env-default:"false"`
}

type GCSConfig struct {
	Bucket          string `yaml:"bucket" env:"GCS_BUCKET"`
	ProjectID       string `yaml:"project_id" env:"GCS_PROJECT_ID"`
	CredentialsFile string `yaml:"credentials_file" env:"GCS_CREDENTIALS_FILE"`
}

type MQConfig struct {
	// Backend is empty (events disabled), "rabbitmq" or "pubsub".
	Backend  string         `yaml:"backend" env:"MQ_BACKEND"`
	Channel  string         `yaml:"channel" env:"MQ_CHANNEL" env-default:"dictionary-events"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	PubSub   PubSubConfig   `yaml:"pubsub"`
}

type RabbitMQConfig struct {
	URL             string `yaml:"url" env:"RABBITMQ_URL"`
	QueueDurable    bool   `yaml:"queue_durable" env:"RABBITMQ_QUEUE_DURABLE" env-default:"true"`
	QueueAutoDelete bool   `yaml:"queue_auto_delete" env:"RABBITMQ_QUEUE_AUTO_DELETE" env-default:"false"`
	PrefetchCount   int    `yaml:"prefetch_count" env:"RABBITMQ_PREFETCH" env-default:"10"`
}

type PubSubConfig struct {
	ProjectID          string `yaml:"project_id" env:"PUBSUB_PROJECT_ID"`
	CredentialsFile    string `yaml:"credentials_file" env:"PUBSUB_CREDENTIALS_FILE"`
	SubscriptionSuffix string `yaml:"subscription_suffix" env:"PUBSUB_SUBSCRIPTION_SUFFIX" env-default:"-sub"`
}

type RedisConfig struct {
	// URL is empty to disable login throttling.
	URL         string        `yaml:"url" env:"REDIS_URL"`
	LoginLimit  int64         `yaml:"login_limit" env:"LOGIN_RATE_LIMIT" env-default:"10"`
	LoginWindow time.Duration `yaml:"login_window" env:"LOGIN_RATE_WINDOW" env-default:"1m"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Pretty bool   `yaml:"pretty" env:"LOG_PRETTY" env-default:"false"`
}

// LoadConfig reads configuration from CONFIG_PATH (if set) and the environment.
// Environment variables win over the YAML file.
func LoadConfig() (Config, error) {
	if os.Getenv("ENV") == "dev" {
		_ = godotenv.Load()
	}

	var cfg Config
	if path := strings.TrimSpace(os.Getenv("CONFIG_PATH")); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		return cfg, nil
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}
	return cfg, nil
}

// Addr returns the listen address for the HTTP server.
func (c ServerConfig) Addr() string {
	port := c.Port
	if port == 0 {
		port = 81
	}
	return fmt.Sprintf("%s:%d", c.Host, port)
}
