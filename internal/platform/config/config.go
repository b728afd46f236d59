package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	liststrings "capacitor/pkg/platform/strings"
)

// Store backends.
const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Feed backends.
const (
	FeedKafka = "kafka"
	FeedRedis = "redis"
	FeedFile  = "file"
)

// Server captures control-plane HTTP configuration.
type Server struct {
	Addr          string
	AdminToken    string
	JWTSigningKey string
}

// MongoConfig holds MongoDB connection settings. URI, when set, overrides the
// discrete fields.
type MongoConfig struct {
	URI            string
	User           string
	Password       string
	Host           string
	Port           string
	ConnectTimeout time.Duration
}

// PostgresConfig holds the PostgreSQL connection string.
type PostgresConfig struct {
	URL string
}

// KafkaConfig configures the Kafka block feed.
type KafkaConfig struct {
	Brokers           []string
	Topic             string
	Group             string
	CreateTopic       bool
	Partitions        int32
	ReplicationFactor int16
}

// RedisConfig configures the Redis stream block feed.
type RedisConfig struct {
	URL          string
	Stream       string
	Group        string
	Consumer     string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	BlockTimeout time.Duration
}

// Ingest tunes the persistence path.
type Ingest struct {
	AllowedAccounts []string
	WriteTimeout    time.Duration
	WriteRetries    uint64
	FeedFile        string
}

// Config is the full process configuration.
type Config struct {
	Server   Server
	Store    string
	Feed     string
	Mongo    MongoConfig
	Postgres PostgresConfig
	Kafka    KafkaConfig
	Redis    RedisConfig
	Ingest   Ingest
	LogLevel string
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	var errs []error
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "capacitor"
	}

	cfg := Config{
		Server: Server{
			Addr:          getenv("CAPACITOR_ADDR", ":3000"),
			AdminToken:    os.Getenv("CAPACITOR_ADMIN_TOKEN"),
			JWTSigningKey: os.Getenv("JWT_SIGNING_KEY"),
		},
		Store: getenv("CAPACITOR_STORE", StoreMongo),
		Feed:  getenv("CAPACITOR_FEED", FeedKafka),
		Mongo: MongoConfig{
			URI:            os.Getenv("MONGO_URI"),
			User:           os.Getenv("DB_USER"),
			Password:       os.Getenv("DB_PASSWORD"),
			Host:           getenv("DB_HOST", "localhost"),
			Port:           getenv("DB_PORT", "27017"),
			ConnectTimeout: durationEnv("DB_CONNECT_TIMEOUT", 10*time.Second, &errs),
		},
		Postgres: PostgresConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Kafka: KafkaConfig{
			Brokers:           liststrings.SplitList(getenv("KAFKA_BROKERS", "localhost:9092")),
			Topic:             getenv("KAFKA_TOPIC", "capacitor.blocks"),
			Group:             getenv("KAFKA_GROUP", "capacitor"),
			CreateTopic:       os.Getenv("KAFKA_CREATE_TOPIC") == "true",
			Partitions:        int32(intEnv("KAFKA_PARTITIONS", 1, &errs)),
			ReplicationFactor: int16(intEnv("KAFKA_REPLICATION_FACTOR", 1, &errs)),
		},
		Redis: RedisConfig{
			URL:          getenv("REDIS_URL", "redis://localhost:6379/0"),
			Stream:       getenv("REDIS_STREAM", "capacitor:blocks"),
			Group:        getenv("REDIS_GROUP", "capacitor"),
			Consumer:     getenv("REDIS_CONSUMER", hostname),
			PoolSize:     intEnv("REDIS_POOL_SIZE", 10, &errs),
			MinIdleConns: intEnv("REDIS_MIN_IDLE_CONNS", 1, &errs),
			DialTimeout:  durationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second, &errs),
			ReadTimeout:  durationEnv("REDIS_READ_TIMEOUT", 10*time.Second, &errs),
			WriteTimeout: durationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second, &errs),
			BlockTimeout: durationEnv("REDIS_BLOCK_TIMEOUT", 5*time.Second, &errs),
		},
		Ingest: Ingest{
			AllowedAccounts: liststrings.SplitList(os.Getenv("CAPACITOR_ALLOWED_ACCOUNTS")),
			WriteTimeout:    durationEnv("CAPACITOR_WRITE_TIMEOUT", 10*time.Second, &errs),
			WriteRetries:    uint64(intEnv("CAPACITOR_WRITE_RETRIES", 3, &errs)),
			FeedFile:        os.Getenv("CAPACITOR_FEED_FILE"),
		},
		LogLevel: getenv("CAPACITOR_LOG_LEVEL", "info"),
	}
	return cfg, errors.Join(errs...)
}

// Validate checks settings needed to open the configured store and feed.
func (c Config) Validate() error {
	var errs []error
	switch c.Store {
	case StoreMongo:
		if c.Mongo.URI == "" && (c.Mongo.User == "" || c.Mongo.Password == "") {
			errs = append(errs, errors.New("mongo store requires MONGO_URI or DB_USER and DB_PASSWORD"))
		}
	case StorePostgres:
		if c.Postgres.URL == "" {
			errs = append(errs, errors.New("postgres store requires DATABASE_URL"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown store %q", c.Store))
	}

	switch c.Feed {
	case FeedKafka:
		if len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "" || c.Kafka.Group == "" {
			errs = append(errs, errors.New("kafka feed requires KAFKA_BROKERS, KAFKA_TOPIC and KAFKA_GROUP"))
		}
	case FeedRedis:
		if c.Redis.URL == "" || c.Redis.Stream == "" || c.Redis.Group == "" || c.Redis.Consumer == "" {
			errs = append(errs, errors.New("redis feed requires REDIS_URL, REDIS_STREAM, REDIS_GROUP and REDIS_CONSUMER"))
		}
	case FeedFile:
		if c.Ingest.FeedFile == "" {
			errs = append(errs, errors.New("file feed requires CAPACITOR_FEED_FILE"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown feed %q", c.Feed))
	}
	return errors.Join(errs...)
}

// ValidateServer checks that the control plane can authenticate callers.
func (c Config) ValidateServer() error {
	if c.Server.Addr == "" {
		return errors.New("CAPACITOR_ADDR is required")
	}
	if c.Server.AdminToken == "" && c.Server.JWTSigningKey == "" {
		return errors.New("control plane requires CAPACITOR_ADMIN_TOKEN or JWT_SIGNING_KEY")
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		*errs = append(*errs, fmt.Errorf("%s: invalid non-negative integer %q", key, v))
		return fallback
	}
	return n
}

func durationEnv(key string, fallback time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		*errs = append(*errs, fmt.Errorf("%s: invalid duration %q", key, v))
		return fallback
	}
	return d
}
