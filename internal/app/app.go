package app

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/janajenn/capstone2-sub006/internal/shared/connection"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"gorm.io/gorm"
)

type Config struct {
	Port        string
	DBHost      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBPort      string
	DBSSLMode   string
	RedisAddr   string
	KafkaBroker string
	MaxRetries  int
}

// LoadConfig reads the environment. Defaults suit local development; a
// missing secret fails at the middleware, not here.
func LoadConfig() Config {
	return Config{
		Port:        envOr("APP_PORT", "8080"),
		DBHost:      envOr("DB_HOST", "localhost"),
		DBUser:      envOr("DB_USER", "postgres"),
		DBPassword:  envOr("DB_PASSWORD", "postgres"),
		DBName:      envOr("DB_NAME", "leave_core"),
		DBPort:      envOr("DB_PORT", "5432"),
		DBSSLMode:   envOr("DB_SSLMODE", "disable"),
		RedisAddr:   envOr("REDIS_ADDR", "localhost:6379"),
		KafkaBroker: envOr("KAFKA_BROKER", "localhost:9092"),
		MaxRetries:  envIntOr("CONN_MAX_RETRIES", 5),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// App holds every shared handle the api and worker binaries need.
type App struct {
	Config      Config
	GormDB      *gorm.DB
	SQLDB       *sql.DB
	Redis       *redis.Client
	KafkaWriter *kafkago.Writer
	Router      *gin.Engine
	Modules     *Modules
}

// BuildApp opens every connection and wires the module graph.
func BuildApp(cfg Config) (*App, error) {
	gormDB, err := connection.ConnectGORMWithRetry(
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode,
		cfg.MaxRetries,
	)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap sql.DB: %w", err)
	}

	redisClient, err := connection.ConnectRedisWithRetry(cfg.RedisAddr, cfg.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	kafkaWriter, err := connection.ConnectKafkaWithRetry(cfg.KafkaBroker, cfg.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("connect kafka: %w", err)
	}

	modules, err := buildModules(gormDB, sqlDB)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:      cfg,
		GormDB:      gormDB,
		SQLDB:       sqlDB,
		Redis:       redisClient,
		KafkaWriter: kafkaWriter,
		Modules:     modules,
	}
	app.Router = buildRouter(app)
	return app, nil
}

func (a *App) Close() {
	if a.KafkaWriter != nil {
		_ = a.KafkaWriter.Close()
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.SQLDB != nil {
		_ = a.SQLDB.Close()
	}
}

// ServerTimeouts returns the HTTP server defaults used by cmd/api.
func ServerTimeouts() (read, write, idle time.Duration) {
	return 10 * time.Second, 15 * time.Second, 60 * time.Second
}
