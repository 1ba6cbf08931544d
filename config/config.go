package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"marketplace-service/pkg/database"

	"go.uber.org/zap"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Env      string
	Port     string
	GRPCPort string
	CORS     []string
	JWT      JWT
	DB       DB
	Redis    Redis
	Kafka    Kafka
	Login    Login
}

type JWT struct {
	Secret    string
	Issuer    string
	Audience  string
	AccessExp time.Duration
}

type DB struct {
	Driver      string
	AutoMigrate bool // миграция при старте сервиса
	database.Config
}

type Redis struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	Prefix   string
}

type Kafka struct {
	Brokers     []string // пусто: события не публикуются
	TopicOrders string
}

type Login struct {
	MaxFailures int
	Window      time.Duration
}

func (c *Config) IsDev() bool { return c.Env == "development" }

func Load(log *zap.Logger) *Config {
	cfg := &Config{
		Env:      getEnvDefault("ENV", "production"),
		Port:     getEnvDefault("APP_PORT", ":8080"),
		GRPCPort: getEnvDefault("GRPC_PORT", ":9090"),
		CORS:     splitAndTrim(getEnvDefault("CORS_ORIGINS", "*")),
		JWT: JWT{
			Secret:    getEnv("JWT_SECRET", log),
			Issuer:    getEnvDefault("JWT_ISSUER", "marketplace"),
			Audience:  getEnvDefault("JWT_AUDIENCE", "marketplace-api"),
			AccessExp: parseDurationWithDays(getEnvDefault("ACCESS_EXP", "1d")),
		},
		DB: DB{
			Driver:      strings.ToLower(getEnvDefault("DB_DRIVER", DriverPostgres)),
			AutoMigrate: getEnvDefault("DB_AUTO_MIGRATE", "false") == "true",
		},
		Redis: Redis{
			Enabled: getEnvDefault("REDIS_ENABLED", "false") == "true",
			Prefix:  getEnvDefault("REDIS_PREFIX", "marketplace:"),
		},
		Kafka: Kafka{
			Brokers:     splitAndTrim(getEnvDefault("KAFKA_BROKERS", "")),
			TopicOrders: getEnvDefault("KAFKA_TOPIC_ORDERS", "marketplace.orders"),
		},
	}
	cfg.Login.MaxFailures, cfg.Login.Window = parseThrottle(getEnvDefault("LOGIN_THROTTLE", "5/15m"))

	if cfg.JWT.AccessExp <= 0 {
		log.Error("Некорректное значение ACCESS_EXP", zap.String("value", os.Getenv("ACCESS_EXP")))
		panic("invalid ACCESS_EXP")
	}

	switch cfg.DB.Driver {
	case DriverPostgres:
		cfg.DB.Config = LoadDB(log)
	case DriverMemory:
		log.Warn("DB_DRIVER=memory: данные не сохраняются между перезапусками")
	default:
		log.Error("Неизвестный DB_DRIVER", zap.String("driver", cfg.DB.Driver))
		panic("unknown DB_DRIVER: " + cfg.DB.Driver)
	}

	if cfg.Redis.Enabled {
		cfg.Redis.Addr = getEnv("REDIS_ADDR", log)
		cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
		cfg.Redis.DB = atoiDefault(getEnvDefault("REDIS_DB", "0"), 0)
	}

	return cfg
}

// LoadDB читает только параметры postgres (для cmd/migrate).
func LoadDB(log *zap.Logger) database.Config {
	return database.Config{
		Host:     getEnv("DB_HOST", log),
		Port:     getEnv("DB_PORT", log),
		User:     getEnv("DB_USER", log),
		Password: getEnv("DB_PASSWORD", log),
		Name:     getEnv("DB_NAME", log),
		SSLMode:  getEnvDefault("DB_SSLMODE", "disable"),
	}
}

func getEnv(key string, log *zap.Logger) string {
	if val, exists := os.LookupEnv(key); exists && val != "" {
		return val
	}
	log.Error("Обязательная переменная окружения не установлена", zap.String("key", key))
	panic("missing required environment variable: " + key)
}

func getEnvDefault(key, def string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return def
}

func parseDurationWithDays(s string) time.Duration {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			log.Printf("Ошибка парсинга TTL: %v", err)
			return 0
		}
		return time.Duration(days) * 24 * time.Hour
	}

	duration, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return duration
}

// parseThrottle разбирает "5/15m": 5 неудачных попыток за окно 15 минут. "0" отключает.
func parseThrottle(s string) (int, time.Duration) {
	limit, window, ok := strings.Cut(strings.TrimSpace(s), "/")
	n := atoiDefault(limit, 0)
	if !ok || n <= 0 {
		return 0, 0
	}
	d := parseDurationWithDays(window)
	if d <= 0 {
		return 0, 0
	}
	return n, d
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}

func splitAndTrim(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
