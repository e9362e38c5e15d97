package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultDSN = "host=localhost user=postgres password=postgres dbname=taller port=5432 sslmode=disable"

type Config struct {
	HTTPPort    string `yaml:"http_port"`
	DatabaseDSN string `yaml:"database_dsn"`
	JWTSecret   string `yaml:"jwt_secret"`
	JWTTTLHours int    `yaml:"jwt_ttl_hours"`
	CORSOrigins string `yaml:"cors_allowed_origins"`

	// Redis es opcional: sin dirección la numeración se serializa sólo en proceso.
	RedisAddress  string `yaml:"redis_address"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	LoginRatePerMinute int  `yaml:"login_rate_per_minute"`
	MetricsEnabled     bool `yaml:"metrics_enabled"`
}

// Load lee .env, luego el YAML de CONFIG_FILE como valores por defecto y
// finalmente las variables de entorno, que tienen prioridad.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[WARN] .env no se pudo leer: %v", err)
	}

	base := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, base); err != nil {
			log.Fatalf("[FATAL] CONFIG_FILE %s inválido: %v", path, err)
		}
	}

	cfg := fromEnv(base)

	if cfg.JWTSecret == "" {
		log.Fatal("[FATAL] JWT_SECRET no está definido. Es obligatorio.")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[FATAL] JWT_SECRET debe tener al menos 32 caracteres.")
	}
	if cfg.DatabaseDSN == defaultDSN {
		log.Println("[WARN] DATABASE_DSN usa el valor por defecto, definí tu propia conexión a Postgres para producción.")
	}
	if cfg.CORSOrigins == "http://localhost:5173" {
		log.Println("[WARN] CORS_ALLOWED_ORIGINS usa el valor por defecto, definí tu dominio para producción.")
	}

	return cfg
}

func defaults() *Config {
	return &Config{
		HTTPPort:           "8080",
		DatabaseDSN:        defaultDSN,
		JWTTTLHours:        24,
		CORSOrigins:        "http://localhost:5173",
		LogLevel:           "info",
		LogFormat:          "json",
		LoginRatePerMinute: 10,
		MetricsEnabled:     true,
	}
}

func loadFile(path string, into *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, into)
}

func fromEnv(base *Config) *Config {
	return &Config{
		HTTPPort:           getEnv("HTTP_PORT", base.HTTPPort),
		DatabaseDSN:        getEnv("DATABASE_DSN", base.DatabaseDSN),
		JWTSecret:          getEnv("JWT_SECRET", base.JWTSecret),
		JWTTTLHours:        getEnvInt("JWT_TTL_HOURS", base.JWTTTLHours),
		CORSOrigins:        getEnv("CORS_ALLOWED_ORIGINS", base.CORSOrigins),
		RedisAddress:       getEnv("REDIS_ADDRESS", base.RedisAddress),
		RedisPassword:      getEnv("REDIS_PASSWORD", base.RedisPassword),
		RedisDB:            getEnvInt("REDIS_DB", base.RedisDB),
		LogLevel:           getEnv("LOG_LEVEL", base.LogLevel),
		LogFormat:          getEnv("LOG_FORMAT", base.LogFormat),
		LoginRatePerMinute: getEnvInt("LOGIN_RATE_PER_MINUTE", base.LoginRatePerMinute),
		MetricsEnabled:     getEnvBool("METRICS_ENABLED", base.MetricsEnabled),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[WARN] %s=%q no es un número, se usa %d", key, v, def)
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("[WARN] %s=%q no es booleano, se usa %t", key, v, def)
		return def
	}
	return b
}
