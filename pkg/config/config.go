package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Storage  StorageConfig
	Materias MateriasConfig
	Agenda   AgendaConfig
	Weights  WeightsConfig
	Redis    RedisConfig
	CORS     CORSConfig
	Log      LogConfig
}

// StorageConfig locates the block files.
type StorageConfig struct {
	Dir string
	// RecoverCorrupt moves unreadable block files aside at startup instead of refusing to start.
	RecoverCorrupt bool
}

// MateriasConfig points at the subject catalog.
type MateriasConfig struct {
	CatalogPath string
}

// AgendaConfig bounds agenda queries and controls their cache.
type AgendaConfig struct {
	MaxDays      int
	CacheEnabled bool
	CacheTTL     time.Duration
}

// WeightsConfig sets the precision used when summing subject weights.
type WeightsConfig struct {
	Decimals int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Storage = StorageConfig{
		Dir:            v.GetString("STORAGE_DIR"),
		RecoverCorrupt: v.GetBool("STORE_RECOVER_CORRUPT"),
	}

	cfg.Materias = MateriasConfig{CatalogPath: v.GetString("MATERIAS_CATALOG_PATH")}

	maxDays := v.GetInt("AGENDA_MAX_DAYS")
	if maxDays <= 0 {
		maxDays = 120
	}
	cfg.Agenda = AgendaConfig{
		MaxDays:      maxDays,
		CacheEnabled: v.GetBool("ENABLE_AGENDA_CACHE"),
		CacheTTL:     parseDuration(v.GetString("AGENDA_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Weights = WeightsConfig{Decimals: v.GetInt("WEIGHT_DECIMALS")}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("STORAGE_DIR", "./data")
	v.SetDefault("STORE_RECOVER_CORRUPT", false)
	v.SetDefault("MATERIAS_CATALOG_PATH", "./config/materias.yaml")

	v.SetDefault("AGENDA_MAX_DAYS", 120)
	v.SetDefault("ENABLE_AGENDA_CACHE", false)
	v.SetDefault("AGENDA_CACHE_TTL", "5m")
	v.SetDefault("WEIGHT_DECIMALS", 2)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

// isMissingFile covers viper returning the raw os error when SetConfigFile points at a missing .env.
func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
