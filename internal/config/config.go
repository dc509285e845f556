// Package config loads the service configuration from defaults, an optional
// JSON file, the environment (including a .env file) and command-line flags,
// in that order of increasing priority, and validates the result.
package config

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"reflect"
	"runtime"
	"strings"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/thoas/go-funk"
	"golang.org/x/crypto/bcrypt"
)

// Deployment environments recognized by Config.Environment.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

const minProductionSecretLen = 32

var placeholderSecrets = []string{"secret", "changeme", "your-secret-key", "jwt_secret"}

// Config holds every runtime setting of the service.
type Config struct {
	RunAddr             string        `env:"SERVER_ADDRESS" validate:"hostname_port"`
	BaseURL             string        `env:"BASE_URL" validate:"url"`
	Environment         string        `env:"APP_ENV" validate:"oneof=development production test"`
	LogLevel            string        `env:"LOG_LEVEL" validate:"loglevel"`
	JWTSecret           string        `env:"JWT_SECRET"`
	AuthCookieName      string        `env:"AUTH_COOKIE_NAME" validate:"required"`
	SessionTTL          time.Duration `env:"SESSION_TTL" validate:"gt=0"`
	BcryptCost          int           `env:"BCRYPT_COST" validate:"bcryptcost"`
	MaxConcurrentHashes int           `env:"MAX_CONCURRENT_HASHES" validate:"gte=1"`
	AllowedOrigins      []string      `env:"ALLOWED_ORIGINS" envSeparator:"," validate:"dive,url"`
	RateLimitWindow     time.Duration `env:"RATE_LIMIT_WINDOW" validate:"gt=0"`
	RateLimitMax        int           `env:"RATE_LIMIT_MAX" validate:"gte=1"`
	RedisURL            string        `env:"REDIS_URL" validate:"omitempty,url"`
	TrustedSubnet       string        `env:"TRUSTED_SUBNET" validate:"omitempty,cidr"`
	DatabaseDSN         string        `env:"DATABASE_DSN"`
	DBFilePath          string        `env:"DB_FILE_PATH" validate:"omitempty,dbfilepath"`
	DBConnectionTimeout time.Duration `env:"DB_CONNECTION_TIMEOUT"`
	EnableHTTPS         bool          `env:"ENABLE_HTTPS"`
	TLSCertFile         string        `env:"TLS_CERT_FILE" validate:"required_if=EnableHTTPS true"`
	TLSKeyFile          string        `env:"TLS_KEY_FILE" validate:"required_if=EnableHTTPS true"`
}

// fileConfig mirrors Config for the JSON file, where durations are strings like "15m".
type fileConfig struct {
	RunAddr             string   `json:"server_address"`
	BaseURL             string   `json:"base_url"`
	Environment         string   `json:"environment"`
	LogLevel            string   `json:"log_level"`
	JWTSecret           string   `json:"jwt_secret"`
	AuthCookieName      string   `json:"auth_cookie_name"`
	SessionTTL          string   `json:"session_ttl"`
	BcryptCost          int      `json:"bcrypt_cost"`
	MaxConcurrentHashes int      `json:"max_concurrent_hashes"`
	AllowedOrigins      []string `json:"allowed_origins"`
	RateLimitWindow     string   `json:"rate_limit_window"`
	RateLimitMax        int      `json:"rate_limit_max"`
	RedisURL            string   `json:"redis_url"`
	TrustedSubnet       string   `json:"trusted_subnet"`
	DatabaseDSN         string   `json:"database_dsn"`
	DBFilePath          string   `json:"file_storage_path"`
	DBConnectionTimeout string   `json:"db_connection_timeout"`
	EnableHTTPS         bool     `json:"enable_https"`
	TLSCertFile         string   `json:"tls_cert_file"`
	TLSKeyFile          string   `json:"tls_key_file"`
}

var defaultConfig = Config{
	RunAddr:             ":8080",
	BaseURL:             "http://localhost:8080",
	Environment:         EnvDevelopment,
	LogLevel:            "info",
	AuthCookieName:      "authToken",
	SessionTTL:          30 * 24 * time.Hour,
	BcryptCost:          12,
	MaxConcurrentHashes: 2 * runtime.GOMAXPROCS(0),
	AllowedOrigins:      []string{"http://localhost:3000", "https://your-production-domain.com"},
	RateLimitWindow:     15 * time.Minute,
	RateLimitMax:        100,
	DBConnectionTimeout: 10 * time.Second,
}

// IsProduction reports whether the service runs with production hardening
// (secure cookies, JSON logs, strict secret checks).
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// InitOption configures New.
type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
}

// WithDisableFlagsParsing makes New ignore os.Args. Tests use it.
func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

// New builds the configuration: defaults, then the JSON file named by the
// CONFIG variable or -c flag, then the environment, then flags.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{
		disableFlagsParsing: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	err := godotenv.Load()
	if err != nil {
		log.Printf("Unable to load .env file: %v", err)
	}

	values := &Config{}
	applyDefaults(values, defaultConfig)

	var flagValues Config
	var configPath string
	var flagsSet map[string]bool
	if !options.disableFlagsParsing {
		flagsSet, configPath, err = parseFlags(&flagValues, os.Args[1:])
		if err != nil {
			return nil, err
		}
	}

	if configPath == "" {
		configPath = os.Getenv("CONFIG")
	}
	if configPath != "" {
		valuesFromFile, err := loadJSONFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("in internal/config/config.go/New(): error while `loadJSONFile()` calling: %w", err)
		}
		mergeNonZero(values, valuesFromFile)
	}

	var valuesFromEnv Config
	if err := env.Parse(&valuesFromEnv); err != nil {
		return nil, fmt.Errorf("in internal/config/config.go/New(): error while `env.Parse()` calling: %w", err)
	}
	if valuesFromEnv.Environment == "" {
		valuesFromEnv.Environment = os.Getenv("NODE_ENV")
	}
	mergeNonZero(values, &valuesFromEnv)

	if flagsSet != nil {
		mergeSetFlags(values, &flagValues, flagsSet)
	}

	values.AllowedOrigins = funk.UniqString(trimAll(values.AllowedOrigins))

	if err := values.clarifyBaseURL(); err != nil {
		return nil, err
	}

	if err := values.ensureJWTSecret(); err != nil {
		return nil, err
	}

	if err := validate(values); err != nil {
		return nil, err
	}

	return values, nil
}

func applyDefaults(values *Config, defaults Config) {
	*values = defaults
	values.AllowedOrigins = append([]string(nil), defaults.AllowedOrigins...)
}

func parseFlags(values *Config, args []string) (map[string]bool, string, error) {
	flagSet := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)

	var configPath, origins string
	flagSet.StringVar(&configPath, "c", "", "path to a JSON configuration file")
	flagSet.StringVar(&values.RunAddr, "a", "", "address and port to run server")
	flagSet.StringVar(&values.BaseURL, "b", "", "public base URL of the API")
	flagSet.StringVar(&values.Environment, "e", "", "environment: development, production or test")
	flagSet.StringVar(&values.LogLevel, "l", "", "logger level")
	flagSet.StringVar(&values.JWTSecret, "s", "", "session token signing secret")
	flagSet.StringVar(&origins, "o", "", "comma separated list of allowed CORS origins")
	flagSet.StringVar(&values.RedisURL, "r", "", "Redis URL for shared rate limit counters")
	flagSet.StringVar(&values.TrustedSubnet, "t", "", "CIDR of reverse proxies whose forwarding headers are trusted")
	flagSet.StringVar(&values.DatabaseDSN, "d", "", "PostgreSQL connection string")
	flagSet.StringVar(&values.DBFilePath, "f", "", "SQLite database file")
	flagSet.BoolVar(&values.EnableHTTPS, "tls", false, "serve HTTPS")

	if err := flagSet.Parse(args); err != nil {
		return nil, "", err
	}

	set := map[string]bool{}
	flagSet.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})

	if set["o"] {
		values.AllowedOrigins = strings.Split(origins, ",")
	}

	return set, configPath, nil
}

func mergeSetFlags(values, flagValues *Config, set map[string]bool) {
	if set["a"] {
		values.RunAddr = flagValues.RunAddr
	}
	if set["b"] {
		values.BaseURL = flagValues.BaseURL
	}
	if set["e"] {
		values.Environment = flagValues.Environment
	}
	if set["l"] {
		values.LogLevel = flagValues.LogLevel
	}
	if set["s"] {
		values.JWTSecret = flagValues.JWTSecret
	}
	if set["o"] {
		values.AllowedOrigins = flagValues.AllowedOrigins
	}
	if set["r"] {
		values.RedisURL = flagValues.RedisURL
	}
	if set["t"] {
		values.TrustedSubnet = flagValues.TrustedSubnet
	}
	if set["d"] {
		values.DatabaseDSN = flagValues.DatabaseDSN
	}
	if set["f"] {
		values.DBFilePath = flagValues.DBFilePath
	}
	if set["tls"] {
		values.EnableHTTPS = flagValues.EnableHTTPS
	}
}

// mergeNonZero copies every non-zero field of src into dst.
func mergeNonZero(dst, src *Config) {
	dstValue := reflect.ValueOf(dst).Elem()
	srcValue := reflect.ValueOf(src).Elem()
	for i := 0; i < srcValue.NumField(); i++ {
		field := srcValue.Field(i)
		if !field.IsZero() {
			dstValue.Field(i).Set(field)
		}
	}
}

func loadJSONFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw fileConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	result := &Config{
		RunAddr:             raw.RunAddr,
		BaseURL:             raw.BaseURL,
		Environment:         raw.Environment,
		LogLevel:            raw.LogLevel,
		JWTSecret:           raw.JWTSecret,
		AuthCookieName:      raw.AuthCookieName,
		BcryptCost:          raw.BcryptCost,
		MaxConcurrentHashes: raw.MaxConcurrentHashes,
		AllowedOrigins:      raw.AllowedOrigins,
		RateLimitMax:        raw.RateLimitMax,
		RedisURL:            raw.RedisURL,
		TrustedSubnet:       raw.TrustedSubnet,
		DatabaseDSN:         raw.DatabaseDSN,
		DBFilePath:          raw.DBFilePath,
		EnableHTTPS:         raw.EnableHTTPS,
		TLSCertFile:         raw.TLSCertFile,
		TLSKeyFile:          raw.TLSKeyFile,
	}

	durations := []struct {
		raw string
		dst *time.Duration
	}{
		{raw.SessionTTL, &result.SessionTTL},
		{raw.RateLimitWindow, &result.RateLimitWindow},
		{raw.DBConnectionTimeout, &result.DBConnectionTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return nil, fmt.Errorf("invalid duration %q: %w", d.raw, err)
		}
		*d.dst = parsed
	}

	return result, nil
}

func trimAll(values []string) []string {
	result := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			result = append(result, v)
		}
	}

	return result
}

func (c *Config) clarifyBaseURL() error {
	if !c.EnableHTTPS {
		return nil
	}

	parsed, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("in internal/config/config.go/clarifyBaseURL(): error while `url.Parse()` calling: %w", err)
	}

	parsed.Scheme = "https"
	if parsed.Port() == "8080" {
		parsed.Host = parsed.Hostname()
	}
	c.BaseURL = parsed.String()

	return nil
}

// ensureJWTSecret enforces a real secret in production and generates an
// ephemeral one elsewhere, so tokens never get signed with an empty key.
func (c *Config) ensureJWTSecret() error {
	if c.IsProduction() {
		if c.JWTSecret == "" {
			return errors.New("JWT_SECRET is required in production")
		}
		if len(c.JWTSecret) < minProductionSecretLen {
			return fmt.Errorf("JWT_SECRET must be at least %d bytes in production", minProductionSecretLen)
		}
		if funk.ContainsString(placeholderSecrets, strings.ToLower(c.JWTSecret)) {
			return errors.New("JWT_SECRET must not be a placeholder value in production")
		}
		return nil
	}

	if c.JWTSecret != "" {
		return nil
	}

	buf := make([]byte, minProductionSecretLen)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Errorf("in internal/config/config.go/ensureJWTSecret(): error while `rand.Read()` calling: %w", err)
	}
	c.JWTSecret = string(buf)
	log.Printf("JWT_SECRET is not set, using a random key: sessions will not survive a restart")

	return nil
}

func validateDBFilePath(fieldLevel validator.FieldLevel) bool {
	path := fieldLevel.Field().String()
	_, err := os.Stat(path)

	return err == nil || os.IsNotExist(err)
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	value := fieldLevel.Field().String()

	allowedLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}

	return allowedLogLevels[value]
}

func validateBcryptCost(fieldLevel validator.FieldLevel) bool {
	cost := int(fieldLevel.Field().Int())

	return cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost
}

func validate(values *Config) error {
	validate := validator.New()

	customValidations := map[string]validator.Func{
		"loglevel":   validateLogLevel,
		"dbfilepath": validateDBFilePath,
		"bcryptcost": validateBcryptCost,
	}
	for tag, fn := range customValidations {
		if err := validate.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}

	return validate.Struct(values)
}
