package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Browser  BrowserConfig
	Scraper  ScraperConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Relay    RelayConfig
	Worker   WorkerConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Port            int
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// Addr is the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type BrowserConfig struct {
	Headless           bool
	Timeout            time.Duration
	UserAgent          string
	ViewportWidth      int
	ViewportHeight     int
	AcceptLanguage     string
	TimezoneID         string
	Locale             string
	ProxyServer        string
	SettleDelay        time.Duration
	NavigationAttempts int
}

type ScraperConfig struct {
	EntryTimeout  time.Duration
	ClickPause    time.Duration
	ListingSettle time.Duration
	PageInterval  time.Duration
	MaxPages      int
	PageParam     string
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Stream   string
}

type RelayConfig struct {
	Enabled      bool
	PollInterval time.Duration
	BatchSize    int
}

type WorkerConfig struct {
	PollInterval time.Duration
	// RunDelayMin and RunDelayMax space consecutive scrape runs.
	RunDelayMin time.Duration
	RunDelayMax time.Duration
	RunTimeout  time.Duration
}

type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from the environment. Values in a .env file in
// the working directory are applied first without overriding real
// environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		Server: ServerConfig{
			Port:            getIntOrDefault("SERVER_PORT", 8080),
			Host:            getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			AllowedOrigins:  getStringSliceOrDefault("SERVER_ALLOWED_ORIGINS", []string{"*"}),
		},
		Browser: BrowserConfig{
			Headless:           getBoolOrDefault("BROWSER_HEADLESS", true),
			Timeout:            getDurationOrDefault("BROWSER_TIMEOUT", 30*time.Second),
			UserAgent:          getEnvOrDefault("BROWSER_USER_AGENT", ""),
			ViewportWidth:      getIntOrDefault("BROWSER_VIEWPORT_WIDTH", 1920),
			ViewportHeight:     getIntOrDefault("BROWSER_VIEWPORT_HEIGHT", 1080),
			AcceptLanguage:     getEnvOrDefault("BROWSER_ACCEPT_LANGUAGE", "en-IN,en;q=0.9"),
			TimezoneID:         getEnvOrDefault("BROWSER_TIMEZONE", "Asia/Kolkata"),
			Locale:             getEnvOrDefault("BROWSER_LOCALE", "en-IN"),
			ProxyServer:        getEnvOrDefault("BROWSER_PROXY", ""),
			SettleDelay:        getDurationOrDefault("BROWSER_SETTLE_DELAY", 2*time.Second),
			NavigationAttempts: getIntOrDefault("BROWSER_NAVIGATION_ATTEMPTS", 1),
		},
		Scraper: ScraperConfig{
			EntryTimeout:  getDurationOrDefault("SCRAPER_ENTRY_TIMEOUT", 10*time.Second),
			ClickPause:    getDurationOrDefault("SCRAPER_CLICK_PAUSE", time.Second),
			ListingSettle: getDurationOrDefault("SCRAPER_LISTING_SETTLE", 3*time.Second),
			PageInterval:  getDurationOrDefault("SCRAPER_PAGE_INTERVAL", 1500*time.Millisecond),
			MaxPages:      getIntOrDefault("SCRAPER_MAX_PAGES", 0),
			PageParam:     getEnvOrDefault("SCRAPER_PAGE_PARAM", "page"),
		},
		Database: DatabaseConfig{
			Host:            getEnvOrDefault("DB_HOST", "localhost"),
			Port:            getIntOrDefault("DB_PORT", 5432),
			User:            getEnvOrDefault("DB_USER", "postgres"),
			Password:        getEnvOrDefault("DB_PASSWORD", ""),
			Name:            getEnvOrDefault("DB_NAME", "review_scraper"),
			SSLMode:         getEnvOrDefault("DB_SSL_MODE", "disable"),
			MaxConns:        int32(getIntOrDefault("DB_MAX_CONNS", 10)),
			MinConns:        int32(getIntOrDefault("DB_MIN_CONNS", 0)),
			MaxConnLifetime: getDurationOrDefault("DB_MAX_CONN_LIFETIME", time.Hour),
			MaxConnIdleTime: getDurationOrDefault("DB_MAX_CONN_IDLE_TIME", 30*time.Minute),
		},

		Redis: RedisConfig{
			Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       getIntOrDefault("REDIS_DB", 0),
			Stream:   getEnvOrDefault("REDIS_STREAM", "stream:review_scrapes"),
		},
		Relay: RelayConfig{
			Enabled:      getBoolOrDefault("RELAY_ENABLED", true),
			PollInterval: getDurationOrDefault("RELAY_POLL_INTERVAL", 5*time.Second),
			BatchSize:    getIntOrDefault("RELAY_BATCH_SIZE", 100),
		},
		Worker: WorkerConfig{
			PollInterval: getDurationOrDefault("WORKER_POLL_INTERVAL", 2*time.Second),
			RunDelayMin:  getDurationOrDefault("WORKER_RUN_DELAY_MIN", 5*time.Second),
			RunDelayMax:  getDurationOrDefault("WORKER_RUN_DELAY_MAX", 15*time.Second),
			RunTimeout:   getDurationOrDefault("WORKER_RUN_TIMEOUT", 30*time.Minute),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid server port: %d", c.Server.Port))
	}

	if c.Browser.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("BROWSER_TIMEOUT must be positive"))
	}

	if c.Browser.NavigationAttempts < 1 {
		errs = append(errs, fmt.Errorf("BROWSER_NAVIGATION_ATTEMPTS must be at least 1"))
	}

	if c.Scraper.EntryTimeout <= 0 {
		errs = append(errs, fmt.Errorf("SCRAPER_ENTRY_TIMEOUT must be positive"))
	}

	if c.Scraper.MaxPages < 0 {
		errs = append(errs, fmt.Errorf("SCRAPER_MAX_PAGES cannot be negative"))
	}

	if c.Scraper.PageParam == "" {
		errs = append(errs, fmt.Errorf("SCRAPER_PAGE_PARAM is required"))
	}

	if c.Database.Host == "" {
		errs = append(errs, fmt.Errorf("database host is required"))
	}

	if c.Database.Name == "" {
		errs = append(errs, fmt.Errorf("database name is required"))
	}

	if c.Database.MaxConns < 1 {
		errs = append(errs, fmt.Errorf("DB_MAX_CONNS must be at least 1"))
	} else if c.Database.MinConns < 0 || c.Database.MinConns > c.Database.MaxConns {
		errs = append(errs, fmt.Errorf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS"))
	}

	if c.Relay.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("RELAY_BATCH_SIZE must be at least 1"))
	}

	if c.Worker.RunDelayMin > c.Worker.RunDelayMax {
		errs = append(errs, fmt.Errorf("WORKER_RUN_DELAY_MIN cannot be greater than WORKER_RUN_DELAY_MAX"))
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getStringSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}
