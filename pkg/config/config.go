package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"
)

// Config holds the configuration for the Solarium appliance
type Config struct {
	// MQTT configuration
	MQTTBroker   string
	MQTTPort     int
	MQTTUser     string
	MQTTPassword string
	MQTTClientID string

	// Redis configuration
	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int

	// Postgres configuration (rebuild journal, disabled when host is empty)
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
	PostgresMaxConns int

	// Service configuration
	ServiceName string
	HealthPort  int
	LogLevel    string

	// Location of the simulated sky
	Latitude  float64
	Longitude float64
	Timezone  string

	// Clock synchronisation
	SyncYearFloor   int
	ClockPollMs     int
	ResyncRetries   int
	StatusInterval  int
	TestTimeEnabled bool

	// Transition catalog override (empty uses the built-in catalog)
	CatalogPath string

	// Actuator engines
	QueueCapacity     int
	PixelCount        int
	PreTransitionMs   int
	PreTransitionWait int

	// Peripheral drivers
	DriverMode           string
	GPIOChip             string
	HumidifierPowerLine  int
	HumidifierButtonLine int
	HumidifierClickMs    int
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		MQTTBroker:       "localhost",
		MQTTPort:         1883,
		RedisHost:        "localhost",
		RedisPort:        6379,
		RedisDB:          0,
		PostgresPort:     5432,
		PostgresUser:     "solarium",
		PostgresDB:       "solarium",
		PostgresSSLMode:  "disable",
		PostgresMaxConns: 4,
		ServiceName:      "solarium",
		HealthPort:       8080,
		LogLevel:         "info",
		// Lviv
		Latitude:             49.839684,
		Longitude:            24.029716,
		Timezone:             "Europe/Kiev",
		SyncYearFloor:        2024,
		ClockPollMs:          1000,
		ResyncRetries:        20,
		StatusInterval:       5,
		QueueCapacity:        20,
		PixelCount:           18,
		PreTransitionMs:      1200,
		PreTransitionWait:    1300,
		DriverMode:           "mqtt",
		GPIOChip:             "gpiochip0",
		HumidifierPowerLine:  17,
		HumidifierButtonLine: 27,
		HumidifierClickMs:    50,
	}
}

// LoadFromEnv loads configuration from environment variables with SOLARIUM_ prefix
func (c *Config) LoadFromEnv() {
	// MQTT configuration
	if v := os.Getenv("SOLARIUM_MQTT_BROKER"); v != "" {
		c.MQTTBroker = v
	}
	envInt("SOLARIUM_MQTT_PORT", &c.MQTTPort)
	if v := os.Getenv("SOLARIUM_MQTT_USER"); v != "" {
		c.MQTTUser = v
	}
	if v := os.Getenv("SOLARIUM_MQTT_PASSWORD"); v != "" {
		c.MQTTPassword = v
	}
	if v := os.Getenv("SOLARIUM_MQTT_CLIENT_ID"); v != "" {
		c.MQTTClientID = v
	}

	// Redis configuration
	if v := os.Getenv("SOLARIUM_REDIS_HOST"); v != "" {
		c.RedisHost = v
	}
	envInt("SOLARIUM_REDIS_PORT", &c.RedisPort)
	if v := os.Getenv("SOLARIUM_REDIS_PASSWORD"); v != "" {
		c.RedisPassword = v
	}
	envInt("SOLARIUM_REDIS_DB", &c.RedisDB)

	// Postgres configuration
	if v := os.Getenv("SOLARIUM_POSTGRES_HOST"); v != "" {
		c.PostgresHost = v
	}
	envInt("SOLARIUM_POSTGRES_PORT", &c.PostgresPort)
	if v := os.Getenv("SOLARIUM_POSTGRES_USER"); v != "" {
		c.PostgresUser = v
	}
	if v := os.Getenv("SOLARIUM_POSTGRES_PASSWORD"); v != "" {
		c.PostgresPassword = v
	}
	if v := os.Getenv("SOLARIUM_POSTGRES_DB"); v != "" {
		c.PostgresDB = v
	}
	if v := os.Getenv("SOLARIUM_POSTGRES_SSLMODE"); v != "" {
		c.PostgresSSLMode = v
	}
	envInt("SOLARIUM_POSTGRES_MAX_CONNS", &c.PostgresMaxConns)

	// Service configuration
	if v := os.Getenv("SOLARIUM_SERVICE_NAME"); v != "" {
		c.ServiceName = v
	}
	envInt("SOLARIUM_HEALTH_PORT", &c.HealthPort)
	if v := os.Getenv("SOLARIUM_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}

	// Location
	if v := os.Getenv("SOLARIUM_LATITUDE"); v != "" {
		if lat, err := strconv.ParseFloat(v, 64); err == nil {
			c.Latitude = lat
		}
	}
	if v := os.Getenv("SOLARIUM_LONGITUDE"); v != "" {
		if lon, err := strconv.ParseFloat(v, 64); err == nil {
			c.Longitude = lon
		}
	}
	if v := os.Getenv("SOLARIUM_TIMEZONE"); v != "" {
		c.Timezone = v
	}

	// Clock
	envInt("SOLARIUM_SYNC_YEAR_FLOOR", &c.SyncYearFloor)
	envInt("SOLARIUM_CLOCK_POLL_MS", &c.ClockPollMs)
	envInt("SOLARIUM_RESYNC_RETRIES", &c.ResyncRetries)
	envInt("SOLARIUM_STATUS_INTERVAL_SEC", &c.StatusInterval)
	if v := os.Getenv("SOLARIUM_TEST_TIME"); v != "" {
		if enable, err := strconv.ParseBool(v); err == nil {
			c.TestTimeEnabled = enable
		}
	}

	if v := os.Getenv("SOLARIUM_CATALOG_PATH"); v != "" {
		c.CatalogPath = v
	}

	// Engines
	envInt("SOLARIUM_QUEUE_CAPACITY", &c.QueueCapacity)
	envInt("SOLARIUM_PIXEL_COUNT", &c.PixelCount)
	envInt("SOLARIUM_PRE_TRANSITION_MS", &c.PreTransitionMs)
	envInt("SOLARIUM_PRE_TRANSITION_WAIT_MS", &c.PreTransitionWait)

	// Drivers
	if v := os.Getenv("SOLARIUM_DRIVER_MODE"); v != "" {
		c.DriverMode = v
	}
	if v := os.Getenv("SOLARIUM_GPIO_CHIP"); v != "" {
		c.GPIOChip = v
	}
	envInt("SOLARIUM_HUMIDIFIER_POWER_LINE", &c.HumidifierPowerLine)
	envInt("SOLARIUM_HUMIDIFIER_BUTTON_LINE", &c.HumidifierButtonLine)
	envInt("SOLARIUM_HUMIDIFIER_CLICK_MS", &c.HumidifierClickMs)
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// LoadFromFlags parses command-line flags and overrides config values
func (c *Config) LoadFromFlags() {
	c.BindFlags(pflag.CommandLine)
	pflag.Parse()
}

// BindFlags registers every config field on the given flag set
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	// MQTT flags
	fs.StringVar(&c.MQTTBroker, "mqtt-broker", c.MQTTBroker, "MQTT broker hostname")
	fs.IntVar(&c.MQTTPort, "mqtt-port", c.MQTTPort, "MQTT broker port")
	fs.StringVar(&c.MQTTUser, "mqtt-user", c.MQTTUser, "MQTT username")
	fs.StringVar(&c.MQTTPassword, "mqtt-password", c.MQTTPassword, "MQTT password")
	fs.StringVar(&c.MQTTClientID, "mqtt-client-id", c.MQTTClientID, "MQTT client ID")

	// Redis flags
	fs.StringVar(&c.RedisHost, "redis-host", c.RedisHost, "Redis hostname")
	fs.IntVar(&c.RedisPort, "redis-port", c.RedisPort, "Redis port")
	fs.StringVar(&c.RedisPassword, "redis-password", c.RedisPassword, "Redis password")
	fs.IntVar(&c.RedisDB, "redis-db", c.RedisDB, "Redis database number")

	// Postgres flags
	fs.StringVar(&c.PostgresHost, "postgres-host", c.PostgresHost, "Postgres hostname (empty disables the rebuild journal)")
	fs.IntVar(&c.PostgresPort, "postgres-port", c.PostgresPort, "Postgres port")
	fs.StringVar(&c.PostgresUser, "postgres-user", c.PostgresUser, "Postgres user")
	fs.StringVar(&c.PostgresPassword, "postgres-password", c.PostgresPassword, "Postgres password")
	fs.StringVar(&c.PostgresDB, "postgres-db", c.PostgresDB, "Postgres database")
	fs.StringVar(&c.PostgresSSLMode, "postgres-sslmode", c.PostgresSSLMode, "Postgres sslmode")

	// Service flags
	fs.StringVar(&c.ServiceName, "service-name", c.ServiceName, "Service name")
	fs.IntVar(&c.HealthPort, "health-port", c.HealthPort, "Health check HTTP port")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error)")

	// Location flags
	fs.Float64Var(&c.Latitude, "latitude", c.Latitude, "Geographic latitude of the simulated sky")
	fs.Float64Var(&c.Longitude, "longitude", c.Longitude, "Geographic longitude of the simulated sky")
	fs.StringVar(&c.Timezone, "timezone", c.Timezone, "IANA timezone used for local midnight")

	// Clock flags
	fs.IntVar(&c.SyncYearFloor, "sync-year-floor", c.SyncYearFloor, "Earliest year accepted as a synchronised clock")
	fs.IntVar(&c.ClockPollMs, "clock-poll-ms", c.ClockPollMs, "Scheduler poll period (ms)")
	fs.IntVar(&c.ResyncRetries, "resync-retries", c.ResyncRetries, "Unsynced polls before forcing a resync")
	fs.IntVar(&c.StatusInterval, "status-interval", c.StatusInterval, "Status publish interval in seconds")
	fs.BoolVar(&c.TestTimeEnabled, "test-time", c.TestTimeEnabled, "Accept virtual time configuration over MQTT")

	fs.StringVar(&c.CatalogPath, "catalog", c.CatalogPath, "Transition catalog YAML file")

	// Engine flags
	fs.IntVar(&c.QueueCapacity, "queue-capacity", c.QueueCapacity, "Per-actuator command queue capacity")
	fs.IntVar(&c.PixelCount, "pixel-count", c.PixelCount, "Number of RGB pixels on the strip")
	fs.IntVar(&c.PreTransitionMs, "pre-transition-ms", c.PreTransitionMs, "Smoothing transition before a resumed command (ms)")
	fs.IntVar(&c.PreTransitionWait, "pre-transition-wait-ms", c.PreTransitionWait, "Wait after the smoothing transition (ms)")

	// Driver flags
	fs.StringVar(&c.DriverMode, "driver", c.DriverMode, "Peripheral driver (mqtt, gpio, log)")
	fs.StringVar(&c.GPIOChip, "gpio-chip", c.GPIOChip, "GPIO chip for the humidifier")
	fs.IntVar(&c.HumidifierPowerLine, "humidifier-power-line", c.HumidifierPowerLine, "GPIO line offset switching humidifier power")
	fs.IntVar(&c.HumidifierButtonLine, "humidifier-button-line", c.HumidifierButtonLine, "GPIO line offset pressing the humidifier button")
	fs.IntVar(&c.HumidifierClickMs, "humidifier-click-ms", c.HumidifierClickMs, "Humidifier button press length (ms)")
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT broker is required")
	}
	if c.MQTTPort <= 0 || c.MQTTPort > 65535 {
		return fmt.Errorf("MQTT port must be between 1 and 65535")
	}
	if c.RedisHost == "" {
		return fmt.Errorf("Redis host is required")
	}
	if c.RedisPort <= 0 || c.RedisPort > 65535 {
		return fmt.Errorf("Redis port must be between 1 and 65535")
	}
	if c.HealthPort <= 0 || c.HealthPort > 65535 {
		return fmt.Errorf("Health port must be between 1 and 65535")
	}
	if c.ServiceName == "" {
		return fmt.Errorf("Service name is required")
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("latitude must be between -90 and 90")
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("longitude must be between -180 and 180")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	if c.QueueCapacity <= 0 {
		return fmt.Errorf("queue capacity must be positive")
	}
	if c.PixelCount <= 0 {
		return fmt.Errorf("pixel count must be positive")
	}
	if c.ClockPollMs <= 0 {
		return fmt.Errorf("clock poll period must be positive")
	}

	validDrivers := map[string]bool{
		"mqtt": true,
		"gpio": true,
		"log":  true,
	}
	if !validDrivers[c.DriverMode] {
		return fmt.Errorf("invalid driver: %s (must be mqtt, gpio, or log)", c.DriverMode)
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// MQTTAddress returns the full MQTT broker address
func (c *Config) MQTTAddress() string {
	return fmt.Sprintf("tcp://%s:%d", c.MQTTBroker, c.MQTTPort)
}

// RedisAddress returns the full Redis address
func (c *Config) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// JournalEnabled reports whether a Postgres host was configured
func (c *Config) JournalEnabled() bool {
	return c.PostgresHost != ""
}

// Location loads the configured timezone
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// PreTransition returns the smoothing transition duration
func (c *Config) PreTransition() time.Duration {
	return time.Duration(c.PreTransitionMs) * time.Millisecond
}

// PreTransitionSettle returns the wait after the smoothing transition
func (c *Config) PreTransitionSettle() time.Duration {
	return time.Duration(c.PreTransitionWait) * time.Millisecond
}

// PostgresConnectionString returns the lib/pq connection string
func (c *Config) PostgresConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode)
}
