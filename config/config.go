package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	GRPC      GRPCConfig      `yaml:"grpc"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Auth      AuthConfig      `yaml:"auth"`
	Booking   BookingConfig   `yaml:"booking"`
	Simulator SimulatorConfig `yaml:"simulator"`
	Worker    WorkerConfig    `yaml:"worker"`
	Log       LogConfig       `yaml:"log"`
	Seed      SeedConfig      `yaml:"seed"`
}

type HTTPConfig struct {
	Address    string `yaml:"address"`
	SwaggerDir string `yaml:"swagger_dir"`
}

type GRPCConfig struct {
	Address string `yaml:"address"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	Migrate  bool   `yaml:"migrate"`
}

func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
	if d.MaxConns > 0 {
		dsn += fmt.Sprintf(" pool_max_conns=%d", d.MaxConns)
	}
	return dsn
}

func (d DatabaseConfig) InMemory() bool {
	return d.Driver == DriverMemory
}

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingTopic       string   `yaml:"booking_topic"`
	FlightStatusTopic  string   `yaml:"flight_status_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type AuthConfig struct {
	JWTSecret       string `yaml:"jwt_secret"`
	TokenTTLMinutes int    `yaml:"token_ttl_minutes"`
	BcryptCost      int    `yaml:"bcrypt_cost"`
}

type BookingConfig struct {
	FlightsCacheTTL int `yaml:"flights_cache_ttl_seconds"`
	PaymentDelayMS  int `yaml:"payment_delay_ms"`
	SeatsPerRow     int `yaml:"seats_per_row"`
	AisleAfter      int `yaml:"aisle_after"`
	MaxPNRAttempts  int `yaml:"max_pnr_attempts"`
}

type SimulatorConfig struct {
	Enabled       bool  `yaml:"enabled"`
	PeriodSeconds int   `yaml:"period_seconds"`
	Seed          int64 `yaml:"seed"`
}

func (s SimulatorConfig) Period() time.Duration {
	return time.Duration(s.PeriodSeconds) * time.Second
}

type WorkerConfig struct {
	ConsumeNotifications bool `yaml:"consume_notifications"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type SeedConfig struct {
	Admin   SeedAdmin    `yaml:"admin"`
	Flights []SeedFlight `yaml:"flights"`
}

type SeedAdmin struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type SeedFlight struct {
	Route      string  `yaml:"route"`
	Region     string  `yaml:"region"`
	BaseFare   float64 `yaml:"base_fare"`
	TotalSeats int     `yaml:"total_seats"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// .env is optional; variables already set in the environment win.
	_ = godotenv.Load()
	cfg.applyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{Address: ":8080"},
		GRPC: GRPCConfig{Address: ":9090"},
		Database: DatabaseConfig{
			Driver:  DriverPostgres,
			Host:    "localhost",
			Port:    5432,
			SSLMode: "disable",
			Migrate: true,
		},
		Kafka: KafkaConfig{
			BookingTopic:       "bookings",
			FlightStatusTopic:  "flight-status",
			NotificationsTopic: "notifications",
			GroupID:            "airreservation-worker",
		},
		Auth: AuthConfig{TokenTTLMinutes: 60, BcryptCost: 10},
		Booking: BookingConfig{
			FlightsCacheTTL: 30,
			PaymentDelayMS:  2000,
			SeatsPerRow:     6,
			AisleAfter:      3,
			MaxPNRAttempts:  10,
		},
		Simulator: SimulatorConfig{PeriodSeconds: 15},
		Worker:    WorkerConfig{ConsumeNotifications: true},
		Log:       LogConfig{Level: "info", Format: "text"},
	}
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup("DATABASE_DRIVER"); ok && v != "" {
		c.Database.Driver = v
	}
	if v, ok := lookup("DATABASE_URL"); ok && v != "" {
		c.Database.URL = v
	}
	if v, ok := lookup("REDIS_ADDR"); ok && v != "" {
		c.Redis.Addr = v
	}
	if v, ok := lookup("REDIS_PASSWORD"); ok {
		c.Redis.Password = v
	}
	if v, ok := lookup("KAFKA_BROKERS"); ok && v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	if v, ok := lookup("JWT_SECRET"); ok && v != "" {
		c.Auth.JWTSecret = v
	}
	if v, ok := lookup("HTTP_ADDRESS"); ok && v != "" {
		c.HTTP.Address = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup("SIMULATOR_PERIOD_SECONDS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.Simulator.PeriodSeconds = n
		}
	}
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.Simulator.PeriodSeconds <= 0 {
		return fmt.Errorf("simulator.period_seconds must be positive")
	}
	return nil
}

// ValidateWorker checks the settings a standalone worker needs on top of Validate.
// The worker shares state with the API only through the database, so an
// in-process store is rejected.
func (c *Config) ValidateWorker() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Database.InMemory() {
		return fmt.Errorf("worker requires database.driver %q, got %q", DriverPostgres, c.Database.Driver)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
