package config

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the main configuration struct, populated from a YAML file with
// environment and flag overrides applied on top (flags > env > file).
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Uploads   UploadsConfig   `yaml:"uploads"`
	Auth      AuthConfig      `yaml:"auth"`
	Security  SecurityConfig  `yaml:"security"`
	Logging   LoggingConfig   `yaml:"logging"`
	Retention RetentionConfig `yaml:"retention"`
	Hub       HubConfig       `yaml:"hub"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

// StorageConfig holds the pebble store location.
type StorageConfig struct {
	DBPath string `yaml:"db_path"`
}

// UploadsConfig holds attachment storage settings.
type UploadsConfig struct {
	Dir     string    `yaml:"dir"`
	MaxSize SizeBytes `yaml:"max_size"`
}

// AdminUser is a configured admin credential. PasswordHash is a bcrypt hash;
// plaintext passwords never appear in config.
type AdminUser struct {
	ID           string `yaml:"id"`
	Username     string `yaml:"username"`
	Name         string `yaml:"name"`
	PasswordHash string `yaml:"password_hash"`
}

// AuthConfig holds token signing settings and the admin roster.
type AuthConfig struct {
	JWTSecret string      `yaml:"jwt_secret"`
	TokenTTL  Duration    `yaml:"token_ttl"`
	Admins    []AdminUser `yaml:"admins"`
}

// SecurityConfig holds rate limiting settings for mutation routes.
type SecurityConfig struct {
	RateLimit struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"rate_limit"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// RetentionConfig drives the orphan-attachment sweeper.
type RetentionConfig struct {
	Enabled bool   `yaml:"enabled"`
	Cron    string `yaml:"cron"`
	// MinAge protects uploads newer than this from the sweep, covering the
	// window between file save and message commit.
	MinAge Duration `yaml:"min_age"`
}

// HubConfig tunes the broadcast hub.
type HubConfig struct {
	// SendBuffer is the per-session outbound buffer; a session whose buffer
	// is full misses events until it re-fetches history.
	SendBuffer int `yaml:"send_buffer"`
}

// Addr returns host:port for the HTTP server.
func (c *Config) Addr() string {
	addr := c.Server.Address
	port := c.Server.Port
	if port == 0 {
		port = 8080
	}
	return net.JoinHostPort(addr, strconv.Itoa(port))
}

// Default returns the built-in configuration baseline.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Port = 8080
	cfg.Storage.DBPath = "./.database"
	cfg.Uploads.Dir = "./uploads"
	cfg.Uploads.MaxSize = 10 << 20
	cfg.Auth.TokenTTL = Duration(0)
	cfg.Hub.SendBuffer = 256
	return cfg
}

// Load reads and parses the YAML config file at path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Flags holds parsed command-line flag values and which were set.
type Flags struct {
	Addr   string
	DB     string
	Config string
	Set    map[string]bool
}

// ParseFlags parses command-line flags and records which were provided.
func ParseFlags() Flags {
	addrPtr := flag.String("addr", ":8080", "HTTP listen address")
	dbPtr := flag.String("db", "./.database", "Pebble DB path")
	cfgPtr := flag.String("config", "./config.yaml", "Path to config file")
	flag.Parse()
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return Flags{Addr: *addrPtr, DB: *dbPtr, Config: *cfgPtr, Set: set}
}

// Effective is the merged runtime configuration handed to the app.
type Effective struct {
	Config *Config
	Addr   string
	DBPath string
	Source string // comma-joined list of "flags", "env", "config"
}

// LoadEffective merges config file, environment and flags into the final
// runtime configuration. A missing config file is not an error; defaults
// apply.
func LoadEffective(flags Flags) (Effective, error) {
	var srcs []string

	cfgPath := flags.Config
	if !flags.Set["config"] {
		if v := os.Getenv("NOTICEBOARD_CONFIG"); v != "" {
			cfgPath = v
		}
	}
	cfg, err := Load(cfgPath)
	switch {
	case err == nil:
		srcs = append(srcs, "config")
	case os.IsNotExist(err):
		cfg = Default()
	default:
		return Effective{}, err
	}

	if applyEnv(cfg) {
		srcs = append(srcs, "env")
	}

	addr := cfg.Addr()
	dbPath := cfg.Storage.DBPath
	if len(flags.Set) > 0 {
		srcs = append(srcs, "flags")
	}
	if flags.Set["addr"] {
		addr = flags.Addr
	}
	if flags.Set["db"] {
		dbPath = flags.DB
	}

	src := strings.Join(srcs, ", ")
	if src == "" {
		src = "defaults"
	}
	return Effective{Config: cfg, Addr: addr, DBPath: dbPath, Source: src}, nil
}

// applyEnv layers NOTICEBOARD_* environment variables onto cfg and reports
// whether any were present.
func applyEnv(cfg *Config) bool {
	used := false

	if v := os.Getenv("NOTICEBOARD_ADDR"); v != "" {
		used = true
		if h, p, err := net.SplitHostPort(v); err == nil {
			cfg.Server.Address = h
			if pi, err := strconv.Atoi(p); err == nil {
				cfg.Server.Port = pi
			}
		} else {
			cfg.Server.Address = v
		}
	}
	if v := os.Getenv("NOTICEBOARD_DB_PATH"); v != "" {
		used = true
		cfg.Storage.DBPath = v
	}
	if v := os.Getenv("NOTICEBOARD_UPLOADS_DIR"); v != "" {
		used = true
		cfg.Uploads.Dir = v
	}
	if v := os.Getenv("NOTICEBOARD_JWT_SECRET"); v != "" {
		used = true
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("NOTICEBOARD_LOG_LEVEL"); v != "" {
		used = true
		cfg.Logging.Level = v
	}
	if v := os.Getenv("NOTICEBOARD_RATE_RPS"); v != "" {
		used = true
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Security.RateLimit.RPS = f
		}
	}
	if v := os.Getenv("NOTICEBOARD_RATE_BURST"); v != "" {
		used = true
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Security.RateLimit.Burst = i
		}
	}
	return used
}
