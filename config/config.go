package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. COLLAB_AUTH_JWT_SECRET.
const EnvPrefix = "COLLAB"

var (
	config *Config
	mu     sync.RWMutex
)

// Config represents the configuration implementation.
type Config struct {
	AppName   string
	RunMode   string
	Server    *Server
	Logger    *Logger
	Data      *Data
	Auth      *Auth
	Identity  *Identity
	Storage   *Storage
	Messaging *Messaging
	Search    *Search
	Realtime  *Realtime
	Worker    *Worker
	Observes  *Observes
	Viper     *viper.Viper
}

// IsDebug reports whether detailed errors may be returned to clients.
func (c *Config) IsDebug() bool {
	return c != nil && strings.EqualFold(c.RunMode, "debug")
}

// Server http server config struct
type Server struct {
	Protocol string
	Domain   string
	Host     string
	Port     int
}

// Addr returns host:port.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoadConfig reads the configuration file. An empty path searches the
// working directory, the executable directory and /etc/collab.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if ex, err := os.Executable(); err == nil {
			v.AddConfigPath(filepath.Dir(ex))
		}
		v.AddConfigPath("/etc/collab")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := FromViper(v)
	mu.Lock()
	config = cfg
	mu.Unlock()
	return cfg, nil
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		AppName:   getStringOrDefault(v, "app_name", "collab"),
		RunMode:   getStringOrDefault(v, "run_mode", "release"),
		Server:    getServerConfig(v),
		Logger:    getLoggerConfig(v),
		Data:      getDataConfig(v),
		Auth:      getAuth(v),
		Identity:  getIdentityConfig(v),
		Storage:   getStorageConfig(v),
		Messaging: getMessagingConfig(v),
		Search:    getSearchConfig(v),
		Realtime:  getRealtimeConfig(v),
		Worker:    getWorkerConfig(v),
		Observes:  getObservesConfig(v),
		Viper:     v,
	}
}

// GetConfig returns the last loaded configuration.
func GetConfig() (*Config, error) {
	mu.RLock()
	defer mu.RUnlock()
	if config == nil {
		return nil, fmt.Errorf("config not loaded")
	}
	return config, nil
}

// Watch reloads the configuration when the file changes and hands the
// result to callback.
func (c *Config) Watch(callback func(*Config)) {
	v := c.Viper
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg := FromViper(v)
		mu.Lock()
		config = cfg
		mu.Unlock()
		callback(cfg)
	})
	v.WatchConfig()
}

func getServerConfig(v *viper.Viper) *Server {
	return &Server{
		Protocol: getStringOrDefault(v, "server.protocol", "http"),
		Domain:   getStringOrDefault(v, "server.domain", "localhost"),
		Host:     getStringOrDefault(v, "server.host", "0.0.0.0"),
		Port:     getIntOrDefault(v, "server.port", 8080),
	}
}
