package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete configuration for the matrix engine.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Broker  BrokerConfig  `yaml:"broker"`
	Worker  WorkerConfig  `yaml:"worker"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig holds the broker's HTTP server configuration.
type ServerConfig struct {
	Address        string        `yaml:"address" env:"ME_SERVER_ADDRESS"`
	ReadTimeout    time.Duration `yaml:"read_timeout" env:"ME_SERVER_READ_TIMEOUT"`
	WriteTimeout   time.Duration `yaml:"write_timeout" env:"ME_SERVER_WRITE_TIMEOUT"`
	EnableCORS     bool          `yaml:"enable_cors" env:"ME_SERVER_ENABLE_CORS"`
	MaxConnections int           `yaml:"max_connections" env:"ME_SERVER_MAX_CONNECTIONS"`
}

// BrokerConfig holds work distribution configuration.
type BrokerConfig struct {
	// Workers are the base URLs of the worker nodes, in round-robin order.
	Workers []string `yaml:"workers" env:"ME_BROKER_WORKERS"`
	// RequestTimeout bounds a single dot product call.
	RequestTimeout time.Duration `yaml:"request_timeout" env:"ME_BROKER_REQUEST_TIMEOUT"`
	// MaxInFlight bounds concurrent calls per product. 0 means one per cell.
	MaxInFlight int `yaml:"max_in_flight" env:"ME_BROKER_MAX_IN_FLIGHT"`
	// MaxConnsPerWorker caps pooled connections to each worker.
	MaxConnsPerWorker int `yaml:"max_conns_per_worker" env:"ME_BROKER_MAX_CONNS_PER_WORKER"`
	// DispatchRate limits dispatches per second across the broker. 0 disables it.
	DispatchRate  float64 `yaml:"dispatch_rate" env:"ME_BROKER_DISPATCH_RATE"`
	DispatchBurst int     `yaml:"dispatch_burst" env:"ME_BROKER_DISPATCH_BURST"`
}

// WorkerConfig holds worker node configuration.
type WorkerConfig struct {
	Host           string        `yaml:"host" env:"ME_WORKER_HOST"`
	Port           int           `yaml:"port" env:"WORKER_PORT"`
	ReadTimeout    time.Duration `yaml:"read_timeout" env:"ME_WORKER_READ_TIMEOUT"`
	WriteTimeout   time.Duration `yaml:"write_timeout" env:"ME_WORKER_WRITE_TIMEOUT"`
	EnableCORS     bool          `yaml:"enable_cors" env:"ME_WORKER_ENABLE_CORS"`
	MaxConnections int           `yaml:"max_connections" env:"ME_WORKER_MAX_CONNECTIONS"`
}

// Address returns the worker's listen address.
func (w WorkerConfig) Address() string {
	return fmt.Sprintf("%s:%d", w.Host, w.Port)
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `yaml:"level" env:"ME_LOG_LEVEL"`
	Format     string `yaml:"format" env:"ME_LOG_FORMAT"`
	Output     string `yaml:"output" env:"ME_LOG_OUTPUT"`
	FilePath   string `yaml:"file_path" env:"ME_LOG_FILE_PATH"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
}

// MetricsConfig holds Prometheus exposition configuration.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" env:"ME_METRICS_ENABLED"`
	Path      string `yaml:"path" env:"ME_METRICS_PATH"`
	Namespace string `yaml:"namespace" env:"ME_METRICS_NAMESPACE"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address:      ":8000",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			EnableCORS:   true,
		},
		Broker: BrokerConfig{
			Workers: []string{
				"http://worker1:9001",
				"http://worker2:9002",
			},
			RequestTimeout:    10 * time.Second,
			MaxInFlight:       64,
			MaxConnsPerWorker: 64,
			DispatchBurst:     1,
		},
		Worker: WorkerConfig{
			Host:         "0.0.0.0",
			Port:         9001,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			EnableCORS:   true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			Output:     "stdout",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Path:      "/metrics",
			Namespace: "matrix_engine",
		},
	}
}

// Loader handles configuration loading from multiple sources.
type Loader struct {
	configPath string
	cmdArgs    map[string]string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		cmdArgs: make(map[string]string),
	}
}

// WithConfigPath sets the path to the YAML configuration file.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithCmdArgs sets dot-path overrides, e.g. "broker.request_timeout": "5s".
func (l *Loader) WithCmdArgs(args map[string]string) *Loader {
	l.cmdArgs = args
	return l
}

// Load loads configuration from all sources with proper precedence:
// defaults < YAML file < environment variables < command-line flags
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		fileCfg, err := l.loadFromFile()
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
		if fileCfg != nil {
			cfg = fileCfg
		}
	}

	if err := applyEnvToStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	for key, value := range l.cmdArgs {
		if err := setConfigValue(cfg, key, value); err != nil {
			return nil, fmt.Errorf("failed to set config value %s: %w", key, err)
		}
	}

	return cfg, nil
}

// loadFromFile loads configuration from a YAML file. A missing file yields
// a nil config and no error.
func (l *Loader) loadFromFile() (*Config, error) {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseConfig(data)
}

// applyEnvToStruct recursively applies environment variables to struct fields.
func applyEnvToStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if field.Kind() == reflect.Struct {
			if err := applyEnvToStruct(field); err != nil {
				return err
			}
			continue
		}

		envTag := fieldType.Tag.Get("env")
		if envTag == "" {
			continue
		}

		envValue := os.Getenv(envTag)
		if envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("env %s for field %s: %w", envTag, fieldType.Name, err)
		}
	}

	return nil
}

// setConfigValue sets a configuration value by its dot-separated yaml path.
func setConfigValue(cfg *Config, path, value string) error {
	parts := strings.Split(path, ".")
	v := reflect.ValueOf(cfg).Elem()

	for i, part := range parts {
		field, ok := fieldByYAMLName(v, part)
		if !ok {
			return fmt.Errorf("unknown config path: %s", path)
		}

		if i == len(parts)-1 {
			return setFieldValue(field, value)
		}

		if field.Kind() != reflect.Struct {
			return fmt.Errorf("expected %s to be a struct, got %s", part, field.Kind())
		}
		v = field
	}

	return nil
}

// fieldByYAMLName finds the struct field whose yaml tag (or name) matches name.
func fieldByYAMLName(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := strings.Split(f.Tag.Get("yaml"), ",")[0]
		if tag == name || strings.EqualFold(f.Name, name) {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// setFieldValue sets a reflect.Value from a string value.
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return fmt.Errorf("field cannot be set")
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid float: %w", err)
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid bool: %w", err)
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		field.Set(reflect.ValueOf(out))

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Serialize serializes the configuration to YAML bytes.
func (c *Config) Serialize() ([]byte, error) {
	return yaml.Marshal(c)
}

// ParseConfig parses a YAML configuration on top of the defaults.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file path.
func LoadFromFile(path string) (*Config, error) {
	return NewLoader().WithConfigPath(path).Load()
}
