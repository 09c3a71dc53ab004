package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/duke-git/lancet/v2/validator"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("configuration validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Has reports whether a field has at least one error.
func (e ValidationErrors) Has(field string) bool {
	for _, err := range e {
		if err.Field == field {
			return true
		}
	}
	return false
}

// Validator validates configuration values.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

func (v *Validator) addError(field, message string) {
	v.errors = append(v.errors, ValidationError{Field: field, Message: message})
}

// Validate validates the entire configuration and returns any errors.
func (v *Validator) Validate(cfg *Config) error {
	v.errors = make(ValidationErrors, 0)

	v.validateServerConfig(&cfg.Server)
	v.validateBrokerConfig(&cfg.Broker)
	v.validateWorkerConfig(&cfg.Worker)
	v.validateLoggingConfig(&cfg.Logging)
	v.validateMetricsConfig(&cfg.Metrics)

	if v.errors.HasErrors() {
		return v.errors
	}
	return nil
}

func (v *Validator) validateServerConfig(cfg *ServerConfig) {
	if cfg.Address == "" {
		v.addError("server.address", "address is required")
	} else if !isValidAddress(cfg.Address) {
		v.addError("server.address", "invalid address format, expected host:port or :port")
	}

	v.validateTimeouts("server", cfg.ReadTimeout, cfg.WriteTimeout)

	if cfg.MaxConnections < 0 {
		v.addError("server.max_connections", "max connections must be non-negative")
	}
}

func (v *Validator) validateBrokerConfig(cfg *BrokerConfig) {
	if len(cfg.Workers) == 0 {
		v.addError("broker.workers", "at least one worker endpoint is required")
	}
	for i, w := range cfg.Workers {
		if !validator.IsUrl(w) || !(strings.HasPrefix(w, "http://") || strings.HasPrefix(w, "https://")) {
			v.addError(fmt.Sprintf("broker.workers[%d]", i), fmt.Sprintf("invalid worker url '%s', expected http(s)://host:port", w))
		}
	}

	if cfg.RequestTimeout <= 0 {
		v.addError("broker.request_timeout", "request timeout must be positive")
	}
	if cfg.MaxInFlight < 0 {
		v.addError("broker.max_in_flight", "max in flight must be non-negative")
	}
	if cfg.MaxConnsPerWorker < 1 {
		v.addError("broker.max_conns_per_worker", "max connections per worker must be at least 1")
	}
	if cfg.DispatchRate < 0 {
		v.addError("broker.dispatch_rate", "dispatch rate must be non-negative")
	}
	if cfg.DispatchRate > 0 && cfg.DispatchBurst < 1 {
		v.addError("broker.dispatch_burst", "dispatch burst must be at least 1 when a dispatch rate is set")
	}
}

func (v *Validator) validateWorkerConfig(cfg *WorkerConfig) {
	if cfg.Port < 1 || cfg.Port > 65535 {
		v.addError("worker.port", fmt.Sprintf("invalid port %d, must be between 1 and 65535", cfg.Port))
	}
	if cfg.Host != "" && net.ParseIP(cfg.Host) == nil && !isValidHostname(cfg.Host) {
		v.addError("worker.host", fmt.Sprintf("invalid host '%s'", cfg.Host))
	}

	v.validateTimeouts("worker", cfg.ReadTimeout, cfg.WriteTimeout)

	if cfg.MaxConnections < 0 {
		v.addError("worker.max_connections", "max connections must be non-negative")
	}
}

func (v *Validator) validateTimeouts(section string, read, write time.Duration) {
	if read < 0 {
		v.addError(section+".read_timeout", "read timeout must be non-negative")
	}
	if write < 0 {
		v.addError(section+".write_timeout", "write timeout must be non-negative")
	}
	if read > 0 && read < time.Second {
		v.addError(section+".read_timeout", "read timeout should be at least 1 second")
	}
	if write > 0 && write < time.Second {
		v.addError(section+".write_timeout", "write timeout should be at least 1 second")
	}
}

func (v *Validator) validateLoggingConfig(cfg *LoggingConfig) {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}
	if cfg.Level == "" {
		v.addError("logging.level", "log level is required")
	} else if !validLevels[strings.ToLower(cfg.Level)] {
		v.addError("logging.level", fmt.Sprintf("invalid log level '%s', must be one of: debug, info, warn, error, fatal", cfg.Level))
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}
	if cfg.Format == "" {
		v.addError("logging.format", "log format is required")
	} else if !validFormats[strings.ToLower(cfg.Format)] {
		v.addError("logging.format", fmt.Sprintf("invalid log format '%s', must be one of: json, console", cfg.Format))
	}

	validOutputs := map[string]bool{
		"stdout": true,
		"file":   true,
		"both":   true,
	}
	if cfg.Output != "" && !validOutputs[strings.ToLower(cfg.Output)] {
		v.addError("logging.output", fmt.Sprintf("invalid log output '%s', must be one of: stdout, file, both", cfg.Output))
	}
	if (cfg.Output == "file" || cfg.Output == "both") && cfg.FilePath == "" {
		v.addError("logging.file_path", "file path is required for file output")
	}
}

func (v *Validator) validateMetricsConfig(cfg *MetricsConfig) {
	if !cfg.Enabled {
		return
	}
	if !strings.HasPrefix(cfg.Path, "/") {
		v.addError("metrics.path", "metrics path must start with '/'")
	}
	if cfg.Namespace == "" {
		v.addError("metrics.namespace", "metrics namespace is required")
	}
}

// isValidAddress checks if the address is a valid host:port format.
func isValidAddress(addr string) bool {
	if addr == "" {
		return false
	}

	if strings.HasPrefix(addr, ":") {
		port := strings.TrimPrefix(addr, ":")
		if port == "" {
			return false
		}
		_, err := net.LookupPort("tcp", port)
		return err == nil
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil || port == "" {
		return false
	}
	if _, err := net.LookupPort("tcp", port); err != nil {
		return false
	}

	// Host can be empty (all interfaces), an IP, or a hostname
	if host != "" && net.ParseIP(host) == nil && !isValidHostname(host) {
		return false
	}

	return true
}

// isValidHostname performs basic hostname validation.
func isValidHostname(hostname string) bool {
	if len(hostname) == 0 || len(hostname) > 253 {
		return false
	}

	for _, label := range strings.Split(hostname, ".") {
		if len(label) == 0 || len(label) > 63 {
			return false
		}
		if !isAlphanumeric(label[0]) || !isAlphanumeric(label[len(label)-1]) {
			return false
		}
		for _, c := range label {
			if !isAlphanumeric(byte(c)) && c != '-' {
				return false
			}
		}
	}

	return true
}

func isAlphanumeric(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	return NewValidator().Validate(c)
}

// LoadAndValidate loads configuration from a file and validates it.
func LoadAndValidate(path string) (*Config, error) {
	cfg, err := LoadFromFile(path)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
