// Package config handles configuration loading for opensrsctl.
//
// Configuration is loaded from a YAML file with support for environment
// variable expansion (${VAR} or $VAR syntax), so the reseller key and mail
// password can be injected at runtime.
//
// # Configuration Sections
//
//   - registrar: XCP endpoint and reseller credentials
//   - mail: mail-admin endpoint and credentials
//   - transport: HTTP timeouts, retries and minimum TLS version
//   - log: level and output format
//
// # Example Configuration
//
//	registrar:
//	  apiUrl: https://horizon.opensrs.net:55443
//	  username: reseller
//	  apiKey: ${OPENSRS_KEY}
//
//	mail:
//	  apiUrl: https://admin.test.hostedemail.com/api
//	  credentials:
//	    user: admin@example.com
//	    password: ${OPENSRS_MAIL_PASSWORD}
//
//	transport:
//	  timeout: 30s
//	  maxRetries: 0
//
//	log:
//	  level: info
//	  format: text
//
// See [Load] for loading configuration from a file.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/sirosfoundation/go-opensrs/pkg/mail"
	"github.com/sirosfoundation/go-opensrs/pkg/opensrs"
	"github.com/sirosfoundation/go-opensrs/pkg/transport"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure
type Config struct {
	Registrar RegistrarConfig `yaml:"registrar"`
	Mail      MailConfig      `yaml:"mail"`
	Transport TransportConfig `yaml:"transport"`
	Log       LogConfig       `yaml:"log"`
}

// RegistrarConfig holds XCP API settings
type RegistrarConfig struct {
	APIURL   string `yaml:"apiUrl"`
	Username string `yaml:"username"`
	APIKey   string `yaml:"apiKey"`
}

// MailConfig holds mail-admin API settings. The section is optional; when
// apiUrl is empty no mail client can be built.
type MailConfig struct {
	APIURL      string           `yaml:"apiUrl"`
	Credentials mail.Credentials `yaml:"credentials"`
}

// TransportConfig holds HTTP client settings
type TransportConfig struct {
	// Kind selects the transport; only "https" is supported
	Kind            string        `yaml:"kind"`
	Timeout         time.Duration `yaml:"timeout"`
	IdleConnTimeout time.Duration `yaml:"idleConnTimeout"`
	MaxRetries      int           `yaml:"maxRetries"`
	RetryBackoff    time.Duration `yaml:"retryBackoff"`
	// MinTLS is "1.2" or "1.3"
	MinTLS string `yaml:"minTLS"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse reads configuration from YAML bytes
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Transport.Kind == "" {
		c.Transport.Kind = "https"
	}
	if c.Transport.Timeout == 0 {
		c.Transport.Timeout = 30 * time.Second
	}
	if c.Transport.IdleConnTimeout == 0 {
		c.Transport.IdleConnTimeout = 90 * time.Second
	}
	if c.Transport.RetryBackoff == 0 {
		c.Transport.RetryBackoff = 500 * time.Millisecond
	}
	if c.Transport.MinTLS == "" {
		c.Transport.MinTLS = "1.2"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

func (c *Config) validate() error {
	if c.Registrar.APIURL == "" {
		return fmt.Errorf("registrar.apiUrl is required")
	}
	if c.Registrar.Username == "" {
		return fmt.Errorf("registrar.username is required")
	}
	if c.Registrar.APIKey == "" {
		return fmt.Errorf("registrar.apiKey is required")
	}

	if c.Mail.APIURL != "" && (c.Mail.Credentials.User == "" || c.Mail.Credentials.Password == "") {
		return fmt.Errorf("mail.credentials.user and mail.credentials.password are required when mail.apiUrl is set")
	}

	if c.Transport.Kind != "https" {
		return fmt.Errorf("transport.kind must be 'https', got '%s'", c.Transport.Kind)
	}
	if c.Transport.MaxRetries < 0 {
		return fmt.Errorf("transport.maxRetries must not be negative")
	}
	switch c.Transport.MinTLS {
	case "1.2", "1.3":
	default:
		return fmt.Errorf("transport.minTLS must be '1.2' or '1.3', got '%s'", c.Transport.MinTLS)
	}

	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be 'text' or 'json', got '%s'", c.Log.Format)
	}

	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// NewLogger builds the logger described by the log section, writing to w.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.Log.Level)
	opts := &slog.HandlerOptions{Level: level}

	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// HTTPSConfig converts the transport section.
func (c *Config) HTTPSConfig(logger *slog.Logger) *transport.HTTPSConfig {
	cfg := transport.DefaultHTTPSConfig()
	cfg.Timeout = c.Transport.Timeout
	cfg.IdleConnTimeout = c.Transport.IdleConnTimeout
	cfg.MaxRetries = c.Transport.MaxRetries
	cfg.RetryBackoff = c.Transport.RetryBackoff
	if c.Transport.MinTLS == "1.3" {
		cfg.MinTLSVersion = transport.TLS13
	}
	cfg.Logger = logger
	return cfg
}

// RegistrarClientConfig converts the registrar section, sharing tr.
func (c *Config) RegistrarClientConfig(tr transport.Transport, logger *slog.Logger) *opensrs.Config {
	return &opensrs.Config{
		APIURL:    c.Registrar.APIURL,
		Username:  c.Registrar.Username,
		APIKey:    c.Registrar.APIKey,
		Transport: tr,
		Logger:    logger,
	}
}

// MailClientConfig converts the mail section, sharing tr.
func (c *Config) MailClientConfig(tr transport.Transport, logger *slog.Logger) *mail.Config {
	return &mail.Config{
		APIURL:      c.Mail.APIURL,
		Credentials: c.Mail.Credentials,
		Transport:   tr,
		Logger:      logger,
	}
}
