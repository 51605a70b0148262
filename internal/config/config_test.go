package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirosfoundation/go-opensrs/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimal = `
registrar:
  apiUrl: https://horizon.opensrs.net:55443
  username: reseller
  apiKey: abc123
`

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(minimal))
	require.NoError(t, err)

	assert.Equal(t, "https", cfg.Transport.Kind)
	assert.Equal(t, 30*time.Second, cfg.Transport.Timeout)
	assert.Equal(t, 90*time.Second, cfg.Transport.IdleConnTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Transport.RetryBackoff)
	assert.Equal(t, 0, cfg.Transport.MaxRetries)
	assert.Equal(t, "1.2", cfg.Transport.MinTLS)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestParse_Full(t *testing.T) {
	cfg, err := Parse([]byte(minimal + `
mail:
  apiUrl: https://admin.test.hostedemail.com/api
  credentials:
    user: admin@example.com
    password: pw
transport:
  timeout: 5s
  maxRetries: 2
  retryBackoff: 100ms
  minTLS: "1.3"
log:
  level: debug
  format: json
`))
	require.NoError(t, err)

	assert.Equal(t, "admin@example.com", cfg.Mail.Credentials.User)
	assert.Equal(t, 5*time.Second, cfg.Transport.Timeout)
	assert.Equal(t, 2, cfg.Transport.MaxRetries)

	https := cfg.HTTPSConfig(nil)
	assert.Equal(t, uint16(transport.TLS13), https.MinTLSVersion)
	assert.Equal(t, 100*time.Millisecond, https.RetryBackoff)
	assert.Equal(t, 2, https.MaxRetries)
}

func TestParse_ExpandsEnvironment(t *testing.T) {
	t.Setenv("OPENSRS_TEST_KEY", "from-env")

	cfg, err := Parse([]byte(strings.Replace(minimal, "abc123", "${OPENSRS_TEST_KEY}", 1)))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Registrar.APIKey)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"missing url", "registrar:\n  username: u\n  apiKey: k\n", "registrar.apiUrl"},
		{"missing username", "registrar:\n  apiUrl: https://x\n  apiKey: k\n", "registrar.username"},
		{"missing key", "registrar:\n  apiUrl: https://x\n  username: u\n", "registrar.apiKey"},
		{"mail without credentials", minimal + "mail:\n  apiUrl: https://m\n", "mail.credentials"},
		{"bad transport kind", minimal + "transport:\n  kind: smtp\n", "transport.kind"},
		{"negative retries", minimal + "transport:\n  maxRetries: -1\n", "transport.maxRetries"},
		{"bad tls", minimal + "transport:\n  minTLS: \"1.0\"\n", "transport.minTLS"},
		{"bad level", minimal + "log:\n  level: loud\n", "log.level"},
		{"bad format", minimal + "log:\n  format: xml\n", "log.format"},
		{"not yaml", "registrar: [", "parsing config file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "opensrs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimal), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "reseller", cfg.Registrar.Username)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestClientConfigs(t *testing.T) {
	cfg, err := Parse([]byte(minimal + `
mail:
  apiUrl: https://m
  credentials:
    user: u
    password: p
`))
	require.NoError(t, err)

	reg := cfg.RegistrarClientConfig(nil, nil)
	assert.Equal(t, "https://horizon.opensrs.net:55443", reg.APIURL)
	assert.Equal(t, "reseller", reg.Username)
	assert.Equal(t, "abc123", reg.APIKey)

	m := cfg.MailClientConfig(nil, nil)
	assert.Equal(t, "https://m", m.APIURL)
	assert.Equal(t, "p", m.Credentials.Password)
}

func TestNewLogger(t *testing.T) {
	cfg, err := Parse([]byte(minimal + "log:\n  level: warn\n  format: json\n"))
	require.NoError(t, err)

	var buf bytes.Buffer
	logger := cfg.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "key", "value")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"key":"value"`)
}
