package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_DefaultValues(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.LogLevel)
	assert.Equal(t, ".", cfg.Files.Dir)
	assert.Equal(t, "master_password.dat", cfg.Files.Master)
	assert.Equal(t, "master_password.txt", cfg.Files.LegacyMaster)
	assert.Equal(t, "encryption_salt.dat", cfg.Files.Salt)
	assert.Equal(t, "totp_secret.dat", cfg.Files.TOTPSecret)
	assert.Equal(t, "credentials.dat", cfg.Files.Credentials)
	assert.Equal(t, "credentials_backup.dat", cfg.Files.Backup)
	assert.Equal(t, "access.log", cfg.Files.AccessLog)
	assert.Equal(t, "", cfg.Files.TOTPQRCode)
	assert.Equal(t, 3, cfg.Auth.MaxAttempts)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.Equal(t, "SecurePasswordManager", cfg.TOTP.Issuer)
	assert.Equal(t, "user@example.com", cfg.TOTP.Account)
	assert.Equal(t, "https://api.pwnedpasswords.com/range", cfg.Breach.Endpoint)
	assert.Equal(t, 5*time.Second, cfg.Breach.Timeout)
	assert.False(t, cfg.Breach.Strict)
	assert.Equal(t, time.Duration(0), cfg.Clipboard.ClearAfter)
}

func TestNewConfig_EnvironmentOverrides(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		expected func(*Config)
	}{
		{
			name:    "log level override",
			envVars: map[string]string{"LOG_LEVEL": "-4"},
			expected: func(cfg *Config) {
				assert.Equal(t, -4, cfg.LogLevel)
			},
		},
		{
			name: "files override",
			envVars: map[string]string{
				"VAULT_DIR":              "/tmp/vault",
				"VAULT_CREDENTIALS_FILE": "creds.dat",
				"VAULT_TOTP_QR_FILE":     "qr.png",
			},
			expected: func(cfg *Config) {
				assert.Equal(t, "/tmp/vault", cfg.Files.Dir)
				assert.Equal(t, "creds.dat", cfg.Files.Credentials)
				assert.Equal(t, "qr.png", cfg.Files.TOTPQRCode)
			},
		},
		{
			name: "auth override",
			envVars: map[string]string{
				"AUTH_MAX_ATTEMPTS": "5",
				"AUTH_BCRYPT_COST":  "12",
			},
			expected: func(cfg *Config) {
				assert.Equal(t, 5, cfg.Auth.MaxAttempts)
				assert.Equal(t, 12, cfg.Auth.BcryptCost)
			},
		},
		{
			name: "breach override",
			envVars: map[string]string{
				"BREACH_ENDPOINT": "http://localhost:8080/range",
				"BREACH_TIMEOUT":  "250ms",
				"BREACH_STRICT":   "true",
			},
			expected: func(cfg *Config) {
				assert.Equal(t, "http://localhost:8080/range", cfg.Breach.Endpoint)
				assert.Equal(t, 250*time.Millisecond, cfg.Breach.Timeout)
				assert.True(t, cfg.Breach.Strict)
			},
		},
		{
			name:    "clipboard override",
			envVars: map[string]string{"CLIPBOARD_CLEAR_AFTER": "30s"},
			expected: func(cfg *Config) {
				assert.Equal(t, 30*time.Second, cfg.Clipboard.ClearAfter)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			cfg, err := NewConfig()
			require.NoError(t, err)

			tt.expected(cfg)
		})
	}
}

func TestNewConfig_InvalidAttempts(t *testing.T) {
	t.Setenv("AUTH_MAX_ATTEMPTS", "0")

	_, err := NewConfig()
	assert.Error(t, err)
}

func TestFiles_Path(t *testing.T) {
	f := Files{Dir: "data"}

	assert.Equal(t, filepath.Join("data", "credentials.dat"), f.Path("credentials.dat"))
	assert.Equal(t, "", f.Path(""))

	abs := filepath.Join(os.TempDir(), "x.dat")
	assert.Equal(t, abs, f.Path(abs))
}
