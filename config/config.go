package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config contains vault configuration parameters.
type Config struct {
	LogLevel  int       `env:"LOG_LEVEL" envDefault:"0"`
	Files     Files     `envPrefix:"VAULT_"`
	Auth      Auth      `envPrefix:"AUTH_"`
	TOTP      TOTP      `envPrefix:"TOTP_"`
	Breach    Breach    `envPrefix:"BREACH_"`
	Clipboard Clipboard `envPrefix:"CLIPBOARD_"`
}

// Files contains on-disk locations. Names are relative to Dir.
type Files struct {
	Dir          string `env:"DIR" envDefault:"."`
	Master       string `env:"MASTER_FILE" envDefault:"master_password.dat"`
	LegacyMaster string `env:"LEGACY_MASTER_FILE" envDefault:"master_password.txt"`
	Salt         string `env:"SALT_FILE" envDefault:"encryption_salt.dat"`
	TOTPSecret   string `env:"TOTP_FILE" envDefault:"totp_secret.dat"`
	Credentials  string `env:"CREDENTIALS_FILE" envDefault:"credentials.dat"`
	Backup       string `env:"BACKUP_FILE" envDefault:"credentials_backup.dat"`
	AccessLog    string `env:"ACCESS_LOG" envDefault:"access.log"`
	TOTPQRCode   string `env:"TOTP_QR_FILE"`
}

// Auth contains login parameters.
type Auth struct {
	MaxAttempts int `env:"MAX_ATTEMPTS" envDefault:"3"`
	BcryptCost  int `env:"BCRYPT_COST" envDefault:"10"`
}

// TOTP contains the labels put into the otpauth URL.
type TOTP struct {
	Issuer  string `env:"ISSUER" envDefault:"SecurePasswordManager"`
	Account string `env:"ACCOUNT" envDefault:"user@example.com"`
}

// Breach contains breach range endpoint parameters.
type Breach struct {
	Endpoint string        `env:"ENDPOINT" envDefault:"https://api.pwnedpasswords.com/range"`
	Timeout  time.Duration `env:"TIMEOUT" envDefault:"5s"`
	Strict   bool          `env:"STRICT" envDefault:"false"`
}

// Clipboard contains clipboard parameters. A zero ClearAfter never clears.
type Clipboard struct {
	ClearAfter time.Duration `env:"CLEAR_AFTER" envDefault:"0s"`
}

// NewConfig loads configuration from environment variables.
func NewConfig() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Auth.MaxAttempts < 1 {
		return nil, fmt.Errorf("failed to parse config: AUTH_MAX_ATTEMPTS must be positive")
	}

	return &cfg, nil
}

// Path resolves a file name against Dir. Empty names stay empty.
func (f Files) Path(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(f.Dir, name)
}
