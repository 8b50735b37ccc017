package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"

	"github.com/fahmaliyi/totpvault/logger"
	"github.com/fahmaliyi/totpvault/vault"
)

// MinCost is the lowest bcrypt cost the store will write.
const MinCost = 10

var ErrNoMasterPassword = errors.New("auth: no master password enrolled")

// MasterStore keeps the bcrypt hash of the master password. It reads the
// canonical file or, when that is absent, the legacy one. Only the
// canonical file is ever written.
type MasterStore struct {
	path       string
	legacyPath string
	cost       int
	logger     *logger.Logger
}

func NewMasterStore(path, legacyPath string, cost int, l *logger.Logger) *MasterStore {
	if cost < MinCost {
		cost = MinCost
	}
	return &MasterStore{path: path, legacyPath: legacyPath, cost: cost, logger: l}
}

// Exists reports whether a master password has been enrolled.
func (m *MasterStore) Exists() (bool, error) {
	for _, p := range []string{m.path, m.legacyPath} {
		if p == "" {
			continue
		}
		_, err := os.Stat(p)
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return false, fmt.Errorf("failed to stat master password file: %w", err)
		}
	}
	return false, nil
}

// Enroll hashes password and writes it to the canonical file, removing any
// legacy file.
func (m *MasterStore) Enroll(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), m.cost)
	if err != nil {
		return fmt.Errorf("failed to hash master password: %w", err)
	}
	if err := vault.WriteLine(m.path, string(hash)); err != nil {
		return fmt.Errorf("failed to write master password: %w", err)
	}

	if m.legacyPath != "" {
		if err := os.Remove(m.legacyPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			m.logger.Warn("Master store: failed to remove legacy master password file", "error", err.Error())
		}
	}
	return nil
}

type masterRecord struct {
	hash      []byte
	plaintext []byte
}

func (m *MasterStore) read() (masterRecord, error) {
	line, err := vault.ReadLine(m.path)
	if err == nil {
		if _, costErr := bcrypt.Cost([]byte(line)); costErr != nil {
			return masterRecord{}, fmt.Errorf("master password file: %w", vault.ErrCorrupt)
		}
		return masterRecord{hash: []byte(line)}, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return masterRecord{}, fmt.Errorf("failed to read master password: %w", err)
	}
	if m.legacyPath == "" {
		return masterRecord{}, ErrNoMasterPassword
	}

	line, err = vault.ReadLine(m.legacyPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return masterRecord{}, ErrNoMasterPassword
		}
		return masterRecord{}, fmt.Errorf("failed to read legacy master password: %w", err)
	}
	if _, costErr := bcrypt.Cost([]byte(line)); costErr == nil {
		return masterRecord{hash: []byte(line)}, nil
	}
	return masterRecord{plaintext: []byte(line)}, nil
}

// Verify checks candidate against the enrolled master password. A legacy
// plaintext file that verifies is migrated to a bcrypt hash.
func (m *MasterStore) Verify(candidate string) (bool, error) {
	rec, err := m.read()
	if err != nil {
		return false, err
	}

	if rec.hash != nil {
		// any compare error, including an oversized candidate, is a mismatch
		return bcrypt.CompareHashAndPassword(rec.hash, []byte(candidate)) == nil, nil
	}

	want := sha256.Sum256(rec.plaintext)
	got := sha256.Sum256([]byte(candidate))
	vault.Zero(rec.plaintext)
	if subtle.ConstantTimeCompare(want[:], got[:]) != 1 {
		return false, nil
	}

	if err := m.Enroll(candidate); err != nil {
		m.logger.Error("Master store: failed to migrate legacy master password", "error", err.Error())
	} else {
		m.logger.Info("Master store: migrated legacy master password to bcrypt")
	}
	return true, nil
}
