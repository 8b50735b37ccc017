package vault

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fahmaliyi/totpvault/logger"
)

const fieldSep = ","

// Store persists credentials as one encrypted line per record.
type Store struct {
	Filename   string
	BackupName string
	cipher     *Cipher
	logger     *logger.Logger
}

func NewStore(filename, backupName string, c *Cipher, l *logger.Logger) *Store {
	return &Store{Filename: filename, BackupName: backupName, cipher: c, logger: l}
}

// Save encrypts every record and replaces the vault file. Records with an
// empty field are skipped. Any previous vault file is first copied to the
// backup name.
func (s *Store) Save(records []Credential) error {
	if !s.cipher.Session().Ready() {
		return ErrSessionNotReady
	}

	lines := make([]string, 0, len(records))
	for i, r := range records {
		if !r.valid() {
			s.logger.Warn("Store: skipping credential with empty field", "index", i+1)
			continue
		}

		enc, err := s.cipher.Encrypt(strings.Join([]string{r.Service, r.Username, r.EncryptedPassword}, fieldSep))
		if err != nil {
			return fmt.Errorf("failed to encrypt credential %d: %w", i+1, err)
		}
		lines = append(lines, enc)
	}

	if _, err := os.Stat(s.Filename); err == nil {
		if err := copyFile(s.Filename, s.BackupName); err != nil {
			return fmt.Errorf("failed to back up vault: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to stat vault: %w", err)
	}

	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}

	if err := atomicWriteFile(s.Filename, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("failed to write vault: %w", err)
	}

	s.logger.Debug("Store: vault saved", "records", len(lines))
	return nil
}

// Load decrypts the vault file. A missing file is an empty vault. Lines that
// fail to decrypt or parse are logged and skipped.
func (s *Store) Load() ([]Credential, error) {
	if !s.cipher.Session().Ready() {
		return nil, ErrSessionNotReady
	}

	f, err := os.Open(s.Filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Credential{}, nil
		}
		return nil, fmt.Errorf("failed to open vault: %w", err)
	}
	defer f.Close()

	records := []Credential{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		r, err := s.parseLine(line)
		if err != nil {
			s.logger.Error("Store: skipping vault line",
				"line", lineNo,
				"error", err.Error())
			continue
		}
		records = append(records, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read vault: %w", err)
	}

	return records, nil
}

func (s *Store) parseLine(line string) (Credential, error) {
	pt, err := s.cipher.Decrypt(line)
	if err != nil {
		return Credential{}, err
	}

	parts := strings.SplitN(pt, fieldSep, 3)
	if len(parts) != 3 {
		return Credential{}, fmt.Errorf("expected 3 fields, got %d: %w", len(parts), ErrCorrupt)
	}

	r := Credential{Service: parts[0], Username: parts[1], EncryptedPassword: parts[2]}
	if !r.valid() {
		return Credential{}, ErrEmptyField
	}
	return r, nil
}
