package vault

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ReadLine reads a file that must hold exactly one non-empty line.
// Surrounding whitespace, including the trailing newline, is ignored.
func ReadLine(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	s := strings.TrimSpace(string(data))
	if s == "" || strings.ContainsAny(s, "\r\n") {
		return "", fmt.Errorf("%s: %w", filepath.Base(path), ErrCorrupt)
	}
	return s, nil
}

// WriteLine atomically replaces path with a single line.
func WriteLine(path, line string) error {
	return atomicWriteFile(path, []byte(line+"\n"), 0600)
}

// LoadOrCreateSalt returns the base64 salt stored at path, creating it with
// SaltLen random bytes when absent. An existing salt is never rewritten.
func LoadOrCreateSalt(path string) (string, error) {
	salt, err := ReadLine(path)
	switch {
	case err == nil:
		raw, decErr := base64.StdEncoding.DecodeString(salt)
		if decErr != nil || len(raw) != SaltLen {
			return "", fmt.Errorf("%s: %w", filepath.Base(path), ErrCorrupt)
		}
		return salt, nil
	case !errors.Is(err, os.ErrNotExist):
		return "", fmt.Errorf("failed to read salt: %w", err)
	}

	raw, err := RandomBytes(SaltLen)
	if err != nil {
		return "", err
	}
	salt = base64.StdEncoding.EncodeToString(raw)
	if err := WriteLine(path, salt); err != nil {
		return "", fmt.Errorf("failed to write salt: %w", err)
	}
	return salt, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	data, err := io.ReadAll(in)
	if err != nil {
		return err
	}
	return atomicWriteFile(dst, data, 0600)
}

func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, ".vault-*")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	defer func() {
		tmpFile.Close()
		os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return err
	}
	if err := tmpFile.Sync(); err != nil {
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}

	_ = syncDir(dir)
	return nil
}

func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
