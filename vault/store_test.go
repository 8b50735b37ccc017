package vault

import (
	"bytes"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fahmaliyi/totpvault/logger"
)

func newTestStore(t *testing.T, c *Cipher) *Store {
	t.Helper()
	dir := t.TempDir()
	return NewStore(filepath.Join(dir, "credentials.dat"), filepath.Join(dir, "credentials_backup.dat"), c, logger.NewNop())
}

func mustEncrypt(t *testing.T, c *Cipher, s string) string {
	t.Helper()
	enc, err := c.Encrypt(s)
	require.NoError(t, err)
	return enc
}

func TestStore_LoadMissingFile(t *testing.T) {
	s := newTestStore(t, NewCipher(newTestSession(t, "hunter42")))

	records, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestStore_SaveLoad(t *testing.T) {
	c := NewCipher(newTestSession(t, "hunter42"))
	s := newTestStore(t, c)

	in := []Credential{
		{Service: "Gmail", Username: "user@example.com", EncryptedPassword: mustEncrypt(t, c, "hunter2AAAA")},
		{Service: "GitHub", Username: "octo", EncryptedPassword: mustEncrypt(t, c, "pa,ss,word")},
	}
	require.NoError(t, s.Save(in))

	data, err := os.ReadFile(s.Filename)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "Gmail")
	assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 2)

	out, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, in, out)

	pw, err := c.Decrypt(out[1].EncryptedPassword)
	require.NoError(t, err)
	assert.Equal(t, "pa,ss,word", pw)
}

func TestStore_SkipsEmptyFields(t *testing.T) {
	c := NewCipher(newTestSession(t, "hunter42"))
	s := newTestStore(t, c)

	in := []Credential{
		{Service: "", Username: "u", EncryptedPassword: mustEncrypt(t, c, "p")},
		{Service: "Gmail", Username: "u", EncryptedPassword: mustEncrypt(t, c, "p")},
		{Service: "Mail", Username: "u", EncryptedPassword: ""},
	}
	require.NoError(t, s.Save(in))

	out, err := s.Load()
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Gmail", out[0].Service)
}

func TestStore_BackupHoldsPreviousContents(t *testing.T) {
	c := NewCipher(newTestSession(t, "hunter42"))
	s := newTestStore(t, c)

	require.NoError(t, s.Save([]Credential{{Service: "A", Username: "a", EncryptedPassword: mustEncrypt(t, c, "1")}}))
	_, err := os.Stat(s.BackupName)
	assert.ErrorIs(t, err, os.ErrNotExist)

	first, err := os.ReadFile(s.Filename)
	require.NoError(t, err)

	require.NoError(t, s.Save(nil))

	backup, err := os.ReadFile(s.BackupName)
	require.NoError(t, err)
	assert.Equal(t, first, backup)

	current, err := os.ReadFile(s.Filename)
	require.NoError(t, err)
	assert.Empty(t, current)
}

func TestStore_LoadToleratesCorruptLines(t *testing.T) {
	c := NewCipher(newTestSession(t, "hunter42"))
	s := newTestStore(t, c)

	require.NoError(t, s.Save([]Credential{
		{Service: "A", Username: "a", EncryptedPassword: mustEncrypt(t, c, "1")},
		{Service: "B", Username: "b", EncryptedPassword: mustEncrypt(t, c, "2")},
		{Service: "C", Username: "c", EncryptedPassword: mustEncrypt(t, c, "3")},
	}))

	data, err := os.ReadFile(s.Filename)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")

	raw, err := base64.StdEncoding.DecodeString(lines[1])
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0x80
	lines[1] = base64.StdEncoding.EncodeToString(raw)

	twoFields := mustEncrypt(t, c, "only,two")
	lines = append(lines, "garbage", twoFields)

	require.NoError(t, os.WriteFile(s.Filename, []byte(strings.Join(lines, "\n")+"\n"), 0600))

	var logs bytes.Buffer
	s.logger = logger.NewWithWriter(&logs, 0)

	out, err := s.Load()
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "A", out[0].Service)
	assert.Equal(t, "C", out[1].Service)

	assert.Contains(t, logs.String(), "line=2")
	assert.Contains(t, logs.String(), "line=4")
	assert.Contains(t, logs.String(), "line=5")
	assert.NotContains(t, logs.String(), "only,two")
}

func TestStore_WrongSessionLoadsNothing(t *testing.T) {
	c := NewCipher(newTestSession(t, "hunter42"))
	s := newTestStore(t, c)
	require.NoError(t, s.Save([]Credential{{Service: "A", Username: "a", EncryptedPassword: mustEncrypt(t, c, "1")}}))

	other := NewStore(s.Filename, s.BackupName, NewCipher(newTestSession(t, "other")), logger.NewNop())
	out, err := other.Load()
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestStore_SessionNotReady(t *testing.T) {
	s := newTestStore(t, NewCipher(NewSession()))

	_, err := s.Load()
	assert.ErrorIs(t, err, ErrSessionNotReady)
	assert.ErrorIs(t, s.Save(nil), ErrSessionNotReady)
}

func TestStore_LoadDirectoryFails(t *testing.T) {
	c := NewCipher(newTestSession(t, "hunter42"))
	s := NewStore(t.TempDir(), "", c, logger.NewNop())

	_, err := s.Load()
	assert.Error(t, err)
}
