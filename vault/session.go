package vault

import (
	"sync"

	"github.com/awnumar/memguard"
)

// Session holds the master password and vault salt between a successful
// login and logout. The AES key is derived on first use and cached. All
// secret material lives in locked buffers that Clear wipes.
type Session struct {
	mu       sync.Mutex
	password *memguard.LockedBuffer
	key      *memguard.LockedBuffer
	salt     string
}

func NewSession() *Session {
	return &Session{}
}

// Set replaces any previous session state. password is moved into a locked
// buffer and the caller's slice is wiped.
func (s *Session) Set(password []byte, salt string) error {
	if len(password) == 0 || salt == "" {
		return ErrSessionNotReady
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.clearLocked()
	s.password = memguard.NewBufferFromBytes(password)
	s.salt = salt
	return nil
}

// Ready reports whether Set has been called since the last Clear.
func (s *Session) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readyLocked()
}

func (s *Session) readyLocked() bool {
	return s.password != nil && s.password.IsAlive() && s.salt != ""
}

// Salt returns the salt string the session was opened with.
func (s *Session) Salt() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.readyLocked() {
		return "", ErrSessionNotReady
	}
	return s.salt, nil
}

// Key returns a copy of the session key in a fresh locked buffer. The caller
// owns it and must Destroy it when done.
func (s *Session) Key() (*memguard.LockedBuffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.readyLocked() {
		return nil, ErrSessionNotReady
	}

	if s.key == nil || !s.key.IsAlive() {
		derived := DeriveKey(s.password.Bytes(), []byte(s.salt))
		s.key = memguard.NewBufferFromBytes(derived)
		s.key.Freeze()
	}

	out := memguard.NewBuffer(KeyLen)
	out.Copy(s.key.Bytes())
	return out, nil
}

// Clear wipes all session material.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

func (s *Session) clearLocked() {
	if s.password != nil {
		s.password.Destroy()
		s.password = nil
	}
	if s.key != nil {
		s.key.Destroy()
		s.key = nil
	}
	s.salt = ""
}
