package vault

import (
	"fmt"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Vault is the in-memory, insertion-ordered list of credentials backed by a
// Store. Indices given to and returned from its methods are 1-based, the way
// they are shown to the user.
type Vault struct {
	store   *Store
	cipher  *Cipher
	entries []Credential
}

func New(store *Store, c *Cipher) *Vault {
	return &Vault{store: store, cipher: c, entries: []Credential{}}
}

func (v *Vault) Load() error {
	entries, err := v.store.Load()
	if err != nil {
		return err
	}
	v.entries = entries
	return nil
}

func (v *Vault) Save() error {
	return v.store.Save(v.entries)
}

// CRUD operations
func (v *Vault) List() []Credential {
	out := make([]Credential, len(v.entries))
	copy(out, v.entries)
	return out
}

func (v *Vault) Len() int { return len(v.entries) }

// Add encrypts password and appends a new credential.
func (v *Vault) Add(service, username, password string) error {
	if service == "" || username == "" || password == "" {
		return ErrEmptyField
	}
	enc, err := v.cipher.Encrypt(password)
	if err != nil {
		return err
	}
	v.entries = append(v.entries, Credential{Service: service, Username: username, EncryptedPassword: enc})
	return nil
}

func (v *Vault) Get(index int) (Credential, error) {
	if index < 1 || index > len(v.entries) {
		return Credential{}, fmt.Errorf("%d: %w", index, ErrInvalidIndex)
	}
	return v.entries[index-1], nil
}

func (v *Vault) Delete(index int) (Credential, error) {
	c, err := v.Get(index)
	if err != nil {
		return Credential{}, err
	}
	v.entries = append(v.entries[:index-1], v.entries[index:]...)
	return c, nil
}

// Reveal decrypts the password of the credential at index.
func (v *Vault) Reveal(index int) (string, error) {
	c, err := v.Get(index)
	if err != nil {
		return "", err
	}
	return v.cipher.Decrypt(c.EncryptedPassword)
}

// Search returns the indices of credentials whose service name fuzzily
// matches query, ignoring case.
func (v *Vault) Search(query string) []int {
	var out []int
	for i, e := range v.entries {
		if fuzzy.MatchFold(query, e.Service) {
			out = append(out, i+1)
		}
	}
	return out
}
