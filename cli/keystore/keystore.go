// Package keystore persists Venice API keys in an encrypted file. The CLI
// operates against a single service, so entries are named profiles of the
// same credential type: "venice" is the default profile, and additional
// names (for example "work", "admin") hold alternate keys selected through
// the config file's api_key_ref.
package keystore

import (
	"crypto/sha256"
	"os"
	"path/filepath"
	"runtime"
)

// Keystore stores named API key profiles. Values are write-only from the
// caller's perspective: List reports names, never key material.
type Keystore interface {
	// Set stores a key under the profile name, replacing any existing value.
	Set(name, value string) error
	// Get returns the key for a profile, or *ErrKeyNotFound.
	Get(name string) (string, error)
	// Delete removes a profile, or returns *ErrKeyNotFound.
	Delete(name string) error
	// List returns the stored profile names in sorted order.
	List() ([]string, error)
}

// ErrKeyNotFound reports a profile name with no stored key.
type ErrKeyNotFound struct {
	Name string
}

func (e *ErrKeyNotFound) Error() string {
	return "key not found: " + e.Name
}

// MasterKeySource supplies the key material the store file is encrypted
// under. The store derives its cipher key from this material with Argon2id,
// so the source only needs to be stable, not uniformly random.
type MasterKeySource interface {
	GetMasterKey() ([]byte, error)
}

// MachineKeySource derives master key material from the hostname and user
// name. This binds the store file to the machine that wrote it without
// prompting for a passphrase; it does not protect against an attacker who
// can already run code as the same user.
type MachineKeySource struct{}

// GetMasterKey returns the machine-derived key material.
func (MachineKeySource) GetMasterKey() ([]byte, error) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	username := os.Getenv("USER")
	if username == "" {
		username = os.Getenv("USERNAME")
	}

	material := hostname + ":" + username + ":venice-keystore"
	hash := sha256.Sum256([]byte(material))
	return hash[:], nil
}

// DefaultKeystorePath returns the store file location: ~/.venice/keys.enc,
// with %USERPROFILE% standing in for the home directory on Windows. Falls
// back to the working directory when no home is known.
func DefaultKeystorePath() string {
	var homeDir string
	if runtime.GOOS == "windows" {
		homeDir = os.Getenv("USERPROFILE")
	} else {
		homeDir = os.Getenv("HOME")
	}
	if homeDir == "" {
		return "keys.enc"
	}
	return filepath.Join(homeDir, ".venice", "keys.enc")
}

// NewKeystore opens the default machine-bound file store.
func NewKeystore() (Keystore, error) {
	return NewFileKeystore(DefaultKeystorePath())
}
