// Package vault owns the on-disk vault file and the decrypted credential
// table. A Store locates the file; unlocking it yields a Vault session
// handle that holds the derived key until Close.
package vault

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/DonkRonk17/SecureVault/crypt"
)

// Sentinel errors distinguishing the failure modes a caller can act on.
var (
	ErrNotFound           = errors.New("vault file not found")
	ErrExists             = errors.New("vault file already exists")
	ErrCorrupt            = errors.New("vault file is corrupt")
	ErrUnsupportedVersion = errors.New("vault file uses an unsupported format version")
	ErrPassphraseTooShort = errors.New("passphrase is too short")
	ErrEmptyService       = errors.New("service name must not be empty")
	ErrServiceNotFound    = errors.New("service not found")
)

// MinPassphraseLen is the minimum accepted master passphrase length.
const MinPassphraseLen = 8

// Store owns a single vault file path. It holds no key material; path
// resolution (flags, env) is the caller's concern.
type Store struct {
	path string
}

// NewStore returns a store for the vault file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the vault file path.
func (s *Store) Path() string {
	return s.path
}

// Exists reports whether a vault file is present at the store path.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Initialize creates a new vault file holding an encrypted empty table.
// It fails with ErrExists rather than overwrite anything.
func (s *Store) Initialize(passphrase []byte) (*Vault, error) {
	if len(passphrase) < MinPassphraseLen {
		return nil, ErrPassphraseTooShort
	}
	if s.Exists() {
		return nil, ErrExists
	}

	salt, err := crypt.NewSalt(crypt.CurrentVersion)
	if err != nil {
		return nil, err
	}

	key, err := crypt.DeriveKey(crypt.CurrentVersion, passphrase, salt)
	if err != nil {
		return nil, err
	}

	v := &Vault{
		store:   s,
		version: crypt.CurrentVersion,
		key:     key,
		salt:    salt,
		Table:   NewTable(),
	}

	if err := v.Save(); err != nil {
		v.Close()
		return nil, err
	}

	return v, nil
}

// Load reads the raw container from disk and verifies its header, so a
// missing, corrupt or future-format file is reported before any
// passphrase is asked for.
func (s *Store) Load() (container []byte, version int, err error) {
	container, err = os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, errors.Wrap(err, "read vault file")
	}

	version, err = crypt.Inspect(container)
	switch {
	case errors.Is(err, crypt.ErrUnknownVersion):
		return nil, version, ErrUnsupportedVersion
	case err != nil:
		return nil, 0, ErrCorrupt
	}

	return container, version, nil
}

// Unlock decrypts a loaded container into a session handle. A wrong
// passphrase surfaces as crypt.ErrWrongPassphrase; the message is kept
// generic on purpose so it cannot be used as an oracle.
func (s *Store) Unlock(container, passphrase []byte) (*Vault, error) {
	meta, plaintext, err := crypt.Decrypt(passphrase, container)
	switch {
	case errors.Is(err, crypt.ErrUnknownVersion):
		return nil, ErrUnsupportedVersion
	case errors.Is(err, crypt.ErrInvalidMagic):
		return nil, ErrCorrupt
	case err != nil:
		return nil, err
	}

	table := NewTable()
	err = json.Unmarshal(plaintext, table)
	crypt.Zero(plaintext)
	if err != nil {
		crypt.Zero(meta.Key)
		if errors.Is(err, ErrCorrupt) {
			return nil, err
		}
		return nil, errors.Wrap(ErrCorrupt, "decode credential table")
	}

	return &Vault{
		store:   s,
		version: meta.Version,
		key:     meta.Key,
		salt:    meta.Salt,
		Table:   table,
	}, nil
}

// Open is Load followed by Unlock.
func (s *Store) Open(passphrase []byte) (*Vault, error) {
	container, _, err := s.Load()
	if err != nil {
		return nil, err
	}

	return s.Unlock(container, passphrase)
}

// Vault is an unlocked session. The derived key lives exactly as long as
// the handle; Close destroys it. There is no process-wide instance, a
// caller threads the handle through every operation.
type Vault struct {
	store   *Store
	version int
	key     []byte
	salt    []byte

	Table *Table
}

// Version returns the container version the vault was read from.
func (v *Vault) Version() int {
	return v.version
}

// Save serializes the table and rewrites the vault file atomically with a
// fresh nonce. Files read from an older container version are silently
// upgraded to the current format; the KDF parameters match across
// versions so the derived key carries over.
func (v *Vault) Save() error {
	if v.key == nil {
		return errors.New("vault is closed")
	}

	v.version = crypt.CurrentVersion

	plaintext, err := json.Marshal(v.Table)
	if err != nil {
		return errors.Wrap(err, "encode credential table")
	}

	container, err := crypt.Encrypt(v.version, v.key, v.salt, plaintext)
	crypt.Zero(plaintext)
	if err != nil {
		return err
	}

	return writeFileAtomic(v.store.path, container)
}

// Close zeroes the session's key material. The handle must not be used
// afterwards.
func (v *Vault) Close() {
	crypt.Zero(v.key)
	v.key = nil
	v.Table = nil
}

// writeFileAtomic writes data through a temp file in the same directory
// followed by a rename, so an interrupted save leaves the previous vault
// file intact. The file ends up with owner-only permissions.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "create temp vault file")
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Wrap(err, "write temp vault file")
	}

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Wrap(err, "chmod temp vault file")
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Wrap(err, "sync temp vault file")
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "close temp vault file")
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "replace vault file")
	}

	return nil
}
