package vault

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/DonkRonk17/SecureVault/crypt"
)

var testPassphrase = []byte("CorrectHorse123")

func tempVaultPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "vault.enc")
}

func TestInitializeAndOpen(t *testing.T) {
	t.Parallel()

	if testing.Short() {
		t.Skip("skipping long test")
	}

	path := tempVaultPath(t)

	v, err := NewStore(path).Initialize(testPassphrase)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := v.Table.Set("github", "octocat", "p@ss1"); err != nil {
		t.Fatal(err)
	}
	if err := v.Save(); err != nil {
		t.Fatal(err)
	}
	v.Close()

	// a fresh store stands in for a second process
	v2, err := NewStore(path).Open(testPassphrase)
	if err != nil {
		t.Fatal(err)
	}
	defer v2.Close()

	cred, ok := v2.Table.Get("github")
	if !ok {
		t.Fatal("credential was not found after reopening")
	}
	if cred.Username != "octocat" {
		t.Error("username was wrong:", cred.Username)
	}
	if cred.Password != "p@ss1" {
		t.Error("password was wrong:", cred.Password)
	}

	if _, err := NewStore(path).Open([]byte("WrongPass")); !errors.Is(err, crypt.ErrWrongPassphrase) {
		t.Error("want ErrWrongPassphrase, got:", err)
	}
}

func TestInitializeValidation(t *testing.T) {
	t.Parallel()

	if testing.Short() {
		t.Skip("skipping long test")
	}

	path := tempVaultPath(t)

	if _, err := NewStore(path).Initialize([]byte("short")); !errors.Is(err, ErrPassphraseTooShort) {
		t.Error("want ErrPassphraseTooShort, got:", err)
	}

	v, err := NewStore(path).Initialize(testPassphrase)
	if err != nil {
		t.Fatal(err)
	}
	v.Close()

	if _, err := NewStore(path).Initialize(testPassphrase); !errors.Is(err, ErrExists) {
		t.Error("want ErrExists, got:", err)
	}

	// the original file must survive the refused second initialize
	if _, err := NewStore(path).Open(testPassphrase); err != nil {
		t.Error("original vault was disturbed:", err)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	path := tempVaultPath(t)
	store := NewStore(path)

	if _, _, err := store.Load(); !errors.Is(err, ErrNotFound) {
		t.Error("want ErrNotFound, got:", err)
	}

	if err := os.WriteFile(path, []byte("this is not a vault container"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := store.Load(); !errors.Is(err, ErrCorrupt) {
		t.Error("want ErrCorrupt, got:", err)
	}

	future := append([]byte("securevt00000099"), make([]byte, 64)...)
	if err := os.WriteFile(path, future, 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := store.Load(); !errors.Is(err, ErrUnsupportedVersion) {
		t.Error("want ErrUnsupportedVersion, got:", err)
	}
	if _, err := store.Open(testPassphrase); !errors.Is(err, ErrUnsupportedVersion) {
		t.Error("open: want ErrUnsupportedVersion, got:", err)
	}
}

func TestSaveFreshNonce(t *testing.T) {
	t.Parallel()

	if testing.Short() {
		t.Skip("skipping long test")
	}

	path := tempVaultPath(t)

	v, err := NewStore(path).Initialize(testPassphrase)
	if err != nil {
		t.Fatal(err)
	}
	defer v.Close()

	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if err := v.Save(); err != nil {
		t.Fatal(err)
	}

	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if bytes.Equal(first, second) {
		t.Error("two saves of the same table produced identical files")
	}

	if _, err := NewStore(path).Open(testPassphrase); err != nil {
		t.Error("vault no longer opens after resave:", err)
	}
}

func TestSaveAtomicity(t *testing.T) {
	t.Parallel()

	if testing.Short() {
		t.Skip("skipping long test")
	}

	path := tempVaultPath(t)
	dir := filepath.Dir(path)

	v, err := NewStore(path).Initialize(testPassphrase)
	if err != nil {
		t.Fatal(err)
	}
	if err := v.Save(); err != nil {
		t.Fatal(err)
	}
	v.Close()

	// no temp files may survive a completed save
	leftovers, err := filepath.Glob(filepath.Join(dir, "*.tmp-*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(leftovers) != 0 {
		t.Error("temp files were left behind:", leftovers)
	}

	// a stray temp file from an interrupted save must not disturb the
	// valid vault next to it
	stray := filepath.Join(dir, "vault.enc.tmp-12345")
	if err := os.WriteFile(stray, []byte("half-written garbage"), 0o600); err != nil {
		t.Fatal(err)
	}

	v2, err := NewStore(path).Open(testPassphrase)
	if err != nil {
		t.Fatal("prior vault was not loadable:", err)
	}
	v2.Close()
}

func TestUpgradeFromV1(t *testing.T) {
	t.Parallel()

	if testing.Short() {
		t.Skip("skipping long test")
	}

	path := tempVaultPath(t)

	// write a legacy (CBC) container directly
	salt, err := crypt.NewSalt(1)
	if err != nil {
		t.Fatal(err)
	}
	key, err := crypt.DeriveKey(1, testPassphrase, salt)
	if err != nil {
		t.Fatal(err)
	}

	table := NewTable()
	if _, err := table.Set("legacy", "olduser", "oldpass"); err != nil {
		t.Fatal(err)
	}
	plaintext, err := json.Marshal(table)
	if err != nil {
		t.Fatal(err)
	}

	container, err := crypt.Encrypt(1, key, salt, plaintext)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, container, 0o600); err != nil {
		t.Fatal(err)
	}

	v, err := NewStore(path).Open(testPassphrase)
	if err != nil {
		t.Fatal(err)
	}
	if v.Version() != 1 {
		t.Error("version was wrong:", v.Version())
	}
	if _, ok := v.Table.Get("legacy"); !ok {
		t.Fatal("legacy credential was not found")
	}

	if err := v.Save(); err != nil {
		t.Fatal(err)
	}
	v.Close()

	v2, err := NewStore(path).Open(testPassphrase)
	if err != nil {
		t.Fatal(err)
	}
	defer v2.Close()

	if v2.Version() != crypt.CurrentVersion {
		t.Error("save did not upgrade the container, version:", v2.Version())
	}
	if cred, ok := v2.Table.Get("legacy"); !ok || cred.Password != "oldpass" {
		t.Error("legacy credential was lost on upgrade")
	}
}

func TestUnlockRejectsMalformedTable(t *testing.T) {
	t.Parallel()

	if testing.Short() {
		t.Skip("skipping long test")
	}

	salt, err := crypt.NewSalt(crypt.CurrentVersion)
	if err != nil {
		t.Fatal(err)
	}
	key, err := crypt.DeriveKey(crypt.CurrentVersion, testPassphrase, salt)
	if err != nil {
		t.Fatal(err)
	}

	for _, payload := range []string{
		`{"entries":[{"service":""}]}`,
		`{"entries":[{"service":"a"},{"service":"a"}]}`,
		`not json at all`,
	} {
		container, err := crypt.Encrypt(crypt.CurrentVersion, key, salt, []byte(payload))
		if err != nil {
			t.Fatal(err)
		}

		store := NewStore(tempVaultPath(t))
		if _, err := store.Unlock(container, testPassphrase); !errors.Is(err, ErrCorrupt) {
			t.Errorf("payload %q: want ErrCorrupt, got: %v", payload, err)
		}
	}
}
