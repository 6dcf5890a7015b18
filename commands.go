package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/pkg/errors"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/DonkRonk17/SecureVault/crypt"
	"github.com/DonkRonk17/SecureVault/pwgen"
	"github.com/DonkRonk17/SecureVault/vault"
)

const (
	genLength      = 20
	minGenLength   = 8
	clipClearDelay = 15 * time.Second
	createdLayout  = "2006-01-02 15:04:05"
)

// openVault prompts for the master passphrase and unlocks the vault file.
// The returned handle holds the derived key; callers must Close it.
func openVault() (*vault.Vault, error) {
	store := vault.NewStore(flagFile)

	passphrase, err := promptPassword("passphrase: ")
	if err != nil {
		return nil, err
	}
	defer crypt.Zero(passphrase)

	return store.Open(passphrase)
}

func cmdInit() error {
	store := vault.NewStore(flagFile)
	if store.Exists() {
		return vault.ErrExists
	}

	passphrase, err := promptNewPassphrase()
	if err != nil {
		return err
	}
	defer crypt.Zero(passphrase)

	v, err := store.Initialize(passphrase)
	if err != nil {
		return err
	}
	v.Close()

	infoColor.Printf("Created vault: %s\n", store.Path())
	fmt.Println("There is no way to recover the passphrase if you forget it.")
	return nil
}

func cmdAdd(service string) error {
	v, err := openVault()
	if err != nil {
		return err
	}
	defer v.Close()

	if _, ok := v.Table.Get(service); ok {
		overwrite, err := promptYesNo(fmt.Sprintf("%q already exists, overwrite?", service))
		if err != nil {
			return err
		}
		if !overwrite {
			errColor.Println("Aborted")
			return nil
		}
	}

	username, err := promptLine(fmt.Sprintf("username for %s: ", service))
	if err != nil {
		return err
	}

	password, err := promptPassword(fmt.Sprintf("password for %s (blank to generate): ", service))
	if err != nil {
		return err
	}
	defer crypt.Zero(password)

	secret := string(password)
	if len(secret) == 0 {
		secret, err = pwgen.Generate(genLength, true)
		if err != nil {
			return err
		}
		keyColor.Printf("generated: %s\n", secret)
	}

	if _, err := v.Table.Set(service, username, secret); err != nil {
		return err
	}
	if err := v.Save(); err != nil {
		return err
	}

	infoColor.Printf("Saved credential for %q\n", service)
	return nil
}

func cmdGet(service string) error {
	v, err := openVault()
	if err != nil {
		return err
	}
	defer v.Close()

	cred, ok := v.Table.Get(service)
	if !ok {
		return errors.Wrapf(vault.ErrServiceNotFound, "%q", service)
	}

	showCredential(cred)
	copyToClipboard(cred.Password)
	return nil
}

func cmdList() error {
	v, err := openVault()
	if err != nil {
		return err
	}
	defer v.Close()

	services := v.Table.Services()
	if len(services) == 0 {
		infoColor.Println("Vault is empty")
		return nil
	}

	infoColor.Printf("Stored credentials (%d):\n", len(services))
	for i, service := range services {
		cred, _ := v.Table.Get(service)
		keyColor.Printf("%3d. %s\n", i+1, service)
		fmt.Printf("     username: %s\n", cred.Username)
		fmt.Printf("     created:  %s\n", cred.CreatedAt.Local().Format(createdLayout))
	}
	return nil
}

func cmdDelete(service string) error {
	v, err := openVault()
	if err != nil {
		return err
	}
	defer v.Close()

	cred, ok := v.Table.Get(service)
	if !ok {
		return errors.Wrapf(vault.ErrServiceNotFound, "%q", service)
	}

	keyColor.Print("service:  ")
	fmt.Println(cred.Service)
	keyColor.Print("username: ")
	fmt.Println(cred.Username)

	del, err := promptYesNo("delete this entry?")
	if err != nil {
		return err
	}
	if !del {
		errColor.Println("Aborted")
		return nil
	}

	v.Table.Delete(service)
	if err := v.Save(); err != nil {
		return err
	}

	infoColor.Printf("Deleted credential for %q\n", service)
	return nil
}

func cmdFind(query string) error {
	v, err := openVault()
	if err != nil {
		return err
	}
	defer v.Close()

	found := v.Table.Search(query)
	if len(found) == 0 {
		infoColor.Println("No matches")
		return nil
	}

	for _, service := range found {
		fmt.Println(service)
	}
	return nil
}

func cmdTotp(service, secret string) error {
	v, err := openVault()
	if err != nil {
		return err
	}
	defer v.Close()

	if len(secret) != 0 {
		if err := v.Table.SetTOTP(service, secret); err != nil {
			return err
		}
		if err := v.Save(); err != nil {
			return err
		}
		infoColor.Printf("Stored TOTP secret for %q\n", service)
		return nil
	}

	cred, ok := v.Table.Get(service)
	if !ok {
		return errors.Wrapf(vault.ErrServiceNotFound, "%q", service)
	}
	if len(cred.TOTP) == 0 {
		return errors.Errorf("no TOTP secret stored for %q", service)
	}

	totpSecret := cred.TOTP
	if strings.HasPrefix(totpSecret, "otpauth://") {
		key, err := otp.NewKeyFromURL(totpSecret)
		if err != nil {
			return errors.Wrap(err, "parse otpauth url")
		}
		totpSecret = key.Secret()
	}

	code, err := totp.GenerateCode(totpSecret, time.Now().UTC())
	if err != nil {
		return errors.Wrap(err, "generate TOTP code")
	}

	fmt.Println(code)
	copyToClipboard(code)
	return nil
}

func cmdGen(length int, symbols bool) error {
	if length < minGenLength {
		return errors.Errorf("refusing to generate a password shorter than %d characters", minGenLength)
	}

	password, err := pwgen.Generate(length, symbols)
	if err != nil {
		return err
	}

	fmt.Println(password)
	copyToClipboard(password)
	return nil
}

func showCredential(cred vault.Credential) {
	keyColor.Print("service:  ")
	fmt.Println(cred.Service)
	keyColor.Print("username: ")
	fmt.Println(cred.Username)
	keyColor.Print("password: ")
	fmt.Println(cred.Password)
	keyColor.Print("created:  ")
	fmt.Println(cred.CreatedAt.Local().Format(createdLayout))
	if len(cred.TOTP) != 0 {
		keyColor.Print("totp:     ")
		fmt.Println("configured")
	}
}

// copyToClipboard copies text and, unless disabled, clears the clipboard
// after a short delay so secrets do not linger.
func copyToClipboard(text string) {
	if err := clipboard.WriteAll(text); err != nil {
		errColor.Println("Failed to copy to clipboard")
		return
	}
	infoColor.Println("Copied to clipboard")

	if flagNoClearClip {
		return
	}

	time.Sleep(clipClearDelay)
	if err := clipboard.WriteAll(""); err == nil {
		infoColor.Println("Clipboard cleared")
	}
}
