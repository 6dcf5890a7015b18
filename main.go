package main

import (
	"os"

	"github.com/gookit/color"
	"github.com/pkg/errors"

	"github.com/DonkRonk17/SecureVault/crypt"
	"github.com/DonkRonk17/SecureVault/vault"
)

// Exit codes reported to the calling shell.
const (
	exitOK              = 0
	exitError           = 1
	exitVaultNotFound   = 2
	exitVaultExists     = 3
	exitWrongPassphrase = 4
	exitServiceNotFound = 5
	exitBadFormat       = 6
)

func main() {
	parseCli()

	if flagNoColor {
		color.Disable()
	}

	var err error
	switch {
	case initCmd.Used:
		err = cmdInit()
	case addCmd.Used:
		err = cmdAdd(argService)
	case getCmd.Used:
		err = cmdGet(argService)
	case listCmd.Used:
		err = cmdList()
	case deleteCmd.Used:
		err = cmdDelete(argService)
	case findCmd.Used:
		err = cmdFind(argQuery)
	case totpCmd.Used:
		err = cmdTotp(argService, argSecret)
	case genCmd.Used:
		err = cmdGen(flagGenLength, !flagNoSymbols)
	default:
		cliParser.ShowHelpAndExit("")
	}

	if err != nil {
		errColor.Printf("error: %v\n", err)
		os.Exit(exitCode(err))
	}

	os.Exit(exitOK)
}

// exitCode maps core errors onto shell exit codes so scripts can tell the
// recoverable failures apart.
func exitCode(err error) int {
	switch {
	case errors.Is(err, vault.ErrNotFound):
		return exitVaultNotFound
	case errors.Is(err, vault.ErrExists):
		return exitVaultExists
	case errors.Is(err, crypt.ErrWrongPassphrase):
		return exitWrongPassphrase
	case errors.Is(err, vault.ErrServiceNotFound):
		return exitServiceNotFound
	case errors.Is(err, vault.ErrCorrupt), errors.Is(err, vault.ErrUnsupportedVersion):
		return exitBadFormat
	}

	return exitError
}
