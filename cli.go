package main

import (
	"os"
	"path/filepath"

	"github.com/integrii/flaggy"
)

var (
	flagFile        string
	flagNoColor     bool
	flagNoClearClip bool

	flagGenLength = 20
	flagNoSymbols bool

	argService string
	argQuery   string
	argSecret  string
)

var (
	cliParser *flaggy.Parser

	initCmd   = flaggy.NewSubcommand("init")
	addCmd    = flaggy.NewSubcommand("add")
	getCmd    = flaggy.NewSubcommand("get")
	listCmd   = flaggy.NewSubcommand("list")
	deleteCmd = flaggy.NewSubcommand("delete")
	findCmd   = flaggy.NewSubcommand("find")
	totpCmd   = flaggy.NewSubcommand("totp")
	genCmd    = flaggy.NewSubcommand("gen")
)

func parseCli() {
	defaultFilePath := ".securevault.enc"
	homeDir, err := os.UserHomeDir()
	if err == nil && len(homeDir) != 0 {
		defaultFilePath = filepath.Join(homeDir, defaultFilePath)
	}
	flagFile = defaultFilePath

	cliParser = flaggy.NewParser("securevault")
	cliParser.Description = "Local encrypted credential vault"
	cliParser.String(&flagFile, "f", "file", "The vault file to open (can be set by $SECUREVAULT)")
	cliParser.Bool(&flagNoColor, "", "no-color", "Turn off color output")
	cliParser.Bool(&flagNoClearClip, "", "no-clear-clip", "Do not clear the clipboard after copying")

	initCmd.Description = "create a new vault"
	addCmd.Description = "add or overwrite a credential"
	addCmd.AddPositionalValue(&argService, "service", 1, true, "service to store the credential under")
	getCmd.Description = "show a credential and copy its password"
	getCmd.AddPositionalValue(&argService, "service", 1, true, "service to look up")
	listCmd.Description = "list stored services"
	deleteCmd.Description = "delete a credential"
	deleteCmd.AddPositionalValue(&argService, "service", 1, true, "service to delete")
	findCmd.Description = "fuzzy-search stored service names"
	findCmd.AddPositionalValue(&argQuery, "query", 1, true, "search query")
	totpCmd.Description = "show the current TOTP code for a service, or store its secret"
	totpCmd.AddPositionalValue(&argService, "service", 1, true, "service to show the code for")
	totpCmd.AddPositionalValue(&argSecret, "secret", 2, false, "TOTP secret or otpauth:// url to store")
	genCmd.Description = "generate a password without touching the vault"
	genCmd.Int(&flagGenLength, "l", "length", "password length")
	genCmd.Bool(&flagNoSymbols, "", "no-symbols", "exclude symbols from the generated password")

	cliParser.AttachSubcommand(initCmd, 1)
	cliParser.AttachSubcommand(addCmd, 1)
	cliParser.AttachSubcommand(getCmd, 1)
	cliParser.AttachSubcommand(listCmd, 1)
	cliParser.AttachSubcommand(deleteCmd, 1)
	cliParser.AttachSubcommand(findCmd, 1)
	cliParser.AttachSubcommand(totpCmd, 1)
	cliParser.AttachSubcommand(genCmd, 1)
	cliParser.Parse()

	if flagFile == defaultFilePath {
		envFile := os.Getenv("SECUREVAULT")
		if len(envFile) != 0 {
			flagFile = envFile
		}
	}
}
