package main

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/gookit/color"
	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/DonkRonk17/SecureVault/crypt"
)

var (
	errColor         = color.FgLightRed
	infoColor        = color.FgLightMagenta
	inputPromptColor = color.FgYellow
	keyColor         = color.FgLightGreen
)

var stdinReader = bufio.NewReader(os.Stdin)

func promptLine(prompt string) (string, error) {
	inputPromptColor.Print(prompt)
	line, err := stdinReader.ReadString('\n')
	if err != nil {
		return "", err
	}

	return strings.TrimRight(line, "\r\n"), nil
}

func promptPassword(prompt string) ([]byte, error) {
	inputPromptColor.Print(prompt)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return nil, err
	}

	return password, nil
}

func promptNewPassphrase() ([]byte, error) {
	initial, err := promptPassword("passphrase: ")
	if err != nil {
		return nil, err
	}

	verify, err := promptPassword("verify passphrase: ")
	if err != nil {
		crypt.Zero(initial)
		return nil, err
	}

	match := bytes.Equal(initial, verify)
	crypt.Zero(verify)
	if !match {
		crypt.Zero(initial)
		return nil, errors.New("passphrases did not match")
	}

	return initial, nil
}

func promptYesNo(prompt string) (bool, error) {
	line, err := promptLine(prompt + " (y/N): ")
	if err != nil {
		return false, err
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}

	return false, nil
}
