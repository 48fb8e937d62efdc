package cli

import (
	"bufio"
	"fmt"
	"os"
	"syscall"

	"golang.org/x/term"

	"github.com/lumenwallet/lumen/internal/vault"
	lumenerr "github.com/lumenwallet/lumen/pkg/errors"
)

// minPasswordLength is the minimum accepted vault password length.
const minPasswordLength = 8

// promptPassword prompts for a password with hidden input.
// The caller is responsible for zeroing the returned bytes after use.
func promptPassword(prompt string) ([]byte, error) {
	out(os.Stderr, "%s", prompt)

	password, err := term.ReadPassword(syscall.Stdin)
	outln(os.Stderr) // Add newline after hidden input

	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}

	return password, nil
}

// promptNewPassword prompts for a new password with confirmation.
// The caller is responsible for zeroing the returned bytes after use.
func promptNewPassword() ([]byte, error) {
	password, err := promptPassword("Enter encryption password: ")
	if err != nil {
		return nil, err
	}

	if len(password) < minPasswordLength {
		vault.ZeroBytes(password)
		return nil, lumenerr.WithSuggestion(
			lumenerr.ErrInvalidInput,
			fmt.Sprintf("password must be at least %d characters", minPasswordLength),
		)
	}

	confirm, err := promptPassword("Confirm password: ")
	if err != nil {
		vault.ZeroBytes(password)
		return nil, err
	}
	defer vault.ZeroBytes(confirm)

	if string(password) != string(confirm) {
		vault.ZeroBytes(password)
		return nil, lumenerr.WithSuggestion(
			lumenerr.ErrInvalidInput,
			"passwords do not match",
		)
	}

	return password, nil
}

// promptMnemonic reads a recovery phrase from stdin. The whole line is
// taken so pasted numbered lists survive; normalization happens later.
func promptMnemonic() (string, error) {
	outln(os.Stderr, "Enter your recovery phrase (all words on one line):")

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", lumenerr.WithSuggestion(lumenerr.ErrInvalidInput, "no input provided")
	}
	return line, nil
}

// promptConfirm asks a yes/no question, defaulting to no.
func promptConfirm(question string) bool {
	out(os.Stderr, "%s [y/N]: ", question)

	var response string
	if _, err := fmt.Scanln(&response); err != nil {
		return false
	}
	return response == "y" || response == "Y" || response == "yes"
}
