package encryption

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// PassphraseEnv names the environment variable consulted before prompting.
const PassphraseEnv = "FEEDGRID_PASSPHRASE"

// ErrNoPassphrase is returned when no passphrase is available without a terminal.
var ErrNoPassphrase = errors.New("no passphrase: set " + PassphraseEnv + " or run from a terminal")

// ReadPassphrase returns the passphrase from PassphraseEnv, or prompts for it
// on the terminal behind in without echoing. The prompt is written to out.
func ReadPassphrase(in *os.File, out io.Writer, prompt string) (string, error) {
	if p := os.Getenv(PassphraseEnv); p != "" {
		return p, nil
	}

	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return "", ErrNoPassphrase
	}

	fmt.Fprint(out, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}

	p := strings.TrimSpace(string(b))
	if p == "" {
		return "", ErrNoPassphrase
	}
	return p, nil
}
