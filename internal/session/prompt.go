package session

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"taskboard/internal/utils"
)

// PromptPassword asks for a password. On a terminal the input is hidden;
// otherwise (pipes, tests) a single line is read from reader.
func PromptPassword(reader io.Reader, writer io.Writer, username string) (string, error) {
	_, _ = fmt.Fprintf(writer, "Password for %s: ", username)

	if f, ok := reader.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		pw, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(writer)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(pw), nil
	}

	return utils.ReadLine(reader)
}
