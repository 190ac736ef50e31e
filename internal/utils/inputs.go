package utils

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrNoInput is returned when the reader is exhausted before a line is read.
var ErrNoInput = errors.New("no input received")

// ReadLine reads a single line without buffering past the newline, so several
// prompts can share one reader (stdin).
func ReadLine(reader io.Reader) (string, error) {
	var sb strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := reader.Read(buf)
		if n > 0 {
			if buf[0] == '\n' {
				return strings.TrimRight(sb.String(), "\r"), nil
			}
			sb.WriteByte(buf[0])
		}
		if err == io.EOF {
			if sb.Len() == 0 {
				return "", ErrNoInput
			}
			return strings.TrimRight(sb.String(), "\r"), nil
		}
		if err != nil {
			return "", err
		}
	}
}

// PromptYesNo prompts the user for a yes/no response using stdin/stdout.
func PromptYesNo(prompt string) bool {
	return PromptYesNoWithReader(prompt, os.Stdin, os.Stdout)
}

// PromptYesNoWithReader prompts for yes/no with custom reader/writer for testing.
// End of input counts as no.
func PromptYesNoWithReader(prompt string, reader io.Reader, writer io.Writer) bool {
	for {
		_, _ = fmt.Fprintf(writer, "%s (y/n): ", prompt)
		line, err := ReadLine(reader)
		if err != nil {
			return false
		}

		switch strings.TrimSpace(strings.ToLower(line)) {
		case "y", "yes":
			return true
		case "n", "no":
			return false
		}
		// Invalid input, loop continues
	}
}

// PromptStringWithReader prints prompt and returns the trimmed answer.
// Empty answers are rejected.
func PromptStringWithReader(prompt string, reader io.Reader, writer io.Writer) (string, error) {
	_, _ = fmt.Fprintf(writer, "%s: ", prompt)
	line, err := ReadLine(reader)
	if err != nil {
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", errors.New("empty input")
	}
	return line, nil
}
