package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/term"
)

// readPassword and isTerminal are test seams for the x/term calls.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

// GetSimpleText prints a prompt to w and reads a single line of input from reader.
// The trailing newline is trimmed. If EOF occurs after some input was read,
// the partial line is returned.
//
// Example prompt format:
//
//	Prompt text
//	> _
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n> "); err != nil {
		return "", err
	}
	return readLine(reader)
}

// GetPassword prints prompt and reads a passphrase without echo. When stdin
// is not a terminal (pipes, scripts) the passphrase is read as a plain line
// from reader instead.
//
// The returned byte slice should be wiped by the caller when no longer needed.
func GetPassword(reader *bufio.Reader, prompt string, w io.Writer) ([]byte, error) {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return nil, err
	}

	fd := stdinFd()
	if !isTerminal(fd) {
		line, err := readLine(reader)
		if err != nil {
			return nil, err
		}
		return []byte(line), nil
	}

	pw, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

// GetConfirmation asks a yes/no question; anything but y or yes is a no.
func GetConfirmation(reader *bufio.Reader, prompt string, w io.Writer) (bool, error) {
	if _, err := fmt.Fprint(w, prompt+" "); err != nil {
		return false, err
	}
	line, err := readLine(reader)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(line) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func readLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}
