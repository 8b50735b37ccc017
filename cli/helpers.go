package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/fahmaliyi/totpvault/vault"
)

// Prompter reads one line of user input. Password must not echo.
type Prompter interface {
	Line(prompt string) (string, error)
	Password(prompt string) (string, error)
}

// Terminal reads prompted lines. When the input is a terminal, passwords are
// read without echo; otherwise they are read as ordinary lines.
type Terminal struct {
	in    *bufio.Reader
	out   io.Writer
	fd    int
	tty   bool
	state *term.State
}

func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	t := &Terminal{in: bufio.NewReader(in), out: out, fd: -1}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		t.fd = int(f.Fd())
		t.tty = true
		// echo is on here; Restore puts it back after an interrupted hidden read
		t.state, _ = term.GetState(t.fd)
	}
	return t
}

// Restore resets the terminal to the mode it was in when t was created.
func (t *Terminal) Restore() error {
	if !t.tty || t.state == nil {
		return nil
	}
	return term.Restore(t.fd, t.state)
}

// Line prints prompt and returns the next input line without its line
// ending. io.EOF is returned only when no more input is available.
func (t *Terminal) Line(prompt string) (string, error) {
	fmt.Fprint(t.out, prompt)

	line, err := t.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (t *Terminal) Password(prompt string) (string, error) {
	if !t.tty {
		return t.Line(prompt)
	}

	fmt.Fprint(t.out, prompt)
	pw, err := term.ReadPassword(t.fd)
	fmt.Fprintln(t.out)
	if err != nil {
		return "", err
	}
	defer vault.Zero(pw)
	return string(pw), nil
}

// yes reads a y/n answer, asking again until one is given.
func yes(p Prompter, out io.Writer, prompt string) (bool, error) {
	for {
		answer, err := p.Line(prompt + " (y/n): ")
		if err != nil {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(out, errColor.Sprint("Please enter 'y' for yes or 'n' for no."))
	}
}
