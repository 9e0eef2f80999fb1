package servers

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompt asks for the fields of a server that were not given on the command
// line. The password is read without echo when in is a terminal.
type Prompt struct {
	In  io.Reader
	Out io.Writer

	lines *bufio.Reader
}

func (p *Prompt) reader() *bufio.Reader {
	if p.lines == nil {
		p.lines = bufio.NewReader(p.In)
	}
	return p.lines
}

// Line reads one line of cleartext input.
func (p *Prompt) Line(label string) (string, error) {
	fmt.Fprintf(p.Out, "%s: ", label)
	line, err := p.reader().ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(line), nil
}

// Password reads a password, masked when possible.
func (p *Prompt) Password(label string) (string, error) {
	f, ok := p.In.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return p.Line(label)
	}

	fmt.Fprintf(p.Out, "%s: ", label)
	password, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(p.Out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}

// Complete fills the empty fields of s interactively.
func (p *Prompt) Complete(s Server) (Server, error) {
	var err error
	if s.Name == "" {
		if s.Name, err = p.Line("Name"); err != nil {
			return s, err
		}
	}
	if s.URL == "" {
		if s.URL, err = p.Line("URL"); err != nil {
			return s, err
		}
	}
	if s.Username == "" {
		if s.Username, err = p.Line("Username"); err != nil {
			return s, err
		}
	}
	if s.Password == "" {
		if s.Password, err = p.Password("Password"); err != nil {
			return s, err
		}
	}
	if s.Name == "" || s.URL == "" {
		return s, fmt.Errorf("server name and URL are required")
	}
	return s, nil
}
