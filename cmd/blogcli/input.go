package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword is swapped out in tests so no terminal is needed
var readPassword = term.ReadPassword

type input struct {
	reader *bufio.Reader
	stdin  io.Reader
	out    io.Writer
}

func newInput(stdin io.Reader, out io.Writer) *input {
	return &input{reader: bufio.NewReader(stdin), stdin: stdin, out: out}
}

// password reads without echo when stdin is a terminal and falls back to a
// plain line otherwise, so piped input keeps working.
func (in *input) password(prompt string) (string, error) {
	fmt.Fprint(in.out, prompt)
	if f, ok := in.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		pw, err := readPassword(int(f.Fd()))
		fmt.Fprintln(in.out)
		if err != nil {
			return "", err
		}
		return string(pw), nil
	}
	return in.line()
}

func (in *input) line() (string, error) {
	line, err := in.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}
