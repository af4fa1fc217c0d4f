package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"quiz-client/internal/state"
)

var errNotStarted = errors.New("operation was not started")

// await blocks until slot settles and turns a Failure into an error carrying
// its message.
func await[T any](ctx context.Context, slot *state.Slot[T]) (T, error) {
	var zero T
	st, err := slot.Await(ctx)
	if err != nil {
		return zero, err
	}
	if msg, ok := state.Message(st); ok {
		return zero, errors.New(msg)
	}
	if v, ok := state.Value(st); ok {
		return v, nil
	}
	return zero, errNotStarted
}

// prompter reads answers line by line from the command's input.
type prompter struct {
	r   *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{r: bufio.NewReader(in), out: out}
}

// ask prints label and returns the next line without its line ending.
func (p *prompter) ask(label string) (string, error) {
	if label != "" {
		fmt.Fprintf(p.out, "%s: ", label)
	}
	line, err := p.r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// askArg returns args[i] when present and prompts for it otherwise.
func (p *prompter) askArg(args []string, i int, label string) (string, error) {
	if i < len(args) {
		return args[i], nil
	}
	return p.ask(label)
}

func (p *prompter) confirm(label string) bool {
	answer, err := p.ask(label + " [y/N]")
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

var errNotLoggedIn = errors.New("not logged in, run `quiz-client login` first")
