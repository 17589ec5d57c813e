package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jwebster45206/storyteller/internal/continuity"
)

// ErrNoInput is returned when input ends before an answer was read.
var ErrNoInput = errors.New("no input")

// LinePrompter reads answers one line at a time.
type LinePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{in: bufio.NewReader(in), out: out}
}

// Ask prints question and returns the trimmed reply.
func (p *LinePrompter) Ask(question string) (string, error) {
	fmt.Fprint(p.out, promptStyle.Render(question)+" ")
	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrNoInput
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Choose lists candidates by number; 0, blank or anything unparseable starts
// a new story. It implements continuity.Chooser.
func (p *LinePrompter) Choose(_ context.Context, candidates []continuity.Candidate) (string, bool, error) {
	fmt.Fprintln(p.out, "This sounds like a story we've told before:")
	for i, c := range candidates {
		fmt.Fprintf(p.out, "  %d) %s\n", i+1, candidateLabel(c))
	}
	fmt.Fprintf(p.out, "  0) %s\n", StartNewLabel)

	answer, err := p.Ask("Which one?")
	if err != nil && !errors.Is(err, ErrNoInput) {
		return "", false, err
	}
	n, convErr := strconv.Atoi(answer)
	if convErr != nil || n < 1 || n > len(candidates) {
		return "", false, nil
	}
	return candidates[n-1].SessionID, true, nil
}
