package listener

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

type line struct {
	text string
	err  error
}

// consoleImpl treats each line read from a terminal as one utterance. An
// empty line means nothing was heard.
type consoleImpl struct {
	lines <-chan line
}

// NewConsole starts reading lines from r in the background.
func NewConsole(r io.Reader) (Interface, error) {
	if r == nil {
		return nil, fmt.Errorf("reader is nil")
	}

	lines := make(chan line)

	go func() {
		scanner := bufio.NewScanner(r)

		for scanner.Scan() {
			lines <- line{text: scanner.Text()}
		}

		err := scanner.Err()
		if err == nil {
			err = io.EOF
		}

		lines <- line{err: err}
		close(lines)
	}()

	return &consoleImpl{lines: lines}, nil
}

func (c *consoleImpl) Recognize(ctx context.Context, _ string, _ []string) (string, bool, error) {
	select {
	case <-ctx.Done():
		return "", false, ctx.Err()
	case l, ok := <-c.lines:
		if !ok {
			return "", false, io.EOF
		}

		if l.err != nil {
			return "", false, l.err
		}

		text := strings.TrimSpace(l.text)

		return text, text != "", nil
	}
}
