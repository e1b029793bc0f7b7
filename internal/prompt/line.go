package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

type lineResult struct {
	text string
	err  error
}

// Line prompts on out and reads answers line by line from in.
type Line struct {
	in      *bufio.Reader
	out     io.Writer
	pending chan lineResult
}

// NewLine builds a line prompter.
func NewLine(in io.Reader, out io.Writer) *Line {
	return &Line{in: bufio.NewReader(in), out: out}
}

// Text implements Prompter.
func (l *Line) Text(ctx context.Context, label string) (string, error) {
	fmt.Fprint(l.out, label)
	return l.readLine(ctx)
}

// Confirm implements Prompter.
func (l *Line) Confirm(ctx context.Context, label string, def bool) (bool, error) {
	fmt.Fprint(l.out, label)
	answer, err := l.readLine(ctx)
	if err != nil {
		return false, err
	}
	return parseConfirm(answer, def), nil
}

// readLine blocks on a helper goroutine so cancellation can return early.
// An abandoned read is picked up by the next call.
func (l *Line) readLine(ctx context.Context) (string, error) {
	if l.pending == nil {
		ch := make(chan lineResult, 1)
		l.pending = ch
		go func() {
			text, err := l.in.ReadString('\n')
			ch <- lineResult{text: text, err: err}
		}()
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-l.pending:
		l.pending = nil
		if res.err != nil && (res.err != io.EOF || res.text == "") {
			return "", res.err
		}
		return strings.TrimRight(res.text, "\r\n"), nil
	}
}
