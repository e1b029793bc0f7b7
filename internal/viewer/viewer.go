// Package viewer opens submissions in an external PDF viewer for the length
// of one grading prompt.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
)

// DefaultCommand opens the first page of the PDF with the "Preamble" layout.
var DefaultCommand = []string{"xreader", "-p", "1", "-l", "Preamble"}

// Launcher starts a viewer on a single file.
type Launcher interface {
	Open(ctx context.Context, path string) (Session, error)
}

// Session is a running viewer. Close terminates it and is safe to call more
// than once.
type Session interface {
	Close() error
}

// Command launches a program with Args followed by the file path.
type Command struct {
	Args []string
}

// NewCommand returns a Command for args, falling back to DefaultCommand.
func NewCommand(args []string) Command {
	if len(args) == 0 {
		args = DefaultCommand
	}
	return Command{Args: append([]string(nil), args...)}
}

// Check verifies the viewer program can be found on PATH.
func (c Command) Check() error {
	if len(c.Args) == 0 {
		return errors.New("viewer command is empty")
	}
	if _, err := exec.LookPath(c.Args[0]); err != nil {
		return fmt.Errorf("viewer %q not found: %w", c.Args[0], err)
	}
	return nil
}

// Open starts the viewer without attaching it to the terminal. The process is
// killed when ctx is cancelled or the returned session is closed.
func (c Command) Open(ctx context.Context, path string) (Session, error) {
	if len(c.Args) == 0 {
		return nil, errors.New("viewer command is empty")
	}
	args := append(append([]string(nil), c.Args[1:]...), path)
	cmd := exec.CommandContext(ctx, c.Args[0], args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start viewer %s: %w", c.Args[0], err)
	}
	return &process{cmd: cmd}, nil
}

type process struct {
	cmd  *exec.Cmd
	once sync.Once
	err  error
}

func (p *process) Close() error {
	p.once.Do(func() {
		if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			p.err = fmt.Errorf("stop viewer: %w", err)
		}
		// Wait reaps the child; its exit status after a kill is expected.
		_ = p.cmd.Wait()
	})
	return p.err
}
