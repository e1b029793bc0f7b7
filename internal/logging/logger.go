// Package logging builds the logrus logger shared by the command line tools.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kingrea/canvas-grader/internal/logbook"
)

// Options control where log lines go.
type Options struct {
	// Verbose enables debug output, including request URLs and response bodies.
	Verbose bool
	// File, when set, also appends every entry to this path.
	File string
	// Out defaults to stderr.
	Out io.Writer
}

// New creates a logger for one run. Each run gets a fresh id that tags the
// lines written to the log file.
func New(opts Options) (*logrus.Logger, error) {
	logger := logrus.New()
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	logger.SetOutput(out)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	logger.SetLevel(logrus.InfoLevel)
	if opts.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	if opts.File != "" {
		book, err := logbook.New(opts.File, uuid.NewString())
		if err != nil {
			return nil, fmt.Errorf("logging: open log file: %w", err)
		}
		logger.AddHook(book)
	}
	return logger, nil
}
