package logbook

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Level represents the severity of a log entry.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Logbook appends one line per log entry to a text file so a grading or
// upload session can be reviewed afterwards. Each line carries the run id.
type Logbook struct {
	path string
	run  string
	mu   sync.Mutex
}

// New creates a logbook that writes to the provided path.
func New(path, run string) (*Logbook, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &Logbook{path: path, run: run}, nil
}

// Path returns the file backing this logbook.
func (l *Logbook) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Append writes a single entry to the logbook.
func (l *Logbook) Append(level Level, message string) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	line := fmt.Sprintf("%s %-5s [%s] %s\n",
		time.Now().UTC().Format(time.RFC3339),
		string(level),
		l.run,
		strings.TrimSpace(message),
	)
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()
	_, err = file.WriteString(line)
	return err
}

// Levels implements logrus.Hook.
func (l *Logbook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire implements logrus.Hook. Entry fields follow the message as sorted
// key=value pairs.
func (l *Logbook) Fire(entry *logrus.Entry) error {
	message := entry.Message
	if len(entry.Data) > 0 {
		keys := make([]string, 0, len(entry.Data))
		for key := range entry.Data {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		pairs := make([]string, 0, len(keys))
		for _, key := range keys {
			pairs = append(pairs, fmt.Sprintf("%s=%v", key, entry.Data[key]))
		}
		message = message + " " + strings.Join(pairs, " ")
	}
	return l.Append(levelOf(entry.Level), message)
}

func levelOf(level logrus.Level) Level {
	switch {
	case level <= logrus.ErrorLevel:
		return LevelError
	case level == logrus.WarnLevel:
		return LevelWarn
	case level == logrus.InfoLevel:
		return LevelInfo
	}
	return LevelDebug
}
