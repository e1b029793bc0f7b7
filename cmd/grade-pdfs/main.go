// cmd/grade-pdfs/main.go
//
// grade-pdfs walks a directory of PDF submissions downloaded from Canvas,
// opens each one in a viewer and records the grader's comment and score in
// a CSV file that upload-grades can send back to Canvas.
//
// Re-running with the same --grades file resumes where the last run stopped.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/kingrea/canvas-grader/internal/config"
	"github.com/kingrea/canvas-grader/internal/grader"
	"github.com/kingrea/canvas-grader/internal/logging"
	"github.com/kingrea/canvas-grader/internal/prompt"
	"github.com/kingrea/canvas-grader/internal/roster"
	"github.com/kingrea/canvas-grader/internal/viewer"
)

type options struct {
	submissions string
	maximum     float64
	roster      string
	grades      string
	config      string
	configSet   bool
	plain       bool
	logFile     string
}

func parseArgs(args []string) (options, error) {
	var opts options
	flags := pflag.NewFlagSet("grade-pdfs", pflag.ContinueOnError)
	flags.StringVarP(&opts.submissions, "submissions", "s", "", "name of the directory which contains all the PDF submissions (required)")
	flags.Float64VarP(&opts.maximum, "maximum", "m", 0, "max score used when no comments provided (required)")
	flags.StringVarP(&opts.roster, "csv", "c", "roster.csv", "name of the csv (or xlsx) file from which the student information is read")
	flags.StringVarP(&opts.grades, "grades", "g", "grades.csv", "name of the csv file to which the student information is written")
	flags.StringVar(&opts.config, "config", config.DefaultPath, "json config file; its viewer.command replaces the default PDF viewer")
	flags.BoolVar(&opts.plain, "plain", false, "read answers as plain lines even on a terminal")
	flags.StringVar(&opts.logFile, "log", "", "also append log lines to this file")
	if err := flags.Parse(args); err != nil {
		return opts, err
	}
	opts.configSet = flags.Changed("config")
	var missing []string
	if !flags.Changed("submissions") {
		missing = append(missing, "--submissions")
	}
	if !flags.Changed("maximum") {
		missing = append(missing, "--maximum")
	}
	if len(missing) > 0 {
		return opts, fmt.Errorf("missing required flags: %v", missing)
	}
	if opts.maximum < 0 {
		return opts, fmt.Errorf("--maximum must not be negative, got %v", opts.maximum)
	}
	return opts, nil
}

func main() {
	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	log, err := logging.New(logging.Options{File: opts.logFile})
	if err != nil {
		die("%v", err)
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		die("load config: %v", err)
	}
	launcher := viewer.NewCommand(cfg.Viewer.Command)
	if err := launcher.Check(); err != nil {
		die("%v", err)
	}
	students, err := roster.LoadStudents(opts.roster)
	if err != nil {
		die("load roster: %v", err)
	}
	log.Infof("Loaded %d students from %s", len(students), opts.roster)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g := &grader.Grader{
		Submissions: opts.submissions,
		Output:      opts.grades,
		Maximum:     opts.maximum,
		Launcher:    launcher,
		Prompter:    newPrompter(opts.plain),
		Log:         log,
	}
	summary, err := g.Run(ctx, students)
	logSummary(log, summary)
	if err != nil {
		if interrupted(err) {
			log.Warnf("Grading interrupted. Graded students are saved in %s; run again to resume.", opts.grades)
			os.Exit(1)
		}
		die("grade submissions: %v", err)
	}
}

// loadConfig tolerates a missing default config.json; the grader only needs
// it to override the viewer.
func loadConfig(opts options) (*config.Config, error) {
	cfg, err := config.Load(opts.config)
	if err != nil {
		if !opts.configSet && errors.Is(err, fs.ErrNotExist) {
			return config.Default(), nil
		}
		return nil, err
	}
	return cfg, nil
}

func newPrompter(plain bool) prompt.Prompter {
	if !plain && term.IsTerminal(int(os.Stdin.Fd())) {
		return prompt.NewTUI(os.Stdin, os.Stdout)
	}
	return prompt.NewLine(os.Stdin, os.Stdout)
}

func interrupted(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, prompt.ErrInterrupted) ||
		errors.Is(err, io.EOF)
}

func logSummary(log logrus.FieldLogger, s grader.Summary) {
	log.WithFields(logrus.Fields{
		"graded":         s.Graded,
		"ungraded":       s.Ungraded,
		"missing":        s.Missing,
		"ambiguous":      s.Ambiguous,
		"already_graded": s.AlreadyGraded,
	}).Info("Grading finished")
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
