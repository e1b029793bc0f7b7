// cmd/upload-grades/main.go
//
// upload-grades reads the CSV written by grade-pdfs and sends every grade and
// comment to Canvas, one PUT per student. A failed student is reported and
// the rest of the file is still uploaded.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/kingrea/canvas-grader/internal/config"
	"github.com/kingrea/canvas-grader/internal/logging"
	"github.com/kingrea/canvas-grader/internal/uploader"
)

type options struct {
	course     string
	assignment string
	config     string
	grades     string
	verbose    bool
	logFile    string
}

func parseArgs(args []string) (options, error) {
	var opts options
	flags := pflag.NewFlagSet("upload-grades", pflag.ContinueOnError)
	flags.StringVarP(&opts.course, "course", "s", "", "canvas id of the course (required)")
	flags.StringVarP(&opts.assignment, "assignment", "a", "", "canvas id of the assignment (required)")
	flags.StringVarP(&opts.config, "config", "c", config.DefaultPath, "name of the json config file")
	flags.StringVarP(&opts.grades, "grades", "g", "grades.csv", "name of the csv file from which grades are to be read")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log request urls and canvas responses")
	flags.StringVar(&opts.logFile, "log", "", "also append log lines to this file")
	if err := flags.Parse(args); err != nil {
		return opts, err
	}
	var missing []string
	if strings.TrimSpace(opts.course) == "" {
		missing = append(missing, "--course")
	}
	if strings.TrimSpace(opts.assignment) == "" {
		missing = append(missing, "--assignment")
	}
	if len(missing) > 0 {
		return opts, fmt.Errorf("missing required flags: %v", missing)
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

	log, err := logging.New(logging.Options{Verbose: opts.verbose, File: opts.logFile})
	if err != nil {
		die("%v", err)
	}
	cfg, err := config.Load(opts.config)
	if err != nil {
		die("load config: %v", err)
	}
	if err := cfg.ValidateCanvas(opts.config); err != nil {
		die("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := uploader.Run(ctx, cfg, opts.course, opts.assignment, opts.grades, log)
	if err != nil {
		die("upload grades: %v", err)
	}
	log.Infof("Uploaded %d grades, %d failed", len(summary.Uploaded), len(summary.Failed))
	if len(summary.Failed) > 0 {
		log.Warnf("Re-upload manually or re-run for: %s", strings.Join(summary.Failed, ", "))
		os.Exit(1)
	}
	if ctx.Err() != nil {
		log.Warn("Upload interrupted before every grade was sent")
		os.Exit(1)
	}
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
