// Package grader drives the interactive review of PDF submissions: it finds
// each student's file, shows it in a viewer, asks the operator for a comment
// and grade, and appends the result to the grade file.
package grader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/kingrea/canvas-grader/internal/exception"
	"github.com/kingrea/canvas-grader/internal/prompt"
	"github.com/kingrea/canvas-grader/internal/roster"
	"github.com/kingrea/canvas-grader/internal/viewer"
)

// NotFoundComment is recorded for students without a submission.
const NotFoundComment = "Submission not found."

// Outcome describes what happened to one student.
type Outcome int

const (
	OutcomeGraded    Outcome = iota // a grade was recorded
	OutcomeUngraded                 // reviewed, operator declined to record a grade
	OutcomeMissing                  // no matching PDF
	OutcomeAmbiguous                // several matching PDFs, nothing written
)

func (o Outcome) String() string {
	switch o {
	case OutcomeGraded:
		return "graded"
	case OutcomeUngraded:
		return "ungraded"
	case OutcomeMissing:
		return "missing"
	case OutcomeAmbiguous:
		return "ambiguous"
	}
	return "unknown"
}

// Summary counts outcomes for one run. AlreadyGraded counts students skipped
// because the grade file already had them.
type Summary struct {
	Graded        int
	Ungraded      int
	Missing       int
	Ambiguous     int
	AlreadyGraded int
}

func (s *Summary) add(o Outcome) {
	switch o {
	case OutcomeGraded:
		s.Graded++
	case OutcomeUngraded:
		s.Ungraded++
	case OutcomeMissing:
		s.Missing++
	case OutcomeAmbiguous:
		s.Ambiguous++
	}
}

// Grader holds everything one grading session needs.
type Grader struct {
	Submissions string
	Output      string
	Maximum     float64
	Launcher    viewer.Launcher
	Prompter    prompt.Prompter
	Log         logrus.FieldLogger
}

// Run grades students in order. Students whose ID already appears in the
// output file are skipped, so an interrupted session can be resumed.
func (g *Grader) Run(ctx context.Context, students []roster.StudentRecord) (Summary, error) {
	var summary Summary
	info, err := os.Stat(g.Submissions)
	if err != nil {
		return summary, &exception.FileAccessError{Path: g.Submissions, Err: err}
	}
	if !info.IsDir() {
		return summary, &exception.FileAccessError{Path: g.Submissions, Err: errors.New("not a directory")}
	}

	pending, skipped, err := g.pending(students)
	if err != nil {
		return summary, err
	}
	summary.AlreadyGraded = skipped

	out, err := roster.OpenWriter(g.Output, roster.GradeSchema)
	if err != nil {
		return summary, err
	}
	defer out.Close()

	for _, student := range pending {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		rec, outcome, err := g.grade(ctx, student)
		if err != nil {
			return summary, fmt.Errorf("grade %s: %w", student.Name, err)
		}
		summary.add(outcome)
		if outcome == OutcomeAmbiguous {
			continue
		}
		if err := out.Write(rec); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

// pending drops students already present in the output file, matched by ID.
// The first recorded grade wins; a resumed run never adds a second row.
func (g *Grader) pending(students []roster.StudentRecord) ([]roster.StudentRecord, int, error) {
	if _, err := os.Stat(g.Output); errors.Is(err, fs.ErrNotExist) {
		return students, 0, nil
	}
	g.Log.Infof("Existing grade file %s found. Appending to it.", g.Output)
	graded, err := roster.LoadGrades(g.Output)
	if err != nil {
		return nil, 0, err
	}
	seen := make(map[string]struct{}, len(graded))
	for _, rec := range graded {
		seen[rec.ID] = struct{}{}
	}
	pending := make([]roster.StudentRecord, 0, len(students))
	for _, student := range students {
		if _, ok := seen[student.ID]; ok {
			continue
		}
		pending = append(pending, student)
	}
	return pending, len(students) - len(pending), nil
}

func (g *Grader) grade(ctx context.Context, student roster.StudentRecord) (roster.GradeRecord, Outcome, error) {
	rec := roster.GradeRecord{StudentRecord: student}
	pdfs, err := FindSubmissions(g.Submissions, student.ID)
	if err != nil {
		return rec, 0, err
	}
	switch len(pdfs) {
	case 0:
		g.Log.Warnf("No submission found for %q", student.Name)
		rec.Comment = NotFoundComment
		return rec, OutcomeMissing, nil
	case 1:
		g.Log.Infof("Grading submission for %q", student.Name)
		outcome, err := g.review(ctx, pdfs[0], &rec)
		return rec, outcome, err
	default:
		g.Log.WithField("files", pdfs).Warnf("More than one pdf found for %q. Skipping", student.Name)
		return rec, OutcomeAmbiguous, nil
	}
}

// review keeps the viewer open for the whole prompt sequence and closes it
// on every return path.
func (g *Grader) review(ctx context.Context, pdf string, rec *roster.GradeRecord) (Outcome, error) {
	session, err := g.Launcher.Open(ctx, pdf)
	if err != nil {
		return 0, err
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			g.Log.Warnf("Could not close viewer for %s: %v", pdf, closeErr)
		}
	}()

	comment, err := g.Prompter.Text(ctx, "Comment: ")
	if err != nil {
		return 0, err
	}
	rec.Comment = comment
	if comment != "" {
		score, err := g.askScore(ctx)
		if err != nil {
			return 0, err
		}
		rec.SetGrade(score)
		return OutcomeGraded, nil
	}
	useMax, err := g.Prompter.Confirm(ctx, "No comments provided. Use max score? [Y/n] ", true)
	if err != nil {
		return 0, err
	}
	if !useMax {
		g.Log.Info("Not recording grade. Skipping.")
		return OutcomeUngraded, nil
	}
	rec.SetGrade(g.Maximum)
	return OutcomeGraded, nil
}

// askScore repeats the grade prompt until the answer is blank (zero) or a number.
func (g *Grader) askScore(ctx context.Context) (float64, error) {
	label := fmt.Sprintf("Grade (max = %s): ", roster.FormatScore(g.Maximum))
	for {
		answer, err := g.Prompter.Text(ctx, label)
		if err != nil {
			return 0, err
		}
		answer = strings.TrimSpace(answer)
		if answer == "" {
			return 0, nil
		}
		score, err := strconv.ParseFloat(answer, 64)
		if err == nil {
			return score, nil
		}
		g.Log.Warnf("%q is not a number", answer)
	}
}

// FindSubmissions returns the PDFs in dir named like "*_<id>_*.pdf", sorted.
func FindSubmissions(dir, id string) ([]string, error) {
	pattern := filepath.Join(dir, "*_"+escapeGlob(id)+"_*.pdf")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("search submissions for %s: %w", id, err)
	}
	sort.Strings(matches)
	return matches, nil
}

func escapeGlob(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`)
	return replacer.Replace(s)
}
