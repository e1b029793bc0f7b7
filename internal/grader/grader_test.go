package grader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/kingrea/canvas-grader/internal/exception"
	"github.com/kingrea/canvas-grader/internal/roster"
	"github.com/kingrea/canvas-grader/internal/viewer"
)

var errScriptExhausted = errors.New("script exhausted")

// scriptedPrompter answers prompts from a fixed list and records the labels.
type scriptedPrompter struct {
	answers []string
	labels  []string
}

func (p *scriptedPrompter) next(label string) (string, error) {
	p.labels = append(p.labels, label)
	if len(p.answers) == 0 {
		return "", errScriptExhausted
	}
	answer := p.answers[0]
	p.answers = p.answers[1:]
	return answer, nil
}

func (p *scriptedPrompter) Text(_ context.Context, label string) (string, error) {
	return p.next(label)
}

func (p *scriptedPrompter) Confirm(_ context.Context, label string, def bool) (bool, error) {
	answer, err := p.next(label)
	if err != nil {
		return false, err
	}
	if answer == "" {
		return def, nil
	}
	return strings.HasPrefix(strings.ToLower(answer), "y"), nil
}

type fakeSession struct {
	launcher *fakeLauncher
	closed   bool
}

func (s *fakeSession) Close() error {
	if !s.closed {
		s.closed = true
		s.launcher.closed++
	}
	return nil
}

type fakeLauncher struct {
	opened   []string
	closed   int
	sessions []*fakeSession
}

func (l *fakeLauncher) Open(_ context.Context, path string) (viewer.Session, error) {
	l.opened = append(l.opened, filepath.Base(path))
	session := &fakeSession{launcher: l}
	l.sessions = append(l.sessions, session)
	return session, nil
}

type fixture struct {
	grader   *Grader
	launcher *fakeLauncher
	prompter *scriptedPrompter
	hook     *logtest.Hook
}

func newFixture(t *testing.T, answers ...string) fixture {
	t.Helper()
	dir := t.TempDir()
	submissions := filepath.Join(dir, "submissions")
	if err := os.MkdirAll(submissions, 0o755); err != nil {
		t.Fatal(err)
	}
	logger, hook := logtest.NewNullLogger()
	launcher := &fakeLauncher{}
	prompter := &scriptedPrompter{answers: answers}
	return fixture{
		grader: &Grader{
			Submissions: submissions,
			Output:      filepath.Join(dir, "grades.csv"),
			Maximum:     100,
			Launcher:    launcher,
			Prompter:    prompter,
			Log:         logger,
		},
		launcher: launcher,
		prompter: prompter,
		hook:     hook,
	}
}

func (f fixture) addSubmission(t *testing.T, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(f.grader.Submissions, name), []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func (f fixture) output(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(f.grader.Output)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

var jane = roster.StudentRecord{Name: "Jane Doe", ID: "1001", Username: "jdoe3", Section: "A1"}

func TestGradeWithCommentAndScore(t *testing.T) {
	f := newFixture(t, "Good work", "95")
	f.addSubmission(t, "turnitin_1001_report.pdf")

	summary, err := f.grader.Run(context.Background(), []roster.StudentRecord{jane})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := f.output(t); got != "Jane Doe,1001,jdoe3,A1,95,Good work\n" {
		t.Fatalf("unexpected output %q", got)
	}
	if summary.Graded != 1 {
		t.Fatalf("expected one graded student, got %+v", summary)
	}
	if len(f.launcher.opened) != 1 || f.launcher.opened[0] != "turnitin_1001_report.pdf" {
		t.Fatalf("viewer opened %v", f.launcher.opened)
	}
	if f.launcher.closed != 1 {
		t.Fatalf("viewer must be closed after prompting, closed=%d", f.launcher.closed)
	}
	if want := []string{"Comment: ", "Grade (max = 100): "}; strings.Join(f.prompter.labels, "|") != strings.Join(want, "|") {
		t.Fatalf("prompt labels = %q, want %q", f.prompter.labels, want)
	}
}

func TestMissingSubmission(t *testing.T) {
	f := newFixture(t)
	f.addSubmission(t, "turnitin_2002_report.pdf")

	summary, err := f.grader.Run(context.Background(), []roster.StudentRecord{jane})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := f.output(t); got != "Jane Doe,1001,jdoe3,A1,,Submission not found.\n" {
		t.Fatalf("unexpected output %q", got)
	}
	if summary.Missing != 1 || len(f.launcher.opened) != 0 {
		t.Fatalf("expected missing outcome without viewer, got %+v opened=%v", summary, f.launcher.opened)
	}
}

func TestAmbiguousSubmissionWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.addSubmission(t, "a_1001_first.pdf")
	f.addSubmission(t, "b_1001_second.pdf")

	summary, err := f.grader.Run(context.Background(), []roster.StudentRecord{jane})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := f.output(t); got != "" {
		t.Fatalf("expected no rows, got %q", got)
	}
	if summary.Ambiguous != 1 {
		t.Fatalf("expected ambiguous outcome, got %+v", summary)
	}
	last := f.hook.LastEntry()
	if last == nil || last.Level != logrus.WarnLevel || !strings.Contains(last.Message, "More than one pdf") {
		t.Fatalf("expected ambiguity warning, got %+v", last)
	}
}

func TestEmptyCommentUsesMaximumByDefault(t *testing.T) {
	f := newFixture(t, "", "")
	f.grader.Maximum = 12.5
	f.addSubmission(t, "x_1001_y.pdf")

	if _, err := f.grader.Run(context.Background(), []roster.StudentRecord{jane}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := f.output(t); got != "Jane Doe,1001,jdoe3,A1,12.5,\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestEmptyCommentDeclinedLeavesGradeEmpty(t *testing.T) {
	f := newFixture(t, "", "n")
	f.addSubmission(t, "x_1001_y.pdf")

	summary, err := f.grader.Run(context.Background(), []roster.StudentRecord{jane})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := f.output(t); got != "Jane Doe,1001,jdoe3,A1,,\n" {
		t.Fatalf("unexpected output %q", got)
	}
	if summary.Ungraded != 1 {
		t.Fatalf("expected ungraded outcome, got %+v", summary)
	}
}

func TestBlankGradeIsZeroAndInvalidGradeReprompts(t *testing.T) {
	f := newFixture(t, "Late", "ninety", "", "Okay", "7.5")
	f.addSubmission(t, "x_1001_y.pdf")
	john := roster.StudentRecord{Name: "John Roe", ID: "1002", Username: "jroe4", Section: "A1"}
	f.addSubmission(t, "x_1002_y.pdf")

	if _, err := f.grader.Run(context.Background(), []roster.StudentRecord{jane, john}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := "Jane Doe,1001,jdoe3,A1,0,Late\nJohn Roe,1002,jroe4,A1,7.5,Okay\n"
	if got := f.output(t); got != want {
		t.Fatalf("output = %q, want %q", got, want)
	}
}

func TestResumeSkipsStudentsAlreadyGradedByID(t *testing.T) {
	f := newFixture(t, "Fine", "70")
	existing := "Jane Doe,1001,jdoe3,A1,80,Earlier grade\n"
	if err := os.WriteFile(f.grader.Output, []byte(existing), 0o644); err != nil {
		t.Fatal(err)
	}
	f.addSubmission(t, "x_1001_y.pdf")
	john := roster.StudentRecord{Name: "John Roe", ID: "1002", Username: "jroe4", Section: "A1"}
	f.addSubmission(t, "x_1002_y.pdf")

	summary, err := f.grader.Run(context.Background(), []roster.StudentRecord{jane, john})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := existing + "John Roe,1002,jroe4,A1,70,Fine\n"
	if got := f.output(t); got != want {
		t.Fatalf("output = %q, want %q", got, want)
	}
	if summary.AlreadyGraded != 1 || summary.Graded != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if len(f.launcher.opened) != 1 || f.launcher.opened[0] != "x_1002_y.pdf" {
		t.Fatalf("already graded student must not be reopened, opened=%v", f.launcher.opened)
	}
}

func TestViewerClosedWhenPromptFails(t *testing.T) {
	f := newFixture(t, "Needs work")
	f.addSubmission(t, "x_1001_y.pdf")

	_, err := f.grader.Run(context.Background(), []roster.StudentRecord{jane})
	if !errors.Is(err, errScriptExhausted) {
		t.Fatalf("expected prompt error, got %v", err)
	}
	if f.launcher.closed != 1 {
		t.Fatalf("viewer must be closed on error, closed=%d", f.launcher.closed)
	}
	if got := f.output(t); got != "" {
		t.Fatalf("interrupted student must not be written, got %q", got)
	}
}

func TestRunStopsWhenCancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.grader.Run(ctx, []roster.StudentRecord{jane}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestMissingSubmissionsDir(t *testing.T) {
	f := newFixture(t)
	f.grader.Submissions = filepath.Join(t.TempDir(), "nope")
	var accessErr *exception.FileAccessError
	if _, err := f.grader.Run(context.Background(), []roster.StudentRecord{jane}); !errors.As(err, &accessErr) {
		t.Fatalf("expected FileAccessError, got %v", err)
	}
}

func TestFindSubmissionsMatchesIDExactly(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"a_1001_x.pdf", "a_10011_x.pdf", "a_1001_x.txt", "1001_x.pdf", "b_1001_late_2.pdf"} {
		f.addSubmission(t, name)
	}
	matches, err := FindSubmissions(f.grader.Submissions, "1001")
	if err != nil {
		t.Fatalf("FindSubmissions: %v", err)
	}
	var names []string
	for _, m := range matches {
		names = append(names, filepath.Base(m))
	}
	if got := strings.Join(names, ","); got != "a_1001_x.pdf,b_1001_late_2.pdf" {
		t.Fatalf("matches = %s", got)
	}
}
