// Package uploader pushes a grade file to Canvas one record at a time.
package uploader

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/kingrea/canvas-grader/internal/canvas"
	"github.com/kingrea/canvas-grader/internal/config"
	"github.com/kingrea/canvas-grader/internal/roster"
)

// Summary lists the students whose upload succeeded or failed, by name.
type Summary struct {
	Uploaded []string
	Failed   []string
}

// Uploader sends grades for one assignment.
type Uploader struct {
	Client     canvas.Client
	Course     string
	Assignment string
	Log        logrus.FieldLogger
}

// Upload sends every record. A failed record is logged and the loop moves on;
// only context cancellation stops the batch early.
func (u *Uploader) Upload(ctx context.Context, records []roster.GradeRecord) Summary {
	var summary Summary
	for _, rec := range records {
		if ctx.Err() != nil {
			break
		}
		err := u.Client.PutGrade(ctx, u.Course, u.Assignment, canvas.Submission{
			StudentID: rec.ID,
			Grade:     rec.Grade,
			Comment:   rec.Comment,
		})
		if err != nil {
			u.Log.WithError(err).Warnf("Failed to upload grade for %s", rec.Name)
			summary.Failed = append(summary.Failed, rec.Name)
			continue
		}
		u.Log.Infof("Successfully uploaded grade for %s", rec.Name)
		summary.Uploaded = append(summary.Uploaded, rec.Name)
	}
	return summary
}

// Run loads the grade file and uploads it with credentials from cfg.
func Run(ctx context.Context, cfg *config.Config, course, assignment, gradesPath string, log logrus.FieldLogger) (Summary, error) {
	records, err := roster.LoadGrades(gradesPath)
	if err != nil {
		return Summary{}, err
	}
	log.Infof("Uploading %d grades from %s", len(records), gradesPath)
	u := &Uploader{
		Client:     canvas.NewClient(cfg.BaseURL(), cfg.Canvas.AccessToken, log),
		Course:     course,
		Assignment: assignment,
		Log:        log,
	}
	return u.Upload(ctx, records), nil
}
