// Package canvas talks to the Canvas LMS REST API.
package canvas

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/resty.v1"
)

const (
	fieldPostedGrade = "submission[posted_grade]"
	fieldTextComment = "comment[text_comment]"
)

// Submission is the grade and comment for one student's assignment submission.
type Submission struct {
	StudentID string
	Grade     string
	Comment   string
}

// Client posts grades to Canvas.
type Client interface {
	PutGrade(ctx context.Context, courseID, assignmentID string, sub Submission) error
}

// HTTPError is returned when Canvas answers with a non-2xx status.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("canvas responded %s", e.Status)
	}
	return fmt.Sprintf("canvas responded %s: %s", e.Status, e.Body)
}

// NewClient builds a Client for baseURL (scheme and host, no path) that
// authenticates every request with the bearer token.
func NewClient(baseURL, accessToken string, log logrus.FieldLogger) Client {
	baseURL = strings.TrimRight(baseURL, "/")
	client := resty.New().SetAuthToken(accessToken)
	if parsed, err := url.Parse(baseURL); err != nil {
		log.Errorf("Can't parse canvas url: %v", err)
	} else if host := parsed.Hostname(); host != "" {
		client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(host))
	}
	return &restClient{baseURL: baseURL, client: client, log: log}
}

type restClient struct {
	baseURL string
	client  *resty.Client
	log     logrus.FieldLogger
}

// PutGrade issues PUT /api/v1/courses/:course_id/assignments/:assignment_id/submissions/:user_id.
// The comment field is only sent when there is a comment.
func (c *restClient) PutGrade(ctx context.Context, courseID, assignmentID string, sub Submission) error {
	target := SubmissionURL(c.baseURL, courseID, assignmentID, sub.StudentID)
	c.log.Debugf("url: %s", target)

	resp, err := c.client.R().
		SetContext(ctx).
		SetFormData(FormData(sub)).
		Put(target)
	if err != nil {
		return fmt.Errorf("put grade for %s: %w", sub.StudentID, err)
	}
	c.log.Debugf("result of put grade: %s", resp.String())
	if !resp.IsSuccess() {
		return &HTTPError{StatusCode: resp.StatusCode(), Status: resp.Status(), Body: strings.TrimSpace(resp.String())}
	}
	return nil
}

// SubmissionURL is the grade endpoint for one student.
func SubmissionURL(baseURL, courseID, assignmentID, studentID string) string {
	return fmt.Sprintf("%s/api/v1/courses/%s/assignments/%s/submissions/%s",
		strings.TrimRight(baseURL, "/"),
		url.PathEscape(courseID),
		url.PathEscape(assignmentID),
		url.PathEscape(studentID),
	)
}

// FormData is the form body for sub.
func FormData(sub Submission) map[string]string {
	data := map[string]string{fieldPostedGrade: sub.Grade}
	if sub.Comment != "" {
		data[fieldTextComment] = sub.Comment
	}
	return data
}
