// Package roster reads student rosters and grade files exported from Canvas
// and appends grade records to the grade file.
package roster

import (
	"regexp"
	"strconv"
)

// usernamePattern matches institutional logins such as "jdoe3" or "gburdell42a".
// Header rows and malformed entries never match.
var usernamePattern = regexp.MustCompile(`^[a-z]+[0-9]+[a-z]?$`)

// Schema fixes the column order of a roster or grade file.
type Schema int

const (
	// StudentSchema is the roster layout: name,id,username,section.
	StudentSchema Schema = iota
	// GradeSchema is the grade file layout: the roster columns plus grade,comment.
	GradeSchema
)

// Columns returns the column names in file order.
func (s Schema) Columns() []string {
	cols := []string{"name", "id", "username", "section"}
	if s == GradeSchema {
		cols = append(cols, "grade", "comment")
	}
	return cols
}

// Width is the number of fields every row must carry.
func (s Schema) Width() int {
	return len(s.Columns())
}

func (s Schema) String() string {
	if s == GradeSchema {
		return "grades"
	}
	return "roster"
}

// StudentRecord is one student as listed in the LMS export.
type StudentRecord struct {
	Name     string
	ID       string
	Username string
	Section  string
}

// GradeRecord is a student plus the grade and comment assigned during review.
// Grade is empty when no grade was recorded.
type GradeRecord struct {
	StudentRecord
	Grade   string
	Comment string
}

// SetGrade stores score using the shortest decimal form ("95", "87.5").
func (r *GradeRecord) SetGrade(score float64) {
	r.Grade = FormatScore(score)
}

// FormatScore renders a numeric score the way it is written to the grade file.
func FormatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}

// ValidUsername reports whether username looks like a real student login.
func ValidUsername(username string) bool {
	return usernamePattern.MatchString(username)
}

func (s Schema) row(rec GradeRecord) []string {
	fields := []string{rec.Name, rec.ID, rec.Username, rec.Section}
	if s == GradeSchema {
		fields = append(fields, rec.Grade, rec.Comment)
	}
	return fields
}

func (s Schema) parse(fields []string) GradeRecord {
	rec := GradeRecord{
		StudentRecord: StudentRecord{
			Name:     fields[0],
			ID:       fields[1],
			Username: fields[2],
			Section:  fields[3],
		},
	}
	if s == GradeSchema {
		rec.Grade = fields[4]
		rec.Comment = fields[5]
	}
	return rec
}
