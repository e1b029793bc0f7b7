package roster

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kingrea/canvas-grader/internal/exception"
)

// LoadStudents reads a roster file laid out as StudentSchema.
func LoadStudents(path string) ([]StudentRecord, error) {
	records, err := Load(path, StudentSchema)
	if err != nil {
		return nil, err
	}
	students := make([]StudentRecord, 0, len(records))
	for _, rec := range records {
		students = append(students, rec.StudentRecord)
	}
	return students, nil
}

// LoadGrades reads a grade file laid out as GradeSchema.
func LoadGrades(path string) ([]GradeRecord, error) {
	return Load(path, GradeSchema)
}

// Load reads every row of path in file order and keeps the rows whose
// username column is a valid login. Files ending in .xlsx are read from
// their first worksheet; anything else is parsed as CSV.
func Load(path string, schema Schema) ([]GradeRecord, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return loadWorkbook(path, schema)
	}
	return loadCSV(path, schema)
}

func loadCSV(path string, schema Schema) ([]GradeRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &exception.FileAccessError{Path: path, Err: err}
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	var records []GradeRecord
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				return nil, &exception.FormatError{Path: path, Line: parseErr.Line, Reason: "invalid csv", Err: parseErr.Err}
			}
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if len(fields) < schema.Width() {
			line, _ := reader.FieldPos(0)
			return nil, &exception.FormatError{
				Path:   path,
				Line:   line,
				Reason: fmt.Sprintf("%s row has %d fields, want %d", schema, len(fields), schema.Width()),
			}
		}
		if rec, ok := accept(schema, fields); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

// loadWorkbook reads the first sheet of an xlsx roster. Spreadsheet rows drop
// trailing empty cells, so short rows are padded instead of rejected.
func loadWorkbook(path string, schema Schema) ([]GradeRecord, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &exception.FileAccessError{Path: path, Err: err}
	}
	book, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &exception.FormatError{Path: path, Reason: "open workbook", Err: err}
	}
	defer book.Close()

	sheet := book.GetSheetName(0)
	if sheet == "" {
		return nil, &exception.FormatError{Path: path, Reason: "workbook has no sheets"}
	}
	rows, err := book.GetRows(sheet)
	if err != nil {
		return nil, &exception.FormatError{Path: path, Reason: fmt.Sprintf("read sheet %s", sheet), Err: err}
	}
	var records []GradeRecord
	for _, row := range rows {
		for len(row) < schema.Width() {
			row = append(row, "")
		}
		if rec, ok := accept(schema, row); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

func accept(schema Schema, fields []string) (GradeRecord, bool) {
	rec := schema.parse(fields)
	if !ValidUsername(rec.Username) {
		return GradeRecord{}, false
	}
	return rec, true
}
