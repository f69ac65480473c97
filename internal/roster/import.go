package roster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/KaiSwain/hammer-portfolio-django/internal/session"
	"github.com/KaiSwain/hammer-portfolio-django/internal/student"
	"github.com/KaiSwain/hammer-portfolio-django/internal/studentform"
)

var (
	ErrNoSheet    = errors.New("no worksheet found")
	ErrEmptySheet = errors.New("worksheet is empty")
	ErrNoNameCol  = errors.New("header row has no full name column")
)

// ReadRows returns every row of the first worksheet. Legacy .xls files go
// through extrame/xls, everything else through excelize.
func ReadRows(r io.Reader, filename string) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xls":
		book, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
		if err != nil {
			return nil, err
		}
		if book.NumSheets() == 0 {
			return nil, ErrNoSheet
		}
		rows := book.ReadAllCells(100000)
		if len(rows) == 0 {
			return nil, ErrEmptySheet
		}
		return rows, nil
	default:
		file, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer func() { _ = file.Close() }()
		sheet := file.GetSheetName(0)
		if sheet == "" {
			return nil, ErrNoSheet
		}
		rows, err := file.GetRows(sheet)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, ErrEmptySheet
		}
		return rows, nil
	}
}

// Row is one parsed spreadsheet line. Line is 1-based as shown in Excel.
type Row struct {
	Line    int
	Name    string
	Payload studentform.Payload
	Errors  map[string]string
}

func (r Row) Valid() bool {
	return len(r.Errors) == 0
}

// Parse maps the header row to form fields by name or label and runs each
// data row through the same validation as the wizard. Blank lines are skipped.
func Parse(rows [][]string, details student.Details) ([]Row, error) {
	if len(rows) == 0 {
		return nil, ErrEmptySheet
	}
	columns := map[int]studentform.Field{}
	for idx, h := range rows[0] {
		if f, ok := matchHeader(h); ok {
			columns[idx] = f
		}
	}
	hasName := false
	for _, f := range columns {
		if f.Name == "full_name" {
			hasName = true
		}
	}
	if !hasName {
		return nil, ErrNoNameCol
	}

	var out []Row
	for i, raw := range rows[1:] {
		if blankRow(raw) {
			continue
		}
		form := studentform.New()
		row := Row{Line: i + 2, Errors: map[string]string{}}
		for idx, f := range columns {
			value := cellValue(raw, idx)
			if value == "" {
				continue
			}
			switch f.Kind {
			case studentform.KindDate:
				if t, ok := student.ParseDate(value); ok {
					value = t.Format("2006-01-02")
				}
			case studentform.KindRef:
				id, ok := resolveRef(details, f.Lookup, value)
				if !ok {
					row.Errors[f.Name] = fmt.Sprintf("%s %q is not a known option.", f.Label, value)
					continue
				}
				value = strconv.FormatInt(id, 10)
			case studentform.KindScore:
				if n, err := strconv.ParseFloat(value, 64); err == nil && n == float64(int(n)) {
					value = strconv.Itoa(int(n))
				}
			}
			_ = form.SetField(f.Name, value)
		}
		row.Name = strings.TrimSpace(form.Text("full_name"))
		if !form.Validate() {
			for k, v := range form.Errors() {
				if _, exists := row.Errors[k]; !exists {
					row.Errors[k] = v
				}
			}
		}
		if row.Valid() {
			row.Payload = form.BuildSubmissionPayload()
		}
		out = append(out, row)
	}
	return out, nil
}

func matchHeader(header string) (studentform.Field, bool) {
	needle := normalizeHeader(header)
	if needle == "" {
		return studentform.Field{}, false
	}
	for _, f := range studentform.Fields() {
		if needle == normalizeHeader(f.Name) || needle == normalizeHeader(f.Label) || needle == normalizeHeader(f.PayloadKey()) {
			return f, true
		}
	}
	if needle == "name" || needle == "student" {
		f, _ := studentform.FieldByName("full_name")
		return f, true
	}
	return studentform.Field{}, false
}

func normalizeHeader(header string) string {
	h := strings.ToLower(strings.TrimSpace(header))
	h = strings.ReplaceAll(h, "_", " ")
	return strings.Join(strings.Fields(h), " ")
}

func resolveRef(details student.Details, lookup, value string) (int64, bool) {
	opts := details.Options(lookup)
	if id, err := strconv.ParseInt(value, 10, 64); err == nil {
		for _, o := range opts {
			if o.ID == id {
				return id, true
			}
		}
		return 0, false
	}
	for _, o := range opts {
		if strings.EqualFold(strings.TrimSpace(o.Label), value) {
			return o.ID, true
		}
	}
	return 0, false
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Creator is the slice of the API client an import needs.
type Creator interface {
	CreateStudent(ctx context.Context, sess *session.Session, payload any) (student.Student, error)
}

// LineError explains why one line was not imported.
type LineError struct {
	Line    int
	Name    string
	Message string
}

type Report struct {
	Created []student.Student
	Skipped []LineError
}

// Summary is one line per skipped row, prefixed by a count line.
func (r Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d student(s) imported, %d skipped.", len(r.Created), len(r.Skipped))
	for _, s := range r.Skipped {
		fmt.Fprintf(&b, "\nrow %d (%s): %s", s.Line, displayName(s.Name), s.Message)
	}
	return b.String()
}

func displayName(name string) string {
	if name == "" {
		return "-"
	}
	return name
}

// Import creates each valid row in order. Invalid rows and rejected creates
// are reported; the first unauthorized or cancelled call stops the run.
func Import(ctx context.Context, api Creator, sess *session.Session, rows []Row, stop func(error) bool) (Report, error) {
	var rep Report
	for _, row := range rows {
		if !row.Valid() {
			rep.Skipped = append(rep.Skipped, LineError{Line: row.Line, Name: row.Name, Message: joinErrors(row.Errors)})
			continue
		}
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		created, err := api.CreateStudent(ctx, sess, row.Payload)
		if err != nil {
			if stop != nil && stop(err) {
				return rep, err
			}
			rep.Skipped = append(rep.Skipped, LineError{Line: row.Line, Name: row.Name, Message: err.Error()})
			continue
		}
		rep.Created = append(rep.Created, created)
	}
	return rep, nil
}

func joinErrors(errs map[string]string) string {
	var parts []string
	for _, f := range studentform.Fields() {
		if msg, ok := errs[f.Name]; ok {
			parts = append(parts, msg)
		}
	}
	return strings.Join(parts, " ")
}
