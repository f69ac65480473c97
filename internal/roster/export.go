// Package roster moves student records in and out of spreadsheets.
package roster

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/KaiSwain/hammer-portfolio-django/internal/student"
	"github.com/KaiSwain/hammer-portfolio-django/internal/studentform"
)

const SheetName = "Students"

// Columns is the export header: the record id followed by every form field.
func Columns() []string {
	cols := []string{"ID"}
	for _, f := range studentform.Fields() {
		cols = append(cols, f.Label)
	}
	return cols
}

// Export writes one row per student. Lookups are written by label so the
// sheet reads well and can be imported back.
func Export(w io.Writer, students []student.Student, details student.Details) error {
	file := excelize.NewFile()
	defer func() { _ = file.Close() }()

	if err := file.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}
	header := make([]any, 0, len(Columns()))
	for _, c := range Columns() {
		header = append(header, c)
	}
	if err := file.SetSheetRow(SheetName, "A1", &header); err != nil {
		return err
	}
	bold, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(header))
	if err := file.SetCellStyle(SheetName, "A1", lastCol+"1", bold); err != nil {
		return err
	}
	if err := file.SetColWidth(SheetName, "B", lastCol, 18); err != nil {
		return err
	}

	for i, st := range students {
		row := rowFor(st, details)
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := file.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("row %d: %w", i+2, err)
		}
	}
	if err := file.SetPanes(SheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return err
	}
	_, err = file.WriteTo(w)
	return err
}

func rowFor(st student.Student, details student.Details) []any {
	form := studentform.FromStudent(st)
	row := []any{st.ID}
	for _, f := range studentform.Fields() {
		switch f.Kind {
		case studentform.KindBool:
			row = append(row, student.YesNo(form.Flag(f.Name)))
		case studentform.KindScore:
			if n, err := strconv.Atoi(form.Text(f.Name)); err == nil {
				row = append(row, n)
			} else {
				row = append(row, "")
			}
		case studentform.KindRef:
			id, _ := strconv.ParseInt(form.Text(f.Name), 10, 64)
			row = append(row, details.Label(f.Lookup, id))
		default:
			row = append(row, form.Text(f.Name))
		}
	}
	return row
}
