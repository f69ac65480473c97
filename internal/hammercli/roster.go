package hammercli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/KaiSwain/hammer-portfolio-django/internal/apiclient"
	"github.com/KaiSwain/hammer-portfolio-django/internal/roster"
	"github.com/KaiSwain/hammer-portfolio-django/internal/student"
)

func (c *cli) students(ctx context.Context, args []string) error {
	fs := newFlagSet("students")
	search := fs.String("search", "", "filter by name or email")
	if err := fs.Parse(args); err != nil {
		return usageError(err.Error())
	}
	if err := c.requireLogin(); err != nil {
		return err
	}
	list, err := c.api.ListStudents(ctx, c.sess)
	if err != nil {
		return err
	}
	matches := filterStudents(list.Items, *search)
	if len(matches) == 0 {
		c.printf("No students found.\n")
		return nil
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tSTART\tEND\tOSHA 10\tCHANGE")
	for _, st := range matches {
		delta := "-"
		if d, ok := st.ScoreDelta(); ok {
			delta = strconv.Itoa(d)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			st.ID, st.FullName, orDash(st.Email),
			orDash(student.FormatDate(st.StartDate)), orDash(student.FormatDate(st.EndDate)),
			student.YesNo(st.PassedOsha10Exam), delta)
	}
	return tw.Flush()
}

func (c *cli) export(ctx context.Context, args []string) error {
	fs := newFlagSet("export")
	out := fs.String("out", "students.xlsx", "spreadsheet to write")
	if err := fs.Parse(args); err != nil {
		return usageError(err.Error())
	}
	if err := c.requireLogin(); err != nil {
		return err
	}
	list, err := c.api.ListStudents(ctx, c.sess)
	if err != nil {
		return err
	}
	details, err := c.api.Details(ctx, c.sess)
	if err != nil {
		return err
	}
	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	if err := roster.Export(f, list.Items, details); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	c.printf("wrote %d student(s) to %s\n", len(list.Items), *out)
	return nil
}

func (c *cli) importRoster(ctx context.Context, args []string) error {
	fs := newFlagSet("import")
	if err := fs.Parse(args); err != nil {
		return usageError(err.Error())
	}
	if fs.NArg() != 1 {
		return usageError("import <file.xlsx|file.xls>")
	}
	if err := c.requireLogin(); err != nil {
		return err
	}
	path := fs.Arg(0)
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := roster.ReadRows(f, path)
	if err != nil {
		return err
	}
	details, err := c.api.Details(ctx, c.sess)
	if err != nil {
		return err
	}
	parsed, err := roster.Parse(rows, details)
	if err != nil {
		return err
	}
	report, err := roster.Import(ctx, c.api, c.sess, parsed, apiclient.IsUnauthorized)
	c.printf("%s\n", report.Summary())
	return err
}

func filterStudents(list []student.Student, q string) []student.Student {
	if q == "" {
		return list
	}
	var out []student.Student
	for _, st := range list {
		if containsFold(st.FullName, q) || containsFold(st.Email, q) {
			out = append(out, st)
		}
	}
	return out
}
