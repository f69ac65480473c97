package hammercli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/KaiSwain/hammer-portfolio-django/internal/filework"
	"github.com/KaiSwain/hammer-portfolio-django/internal/student"
)

func (c *cli) files(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("files list|upload|download|delete ...")
	}
	if err := c.requireLogin(); err != nil {
		return err
	}
	switch args[0] {
	case "list":
		return c.listFiles(ctx, args[1:])
	case "upload":
		return c.uploadFiles(ctx, args[1:])
	case "download":
		return c.downloadFile(ctx, args[1:])
	case "delete":
		return c.deleteFile(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown files action %q", args[0]))
	}
}

func (c *cli) listFiles(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("files list <studentID>")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	files, err := filework.New(c.api, id, filework.DefaultPolicy()).Refresh(ctx, c.sess)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		c.printf("No files uploaded yet.\n")
		return nil
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSIZE\tUPLOADED\tBY")
	for _, f := range files {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", f.ID, f.OriginalFilename, f.SizeDisplay(),
			orDash(student.FormatDateTime(f.UploadedAt)), orDash(f.UploadedByName))
	}
	return tw.Flush()
}

func (c *cli) uploadFiles(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usageError("files upload <studentID> <path>...")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	uploads := make([]filework.Upload, 0, len(args)-1)
	for _, p := range args[1:] {
		up, err := filework.FromPath(p)
		if err != nil {
			return err
		}
		uploads = append(uploads, up)
	}
	report, err := filework.New(c.api, id, filework.DefaultPolicy()).UploadBatch(ctx, c.sess, uploads)
	c.printf("%s\n", report.Summary())
	if err != nil {
		return err
	}
	for _, f := range report.Failures {
		if errors.Is(f.Err, context.Canceled) {
			return f.Err
		}
	}
	return nil
}

func (c *cli) downloadFile(ctx context.Context, args []string) error {
	fs := newFlagSet("download")
	outDir := fs.String("out", c.cfg.CLI.OutputDir, "directory to save into")
	if err := fs.Parse(args); err != nil {
		return usageError(err.Error())
	}
	if fs.NArg() != 2 {
		return usageError("files download [-out dir] <studentID> <fileID>")
	}
	id, err := parseID(fs.Arg(0))
	if err != nil {
		return err
	}
	fileID, err := parseID(fs.Arg(1))
	if err != nil {
		return err
	}
	dl, err := filework.New(c.api, id, filework.DefaultPolicy()).Download(ctx, c.sess, fileID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(*outDir, filepath.Base(dl.Filename))
	if err := os.WriteFile(path, dl.Data, 0o644); err != nil {
		return err
	}
	c.printf("saved %s\n", path)
	return nil
}

func (c *cli) deleteFile(ctx context.Context, args []string) error {
	fs := newFlagSet("delete")
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return usageError(err.Error())
	}
	if fs.NArg() != 2 {
		return usageError("files delete [-yes] <studentID> <fileID>")
	}
	id, err := parseID(fs.Arg(0))
	if err != nil {
		return err
	}
	fileID, err := parseID(fs.Arg(1))
	if err != nil {
		return err
	}
	work := filework.New(c.api, id, filework.DefaultPolicy())
	files, err := work.Refresh(ctx, c.sess)
	if err != nil {
		return err
	}
	var target *student.File
	for i := range files {
		if files[i].ID == fileID {
			target = &files[i]
		}
	}
	if target == nil {
		return fmt.Errorf("file %d not found for student %d", fileID, id)
	}

	confirm := filework.ConfirmFunc(func(prompt string) bool {
		if *yes {
			return true
		}
		answer, err := c.readLine(prompt + " [y/N]: ")
		if err != nil {
			return false
		}
		switch strings.ToLower(answer) {
		case "y", "yes":
			return true
		}
		return false
	})
	err = work.Delete(ctx, c.sess, *target, confirm)
	if errors.Is(err, filework.ErrCancelled) {
		c.printf("Cancelled\n")
		return nil
	}
	if err != nil {
		return err
	}
	c.printf("Deleted %s\n", target.OriginalFilename)
	return nil
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, usageError(fmt.Sprintf("invalid id %q", raw))
	}
	return id, nil
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(strings.TrimSpace(sub)))
}
