package hammercli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaiSwain/hammer-portfolio-django/internal/certgen"
)

func (c *cli) certs(ctx context.Context, args []string) error {
	fs := newFlagSet("certs")
	kinds := fs.String("kinds", "", "comma separated kinds (default osha,hammermath)")
	all := fs.Bool("all", false, "request the combined document instead")
	summary := fs.Bool("summary", false, "request the AI personality summary instead")
	bundle := fs.Bool("bundle", false, "pack the certificates into one .tar.xz")
	outDir := fs.String("out", c.cfg.CLI.OutputDir, "directory to save into")
	if err := fs.Parse(args); err != nil {
		return usageError(err.Error())
	}
	if fs.NArg() != 1 {
		return usageError("certs [flags] <studentID>")
	}
	id, err := parseID(fs.Arg(0))
	if err != nil {
		return err
	}
	if err := c.requireLogin(); err != nil {
		return err
	}
	st, err := c.api.GetStudent(ctx, c.sess, id)
	if err != nil {
		return err
	}

	dir := certgen.DirSink{Dir: *outDir}
	switch {
	case *all:
		f, err := certgen.NewTrigger(c.api, dir).GenerateAll(ctx, c.sess, st)
		if err != nil {
			return err
		}
		c.printf("saved %s\n", filepath.Join(*outDir, f.Name))
		return nil
	case *summary:
		f, err := certgen.NewTrigger(c.api, dir).GenerateSummary(ctx, c.sess, st)
		if err != nil {
			return err
		}
		c.printf("saved %s\n", filepath.Join(*outDir, f.Name))
		return nil
	}

	sel := certgen.DefaultSelection()
	if strings.TrimSpace(*kinds) != "" {
		sel = certgen.Selection{}
		for _, raw := range strings.Split(*kinds, ",") {
			k, err := certgen.ParseKind(raw)
			if err != nil {
				return err
			}
			sel[k] = true
		}
	}

	var sink certgen.Sink = dir
	mem := &certgen.MemorySink{}
	if *bundle {
		sink = mem
	}
	results, err := certgen.NewTrigger(c.api, sink).GenerateSelected(ctx, c.sess, st, sel)
	if err != nil {
		return err
	}
	for _, res := range results.Failed() {
		if errors.Is(res.Err, context.Canceled) {
			return res.Err
		}
	}
	ok := results.Succeeded()
	if *bundle && len(ok) > 0 {
		path, err := writeBundle(*outDir, st.FileStem()+"_certificates.tar.xz", mem.Files())
		if err != nil {
			return err
		}
		c.printf("saved %s\n", path)
	} else {
		for _, res := range ok {
			c.printf("saved %s\n", filepath.Join(*outDir, res.File.Name))
		}
	}
	c.printf("%s\n", results.Summary())
	if len(ok) == 0 {
		return errors.New("no certificates were generated")
	}
	return nil
}

func writeBundle(dir, name string, files []certgen.File) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := certgen.WriteBundle(f, files); err != nil {
		_ = f.Close()
		return "", err
	}
	return path, f.Close()
}
