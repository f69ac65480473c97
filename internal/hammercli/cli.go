// Package hammercli is the hammer command: it configures the process, runs
// the web client and the development backend, and drives the backend from a
// terminal.
package hammercli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/KaiSwain/hammer-portfolio-django/internal/apiclient"
	"github.com/KaiSwain/hammer-portfolio-django/internal/config"
	"github.com/KaiSwain/hammer-portfolio-django/internal/envutil"
	"github.com/KaiSwain/hammer-portfolio-django/internal/logger"
	"github.com/KaiSwain/hammer-portfolio-django/internal/session"
)

var (
	ErrUsage = errors.New("usage")
	// ErrSessionExpired replaces any 401 so the user knows to log in again.
	ErrSessionExpired = errors.New("not signed in or session expired; run `hammer login`")
)

const usage = `usage: hammer [-config hammer.yaml] [-env-file .env] <command> [flags] [args]

commands:
  setup     [-force] [-env-file .env] [-devapi-password pw]   write a .env with a fresh session secret
  run       client|devapi|all                                 start the web client and/or the dev backend
  login     [-username name]                                  sign in and keep the token in the session file
  logout                                                      forget the saved token
  students  [-search text]                                    list students
  export    [-out students.xlsx]                              write the roster spreadsheet
  import    <file.xlsx|file.xls>                              create students from a spreadsheet
  certs     [-kinds osha,hammermath] [-all] [-summary] [-bundle] [-out dir] <studentID>
  files     list <studentID>
            upload <studentID> <path>...
            download [-out dir] <studentID> <fileID>
            delete [-yes] <studentID> <fileID>
`

func PrintUsage(w io.Writer) {
	_, _ = io.WriteString(w, usage)
}

func usageError(detail string) error {
	if detail == "" {
		return ErrUsage
	}
	return fmt.Errorf("%w: %s", ErrUsage, detail)
}

// Execute runs one hammer command against the real terminal.
func Execute(args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return run(ctx, args, os.Stdin, os.Stdout)
}

type cli struct {
	cfg  *config.Config
	api  *apiclient.Client
	sess *session.Session
	in   *bufio.Reader
	out  io.Writer
}

func run(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	global := flag.NewFlagSet("hammer", flag.ContinueOnError)
	global.SetOutput(io.Discard)
	configPath := global.String("config", envOr("HAMMER_CONFIG", config.DefaultPath), "path to hammer.yaml")
	envFile := global.String("env-file", ".env", "path to .env file")
	if err := global.Parse(args); err != nil {
		return usageError(err.Error())
	}
	rest := global.Args()
	if len(rest) == 0 {
		return usageError("missing command")
	}

	switch rest[0] {
	case "help", "-h", "--help":
		PrintUsage(out)
		return nil
	case "setup":
		return runSetup(rest[1:], out)
	}

	if err := envutil.LoadDotEnv(*envFile); err != nil {
		return fmt.Errorf("load %s: %w", *envFile, err)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	configureLogging(cfg)

	if rest[0] == "run" {
		return runServers(ctx, cfg, rest[1:])
	}

	c, err := newCLI(cfg, in, out)
	if err != nil {
		return err
	}
	switch rest[0] {
	case "login":
		err = c.login(ctx, rest[1:])
	case "logout":
		err = c.logout()
	case "students":
		err = c.students(ctx, rest[1:])
	case "export":
		err = c.export(ctx, rest[1:])
	case "import":
		err = c.importRoster(ctx, rest[1:])
	case "certs":
		err = c.certs(ctx, rest[1:])
	case "files":
		err = c.files(ctx, rest[1:])
	default:
		return usageError(fmt.Sprintf("unknown command %q", rest[0]))
	}
	if rest[0] != "login" && apiclient.IsUnauthorized(err) {
		return ErrSessionExpired
	}
	return err
}

func newCLI(cfg *config.Config, in io.Reader, out io.Writer) (*cli, error) {
	sess, err := session.New(session.FileStore{Path: cfg.CLI.SessionFile})
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return &cli{
		cfg:  cfg,
		api:  apiclient.New(apiclient.Config{BaseURL: cfg.Client.APIBaseURL, Timeout: cfg.Client.APITimeout}),
		sess: sess,
		in:   bufio.NewReader(in),
		out:  out,
	}, nil
}

// configureLogging keeps stdout for command output; logs go to stderr.
func configureLogging(cfg *config.Config) {
	logger.Configure(logger.Config{
		Level:  logger.ParseLevel(cfg.Logging.Level),
		Pretty: cfg.Logging.Pretty,
		Output: os.Stderr,
		File:   cfg.Logging.File,
	})
}

func (c *cli) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}

func (c *cli) readLine(prompt string) (string, error) {
	c.printf("%s", prompt)
	line, err := c.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (c *cli) requireLogin() error {
	if !c.sess.Authenticated() {
		return ErrSessionExpired
	}
	return nil
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
