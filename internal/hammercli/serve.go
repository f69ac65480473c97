package hammercli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/KaiSwain/hammer-portfolio-django/internal/clientapp"
	"github.com/KaiSwain/hammer-portfolio-django/internal/config"
	"github.com/KaiSwain/hammer-portfolio-django/internal/devapi"
	"github.com/KaiSwain/hammer-portfolio-django/internal/envutil"
	"github.com/KaiSwain/hammer-portfolio-django/internal/security"
)

func runSetup(args []string, out io.Writer) error {
	fs := newFlagSet("setup")
	envPath := fs.String("env-file", ".env", "path to .env file")
	apiURL := fs.String("api-base-url", "http://localhost:8000", "backend base url")
	devPassword := fs.String("devapi-password", "", "teacher password for the dev backend (min 12 chars)")
	force := fs.Bool("force", false, "overwrite existing env file")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return usageError("")
		}
		return usageError(err.Error())
	}

	secret, err := security.RandomSecret(32)
	if err != nil {
		return err
	}
	values := map[string]string{
		"SESSION_SECRET": secret,
		"API_BASE_URL":   *apiURL,
		"CLIENT_ADDR":    ":3000",
		"DEVAPI_ADDR":    ":8000",
	}
	if *devPassword != "" {
		if _, err := security.HashPassword(*devPassword); err != nil {
			return fmt.Errorf("invalid devapi password: %w", err)
		}
		values["DEVAPI_USERNAME"] = "teacher"
		values["DEVAPI_PASSWORD"] = *devPassword
	}
	if err := envutil.WriteDotEnv(*envPath, values, *force); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "wrote %s\n", *envPath)
	return nil
}

func runServers(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return usageError("missing run target: client | devapi | all")
	}
	switch args[0] {
	case "client":
		return runClient(ctx, cfg)
	case "devapi":
		return runDevAPI(ctx, cfg)
	case "all":
		return runAll(ctx, cfg)
	default:
		return usageError(fmt.Sprintf("unknown run target %q", args[0]))
	}
}

func clientConfig(cfg *config.Config) clientapp.Config {
	return clientapp.Config{
		Addr:          cfg.Client.Addr,
		APIBaseURL:    cfg.Client.APIBaseURL,
		APITimeout:    cfg.Client.APITimeout,
		ReadTimeout:   cfg.Client.ReadTimeout,
		WriteTimeout:  cfg.Client.WriteTimeout,
		SessionSecret: cfg.Client.SessionSecret,
		SessionTTL:    cfg.Client.SessionTTL,
		SecureCookies: cfg.Client.SecureCookies,
	}
}

func runClient(ctx context.Context, cfg *config.Config) error {
	if err := cfg.ValidateClient(); err != nil {
		return err
	}
	if err := clientapp.Run(ctx, clientConfig(cfg)); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runDevAPI(ctx context.Context, cfg *config.Config) error {
	if err := cfg.ValidateDevAPI(); err != nil {
		return err
	}
	err := devapi.Run(ctx, devapi.Config{
		Addr:            cfg.DevAPI.Addr,
		TeacherUsername: cfg.DevAPI.TeacherUsername,
		TeacherPassword: cfg.DevAPI.TeacherPassword,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runAll(ctx context.Context, cfg *config.Config) error {
	if err := cfg.ValidateClient(); err != nil {
		return err
	}
	if err := cfg.ValidateDevAPI(); err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() { errCh <- runDevAPI(ctx, cfg) }()
	go func() {
		time.Sleep(300 * time.Millisecond)
		errCh <- runClient(ctx, cfg)
	}()

	var first error
	for i := 0; i < 2; i++ {
		if err := <-errCh; err != nil && first == nil {
			first = err
			cancel()
		}
	}
	return first
}

// RunClient loads configuration the same way the hammer command does and
// serves only the web client.
func RunClient(ctx context.Context, args []string) error {
	fs := newFlagSet("client")
	configPath := fs.String("config", envOr("HAMMER_CONFIG", config.DefaultPath), "path to hammer.yaml")
	envFile := fs.String("env-file", ".env", "path to .env file")
	if err := fs.Parse(args); err != nil {
		return usageError(err.Error())
	}
	if err := envutil.LoadDotEnv(*envFile); err != nil {
		return fmt.Errorf("load %s: %w", *envFile, err)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	configureLogging(cfg)
	return runClient(ctx, cfg)
}
