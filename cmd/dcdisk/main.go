package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dcnetdisk/dcdisk/internal/logger"
	"github.com/dcnetdisk/dcdisk/pkg/config"
	"github.com/dcnetdisk/dcdisk/pkg/disk"
	"github.com/dcnetdisk/dcdisk/pkg/server"
	"github.com/dustin/go-humanize"
)

// Set at build time with -ldflags "-X main.version=...".
var version = "dev"

const usage = `dcdisk - per-user file storage service

Usage:
  dcdisk <command> [flags]

Commands:
  start      Start the server
  init       Write a default configuration file
  user add   Create a user's storage root and print a session token
  version    Print the version

Run 'dcdisk <command> -h' for command flags.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "start":
		err = runStart(args)
	case "init":
		err = runInit(args)
	case "user":
		err = runUser(args)
	case "version":
		fmt.Printf("dcdisk %s\n", version)
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	force := fs.Bool("force", false, "Overwrite an existing config file")
	configPath := fs.String("config", "", "Path of the config file to write (default: "+config.GetDefaultConfigPath()+")")
	_ = fs.Parse(args)

	path := *configPath
	if path == "" {
		var err error
		if path, err = config.InitConfig(*force); err != nil {
			return err
		}
	} else if err := config.InitConfigToPath(path, *force); err != nil {
		return err
	}

	fmt.Printf("Configuration written to %s\n", path)
	fmt.Println("A random JWT secret was generated; keep the file private.")
	return nil
}

// loadConfig loads the config and applies the logging section.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	logger.SetLevel(cfg.Logging.Level)
	logger.SetFormat(cfg.Logging.Format)
	if err := logger.SetOutput(cfg.Logging.Output); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildService creates the stores and the disk service. The returned
// cleanup closes the stores.
func buildService(ctx context.Context, cfg *config.Config, m *config.MetricsResult) (*disk.Service, func(), error) {
	store, err := config.CreateContentStore(ctx, &cfg.Content, m.Content)
	if err != nil {
		return nil, nil, err
	}

	repo, err := config.CreateMetadataStore(ctx, &cfg.Metadata, m.Metadata)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}

	cleanup := func() {
		if err := repo.Close(); err != nil {
			logger.Warn("Closing metadata store: %v", err)
		}
		if err := store.Close(); err != nil {
			logger.Warn("Closing content store: %v", err)
		}
	}

	resolver, err := config.CreateAuthResolver(&cfg.Auth)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	svc, err := disk.NewService(disk.Config{
		Auth:       resolver,
		Store:      store,
		Repository: repo,
		Root:       storeRoot(&cfg.Content),
		Metrics:    m.Disk,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	return svc, cleanup, nil
}

// storeRoot describes where user namespaces live, for log lines.
func storeRoot(cfg *config.ContentConfig) string {
	switch cfg.Type {
	case "s3":
		return fmt.Sprintf("s3://%v", cfg.S3["bucket"])
	case "memory":
		return "memory"
	default:
		return fmt.Sprint(cfg.Filesystem["path"])
	}
}

func runStart(args []string) error {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file (default: "+config.GetDefaultConfigPath()+")")
	_ = fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("dcdisk %s starting", version)
	logger.Info("Content store: %s, metadata store: %s, auth: %s", cfg.Content.Type, cfg.Metadata.Type, cfg.Auth.Type)
	if cfg.HTTP.MaxUploadBytes > 0 {
		logger.Info("Upload limit: %s", humanize.IBytes(uint64(cfg.HTTP.MaxUploadBytes)))
	}

	m := config.InitializeMetrics(cfg)

	svc, cleanup, err := buildService(ctx, cfg, m)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := server.New(svc, cfg.Server.ShutdownTimeout)

	adapters, err := config.CreateAdapters(cfg, m.HTTP)
	if err != nil {
		return err
	}
	for _, a := range adapters {
		if err := srv.AddAdapter(a); err != nil {
			return err
		}
	}

	if m.Server != nil {
		go func() {
			if err := m.Server.Start(ctx); err != nil {
				logger.Error("Metrics server error: %v", err)
			}
		}()
	}

	logger.Info("Server is running. Press Ctrl+C to stop.")

	if err := srv.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("Server stopped gracefully")
	return nil
}

func runUser(args []string) error {
	if len(args) == 0 || args[0] != "add" {
		return fmt.Errorf("usage: dcdisk user add [--config path] <username>")
	}

	fs := flag.NewFlagSet("user add", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file (default: "+config.GetDefaultConfigPath()+")")
	_ = fs.Parse(args[1:])

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: dcdisk user add [--config path] <username>")
	}
	username := fs.Arg(0)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	if err := provisionUser(context.Background(), cfg, username); err != nil {
		return err
	}
	fmt.Printf("Created storage root for %s\n", username)

	if cfg.Auth.Type != "jwt" {
		fmt.Println("auth.type is not jwt; add a token for this user to auth.static.tokens")
		return nil
	}

	issuer, err := config.CreateJWTResolver(&cfg.Auth)
	if err != nil {
		return err
	}
	token, expires, err := issuer.Issue(username)
	if err != nil {
		return fmt.Errorf("failed to issue token: %w", err)
	}

	fmt.Printf("Token (expires %s):\n%s\n", expires.Format("2006-01-02 15:04:05 MST"), token)
	return nil
}

// provisionUser creates the user's storage root. Only the byte store is
// opened: the metadata repository may be locked by a running server.
func provisionUser(ctx context.Context, cfg *config.Config, username string) error {
	store, err := config.CreateContentStore(ctx, &cfg.Content, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("Closing content store: %v", err)
		}
	}()

	resolver := disk.NewResolver(storeRoot(&cfg.Content))
	if err := disk.ProvisionRoot(ctx, store, resolver, username); err != nil {
		return fmt.Errorf("failed to provision %s: %w", username, err)
	}
	return nil
}
