package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tinselhq/tinsel/internal/config"
	"github.com/tinselhq/tinsel/internal/server"
	"github.com/tinselhq/tinsel/internal/service"
	"github.com/tinselhq/tinsel/internal/store"
	"github.com/tinselhq/tinsel/internal/webhook"
)

const banner = `
 _____ _               _
|_   _(_)_ _  ___ ___ | |
  | | | | ' \(_-</ -_)| |
  |_| |_|_||_/__/\___||_|
`

func newServeCmd() *cobra.Command {
	var (
		port    int
		host    string
		noUI    bool
		dev     bool
		logJSON bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Tinsel server",
		Long:  "Start the HTTP server that exposes the holiday email form, the API and the batch log.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(noUI, dev, logJSON)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP listen port")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().BoolVar(&noUI, "no-ui", false, "Disable the embedded form UI")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable development mode (verbose logging)")
	cmd.Flags().BoolVar(&logJSON, "log-json", false, "Emit logs as JSON")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe(noUI, dev, logJSON bool) error {
	fmt.Print(banner)
	fmt.Println()

	logLevel := slog.LevelInfo
	if dev {
		logLevel = slog.LevelDebug
	}
	logger := newLogger(os.Stderr, logLevel, logJSON)

	// Missing secrets abort here, before anything listens.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	st, err := store.New(cfg.Store)
	if err != nil {
		return fmt.Errorf("init batch store: %w", err)
	}
	logger.Info("batch store initialized", "driver", cfg.Store.Driver)

	authSvc := service.NewAuthService(cfg.Auth, logger)
	wh := webhook.NewClient(cfg.Webhook)
	dispatcher := service.NewDispatcher(wh, st, logger)

	srvCfg := server.Config{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ShutdownTimeout: 30 * time.Second,
		CORSOrigins:     cfg.Server.CORSOrigins,
		EnableUI:        !noUI,
		Version:         versionString(),
		APIKey:          cfg.Auth.APIKey,
		RateLimit:       cfg.RateLimit,
	}

	srv := server.New(srvCfg, st, authSvc, dispatcher, logger)

	fmt.Printf("→ Tinsel %s\n", versionString())
	fmt.Printf("→ Listening on http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	if !noUI {
		fmt.Printf("→ Form:    http://%s:%d/\n", cfg.Server.Host, cfg.Server.Port)
	}
	fmt.Printf("→ OpenAPI: http://%s:%d/openapi.json\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("→ Health:  http://%s:%d/healthz\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()

	return srv.ListenAndServe()
}

func newLogger(w io.Writer, level slog.Level, logJSON bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if logJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
