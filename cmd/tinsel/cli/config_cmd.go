package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tinselhq/tinsel/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage Tinsel configuration",
		Long:  "Initialize a default configuration file or display the current effective configuration.",
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

// ---------- config init ----------

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a default tinsel.yaml configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing config file")

	return cmd
}

const defaultConfigFile = `# Tinsel Configuration

server:
  host: 0.0.0.0
  port: 8080
  cors_origins:
    - "*"

# Authentication. All three secrets are required; prefer env vars:
#   TINSEL_AUTH_ACCESS_PASSWORD, TINSEL_AUTH_JWT_SECRET, TINSEL_AUTH_API_KEY
auth:
  access_password: ""
  jwt_secret: ""
  api_key: ""

# Rate limiting. Login attempts are capped at 5 per window per IP.
rate_limit:
  login_window: 60s
  api_max: 30
  api_window: 60s

# The n8n workflow that generates and sends the actual email.
webhook:
  url: ""       # or TINSEL_WEBHOOK_URL
  secret: ""    # sent as X-N8N-SECRET when set
  timeout: 10s

# Batch log storage. sqlite needs no setup; dsn is a data directory
# (empty means in-memory). For postgres, dsn is a connection string.
store:
  driver: sqlite
  dsn: ""
`

func runConfigInit(force bool) error {
	path := "tinsel.yaml"

	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	if err := os.WriteFile(path, []byte(defaultConfigFile), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Created %s\n", path)
	fmt.Println("Set the auth secrets and webhook URL, then run 'tinsel serve'.")
	return nil
}

// ---------- config show ----------

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd)
		},
	}
}

func runConfigShow(cmd *cobra.Command) error {
	initConfig()

	out := cmd.OutOrStdout()
	if configFile := viper.ConfigFileUsed(); configFile != "" {
		fmt.Fprintf(out, "Config file: %s\n\n", configFile)
	} else {
		fmt.Fprint(out, "Config file: (none found, using defaults)\n\n")
	}

	cfg, err := config.Load()
	if err != nil {
		// Show what is set even when required values are missing.
		fmt.Fprintf(out, "Warning: %v\n\n", err)
		cfg = &config.Config{}
	}

	redacted := *cfg
	redacted.Auth.AccessPassword = redact(cfg.Auth.AccessPassword)
	redacted.Auth.JWTSecret = redact(cfg.Auth.JWTSecret)
	redacted.Auth.APIKey = redact(cfg.Auth.APIKey)
	redacted.Webhook.Secret = redact(cfg.Webhook.Secret)

	data, err := yaml.Marshal(&redacted)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	fmt.Fprint(out, string(data))
	return nil
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "(set)"
}
