package cli

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tinselhq/tinsel/internal/client"
)

// sessionDir returns where the CLI persists its session, ~/.tinsel by
// default.
func sessionDir() string {
	if dir := os.Getenv("TINSEL_SESSION_DIR"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".tinsel")
}

// newSession builds the API client and session manager for client commands
// and restores any persisted session.
func newSession() (*client.SessionManager, error) {
	api := client.New(
		viper.GetString("client.server"),
		viper.GetString("auth.api_key"),
		30*time.Second,
	)
	sm := client.NewSessionManager(api, client.NewFileStore(sessionDir()))
	if _, err := sm.Restore(); err != nil {
		return nil, err
	}
	return sm, nil
}

// versionString returns a display version string.
func versionString() string {
	if appVersion == "" || appVersion == "dev" {
		return "dev"
	}
	if strings.HasPrefix(appVersion, "v") {
		return appVersion
	}
	return "v" + appVersion
}
