// Command ticketdesk is a terminal client for the helpdesk backend:
// live ticket lists, conversations, and notifications over REST plus a
// websocket push channel, with a local cache for instant startup.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/ticket-desk/internal/api"
	"github.com/nhle/ticket-desk/internal/app"
	"github.com/nhle/ticket-desk/internal/credential"
	"github.com/nhle/ticket-desk/internal/model"
	"github.com/nhle/ticket-desk/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "ticketdesk:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := model.LoadConfig(model.DefaultConfigPath())
	if err != nil {
		return err
	}
	if cfg.Server.BaseURL == "" {
		return fmt.Errorf(
			"server.base_url is not set; edit %s", model.DefaultConfigPath(),
		)
	}

	// A missing keyring entry just means the sign-in screen shows.
	token, _ := credential.Get(credential.SessionTokenKey)

	client := api.NewClient(
		cfg.Server.BaseURL,
		token,
		time.Duration(cfg.Server.TimeoutSec)*time.Second,
	)

	s, err := openStore()
	if err != nil {
		return err
	}

	program := tea.NewProgram(
		app.New(cfg, s, client, websocketURL(cfg.Server)),
		tea.WithAltScreen(),
	)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running UI: %w", err)
	}
	return nil
}

// openStore opens the local cache database under the user config dir.
func openStore() (store.Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolving home directory: %w", err)
	}
	dir := filepath.Join(home, ".config", "ticketdesk")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory %s: %w", dir, err)
	}
	return store.NewSQLiteStore(filepath.Join(dir, "cache.db"))
}

// websocketURL returns the configured push endpoint, deriving it from
// the REST base URL when unset.
func websocketURL(server model.ServerConfig) string {
	if server.WebsocketURL != "" {
		return server.WebsocketURL
	}

	url := strings.TrimRight(server.BaseURL, "/")
	switch {
	case strings.HasPrefix(url, "https://"):
		url = "wss://" + strings.TrimPrefix(url, "https://")
	case strings.HasPrefix(url, "http://"):
		url = "ws://" + strings.TrimPrefix(url, "http://")
	}
	return url + "/ws"
}
