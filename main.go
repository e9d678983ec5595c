package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/saravenpi/wavechat/internal/actions"
	"github.com/saravenpi/wavechat/internal/api"
	"github.com/saravenpi/wavechat/internal/config"
	"github.com/saravenpi/wavechat/internal/contacts"
	"github.com/saravenpi/wavechat/internal/logging"
	"github.com/saravenpi/wavechat/internal/storage"
	"github.com/saravenpi/wavechat/internal/ui"
)

const version = "1.0.0"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version", "-v", "--version":
			fmt.Printf("wavechat v%s\n", version)
			return
		case "help", "-h", "--help":
			printHelp()
			return
		}
	}

	err := run(os.Args[1:])
	logging.Close()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

// run does all the work so that deferred cleanup happens before main exits.
func run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if len(args) > 0 && args[0] == "mock-server" {
		// The mock server owns no terminal UI, so it logs to stdout.
		cfg.Log.File = ""
		if err := logging.Init(cfg.Log); err != nil {
			return err
		}
		return runMockServer(cfg)
	}

	if err := logging.Init(cfg.Log); err != nil {
		return err
	}
	log := logging.L()

	store, err := storage.Open(cfg.StoragePath())
	if err != nil {
		return err
	}
	defer store.Close()

	env := &ui.Env{
		Client: api.NewClient(cfg.API.BaseURL, cfg.API.Timeout),
		Store:  store,
		Book:   contacts.NewBook(cfg.ContactsDir()),
		Config: cfg,
	}

	if len(args) > 0 {
		return runCommand(env, args[0], args[1:])
	}

	env.UserID, err = actions.ResolveUserID(store, cfg.UserID)
	if err != nil {
		log.Warn().Err(err).Msg("starting without a current user")
	}

	log.Info().Int64(logging.FieldUserID, env.UserID).Str("api", cfg.API.BaseURL).Msg("starting wavechat")

	p := tea.NewProgram(ui.NewMenuModel(env), tea.WithAltScreen(), tea.WithReportFocus())
	_, err = p.Run()
	return err
}

func printHelp() {
	help := `wavechat - Terminal chat client

Usage:
  wavechat                       Start the chat client
  wavechat use <userId>          Set the current user
  wavechat import <file.csv> [--validate]
                                 Import contacts from a CSV file
  wavechat broadcast <message>   Send a message to every contact
  wavechat status                Show contacts, replies and local settings
  wavechat mock-server           Run a local mock of the chat backend
  wavechat version               Show version information
  wavechat help                  Show this help message

Navigation:
  ↑/↓ or j/k        Navigate lists
  Enter             Select/Open item
  ESC               Go back
  q                 Quit from current view
  ctrl+c            Force quit

Chats:
  i                 Import contacts (CSV, generated, address book)
  b                 Broadcast a message
  D                 Delete all contacts
  r                 Refresh contact list
  /                 Search contacts

Chat:
  ↑/↓ or j/k        Select a message
  d                 Delete your selected message (press twice)
  r                 Refresh messages

Bot Replies:
  a / e / d         Add, edit, delete a reply
  s or +/-          Set the selected reply's delay
  c                 Set how many bot replies a broadcast triggers
  R                 Reset all delays

Configuration:
  ~/.wavechat/config.yaml, ./config.yaml or WAVECHAT_* environment
  variables (for example WAVECHAT_API_BASE_URL, WAVECHAT_USER_ID).
  Local settings live in ~/.wavechat/storage.db, the address book in
  ~/.wavechat/contacts/ and logs in ~/.wavechat/wavechat.log.
`
	fmt.Print(help)
}
