package ui

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/saravenpi/wavechat/internal/api"
	"github.com/saravenpi/wavechat/internal/config"
	"github.com/saravenpi/wavechat/internal/contacts"
	"github.com/saravenpi/wavechat/internal/mockserver"
	"github.com/saravenpi/wavechat/internal/storage"
)

func newTestEnv(t *testing.T, handler http.Handler) *Env {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	store, err := storage.Open(filepath.Join(dir, "storage.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cfg := &config.Config{DataDir: dir}
	cfg.API.Timeout = 5 * time.Second
	cfg.Import.StartingID = 100
	cfg.Contacts.DeleteStartID = 3

	return &Env{
		Client: api.NewClient(srv.URL, 5*time.Second, api.WithLogger(zerolog.Nop())),
		Store:  store,
		Book:   contacts.NewBook(filepath.Join(dir, "contacts")),
		Config: cfg,
		UserID: 1,
	}
}

// newMockEnv runs the seeded mock backend: user 1 talks to user 2 and there
// are three bot replies.
func newMockEnv(t *testing.T) *Env {
	t.Helper()
	db, err := mockserver.OpenStore(":memory:")
	require.NoError(t, err)
	backend := mockserver.New(db, zerolog.Nop())
	require.NoError(t, backend.Seed())
	return newTestEnv(t, backend.Handler())
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// collect runs cmd and flattens batches. Only call it on commands that do
// not contain timers.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func find[T tea.Msg](t *testing.T, msgs []tea.Msg) T {
	t.Helper()
	for _, m := range msgs {
		if v, ok := m.(T); ok {
			return v
		}
	}
	var zero T
	require.Failf(t, "message not found", "%T not in %v", zero, msgs)
	return zero
}
