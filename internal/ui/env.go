package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/saravenpi/wavechat/internal/api"
	"github.com/saravenpi/wavechat/internal/config"
	"github.com/saravenpi/wavechat/internal/contacts"
	"github.com/saravenpi/wavechat/internal/logging"
	"github.com/saravenpi/wavechat/internal/storage"
)

const (
	defaultRequestTimeout = 15 * time.Second
	// reloadDelay is how long a success toast stays up before the contact
	// list is refetched after an import or a delete-all.
	reloadDelay = 1500 * time.Millisecond
)

// Env is what every screen needs to reach the backend and local state.
type Env struct {
	Client *api.Client
	Store  *storage.Store
	Book   *contacts.Book
	Config *config.Config
	UserID int64
}

func (e *Env) requestContext() (context.Context, context.CancelFunc) {
	timeout := defaultRequestTimeout
	if e.Config != nil && e.Config.API.Timeout > 0 {
		timeout = e.Config.API.Timeout
	}
	return context.WithTimeout(context.Background(), timeout)
}

// resize hands a freshly built screen the current window size.
func resize(m tea.Model, width, height int) tea.Model {
	if width <= 0 {
		return m
	}
	updated, _ := m.Update(tea.WindowSizeMsg{Width: width, Height: height})
	return updated
}

func logger() *zerolog.Logger {
	l := logging.Component("ui")
	return &l
}
