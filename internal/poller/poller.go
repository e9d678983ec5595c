// Package poller keeps the contact list fresh without a push channel. It is
// a bubbletea component: the owning screen forwards messages to Update and
// receives ContactsMsg results.
//
// Polling runs on a fixed interval while the terminal has focus, pauses on
// focus loss, resumes (with an immediate fetch) when focus returns, and stops
// for good once the polling window has elapsed. Timers that outlive a pause,
// a restart or the owning screen carry a stale tag and are dropped.
package poller

import (
	"context"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/saravenpi/wavechat/internal/api"
	"github.com/saravenpi/wavechat/internal/logging"
	"github.com/saravenpi/wavechat/internal/models"
)

const (
	DefaultInterval = 10 * time.Second
	DefaultWindow   = 19 * time.Minute
	defaultTimeout  = 15 * time.Second
)

var lastID int64

func nextID() int {
	return int(atomic.AddInt64(&lastID, 1))
}

// Fetcher loads the contact list for a user.
type Fetcher interface {
	GetInitialContacts(ctx context.Context, userID int64) (*api.ContactsResponse, error)
}

type Config struct {
	Interval time.Duration
	Window   time.Duration
	Timeout  time.Duration
}

// ContactsMsg carries the outcome of one fetch. Err is set on failure; the
// owner is expected to keep its previous list in that case.
type ContactsMsg struct {
	ID       int
	Contacts []models.Contact
	Online   []int64
	Err      error
}

// TickMsg fires once per interval.
type TickMsg struct {
	ID   int
	Time time.Time
	tag  int
}

type windowElapsedMsg struct {
	ID int
}

type Model struct {
	id      int
	tag     int
	userID  int64
	fetcher Fetcher
	cfg     Config
	logger  zerolog.Logger

	visible bool
	running bool
	expired bool
	closed  bool

	tick func(time.Duration, func(time.Time) tea.Msg) tea.Cmd
}

// New returns a poller for userID. It starts running with Init; a userID of
// zero or less never polls.
func New(fetcher Fetcher, userID int64, cfg Config) Model {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	m := Model{
		id:      nextID(),
		userID:  userID,
		fetcher: fetcher,
		cfg:     cfg,
		logger:  logging.Component("poller"),
		visible: true,
		tick:    tea.Tick,
	}
	if userID > 0 {
		m.running = true
		m.tag = 1
	}
	return m
}

func (m Model) ID() int { return m.id }

// Running reports whether an interval is currently scheduled.
func (m Model) Running() bool { return m.running }

// Expired reports whether the polling window has elapsed.
func (m Model) Expired() bool { return m.expired }

func (m Model) Visible() bool { return m.visible }

// Init fetches immediately, starts the interval and arms the window timer.
func (m Model) Init() tea.Cmd {
	if !m.running {
		m.logger.Debug().Int64(logging.FieldUserID, m.userID).Msg("no current user, polling disabled")
		return nil
	}

	id := m.id
	window := m.tick(m.cfg.Window, func(time.Time) tea.Msg {
		return windowElapsedMsg{ID: id}
	})
	return tea.Batch(m.fetchCmd(), m.scheduleTick(), window)
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TickMsg:
		if msg.ID != m.id || msg.tag != m.tag || !m.running {
			return m, nil
		}
		if !m.visible {
			return m, m.scheduleTick()
		}
		return m, tea.Batch(m.fetchCmd(), m.scheduleTick())

	case windowElapsedMsg:
		if msg.ID != m.id || m.expired {
			return m, nil
		}
		m.expired = true
		m.running = false
		m.tag++
		m.logger.Info().
			Int64(logging.FieldUserID, m.userID).
			Dur("window", m.cfg.Window).
			Msg("contact polling stopped, window elapsed")
		return m, nil

	case tea.BlurMsg:
		m.visible = false
		if m.running {
			m.running = false
			m.tag++
		}
		return m, nil

	case tea.FocusMsg:
		m.visible = true
		if m.running || m.expired || m.closed || m.userID <= 0 {
			return m, nil
		}
		m.running = true
		m.tag++
		return m, tea.Batch(m.fetchCmd(), m.scheduleTick())
	}

	return m, nil
}

// Stop tears the poller down; every pending timer becomes stale.
func (m Model) Stop() Model {
	m.closed = true
	m.running = false
	m.tag++
	return m
}

// Refresh fetches once, outside the interval.
func (m Model) Refresh() tea.Cmd {
	if m.userID <= 0 || m.closed {
		return nil
	}
	return m.fetchCmd()
}

func (m Model) scheduleTick() tea.Cmd {
	id, tag := m.id, m.tag
	return m.tick(m.cfg.Interval, func(t time.Time) tea.Msg {
		return TickMsg{ID: id, Time: t, tag: tag}
	})
}

func (m Model) fetchCmd() tea.Cmd {
	fetcher, userID, id := m.fetcher, m.userID, m.id
	timeout, logger := m.cfg.Timeout, m.logger

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		resp, err := fetcher.GetInitialContacts(ctx, userID)
		if err != nil {
			logger.Warn().Err(err).Int64(logging.FieldUserID, userID).Msg("failed to fetch contacts")
			return ContactsMsg{ID: id, Err: err}
		}
		return ContactsMsg{ID: id, Contacts: resp.Users, Online: resp.OnlineUsers}
	}
}
