package ui

import (
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const toastDuration = 3 * time.Second

type toastKind int

const (
	toastSuccess toastKind = iota
	toastError
)

var lastToastID int64

// toast is a transient status line. Each show gets a new id so that an
// expiry scheduled for an older toast leaves a newer one alone.
type toast struct {
	id   int64
	kind toastKind
	text string
}

type toastExpiredMsg struct {
	id int64
}

func (t toast) show(kind toastKind, text string) (toast, tea.Cmd) {
	t.id = atomic.AddInt64(&lastToastID, 1)
	t.kind = kind
	t.text = text

	id := t.id
	return t, tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})
}

func (t toast) expire(msg toastExpiredMsg) toast {
	if msg.id == t.id {
		t.text = ""
	}
	return t
}

func (t toast) visible() bool {
	return t.text != ""
}

func (t toast) View() string {
	if t.text == "" {
		return ""
	}
	if t.kind == toastError {
		return toastErrorStyle.Render("✗ "+t.text) + "\n"
	}
	return toastSuccessStyle.Render("✓ "+t.text) + "\n"
}
