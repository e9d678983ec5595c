package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/saravenpi/wavechat/internal/actions"
	"github.com/saravenpi/wavechat/internal/api"
)

type broadcastSentMsg struct {
	res *api.Result
	err error
}

// broadcastModel is the broadcast dialog of the chat list. It is not a
// screen of its own; the chat list routes keys to it while it is open.
type broadcastModel struct {
	textarea textarea.Model
	open     bool
	sending  bool
}

func newBroadcastModel() broadcastModel {
	ta := textarea.New()
	ta.Placeholder = "Message to send to every contact..."
	ta.CharLimit = 2000
	ta.SetHeight(5)
	ta.SetWidth(60)
	ta.ShowLineNumbers = false

	return broadcastModel{textarea: ta}
}

func (b broadcastModel) show() (broadcastModel, tea.Cmd) {
	b.open = true
	b.textarea.Reset()
	return b, b.textarea.Focus()
}

func (b broadcastModel) close() broadcastModel {
	b.open = false
	b.textarea.Blur()
	return b
}

func (b broadcastModel) setWidth(width int) broadcastModel {
	if width > 10 {
		b.textarea.SetWidth(min(width-10, 80))
	}
	return b
}

// submit validates the text and starts the send. It returns a nil command
// while a previous send is still in flight. errText is non-empty when the
// message was rejected locally.
func (b broadcastModel) submit(env *Env) (broadcastModel, tea.Cmd, string) {
	if b.sending {
		return b, nil, ""
	}

	message := strings.TrimSpace(b.textarea.Value())
	if message == "" {
		return b, nil, "Please enter a message to broadcast"
	}

	b.sending = true
	return b, b.sendCmd(env, message), ""
}

func (b broadcastModel) sendCmd(env *Env, message string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := env.requestContext()
		defer cancel()

		res, err := actions.Broadcast(ctx, env.Client, env.Store, env.UserID, message)
		if err != nil {
			logger().Error().Err(err).Msg("broadcast failed")
		}
		return broadcastSentMsg{res: res, err: err}
	}
}

// finish clears the in-flight flag and closes the dialog on success.
func (b broadcastModel) finish(msg broadcastSentMsg) broadcastModel {
	b.sending = false
	if msg.err == nil {
		b = b.close()
		b.textarea.Reset()
	}
	return b
}

func (b broadcastModel) Update(msg tea.Msg) (broadcastModel, tea.Cmd) {
	if b.sending {
		return b, nil
	}
	var cmd tea.Cmd
	b.textarea, cmd = b.textarea.Update(msg)
	return b, cmd
}

func (b broadcastModel) View(env *Env) string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("📢 Broadcast") + "\n")

	if botCount, err := env.Store.BotCount(); err == nil {
		s.WriteString(statusStyle.Render(fmt.Sprintf("Bot replies per contact: %d", botCount)) + "\n\n")
	}

	s.WriteString(b.textarea.View() + "\n\n")
	if b.sending {
		s.WriteString(statusStyle.Render("Sending...") + "\n")
	} else {
		s.WriteString(helpStyle.Render("ctrl+s: send • esc: cancel"))
	}
	return modalStyle.Render(s.String())
}
