package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/saravenpi/wavechat/internal/api"
	"github.com/saravenpi/wavechat/internal/logging"
	"github.com/saravenpi/wavechat/internal/models"
)

type messagesFetchedMsg struct {
	messages []models.Message
	err      error
}

type messageDeletedMsg struct {
	id  int64
	res *api.DeleteResult
	err error
}

// ChatModel shows one conversation. Own messages can be deleted: the first
// d marks the selected message as the context target, a second d (or enter)
// confirms.
type ChatModel struct {
	env           *Env
	contact       models.Contact
	messages      []models.Message
	cursor        int
	contextTarget int64
	deleting      map[int64]bool
	viewport      viewport.Model
	loading       bool
	err           error
	toast         toast
	spinner       spinner.Model
	windowWidth   int
	windowHeight  int
}

func NewChatModel(env *Env, contact models.Contact) ChatModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = statusStyle

	vp := viewport.New(80, 20)

	return ChatModel{
		env:          env,
		contact:      contact,
		deleting:     make(map[int64]bool),
		viewport:     vp,
		loading:      true,
		spinner:      s,
		windowWidth:  80,
		windowHeight: 30,
	}
}

func (m ChatModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetchMessagesCmd())
}

func (m ChatModel) fetchMessagesCmd() tea.Cmd {
	env, otherID := m.env, m.contact.ID
	return func() tea.Msg {
		ctx, cancel := env.requestContext()
		defer cancel()

		messages, err := env.Client.GetMessages(ctx, env.UserID, otherID)
		if err != nil {
			logger().Warn().Err(err).Int64(logging.FieldOtherID, otherID).Msg("failed to fetch messages")
		}
		return messagesFetchedMsg{messages: messages, err: err}
	}
}

func (m ChatModel) deleteMessageCmd(id int64) tea.Cmd {
	env := m.env
	return func() tea.Msg {
		ctx, cancel := env.requestContext()
		defer cancel()

		res, err := env.Client.DeleteMessage(ctx, id)
		if err != nil {
			logger().Error().Err(err).Int64(logging.FieldMessageID, id).Msg("failed to delete message")
		}
		return messageDeletedMsg{id: id, res: res, err: err}
	}
}

func (m ChatModel) isOwn(msg models.Message) bool {
	return msg.SenderID == m.env.UserID
}

func (m ChatModel) selected() (models.Message, bool) {
	if m.cursor < 0 || m.cursor >= len(m.messages) {
		return models.Message{}, false
	}
	return m.messages[m.cursor], true
}

func (m ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height

		headerHeight := 4
		helpHeight := 3
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = msg.Height - headerHeight - helpHeight

		m.updateViewportContent()
		return m, nil

	case messagesFetchedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.err = nil
		following := m.cursor >= len(m.messages)-1
		m.messages = msg.messages
		if following || m.cursor >= len(m.messages) {
			m.cursor = len(m.messages) - 1
		}
		m.updateViewportContent()
		return m, nil

	case messageDeletedMsg:
		delete(m.deleting, msg.id)
		m.contextTarget = 0

		var cmd tea.Cmd
		switch {
		case msg.err != nil:
			m.toast, cmd = m.toast.show(toastError, api.MessageOf(msg.err, "Failed to delete message"))
		case !msg.res.Status:
			text := msg.res.Message
			if text == "" {
				text = "Message could not be deleted"
			}
			m.toast, cmd = m.toast.show(toastError, text)
		default:
			m.removeMessage(msg.id)
			m.loading = true
			cmd = m.fetchMessagesCmd()
		}
		m.updateViewportContent()
		return m, cmd

	case toastExpiredMsg:
		m.toast = m.toast.expire(msg)
		return m, nil

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m ChatModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "esc":
		if m.contextTarget != 0 {
			m.contextTarget = 0
			m.updateViewportContent()
			return m, nil
		}
		list := resize(NewChatListModel(m.env), m.windowWidth, m.windowHeight)
		return list, list.Init()

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			m.contextTarget = 0
			m.updateViewportContent()
		}
		return m, nil

	case "down", "j":
		if m.cursor < len(m.messages)-1 {
			m.cursor++
			m.contextTarget = 0
			m.updateViewportContent()
		}
		return m, nil

	case "d", "delete":
		return m.deleteSelected()

	case "enter":
		if m.contextTarget != 0 {
			return m.deleteSelected()
		}
		return m, nil

	case "r":
		if m.loading {
			return m, nil
		}
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.fetchMessagesCmd())
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// deleteSelected opens the context action on the selected message, or runs
// it when the action is already open on that message.
func (m ChatModel) deleteSelected() (tea.Model, tea.Cmd) {
	selected, ok := m.selected()
	if !ok || !m.isOwn(selected) || m.deleting[selected.ID] {
		return m, nil
	}

	if m.contextTarget != selected.ID {
		m.contextTarget = selected.ID
		m.updateViewportContent()
		return m, nil
	}

	m.deleting[selected.ID] = true
	m.updateViewportContent()
	return m, m.deleteMessageCmd(selected.ID)
}

func (m *ChatModel) removeMessage(id int64) {
	for i, message := range m.messages {
		if message.ID != id {
			continue
		}
		m.messages = append(m.messages[:i:i], m.messages[i+1:]...)
		if m.cursor >= len(m.messages) {
			m.cursor = len(m.messages) - 1
		}
		return
	}
}

func messageBody(message models.Message, width int) string {
	switch message.Type {
	case models.MessageImage:
		return "🖼  [image]"
	case models.MessageAudio:
		return "🎤 [voice message]"
	}
	return wordwrap.String(message.Body, width)
}

func statusMark(status models.MessageStatus) string {
	switch status {
	case models.StatusRead:
		return "✓✓ read"
	case models.StatusDelivered:
		return "✓✓"
	case models.StatusSent:
		return "✓"
	}
	return ""
}

func (m *ChatModel) updateViewportContent() {
	wrapWidth := m.viewport.Width
	if wrapWidth <= 0 {
		wrapWidth = 80
	}

	var content strings.Builder
	cursorTop, cursorBottom := 0, 0
	line := 0

	for i, message := range m.messages {
		var block strings.Builder
		timestamp := message.CreatedAt.Local().Format("3:04 PM")
		own := m.isOwn(message)

		marker := "  "
		if i == m.cursor {
			marker = cursorStyle.Render("▸ ")
		}

		if own {
			header := fmt.Sprintf("You • %s", timestamp)
			if mark := statusMark(message.Status); mark != "" {
				header += " • " + mark
			}
			block.WriteString(lipgloss.NewStyle().Align(lipgloss.Right).Width(wrapWidth-2).Render(messageHeaderStyle.Render(header)) + "\n")
			body := messageFromMeStyle.Render(messageBody(message, wrapWidth-10))
			block.WriteString(lipgloss.NewStyle().Align(lipgloss.Right).Width(wrapWidth-2).Render(body) + "\n")
		} else {
			block.WriteString(messageHeaderStyle.Render(fmt.Sprintf("%s • %s", m.contact.Name, timestamp)) + "\n")
			block.WriteString(messageFromOtherStyle.Render(messageBody(message, wrapWidth-10)) + "\n")
		}

		if m.contextTarget == message.ID {
			block.WriteString(errorStyle.Render("🗑  Delete this message? d/enter: delete • esc: cancel") + "\n")
		}

		rendered := block.String()
		if m.deleting[message.ID] {
			rendered = deletingStyle.Render(strings.TrimSuffix(rendered, "\n")) + "\n"
		}

		blockLines := strings.Split(strings.TrimSuffix(rendered, "\n"), "\n")
		if i == m.cursor {
			cursorTop = line
			cursorBottom = line + len(blockLines)
		}
		for j, l := range blockLines {
			if j == 0 {
				content.WriteString(marker + l + "\n")
			} else {
				content.WriteString("  " + l + "\n")
			}
		}
		content.WriteString("\n")
		line += len(blockLines) + 1
	}

	m.viewport.SetContent(content.String())

	// Keep the selected message in view.
	if cursorTop < m.viewport.YOffset {
		m.viewport.SetYOffset(cursorTop)
	} else if m.viewport.Height > 0 && cursorBottom > m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(cursorBottom - m.viewport.Height)
	}
}

func (m ChatModel) View() string {
	if m.loading && len(m.messages) == 0 && m.err == nil {
		return fmt.Sprintf("\n  %s Loading messages...\n", m.spinner.View())
	}

	title := fmt.Sprintf("💬 %s", m.contact.Name)
	if m.contact.Online {
		title += " " + onlineStyle.Render("● online")
	}
	s := titleStyle.Render(title) + "\n"

	if m.err != nil {
		s += errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n"
	}

	if len(m.messages) == 0 && !m.loading {
		s += normalStyle.Render("  No messages in this conversation.") + "\n"
	} else {
		s += m.viewport.View() + "\n"
	}

	s += m.toast.View()
	help := "↑↓/jk: select • pgup/pgdn: scroll • r: refresh • esc: back"
	if selected, ok := m.selected(); ok && m.isOwn(selected) {
		help = "↑↓/jk: select • d: delete • pgup/pgdn: scroll • r: refresh • esc: back"
	}
	if m.loading {
		help = m.spinner.View() + " " + help
	}
	s += helpStyle.Render(help)
	return s
}
