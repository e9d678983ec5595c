package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/saravenpi/wavechat/internal/api"
	"github.com/saravenpi/wavechat/internal/logging"
	"github.com/saravenpi/wavechat/internal/models"
)

type replyItem struct {
	reply models.Reply
	delay time.Duration
}

func (i replyItem) FilterValue() string { return i.reply.Content }
func (i replyItem) Title() string       { return i.reply.Content }
func (i replyItem) Description() string {
	return fmt.Sprintf("#%d • delay %ds", i.reply.ID, int64(i.delay/time.Second))
}

type repliesLoadedMsg struct {
	items    []replyItem
	botCount int
	err      error
}

type replyChangedMsg struct {
	done string
	err  error
}

type inputMode int

const (
	modeNone inputMode = iota
	modeAdd
	modeEdit
	modeDelay
	modeBotCount
)

// RepliesModel manages the canned bot replies. Content lives on the backend;
// per-reply delays and the bot count live in local storage.
type RepliesModel struct {
	env           *Env
	list          list.Model
	items         []replyItem
	botCount      int
	loading       bool
	err           error
	mode          inputMode
	input         textinput.Model
	target        *replyItem
	confirmDelete bool
	toast         toast
	spinner       spinner.Model
	windowWidth   int
	windowHeight  int
}

func NewRepliesModel(env *Env) RepliesModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = statusStyle

	input := textinput.New()
	input.CharLimit = 500
	input.Width = 60

	return RepliesModel{
		env:          env,
		list:         newList("Bot Replies", false),
		botCount:     1,
		loading:      true,
		input:        input,
		spinner:      s,
		windowWidth:  80,
		windowHeight: 30,
	}
}

func (m RepliesModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadRepliesCmd())
}

func (m RepliesModel) loadRepliesCmd() tea.Cmd {
	env := m.env
	return func() tea.Msg {
		ctx, cancel := env.requestContext()
		defer cancel()

		replies, err := env.Client.GetReplies(ctx)
		if err != nil {
			logger().Warn().Err(err).Msg("failed to fetch replies")
			return repliesLoadedMsg{err: err}
		}

		items := make([]replyItem, len(replies))
		for i, r := range replies {
			d, err := env.Store.Delay(r.ID)
			if err != nil {
				return repliesLoadedMsg{err: fmt.Errorf("failed to read delay: %w", err)}
			}
			items[i] = replyItem{reply: r, delay: d}
		}

		botCount, err := env.Store.BotCount()
		if err != nil {
			return repliesLoadedMsg{err: fmt.Errorf("failed to read bot count: %w", err)}
		}
		return repliesLoadedMsg{items: items, botCount: botCount}
	}
}

// replyCmd runs one backend change and reports done as the success text.
func (m RepliesModel) replyCmd(done string, call func(env *Env) error) tea.Cmd {
	env := m.env
	return func() tea.Msg {
		err := call(env)
		if err != nil {
			logger().Error().Err(err).Msg("reply change failed")
		}
		return replyChangedMsg{done: done, err: err}
	}
}

func (m RepliesModel) addReplyCmd(content string) tea.Cmd {
	return m.replyCmd("Reply added", func(env *Env) error {
		ctx, cancel := env.requestContext()
		defer cancel()
		return env.Client.AddReply(ctx, content)
	})
}

func (m RepliesModel) updateReplyCmd(id int64, content string) tea.Cmd {
	return m.replyCmd("Reply updated", func(env *Env) error {
		ctx, cancel := env.requestContext()
		defer cancel()
		return env.Client.UpdateReply(ctx, id, content)
	})
}

// deleteReplyCmd removes the reply, then every stored delay.
func (m RepliesModel) deleteReplyCmd(id int64) tea.Cmd {
	return m.replyCmd("Reply deleted", func(env *Env) error {
		ctx, cancel := env.requestContext()
		defer cancel()
		if err := env.Client.DeleteReply(ctx, id); err != nil {
			return err
		}
		if _, err := env.Store.ClearDelays(); err != nil {
			return fmt.Errorf("failed to clear delays: %w", err)
		}
		return nil
	})
}

// maxBotCount is the number of replies, or 1 when there are none.
func (m RepliesModel) maxBotCount() int {
	return max(len(m.items), 1)
}

func (m RepliesModel) setItems(items []replyItem) RepliesModel {
	m.items = items
	listItems := make([]list.Item, len(items))
	for i, item := range items {
		listItems[i] = item
	}
	m.list.SetItems(listItems)
	m.list.Title = fmt.Sprintf("Bot Replies - %d replies • bot count %d", len(items), m.botCount)
	return m
}

func (m RepliesModel) selectedIndex() int {
	if _, ok := m.list.SelectedItem().(replyItem); !ok {
		return -1
	}
	return m.list.Index()
}

// maxDelaySeconds bounds a reply delay to one day.
const maxDelaySeconds = 24 * 60 * 60

// setDelay persists the delay of the reply at index i. Negative values are
// stored as 0; values above maxDelaySeconds are refused.
func (m RepliesModel) setDelay(i int, seconds int64) (RepliesModel, tea.Cmd) {
	var cmd tea.Cmd
	if seconds > maxDelaySeconds {
		m.toast, cmd = m.toast.show(toastError, fmt.Sprintf("Delay cannot exceed %ds", maxDelaySeconds))
		return m, cmd
	}
	if seconds < 0 {
		seconds = 0
	}
	item := m.items[i]
	d := time.Duration(seconds) * time.Second

	if err := m.env.Store.SetDelay(item.reply.ID, d); err != nil {
		m.toast, cmd = m.toast.show(toastError, "Failed to save delay")
		return m, cmd
	}

	logger().Debug().Int64(logging.FieldReplyID, item.reply.ID).Dur("delay", d).Msg("reply delay saved")
	items := append([]replyItem(nil), m.items...)
	items[i].delay = d
	m = m.setItems(items)
	m.toast, cmd = m.toast.show(toastSuccess, fmt.Sprintf("Delay set to %ds", seconds))
	return m, cmd
}

func (m RepliesModel) resetDelays() (RepliesModel, tea.Cmd) {
	var cmd tea.Cmd
	if _, err := m.env.Store.ClearDelays(); err != nil {
		m.toast, cmd = m.toast.show(toastError, "Failed to reset delays")
		return m, cmd
	}

	items := append([]replyItem(nil), m.items...)
	for i := range items {
		items[i].delay = 0
	}
	m = m.setItems(items)
	m.toast, cmd = m.toast.show(toastSuccess, "All delays reset")
	return m, cmd
}

func (m RepliesModel) openInput(mode inputMode, placeholder, value string) (RepliesModel, tea.Cmd) {
	m.mode = mode
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m, m.input.Focus()
}

func (m RepliesModel) closeInput() RepliesModel {
	m.mode = modeNone
	m.target = nil
	m.input.Blur()
	m.input.Reset()
	return m
}

// submitInput applies the open input. Empty reply content is ignored.
func (m RepliesModel) submitInput() (RepliesModel, tea.Cmd) {
	value := strings.TrimSpace(m.input.Value())
	mode, target := m.mode, m.target
	m = m.closeInput()

	var cmd tea.Cmd
	switch mode {
	case modeAdd:
		if value == "" {
			return m, nil
		}
		m.loading = true
		return m, m.addReplyCmd(value)

	case modeEdit:
		if value == "" || target == nil {
			return m, nil
		}
		m.loading = true
		return m, m.updateReplyCmd(target.reply.ID, value)

	case modeDelay:
		seconds, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			m.toast, cmd = m.toast.show(toastError, "Delay must be a whole number of seconds")
			return m, cmd
		}
		i := m.selectedIndex()
		if i < 0 {
			return m, nil
		}
		return m.setDelay(i, seconds)

	case modeBotCount:
		n, err := strconv.Atoi(value)
		if err != nil {
			m.toast, cmd = m.toast.show(toastError, "Bot count must be a number")
			return m, cmd
		}
		n = min(max(n, 1), m.maxBotCount())
		if err := m.env.Store.SetBotCount(n); err != nil {
			m.toast, cmd = m.toast.show(toastError, "Failed to save bot count")
			return m, cmd
		}
		m.botCount = n
		m = m.setItems(m.items)
		m.toast, cmd = m.toast.show(toastSuccess, fmt.Sprintf("Bot count set to %d", n))
		return m, cmd
	}
	return m, nil
}

func (m RepliesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height - 6)
		return m, nil

	case repliesLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.botCount = msg.botCount
		return m.setItems(msg.items), nil

	case replyChangedMsg:
		var cmd tea.Cmd
		if msg.err != nil {
			m.loading = false
			m.toast, cmd = m.toast.show(toastError, api.MessageOf(msg.err, "Failed to save reply"))
			return m, cmd
		}
		m.toast, cmd = m.toast.show(toastSuccess, msg.done)
		m.loading = true
		return m, tea.Batch(cmd, m.loadRepliesCmd())

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

	if m.mode != modeNone {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m RepliesModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.mode != modeNone {
		switch msg.String() {
		case "esc":
			return m.closeInput(), nil
		case "enter":
			return m.submitInput()
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	if m.confirmDelete {
		switch msg.String() {
		case "y", "Y":
			target := m.target
			m.confirmDelete = false
			m.target = nil
			if target == nil {
				return m, nil
			}
			m.loading = true
			return m, m.deleteReplyCmd(target.reply.ID)
		case "n", "N", "esc":
			m.confirmDelete = false
			m.target = nil
		}
		return m, nil
	}

	i := m.selectedIndex()

	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "esc":
		menu := resize(NewMenuModel(m.env), m.windowWidth, m.windowHeight)
		return menu, menu.Init()

	case "r":
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.loadRepliesCmd())

	case "a", "n":
		return m.openInput(modeAdd, "Reply text", "")

	case "e", "enter":
		if i < 0 {
			return m, nil
		}
		item := m.items[i]
		m.target = &item
		return m.openInput(modeEdit, "Reply text", item.reply.Content)

	case "s":
		if i < 0 {
			return m, nil
		}
		return m.openInput(modeDelay, "Delay in seconds", strconv.FormatInt(int64(m.items[i].delay/time.Second), 10))

	case "+", "=":
		if i < 0 {
			return m, nil
		}
		return m.setDelay(i, int64(m.items[i].delay/time.Second)+1)

	case "-":
		if i < 0 {
			return m, nil
		}
		return m.setDelay(i, int64(m.items[i].delay/time.Second)-1)

	case "c":
		return m.openInput(modeBotCount, fmt.Sprintf("Bot count (1-%d)", m.maxBotCount()), strconv.Itoa(m.botCount))

	case "R":
		return m.resetDelays()

	case "d", "delete":
		if i < 0 {
			return m, nil
		}
		item := m.items[i]
		m.target = &item
		m.confirmDelete = true
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m RepliesModel) View() string {
	if m.confirmDelete && m.target != nil {
		s := titleStyle.Render("Delete Reply") + "\n\n"
		s += normalStyle.Render(fmt.Sprintf("Are you sure you want to delete '%s'?", m.target.reply.Content)) + "\n\n"
		s += errorStyle.Render("All stored reply delays will be cleared.") + "\n\n"
		s += helpStyle.Render("y: confirm delete • n/esc: cancel")
		return s
	}

	if m.loading && len(m.items) == 0 && m.err == nil {
		return fmt.Sprintf("\n  %s Loading replies...\n", m.spinner.View())
	}

	var s string
	if m.err != nil {
		s = titleStyle.Render("Bot Replies") + "\n\n"
		s += errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n"
	} else if len(m.items) == 0 {
		s = titleStyle.Render("Bot Replies") + "\n\n"
		s += normalStyle.Render("  No replies yet. Press 'a' to add one.") + "\n\n"
	} else {
		s = m.list.View() + "\n"
	}

	switch m.mode {
	case modeAdd:
		s += inputStyle.Render("New reply:") + "\n" + m.input.View() + "\n"
	case modeEdit:
		s += inputStyle.Render("Edit reply:") + "\n" + m.input.View() + "\n"
	case modeDelay:
		s += inputStyle.Render("Delay (seconds):") + "\n" + m.input.View() + "\n"
	case modeBotCount:
		s += inputStyle.Render("Bot count:") + "\n" + m.input.View() + "\n"
	}

	s += m.toast.View()
	if m.mode != modeNone {
		s += helpStyle.Render("enter: save • esc: cancel")
		return s
	}
	s += helpStyle.Render("a: add • e: edit • d: delete • s: set delay • +/-: delay ±1s • c: bot count • R: reset delays • r: refresh • esc: back")
	return s
}
