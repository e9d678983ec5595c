package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/truncate"

	"github.com/saravenpi/wavechat/internal/actions"
	"github.com/saravenpi/wavechat/internal/api"
	"github.com/saravenpi/wavechat/internal/models"
	"github.com/saravenpi/wavechat/internal/poller"
)

type chatItem struct {
	contact  models.Contact
	bookName string
}

func (i chatItem) Title() string {
	if i.contact.Online {
		return i.contact.Name + " " + onlineStyle.Render("●")
	}
	return i.contact.Name
}

func (i chatItem) Description() string {
	desc := i.contact.PhoneNumber
	if i.bookName != "" && i.bookName != i.contact.Name {
		desc += " (📒 " + i.bookName + ")"
	}
	if i.contact.About != "" {
		desc += " • " + truncate.StringWithTail(i.contact.About, 50, "...")
	}
	return desc
}

func (i chatItem) FilterValue() string {
	return i.contact.Name
}

type contactsDeletedMsg struct {
	res *api.Result
	err error
}

type reloadContactsMsg struct{}

// ChatListModel is the contact list with the header actions: import,
// delete all and broadcast.
type ChatListModel struct {
	env              *Env
	list             list.Model
	poller           poller.Model
	contacts         []models.Contact
	loading          bool
	spinner          spinner.Model
	toast            toast
	broadcast        broadcastModel
	confirmDeleteAll bool
	deletingAll      bool
	windowWidth      int
	windowHeight     int
}

func NewChatListModel(env *Env) ChatListModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = statusStyle

	cfg := poller.Config{Timeout: defaultRequestTimeout}
	if env.Config != nil {
		cfg.Interval = env.Config.Poll.Interval
		cfg.Window = env.Config.Poll.Window
		cfg.Timeout = env.Config.API.Timeout
	}

	return ChatListModel{
		env:          env,
		list:         newList("Chats", true),
		poller:       poller.New(env.Client, env.UserID, cfg),
		loading:      env.UserID > 0,
		spinner:      s,
		broadcast:    newBroadcastModel(),
		windowWidth:  80,
		windowHeight: 30,
	}
}

func (m ChatListModel) Init() tea.Cmd {
	if !m.loading {
		return m.poller.Init()
	}
	return tea.Batch(m.spinner.Tick, m.poller.Init())
}

func (m ChatListModel) deleteAllCmd() tea.Cmd {
	env := m.env
	return func() tea.Msg {
		ctx, cancel := env.requestContext()
		defer cancel()

		startID := int64(3)
		if env.Config != nil && env.Config.Contacts.DeleteStartID > 0 {
			startID = env.Config.Contacts.DeleteStartID
		}
		res, err := actions.DeleteAll(ctx, env.Client, startID)
		if err != nil {
			logger().Error().Err(err).Msg("failed to delete contacts")
		}
		return contactsDeletedMsg{res: res, err: err}
	}
}

func reloadAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return reloadContactsMsg{}
	})
}

// leave tears down polling before switching to next.
func (m ChatListModel) leave(next tea.Model) (tea.Model, tea.Cmd) {
	m.poller = m.poller.Stop()
	next = resize(next, m.windowWidth, m.windowHeight)
	return next, next.Init()
}

func (m ChatListModel) setContacts(contacts []models.Contact) ChatListModel {
	m.contacts = contacts
	items := make([]list.Item, len(contacts))
	for i, contact := range contacts {
		item := chatItem{contact: contact}
		if m.env.Book != nil {
			item.bookName = m.env.Book.NameFor(contact.PhoneNumber)
		}
		items[i] = item
	}
	m.list.SetItems(items)

	online := 0
	for _, c := range contacts {
		if c.Online {
			online++
		}
	}
	m.list.Title = fmt.Sprintf("Chats - %d contacts, %d online", len(contacts), online)
	return m
}

func (m ChatListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height - 6)
		m.broadcast = m.broadcast.setWidth(msg.Width)
		return m, nil

	case poller.ContactsMsg:
		if msg.ID != m.poller.ID() {
			return m, nil
		}
		m.loading = false
		if msg.Err != nil {
			return m, nil
		}
		return m.setContacts(msg.Contacts), nil

	case contactsDeletedMsg:
		m.deletingAll = false
		var cmd tea.Cmd
		if msg.err != nil {
			m.toast, cmd = m.toast.show(toastError, api.MessageOf(msg.err, "Failed to delete contacts"))
			return m, cmd
		}
		text := msg.res.Message
		if text == "" {
			text = "Contacts deleted"
		}
		m.toast, cmd = m.toast.show(toastSuccess, text)
		return m, tea.Batch(cmd, reloadAfter(reloadDelay))

	case broadcastSentMsg:
		m.broadcast = m.broadcast.finish(msg)
		var cmd tea.Cmd
		if msg.err != nil {
			m.toast, cmd = m.toast.show(toastError, api.MessageOf(msg.err, "Failed to send broadcast"))
			return m, cmd
		}
		text := msg.res.Message
		if text == "" {
			text = "Broadcast sent successfully"
		}
		m.toast, cmd = m.toast.show(toastSuccess, text)
		return m, cmd

	case reloadContactsMsg:
		return m, m.poller.Refresh()

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

	// Focus changes, interval ticks and the window timer.
	var cmd tea.Cmd
	m.poller, cmd = m.poller.Update(msg)
	if m.broadcast.open {
		var bcmd tea.Cmd
		m.broadcast, bcmd = m.broadcast.Update(msg)
		cmd = tea.Batch(cmd, bcmd)
	}
	return m, cmd
}

func (m ChatListModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.broadcast.open {
		switch msg.String() {
		case "esc":
			if !m.broadcast.sending {
				m.broadcast = m.broadcast.close()
			}
			return m, nil
		case "ctrl+s":
			var cmd tea.Cmd
			var errText string
			m.broadcast, cmd, errText = m.broadcast.submit(m.env)
			if errText != "" {
				m.toast, cmd = m.toast.show(toastError, errText)
			}
			return m, cmd
		}
		var cmd tea.Cmd
		m.broadcast, cmd = m.broadcast.Update(msg)
		return m, cmd
	}

	if m.confirmDeleteAll {
		switch msg.String() {
		case "y", "Y":
			m.confirmDeleteAll = false
			m.deletingAll = true
			return m, m.deleteAllCmd()
		case "n", "N", "esc":
			m.confirmDeleteAll = false
		}
		return m, nil
	}

	if m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "esc":
		return m.leave(NewMenuModel(m.env))

	case "r":
		if m.env.UserID <= 0 {
			return m, nil
		}
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.poller.Refresh())

	case "i":
		return m.leave(NewImportModel(m.env))

	case "D":
		if !m.deletingAll {
			m.confirmDeleteAll = true
		}
		return m, nil

	case "b":
		if m.env.UserID <= 0 {
			var cmd tea.Cmd
			m.toast, cmd = m.toast.show(toastError, "No current user, run `wavechat use <userId>` first")
			return m, cmd
		}
		var cmd tea.Cmd
		m.broadcast, cmd = m.broadcast.show()
		return m, cmd

	case "enter":
		if item, ok := m.list.SelectedItem().(chatItem); ok {
			return m.leave(NewChatModel(m.env, item.contact))
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m ChatListModel) View() string {
	if m.broadcast.open {
		return m.broadcast.View(m.env) + "\n" + m.toast.View()
	}

	if m.confirmDeleteAll {
		s := titleStyle.Render("Delete All Contacts") + "\n\n"
		s += normalStyle.Render(fmt.Sprintf("Are you sure you want to delete all %d contacts?", len(m.contacts))) + "\n\n"
		s += errorStyle.Render("This action cannot be undone.") + "\n\n"
		s += helpStyle.Render("y: confirm delete • n/esc: cancel")
		return s
	}

	if m.env.UserID <= 0 {
		s := titleStyle.Render("Chats") + "\n\n"
		s += errorStyle.Render("No current user. Run `wavechat use <userId>` first.") + "\n\n"
		s += m.toast.View()
		s += helpStyle.Render("i: import • esc: back • q: quit")
		return s
	}

	if m.loading && len(m.contacts) == 0 {
		return fmt.Sprintf("\n  %s Loading contacts...\n", m.spinner.View())
	}

	var s string
	if len(m.contacts) == 0 {
		s = titleStyle.Render("Chats") + "\n\n"
		s += normalStyle.Render("  No contacts yet. Press 'i' to import some.") + "\n\n"
	} else {
		s = m.list.View() + "\n"
	}

	if m.deletingAll {
		s += statusStyle.Render(m.spinner.View()+" Deleting contacts...") + "\n"
	}
	if m.poller.Expired() {
		s += statusStyle.Render("Live updates stopped, press r to refresh") + "\n"
	}
	s += m.toast.View()
	s += helpStyle.Render("↑↓/jk: navigate • enter: open • i: import • b: broadcast • D: delete all • /: search • r: refresh • esc: back • q: quit")
	return s
}
