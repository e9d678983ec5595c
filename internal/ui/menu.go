package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

type menuItem struct {
	title string
	desc  string
}

func (i menuItem) FilterValue() string { return i.title }
func (i menuItem) Title() string       { return i.title }
func (i menuItem) Description() string { return i.desc }

const (
	menuChats       = "💬 Chats"
	menuAddressBook = "📒 Address Book"
	menuBotReplies  = "🤖 Bot Replies"
)

type MenuModel struct {
	env          *Env
	list         list.Model
	windowWidth  int
	windowHeight int
}

// NewMenuModel creates the main menu with Chats, Address Book and Bot
// Replies options.
func NewMenuModel(env *Env) MenuModel {
	items := []list.Item{
		menuItem{title: menuChats, desc: "Contacts, chats, import and broadcast"},
		menuItem{title: menuAddressBook, desc: "Local contacts usable as an import source"},
		menuItem{title: menuBotReplies, desc: "Canned replies, delays and bot count"},
	}

	l := list.New(items, newDelegate(), 80, 14)
	l.Title = "wavechat"
	if env.UserID > 0 {
		l.Title = fmt.Sprintf("wavechat - user #%d", env.UserID)
	}
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	return MenuModel{
		env:          env,
		list:         l,
		windowWidth:  80,
		windowHeight: 30,
	}
}

func (m MenuModel) Init() tea.Cmd {
	return nil
}

func (m MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height - 4)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}

		if msg.String() == "enter" {
			selectedItem, ok := m.list.SelectedItem().(menuItem)
			if !ok {
				return m, nil
			}

			var next tea.Model
			switch selectedItem.title {
			case menuChats:
				next = NewChatListModel(m.env)
			case menuAddressBook:
				next = NewContactsListModel(m.env)
			case menuBotReplies:
				next = NewRepliesModel(m.env)
			default:
				return m, nil
			}
			next = resize(next, m.windowWidth, m.windowHeight)
			return next, next.Init()
		}

		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m MenuModel) View() string {
	s := m.list.View() + "\n"
	s += helpStyle.Render("↑↓/jk: navigate • enter: select • q: quit")
	return s
}
