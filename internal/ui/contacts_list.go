package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/saravenpi/wavechat/internal/contacts"
)

type contactItem struct {
	contact contacts.Contact
}

func (i contactItem) FilterValue() string { return i.contact.Name }
func (i contactItem) Title() string       { return i.contact.Name }
func (i contactItem) Description() string {
	return strings.Join(i.contact.PhoneNumbers, " • ")
}

type contactsLoadedMsg struct {
	contacts []contacts.Contact
	err      error
}

type contactDeletedMsg struct {
	err error
}

// ContactsListModel is the local address book.
type ContactsListModel struct {
	env             *Env
	list            list.Model
	contacts        []contacts.Contact
	loading         bool
	err             error
	windowWidth     int
	windowHeight    int
	confirmDelete   bool
	contactToDelete *contacts.Contact
}

// NewContactsListModel creates a new address book view.
func NewContactsListModel(env *Env) ContactsListModel {
	return ContactsListModel{
		env:          env,
		list:         newList("Address Book", true),
		loading:      true,
		windowWidth:  80,
		windowHeight: 30,
	}
}

func (m ContactsListModel) Init() tea.Cmd {
	return m.loadContactsCmd()
}

func (m ContactsListModel) loadContactsCmd() tea.Cmd {
	book := m.env.Book
	return func() tea.Msg {
		book.Invalidate()
		list, err := book.List()
		return contactsLoadedMsg{contacts: list, err: err}
	}
}

func (m ContactsListModel) deleteContactCmd(name string) tea.Cmd {
	book := m.env.Book
	return func() tea.Msg {
		return contactDeletedMsg{err: book.Delete(name)}
	}
}

func (m ContactsListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height - 4)
		return m, nil

	case contactsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.contacts = msg.contacts
		items := make([]list.Item, len(m.contacts))
		for i, contact := range m.contacts {
			items[i] = contactItem{contact: contact}
		}
		m.list.SetItems(items)
		m.list.Title = fmt.Sprintf("Address Book - %d contacts", len(m.contacts))
		return m, nil

	case contactDeletedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.loading = true
		return m, m.loadContactsCmd()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.confirmDelete {
			switch msg.String() {
			case "y", "Y":
				target := m.contactToDelete
				m.confirmDelete = false
				m.contactToDelete = nil
				if target == nil {
					return m, nil
				}
				return m, m.deleteContactCmd(target.Name)
			case "n", "N", "esc":
				m.confirmDelete = false
				m.contactToDelete = nil
			}
			return m, nil
		}

		if m.list.FilterState() == list.Filtering {
			var cmd tea.Cmd
			m.list, cmd = m.list.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "esc", "q":
			menu := resize(NewMenuModel(m.env), m.windowWidth, m.windowHeight)
			return menu, menu.Init()

		case "n", "a":
			form := resize(NewContactFormModel(m.env, nil), m.windowWidth, m.windowHeight)
			return form, form.Init()

		case "r":
			m.loading = true
			return m, m.loadContactsCmd()

		case "enter":
			if item, ok := m.list.SelectedItem().(contactItem); ok {
				contact := item.contact
				form := resize(NewContactFormModel(m.env, &contact), m.windowWidth, m.windowHeight)
				return form, form.Init()
			}
			return m, nil

		case "d", "delete":
			if item, ok := m.list.SelectedItem().(contactItem); ok {
				m.confirmDelete = true
				contactCopy := item.contact
				m.contactToDelete = &contactCopy
			}
			return m, nil
		}

		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m ContactsListModel) View() string {
	if m.confirmDelete && m.contactToDelete != nil {
		s := titleStyle.Render("Delete Contact") + "\n\n"
		s += normalStyle.Render(fmt.Sprintf("Are you sure you want to delete '%s'?", m.contactToDelete.Name)) + "\n\n"
		s += errorStyle.Render("This action cannot be undone.") + "\n\n"
		s += helpStyle.Render("y: confirm delete • n/esc: cancel")
		return s
	}

	if m.loading {
		return "\n  Loading address book...\n"
	}

	if m.err != nil {
		s := titleStyle.Render("Address Book") + "\n\n"
		s += errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n"
		s += helpStyle.Render("r: retry • esc: back to menu")
		return s
	}

	if len(m.contacts) == 0 {
		s := titleStyle.Render("Address Book") + "\n\n"
		s += normalStyle.Render("  No contacts found. Press 'n' to add a contact.") + "\n"
		s += "\n" + helpStyle.Render("n: new contact • esc: back")
		return s
	}

	s := m.list.View() + "\n"
	s += helpStyle.Render("↑↓/jk: navigate • enter: edit • n: new • d: delete • /: search • r: refresh • esc: back")
	return s
}
