package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/saravenpi/wavechat/internal/contacts"
)

const phoneFields = 3

type contactSavedMsg struct {
	err error
}

type ContactFormModel struct {
	env             *Env
	originalContact *contacts.Contact
	nameInput       textinput.Model
	phoneInputs     []textinput.Model
	focusIndex      int
	err             error
	windowWidth     int
	windowHeight    int
}

// NewContactFormModel creates a form for adding or editing an address book
// contact.
func NewContactFormModel(env *Env, contact *contacts.Contact) ContactFormModel {
	nameInput := textinput.New()
	nameInput.Placeholder = "Contact Name"
	nameInput.Focus()
	nameInput.CharLimit = 100
	nameInput.Width = 50

	phoneInputs := make([]textinput.Model, phoneFields)
	for i := range phoneInputs {
		phoneInputs[i] = textinput.New()
		phoneInputs[i].Placeholder = fmt.Sprintf("Phone Number %d", i+1)
		if i > 0 {
			phoneInputs[i].Placeholder += " (optional)"
		}
		phoneInputs[i].CharLimit = 20
		phoneInputs[i].Width = 50
	}

	m := ContactFormModel{
		env:             env,
		originalContact: contact,
		nameInput:       nameInput,
		phoneInputs:     phoneInputs,
		windowWidth:     80,
		windowHeight:    30,
	}

	if contact != nil {
		m.nameInput.SetValue(contact.Name)
		for i, phone := range contact.PhoneNumbers {
			if i < len(m.phoneInputs) {
				m.phoneInputs[i].SetValue(phone)
			}
		}
	}

	return m
}

func (m ContactFormModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m ContactFormModel) backToList() (tea.Model, tea.Cmd) {
	list := resize(NewContactsListModel(m.env), m.windowWidth, m.windowHeight)
	return list, list.Init()
}

func (m ContactFormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "esc":
			return m.backToList()

		case "tab", "shift+tab", "down", "up":
			totalInputs := 1 + len(m.phoneInputs)
			if msg.String() == "up" || msg.String() == "shift+tab" {
				m.focusIndex--
				if m.focusIndex < 0 {
					m.focusIndex = totalInputs - 1
				}
			} else {
				m.focusIndex++
				if m.focusIndex >= totalInputs {
					m.focusIndex = 0
				}
			}
			m.updateFocus()
			return m, nil

		case "ctrl+s":
			return m, m.saveContact()
		}

	case contactSavedMsg:
		if msg.err == nil {
			return m.backToList()
		}
		m.err = msg.err
		return m, nil
	}

	cmd := m.updateInputs(msg)
	return m, cmd
}

func (m *ContactFormModel) updateFocus() {
	m.nameInput.Blur()
	for i := range m.phoneInputs {
		m.phoneInputs[i].Blur()
	}

	if m.focusIndex == 0 {
		m.nameInput.Focus()
	} else if m.focusIndex <= len(m.phoneInputs) {
		m.phoneInputs[m.focusIndex-1].Focus()
	}
}

func (m *ContactFormModel) updateInputs(msg tea.Msg) tea.Cmd {
	cmds := make([]tea.Cmd, 0, 1+len(m.phoneInputs))

	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	cmds = append(cmds, cmd)

	for i := range m.phoneInputs {
		m.phoneInputs[i], cmd = m.phoneInputs[i].Update(msg)
		cmds = append(cmds, cmd)
	}

	return tea.Batch(cmds...)
}

func (m ContactFormModel) saveContact() tea.Cmd {
	book, original := m.env.Book, m.originalContact
	name := strings.TrimSpace(m.nameInput.Value())

	phoneNumbers := []string{}
	for _, input := range m.phoneInputs {
		phone := strings.TrimSpace(input.Value())
		if phone != "" {
			phoneNumbers = append(phoneNumbers, phone)
		}
	}

	return func() tea.Msg {
		if name == "" {
			return contactSavedMsg{err: fmt.Errorf("name is required")}
		}

		contact := contacts.Contact{Name: name, PhoneNumbers: phoneNumbers}
		if err := book.Save(contact); err != nil {
			return contactSavedMsg{err: err}
		}

		if original != nil && original.Name != name {
			if err := book.Delete(original.Name); err != nil {
				return contactSavedMsg{err: fmt.Errorf("failed to delete old contact: %w", err)}
			}
		}
		return contactSavedMsg{}
	}
}

func (m ContactFormModel) View() string {
	var b strings.Builder

	title := "Add Contact"
	if m.originalContact != nil {
		title = "Edit Contact"
	}

	b.WriteString(titleStyle.Render(title) + "\n\n")

	focusedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	blurredStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	renderInput := func(input textinput.Model, label string, focused bool) {
		style := blurredStyle
		if focused {
			style = focusedStyle
		}
		b.WriteString(style.Render(label) + "\n")
		b.WriteString(input.View() + "\n\n")
	}

	renderInput(m.nameInput, "Name (required):", m.focusIndex == 0)

	b.WriteString(normalStyle.Render("Phone Numbers (+ and at least 10 digits):") + "\n")
	for i, input := range m.phoneInputs {
		renderInput(input, fmt.Sprintf("  Phone %d:", i+1), m.focusIndex == i+1)
	}

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n")
	}

	b.WriteString(helpStyle.Render("tab/↑↓: navigate • ctrl+s: save • esc: cancel"))

	return b.String()
}
