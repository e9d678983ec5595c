package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/saravenpi/wavechat/internal/actions"
	"github.com/saravenpi/wavechat/internal/api"
	"github.com/saravenpi/wavechat/internal/contacts"
	"github.com/saravenpi/wavechat/internal/logging"
)

const (
	maxGenerated   = 500
	previewRows    = 12
	rejectedRows   = 5
	defaultStartID = 100
)

type importStage int

const (
	stageSource importStage = iota
	stagePreview
)

type previewLoadedMsg struct {
	preview contacts.Preview
	source  string
	err     error
}

type previewValidatedMsg struct {
	preview contacts.Preview
	removed []string
	err     error
}

type importDoneMsg struct {
	res   *api.Result
	count int
	err   error
}

type importReloadMsg struct{}

// ImportModel builds an import preview from a CSV file, generated fake
// contacts or the address book, and submits it as one batch.
type ImportModel struct {
	env          *Env
	stage        importStage
	pathInput    textinput.Model
	countInput   textinput.Model
	focusIndex   int
	preview      contacts.Preview
	source       string
	removed      []string
	validated    bool
	working      bool
	sending      bool
	done         bool
	err          error
	toast        toast
	spinner      spinner.Model
	windowWidth  int
	windowHeight int
}

func NewImportModel(env *Env) ImportModel {
	pathInput := textinput.New()
	pathInput.Placeholder = "contacts.csv"
	pathInput.Focus()
	pathInput.CharLimit = 256
	pathInput.Width = 50

	countInput := textinput.New()
	countInput.Placeholder = "10"
	countInput.CharLimit = 4
	countInput.Width = 10

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = statusStyle

	return ImportModel{
		env:          env,
		pathInput:    pathInput,
		countInput:   countInput,
		spinner:      s,
		windowWidth:  80,
		windowHeight: 30,
	}
}

func (m ImportModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m ImportModel) startingID() int64 {
	if m.env.Config != nil && m.env.Config.Import.StartingID > 0 {
		return m.env.Config.Import.StartingID
	}
	return defaultStartID
}

func loadCSVCmd(path string) tea.Cmd {
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return previewLoadedMsg{err: fmt.Errorf("failed to open %s: %w", path, err)}
		}
		defer f.Close()

		preview, err := contacts.ParseCSV(f)
		return previewLoadedMsg{preview: preview, source: filepath.Base(path), err: err}
	}
}

func generateCmd(n int) tea.Cmd {
	return func() tea.Msg {
		entries := contacts.Generate(n, uint64(time.Now().UnixNano()))
		return previewLoadedMsg{
			preview: contacts.Preview{Entries: entries},
			source:  fmt.Sprintf("%d generated contacts", n),
		}
	}
}

func addressBookCmd(book *contacts.Book) tea.Cmd {
	return func() tea.Msg {
		entries, err := book.Entries()
		return previewLoadedMsg{preview: contacts.Preview{Entries: entries}, source: "address book", err: err}
	}
}

func (m ImportModel) validateCmd() tea.Cmd {
	env, preview := m.env, m.preview
	return func() tea.Msg {
		ctx, cancel := env.requestContext()
		defer cancel()

		filtered, removed, err := actions.ValidatePreview(ctx, env.Client, preview)
		if err != nil {
			logger().Warn().Err(err).Msg("profile validation failed")
		}
		return previewValidatedMsg{preview: filtered, removed: removed, err: err}
	}
}

func (m ImportModel) importCmd() tea.Cmd {
	env, entries, startingID := m.env, m.preview.Entries, m.startingID()
	return func() tea.Msg {
		ctx, cancel := env.requestContext()
		defer cancel()

		res, err := actions.Import(ctx, env.Client, env.Store, startingID, entries)
		if err != nil {
			logger().Error().Err(err).Int(logging.FieldCount, len(entries)).Msg("contact import failed")
		}
		return importDoneMsg{res: res, count: len(entries), err: err}
	}
}

func (m ImportModel) backToList() (tea.Model, tea.Cmd) {
	list := NewChatListModel(m.env)
	list.toast = m.toast
	next := resize(list, m.windowWidth, m.windowHeight)
	return next, next.Init()
}

func (m ImportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		return m, nil

	case previewLoadedMsg:
		m.working = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.preview = msg.preview
		m.source = msg.source
		m.removed = nil
		m.validated = false
		m.stage = stagePreview
		return m, nil

	case previewValidatedMsg:
		m.working = false
		if msg.err != nil {
			var cmd tea.Cmd
			m.toast, cmd = m.toast.show(toastError, api.MessageOf(msg.err, "Failed to validate numbers"))
			return m, cmd
		}
		m.preview = msg.preview
		m.removed = append(m.removed, msg.removed...)
		m.validated = true
		return m, nil

	case importDoneMsg:
		m.sending = false
		var cmd tea.Cmd
		if msg.err != nil {
			m.toast, cmd = m.toast.show(toastError, api.MessageOf(msg.err, "Failed to import contacts"))
			return m, cmd
		}
		text := msg.res.Message
		if text == "" {
			text = fmt.Sprintf("Imported %d contacts", msg.count)
		}
		m.done = true
		m.toast, cmd = m.toast.show(toastSuccess, text)
		return m, tea.Batch(cmd, tea.Tick(reloadDelay, func(time.Time) tea.Msg {
			return importReloadMsg{}
		}))

	case importReloadMsg:
		return m.backToList()

	case toastExpiredMsg:
		m.toast = m.toast.expire(msg)
		return m, nil

	case spinner.TickMsg:
		if m.working || m.sending {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.done || m.working {
			return m, nil
		}
		if m.stage == stagePreview {
			return m.updatePreview(msg)
		}
		return m.updateSource(msg)
	}

	return m, m.updateInputs(msg)
}

func (m ImportModel) updateSource(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m.backToList()

	case "tab", "shift+tab", "up", "down":
		m.focusIndex = 1 - m.focusIndex
		if m.focusIndex == 0 {
			m.countInput.Blur()
			return m, m.pathInput.Focus()
		}
		m.pathInput.Blur()
		return m, m.countInput.Focus()

	case "ctrl+b":
		m.working = true
		return m, tea.Batch(m.spinner.Tick, addressBookCmd(m.env.Book))

	case "enter":
		if m.focusIndex == 0 {
			path := strings.TrimSpace(m.pathInput.Value())
			if path == "" {
				m.err = fmt.Errorf("enter the path of a CSV file")
				return m, nil
			}
			m.working = true
			return m, tea.Batch(m.spinner.Tick, loadCSVCmd(path))
		}

		n, err := strconv.Atoi(strings.TrimSpace(m.countInput.Value()))
		if err != nil || n < 1 || n > maxGenerated {
			m.err = fmt.Errorf("count must be between 1 and %d", maxGenerated)
			return m, nil
		}
		m.working = true
		return m, tea.Batch(m.spinner.Tick, generateCmd(n))
	}

	return m, m.updateInputs(msg)
}

func (m ImportModel) updatePreview(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if m.sending {
			return m, nil
		}
		m.stage = stageSource
		m.preview = contacts.Preview{}
		return m, nil

	case "v":
		if m.sending || m.validated || len(m.preview.Entries) == 0 {
			return m, nil
		}
		m.working = true
		return m, tea.Batch(m.spinner.Tick, m.validateCmd())

	case "ctrl+s":
		if m.sending {
			return m, nil
		}
		if len(m.preview.Entries) == 0 {
			var cmd tea.Cmd
			m.toast, cmd = m.toast.show(toastError, "No valid phone numbers to import")
			return m, cmd
		}
		m.sending = true
		return m, tea.Batch(m.spinner.Tick, m.importCmd())
	}
	return m, nil
}

func (m *ImportModel) updateInputs(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.pathInput, cmd = m.pathInput.Update(msg)
	cmds = append(cmds, cmd)
	m.countInput, cmd = m.countInput.Update(msg)
	cmds = append(cmds, cmd)
	return tea.Batch(cmds...)
}

func (m ImportModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("📥 Import Contacts") + "\n")

	if m.stage == stageSource {
		focusedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
		blurredStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
		label := func(text string, focused bool) string {
			if focused {
				return focusedStyle.Render(text)
			}
			return blurredStyle.Render(text)
		}

		b.WriteString(label("CSV file (phone or phone,name per line):", m.focusIndex == 0) + "\n")
		b.WriteString(m.pathInput.View() + "\n\n")
		b.WriteString(label(fmt.Sprintf("Or generate fake contacts (1-%d):", maxGenerated), m.focusIndex == 1) + "\n")
		b.WriteString(m.countInput.View() + "\n\n")

		if m.working {
			b.WriteString(statusStyle.Render(m.spinner.View()+" Loading...") + "\n\n")
		}
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n")
		}
		b.WriteString(m.toast.View())
		b.WriteString(helpStyle.Render("tab: switch • enter: load • ctrl+b: from address book • esc: back"))
		return b.String()
	}

	b.WriteString(statusStyle.Render(fmt.Sprintf("Source: %s • %d to import • %d rejected • ids from %d",
		m.source, len(m.preview.Entries), len(m.preview.Rejected), m.startingID())) + "\n\n")

	for i, entry := range m.preview.Entries {
		if i == previewRows {
			b.WriteString(helpStyle.Render(fmt.Sprintf("  ... and %d more", len(m.preview.Entries)-previewRows)) + "\n")
			break
		}
		line := "  " + entry.PhoneNumber
		if entry.Name != "" {
			line += "  " + entry.Name
		}
		b.WriteString(normalStyle.Render(line) + "\n")
	}

	if len(m.preview.Rejected) > 0 {
		b.WriteString("\n" + errorStyle.Render("Rejected lines:") + "\n")
		for i, r := range m.preview.Rejected {
			if i == rejectedRows {
				b.WriteString(helpStyle.Render(fmt.Sprintf("  ... and %d more", len(m.preview.Rejected)-rejectedRows)) + "\n")
				break
			}
			b.WriteString(helpStyle.Render(fmt.Sprintf("  line %d: %s", r.Line, r.Text)) + "\n")
		}
	}

	if len(m.removed) > 0 {
		b.WriteString("\n" + errorStyle.Render(fmt.Sprintf("No WhatsApp profile (%d removed): %s",
			len(m.removed), strings.Join(m.removed, ", "))) + "\n")
	}
	b.WriteString("\n")

	switch {
	case m.sending:
		b.WriteString(statusStyle.Render(m.spinner.View()+" Importing...") + "\n")
	case m.working:
		b.WriteString(statusStyle.Render(m.spinner.View()+" Validating numbers...") + "\n")
	case m.validated:
		b.WriteString(onlineStyle.Render("✓ Numbers validated") + "\n")
	}
	b.WriteString(m.toast.View())
	b.WriteString(helpStyle.Render("v: validate WhatsApp profiles • ctrl+s: import • esc: change source"))
	return b.String()
}
