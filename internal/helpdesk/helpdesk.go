// internal/helpdesk/helpdesk.go
// Package helpdesk provides the interactive console agents use to work the
// contact queue: review waiting submissions, re-ask the corpus, grade the
// exchange, and close it with a notice to the member.
package helpdesk

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mwiater/pythia/internal/database"
	"github.com/mwiater/pythia/internal/logging"
	"github.com/mwiater/pythia/internal/mailer"
	"github.com/mwiater/pythia/internal/query"
	"github.com/mwiater/pythia/internal/util"
)

// ContactQueue is the slice of the contact repository the helpdesk needs.
type ContactQueue interface {
	ListByStatus(ctx context.Context, status string) ([]*database.Contact, error)
	SaveAnswer(ctx context.Context, id, answer, finalPrompt string) error
	CloseContact(ctx context.Context, id string, grade int) error
}

// Answerer is the slice of the query runner the helpdesk needs.
type Answerer interface {
	Answer(ctx context.Context, question string) (query.Result, error)
}

// NoticeSender delivers the closing email. Nil disables notices.
type NoticeSender interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// viewState represents the current view or screen of the helpdesk.
type viewState int

const (
	// viewQueue is the state where the agent picks a waiting contact.
	viewQueue viewState = iota
	// viewReview is the state where the agent works one contact.
	viewReview
)

// model is the main application model for the Bubble Tea UI.
type model struct {
	ctx     context.Context
	queue   ContactQueue
	runner  Answerer
	notices NoticeSender

	state     viewState
	isLoading bool
	err       error

	contactList list.Model
	viewport    viewport.Model
	spinner     spinner.Model

	contacts   []*database.Contact
	selected   *database.Contact
	fresh      query.Result
	statusLine string

	width, height    int
	requestStartTime time.Time
}

// initialModel creates and initializes a new model with default values.
func initialModel(ctx context.Context, queue ContactQueue, runner Answerer, notices NoticeSender) *model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	contactList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	contactList.Title = "Waiting contacts"

	return &model{
		ctx:         ctx,
		queue:       queue,
		runner:      runner,
		notices:     notices,
		state:       viewQueue,
		spinner:     s,
		contactList: contactList,
		viewport:    viewport.New(100, 5),
	}
}

// item represents a selectable contact in the queue list.
type item struct {
	contact *database.Contact
}

// Title returns the member name and request type.
func (i item) Title() string {
	return fmt.Sprintf("%s %s - %s", i.contact.FirstName, i.contact.LastName, i.contact.ContactType)
}

// Description returns the question, truncated to one line.
func (i item) Description() string {
	return util.TruncateRunes(strings.ReplaceAll(i.contact.Question, "\n", " "), 70)
}

// FilterValue returns the searchable text for the item.
func (i item) FilterValue() string {
	return i.contact.FirstName + " " + i.contact.LastName + " " + i.contact.Question
}

// queueLoadedMsg is sent when the waiting queue has been fetched.
type queueLoadedMsg struct{ contacts []*database.Contact }

// queueLoadErr is sent when fetching the queue fails.
type queueLoadErr struct{ error }

// answerMsg is sent when a fresh corpus answer arrives for the open contact.
type answerMsg struct{ result query.Result }

// answerErr is sent when re-asking the corpus fails.
type answerErr struct{ error }

// closedMsg is sent when a contact was closed and the notice handled.
type closedMsg struct {
	id         string
	noticeSent bool
	noticeErr  error
}

// closeErr is sent when closing a contact fails.
type closeErr struct{ error }

// loadQueueCmd fetches the waiting contacts.
func loadQueueCmd(ctx context.Context, queue ContactQueue) tea.Cmd {
	return func() tea.Msg {
		contacts, err := queue.ListByStatus(ctx, database.StatusWaiting)
		if err != nil {
			return queueLoadErr{error: err}
		}
		return queueLoadedMsg{contacts: contacts}
	}
}

// askCmd re-runs the contact's question against the corpus.
func askCmd(ctx context.Context, runner Answerer, question string) tea.Cmd {
	return func() tea.Msg {
		logging.LogRequest("out", "platform", "helpdeskAsk", question)
		result, err := runner.Answer(ctx, question)
		if err != nil {
			return answerErr{error: err}
		}
		return answerMsg{result: result}
	}
}

// closeCmd grades and closes the contact, persists a fresh answer when one
// was generated, and sends the closing notice.
func closeCmd(ctx context.Context, queue ContactQueue, notices NoticeSender, contact *database.Contact, fresh query.Result, grade int) tea.Cmd {
	return func() tea.Msg {
		if strings.TrimSpace(fresh.Answer) != "" && fresh.Answer != contact.Answer {
			if err := queue.SaveAnswer(ctx, contact.ID, fresh.Answer, fresh.FinalPrompt); err != nil {
				return closeErr{error: err}
			}
			contact.Answer = fresh.Answer
		}
		if err := queue.CloseContact(ctx, contact.ID, grade); err != nil {
			return closeErr{error: err}
		}
		logging.LogEvent("contact closed: id=%s grade=%d", contact.ID, grade)

		msg := closedMsg{id: contact.ID}
		if notices != nil {
			if err := notices.Send(ctx, mailer.ClosingNotice(contact)); err != nil {
				logging.LogEvent("closing notice failed: contact=%s err=%v", contact.ID, err)
				msg.noticeErr = err
			} else {
				msg.noticeSent = true
			}
		}
		return msg
	}
}

// Init starts the spinner and loads the queue.
func (m *model) Init() tea.Cmd {
	m.isLoading = true
	m.requestStartTime = time.Now()
	return tea.Batch(m.spinner.Tick, loadQueueCmd(m.ctx, m.queue))
}

// Update is the central update function for the Bubble Tea model.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.state == viewQueue {
				return m, tea.Quit
			}
		case "esc":
			if m.state == viewReview {
				m.state = viewQueue
				m.selected = nil
				m.fresh = query.Result{}
				m.err = nil
				return m, nil
			}
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.contactList.SetSize(msg.Width-2, msg.Height-4)
		m.viewport.Width = msg.Width - 2
		m.viewport.Height = util.Max(msg.Height-8, 3)

	case queueLoadedMsg:
		m.isLoading = false
		m.contacts = msg.contacts
		items := make([]list.Item, len(msg.contacts))
		for i, contact := range msg.contacts {
			items[i] = item{contact: contact}
		}
		m.contactList.SetItems(items)
		m.contactList.Title = fmt.Sprintf("Waiting contacts (%d)", len(msg.contacts))
		return m, nil

	case queueLoadErr:
		m.isLoading = false
		m.err = msg.error
		return m, nil

	case answerMsg:
		m.isLoading = false
		m.fresh = msg.result
		m.statusLine = fmt.Sprintf("Fresh answer from %d passages", len(msg.result.Passages))
		return m, nil

	case answerErr:
		m.isLoading = false
		m.err = msg.error
		return m, nil

	case closedMsg:
		m.isLoading = false
		m.state = viewQueue
		m.selected = nil
		m.fresh = query.Result{}
		switch {
		case msg.noticeErr != nil:
			m.statusLine = fmt.Sprintf("Closed %s, but the notice failed: %v", msg.id, msg.noticeErr)
		case msg.noticeSent:
			m.statusLine = fmt.Sprintf("Closed %s, notice sent", msg.id)
		default:
			m.statusLine = fmt.Sprintf("Closed %s", msg.id)
		}
		m.isLoading = true
		m.requestStartTime = time.Now()
		return m, tea.Batch(m.spinner.Tick, loadQueueCmd(m.ctx, m.queue))

	case closeErr:
		m.isLoading = false
		m.err = msg.error
		return m, nil
	}

	switch m.state {
	case viewQueue:
		m.contactList, cmd = m.contactList.Update(msg)
		cmds = append(cmds, cmd)
		if msg, ok := msg.(tea.KeyMsg); ok && !m.isLoading {
			switch msg.String() {
			case "enter":
				if selected, ok := m.contactList.SelectedItem().(item); ok {
					m.selected = selected.contact
					m.fresh = query.Result{}
					m.err = nil
					m.statusLine = ""
					m.state = viewReview
					m.viewport.SetContent(m.reviewContent())
					m.viewport.GotoTop()
				}
			case "r":
				m.isLoading = true
				m.requestStartTime = time.Now()
				cmds = append(cmds, m.spinner.Tick, loadQueueCmd(m.ctx, m.queue))
			}
		}

	case viewReview:
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
		if msg, ok := msg.(tea.KeyMsg); ok && !m.isLoading && m.selected != nil {
			switch key := msg.String(); key {
			case "a":
				m.isLoading = true
				m.requestStartTime = time.Now()
				m.err = nil
				cmds = append(cmds, m.spinner.Tick, askCmd(m.ctx, m.runner, m.selected.Question))
			case "1", "2", "3", "4", "5":
				grade := int(key[0] - '0')
				m.isLoading = true
				m.requestStartTime = time.Now()
				m.err = nil
				cmds = append(cmds, m.spinner.Tick, closeCmd(m.ctx, m.queue, m.notices, m.selected, m.fresh, grade))
			}
		}
		m.viewport.SetContent(m.reviewContent())
	}

	if m.isLoading {
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View renders the helpdesk UI based on the current state of the model.
func (m *model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	if m.err != nil && m.state == viewQueue {
		errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Padding(1)
		return errorStyle.Render(fmt.Sprintf("Error: %v", m.err))
	}

	switch m.state {
	case viewQueue:
		if m.isLoading {
			timer := fmt.Sprintf("%.1f", time.Since(m.requestStartTime).Seconds())
			return fmt.Sprintf("\n  %s Loading queue... %ss\n", m.spinner.View(), timer)
		}
		view := m.contactList.View()
		if m.statusLine != "" {
			view += "\n  " + lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render(m.statusLine)
		}
		view += "\n  (enter to review, r to refresh, q to quit)"
		return lipgloss.NewStyle().Margin(1, 2).Render(view)

	case viewReview:
		var builder strings.Builder
		headerStyle := lipgloss.NewStyle().Background(lipgloss.Color("62")).Foreground(lipgloss.Color("230")).Padding(0, 1)
		builder.WriteString(headerStyle.Render(fmt.Sprintf("Contact %s", m.selected.ID)) + "\n\n")
		builder.WriteString(m.viewport.View())
		if m.isLoading {
			timer := fmt.Sprintf("%.1f", time.Since(m.requestStartTime).Seconds())
			builder.WriteString(fmt.Sprintf("\n  %s Working... %ss", m.spinner.View(), timer))
		} else {
			builder.WriteString("\n  (a to ask the corpus again, 1-5 to grade and close, esc to go back)")
		}
		if m.err != nil {
			builder.WriteString("\n  " + lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render(fmt.Sprintf("Error: %v", m.err)))
		}
		return builder.String()

	default:
		return "Unknown state"
	}
}

// reviewContent renders the open contact for the review viewport.
func (m *model) reviewContent() string {
	if m.selected == nil {
		return ""
	}
	width := util.Max(m.width-6, 20)
	labelStyle := lipgloss.NewStyle().Bold(true)

	var builder strings.Builder
	builder.WriteString(labelStyle.Render("Member: "))
	builder.WriteString(fmt.Sprintf("%s %s <%s>\n", m.selected.FirstName, m.selected.LastName, m.selected.Email))
	if m.selected.DateOfBirth != "" {
		builder.WriteString(labelStyle.Render("Date of birth: "))
		builder.WriteString(m.selected.DateOfBirth + "\n")
	}
	builder.WriteString(labelStyle.Render("Type: "))
	builder.WriteString(m.selected.ContactType + "\n")
	builder.WriteString(labelStyle.Render("Received: "))
	builder.WriteString(m.selected.CreatedAt.Format(time.RFC822) + "\n\n")
	builder.WriteString(labelStyle.Render("Question") + "\n")
	builder.WriteString(util.WrapToWidth(m.selected.Question, width) + "\n\n")
	builder.WriteString(labelStyle.Render("Answer on record") + "\n")
	if strings.TrimSpace(m.selected.Answer) == "" {
		builder.WriteString("(none)\n")
	} else {
		builder.WriteString(util.WrapToWidth(m.selected.Answer, width) + "\n")
	}
	if m.fresh.Answer != "" {
		builder.WriteString("\n" + labelStyle.Render("Fresh answer") + "\n")
		builder.WriteString(util.WrapToWidth(m.fresh.Answer, width) + "\n")
	}
	if m.statusLine != "" {
		builder.WriteString("\n" + m.statusLine + "\n")
	}
	return builder.String()
}

// Start runs the interactive helpdesk until the agent quits.
func Start(ctx context.Context, queue ContactQueue, runner Answerer, notices NoticeSender) error {
	if queue == nil {
		return fmt.Errorf("helpdesk needs a contact queue; configure a database url")
	}
	if runner == nil {
		return fmt.Errorf("helpdesk needs a query runner")
	}

	f, err := tea.LogToFile("pythia.log", "debug")
	if err != nil {
		log.Fatalf("could not open log file: %v", err)
	}
	defer f.Close()

	m := initialModel(ctx, queue, runner, notices)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("helpdesk program: %w", err)
	}
	return nil
}
