// Package tui is the interactive terminal client: a Bubble Tea program that
// opens answer streams and folds incoming frames into view state.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/opencouncil/councilsearch/internal/client"
	"github.com/opencouncil/councilsearch/internal/domain"
)

// Stream messages carry the generation of the stream that produced them, so
// commands left in flight after a teardown cannot touch a newer stream's
// state.
type frameMsg struct {
	gen   int
	frame domain.Frame
}

// streamClosedMsg arrives when the frame channel closes.
type streamClosedMsg struct {
	gen int
}

type streamFailedMsg struct{ err error }

// Model is the Bubble Tea model for the search client.
type Model struct {
	api  *client.Client
	conv *client.Conversation

	input    textinput.Model
	viewport viewport.Model
	spin     spinner.Model

	state    client.State
	frames   <-chan domain.Frame
	cancel   context.CancelFunc
	gen      int
	question string
	status   string
	ready    bool
}

// New creates a new TUI model.
func New(api *client.Client) Model {
	ti := textinput.New()
	ti.Prompt = "? "
	ti.Placeholder = "Ask about council decisions, bylaws, motions…"
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		api:    api,
		conv:   &client.Conversation{},
		input:  ti,
		spin:   sp,
		status: "Ready. Type a question and press Enter. Esc clears the conversation.",
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and stream events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.viewport = viewport.New(msg.Width, max(5, msg.Height-7))
		m.viewport.SetContent(m.renderAnswer())
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			m.teardown()
			return m, tea.Quit
		case tea.KeyEsc:
			m.teardown()
			m.conv.Reset()
			m.state = client.State{}
			m.status = "Conversation cleared."
			m.viewport.SetContent(m.renderAnswer())
			return m, nil
		case tea.KeyEnter:
			q := strings.TrimSpace(m.input.Value())
			if q == "" {
				return m, nil
			}
			return m.submit(q)
		}

	case spinner.TickMsg:
		if m.state.Phase == client.PhaseStreaming {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
		return m, nil

	case frameMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.state = m.state.Reduce(msg.frame)
		m.viewport.SetContent(m.renderAnswer())
		m.viewport.GotoBottom()
		if m.state.Phase == client.PhaseAnswered {
			m.conv.Push(m.question, m.state.Answer)
			m.teardown()
			m.status = m.doneStatus()
			return m, nil
		}
		return m, waitForFrame(m.gen, m.frames)

	case streamClosedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		// Channel closed without done: abnormal transport termination.
		if m.state.Phase == client.PhaseStreaming {
			m.state = m.state.Fail("Connection lost. Please try again.")
			m.status = m.state.ErrMsg
		}
		m.teardown()
		return m, nil

	case streamFailedMsg:
		if msg.err == domain.ErrRateLimited {
			m.status = "Too many requests. Wait a minute and try again."
		} else {
			m.status = "Error: " + msg.err.Error()
		}
		m.state = client.State{}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit(q string) (tea.Model, tea.Cmd) {
	// Only one open channel per surface: tear down any prior stream first.
	m.teardown()

	m.conv.Observe(q)

	ctx, cancel := context.WithCancel(context.Background())
	frames, err := m.api.OpenStream(ctx, q, m.conv.Context())
	if err != nil {
		cancel()
		return m, func() tea.Msg { return streamFailedMsg{err: err} }
	}

	m.cancel = cancel
	m.frames = frames
	m.gen++
	m.question = q
	m.state = client.StartStream()
	m.status = "Researching…"
	m.input.SetValue("")
	m.viewport.SetContent(m.renderAnswer())

	return m, tea.Batch(m.spin.Tick, waitForFrame(m.gen, frames))
}

func (m *Model) teardown() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.frames = nil
}

func waitForFrame(gen int, frames <-chan domain.Frame) tea.Cmd {
	return func() tea.Msg {
		f, ok := <-frames
		if !ok {
			return streamClosedMsg{gen: gen}
		}
		return frameMsg{gen: gen, frame: f}
	}
}

func (m Model) doneStatus() string {
	s := "Answered."
	if m.state.CacheID != "" {
		s += " Shareable id: " + m.state.CacheID
	}
	return s
}

// View renders the current fold of the stream.
func (m Model) View() string {
	if !m.ready {
		return "Loading…"
	}

	header := titleStyle.Render("CouncilSearch")
	body := answerBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())

	status := m.status
	if m.state.Phase == client.PhaseStreaming {
		status = m.spin.View() + " " + status
	}

	return header + "\n" + body + "\n" + input + "\n" + statusStyle.Render(status)
}

func (m Model) renderAnswer() string {
	var b strings.Builder

	if len(m.state.Steps) > 0 {
		if m.state.TraceCollapsed {
			fmt.Fprintf(&b, "%s\n\n", traceStyle.Render(fmt.Sprintf("· researched with %d tool call(s)", len(m.state.Steps))))
		} else {
			for _, step := range m.state.Steps {
				marker := "…"
				if step.Resolved {
					marker = "✓"
				}
				fmt.Fprintf(&b, "%s\n", traceStyle.Render(fmt.Sprintf("%s %s", marker, step.Name)))
			}
			b.WriteString("\n")
		}
	}

	if m.state.Answer != "" {
		b.WriteString(m.state.Answer)
		b.WriteString("\n")
	} else if m.state.Phase == client.PhaseIdle {
		b.WriteString("No answer yet.")
	}

	if len(m.state.Sources) > 0 {
		b.WriteString("\n" + headingStyle.Render("Sources") + "\n")
		for _, src := range m.state.Sources {
			line := fmt.Sprintf("- [%s] %s", src.Type, src.Title)
			if src.MeetingDate != "" {
				line += " (" + src.MeetingDate + ")"
			}
			b.WriteString(line + "\n")
		}
	}

	if len(m.state.Followups) > 0 {
		b.WriteString("\n" + headingStyle.Render("You could ask") + "\n")
		for _, f := range m.state.Followups {
			b.WriteString("- " + f + "\n")
		}
	}

	return b.String()
}

var (
	titleStyle     = lipgloss.NewStyle().Bold(true)
	answerBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	traceStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	headingStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
)
