package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/npc-responder/pkg/dialogue"
	"github.com/jwebster45206/npc-responder/pkg/responder"
	"github.com/jwebster45206/npc-responder/pkg/schedule"
	"github.com/jwebster45206/npc-responder/pkg/textfilter"
)

const (
	PlayerName      = "You"
	PlaceHolderText = "Say something..."
	maxTranscript   = 200
)

// ConsoleUI is the BubbleTea model hosting a single responder.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	def       *dialogue.Definition
	responder *responder.Responder
	clock     *schedule.Manual
	input     *inputBox
	subtitles *subtitlePanel
	audio     *terminalAudio

	transcript viewport.Model
	lines      []string

	tickInterval time.Duration
	lastTick     time.Time

	width  int
	height int
	notice string
}

type tickMsg time.Time

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	npcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	speakingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	subtitleStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1).
			Foreground(lipgloss.Color("255"))
)

func NewConsoleUI(def *dialogue.Definition, r *responder.Responder, clock *schedule.Manual, input *inputBox, subtitles *subtitlePanel, audio *terminalAudio, tickInterval time.Duration) *ConsoleUI {
	vp := viewport.New(50, 10)
	vp.MouseWheelEnabled = true

	return &ConsoleUI{
		def:          def,
		responder:    r,
		clock:        clock,
		input:        input,
		subtitles:    subtitles,
		audio:        audio,
		transcript:   vp,
		tickInterval: tickInterval,
		lastTick:     time.Now(),
	}
}

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *ConsoleUI) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, tick(m.tickInterval))
}

func (m *ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		now := time.Time(msg)
		m.clock.Advance(now.Sub(m.lastTick))
		m.lastTick = now
		return m, tick(m.tickInterval)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.transcript.Width = m.contentWidth()
		m.transcript.Height = max(m.height-14, 3)
		m.input.setWidth(m.contentWidth())
		m.writeTranscript()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyCtrlY:
			m.copySubtitle()
			return m, nil
		case tea.KeyEnter:
			return m, m.submit(msg)
		}
	}

	var vpCmd tea.Cmd
	m.transcript, vpCmd = m.transcript.Update(msg)
	return m, tea.Batch(m.input.update(msg), vpCmd)
}

// submit routes enter through the input box, which fires the responder's
// subscription, then records the exchange.
func (m *ConsoleUI) submit(msg tea.KeyMsg) tea.Cmd {
	text := m.input.model.Value()
	wasLocked := m.def.LockWhileSpeaking && m.responder.IsSpeaking()

	cmd := m.input.update(msg)

	if textfilter.IsBlank(text) {
		return cmd
	}
	m.lines = append(m.lines, userStyle.Render(PlayerName+": ")+strings.TrimSpace(text))
	switch {
	case wasLocked:
		m.lines = append(m.lines, promptStyle.Render(fmt.Sprintf("(%s is still speaking)", m.displayName())))
	case m.subtitles.text != "":
		m.lines = append(m.lines, speakerStyle.Render(m.displayName()+": ")+npcStyle.Render(m.subtitles.text))
	}
	if len(m.lines) > maxTranscript {
		m.lines = m.lines[len(m.lines)-maxTranscript:]
	}
	m.writeTranscript()
	return cmd
}

func (m *ConsoleUI) copySubtitle() {
	if m.subtitles.last == "" {
		m.notice = "Nothing to copy yet"
		return
	}
	if err := clipboard.WriteAll(m.subtitles.last); err != nil {
		m.notice = "Copy failed: " + err.Error()
		return
	}
	m.notice = "Copied last subtitle"
}

func (m *ConsoleUI) writeTranscript() {
	width := m.contentWidth()
	wrapped := make([]string, 0, len(m.lines))
	for _, line := range m.lines {
		wrapped = append(wrapped, wordwrap.String(line, width))
	}
	m.transcript.SetContent(strings.Join(wrapped, "\n"))
	m.transcript.GotoBottom()
}

func (m *ConsoleUI) contentWidth() int {
	if m.width <= 0 {
		return 60
	}
	return max(m.width-6, 20)
}

func (m *ConsoleUI) displayName() string {
	if m.def.Name != "" {
		return m.def.Name
	}
	return m.def.ID
}

func (m *ConsoleUI) View() string {
	width := m.contentWidth()
	var b strings.Builder

	b.WriteString(titleStyle.Render(strings.ToUpper(m.displayName())) + "\n\n")

	state := m.responder.State()
	stateLine := "state: " + state.String()
	if state == responder.StateSpeaking {
		stateLine = speakingStyle.Render(stateLine)
	} else {
		stateLine = promptStyle.Render(stateLine)
	}
	b.WriteString(stateLine + "   " + promptStyle.Render(m.audio.status()) + "\n")

	subtitle := m.subtitles.text
	if subtitle == "" {
		subtitle = " "
	}
	b.WriteString(subtitleStyle.Width(width).Render(wordwrap.String(subtitle, width-4)) + "\n\n")

	b.WriteString(m.transcript.View() + "\n\n")
	b.WriteString(m.input.view() + "\n")

	help := "enter: speak • ctrl+y: copy subtitle • esc: quit"
	if m.notice != "" {
		help = m.notice + " • " + help
	}
	b.WriteString(promptStyle.Render(help))

	return b.String()
}
