// Package ui provides the interactive dashboard for kokoro-go: type
// text, pick a voice, generate, and review recent generations without
// leaving the terminal.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/aparsoft/kokoro-go/internal/engine"
	"github.com/aparsoft/kokoro-go/internal/history"
	"github.com/aparsoft/kokoro-go/internal/tts"
)

// Config wires the dashboard to the rest of the application.
type Config struct {
	Engine  *tts.Engine
	Store   *history.Store // may be nil
	Voice   string
	Speed   float64
	Version string
}

// NewProgram returns a new Tea program running the dashboard.
func NewProgram(cfg Config) *tea.Program {
	log.Debug("starting dashboard", "voice", cfg.Voice, "speed", cfg.Speed)
	return tea.NewProgram(newModel(cfg), tea.WithAltScreen())
}

// state is the top-level dashboard state.
type state int

const (
	stateInput state = iota
	statePickVoice
	stateGenerating
	stateResult
	stateHistory
)

type generatedMsg struct {
	result *tts.Result
}

type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

type historyMsg struct {
	entries []history.Entry
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("170"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	voiceStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("35"))
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("170")).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginTop(1)
)

type model struct {
	cfg   Config
	state state

	input   textarea.Model
	spinner spinner.Model

	voices     []string
	voiceIndex int

	result  *tts.Result
	lastErr error
	entries []history.Entry

	width  int
	height int
}

func newModel(cfg Config) model {
	ta := textarea.New()
	ta.Placeholder = "Type the text to speak…"
	ta.Focus()
	ta.SetHeight(6)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))

	voices := engine.AllVoices
	index := 0
	for i, v := range voices {
		if v == cfg.Voice {
			index = i
			break
		}
	}

	return model{
		cfg:        cfg,
		state:      stateInput,
		input:      ta,
		spinner:    sp,
		voices:     voices,
		voiceIndex: index,
	}
}

func (m model) Init() tea.Cmd {
	return textarea.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.SetWidth(msg.Width - 4)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		}
		return m.updateKey(msg)

	case generatedMsg:
		m.state = stateResult
		m.result = msg.result
		m.lastErr = nil
		return m, nil

	case errMsg:
		m.state = stateResult
		m.result = nil
		m.lastErr = msg.err
		return m, nil

	case historyMsg:
		m.state = stateHistory
		m.entries = msg.entries
		return m, nil

	case spinner.TickMsg:
		if m.state != stateGenerating {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.state {
	case stateInput:
		switch msg.String() {
		case "esc":
			return m, tea.Quit
		case "tab":
			m.state = statePickVoice
			return m, nil
		case "ctrl+h":
			return m, m.loadHistory()
		case "ctrl+s":
			if strings.TrimSpace(m.input.Value()) == "" {
				return m, nil
			}
			m.state = stateGenerating
			return m, tea.Batch(m.spinner.Tick, m.generate())
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case statePickVoice:
		switch msg.String() {
		case "up", "k":
			if m.voiceIndex > 0 {
				m.voiceIndex--
			}
		case "down", "j":
			if m.voiceIndex < len(m.voices)-1 {
				m.voiceIndex++
			}
		case "enter", "tab", "esc":
			m.state = stateInput
		}
		return m, nil

	case stateResult, stateHistory:
		switch msg.String() {
		case "esc", "enter", "q":
			m.state = stateInput
		}
		return m, nil
	}
	return m, nil
}

// generate runs one facade call off the UI goroutine.
func (m model) generate() tea.Cmd {
	text := m.input.Value()
	voice := m.voices[m.voiceIndex]
	speed := m.cfg.Speed
	eng := m.cfg.Engine
	store := m.cfg.Store

	return func() tea.Msg {
		out := fmt.Sprintf("kokoro_%s.wav", time.Now().Format("20060102_150405"))
		res, err := eng.Generate(context.Background(), tts.Request{
			Text:       text,
			Voice:      voice,
			Speed:      speed,
			OutputPath: out,
		})
		if err != nil {
			return errMsg{err}
		}
		if store != nil {
			entry := history.Entry{
				Mode:       "dashboard",
				Voice:      voice,
				Speed:      speed,
				TextLength: len(text),
				Duration:   res.Duration(),
				OutputPath: res.Path,
			}
			if err := store.Record(context.Background(), entry); err != nil {
				log.Warn("history record failed", "error", err)
			}
		}
		return generatedMsg{res}
	}
}

func (m model) loadHistory() tea.Cmd {
	store := m.cfg.Store
	return func() tea.Msg {
		if store == nil {
			return historyMsg{}
		}
		entries, err := store.Recent(context.Background(), 15)
		if err != nil {
			return errMsg{err}
		}
		return historyMsg{entries}
	}
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Kokoro TTS"))
	b.WriteString("  ")
	b.WriteString(labelStyle.Render("voice:"))
	b.WriteString(" ")
	b.WriteString(voiceStyle.Render(m.voices[m.voiceIndex]))
	b.WriteString("\n\n")

	switch m.state {
	case stateInput:
		b.WriteString(m.input.View())
		b.WriteString(helpStyle.Render("\nctrl+s generate · tab voice · ctrl+h history · esc quit"))

	case statePickVoice:
		b.WriteString(m.viewVoices())
		b.WriteString(helpStyle.Render("\n↑/↓ select · enter confirm"))

	case stateGenerating:
		b.WriteString(m.spinner.View())
		b.WriteString(" Generating speech…")

	case stateResult:
		if m.lastErr != nil {
			b.WriteString(errorStyle.Render("Error: " + m.lastErr.Error()))
		} else {
			fmt.Fprintf(&b, "Saved %s\n", m.result.Path)
			fmt.Fprintf(&b, "%s · %s · %d chunk(s)",
				m.result.Duration().Round(100*time.Millisecond),
				humanize.Comma(int64(m.result.Buffer.Len()))+" samples",
				m.result.Chunks)
		}
		b.WriteString(helpStyle.Render("\nenter to continue"))

	case stateHistory:
		b.WriteString(m.viewHistory())
		b.WriteString(helpStyle.Render("\nenter to continue"))
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func (m model) viewVoices() string {
	// Windowed so long catalogs fit small terminals.
	const window = 12
	start := m.voiceIndex - window/2
	if start < 0 {
		start = 0
	}
	end := start + window
	if end > len(m.voices) {
		end = len(m.voices)
		if end-window > 0 {
			start = end - window
		} else {
			start = 0
		}
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		if i == m.voiceIndex {
			fmt.Fprintf(&b, "%s %s\n", cursorStyle.Render(">"), voiceStyle.Render(m.voices[i]))
		} else {
			fmt.Fprintf(&b, "  %s\n", m.voices[i])
		}
	}
	return b.String()
}

func (m model) viewHistory() string {
	if len(m.entries) == 0 {
		return labelStyle.Render("No generations recorded yet.")
	}
	var b strings.Builder
	for _, e := range m.entries {
		fmt.Fprintf(&b, "%s  %-9s %-12s %6.1fs  %s\n",
			e.CreatedAt.Local().Format("01-02 15:04"),
			e.Mode, e.Voice, e.Duration.Seconds(), e.OutputPath)
	}
	return b.String()
}
