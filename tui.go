package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"dobhash/config"
	"dobhash/lang"
	"dobhash/loop"
)

// TUI message types
type StatusMsg struct {
	Direction int // loop index, 0 or 1
	Text      string
}
type TranscriptMsg struct{ Text string }
type InfoLineMsg struct{ Text string }   // recognizer/model info
type DeviceLineMsg struct{ Text string } // microphone device name
type NoticeMsg struct{ Text string }     // transient footer notice
type noticeExpireMsg struct{}
type tickMsg time.Time

const maxTranscriptLines = 200

// tuiControls are the actions the interface drives. They run on the
// bubbletea goroutine and must not block.
type tuiControls struct {
	toggle     func(i int)
	enabled    func(i int) bool
	switchLang func() (src, tgt lang.Language)
	clear      func()
	save       func() error
}

type tuiModel struct {
	mode     config.Mode
	controls tuiControls

	statuses      [2]string
	transcript    []string
	infoLine      string
	deviceLine    string
	notice        string
	frame         int
	width, height int

	// assistant mode current language
	current lang.Language
}

var (
	tuiProgram *tea.Program
	tuiMu      sync.Mutex
)

var (
	titleStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true)
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	transcriptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	dimStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpKeyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true)
	helpStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	noticeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	pausedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func NewTUIProgram(mode config.Mode, current lang.Language, controls tuiControls) *tea.Program {
	m := tuiModel{mode: mode, controls: controls, current: current}
	return tea.NewProgram(m, tea.WithAltScreen())
}

func tuiTick() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tuiTick()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		m.frame++
		return m, tuiTick()

	case StatusMsg:
		if msg.Direction >= 0 && msg.Direction < len(m.statuses) {
			m.statuses[msg.Direction] = msg.Text
		}

	case TranscriptMsg:
		for _, line := range strings.Split(strings.TrimRight(msg.Text, "\n"), "\n") {
			m.transcript = append(m.transcript, line)
		}
		if len(m.transcript) > maxTranscriptLines {
			m.transcript = m.transcript[len(m.transcript)-maxTranscriptLines:]
		}

	case InfoLineMsg:
		m.infoLine = msg.Text

	case DeviceLineMsg:
		m.deviceLine = msg.Text

	case NoticeMsg:
		m.notice = msg.Text
		return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg {
			return noticeExpireMsg{}
		})

	case noticeExpireMsg:
		m.notice = ""
	}
	return m, nil
}

func (m tuiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "c":
		if m.controls.clear != nil {
			m.controls.clear()
			m.transcript = nil
			m.notice = "history cleared"
			return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg {
				return noticeExpireMsg{}
			})
		}

	case "s":
		if m.controls.save != nil {
			if err := m.controls.save(); err != nil {
				m.notice = fmt.Sprintf("save failed: %v", err)
			} else {
				m.notice = "history saved"
			}
			return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg {
				return noticeExpireMsg{}
			})
		}

	case "1":
		if m.mode == config.ModeTranslator && m.controls.toggle != nil {
			m.controls.toggle(0)
		}

	case "2":
		if m.mode == config.ModeTranslator && m.controls.toggle != nil {
			m.controls.toggle(1)
		}

	case " ":
		if m.mode == config.ModeAssistant && m.controls.toggle != nil {
			m.controls.toggle(0)
		}

	case "l":
		if m.mode == config.ModeAssistant && m.controls.switchLang != nil {
			src, _ := m.controls.switchLang()
			m.current = src
		}
	}
	return m, nil
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var b strings.Builder

	if m.mode == config.ModeTranslator {
		b.WriteString(titleStyle.Render("Dobhash · English ⇄ Bengali") + "\n\n")
	} else {
		b.WriteString(titleStyle.Render("Dobhash · Voice Assistant ("+m.current.Display+")") + "\n\n")
	}

	if m.infoLine != "" {
		b.WriteString(dimStyle.Render(m.infoLine) + "\n")
	}
	if m.deviceLine != "" {
		b.WriteString(dimStyle.Render(m.deviceLine) + "\n")
	}
	b.WriteString("\n")

	// One status line per loop direction
	for i, s := range m.statuses {
		if i == 1 && m.mode != config.ModeTranslator {
			break
		}
		if s == "" {
			s = "…"
		}
		style := statusStyle
		if m.controls.enabled != nil && !m.controls.enabled(i) {
			style = pausedStyle
		}
		b.WriteString(style.Render(s) + "\n")
	}
	b.WriteString("\n")

	// Transcript panel fills the remaining height
	header := strings.Count(b.String(), "\n")
	panelHeight := m.height - header - 3
	if panelHeight < 3 {
		panelHeight = 3
	}
	wrapWidth := m.width - 2
	if wrapWidth < 10 {
		wrapWidth = 10
	}
	var panel []string
	for _, line := range m.transcript {
		panel = append(panel, wrapText(line, wrapWidth)...)
	}
	if len(panel) > panelHeight {
		panel = panel[len(panel)-panelHeight:]
	}
	if len(panel) == 0 {
		b.WriteString(dimStyle.Render("No exchanges yet") + "\n")
	}
	for _, line := range panel {
		b.WriteString(transcriptStyle.Render(line) + "\n")
	}
	for i := len(panel); i < panelHeight; i++ {
		b.WriteString("\n")
	}

	// Footer: transient notice, then key help
	if m.notice != "" {
		b.WriteString(noticeStyle.Render(m.notice) + "\n")
	} else {
		b.WriteString("\n")
	}
	b.WriteString(m.helpLine())

	return b.String()
}

func (m tuiModel) helpLine() string {
	var parts []string
	key := func(k, desc string) string {
		return helpKeyStyle.Render(k) + helpStyle.Render(" "+desc)
	}
	if m.mode == config.ModeTranslator {
		parts = append(parts, key("1", "toggle EN→BN"), key("2", "toggle BN→EN"), key("s", "save"))
	} else {
		parts = append(parts, key("space", "toggle listening"), key("l", "switch language"))
	}
	parts = append(parts, key("c", "clear"), key("ctrl+c", "quit"))
	return strings.Join(parts, helpStyle.Render("  ·  "))
}

// tuiObserver adapts one loop's callbacks onto the bubbletea program.
type tuiObserver struct {
	direction int
}

func (o tuiObserver) Status(text string) {
	sendToTUI(StatusMsg{Direction: o.direction, Text: text})
}

func (o tuiObserver) Transcript(text string) {
	sendToTUI(TranscriptMsg{Text: text})
}

var _ loop.Observer = tuiObserver{}

func sendToTUI(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func wrapText(text string, width int) []string {
	if len(text) == 0 {
		return []string{""}
	}
	if width <= 0 {
		width = 1
	}

	var lines []string
	runes := []rune(text)
	for len(runes) > width {
		splitAt := width
		for i := width; i > 0; i-- {
			if runes[i] == ' ' {
				splitAt = i
				break
			}
		}
		lines = append(lines, string(runes[:splitAt]))
		runes = []rune(strings.TrimLeft(string(runes[splitAt:]), " "))
	}
	if len(runes) > 0 {
		lines = append(lines, string(runes))
	}
	return lines
}
