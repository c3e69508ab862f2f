package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"lectern/clipboard"
	"lectern/log"
	"lectern/pipeline"
	"lectern/recorder"
	"lectern/wav"
)

// Messages delivered back into the update loop by commands.
type (
	tickMsg             time.Time
	recordingStartedMsg struct{ session *recorder.Session }
	recordingFailedMsg  struct{ err error }
	pipelineDoneMsg     struct {
		rec    *wav.RecordedFile
		result *pipeline.Result
		err    error
	}
	copiedMsg struct{ err error }
)

type phase int

const (
	phaseIdle phase = iota
	phaseRecording
	phaseProcessing
)

const statusPanelWidth = 34

var (
	tuiTitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	tuiLabelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	tuiRecStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	tuiBusyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	tuiReadyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	tuiErrStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	tuiSummaryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	tuiHelpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

type tuiModel struct {
	app *App

	phase   phase
	session *recorder.Session
	elapsed time.Duration
	spinner int

	silence    *silenceMonitor
	silentWarn bool
	level      float64

	summary   string
	savedPath string
	lastErr   error
	copied    bool

	width  int
	height int
}

func newTUIModel(app *App) tuiModel {
	return tuiModel{app: app}
}

func tuiTick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
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
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.phase == phaseRecording && m.session != nil {
				m.session.Stop()
			}
			return m, tea.Quit

		case "enter", " ":
			switch m.phase {
			case phaseIdle:
				m.lastErr = nil
				m.copied = false
				return m, m.startRecordingCmd()
			case phaseRecording:
				m.phase = phaseProcessing
				m.silentWarn = false
				session := m.session
				m.session = nil
				return m, m.processCmd(session)
			}
			return m, nil

		case "c":
			if m.summary != "" {
				return m, copyCmd(m.summary)
			}
			return m, nil
		}
		return m, nil

	case tickMsg:
		if m.phase == phaseRecording && m.session != nil {
			m.elapsed = m.session.Elapsed()
			m.level = m.session.Level()
			switch m.silence.Tick(m.session.SpeechTick()) {
			case SilenceWarn:
				m.silentWarn = true
			case SilenceWarnClear:
				m.silentWarn = false
			}
		}
		if m.phase == phaseProcessing {
			m.spinner = (m.spinner + 1) % len(spinnerFrames)
		}
		return m, tuiTick()

	case recordingStartedMsg:
		m.phase = phaseRecording
		m.session = msg.session
		m.elapsed = 0
		m.silence = newSilenceMonitor()
		m.silentWarn = false
		m.level = 0
		return m, nil

	case recordingFailedMsg:
		m.phase = phaseIdle
		m.lastErr = msg.err
		return m, nil

	case pipelineDoneMsg:
		m.phase = phaseIdle
		if msg.rec != nil {
			m.savedPath = msg.rec.Path
		}
		if msg.err != nil {
			m.lastErr = msg.err
			return m, nil
		}
		m.summary = msg.result.Summary.Text
		if m.app.copyToClipboard {
			return m, copyCmd(m.summary)
		}
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.lastErr = msg.err
			return m, nil
		}
		m.copied = true
		return m, nil
	}

	return m, nil
}

func (m tuiModel) startRecordingCmd() tea.Cmd {
	app := m.app
	return func() tea.Msg {
		session := app.NewSession()
		if err := session.Start(); err != nil {
			return recordingFailedMsg{err: err}
		}
		go app.Warm()
		return recordingStartedMsg{session: session}
	}
}

func (m tuiModel) processCmd(session *recorder.Session) tea.Cmd {
	app := m.app
	return func() tea.Msg {
		buf, err := session.Stop()
		if err != nil {
			return pipelineDoneMsg{err: err}
		}
		log.SessionEnd(buf.Duration().Seconds(), buf.FrameCount())

		if buf.FrameCount() == 0 {
			return pipelineDoneMsg{err: errors.New("no audio captured")}
		}

		path := wav.RecordingPath(app.cfg.Recordings.Dir, time.Now())
		rec, err := wav.Save(buf, path)
		if err != nil {
			return pipelineDoneMsg{err: err}
		}
		sizeKB := float64(wav.HeaderSize+rec.FrameCount*rec.Channels*4) / 1024
		log.RecordingSaved(rec.Path, rec.Duration().Seconds(), sizeKB)

		result, err := app.pipe.Run(context.Background(), rec)
		return pipelineDoneMsg{rec: rec, result: result, err: err}
	}
}

func copyCmd(text string) tea.Cmd {
	return func() tea.Msg {
		return copiedMsg{err: clipboard.Copy(text)}
	}
}

func (m tuiModel) View() string {
	left := m.renderStatusPanel()
	right := m.renderSummaryPanel()
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func (m tuiModel) renderStatusPanel() string {
	var b strings.Builder

	b.WriteString(tuiTitleStyle.Render("lectern "+version) + "\n\n")

	switch m.phase {
	case phaseRecording:
		b.WriteString(tuiRecStyle.Render(fmt.Sprintf("● REC %.1fs", m.elapsed.Seconds())) + "\n")
		b.WriteString(tuiLabelStyle.Render("lvl:   ") + levelBar(m.level) + "\n")
		if m.silentWarn {
			b.WriteString(tuiErrStyle.Render("! no audio detected") + "\n")
		}
	case phaseProcessing:
		b.WriteString(tuiBusyStyle.Render(spinnerFrames[m.spinner]+" transcribing") + "\n")
	default:
		b.WriteString(tuiReadyStyle.Render("○ ready") + "\n")
	}
	b.WriteString("\n")

	b.WriteString(tuiLabelStyle.Render("mic:   ") + deviceName(m.app.device) + "\n")
	b.WriteString(tuiLabelStyle.Render("model: ") + m.app.cfg.API.TranscribeModel + "\n")
	b.WriteString(tuiLabelStyle.Render("notes: ") + m.app.cfg.Notes.File + "\n")
	if m.savedPath != "" {
		b.WriteString(tuiLabelStyle.Render("last:  ") + m.savedPath + "\n")
	}
	b.WriteString("\n")

	b.WriteString(tuiHelpStyle.Render("enter record/stop · c copy · q quit"))

	return lipgloss.NewStyle().
		Width(statusPanelWidth).
		Padding(1, 2).
		Render(b.String())
}

func (m tuiModel) renderSummaryPanel() string {
	width := m.width - statusPanelWidth - 6
	if width < 24 {
		width = 24
	}

	var b strings.Builder

	switch {
	case m.lastErr != nil:
		msg := m.lastErr.Error()
		if errors.Is(m.lastErr, pipeline.ErrNoTranscript) {
			msg = "Transcription failed. Please try recording again."
		}
		for _, line := range wrapText(msg, width) {
			b.WriteString(tuiErrStyle.Render(line) + "\n")
		}

	case m.summary != "":
		b.WriteString(tuiTitleStyle.Render("Latest summary") + "\n\n")
		for _, line := range wrapText(m.summary, width) {
			b.WriteString(tuiSummaryStyle.Render(line) + "\n")
		}
		if m.copied {
			b.WriteString("\n" + tuiReadyStyle.Render("✓ copied to clipboard"))
		}

	default:
		b.WriteString(tuiLabelStyle.Render("Press enter to start recording."))
	}

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(b.String())
}

// levelBar renders loudness as a fixed-width bar. Speech RMS rarely
// exceeds 0.25, which maps to a full bar.
func levelBar(level float64) string {
	const width = 10
	filled := int(level * 4 * width)
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// wrapText breaks text into lines no longer than width, preserving
// paragraph boundaries.
func wrapText(text string, width int) []string {
	if width <= 0 {
		width = 40
	}
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		if paragraph == "" {
			lines = append(lines, "")
			continue
		}
		current := ""
		for _, word := range strings.Fields(paragraph) {
			switch {
			case current == "":
				current = word
			case len(current)+1+len(word) <= width:
				current += " " + word
			default:
				lines = append(lines, current)
				current = word
			}
		}
		if current != "" {
			lines = append(lines, current)
		}
	}
	return lines
}
