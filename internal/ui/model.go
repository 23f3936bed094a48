package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/olivier-w/ringscope/internal/audio"
	"github.com/olivier-w/ringscope/internal/player"
	"github.com/olivier-w/ringscope/internal/session"
	"github.com/olivier-w/ringscope/internal/util"
	"github.com/olivier-w/ringscope/internal/visualizer"
)

// Transport is the playback control surface of the media element.
type Transport interface {
	TogglePause()
	Paused() bool
	Seek(delta time.Duration) error
	Position() time.Duration
	Duration() time.Duration
	Restart() error
	Done() <-chan struct{}
	Close()
}

// Controller receives the events the TUI produces.
type Controller interface {
	Handle(ev session.Event) error
	AdjustVolume(delta float64)
	Volume() float64
	Level(b audio.Band) float64
	Trails() bool
	SetTrails(on bool)
}

// Options configures a Model.
type Options struct {
	Metadata player.Metadata
	Cutoffs  audio.Cutoffs
	FPS      int
}

// chromeLines is the number of rows the panel uses besides the canvas.
const chromeLines = 17

// Model is the Bubbletea model for the ringscope TUI.
type Model struct {
	transport Transport
	ctl       Controller
	sched     *FrameScheduler
	canvas    *visualizer.Canvas

	metadata player.Metadata
	sliders  [audio.NumBands]Slider
	selected audio.Band
	editing  bool
	editErr  string
	input    textinput.Model
	progress progress.Model
	meters   levelMeters
	elapsed  time.Duration
	duration time.Duration
	paused   bool
	atEnd    EndAction
	width    int
	height   int
	quitting bool
	err      error
}

// New creates a new Model. canvas must be the surface the controller's
// render loop draws on, and sched its scheduler.
func New(t Transport, ctl Controller, sched *FrameScheduler, canvas *visualizer.Canvas, opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "frequency in Hz"
	ti.CharLimit = 8
	ti.Width = 12

	fps := opts.FPS
	if fps < 1 {
		fps = 60
	}

	return Model{
		transport: t,
		ctl:       ctl,
		sched:     sched,
		canvas:    canvas,
		metadata:  opts.Metadata,
		sliders:   NewSliders(opts.Cutoffs),
		input:     ti,
		progress: progress.New(
			progress.WithGradient("#4DD0FF", "#FF8BD1"),
			progress.WithoutPercentage(),
		),
		meters:   newLevelMeters(fps),
		duration: t.Duration(),
	}
}

// Err returns the error that ended the program, if any.
func (m Model) Err() error { return m.err }

// Sliders returns the current slider state.
func (m Model) Sliders() [audio.NumBands]Slider { return m.sliders }

func (m Model) Init() tea.Cmd {
	return tea.Batch(startCmd, tickCmd(), checkDone(m.transport), tea.SetWindowTitle(windowTitle(m.metadata.Title, false)))
}

func checkDone(t Transport) tea.Cmd {
	return func() tea.Msg {
		<-t.Done()
		return playbackEndedMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.handleMsg(msg)
	return next, tea.Batch(cmd, next.sched.Cmd())
}

func (m Model) handleMsg(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case startMsg:
		for _, s := range m.sliders {
			if err := m.ctl.Handle(session.ParameterChanged{Band: s.Band, Value: s.Value}); err != nil {
				return m.fail(err)
			}
		}
		if err := m.ctl.Handle(session.PlaybackStarted{}); err != nil {
			return m.fail(err)
		}
		return m, nil

	case frameMsg:
		if m.sched.run(msg.id) {
			for _, b := range audio.Bands {
				m.meters.step(b, m.ctl.Level(b))
			}
		}
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			return m.updateEdit(msg)
		}
		return m.handleKey(msg)

	case tickMsg:
		m.elapsed = m.transport.Position()
		m.paused = m.transport.Paused()
		return m, tickCmd()

	case playbackEndedMsg:
		if m.atEnd == EndLoop {
			if err := m.transport.Restart(); err != nil {
				return m.fail(err)
			}
			m.elapsed = 0
			return m, checkDone(m.transport)
		}
		m.elapsed = m.duration
		return m.quit()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		rows := max(6, msg.Height-chromeLines)
		cols := min(max(12, msg.Width-4), rows*2)
		m.canvas.Resize(cols, rows)
		m.progress.Width = max(10, msg.Width-20)
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if isQuit(msg) {
		return m.quit()
	}
	switch msg.String() {
	case " ":
		m.transport.TogglePause()
		m.paused = m.transport.Paused()
		if !m.paused {
			if err := m.ctl.Handle(session.PlaybackStarted{}); err != nil {
				return m.fail(err)
			}
		}
		return m, tea.SetWindowTitle(windowTitle(m.metadata.Title, m.paused))
	case "left", "h":
		m.transport.Seek(-5 * time.Second)
		m.elapsed = m.transport.Position()
	case "right", "l":
		m.transport.Seek(5 * time.Second)
		m.elapsed = m.transport.Position()
	case "+", "=":
		m.ctl.AdjustVolume(0.05)
	case "-", "_":
		m.ctl.AdjustVolume(-0.05)
	case "tab":
		m.selected = audio.Band((int(m.selected) + 1) % audio.NumBands)
	case "shift+tab":
		m.selected = audio.Band((int(m.selected) + audio.NumBands - 1) % audio.NumBands)
	case "up", "k":
		return m.setCutoff(m.selected, m.sliders[m.selected].Nudge(1).Value)
	case "down", "j":
		return m.setCutoff(m.selected, m.sliders[m.selected].Nudge(-1).Value)
	case "e":
		m.editing = true
		m.editErr = ""
		m.input.SetValue(strconv.Itoa(int(m.sliders[m.selected].Value)))
		m.input.CursorEnd()
		return m, tea.Batch(m.input.Focus(), textinput.Blink)
	case "t":
		m.ctl.SetTrails(!m.ctl.Trails())
	case "r":
		m.atEnd = m.atEnd.Toggle()
	}
	return m, nil
}

func (m Model) updateEdit(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		text := strings.TrimSpace(strings.TrimSuffix(strings.ToLower(m.input.Value()), "hz"))
		hz, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			m.editErr = fmt.Sprintf("not a frequency: %q", m.input.Value())
			return m, nil
		}
		m.stopEditing()
		return m.setCutoff(m.selected, hz)
	case "esc":
		m.stopEditing()
		return m, nil
	case "ctrl+c":
		return m.quit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) stopEditing() {
	m.editing = false
	m.editErr = ""
	m.input.Reset()
	m.input.Blur()
}

// setCutoff moves band b's slider to hz and reports the resulting value.
func (m Model) setCutoff(b audio.Band, hz float64) (Model, tea.Cmd) {
	m.sliders[b] = m.sliders[b].Set(hz)
	if err := m.ctl.Handle(session.ParameterChanged{Band: b, Value: m.sliders[b].Value}); err != nil {
		return m.fail(err)
	}
	return m, nil
}

func (m Model) quit() (Model, tea.Cmd) {
	m.quitting = true
	m.transport.Close()
	return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
}

func (m Model) fail(err error) (Model, tea.Cmd) {
	m.err = err
	return m.quit()
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	w := m.width
	if w < 30 {
		w = 50
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("  " + headerStyle.Render("ringscope") + "\n")
	b.WriteString("\n")
	b.WriteString("  " + titleStyle.Render(m.metadata.Title) + "\n")
	if sub := m.metadata.Subtitle(); sub != "" {
		b.WriteString("  " + artistStyle.Render(sub) + "\n")
	}
	b.WriteString("\n")

	for _, line := range strings.Split(m.canvas.View(), "\n") {
		b.WriteString("  " + line + "\n")
	}
	b.WriteString("\n")

	elapsedStr := timeStyle.Render(util.FormatDuration(m.elapsed))
	durationStr := timeStyle.Render(util.FormatDuration(m.duration))
	var ratio float64
	if m.duration > 0 {
		ratio = m.elapsed.Seconds() / m.duration.Seconds()
	}
	b.WriteString(fmt.Sprintf("  %s %s %s\n", elapsedStr, m.progress.ViewAs(max(0, min(1, ratio))), durationStr))
	b.WriteString("\n")

	for _, s := range m.sliders {
		marker := " "
		if s.Band == m.selected {
			marker = "▸"
		}
		name := bandStyles[s.Band].Render(fmt.Sprintf("%-6s", s.Band))
		label := fmt.Sprintf("%8s", s.Label())
		if m.editing && s.Band == m.selected {
			label = m.input.View()
		}
		b.WriteString(fmt.Sprintf("  %s %s %s %s  %s\n",
			marker, name, renderSlider(s.Ratio(), 24), statusStyle.Render(label),
			bandStyles[s.Band].Render(renderLevel(m.meters.value(s.Band), 10))))
	}
	b.WriteString("\n")

	statusIcon := "▶"
	statusText := "playing"
	if m.paused {
		statusIcon = "❚❚"
		statusText = "paused"
	}
	leftText := fmt.Sprintf("%s  %s", statusIcon, statusText)
	if badge := m.atEnd.Badge(); badge != "" {
		leftText += "  " + badge
	}
	if m.ctl.Trails() {
		leftText += "  [trails]"
	}
	volStr := renderVolumePercent(m.ctl.Volume())
	gap := w - len([]rune(leftText)) - len(volStr) - 4
	b.WriteString(fmt.Sprintf("  %s%s%s\n", statusStyle.Render(leftText), strings.Repeat(" ", max(2, gap)), statusStyle.Render(volStr)))
	b.WriteString("\n")

	switch {
	case m.editErr != "":
		b.WriteString("  " + errorStyle.Render(m.editErr) + "\n")
	case m.editing:
		b.WriteString("  " + helpStyle.Render(editHelpText()) + "\n")
	default:
		b.WriteString("  " + helpStyle.Render(helpText()) + "\n")
	}

	return b.String()
}

func windowTitle(title string, paused bool) string {
	if paused {
		return "⏸ " + title + " — ringscope"
	}
	return "▶ " + title + " — ringscope"
}
