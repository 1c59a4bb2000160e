// Package ui is the interactive terminal front end of the prediction service.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/kilianp07/metrotraffic/core/model"
)

type statusMsg Status

type predictionMsg struct {
	pred model.Prediction
	err  error
}

// Model is the bubbletea model of the prediction form.
type Model struct {
	backend Backend
	fields  []field
	focus   int
	status  Status
	checked bool

	spinner  spinner.Model
	bar      progress.Model
	pending  bool
	result   *model.Prediction
	err      error
	width    int
	quitting bool
}

// New creates the form bound to backend.
func New(backend Backend) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = infoStyle
	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	bar.Width = 20
	return Model{
		backend: backend,
		fields:  defaultFields(),
		spinner: sp,
		bar:     bar,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.checkStatus(false))
}

func (m Model) checkStatus(force bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if force {
			return statusMsg(m.backend.Refresh(ctx))
		}
		return statusMsg(m.backend.Status(ctx))
	}
}

func (m Model) predict(f model.Features) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		pred, err := m.backend.Predict(ctx, f)
		return predictionMsg{pred: pred, err: err}
	}
}

// Features returns the feature vector currently described by the form.
func (m Model) Features() model.Features { return features(m.fields) }

func (m Model) canPredict() bool {
	return m.checked && m.status.Online && !m.pending
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case statusMsg:
		m.status = Status(msg)
		m.checked = true
		return m, nil
	case predictionMsg:
		m.pending = false
		if msg.err != nil {
			m.err = msg.err
			m.result = nil
			return m, nil
		}
		m.err = nil
		p := msg.pred
		m.result = &p
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q", "esc":
		m.quitting = true
		return m, tea.Quit
	case "up", "k", "shift+tab":
		m.focus = (m.focus - 1 + len(m.fields)) % len(m.fields)
	case "down", "j", "tab":
		m.focus = (m.focus + 1) % len(m.fields)
	case "left", "h":
		m.fields[m.focus].step(-1)
	case "right", "l":
		m.fields[m.focus].step(1)
	case "pgdown", "shift+left", "H":
		m.fields[m.focus].step(-10)
	case "pgup", "shift+right", "L":
		m.fields[m.focus].step(10)
	case "r":
		return m, m.checkStatus(true)
	case "enter", " ":
		if !m.canPredict() {
			return m, nil
		}
		m.pending = true
		m.err = nil
		return m, tea.Batch(m.spinner.Tick, m.predict(m.Features()))
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("🚗 Metro Interstate Traffic Volume Predictor"))
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n\n")

	form := m.formView()
	summary := panelStyle.Render(m.summaryView())
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, form, "  ", summary))
	b.WriteString("\n\n")
	b.WriteString(m.resultView())
	b.WriteString("\n\n")
	b.WriteString(mutedStyle.Render("↑/↓ select • ←/→ adjust • pgup/pgdn ±10 • enter predict • r refresh status • q quit"))
	b.WriteString("\n")
	return b.String()
}

func (m Model) statusLine() string {
	name := mutedStyle.Render("[" + m.backend.Name() + "]")
	switch {
	case !m.checked:
		return m.spinner.View() + " checking backend… " + name
	case !m.status.Online:
		return errorStyle.Render("❌ backend offline: "+m.status.Detail) + " " + name
	case !m.status.ModelLoaded:
		return warnStyle.Render("⚠ backend running but model not loaded") + " " + name
	default:
		return okStyle.Render(fmt.Sprintf("✅ %s (model %s)", m.status.Detail, m.status.Version)) + " " + name
	}
}

func (m Model) formView() string {
	var b strings.Builder
	for i, f := range m.fields {
		label := labelStyle.Render(f.label)
		value := f.display()
		if i == m.focus {
			value = focusStyle.Render("‹ " + value + " ›")
		}
		b.WriteString(label + " " + m.bar.ViewAs(f.fraction()) + " " + value + "\n")
	}
	return b.String()
}

func (m Model) summaryView() string {
	f := m.Features()
	rush := "No"
	if f.IsRushHour == 1 {
		rush = "Yes"
	}
	lines := []string{
		titleStyle.Render("Input Summary"),
		fmt.Sprintf("Temperature: %.2f K", f.Temp),
		fmt.Sprintf("Hour: %d:00", f.Hour),
		"Weather: " + f.WeatherMain,
		"Day: " + model.DayName(f.DayOfWeek),
		"Holiday: " + f.Holiday,
		"Rush Hour: " + rush,
	}
	return strings.Join(lines, "\n")
}

func (m Model) resultView() string {
	switch {
	case m.pending:
		return m.spinner.View() + " Getting prediction…"
	case m.err != nil:
		return errorStyle.Render("❌ Error: " + m.err.Error())
	case m.result != nil:
		vol := humanize.Comma(int64(m.result.Volume))
		band := model.BandFor(m.result.Volume)
		line := bigStyle.Render("Predicted Traffic Volume: "+vol+" vehicles/hour") + "\n"
		switch band {
		case model.BandHigh:
			line += warnStyle.Render("⚠️ " + band.Message())
		case model.BandLow:
			line += infoStyle.Render("ℹ️ " + band.Message())
		default:
			line += okStyle.Render("✅ " + band.Message())
		}
		return line
	case m.checked && !m.status.Online:
		return mutedStyle.Render("Prediction disabled until the backend is reachable (press r to retry).")
	default:
		return mutedStyle.Render("Press enter to predict.")
	}
}

// Run starts the program and blocks until the user quits or ctx ends.
func Run(ctx context.Context, backend Backend) error {
	_, err := tea.NewProgram(New(backend), tea.WithContext(ctx), tea.WithAltScreen()).Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
