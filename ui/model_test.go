package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/metrotraffic/core/model"
	"github.com/kilianp07/metrotraffic/core/prediction"
	"github.com/kilianp07/metrotraffic/core/predictor"
)

type fakeBackend struct {
	status    Status
	refreshed int
	got       model.Features
	pred      model.Prediction
	err       error
}

func (f *fakeBackend) Name() string { return "fake" }
func (f *fakeBackend) Predict(_ context.Context, feat model.Features) (model.Prediction, error) {
	f.got = feat
	return f.pred, f.err
}
func (f *fakeBackend) Status(context.Context) Status { return f.status }
func (f *fakeBackend) Refresh(context.Context) Status {
	f.refreshed++
	return f.status
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "pgup":
		return tea.KeyMsg{Type: tea.KeyPgUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(m Model, msgs ...tea.Msg) Model {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestDefaultFormFeatures(t *testing.T) {
	f := New(&fakeBackend{}).Features()
	assert.Equal(t, model.Features{
		Holiday:     "None",
		Temp:        297.04,
		CloudsAll:   40,
		WeatherMain: "Clouds",
		Hour:        9,
		DayOfWeek:   0,
		Month:       10,
		IsRushHour:  1,
	}, f)
}

func TestKeysAdjustFields(t *testing.T) {
	m := New(&fakeBackend{})
	// temperature: 75 -> 85 -> 86
	m = send(m, key("down"), key("pgup"), key("right"))
	assert.Equal(t, model.FahrenheitToKelvin(86), m.Features().Temp)

	// hour: 9 -> 10, rush hour drops
	m = send(m, key("down"), key("down"), key("down"), key("right"))
	assert.Equal(t, 10, m.Features().Hour)
	assert.Equal(t, 0, m.Features().IsRushHour)

	// select wraps around
	m = send(m, key("up"), key("up"), key("up"), key("up"), key("left"))
	assert.Equal(t, "Labor Day", m.Features().Holiday)
}

func TestRangeClamps(t *testing.T) {
	m := New(&fakeBackend{})
	m = send(m, key("down"))
	for i := 0; i < 20; i++ {
		m = send(m, key("pgup"))
	}
	assert.Equal(t, model.FahrenheitToKelvin(120), m.Features().Temp)
}

func TestPredictFlow(t *testing.T) {
	be := &fakeBackend{status: Status{Online: true, ModelLoaded: true, Version: "1.0.0"}, pred: model.Prediction{Volume: 4962}}
	m := New(be)

	// offline until the status check completes
	next, cmd := m.Update(key("enter"))
	assert.Nil(t, cmd)
	m = next.(Model)

	m = send(m, statusMsg(be.status))
	next, cmd = m.Update(key("enter"))
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.True(t, m.pending)

	msg := m.predict(m.Features())()
	m = send(m, msg)
	assert.False(t, m.pending)
	require.NotNil(t, m.result)
	view := m.View()
	assert.Contains(t, view, "4,962 vehicles/hour")
	assert.Contains(t, view, "High traffic volume expected!")
	assert.Contains(t, view, "Temperature: 297.04 K")
	assert.Contains(t, view, "Rush Hour: Yes")
	assert.Equal(t, 9, be.got.Hour)
}

func TestPredictErrorIsDisplayed(t *testing.T) {
	m := New(&fakeBackend{})
	m = send(m, statusMsg{Online: true}, predictionMsg{err: errors.New("API Error: 500 - boom")})
	assert.Contains(t, m.View(), "API Error: 500 - boom")
	assert.Nil(t, m.result)
}

func TestOfflineDisablesPrediction(t *testing.T) {
	be := &fakeBackend{status: Status{Detail: "connection refused"}}
	m := send(New(be), statusMsg(be.status))
	_, cmd := m.Update(key("enter"))
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), "press r to retry")

	_, cmd = m.Update(key("r"))
	require.NotNil(t, cmd)
	_ = cmd()
	assert.Equal(t, 1, be.refreshed)
}

func TestBands(t *testing.T) {
	for _, c := range []struct {
		vol  int
		want string
	}{{1200, "Low traffic volume expected."}, {2500, "Moderate traffic volume expected."}} {
		m := send(New(&fakeBackend{}), statusMsg{Online: true}, predictionMsg{pred: model.Prediction{Volume: c.vol}})
		assert.Contains(t, m.View(), c.want)
	}
}

func TestQuit(t *testing.T) {
	next, cmd := New(&fakeBackend{}).Update(key("q"))
	require.NotNil(t, cmd)
	assert.True(t, strings.TrimSpace(next.View()) == "")
}

func TestLocalBackend(t *testing.T) {
	svc := predictor.New(&prediction.MockPipeline{Value: 1500, Ver: "local"})
	b := NewLocalBackend(svc)
	st := b.Status(context.Background())
	assert.True(t, st.Online)
	assert.True(t, st.ModelLoaded)
	assert.Equal(t, "local", st.Version)
	p, err := b.Predict(context.Background(), model.DefaultFeatures())
	require.NoError(t, err)
	assert.Equal(t, 1500, p.Volume)

	assert.False(t, NewLocalBackend(predictor.New(nil)).Status(context.Background()).ModelLoaded)
}
