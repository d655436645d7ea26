package tui

import (
	"context"
	"strings"
	"time"

	"pricecast/internal/chart"
	"pricecast/internal/client"
	"pricecast/internal/domain"
	"pricecast/internal/insight"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const requestTimeout = 15 * time.Second

// Popup message types. session ties a reply to the Open that started it.
type forecastMsg struct {
	session int
	series  domain.ForecastSeries
}
type forecastErrMsg struct {
	session int
	err     error
}
type subscribeMsg struct {
	session int
	result  domain.SubscriptionResult
}
type subscribeErrMsg struct {
	session int
	err     error
}

const (
	fieldPhone = iota
	fieldPrice
)

// PopupModel is the price-alert popup: insight line, chart and subscribe form.
type PopupModel struct {
	services Services
	slot     *chart.Slot

	open       bool
	session    int
	loading    bool
	submitting bool

	series   domain.ForecastSeries
	analysis insight.Analysis
	loadErr  string

	phone   textinput.Model
	price   textinput.Model
	focus   int
	message string
	notice  string

	spinner spinner.Model
	width   int
	height  int
}

// NewPopupModel creates a closed popup.
func NewPopupModel(svc Services) PopupModel {
	phone := textinput.New()
	phone.Placeholder = "Phone number"
	phone.CharLimit = 32
	phone.Width = 24

	price := textinput.New()
	price.Placeholder = "Desired price"
	price.CharLimit = 16
	price.Width = 24

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(SpinnerColor)

	return PopupModel{
		services: svc,
		slot:     chart.NewSlot(),
		phone:    phone,
		price:    price,
		spinner:  sp,
		width:    80,
		height:   24,
	}
}

// Open shows the popup and starts loading the forecast.
func (m PopupModel) Open() (PopupModel, tea.Cmd) {
	if m.open {
		return m, nil
	}
	m.open = true
	m.session++
	m.notice = ""
	m.message = ""
	m.loadErr = ""
	m.phone.SetValue(m.services.DefaultPhone)
	m.price.SetValue("")
	if m.services.DefaultPhone != "" {
		m.setFocus(fieldPrice)
	} else {
		m.setFocus(fieldPhone)
	}
	return m.load()
}

// Close hides the popup and releases its chart. A subscribe request in
// flight stays pending, so reopening cannot start a second one.
func (m PopupModel) Close() PopupModel {
	m.open = false
	m.loading = false
	m.series = nil
	m.slot.Release()
	m.phone.Blur()
	m.price.Blur()
	return m
}

func (m PopupModel) load() (PopupModel, tea.Cmd) {
	if m.loading {
		return m, nil
	}
	m.loading = true
	return m, tea.Batch(m.fetchForecastCmd(), m.spinner.Tick)
}

// Update handles incoming messages.
func (m PopupModel) Update(msg tea.Msg) (PopupModel, tea.Cmd) {
	switch msg := msg.(type) {
	case forecastMsg:
		if !m.open || msg.session != m.session {
			return m, nil
		}
		m.loading = false
		analysis, err := insight.Derive(msg.series)
		if err != nil {
			m.loadErr = describeError(err)
			m.slot.Release()
			return m, nil
		}
		m.series = msg.series
		m.analysis = analysis
		m.loadErr = ""
		m.drawChart()
		return m, nil

	case forecastErrMsg:
		if !m.open || msg.session != m.session {
			return m, nil
		}
		m.loading = false
		m.loadErr = describeError(msg.err)
		return m, nil

	case subscribeMsg:
		m.submitting = false
		switch {
		case !m.open:
			m.notice = msg.result.Message
		case msg.session == m.session:
			m = m.Close()
			m.notice = msg.result.Message
		}
		return m, nil

	case subscribeErrMsg:
		m.submitting = false
		if m.open && msg.session == m.session {
			m.message = describeError(msg.err)
		}
		return m, nil

	case spinner.TickMsg:
		if m.loading || m.submitting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		if !m.open {
			return m, nil
		}
		switch {
		case key.Matches(msg, DefaultKeyMap.Close):
			return m.Close(), nil
		case key.Matches(msg, DefaultKeyMap.Retry):
			return m.load()
		case key.Matches(msg, DefaultKeyMap.NextField), key.Matches(msg, DefaultKeyMap.PrevField):
			m.setFocus(1 - m.focus)
			return m, nil
		case key.Matches(msg, DefaultKeyMap.Submit):
			return m.submit()
		}
	}

	if !m.open {
		return m, nil
	}
	var cmd tea.Cmd
	if m.focus == fieldPhone {
		m.phone, cmd = m.phone.Update(msg)
	} else {
		m.price, cmd = m.price.Update(msg)
	}
	return m, cmd
}

func (m PopupModel) submit() (PopupModel, tea.Cmd) {
	if m.submitting {
		return m, nil
	}
	phone := strings.TrimSpace(m.phone.Value())
	price := strings.TrimSpace(m.price.Value())
	if phone == "" || price == "" {
		m.message = client.ValidationPrompt
		return m, nil
	}
	m.submitting = true
	m.message = ""
	return m, tea.Batch(m.subscribeCmd(phone, price), m.spinner.Tick)
}

// View renders the popup, or nothing while closed.
func (m PopupModel) View() string {
	if !m.open {
		return ""
	}

	var sections []string
	sections = append(sections, HeaderStyle.Render(m.services.Product.Description))

	switch {
	case m.loading:
		sections = append(sections, m.spinner.View()+" Loading forecast...")
	case m.loadErr != "":
		sections = append(sections, ErrorStyle.Render(m.loadErr))
		sections = append(sections, SubtextStyle.Render("ctrl+r to retry"))
	case len(m.series) > 0:
		sections = append(sections, FormatInsight(m.analysis.Insight))
		if inst := m.slot.Current(); inst != nil {
			sections = append(sections, "", inst.Text)
		}
		sections = append(sections, "", RenderSeriesTable(m.series, m.analysis))
	}

	sections = append(sections, "", HeaderStyle.Render("Notify me on Telegram when the price drops"))
	sections = append(sections, m.fieldLine("Phone", fieldPhone, m.phone.View()))
	sections = append(sections, m.fieldLine("Price", fieldPrice, m.price.View()))

	if m.submitting {
		sections = append(sections, m.spinner.View()+" Subscribing...")
	} else if m.message != "" {
		sections = append(sections, ErrorStyle.Render(m.message))
	}
	sections = append(sections, SubtextStyle.Render("tab switch field • enter subscribe • esc close"))

	return PopupStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

// SetSize updates the popup dimensions and redraws the chart to fit.
func (m *PopupModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	if m.open && len(m.series) > 0 {
		m.drawChart()
	}
}

// IsOpen reports whether the popup is shown (for testing).
func (m PopupModel) IsOpen() bool { return m.open }

// IsLoading reports whether a forecast request is pending (for testing).
func (m PopupModel) IsLoading() bool { return m.loading }

// IsSubmitting reports whether a subscribe request is pending (for testing).
func (m PopupModel) IsSubmitting() bool { return m.submitting }

// Message is the validation or error line under the form.
func (m PopupModel) Message() string { return m.message }

// Notice is the server reply shown after the popup closes.
func (m PopupModel) Notice() string { return m.notice }

// LoadError is the message shown when the forecast could not be loaded.
func (m PopupModel) LoadError() string { return m.loadErr }

// Slot exposes the chart owner (for testing).
func (m PopupModel) Slot() *chart.Slot { return m.slot }

func (m *PopupModel) drawChart() {
	plot := chart.NewPlot(m.series, m.analysis)
	width := max(m.width-8, 24)
	height := max(min(m.height/3, 12), 5)
	_, _ = m.slot.Draw(func() (*chart.Instance, error) {
		return chart.NewInstance(plot, chart.RenderText(plot, width, height)), nil
	})
}

func (m *PopupModel) setFocus(field int) {
	m.focus = field
	if field == fieldPhone {
		m.phone.Focus()
		m.price.Blur()
		return
	}
	m.price.Focus()
	m.phone.Blur()
}

func (m PopupModel) fieldLine(label string, field int, input string) string {
	style := BlurredLabelStyle
	if m.focus == field {
		style = FocusedLabelStyle
	}
	return style.Render(label+": ") + input
}

func (m PopupModel) fetchForecastCmd() tea.Cmd {
	fetcher := m.services.Forecasts
	session := m.session
	return func() tea.Msg {
		if fetcher == nil {
			return forecastErrMsg{session: session, err: domain.ErrNetwork}
		}
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		series, err := fetcher.FetchForecast(ctx)
		if err != nil {
			return forecastErrMsg{session: session, err: err}
		}
		return forecastMsg{session: session, series: series}
	}
}

func (m PopupModel) subscribeCmd(phone, price string) tea.Cmd {
	sub := m.services.Subscriptions
	session := m.session
	return func() tea.Msg {
		if sub == nil {
			return subscribeErrMsg{session: session, err: domain.ErrNetwork}
		}
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		result, err := sub.Subscribe(ctx, phone, price)
		if err != nil {
			return subscribeErrMsg{session: session, err: err}
		}
		return subscribeMsg{session: session, result: result}
	}
}
