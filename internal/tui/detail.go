package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

type backMsg struct{}

type detailPage struct {
	width    int
	height   int
	viewport viewport.Model
	entry    *entry
}

func (m detailPage) Init() tea.Cmd {
	return nil
}

func (m detailPage) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "backspace":
			return m, func() tea.Msg { return backMsg{} }
		case "ctrl+c":
			return m, tea.Quit
		case "k", "up":
			m.viewport.ScrollUp(1)
		case "j", "down":
			m.viewport.ScrollDown(1)
		case "g":
			m.viewport.GotoTop()
		case "G":
			m.viewport.GotoBottom()
		case " ", "pgdown":
			m.viewport.PageDown()
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width - 4
		m.height = msg.Height - 4
		if m.entry != nil {
			m.viewport = setupViewport(m.width, m.height, m.entry)
		}
		return m, nil
	case goToDetailMsg:
		m.entry = msg.entry
		m.viewport = setupViewport(m.width, m.height, m.entry)
		return m, nil
	}

	return m, nil
}

func (m detailPage) View() string {
	if m.entry == nil {
		return "No item selected"
	}

	titleStyle := lipgloss.NewStyle().
		Foreground(muted()).
		Bold(true).
		MarginBottom(1).
		Width(max(10, m.width-8))
	urlStyle := lipgloss.NewStyle().
		Foreground(accent()).
		Italic(true).
		Width(max(10, m.width-8))
	metaStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		MarginBottom(1)

	header := []string{titleStyle.Render(m.entry.title)}
	if m.entry.url != "" {
		header = append(header, urlStyle.Render(m.entry.url))
	}
	date := m.entry.day
	if date == "" {
		date = m.entry.date.Local().Format("2006-01-02 15:04")
	}
	header = append(header, metaStyle.Render(fmt.Sprintf("%s • %s", m.entry.channel, date)))

	pct := int(min(1, max(0, m.viewport.ScrollPercent())) * 100)
	scroll := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		Bold(true).
		Render(fmt.Sprintf("Scroll: %d%%", pct))

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinVertical(lipgloss.Left, header...),
		m.viewport.View(),
		scroll,
		helpBar("j/k: scroll", "Space: page", "g/G: top/bottom", "esc/q: back"))

	border := lipgloss.NewStyle().
		Border(lipgloss.ThickBorder()).
		BorderForeground(muted())
	return pageLayout(border.Render(content))
}

func setupViewport(width, height int, e *entry) viewport.Model {
	contentWidth := max(20, width)
	vp := viewport.New(contentWidth, max(5, height-10))
	vp.SetContent(renderMarkdown(e.body, contentWidth))
	return vp
}

// renderMarkdown renders summaries with glamour, falling back to the raw text.
func renderMarkdown(content string, width int) string {
	if strings.TrimSpace(content) == "" {
		return "No content available"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithWordWrap(width),
		glamour.WithStandardStyle("dark"),
	)
	if err != nil {
		return content
	}
	rendered, err := r.Render(content)
	if err != nil {
		return content
	}
	return rendered
}
