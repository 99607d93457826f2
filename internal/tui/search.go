package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	textinput "github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tubedigest/internal/youtube"
)

var errNotProcessed = errors.New("video has not been processed")

type searchPage struct {
	width       int
	height      int
	err         error
	store       Store
	searchInput textinput.Model
}

func newSearchPage(store Store) searchPage {
	return searchPage{store: store, searchInput: initializeInput()}
}

func (m searchPage) Init() tea.Cmd {
	return nil
}

func (m searchPage) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEnter && m.searchInput.Focused() {
			return m, m.lookup()
		}
		if msg.Type == tea.KeyTab && !m.searchInput.Focused() {
			m.searchInput.Focus()
			return m, nil
		}
		if !m.searchInput.Focused() {
			if mode, ok := tabKey(msg.String()); ok && mode != searchView {
				return m, func() tea.Msg { return goToTabMsg{mode: mode} }
			}
		}
		switch msg.String() {
		case "esc":
			if m.searchInput.Focused() {
				m.searchInput.Blur()
				return m, nil
			}
			return m, tea.Quit
		case "ctrl+c":
			return m, tea.Quit
		default:
			updated, cmd := m.searchInput.Update(msg)
			m.searchInput = updated
			return m, cmd
		}
	case goToSearchMsg:
		m.err = nil
		m.searchInput.Focus()
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	return m, nil
}

func initializeInput() textinput.Model {
	input := textinput.New()
	input.Prompt = ""
	input.Placeholder = "https://www.youtube.com/watch?v=..."
	input.Width = 50
	return input
}

// lookup opens a processed video by id or URL.
func (m *searchPage) lookup() tea.Cmd {
	raw := strings.TrimSpace(m.searchInput.Value())
	id := youtube.ExtractYouTubeID(raw)
	if id == "" {
		m.err = errors.New("enter a YouTube URL or an 11 character video id")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	it, err := m.store.GetItem(ctx, id)
	if err != nil {
		m.err = err
		return nil
	}
	if it == nil {
		m.err = fmt.Errorf("%w: %s", errNotProcessed, id)
		return nil
	}
	m.err = nil
	e := itemEntry(*it)
	return func() tea.Msg { return goToDetailMsg{entry: &e} }
}

func (m searchPage) View() string {
	instructions := lipgloss.NewStyle().
		MarginTop(min(m.height/4, 10)).
		MarginBottom(2).
		Render("Enter a video URL or id to open its summary")

	borderColor := lipgloss.Color("8")
	if m.searchInput.Focused() {
		borderColor = lipgloss.Color("15")
	}
	input := lipgloss.NewStyle().
		Width(50).
		Border(lipgloss.NormalBorder()).
		BorderForeground(borderColor).
		Render(m.searchInput.View())

	var help string
	if m.searchInput.Focused() {
		help = helpBar("Enter: open video", "Esc: unfocus input")
	} else {
		help = helpBar("1/2: switch tab", "Tab: focus input", "Esc: quit")
	}

	var errLine string
	if m.err != nil {
		errLine = lipgloss.NewStyle().
			Foreground(lipgloss.Color("1")).
			Render(fmt.Sprintf("Lookup failed: %v", m.err))
	}

	return pageLayout(lipgloss.JoinVertical(
		lipgloss.Center,
		renderMenu(searchView, m.width),
		instructions,
		input,
		errLine,
		lipgloss.NewStyle().MarginTop(2).Render(help),
	))
}
