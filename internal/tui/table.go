package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

type tablePage struct {
	mode    viewMode
	heading string
	entries []entry
	table   *table.Table

	ready        bool
	cursor       int
	currentPage  int
	totalPages   int
	tableWidth   int
	titleWidth   int
	channelWidth int
	dateWidth    int
	previewWidth int
	pageSize     int
}

func newTablePage(mode viewMode, heading string, entries []entry) tablePage {
	return tablePage{mode: mode, heading: heading, entries: entries, pageSize: 10}
}

func (m tablePage) Init() tea.Cmd {
	return nil
}

// selected returns the entry under the cursor, or nil for an empty table.
func (m tablePage) selected() *entry {
	i := m.currentPage*m.pageSize + m.cursor
	if i < 0 || i >= len(m.entries) {
		return nil
	}
	return &m.entries[i]
}

func (m tablePage) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		key := msg.String()
		if mode, ok := tabKey(key); ok && mode != m.mode {
			return m, func() tea.Msg { return goToTabMsg{mode: mode} }
		}
		switch key {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ", "enter":
			if e := m.selected(); e != nil {
				return m, func() tea.Msg { return goToDetailMsg{entry: e} }
			}
			return m, nil
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			} else if m.currentPage > 0 {
				m.currentPage--
				m.cursor = m.pageSize - 1
			}
		case "j", "down":
			onPage := min(m.pageSize, len(m.entries)-m.currentPage*m.pageSize)
			if m.cursor < onPage-1 {
				m.cursor++
			} else if m.currentPage < m.totalPages-1 {
				m.currentPage++
				m.cursor = 0
			}
		case "g":
			m.currentPage, m.cursor = 0, 0
		case "G":
			if len(m.entries) > 0 {
				m.currentPage = m.totalPages - 1
				m.cursor = (len(m.entries) - 1) % m.pageSize
			}
		case "l", "right":
			if m.currentPage < m.totalPages-1 {
				m.currentPage++
				m.cursor = 0
				m.updateTableRows()
				return m, tea.ClearScreen
			}
			return m, nil
		case "h", "left":
			if m.currentPage > 0 {
				m.currentPage--
				m.cursor = 0
				m.updateTableRows()
				return m, tea.ClearScreen
			}
			return m, nil
		default:
			return m, nil
		}
		m.updateTableRows()
		return m, nil
	case tea.WindowSizeMsg:
		m.tableWidth = msg.Width - 2
		m.configureTable(msg.Width, msg.Height-4)
		m.ready = true
		return m, tea.ClearScreen
	}

	return m, nil
}

func (m tablePage) View() string {
	if !m.ready {
		return "...Loading"
	}

	menu := renderMenu(m.mode, m.tableWidth)
	if len(m.entries) == 0 {
		empty := lipgloss.NewStyle().MarginTop(1).Render("Nothing here yet. Run 'tubedigest poll' and 'tubedigest daily' first.")
		return pageLayout(lipgloss.JoinVertical(lipgloss.Left, menu, empty, helpBar("1-3: switch tab", "q: quit")))
	}

	help := helpBar("j/k: move", "l/h: page", "g/G: home/end", "Space: details", "1-3: switch tab", "q: quit")
	return pageLayout(lipgloss.JoinVertical(lipgloss.Left, menu, m.table.Render(), help))
}

func (m *tablePage) updateTableRows() {
	if len(m.entries) == 0 {
		return
	}

	headers := []string{
		truncateString("Title", m.titleWidth),
		truncateString("Channel", m.channelWidth),
		truncateString("Date", m.dateWidth),
		truncateString("Summary", m.previewWidth),
	}
	if m.mode == digestsView {
		headers[1] = truncateString("Videos", m.channelWidth)
	}

	var rows [][]string
	start := m.currentPage * m.pageSize
	end := min(start+m.pageSize, len(m.entries))
	for i := start; i < end; i++ {
		e := m.entries[i]
		date := e.day
		if date == "" {
			date = e.date.Local().Format("2006-01-02")
		}
		rows = append(rows, []string{
			truncateString(e.title, m.titleWidth),
			truncateString(e.channel, m.channelWidth),
			truncateString(date, m.dateWidth),
			truncateString(e.preview, m.previewWidth),
		})
	}

	if m.cursor >= len(rows) {
		m.cursor = len(rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}

	headerStyle := lipgloss.NewStyle().
		Padding(0, 1).
		Bold(true).
		Foreground(muted()).
		Align(lipgloss.Center)
	cursor := m.cursor

	m.table = table.New().
		Width(m.tableWidth).
		Border(lipgloss.ThickBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(muted())).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 { // header
				return headerStyle
			}
			if row == cursor {
				return lipgloss.NewStyle().
					Padding(0, 1).
					Background(accent()).
					Foreground(lipgloss.Color("0"))
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}

// configureTable sizes the page and the columns to the terminal.
func (m *tablePage) configureTable(width, height int) {
	if len(m.entries) == 0 {
		return
	}

	m.pageSize = max(5, height-6)
	m.totalPages = (len(m.entries) + m.pageSize - 1) / m.pageSize
	if m.currentPage >= m.totalPages {
		m.currentPage = m.totalPages - 1
	}

	global := min(m.currentPage*m.pageSize+m.cursor, len(m.entries)-1)
	m.currentPage = global / m.pageSize
	m.cursor = global % m.pageSize

	// borders plus one column of padding either side of four columns
	const chrome = 4 + 3*4
	m.dateWidth = 10
	remaining := width - m.dateWidth - chrome

	m.titleWidth = max(20, remaining*35/100)
	m.channelWidth = max(12, remaining*20/100)
	m.previewWidth = max(25, remaining*45/100)

	if used := m.titleWidth + m.channelWidth + m.dateWidth + m.previewWidth + chrome; used < width {
		spare := width - used
		m.titleWidth += spare * 35 / 100
		m.channelWidth += spare * 20 / 100
		m.previewWidth += spare * 45 / 100
	}

	m.updateTableRows()
}
