// Package tui is a terminal browser for processed videos and daily digests.
package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"tubedigest/internal/tubedb"
)

type viewMode int

const (
	videosView viewMode = iota
	digestsView
	searchView
	detailView
)

type goToDetailMsg struct {
	entry *entry
}
type goToSearchMsg struct{}
type goToTabMsg struct {
	mode viewMode
}

// Store is what the browser reads.
type Store interface {
	ListRecent(ctx context.Context, limit int) ([]tubedb.Item, error)
	ListDigests(ctx context.Context, limit int) ([]tubedb.Digest, error)
	GetItem(ctx context.Context, videoID string) (*tubedb.Item, error)
}

type rootPage struct {
	viewMode   viewMode
	lastTab    viewMode
	videos     tablePage
	digests    tablePage
	detailPage detailPage
	searchPage searchPage
	err        error
}

func newRootPage(items []tubedb.Item, digests []tubedb.Digest, store Store) rootPage {
	return rootPage{
		videos:     newTablePage(videosView, "Videos", itemEntries(items)),
		digests:    newTablePage(digestsView, "Digests", digestEntries(digests)),
		searchPage: newSearchPage(store),
	}
}

// Run loads everything in the store and opens the browser.
func Run(ctx context.Context, store Store) error {
	loadCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	items, err := store.ListRecent(loadCtx, 0)
	if err != nil {
		return fmt.Errorf("load videos: %w", err)
	}
	digests, err := store.ListDigests(loadCtx, 0)
	if err != nil {
		return fmt.Errorf("load digests: %w", err)
	}

	p := tea.NewProgram(newRootPage(items, digests, store), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	return err
}

func (m rootPage) Init() tea.Cmd {
	return nil
}

func (m rootPage) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		var cmds []tea.Cmd
		var cmd tea.Cmd
		m.videos, cmd = update[tablePage](m.videos, size)
		cmds = append(cmds, cmd)
		m.digests, cmd = update[tablePage](m.digests, size)
		cmds = append(cmds, cmd)
		m.detailPage, cmd = update[detailPage](m.detailPage, size)
		cmds = append(cmds, cmd)
		m.searchPage, cmd = update[searchPage](m.searchPage, size)
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)
	}

	switch msg := msg.(type) {
	case goToTabMsg:
		m.viewMode = msg.mode
		if msg.mode != detailView {
			m.lastTab = msg.mode
		}
		if msg.mode == searchView {
			var cmd tea.Cmd
			m.searchPage, cmd = update[searchPage](m.searchPage, goToSearchMsg{})
			return m, cmd
		}
		return m, nil
	case goToDetailMsg:
		m.viewMode = detailView
		var cmd tea.Cmd
		m.detailPage, cmd = update[detailPage](m.detailPage, msg)
		return m, cmd
	case backMsg:
		m.viewMode = m.lastTab
		return m, nil
	}

	var cmd tea.Cmd
	switch m.viewMode {
	case videosView:
		m.videos, cmd = update[tablePage](m.videos, msg)
	case digestsView:
		m.digests, cmd = update[tablePage](m.digests, msg)
	case detailView:
		m.detailPage, cmd = update[detailPage](m.detailPage, msg)
	case searchView:
		m.searchPage, cmd = update[searchPage](m.searchPage, msg)
	}
	return m, cmd
}

func (m rootPage) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v", m.err)
	}

	switch m.viewMode {
	case detailView:
		return m.detailPage.View()
	case searchView:
		return m.searchPage.View()
	case digestsView:
		return m.digests.View()
	case videosView:
		return m.videos.View()
	default:
		return "Unknown View"
	}
}

func update[T any](model tea.Model, msg tea.Msg) (T, tea.Cmd) {
	newModel, cmd := model.Update(msg)
	return newModel.(T), cmd
}
