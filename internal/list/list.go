// Package list prints processed videos and digests as tables.
package list

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"tubedigest/internal/tubedb"
	"tubedigest/internal/youtube"
)

const (
	DefaultLimit = 50
	previewChars = 200
)

type Store interface {
	ListRecent(ctx context.Context, limit int) ([]tubedb.Item, error)
	ListDigests(ctx context.Context, limit int) ([]tubedb.Digest, error)
}

type Options struct {
	Limit   int
	Digests bool
	// Wide prints the summary preview and URL columns.
	Wide bool
}

func Run(ctx context.Context, out io.Writer, store Store, opts Options) error {
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if opts.Digests {
		return listDigests(ctx, out, store, opts)
	}
	return listVideos(ctx, out, store, opts)
}

func newTable(out io.Writer) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Header = text.FormatDefault
	tw.Style().Format.Footer = text.FormatDefault
	return tw
}

func listVideos(ctx context.Context, out io.Writer, store Store, opts Options) error {
	items, err := store.ListRecent(ctx, opts.Limit)
	if err != nil {
		return fmt.Errorf("list videos: %w", err)
	}
	if len(items) == 0 {
		fmt.Fprintln(out, "No videos processed yet.")
		fmt.Fprintln(out, "Hint: run 'tubedigest poll' to process new uploads.")
		return nil
	}

	tw := newTable(out)
	header := table.Row{"Processed", "Channel", "Title", "ID"}
	if opts.Wide {
		header = append(header, "URL", "Summary")
		tw.SetColumnConfigs([]table.ColumnConfig{
			{Name: "Title", WidthMax: 40},
			{Name: "Summary", WidthMax: 60},
		})
	}
	tw.AppendHeader(header)
	for _, it := range items {
		row := table.Row{it.ProcessedAt.Local().Format("2006-01-02 15:04"), it.ChannelName, it.Title, it.VideoID}
		if opts.Wide {
			row = append(row, youtube.WatchURL(it.VideoID), oneLine(tubedb.Preview(it.Summary, previewChars)))
		}
		tw.AppendRow(row)
	}
	tw.AppendFooter(table.Row{fmt.Sprintf("%d videos", len(items))})
	tw.Render()
	return nil
}

func listDigests(ctx context.Context, out io.Writer, store Store, opts Options) error {
	digests, err := store.ListDigests(ctx, opts.Limit)
	if err != nil {
		return fmt.Errorf("list digests: %w", err)
	}
	if len(digests) == 0 {
		fmt.Fprintln(out, "No daily digests yet.")
		fmt.Fprintln(out, "Hint: run 'tubedigest daily' after videos were processed.")
		return nil
	}

	tw := newTable(out)
	tw.AppendHeader(table.Row{"Date", "Videos", "Summary"})
	tw.SetColumnConfigs([]table.ColumnConfig{{Name: "Summary", WidthMax: 80}})
	for _, d := range digests {
		tw.AppendRow(table.Row{d.Date, d.VideoCount, oneLine(tubedb.Preview(d.Summary, previewChars))})
	}
	tw.Render()
	return nil
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
