package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"tubedigest/internal/app"
	"tubedigest/internal/ingest"
)

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault
	return t
}

func printCycle(out io.Writer, r ingest.CycleReport) {
	if r.OutsideWindow {
		fmt.Fprintf(out, "Outside polling window (%s UTC); nothing polled.\n", r.StartedAt.UTC().Format("15:04"))
		return
	}
	if len(r.Items) == 0 {
		fmt.Fprintln(out, "No new videos.")
		return
	}
	t := newTable(out)
	t.AppendHeader(table.Row{"Video", "Channel", "Title", "Outcome", "Detail"})
	for _, it := range r.Items {
		t.AppendRow(table.Row{it.VideoID, it.Channel, it.Title, it.Outcome, it.Detail})
	}
	t.AppendFooter(table.Row{"", "", "", fmt.Sprintf("%d/%d processed", r.Processed, r.Discovered), ""})
	t.Render()
}

func printInspect(out io.Writer, r ingest.InspectReport) {
	fmt.Fprintf(out, "%s (%s) since %s\n", r.Channel.Name, r.Channel.ChannelID, r.Since.UTC().Format("2006-01-02 15:04 UTC"))
	if len(r.Videos) == 0 {
		fmt.Fprintln(out, "No uploads in range.")
		return
	}
	t := newTable(out)
	t.AppendHeader(table.Row{"Published", "Video", "Title", "Processed"})
	for _, v := range r.Videos {
		mark := "no"
		if v.Processed {
			mark = "yes"
		}
		t.AppendRow(table.Row{v.PublishedAt.UTC().Format("2006-01-02 15:04"), v.VideoID, v.Title, mark})
	}
	t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d new", r.NewCount), ""})
	t.Render()
}

func printCheck(out io.Writer, r app.CheckReport) {
	t := newTable(out)
	t.AppendHeader(table.Row{"Check", "Result"})
	t.AppendRow(table.Row{"database", r.Database})
	t.AppendRow(table.Row{"discovery", r.Discovery})
	if r.SampleChannel != "" {
		t.AppendRow(table.Row{"sample channel", fmt.Sprintf("%s (%d recent)", r.SampleChannel, r.RecentVideos)})
	}
	names := make([]string, 0, len(r.Integrations))
	for k := range r.Integrations {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		state := "not configured"
		if r.Integrations[k] {
			state = "configured"
		}
		t.AppendRow(table.Row{k, state})
	}
	status := "healthy"
	if !r.Healthy {
		status = "unhealthy"
	}
	t.AppendFooter(table.Row{"", status})
	t.Render()
}
