package tui

import (
	"fmt"
	"strings"
	"time"

	"tubedigest/internal/tubedb"
	"tubedigest/internal/youtube"
)

// entry is one browsable row, either a video or a digest.
type entry struct {
	title   string
	channel string
	date    time.Time
	day     string
	url     string
	preview string
	// body is markdown shown in the detail page.
	body string
}

func itemEntries(items []tubedb.Item) []entry {
	out := make([]entry, 0, len(items))
	for _, it := range items {
		out = append(out, itemEntry(it))
	}
	return out
}

func itemEntry(it tubedb.Item) entry {
	var body strings.Builder
	body.WriteString("## Summary\n\n")
	body.WriteString(it.Summary)
	if it.Transcript != "" {
		fmt.Fprintf(&body, "\n\n## Transcript (%s)\n\n%s", it.Language, it.Transcript)
	}
	return entry{
		title:   it.Title,
		channel: it.ChannelName,
		date:    it.ProcessedAt,
		url:     youtube.WatchURL(it.VideoID),
		preview: oneLine(it.Summary),
		body:    body.String(),
	}
}

func digestEntries(digests []tubedb.Digest) []entry {
	out := make([]entry, 0, len(digests))
	for _, d := range digests {
		out = append(out, entry{
			title:   fmt.Sprintf("Daily summary %s", d.Date),
			channel: fmt.Sprintf("%d videos", d.VideoCount),
			date:    d.CreatedAt,
			day:     d.Date,
			preview: oneLine(d.Summary),
			body:    d.Summary,
		})
	}
	return out
}

func oneLine(s string) string {
	s = strings.NewReplacer("**", "", "#", "").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// truncateString cuts s to maxLen runes, ending in "..." when it had to cut.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:max(0, maxLen)])
	}
	return string(r[:maxLen-3]) + "..."
}
