package summarize

import (
	"bytes"
	"fmt"
	"text/template"
)

const DefaultItemPrompt = `You summarize YouTube videos about finance and crypto markets.

Write a structured summary of the transcript below in {{.Language}}:

1. **Main topic**: what the video is about, in one sentence.
2. **Key points**: the 3 to 5 most important statements as bullets.
3. **Details & insights**: notable facts, figures or findings.
4. **Takeaway**: the most important conclusion or call to action.

Guidelines:
- Stick to facts and concrete content; ignore filler and repetition.
- Highlight price targets, recommendations and warnings.
- Mention important dates and deadlines.

**Transcript:**
{{.Transcript}}
`

const DefaultChunkPrompt = `Summarize this part of a YouTube transcript (part {{.Index}} of {{.Total}}) in {{.Language}}:

{{.Text}}

Focus on:
- main points and key statements
- important details and facts
- connections and conclusions
`

const DefaultDigestPrompt = `Write an executive summary in {{.Language}} of all finance and crypto YouTube videos processed on {{.Date}} ({{.Count}} videos):

1. **Overview**: number of videos and channels.
2. **Main themes**: recurring or important topics of the day.
3. **Top insights**: the most valuable information and recommendations.
4. **Market trends**: what stands out about prices, projects or developments.
5. **Action items**: concrete recommendations drawn from the videos.

**Videos of the day:**
{{.Content}}
`

type ItemData struct {
	Language   string
	Transcript string
}

type ChunkData struct {
	Language string
	Index    int
	Total    int
	Text     string
}

type DigestData struct {
	Language string
	Date     string
	Count    int
	Content  string
}

// Prompts holds the parsed templates. Empty sources fall back to the defaults.
type Prompts struct {
	language string
	item     *template.Template
	chunk    *template.Template
	digest   *template.Template
}

func NewPrompts(languageCode, item, chunk, digest string) (*Prompts, error) {
	p := &Prompts{language: languageName(languageCode)}
	var err error
	if p.item, err = parse("item", item, DefaultItemPrompt); err != nil {
		return nil, err
	}
	if p.chunk, err = parse("chunk", chunk, DefaultChunkPrompt); err != nil {
		return nil, err
	}
	if p.digest, err = parse("digest", digest, DefaultDigestPrompt); err != nil {
		return nil, err
	}
	return p, nil
}

func parse(name, src, fallback string) (*template.Template, error) {
	if src == "" {
		src = fallback
	}
	t, err := template.New(name).Option("missingkey=error").Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse %s prompt: %w", name, err)
	}
	return t, nil
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", t.Name(), err)
	}
	return buf.String(), nil
}

func (p *Prompts) Item(transcript string) (string, error) {
	return render(p.item, ItemData{Language: p.language, Transcript: transcript})
}

func (p *Prompts) Chunk(c Chunk, total int) (string, error) {
	return render(p.chunk, ChunkData{Language: p.language, Index: c.Index, Total: total, Text: c.Text})
}

func (p *Prompts) Digest(date string, count int, content string) (string, error) {
	return render(p.digest, DigestData{Language: p.language, Date: date, Count: count, Content: content})
}

func languageName(code string) string {
	switch code {
	case "de":
		return "German"
	case "en", "":
		return "English"
	case "fr":
		return "French"
	case "es":
		return "Spanish"
	case "it":
		return "Italian"
	case "nl":
		return "Dutch"
	default:
		return code
	}
}
