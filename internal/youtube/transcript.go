package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"regexp"
	"strings"

	xhtml "golang.org/x/net/html"

	"tubedigest/internal/httpclient"
)

// Transcripts are read the way the web player does it:
// watch page -> innertube player -> captionTracks -> timedtext XML.

const (
	defaultBaseURL = "https://www.youtube.com"
	userAgent      = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// Android client context; the web client gets signed caption URLs.
var innertubeContext = map[string]any{
	"client": map[string]string{
		"clientName":    "ANDROID",
		"clientVersion": "20.10.38",
	},
}

// TranscriptFetcher is the contract the pipeline depends on.
type TranscriptFetcher interface {
	Fetch(ctx context.Context, videoID string) Result
}

// Fetcher fetches transcripts honouring an ordered language preference.
type Fetcher struct {
	client    *httpclient.Client
	languages []string
	baseURL   string
}

func NewFetcher(client *httpclient.Client, languages []string) *Fetcher {
	if client == nil {
		client = httpclient.New(0)
	}
	return &Fetcher{client: client, languages: languages, baseURL: defaultBaseURL}
}

// WithBaseURL points the fetcher at another host, e.g. a test server.
func (f *Fetcher) WithBaseURL(u string) *Fetcher {
	f.baseURL = strings.TrimRight(u, "/")
	return f
}

// Fetch lists the caption tracks once, selects one by language tier and downloads it.
func (f *Fetcher) Fetch(ctx context.Context, videoID string) Result {
	tracks, cookie, err := f.ListTracks(ctx, videoID)
	if err != nil {
		if errors.Is(err, ErrTranscriptNotFound) {
			return notFoundResult(err)
		}
		return transientResult(err)
	}
	track, err := SelectTrack(tracks, f.languages)
	if err != nil {
		if errors.Is(err, ErrTranscriptNotFound) {
			return notFoundResult(err)
		}
		return transientResult(err)
	}
	text, err := f.download(ctx, track, cookie)
	if err != nil {
		return transientResult(fmt.Errorf("download %s track: %w", track.LanguageCode, err))
	}
	return foundResult(text, track)
}

// ListTracks returns the caption tracks for a video plus any consent cookie
// needed for follow-up requests. A video without captions yields ErrTranscriptNotFound.
func (f *Fetcher) ListTracks(ctx context.Context, videoID string) ([]Track, string, error) {
	page, cookie, err := f.fetchWatchHTML(ctx, videoID)
	if err != nil {
		return nil, "", err
	}
	apiKey, err := extractAPIKey(page)
	if err != nil {
		return nil, "", err
	}
	player, err := f.postPlayer(ctx, apiKey, videoID, cookie)
	if err != nil {
		return nil, "", err
	}
	if st := player.PlayabilityStatus.Status; st != "" && st != "OK" {
		return nil, "", fmt.Errorf("video unplayable: %s %s", st, player.PlayabilityStatus.Reason)
	}
	raw := player.Captions.Renderer.CaptionTracks
	if len(raw) == 0 {
		return nil, "", fmt.Errorf("%w: transcripts disabled", ErrTranscriptNotFound)
	}
	tracks := make([]Track, 0, len(raw))
	for _, t := range raw {
		if t.BaseURL == "" {
			continue
		}
		tracks = append(tracks, Track{
			BaseURL:      t.BaseURL,
			LanguageCode: t.LanguageCode,
			Name:         t.Name.text(),
			Generated:    t.Kind == "asr",
		})
	}
	return tracks, cookie, nil
}

func (f *Fetcher) headers(cookie string) map[string]string {
	h := map[string]string{"User-Agent": userAgent, "Accept-Language": "en-US"}
	if cookie != "" {
		h["Cookie"] = cookie
	}
	return h
}

// fetchWatchHTML fetches the watch page. If the consent form shows up it sets
// the consent cookie and retries once.
func (f *Fetcher) fetchWatchHTML(ctx context.Context, videoID string) (string, string, error) {
	url := f.baseURL + "/watch?v=" + neturl.QueryEscape(videoID)
	body, err := f.get(ctx, url, "")
	if err != nil {
		return "", "", err
	}
	if !strings.Contains(body, `action="https://consent.youtube.com/s"`) {
		return body, "", nil
	}
	v := extractConsentV(body)
	if v == "" {
		return "", "", errors.New("failed to create consent cookie")
	}
	cookie := "CONSENT=YES+" + v
	body, err = f.get(ctx, url, cookie)
	if err != nil {
		return "", "", err
	}
	return body, cookie, nil
}

func (f *Fetcher) get(ctx context.Context, url, cookie string) (string, error) {
	resp, err := f.client.Get(ctx, url, f.headers(cookie))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests {
		return "", fmt.Errorf("%w: request blocked (429)", ErrQuotaExceeded)
	}
	if err := httpclient.CheckStatus(resp); err != nil {
		return "", err
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

var (
	apiKeyRe  = regexp.MustCompile(`"INNERTUBE_API_KEY"\s*:\s*"([a-zA-Z0-9_-]+)"`)
	consentRe = regexp.MustCompile(`name="v" value="(.*?)"`)
)

func extractAPIKey(page string) (string, error) {
	if m := apiKeyRe.FindStringSubmatch(page); len(m) == 2 {
		return m[1], nil
	}
	if strings.Contains(page, `class="g-recaptcha"`) {
		return "", fmt.Errorf("%w: IP blocked (captcha)", ErrQuotaExceeded)
	}
	return "", errors.New("could not extract INNERTUBE_API_KEY")
}

func extractConsentV(page string) string {
	if m := consentRe.FindStringSubmatch(page); len(m) == 2 {
		return m[1]
	}
	return ""
}

type playerResponse struct {
	PlayabilityStatus struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	Captions struct {
		Renderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

type captionTrack struct {
	BaseURL      string    `json:"baseUrl"`
	LanguageCode string    `json:"languageCode"`
	Kind         string    `json:"kind"`
	Name         trackName `json:"name"`
}

type trackName struct {
	SimpleText string `json:"simpleText"`
	Runs       []struct {
		Text string `json:"text"`
	} `json:"runs"`
}

func (n trackName) text() string {
	if n.SimpleText != "" {
		return n.SimpleText
	}
	var sb strings.Builder
	for _, r := range n.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

func (f *Fetcher) postPlayer(ctx context.Context, apiKey, videoID, cookie string) (*playerResponse, error) {
	payload, err := json.Marshal(map[string]any{
		"context": innertubeContext,
		"videoId": videoID,
	})
	if err != nil {
		return nil, err
	}
	endpoint := f.baseURL + "/youtubei/v1/player?key=" + neturl.QueryEscape(apiKey)
	resp, err := f.client.Post(ctx, endpoint, bytes.NewReader(payload), f.headers(cookie))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: player request blocked (429)", ErrQuotaExceeded)
	}
	if err := httpclient.CheckStatus(resp); err != nil {
		return nil, fmt.Errorf("player request: %w", err)
	}
	var out playerResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode player response: %w", err)
	}
	return &out, nil
}

func (f *Fetcher) download(ctx context.Context, t Track, cookie string) (string, error) {
	u := t.BaseURL
	// plain timedtext XML, not srv3
	if parsed, err := neturl.Parse(u); err == nil {
		q := parsed.Query()
		if q.Get("fmt") != "" {
			q.Del("fmt")
			parsed.RawQuery = q.Encode()
			u = parsed.String()
		}
	}
	body, err := f.get(ctx, u, cookie)
	if err != nil {
		return "", err
	}
	segments, err := parseTimedTextXML([]byte(body))
	if err != nil {
		return "", err
	}
	return strings.Join(segments, " "), nil
}

// parseTimedTextXML returns the cleaned text of every non-empty segment in source order.
func parseTimedTextXML(b []byte) ([]string, error) {
	type textEl struct {
		Body string `xml:",innerxml"`
	}
	type transcript struct {
		XMLName xml.Name `xml:"transcript"`
		Texts   []textEl `xml:"text"`
	}
	var tx transcript
	if err := xml.Unmarshal(b, &tx); err != nil {
		return nil, fmt.Errorf("parse timedtext: %w", err)
	}
	out := make([]string, 0, len(tx.Texts))
	for _, t := range tx.Texts {
		if s := cleanCaption(t.Body); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("empty transcript")
	}
	return out, nil
}

// cleanCaption undoes the XML escaping of a segment, then drops the inline
// markup (<font>, <i>, <br>) the captions carry and collapses whitespace.
func cleanCaption(raw string) string {
	unescaped := xhtml.UnescapeString(raw)
	z := xhtml.NewTokenizer(strings.NewReader(unescaped))
	var sb strings.Builder
	for {
		switch z.Next() {
		case xhtml.ErrorToken:
			return strings.Join(strings.Fields(sb.String()), " ")
		case xhtml.TextToken:
			sb.Write(z.Text())
		case xhtml.StartTagToken, xhtml.SelfClosingTagToken:
			if name, _ := z.TagName(); string(name) == "br" {
				sb.WriteByte(' ')
			}
		}
	}
}
