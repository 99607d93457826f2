package youtube

import (
	neturl "net/url"
	"regexp"
	"strings"
)

var (
	ytHostRe  = regexp.MustCompile(`(?i)(^|\.)youtube\.com$`)
	videoIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
)

// WatchURL is the public link for a video id.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// ExtractYouTubeID returns the video id from a watch, shorts or youtu.be link.
// A bare 11-character id is returned unchanged.
func ExtractYouTubeID(u string) string {
	u = strings.TrimSpace(u)
	if videoIDRe.MatchString(u) {
		return u
	}
	parsed, err := neturl.Parse(u)
	if err != nil {
		return ""
	}
	h := strings.ToLower(parsed.Host)
	if h == "youtu.be" {
		return strings.Trim(parsed.Path, "/")
	}
	if ytHostRe.MatchString(h) {
		if strings.HasPrefix(parsed.Path, "/watch") {
			return strings.TrimSpace(parsed.Query().Get("v"))
		}
		if strings.HasPrefix(parsed.Path, "/shorts/") {
			return strings.Trim(strings.TrimPrefix(parsed.Path, "/shorts/"), "/")
		}
	}
	return ""
}
