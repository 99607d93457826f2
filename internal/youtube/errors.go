package youtube

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
)

var (
	// ErrTranscriptNotFound means no caption track matched any preferred language.
	ErrTranscriptNotFound = errors.New("youtube: no transcript in preferred languages")

	// ErrQuotaExceeded covers Data API quota errors and 429 responses.
	ErrQuotaExceeded = errors.New("youtube: quota exceeded")

	// ErrChannelNotFound means the discovery source does not know the channel.
	ErrChannelNotFound = errors.New("youtube: channel not found")

	// ErrUnauthorized means the API key was rejected.
	ErrUnauthorized = errors.New("youtube: invalid credentials")
)

// WrapAPIError maps googleapi errors onto the package sentinels, keeping the original message.
func WrapAPIError(err error) error {
	if err == nil {
		return nil
	}
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}
	switch {
	case gerr.Code == http.StatusTooManyRequests || (gerr.Code == http.StatusForbidden && isQuotaReason(gerr)):
		return fmt.Errorf("%w: %s", ErrQuotaExceeded, gerr.Message)
	case gerr.Code == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrChannelNotFound, gerr.Message)
	case gerr.Code == http.StatusUnauthorized || gerr.Code == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrUnauthorized, gerr.Message)
	default:
		return err
	}
}

func isQuotaReason(gerr *googleapi.Error) bool {
	for _, item := range gerr.Errors {
		switch item.Reason {
		case "quotaExceeded", "dailyLimitExceeded", "rateLimitExceeded", "userRateLimitExceeded":
			return true
		}
	}
	return strings.Contains(strings.ToLower(gerr.Message), "quota")
}
