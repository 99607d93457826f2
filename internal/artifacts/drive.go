package artifacts

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"tubedigest/internal/config"
)

var ErrFolderNotConfigured = errors.New("drive: no folder configured for artifact kind")

// DriveStore uploads artifacts to Google Drive folders, one folder per kind.
type DriveStore struct {
	svc     *drive.Service
	folders map[Kind]string
	limiter *rate.Limiter
}

// TokenSourceFromFile reads a service-account (or authorized user) JSON key.
func TokenSourceFromFile(ctx context.Context, path string) (oauth2.TokenSource, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read drive credentials: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, b, drive.DriveFileScope)
	if err != nil {
		return nil, fmt.Errorf("parse drive credentials: %w", err)
	}
	return creds.TokenSource, nil
}

// NewDriveStore builds the store from config. Extra options follow the token
// source, so a test can swap in its own endpoint and client.
func NewDriveStore(ctx context.Context, cfg config.DriveConfig, opts ...option.ClientOption) (*DriveStore, error) {
	var all []option.ClientOption
	if len(opts) == 0 {
		ts, err := TokenSourceFromFile(ctx, cfg.CredentialsFile)
		if err != nil {
			return nil, err
		}
		all = append(all, option.WithTokenSource(ts))
	}
	all = append(all, opts...)
	svc, err := drive.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return &DriveStore{
		svc: svc,
		folders: map[Kind]string{
			KindTranscript: cfg.Folders.Transcripts,
			KindSummary:    cfg.Folders.Summaries,
			KindDigest:     cfg.Folders.Digests,
		},
		// Drive allows 10 requests per second per user.
		limiter: rate.NewLimiter(rate.Limit(8), 10),
	}, nil
}

func (s *DriveStore) Name() string { return "drive" }

func (s *DriveStore) Put(ctx context.Context, kind Kind, name, content string) (string, error) {
	folder := strings.TrimSpace(s.folders[kind])
	if folder == "" {
		return "", fmt.Errorf("%w: %s", ErrFolderNotConfigured, kind)
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}
	meta := &drive.File{
		Name:     name,
		Parents:  []string{folder},
		MimeType: "text/plain",
	}
	f, err := s.svc.Files.Create(meta).
		Media(strings.NewReader(content), googleapi.ContentType("text/plain; charset=utf-8")).
		SupportsAllDrives(true).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
			return "", fmt.Errorf("drive folder %s for %s not found: %w", folder, kind, err)
		}
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	return f.Id, nil
}

// Replace overwrites the content of an existing file. A file that is gone is
// uploaded again with Put.
func (s *DriveStore) Replace(ctx context.Context, kind Kind, id, name, content string) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}
	f, err := s.svc.Files.Update(id, &drive.File{Name: name}).
		Media(strings.NewReader(content), googleapi.ContentType("text/plain; charset=utf-8")).
		SupportsAllDrives(true).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
			return s.Put(ctx, kind, name, content)
		}
		return "", fmt.Errorf("update %s: %w", name, err)
	}
	return f.Id, nil
}
