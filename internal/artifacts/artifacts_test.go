package artifacts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"tubedigest/internal/config"
)

func TestSafeTitle(t *testing.T) {
	assert.Equal(t, "BTC Ausblick Was jetzt", SafeTitle(`BTC: Ausblick / "Was jetzt?"`, 100))
	assert.Equal(t, "untitled", SafeTitle(`???`, 100))
	assert.Equal(t, "a b", SafeTitle("a\t\n  b", 100))

	long := strings.Repeat("ä", 150)
	assert.Equal(t, strings.Repeat("ä", 100), SafeTitle(long, MaxTitleChars))
}

func TestFileNames(t *testing.T) {
	assert.Equal(t, "Markt Update [abc123] summary.txt", ItemFileName("Markt Update", "abc123", KindSummary))
	assert.Equal(t, "Daily summary 2026-10-18.txt", DigestFileName("2026-10-18"))
}

func TestNoopStore(t *testing.T) {
	id, err := Noop{}.Put(context.Background(), KindSummary, "x.txt", "body")
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestDirStoreWritesPerKindFolders(t *testing.T) {
	root := t.TempDir()
	s := NewDirStore(root)

	id, err := s.Put(context.Background(), KindTranscript, "T [v1] transcript.txt", "hallo welt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("transcripts", "T [v1] transcript.txt"), id)

	b, err := os.ReadFile(filepath.Join(root, id))
	require.NoError(t, err)
	assert.Equal(t, "hallo welt", string(b))

	_, err = s.Put(context.Background(), KindDigest, "Daily summary 2026-10-18.txt", "d")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "digests", "Daily summary 2026-10-18.txt"))
}

func TestDriveStoreUploadsIntoKindFolder(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "files")
		assert.Equal(t, "true", r.URL.Query().Get("supportsAllDrives"))
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"file-42"}`)
	}))
	defer srv.Close()

	cfg := config.DriveConfig{Enabled: true, Folders: config.DriveFolders{Summaries: "folder-sum"}}
	s, err := NewDriveStore(context.Background(), cfg, option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	id, err := s.Put(context.Background(), KindSummary, "Video [v1] summary.txt", "die Zusammenfassung")
	require.NoError(t, err)
	assert.Equal(t, "file-42", id)
	assert.Contains(t, body, "folder-sum")
	assert.Contains(t, body, "Video [v1] summary.txt")
	assert.Contains(t, body, "die Zusammenfassung")
}

func TestDriveStoreReplaceUpdatesExistingFile(t *testing.T) {
	var method, path, body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		assert.Equal(t, "true", r.URL.Query().Get("supportsAllDrives"))
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"file-7"}`)
	}))
	defer srv.Close()

	cfg := config.DriveConfig{Enabled: true, Folders: config.DriveFolders{Digests: "folder-dig"}}
	s, err := NewDriveStore(context.Background(), cfg, option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	var _ Replacer = s
	id, err := s.Replace(context.Background(), KindDigest, "file-7", "Daily summary 2026-10-18.txt", "neuer Text")
	require.NoError(t, err)
	assert.Equal(t, "file-7", id)
	assert.Equal(t, http.MethodPatch, method)
	assert.True(t, strings.HasSuffix(path, "/files/file-7"), path)
	assert.Contains(t, body, "neuer Text")
	assert.NotContains(t, body, "folder-dig")
}

func TestDriveStoreReplaceMissingFileUploadsAgain(t *testing.T) {
	var methods []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodPatch {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error":{"code":404,"message":"File not found: file-7."}}`)
			return
		}
		fmt.Fprint(w, `{"id":"file-8"}`)
	}))
	defer srv.Close()

	cfg := config.DriveConfig{Enabled: true, Folders: config.DriveFolders{Digests: "folder-dig"}}
	s, err := NewDriveStore(context.Background(), cfg, option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	id, err := s.Replace(context.Background(), KindDigest, "file-7", "Daily summary 2026-10-18.txt", "x")
	require.NoError(t, err)
	assert.Equal(t, "file-8", id)
	assert.Equal(t, []string{http.MethodPatch, http.MethodPost}, methods)
}

func TestDriveStoreMissingFolder(t *testing.T) {
	s, err := NewDriveStore(context.Background(), config.DriveConfig{}, option.WithEndpoint("http://127.0.0.1:1/"), option.WithHTTPClient(http.DefaultClient))
	require.NoError(t, err)

	_, err = s.Put(context.Background(), KindDigest, "x.txt", "y")
	assert.ErrorIs(t, err, ErrFolderNotConfigured)
}

func TestDriveStoreServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":{"code":404,"message":"File not found: folder-x."}}`)
	}))
	defer srv.Close()

	cfg := config.DriveConfig{Folders: config.DriveFolders{Transcripts: "folder-x"}}
	s, err := NewDriveStore(context.Background(), cfg, option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	_, err = s.Put(context.Background(), KindTranscript, "x.txt", "y")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "folder-x")
}
