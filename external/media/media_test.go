package media

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/foxseedlab/gunkan/internal/media"
	"google.golang.org/api/option"
)

func newTestYouTube(t *testing.T, handler http.HandlerFunc) *YouTubeLookup {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	l, err := NewYouTubeLookup(context.Background(), "test-key",
		option.WithEndpoint(server.URL+"/"),
		option.WithHTTPClient(server.Client()),
	)
	if err != nil {
		t.Fatalf("failed to create lookup: %v", err)
	}
	return l
}

func TestYouTubeSearch_ReturnsFirstVideo(t *testing.T) {
	var gotQuery, gotType string
	l := newTestYouTube(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotType = r.URL.Query().Get("type")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"id":{"kind":"youtube#video","videoId":"abc123"},"snippet":{"title":"Queen - Don&#39;t Stop Me Now","channelTitle":"Queen Official"}}]}`))
	})

	track, err := l.Search(context.Background(), "dont stop me now")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotQuery != "dont stop me now" || gotType != "video" {
		t.Fatalf("unexpected query params: q=%q type=%q", gotQuery, gotType)
	}
	if track.Title != "Queen - Don't Stop Me Now" {
		t.Fatalf("unexpected title: %q", track.Title)
	}
	if track.Artist != "Queen" {
		t.Fatalf("unexpected artist: %q", track.Artist)
	}
	if track.URL != "https://www.youtube.com/watch?v=abc123" {
		t.Fatalf("unexpected url: %q", track.URL)
	}
}

func TestYouTubeSearch_FallsBackToChannelArtist(t *testing.T) {
	l := newTestYouTube(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"id":{"videoId":"xyz"},"snippet":{"title":"Bohemian Rhapsody","channelTitle":"Queen - Topic"}}]}`))
	})

	track, err := l.Search(context.Background(), "bohemian")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if track.Artist != "Queen" {
		t.Fatalf("unexpected artist: %q", track.Artist)
	}
}

func TestYouTubeSearch_NoItems(t *testing.T) {
	l := newTestYouTube(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[]}`))
	})

	if _, err := l.Search(context.Background(), "nothing"); !errors.Is(err, media.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestYouTubeSearch_APIError(t *testing.T) {
	l := newTestYouTube(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"quota exceeded"}}`))
	})

	_, err := l.Search(context.Background(), "anything")
	if err == nil || errors.Is(err, media.ErrNotFound) {
		t.Fatalf("expected api error, got %v", err)
	}
}

func TestYtDlpSearch(t *testing.T) {
	var gotArgs []string
	l := &YtDlpLookup{path: "yt-dlp", run: func(_ context.Context, name string, args ...string) ([]byte, error) {
		if name != "yt-dlp" {
			t.Fatalf("unexpected binary: %s", name)
		}
		gotArgs = args
		return []byte("Song by Someone\nhttps://www.youtube.com/watch?v=1\n"), nil
	}}

	track, err := l.Search(context.Background(), "song")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gotArgs) == 0 || gotArgs[0] != "ytsearch1:song" {
		t.Fatalf("unexpected args: %v", gotArgs)
	}
	if track.Title != "Song by Someone" || track.Artist != "Someone" || track.URL != "https://www.youtube.com/watch?v=1" {
		t.Fatalf("unexpected track: %+v", track)
	}
}

func TestYtDlpSearch_EmptyOutputIsNotFound(t *testing.T) {
	l := &YtDlpLookup{path: "yt-dlp", run: func(context.Context, string, ...string) ([]byte, error) {
		return []byte("\n"), nil
	}}
	if _, err := l.Search(context.Background(), "song"); !errors.Is(err, media.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestParseYtDlpOutput_RejectsNonURL(t *testing.T) {
	if _, _, ok := parseYtDlpOutput([]byte("title\nnot a url\n")); ok {
		t.Fatal("expected parse failure")
	}
}
