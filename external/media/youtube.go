package media

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/foxseedlab/gunkan/internal/media"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const youtubeWatchURL = "https://www.youtube.com/watch?v="

type YouTubeLookup struct {
	svc *youtube.Service
}

func NewYouTubeLookup(ctx context.Context, apiKey string, opts ...option.ClientOption) (*YouTubeLookup, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	return &YouTubeLookup{svc: svc}, nil
}

func (l *YouTubeLookup) Search(ctx context.Context, query string) (media.Track, error) {
	res, err := l.svc.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		return media.Track{}, fmt.Errorf("youtube search: %w", err)
	}
	for _, item := range res.Items {
		if item.Id == nil || item.Id.VideoId == "" || item.Snippet == nil {
			continue
		}
		title := html.UnescapeString(item.Snippet.Title)
		artist := media.ExtractArtist(title)
		if artist == "" {
			artist = channelArtist(item.Snippet.ChannelTitle)
		}
		return media.Track{
			Title:  title,
			Artist: artist,
			URL:    youtubeWatchURL + item.Id.VideoId,
		}, nil
	}
	return media.Track{}, media.ErrNotFound
}

// channelArtist turns auto-generated channel names like "Queen - Topic"
// into the artist name.
func channelArtist(channel string) string {
	channel = html.UnescapeString(strings.TrimSpace(channel))
	return strings.TrimSpace(strings.TrimSuffix(channel, " - Topic"))
}
