package media

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

var ErrNotFound = errors.New("media: no results")

type Track struct {
	Title  string
	Artist string
	URL    string
}

// Lookup resolves a free-text query to a single playable track. It returns
// ErrNotFound when the provider has no match.
type Lookup interface {
	Search(ctx context.Context, query string) (Track, error)
}

var (
	byArtistPattern   = regexp.MustCompile(`(?i)\bby\s+(.+)$`)
	artistDashPattern = regexp.MustCompile(`^(.+?)\s+-\s+.+$`)
	bracketSuffix     = regexp.MustCompile(`\s*[\(\[][^\)\]]*[\)\]]\s*$`)
)

// ExtractArtist guesses the artist from a video title such as
// "Artist - Song (Official Video)" or "Song by Artist".
func ExtractArtist(title string) string {
	t := strings.TrimSpace(title)
	for {
		stripped := bracketSuffix.ReplaceAllString(t, "")
		if stripped == t {
			break
		}
		t = stripped
	}
	if m := artistDashPattern.FindStringSubmatch(t); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := byArtistPattern.FindStringSubmatch(t); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}
