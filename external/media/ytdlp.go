package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/foxseedlab/gunkan/internal/media"
)

type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// YtDlpLookup shells out to yt-dlp. It needs no API key.
type YtDlpLookup struct {
	path string
	run  commandRunner
}

func NewYtDlpLookup(path string) *YtDlpLookup {
	return &YtDlpLookup{path: path, run: runCommand}
}

func (l *YtDlpLookup) Search(ctx context.Context, query string) (media.Track, error) {
	args := []string{
		"ytsearch1:" + query,
		"--no-playlist",
		"--skip-download",
		"--no-warnings",
		"--print", "title",
		"--print", "webpage_url",
	}
	out, err := l.run(ctx, l.path, args...)
	if err != nil {
		return media.Track{}, fmt.Errorf("yt-dlp search: %w", err)
	}
	title, url, ok := parseYtDlpOutput(out)
	if !ok {
		return media.Track{}, media.ErrNotFound
	}
	return media.Track{Title: title, Artist: media.ExtractArtist(title), URL: url}, nil
}

func parseYtDlpOutput(out []byte) (title, url string, ok bool) {
	var lines []string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) < 2 {
		return "", "", false
	}
	if !strings.HasPrefix(lines[1], "http://") && !strings.HasPrefix(lines[1], "https://") {
		return "", "", false
	}
	return lines[0], lines[1], true
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && stderr.Len() > 0 {
			return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return nil, err
	}
	return out, nil
}
