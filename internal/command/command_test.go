package command

import (
	"context"
	"testing"
	"time"

	memrepo "github.com/foxseedlab/gunkan/external/repository"
	"github.com/foxseedlab/gunkan/internal/activity"
	"github.com/foxseedlab/gunkan/internal/clock"
	"github.com/foxseedlab/gunkan/internal/media"
	"github.com/foxseedlab/gunkan/internal/messaging/messagingtest"
	"github.com/foxseedlab/gunkan/internal/queue"
	"github.com/foxseedlab/gunkan/internal/repository"
	"github.com/stretchr/testify/require"
)

const (
	testGroup  = "120363000000000001@g.us"
	testSender = "15550001111@s.whatsapp.net"
)

var epoch = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

type fakeLookup struct {
	tracks  map[string]media.Track
	err     error
	queries []string
}

func (f *fakeLookup) Search(_ context.Context, query string) (media.Track, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return media.Track{}, f.err
	}
	t, ok := f.tracks[query]
	if !ok {
		return media.Track{}, media.ErrNotFound
	}
	return t, nil
}

type harness struct {
	repo       *memrepo.MemoryRepository
	transport  *messagingtest.Transport
	lookup     *fakeLookup
	queue      *queue.Engine
	clock      *clock.FakeClock
	dispatcher *Dispatcher
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWith(t, nil)
}

// newHarnessWith uses reg instead of the default registry when non-nil.
func newHarnessWith(t *testing.T, reg *Registry) *harness {
	t.Helper()
	ctx := context.Background()
	repo := memrepo.NewMemoryRepository()
	require.NoError(t, Seed(ctx, repo))

	h := &harness{
		repo:      repo,
		transport: messagingtest.New(),
		lookup:    &fakeLookup{tracks: make(map[string]media.Track)},
		queue:     queue.NewEngine(repo),
		clock:     clock.Fake(epoch),
	}
	rec := activity.NewRecorder(repo, nil, h.clock)
	if reg == nil {
		reg = NewDefaultRegistry(Deps{
			Repo:      repo,
			Transport: h.transport,
			Queue:     h.queue,
			Media:     h.lookup,
			Recorder:  rec,
			Clock:     h.clock,
		})
	}
	h.dispatcher = NewDispatcher("/", repo, reg, h.transport, rec, h.clock, time.UTC)
	return h
}

func groupOrigin() Origin {
	return Origin{ChatID: testGroup, SenderID: testSender, IsGroup: true}
}

func (h *harness) run(t *testing.T, text string, origin Origin) {
	t.Helper()
	inv, ok := Parse("/", text)
	require.True(t, ok, "not a command: %q", text)
	h.dispatcher.Dispatch(context.Background(), inv, origin)
}

func (h *harness) stats(t *testing.T) repository.Stats {
	t.Helper()
	s, err := h.repo.GetStats(context.Background(), epoch)
	require.NoError(t, err)
	return s
}

func (h *harness) logs(t *testing.T, filter repository.LogFilter) []repository.LogEntry {
	t.Helper()
	entries, err := h.repo.ListLogs(context.Background(), filter)
	require.NoError(t, err)
	return entries
}

func (h *harness) setEnabled(t *testing.T, name string, enabled bool) {
	t.Helper()
	_, err := h.repo.UpdateCommand(context.Background(), name, repository.CommandPatch{Enabled: &enabled})
	require.NoError(t, err)
}
