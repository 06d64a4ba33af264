package bot

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/foxseedlab/gunkan/internal/messaging"
	"github.com/foxseedlab/gunkan/internal/messaging/messagingtest"
	"github.com/foxseedlab/gunkan/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	mu          sync.Mutex
	seqs        []uint64
	byChat      map[string][]string
	joins       []string
	panicOnText string
}

func newRecorded() *recorded {
	return &recorded{byChat: make(map[string][]string)}
}

func (r *recorded) HandleConnectionUpdate(_ context.Context, seq uint64, _ messaging.ConnectionUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seqs = append(r.seqs, seq)
}

func (r *recorded) HandleMessage(_ context.Context, msg messaging.InboundMessage) {
	if r.panicOnText != "" && msg.Text == r.panicOnText {
		panic("handler exploded")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byChat[msg.Chat] = append(r.byChat[msg.Chat], msg.Text)
}

func (r *recorded) HandleParticipants(_ context.Context, u messaging.ParticipantsUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.joins = append(r.joins, u.GroupID)
}

func newTestRouter(rec *recorded) (*Router, *messagingtest.Transport) {
	transport := messagingtest.New()
	r := NewRouter(&session.Sequence{}, rec, rec, rec)
	r.Start(context.Background(), transport)
	return r, transport
}

func TestRouter_KeepsPerChatOrderAndRetiresWorkers(t *testing.T) {
	rec := newRecorded()
	r, transport := newTestRouter(rec)

	chats := []string{"a@g.us", "b@g.us", "c@g.us"}
	const perChat = 200
	for i := 0; i < perChat; i++ {
		for _, chat := range chats {
			transport.EmitMessage(messaging.InboundMessage{Chat: chat, IsGroup: true, Text: fmt.Sprintf("%d", i)})
		}
	}
	transport.EmitParticipants(messaging.ParticipantsUpdate{GroupID: "a@g.us", Action: messaging.ParticipantAdd})
	r.Close()

	for _, chat := range chats {
		got := rec.byChat[chat]
		require.Len(t, got, perChat, chat)
		for i, text := range got {
			assert.Equal(t, fmt.Sprintf("%d", i), text, chat)
		}
	}
	assert.Equal(t, []string{"a@g.us"}, rec.joins)
	assert.Zero(t, r.workerCount())
}

func TestRouter_StampsIncreasingSequence(t *testing.T) {
	rec := newRecorded()
	r, transport := newTestRouter(rec)

	for i := 0; i < 50; i++ {
		transport.EmitConnection(messaging.ConnectionUpdate{Kind: messaging.ConnectionClose})
		transport.EmitMessage(messaging.InboundMessage{Chat: "a@g.us", Text: "x"})
	}
	r.Close()

	require.Len(t, rec.seqs, 50)
	for i := 1; i < len(rec.seqs); i++ {
		assert.Greater(t, rec.seqs[i], rec.seqs[i-1])
	}
}

func TestRouter_PanicDoesNotStopWorker(t *testing.T) {
	rec := newRecorded()
	rec.panicOnText = "boom"
	r, transport := newTestRouter(rec)

	transport.EmitMessage(messaging.InboundMessage{Chat: "a@g.us", Text: "boom"})
	transport.EmitMessage(messaging.InboundMessage{Chat: "a@g.us", Text: "after"})
	r.Close()

	assert.Equal(t, []string{"after"}, rec.byChat["a@g.us"])
}

func TestRouter_DropsEventsAfterClose(t *testing.T) {
	rec := newRecorded()
	r, transport := newTestRouter(rec)
	r.Close()

	transport.EmitMessage(messaging.InboundMessage{Chat: "a@g.us", Text: "late"})

	assert.Empty(t, rec.byChat)
	assert.Zero(t, r.workerCount())
}
