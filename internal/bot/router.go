package bot

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/foxseedlab/gunkan/internal/messaging"
	"github.com/foxseedlab/gunkan/internal/metrics"
	"github.com/foxseedlab/gunkan/internal/session"
)

// sessionKey is the worker key for connection updates. Group JIDs always
// contain '@', so it cannot collide with a group.
const sessionKey = "session"

type ConnectionHandler interface {
	HandleConnectionUpdate(ctx context.Context, seq uint64, u messaging.ConnectionUpdate)
}

type MessageHandler interface {
	HandleMessage(ctx context.Context, msg messaging.InboundMessage)
}

type ParticipantsHandler interface {
	HandleParticipants(ctx context.Context, u messaging.ParticipantsUpdate)
}

type event struct {
	seq          uint64
	connection   *messaging.ConnectionUpdate
	message      *messaging.InboundMessage
	participants *messaging.ParticipantsUpdate
}

type worker struct {
	pending []event
}

// Router turns transport callbacks into queued events. Connection updates
// go to a single session worker; messages and participant updates go to a
// worker per chat, so each chat is handled in arrival order while chats
// run concurrently. A worker exits as soon as its backlog is empty.
type Router struct {
	seq          *session.Sequence
	connections  ConnectionHandler
	messages     MessageHandler
	participants ParticipantsHandler

	ctx     context.Context
	mu      sync.Mutex
	workers map[string]*worker
	closed  bool
	wg      sync.WaitGroup
}

func NewRouter(seq *session.Sequence, connections ConnectionHandler, messages MessageHandler, participants ParticipantsHandler) *Router {
	return &Router{
		seq:          seq,
		connections:  connections,
		messages:     messages,
		participants: participants,
		ctx:          context.Background(),
		workers:      make(map[string]*worker),
	}
}

// Start subscribes to transport. Handlers run with ctx.
func (r *Router) Start(ctx context.Context, transport messaging.Transport) {
	r.mu.Lock()
	r.ctx = ctx
	r.mu.Unlock()
	transport.Subscribe(messaging.Handlers{
		OnConnectionUpdate: func(u messaging.ConnectionUpdate) {
			r.enqueue(sessionKey, event{connection: &u})
		},
		OnInboundMessage: func(m messaging.InboundMessage) {
			r.enqueue(m.Chat, event{message: &m})
		},
		OnParticipantsUpdate: func(u messaging.ParticipantsUpdate) {
			r.enqueue(u.GroupID, event{participants: &u})
		},
	})
}

// Close stops accepting events and waits for the backlog to drain.
func (r *Router) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *Router) enqueue(key string, ev event) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		slog.Debug("router closed, dropping event", "key", key)
		return
	}
	// Stamped under mu so sequence order matches queue order.
	ev.seq = r.seq.Next()
	w, ok := r.workers[key]
	if !ok {
		w = &worker{}
		r.workers[key] = w
	}
	w.pending = append(w.pending, ev)
	ctx := r.ctx
	if !ok {
		r.wg.Add(1)
	}
	r.mu.Unlock()

	if !ok {
		metrics.RouterWorkers.Inc()
		go r.run(ctx, key, w)
	}
}

func (r *Router) run(ctx context.Context, key string, w *worker) {
	defer r.wg.Done()
	defer metrics.RouterWorkers.Dec()
	for {
		r.mu.Lock()
		if len(w.pending) == 0 {
			delete(r.workers, key)
			r.mu.Unlock()
			return
		}
		ev := w.pending[0]
		w.pending[0] = event{}
		w.pending = w.pending[1:]
		r.mu.Unlock()

		r.handle(ctx, key, ev)
	}
}

func (r *Router) handle(ctx context.Context, key string, ev event) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("event handler panicked", "key", key, "seq", ev.seq, "panic", fmt.Sprint(rec), "stack", string(debug.Stack()))
		}
	}()

	switch {
	case ev.connection != nil:
		r.connections.HandleConnectionUpdate(ctx, ev.seq, *ev.connection)
	case ev.message != nil:
		r.messages.HandleMessage(ctx, *ev.message)
	case ev.participants != nil:
		r.participants.HandleParticipants(ctx, *ev.participants)
	}
}

// workerCount is used by tests.
func (r *Router) workerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workers)
}
