package command

import (
	"context"

	"github.com/foxseedlab/gunkan/internal/repository"
)

// Origin is where an invocation came from.
type Origin struct {
	ChatID   string
	SenderID string
	IsGroup  bool
	Mentions []string
}

type Request struct {
	Invocation
	Origin
	Command repository.Command
	Prefix  string

	reply func(ctx context.Context, text string) error
}

// Reply sends text back to the originating chat.
func (r *Request) Reply(ctx context.Context, text string) error {
	return r.reply(ctx, text)
}

type Handler interface {
	Handle(ctx context.Context, req *Request) error
}

type HandlerFunc func(ctx context.Context, req *Request) error

func (f HandlerFunc) Handle(ctx context.Context, req *Request) error {
	return f(ctx, req)
}

// Registry maps command names to handlers.
type Registry struct {
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

func (r *Registry) Register(name string, h Handler) {
	r.handlers[name] = h
}

func (r *Registry) Lookup(name string) (Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	return names
}
