// Package messagingtest provides an in-memory messaging.Transport for tests.
package messagingtest

import (
	"context"
	"sync"

	"github.com/foxseedlab/gunkan/internal/messaging"
)

type SentMessage struct {
	ChatID string
	Text   string
}

type ParticipantsCall struct {
	GroupID string
	Targets []string
	Action  messaging.ParticipantAction
}

type AnnounceCall struct {
	GroupID  string
	Announce bool
}

// Transport records every call. Set the *Err fields to make the matching
// call fail.
type Transport struct {
	mu sync.Mutex

	Credentials   bool
	PairingCode   string
	Groups        map[string]messaging.GroupMetadata
	ConnectErr    error
	PairingErr    error
	LogoutErr     error
	SendErr       error
	SendErrByChat map[string]error
	UpdateErr     error
	AnnounceErr   error
	FetchErr      error

	ConnectCalls int
	PairingCalls []string
	LogoutCalls  int
	CloseCalls   int
	Sent         []SentMessage
	Participants []ParticipantsCall
	Announces    []AnnounceCall
	GroupFetches []string
	handlers     messaging.Handlers
}

func New() *Transport {
	return &Transport{
		PairingCode: "ABCD1234",
		Groups:      make(map[string]messaging.GroupMetadata),
	}
}

func (t *Transport) Connect(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ConnectCalls++
	return t.ConnectErr
}

func (t *Transport) RequestPairingCode(_ context.Context, phone string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.PairingCalls = append(t.PairingCalls, phone)
	if t.Credentials {
		return "", messaging.ErrAlreadyPaired
	}
	if t.PairingErr != nil {
		return "", t.PairingErr
	}
	return t.PairingCode, nil
}

func (t *Transport) Logout(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.LogoutCalls++
	if t.LogoutErr != nil {
		return t.LogoutErr
	}
	t.Credentials = false
	return nil
}

func (t *Transport) HasCredentials() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.Credentials
}

func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.CloseCalls++
	return nil
}

func (t *Transport) SendMessage(_ context.Context, chatID, text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.SendErrByChat[chatID]; err != nil {
		return err
	}
	if t.SendErr != nil {
		return t.SendErr
	}
	t.Sent = append(t.Sent, SentMessage{ChatID: chatID, Text: text})
	return nil
}

func (t *Transport) Subscribe(h messaging.Handlers) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers = h
}

func (t *Transport) UpdateParticipants(_ context.Context, groupID string, targets []string, action messaging.ParticipantAction) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.UpdateErr != nil {
		return t.UpdateErr
	}
	t.Participants = append(t.Participants, ParticipantsCall{GroupID: groupID, Targets: targets, Action: action})
	return nil
}

func (t *Transport) SetGroupAnnounce(_ context.Context, groupID string, announce bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.AnnounceErr != nil {
		return t.AnnounceErr
	}
	t.Announces = append(t.Announces, AnnounceCall{GroupID: groupID, Announce: announce})
	return nil
}

func (t *Transport) FetchAllGroupsMetadata(_ context.Context) (map[string]messaging.GroupMetadata, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.FetchErr != nil {
		return nil, t.FetchErr
	}
	out := make(map[string]messaging.GroupMetadata, len(t.Groups))
	for id, g := range t.Groups {
		out[id] = g
	}
	return out, nil
}

func (t *Transport) FetchGroupMetadata(_ context.Context, groupID string) (messaging.GroupMetadata, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.GroupFetches = append(t.GroupFetches, groupID)
	if t.FetchErr != nil {
		return messaging.GroupMetadata{}, t.FetchErr
	}
	return t.Groups[groupID], nil
}

// SentTo returns the texts sent to chatID in order.
func (t *Transport) SentTo(chatID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []string
	for _, m := range t.Sent {
		if m.ChatID == chatID {
			out = append(out, m.Text)
		}
	}
	return out
}

func (t *Transport) SetAdmin(groupID string, isAdmin bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	g := t.Groups[groupID]
	g.ID = groupID
	g.BotIsAdmin = isAdmin
	t.Groups[groupID] = g
}

func (t *Transport) EmitConnection(u messaging.ConnectionUpdate) {
	t.mu.Lock()
	h := t.handlers.OnConnectionUpdate
	t.mu.Unlock()
	if h != nil {
		h(u)
	}
}

func (t *Transport) EmitMessage(m messaging.InboundMessage) {
	t.mu.Lock()
	h := t.handlers.OnInboundMessage
	t.mu.Unlock()
	if h != nil {
		h(m)
	}
}

func (t *Transport) EmitParticipants(u messaging.ParticipantsUpdate) {
	t.mu.Lock()
	h := t.handlers.OnParticipantsUpdate
	t.mu.Unlock()
	if h != nil {
		h(u)
	}
}
