// Package messaging describes the chat network the bot is attached to.
// The whatsapp adapter in external/whatsapp is the production transport.
package messaging

import (
	"context"
	"errors"
)

// ErrAlreadyPaired is returned by RequestPairingCode while a paired device
// is still stored.
var ErrAlreadyPaired = errors.New("device is already paired")

type ConnectionKind string

const (
	ConnectionOpen  ConnectionKind = "open"
	ConnectionClose ConnectionKind = "close"
)

// CloseReason classifies why the connection went away. Fatal closes
// (logged out, credentials revoked, replaced by another client, banned)
// require a new pairing.
type CloseReason struct {
	Fatal  bool
	Detail string
}

type ConnectionUpdate struct {
	Kind   ConnectionKind
	Reason CloseReason
}

type InboundMessage struct {
	ID       string
	Chat     string
	Sender   string
	IsGroup  bool
	FromMe   bool
	Text     string
	Mentions []string
}

type ParticipantAction string

const (
	ParticipantAdd     ParticipantAction = "add"
	ParticipantRemove  ParticipantAction = "remove"
	ParticipantPromote ParticipantAction = "promote"
	ParticipantDemote  ParticipantAction = "demote"
)

type ParticipantsUpdate struct {
	GroupID      string
	Participants []string
	Action       ParticipantAction
}

type GroupMetadata struct {
	ID          string
	Name        string
	MemberCount int
	BotIsAdmin  bool
}

// Handlers receives transport events. Callbacks may be invoked from any
// goroutine and must not block.
type Handlers struct {
	OnConnectionUpdate   func(ConnectionUpdate)
	OnInboundMessage     func(InboundMessage)
	OnParticipantsUpdate func(ParticipantsUpdate)
}

type Transport interface {
	// Connect opens the connection with stored credentials.
	Connect(ctx context.Context) error
	// RequestPairingCode connects without credentials and asks the network
	// for a code the user types on their phone.
	RequestPairingCode(ctx context.Context, phone string) (string, error)
	// Logout unlinks the device. Local credentials are dropped even when
	// the network cannot be reached.
	Logout(ctx context.Context) error
	// HasCredentials reports whether a paired device is stored.
	HasCredentials() bool
	// Close drops the connection and keeps credentials.
	Close() error

	SendMessage(ctx context.Context, chatID, text string) error
	Subscribe(h Handlers)

	// UpdateParticipants accepts remove, promote and demote.
	UpdateParticipants(ctx context.Context, groupID string, targets []string, action ParticipantAction) error
	SetGroupAnnounce(ctx context.Context, groupID string, announce bool) error
	FetchAllGroupsMetadata(ctx context.Context) (map[string]GroupMetadata, error)
	FetchGroupMetadata(ctx context.Context, groupID string) (GroupMetadata, error)
}
