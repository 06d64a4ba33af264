package whatsapp

import (
	"testing"

	"github.com/foxseedlab/gunkan/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"
)

func TestConnectionUpdate(t *testing.T) {
	tests := []struct {
		name  string
		evt   any
		kind  messaging.ConnectionKind
		fatal bool
	}{
		{name: "connected", evt: &events.Connected{}, kind: messaging.ConnectionOpen},
		{name: "disconnected", evt: &events.Disconnected{}, kind: messaging.ConnectionClose},
		{name: "logged out", evt: &events.LoggedOut{}, kind: messaging.ConnectionClose, fatal: true},
		{name: "stream replaced", evt: &events.StreamReplaced{}, kind: messaging.ConnectionClose, fatal: true},
		{name: "temporary ban", evt: &events.TemporaryBan{}, kind: messaging.ConnectionClose, fatal: true},
		{name: "client outdated", evt: &events.ClientOutdated{}, kind: messaging.ConnectionClose, fatal: true},
		{name: "connect failure logged out", evt: &events.ConnectFailure{Reason: events.ConnectFailureLoggedOut}, kind: messaging.ConnectionClose, fatal: true},
		{name: "connect failure transient", evt: &events.ConnectFailure{Reason: events.ConnectFailureReason(503)}, kind: messaging.ConnectionClose},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, ok := connectionUpdate(tt.evt)
			require.True(t, ok)
			assert.Equal(t, tt.kind, u.Kind)
			assert.Equal(t, tt.fatal, u.Reason.Fatal)
		})
	}

	_, ok := connectionUpdate(&events.Message{})
	assert.False(t, ok)
}

func TestInboundMessage(t *testing.T) {
	group := types.NewJID("120363000000000001", types.GroupServer)
	sender := types.JID{User: "15550001111", Device: 3, Server: types.DefaultUserServer}

	plain := &events.Message{
		Info: types.MessageInfo{
			MessageSource: types.MessageSource{Chat: group, Sender: sender, IsGroup: true},
			ID:            "ABC",
		},
		Message: &waE2E.Message{Conversation: proto.String("/ping")},
	}
	msg, ok := inboundMessage(plain)
	require.True(t, ok)
	assert.Equal(t, "120363000000000001@g.us", msg.Chat)
	assert.Equal(t, "15550001111@s.whatsapp.net", msg.Sender)
	assert.True(t, msg.IsGroup)
	assert.Equal(t, "/ping", msg.Text)
	assert.Empty(t, msg.Mentions)

	extended := &events.Message{
		Info: types.MessageInfo{MessageSource: types.MessageSource{Chat: group, Sender: sender, IsGroup: true}},
		Message: &waE2E.Message{ExtendedTextMessage: &waE2E.ExtendedTextMessage{
			Text:        proto.String("/kick @15550002222"),
			ContextInfo: &waE2E.ContextInfo{MentionedJID: []string{"15550002222@s.whatsapp.net"}},
		}},
	}
	msg, ok = inboundMessage(extended)
	require.True(t, ok)
	assert.Equal(t, "/kick @15550002222", msg.Text)
	assert.Equal(t, []string{"15550002222@s.whatsapp.net"}, msg.Mentions)

	_, ok = inboundMessage(&events.Message{Message: &waE2E.Message{}})
	assert.False(t, ok)
	_, ok = inboundMessage(&events.Message{})
	assert.False(t, ok)
}

func TestParticipantsUpdates(t *testing.T) {
	group := types.NewJID("120363000000000001", types.GroupServer)
	member := types.NewJID("15550002222", types.DefaultUserServer)

	updates := participantsUpdates(&events.GroupInfo{JID: group, Join: []types.JID{member}, Demote: []types.JID{member}})

	require.Len(t, updates, 2)
	assert.Equal(t, messaging.ParticipantAdd, updates[0].Action)
	assert.Equal(t, []string{"15550002222@s.whatsapp.net"}, updates[0].Participants)
	assert.Equal(t, "120363000000000001@g.us", updates[0].GroupID)
	assert.Equal(t, messaging.ParticipantDemote, updates[1].Action)
	assert.Empty(t, participantsUpdates(&events.GroupInfo{JID: group}))
}

func TestGroupMetadata(t *testing.T) {
	self := types.NewJID("15551234567", types.DefaultUserServer)
	selfLID := types.NewJID("987654321", types.HiddenUserServer)
	info := &types.GroupInfo{
		JID:       types.NewJID("120363000000000001", types.GroupServer),
		GroupName: types.GroupName{Name: "Band"},
		Participants: []types.GroupParticipant{
			{JID: types.NewJID("15550001111", types.DefaultUserServer), IsAdmin: true},
			{JID: self, IsAdmin: true},
		},
	}

	meta := groupMetadata(info, self, selfLID)
	assert.Equal(t, "120363000000000001@g.us", meta.ID)
	assert.Equal(t, "Band", meta.Name)
	assert.Equal(t, 2, meta.MemberCount)
	assert.True(t, meta.BotIsAdmin)

	info.Participants[1].IsAdmin = false
	assert.False(t, groupMetadata(info, self, selfLID).BotIsAdmin)

	lidGroup := &types.GroupInfo{
		JID:          info.JID,
		Participants: []types.GroupParticipant{{JID: selfLID, IsSuperAdmin: true}},
	}
	assert.True(t, groupMetadata(lidGroup, self, selfLID).BotIsAdmin)
}

func TestToJID(t *testing.T) {
	j, err := toJID("15550002222")
	require.NoError(t, err)
	assert.Equal(t, "15550002222@s.whatsapp.net", j.String())

	j, err = toJID("+15550002222")
	require.NoError(t, err)
	assert.Equal(t, types.DefaultUserServer, j.Server)

	j, err = toJID("120363000000000001@g.us")
	require.NoError(t, err)
	assert.Equal(t, types.GroupServer, j.Server)

	_, err = toJID("someone")
	assert.Error(t, err)
	_, err = toJID("")
	assert.Error(t, err)
}

func TestParticipantChange(t *testing.T) {
	c, ok := participantChange(messaging.ParticipantRemove)
	require.True(t, ok)
	assert.Equal(t, whatsmeow.ParticipantChangeRemove, c)
	_, ok = participantChange("ban")
	assert.False(t, ok)
}

func TestStoreDriver(t *testing.T) {
	driver, dialect := storeDriver("postgres://bot:secret@db:5432/whatsmeow")
	assert.Equal(t, "pgx", driver)
	assert.Equal(t, "postgres", dialect)

	driver, dialect = storeDriver("file:whatsmeow.db?_pragma=foreign_keys(1)")
	assert.Equal(t, "sqlite", driver)
	assert.Equal(t, "sqlite3", dialect)
}
