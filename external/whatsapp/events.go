package whatsapp

import (
	"fmt"
	"strings"

	"github.com/foxseedlab/gunkan/internal/messaging"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
)

// connectionUpdate maps whatsmeow lifecycle events. Closes that need a new
// pairing (logout, replaced stream, ban, outdated client) are fatal.
func connectionUpdate(evt any) (messaging.ConnectionUpdate, bool) {
	switch e := evt.(type) {
	case *events.Connected:
		return messaging.ConnectionUpdate{Kind: messaging.ConnectionOpen}, true
	case *events.Disconnected:
		return closed(false, "connection closed"), true
	case *events.ConnectFailure:
		return closed(e.Reason.IsLoggedOut(), fmt.Sprintf("connect failure: %v", e.Reason)), true
	case *events.LoggedOut:
		return closed(true, fmt.Sprintf("logged out: %v", e.Reason)), true
	case *events.StreamReplaced:
		return closed(true, "stream replaced by another client"), true
	case *events.TemporaryBan:
		return closed(true, fmt.Sprintf("temporarily banned: %v", e.Code)), true
	case *events.ClientOutdated:
		return closed(true, "client outdated"), true
	}
	return messaging.ConnectionUpdate{}, false
}

func closed(fatal bool, detail string) messaging.ConnectionUpdate {
	return messaging.ConnectionUpdate{
		Kind:   messaging.ConnectionClose,
		Reason: messaging.CloseReason{Fatal: fatal, Detail: detail},
	}
}

// inboundMessage extracts the text content of a message. Media and other
// non-text messages are skipped.
func inboundMessage(e *events.Message) (messaging.InboundMessage, bool) {
	if e == nil || e.Message == nil {
		return messaging.InboundMessage{}, false
	}
	text := e.Message.GetConversation()
	ext := e.Message.GetExtendedTextMessage()
	if text == "" {
		text = ext.GetText()
	}
	if strings.TrimSpace(text) == "" {
		return messaging.InboundMessage{}, false
	}
	return messaging.InboundMessage{
		ID:       e.Info.ID,
		Chat:     e.Info.Chat.String(),
		Sender:   e.Info.Sender.ToNonAD().String(),
		IsGroup:  e.Info.IsGroup,
		FromMe:   e.Info.IsFromMe,
		Text:     text,
		Mentions: ext.GetContextInfo().GetMentionedJID(),
	}, true
}

func participantsUpdates(e *events.GroupInfo) []messaging.ParticipantsUpdate {
	if e == nil {
		return nil
	}
	var out []messaging.ParticipantsUpdate
	add := func(jids []types.JID, action messaging.ParticipantAction) {
		if len(jids) == 0 {
			return
		}
		ids := make([]string, len(jids))
		for i, j := range jids {
			ids[i] = j.String()
		}
		out = append(out, messaging.ParticipantsUpdate{GroupID: e.JID.String(), Participants: ids, Action: action})
	}
	add(e.Join, messaging.ParticipantAdd)
	add(e.Leave, messaging.ParticipantRemove)
	add(e.Promote, messaging.ParticipantPromote)
	add(e.Demote, messaging.ParticipantDemote)
	return out
}

// groupMetadata reports the bot as admin when either its phone JID or its
// LID appears among the group's admins.
func groupMetadata(info *types.GroupInfo, self, selfLID types.JID) messaging.GroupMetadata {
	meta := messaging.GroupMetadata{
		ID:          info.JID.String(),
		Name:        info.Name,
		MemberCount: len(info.Participants),
	}
	for _, p := range info.Participants {
		if !isSelf(p, self, selfLID) {
			continue
		}
		meta.BotIsAdmin = p.IsAdmin || p.IsSuperAdmin
		break
	}
	return meta
}

func isSelf(p types.GroupParticipant, self, selfLID types.JID) bool {
	if !self.IsEmpty() && p.JID.User == self.User && p.JID.Server == self.Server {
		return true
	}
	if selfLID.IsEmpty() {
		return false
	}
	return (p.LID.User == selfLID.User && !p.LID.IsEmpty()) ||
		(p.JID.Server == types.HiddenUserServer && p.JID.User == selfLID.User)
}

// toJID accepts a bare phone number or a full JID.
func toJID(target string) (types.JID, error) {
	t := strings.TrimPrefix(strings.TrimSpace(target), "+")
	if strings.Contains(t, "@") {
		return types.ParseJID(t)
	}
	if t == "" {
		return types.JID{}, fmt.Errorf("empty target")
	}
	for _, r := range t {
		if r < '0' || r > '9' {
			return types.JID{}, fmt.Errorf("invalid target %q", target)
		}
	}
	return types.NewJID(t, types.DefaultUserServer), nil
}

func participantChange(action messaging.ParticipantAction) (whatsmeow.ParticipantChange, bool) {
	switch action {
	case messaging.ParticipantAdd:
		return whatsmeow.ParticipantChangeAdd, true
	case messaging.ParticipantRemove:
		return whatsmeow.ParticipantChangeRemove, true
	case messaging.ParticipantPromote:
		return whatsmeow.ParticipantChangePromote, true
	case messaging.ParticipantDemote:
		return whatsmeow.ParticipantChangeDemote, true
	}
	return "", false
}
