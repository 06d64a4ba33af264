package command

import (
	"context"
	"errors"
	"testing"

	"github.com/foxseedlab/gunkan/internal/messaging"
	"github.com/foxseedlab/gunkan/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatch_UnknownCommand(t *testing.T) {
	h := newHarness(t)

	h.run(t, "/dance now", groupOrigin())

	assert.Equal(t, []string{unknownCommandMessage("/")}, h.transport.SentTo(testGroup))
	assert.Zero(t, h.stats(t).CommandsToday)
	assert.Empty(t, h.logs(t, repository.LogFilter{}))
}

func TestDispatch_DisabledCommandIsUnknown(t *testing.T) {
	h := newHarness(t)
	h.setEnabled(t, "ping", false)

	h.run(t, "/ping", groupOrigin())

	assert.Equal(t, []string{unknownCommandMessage("/")}, h.transport.SentTo(testGroup))
	assert.Zero(t, h.stats(t).CommandsToday)
}

func TestDispatch_StoredCommandWithoutHandlerIsUnknown(t *testing.T) {
	h := newHarnessWith(t, NewRegistry())

	h.run(t, "/ping", groupOrigin())

	assert.Equal(t, []string{unknownCommandMessage("/")}, h.transport.SentTo(testGroup))
	assert.Zero(t, h.stats(t).CommandsToday)
}

func TestDispatch_CountsAndLogsMatchedCommand(t *testing.T) {
	h := newHarness(t)

	h.run(t, "/ping", groupOrigin())
	h.run(t, "/ping", Origin{ChatID: testSender, SenderID: testSender})

	assert.Equal(t, []string{messagePong}, h.transport.SentTo(testGroup))
	assert.Equal(t, []string{messagePong}, h.transport.SentTo(testSender))
	assert.Equal(t, 2, h.stats(t).CommandsToday)

	entries := h.logs(t, repository.LogFilter{Source: repository.LogSourceCommands})
	require.Len(t, entries, 2)
	assert.Equal(t, "Command executed", entries[0].Message)
	assert.Equal(t, repository.LogLevelInfo, entries[0].Level)
	assert.Equal(t, "ping", entries[0].Metadata["command"])
}

func TestDispatch_AdminOnlyOutsideGroup(t *testing.T) {
	h := newHarness(t)

	h.run(t, "/kick @15550002222", Origin{ChatID: testSender, SenderID: testSender})

	assert.Equal(t, []string{messageGroupOnly}, h.transport.SentTo(testSender))
	assert.Empty(t, h.transport.Participants)
	assert.Equal(t, 1, h.stats(t).CommandsToday)
}

func TestDispatch_AdminOnlyBotNotAdmin(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	require.NoError(t, h.repo.SyncGroup(ctx, repository.SyncGroupInput{ID: testGroup, Name: "Band", BotIsAdmin: true}))
	h.transport.SetAdmin(testGroup, false)

	h.run(t, "/kick @15550002222", groupOrigin())

	assert.Equal(t, []string{messageBotNotAdmin}, h.transport.SentTo(testGroup))
	assert.Empty(t, h.transport.Participants)
	assert.Equal(t, []string{testGroup}, h.transport.GroupFetches)
	assert.Equal(t, 1, h.stats(t).CommandsToday)

	g, err := h.repo.GetGroup(ctx, testGroup)
	require.NoError(t, err)
	assert.False(t, g.BotIsAdmin, "stored flag follows the fresh check")
}

func TestDispatch_AdminOnlyBotIsAdmin(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	require.NoError(t, h.repo.SyncGroup(ctx, repository.SyncGroupInput{ID: testGroup, Name: "Band"}))
	h.transport.SetAdmin(testGroup, true)

	origin := groupOrigin()
	origin.Mentions = []string{"15550002222@s.whatsapp.net"}
	h.run(t, "/kick @15550002222", origin)

	assert.Equal(t, []string{messageKickDone}, h.transport.SentTo(testGroup))
	require.Len(t, h.transport.Participants, 1)
	assert.Equal(t, messaging.ParticipantRemove, h.transport.Participants[0].Action)
	assert.Equal(t, []string{"15550002222@s.whatsapp.net"}, h.transport.Participants[0].Targets)

	g, err := h.repo.GetGroup(ctx, testGroup)
	require.NoError(t, err)
	assert.True(t, g.BotIsAdmin)
}

func TestDispatch_AdminCheckFailure(t *testing.T) {
	h := newHarness(t)
	h.transport.FetchErr = errors.New("timeout")

	h.run(t, "/mute", groupOrigin())

	assert.Equal(t, []string{messageAdminCheckFailed}, h.transport.SentTo(testGroup))
	assert.Empty(t, h.transport.Announces)
	assert.Equal(t, 1, h.stats(t).CommandsToday)
}

func TestDispatch_HandlerPanicIsContained(t *testing.T) {
	reg := NewRegistry()
	reg.Register("ping", HandlerFunc(func(context.Context, *Request) error {
		panic("boom")
	}))
	h := newHarnessWith(t, reg)

	h.run(t, "/ping", groupOrigin())

	assert.Equal(t, []string{messageCommandFailed}, h.transport.SentTo(testGroup))
	assert.Equal(t, 1, h.stats(t).CommandsToday)
	errs := h.logs(t, repository.LogFilter{Level: repository.LogLevelError})
	require.Len(t, errs, 1)
	assert.Equal(t, "Command error", errs[0].Message)
	assert.Contains(t, errs[0].Metadata["error"], "boom")
}

func TestDispatch_HandlerErrorGetsUniformReply(t *testing.T) {
	reg := NewRegistry()
	reg.Register("ping", HandlerFunc(func(context.Context, *Request) error {
		return errors.New("database gone")
	}))
	h := newHarnessWith(t, reg)

	h.run(t, "/ping", groupOrigin())

	assert.Equal(t, []string{messageCommandFailed}, h.transport.SentTo(testGroup))
	assert.Len(t, h.logs(t, repository.LogFilter{Level: repository.LogLevelError}), 1)
}

func TestDispatch_ValidationErrorRepliesWithMessage(t *testing.T) {
	reg := NewRegistry()
	reg.Register("ping", HandlerFunc(func(context.Context, *Request) error {
		return invalid("❌ nope")
	}))
	h := newHarnessWith(t, reg)

	h.run(t, "/ping", groupOrigin())

	assert.Equal(t, []string{"❌ nope"}, h.transport.SentTo(testGroup))
	assert.Empty(t, h.logs(t, repository.LogFilter{Level: repository.LogLevelError}))
	assert.Equal(t, 1, h.stats(t).CommandsToday)
}

func TestHandleMessage(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.dispatcher.HandleMessage(ctx, messaging.InboundMessage{Chat: testGroup, Sender: testSender, IsGroup: true, Text: "hello there"})
	h.dispatcher.HandleMessage(ctx, messaging.InboundMessage{Chat: testGroup, Sender: testSender, IsGroup: true, FromMe: true, Text: "/ping"})
	assert.Empty(t, h.transport.Sent)

	h.dispatcher.HandleMessage(ctx, messaging.InboundMessage{Chat: testGroup, Sender: testSender, IsGroup: true, Text: "/ping"})
	assert.Equal(t, []string{messagePong}, h.transport.SentTo(testGroup))
}
