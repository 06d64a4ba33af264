package command

import "fmt"

const (
	messageUnknownCommandFormat = "❌ Unknown command. Type %shelp for available commands."
	messageCommandFailed        = "❌ An error occurred while processing the command."
	messageBotNotAdmin          = "❌ Bot is not an admin in this group."
	messageAdminCheckFailed     = "❌ Could not check the bot's admin status. Please try again."
	messageGroupOnly            = "❌ This command can only be used in a group."

	messagePong = "🏓 Pong!"

	messageHelpTitle = "📋 *Available Commands:*"

	messageKickDone      = "✅ User has been removed from the group."
	messageKickFailed    = "❌ Failed to kick user. Make sure the user exists and bot has admin rights."
	messagePromoteDone   = "✅ User has been promoted to admin."
	messagePromoteFailed = "❌ Failed to promote user."
	messageDemoteDone    = "✅ User has been demoted from admin."
	messageDemoteFailed  = "❌ Failed to demote user."
	messageMuteDone      = "🔇 Group has been muted. Only admins can send messages."
	messageUnmuteDone    = "🔊 Group has been unmuted. Everyone can send messages."
	messageMuteFailed    = "❌ Failed to change group settings."

	messageSearching      = "🎵 Searching for song..."
	messageSongNotFound   = "❌ Could not find the requested song."
	messagePlayFailed     = "❌ Error playing music. Please try again."
	messageQueueEmpty     = "🎵 Music queue is empty."
	messageQueueTitle     = "🎵 *Current Music Queue:*"
	messageQueueIdle      = "⏹️ Nothing is playing. Add a song with %splay."
	messageNothingPlaying = "❌ No song is currently playing."
	messageQueueFinished  = "🎵 The queue is finished."

	messageUserInfoTitle = "👤 *User Information:*"
)

func unknownCommandMessage(prefix string) string {
	return fmt.Sprintf(messageUnknownCommandFormat, prefix)
}

func usageMessage(prefix string, cmd string, usage string) string {
	if usage == "" {
		return fmt.Sprintf("❌ Usage: %s%s", prefix, cmd)
	}
	return fmt.Sprintf("❌ Usage: %s%s %s", prefix, cmd, usage)
}
