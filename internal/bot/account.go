package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"momento/internal/logger"
	"momento/internal/service"
)

const helpText = "ℹ️ <b>Commands</b>\n" +
	"<b>Account</b>\n" +
	"• /register &lt;username&gt; &lt;password&gt; [name] — create an account\n" +
	"• /login &lt;username&gt; &lt;password&gt; — log in\n" +
	"• /logout, /whoami, /name &lt;display name&gt;\n" +
	"<b>People</b>\n" +
	"• /people — your people, pinned first\n" +
	"• /addperson &lt;name&gt; | &lt;type&gt;\n" +
	"• /pin &lt;name&gt;, /unpin &lt;name&gt;, /movepin &lt;from&gt; &lt;to&gt;\n" +
	"• /notes &lt;name&gt;, /addnote &lt;name&gt; | &lt;title&gt; | &lt;text&gt;\n" +
	"• /ideas &lt;name&gt; [| extra context] — gift ideas\n" +
	"• /gallery &lt;name&gt; — photos; send a photo with the name as caption to add one\n" +
	"<b>Occasions</b>\n" +
	"• /occasions, /newoccasion &lt;person&gt; | &lt;type&gt; | &lt;YYYY-MM-DD&gt;\n" +
	"• /occasion &lt;id&gt; — open the checklist\n" +
	"• /newtask, /done &lt;n&gt;, /rename &lt;n&gt; &lt;text&gt;, /deltask &lt;n&gt;, /priority &lt;n&gt; &lt;high|medium|low&gt;\n" +
	"<b>Collaboration</b>\n" +
	"• /invite &lt;username&gt; — invite to the open occasion\n" +
	"• /invites — pending invitations, /sent — invitations you sent\n" +
	"• /uninvite &lt;username&gt; — remove a collaborator from the open occasion\n" +
	"<b>Digest</b>\n" +
	"• /digest — upcoming occasions now, /interval &lt;hours|HH:MM|off&gt;\n" +
	"• /cancel — cancel the current input"

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "friend"
	}

	text := fmt.Sprintf("👋 Hi, %s!\n<b>Momento keeps track of the people you care about and the occasions you plan for them.</b>\n\n", escape(name))
	if user, err := b.deps.Sessions.GetUser(ctx, principal(msg.From)); err == nil && user != nil {
		text += fmt.Sprintf("You are logged in as <b>%s</b>.\n\n", escape(user.Username))
	} else {
		text += "Start with /register or /login.\n\n"
	}
	return b.sendText(msg.Chat.ID, text+helpText)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	return b.sendText(msg.Chat.ID, helpText)
}

// credentialsFrom parses "<username> <password> [display name]". The message
// carrying a password is removed from the chat.
func (b *Bot) credentialsFrom(msg *tgbotapi.Message) (service.Credentials, string, bool) {
	fields := strings.Fields(msg.CommandArguments())
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(msg.Chat.ID, msg.MessageID)); err != nil {
		logger.Debugf("delete credentials message: %v", err)
	}
	if len(fields) < 2 {
		return service.Credentials{}, "", false
	}
	return service.Credentials{Username: fields[0], Password: fields[1]}, strings.Join(fields[2:], " "), true
}

func (b *Bot) handleRegister(ctx context.Context, msg *tgbotapi.Message) error {
	creds, name, ok := b.credentialsFrom(msg)
	if !ok {
		return b.sendText(msg.Chat.ID, "Usage: /register &lt;username&gt; &lt;password&gt; [display name]")
	}
	user, err := b.deps.Sessions.Register(ctx, principal(msg.From), msg.Chat.ID, creds, name)
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🎉 Welcome, <b>%s</b>! Add someone with /addperson.", escape(user.Username)))
}

func (b *Bot) handleLogin(ctx context.Context, msg *tgbotapi.Message) error {
	creds, _, ok := b.credentialsFrom(msg)
	if !ok {
		return b.sendText(msg.Chat.ID, "Usage: /login &lt;username&gt; &lt;password&gt;")
	}
	user, err := b.deps.Sessions.Login(ctx, principal(msg.From), msg.Chat.ID, creds)
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("✅ Logged in as <b>%s</b>.", escape(user.Username)))
}

func (b *Bot) handleLogout(ctx context.Context, msg *tgbotapi.Message) error {
	if err := b.deps.Sessions.Logout(ctx, principal(msg.From)); err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	b.clearConversation(msg.From.ID)
	b.setView(msg.From.ID, "")
	return b.sendText(msg.Chat.ID, "👋 Logged out.")
}

func (b *Bot) handleWhoami(ctx context.Context, msg *tgbotapi.Message) error {
	user, _, err := b.current(ctx, msg.From)
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("👤 <b>%s</b>\nid: <code>%s</code>", escape(user.Username), escape(user.ID)))
}

func (b *Bot) handleName(ctx context.Context, msg *tgbotapi.Message) error {
	name := strings.TrimSpace(msg.CommandArguments())
	if name == "" {
		p, err := b.deps.Sessions.Profile(ctx, principal(msg.From))
		if err != nil {
			return b.replyError(msg.Chat.ID, err)
		}
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Your name is <b>%s</b>. Change it with /name &lt;display name&gt;", escape(p.Name)))
	}
	if err := b.deps.Sessions.SetName(ctx, principal(msg.From), name); err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("✅ You are now <b>%s</b>.", escape(name)))
}
