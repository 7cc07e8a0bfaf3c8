package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"momento/internal/logger"
	"momento/internal/service"
)

func (b *Bot) handleInvite(ctx context.Context, msg *tgbotapi.Message) error {
	username := strings.TrimPrefix(strings.TrimSpace(msg.CommandArguments()), "@")
	if username == "" {
		return b.sendText(msg.Chat.ID, "Usage: /invite &lt;username&gt; while an occasion is open")
	}
	view, err := b.currentView(ctx, msg.From)
	if err != nil {
		return b.viewError(msg.Chat.ID, err)
	}
	if !view.Ownership.IsCurrentUserOwner {
		return b.sendText(msg.Chat.ID, "Only the owner of an occasion can invite collaborators.")
	}
	user, client, err := b.current(ctx, msg.From)
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}

	dir := service.NewInviteDirectory(client, b.deps.Pending)
	if _, err := dir.Send(ctx, *user, username, view.Ownership.OccasionID); err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicateInvite):
			return b.sendText(msg.Chat.ID, fmt.Sprintf("⏳ <b>%s</b> already has a pending invite for this occasion.", escape(username)))
		case errors.Is(err, service.ErrInviteSelf):
			return b.sendText(msg.Chat.ID, "You already own this occasion.")
		}
		return b.replyError(msg.Chat.ID, err)
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("📨 Invited <b>%s</b> to %s.", escape(username), escape(occasionLabel(view.Occasion, view.Ownership.OccasionID))))
}

func (b *Bot) handleInvites(ctx context.Context, msg *tgbotapi.Message) error {
	user, client, err := b.current(ctx, msg.From)
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	pending, err := service.NewInviteDirectory(client, b.deps.Pending).Pending(ctx, *user)
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	if len(pending) == 0 {
		return b.sendText(msg.Chat.ID, "📭 No pending invitations.")
	}
	if err := b.sendText(msg.Chat.ID, fmt.Sprintf("📨 <b>%d pending invitation(s)</b>", len(pending))); err != nil {
		return err
	}
	for _, inv := range pending {
		if err := b.sendWithReplyMarkup(msg.Chat.ID, formatInvite(inv, true), inviteKeyboard(inv)); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bot) handleSent(ctx context.Context, msg *tgbotapi.Message) error {
	user, client, err := b.current(ctx, msg.From)
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	sent, err := service.NewInviteDirectory(client, b.deps.Pending).Sent(ctx, *user)
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	if len(sent) == 0 {
		return b.sendText(msg.Chat.ID, "You have not invited anyone yet.")
	}
	lines := make([]string, 0, len(sent))
	for _, inv := range sent {
		lines = append(lines, formatInvite(inv, false))
	}
	return b.sendText(msg.Chat.ID, strings.Join(lines, "\n"))
}

func (b *Bot) resolveInvite(ctx context.Context, cb *tgbotapi.CallbackQuery, inviteID string, accept bool) error {
	chatID := cb.Message.Chat.ID
	user, client, err := b.current(ctx, cb.From)
	if err != nil {
		return b.replyError(chatID, err)
	}
	dir := service.NewInviteDirectory(client, b.deps.Pending)

	verb := "declined"
	if accept {
		verb = "accepted"
		err = dir.Accept(ctx, *user, inviteID)
	} else {
		err = dir.Decline(ctx, *user, inviteID)
	}

	// Drop the buttons; the working set already moved on.
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, cb.Message.MessageID, tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}})
	if _, editErr := b.api.Request(edit); editErr != nil {
		logger.Debugf("clear invite buttons: %v", editErr)
	}

	if err != nil {
		if sendErr := b.replyError(chatID, err); sendErr != nil {
			return sendErr
		}
		if left := len(dir.Working(*user)); left > 0 {
			return b.sendText(chatID, fmt.Sprintf("The list was refreshed: %d invitation(s) still pending, see /invites.", left))
		}
		return nil
	}
	return b.sendText(chatID, fmt.Sprintf("✅ Invitation %s.", verb))
}

// handleUninvite removes a collaborator from the open occasion.
func (b *Bot) handleUninvite(ctx context.Context, msg *tgbotapi.Message) error {
	username := strings.TrimSpace(msg.CommandArguments())
	if username == "" {
		return b.sendText(msg.Chat.ID, "Usage: /uninvite &lt;username&gt; while an occasion is open")
	}
	occasionID := b.getView(msg.From.ID)
	if occasionID == "" {
		return b.viewError(msg.Chat.ID, errNoOpenOccasion)
	}
	user, client, err := b.current(ctx, msg.From)
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	if err := b.deps.Occasions.RemoveCollaborator(ctx, client, *user, occasionID, username); err != nil {
		switch {
		case errors.Is(err, service.ErrNotOwner):
			return b.sendText(msg.Chat.ID, "Only the owner of an occasion can remove collaborators.")
		case errors.Is(err, service.ErrInviteSelf):
			return b.sendText(msg.Chat.ID, "You cannot remove yourself from your own occasion.")
		}
		return b.replyError(msg.Chat.ID, err)
	}
	return b.showOccasion(ctx, msg.Chat.ID, msg.From, occasionID)
}
