package bot

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"momento/internal/logger"
	"momento/internal/service"
)

func (b *Bot) handlePeople(ctx context.Context, msg *tgbotapi.Message) error {
	user, client, err := b.current(ctx, msg.From)
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	people, err := b.deps.Relationships.People(ctx, client, *user)
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	return b.sendText(msg.Chat.ID, formatPeople(people))
}

func (b *Bot) handleAddPerson(ctx context.Context, msg *tgbotapi.Message) error {
	args := splitArgs(msg.CommandArguments(), 2)
	if args[0] == "" {
		return b.sendText(msg.Chat.ID, "Usage: /addperson &lt;name&gt; | &lt;type&gt;, e.g. /addperson Mom | family")
	}
	user, client, err := b.current(ctx, msg.From)
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	if _, err := b.deps.Relationships.Create(ctx, client, *user, args[0], args[1]); err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("✅ <b>%s</b> added. Pin them with /pin %s", escape(args[0]), escape(args[0])))
}

func (b *Bot) handlePin(ctx context.Context, msg *tgbotapi.Message, pin bool) error {
	name := strings.TrimSpace(msg.CommandArguments())
	if name == "" {
		return b.sendText(msg.Chat.ID, "Tell me who: /pin Mom")
	}
	user, client, err := b.current(ctx, msg.From)
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	rel, err := b.deps.Relationships.Find(ctx, client, *user, name)
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	if pin {
		err = b.deps.Relationships.Pin(ctx, *user, rel.ID)
	} else {
		err = b.deps.Relationships.Unpin(ctx, *user, rel.ID)
	}
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	return b.handlePeople(ctx, msg)
}

func (b *Bot) handleMovePin(ctx context.Context, msg *tgbotapi.Message) error {
	fields := strings.Fields(msg.CommandArguments())
	if len(fields) != 2 {
		return b.sendText(msg.Chat.ID, "Usage: /movepin &lt;from&gt; &lt;to&gt;, positions as shown in /people")
	}
	from, err1 := strconv.Atoi(fields[0])
	to, err2 := strconv.Atoi(fields[1])
	if err1 != nil || err2 != nil {
		return b.sendText(msg.Chat.ID, "Positions must be numbers.")
	}
	user, client, err := b.current(ctx, msg.From)
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	if _, err := b.deps.Relationships.MovePin(ctx, client, *user, from-1, to-1); err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	return b.handlePeople(ctx, msg)
}

func (b *Bot) handleNotes(ctx context.Context, msg *tgbotapi.Message) error {
	name := strings.TrimSpace(msg.CommandArguments())
	if name == "" {
		return b.sendText(msg.Chat.ID, "Tell me who: /notes Mom")
	}
	user, client, err := b.current(ctx, msg.From)
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	rel, err := b.deps.Relationships.Find(ctx, client, *user, name)
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	notes, err := service.NewWorkspace(client, nil, nil, service.Self(*user)).Notes(ctx, rel.ID)
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	return b.sendText(msg.Chat.ID, formatNotes(rel.Name, notes))
}

func (b *Bot) handleAddNote(ctx context.Context, msg *tgbotapi.Message) error {
	args := splitArgs(msg.CommandArguments(), 3)
	if args[0] == "" || args[1] == "" {
		return b.sendText(msg.Chat.ID, "Usage: /addnote &lt;name&gt; | &lt;title&gt; | &lt;text&gt;")
	}
	user, client, err := b.current(ctx, msg.From)
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	rel, err := b.deps.Relationships.Find(ctx, client, *user, args[0])
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	ws := service.NewWorkspace(client, nil, nil, service.Self(*user))
	if _, err := ws.AddNote(ctx, service.NoteInput{RelationshipID: rel.ID, Title: args[1], Content: args[2]}); err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🗒 Note saved for <b>%s</b>.", escape(rel.Name)))
}

func (b *Bot) handleIdeas(ctx context.Context, msg *tgbotapi.Message) error {
	args := splitArgs(msg.CommandArguments(), 2)
	user, client, err := b.current(ctx, msg.From)
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	if args[0] == "" {
		history, err := b.deps.Suggestions.History(ctx, client, *user)
		if err != nil {
			return b.replyError(msg.Chat.ID, err)
		}
		if len(history) == 0 {
			return b.sendText(msg.Chat.ID, "No ideas yet. Ask for some: /ideas Mom | loves gardening")
		}
		return b.sendText(msg.Chat.ID, formatSuggestions(history))
	}
	rel, err := b.deps.Relationships.Find(ctx, client, *user, args[0])
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	if err := b.sendText(msg.Chat.ID, "💭 Thinking…"); err != nil {
		return err
	}
	list, err := b.deps.Suggestions.SuggestFor(ctx, client, *user, rel, args[1])
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	return b.sendText(msg.Chat.ID, formatSuggestions(list))
}

func (b *Bot) handleGallery(ctx context.Context, msg *tgbotapi.Message) error {
	name := strings.TrimSpace(msg.CommandArguments())
	if name == "" {
		return b.sendText(msg.Chat.ID, "Tell me who: /gallery Mom")
	}
	user, client, err := b.current(ctx, msg.From)
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	rel, err := b.deps.Relationships.Find(ctx, client, *user, name)
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	images, err := b.deps.Gallery.Images(ctx, client, *user, rel.ID)
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	if len(images) == 0 {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("No photos of <b>%s</b> yet. Send one with the caption “%s”.", escape(rel.Name), escape(rel.Name)))
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🖼 <b>%s</b>\n", escape(rel.Name)))
	for _, img := range images {
		sb.WriteString(fmt.Sprintf("• %s %s\n", formatDate(img.UploadDate), escape(img.ImageURL)))
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(sb.String()))
}

// handlePhoto uploads a photo to the gallery of the person named in the caption.
func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message) error {
	name := strings.TrimSpace(msg.Caption)
	if name == "" {
		return b.sendText(msg.Chat.ID, "Add the person's name as the caption so I know whose gallery it belongs to.")
	}
	user, client, err := b.current(ctx, msg.From)
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	rel, err := b.deps.Relationships.Find(ctx, client, *user, name)
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}

	photo := msg.Photo[len(msg.Photo)-1]
	url, err := b.api.GetFileDirectURL(photo.FileID)
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	resp, err := b.files.Get(url, nil)
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		logger.Warnf("download photo %s: status %d", photo.FileID, resp.StatusCode)
		return b.sendText(msg.Chat.ID, "⚠️ Could not download the photo from Telegram.")
	}

	filename := path.Base(url)
	if path.Ext(filename) == "" {
		filename += ".jpg"
	}
	if _, err := b.deps.Gallery.Upload(ctx, client, *user, rel.ID, filename, resp.Body); err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🖼 Added to <b>%s</b>'s gallery.", escape(rel.Name)))
}
