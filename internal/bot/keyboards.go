package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"momento/internal/api"
	"momento/internal/model"
	"momento/internal/service"
)

const (
	cbTogglePrefix   = "toggle:"
	cbDeletePrefix   = "deltask:"
	cbPriorityPrefix = "prio:"
	cbAcceptPrefix   = "accept:"
	cbDeclinePrefix  = "decline:"
)

const (
	btnSkip            = "⏭️ Skip"
	btnCancelDialog    = "⏪ Cancel"
	menuLabelPeople    = "👤 People"
	menuLabelOccasions = "🎉 Occasions"
	menuLabelInvites   = "📨 Invites"
	menuLabelHelp      = "ℹ️ Help"
)

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelPeople),
			tgbotapi.NewKeyboardButton(menuLabelOccasions),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelInvites),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func priorityKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(model.PriorityHigh),
			tgbotapi.NewKeyboardButton(model.PriorityMedium),
			tgbotapi.NewKeyboardButton(model.PriorityLow),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

// taskKeyboard has one row per task: toggle, bump priority, delete.
func taskKeyboard(tasks []service.TaskItem) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, t := range tasks {
		if t.Placeholder {
			continue
		}
		mark := iconOpen
		if t.Completed {
			mark = iconDone
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%s %d · %s", mark, i+1, shortTitle(t.Description, 20)), cbTogglePrefix+t.ID),
			tgbotapi.NewInlineKeyboardButtonData(priorityIcon(nextPriority(t.Priority)), cbPriorityPrefix+t.ID),
			tgbotapi.NewInlineKeyboardButtonData("🗑", cbDeletePrefix+t.ID),
		))
	}
	if len(rows) == 0 {
		return nil
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

func inviteKeyboard(inv api.Invite) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✅ Accept", cbAcceptPrefix+inv.ID),
		tgbotapi.NewInlineKeyboardButtonData("✖️ Decline", cbDeclinePrefix+inv.ID),
	))
}

// nextPriority cycles high → medium → low → high.
func nextPriority(p string) string {
	switch p {
	case model.PriorityHigh:
		return model.PriorityMedium
	case model.PriorityMedium:
		return model.PriorityLow
	default:
		return model.PriorityHigh
	}
}

func isSkipInput(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	return lower == strings.ToLower(btnSkip) || lower == "skip" || lower == "-"
}

func isCancelDialogInput(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	return lower == strings.ToLower(btnCancelDialog) || lower == "cancel"
}

// splitArgs splits "a | b | c" command arguments.
func splitArgs(raw string, n int) []string {
	parts := strings.SplitN(raw, "|", n)
	out := make([]string, n)
	for i := range parts {
		out[i] = strings.TrimSpace(parts[i])
	}
	return out
}
