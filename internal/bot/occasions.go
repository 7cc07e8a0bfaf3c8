package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"momento/internal/api"
	"momento/internal/logger"
	"momento/internal/service"
)

var errNoOpenOccasion = errors.New("no occasion open")

func (b *Bot) handleOccasions(ctx context.Context, msg *tgbotapi.Message) error {
	user, client, err := b.current(ctx, msg.From)
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	list, err := b.deps.Occasions.List(ctx, client, *user)
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	return b.sendText(msg.Chat.ID, formatOccasionList(list))
}

func (b *Bot) handleNewOccasion(ctx context.Context, msg *tgbotapi.Message) error {
	args := splitArgs(msg.CommandArguments(), 3)
	date, err := time.Parse("2006-01-02", args[2])
	if args[0] == "" || args[1] == "" || err != nil {
		return b.sendText(msg.Chat.ID, "Usage: /newoccasion &lt;person&gt; | &lt;type&gt; | &lt;YYYY-MM-DD&gt;")
	}
	user, client, err := b.current(ctx, msg.From)
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	id, err := b.deps.Occasions.Create(ctx, client, *user, args[0], args[1], date)
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	return b.showOccasion(ctx, msg.Chat.ID, msg.From, id)
}

func (b *Bot) handleOccasion(ctx context.Context, msg *tgbotapi.Message) error {
	arg := strings.TrimSpace(msg.CommandArguments())
	if arg == "" {
		arg = b.getView(msg.From.ID)
	}
	if arg == "" {
		return b.sendText(msg.Chat.ID, "Usage: /occasion &lt;id&gt;, ids are listed in /occasions")
	}
	if n, err := strconv.Atoi(arg); err == nil {
		if id, ok := b.occasionByPosition(ctx, msg.From, n); ok {
			arg = id
		}
	}
	return b.showOccasion(ctx, msg.Chat.ID, msg.From, arg)
}

// occasionByPosition maps a 1-based position in /occasions to an id.
func (b *Bot) occasionByPosition(ctx context.Context, from *tgbotapi.User, n int) (string, bool) {
	user, client, err := b.current(ctx, from)
	if err != nil {
		return "", false
	}
	list, err := b.deps.Occasions.List(ctx, client, *user)
	if err != nil || n < 1 || n > len(list) {
		return "", false
	}
	return list[n-1].ID, true
}

// openView resolves ownership from scratch and loads the occasion.
func (b *Bot) openView(ctx context.Context, from *tgbotapi.User, occasionID string) (*service.OccasionView, error) {
	if occasionID == "" {
		return nil, errNoOpenOccasion
	}
	user, client, err := b.current(ctx, from)
	if err != nil {
		return nil, err
	}
	view, err := b.deps.Occasions.Open(ctx, client, *user, occasionID, service.BuildOptions{IncludePending: true})
	if err != nil {
		return nil, err
	}
	b.setView(from.ID, occasionID)
	return view, nil
}

// currentView reopens the occasion the user looked at last.
func (b *Bot) currentView(ctx context.Context, from *tgbotapi.User) (*service.OccasionView, error) {
	return b.openView(ctx, from, b.getView(from.ID))
}

func (b *Bot) showOccasion(ctx context.Context, chatID int64, from *tgbotapi.User, occasionID string) error {
	view, err := b.openView(ctx, from, occasionID)
	if err != nil {
		return b.viewError(chatID, err)
	}
	return b.renderView(chatID, view)
}

func (b *Bot) renderView(chatID int64, view *service.OccasionView) error {
	msg := tgbotapi.NewMessage(chatID, formatOccasionView(view))
	msg.ParseMode = tgbotapi.ModeHTML
	if kb := taskKeyboard(view.Workspace.Tasks()); kb != nil && !view.Ownership.Degraded() {
		msg.ReplyMarkup = *kb
	} else {
		msg.ReplyMarkup = mainMenuKeyboard()
	}
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) viewError(chatID int64, err error) error {
	if errors.Is(err, errNoOpenOccasion) {
		return b.sendText(chatID, "Open an occasion first: /occasions")
	}
	return b.replyError(chatID, err)
}

func (b *Bot) startNewTaskConversation(ctx context.Context, msg *tgbotapi.Message) error {
	view, err := b.currentView(ctx, msg.From)
	if err != nil {
		return b.viewError(msg.Chat.ID, err)
	}
	if view.Ownership.Degraded() {
		return b.replyError(msg.Chat.ID, service.ErrOwnerUnresolved)
	}
	if args := strings.TrimSpace(msg.CommandArguments()); args != "" {
		return b.finishTaskCreation(ctx, msg.Chat.ID, msg.From, view.Ownership.OccasionID, service.TaskInput{Description: args})
	}
	logger.Infof("start new task conversation user=%d occasion=%s", msg.From.ID, view.Ownership.OccasionID)
	b.setConversation(msg.From.ID, &conversationState{stage: stageTaskDescription, occasionID: view.Ownership.OccasionID})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 New task.\n<b>Step 1:</b> what needs to be done?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	if state == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageTaskDescription:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Describe the task in a few words.", cancelKeyboard())
		}
		state.input.Description = text
		state.stage = stageTaskPriority
		return b.sendWithReplyMarkup(msg.Chat.ID, "<b>Step 2:</b> priority? (or «Skip»)", priorityKeyboard())
	case stageTaskPriority:
		if !isSkipInput(text) {
			state.input.Priority = strings.ToLower(text)
		}
		b.clearConversation(msg.From.ID)
		return b.finishTaskCreation(ctx, msg.Chat.ID, msg.From, state.occasionID, state.input)
	case stageRenameTask:
		b.clearConversation(msg.From.ID)
		return b.renameTask(ctx, msg.Chat.ID, msg.From, state.occasionID, state.taskID, text)
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Input reset. Try again.")
	}
}

func (b *Bot) finishTaskCreation(ctx context.Context, chatID int64, from *tgbotapi.User, occasionID string, input service.TaskInput) error {
	view, err := b.openView(ctx, from, occasionID)
	if err != nil {
		return b.viewError(chatID, err)
	}
	task, err := view.Workspace.AddTask(ctx, input)
	if err != nil {
		return b.replyError(chatID, err)
	}
	logger.Infof("task created id=%s user=%d occasion=%s", task.ID, from.ID, occasionID)
	return b.renderView(chatID, view)
}

// taskAt returns the task at a 1-based position of the current view.
func (b *Bot) taskAt(ctx context.Context, msg *tgbotapi.Message, raw string) (*service.OccasionView, service.TaskItem, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return nil, service.TaskItem{}, fmt.Errorf("task number expected, e.g. 2")
	}
	view, err := b.currentView(ctx, msg.From)
	if err != nil {
		return nil, service.TaskItem{}, err
	}
	tasks := view.Workspace.Tasks()
	if n < 1 || n > len(tasks) {
		return view, service.TaskItem{}, service.ErrTaskNotFound
	}
	return view, tasks[n-1], nil
}

func (b *Bot) handleDone(ctx context.Context, msg *tgbotapi.Message) error {
	view, task, err := b.taskAt(ctx, msg, msg.CommandArguments())
	if err != nil {
		return b.viewError(msg.Chat.ID, err)
	}
	if _, err := view.Workspace.ToggleTask(ctx, task.ID); err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	return b.renderView(msg.Chat.ID, view)
}

func (b *Bot) handleRename(ctx context.Context, msg *tgbotapi.Message) error {
	fields := strings.SplitN(strings.TrimSpace(msg.CommandArguments()), " ", 2)
	view, task, err := b.taskAt(ctx, msg, fields[0])
	if err != nil {
		return b.viewError(msg.Chat.ID, err)
	}
	if len(fields) < 2 || strings.TrimSpace(fields[1]) == "" {
		b.setConversation(msg.From.ID, &conversationState{stage: stageRenameTask, occasionID: view.Ownership.OccasionID, taskID: task.ID})
		return b.sendWithReplyMarkup(msg.Chat.ID, fmt.Sprintf("✏️ New text for «%s»?", escape(task.Description)), cancelKeyboard())
	}
	return b.renameTask(ctx, msg.Chat.ID, msg.From, view.Ownership.OccasionID, task.ID, fields[1])
}

func (b *Bot) renameTask(ctx context.Context, chatID int64, from *tgbotapi.User, occasionID, taskID, text string) error {
	view, err := b.openView(ctx, from, occasionID)
	if err != nil {
		return b.viewError(chatID, err)
	}
	if err := view.Workspace.RenameTask(ctx, taskID, text); err != nil {
		// The edit was reverted; show the restored list along with the error.
		if sendErr := b.replyError(chatID, err); sendErr != nil {
			return sendErr
		}
	}
	return b.renderView(chatID, view)
}

func (b *Bot) handleDeleteTask(ctx context.Context, msg *tgbotapi.Message) error {
	_, task, err := b.taskAt(ctx, msg, msg.CommandArguments())
	if err != nil {
		return b.viewError(msg.Chat.ID, err)
	}
	return b.deleteTask(ctx, msg.Chat.ID, msg.From, task.ID)
}

func (b *Bot) handlePriority(ctx context.Context, msg *tgbotapi.Message) error {
	fields := strings.Fields(msg.CommandArguments())
	if len(fields) != 2 {
		return b.sendText(msg.Chat.ID, "Usage: /priority &lt;n&gt; &lt;high|medium|low&gt;")
	}
	view, task, err := b.taskAt(ctx, msg, fields[0])
	if err != nil {
		return b.viewError(msg.Chat.ID, err)
	}
	if err := view.Workspace.SetPriority(ctx, task.ID, strings.ToLower(fields[1])); err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	return b.refresh(ctx, msg.Chat.ID, msg.From)
}

func (b *Bot) toggleTask(ctx context.Context, chatID int64, from *tgbotapi.User, taskID string) error {
	view, err := b.currentView(ctx, from)
	if err != nil {
		return b.viewError(chatID, err)
	}
	done, err := view.Workspace.ToggleTask(ctx, taskID)
	if err != nil {
		return b.replyError(chatID, err)
	}
	logger.Infof("task toggled id=%s user=%d done=%t", taskID, from.ID, done)
	return b.renderView(chatID, view)
}

func (b *Bot) bumpPriority(ctx context.Context, chatID int64, from *tgbotapi.User, taskID string) error {
	view, err := b.currentView(ctx, from)
	if err != nil {
		return b.viewError(chatID, err)
	}
	var current string
	for _, t := range view.Workspace.Tasks() {
		if t.ID == taskID {
			current = t.Priority
		}
	}
	if err := view.Workspace.SetPriority(ctx, taskID, nextPriority(current)); err != nil {
		return b.replyError(chatID, err)
	}
	return b.refresh(ctx, chatID, from)
}

func (b *Bot) deleteTask(ctx context.Context, chatID int64, from *tgbotapi.User, taskID string) error {
	view, err := b.currentView(ctx, from)
	if err != nil {
		return b.viewError(chatID, err)
	}
	if err := view.Workspace.RemoveTask(ctx, taskID); err != nil {
		return b.replyError(chatID, err)
	}
	logger.Infof("task deleted id=%s user=%d", taskID, from.ID)
	return b.renderView(chatID, view)
}

// refresh reloads the view so the list is re-sorted.
func (b *Bot) refresh(ctx context.Context, chatID int64, from *tgbotapi.User) error {
	return b.showOccasion(ctx, chatID, from, b.getView(from.ID))
}

func occasionLabel(occ *api.Occasion, id string) string {
	if occ == nil {
		return id
	}
	return fmt.Sprintf("%s (%s)", occ.Person, occ.OccasionType)
}
