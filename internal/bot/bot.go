package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gojektech/heimdall/v6/httpclient"

	"momento/internal/api"
	"momento/internal/config"
	"momento/internal/logger"
	"momento/internal/repository"
	"momento/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageTaskDescription
	stageTaskPriority
	stageRenameTask
)

const digestJob = "digest"

type conversationState struct {
	stage      conversationStage
	occasionID string
	taskID     string
	input      service.TaskInput
}

// Deps are the long-lived services the bot dispatches to.
type Deps struct {
	Accounts      *repository.AccountRepository
	Sessions      *service.SessionService
	Occasions     *service.OccasionService
	Relationships *service.RelationshipService
	Pending       *service.PendingSets
	Digest        *service.DigestService
	Suggestions   *service.SuggestionService
	Gallery       *service.GalleryService
	Scheduler     *service.SchedulerService
}

// Bot aggregates Telegram API with services.
type Bot struct {
	api    *tgbotapi.BotAPI
	deps   Deps
	files  *httpclient.Client
	config *config.Config

	conversations map[int64]*conversationState
	// views remembers the occasion each user looked at last.
	views map[int64]string
	mu    sync.Mutex
}

func New(token string, deps Deps, cfg *config.Config) (*Bot, error) {
	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	logger.Infof("bot authorized on account %s", botAPI.Self.UserName)

	return &Bot{
		api:           botAPI,
		deps:          deps,
		files:         httpclient.NewClient(httpclient.WithHTTPTimeout(cfg.HTTPTimeout)),
		config:        cfg,
		conversations: make(map[int64]*conversationState),
		views:         make(map[int64]string),
	}, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	logger.Infof("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				logger.Errorf("handle callback: %v", err)
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				logger.Errorf("handle message: %v", err)
			}
		}
	}

	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Cancelled.")
	}

	if len(msg.Photo) > 0 {
		return b.handlePhoto(ctx, msg)
	}

	if !msg.IsCommand() {
		if handled, err := b.handleMenuAlias(ctx, msg); handled {
			return err
		}
	}

	if msg.IsCommand() {
		logger.Infof("command from %d: /%s", msg.From.ID, msg.Command())
		return b.handleCommand(ctx, msg)
	}

	if b.hasConversation(msg.From.ID) {
		return b.handleConversation(ctx, msg)
	}

	return b.sendText(msg.Chat.ID, "I did not get that. Try /help for the list of commands.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.handleHelp(msg)
	case "register":
		return b.handleRegister(ctx, msg)
	case "login":
		return b.handleLogin(ctx, msg)
	case "logout":
		return b.handleLogout(ctx, msg)
	case "whoami":
		return b.handleWhoami(ctx, msg)
	case "people":
		return b.handlePeople(ctx, msg)
	case "addperson":
		return b.handleAddPerson(ctx, msg)
	case "pin":
		return b.handlePin(ctx, msg, true)
	case "unpin":
		return b.handlePin(ctx, msg, false)
	case "movepin":
		return b.handleMovePin(ctx, msg)
	case "notes":
		return b.handleNotes(ctx, msg)
	case "addnote":
		return b.handleAddNote(ctx, msg)
	case "ideas":
		return b.handleIdeas(ctx, msg)
	case "gallery":
		return b.handleGallery(ctx, msg)
	case "occasions":
		return b.handleOccasions(ctx, msg)
	case "newoccasion":
		return b.handleNewOccasion(ctx, msg)
	case "occasion":
		return b.handleOccasion(ctx, msg)
	case "newtask":
		return b.startNewTaskConversation(ctx, msg)
	case "done":
		return b.handleDone(ctx, msg)
	case "rename":
		return b.handleRename(ctx, msg)
	case "deltask":
		return b.handleDeleteTask(ctx, msg)
	case "priority":
		return b.handlePriority(ctx, msg)
	case "invite":
		return b.handleInvite(ctx, msg)
	case "invites":
		return b.handleInvites(ctx, msg)
	case "sent":
		return b.handleSent(ctx, msg)
	case "uninvite":
		return b.handleUninvite(ctx, msg)
	case "name":
		return b.handleName(ctx, msg)
	case "digest":
		return b.handleDigest(ctx, msg)
	case "interval":
		return b.handleInterval(msg)
	case "cancel":
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Cancelled.")
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	switch text {
	case strings.ToLower(menuLabelPeople):
		return true, b.handlePeople(ctx, msg)
	case strings.ToLower(menuLabelOccasions):
		return true, b.handleOccasions(ctx, msg)
	case strings.ToLower(menuLabelInvites):
		return true, b.handleInvites(ctx, msg)
	case strings.ToLower(menuLabelHelp):
		return true, b.handleHelp(msg)
	default:
		return false, nil
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		logger.Warnf("callback ack: %v", err)
	}

	data := cb.Data
	chatID := cb.Message.Chat.ID
	logger.Infof("callback user=%d data=%s", cb.From.ID, data)

	switch {
	case strings.HasPrefix(data, cbTogglePrefix):
		return b.toggleTask(ctx, chatID, cb.From, strings.TrimPrefix(data, cbTogglePrefix))
	case strings.HasPrefix(data, cbPriorityPrefix):
		return b.bumpPriority(ctx, chatID, cb.From, strings.TrimPrefix(data, cbPriorityPrefix))
	case strings.HasPrefix(data, cbDeletePrefix):
		return b.deleteTask(ctx, chatID, cb.From, strings.TrimPrefix(data, cbDeletePrefix))
	case strings.HasPrefix(data, cbAcceptPrefix):
		return b.resolveInvite(ctx, cb, strings.TrimPrefix(data, cbAcceptPrefix), true)
	case strings.HasPrefix(data, cbDeclinePrefix):
		return b.resolveInvite(ctx, cb, strings.TrimPrefix(data, cbDeclinePrefix), false)
	default:
		return nil
	}
}

// SendDigests sends the digest to every logged-in Telegram account.
func (b *Bot) SendDigests(ctx context.Context) error {
	accounts, err := b.deps.Accounts.ListLoggedIn(ctx)
	if err != nil {
		return err
	}
	now := time.Now()
	for _, account := range accounts {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if !strings.HasPrefix(account.Principal, "tg:") || account.ChatID == 0 {
			continue
		}
		user := repository.UserOf(account)
		if user == nil {
			continue
		}
		client, err := b.deps.Sessions.ClientFor(ctx, account.Principal)
		if err != nil {
			logger.Warnf("digest client for %s: %v", account.Principal, err)
			continue
		}
		text, err := b.deps.Digest.Summary(ctx, client, *user, now)
		if err != nil {
			logger.Warnf("build digest for %s: %v", account.Principal, err)
			continue
		}
		if err := b.sendText(account.ChatID, text); err != nil {
			logger.Warnf("send digest to %d: %v", account.ChatID, err)
		}
	}
	return nil
}

// ScheduleDigests (re)registers the periodic digest job.
func (b *Bot) ScheduleDigests(interval time.Duration) error {
	_, err := b.deps.Scheduler.ScheduleInterval(digestJob, interval, b.runDigests)
	return err
}

// ScheduleDailyDigest sends digests once a day at HH:MM.
func (b *Bot) ScheduleDailyDigest(at string) error {
	_, err := b.deps.Scheduler.ScheduleDaily(digestJob, at, b.runDigests)
	return err
}

func (b *Bot) runDigests() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	if err := b.SendDigests(ctx); err != nil {
		logger.Errorf("send digests: %v", err)
	}
}

func (b *Bot) handleDigest(ctx context.Context, msg *tgbotapi.Message) error {
	user, client, err := b.current(ctx, msg.From)
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	text, err := b.deps.Digest.Summary(ctx, client, *user, time.Now())
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleInterval(msg *tgbotapi.Message) error {
	args := strings.ToLower(strings.TrimSpace(msg.CommandArguments()))
	switch {
	case args == "":
		b.mu.Lock()
		current, at := b.config.ReportInterval, b.config.DigestTime
		b.mu.Unlock()
		text := "Digests are off. Turn them on with /interval 24 or /interval 09:00"
		if next, ok := b.deps.Scheduler.Next(digestJob); ok {
			if at != "" {
				text = fmt.Sprintf("Digests are sent daily at %s.", at)
			} else {
				text = fmt.Sprintf("Digests are sent every %d hours.", int(current.Hours()))
			}
			text += fmt.Sprintf(" Change it with /interval 24 or /interval 09:00\nNext run: %s", next.Format("2006-01-02 15:04"))
		}
		return b.sendText(msg.Chat.ID, text)
	case args == "off":
		b.deps.Scheduler.Cancel(digestJob)
		return b.sendText(msg.Chat.ID, "🔕 Digests are off.")
	case strings.Contains(args, ":"):
		if err := b.ScheduleDailyDigest(args); err != nil {
			return b.sendText(msg.Chat.ID, "Use HH:MM, e.g. /interval 09:00")
		}
		b.mu.Lock()
		b.config.DigestTime = args
		b.mu.Unlock()
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Digest scheduled daily at %s.", escape(args)))
	}

	hours, err := strconv.Atoi(args)
	if err != nil || hours <= 0 {
		return b.sendText(msg.Chat.ID, "The interval must be a positive number of hours, e.g. /interval 6")
	}
	interval := time.Duration(hours) * time.Hour
	if err := b.ScheduleDigests(interval); err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	b.mu.Lock()
	b.config.ReportInterval, b.config.DigestTime = interval, ""
	b.mu.Unlock()
	return b.sendText(msg.Chat.ID, fmt.Sprintf("Digest interval updated: every %d hours.", hours))
}

func principal(from *tgbotapi.User) string {
	return fmt.Sprintf("tg:%d", from.ID)
}

// current returns the logged-in user and a client carrying their session.
func (b *Bot) current(ctx context.Context, from *tgbotapi.User) (*api.User, *api.Client, error) {
	return b.deps.Sessions.Current(ctx, principal(from))
}

// replyError shows err to the user; errors never stop the update loop.
func (b *Bot) replyError(chatID int64, err error) error {
	switch {
	case errors.Is(err, service.ErrNotLoggedIn):
		return b.sendText(chatID, "🔒 Please log in first: /login &lt;username&gt; &lt;password&gt;")
	case errors.Is(err, service.ErrOwnerUnresolved):
		return b.sendText(chatID, "⚠️ The owner of this occasion could not be determined, so tasks and notes are read-only.")
	case errors.Is(err, service.ErrTaskNotFound):
		return b.sendText(chatID, "Task not found. Open the occasion again to refresh.")
	}
	return b.sendText(chatID, "⚠️ "+escape(api.Message(err)))
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) setConversation(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) hasConversation(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.conversations[userID]
	return ok
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}

func (b *Bot) setView(userID int64, occasionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.views[userID] = occasionID
}

func (b *Bot) getView(userID int64) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.views[userID]
}
