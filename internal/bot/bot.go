package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"currency-bot/internal/currency"
	"currency-bot/internal/metrics"
)

// API is the subset of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type RateFetcher interface {
	GetRate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

type Settings interface {
	BaseCurrency(ctx context.Context, userID int64, def string) string
	DefaultAmount(ctx context.Context, userID int64, def decimal.Decimal) decimal.Decimal
	SetBaseCurrency(ctx context.Context, userID int64, code string) error
	SetDefaultAmount(ctx context.Context, userID int64, amount decimal.Decimal) error
}

// Options carries the fallbacks for users without stored settings.
type Options struct {
	DefaultBase   string
	DefaultAmount decimal.Decimal
	DialogueTTL   time.Duration
}

// Bot aggregates Telegram API with services.
type Bot struct {
	api       API
	rates     RateFetcher
	settings  Settings
	directory *currency.Directory
	metrics   *metrics.Metrics
	log       *logrus.Logger
	opts      Options
	dialogues *dialogueStore
	wg        sync.WaitGroup
}

// NewAPI authorizes against Telegram.
func NewAPI(token string, debug bool, log *logrus.Logger) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	api.Debug = debug
	log.WithField("username", api.Self.UserName).Info("bot authorized")
	return api, nil
}

func New(api API, rates RateFetcher, settings Settings, directory *currency.Directory, m *metrics.Metrics, log *logrus.Logger, opts Options) *Bot {
	if opts.DialogueTTL <= 0 {
		opts.DialogueTTL = 15 * time.Minute
	}
	if !opts.DefaultAmount.IsPositive() {
		opts.DefaultAmount = decimal.NewFromInt(1)
	}
	if opts.DefaultBase == "" {
		opts.DefaultBase = "RUB"
	}

	return &Bot{
		api:       api,
		rates:     rates,
		settings:  settings,
		directory: directory,
		metrics:   m,
		log:       log,
		opts:      opts,
		dialogues: newDialogueStore(opts.DialogueTTL),
	}
}

// Start polls updates until ctx is cancelled, handling each in its own
// goroutine, then waits for in-flight updates to finish.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	// Handlers outlive shutdown of polling so a started reply is still sent.
	handlerCtx := context.WithoutCancel(ctx)
	for update := range updates {
		b.wg.Add(1)
		go func(update tgbotapi.Update) {
			defer b.wg.Done()
			b.HandleUpdate(handlerCtx, update)
		}(update)
	}

	b.wg.Wait()
	b.log.Info("polling stopped")
	return nil
}

// HandleUpdate processes one update. Errors and panics are logged, counted and
// answered with a generic apology; they never stop the bot.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	kind := updateKind(update)
	if kind == "" {
		return
	}
	b.metrics.UpdatesTotal.WithLabelValues(kind).Inc()

	chatID, userID := updateOrigin(update)
	entry := b.log.WithFields(logrus.Fields{
		"request_id": uuid.NewString(),
		"user_id":    userID,
		"kind":       kind,
	})
	ctx = withLogger(ctx, entry)

	defer func() {
		if r := recover(); r != nil {
			entry.WithField("panic", r).Error("update handler panicked")
			b.metrics.UpdateErrorsTotal.Inc()
			b.apologize(ctx, chatID)
		}
	}()

	var err error
	switch kind {
	case "callback":
		err = b.handleCallback(ctx, update.CallbackQuery)
	case "message":
		err = b.handleMessage(ctx, update.Message)
	}
	if err != nil {
		entry.WithError(err).Error("handle update")
		b.metrics.UpdateErrorsTotal.Inc()
		b.apologize(ctx, chatID)
	}
}

func updateKind(update tgbotapi.Update) string {
	switch {
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		return "callback"
	case update.Message != nil && update.Message.From != nil && update.Message.Chat != nil:
		return "message"
	default:
		return ""
	}
}

func updateOrigin(update tgbotapi.Update) (chatID, userID int64) {
	if cb := update.CallbackQuery; cb != nil {
		// Inline-mode callbacks carry no message and get no chat replies.
		if cb.Message == nil || cb.Message.Chat == nil {
			return 0, cb.From.ID
		}
		return cb.Message.Chat.ID, cb.From.ID
	}
	return update.Message.Chat.ID, update.Message.From.ID
}

func (b *Bot) apologize(ctx context.Context, chatID int64) {
	if chatID == 0 {
		return
	}
	msg := tgbotapi.NewMessage(chatID, "⚠️ Что-то пошло не так. Попробуйте ещё раз чуть позже.")
	if _, err := b.api.Send(msg); err != nil {
		b.logger(ctx).WithError(err).Warn("send apology")
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	userID := msg.From.ID

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		return b.cancelDialogue(ctx, msg.Chat.ID, userID)
	}

	if !msg.IsCommand() {
		if handled, err := b.handleMenuAlias(ctx, msg); handled {
			return err
		}
	}

	if msg.IsCommand() {
		b.logger(ctx).WithFields(logrus.Fields{
			"command": msg.Command(),
			"args":    msg.CommandArguments(),
		}).Info("command received")
		return b.handleCommand(ctx, msg)
	}

	if state, ok := b.dialogues.Get(userID); ok {
		b.logger(ctx).WithField("stage", state.stage.String()).Info("dialogue input")
		return b.handleConversation(ctx, msg, state)
	}

	if handled, err := b.handleFreeTextQuery(ctx, msg); handled {
		return err
	}

	return b.sendText(msg.Chat.ID, "Я пока не понял сообщение. Напишите, например, <code>100 USD EUR</code> или загляните в /help.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.Fields(msg.CommandArguments())

	switch msg.Command() {
	case "start":
		return b.handleStart(msg)
	case "help":
		return b.handleHelp(ctx, msg)
	case "rate", "convert":
		return b.handleRate(ctx, msg, args)
	case "setbase":
		return b.handleSetBase(ctx, msg, args)
	case "setamount":
		return b.handleSetAmount(ctx, msg, args)
	case "settings":
		return b.handleSettings(ctx, msg)
	case "list":
		return b.handleList(msg, args)
	case "search":
		return b.handleSearch(msg, args)
	case "cancel":
		return b.cancelDialogue(ctx, msg.Chat.ID, msg.From.ID)
	default:
		return b.sendText(msg.Chat.ID, "Команда не поддерживается. Загляни в /help.")
	}
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	switch text {
	case strings.ToLower(menuLabelRate):
		return true, b.sendText(msg.Chat.ID, "Напишите запрос, например: <code>USD</code>, <code>EUR USD</code> или <code>100 USD EUR</code>.")
	case strings.ToLower(menuLabelBase):
		return true, b.startBaseDialogue(ctx, msg.Chat.ID, msg.From.ID)
	case strings.ToLower(menuLabelAmount):
		return true, b.startAmountDialogue(ctx, msg.Chat.ID, msg.From.ID)
	case strings.ToLower(menuLabelList):
		return true, b.handleList(msg, nil)
	case strings.ToLower(menuLabelSetting):
		return true, b.handleSettings(ctx, msg)
	case strings.ToLower(menuLabelHelp):
		return true, b.handleHelp(ctx, msg)
	default:
		return false, nil
	}
}

func (b *Bot) cancelDialogue(ctx context.Context, chatID, userID int64) error {
	_, active := b.dialogues.Get(userID)
	b.dialogues.Clear(userID)
	if !active {
		return b.sendText(chatID, "Нечего отменять: активного ввода нет.")
	}
	b.logger(ctx).Info("dialogue cancelled")
	return b.sendText(chatID, "⏪ Ввод отменён. Настройки не изменились.")
}

func (b *Bot) userDefaults(ctx context.Context, userID int64) (string, decimal.Decimal) {
	base := b.settings.BaseCurrency(ctx, userID, b.opts.DefaultBase)
	amount := b.settings.DefaultAmount(ctx, userID, b.opts.DefaultAmount)
	return base, amount
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

// editText replaces a message in place. Telegram rejects edits that change
// nothing; that is not an error for us.
func (b *Bot) editText(chatID int64, messageID int, text string, markup tgbotapi.InlineKeyboardMarkup) error {
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, markup)
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Request(edit); err != nil {
		if strings.Contains(err.Error(), "message is not modified") {
			return nil
		}
		return err
	}
	return nil
}

func (b *Bot) sendTyping(ctx context.Context, chatID int64) {
	if _, err := b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		b.logger(ctx).WithError(err).Debug("send chat action")
	}
}

type loggerKey struct{}

func withLogger(ctx context.Context, entry *logrus.Entry) context.Context {
	return context.WithValue(ctx, loggerKey{}, entry)
}

func (b *Bot) logger(ctx context.Context) *logrus.Entry {
	if entry, ok := ctx.Value(loggerKey{}).(*logrus.Entry); ok {
		return entry
	}
	return logrus.NewEntry(b.log)
}
