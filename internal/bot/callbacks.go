package bot

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"currency-bot/internal/currency"
	"currency-bot/internal/service"
)

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.logger(ctx).WithError(err).Warn("callback ack")
	}
	if cb.Message == nil || cb.Message.Chat == nil {
		b.logger(ctx).WithField("data", cb.Data).Debug("callback without message ignored")
		return nil
	}

	data := cb.Data
	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID
	userID := cb.From.ID

	b.logger(ctx).WithField("data", data).Info("callback received")

	switch {
	case data == cbBaseManual:
		return b.startManualBaseEntry(ctx, chatID, userID)
	case strings.HasPrefix(data, cbBasePrefix):
		return b.applyBaseInput(ctx, chatID, userID, strings.TrimPrefix(data, cbBasePrefix))
	case strings.HasPrefix(data, cbPagePrefix):
		n, err := strconv.Atoi(strings.TrimPrefix(data, cbPagePrefix))
		if err != nil {
			n = 1
		}
		page := b.listPage(n)
		return b.editText(chatID, messageID, formatPage(page), pageKeyboard(page))
	case data == cbListAll:
		page := b.listPage(1)
		return b.editText(chatID, messageID, formatPage(page), pageKeyboard(page))
	case data == cbListMain:
		return b.editText(chatID, messageID, formatFeatured(b.directory.Featured()), featuredKeyboard())
	case strings.HasPrefix(data, cbRatePrefix):
		return b.refreshRate(ctx, chatID, messageID, userID, data)
	case data == cbMenuBase:
		return b.startBaseDialogue(ctx, chatID, userID)
	case data == cbMenuAmount:
		return b.startAmountDialogue(ctx, chatID, userID)
	default:
		return nil
	}
}

func (b *Bot) listPage(n int) currency.Page {
	return currency.Paginate(b.directory.All(), n, currency.PageSize)
}

// refreshRate re-runs the query encoded in the button and edits the reply in place.
func (b *Bot) refreshRate(ctx context.Context, chatID int64, messageID int, userID int64, data string) error {
	from, to, amount, err := decodeRateCallback(data)
	if err != nil {
		b.logger(ctx).WithError(err).Warn("ignore callback")
		return nil
	}
	query := service.RateQuery{Amount: amount, From: from, To: to}
	if !service.IsCurrencyCode(query.From) || !service.IsCurrencyCode(query.To) {
		b.logger(ctx).WithField("data", data).Warn("ignore callback with bad codes")
		return nil
	}

	b.sendTyping(ctx, chatID)
	text, markup, found, err := b.renderRate(ctx, userID, query)
	if err != nil {
		return err
	}
	if !found {
		return b.sendText(chatID, text)
	}
	return b.editText(chatID, messageID, text, markup)
}
