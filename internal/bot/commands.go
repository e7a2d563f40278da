package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"currency-bot/internal/model"
	"currency-bot/internal/rates"
	"currency-bot/internal/service"
)

func (b *Bot) handleStart(msg *tgbotapi.Message) error {
	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "друг"
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf(startText, escape(name)))
}

func (b *Bot) handleHelp(ctx context.Context, msg *tgbotapi.Message) error {
	base, amount := b.userDefaults(ctx, msg.From.ID)
	return b.sendText(msg.Chat.ID, fmt.Sprintf(helpText, base, formatAmount(amount, base)))
}

func (b *Bot) handleRate(ctx context.Context, msg *tgbotapi.Message, args []string) error {
	if len(args) == 0 {
		return b.sendText(msg.Chat.ID, usageText)
	}

	base, amount := b.userDefaults(ctx, msg.From.ID)
	query, err := service.ParseRateQuery(args, amount, base)
	if err != nil {
		return b.sendText(msg.Chat.ID, queryErrorText(err))
	}
	return b.sendRate(ctx, msg.Chat.ID, msg.From.ID, query)
}

// handleFreeTextQuery answers plain messages like "100 usd eur" when the
// source currency is one we know, so ordinary chatter is not mistaken for a code.
func (b *Bot) handleFreeTextQuery(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	fields := strings.Fields(msg.Text)
	if len(fields) == 0 || len(fields) > 4 {
		return false, nil
	}

	base, amount := b.userDefaults(ctx, msg.From.ID)
	query, err := service.ParseRateQuery(fields, amount, base)
	if err != nil {
		return false, nil
	}
	if _, ok := b.directory.Lookup(query.From); !ok {
		return false, nil
	}
	return true, b.sendRate(ctx, msg.Chat.ID, msg.From.ID, query)
}

func queryErrorText(err error) string {
	switch {
	case errors.Is(err, service.ErrInvalidAmount):
		return "❌ Сумма должна быть положительным числом меньше 10¹⁵ и не больше 8 знаков после запятой, например <code>100</code> или <code>12,5</code>."
	case errors.Is(err, service.ErrInvalidCurrency):
		return "❌ Код валюты должен состоять из 3–5 латинских букв или цифр, например <code>USD</code>.\n\n" + usageText
	default:
		return usageText
	}
}

// renderRate fetches the rate and builds the reply with its quick actions.
// found is false when no provider knows the pair.
func (b *Bot) renderRate(ctx context.Context, userID int64, query service.RateQuery) (text string, markup tgbotapi.InlineKeyboardMarkup, found bool, err error) {
	rate, err := b.rates.GetRate(ctx, query.From, query.To)
	if err != nil {
		if errors.Is(err, rates.ErrRateNotFound) {
			b.logger(ctx).WithField("pair", query.Pair().String()).Warn("rate not found")
			return fmt.Sprintf("❌ Не удалось получить курс %s → %s. Проверьте коды валют или попробуйте позже.",
				escape(query.From), escape(query.To)), tgbotapi.InlineKeyboardMarkup{}, false, nil
		}
		return "", tgbotapi.InlineKeyboardMarkup{}, false, fmt.Errorf("get rate %s: %w", query.Pair(), err)
	}

	base, amount := b.userDefaults(ctx, userID)
	text = formatRateReply(rateView{
		From:          query.From,
		To:            query.To,
		Rate:          rate,
		Amount:        query.Amount,
		BaseCurrency:  base,
		DefaultAmount: amount,
	}, b.directory)
	return text, rateActionsKeyboard(query.From, query.To, query.Amount), true, nil
}

func (b *Bot) sendRate(ctx context.Context, chatID, userID int64, query service.RateQuery) error {
	b.sendTyping(ctx, chatID)

	text, markup, found, err := b.renderRate(ctx, userID, query)
	if err != nil {
		return err
	}
	if !found {
		return b.sendText(chatID, text)
	}
	return b.sendWithReplyMarkup(chatID, text, markup)
}

func (b *Bot) handleSettings(ctx context.Context, msg *tgbotapi.Message) error {
	base, amount := b.userDefaults(ctx, msg.From.ID)
	return b.sendWithReplyMarkup(msg.Chat.ID, formatSettings(base, amount, b.directory), settingsKeyboard())
}

func (b *Bot) handleSetBase(ctx context.Context, msg *tgbotapi.Message, args []string) error {
	if len(args) == 0 {
		return b.startBaseDialogue(ctx, msg.Chat.ID, msg.From.ID)
	}
	return b.applyBaseInput(ctx, msg.Chat.ID, msg.From.ID, args[0])
}

func (b *Bot) handleSetAmount(ctx context.Context, msg *tgbotapi.Message, args []string) error {
	if len(args) == 0 {
		return b.startAmountDialogue(ctx, msg.Chat.ID, msg.From.ID)
	}
	return b.applyAmountInput(ctx, msg.Chat.ID, msg.From.ID, strings.Join(args, " "))
}

func (b *Bot) handleList(msg *tgbotapi.Message, args []string) error {
	if len(args) > 0 && strings.EqualFold(args[0], "all") {
		page := b.listPage(1)
		return b.sendWithReplyMarkup(msg.Chat.ID, formatPage(page), pageKeyboard(page))
	}
	return b.sendWithReplyMarkup(msg.Chat.ID, formatFeatured(b.directory.Featured()), featuredKeyboard())
}

func (b *Bot) handleSearch(msg *tgbotapi.Message, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return b.sendText(msg.Chat.ID, "🔍 Используйте: /search &lt;код или название&gt;\nПример: <code>/search франк</code>")
	}
	return b.sendText(msg.Chat.ID, formatSearch(query, b.directory.Search(query)))
}

// checkTarget picks the counter currency used to check an unknown code.
func checkTarget(code string) string {
	if code == "USD" {
		return "EUR"
	}
	return "USD"
}

// validateBase accepts codes from the directory and codes some provider can quote.
func (b *Bot) validateBase(ctx context.Context, raw string) (string, bool) {
	code := model.NormalizeCode(raw)
	if !service.IsBaseCurrencyCode(code) {
		return code, false
	}
	if _, ok := b.directory.Lookup(code); ok {
		return code, true
	}
	if _, err := b.rates.GetRate(ctx, code, checkTarget(code)); err != nil {
		b.logger(ctx).WithError(err).WithField("code", code).Info("base currency check failed")
		return code, false
	}
	return code, true
}
