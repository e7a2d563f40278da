package bot

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"currency-bot/internal/model"
	"currency-bot/internal/service"
)

func (b *Bot) startBaseDialogue(ctx context.Context, chatID, userID int64) error {
	b.dialogues.Set(userID, conversationState{stage: stageBaseCurrency})
	b.logger(ctx).Info("dialogue started: base currency")

	base, _ := b.userDefaults(ctx, userID)
	text := fmt.Sprintf("🏠 Сейчас базовая валюта: <b>%s</b>.\nВыберите новую кнопкой или пришлите код, например <code>AED</code>.\n/cancel — отменить.", base)
	return b.sendWithReplyMarkup(chatID, text, baseCurrencyKeyboard(base))
}

func (b *Bot) startManualBaseEntry(ctx context.Context, chatID, userID int64) error {
	b.dialogues.Set(userID, conversationState{stage: stageBaseCurrency, manual: true})
	b.logger(ctx).Info("dialogue: manual base entry")
	return b.sendWithReplyMarkup(chatID, "⌨️ Введите код валюты из 3–4 латинских букв, например <code>THB</code>.", cancelKeyboard())
}

func (b *Bot) startAmountDialogue(ctx context.Context, chatID, userID int64) error {
	b.dialogues.Set(userID, conversationState{stage: stageAmount})
	b.logger(ctx).Info("dialogue started: default amount")

	base, amount := b.userDefaults(ctx, userID)
	text := fmt.Sprintf("🔢 Сейчас сумма по умолчанию: <b>%s</b>.\nПришлите новую сумму, например <code>100</code> или <code>12,5</code>.", formatAmount(amount, base))
	return b.sendWithReplyMarkup(chatID, text, cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message, state conversationState) error {
	switch state.stage {
	case stageBaseCurrency:
		return b.applyBaseInput(ctx, msg.Chat.ID, msg.From.ID, msg.Text)
	case stageAmount:
		return b.applyAmountInput(ctx, msg.Chat.ID, msg.From.ID, msg.Text)
	default:
		b.dialogues.Clear(msg.From.ID)
		return nil
	}
}

// applyBaseInput stores a valid code and ends the dialogue. Invalid input keeps
// the user in the base-currency stage and asks again.
func (b *Bot) applyBaseInput(ctx context.Context, chatID, userID int64, raw string) error {
	code, ok := b.validateBase(ctx, raw)
	if !ok {
		if state, active := b.dialogues.Get(userID); !active || state.stage != stageBaseCurrency {
			b.dialogues.Set(userID, conversationState{stage: stageBaseCurrency, manual: true})
		}
		return b.sendWithReplyMarkup(chatID,
			fmt.Sprintf("❌ Не знаю валюту <b>%s</b>. Пришлите код вроде <code>USD</code> или нажмите «%s».", escape(code), btnCancelDialog),
			cancelKeyboard())
	}
	return b.applyBase(ctx, chatID, userID, code)
}

func (b *Bot) applyBase(ctx context.Context, chatID, userID int64, code string) error {
	if err := b.settings.SetBaseCurrency(ctx, userID, code); err != nil {
		if errors.Is(err, service.ErrInvalidCurrency) {
			return b.sendText(chatID, fmt.Sprintf("❌ Некорректный код валюты: %s", escape(code)))
		}
		return err
	}
	b.metrics.SettingsWritesTotal.WithLabelValues(model.KeyBaseCurrency).Inc()
	b.dialogues.Clear(userID)
	return b.sendText(chatID, fmt.Sprintf("✅ Базовая валюта: %s", currencyLabel(code, b.directory)))
}

func (b *Bot) applyAmountInput(ctx context.Context, chatID, userID int64, raw string) error {
	amount, err := service.ParseAmount(raw)
	if err != nil {
		if state, active := b.dialogues.Get(userID); !active || state.stage != stageAmount {
			b.dialogues.Set(userID, conversationState{stage: stageAmount})
		}
		return b.sendWithReplyMarkup(chatID,
			"❌ Нужна положительная сумма меньше 10¹⁵, не больше 8 знаков после запятой, например <code>100</code> или <code>12,5</code>. Попробуйте ещё раз.",
			cancelKeyboard())
	}

	if err := b.settings.SetDefaultAmount(ctx, userID, amount); err != nil {
		return err
	}
	b.metrics.SettingsWritesTotal.WithLabelValues(model.KeyDefaultAmount).Inc()
	b.dialogues.Clear(userID)

	base, _ := b.userDefaults(ctx, userID)
	return b.sendText(chatID, fmt.Sprintf("✅ Сумма по умолчанию: <b>%s</b>", formatAmount(amount, base)))
}
