package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	"currency-bot/internal/currency"
	"currency-bot/internal/service"
)

const (
	cbBasePrefix = "base:"
	cbPagePrefix = "page:"
	cbRatePrefix = "rate:"
	cbBaseManual = "base:manual"
	cbMenuBase   = "menu:base"
	cbMenuAmount = "menu:amount"
	cbListAll    = "list:all"
	cbListMain   = "list:main"
	cbNoop       = "noop"
)

const (
	btnCancelDialog  = "⏪ Отменить ввод"
	btnManualEntry   = "⌨️ Ввести вручную"
	btnRefresh       = "🔄 Обновить"
	btnChangeBase    = "🏠 Сменить базовую"
	btnChangeAmount  = "🔢 Сумма по умолчанию"
	btnShowAll       = "📚 Все валюты"
	btnBackToMain    = "⭐ Популярные"
	btnPrev          = "◀️"
	btnNext          = "▶️"
	menuLabelRate    = "💱 Курс к базовой"
	menuLabelBase    = "🏠 Базовая валюта"
	menuLabelAmount  = "🔢 Сумма"
	menuLabelList    = "📋 Валюты"
	menuLabelSetting = "⚙️ Настройки"
	menuLabelHelp    = "ℹ️ Помощь"
)

// basePresets are offered as buttons when choosing the base currency.
var basePresets = []string{"RUB", "USD", "EUR", "GBP", "CNY", "KZT", "TRY", "BTC"}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelRate),
			tgbotapi.NewKeyboardButton(menuLabelList),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelBase),
			tgbotapi.NewKeyboardButton(menuLabelAmount),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelSetting),
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

// baseCurrencyKeyboard lays presets out four per row, current base marked.
func baseCurrencyKeyboard(current string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, code := range basePresets {
		label := code
		if code == current {
			label = "✅ " + code
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, cbBasePrefix+code))
		if len(row) == 4 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(btnManualEntry, cbBaseManual),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// rateActionsKeyboard carries the query in the refresh button so it can be re-run.
// The refresh button is left out when the query does not fit in callback data.
func rateActionsKeyboard(from, to string, amount decimal.Decimal) tgbotapi.InlineKeyboardMarkup {
	var row []tgbotapi.InlineKeyboardButton
	if data, ok := encodeRateCallback(from, to, amount); ok {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(btnRefresh, data))
	}
	row = append(row, tgbotapi.NewInlineKeyboardButtonData(btnChangeBase, cbMenuBase))
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

func settingsKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(btnChangeBase, cbMenuBase),
			tgbotapi.NewInlineKeyboardButtonData(btnChangeAmount, cbMenuAmount),
		),
	)
}

func featuredKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(btnShowAll, cbListAll),
		),
	)
}

func pageKeyboard(page currency.Page) tgbotapi.InlineKeyboardMarkup {
	var nav []tgbotapi.InlineKeyboardButton
	if page.HasPrev() {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData(btnPrev, fmt.Sprintf("%s%d", cbPagePrefix, page.Number-1)))
	}
	nav = append(nav, tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%d/%d", page.Number, page.Total), cbNoop))
	if page.HasNext() {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData(btnNext, fmt.Sprintf("%s%d", cbPagePrefix, page.Number+1)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		nav,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(btnBackToMain, cbListMain),
		),
	)
}

// maxCallbackData is Telegram's limit for callback_data, in bytes.
const maxCallbackData = 64

// encodeRateCallback builds "rate:FROM:TO:AMOUNT" with the amount rounded to
// the precision ParseAmount accepts. ok is false when the result is too long
// or the amount rounds to zero.
func encodeRateCallback(from, to string, amount decimal.Decimal) (string, bool) {
	rounded := amount.Round(service.MaxAmountDecimals)
	if !rounded.IsPositive() {
		return "", false
	}
	data := fmt.Sprintf("%s%s:%s:%s", cbRatePrefix, from, to, rounded.String())
	if len(data) > maxCallbackData {
		return "", false
	}
	return data, true
}

// decodeRateCallback parses "rate:FROM:TO:AMOUNT".
func decodeRateCallback(data string) (from, to string, amount decimal.Decimal, err error) {
	parts := strings.Split(strings.TrimPrefix(data, cbRatePrefix), ":")
	if len(parts) != 3 {
		return "", "", decimal.Zero, fmt.Errorf("malformed rate callback %q", data)
	}
	amount, err = decimal.NewFromString(parts[2])
	if err != nil || !amount.IsPositive() {
		return "", "", decimal.Zero, fmt.Errorf("malformed rate callback amount %q", data)
	}
	return parts[0], parts[1], amount, nil
}

func isCancelDialogInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancelDialog) || value == "отменить ввод" || value == "отмена" || value == "cancel"
}
