package bot

import (
	"fmt"
	"html"
	"strings"

	"github.com/leekchan/accounting"
	"github.com/shopspring/decimal"

	"currency-bot/internal/currency"
	"currency-bot/internal/model"
)

const searchLimit = 15

// highPrecision lists codes whose amounts are shown with 8 decimals.
var highPrecision = map[string]int{
	"BTC": 8,
	"ETH": 8,
}

var categoryTitles = map[string]string{
	model.CategoryMajor:    "💵 Основные",
	model.CategoryRegional: "🌍 Региональные",
	model.CategoryCrypto:   "🪙 Криптовалюты",
	model.CategoryMetal:    "🥇 Драгметаллы",
	model.CategoryOther:    "📦 Другие",
}

func escape(s string) string {
	return html.EscapeString(s)
}

// formatAmount renders an amount of code with thousands grouping.
func formatAmount(amount decimal.Decimal, code string) string {
	precision, ok := highPrecision[code]
	if !ok {
		precision = 2
	}
	ac := accounting.Accounting{Symbol: "", Precision: precision, Thousand: " ", Decimal: "."}
	return ac.FormatMoneyDecimal(amount.Round(int32(precision)))
}

// formatRate keeps four decimals, more for tiny rates so they do not print as zero.
func formatRate(rate decimal.Decimal) string {
	precision := 4
	if rate.LessThan(decimal.New(1, -2)) {
		precision = 8
	}
	ac := accounting.Accounting{Symbol: "", Precision: precision, Thousand: " ", Decimal: "."}
	return ac.FormatMoneyDecimal(rate.Round(int32(precision)))
}

type rateView struct {
	From          string
	To            string
	Rate          decimal.Decimal
	Amount        decimal.Decimal
	BaseCurrency  string
	DefaultAmount decimal.Decimal
}

func formatRateReply(v rateView, dir *currency.Directory) string {
	var b strings.Builder
	b.WriteString("💱 <b>Курс валют</b>\n\n")
	b.WriteString(fmt.Sprintf("📊 %s → %s\n", currencyLabel(v.From, dir), currencyLabel(v.To, dir)))
	b.WriteString(fmt.Sprintf("1 %s = <b>%s</b> %s\n", v.From, formatRate(v.Rate), v.To))

	one := decimal.NewFromInt(1)
	if !v.Amount.Equal(one) {
		result := v.Amount.Mul(v.Rate)
		b.WriteString("\n🧮 <b>Конвертация</b>\n")
		b.WriteString(fmt.Sprintf("%s %s = <b>%s</b> %s\n",
			formatAmount(v.Amount, v.From), v.From, formatAmount(result, v.To), v.To))
	}

	b.WriteString(fmt.Sprintf("\n🏠 Базовая валюта: %s · сумма по умолчанию: %s",
		v.BaseCurrency, formatAmount(v.DefaultAmount, v.BaseCurrency)))
	return b.String()
}

func currencyLabel(code string, dir *currency.Directory) string {
	if c, ok := dir.Lookup(code); ok {
		return fmt.Sprintf("<b>%s</b> (%s)", c.Code, escape(c.Name))
	}
	return "<b>" + escape(code) + "</b>"
}

func formatSettings(base string, amount decimal.Decimal, dir *currency.Directory) string {
	return fmt.Sprintf("⚙️ <b>Настройки</b>\n\n🏠 Базовая валюта: %s\n🔢 Сумма по умолчанию: %s\n\n"+
		"Запрос <code>/rate USD</code> покажет курс к базовой валюте с этой суммой.",
		currencyLabel(base, dir), formatAmount(amount, base))
}

func formatFeatured(groups []currency.Group) string {
	var b strings.Builder
	b.WriteString("📋 <b>Популярные валюты</b>\n")
	for _, g := range groups {
		title, ok := categoryTitles[g.Category]
		if !ok {
			title = g.Category
		}
		b.WriteString("\n<b>" + title + "</b>\n")
		for _, c := range g.Items {
			b.WriteString(fmt.Sprintf("<code>%s</code> %s\n", c.Code, escape(c.Name)))
		}
	}
	b.WriteString("\nВсе валюты: /list all · поиск: /search &lt;запрос&gt;")
	return b.String()
}

func formatPage(page currency.Page) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📚 <b>Все валюты</b> (стр. %d из %d)\n\n", page.Number, page.Total))
	for _, c := range page.Items {
		b.WriteString(fmt.Sprintf("<code>%s</code> %s\n", c.Code, escape(c.Name)))
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatSearch shows at most searchLimit matches and how many were left out.
func formatSearch(query string, found []model.Currency) string {
	if len(found) == 0 {
		return fmt.Sprintf("🔍 По запросу «%s» ничего не найдено.", escape(query))
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔍 <b>Найдено по запросу «%s»</b>\n\n", escape(query)))
	shown := found
	if len(shown) > searchLimit {
		shown = shown[:searchLimit]
	}
	for _, c := range shown {
		b.WriteString(fmt.Sprintf("<code>%s</code> %s\n", c.Code, escape(c.Name)))
	}
	if rest := len(found) - len(shown); rest > 0 {
		b.WriteString(fmt.Sprintf("\n… и ещё %d", rest))
	}
	return strings.TrimRight(b.String(), "\n")
}

const startText = "👋 Привет, %s!\n<b>Я показываю курсы валют и считаю конвертацию.</b>\n\n" +
	"Команды:\n" +
	"• /rate &lt;валюта&gt; — курс к базовой валюте\n" +
	"• /rate &lt;из&gt; &lt;в&gt; — курс между двумя валютами\n" +
	"• /rate &lt;сумма&gt; &lt;из&gt; &lt;в&gt; — конвертация суммы\n" +
	"• /setbase — выбрать базовую валюту\n" +
	"• /setamount — сумма по умолчанию\n" +
	"• /settings — текущие настройки\n" +
	"• /list — список валют, /search — поиск\n" +
	"• /help — подсказки\n\n" +
	"Примеры:\n<code>/rate USD</code>\n<code>/rate EUR USD</code>\n<code>/rate 100 USD EUR</code>"

const helpText = "ℹ️ <b>Подсказки</b>\n" +
	"• /rate USD — курс доллара к базовой валюте\n" +
	"• /rate EUR USD — курс евро в долларах\n" +
	"• /rate 100 USD EUR — сколько стоят 100 долларов в евро\n" +
	"• /rate 250 USD — 250 долларов в базовой валюте\n" +
	"• /convert — то же, что /rate\n" +
	"• /setbase — базовая валюта (сейчас %s)\n" +
	"• /setamount — сумма по умолчанию (сейчас %s)\n" +
	"• /settings — показать настройки\n" +
	"• /list — популярные валюты, /list all — полный список\n" +
	"• /search &lt;запрос&gt; — найти валюту по коду или названию\n" +
	"• /cancel — отменить текущий ввод\n\n" +
	"✅ Поддерживаются фиатные валюты, криптовалюты (BTC, ETH и др.) и драгметаллы."

const usageText = "❌ Используйте: /rate [сумма] &lt;валюта&gt; [валюта]\nПример: <code>/rate USD</code> или <code>/rate 100 EUR RUB</code>"
