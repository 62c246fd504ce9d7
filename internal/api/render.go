package telegram

import (
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	app "aoi-workspace/internal/application"
	"aoi-workspace/internal/domain/entity"
	"aoi-workspace/internal/textview"
)

const (
	callbackPart = "part:"
	callbackPSM  = "psm:"

	// Ограничение Telegram на callback_data.
	maxCallbackData = 64
	// Ограничение Telegram на длину сообщения.
	maxMessageLength = 4096
	// Предельный размер скачиваемого изображения.
	maxDownloadBytes = 32 << 20
)

// renderResult превращает представление результата в HTML для Telegram.
// Экранируется всё, что пришло от сервиса, включая распознанный текст.
func renderResult(view app.ResultView) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n", badge(view.Verdict), strings.Join([]string{badge(view.Final), badge(view.OCR)}, "  "))
	b.WriteString("\n<b>Распознанный текст</b>\n")
	if view.HasText {
		fmt.Fprintf(&b, "<code>%s</code>\n", html.EscapeString(view.Text))
	} else {
		b.WriteString(app.Placeholder + "\n")
	}

	b.WriteString("\n<b>Причины</b>\n")
	reasons := make([]string, 0, len(view.Reasons))
	for _, r := range view.Reasons {
		reasons = append(reasons, badge(r))
	}
	b.WriteString(strings.Join(reasons, "\n"))
	b.WriteString("\n")

	b.WriteString("\n<b>BBox</b>\n")
	b.WriteString(html.EscapeString(view.BBox))
	b.WriteString("\n")

	raw := view.RawJSON
	room := maxMessageLength - b.Len() - len("\n<b>Raw JSON</b>\n<code></code>") - 16
	if room < 0 {
		room = 0
	}
	escaped := html.EscapeString(raw)
	if len(escaped) > room {
		// Экранирование раздувает строку не более чем в шесть раз (&quot;).
		escaped = html.EscapeString(truncate(raw, room/6))
	}
	fmt.Fprintf(&b, "\n<b>Raw JSON</b>\n<code>%s</code>", escaped)
	return b.String()
}

func badge(bg app.Badge) string {
	return textview.Marker(bg.Severity) + " " + html.EscapeString(bg.Label)
}

// renderParameters показывает текущие параметры формы.
func renderParameters(p entity.InspectionParameters) string {
	adaptive := "выкл"
	if p.Adaptive {
		adaptive = "вкл"
	}
	whitelist := p.Whitelist
	if whitelist == "" {
		whitelist = app.Placeholder
	}
	return fmt.Sprintf(
		"⚙️ <b>Параметры</b>\nДеталь: <code>%s</code>\nPSM: <code>%s</code> (%s)\nАдаптивный порог: %s\nWhitelist: <code>%s</code>",
		html.EscapeString(p.EffectivePartID()),
		html.EscapeString(p.PSM),
		html.EscapeString(psmDescription(p.PSM)),
		adaptive,
		html.EscapeString(whitelist),
	)
}

// renderHistory выводит журнал моноширинной таблицей.
func renderHistory(rows []app.HistoryRow) string {
	if len(rows) == 0 {
		return msgHistoryEmpty
	}
	table := textview.CompactHistoryTable(rows)
	if len(table) > maxMessageLength-32 {
		table = truncate(table, maxMessageLength-32)
	}
	return "<pre>" + html.EscapeString(table) + "</pre>"
}

// renderJSON оборачивает JSON в моноширинный блок. false, если не помещается в сообщение.
func renderJSON(js string) (string, bool) {
	out := "<pre>" + html.EscapeString(js) + "</pre>"
	return out, len(out) <= maxMessageLength
}

func psmDescription(psm string) string {
	for _, m := range entity.SegmentationModes {
		if m.Value == psm {
			return m.Description
		}
	}
	return "?"
}

// catalogKeyboard строит кнопки выбора детали. Слишком длинные идентификаторы пропускаются:
// их можно ввести командой /part.
func catalogKeyboard(cat entity.Catalog, selected string) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(cat.Entries))
	for _, e := range cat.Entries {
		data := callbackPart + e.PartID
		if len(data) > maxCallbackData {
			continue
		}
		label := e.Label()
		if e.PartID == selected {
			label = "• " + label
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(label, data)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// psmKeyboard строит кнопки выбора режима сегментации.
func psmKeyboard(selected string) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(entity.SegmentationModes))
	for _, m := range entity.SegmentationModes {
		label := m.Value + " — " + m.Description
		if m.Value == selected {
			label = "• " + label
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(label, callbackPSM+m.Value)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// parseSwitch понимает on/off, 1/0, вкл/выкл.
func parseSwitch(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "1", "true", "yes", "вкл":
		return true, true
	case "off", "0", "false", "no", "выкл":
		return false, true
	default:
		return false, false
	}
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	// Не режем многобайтовый символ пополам.
	cut := n
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
