package telegram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	app "aoi-workspace/internal/application"
	"aoi-workspace/internal/domain/entity"
)

func TestRenderResult_EscapesServiceData(t *testing.T) {
	res, err := entity.ParseInspectionResult([]byte(`{"verdict":"<i>Genuine</i>","extracted":{"text":"<script>x</script>&"},"reason_codes":["a<b"]}`))
	require.NoError(t, err)

	out := renderResult(app.Interpret(res))
	require.NotContains(t, out, "<script>")
	require.Contains(t, out, "&lt;script&gt;x&lt;/script&gt;&amp;")
	require.Contains(t, out, "a&lt;b")
	require.Contains(t, out, "&lt;i&gt;Genuine&lt;/i&gt;")
	require.Contains(t, out, "&#34;verdict&#34;")
}

func TestRenderResult_Placeholders(t *testing.T) {
	out := renderResult(app.Interpret(&entity.InspectionResult{}))
	require.Contains(t, out, "⚠️ Unknown")
	require.Contains(t, out, "✅ No rule failures")
	require.Contains(t, out, "▫️ Final: —")
	require.Contains(t, out, "<b>Распознанный текст</b>\n—\n")
	require.Contains(t, out, "<b>BBox</b>\n—\n")
}

func TestRenderResult_FitsMessageLimit(t *testing.T) {
	res := &entity.InspectionResult{Extracted: &entity.Extracted{Text: "X"}}
	res.Raw = []byte(`{"blob":"` + strings.Repeat(`"`, 5000) + `"}`)

	out := renderResult(app.Interpret(res))
	require.LessOrEqual(t, len(out), maxMessageLength)
}

func TestRenderHistory(t *testing.T) {
	require.Equal(t, msgHistoryEmpty, renderHistory(nil))

	out := renderHistory([]app.HistoryRow{{Time: "10:00:00", Part: "a&b", Verdict: "Genuine", Conf: "80.0%"}})
	require.True(t, strings.HasPrefix(out, "<pre>"))
	require.Contains(t, out, "a&amp;b")
}

func TestRenderJSON(t *testing.T) {
	out, fits := renderJSON("{\n  \"verdict\": \"Genuine\"\n}")
	require.True(t, fits)
	require.Contains(t, out, "&#34;verdict&#34;")

	_, fits = renderJSON(strings.Repeat("x", maxMessageLength))
	require.False(t, fits)
}

func TestRenderParameters(t *testing.T) {
	out := renderParameters(entity.InspectionParameters{PartID: "", PSM: "7", Adaptive: false})
	require.Contains(t, out, "<code>example_part</code>")
	require.Contains(t, out, "Single text line")
	require.Contains(t, out, "выкл")
}

func TestCatalogKeyboard(t *testing.T) {
	cat := entity.NewCatalog([]entity.CatalogEntry{
		{PartID: "lm358", PartNumber: "LM358N"},
		{PartID: strings.Repeat("x", 80)},
		{PartID: "example_part"},
	})
	kb := catalogKeyboard(cat, "example_part")
	require.Len(t, kb.InlineKeyboard, 2)
	require.Equal(t, "lm358 (LM358N)", kb.InlineKeyboard[0][0].Text)
	require.Equal(t, "• example_part", kb.InlineKeyboard[1][0].Text)
	require.Equal(t, "part:example_part", *kb.InlineKeyboard[1][0].CallbackData)
}

func TestPSMKeyboard(t *testing.T) {
	kb := psmKeyboard("11")
	require.Len(t, kb.InlineKeyboard, len(entity.SegmentationModes))
	require.Equal(t, "• 11 — Sparse text", kb.InlineKeyboard[3][0].Text)
}

func TestParseSwitch(t *testing.T) {
	for _, in := range []string{"on", "1", "ВКЛ"} {
		v, ok := parseSwitch(in)
		require.True(t, ok)
		require.True(t, v)
	}
	v, ok := parseSwitch("off")
	require.True(t, ok)
	require.False(t, v)

	_, ok = parseSwitch("maybe")
	require.False(t, ok)
}

func TestTruncateKeepsRunes(t *testing.T) {
	out := truncate("абв", 3)
	require.Equal(t, "а…", out)
}
