package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"aoi-workspace/internal/domain/entity"
)

func ptr(v float64) *float64 { return &v }

func TestClassifyConfidence(t *testing.T) {
	cases := []struct {
		v    float64
		want Severity
	}{
		{0.80, SeverityOK},
		{0.75, SeverityOK},
		{0.60, SeverityWarn},
		{0.50, SeverityWarn},
		{0.4999, SeverityErr},
		{0.30, SeverityErr},
		{0, SeverityErr},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, ClassifyConfidence(tc.v), "conf=%v", tc.v)
	}
}

func TestClassifyVerdict(t *testing.T) {
	require.Equal(t, SeverityOK, ClassifyVerdict("Genuine"))
	require.Equal(t, SeverityWarn, ClassifyVerdict("Suspect"))
	require.Equal(t, SeverityWarn, ClassifyVerdict("Unknown"))
	require.Equal(t, SeverityErr, ClassifyVerdict("Reject"))
	require.Equal(t, SeverityWarn, ClassifyVerdict("Remarked"), "unrecognized verdicts stay neutral")
}

func TestReasonBadges(t *testing.T) {
	require.Equal(t, []Badge{{Label: "No rule failures", Severity: SeverityOK}}, ReasonBadges(nil))
	require.Equal(t, []Badge{{Label: "No rule failures", Severity: SeverityOK}}, ReasonBadges([]string{}))

	badges := ReasonBadges([]string{"low_contrast", "font_mismatch"})
	require.Equal(t, []Badge{
		{Label: "low_contrast", Severity: SeverityErr},
		{Label: "font_mismatch", Severity: SeverityErr},
	}, badges)
}

func TestInterpret_FullResult(t *testing.T) {
	res, err := entity.ParseInspectionResult([]byte(`{
		"verdict": "Genuine",
		"scores": {"ocr_conf": 0.61, "final_conf": 0.8},
		"extracted": {"text": "LM358N"},
		"reason_codes": [],
		"bbox": [128, 96, 384, 288]
	}`))
	require.NoError(t, err)

	view := Interpret(res)
	require.Equal(t, Badge{Label: "Genuine", Severity: SeverityOK}, view.Verdict)
	require.Equal(t, Badge{Label: "Final: 80.0%", Severity: SeverityOK}, view.Final)
	require.Equal(t, Badge{Label: "OCR: 61.0%", Severity: SeverityWarn}, view.OCR)
	require.Equal(t, "LM358N", view.Text)
	require.True(t, view.HasText)
	require.Equal(t, "128, 96, 384, 288", view.BBox)
	require.True(t, view.HasBBox)
	require.Len(t, view.Reasons, 1)
	require.NotContains(t, view.RawJSON, "\n")
	require.Contains(t, view.RawJSON, `"verdict":"Genuine"`)
}

func TestInterpret_EmptyResultUsesPlaceholders(t *testing.T) {
	view := Interpret(&entity.InspectionResult{})
	require.Equal(t, Badge{Label: "Unknown", Severity: SeverityWarn}, view.Verdict)
	require.Equal(t, Badge{Label: "Final: —", Severity: SeverityMuted}, view.Final)
	require.Equal(t, Badge{Label: "OCR: —", Severity: SeverityMuted}, view.OCR)
	require.Equal(t, Placeholder, view.Text)
	require.False(t, view.HasText)
	require.Equal(t, Placeholder, view.BBox)
	require.False(t, view.HasBBox)
	require.NotEmpty(t, view.RawJSON)
}

func TestInterpret_ConfidenceTiers(t *testing.T) {
	for conf, want := range map[float64]Severity{0.80: SeverityOK, 0.60: SeverityWarn, 0.30: SeverityErr} {
		view := Interpret(&entity.InspectionResult{Scores: &entity.Scores{FinalConf: ptr(conf)}})
		require.Equal(t, want, view.Final.Severity, "final_conf=%v", conf)
	}
}

func TestInterpret_KeepsMarkupUnescaped(t *testing.T) {
	view := Interpret(&entity.InspectionResult{Extracted: &entity.Extracted{Text: "<b>LM</b>"}})
	require.Equal(t, "<b>LM</b>", view.Text)
}

func TestFormatBBox(t *testing.T) {
	require.Equal(t, "1.5, 2, 30, 40", FormatBBox(entity.BBox{1.5, 2, 30, 40}))
}
