package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"aoi-workspace/internal/domain/entity"
)

// Severity — уровень подсветки значения.
type Severity string

const (
	SeverityOK    Severity = "ok"
	SeverityWarn  Severity = "warn"
	SeverityErr   Severity = "err"
	SeverityMuted Severity = "muted"
)

// Тексты, общие для всех интерфейсов оператора.
const (
	Placeholder    = "—"
	NoRuleFailures = "No rule failures"
	TextNoResult   = "No result yet."
	TextPending    = "Processing..."
	TextFailed     = "Request failed"
	TextNoImage    = "Choose an image first."
)

// Пороги уверенности, нижняя граница включается.
const (
	confidenceOK   = 0.75
	confidenceWarn = 0.50
)

// Badge — подпись с уровнем подсветки.
type Badge struct {
	Label    string   `json:"label"`
	Severity Severity `json:"severity"`
}

// ResultView — представление результата, не зависящее от способа отображения.
// Строки здесь не экранированы: экранирует слой отображения.
type ResultView struct {
	Verdict Badge   `json:"verdict"`
	Final   Badge   `json:"final"`
	OCR     Badge   `json:"ocr"`
	Text    string  `json:"text"`
	HasText bool    `json:"has_text"`
	Reasons []Badge `json:"reasons"`
	BBox    string  `json:"bbox"`
	HasBBox bool    `json:"has_bbox"`
	RawJSON string  `json:"raw_json"`
}

// ClassifyVerdict: Genuine хорошо, Reject плохо. Остальное, включая
// неизвестные значения, нейтрально.
func ClassifyVerdict(verdict string) Severity {
	switch verdict {
	case entity.VerdictGenuine:
		return SeverityOK
	case entity.VerdictReject:
		return SeverityErr
	default:
		return SeverityWarn
	}
}

// ClassifyConfidence раскладывает уверенность по трём уровням.
func ClassifyConfidence(v float64) Severity {
	switch {
	case v >= confidenceOK:
		return SeverityOK
	case v >= confidenceWarn:
		return SeverityWarn
	default:
		return SeverityErr
	}
}

// FormatPercent печатает долю как проценты с одним знаком.
func FormatPercent(v float64) string {
	return strconv.FormatFloat(v*100, 'f', 1, 64) + "%"
}

func confidenceBadge(label string, v float64, ok bool) Badge {
	if !ok {
		return Badge{Label: label + ": " + Placeholder, Severity: SeverityMuted}
	}
	return Badge{Label: label + ": " + FormatPercent(v), Severity: ClassifyConfidence(v)}
}

// ReasonBadges: по одной плохой метке на код или одна хорошая, если кодов нет.
func ReasonBadges(codes []string) []Badge {
	if len(codes) == 0 {
		return []Badge{{Label: NoRuleFailures, Severity: SeverityOK}}
	}
	badges := make([]Badge, 0, len(codes))
	for _, c := range codes {
		badges = append(badges, Badge{Label: c, Severity: SeverityErr})
	}
	return badges
}

// FormatBBox печатает рамку как "x, y, w, h".
func FormatBBox(b entity.BBox) string {
	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, ", ")
}

// Interpret строит представление результата. Чистая функция.
func Interpret(res *entity.InspectionResult) ResultView {
	verdict := res.VerdictOrUnknown()
	final, finalOK := res.FinalConf()
	ocr, ocrOK := res.OCRConf()

	view := ResultView{
		Verdict: Badge{Label: verdict, Severity: ClassifyVerdict(verdict)},
		Final:   confidenceBadge("Final", final, finalOK),
		OCR:     confidenceBadge("OCR", ocr, ocrOK),
		Text:    Placeholder,
		Reasons: ReasonBadges(res.ReasonCodes),
		BBox:    Placeholder,
	}
	if text := res.Text(); text != "" {
		view.Text = text
		view.HasText = true
	}
	if res.BBox != nil {
		view.BBox = FormatBBox(*res.BBox)
		view.HasBBox = true
	}
	view.RawJSON = compactJSON(res)
	return view
}

func compactJSON(res *entity.InspectionResult) string {
	raw, err := res.RawJSON()
	if err != nil {
		return fmt.Sprintf("<unserializable: %v>", err)
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
