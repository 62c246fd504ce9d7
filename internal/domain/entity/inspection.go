package entity

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DefaultWhitelist — набор символов, которыми по умолчанию ограничивается OCR.
const DefaultWhitelist = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-_.+"

// SegmentationMode — режим сегментации страницы (psm) на стороне OCR.
type SegmentationMode struct {
	Value       string
	Description string
}

// SegmentationModes перечисляет режимы, которые оператор может выбрать.
var SegmentationModes = []SegmentationMode{
	{Value: "6", Description: "Assume a block of text"},
	{Value: "7", Description: "Single text line"},
	{Value: "8", Description: "Single word"},
	{Value: "11", Description: "Sparse text"},
	{Value: "13", Description: "Raw line"},
}

// ValidatePSM проверяет, что режим сегментации известен.
func ValidatePSM(psm string) error {
	for _, m := range SegmentationModes {
		if m.Value == psm {
			return nil
		}
	}
	return fmt.Errorf("%w: unknown segmentation mode %q", ErrInvalidInput, psm)
}

// InspectionParameters — параметры, выбранные оператором для запроса.
type InspectionParameters struct {
	PartID    string `json:"part_id"`
	PSM       string `json:"psm"`
	Adaptive  bool   `json:"adaptive"`
	Whitelist string `json:"whitelist"`
}

// EffectivePartID возвращает деталь для отправки, подставляя example_part вместо пустого значения.
func (p InspectionParameters) EffectivePartID() string {
	if id := strings.TrimSpace(p.PartID); id != "" {
		return id
	}
	return FallbackPartID
}

// AdaptiveFlag кодирует флаг адаптивного порога так, как его ждёт сервис.
func (p InspectionParameters) AdaptiveFlag() string {
	if p.Adaptive {
		return "1"
	}
	return "0"
}

// InspectionRequest собирается заново на каждую отправку и после неё не меняется.
type InspectionRequest struct {
	ID         uint64
	Parameters InspectionParameters
	Image      *Image
}

// Scores — оценки уверенности, любая может отсутствовать.
type Scores struct {
	OCRConf   *float64 `json:"ocr_conf,omitempty"`
	FinalConf *float64 `json:"final_conf,omitempty"`
}

// Extracted — распознанный текст.
type Extracted struct {
	Text string `json:"text"`
}

// BBox — прямоугольник [x, y, w, h] в пикселях исходного изображения.
type BBox [4]float64

// X возвращает координату левого верхнего угла.
func (b BBox) X() float64 { return b[0] }

// Y возвращает координату левого верхнего угла.
func (b BBox) Y() float64 { return b[1] }

// W возвращает ширину.
func (b BBox) W() float64 { return b[2] }

// H возвращает высоту.
func (b BBox) H() float64 { return b[3] }

// InspectionResult — ответ сервиса. Данным не доверяем: любое поле может отсутствовать.
type InspectionResult struct {
	Verdict     string     `json:"verdict,omitempty"`
	Scores      *Scores    `json:"scores,omitempty"`
	Extracted   *Extracted `json:"extracted,omitempty"`
	ReasonCodes []string   `json:"reason_codes,omitempty"`
	BBox        *BBox      `json:"bbox,omitempty"`

	// Raw хранит тело ответа как есть, вместе с полями, которые мы не разбираем.
	Raw json.RawMessage `json:"-"`
}

// ParseInspectionResult разбирает JSON-ответ сервиса и сохраняет исходное тело.
func ParseInspectionResult(body []byte) (*InspectionResult, error) {
	var res InspectionResult
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decode inspection result: %w", err)
	}
	res.Raw = append(json.RawMessage(nil), body...)
	return &res, nil
}

// RawJSON возвращает компактное представление ответа.
func (r *InspectionResult) RawJSON() ([]byte, error) {
	if len(r.Raw) > 0 {
		return r.Raw, nil
	}
	return json.Marshal(r)
}

// VerdictOrUnknown возвращает вердикт или Unknown, если сервис его не прислал.
func (r *InspectionResult) VerdictOrUnknown() string {
	if r.Verdict == "" {
		return VerdictUnknown
	}
	return r.Verdict
}

// FinalConf возвращает итоговую уверенность, если она есть.
func (r *InspectionResult) FinalConf() (float64, bool) {
	if r.Scores == nil || r.Scores.FinalConf == nil {
		return 0, false
	}
	return *r.Scores.FinalConf, true
}

// OCRConf возвращает уверенность OCR, если она есть.
func (r *InspectionResult) OCRConf() (float64, bool) {
	if r.Scores == nil || r.Scores.OCRConf == nil {
		return 0, false
	}
	return *r.Scores.OCRConf, true
}

// Text возвращает распознанный текст или пустую строку.
func (r *InspectionResult) Text() string {
	if r.Extracted == nil {
		return ""
	}
	return r.Extracted.Text
}

// Известные вердикты. Сервис может прислать и другие значения.
const (
	VerdictGenuine = "Genuine"
	VerdictSuspect = "Suspect"
	VerdictReject  = "Reject"
	VerdictUnknown = "Unknown"
)
