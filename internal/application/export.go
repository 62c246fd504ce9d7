package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"aoi-workspace/internal/domain/entity"
)

const (
	HistoryFilename    = "inspection_history.csv"
	HistoryContentType = "text/csv"
	historyTimeLayout  = "15:04:05"
)

var historyHeader = []string{"time", "part", "verdict", "final_conf", "reasons"}

// Export — файл, который интерфейс предлагает оператору скачать.
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
}

// HistoryRow — строка видимого журнала.
type HistoryRow struct {
	Time    string `json:"time"`
	Part    string `json:"part"`
	Verdict string `json:"verdict"`
	Conf    string `json:"conf"`
	Reasons string `json:"reasons"`
}

// HistoryRows готовит журнал к показу, порядок сохраняется.
func HistoryRows(records []entity.HistoryRecord) []HistoryRow {
	rows := make([]HistoryRow, 0, len(records))
	for _, r := range records {
		conf := Placeholder
		if r.FinalConf != nil {
			conf = FormatPercent(*r.FinalConf)
		}
		rows = append(rows, HistoryRow{
			Time:    r.Timestamp.Local().Format(historyTimeLayout),
			Part:    r.PartID,
			Verdict: r.Verdict,
			Conf:    conf,
			Reasons: r.Reasons,
		})
	}
	return rows
}

// EncodeHistoryCSV сериализует журнал. Каждое поле в кавычках, кавычки внутри удваиваются.
// encoding/csv не умеет брать в кавычки все поля, поэтому пишем сами.
func EncodeHistoryCSV(records []entity.HistoryRecord) []byte {
	var buf bytes.Buffer
	writeCSVRow(&buf, historyHeader)
	for _, r := range records {
		conf := ""
		if r.FinalConf != nil {
			conf = strconv.FormatFloat(*r.FinalConf, 'f', -1, 64)
		}
		writeCSVRow(&buf, []string{
			r.Timestamp.Format(time.RFC3339),
			r.PartID,
			r.Verdict,
			conf,
			r.Reasons,
		})
	}
	return buf.Bytes()
}

func writeCSVRow(buf *bytes.Buffer, fields []string) {
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(strings.ReplaceAll(f, `"`, `""`))
		buf.WriteByte('"')
	}
	buf.WriteByte('\n')
}

// ExportHistory возвращает CSV-файл или false, если журнал пуст.
func ExportHistory(records []entity.HistoryRecord) (*Export, bool) {
	if len(records) == 0 {
		return nil, false
	}
	return &Export{
		Filename:    HistoryFilename,
		ContentType: HistoryContentType,
		Data:        EncodeHistoryCSV(records),
	}, true
}

// PrettyResultJSON возвращает ответ сервиса с отступами в два пробела.
func PrettyResultJSON(res *entity.InspectionResult) (string, error) {
	raw, err := res.RawJSON()
	if err != nil {
		return "", fmt.Errorf("serialize result: %w", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return "", fmt.Errorf("indent result: %w", err)
	}
	return buf.String(), nil
}
