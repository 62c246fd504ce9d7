package textview

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	app "aoi-workspace/internal/application"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment, style table.Style) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(style)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// HistoryTable рисует журнал для терминала.
func HistoryTable(rows []app.HistoryRow) string {
	return historyTable(rows, table.StyleRounded)
}

// CompactHistoryTable рисует журнал ASCII-символами для моноширинного блока в чате.
func CompactHistoryTable(rows []app.HistoryRow) string {
	return historyTable(rows, table.StyleDefault)
}

func historyTable(rows []app.HistoryRow, style table.Style) string {
	data := make([][]string, 0, len(rows))
	for _, r := range rows {
		data = append(data, []string{r.Time, r.Part, r.Verdict, r.Conf, r.Reasons})
	}
	return renderTable(
		[]string{"Time", "Part", "Verdict", "Conf", "Reasons"},
		data,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
		style,
	)
}

// ResultTable рисует представление результата в две колонки.
func ResultTable(view app.ResultView) string {
	reasons := make([]string, 0, len(view.Reasons))
	for _, r := range view.Reasons {
		reasons = append(reasons, Marker(r.Severity)+" "+r.Label)
	}
	rows := [][]string{
		{"Verdict", Marker(view.Verdict.Severity) + " " + view.Verdict.Label},
		{"Final", Marker(view.Final.Severity) + " " + view.Final.Label},
		{"OCR", Marker(view.OCR.Severity) + " " + view.OCR.Label},
		{"Extracted Text", view.Text},
		{"Reasons", strings.Join(reasons, "\n")},
		{"BBox", view.BBox},
	}
	return renderTable([]string{"Field", "Value"}, rows, nil, table.StyleRounded)
}

// Marker возвращает значок уровня подсветки.
func Marker(s app.Severity) string {
	switch s {
	case app.SeverityOK:
		return "✅"
	case app.SeverityWarn:
		return "⚠️"
	case app.SeverityErr:
		return "❌"
	default:
		return "▫️"
	}
}
