package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// HistoryRecord — запись журнала о завершённой инспекции. После создания не меняется.
type HistoryRecord struct {
	ID        uuid.UUID
	Timestamp time.Time
	PartID    string
	Verdict   string
	FinalConf *float64
	Reasons   string
	Raw       *InspectionResult
}

// NewHistoryRecord фиксирует результат для детали, отправленной в запросе.
func NewHistoryRecord(at time.Time, partID string, res *InspectionResult) HistoryRecord {
	rec := HistoryRecord{
		ID:        uuid.New(),
		Timestamp: at,
		PartID:    partID,
		Verdict:   res.VerdictOrUnknown(),
		Reasons:   strings.Join(res.ReasonCodes, " "),
		Raw:       res,
	}
	if v, ok := res.FinalConf(); ok {
		rec.FinalConf = &v
	}
	return rec
}

// HistoryLedger — журнал сессии, только добавление, новые записи первыми.
type HistoryLedger struct {
	records []HistoryRecord
}

// Append добавляет запись в начало журнала.
func (l *HistoryLedger) Append(rec HistoryRecord) {
	l.records = append([]HistoryRecord{rec}, l.records...)
}

// Records возвращает копию журнала, новые записи первыми.
func (l *HistoryLedger) Records() []HistoryRecord {
	return append([]HistoryRecord(nil), l.records...)
}

// Len возвращает количество записей.
func (l *HistoryLedger) Len() int { return len(l.records) }
