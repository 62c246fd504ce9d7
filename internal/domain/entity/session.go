package entity

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// LifecycleState — состояние запроса на инспекцию в сессии.
type LifecycleState string

const (
	StateIdle      LifecycleState = "idle"      // Ничего не отправлено
	StatePending   LifecycleState = "pending"   // Ждём ответ сервиса
	StateCompleted LifecycleState = "completed" // Результат получен и показан
	StateFailed    LifecycleState = "failed"    // Запрос или разбор ответа не удался
)

// Session — всё изменяемое состояние рабочего места оператора.
// Методы безопасны для вызова из разных горутин.
type Session struct {
	ID int64

	mu         sync.Mutex
	state      LifecycleState
	params     InspectionParameters
	image      *Image
	overlay    *Overlay
	drop       DropTarget
	lastResult *InspectionResult
	history    HistoryLedger
	seq        uint64
	pending    uint64
}

// NewSession создаёт пустую сессию с параметрами по умолчанию.
func NewSession(id int64, defaults InspectionParameters) *Session {
	return &Session{
		ID:      id,
		state:   StateIdle,
		params:  defaults,
		overlay: NewOverlay(),
	}
}

// State возвращает текущее состояние жизненного цикла.
func (s *Session) State() LifecycleState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Parameters возвращает текущие параметры формы.
func (s *Session) Parameters() InspectionParameters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

// SelectPart выбирает деталь. Допускается любой введённый идентификатор.
func (s *Session) SelectPart(partID string) {
	s.mu.Lock()
	s.params.PartID = strings.TrimSpace(partID)
	s.mu.Unlock()
}

// SetPSM задаёт режим сегментации.
func (s *Session) SetPSM(psm string) error {
	psm = strings.TrimSpace(psm)
	if err := ValidatePSM(psm); err != nil {
		return err
	}
	s.mu.Lock()
	s.params.PSM = psm
	s.mu.Unlock()
	return nil
}

// SetAdaptive включает или выключает адаптивный порог.
func (s *Session) SetAdaptive(on bool) {
	s.mu.Lock()
	s.params.Adaptive = on
	s.mu.Unlock()
}

// SetWhitelist задаёт разрешённые символы, пустая строка допустима.
func (s *Session) SetWhitelist(chars string) {
	s.mu.Lock()
	s.params.Whitelist = strings.TrimSpace(chars)
	s.mu.Unlock()
}

// AcceptImage заменяет текущее изображение уже декодированным и подгоняет слой под его размер.
// Ответ на запрос, отправленный с прежним изображением, после этого устаревает.
func (s *Session) AcceptImage(img *Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.image = img
	s.overlay.Resize(img.Width, img.Height)
	s.abandonPending()
}

// DropImage сбрасывает изображение после неудачного декодирования.
func (s *Session) DropImage() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.image = nil
	s.overlay.Hide()
	s.abandonPending()
}

// abandonPending делает ответ на текущий запрос устаревшим. Вызывается под s.mu.
func (s *Session) abandonPending() {
	s.seq++
	s.pending = 0
	if s.state == StatePending {
		s.state = StateIdle
	}
}

// Image возвращает текущее изображение или nil.
func (s *Session) Image() *Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.image
}

// DragEnter подсвечивает зону перетаскивания.
func (s *Session) DragEnter() {
	s.mu.Lock()
	s.drop.Enter()
	s.mu.Unlock()
}

// DragLeave снимает подсветку.
func (s *Session) DragLeave() {
	s.mu.Lock()
	s.drop.Leave()
	s.mu.Unlock()
}

// Drop завершает перетаскивание, подсветка снимается в любом случае.
func (s *Session) Drop() {
	s.mu.Lock()
	s.drop.Drop()
	s.mu.Unlock()
}

// DropActive сообщает, подсвечена ли зона перетаскивания.
func (s *Session) DropActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drop.Active()
}

// WithOverlay выполняет fn под блокировкой сессии.
func (s *Session) WithOverlay(fn func(o *Overlay)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.overlay)
}

// Clear убирает изображение, результат и рамку. Журнал не трогается.
// Ответы на уже отправленные запросы после этого считаются устаревшими.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.image = nil
	s.lastResult = nil
	s.overlay.Hide()
	s.state = StateIdle
	s.abandonPending()
}

// Begin переводит сессию в Pending и собирает запрос из текущих изображения и параметров.
func (s *Session) Begin() (*InspectionRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.image == nil {
		return nil, ErrNoImage
	}
	s.seq++
	s.pending = s.seq
	s.state = StatePending
	return &InspectionRequest{
		ID:         s.seq,
		Parameters: s.params,
		Image:      s.image,
	}, nil
}

// Complete принимает ответ на последний запрос: рисует рамку и пишет запись в журнал.
func (s *Session) Complete(req *InspectionRequest, res *InspectionResult, at time.Time) (HistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkCurrent(req); err != nil {
		return HistoryRecord{}, err
	}
	s.pending = 0
	s.state = StateCompleted
	s.lastResult = res

	s.overlay.Clear()
	s.overlay.DrawBBox(res.BBox)

	rec := NewHistoryRecord(at, req.Parameters.EffectivePartID(), res)
	s.history.Append(rec)
	return rec, nil
}

// Fail фиксирует неудачу последнего запроса. Результат и журнал не меняются.
func (s *Session) Fail(req *InspectionRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkCurrent(req); err != nil {
		return err
	}
	s.pending = 0
	s.state = StateFailed
	return nil
}

func (s *Session) checkCurrent(req *InspectionRequest) error {
	if req == nil || s.pending == 0 || req.ID != s.pending {
		return fmt.Errorf("%w: request %d", ErrStaleResponse, requestID(req))
	}
	return nil
}

func requestID(req *InspectionRequest) uint64 {
	if req == nil {
		return 0
	}
	return req.ID
}

// LastResult возвращает последний показанный результат.
func (s *Session) LastResult() *InspectionResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastResult
}

// History возвращает журнал, новые записи первыми.
func (s *Session) History() []HistoryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Records()
}
