package app

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"aoi-workspace/internal/domain/entity"
	"aoi-workspace/internal/domain/port"
)

// WorkspaceService управляет рабочим местом оператора: изображение, параметры,
// отправка на инспекцию, результат и журнал.
type WorkspaceService struct {
	sessions   port.SessionRepository
	inspector  port.Inspector
	compositor port.OverlayCompositor
	log        zerolog.Logger
	now        func() time.Time
}

// Outcome — итог одного запроса на инспекцию.
type Outcome struct {
	Request *entity.InspectionRequest
	State   entity.LifecycleState
	View    *ResultView
	Record  *entity.HistoryRecord
	Err     error
}

// ParametersUpdate — изменения формы; nil означает «не трогать».
type ParametersUpdate struct {
	PartID    *string `json:"part_id"`
	PSM       *string `json:"psm"`
	Adaptive  *bool   `json:"adaptive"`
	Whitelist *string `json:"whitelist"`
}

// NewWorkspaceService создаёт сервис рабочего места.
func NewWorkspaceService(
	sessions port.SessionRepository,
	inspector port.Inspector,
	compositor port.OverlayCompositor,
	log zerolog.Logger,
) *WorkspaceService {
	return &WorkspaceService{
		sessions:   sessions,
		inspector:  inspector,
		compositor: compositor,
		log:        log,
		now:        time.Now,
	}
}

// Session возвращает сессию по ID.
func (s *WorkspaceService) Session(ctx context.Context, sessionID int64) (*entity.Session, error) {
	return s.sessions.Get(ctx, sessionID)
}

// UpdateParameters применяет изменения формы. Неизвестный psm отклоняется целиком.
func (s *WorkspaceService) UpdateParameters(ctx context.Context, sessionID int64, upd ParametersUpdate) (entity.InspectionParameters, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return entity.InspectionParameters{}, err
	}
	if upd.PSM != nil {
		if err := entity.ValidatePSM(*upd.PSM); err != nil {
			return session.Parameters(), err
		}
		if err := session.SetPSM(*upd.PSM); err != nil {
			return session.Parameters(), err
		}
	}
	if upd.PartID != nil {
		session.SelectPart(*upd.PartID)
	}
	if upd.Adaptive != nil {
		session.SetAdaptive(*upd.Adaptive)
	}
	if upd.Whitelist != nil {
		session.SetWhitelist(*upd.Whitelist)
	}
	return session.Parameters(), nil
}

// DragEnter отмечает, что над зоной перетаскивают файл.
func (s *WorkspaceService) DragEnter(ctx context.Context, sessionID int64) error {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	session.DragEnter()
	return nil
}

// DragLeave снимает подсветку зоны.
func (s *WorkspaceService) DragLeave(ctx context.Context, sessionID int64) error {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	session.DragLeave()
	return nil
}

// AcceptImage декодирует и делает текущим новое изображение, заменяя прежнее.
// При неудаче сессия остаётся без изображения. Перетаскивание завершается в любом случае.
func (s *WorkspaceService) AcceptImage(ctx context.Context, sessionID int64, name string, data []byte, source entity.ImageSource) (*entity.Image, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if source == entity.SourceDrop {
		defer session.Drop()
	}

	img, err := DecodeImage(name, data, source)
	if err != nil {
		session.DropImage()
		s.log.Warn().Err(err).Int64("session", sessionID).Str("name", name).Msg("image rejected")
		return nil, err
	}
	session.AcceptImage(img)

	s.log.Debug().
		Int64("session", sessionID).
		Str("name", name).
		Str("format", img.Format).
		Int("width", img.Width).
		Int("height", img.Height).
		Str("source", string(source)).
		Msg("image loaded")
	return img, nil
}

// Clear убирает изображение и результат. Журнал остаётся.
func (s *WorkspaceService) Clear(ctx context.Context, sessionID int64) error {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	session.Clear()
	return nil
}

// Reset начинает сессию заново: параметры по умолчанию, пустой журнал.
func (s *WorkspaceService) Reset(ctx context.Context, sessionID int64) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	s.log.Info().Int64("session", sessionID).Msg("session reset")
	return nil
}

// Begin переводит сессию в Pending. Без изображения возвращает entity.ErrNoImage и ничего не отправляет.
func (s *WorkspaceService) Begin(ctx context.Context, sessionID int64) (*entity.InspectionRequest, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	req, err := session.Begin()
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Int64("session", sessionID).
		Uint64("request", req.ID).
		Str("part", req.Parameters.EffectivePartID()).
		Str("psm", req.Parameters.PSM).
		Bool("adaptive", req.Parameters.Adaptive).
		Msg("inspection submitted")
	return req, nil
}

// Execute выполняет запрос и переводит сессию в Completed или Failed.
// Ответ на устаревший запрос отбрасывается с entity.ErrStaleResponse.
func (s *WorkspaceService) Execute(ctx context.Context, sessionID int64, req *entity.InspectionRequest) (*Outcome, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	res, inspectErr := s.inspector.Inspect(ctx, req)
	if inspectErr != nil {
		if err := session.Fail(req); err != nil {
			s.logStale(sessionID, req, err)
			return nil, err
		}
		s.log.Error().
			Err(inspectErr).
			Int64("session", sessionID).
			Uint64("request", req.ID).
			Msg("inspection failed")
		return &Outcome{Request: req, State: entity.StateFailed, Err: inspectErr}, nil
	}

	rec, err := session.Complete(req, res, s.now())
	if err != nil {
		s.logStale(sessionID, req, err)
		return nil, err
	}

	view := Interpret(res)
	s.log.Info().
		Int64("session", sessionID).
		Uint64("request", req.ID).
		Str("part", rec.PartID).
		Str("verdict", rec.Verdict).
		Int("reasons", len(res.ReasonCodes)).
		Bool("bbox", res.BBox != nil).
		Msg("inspection completed")
	return &Outcome{Request: req, State: entity.StateCompleted, View: &view, Record: &rec}, nil
}

func (s *WorkspaceService) logStale(sessionID int64, req *entity.InspectionRequest, err error) {
	if errors.Is(err, entity.ErrStaleResponse) {
		s.log.Warn().Int64("session", sessionID).Uint64("request", req.ID).Msg("discarding stale inspection response")
	}
}

// Submit — Begin и Execute одним вызовом.
func (s *WorkspaceService) Submit(ctx context.Context, sessionID int64) (*Outcome, error) {
	req, err := s.Begin(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.Execute(ctx, sessionID, req)
}

// LastView возвращает представление последнего результата.
func (s *WorkspaceService) LastView(ctx context.Context, sessionID int64) (*ResultView, bool, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	res := session.LastResult()
	if res == nil {
		return nil, false, nil
	}
	view := Interpret(res)
	return &view, true, nil
}

// Preview накладывает рамку на текущее изображение. false, если изображения нет.
func (s *WorkspaceService) Preview(ctx context.Context, sessionID int64) ([]byte, bool, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	img := session.Image()
	if img == nil {
		return nil, false, nil
	}

	var out []byte
	session.WithOverlay(func(o *entity.Overlay) {
		out, err = s.compositor.Compose(img.Data, o)
	})
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

// History возвращает строки видимого журнала, новые первыми.
func (s *WorkspaceService) History(ctx context.Context, sessionID int64) ([]HistoryRow, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return HistoryRows(session.History()), nil
}

// ExportHistory возвращает CSV журнала; false, если журнал пуст.
func (s *WorkspaceService) ExportHistory(ctx context.Context, sessionID int64) (*Export, bool, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	exp, ok := ExportHistory(session.History())
	return exp, ok, nil
}

// LastResultJSON возвращает последний результат с отступами; false, если результата не было.
func (s *WorkspaceService) LastResultJSON(ctx context.Context, sessionID int64) (string, bool, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return "", false, err
	}
	res := session.LastResult()
	if res == nil {
		return "", false, nil
	}
	out, err := PrettyResultJSON(res)
	if err != nil {
		return "", false, err
	}
	return out, true, nil
}
