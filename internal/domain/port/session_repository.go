package port

import (
	"context"

	"aoi-workspace/internal/domain/entity"
)

// SessionRepository хранилище сессий рабочего места
type SessionRepository interface {
	// Get возвращает сессию по ID, создаёт новую если не найдена
	Get(ctx context.Context, sessionID int64) (*entity.Session, error)

	// Delete удаляет сессию
	Delete(ctx context.Context, sessionID int64) error
}
