package storage

import (
	"context"
	"sync"

	"aoi-workspace/internal/domain/entity"
	"aoi-workspace/internal/domain/port"
)

// MemorySessionRepository in-memory хранилище сессий. Сессии живут до перезапуска процесса.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[int64]*entity.Session
	defaults func() entity.InspectionParameters
}

// NewMemorySessionRepository создаёт хранилище. defaults вызывается для каждой новой сессии.
func NewMemorySessionRepository(defaults func() entity.InspectionParameters) *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[int64]*entity.Session),
		defaults: defaults,
	}
}

// Get возвращает сессию по ID, создаёт новую если не найдена
func (r *MemorySessionRepository) Get(ctx context.Context, sessionID int64) (*entity.Session, error) {
	r.mu.RLock()
	session, exists := r.sessions[sessionID]
	r.mu.RUnlock()

	if exists {
		return session, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Пока ждали блокировку, сессию мог создать другой обработчик.
	if session, exists = r.sessions[sessionID]; exists {
		return session, nil
	}

	var params entity.InspectionParameters
	if r.defaults != nil {
		params = r.defaults()
	}
	session = entity.NewSession(sessionID, params)
	r.sessions[sessionID] = session

	return session, nil
}

// Delete удаляет сессию
func (r *MemorySessionRepository) Delete(ctx context.Context, sessionID int64) error {
	r.mu.Lock()
	delete(r.sessions, sessionID)
	r.mu.Unlock()

	return nil
}

// Проверка реализации интерфейса
var _ port.SessionRepository = (*MemorySessionRepository)(nil)
