package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"aoi-workspace/internal/domain/entity"
	"aoi-workspace/internal/domain/port"
)

// CatalogService загружает каталог деталей один раз при старте.
type CatalogService struct {
	source port.CatalogSource
	log    zerolog.Logger

	mu      sync.RWMutex
	catalog *entity.Catalog
}

// NewCatalogService создаёт сервис каталога.
func NewCatalogService(source port.CatalogSource, log zerolog.Logger) *CatalogService {
	return &CatalogService{source: source, log: log}
}

// Load запрашивает каталог. Ошибка не возвращается: при любом сбое
// подставляется единственная запись example_part, а сбой только логируется.
func (s *CatalogService) Load(ctx context.Context) entity.Catalog {
	cat := s.fetch(ctx)

	s.mu.Lock()
	s.catalog = &cat
	s.mu.Unlock()

	s.log.Info().
		Int("parts", len(cat.Entries)).
		Str("default", cat.DefaultPartID()).
		Bool("fallback", cat.Fallback).
		Msg("part catalog loaded")
	return cat
}

func (s *CatalogService) fetch(ctx context.Context) entity.Catalog {
	if s.source == nil {
		return entity.FallbackCatalog()
	}
	parts, err := s.source.ListParts(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("part catalog unavailable, using fallback")
		return entity.FallbackCatalog()
	}
	if len(parts) == 0 {
		s.log.Warn().Msg("part catalog is empty, using fallback")
	}
	return entity.NewCatalog(parts)
}

// Catalog возвращает загруженный каталог или запасной, если Load ещё не вызывался.
func (s *CatalogService) Catalog() entity.Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.catalog == nil {
		return entity.FallbackCatalog()
	}
	return *s.catalog
}
