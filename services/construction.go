package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"mpa-platform/models"
)

type constructionStore interface {
	GetSiteSettings(ctx context.Context) (*models.SiteSettings, error)
	ListPhases(ctx context.Context) ([]models.ConstructionPhase, error)
	SetPhaseStatus(ctx context.Context, id string, status models.PhaseStatus, at time.Time) (*models.ConstructionPhase, error)
	UpdateConstructionProgress(ctx context.Context, progress int) (*models.SiteSettings, error)
	ToggleConstructionMode(ctx context.Context, enabled bool) (*models.SiteSettings, error)
}

// ConstructionService drives the site's "under construction" progress
// indicator. Remote failures never propagate: mutations report false and
// reads report nil, each with a log line.
type ConstructionService struct {
	store       constructionStore
	autoAdvance bool
	now         func() time.Time
	log         *slog.Logger

	mu     sync.RWMutex
	cached *models.SiteSettings
}

func NewConstructionService(store constructionStore, autoAdvance bool, log *slog.Logger) *ConstructionService {
	return &ConstructionService{
		store:       store,
		autoAdvance: autoAdvance,
		now:         func() time.Time { return time.Now().UTC() },
		log:         log.With("service", "construction"),
	}
}

// ClampProgress bounds value to [0,100].
func ClampProgress(value int) int {
	switch {
	case value < 0:
		return 0
	case value > 100:
		return 100
	}
	return value
}

// FetchSettings reads the settings row and refreshes the cache.
func (s *ConstructionService) FetchSettings(ctx context.Context) *models.SiteSettings {
	settings, err := s.store.GetSiteSettings(ctx)
	if err != nil {
		s.log.Error("failed to fetch site settings", "error", err)
		return nil
	}
	s.remember(settings)
	return settings
}

// Settings returns the cached settings, fetching them on first use.
func (s *ConstructionService) Settings(ctx context.Context) *models.SiteSettings {
	s.mu.RLock()
	cached := s.cached
	s.mu.RUnlock()
	if cached != nil {
		out := *cached
		return &out
	}
	return s.FetchSettings(ctx)
}

// FetchPhases returns phases ordered by start. An empty table yields the
// built-in default plan. On error it returns nil.
func (s *ConstructionService) FetchPhases(ctx context.Context) []models.ConstructionPhase {
	phases, err := s.store.ListPhases(ctx)
	if err != nil {
		s.log.Error("failed to fetch construction phases", "error", err)
		return nil
	}
	if len(phases) == 0 {
		out := make([]models.ConstructionPhase, len(models.DefaultPhases))
		copy(out, models.DefaultPhases)
		return out
	}
	return phases
}

// StartPhase marks a phase in progress and moves overall progress to its start.
// Predecessors are not checked here; see CanStart.
func (s *ConstructionService) StartPhase(ctx context.Context, id string) bool {
	phase, err := s.store.SetPhaseStatus(ctx, id, models.PhaseInProgress, s.now())
	if err != nil {
		s.log.Error("failed to start phase", "phase_id", id, "error", err)
		return false
	}
	return s.SetProgress(ctx, phase.ProgressStart) >= 0
}

// CompletePhase marks a phase completed, moves overall progress to its end
// and, with auto-advance on, starts the next pending phase.
func (s *ConstructionService) CompletePhase(ctx context.Context, id string) bool {
	phase, err := s.store.SetPhaseStatus(ctx, id, models.PhaseCompleted, s.now())
	if err != nil {
		s.log.Error("failed to complete phase", "phase_id", id, "error", err)
		return false
	}
	if s.SetProgress(ctx, phase.ProgressEnd) < 0 {
		return false
	}
	if !s.autoAdvance {
		return true
	}

	next := nextPending(s.FetchPhases(ctx), phase)
	if next == nil {
		return true
	}
	s.log.Info("auto-advancing construction", "from", phase.Name, "to", next.Name)
	return s.StartPhase(ctx, next.ID)
}

// SetProgress clamps and persists overall progress. It returns the stored
// value, or -1 when the write failed.
func (s *ConstructionService) SetProgress(ctx context.Context, value int) int {
	clamped := ClampProgress(value)
	settings, err := s.store.UpdateConstructionProgress(ctx, clamped)
	if err != nil {
		s.log.Error("failed to update construction progress", "progress", clamped, "error", err)
		return -1
	}
	s.remember(settings)
	return clamped
}

func (s *ConstructionService) ToggleMode(ctx context.Context, enabled bool) bool {
	settings, err := s.store.ToggleConstructionMode(ctx, enabled)
	if err != nil {
		s.log.Error("failed to toggle construction mode", "enabled", enabled, "error", err)
		return false
	}
	s.remember(settings)
	return true
}

// CanStart reports whether every phase before id is completed.
func CanStart(phases []models.ConstructionPhase, id string) bool {
	for _, p := range phases {
		if p.ID == id {
			return p.Status == models.PhasePending
		}
		if p.Status != models.PhaseCompleted {
			return false
		}
	}
	return false
}

func nextPending(phases []models.ConstructionPhase, after *models.ConstructionPhase) *models.ConstructionPhase {
	for i := range phases {
		p := &phases[i]
		if p.ID != after.ID && p.Status == models.PhasePending && p.ProgressStart >= after.ProgressStart {
			return p
		}
	}
	return nil
}

func (s *ConstructionService) remember(settings *models.SiteSettings) {
	if settings == nil {
		return
	}
	cp := *settings
	s.mu.Lock()
	s.cached = &cp
	s.mu.Unlock()
}
