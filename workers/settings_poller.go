package workers

import (
	"context"
	"log/slog"
	"time"

	"mpa-platform/models"
)

type settingsFetcher interface {
	FetchSettings(ctx context.Context) *models.SiteSettings
}

// SettingsPoller keeps the cached site settings fresh so that changes made
// directly in the database reach every instance within one interval.
type SettingsPoller struct {
	source   settingsFetcher
	interval time.Duration
	log      *slog.Logger

	last *models.SiteSettings
}

func NewSettingsPoller(source settingsFetcher, interval time.Duration, log *slog.Logger) *SettingsPoller {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &SettingsPoller{
		source:   source,
		interval: interval,
		log:      log.With("worker", "settings-poller"),
	}
}

// Start runs the poller in its own goroutine until ctx is cancelled.
func (p *SettingsPoller) Start(ctx context.Context) {
	go p.run(ctx)
}

func (p *SettingsPoller) run(ctx context.Context) {
	p.log.Info("starting settings polling", "interval", p.interval)
	p.poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info("settings polling stopped")
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

// poll fetches once and reports whether the settings changed since the last
// successful fetch. A failed fetch keeps the previous value.
func (p *SettingsPoller) poll(ctx context.Context) bool {
	current := p.source.FetchSettings(ctx)
	if current == nil {
		return false
	}

	prev := p.last
	p.last = current
	if prev == nil {
		return false
	}
	changed := prev.ConstructionMode != current.ConstructionMode ||
		prev.ConstructionProgress != current.ConstructionProgress
	if changed {
		p.log.Info("site settings changed",
			"construction_mode", current.ConstructionMode,
			"progress", current.ConstructionProgress,
		)
	}
	return changed
}
