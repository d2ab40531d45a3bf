package models

import "time"

type PhaseStatus string

const (
	PhasePending    PhaseStatus = "pending"
	PhaseInProgress PhaseStatus = "in_progress"
	PhaseCompleted  PhaseStatus = "completed"
)

func (s PhaseStatus) rank() int {
	switch s {
	case PhasePending:
		return 0
	case PhaseInProgress:
		return 1
	case PhaseCompleted:
		return 2
	}
	return -1
}

func (s PhaseStatus) IsValid() bool {
	return s.rank() >= 0
}

// CanAdvanceTo reports whether a phase may move from s to next.
// Status only moves forward: pending → in_progress → completed. A pending
// phase may be completed directly; its start time is then backfilled.
func (s PhaseStatus) CanAdvanceTo(next PhaseStatus) bool {
	if !s.IsValid() || !next.IsValid() {
		return false
	}
	return next.rank() > s.rank()
}

// ConstructionPhase is one step of the site's "under construction" roadmap.
// Phases are ordered by ProgressStart.
type ConstructionPhase struct {
	ID            string      `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Name          string      `gorm:"not null" json:"name"`
	Description   string      `gorm:"type:text" json:"description"`
	ProgressStart int         `gorm:"not null;index" json:"progress_start"`
	ProgressEnd   int         `gorm:"not null" json:"progress_end"`
	Status        PhaseStatus `gorm:"type:varchar(16);not null;default:'pending'" json:"status"`
	StartedAt     *time.Time  `json:"started_at,omitempty"`
	CompletedAt   *time.Time  `json:"completed_at,omitempty"`

	Timestamps
}

// SiteSettings is a single-row table (ID 1) holding site-wide flags.
type SiteSettings struct {
	ID                   int       `gorm:"primaryKey" json:"-"`
	ConstructionMode     bool      `gorm:"not null;default:false" json:"construction_mode"`
	ConstructionProgress int       `gorm:"not null;default:0" json:"progress"`
	UpdatedAt            time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

const SiteSettingsID = 1

// DefaultPhases is served when the phase table is empty and seeded on first boot.
var DefaultPhases = []ConstructionPhase{
	{
		Name:          "Planning",
		Description:   "Requirements, scope and roadmap for the new platform",
		ProgressStart: 0,
		ProgressEnd:   20,
		Status:        PhasePending,
	},
	{
		Name:          "Design",
		Description:   "Interface design, branding and user flows",
		ProgressStart: 20,
		ProgressEnd:   40,
		Status:        PhasePending,
	},
	{
		Name:          "Development",
		Description:   "Building features: projects, Spark Points, services",
		ProgressStart: 40,
		ProgressEnd:   70,
		Status:        PhasePending,
	},
	{
		Name:          "Testing",
		Description:   "Quality assurance and beta feedback",
		ProgressStart: 70,
		ProgressEnd:   90,
		Status:        PhasePending,
	},
	{
		Name:          "Launch",
		Description:   "Public release",
		ProgressStart: 90,
		ProgressEnd:   100,
		Status:        PhasePending,
	},
}
