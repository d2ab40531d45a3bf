// models/project.go
package models

import "time"

const (
	ProjectDraft     = "draft"
	ProjectPublished = "published"
)

// Project is an entry in the public project feed.
type Project struct {
	ID      string `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	OwnerID string `json:"owner_id" gorm:"type:uuid;index;not null"`
	Title   string `json:"title" gorm:"not null"`
	Slug    string `json:"slug" gorm:"uniqueIndex;not null"`
	Summary string `json:"summary"`
	Body    string `json:"body" gorm:"type:text"`

	CoverURL string `json:"cover_url,omitempty"`
	Link     string `json:"link,omitempty"`

	Status      string     `json:"status" gorm:"type:varchar(16);default:'draft';index"` // draft | published
	PublishedAt *time.Time `json:"published_at,omitempty"`

	Timestamps
	SoftDelete
}

// ProjectPage is one page of the feed.
type ProjectPage struct {
	Items      []Project `json:"items"`
	Page       int       `json:"page"`
	Size       int       `json:"size"`
	TotalItems int64     `json:"total_items"`
	TotalPages int       `json:"total_pages"`
}
