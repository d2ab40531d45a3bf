package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"mpa-platform/apperror"
	"mpa-platform/models"
	"mpa-platform/utils"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

type projectStore interface {
	ListPublishedProjects(ctx context.Context, limit, offset int) ([]models.Project, int64, error)
	GetProject(ctx context.Context, id string) (*models.Project, error)
	InsertProject(ctx context.Context, p *models.Project) error
	DeleteProject(ctx context.Context, ownerID, id string) error
}

type ProjectInput struct {
	Title   string
	Summary string
	Body    string
	Link    string
	Publish bool
	Cover   *utils.Upload
}

type ProjectService struct {
	store   projectStore
	storage utils.Storage
	log     *slog.Logger
}

func NewProjectService(store projectStore, storage utils.Storage, log *slog.Logger) *ProjectService {
	return &ProjectService{store: store, storage: storage, log: log.With("service", "project")}
}

func (s *ProjectService) Feed(ctx context.Context, page Page) (*models.ProjectPage, error) {
	page = page.Normalize()
	items, total, err := s.store.ListPublishedProjects(ctx, page.Limit(), page.Offset())
	if err != nil {
		return nil, err
	}
	return &models.ProjectPage{
		Items:      items,
		Page:       page.Number,
		Size:       page.Size,
		TotalItems: total,
		TotalPages: page.TotalPages(total),
	}, nil
}

// Get hides drafts from everyone but their owner.
func (s *ProjectService) Get(ctx context.Context, viewerID, id string) (*models.Project, error) {
	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != models.ProjectPublished && p.OwnerID != viewerID {
		return nil, apperror.NotFound("project", id)
	}
	return p, nil
}

func (s *ProjectService) Create(ctx context.Context, ownerID string, in ProjectInput) (*models.Project, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, apperror.ValidationFailed("title", "Project title is required.")
	}

	p := &models.Project{
		OwnerID: ownerID,
		Title:   in.Title,
		// short suffix keeps slugs unique across owners
		Slug:    slug.Make(in.Title) + "-" + uuid.NewString()[:8],
		Summary: strings.TrimSpace(in.Summary),
		Body:    in.Body,
		Link:    strings.TrimSpace(in.Link),
		Status:  models.ProjectDraft,
	}
	if in.Publish {
		now := time.Now().UTC()
		p.Status = models.ProjectPublished
		p.PublishedAt = &now
	}

	if in.Cover != nil {
		if !strings.HasPrefix(in.Cover.ContentType, "image/") {
			return nil, apperror.ValidationFailed("cover", "Cover must be an image.")
		}
		url, err := s.storage.Upload(ctx, utils.ObjectKey("covers", ownerID, in.Cover.Filename), in.Cover.ContentType, in.Cover.Body)
		if err != nil {
			s.log.Error("failed to upload project cover", "owner_id", ownerID, "error", err)
			return nil, apperror.Remote("Failed to upload cover image. Please try again.")
		}
		p.CoverURL = url
	}

	if err := s.store.InsertProject(ctx, p); err != nil {
		return nil, err
	}
	s.log.Info("project created", "project_id", p.ID, "owner_id", ownerID, "status", p.Status)
	return p, nil
}

func (s *ProjectService) Delete(ctx context.Context, ownerID, id string) error {
	return s.store.DeleteProject(ctx, ownerID, id)
}
