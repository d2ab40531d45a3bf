package gateway

import (
	"context"

	"mpa-platform/apperror"
	"mpa-platform/models"

	"gorm.io/gorm"
)

// ListPublishedProjects returns one page of the public feed and the total count.
func (g *Gateway) ListPublishedProjects(ctx context.Context, limit, offset int) ([]models.Project, int64, error) {
	published := func() *gorm.DB {
		return g.DB.WithContext(ctx).Model(&models.Project{}).Where("status = ?", models.ProjectPublished)
	}

	var total int64
	if err := published().Count(&total).Error; err != nil {
		return nil, 0, translate(err, "projects", "")
	}

	var out []models.Project
	if err := published().Order("published_at DESC").Limit(limit).Offset(offset).Find(&out).Error; err != nil {
		return nil, 0, translate(err, "projects", "")
	}
	return out, total, nil
}

func (g *Gateway) GetProject(ctx context.Context, id string) (*models.Project, error) {
	var p models.Project
	if err := g.DB.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err, "project", id)
	}
	return &p, nil
}

func (g *Gateway) InsertProject(ctx context.Context, p *models.Project) error {
	return translate(g.DB.WithContext(ctx).Create(p).Error, "project", p.Slug)
}

// DeleteProject soft-deletes a project owned by ownerID.
func (g *Gateway) DeleteProject(ctx context.Context, ownerID, id string) error {
	res := g.DB.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).Delete(&models.Project{})
	if res.Error != nil {
		return translate(res.Error, "project", id)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("project", id)
	}
	return nil
}
