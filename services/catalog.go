package services

import (
	"context"
	"log/slog"
	"strings"

	"mpa-platform/apperror"
	"mpa-platform/models"

	"github.com/gosimple/slug"
)

type catalogStore interface {
	ListServices(ctx context.Context, includeInactive bool) ([]models.DigitalService, error)
	GetService(ctx context.Context, id string) (*models.DigitalService, error)
	InsertService(ctx context.Context, s *models.DigitalService) error
	UpdateService(ctx context.Context, id string, updates map[string]any) (*models.DigitalService, error)
	PurchaseService(ctx context.Context, userID, serviceID, note string) (*models.ServiceOrder, error)
	ListOrders(ctx context.Context, userID string) ([]models.ServiceOrder, error)
}

type ServiceInput struct {
	Name        string
	Description string
	PricePoints int64
	Active      *bool
}

// CatalogService sells digital services for Spark Points.
type CatalogService struct {
	store catalogStore
	log   *slog.Logger
}

func NewCatalogService(store catalogStore, log *slog.Logger) *CatalogService {
	return &CatalogService{store: store, log: log.With("service", "catalog")}
}

func (s *CatalogService) List(ctx context.Context, includeInactive bool) ([]models.DigitalService, error) {
	return s.store.ListServices(ctx, includeInactive)
}

func (s *CatalogService) Get(ctx context.Context, id string) (*models.DigitalService, error) {
	return s.store.GetService(ctx, id)
}

// Purchase deducts the price from the buyer atomically; a short balance
// fails with apperror.ErrInsufficientPoints.
func (s *CatalogService) Purchase(ctx context.Context, userID, serviceID, note string) (*models.ServiceOrder, error) {
	order, err := s.store.PurchaseService(ctx, userID, serviceID, strings.TrimSpace(note))
	if err != nil {
		return nil, err
	}
	s.log.Info("service purchased", "user_id", userID, "service_id", serviceID, "points", order.PointsSpent)
	return order, nil
}

func (s *CatalogService) Orders(ctx context.Context, userID string) ([]models.ServiceOrder, error) {
	return s.store.ListOrders(ctx, userID)
}

func (s *CatalogService) Create(ctx context.Context, in ServiceInput) (*models.DigitalService, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, apperror.ValidationFailed("name", "Service name is required.")
	}
	if in.PricePoints <= 0 {
		return nil, apperror.ValidationFailed("price_points", "Price must be positive.")
	}
	svc := &models.DigitalService{
		Name:        in.Name,
		Slug:        slug.Make(in.Name),
		Description: strings.TrimSpace(in.Description),
		PricePoints: in.PricePoints,
		Active:      in.Active == nil || *in.Active,
	}
	if err := s.store.InsertService(ctx, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

func (s *CatalogService) Update(ctx context.Context, id string, in ServiceInput) (*models.DigitalService, error) {
	updates := map[string]any{}
	if name := strings.TrimSpace(in.Name); name != "" {
		updates["name"] = name
		updates["slug"] = slug.Make(name)
	}
	if in.Description != "" {
		updates["description"] = strings.TrimSpace(in.Description)
	}
	if in.PricePoints < 0 {
		return nil, apperror.ValidationFailed("price_points", "Price must be positive.")
	}
	if in.PricePoints > 0 {
		updates["price_points"] = in.PricePoints
	}
	if in.Active != nil {
		updates["active"] = *in.Active
	}
	if len(updates) == 0 {
		return nil, apperror.ValidationFailed("", "Nothing to update.")
	}
	return s.store.UpdateService(ctx, id, updates)
}
