package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/calibration-portal/pkg/models"
	"github.com/ekaya-inc/calibration-portal/pkg/repositories"
)

// PersonnelService manages lab staff records.
type PersonnelService interface {
	List(ctx context.Context) ([]*models.Personnel, error)
	Get(ctx context.Context, id int64) (*models.Personnel, error)
	Create(ctx context.Context, p *models.Personnel) (*models.Personnel, error)
	Update(ctx context.Context, id int64, p *models.Personnel) (*models.Personnel, error)
	Delete(ctx context.Context, id int64) error
}

type personnelService struct {
	repo   repositories.PersonnelRepository
	logger *zap.Logger
}

// NewPersonnelService creates a new personnel service.
func NewPersonnelService(repo repositories.PersonnelRepository, logger *zap.Logger) PersonnelService {
	return &personnelService{
		repo:   repo,
		logger: logger.Named("personnel"),
	}
}

const msgPersonnelNameRequired = "Name is required"

func (s *personnelService) List(ctx context.Context) ([]*models.Personnel, error) {
	return s.repo.List(ctx)
}

func (s *personnelService) Get(ctx context.Context, id int64) (*models.Personnel, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *personnelService) Create(ctx context.Context, p *models.Personnel) (*models.Personnel, error) {
	if err := validateInput(p, msgPersonnelNameRequired); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create personnel: %w", err)
	}
	s.logger.Info("Created personnel", zap.Int64("id", p.ID))
	return p, nil
}

func (s *personnelService) Update(ctx context.Context, id int64, p *models.Personnel) (*models.Personnel, error) {
	if err := validateInput(p, msgPersonnelNameRequired); err != nil {
		return nil, err
	}
	p.ID = id
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update personnel: %w", err)
	}
	return p, nil
}

func (s *personnelService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete personnel: %w", err)
	}
	s.logger.Info("Deleted personnel", zap.Int64("id", id))
	return nil
}

var _ PersonnelService = (*personnelService)(nil)
